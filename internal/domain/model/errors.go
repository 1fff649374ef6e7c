package model

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors shared by the engine and its adapters.
var (
	// ErrNotFound means the remote object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the remote signature moved since it was last read.
	ErrConflict = errors.New("conflict: remote signature changed")

	// ErrRateLimited means the content API refused the call because of rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotEligible means a note is not marked for publishing or is not markdown.
	ErrNotEligible = errors.New("note not eligible for publishing")

	// ErrOutOfScope means a remote path is not a managed note and must not be deleted.
	ErrOutOfScope = errors.New("path outside managed notes")

	// ErrBulkDeleteNotConfirmed means a batch would delete every published
	// note because no local candidates exist, and the caller did not confirm.
	ErrBulkDeleteNotConfirmed = errors.New("refusing to delete every published note without confirmation")
)

// RemoteError is a transport, auth or rate-limit failure reported by the
// remote content API.
type RemoteError struct {
	Op          string // read, write, delete, manifest, proposal
	Path        string
	StatusCode  int
	RateLimited bool
	Err         error
}

func (e *RemoteError) Error() string {
	var b strings.Builder
	b.WriteString("remote ")
	b.WriteString(e.Op)
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is reports rate-limit failures as ErrRateLimited.
func (e *RemoteError) Is(target error) bool {
	if target == ErrRateLimited {
		return e.RateLimited || e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// ReconciliationError reports an ambiguous computed state. The pass that
// produced it must not be applied.
type ReconciliationError struct {
	RemotePath string
	LocalPaths []string
	Reason     string
}

func (e *ReconciliationError) Error() string {
	if len(e.LocalPaths) > 0 {
		return fmt.Sprintf("reconciliation: %s: remote path %q claimed by %s",
			e.Reason, e.RemotePath, strings.Join(e.LocalPaths, ", "))
	}
	return fmt.Sprintf("reconciliation: %s: %q", e.Reason, e.RemotePath)
}

// ConfigurationError reports an invalid combination of settings. It is
// returned before any remote mutation happens.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration: %s: %s", e.Field, e.Message)
	}
	return "configuration: " + e.Message
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

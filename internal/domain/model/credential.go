package model

import "time"

// CredentialServiceGitHub is the service name under which the GitHub access
// token is stored.
const CredentialServiceGitHub = "github"

// Credential holds a stored secret for an external service, decrypted at the
// domain boundary.
type Credential struct {
	ID        int64
	Service   string
	Value     string
	UpdatedAt time.Time
}

// Package vault reads notes from a local Markdown vault on disk.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.NoteSource = (*FS)(nil)

// FS implements driven.NoteSource over a vault directory.
type FS struct {
	root     string // absolute path to the vault
	defaults model.NoteSettings
}

// NewFS creates an FS rooted at root. The directory must already exist.
func NewFS(root string, defaults model.NoteSettings) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: root is not a directory: %s", abs)
	}
	return &FS{root: abs, defaults: defaults}, nil
}

// Root returns the absolute vault directory.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a vault-relative path and rejects anything that escapes
// the root.
func (f *FS) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if rel == "" || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("vault: invalid path %q", rel)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("vault: path escapes vault root: %s", rel)
	}
	return abs, nil
}

// ListCandidates walks the vault and returns every markdown note with the
// publish flag set, in lexical path order. Hidden directories are skipped.
func (f *FS) ListCandidates(ctx context.Context) ([]model.Note, error) {
	var notes []model.Note
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != f.root && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isMarkdown(d.Name()) {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		rel, err := filepath.Rel(f.root, p)
		if err != nil {
			return err
		}

		note := parseNote(filepath.ToSlash(rel), data, f.defaults)
		if note.Publish {
			notes = append(notes, note)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vault: list candidates: %w", err)
	}
	return notes, nil
}

// Get loads a single note regardless of its publish flag.
func (f *FS) Get(_ context.Context, path string) (model.Note, error) {
	data, err := f.read(path)
	if err != nil {
		return model.Note{}, err
	}
	return parseNote(path, data, f.defaults), nil
}

// ReadBinary returns the raw bytes of any vault file.
func (f *FS) ReadBinary(_ context.Context, path string) ([]byte, error) {
	return f.read(path)
}

// MarkPublish sets dg-publish: true in the note's frontmatter.
func (f *FS) MarkPublish(_ context.Context, path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return notFound(path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return notFound(path, err)
	}

	updated, err := setFrontmatterBool(data, model.KeyPublish, true)
	if err != nil {
		return fmt.Errorf("vault: mark %s: %w", path, err)
	}
	if err := os.WriteFile(abs, updated, info.Mode().Perm()); err != nil {
		return fmt.Errorf("vault: write %s: %w", path, err)
	}
	return nil
}

func (f *FS) read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, notFound(path, err)
	}
	return data, nil
}

func notFound(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("vault: %s: %w", path, model.ErrNotFound)
	}
	return fmt.Errorf("vault: read %s: %w", path, err)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isMarkdown(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md")
}

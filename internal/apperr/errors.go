// Package apperr defines the sentinel errors shared across Ansuz components.
package apperr

import "errors"

var (
	// ErrNotFound indicates the requested path does not exist in the repository.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a document is already present at the target path.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNoChanges indicates an update request carried no fields to apply.
	ErrNoChanges = errors.New("no changes provided")
	// ErrInvalidFormat indicates a document without parseable front matter.
	ErrInvalidFormat = errors.New("invalid agent file format")
	// ErrNotConfigured indicates the GitHub token is missing from the environment.
	ErrNotConfigured = errors.New("GITHUB_TOKEN not configured")
)

// Package repository abstracts the remote repository holding the agent
// collection. All reads observe the live state of the default branch;
// all writes go through a branch so they can be proposed as pull requests.
package repository

import "context"

// EntryType distinguishes files from directories in a listing.
type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// Entry is a single item of a directory listing.
type Entry struct {
	Name string
	Path string
	Type EntryType
}

// Provider is the interface for repository operations.
type Provider interface {
	// ListDirectory returns the entries of the directory at path
	// ("" for the repository root) on the default branch.
	ListDirectory(ctx context.Context, path string) ([]Entry, error)
	// ReadFile returns the decoded content of the file at path together
	// with its blob SHA, used as the version token for mutations.
	ReadFile(ctx context.Context, path string) (content, sha string, err error)
	// DefaultBranch returns the repository's default branch name.
	DefaultBranch(ctx context.Context) (string, error)
	// HeadSHA returns the commit SHA at the tip of branch.
	HeadSHA(ctx context.Context, branch string) (string, error)
	// CreateBranch creates a new branch pointing at fromSHA.
	CreateBranch(ctx context.Context, name, fromSHA string) error
	// WriteFile creates or updates the file at path on branch. An empty
	// sha creates the file; a non-empty sha replaces that blob version.
	WriteFile(ctx context.Context, path, content, message, branch, sha string) error
	// DeleteFile removes the file at path on branch.
	DeleteFile(ctx context.Context, path, message, branch, sha string) error
	// OpenPullRequest opens a PR from head into base and returns its URL.
	OpenPullRequest(ctx context.Context, title, body, head, base string) (string, error)
}

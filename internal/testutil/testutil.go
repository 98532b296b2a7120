// Package testutil provides an in-memory repository provider for tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/avila-roffe/ansuz/internal/apperr"
	"github.com/avila-roffe/ansuz/internal/repository"
)

// WriteCall records a WriteFile invocation.
type WriteCall struct {
	Path    string
	Content string
	Message string
	Branch  string
	SHA     string
}

// DeleteCall records a DeleteFile invocation.
type DeleteCall struct {
	Path    string
	Message string
	Branch  string
	SHA     string
}

// PullRequestCall records an OpenPullRequest invocation.
type PullRequestCall struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// FakeRepo is an in-memory repository.Provider. Directory listings are
// derived from the seeded file paths; mutations are recorded, not
// applied, so tests can assert on side effects.
type FakeRepo struct {
	Files    map[string]string // path -> content
	ListErrs map[string]error  // directory path -> injected ListDirectory error
	ReadErrs map[string]error  // file path -> injected ReadFile error
	Branch   string            // default branch name, "main" when empty

	CreatedBranches []string
	Writes          []WriteCall
	Deletes         []DeleteCall
	PullRequests    []PullRequestCall
}

var _ repository.Provider = (*FakeRepo)(nil)

// NewFakeRepo creates a FakeRepo seeded with the given files.
func NewFakeRepo(files map[string]string) *FakeRepo {
	if files == nil {
		files = map[string]string{}
	}
	return &FakeRepo{
		Files:    files,
		ListErrs: map[string]error{},
		ReadErrs: map[string]error{},
	}
}

// ListDirectory lists the direct children of path, directories first in
// name order mirroring the GitHub contents API.
func (f *FakeRepo) ListDirectory(_ context.Context, path string) ([]repository.Entry, error) {
	if err := f.ListErrs[path]; err != nil {
		return nil, err
	}

	prefix := ""
	if path != "" {
		prefix = path + "/"
	}

	dirs := map[string]struct{}{}
	files := map[string]struct{}{}
	for p := range f.Files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			dirs[rest[:i]] = struct{}{}
		} else {
			files[rest] = struct{}{}
		}
	}
	if path != "" && len(dirs) == 0 && len(files) == 0 {
		return nil, fmt.Errorf("list directory: %w", apperr.ErrNotFound)
	}

	var entries []repository.Entry
	for name := range dirs {
		entries = append(entries, repository.Entry{Name: name, Path: prefix + name, Type: repository.EntryDir})
	}
	for name := range files {
		entries = append(entries, repository.Entry{Name: name, Path: prefix + name, Type: repository.EntryFile})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Type != entries[j].Type {
			return entries[i].Type == repository.EntryDir
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// ReadFile returns the seeded content and a deterministic fake blob SHA.
func (f *FakeRepo) ReadFile(_ context.Context, path string) (string, string, error) {
	if err := f.ReadErrs[path]; err != nil {
		return "", "", err
	}
	content, ok := f.Files[path]
	if !ok {
		return "", "", fmt.Errorf("read file: %w", apperr.ErrNotFound)
	}
	return content, "sha-" + path, nil
}

// DefaultBranch returns the configured branch name, defaulting to "main".
func (f *FakeRepo) DefaultBranch(context.Context) (string, error) {
	if f.Branch == "" {
		return "main", nil
	}
	return f.Branch, nil
}

// HeadSHA returns a deterministic fake commit SHA.
func (f *FakeRepo) HeadSHA(_ context.Context, branch string) (string, error) {
	return "head-" + branch, nil
}

// CreateBranch records the branch name.
func (f *FakeRepo) CreateBranch(_ context.Context, name, _ string) error {
	f.CreatedBranches = append(f.CreatedBranches, name)
	return nil
}

// WriteFile records the write.
func (f *FakeRepo) WriteFile(_ context.Context, path, content, message, branch, sha string) error {
	f.Writes = append(f.Writes, WriteCall{Path: path, Content: content, Message: message, Branch: branch, SHA: sha})
	return nil
}

// DeleteFile records the delete.
func (f *FakeRepo) DeleteFile(_ context.Context, path, message, branch, sha string) error {
	f.Deletes = append(f.Deletes, DeleteCall{Path: path, Message: message, Branch: branch, SHA: sha})
	return nil
}

// OpenPullRequest records the PR and returns a fake URL.
func (f *FakeRepo) OpenPullRequest(_ context.Context, title, body, head, base string) (string, error) {
	f.PullRequests = append(f.PullRequests, PullRequestCall{Title: title, Body: body, Head: head, Base: base})
	return fmt.Sprintf("https://github.com/example/agents/pull/%d", len(f.PullRequests)), nil
}

// MutationCount is the total number of recorded external mutations.
func (f *FakeRepo) MutationCount() int {
	return len(f.CreatedBranches) + len(f.Writes) + len(f.Deletes) + len(f.PullRequests)
}

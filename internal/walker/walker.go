// Package walker enumerates the agent documents of a repository tree,
// applying folder exclusion and path scoping.
package walker

import (
	"context"
	"log/slog"
	"strings"

	"github.com/avila-roffe/ansuz/internal/frontmatter"
	"github.com/avila-roffe/ansuz/internal/models"
	"github.com/avila-roffe/ansuz/internal/repository"
)

// DocExt is the file extension of agent documents.
const DocExt = ".md"

// Scope narrows which documents a walk considers.
type Scope struct {
	// Category restricts results to paths under exactly "<Category>/".
	Category string
	// Path keeps documents whose path, case-insensitively, starts with
	// or contains it. Both modes are intentional.
	Path string
}

// Walker walks a repository snapshot depth-first and yields decoded
// agent documents in discovery order.
type Walker struct {
	repo    repository.Provider
	exclude map[string]struct{}
	log     *slog.Logger
}

// New creates a Walker that prunes directories whose bare name is in
// excluded, at any depth.
func New(repo repository.Provider, excluded []string, log *slog.Logger) *Walker {
	ex := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		ex[name] = struct{}{}
	}
	return &Walker{repo: repo, exclude: ex, log: log}
}

// Walk enumerates every eligible document reachable from the repository
// root. A failing subtree or file is logged and skipped; only a failure
// to list the root aborts the walk. The recursion is an explicit
// worklist so subtree failures stay isolated.
func (w *Walker) Walk(ctx context.Context, scope Scope) ([]models.Agent, error) {
	root, err := w.repo.ListDirectory(ctx, "")
	if err != nil {
		return nil, err
	}

	var agents []models.Agent
	stack := pushReversed(nil, root)
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if e.Type == repository.EntryDir {
			if _, pruned := w.exclude[e.Name]; pruned {
				continue
			}
			children, err := w.repo.ListDirectory(ctx, e.Path)
			if err != nil {
				w.log.Error("listing directory failed, skipping subtree",
					slog.String("path", e.Path), slog.String("error", err.Error()))
				continue
			}
			stack = pushReversed(stack, children)
			continue
		}

		if !w.eligible(e.Path, scope) {
			continue
		}
		content, _, err := w.repo.ReadFile(ctx, e.Path)
		if err != nil {
			w.log.Error("reading file failed, skipping",
				slog.String("path", e.Path), slog.String("error", err.Error()))
			continue
		}
		meta, body := frontmatter.Decode(content)
		if meta == nil {
			w.log.Debug("document without front matter excluded",
				slog.String("path", e.Path))
			continue
		}
		agents = append(agents, models.Agent{Path: e.Path, Meta: meta, Body: body})
	}
	return agents, nil
}

// eligible reports whether a file path passes extension, exclusion and
// scope checks.
func (w *Walker) eligible(path string, scope Scope) bool {
	if !strings.HasSuffix(path, DocExt) {
		return false
	}
	for _, segment := range strings.Split(path, "/") {
		if _, excluded := w.exclude[segment]; excluded {
			return false
		}
	}
	if scope.Category != "" && !strings.HasPrefix(path, scope.Category+"/") {
		return false
	}
	if scope.Path != "" {
		p := strings.ToLower(path)
		s := strings.ToLower(scope.Path)
		if !strings.HasPrefix(p, s) && !strings.Contains(p, s) {
			return false
		}
	}
	return true
}

// pushReversed appends entries to the stack in reverse so they pop in
// listing order, keeping the walk depth-first.
func pushReversed(stack []repository.Entry, entries []repository.Entry) []repository.Entry {
	for i := len(entries) - 1; i >= 0; i-- {
		stack = append(stack, entries[i])
	}
	return stack
}

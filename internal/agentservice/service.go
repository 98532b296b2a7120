// Package agentservice implements the agent collection operations on top
// of a repository provider. Reads walk the live repository state on every
// call; mutations never touch the default branch directly, they create a
// branch, apply the change there, and open a pull request.
package agentservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/avila-roffe/ansuz/internal/apperr"
	"github.com/avila-roffe/ansuz/internal/frontmatter"
	"github.com/avila-roffe/ansuz/internal/models"
	"github.com/avila-roffe/ansuz/internal/query"
	"github.com/avila-roffe/ansuz/internal/repository"
	"github.com/avila-roffe/ansuz/internal/walker"
)

// branchStamp is the UTC timestamp layout suffixed to branch names.
const branchStamp = "20060102150405"

// ErrMissingFields indicates a create request without its required fields.
var ErrMissingFields = errors.New("category, title, description, and prompt_content are required")

// ChangeProposal describes a mutation proposed through a pull request.
type ChangeProposal struct {
	Path           string
	ID             string
	Title          string
	Branch         string
	PullRequestURL string
	Changes        []string
}

// CreateRequest carries the fields of a new agent document.
type CreateRequest struct {
	Category        string
	Title           string
	Description     string
	Tags            string
	Project         string
	LLMProvider     string
	SuggestedModels string
	PromptContent   string
}

// UpdateRequest carries the fields to change on an existing agent.
// Empty fields keep their current value.
type UpdateRequest struct {
	Path            string
	Title           string
	Description     string
	Tags            string
	Project         string
	LLMProvider     string
	SuggestedModels string
	PromptContent   string
	Version         string
}

// Service coordinates the walker and repository for all operations.
type Service struct {
	repo     repository.Provider
	walk     *walker.Walker
	excluded []string
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates an agent service. Directories named in excluded are
// pruned from every walk and never counted as categories.
func NewService(repo repository.Provider, excluded []string, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		walk:     walker.New(repo, excluded, log),
		excluded: excluded,
		log:      log,
		now:      time.Now,
	}
}

// List returns the agents matching the filter, optionally scoped to one
// category, in discovery order.
func (s *Service) List(ctx context.Context, category string, f query.Filter) ([]models.Agent, error) {
	agents, err := s.walk.Walk(ctx, walker.Scope{Category: category})
	if err != nil {
		return nil, err
	}
	var out []models.Agent
	for _, a := range agents {
		if f.Matches(a.Meta, a.Body) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Query returns the agents matching the extended query, optionally
// scoped by a path prefix or substring.
func (s *Service) Query(ctx context.Context, pathScope string, q query.Query) ([]models.Agent, error) {
	agents, err := s.walk.Walk(ctx, walker.Scope{Path: strings.TrimSpace(pathScope)})
	if err != nil {
		return nil, err
	}
	var out []models.Agent
	for _, a := range agents {
		if q.Matches(a.Meta, a.Body) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Get reads and parses a single agent document.
func (s *Service) Get(ctx context.Context, path string) (*models.Agent, error) {
	content, _, err := s.repo.ReadFile(ctx, strings.TrimSpace(path))
	if err != nil {
		return nil, err
	}
	meta, body := frontmatter.Decode(content)
	if meta == nil {
		return nil, apperr.ErrInvalidFormat
	}
	return &models.Agent{Path: strings.TrimSpace(path), Meta: meta, Body: body}, nil
}

// Categories lists the top-level folders of the collection, sorted by
// name, each with its direct document count. A category that fails to
// list is logged and skipped.
func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	root, err := s.repo.ListDirectory(ctx, "")
	if err != nil {
		return nil, err
	}

	var cats []models.Category
	for _, e := range root {
		if e.Type != repository.EntryDir || s.isExcluded(e.Name) {
			continue
		}
		children, err := s.repo.ListDirectory(ctx, e.Path)
		if err != nil {
			s.log.Error("listing category failed, skipping",
				slog.String("path", e.Path), slog.String("error", err.Error()))
			continue
		}
		count := 0
		for _, c := range children {
			if strings.HasSuffix(c.Path, walker.DocExt) {
				count++
			}
		}
		cats = append(cats, models.Category{Name: e.Name, Path: e.Path, Count: count})
	}

	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

// Create proposes a new agent document through a pull request. The
// target path must be free before any branch, file or PR is created.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*ChangeProposal, error) {
	category := strings.TrimSpace(req.Category)
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	prompt := strings.TrimSpace(req.PromptContent)
	if category == "" || title == "" || description == "" || prompt == "" {
		return nil, ErrMissingFields
	}

	id := SanitizeTitle(title)
	path := category + "/" + id + walker.DocExt

	if _, _, err := s.repo.ReadFile(ctx, path); err == nil {
		return nil, fmt.Errorf("%w at '%s'", apperr.ErrAlreadyExists, path)
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	meta := &frontmatter.Meta{
		ID:              id,
		Title:           title,
		Type:            "agent",
		Tags:            splitTags(req.Tags),
		Description:     description,
		Project:         strings.TrimSpace(req.Project),
		LLMProvider:     strings.TrimSpace(req.LLMProvider),
		SuggestedModels: strings.TrimSpace(req.SuggestedModels),
		Version:         "1.0.0",
	}
	content, err := frontmatter.Encode(meta, prompt)
	if err != nil {
		return nil, err
	}

	branch, base, err := s.openBranch(ctx, "add-agent", id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.WriteFile(ctx, path, content, "Add agent: "+title, branch, ""); err != nil {
		return nil, err
	}

	prBody := fmt.Sprintf(
		"## New Agent\n\n**Title:** %s\n**Category:** %s\n**Project:** %s\n**Tags:** %s\n**LLM Provider:** %s\n\n**Description:**\n%s\n\n---\n🤖 Generated via the Ansuz MCP server",
		title, category, orNA(meta.Project), orNone(strings.Join(meta.Tags, ", ")), orNA(meta.LLMProvider), description,
	)
	url, err := s.repo.OpenPullRequest(ctx, "Add agent: "+title, prBody, branch, base)
	if err != nil {
		return nil, err
	}

	return &ChangeProposal{Path: path, ID: id, Title: title, Branch: branch, PullRequestURL: url}, nil
}

// Update proposes changes to an existing agent through a pull request.
// At least one field must be supplied; nothing external is written until
// the change set is known to be non-empty.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*ChangeProposal, error) {
	path := strings.TrimSpace(req.Path)
	content, sha, err := s.repo.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	meta, body := frontmatter.Decode(content)
	if meta == nil {
		return nil, apperr.ErrInvalidFormat
	}

	var changes []string
	if v := strings.TrimSpace(req.Title); v != "" {
		meta.Title = v
		changes = append(changes, "Title: "+v)
	}
	if v := strings.TrimSpace(req.Description); v != "" {
		meta.Description = v
		changes = append(changes, "Description updated")
	}
	if v := strings.TrimSpace(req.Tags); v != "" {
		meta.Tags = splitTags(v)
		changes = append(changes, "Tags: "+v)
	}
	if v := strings.TrimSpace(req.Project); v != "" {
		meta.Project = v
		changes = append(changes, "Project: "+v)
	}
	if v := strings.TrimSpace(req.LLMProvider); v != "" {
		meta.LLMProvider = v
		changes = append(changes, "LLM Provider: "+v)
	}
	if v := strings.TrimSpace(req.SuggestedModels); v != "" {
		meta.SuggestedModels = v
		changes = append(changes, "Suggested Models: "+v)
	}
	if v := strings.TrimSpace(req.Version); v != "" {
		meta.Version = v
		changes = append(changes, "Version: "+v)
	}
	if v := strings.TrimSpace(req.PromptContent); v != "" {
		body = v
		changes = append(changes, "Prompt content updated")
	}
	if len(changes) == 0 {
		return nil, apperr.ErrNoChanges
	}

	newContent, err := frontmatter.Encode(meta, body)
	if err != nil {
		return nil, err
	}

	id := meta.ID
	if id == "" {
		id = "agent"
	}
	branch, base, err := s.openBranch(ctx, "update-agent", id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.WriteFile(ctx, path, newContent, "Update agent: "+meta.Title, branch, sha); err != nil {
		return nil, err
	}

	changeList := "- " + strings.Join(changes, "\n- ")
	prBody := fmt.Sprintf(
		"## Update Agent\n\n**File:** `%s`\n\n**Changes:**\n%s\n\n---\n🤖 Generated via the Ansuz MCP server",
		path, changeList,
	)
	url, err := s.repo.OpenPullRequest(ctx, "Update agent: "+meta.Title, prBody, branch, base)
	if err != nil {
		return nil, err
	}

	return &ChangeProposal{
		Path:           path,
		ID:             id,
		Title:          meta.Title,
		Branch:         branch,
		PullRequestURL: url,
		Changes:        changes,
	}, nil
}

// Delete proposes the removal of an agent through a pull request.
func (s *Service) Delete(ctx context.Context, path, reason string) (*ChangeProposal, error) {
	path = strings.TrimSpace(path)
	content, sha, err := s.repo.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	meta, _ := frontmatter.Decode(content)
	if meta == nil {
		return nil, apperr.ErrInvalidFormat
	}

	title := meta.Title
	if title == "" {
		title = "Unknown"
	}
	id := meta.ID
	if id == "" {
		id = "unknown"
	}

	branch, base, err := s.openBranch(ctx, "delete-agent", id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteFile(ctx, path, "Delete agent: "+title, branch, sha); err != nil {
		return nil, err
	}

	prBody := fmt.Sprintf(
		"## Delete Agent\n\n**File:** `%s`\n**Agent:** %s\n**ID:** %s\n\n**Reason:**\n%s\n\n---\n🤖 Generated via the Ansuz MCP server",
		path, title, id, reason,
	)
	url, err := s.repo.OpenPullRequest(ctx, "Delete agent: "+title, prBody, branch, base)
	if err != nil {
		return nil, err
	}

	return &ChangeProposal{Path: path, ID: id, Title: title, Branch: branch, PullRequestURL: url}, nil
}

// openBranch resolves the default branch head and creates a fresh
// timestamped work branch from it.
func (s *Service) openBranch(ctx context.Context, prefix, id string) (branch, base string, err error) {
	base, err = s.repo.DefaultBranch(ctx)
	if err != nil {
		return "", "", err
	}
	sha, err := s.repo.HeadSHA(ctx, base)
	if err != nil {
		return "", "", err
	}
	branch = fmt.Sprintf("%s-%s-%s", prefix, id, s.now().UTC().Format(branchStamp))
	if err := s.repo.CreateBranch(ctx, branch, sha); err != nil {
		return "", "", err
	}
	return branch, base, nil
}

func (s *Service) isExcluded(name string) bool {
	for _, e := range s.excluded {
		if e == name {
			return true
		}
	}
	return false
}

var (
	invalidTitleChars = regexp.MustCompile(`[^\w\s-]`)
	titleSeparators   = regexp.MustCompile(`[-\s]+`)
)

// SanitizeTitle converts a human title into the agent id used as the
// filename stem: lowercase, punctuation stripped, whitespace and hyphen
// runs collapsed to single hyphens.
func SanitizeTitle(title string) string {
	t := invalidTitleChars.ReplaceAllString(strings.ToLower(title), "")
	t = titleSeparators.ReplaceAllString(t, "-")
	return strings.Trim(t, "-")
}

// splitTags parses a comma-separated tag list, dropping empty entries.
func splitTags(tags string) frontmatter.StringList {
	var out frontmatter.StringList
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

func orNone(v string) string {
	if v == "" {
		return "None"
	}
	return v
}

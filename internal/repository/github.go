package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/avila-roffe/ansuz/internal/apperr"
)

// requestTimeout is the HTTP timeout for a single GitHub API call.
const requestTimeout = 30 * time.Second

// GitHub implements Provider against the GitHub contents, git and pulls
// APIs for a single owner/repo pair.
type GitHub struct {
	owner   string
	repo    string
	token   string
	limiter *rateLimiter

	initOnce sync.Once
	client   *gh.Client
	initErr  error
}

// NewGitHub creates a GitHub provider. The client itself is constructed
// lazily so a missing token only fails on first use, not at startup.
func NewGitHub(owner, repo, token string) *GitHub {
	return &GitHub{
		owner:   owner,
		repo:    repo,
		token:   token,
		limiter: newRateLimiter(),
	}
}

// ensureClient builds the go-github client on first use. Handlers call
// this concurrently in the HTTP serving mode, so the init runs exactly
// once; a missing token is cached as the permanent result since the
// token never changes at runtime.
func (g *GitHub) ensureClient(ctx context.Context) error {
	g.initOnce.Do(func() {
		if strings.TrimSpace(g.token) == "" {
			g.initErr = apperr.ErrNotConfigured
			return
		}
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: g.token})
		tc := oauth2.NewClient(ctx, ts)
		tc.Timeout = requestTimeout
		g.client = gh.NewClient(tc)
	})
	return g.initErr
}

// ListDirectory returns the entries of the directory at path on the
// default branch. Listing a file path is an error.
func (g *GitHub) ListDirectory(ctx context.Context, path string) ([]Entry, error) {
	if err := g.prepare(ctx); err != nil {
		return nil, err
	}

	file, dir, resp, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path, nil)
	g.updateLimiter(resp)
	if err != nil {
		return nil, wrapError(err, "list directory")
	}
	if file != nil {
		return nil, fmt.Errorf("list directory: %s is a file", path)
	}

	entries := make([]Entry, 0, len(dir))
	for _, item := range dir {
		e := Entry{Name: item.GetName(), Path: item.GetPath()}
		switch item.GetType() {
		case "dir":
			e.Type = EntryDir
		default:
			e.Type = EntryFile
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ReadFile returns the decoded file content and its blob SHA.
func (g *GitHub) ReadFile(ctx context.Context, path string) (string, string, error) {
	if err := g.prepare(ctx); err != nil {
		return "", "", err
	}

	file, _, resp, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path, nil)
	g.updateLimiter(resp)
	if err != nil {
		return "", "", wrapError(err, "read file")
	}
	if file == nil {
		return "", "", fmt.Errorf("read file: %s is a directory", path)
	}

	content, err := file.GetContent()
	if err != nil {
		return "", "", fmt.Errorf("read file: decode content: %w", err)
	}
	return content, file.GetSHA(), nil
}

// DefaultBranch returns the repository's default branch name.
func (g *GitHub) DefaultBranch(ctx context.Context) (string, error) {
	if err := g.prepare(ctx); err != nil {
		return "", err
	}

	repo, resp, err := g.client.Repositories.Get(ctx, g.owner, g.repo)
	g.updateLimiter(resp)
	if err != nil {
		return "", wrapError(err, "get repository")
	}
	return repo.GetDefaultBranch(), nil
}

// HeadSHA returns the commit SHA at the tip of branch.
func (g *GitHub) HeadSHA(ctx context.Context, branch string) (string, error) {
	if err := g.prepare(ctx); err != nil {
		return "", err
	}

	b, resp, err := g.client.Repositories.GetBranch(ctx, g.owner, g.repo, branch, 0)
	g.updateLimiter(resp)
	if err != nil {
		return "", wrapError(err, "get branch")
	}
	return b.GetCommit().GetSHA(), nil
}

// CreateBranch creates refs/heads/<name> pointing at fromSHA.
func (g *GitHub) CreateBranch(ctx context.Context, name, fromSHA string) error {
	if err := g.prepare(ctx); err != nil {
		return err
	}

	ref := gh.CreateRef{
		Ref: "refs/heads/" + name,
		SHA: fromSHA,
	}
	_, resp, err := g.client.Git.CreateRef(ctx, g.owner, g.repo, ref)
	g.updateLimiter(resp)
	if err != nil {
		return wrapError(err, "create branch")
	}
	return nil
}

// WriteFile creates (empty sha) or updates (blob sha) path on branch.
func (g *GitHub) WriteFile(ctx context.Context, path, content, message, branch, sha string) error {
	if err := g.prepare(ctx); err != nil {
		return err
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(message),
		Content: []byte(content),
		Branch:  gh.Ptr(branch),
	}

	var resp *gh.Response
	var err error
	if sha == "" {
		_, resp, err = g.client.Repositories.CreateFile(ctx, g.owner, g.repo, path, opts)
	} else {
		opts.SHA = gh.Ptr(sha)
		_, resp, err = g.client.Repositories.UpdateFile(ctx, g.owner, g.repo, path, opts)
	}
	g.updateLimiter(resp)
	if err != nil {
		return wrapError(err, "write file")
	}
	return nil
}

// DeleteFile removes path on branch.
func (g *GitHub) DeleteFile(ctx context.Context, path, message, branch, sha string) error {
	if err := g.prepare(ctx); err != nil {
		return err
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(message),
		SHA:     gh.Ptr(sha),
		Branch:  gh.Ptr(branch),
	}
	_, resp, err := g.client.Repositories.DeleteFile(ctx, g.owner, g.repo, path, opts)
	g.updateLimiter(resp)
	if err != nil {
		return wrapError(err, "delete file")
	}
	return nil
}

// OpenPullRequest opens a PR from head into base and returns its URL.
func (g *GitHub) OpenPullRequest(ctx context.Context, title, body, head, base string) (string, error) {
	if err := g.prepare(ctx); err != nil {
		return "", err
	}

	pr, resp, err := g.client.PullRequests.Create(ctx, g.owner, g.repo, &gh.NewPullRequest{
		Title: gh.Ptr(title),
		Body:  gh.Ptr(body),
		Head:  gh.Ptr(head),
		Base:  gh.Ptr(base),
	})
	g.updateLimiter(resp)
	if err != nil {
		return "", wrapError(err, "create pull request")
	}
	return pr.GetHTMLURL(), nil
}

// prepare initialises the client and waits for the rate limiter.
func (g *GitHub) prepare(ctx context.Context) error {
	if err := g.ensureClient(ctx); err != nil {
		return err
	}
	return g.limiter.wait(ctx)
}

func (g *GitHub) updateLimiter(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	g.limiter.update(resp.Response)
}

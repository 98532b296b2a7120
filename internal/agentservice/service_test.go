package agentservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/avila-roffe/ansuz/internal/apperr"
	"github.com/avila-roffe/ansuz/internal/frontmatter"
	"github.com/avila-roffe/ansuz/internal/query"
	"github.com/avila-roffe/ansuz/internal/testutil"
)

var excluded = []string{"knowledge-base", ".git", ".github"}

const jarvisDoc = "---\nid: jarvis\ntitle: Jarvis\ntype: agent\ntags:\n  - home\n  - assistant\ndescription: Home-lab assistant\nproject: HomeLab\nversion: 1.0.0\n---\n\nYou are Jarvis."

func testService(repo *testutil.FakeRepo) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, excluded, log)
	svc.now = func() time.Time {
		return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestList_ExcludesKnowledgeBase(t *testing.T) {
	repo := testutil.NewFakeRepo(map[string]string{
		"home-lab/jarvis.md":      jarvisDoc,
		"knowledge-base/notes.md": "---\nid: notes\ntitle: Notes\n---\n\nnot an agent",
	})
	svc := testService(repo)

	agents, err := svc.List(context.Background(), "", query.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(agents) != 1 || agents[0].Path != "home-lab/jarvis.md" {
		t.Errorf("agents = %+v, want only jarvis", agents)
	}
}

func TestList_AppliesFilter(t *testing.T) {
	repo := testutil.NewFakeRepo(map[string]string{
		"home-lab/jarvis.md": jarvisDoc,
		"tools/hammer.md":    "---\nid: hammer\ntitle: Hammer\nproject: Workshop\n---\n\nsmash",
	})
	svc := testService(repo)

	agents, err := svc.List(context.Background(), "", query.Filter{Project: "homelab"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(agents) != 1 || agents[0].Meta.ID != "jarvis" {
		t.Errorf("agents = %+v, want jarvis via exact project match", agents)
	}
}

func TestQuery_PathScope(t *testing.T) {
	repo := testutil.NewFakeRepo(map[string]string{
		"home-lab/jarvis.md":            jarvisDoc,
		"other/has-home-lab-in-name.md": "---\nid: other\ntitle: Other\n---\n\nbody",
		"other/unrelated.md":            "---\nid: unrelated\ntitle: U\n---\n\nbody",
	})
	svc := testService(repo)

	agents, err := svc.Query(context.Background(), "home-lab", query.Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(agents) != 2 {
		t.Errorf("agents = %+v, want prefix and substring path matches", agents)
	}
}

func TestGet_ReturnsParsedAgent(t *testing.T) {
	repo := testutil.NewFakeRepo(map[string]string{"home-lab/jarvis.md": jarvisDoc})
	svc := testService(repo)

	a, err := svc.Get(context.Background(), "home-lab/jarvis.md")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if a.Meta.Title != "Jarvis" || a.Body != "You are Jarvis." {
		t.Errorf("agent = %+v", a)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := testService(testutil.NewFakeRepo(nil))
	_, err := svc.Get(context.Background(), "nope/missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGet_InvalidFormat(t *testing.T) {
	repo := testutil.NewFakeRepo(map[string]string{"tools/plain.md": "no front matter"})
	svc := testService(repo)
	_, err := svc.Get(context.Background(), "tools/plain.md")
	if !errors.Is(err, apperr.ErrInvalidFormat) {
		t.Errorf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestCategories_SortedWithCounts(t *testing.T) {
	repo := testutil.NewFakeRepo(map[string]string{
		"tools/a.md":              "x",
		"tools/b.md":              "x",
		"home-lab/jarvis.md":      "x",
		"knowledge-base/notes.md": "x",
		"tools/sub/c.md":          "x",
	})
	svc := testService(repo)

	cats, err := svc.Categories(context.Background())
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("categories = %+v, want home-lab and tools", cats)
	}
	if cats[0].Name != "home-lab" || cats[1].Name != "tools" {
		t.Errorf("order = [%s %s], want alphabetical", cats[0].Name, cats[1].Name)
	}
	// Only direct .md children count.
	if cats[1].Count != 2 {
		t.Errorf("tools count = %d, want 2", cats[1].Count)
	}
}

func TestCreate_Success(t *testing.T) {
	repo := testutil.NewFakeRepo(nil)
	svc := testService(repo)

	proposal, err := svc.Create(context.Background(), CreateRequest{
		Category:      "tools",
		Title:         "Repo Gardener!",
		Description:   "Keeps repositories tidy",
		Tags:          "git, hygiene",
		Project:       "Infra",
		PromptContent: "You tend repositories.",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if proposal.Path != "tools/repo-gardener.md" {
		t.Errorf("path = %s", proposal.Path)
	}
	if proposal.Branch != "add-agent-repo-gardener-20260830120000" {
		t.Errorf("branch = %s", proposal.Branch)
	}
	if len(repo.Writes) != 1 || len(repo.PullRequests) != 1 || len(repo.CreatedBranches) != 1 {
		t.Fatalf("mutations = %d writes, %d PRs, %d branches", len(repo.Writes), len(repo.PullRequests), len(repo.CreatedBranches))
	}
	w := repo.Writes[0]
	if w.SHA != "" {
		t.Errorf("create must not pass a blob SHA, got %q", w.SHA)
	}
	meta, body := frontmatter.Decode(w.Content)
	if meta == nil {
		t.Fatal("written content has no front matter")
	}
	if meta.ID != "repo-gardener" || meta.Type != "agent" || meta.Version != "1.0.0" {
		t.Errorf("meta = %+v", meta)
	}
	if len(meta.Tags) != 2 || meta.Tags[0] != "git" {
		t.Errorf("tags = %v", meta.Tags)
	}
	if body != "You tend repositories." {
		t.Errorf("body = %q", body)
	}
	pr := repo.PullRequests[0]
	if pr.Base != "main" || pr.Head != proposal.Branch {
		t.Errorf("pr = %+v", pr)
	}
}

func TestCreate_AlreadyExistsHasNoSideEffects(t *testing.T) {
	repo := testutil.NewFakeRepo(map[string]string{"tools/repo-gardener.md": jarvisDoc})
	svc := testService(repo)

	_, err := svc.Create(context.Background(), CreateRequest{
		Category:      "tools",
		Title:         "Repo Gardener",
		Description:   "dup",
		PromptContent: "dup",
	})
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
	if n := repo.MutationCount(); n != 0 {
		t.Errorf("mutations = %d, want none", n)
	}
}

func TestCreate_MissingFields(t *testing.T) {
	repo := testutil.NewFakeRepo(nil)
	svc := testService(repo)

	_, err := svc.Create(context.Background(), CreateRequest{Title: "only title"})
	if !errors.Is(err, ErrMissingFields) {
		t.Errorf("err = %v, want ErrMissingFields", err)
	}
	if repo.MutationCount() != 0 {
		t.Error("validation failure must not touch the repository")
	}
}

func TestUpdate_NoChangesHasNoSideEffects(t *testing.T) {
	repo := testutil.NewFakeRepo(map[string]string{"home-lab/jarvis.md": jarvisDoc})
	svc := testService(repo)

	_, err := svc.Update(context.Background(), UpdateRequest{Path: "home-lab/jarvis.md"})
	if !errors.Is(err, apperr.ErrNoChanges) {
		t.Fatalf("err = %v, want ErrNoChanges", err)
	}
	if n := repo.MutationCount(); n != 0 {
		t.Errorf("mutations = %d, want none", n)
	}
}

func TestUpdate_AppliesOnlyProvidedFields(t *testing.T) {
	repo := testutil.NewFakeRepo(map[string]string{"home-lab/jarvis.md": jarvisDoc})
	svc := testService(repo)

	proposal, err := svc.Update(context.Background(), UpdateRequest{
		Path:    "home-lab/jarvis.md",
		Version: "1.1.0",
		Tags:    "home, upgraded",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(proposal.Changes) != 2 {
		t.Errorf("changes = %v", proposal.Changes)
	}

	w := repo.Writes[0]
	if w.SHA != "sha-home-lab/jarvis.md" {
		t.Errorf("update must carry the current blob SHA, got %q", w.SHA)
	}
	meta, body := frontmatter.Decode(w.Content)
	if meta.Version != "1.1.0" {
		t.Errorf("version = %s", meta.Version)
	}
	if meta.Title != "Jarvis" || meta.Project != "HomeLab" {
		t.Errorf("untouched fields changed: %+v", meta)
	}
	if body != "You are Jarvis." {
		t.Errorf("body = %q, must be preserved", body)
	}
	if !strings.HasPrefix(proposal.Branch, "update-agent-jarvis-") {
		t.Errorf("branch = %s", proposal.Branch)
	}
}

func TestUpdate_KeepsCustomMetadataKeys(t *testing.T) {
	doc := "---\nid: jarvis\ntitle: Jarvis\nauthor: Edwin Avila\nversion: 1.0.0\n---\n\nYou are Jarvis."
	repo := testutil.NewFakeRepo(map[string]string{"home-lab/jarvis.md": doc})
	svc := testService(repo)

	_, err := svc.Update(context.Background(), UpdateRequest{
		Path:    "home-lab/jarvis.md",
		Version: "1.1.0",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	content := repo.Writes[0].Content
	if !strings.Contains(content, "author: Edwin Avila") {
		t.Errorf("custom key dropped from proposed content:\n%s", content)
	}
	meta, _ := frontmatter.Decode(content)
	if meta.Version != "1.1.0" {
		t.Errorf("version = %s", meta.Version)
	}
}

func TestUpdate_InvalidFormat(t *testing.T) {
	repo := testutil.NewFakeRepo(map[string]string{"tools/plain.md": "no front matter"})
	svc := testService(repo)

	_, err := svc.Update(context.Background(), UpdateRequest{Path: "tools/plain.md", Title: "X"})
	if !errors.Is(err, apperr.ErrInvalidFormat) {
		t.Errorf("err = %v, want ErrInvalidFormat", err)
	}
	if repo.MutationCount() != 0 {
		t.Error("malformed document must not be written")
	}
}

func TestDelete_OpensPRWithReason(t *testing.T) {
	repo := testutil.NewFakeRepo(map[string]string{"home-lab/jarvis.md": jarvisDoc})
	svc := testService(repo)

	proposal, err := svc.Delete(context.Background(), "home-lab/jarvis.md", "superseded by vision")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.Deletes) != 1 {
		t.Fatalf("deletes = %d", len(repo.Deletes))
	}
	if repo.Deletes[0].SHA != "sha-home-lab/jarvis.md" {
		t.Errorf("delete must carry the blob SHA, got %q", repo.Deletes[0].SHA)
	}
	if !strings.Contains(repo.PullRequests[0].Body, "superseded by vision") {
		t.Error("PR body must carry the deletion reason")
	}
	if !strings.HasPrefix(proposal.Branch, "delete-agent-jarvis-") {
		t.Errorf("branch = %s", proposal.Branch)
	}
}

func TestSanitizeTitle(t *testing.T) {
	cases := []struct{ in, want string }{
		{"My Agent", "my-agent"},
		{"Repo  Gardener!", "repo-gardener"},
		{"  --Weird -- Name--  ", "weird-name"},
		{"Émigré", "migr"},
		{"already-fine", "already-fine"},
	}
	for _, c := range cases {
		if got := SanitizeTitle(c.in); got != c.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

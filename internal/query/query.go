// Package query implements the predicate sets that match agent documents
// against filter criteria. All comparisons are case-insensitive, criteria
// combine with AND, and an empty criterion imposes no constraint. A
// document without front matter never matches.
package query

import (
	"strings"

	"github.com/avila-roffe/ansuz/internal/frontmatter"
)

// Filter is the simple predicate set used by the listing operation.
//
// Category is deliberately not a field here: it scopes the tree walk by
// path and is never evaluated against front matter.
type Filter struct {
	// Tags is a comma-separated list; any overlap with the document's
	// tags is a match.
	Tags string
	// Project must equal the document's project field exactly.
	Project string
	// Text matches as a substring of title, description or body.
	Text string
}

// Matches reports whether the document satisfies every supplied criterion.
func (f Filter) Matches(meta *frontmatter.Meta, body string) bool {
	if meta == nil {
		return false
	}
	if f.Tags != "" && !anyTagMatches(f.Tags, meta.Tags) {
		return false
	}
	if f.Project != "" && !strings.EqualFold(f.Project, meta.Project) {
		return false
	}
	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(meta.Title), needle) &&
			!strings.Contains(strings.ToLower(meta.Description), needle) &&
			!strings.Contains(strings.ToLower(body), needle) {
			return false
		}
	}
	return true
}

// Query is the extended predicate set used by the query operation.
//
// Project matches as a substring here, unlike Filter's exact match for
// the same field. The asymmetry is inherited behavior and kept as is.
type Query struct {
	AgentID         string // exact match against the id field
	Title           string // substring
	Tags            string // comma-separated, any overlap
	Project         string // substring
	LLMProvider     string // substring
	SuggestedModels string // substring
	Version         string // substring
	Description     string // substring
	Text            string // substring across all metadata values or body
}

// Matches reports whether the document satisfies every supplied criterion.
func (q Query) Matches(meta *frontmatter.Meta, body string) bool {
	if meta == nil {
		return false
	}
	if q.AgentID != "" && !strings.EqualFold(q.AgentID, meta.ID) {
		return false
	}
	if !containsFold(meta.Title, q.Title) {
		return false
	}
	if q.Tags != "" && !anyTagMatches(q.Tags, meta.Tags) {
		return false
	}
	if !containsFold(meta.Project, q.Project) {
		return false
	}
	if !containsFold(meta.LLMProvider, q.LLMProvider) {
		return false
	}
	if !containsFold(meta.SuggestedModels, q.SuggestedModels) {
		return false
	}
	if !containsFold(meta.Version, q.Version) {
		return false
	}
	if !containsFold(meta.Description, q.Description) {
		return false
	}
	if q.Text != "" {
		needle := strings.ToLower(q.Text)
		found := false
		for _, v := range meta.Values() {
			if strings.Contains(strings.ToLower(v), needle) {
				found = true
				break
			}
		}
		if !found && !strings.Contains(strings.ToLower(body), needle) {
			return false
		}
	}
	return true
}

// containsFold reports whether value contains needle case-insensitively.
// An empty needle is no constraint.
func containsFold(value, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(needle))
}

// anyTagMatches reports whether any tag of the comma-separated requested
// list equals any of the document's tags, case-insensitively.
func anyTagMatches(requested string, tags frontmatter.StringList) bool {
	have := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		have[strings.ToLower(t)] = struct{}{}
	}
	for _, t := range strings.Split(requested, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := have[t]; ok {
			return true
		}
	}
	return false
}

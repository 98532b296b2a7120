package mcpserver

import (
	"fmt"
	"strings"

	"github.com/avila-roffe/ansuz/internal/models"
)

// renderAgentList renders matches in discovery order under the given
// header. The extended form adds the query-only metadata lines.
func renderAgentList(header string, agents []models.Agent, extended bool) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for _, a := range agents {
		m := a.Meta
		fmt.Fprintf(&b, "**%s** (`%s`)\n", orDefault(m.Title, "Untitled"), orDefault(m.ID, "unknown"))
		fmt.Fprintf(&b, "  📁 Path: `%s`\n", a.Path)
		if m.Project != "" {
			fmt.Fprintf(&b, "  🏷️ Project: %s\n", m.Project)
		}
		if len(m.Tags) > 0 {
			fmt.Fprintf(&b, "  🏷️ Tags: %s\n", strings.Join(m.Tags, ", "))
		}
		if extended {
			if m.LLMProvider != "" {
				fmt.Fprintf(&b, "  🤖 LLM Provider: %s\n", m.LLMProvider)
			}
			if m.SuggestedModels != "" {
				fmt.Fprintf(&b, "  📊 Suggested Models: %s\n", m.SuggestedModels)
			}
			if m.Version != "" {
				fmt.Fprintf(&b, "  📌 Version: %s\n", m.Version)
			}
		}
		if m.Description != "" {
			fmt.Fprintf(&b, "  📝 %s\n", m.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderAgentDetail renders the full view of a single agent.
func renderAgentDetail(a *models.Agent) string {
	m := a.Meta
	var b strings.Builder
	fmt.Fprintf(&b, "📄 **%s**\n\n", orDefault(m.Title, "Untitled"))
	b.WriteString("**Metadata:**\n")
	fmt.Fprintf(&b, "- ID: `%s`\n", orDefault(m.ID, "unknown"))
	fmt.Fprintf(&b, "- Type: %s\n", orDefault(m.Type, "agent"))
	fmt.Fprintf(&b, "- Version: %s\n", orDefault(m.Version, "N/A"))
	if m.Project != "" {
		fmt.Fprintf(&b, "- Project: %s\n", m.Project)
	}
	if len(m.Tags) > 0 {
		fmt.Fprintf(&b, "- Tags: %s\n", strings.Join(m.Tags, ", "))
	}
	if m.LLMProvider != "" {
		fmt.Fprintf(&b, "- LLM Provider: %s\n", m.LLMProvider)
	}
	if m.SuggestedModels != "" {
		fmt.Fprintf(&b, "- Suggested Models: %s\n", m.SuggestedModels)
	}
	if m.Description != "" {
		fmt.Fprintf(&b, "\n**Description:**\n%s\n", m.Description)
	}
	fmt.Fprintf(&b, "\n**Prompt Content:**\n```\n%s\n```", a.Body)
	return b.String()
}

// renderCategories renders the sorted category listing.
func renderCategories(cats []models.Category) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📂 **Found %d %s:**\n\n", len(cats), plural(len(cats), "category", "categories"))
	for _, c := range cats {
		fmt.Fprintf(&b, "- **%s** (%d %s)\n", c.Name, c.Count, plural(c.Count, "agent", "agents"))
	}
	return b.String()
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

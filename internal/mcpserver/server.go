// Package mcpserver exposes the agent collection operations as MCP
// (Model Context Protocol) tools over stdio or HTTP transports.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/avila-roffe/ansuz/internal/agentservice"
	"github.com/avila-roffe/ansuz/internal/apperr"
	"github.com/avila-roffe/ansuz/internal/query"
	"github.com/avila-roffe/ansuz/internal/repository"
)

// Server wraps the MCP server with the Ansuz tool set.
type Server struct {
	mcp *server.MCPServer
	svc *agentservice.Service
}

// New creates an MCP server with all agent tools registered.
func New(svc *agentservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_agents",
		mcp.WithDescription("List all agents with optional filters for tags (comma-separated), project, category (folder), or text search."),
		mcp.WithString("tags", mcp.Description("Comma-separated tags; any match qualifies")),
		mcp.WithString("project", mcp.Description("Project name (exact match)")),
		mcp.WithString("category", mcp.Description("Top-level folder to restrict results to")),
		mcp.WithString("text", mcp.Description("Free text searched in title, description and prompt")),
	), s.listAgents)

	s.mcp.AddTool(mcp.NewTool("get_agent",
		mcp.WithDescription("Retrieve a specific agent by its file path (e.g. 'home-lab/jarvis.md')."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the agent document")),
	), s.getAgent)

	s.mcp.AddTool(mcp.NewTool("create_agent",
		mcp.WithDescription("Create a new agent via Pull Request - requires category (folder), title, description and prompt_content; tags (comma-separated), project, llm_provider and suggested_models are optional."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Target top-level folder")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Human-readable agent title")),
		mcp.WithString("description", mcp.Required(), mcp.Description("What the agent does")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("project", mcp.Description("Project the agent belongs to")),
		mcp.WithString("llm_provider", mcp.Description("Intended LLM provider")),
		mcp.WithString("suggested_models", mcp.Description("Suggested models, free form")),
		mcp.WithString("prompt_content", mcp.Required(), mcp.Description("The agent prompt body")),
	), s.createAgent)

	s.mcp.AddTool(mcp.NewTool("update_agent",
		mcp.WithDescription("Update an existing agent via Pull Request - provide path and the fields to change (leave empty to keep current values)."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the agent document")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("tags", mcp.Description("New comma-separated tags")),
		mcp.WithString("project", mcp.Description("New project")),
		mcp.WithString("llm_provider", mcp.Description("New LLM provider")),
		mcp.WithString("suggested_models", mcp.Description("New suggested models")),
		mcp.WithString("prompt_content", mcp.Description("New prompt body")),
		mcp.WithString("version", mcp.Description("New version")),
	), s.updateAgent)

	s.mcp.AddTool(mcp.NewTool("delete_agent",
		mcp.WithDescription("Delete an agent via Pull Request - requires path and a reason for deletion."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the agent document")),
		mcp.WithString("reason", mcp.Required(), mcp.Description("Why the agent should be removed")),
	), s.deleteAgent)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List all available categories (top-level folders) in the repository."),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("query_agent",
		mcp.WithDescription("Query agents using any combination of markdown properties (id, title, tags, project, llm_provider, suggested_models, version, description, or general text search). Optionally provide path to narrow search scope."),
		mcp.WithString("agent_id", mcp.Description("Agent id (exact match)")),
		mcp.WithString("title", mcp.Description("Title fragment")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags; any match qualifies")),
		mcp.WithString("project", mcp.Description("Project fragment")),
		mcp.WithString("llm_provider", mcp.Description("Provider fragment")),
		mcp.WithString("suggested_models", mcp.Description("Model fragment")),
		mcp.WithString("version", mcp.Description("Version fragment")),
		mcp.WithString("description", mcp.Description("Description fragment")),
		mcp.WithString("text", mcp.Description("Free text searched in all metadata and the prompt")),
		mcp.WithString("path", mcp.Description("Path prefix or fragment to narrow the scope")),
	), s.queryAgent)

	s.mcp.AddTool(mcp.NewTool("get_agent_contract",
		mcp.WithDescription("Returns the canonical agent document format. Call this before creating or updating agents to ensure correct structure."),
	), s.getAgentContract)

	// Resource: agent format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://agent-format", "Agent Format Contract",
			mcp.WithResourceDescription("Canonical Markdown format that all agent documents must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readAgentFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for transports and testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listAgents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := query.Filter{
		Tags:    req.GetString("tags", ""),
		Project: req.GetString("project", ""),
		Text:    req.GetString("text", ""),
	}
	agents, err := s.svc.List(ctx, strings.TrimSpace(req.GetString("category", "")), f)
	if err != nil {
		return errorResult(err), nil
	}
	if len(agents) == 0 {
		return mcp.NewToolResultText("📭 No agents found matching the filters"), nil
	}
	return mcp.NewToolResultText(renderAgentList(
		fmt.Sprintf("📚 **Found %d agent(s):**", len(agents)), agents, false)), nil
}

func (s *Server) getAgent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := strings.TrimSpace(req.GetString("path", ""))
	if path == "" {
		return mcp.NewToolResultError("❌ Error: Path is required"), nil
	}
	agent, err := s.svc.Get(ctx, path)
	if err != nil {
		// Only the read path hints at the cause of a malformed document.
		if errors.Is(err, apperr.ErrInvalidFormat) {
			return mcp.NewToolResultError("❌ Error: Invalid agent file format (no frontmatter found)"), nil
		}
		return pathErrorResult(path, err), nil
	}
	return mcp.NewToolResultText(renderAgentDetail(agent)), nil
}

func (s *Server) createAgent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	proposal, err := s.svc.Create(ctx, agentservice.CreateRequest{
		Category:        req.GetString("category", ""),
		Title:           req.GetString("title", ""),
		Description:     req.GetString("description", ""),
		Tags:            req.GetString("tags", ""),
		Project:         req.GetString("project", ""),
		LLMProvider:     req.GetString("llm_provider", ""),
		SuggestedModels: req.GetString("suggested_models", ""),
		PromptContent:   req.GetString("prompt_content", ""),
	})
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return mcp.NewToolResultError("❌ Error: Agent " + err.Error()), nil
		}
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"✅ **Agent created successfully!**\n\n📁 File: `%s`\n🔀 Pull Request: %s\n\nThe agent will be added once the PR is merged.",
		proposal.Path, proposal.PullRequestURL)), nil
}

func (s *Server) updateAgent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := strings.TrimSpace(req.GetString("path", ""))
	if path == "" {
		return mcp.NewToolResultError("❌ Error: Path is required"), nil
	}
	proposal, err := s.svc.Update(ctx, agentservice.UpdateRequest{
		Path:            path,
		Title:           req.GetString("title", ""),
		Description:     req.GetString("description", ""),
		Tags:            req.GetString("tags", ""),
		Project:         req.GetString("project", ""),
		LLMProvider:     req.GetString("llm_provider", ""),
		SuggestedModels: req.GetString("suggested_models", ""),
		PromptContent:   req.GetString("prompt_content", ""),
		Version:         req.GetString("version", ""),
	})
	if err != nil {
		return pathErrorResult(path, err), nil
	}
	changeList := "- " + strings.Join(proposal.Changes, "\n- ")
	return mcp.NewToolResultText(fmt.Sprintf(
		"✅ **Agent update PR created!**\n\n📁 File: `%s`\n🔀 Pull Request: %s\n\n**Changes:**\n%s\n\nThe agent will be updated once the PR is merged.",
		proposal.Path, proposal.PullRequestURL, changeList)), nil
}

func (s *Server) deleteAgent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := strings.TrimSpace(req.GetString("path", ""))
	if path == "" {
		return mcp.NewToolResultError("❌ Error: Path is required"), nil
	}
	reason := strings.TrimSpace(req.GetString("reason", ""))
	if reason == "" {
		return mcp.NewToolResultError("❌ Error: Reason for deletion is required"), nil
	}
	proposal, err := s.svc.Delete(ctx, path, reason)
	if err != nil {
		return pathErrorResult(path, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"✅ **Agent deletion PR created!**\n\n📁 File: `%s`\n🔀 Pull Request: %s\n\n**Reason:** %s\n\nThe agent will be deleted once the PR is merged.",
		proposal.Path, proposal.PullRequestURL, reason)), nil
}

func (s *Server) listCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cats, err := s.svc.Categories(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	if len(cats) == 0 {
		return mcp.NewToolResultText("📭 No categories found"), nil
	}
	return mcp.NewToolResultText(renderCategories(cats)), nil
}

func (s *Server) queryAgent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := query.Query{
		AgentID:         req.GetString("agent_id", ""),
		Title:           req.GetString("title", ""),
		Tags:            req.GetString("tags", ""),
		Project:         req.GetString("project", ""),
		LLMProvider:     req.GetString("llm_provider", ""),
		SuggestedModels: req.GetString("suggested_models", ""),
		Version:         req.GetString("version", ""),
		Description:     req.GetString("description", ""),
		Text:            req.GetString("text", ""),
	}
	agents, err := s.svc.Query(ctx, req.GetString("path", ""), q)
	if err != nil {
		return errorResult(err), nil
	}
	if len(agents) == 0 {
		return mcp.NewToolResultText("📭 No agents found matching the query criteria"), nil
	}
	return mcp.NewToolResultText(renderAgentList(
		fmt.Sprintf("🔍 **Found %d agent(s) matching query:**", len(agents)), agents, true)), nil
}

func (s *Server) getAgentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(AgentFormatContract), nil
}

func (s *Server) readAgentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://agent-format",
			MIMEType: "text/markdown",
			Text:     AgentFormatContract,
		},
	}, nil
}

// errorResult maps service errors to tool error reports. No Go error is
// ever returned to the MCP runtime as a protocol failure.
func errorResult(err error) *mcp.CallToolResult {
	var apiErr *repository.APIError
	switch {
	case errors.Is(err, apperr.ErrNotConfigured):
		return mcp.NewToolResultError("❌ Configuration Error: " + err.Error())
	case errors.As(err, &apiErr):
		return mcp.NewToolResultError("❌ GitHub API Error: " + apiErr.Message)
	default:
		return mcp.NewToolResultError("❌ Error: " + err.Error())
	}
}

// pathErrorResult is errorResult plus the path-specific not-found and
// malformed-document messages used by single-document operations.
func pathErrorResult(path string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("❌ Error: Agent not found at path '%s'", path))
	case errors.Is(err, apperr.ErrInvalidFormat):
		return mcp.NewToolResultError("❌ Error: Invalid agent file format")
	case errors.Is(err, apperr.ErrNoChanges):
		return mcp.NewToolResultError("❌ Error: No changes provided")
	default:
		return errorResult(err)
	}
}

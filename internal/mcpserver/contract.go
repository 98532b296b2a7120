package mcpserver

// AgentFormatContract describes the canonical agent document format that
// LLM consumers should follow when creating or updating agents.
const AgentFormatContract = `# Ansuz Agent Format Contract

Every agent document stored in the collection MUST follow this structure.

## Structure

` + "```" + `markdown
---
id: filename-stem                   # REQUIRED – unique id, matches the file name
title: Human-readable title         # REQUIRED – primary display name
type: agent                         # REQUIRED – always "agent"
tags:                               # OPTIONAL – YAML list; used for filtering
  - tag-one
  - tag-two
description: One-line summary       # REQUIRED – what the agent does
project: ProjectName                # OPTIONAL
llm_provider: anthropic             # OPTIONAL
suggested_models: claude-sonnet-4   # OPTIONAL – free form
version: 1.0.0                      # REQUIRED – semantic version
---

The agent prompt body in plain Markdown.
` + "```" + `

## Rules

1. **YAML front matter is mandatory.** The ` + "```" + `---` + "```" + ` fences must be the first
   thing in the file (no leading blank lines). Documents without front
   matter are invisible to listing and querying.
2. **The id is the filename stem**: lowercase, punctuation stripped,
   spaces collapsed to hyphens (e.g. "My Agent!" becomes ` + "`" + `my-agent` + "`" + `).
3. **File paths** end with ` + "`" + `.md` + "`" + `, use forward slashes, and live under a
   category folder: ` + "`" + `<category>/<id>.md` + "`" + `.
4. **Tags** are lowercase, kebab-case, compared case-insensitively.
5. **All changes go through pull requests.** Create, update and delete
   tools open a PR; nothing lands on the default branch directly.

## Example

` + "```" + `markdown
---
id: jarvis
title: Jarvis
type: agent
tags:
  - home
  - assistant
description: Home-lab orchestration assistant
project: HomeLab
version: 1.0.0
---

You are Jarvis, the home-lab orchestration assistant...
` + "```" + `
`

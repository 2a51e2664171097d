package mcpserver

// EntryFormatContract describes the canonical entry file format that LLM
// consumers should rely on when interpreting repository files.
const EntryFormatContract = `# Ansuz Entry Format Contract

Every entry in the repository is a single Markdown file with YAML
frontmatter. The file name is ` + "`" + `<id>.md` + "`" + ` and the directory it sits in is
fully determined by the entry's kind and status.

## Structure

` + "```" + `markdown
---
id: 2026-01-10-impact-of-quantum-noise-0f3k2a   # REQUIRED, immutable
kind: hypothesis                                # REQUIRED: hypothesis | literature | knowledge
title: Impact of quantum noise                  # REQUIRED
status: active                                  # REQUIRED, from the kind's lifecycle
tags:                                           # OPTIONAL, sorted, deduplicated
  - quantum
created_at: 2026-01-10T09:00:00Z                # UTC, second granularity
updated_at: 2026-01-10T09:00:00Z
references:                                     # OPTIONAL, ids this entry points at
  - 2026-01-09-prior-paper-0f3k1z
created_by:                                     # OPTIONAL
  name: Ada
  email: ada@example.com
source_url: https://arxiv.org/abs/2401.12345    # literature only
---

Markdown body. Everything after the closing fence is free-form.
` + "```" + `

## Lifecycles

- hypothesis: ` + "`" + `active -> proven | disproven -> archived` + "`" + `
- literature: ` + "`" + `pending -> in_progress -> completed -> archived` + "`" + `
  (pending may also jump straight to completed)
- knowledge:  ` + "`" + `draft -> published -> archived` + "`" + `

Every status may move to ` + "`" + `archived` + "`" + `; archived is final. Transitions never
move backwards.

## Layout

- in-flight entries (active, pending, in_progress, draft) live under the
  active root
- concluded entries (proven, disproven, completed, published) live under
  the knowledge-base root
- archived entries live under the archive root

Inside each root, entries are grouped per kind: ` + "`" + `hypotheses/` + "`" + `,
` + "`" + `literature/` + "`" + `, ` + "`" + `knowledge/` + "`" + `.

## Rules

1. Frontmatter fences are the first thing in the file.
2. ` + "`" + `references` + "`" + ` is one-directional; backlinks are always derived, never
   stored on the target.
3. Unrecognized frontmatter keys are preserved verbatim across rewrites.
4. Reference graphs are acyclic; self references are rejected.
5. Encoding is UTF-8.
`

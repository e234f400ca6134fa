package mcpserver

// PostFormatContract describes the canonical Markdown post format that
// LLM consumers should follow when creating posts.
const PostFormatContract = `# Dagaz Post Format Contract

Every Markdown post stored in Dagaz MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title         # REQUIRED – shown in lists, search, archive
description: One-line summary       # OPTIONAL – shown under the title in lists
date: 2025-01-15                    # REQUIRED – YYYY-MM-DD; drives ordering and the archive
tags:                               # OPTIONAL – YAML list; used for filtering
  - tag-one
  - tag-two
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. **YAML frontmatter is mandatory.** The ` + "```" + `---` + "```" + ` fences must be the first
   thing in the file (no leading blank lines).
2. **` + "`" + `title` + "`" + ` field is required.** It is the primary display name everywhere.
3. **` + "`" + `date` + "`" + ` is a plain YYYY-MM-DD string.** Posts are ordered newest first by
   this date; posts without a valid date sort last.
4. **Slug convention:** the file name is the date, e.g. ` + "`" + `2025-01-15.md` + "`" + `.
   A second post on the same day is ` + "`" + `2025-01-15-2.md` + "`" + `, a third
   ` + "`" + `2025-01-15-3.md` + "`" + `, and so on. The numeric suffix breaks ties within a day,
   highest first.
5. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `unit-testing` + "`" + `, ` + "`" + `go` + "`" + `).
6. **Headings** up to level 4 (` + "`" + `#` + "`" + ` through ` + "`" + `####` + "`" + `) appear in the post
   outline and get anchor ids; deeper headings render but are not tracked.
7. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
8. **Encoding** is UTF-8 with a trailing newline.
9. **No raw HTML** unless absolutely necessary; it is sanitized on render.

## Example

` + "```" + `markdown
---
title: Go slices share backing arrays
description: append can silently alias memory
date: 2025-01-20
tags:
  - go
  - gotchas
---

# Go slices share backing arrays

Today I learned that ` + "`" + `append` + "`" + ` only allocates when capacity runs out.

## The fix

Copy explicitly with ` + "`" + `slices.Clone` + "`" + ` before mutating a shared slice.
` + "```" + `
`

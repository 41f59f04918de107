package mcpserver

// ContentFormatContract describes the portfolio.yaml document that LLM
// consumers should follow when drafting site content.
const ContentFormatContract = `# Folio Content Format

The site is rendered from a single YAML document, ` + "`portfolio.yaml`" + `, in the
content directory. Saving the file reloads the site; an invalid document is
rejected and the previous content stays live.

## Structure

` + "```" + `yaml
profile:
  name: Jane Doe                 # REQUIRED for a useful home page
  headline: Backend Engineer
  bio: |
    One or two short paragraphs.
  image: /images/me.jpg          # OPTIONAL, served from <content>/images
  links:
    - label: GitHub
      url: https://github.com/jane

skills:
  - title: Languages
    skills: [Go, SQL]

projects:
  - id: 1                        # REQUIRED, unique, >= 1
    slug: my-project             # REQUIRED, unique, lowercase words joined by "-"
    title: My Project            # REQUIRED
    tag: Go • Postgres
    category: Backend
    year: 2025
    featured: true
    stack: Go • Postgres • Redis
    description: One-line summary for the listing.
    problem: Markdown.
    approach: Markdown.
    architecture: Markdown.
    challenges: Markdown.
    learned: Markdown.
    github: https://github.com/jane/my-project   # OPTIONAL, absolute URL
    demo: https://example.com                    # OPTIONAL, absolute URL
` + "```" + `

## Rules

1. **Project order is display order.** The list is shown top to bottom as written.
2. **Slugs and ids must be unique.** A duplicate rejects the whole document.
3. **Narrative fields are Markdown.** Raw HTML is escaped. Fenced code is highlighted.
4. **Empty narrative fields are skipped.** The detail page only shows sections with content,
   in the order problem, stack, approach, architecture, challenges, learned.
5. **Links must be absolute URLs.** ` + "`github`" + ` and ` + "`demo`" + ` fail validation otherwise.

Use the ` + "`validate_content`" + ` tool to check a draft before saving it.
`

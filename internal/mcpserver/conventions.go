package mcpserver

// NoteConventions describes how EyeFile reading notes are structured and
// filed, for LLM consumers creating notes through the MCP tools.
const NoteConventions = `# EyeFile Note Conventions

Every note in EyeFile is attached to exactly one document and filed under
exactly one category. Follow these conventions when creating notes.

## Fields

- ` + "`" + `excerpt` + "`" + ` is a passage quoted verbatim from the document. Keep the
  author's wording, including typos; do not paraphrase here.
- ` + "`" + `body_md` + "`" + ` is your own commentary in Markdown: why the passage matters,
  how it connects to other readings, open questions.
- A note needs an excerpt, a body, or both. A note with neither is rejected.
- ` + "`" + `page_ref` + "`" + ` locates the excerpt in the document: a single page (` + "`" + `12` + "`" + `)
  or an inclusive range (` + "`" + `12-14` + "`" + `). Leave it out for documents without
  page numbers. Notes on a document are listed in page order, so a correct
  ` + "`" + `page_ref` + "`" + ` keeps them readable front to back.

## Filing

1. **Always file under the most specific category.** Call ` + "`" + `list_categories` + "`" + `
   first and pick the deepest node that fits; listing a category later
   includes all of its subcategories automatically.
2. **Do not invent category ids.** Only use ids returned by
   ` + "`" + `list_categories` + "`" + `.
3. **One idea per note.** Prefer several short notes over one long note
   that spans unrelated passages.

## Example

` + "```" + `json
{
  "document_id": "3",
  "category_id": "7",
  "excerpt": "The limits of my language mean the limits of my world.",
  "body_md": "Recurs almost verbatim in ch. 4; compare the framing there.",
  "page_ref": "68"
}
` + "```" + `
`

// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the EyeFile library for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/eyefile/internal/apperr"
	"github.com/starford/eyefile/internal/library"
	"github.com/starford/eyefile/internal/models"
)

// Server wraps the MCP server with EyeFile tools.
type Server struct {
	mcp *server.MCPServer
	svc *library.Service
}

// New creates a new MCP server with all EyeFile tools registered.
func New(svc *library.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"EyeFile",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List every document in the library with its id, title, authors and year."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Read one document's metadata together with all notes taken on it, ordered by page reference."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Numeric id of the document")),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("Show the category tree that notes are filed under, with the numeric id of every category."),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("category_notes",
		mcp.WithDescription("List notes filed under a category, including notes in all of its subcategories."),
		mcp.WithString("category_id", mcp.Required(), mcp.Description("Numeric id of the category")),
	), s.categoryNotes)

	s.mcp.AddTool(mcp.NewTool("recent_notes",
		mcp.WithDescription("List the most recently created notes across the whole library."),
		mcp.WithString("limit", mcp.Description("Optional maximum number of notes to return (default 10)")),
	), s.recentNotes)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a reading note on a document, filed under a category. "+
			"Provide an excerpt quoted from the document, a body_md commentary, or both. "+
			"Read the conventions first via the get_note_conventions tool or the "+
			"eyefile://note-conventions resource."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Numeric id of the document the note is about")),
		mcp.WithString("category_id", mcp.Required(), mcp.Description("Numeric id of the category to file the note under")),
		mcp.WithString("excerpt", mcp.Description("Passage quoted verbatim from the document")),
		mcp.WithString("body_md", mcp.Description("Markdown commentary in your own words")),
		mcp.WithString("page_ref", mcp.Description("Page reference such as 12 or 12-14")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("get_note_conventions",
		mcp.WithDescription("Returns the EyeFile note-taking conventions. "+
			"Call this before creating notes to structure and file them correctly."),
	), s.getNoteConventions)

	// Resource: note-taking conventions.
	s.mcp.AddResource(
		mcp.NewResource("eyefile://note-conventions", "Note Conventions",
			mcp.WithResourceDescription("How EyeFile reading notes are structured and filed."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteConventionsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.svc.ListDocuments(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(docs) == 0 {
		return mcp.NewToolResultText("the library is empty"), nil
	}

	var lines []string
	for _, d := range docs {
		lines = append(lines, documentLine(d))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.GetDocument(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("document %d not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := s.svc.DocumentNotes(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.MarshalIndent(struct {
		Document models.Document `json:"document"`
		Notes    []models.Note   `json:"notes"`
	}{*doc, notes}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tree, err := s.svc.CategoryTree(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(tree) == 0 {
		return mcp.NewToolResultText("no categories yet"), nil
	}

	var b strings.Builder
	for _, root := range tree {
		writeTree(&b, root, 0)
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (s *Server) categoryNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req, "category_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := s.svc.CategoryNotes(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("category %d not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText("no notes in this category"), nil
	}

	var lines []string
	for _, n := range notes {
		lines = append(lines, noteLine(n))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) recentNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 0
	if raw, err := req.RequireString("limit"); err == nil {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("limit must be a number, got %q", raw)), nil
		}
		limit = n
	}

	notes, err := s.svc.RecentNotes(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText("no notes yet"), nil
	}

	var lines []string
	for _, n := range notes {
		lines = append(lines, noteLine(n))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, err := requireID(req, "document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	catID, err := requireID(req, "category_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := library.NoteParams{DocumentID: docID, CategoryID: catID}
	if v, err := req.RequireString("excerpt"); err == nil {
		params.Excerpt = v
	}
	if v, err := req.RequireString("body_md"); err == nil {
		params.BodyMD = v
	}
	if v, err := req.RequireString("page_ref"); err == nil && strings.TrimSpace(v) != "" {
		ref := strings.TrimSpace(v)
		params.PageRef = &ref
	}

	note, err := s.svc.CreateNote(ctx, params)
	switch {
	case errors.Is(err, apperr.ErrInvalid):
		return mcp.NewToolResultError("a note needs an excerpt or a body_md"), nil
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("document or category not found"), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created note #%d on document %d", note.ID, note.DocumentID)), nil
}

func (s *Server) getNoteConventions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteConventions), nil
}

func (s *Server) readNoteConventionsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "eyefile://note-conventions",
			MIMEType: "text/markdown",
			Text:     NoteConventions,
		},
	}, nil
}

// requireID reads a required string argument and parses it as a numeric id.
func requireID(req mcp.CallToolRequest, key string) (int64, error) {
	raw, err := req.RequireString(key)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a numeric id, got %q", key, raw)
	}
	return id, nil
}

func documentLine(d models.Document) string {
	line := fmt.Sprintf("#%d %s", d.ID, d.Title)
	if d.Authors != "" {
		line += " by " + d.Authors
	}
	if d.Year != nil {
		line += fmt.Sprintf(" (%d)", *d.Year)
	}
	return line
}

func writeTree(b *strings.Builder, node *models.CategoryNode, depth int) {
	fmt.Fprintf(b, "%s#%d %s\n", strings.Repeat("  ", depth), node.ID, node.Name)
	for _, child := range node.Children {
		writeTree(b, child, depth+1)
	}
}

func noteLine(n models.NoteWithCategory) string {
	if n.CategoryName != "" {
		return fmt.Sprintf("#%d [%s] %s", n.ID, n.CategoryName, noteLabel(n.Note))
	}
	return fmt.Sprintf("#%d %s", n.ID, noteLabel(n.Note))
}

// noteLabel builds a one-line summary of a note for tool output.
func noteLabel(n models.Note) string {
	text := n.Excerpt
	if strings.TrimSpace(text) == "" {
		text = n.BodyMD
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		text = "(empty note)"
	}
	if r := []rune(text); len(r) > 70 {
		text = string(r[:70]) + "..."
	}
	if n.PageRef != nil && *n.PageRef != "" {
		text += " [p. " + *n.PageRef + "]"
	}
	return text
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/eyefile/internal/files"
	"github.com/starford/eyefile/internal/library"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// lib is the library root document files are served from.
func NewRouter(svc *library.Service, authEnabled bool, token string, sseHandler http.Handler, lib *files.Root) chi.Router {
	h := NewHandler(svc)
	fh := NewFileHandler(svc, lib)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents CRUD plus their notes and stored file.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Get("/documents/{id}", h.GetDocument)
	r.Put("/documents/{id}", h.UpdateDocument)
	r.Delete("/documents/{id}", h.DeleteDocument)
	r.Get("/documents/{id}/notes", h.DocumentNotes)
	r.Get("/documents/{id}/file", fh.ServeDocumentFile)

	// Categories CRUD, tree view, and subtree notes.
	r.Get("/categories", h.ListCategories)
	r.Get("/categories/tree", h.CategoryTree)
	r.Post("/categories", h.CreateCategory)
	r.Get("/categories/{id}", h.GetCategory)
	r.Put("/categories/{id}", h.UpdateCategory)
	r.Delete("/categories/{id}", h.DeleteCategory)
	r.Get("/categories/{id}/notes", h.CategoryNotes)

	// Notes CRUD and the recency feed.
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/recent", h.RecentNotes)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

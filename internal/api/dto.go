package api

import (
	"github.com/starford/eyefile/internal/models"
)

// CreateDocumentRequest is the request body for registering a document.
type CreateDocumentRequest struct {
	Title    string `json:"title" example:"Attention Is All You Need" validate:"required"`
	Authors  string `json:"authors" example:"Vaswani et al."`
	Year     *int   `json:"year" example:"2017"`
	FilePath string `json:"file_path" example:"papers/attention.pdf" validate:"required"`
}

// UpdateDocumentRequest is the request body for updating a document.
type UpdateDocumentRequest = CreateDocumentRequest

// CreateCategoryRequest is the request body for creating a category.
// A nil parent_id creates a new root.
type CreateCategoryRequest struct {
	Name     string `json:"name" example:"Reading" validate:"required"`
	ParentID *int64 `json:"parent_id" example:"1"`
}

// UpdateCategoryRequest is the request body for renaming or moving a category.
type UpdateCategoryRequest = CreateCategoryRequest

// CreateNoteRequest is the request body for filing a note. At least
// one of excerpt and body_md must be non-empty.
type CreateNoteRequest struct {
	DocumentID int64   `json:"document_id" example:"1" validate:"required"`
	CategoryID int64   `json:"category_id" example:"2" validate:"required"`
	Excerpt    string  `json:"excerpt" example:"The dominant sequence transduction models..."`
	BodyMD     string  `json:"body_md" example:"Key claim, revisit for the survey."`
	PageRef    *string `json:"page_ref" example:"2-3"`
}

// UpdateNoteRequest is the request body for updating a note. The
// owning document cannot be changed.
type UpdateNoteRequest struct {
	CategoryID int64   `json:"category_id" example:"2" validate:"required"`
	Excerpt    string  `json:"excerpt"`
	BodyMD     string  `json:"body_md"`
	PageRef    *string `json:"page_ref" example:"2-3"`
}

// Document is the document response type (aliased from the domain layer).
type Document = models.Document

// Category is the category response type (aliased from the domain layer).
type Category = models.Category

// CategoryNode is a category with its children (aliased from the domain layer).
type CategoryNode = models.CategoryNode

// Note is the note response type (aliased from the domain layer).
type Note = models.Note

// NoteWithCategory is a note enriched with its category name.
type NoteWithCategory = models.NoteWithCategory

// DocumentListResponse wraps document listings.
type DocumentListResponse struct {
	Documents []Document `json:"documents" validate:"required"`
}

// CategoryListResponse wraps flat category listings.
type CategoryListResponse struct {
	Categories []Category `json:"categories" validate:"required"`
}

// CategoryTreeResponse wraps the category forest.
type CategoryTreeResponse struct {
	Categories []*CategoryNode `json:"categories" validate:"required"`
}

// NoteListResponse wraps plain note listings.
type NoteListResponse struct {
	Notes []Note `json:"notes" validate:"required"`
}

// NoteWithCategoryListResponse wraps note listings that carry category names.
type NoteWithCategoryListResponse struct {
	Notes []NoteWithCategory `json:"notes" validate:"required"`
}

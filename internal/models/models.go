// Package models defines the domain types for EyeFile.
package models

import "time"

// Document is a bibliographic record pointing to an externally stored file.
type Document struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Authors   string    `json:"authors"`
	Year      *int      `json:"year"`
	FilePath  string    `json:"file_path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Category is a node in the subject classification tree.
// A nil ParentID marks a root category.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ParentID  *int64    `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryNode is a category with its children attached, for tree responses.
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}

// Note is an annotation bound to exactly one document and one category.
type Note struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	CategoryID int64     `json:"category_id"`
	Excerpt    string    `json:"excerpt"`
	BodyMD     string    `json:"body_md"`
	PageRef    *string   `json:"page_ref"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NoteWithCategory is a note listing row joined with its category name.
type NoteWithCategory struct {
	Note
	CategoryName string `json:"category_name"`
}

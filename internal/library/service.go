// Package library applies the application rules for documents,
// hierarchical categories, and reading notes on top of the store.
package library

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/starford/eyefile/internal/apperr"
	"github.com/starford/eyefile/internal/models"
	"github.com/starford/eyefile/internal/pageref"
	"github.com/starford/eyefile/internal/store"
)

// Publisher receives change notifications after successful mutations.
type Publisher interface {
	PublishChange(entity, kind string, id int64)
}

// DocumentParams carries the writable fields of a document.
type DocumentParams struct {
	Title    string
	Authors  string
	Year     *int
	FilePath string
}

// NoteParams carries the fields needed to create a note.
type NoteParams struct {
	DocumentID int64
	CategoryID int64
	Excerpt    string
	BodyMD     string
	PageRef    *string
}

// UpdateNoteParams carries the replaceable fields of a note. The
// owning document is fixed at creation time.
type UpdateNoteParams struct {
	CategoryID int64
	Excerpt    string
	BodyMD     string
	PageRef    *string
}

// Service coordinates store access and change notifications.
type Service struct {
	db     store.Library
	events Publisher
}

// NewService creates a library service. events may be nil when no
// subscriber transport is running.
func NewService(db store.Library, events Publisher) *Service {
	return &Service{db: db, events: events}
}

// CreateDocument registers a document record.
func (s *Service) CreateDocument(_ context.Context, p DocumentParams) (*models.Document, error) {
	doc, err := s.db.CreateDocument(p.Title, p.Authors, p.Year, p.FilePath)
	if err != nil {
		return nil, err
	}
	s.publish("document", "created", doc.ID)
	return doc, nil
}

// GetDocument returns a single document.
func (s *Service) GetDocument(_ context.Context, id int64) (*models.Document, error) {
	return s.db.GetDocument(id)
}

// ListDocuments returns all documents ordered by title.
func (s *Service) ListDocuments(_ context.Context) ([]models.Document, error) {
	docs, err := s.db.ListDocuments()
	if err != nil {
		return nil, err
	}
	return nonNilSlice(docs), nil
}

// UpdateDocument replaces a document's fields and returns the updated row.
func (s *Service) UpdateDocument(_ context.Context, id int64, p DocumentParams) (*models.Document, error) {
	if err := s.db.UpdateDocument(id, p.Title, p.Authors, p.Year, p.FilePath); err != nil {
		return nil, err
	}
	doc, err := s.db.GetDocument(id)
	if err != nil {
		return nil, err
	}
	s.publish("document", "updated", id)
	return doc, nil
}

// DeleteDocument removes a document and, through the schema's
// cascade, every note attached to it.
func (s *Service) DeleteDocument(_ context.Context, id int64) error {
	if err := s.db.DeleteDocument(id); err != nil {
		return err
	}
	s.publish("document", "deleted", id)
	return nil
}

// DocumentNotes returns a document's notes ordered by page reference
// where one can be read, with the remaining notes newest-first after
// them.
func (s *Service) DocumentNotes(_ context.Context, documentID int64) ([]models.Note, error) {
	if _, err := s.db.GetDocument(documentID); err != nil {
		return nil, err
	}
	notes, err := s.db.NotesForDocument(documentID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return pageref.Compare(notes[i].PageRef, notes[j].PageRef) < 0
	})
	return nonNilSlice(notes), nil
}

// CreateCategory adds a category under the given parent, or a new
// root when parentID is nil.
func (s *Service) CreateCategory(_ context.Context, name string, parentID *int64) (*models.Category, error) {
	cat, err := s.db.CreateCategory(name, parentID)
	if err != nil {
		return nil, err
	}
	s.publish("category", "created", cat.ID)
	return cat, nil
}

// GetCategory returns a single category.
func (s *Service) GetCategory(_ context.Context, id int64) (*models.Category, error) {
	return s.db.GetCategory(id)
}

// ListCategories returns all categories as a flat list, roots first.
func (s *Service) ListCategories(_ context.Context) ([]models.Category, error) {
	cats, err := s.db.ListCategories()
	if err != nil {
		return nil, err
	}
	return nonNilSlice(cats), nil
}

// CategoryTree returns the categories arranged as a forest. Siblings
// keep the flat listing's name order.
func (s *Service) CategoryTree(ctx context.Context) ([]*models.CategoryNode, error) {
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	nodes := make(map[int64]*models.CategoryNode, len(cats))
	for _, c := range cats {
		nodes[c.ID] = &models.CategoryNode{Category: c, Children: []*models.CategoryNode{}}
	}
	roots := []*models.CategoryNode{}
	for _, c := range cats {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

// UpdateCategory renames or reparents a category. Moving a category
// under itself or one of its descendants is refused, since the
// schema alone does not prevent parent cycles.
func (s *Service) UpdateCategory(_ context.Context, id int64, name string, parentID *int64) (*models.Category, error) {
	if parentID != nil {
		if *parentID == id {
			return nil, fmt.Errorf("library: category %d cannot be its own parent: %w", id, apperr.ErrConflict)
		}
		subtree, err := s.db.SubtreeIDs(id)
		if err != nil {
			return nil, err
		}
		for _, sid := range subtree {
			if sid == *parentID {
				return nil, fmt.Errorf("library: category %d cannot move under its own descendant %d: %w", id, *parentID, apperr.ErrConflict)
			}
		}
	}
	if err := s.db.UpdateCategory(id, name, parentID); err != nil {
		return nil, err
	}
	cat, err := s.db.GetCategory(id)
	if err != nil {
		return nil, err
	}
	s.publish("category", "updated", id)
	return cat, nil
}

// DeleteCategory removes a category, its descendants, and all notes
// filed under any of them.
func (s *Service) DeleteCategory(_ context.Context, id int64) error {
	if err := s.db.DeleteCategory(id); err != nil {
		return err
	}
	s.publish("category", "deleted", id)
	return nil
}

// CategoryNotes returns the notes filed under a category or any of
// its descendants, newest first.
func (s *Service) CategoryNotes(_ context.Context, categoryID int64) ([]models.NoteWithCategory, error) {
	if _, err := s.db.GetCategory(categoryID); err != nil {
		return nil, err
	}
	notes, err := s.db.NotesForCategorySubtree(categoryID)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(notes), nil
}

// CreateNote files a note against a document and category. A note
// with neither an excerpt nor a body is refused.
func (s *Service) CreateNote(_ context.Context, p NoteParams) (*models.Note, error) {
	if err := checkNoteText(p.Excerpt, p.BodyMD); err != nil {
		return nil, err
	}
	note, err := s.db.CreateNote(p.DocumentID, p.CategoryID, p.Excerpt, p.BodyMD, p.PageRef)
	if err != nil {
		return nil, err
	}
	s.publish("note", "created", note.ID)
	return note, nil
}

// GetNote returns a single note.
func (s *Service) GetNote(_ context.Context, id int64) (*models.Note, error) {
	return s.db.GetNote(id)
}

// UpdateNote replaces a note's category, texts, and page reference,
// and returns the updated row.
func (s *Service) UpdateNote(_ context.Context, id int64, p UpdateNoteParams) (*models.Note, error) {
	if err := checkNoteText(p.Excerpt, p.BodyMD); err != nil {
		return nil, err
	}
	if err := s.db.UpdateNote(id, p.CategoryID, p.Excerpt, p.BodyMD, p.PageRef); err != nil {
		return nil, err
	}
	note, err := s.db.GetNote(id)
	if err != nil {
		return nil, err
	}
	s.publish("note", "updated", id)
	return note, nil
}

// DeleteNote removes a note.
func (s *Service) DeleteNote(_ context.Context, id int64) error {
	if err := s.db.DeleteNote(id); err != nil {
		return err
	}
	s.publish("note", "deleted", id)
	return nil
}

// RecentNotes returns the newest notes across the library. A
// non-positive limit falls back to 10.
func (s *Service) RecentNotes(_ context.Context, limit int) ([]models.NoteWithCategory, error) {
	if limit <= 0 {
		limit = 10
	}
	notes, err := s.db.RecentNotes(limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(notes), nil
}

func (s *Service) publish(entity, kind string, id int64) {
	if s.events != nil {
		s.events.PublishChange(entity, kind, id)
	}
}

func checkNoteText(excerpt, bodyMD string) error {
	if strings.TrimSpace(excerpt) == "" && strings.TrimSpace(bodyMD) == "" {
		return fmt.Errorf("library: note needs an excerpt or a body: %w", apperr.ErrInvalid)
	}
	return nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

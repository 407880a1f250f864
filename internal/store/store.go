package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/eyefile/internal/apperr"
	"github.com/starford/eyefile/internal/models"
)

// Library defines the interface for library store operations.
// Consumers should depend on this interface rather than the concrete
// *DB type to facilitate testing with fakes.
type Library interface {
	CreateDocument(title, authors string, year *int, filePath string) (*models.Document, error)
	GetDocument(id int64) (*models.Document, error)
	ListDocuments() ([]models.Document, error)
	UpdateDocument(id int64, title, authors string, year *int, filePath string) error
	DeleteDocument(id int64) error
	AllFilePaths() (map[string]struct{}, error)

	CreateCategory(name string, parentID *int64) (*models.Category, error)
	GetCategory(id int64) (*models.Category, error)
	ListCategories() ([]models.Category, error)
	UpdateCategory(id int64, name string, parentID *int64) error
	DeleteCategory(id int64) error
	SubtreeIDs(rootID int64) ([]int64, error)
	EnsureDefaultCategories() error

	CreateNote(documentID, categoryID int64, excerpt, bodyMD string, pageRef *string) (*models.Note, error)
	GetNote(id int64) (*models.Note, error)
	UpdateNote(id, categoryID int64, excerpt, bodyMD string, pageRef *string) error
	DeleteNote(id int64) error
	NotesForDocument(documentID int64) ([]models.Note, error)
	NotesForCategorySubtree(categoryID int64) ([]models.NoteWithCategory, error)
	RecentNotes(limit int) ([]models.NoteWithCategory, error)

	Close() error
}

// Verify *DB satisfies Library at compile time.
var _ Library = (*DB)(nil)

// timeLayout is what SQLite's CURRENT_TIMESTAMP writes into the TEXT
// timestamp columns (UTC, second resolution).
const timeLayout = "2006-01-02 15:04:05"

// parseTime converts a stored timestamp string into a time.Time.
func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err == nil {
		return t, nil
	}
	t, rfcErr := time.Parse(time.RFC3339, s)
	if rfcErr == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("store: parse timestamp %q: %w", s, err)
}

// mapErr translates driver and sql errors into apperr sentinels.
// A foreign-key violation means the referenced parent row does not
// exist, which callers see as not-found.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("store: %s: %w", op, apperr.ErrNotFound)
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		if serr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return fmt.Errorf("store: %s: referenced row missing: %w", op, apperr.ErrNotFound)
		}
		return fmt.Errorf("store: %s: constraint violated: %w", op, apperr.ErrConflict)
	}
	return fmt.Errorf("store: %s: %w", op, err)
}

package store

import (
	"database/sql"
	"fmt"

	"github.com/starford/eyefile/internal/models"
)

const noteColumns = `id, document_id, category_id, excerpt, body_md, page_ref, created_at, updated_at`

func scanNote(row interface{ Scan(...any) error }) (*models.Note, error) {
	var (
		n       models.Note
		pageRef sql.NullString
		created string
		updated string
	)
	if err := row.Scan(&n.ID, &n.DocumentID, &n.CategoryID, &n.Excerpt, &n.BodyMD, &pageRef, &created, &updated); err != nil {
		return nil, err
	}
	if pageRef.Valid {
		p := pageRef.String
		n.PageRef = &p
	}
	var err error
	if n.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if n.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &n, nil
}

func scanNoteWithCategory(rows *sql.Rows) (*models.NoteWithCategory, error) {
	var (
		n        models.NoteWithCategory
		pageRef  sql.NullString
		category sql.NullString
		created  string
		updated  string
	)
	if err := rows.Scan(&n.ID, &n.DocumentID, &n.CategoryID, &n.Excerpt, &n.BodyMD, &pageRef, &created, &updated, &category); err != nil {
		return nil, err
	}
	if pageRef.Valid {
		p := pageRef.String
		n.PageRef = &p
	}
	n.CategoryName = category.String
	var err error
	if n.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if n.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateNote inserts a note and returns the stored row. Both parents
// must exist; the foreign keys surface a dangling reference as
// not-found through mapErr.
func (db *DB) CreateNote(documentID, categoryID int64, excerpt, bodyMD string, pageRef *string) (*models.Note, error) {
	res, err := db.conn.Exec(
		`INSERT INTO notes (document_id, category_id, excerpt, body_md, page_ref)
		 VALUES (?, ?, ?, ?, ?)`,
		documentID, categoryID, excerpt, bodyMD, nullableString(pageRef),
	)
	if err != nil {
		return nil, mapErr("create note", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: create note: last insert id: %w", err)
	}
	return db.GetNote(id)
}

// GetNote returns a single note by id.
func (db *DB) GetNote(id int64) (*models.Note, error) {
	row := db.conn.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err != nil {
		return nil, mapErr("get note", err)
	}
	return n, nil
}

// UpdateNote replaces a note's category, texts, and page reference.
// The owning document never changes.
func (db *DB) UpdateNote(id, categoryID int64, excerpt, bodyMD string, pageRef *string) error {
	res, err := db.conn.Exec(
		`UPDATE notes
		 SET category_id = ?, excerpt = ?, body_md = ?, page_ref = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		categoryID, excerpt, bodyMD, nullableString(pageRef), id,
	)
	if err != nil {
		return mapErr("update note", err)
	}
	return requireAffected("update note", res)
}

// DeleteNote removes a note.
func (db *DB) DeleteNote(id int64) error {
	res, err := db.conn.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete note", err)
	}
	return requireAffected("delete note", res)
}

// NotesForDocument returns a document's notes, newest first. The
// service layer reorders by page reference where possible.
func (db *DB) NotesForDocument(documentID int64) ([]models.Note, error) {
	rows, err := db.conn.Query(
		`SELECT `+noteColumns+` FROM notes WHERE document_id = ? ORDER BY id DESC`,
		documentID,
	)
	if err != nil {
		return nil, mapErr("notes for document", err)
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, mapErr("notes for document", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// NotesForCategorySubtree returns notes belonging to the category or
// any of its descendants, newest first, with category names attached.
// The subtree is computed in a single recursive CTE.
func (db *DB) NotesForCategorySubtree(categoryID int64) ([]models.NoteWithCategory, error) {
	rows, err := db.conn.Query(`
		WITH RECURSIVE subtree(id) AS (
			SELECT ?
			UNION ALL
			SELECT c.id
			FROM categories c
			JOIN subtree s ON c.parent_id = s.id
		)
		SELECT n.id, n.document_id, n.category_id, n.excerpt, n.body_md, n.page_ref,
		       n.created_at, n.updated_at, c.name AS category_name
		FROM notes n
		JOIN categories c ON c.id = n.category_id
		WHERE n.category_id IN (SELECT id FROM subtree)
		ORDER BY n.id DESC`, categoryID)
	if err != nil {
		return nil, mapErr("notes for category subtree", err)
	}
	defer rows.Close()

	var out []models.NoteWithCategory
	for rows.Next() {
		n, err := scanNoteWithCategory(rows)
		if err != nil {
			return nil, mapErr("notes for category subtree", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// RecentNotes returns the newest notes across the whole library.
func (db *DB) RecentNotes(limit int) ([]models.NoteWithCategory, error) {
	rows, err := db.conn.Query(`
		SELECT n.id, n.document_id, n.category_id, n.excerpt, n.body_md, n.page_ref,
		       n.created_at, n.updated_at, c.name AS category_name
		FROM notes n
		LEFT JOIN categories c ON c.id = n.category_id
		ORDER BY n.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, mapErr("recent notes", err)
	}
	defer rows.Close()

	var out []models.NoteWithCategory
	for rows.Next() {
		n, err := scanNoteWithCategory(rows)
		if err != nil {
			return nil, mapErr("recent notes", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

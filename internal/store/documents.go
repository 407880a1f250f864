package store

import (
	"database/sql"
	"fmt"

	"github.com/starford/eyefile/internal/models"
)

const documentColumns = `id, title, authors, year, file_path, created_at, updated_at`

// scanDocument reads one documents row. Timestamps arrive as TEXT and
// are parsed here.
func scanDocument(row interface{ Scan(...any) error }) (*models.Document, error) {
	var (
		d       models.Document
		year    sql.NullInt64
		created string
		updated string
	)
	if err := row.Scan(&d.ID, &d.Title, &d.Authors, &year, &d.FilePath, &created, &updated); err != nil {
		return nil, err
	}
	if year.Valid {
		y := int(year.Int64)
		d.Year = &y
	}
	var err error
	if d.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDocument inserts a bibliographic record and returns the stored
// row with the engine-assigned id and timestamps.
func (db *DB) CreateDocument(title, authors string, year *int, filePath string) (*models.Document, error) {
	res, err := db.conn.Exec(
		`INSERT INTO documents (title, authors, year, file_path) VALUES (?, ?, ?, ?)`,
		title, authors, nullableInt(year), filePath,
	)
	if err != nil {
		return nil, mapErr("create document", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: create document: last insert id: %w", err)
	}
	return db.GetDocument(id)
}

// GetDocument returns a single document by id.
func (db *DB) GetDocument(id int64) (*models.Document, error) {
	row := db.conn.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if err != nil {
		return nil, mapErr("get document", err)
	}
	return d, nil
}

// ListDocuments returns all documents in library browsing order.
func (db *DB) ListDocuments() ([]models.Document, error) {
	rows, err := db.conn.Query(`SELECT ` + documentColumns + ` FROM documents ORDER BY title ASC, id ASC`)
	if err != nil {
		return nil, mapErr("list documents", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, mapErr("list documents", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// UpdateDocument replaces the mutable fields and bumps updated_at.
func (db *DB) UpdateDocument(id int64, title, authors string, year *int, filePath string) error {
	res, err := db.conn.Exec(
		`UPDATE documents
		 SET title = ?, authors = ?, year = ?, file_path = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		title, authors, nullableInt(year), filePath, id,
	)
	if err != nil {
		return mapErr("update document", err)
	}
	return requireAffected("update document", res)
}

// DeleteDocument removes a document. The engine cascades the delete to
// every note referencing it.
func (db *DB) DeleteDocument(id int64) error {
	res, err := db.conn.Exec(`DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete document", err)
	}
	return requireAffected("delete document", res)
}

// AllFilePaths returns the distinct set of non-empty file paths
// referenced by documents. Used by the presence watcher.
func (db *DB) AllFilePaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT file_path FROM documents WHERE file_path <> ''`)
	if err != nil {
		return nil, mapErr("all file paths", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// nullableInt converts *int into a driver-friendly value.
func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// requireAffected turns a zero-row UPDATE/DELETE into not-found.
func requireAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: %s: rows affected: %w", op, err)
	}
	if n == 0 {
		return mapErr(op, sql.ErrNoRows)
	}
	return nil
}

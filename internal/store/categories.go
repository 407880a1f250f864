package store

import (
	"database/sql"
	"fmt"

	"github.com/starford/eyefile/internal/models"
)

const categoryColumns = `id, name, parent_id, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (*models.Category, error) {
	var (
		c       models.Category
		parent  sql.NullInt64
		created string
		updated string
	)
	if err := row.Scan(&c.ID, &c.Name, &parent, &created, &updated); err != nil {
		return nil, err
	}
	if parent.Valid {
		p := parent.Int64
		c.ParentID = &p
	}
	var err error
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCategory inserts a category node. A nil parentID creates a root.
func (db *DB) CreateCategory(name string, parentID *int64) (*models.Category, error) {
	res, err := db.conn.Exec(
		`INSERT INTO categories (name, parent_id) VALUES (?, ?)`,
		name, nullableID(parentID),
	)
	if err != nil {
		return nil, mapErr("create category", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: create category: last insert id: %w", err)
	}
	return db.GetCategory(id)
}

// GetCategory returns a single category by id.
func (db *DB) GetCategory(id int64) (*models.Category, error) {
	row := db.conn.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err != nil {
		return nil, mapErr("get category", err)
	}
	return c, nil
}

// ListCategories returns every category, roots first, siblings by name.
func (db *DB) ListCategories() ([]models.Category, error) {
	rows, err := db.conn.Query(`SELECT ` + categoryColumns + ` FROM categories ORDER BY parent_id ASC, name ASC`)
	if err != nil {
		return nil, mapErr("list categories", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, mapErr("list categories", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// UpdateCategory renames and/or reparents a category. Cycle prevention
// lives in the service layer; the schema accepts any existing parent.
func (db *DB) UpdateCategory(id int64, name string, parentID *int64) error {
	res, err := db.conn.Exec(
		`UPDATE categories
		 SET name = ?, parent_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		name, nullableID(parentID), id,
	)
	if err != nil {
		return mapErr("update category", err)
	}
	return requireAffected("update category", res)
}

// DeleteCategory removes a category. The engine cascades the delete
// through descendant categories and all of their notes.
func (db *DB) DeleteCategory(id int64) error {
	res, err := db.conn.Exec(`DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete category", err)
	}
	return requireAffected("delete category", res)
}

// SubtreeIDs returns rootID plus the ids of every descendant category.
func (db *DB) SubtreeIDs(rootID int64) ([]int64, error) {
	rows, err := db.conn.Query(`
		WITH RECURSIVE subtree(id) AS (
			SELECT ?
			UNION ALL
			SELECT c.id
			FROM categories c
			JOIN subtree s ON c.parent_id = s.id
		)
		SELECT id FROM subtree`, rootID)
	if err != nil {
		return nil, mapErr("subtree ids", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func nullableID(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

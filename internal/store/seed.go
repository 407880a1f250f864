package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// EnsureDefaultCategories seeds an empty categories table with a small
// starter tree: an "All notes" root with "Reading" and "Ideas" beneath
// it. A table with any rows at all is left untouched, so user edits to
// the defaults survive restarts.
func (db *DB) EnsureDefaultCategories() error {
	var id int64
	err := db.conn.QueryRow(`SELECT id FROM categories LIMIT 1`).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("store: ensure default categories: %w", err)
	}

	res, err := db.conn.Exec(`INSERT INTO categories (name, parent_id) VALUES (?, NULL)`, "All notes")
	if err != nil {
		return fmt.Errorf("store: seed root category: %w", err)
	}
	rootID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: seed root category: last insert id: %w", err)
	}
	for _, name := range []string{"Reading", "Ideas"} {
		if _, err := db.conn.Exec(`INSERT INTO categories (name, parent_id) VALUES (?, ?)`, name, rootID); err != nil {
			return fmt.Errorf("store: seed category %q: %w", name, err)
		}
	}
	return nil
}

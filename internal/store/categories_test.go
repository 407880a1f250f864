package store

import (
	"errors"
	"testing"

	"github.com/starford/eyefile/internal/apperr"
)

func TestCreateAndGetCategory(t *testing.T) {
	db := testDB(t)
	root, err := db.CreateCategory("Reading", nil)
	if err != nil {
		t.Fatalf("CreateCategory root: %v", err)
	}
	if root.ParentID != nil {
		t.Errorf("root parent = %v, want nil", *root.ParentID)
	}
	child, err := db.CreateCategory("Papers", &root.ID)
	if err != nil {
		t.Fatalf("CreateCategory child: %v", err)
	}
	if child.ParentID == nil || *child.ParentID != root.ID {
		t.Errorf("child parent = %v, want %d", child.ParentID, root.ID)
	}
}

func TestCreateCategoryDanglingParent(t *testing.T) {
	db := testDB(t)
	missing := int64(999)
	_, err := db.CreateCategory("Orphan", &missing)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListCategoriesOrdering(t *testing.T) {
	db := testDB(t)
	root, _ := db.CreateCategory("Root", nil)
	_, _ = db.CreateCategory("Zeta", &root.ID)
	_, _ = db.CreateCategory("Alpha", &root.ID)

	cats, err := db.ListCategories()
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(cats))
	}
	if cats[0].Name != "Root" {
		t.Errorf("cats[0] = %q, want the root first", cats[0].Name)
	}
	if cats[1].Name != "Alpha" || cats[2].Name != "Zeta" {
		t.Errorf("siblings not sorted by name: %q, %q", cats[1].Name, cats[2].Name)
	}
}

func TestUpdateCategory(t *testing.T) {
	db := testDB(t)
	a, _ := db.CreateCategory("A", nil)
	b, _ := db.CreateCategory("B", nil)
	if err := db.UpdateCategory(b.ID, "B renamed", &a.ID); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	got, _ := db.GetCategory(b.ID)
	if got.Name != "B renamed" {
		t.Errorf("name = %q", got.Name)
	}
	if got.ParentID == nil || *got.ParentID != a.ID {
		t.Errorf("parent = %v, want %d", got.ParentID, a.ID)
	}
}

func TestDeleteCategoryCascadesToDescendants(t *testing.T) {
	db := testDB(t)
	root, _ := db.CreateCategory("Root", nil)
	child, _ := db.CreateCategory("Child", &root.ID)
	grand, _ := db.CreateCategory("Grandchild", &child.ID)

	doc, _ := db.CreateDocument("Paper", "", nil, "p.pdf")
	note, err := db.CreateNote(doc.ID, grand.ID, "deep note", "", nil)
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	if err := db.DeleteCategory(root.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	for _, id := range []int64{root.ID, child.ID, grand.ID} {
		if _, err := db.GetCategory(id); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("category %d survived the cascade: %v", id, err)
		}
	}
	if _, err := db.GetNote(note.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("note survived the category cascade: %v", err)
	}
}

func TestSubtreeIDs(t *testing.T) {
	db := testDB(t)
	root, _ := db.CreateCategory("Root", nil)
	a, _ := db.CreateCategory("A", &root.ID)
	b, _ := db.CreateCategory("B", &root.ID)
	aa, _ := db.CreateCategory("AA", &a.ID)

	ids, err := db.SubtreeIDs(a.ID)
	if err != nil {
		t.Fatalf("SubtreeIDs: %v", err)
	}
	want := map[int64]bool{a.ID: true, aa.ID: true}
	if len(ids) != 2 {
		t.Fatalf("subtree of A = %v, want 2 ids", ids)
	}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("unexpected id %d in subtree (B is %d, root is %d)", id, b.ID, root.ID)
		}
	}

	all, err := db.SubtreeIDs(root.ID)
	if err != nil {
		t.Fatalf("SubtreeIDs root: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("subtree of root = %v, want 4 ids", all)
	}
}

// The schema itself does not reject self-referential or cyclic parent
// chains; raw SQL can create them. The service layer is responsible
// for refusing such updates.
func TestSchemaPermitsParentCycles(t *testing.T) {
	db := testDB(t)
	if _, err := db.conn.Exec(`INSERT INTO categories (id, name, parent_id) VALUES (42, 'Loop', 42)`); err != nil {
		t.Errorf("self-referential insert rejected by schema: %v", err)
	}

	a, _ := db.CreateCategory("A", nil)
	b, _ := db.CreateCategory("B", &a.ID)
	if _, err := db.conn.Exec(`UPDATE categories SET parent_id = ? WHERE id = ?`, b.ID, a.ID); err != nil {
		t.Errorf("two-node cycle rejected by schema: %v", err)
	}
}

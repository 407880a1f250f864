package library

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/starford/eyefile/internal/apperr"
	"github.com/starford/eyefile/internal/models"
	"github.com/starford/eyefile/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishChange(entity, kind string, id int64) {
	p.mu.Lock()
	p.events = append(p.events, fmt.Sprintf("%s.%s:%d", entity, kind, id))
	p.mu.Unlock()
}

func (p *recordingPublisher) has(e string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, got := range p.events {
		if got == e {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T) (*Service, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return NewService(testutil.TestStore(t), pub), pub
}

func fixture(t *testing.T, svc *Service) (*models.Document, *models.Category) {
	t.Helper()
	ctx := context.Background()
	doc, err := svc.CreateDocument(ctx, DocumentParams{Title: "Paper A", FilePath: "papers/a.pdf"})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	cat, err := svc.CreateCategory(ctx, "Reading", nil)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return doc, cat
}

func TestCreateNoteRejectsEmpty(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	doc, cat := fixture(t, svc)

	for _, texts := range [][2]string{{"", ""}, {"   ", "\n\t"}} {
		_, err := svc.CreateNote(ctx, NoteParams{
			DocumentID: doc.ID, CategoryID: cat.ID,
			Excerpt: texts[0], BodyMD: texts[1],
		})
		if !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("CreateNote(%q, %q) = %v, want ErrInvalid", texts[0], texts[1], err)
		}
	}
	if pub.has("note.created:1") {
		t.Error("rejected note should not publish an event")
	}

	if _, err := svc.CreateNote(ctx, NoteParams{DocumentID: doc.ID, CategoryID: cat.ID, Excerpt: "only excerpt"}); err != nil {
		t.Errorf("excerpt-only note rejected: %v", err)
	}
	if _, err := svc.CreateNote(ctx, NoteParams{DocumentID: doc.ID, CategoryID: cat.ID, BodyMD: "only body"}); err != nil {
		t.Errorf("body-only note rejected: %v", err)
	}
}

func TestUpdateNoteRejectsEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	doc, cat := fixture(t, svc)
	note, _ := svc.CreateNote(ctx, NoteParams{DocumentID: doc.ID, CategoryID: cat.ID, Excerpt: "x"})

	_, err := svc.UpdateNote(ctx, note.ID, UpdateNoteParams{CategoryID: cat.ID})
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
	got, _ := svc.GetNote(ctx, note.ID)
	if got.Excerpt != "x" {
		t.Errorf("rejected update modified the note: %+v", got)
	}
}

func TestUpdateCategoryRejectsSelfParent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cat, _ := svc.CreateCategory(ctx, "A", nil)

	_, err := svc.UpdateCategory(ctx, cat.ID, "A", &cat.ID)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestUpdateCategoryRejectsDescendantParent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root, _ := svc.CreateCategory(ctx, "Root", nil)
	child, _ := svc.CreateCategory(ctx, "Child", &root.ID)
	grand, _ := svc.CreateCategory(ctx, "Grandchild", &child.ID)

	_, err := svc.UpdateCategory(ctx, root.ID, "Root", &grand.ID)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	got, _ := svc.GetCategory(ctx, root.ID)
	if got.ParentID != nil {
		t.Errorf("rejected move changed the parent to %d", *got.ParentID)
	}
}

func TestUpdateCategoryAllowsValidMove(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a, _ := svc.CreateCategory(ctx, "A", nil)
	b, _ := svc.CreateCategory(ctx, "B", &a.ID)
	c, _ := svc.CreateCategory(ctx, "C", &a.ID)

	moved, err := svc.UpdateCategory(ctx, b.ID, "B", &c.ID)
	if err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if moved.ParentID == nil || *moved.ParentID != c.ID {
		t.Errorf("parent = %v, want %d", moved.ParentID, c.ID)
	}
}

func TestCategoryTree(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root, _ := svc.CreateCategory(ctx, "All notes", nil)
	_, _ = svc.CreateCategory(ctx, "Reading", &root.ID)
	_, _ = svc.CreateCategory(ctx, "Ideas", &root.ID)
	_, _ = svc.CreateCategory(ctx, "Archive", nil)

	tree, err := svc.CategoryTree(ctx)
	if err != nil {
		t.Fatalf("CategoryTree: %v", err)
	}
	if len(tree) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(tree))
	}
	if tree[0].Name != "All notes" || tree[1].Name != "Archive" {
		t.Errorf("roots = %q, %q", tree[0].Name, tree[1].Name)
	}
	children := tree[0].Children
	if len(children) != 2 || children[0].Name != "Ideas" || children[1].Name != "Reading" {
		t.Errorf("children of root = %v", children)
	}
	if tree[1].Children == nil {
		t.Error("leaf children should be an empty slice, not nil")
	}
}

func TestDocumentNotesPageOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	doc, cat := fixture(t, svc)

	refs := []*string{ptr("intro"), ptr("12-14"), ptr("3"), nil, ptr("12")}
	for i, ref := range refs {
		_, err := svc.CreateNote(ctx, NoteParams{
			DocumentID: doc.ID, CategoryID: cat.ID,
			Excerpt: fmt.Sprintf("note %d", i), PageRef: ref,
		})
		if err != nil {
			t.Fatalf("CreateNote %d: %v", i, err)
		}
	}

	notes, err := svc.DocumentNotes(ctx, doc.ID)
	if err != nil {
		t.Fatalf("DocumentNotes: %v", err)
	}
	// Parseable refs first in page order, then the rest newest-first.
	want := []string{"note 2", "note 4", "note 1", "note 3", "note 0"}
	if len(notes) != len(want) {
		t.Fatalf("got %d notes, want %d", len(notes), len(want))
	}
	for i, w := range want {
		if notes[i].Excerpt != w {
			t.Errorf("notes[%d] = %q, want %q", i, notes[i].Excerpt, w)
		}
	}
}

func TestDocumentNotesMissingDocument(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.DocumentNotes(context.Background(), 999)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCategoryNotesMissingCategory(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CategoryNotes(context.Background(), 999)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCategoryNotesIncludesSubtree(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	doc, _ := svc.CreateDocument(ctx, DocumentParams{Title: "Paper", FilePath: "p.pdf"})
	root, _ := svc.CreateCategory(ctx, "Root", nil)
	child, _ := svc.CreateCategory(ctx, "Child", &root.ID)
	_, _ = svc.CreateNote(ctx, NoteParams{DocumentID: doc.ID, CategoryID: child.ID, Excerpt: "deep"})

	notes, err := svc.CategoryNotes(ctx, root.ID)
	if err != nil {
		t.Fatalf("CategoryNotes: %v", err)
	}
	if len(notes) != 1 || notes[0].CategoryName != "Child" {
		t.Errorf("notes = %+v, want one note from Child", notes)
	}
}

func TestRecentNotesDefaultLimit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	doc, cat := fixture(t, svc)
	for i := 0; i < 12; i++ {
		if _, err := svc.CreateNote(ctx, NoteParams{DocumentID: doc.ID, CategoryID: cat.ID, Excerpt: "n"}); err != nil {
			t.Fatal(err)
		}
	}
	notes, err := svc.RecentNotes(ctx, 0)
	if err != nil {
		t.Fatalf("RecentNotes: %v", err)
	}
	if len(notes) != 10 {
		t.Errorf("len = %d, want default limit 10", len(notes))
	}
}

func TestMutationsPublishEvents(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	doc, _ := svc.CreateDocument(ctx, DocumentParams{Title: "Paper", FilePath: "p.pdf"})
	cat, _ := svc.CreateCategory(ctx, "Reading", nil)
	note, _ := svc.CreateNote(ctx, NoteParams{DocumentID: doc.ID, CategoryID: cat.ID, Excerpt: "x"})
	_, _ = svc.UpdateNote(ctx, note.ID, UpdateNoteParams{CategoryID: cat.ID, Excerpt: "y"})
	_ = svc.DeleteNote(ctx, note.ID)
	_, _ = svc.UpdateDocument(ctx, doc.ID, DocumentParams{Title: "Paper 2", FilePath: "p.pdf"})
	_ = svc.DeleteDocument(ctx, doc.ID)
	_ = svc.DeleteCategory(ctx, cat.ID)

	want := []string{
		fmt.Sprintf("document.created:%d", doc.ID),
		fmt.Sprintf("category.created:%d", cat.ID),
		fmt.Sprintf("note.created:%d", note.ID),
		fmt.Sprintf("note.updated:%d", note.ID),
		fmt.Sprintf("note.deleted:%d", note.ID),
		fmt.Sprintf("document.updated:%d", doc.ID),
		fmt.Sprintf("document.deleted:%d", doc.ID),
		fmt.Sprintf("category.deleted:%d", cat.ID),
	}
	for _, e := range want {
		if !pub.has(e) {
			t.Errorf("missing event %q (got %v)", e, pub.events)
		}
	}
}

func TestNilPublisher(t *testing.T) {
	svc := NewService(testutil.TestStore(t), nil)
	ctx := context.Background()
	if _, err := svc.CreateDocument(ctx, DocumentParams{Title: "Paper", FilePath: "p.pdf"}); err != nil {
		t.Fatalf("CreateDocument with nil publisher: %v", err)
	}
}

func ptr(s string) *string { return &s }

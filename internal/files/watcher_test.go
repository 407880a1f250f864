package files

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/eyefile/internal/store"
)

// watcherTestEnv sets up a library dir, root, and store for watcher tests.
func watcherTestEnv(t *testing.T) (string, *Root, *store.DB) {
	t.Helper()
	dir, root := testRoot(t)

	dbFile, err := os.CreateTemp("", "eyefile-watcher-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })
	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return dir, root, db
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) record(kind, path string) {
	l.mu.Lock()
	l.events = append(l.events, kind+":"+path)
	l.mu.Unlock()
}

func (l *eventLog) has(e string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, got := range l.events {
		if got == e {
			return true
		}
	}
	return false
}

func TestWatcher_ReportsMissingFile(t *testing.T) {
	dir, root, db := watcherTestEnv(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	_ = os.WriteFile(filepath.Join(dir, "doc.pdf"), []byte("pdf"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "stray.pdf"), []byte("pdf"), 0o644)
	if _, err := db.CreateDocument("Doc", "", nil, "doc.pdf"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var log eventLog
	go Watch(ctx, db, root, logger, log.record)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(dir, "doc.pdf"))
	_ = os.Remove(filepath.Join(dir, "stray.pdf"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return log.has("file.missing:doc.pdf")
	}, "expected file.missing:doc.pdf callback")

	// Only registered paths are tracked; the stray file must not
	// produce a callback no matter how events are batched.
	if log.has("file.missing:stray.pdf") {
		t.Error("got a callback for a file no document references")
	}
}

func TestWatcher_ReportsRestoredFile(t *testing.T) {
	dir, root, db := watcherTestEnv(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// Registered but not on disk: part of the baseline, no callback yet.
	if _, err := db.CreateDocument("Doc", "", nil, "doc.pdf"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var log eventLog
	go Watch(ctx, db, root, logger, log.record)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "doc.pdf"), []byte("pdf"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return log.has("file.restored:doc.pdf")
	}, "expected file.restored:doc.pdf callback")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	dir, root, db := watcherTestEnv(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	rel := filepath.Join("sub", "deep.pdf")
	if _, err := db.CreateDocument("Deep", "", nil, rel); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var log eventLog
	go Watch(ctx, db, root, logger, log.record)
	time.Sleep(100 * time.Millisecond)

	subDir := filepath.Join(dir, "sub")
	_ = os.MkdirAll(subDir, 0o755)
	_ = os.WriteFile(filepath.Join(subDir, "deep.pdf"), []byte("pdf"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return log.has("file.restored:" + rel)
	}, "expected file.restored callback for file in new subdir")
}

// Package files gives read-only access to the document files that
// library records point at, and watches them for changes.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Root is the directory document file paths resolve against.
type Root struct {
	dir string // absolute path to the library directory
}

// NewRoot opens a library root. The directory must already exist.
func NewRoot(dir string) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("files: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("files: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("files: root is not a directory: %s", abs)
	}
	return &Root{dir: abs}, nil
}

// Dir returns the absolute root directory.
func (r *Root) Dir() string { return r.dir }

// Resolve maps a document file path to an absolute path under the
// root. Relative paths are joined to the root; absolute paths must
// already point inside it. Anything that escapes the root is
// rejected (directory traversal).
func (r *Root) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("files: empty path")
	}
	cleaned := filepath.Clean(path)
	abs := cleaned
	if !filepath.IsAbs(cleaned) {
		var err error
		abs, err = filepath.Abs(filepath.Join(r.dir, cleaned))
		if err != nil {
			return "", fmt.Errorf("files: resolve path: %w", err)
		}
	}
	if !strings.HasPrefix(abs, r.dir+string(os.PathSeparator)) && abs != r.dir {
		return "", fmt.Errorf("files: path escapes library root: %s", path)
	}
	return abs, nil
}

// Exists reports whether the path resolves to a regular file on disk.
func (r *Root) Exists(path string) bool {
	abs, err := r.Resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular()
}

// Missing filters paths down to those that resolve under the root but
// have no file on disk, sorted for stable reporting. Paths that do
// not resolve at all are skipped; they can never correspond to a
// file under the root.
func (r *Root) Missing(paths map[string]struct{}) []string {
	var out []string
	for p := range paths {
		if _, err := r.Resolve(p); err != nil {
			continue
		}
		if !r.Exists(p) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Package artifacts persists generated code and downloaded data under a
// single restricted root directory. Every caller-supplied path is resolved
// against that root before any filesystem mutation; a path that escapes the
// root is rejected outright.
package artifacts

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AccessError reports a path that resolved outside the store root.
type AccessError struct {
	Path string
	Root string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("access denied: path %q resolves outside the allowed root %q", e.Path, e.Root)
}

// Store is a filesystem artifact store rooted at a fixed base directory.
type Store struct {
	root string
}

// NewStore creates a store rooted at root. The root is made absolute once at
// construction time.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("store root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute store root.
func (s *Store) Root() string {
	return s.root
}

// Resolve maps a caller-supplied path to an absolute path under the store
// root. Relative paths are joined to the root; absolute paths must already
// lie within it. Escapes fail with an AccessError and nothing is written.
func (s *Store) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is empty")
	}

	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(s.root, resolved)
	}
	resolved = filepath.Clean(resolved)

	if resolved != s.root && !strings.HasPrefix(resolved, s.root+string(filepath.Separator)) {
		return "", &AccessError{Path: path, Root: s.root}
	}
	return resolved, nil
}

// Save writes content to path, creating parent directories as needed and
// overwriting any existing file. It returns the resolved absolute path.
func (s *Store) Save(path, content string) (string, error) {
	resolved, err := s.Resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", resolved, err)
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", resolved, err)
	}
	return resolved, nil
}

// SaveCSV writes rows as a CSV file at path, subject to the same resolution
// and overwrite semantics as Save.
func (s *Store) SaveCSV(path string, header []string, rows [][]string) (string, error) {
	resolved, err := s.Resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", resolved, err)
	}

	f, err := os.Create(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", resolved, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(header) > 0 {
		if err := w.Write(header); err != nil {
			return "", fmt.Errorf("failed to write CSV header: %w", err)
		}
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}
	return resolved, nil
}

// Read returns the content of a previously saved artifact.
func (s *Store) Read(path string) (string, error) {
	resolved, err := s.Resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", resolved, err)
	}
	return string(data), nil
}

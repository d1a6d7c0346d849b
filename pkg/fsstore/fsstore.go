package fsstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrOutsideRoot is returned for paths that resolve outside the data directory
var ErrOutsideRoot = errors.New("path escapes the data directory")

// Store is the filesystem connector. Every path it accepts is interpreted
// relative to a single root directory.
type Store struct {
	root string
}

// Entry is one immediate child of a directory
type Entry struct {
	Name  string
	IsDir bool
	Size  int64
}

// File is a regular file found while walking the root
type File struct {
	// Path is the absolute, cleaned path
	Path string
	// Rel is the slash-separated path relative to the root
	Rel  string
	Size int64
}

// New creates a Store rooted at root, creating the directory if needed
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute root directory
func (s *Store) Root() string {
	return s.root
}

// Resolve maps a root-relative path to an absolute one. Leading slashes are
// treated as relative to the root.
func (s *Store) Resolve(rel string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if !s.Contains(full) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	return full, nil
}

// Contains reports whether the absolute path abs lies under the root
func (s *Store) Contains(abs string) bool {
	clean := filepath.Clean(abs)
	if clean == s.root {
		return true
	}
	return strings.HasPrefix(clean, s.root+string(filepath.Separator))
}

// WriteFile writes content to rel, creating parent directories and replacing
// any existing file. It returns the absolute path written.
func (s *Store) WriteFile(rel, content string) (string, error) {
	full, err := s.Resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return "", err
	}
	return full, nil
}

// ReadFile reads the whole file at the absolute path abs, which must lie
// under the root.
func (s *Store) ReadFile(abs string) (string, error) {
	if !s.Contains(abs) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, abs)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Open opens rel for streaming reads
func (s *Store) Open(rel string) (*os.File, error) {
	full, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// ListDir returns the immediate children of rel sorted by name. A missing
// directory yields an error satisfying errors.Is(err, fs.ErrNotExist).
func (s *Store) ListDir(rel string) ([]Entry, error) {
	full, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(full)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		e := Entry{Name: de.Name(), IsDir: de.IsDir()}
		if !e.IsDir {
			if info, err := de.Info(); err == nil {
				e.Size = info.Size()
			}
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Walk returns every regular file under the root, sorted by relative path
func (s *Store) Walk(ctx context.Context) ([]File, error) {
	var files []File
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		files = append(files, File{Path: path, Rel: filepath.ToSlash(rel), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Rel < files[j].Rel })
	return files, nil
}

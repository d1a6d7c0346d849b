package fsstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestNewCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "data")
	s, err := New(root)
	require.NoError(t, err)

	info, err := os.Stat(s.Root())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestResolve(t *testing.T) {
	s := newTestStore(t)

	full, err := s.Resolve("a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "a", "b.txt"), full)

	full, err = s.Resolve("/does/not/exist")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "does", "not", "exist"), full)

	full, err = s.Resolve(".")
	require.NoError(t, err)
	assert.Equal(t, s.Root(), full)

	_, err = s.Resolve("../escape.txt")
	assert.True(t, errors.Is(err, ErrOutsideRoot))
}

func TestWriteAndReadFile(t *testing.T) {
	s := newTestStore(t)

	full, err := s.WriteFile("a/b.txt", "hello")
	require.NoError(t, err)

	content, err := s.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "hello", content)

	_, err = s.WriteFile("a/b.txt", "bye")
	require.NoError(t, err)
	content, err = s.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "bye", content)
}

func TestReadFileOutsideRoot(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ReadFile("/etc/passwd")
	assert.True(t, errors.Is(err, ErrOutsideRoot))
}

func TestListDir(t *testing.T) {
	s := newTestStore(t)
	_, err := s.WriteFile("b.txt", "12345")
	require.NoError(t, err)
	_, err = s.WriteFile("a/nested.txt", "x")
	require.NoError(t, err)

	entries, err := s.ListDir(".")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Name: "a", IsDir: true}, entries[0])
	assert.Equal(t, Entry{Name: "b.txt", Size: 5}, entries[1])

	_, err = s.ListDir("/does/not/exist")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestWalk(t *testing.T) {
	s := newTestStore(t)
	for _, p := range []string{"z.csv", "a/b.txt", "a/c/d.json"} {
		_, err := s.WriteFile(p, "data")
		require.NoError(t, err)
	}

	files, err := s.Walk(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "a/b.txt", files[0].Rel)
	assert.Equal(t, "a/c/d.json", files[1].Rel)
	assert.Equal(t, "z.csv", files[2].Rel)
	assert.Equal(t, filepath.Join(s.Root(), "z.csv"), files[2].Path)
	assert.Equal(t, int64(4), files[2].Size)
}

func TestWalkHonoursCancellation(t *testing.T) {
	s := newTestStore(t)
	_, err := s.WriteFile("x.txt", "data")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Walk(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

package resource

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FreePeak/mcp-dev-server/internal/domain"
)

func TestParseURI(t *testing.T) {
	u, err := ParseURI("file:///app/data/a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, SchemeFile, u.Scheme())
	assert.Equal(t, "/app/data/a/b.txt", u.Path())
	assert.Empty(t, u.Table())
	assert.Equal(t, "file:///app/data/a/b.txt", u.String())

	u, err = ParseURI("db://table/users")
	require.NoError(t, err)
	assert.Equal(t, SchemeDBTable, u.Scheme())
	assert.Equal(t, "users", u.Table())
	assert.Empty(t, u.Path())
	assert.Equal(t, "db://table/users", u.String())
}

func TestParseURIErrors(t *testing.T) {
	tests := []struct {
		raw  string
		kind *domain.Error
	}{
		{"ftp://x", domain.ErrUnsupportedScheme},
		{"http://example.com/a", domain.ErrUnsupportedScheme},
		{"db://schema/users", domain.ErrUnsupportedScheme},
		{"", domain.ErrUnsupportedScheme},
		{"file://", domain.ErrNotFound},
		{"db://table/", domain.ErrQueryError},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := ParseURI(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestSchemeString(t *testing.T) {
	assert.Equal(t, "file", SchemeFile.String())
	assert.Equal(t, "db-table", SchemeDBTable.String())
	assert.Equal(t, "unknown", Scheme(0).String())
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "text/plain", MimeType("notes.txt"))
	assert.Equal(t, "text/csv", MimeType("DATA.CSV"))
	assert.Equal(t, "application/json", MimeType("a/b/c.json"))
	assert.Equal(t, "application/octet-stream", MimeType("image.png"))
	assert.Equal(t, "application/octet-stream", MimeType("Makefile"))
}

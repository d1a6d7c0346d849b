package domain

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{"kind only", &Error{Kind: KindNotFound}, "not_found"},
		{"message only", NewError(KindUnknownTool, "Unknown tool: %s", "nope"), "Unknown tool: nope"},
		{"cause only", &Error{Kind: KindQueryError, Err: errors.New("syntax error")}, "syntax error"},
		{"message and cause", Wrap(KindStreamError, errors.New("bare quote"), "failed to parse %s", "a.csv"), "failed to parse a.csv: bare quote"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewError(KindUnsupportedScheme, "Unsupported URI scheme: ftp://x"))

	assert.True(t, errors.Is(err, ErrUnsupportedScheme))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindUnsupportedScheme, KindOf(err))
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(KindNotFound, os.ErrNotExist, "File not found: %s", "/tmp/x")

	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

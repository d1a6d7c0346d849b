package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure raised while serving a resource read or a tool call
type Kind string

const (
	// KindNotFound means the addressed file, directory or key does not exist
	KindNotFound Kind = "not_found"
	// KindUnsupportedScheme means a resource URI used a scheme we do not serve
	KindUnsupportedScheme Kind = "unsupported_scheme"
	// KindQueryError means the relational store rejected a statement
	KindQueryError Kind = "query_error"
	// KindConnectorUnavailable means a backing store could not be reached
	KindConnectorUnavailable Kind = "connector_unavailable"
	// KindUnknownTool means a tool name is not registered
	KindUnknownTool Kind = "unknown_tool"
	// KindStreamError means reading or parsing a streamed input failed
	KindStreamError Kind = "stream_error"
	// KindInvalidArgument means a tool argument is missing or malformed
	KindInvalidArgument Kind = "invalid_argument"
)

// Error is the error type shared by the resolver and the tool handlers
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Sentinels usable with errors.Is
var (
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrUnsupportedScheme    = &Error{Kind: KindUnsupportedScheme}
	ErrQueryError           = &Error{Kind: KindQueryError}
	ErrConnectorUnavailable = &Error{Kind: KindConnectorUnavailable}
	ErrUnknownTool          = &Error{Kind: KindUnknownTool}
	ErrStreamError          = &Error{Kind: KindStreamError}
	ErrInvalidArgument      = &Error{Kind: KindInvalidArgument}
)

// Error returns a string representation of the error
func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Err == nil:
		return string(e.Kind)
	case e.Message == "":
		return e.Err.Error()
	case e.Err == nil:
		return e.Message
	default:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so callers can test against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewError creates an Error of the given kind with a formatted message
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind around cause
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf reports the kind of err, or "" when err is not a domain error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

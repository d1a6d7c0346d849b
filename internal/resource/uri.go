package resource

import (
	"path/filepath"
	"strings"

	"github.com/FreePeak/mcp-dev-server/internal/domain"
)

// Scheme identifies the kind of artifact a URI addresses
type Scheme int

const (
	// SchemeFile addresses a file under the data directory: file://<path>
	SchemeFile Scheme = iota + 1
	// SchemeDBTable addresses a database table or view: db://table/<name>
	SchemeDBTable
)

const (
	filePrefix    = "file://"
	dbTablePrefix = "db://table/"
)

// String returns the scheme label used in logs and metrics
func (s Scheme) String() string {
	switch s {
	case SchemeFile:
		return "file"
	case SchemeDBTable:
		return "db-table"
	default:
		return "unknown"
	}
}

// URI is a parsed resource address. Only ParseURI, FileURI and TableURI
// construct one, so Scheme is always SchemeFile or SchemeDBTable.
type URI struct {
	scheme Scheme
	// path for SchemeFile, table name for SchemeDBTable
	target string
}

// FileURI addresses the file at path
func FileURI(path string) URI {
	return URI{scheme: SchemeFile, target: filepath.ToSlash(path)}
}

// TableURI addresses the named table
func TableURI(table string) URI {
	return URI{scheme: SchemeDBTable, target: table}
}

// ParseURI parses raw into a URI. Unrecognized schemes fail with an
// UnsupportedScheme error.
func ParseURI(raw string) (URI, error) {
	switch {
	case strings.HasPrefix(raw, filePrefix):
		path := strings.TrimPrefix(raw, filePrefix)
		if path == "" {
			return URI{}, domain.NewError(domain.KindNotFound, "File not found: %s", raw)
		}
		return URI{scheme: SchemeFile, target: path}, nil
	case strings.HasPrefix(raw, dbTablePrefix):
		table := strings.TrimPrefix(raw, dbTablePrefix)
		if table == "" {
			return URI{}, domain.NewError(domain.KindQueryError, "Missing table name in URI: %s", raw)
		}
		return URI{scheme: SchemeDBTable, target: table}, nil
	default:
		return URI{}, domain.NewError(domain.KindUnsupportedScheme, "Unsupported URI scheme: %s", raw)
	}
}

// Scheme returns the URI scheme
func (u URI) Scheme() Scheme {
	return u.scheme
}

// Path returns the file path of a SchemeFile URI
func (u URI) Path() string {
	if u.scheme != SchemeFile {
		return ""
	}
	return filepath.FromSlash(u.target)
}

// Table returns the table name of a SchemeDBTable URI
func (u URI) Table() string {
	if u.scheme != SchemeDBTable {
		return ""
	}
	return u.target
}

// String renders the URI in its wire form
func (u URI) String() string {
	switch u.scheme {
	case SchemeFile:
		return filePrefix + u.target
	case SchemeDBTable:
		return dbTablePrefix + u.target
	default:
		return ""
	}
}

// mimeTypes is the closed extension table used for file resources
var mimeTypes = map[string]string{
	".txt":  "text/plain",
	".log":  "text/plain",
	".csv":  "text/csv",
	".json": "application/json",
	".md":   "text/markdown",
	".html": "text/html",
	".xml":  "application/xml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".sql":  "application/sql",
	".py":   "text/x-python",
	".go":   "text/x-go",
	".js":   "text/javascript",
}

const (
	defaultMimeType = "application/octet-stream"
	tableMimeType   = "application/x-sql"
	jsonMimeType    = "application/json"
)

// MimeType infers a MIME type from the file extension
func MimeType(path string) string {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return defaultMimeType
}

package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/FreePeak/mcp-dev-server/internal/domain"
	"github.com/FreePeak/mcp-dev-server/internal/logger"
	"github.com/FreePeak/mcp-dev-server/internal/metrics"
	"github.com/FreePeak/mcp-dev-server/pkg/db"
	"github.com/FreePeak/mcp-dev-server/pkg/fsstore"
)

// TableRowLimit caps the rows returned when reading a table resource
const TableRowLimit = 100

// Descriptor describes one addressable resource
type Descriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType"`
}

// Contents is the body of a read resource
type Contents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// FileSource is the part of the filesystem connector the resolver needs
type FileSource interface {
	Walk(ctx context.Context) ([]fsstore.File, error)
	Resolve(rel string) (string, error)
	ReadFile(abs string) (string, error)
}

// TableSource is the part of the database connector the resolver needs
type TableSource interface {
	ListTables(ctx context.Context) ([]db.Table, error)
	SelectTable(ctx context.Context, table string, limit int) ([]map[string]interface{}, error)
}

// Resolver enumerates and reads resources
type Resolver struct {
	files   FileSource
	tables  TableSource
	metrics *metrics.Metrics
}

// NewResolver creates a Resolver over the given connectors. m may be nil.
func NewResolver(files FileSource, tables TableSource, m *metrics.Metrics) *Resolver {
	return &Resolver{files: files, tables: tables, metrics: m}
}

// List returns every file under the data directory followed by every table.
// Each source is best-effort: a failing source is logged and contributes
// nothing, and List itself never fails.
func (r *Resolver) List(ctx context.Context) []Descriptor {
	r.metrics.ObserveResourceList()

	var fileDescs, tableDescs []Descriptor
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fileDescs = r.listFiles(gctx)
		return nil
	})
	g.Go(func() error {
		tableDescs = r.listTables(gctx)
		return nil
	})
	_ = g.Wait()

	return append(fileDescs, tableDescs...)
}

func (r *Resolver) listFiles(ctx context.Context) []Descriptor {
	if r.files == nil {
		return nil
	}
	files, err := r.files.Walk(ctx)
	if err != nil {
		logger.Warn("Could not list data directory files: %v", err)
		return nil
	}

	descs := make([]Descriptor, 0, len(files))
	for _, f := range files {
		descs = append(descs, Descriptor{
			URI:         FileURI(f.Path).String(),
			Name:        filepath.Base(f.Path),
			Description: fmt.Sprintf("File: %s", f.Rel),
			MimeType:    MimeType(f.Path),
		})
	}
	return descs
}

func (r *Resolver) listTables(ctx context.Context) []Descriptor {
	if r.tables == nil {
		return nil
	}
	tables, err := r.tables.ListTables(ctx)
	if err != nil {
		logger.Warn("Could not list database tables: %v", err)
		return nil
	}

	descs := make([]Descriptor, 0, len(tables))
	for _, t := range tables {
		descs = append(descs, Descriptor{
			URI:         TableURI(t.Name).String(),
			Name:        t.Name,
			Description: fmt.Sprintf("Database %s: %s", strings.ToLower(t.Type), t.Name),
			MimeType:    tableMimeType,
		})
	}
	return descs
}

// Read returns the contents addressed by rawURI. Failures are returned to the
// caller as domain errors: NotFound, QueryError, UnsupportedScheme or
// ConnectorUnavailable.
func (r *Resolver) Read(ctx context.Context, rawURI string) (*Contents, error) {
	uri, err := ParseURI(rawURI)
	if err != nil {
		r.metrics.ObserveResourceRead("unknown", err)
		return nil, err
	}

	var contents *Contents
	switch uri.Scheme() {
	case SchemeFile:
		contents, err = r.readFile(uri)
	case SchemeDBTable:
		contents, err = r.readTable(ctx, uri)
	default:
		err = domain.NewError(domain.KindUnsupportedScheme, "Unsupported URI scheme: %s", rawURI)
	}
	r.metrics.ObserveResourceRead(uri.Scheme().String(), err)
	return contents, err
}

func (r *Resolver) readFile(uri URI) (*Contents, error) {
	if r.files == nil {
		return nil, domain.NewError(domain.KindConnectorUnavailable, "filesystem connector is not configured")
	}

	path := uri.Path()
	if !filepath.IsAbs(path) {
		abs, err := r.files.Resolve(path)
		if err != nil {
			return nil, domain.Wrap(domain.KindNotFound, err, "File not found: %s", path)
		}
		path = abs
	}

	text, err := r.files.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fsstore.ErrOutsideRoot):
		return nil, domain.Wrap(domain.KindNotFound, err, "File not found: %s", uri.Path())
	default:
		return nil, domain.Wrap(domain.KindStreamError, err, "Failed to read file %s", uri.Path())
	}

	return &Contents{URI: uri.String(), MimeType: MimeType(path), Text: text}, nil
}

func (r *Resolver) readTable(ctx context.Context, uri URI) (*Contents, error) {
	if r.tables == nil {
		return nil, domain.NewError(domain.KindConnectorUnavailable, "database connector is not configured")
	}

	rows, err := r.tables.SelectTable(ctx, uri.Table(), TableRowLimit)
	if err != nil {
		return nil, domain.Wrap(domain.KindQueryError, err, "Failed to read table %s", uri.Table())
	}

	body, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, domain.Wrap(domain.KindQueryError, err, "Failed to encode rows of table %s", uri.Table())
	}

	return &Contents{URI: uri.String(), MimeType: jsonMimeType, Text: string(body)}, nil
}

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/FreePeak/mcp-dev-server/internal/domain"
	"github.com/FreePeak/mcp-dev-server/pkg/fsstore"
)

const defaultTTLSeconds = 3600

type handlers struct {
	conn Connectors
}

func (h *handlers) writeFile(_ context.Context, params map[string]interface{}) (Result, error) {
	path, err := requireString(params, "path")
	if err != nil {
		return Result{}, err
	}
	content, err := requireString(params, "content")
	if err != nil {
		return Result{}, err
	}
	if h.conn.Files == nil {
		return Result{}, domain.NewError(domain.KindConnectorUnavailable, "filesystem is not configured")
	}

	if _, err := h.conn.Files.WriteFile(path, content); err != nil {
		return Result{}, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return TextResult(fmt.Sprintf("Successfully wrote %d characters to %s", utf8.RuneCountInString(content), path)), nil
}

func (h *handlers) executeSQL(ctx context.Context, params map[string]interface{}) (Result, error) {
	query, err := requireString(params, "query")
	if err != nil {
		return Result{}, err
	}
	args, err := optionalArray(params, "parameters")
	if err != nil {
		return Result{}, err
	}
	if h.conn.DB == nil {
		return Result{}, domain.NewError(domain.KindConnectorUnavailable, "database is not configured")
	}

	res, err := h.conn.DB.Execute(ctx, query, args...)
	if err != nil {
		return Result{}, domain.Wrap(domain.KindQueryError, err, "query failed")
	}

	if !res.ReturnsRows {
		return TextResult(fmt.Sprintf("Query executed successfully. Rows affected: %d", res.RowsAffected)), nil
	}

	rows := res.Rows
	if rows == nil {
		rows = []map[string]interface{}{}
	}
	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return Result{}, domain.Wrap(domain.KindQueryError, err, "failed to encode rows")
	}
	return TextResult(string(out)), nil
}

func (h *handlers) cacheSet(ctx context.Context, params map[string]interface{}) (Result, error) {
	key, err := requireString(params, "key")
	if err != nil {
		return Result{}, err
	}
	raw, ok := params["value"]
	if !ok || raw == nil {
		return Result{}, domain.NewError(domain.KindInvalidArgument, "value parameter is required")
	}
	ttl, err := optionalInt(params, "ttl", defaultTTLSeconds)
	if err != nil {
		return Result{}, err
	}
	if ttl <= 0 {
		return Result{}, domain.NewError(domain.KindInvalidArgument, "ttl must be positive, got %d", ttl)
	}
	if h.conn.Cache == nil {
		return Result{}, domain.NewError(domain.KindConnectorUnavailable, "cache is not configured")
	}

	if err := h.conn.Cache.Set(ctx, key, describeValue(raw), time.Duration(ttl)*time.Second); err != nil {
		return Result{}, domain.Wrap(domain.KindConnectorUnavailable, err, "cache set failed")
	}
	return TextResult(fmt.Sprintf("Set cache key '%s' with TTL %d seconds", key, ttl)), nil
}

func (h *handlers) cacheGet(ctx context.Context, params map[string]interface{}) (Result, error) {
	key, err := requireString(params, "key")
	if err != nil {
		return Result{}, err
	}
	if h.conn.Cache == nil {
		return Result{}, domain.NewError(domain.KindConnectorUnavailable, "cache is not configured")
	}

	value, found, err := h.conn.Cache.Get(ctx, key)
	if err != nil {
		return Result{}, domain.Wrap(domain.KindConnectorUnavailable, err, "cache get failed")
	}
	if !found {
		return TextResult(fmt.Sprintf("Cache key '%s' not found", key)), nil
	}
	return TextResult(fmt.Sprintf("Cache value for '%s': %s", key, value)), nil
}

func (h *handlers) listDirectory(_ context.Context, params map[string]interface{}) (Result, error) {
	path, err := optionalString(params, "path", ".")
	if err != nil {
		return Result{}, err
	}
	if h.conn.Files == nil {
		return Result{}, domain.NewError(domain.KindConnectorUnavailable, "filesystem is not configured")
	}

	entries, err := h.conn.Files.ListDir(path)
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fsstore.ErrOutsideRoot):
		return TextResult(fmt.Sprintf("Directory not found: %s", path)), nil
	case err != nil:
		return Result{}, fmt.Errorf("failed to list %s: %w", path, err)
	}

	var b strings.Builder
	b.WriteString("Type      Size       Name\n")
	b.WriteString(strings.Repeat("-", 30))
	for _, e := range entries {
		kind, size := "file", fmt.Sprintf("%d", e.Size)
		if e.IsDir {
			kind, size = "directory", "-"
		}
		fmt.Fprintf(&b, "\n%-9s %10s %s", kind, size, e.Name)
	}
	return TextResult(b.String()), nil
}

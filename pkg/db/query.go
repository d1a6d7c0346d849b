package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/FreePeak/mcp-dev-server/internal/logger"
)

// Result is the outcome of Execute. Rows is set when the statement produced a
// result set; otherwise RowsAffected holds the driver-reported count.
type Result struct {
	Columns      []string
	Rows         []map[string]interface{}
	RowsAffected int64
	ReturnsRows  bool
}

// Table describes one entry of the schema catalog
type Table struct {
	Name string
	Type string
}

// rowKeywords are the leading keywords of statements that produce a result set
var rowKeywords = []string{"SELECT", "WITH", "SHOW", "EXPLAIN", "VALUES", "DESCRIBE", "DESC", "TABLE"}

var returningClause = regexp.MustCompile(`(?i)\bRETURNING\b`)

// ReturnsRows reports whether statement is expected to produce a result set.
// Leading comments and opening parentheses are skipped before the first
// keyword is matched.
func ReturnsRows(statement string) bool {
	s := strings.ToUpper(skipLeadingComments(statement))
	for strings.HasPrefix(s, "(") {
		s = skipLeadingComments(s[1:])
	}
	for _, kw := range rowKeywords {
		if !strings.HasPrefix(s, kw) {
			continue
		}
		next, _ := utf8.DecodeRuneInString(s[len(kw):])
		if next == utf8.RuneError || !isIdentRune(next) {
			return true
		}
	}
	return returningClause.MatchString(statement)
}

// skipLeadingComments drops whitespace and any -- , # or /* */ comments
// before the first token.
func skipLeadingComments(s string) string {
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		switch {
		case strings.HasPrefix(s, "--"), strings.HasPrefix(s, "#"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return ""
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s[2:], "*/")
			if i < 0 {
				return ""
			}
			s = s[i+4:]
		default:
			return s
		}
	}
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Execute runs a parameterized statement. Row-returning statements go through
// Query and are fully collected; everything else goes through Exec.
func (d *database) Execute(ctx context.Context, query string, args ...interface{}) (*Result, error) {
	if !ReturnsRows(query) {
		res, err := d.Exec(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read affected rows: %w", err)
		}
		return &Result{RowsAffected: affected}, nil
	}

	rows, err := d.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logger.Error("error closing rows: %v", closeErr)
		}
	}()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	results, err := RowsToMaps(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to process query results: %w", err)
	}

	return &Result{Columns: columns, Rows: results, ReturnsRows: true}, nil
}

// ListTables enumerates the base tables and views visible in the current
// schema. Names SelectTable cannot quote are skipped.
func (d *database) ListTables(ctx context.Context) ([]Table, error) {
	var query string
	switch d.driverName {
	case "postgres":
		query = `SELECT table_name, table_type
			FROM information_schema.tables
			WHERE table_schema = 'public' AND table_type IN ('BASE TABLE', 'VIEW')
			ORDER BY table_name`
	case "mysql":
		query = `SELECT table_name, table_type
			FROM information_schema.tables
			WHERE table_schema = DATABASE() AND table_type IN ('BASE TABLE', 'VIEW')
			ORDER BY table_name`
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, d.driverName)
	}

	rows, err := d.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logger.Error("error closing rows: %v", closeErr)
		}
	}()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Name, &t.Type); err != nil {
			return nil, err
		}
		if !identifierPattern.MatchString(t.Name) {
			logger.Warn("Skipping table with unsupported name %q", t.Name)
			continue
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// SelectTable reads up to limit rows from table. The name is validated and
// quoted; it is never interpolated raw.
func (d *database) SelectTable(ctx context.Context, table string, limit int) ([]map[string]interface{}, error) {
	quoted, err := QuoteIdentifier(d.driverName, table)
	if err != nil {
		return nil, err
	}

	res, err := d.Execute(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoted, limit))
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*)?$`)

// QuoteIdentifier validates a possibly schema-qualified table name and quotes
// each part for the given driver.
func QuoteIdentifier(driverName, name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", fmt.Errorf("invalid table name: %q", name)
	}

	quote := `"`
	if driverName == "mysql" {
		quote = "`"
	}

	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = quote + p + quote
	}
	return strings.Join(parts, "."), nil
}

// RowsToMaps converts every remaining row into a column→value map. Byte
// slices become strings and times are formatted as RFC3339 so the result
// marshals cleanly to JSON.
func RowsToMaps(rows *sql.Rows) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, len(columns))
	scanArgs := make([]interface{}, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	results := make([]map[string]interface{}, 0)
	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

func normalizeValue(val interface{}) interface{} {
	switch v := val.(type) {
	case nil:
		return nil
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return v
	}
}

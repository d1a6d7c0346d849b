package tools

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strconv"
	"strings"

	"github.com/FreePeak/mcp-dev-server/internal/domain"
	"github.com/FreePeak/mcp-dev-server/pkg/fsstore"
)

const (
	defaultCSVLimit = 1000
	sampleRows      = 5
	headRows        = 10

	analysisSummary  = "summary"
	analysisHead     = "head"
	analysisDescribe = "describe"
)

// ColumnStats summarises the numeric values of one column
type ColumnStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// CSVReport is the JSON body analyze_csv returns
type CSVReport struct {
	File         string                 `json:"file"`
	AnalysisType string                 `json:"analysisType"`
	Columns      []string               `json:"columns"`
	RowCount     int                    `json:"rowCount"`
	TotalRows    int                    `json:"totalRows"`
	Truncated    bool                   `json:"truncated"`
	Sample       []map[string]string    `json:"sample"`
	Head         []map[string]string    `json:"head,omitempty"`
	Statistics   map[string]ColumnStats `json:"statistics,omitempty"`
}

func (h *handlers) analyzeCSV(ctx context.Context, params map[string]interface{}) (Result, error) {
	path, err := requireString(params, "file_path")
	if err != nil {
		return Result{}, err
	}
	limit, err := optionalInt(params, "limit", defaultCSVLimit)
	if err != nil {
		return Result{}, err
	}
	if limit <= 0 {
		return Result{}, domain.NewError(domain.KindInvalidArgument, "limit must be positive, got %d", limit)
	}
	analysis, err := optionalString(params, "analysis_type", analysisSummary)
	if err != nil {
		return Result{}, err
	}
	switch analysis {
	case analysisSummary, analysisHead, analysisDescribe:
	default:
		return Result{}, domain.NewError(domain.KindInvalidArgument, "unsupported analysis_type: %s", analysis)
	}
	if h.conn.Files == nil {
		return Result{}, domain.NewError(domain.KindConnectorUnavailable, "filesystem is not configured")
	}

	f, err := h.conn.Files.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fsstore.ErrOutsideRoot):
		return TextResult(fmt.Sprintf("File not found: %s", path)), nil
	case err != nil:
		return Result{}, domain.Wrap(domain.KindStreamError, err, "failed to open %s", path)
	}
	defer f.Close()

	columns, rows, total, err := scanCSV(ctx, f, limit)
	if err != nil {
		return Result{}, domain.Wrap(domain.KindStreamError, err, "failed to parse %s", path)
	}

	report := CSVReport{
		File:         path,
		AnalysisType: analysis,
		Columns:      columns,
		RowCount:     len(rows),
		TotalRows:    total,
		Truncated:    total > len(rows),
		Sample:       recordsToMaps(columns, rows, sampleRows),
	}
	switch analysis {
	case analysisHead:
		report.Head = recordsToMaps(columns, rows, headRows)
	case analysisDescribe:
		report.Statistics = describeColumns(columns, rows)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode report: %w", err)
	}
	return TextResult(string(out)), nil
}

// scanCSV reads the header and then every record, keeping at most limit of
// them. The reader is always drained to EOF so total counts every data row.
// Records may be shorter or longer than the header.
func scanCSV(ctx context.Context, r io.Reader, limit int) ([]string, [][]string, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []string{}, nil, 0, nil
	}
	if err != nil {
		return nil, nil, 0, err
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}
	if len(columns) > 0 {
		columns[0] = strings.TrimPrefix(columns[0], "\ufeff")
	}

	var rows [][]string
	total := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, 0, err
		}
		total++
		if total%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, 0, err
			}
		}
		if len(rows) < limit {
			rows = append(rows, record)
		}
	}
	return columns, rows, total, nil
}

func recordsToMaps(columns []string, rows [][]string, n int) []map[string]string {
	if n > len(rows) {
		n = len(rows)
	}
	out := make([]map[string]string, 0, n)
	for _, record := range rows[:n] {
		m := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(record) {
				m[col] = record[i]
			}
		}
		out = append(out, m)
	}
	return out
}

// describeColumns computes stats for columns whose non-empty values all parse
// as numbers.
func describeColumns(columns []string, rows [][]string) map[string]ColumnStats {
	stats := make(map[string]ColumnStats)
	for i, col := range columns {
		var (
			s       = ColumnStats{Min: math.Inf(1), Max: math.Inf(-1)}
			sum     float64
			numeric = true
		)
		for _, record := range rows {
			if i >= len(record) {
				continue
			}
			v := strings.TrimSpace(record[i])
			if v == "" {
				continue
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				numeric = false
				break
			}
			s.Count++
			sum += f
			s.Min = math.Min(s.Min, f)
			s.Max = math.Max(s.Max, f)
		}
		if !numeric || s.Count == 0 {
			continue
		}
		s.Mean = sum / float64(s.Count)
		stats[col] = s
	}
	return stats
}

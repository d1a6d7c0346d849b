package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, f *fixture, name string, rows int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,name,score\n")
	for i := 1; i <= rows; i++ {
		fmt.Fprintf(&b, "%d,user%d,%d.5\n", i, i, i%10)
	}
	_, err := f.files.WriteFile(name, b.String())
	require.NoError(t, err)
}

func analyze(t *testing.T, f *fixture, params map[string]interface{}) CSVReport {
	t.Helper()
	res := f.dispatcher.Call(context.Background(), "analyze_csv", params)
	require.False(t, res.IsError, res.Text())

	var report CSVReport
	require.NoError(t, json.Unmarshal([]byte(res.Text()), &report))
	return report
}

func TestAnalyzeCSVBoundedBuffer(t *testing.T) {
	f := newFixture(t)
	writeCSV(t, f, "big.csv", 5000)

	report := analyze(t, f, map[string]interface{}{"file_path": "big.csv", "limit": float64(1000)})
	assert.Equal(t, "big.csv", report.File)
	assert.Equal(t, []string{"id", "name", "score"}, report.Columns)
	assert.LessOrEqual(t, report.RowCount, 1000)
	assert.Equal(t, 1000, report.RowCount)
	assert.Equal(t, 5000, report.TotalRows)
	assert.True(t, report.Truncated)
	require.Len(t, report.Sample, 5)
	assert.Equal(t, "1", report.Sample[0]["id"])
	assert.Equal(t, "user5", report.Sample[4]["name"])
	assert.Nil(t, report.Head)
	assert.Nil(t, report.Statistics)
}

func TestAnalyzeCSVDefaults(t *testing.T) {
	f := newFixture(t)
	writeCSV(t, f, "small.csv", 3)

	report := analyze(t, f, map[string]interface{}{"file_path": "small.csv"})
	assert.Equal(t, "summary", report.AnalysisType)
	assert.Equal(t, 3, report.RowCount)
	assert.Equal(t, 3, report.TotalRows)
	assert.False(t, report.Truncated)
	assert.Len(t, report.Sample, 3)
}

func TestAnalyzeCSVHead(t *testing.T) {
	f := newFixture(t)
	writeCSV(t, f, "data.csv", 50)

	report := analyze(t, f, map[string]interface{}{"file_path": "data.csv", "analysis_type": "head"})
	require.Len(t, report.Head, 10)
	assert.Equal(t, "user10", report.Head[9]["name"])
}

func TestAnalyzeCSVDescribe(t *testing.T) {
	f := newFixture(t)
	_, err := f.files.WriteFile("stats.csv", "name,age,height\nann,30,1.6\nbob,40,\ncy,50,1.8\n")
	require.NoError(t, err)

	report := analyze(t, f, map[string]interface{}{"file_path": "stats.csv", "analysis_type": "describe"})
	require.Contains(t, report.Statistics, "age")
	assert.NotContains(t, report.Statistics, "name")

	age := report.Statistics["age"]
	assert.Equal(t, 3, age.Count)
	assert.Equal(t, 30.0, age.Min)
	assert.Equal(t, 50.0, age.Max)
	assert.InDelta(t, 40.0, age.Mean, 1e-9)

	height := report.Statistics["height"]
	assert.Equal(t, 2, height.Count)
	assert.InDelta(t, 1.7, height.Mean, 1e-9)
}

func TestAnalyzeCSVEmptyFile(t *testing.T) {
	f := newFixture(t)
	_, err := f.files.WriteFile("empty.csv", "")
	require.NoError(t, err)

	report := analyze(t, f, map[string]interface{}{"file_path": "empty.csv"})
	assert.Empty(t, report.Columns)
	assert.Zero(t, report.RowCount)
	assert.Empty(t, report.Sample)
}

func TestAnalyzeCSVNotFound(t *testing.T) {
	f := newFixture(t)

	res := f.dispatcher.Call(context.Background(), "analyze_csv", map[string]interface{}{"file_path": "missing.csv"})
	assert.False(t, res.IsError)
	assert.Equal(t, "File not found: missing.csv", res.Text())
}

func TestAnalyzeCSVParseError(t *testing.T) {
	f := newFixture(t)
	_, err := f.files.WriteFile("bad.csv", "a,b\n1,2\n3,\"4\n")
	require.NoError(t, err)

	res := f.dispatcher.Call(context.Background(), "analyze_csv", map[string]interface{}{"file_path": "bad.csv"})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text(), "failed to parse bad.csv")
}

func TestAnalyzeCSVRaggedRows(t *testing.T) {
	f := newFixture(t)
	_, err := f.files.WriteFile("ragged.csv", "a,b,c\n1,2,3\n4,5\n6,7,8,9\n")
	require.NoError(t, err)

	report := analyze(t, f, map[string]interface{}{"file_path": "ragged.csv", "analysis_type": "describe"})
	assert.Equal(t, []string{"a", "b", "c"}, report.Columns)
	assert.Equal(t, 3, report.RowCount)
	assert.Equal(t, 3, report.TotalRows)
	assert.Equal(t, map[string]string{"a": "4", "b": "5"}, report.Sample[1])
	assert.Equal(t, map[string]string{"a": "6", "b": "7", "c": "8"}, report.Sample[2])
	assert.Equal(t, ColumnStats{Count: 2, Min: 3, Max: 8, Mean: 5.5}, report.Statistics["c"])
}

func TestScanCSVShortRecord(t *testing.T) {
	columns, rows, total, err := scanCSV(context.Background(), strings.NewReader("a,b,c\n1,2,3\n4,5\n"), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, columns)
	assert.Equal(t, [][]string{{"1", "2", "3"}, {"4", "5"}}, rows)
	assert.Equal(t, 2, total)
}

func TestAnalyzeCSVInvalidArguments(t *testing.T) {
	f := newFixture(t)
	writeCSV(t, f, "data.csv", 1)

	tests := []struct {
		name   string
		params map[string]interface{}
		want   string
	}{
		{"zero limit", map[string]interface{}{"file_path": "data.csv", "limit": float64(0)}, "limit must be positive"},
		{"negative limit", map[string]interface{}{"file_path": "data.csv", "limit": float64(-1)}, "limit must be positive"},
		{"unknown analysis", map[string]interface{}{"file_path": "data.csv", "analysis_type": "info"}, "unsupported analysis_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.dispatcher.Call(context.Background(), "analyze_csv", tt.params)
			assert.True(t, res.IsError)
			assert.Contains(t, res.Text(), tt.want)
		})
	}
}

func TestScanCSVDrainsReader(t *testing.T) {
	r := strings.NewReader("h\n1\n2\n3\n4\n")

	columns, rows, total, err := scanCSV(context.Background(), r, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"h"}, columns)
	assert.Len(t, rows, 2)
	assert.Equal(t, 4, total)
	assert.Zero(t, r.Len())
}

package tools

import "fmt"

// Kind enumerates the tools this server exposes
type Kind int

const (
	KindWriteFile Kind = iota
	KindExecuteSQL
	KindCacheSet
	KindCacheGet
	KindListDirectory
	KindAnalyzeCSV

	kindCount
)

var kindNames = [kindCount]string{
	KindWriteFile:     "write_file",
	KindExecuteSQL:    "execute_sql",
	KindCacheSet:      "cache_set",
	KindCacheGet:      "cache_get",
	KindListDirectory: "list_directory",
	KindAnalyzeCSV:    "analyze_csv",
}

// Kinds returns every tool kind in registration order
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// String returns the wire name of the tool
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a wire name onto a Kind
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Property describes one tool parameter
type Property struct {
	Type        string      `json:"type"`
	Description string      `json:"description,omitempty"`
	Default     interface{} `json:"default,omitempty"`
	Enum        []string    `json:"enum,omitempty"`
	Items       *Property   `json:"items,omitempty"`
}

// InputSchema is the JSON schema of a tool's arguments
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Descriptor is what tools/list advertises for a tool
type Descriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// Content is one block of a tool result
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the envelope every tool call produces
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// TextResult creates a successful single-block result
func TextResult(text string) Result {
	return Result{Content: []Content{{Type: "text", Text: text}}}
}

// ErrorResult creates an error result carrying err's message
func ErrorResult(err error) Result {
	return Result{
		Content: []Content{{Type: "text", Text: fmt.Sprintf("Error: %v", err)}},
		IsError: true,
	}
}

// Text joins the text of every content block
func (r Result) Text() string {
	if len(r.Content) == 1 {
		return r.Content[0].Text
	}
	var s string
	for i, c := range r.Content {
		if i > 0 {
			s += "\n"
		}
		s += c.Text
	}
	return s
}

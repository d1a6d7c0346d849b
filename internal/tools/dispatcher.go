package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FreePeak/mcp-dev-server/internal/domain"
	"github.com/FreePeak/mcp-dev-server/internal/logger"
	"github.com/FreePeak/mcp-dev-server/internal/metrics"
	"github.com/FreePeak/mcp-dev-server/pkg/cache"
	"github.com/FreePeak/mcp-dev-server/pkg/db"
	"github.com/FreePeak/mcp-dev-server/pkg/fsstore"
)

// HandlerFunc executes one tool call. A returned error becomes an error
// envelope at the dispatcher boundary.
type HandlerFunc func(ctx context.Context, params map[string]interface{}) (Result, error)

// SQLExecutor is the part of the database connector execute_sql needs
type SQLExecutor interface {
	Execute(ctx context.Context, query string, args ...interface{}) (*db.Result, error)
}

// Connectors bundles the process-wide backing stores handed to the handlers
type Connectors struct {
	DB    SQLExecutor
	Cache cache.Cache
	Files *fsstore.Store
}

type entry struct {
	descriptor Descriptor
	handler    HandlerFunc
}

// Dispatcher routes tool calls to their handlers. It holds no per-call state
// and is safe for concurrent use.
type Dispatcher struct {
	entries [kindCount]entry
	metrics *metrics.Metrics
}

// NewDispatcher builds the registry for every Kind. It panics if a kind has no
// descriptor or handler, which can only happen through a programming error.
func NewDispatcher(conn Connectors, m *metrics.Metrics) *Dispatcher {
	h := &handlers{conn: conn}
	d := &Dispatcher{metrics: m}

	for _, k := range Kinds() {
		var fn HandlerFunc
		switch k {
		case KindWriteFile:
			fn = h.writeFile
		case KindExecuteSQL:
			fn = h.executeSQL
		case KindCacheSet:
			fn = h.cacheSet
		case KindCacheGet:
			fn = h.cacheGet
		case KindListDirectory:
			fn = h.listDirectory
		case KindAnalyzeCSV:
			fn = h.analyzeCSV
		}
		desc, ok := descriptors[k]
		if fn == nil || !ok {
			panic(fmt.Sprintf("tool %s is not fully registered", k))
		}
		d.entries[k] = entry{descriptor: desc, handler: fn}
	}

	return d
}

// List returns every tool descriptor in registration order
func (d *Dispatcher) List() []Descriptor {
	out := make([]Descriptor, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e.descriptor)
	}
	return out
}

// Names returns the registered tool names
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.entries))
	for _, e := range d.entries {
		names = append(names, e.descriptor.Name)
	}
	return names
}

// Call runs the named tool. It never returns an error: unknown tools, handler
// errors and handler panics all come back as error envelopes. Side effects a
// handler performed before failing are not undone.
func (d *Dispatcher) Call(ctx context.Context, name string, params map[string]interface{}) Result {
	kind, ok := ParseKind(name)
	if !ok {
		logger.Error("Tool not found: %s", name)
		d.metrics.ObserveToolCall("unknown", true, 0)
		return ErrorResult(domain.NewError(domain.KindUnknownTool, "Unknown tool: %s", name))
	}
	if params == nil {
		params = map[string]interface{}{}
	}

	if argsJSON, err := json.Marshal(params); err == nil {
		logger.Debug("Tool %s arguments: %s", name, string(argsJSON))
	}

	start := time.Now()
	result := d.invoke(ctx, kind, params)
	elapsed := time.Since(start)

	d.metrics.ObserveToolCall(name, result.IsError, elapsed)
	if result.IsError {
		logger.Error("Tool %s failed after %s: %s", name, elapsed, result.Text())
	} else {
		logger.Info("Tool %s completed in %s", name, elapsed)
	}
	return result
}

// invoke runs the handler inside the failure boundary
func (d *Dispatcher) invoke(ctx context.Context, kind Kind, params map[string]interface{}) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorWithStack(fmt.Errorf("tool %s panicked: %v", kind, r))
			result = ErrorResult(fmt.Errorf("internal error in %s: %v", kind, r))
		}
	}()

	res, err := d.entries[kind].handler(ctx, params)
	if err != nil {
		return ErrorResult(err)
	}
	return res
}

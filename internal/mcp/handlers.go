package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/FreePeak/mcp-dev-server/internal/domain"
	"github.com/FreePeak/mcp-dev-server/internal/logger"
	"github.com/FreePeak/mcp-dev-server/internal/resource"
	"github.com/FreePeak/mcp-dev-server/internal/session"
	"github.com/FreePeak/mcp-dev-server/internal/tools"
	"github.com/FreePeak/mcp-dev-server/pkg/jsonrpc"
)

// ResourceProvider lists and reads resources
type ResourceProvider interface {
	List(ctx context.Context) []resource.Descriptor
	Read(ctx context.Context, uri string) (*resource.Contents, error)
}

// ToolProvider lists and calls tools
type ToolProvider interface {
	List() []tools.Descriptor
	Call(ctx context.Context, name string, params map[string]interface{}) tools.Result
}

// MethodHandler is a function that handles a method
type MethodHandler func(*jsonrpc.Request, *session.Session) (interface{}, *jsonrpc.Error)

// Handler handles MCP requests
type Handler struct {
	version        string
	resources      ResourceProvider
	tools          ToolProvider
	methodHandlers map[string]MethodHandler
}

// NewHandler creates a new Handler
func NewHandler(version string, resources ResourceProvider, toolProvider ToolProvider) *Handler {
	h := &Handler{
		version:   version,
		resources: resources,
		tools:     toolProvider,
	}

	h.methodHandlers = map[string]MethodHandler{
		MethodInitialize:    h.Initialize,
		MethodInitialized:   h.HandleInitialized,
		MethodPing:          h.Ping,
		MethodResourcesList: h.ListResources,
		MethodResourcesRead: h.ReadResource,
		MethodToolsList:     h.ListTools,
		MethodToolsCall:     h.CallTool,
	}

	return h
}

// GetMethodHandler returns the handler for method
func (h *Handler) GetMethodHandler(method string) (MethodHandler, bool) {
	handler, ok := h.methodHandlers[method]
	return handler, ok
}

// Handle routes req and builds the response. Notifications produce no
// response and nil is returned for them.
func (h *Handler) Handle(req *jsonrpc.Request, sess *session.Session) *jsonrpc.Response {
	handler, ok := h.GetMethodHandler(req.Method)
	if !ok {
		logger.Warn("Method not found: %s", req.Method)
		if req.IsNotification() {
			return nil
		}
		return jsonrpc.NewResponse(req, nil, jsonrpc.MethodNotFoundError(req.Method))
	}

	if ClassifyMethod(req.Method) != KindUnknown && sess != nil && !sess.IsInitialized() {
		logger.Warn("Session %s sent %s before initialize", sess.ID, req.Method)
	}

	result, rpcErr := handler(req, sess)
	logRequestResponse(req.Method, req, sess, result, rpcErr)

	if req.IsNotification() {
		return nil
	}
	return jsonrpc.NewResponse(req, result, rpcErr)
}

// Initialize handles the initialize request
func (h *Handler) Initialize(req *jsonrpc.Request, sess *session.Session) (interface{}, *jsonrpc.Error) {
	var params InitializeParams
	if rpcErr := req.BindParams(&params); rpcErr != nil {
		logger.Error("Failed to decode initialize params: %v", rpcErr.Data)
		return nil, rpcErr
	}

	if params.ProtocolVersion != "" && params.ProtocolVersion != ProtocolVersion {
		logger.Warn("Client requested protocol %s, answering with %s", params.ProtocolVersion, ProtocolVersion)
	}

	if sess != nil {
		sess.Initialize(session.ClientInfo{
			Name:            params.ClientInfo.Name,
			Version:         params.ClientInfo.Version,
			ProtocolVersion: params.ProtocolVersion,
		})
	}
	logger.Info("Client %s %s initialized", params.ClientInfo.Name, params.ClientInfo.Version)

	return InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      ServerInfo{Name: ServerName, Version: h.version},
		Capabilities: ServerCapabilities{
			Resources: map[string]interface{}{},
			Tools:     map[string]interface{}{},
			Logging:   map[string]interface{}{},
		},
	}, nil
}

// HandleInitialized handles the initialized notification
func (h *Handler) HandleInitialized(_ *jsonrpc.Request, sess *session.Session) (interface{}, *jsonrpc.Error) {
	if sess != nil {
		logger.Debug("Session %s finished initialization", sess.ID)
	}
	return nil, nil
}

// Ping answers keep-alive requests
func (h *Handler) Ping(*jsonrpc.Request, *session.Session) (interface{}, *jsonrpc.Error) {
	return struct{}{}, nil
}

// ListResources handles resources/list. It never fails: unavailable sources
// are skipped by the resolver.
func (h *Handler) ListResources(_ *jsonrpc.Request, _ *session.Session) (interface{}, *jsonrpc.Error) {
	descs := h.resources.List(context.Background())
	if descs == nil {
		descs = []resource.Descriptor{}
	}
	return ListResourcesResult{Resources: descs}, nil
}

// ReadResource handles resources/read
func (h *Handler) ReadResource(req *jsonrpc.Request, _ *session.Session) (interface{}, *jsonrpc.Error) {
	var params ReadResourceParams
	if rpcErr := req.BindParams(&params); rpcErr != nil {
		return nil, rpcErr
	}
	if params.URI == "" {
		return nil, jsonrpc.InvalidParamsError("uri is required")
	}

	contents, err := h.resources.Read(context.Background(), params.URI)
	if err != nil {
		logger.Warn("Failed to read resource %s: %v", params.URI, err)
		return nil, resourceError(params.URI, err)
	}
	return ReadResourceResult{Contents: []resource.Contents{*contents}}, nil
}

// ListTools handles tools/list
func (h *Handler) ListTools(*jsonrpc.Request, *session.Session) (interface{}, *jsonrpc.Error) {
	return ListToolsResult{Tools: h.tools.List()}, nil
}

// CallTool handles tools/call. Tool failures are reported inside the result
// envelope; only a request without a tool name is a protocol error.
func (h *Handler) CallTool(req *jsonrpc.Request, _ *session.Session) (interface{}, *jsonrpc.Error) {
	var params CallToolParams
	if rpcErr := req.BindParams(&params); rpcErr != nil {
		return nil, rpcErr
	}
	if params.Name == "" {
		return nil, jsonrpc.InvalidParamsError("tool name is required")
	}

	logger.Info("Executing tool: %s", params.Name)
	return h.tools.Call(context.Background(), params.Name, params.Arguments), nil
}

// resourceError maps a resolver error onto a JSON-RPC error
func resourceError(uri string, err error) *jsonrpc.Error {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return jsonrpc.ResourceNotFoundError(err.Error(), uri)
	case domain.KindUnsupportedScheme:
		return jsonrpc.NewError(jsonrpc.InvalidParamsCode, err.Error(), map[string]string{"uri": uri})
	default:
		return jsonrpc.NewError(jsonrpc.InternalErrorCode, err.Error(), map[string]string{"uri": uri})
	}
}

func logRequestResponse(method string, req *jsonrpc.Request, sess *session.Session, response interface{}, err *jsonrpc.Error) {
	reqJSON, _ := json.Marshal(req)

	var respJSON []byte
	if err != nil {
		respJSON, _ = json.Marshal(err)
	} else {
		respJSON, _ = json.Marshal(response)
	}

	requestID := "null"
	if req.ID != nil {
		idBytes, _ := json.Marshal(req.ID)
		requestID = string(idBytes)
	}

	sessionID := "unknown"
	if sess != nil {
		sessionID = sess.ID
	}

	logger.RequestResponseLog(
		fmt.Sprintf("%s [ID:%s]", method, requestID),
		sessionID,
		string(reqJSON),
		string(respJSON),
	)
}

package mcp

import (
	"github.com/FreePeak/mcp-dev-server/internal/resource"
	"github.com/FreePeak/mcp-dev-server/internal/tools"
)

const (
	// ProtocolVersion is the MCP protocol revision this server speaks
	ProtocolVersion = "2024-11-05"
	// ServerName is reported in initialize and health responses
	ServerName = "mcp-dev-server"
)

// RequestKind classifies the four dispatchable request types
type RequestKind int

const (
	KindUnknown RequestKind = iota
	KindResourcesList
	KindResourcesRead
	KindToolsList
	KindToolsCall
)

// Method names
const (
	MethodInitialize    = "initialize"
	MethodInitialized   = "notifications/initialized"
	MethodPing          = "ping"
	MethodResourcesList = "resources/list"
	MethodResourcesRead = "resources/read"
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
)

// ClassifyMethod maps a JSON-RPC method onto a RequestKind
func ClassifyMethod(method string) RequestKind {
	switch method {
	case MethodResourcesList:
		return KindResourcesList
	case MethodResourcesRead:
		return KindResourcesRead
	case MethodToolsList:
		return KindToolsList
	case MethodToolsCall:
		return KindToolsCall
	default:
		return KindUnknown
	}
}

// ServerInfo identifies this server
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ServerCapabilities advertises the MCP feature groups this server supports
type ServerCapabilities struct {
	Resources map[string]interface{} `json:"resources"`
	Tools     map[string]interface{} `json:"tools"`
	Logging   map[string]interface{} `json:"logging"`
}

// InitializeParams is the client half of the handshake
type InitializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ClientInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"clientInfo"`
}

// InitializeResult is the server half of the handshake
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
	Capabilities    ServerCapabilities `json:"capabilities"`
}

// ReadResourceParams are the params of resources/read
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// CallToolParams are the params of tools/call
type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ListResourcesResult is the result of resources/list
type ListResourcesResult struct {
	Resources []resource.Descriptor `json:"resources"`
}

// ReadResourceResult is the result of resources/read
type ReadResourceResult struct {
	Contents []resource.Contents `json:"contents"`
}

// ListToolsResult is the result of tools/list
type ListToolsResult struct {
	Tools []tools.Descriptor `json:"tools"`
}

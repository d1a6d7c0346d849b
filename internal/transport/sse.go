package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FreePeak/mcp-dev-server/internal/logger"
	"github.com/FreePeak/mcp-dev-server/internal/session"
	"github.com/FreePeak/mcp-dev-server/pkg/jsonrpc"
)

const (
	headerContentType  = "Content-Type"
	headerCacheControl = "Cache-Control"
	headerConnection   = "Connection"

	contentTypeEventStream = "text/event-stream"
	contentTypeJSON        = "application/json"

	// DefaultHeartbeatInterval is how often idle SSE streams get a heartbeat
	DefaultHeartbeatInterval = 30 * time.Second

	maxMessageBytes = 10 << 20
)

// SSETransport serves clients over Server-Sent Events. Clients open the event
// stream with GET /sse and post requests to /message?sessionId=<id>.
type SSETransport struct {
	sessionManager *session.Manager
	router         Router
	basePath       string
	heartbeat      time.Duration
}

// NewSSETransport creates a new SSE transport. basePath is the prefix the
// routes are mounted under and is used to build the message endpoint.
func NewSSETransport(sessionManager *session.Manager, router Router, basePath string) *SSETransport {
	return &SSETransport{
		sessionManager: sessionManager,
		router:         router,
		basePath:       basePath,
		heartbeat:      DefaultHeartbeatInterval,
	}
}

// SetHeartbeatInterval changes the heartbeat period; zero disables heartbeats
func (t *SSETransport) SetHeartbeatInterval(d time.Duration) {
	t.heartbeat = d
}

// Routes returns the SSE endpoints as a chi router
func (t *SSETransport) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/sse", t.HandleSSE)
	r.Post("/message", t.HandleMessage)
	return r
}

// HandleSSE opens the event stream for a new session
func (t *SSETransport) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sess := t.sessionManager.CreateSession()
	defer t.sessionManager.RemoveSession(sess.ID)
	logger.Info("Created new SSE session %s", sess.ID)

	w.Header().Set(headerContentType, contentTypeEventStream)
	w.Header().Set(headerCacheControl, "no-cache")
	w.Header().Set(headerConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)

	sess.Attach(r.Context(), func(event string, data []byte) error {
		logger.SSEEventLog(event, sess.ID, string(data))
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})

	endpoint := fmt.Sprintf("%s/message?sessionId=%s", t.basePath, sess.ID)
	if err := sess.Send("endpoint", []byte(endpoint)); err != nil {
		logger.Error("Failed to send endpoint event: %v", err)
		return
	}

	var tick <-chan time.Time
	if t.heartbeat > 0 {
		ticker := time.NewTicker(t.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-r.Context().Done():
			logger.Info("Client disconnected: %s", sess.ID)
			return
		case <-sess.Done():
			return
		case now := <-tick:
			data, _ := json.Marshal(map[string]string{"type": "heartbeat", "timestamp": now.UTC().Format(time.RFC3339)})
			if err := sess.Send("heartbeat", data); err != nil {
				logger.Error("Failed to send heartbeat to %s: %v", sess.ID, err)
				return
			}
		}
	}
}

// HandleMessage accepts one JSON-RPC request for an open session. The
// response is delivered on the event stream and echoed in the HTTP body.
func (t *SSETransport) HandleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "Missing sessionId parameter", http.StatusBadRequest)
		return
	}

	sess, err := t.sessionManager.GetSession(sessionID)
	if err != nil {
		logger.Error("Session not found: %s", sessionID)
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	logger.RequestLog(r.Method, r.URL.String(), sessionID, string(body))

	req, rpcErr := jsonrpc.Decode(body)
	if rpcErr != nil {
		writeJSON(w, http.StatusBadRequest, jsonrpc.NewResponse(req, nil, rpcErr))
		return
	}

	resp := t.router.Handle(req, sess)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		logger.Error("Failed to marshal response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if err := sess.Send("message", data); err != nil {
		logger.Warn("Session %s has no open stream: %v", sess.ID, err)
	}

	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to write response: %v", err)
	}
}

package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/FreePeak/mcp-dev-server/internal/logger"
	"github.com/FreePeak/mcp-dev-server/internal/session"
	"github.com/FreePeak/mcp-dev-server/pkg/jsonrpc"
)

// Router answers one decoded request. A nil response means nothing is sent
// back, which is the case for notifications.
type Router interface {
	Handle(req *jsonrpc.Request, sess *session.Session) *jsonrpc.Response
}

// StdioTransport serves a single client over newline-delimited JSON-RPC
type StdioTransport struct {
	sessionManager *session.Manager
	router         Router
	in             io.Reader
	out            io.Writer
	inflight       sync.WaitGroup
}

// NewStdioTransport creates a transport reading requests from in and writing
// responses to out
func NewStdioTransport(sessionManager *session.Manager, router Router, in io.Reader, out io.Writer) *StdioTransport {
	return &StdioTransport{
		sessionManager: sessionManager,
		router:         router,
		in:             in,
		out:            out,
	}
}

// Run serves requests until the input reaches EOF or ctx is cancelled. Every
// request runs on its own goroutine; Run waits for them before returning.
func (t *StdioTransport) Run(ctx context.Context) error {
	sess := t.sessionManager.CreateSession()
	sess.Attach(ctx, t.write)
	defer t.sessionManager.RemoveSession(sess.ID)
	logger.Info("Created new STDIO session %s", sess.ID)

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go t.readLines(ctx, lines, readErr)

	for {
		select {
		case <-ctx.Done():
			logger.Info("STDIO transport stopping")
			t.inflight.Wait()
			return nil
		case line, ok := <-lines:
			if !ok {
				t.inflight.Wait()
				err := <-readErr
				if err == nil {
					logger.Info("Received EOF on stdin, shutting down")
				}
				return err
			}
			t.dispatch(sess, line)
		}
	}
}

func (t *StdioTransport) readLines(ctx context.Context, lines chan<- []byte, readErr chan<- error) {
	defer close(lines)

	reader := bufio.NewReader(t.in)
	for {
		line, err := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			select {
			case lines <- trimmed:
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
		if err != nil {
			if err == io.EOF {
				err = nil
			}
			readErr <- err
			return
		}
	}
}

func (t *StdioTransport) dispatch(sess *session.Session, line []byte) {
	req, rpcErr := jsonrpc.Decode(line)
	if rpcErr != nil {
		logger.Error("Failed to parse JSON-RPC request: %v", rpcErr.Data)
		t.send(sess, jsonrpc.NewResponse(req, nil, rpcErr))
		return
	}

	logger.Debug("Received request: %s", string(line))
	logger.Info("Processing request: method=%s, id=%v", req.Method, req.ID)

	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()
		if resp := t.router.Handle(req, sess); resp != nil {
			t.send(sess, resp)
		}
	}()
}

func (t *StdioTransport) send(sess *session.Session, resp *jsonrpc.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Error("Failed to marshal response: %v", err)
		data, _ = json.Marshal(jsonrpc.NewResponse(&jsonrpc.Request{ID: resp.ID}, nil, jsonrpc.InternalError("failed to marshal response")))
	}
	if err := sess.Send("message", data); err != nil {
		logger.Error("Failed to send response: %v", err)
	}
}

// write is the session sender; the session serializes calls
func (t *StdioTransport) write(_ string, data []byte) error {
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, data...)
	buf = append(buf, '\n')
	_, err := t.out.Write(buf)
	return err
}

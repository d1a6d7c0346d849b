package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sender delivers one event to the client. Stream transports without event
// framing ignore the event name.
type Sender func(event string, data []byte) error

// ClientInfo identifies the client that initialized a session
type ClientInfo struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	ProtocolVersion string `json:"protocolVersion,omitempty"`
}

// Session is one client connection, stdio or SSE
type Session struct {
	ID        string
	CreatedAt time.Time

	lastAccessedAt time.Time
	connected      bool
	initialized    bool
	client         ClientInfo
	send           Sender
	ctx            context.Context
	cancel         context.CancelFunc
	mu             sync.Mutex
}

var (
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")
	// ErrNotConnected is returned when sending on a session without a sender
	ErrNotConnected = errors.New("session not connected")
)

// Manager tracks live sessions
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewManager creates a new session manager
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// CreateSession creates and registers a new session
func (m *Manager) CreateSession() *Session {
	ctx, cancel := context.WithCancel(context.Background())

	now := time.Now()
	s := &Session{
		ID:             uuid.NewString(),
		CreatedAt:      now,
		lastAccessedAt: now,
		ctx:            ctx,
		cancel:         cancel,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s
}

// GetSession gets a session by ID and refreshes its access time
func (m *Manager) GetSession(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	s.lastAccessedAt = time.Now()
	s.mu.Unlock()

	return s, nil
}

// RemoveSession detaches and forgets a session
func (m *Manager) RemoveSession(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if ok {
		s.Detach()
		s.cancel()
	}
}

// Count returns the number of registered sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupSessions removes disconnected sessions idle for longer than maxAge.
// It returns how many were removed.
func (m *Manager) CleanupSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	now := time.Now()
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastAccessedAt)
		connected := s.connected
		s.mu.Unlock()

		if !connected && idle > maxAge {
			s.cancel()
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// CloseAll detaches every session
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Detach()
		s.cancel()
	}
}

// Attach connects a sender to the session. When ctx ends the session is
// detached again.
func (s *Session) Attach(ctx context.Context, send Sender) {
	s.mu.Lock()
	s.send = send
	s.connected = true
	s.lastAccessedAt = time.Now()
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			s.Detach()
		case <-s.ctx.Done():
		}
	}()
}

// Detach drops the sender
func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = false
	s.send = nil
}

// Send delivers an event to the client. Calls are serialized so concurrent
// responses never interleave.
func (s *Session) Send(event string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected || s.send == nil {
		return ErrNotConnected
	}
	return s.send(event, data)
}

// Connected reports whether a sender is attached
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Done is closed when the session is removed
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Initialize records the client handshake
func (s *Session) Initialize(client ClientInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = client
	s.initialized = true
}

// IsInitialized returns whether the client has completed initialize
func (s *Session) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Client returns the handshake details
func (s *Session) Client() ClientInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

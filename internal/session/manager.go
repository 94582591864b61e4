package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/stormlight/internal/config"
	"github.com/dshills/stormlight/internal/scheme"
)

// Errors returned by manager operations.
var (
	ErrManagerClosed  = errors.New("session: manager closed")
	ErrUnknownSession = errors.New("session: unknown session")
)

// Manager tracks open sessions by ID. It is safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg    config.Config
	scheme *scheme.Scheme
	log    *zap.Logger
	closed atomic.Bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger passed down to every session.
func WithManagerLogger(log *zap.Logger) ManagerOption {
	return func(m *Manager) { m.log = log }
}

// WithManagerScheme sets the default scheme for sessions opened without
// one of their own.
func WithManagerScheme(s *scheme.Scheme) ManagerOption {
	return func(m *Manager) { m.scheme = s }
}

// NewManager creates a session manager.
func NewManager(cfg config.Config, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		scheme:   scheme.Default(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open opens a session for a document and tracks it.
func (m *Manager) Open(path string, text []byte, opts ...Option) (*Session, error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}

	all := make([]Option, 0, len(opts)+2)
	all = append(all, WithScheme(m.scheme), WithLogger(m.log))
	all = append(all, opts...)

	s, err := Open(path, text, m.cfg, all...)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns a session by ID, or nil if unknown.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// List returns every open session.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close shuts one session down and forgets it.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return s.Close(ctx)
}

// CloseAll shuts every session down. The manager accepts no new sessions
// afterwards. The first close error is returned; remaining sessions still
// close.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.closed.Store(true)

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var firstErr error
	for _, s := range sessions {
		if err := s.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

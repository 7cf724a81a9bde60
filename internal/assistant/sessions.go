package assistant

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"nyayai/internal/core/providers"
)

// Sessions maps session ids to their handlers. Safe for concurrent use.
type Sessions struct {
	factory providers.Factory
	opts    Options

	mu       sync.RWMutex
	handlers map[string]*Handler
}

// NewSessions creates an empty session table. Every handler it creates uses
// factory and opts.
func NewSessions(factory providers.Factory, opts Options) *Sessions {
	return &Sessions{
		factory:  factory,
		opts:     opts,
		handlers: make(map[string]*Handler),
	}
}

// Create configures a new handler for backend and registers it under a fresh
// id. Nothing is registered when configuration fails.
func (s *Sessions) Create(ctx context.Context, backend, credential string) (string, *Handler, error) {
	h := NewHandler(s.factory, s.opts)
	h.sessionID = uuid.NewString()

	if err := h.Configure(ctx, backend, credential); err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	s.handlers[h.sessionID] = h
	s.mu.Unlock()
	return h.sessionID, h, nil
}

// Get returns the handler registered under id.
func (s *Sessions) Get(id string) (*Handler, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handlers[id]
	return h, ok
}

// Delete drops the session. It reports whether id was registered.
func (s *Sessions) Delete(id string) bool {
	s.mu.Lock()
	h, ok := s.handlers[id]
	delete(s.handlers, id)
	s.mu.Unlock()

	if ok {
		h.Reset()
	}
	return ok
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}

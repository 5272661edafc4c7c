package bridge

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
	"github.com/custodia-labs/sercha-engine/internal/metrics"
)

// CallbackHandle is the registration of one host callback. It stays live
// until the Scope that created it is closed; a trampoline invoked through
// a released handle fails with ErrHandleReleased.
type CallbackHandle struct {
	id       string
	role     domain.CallbackRole
	scope    *Scope
	released atomic.Bool
}

// ID returns the handle id.
func (h *CallbackHandle) ID() string {
	return h.id
}

// Role returns the extension point the handle is registered for.
func (h *CallbackHandle) Role() domain.CallbackRole {
	return h.role
}

// Scope returns the scope that owns the handle.
func (h *CallbackHandle) Scope() *Scope {
	return h.scope
}

// Released reports whether the owning scope has been closed.
func (h *CallbackHandle) Released() bool {
	return h.released.Load()
}

// enter is called by a trampoline before dispatching to the host.
func (h *CallbackHandle) enter() error {
	if h.released.Load() {
		return fmt.Errorf("%s %s: %w", h.role, h.id, domain.ErrHandleReleased)
	}
	metrics.CallbackCalls.WithLabelValues(string(h.role)).Inc()
	return nil
}

// fail wraps a host error so it aborts the engine operation.
func (h *CallbackHandle) fail(err error) error {
	metrics.CallbackErrors.WithLabelValues(string(h.role)).Inc()
	log.Warn("%s callback %s failed: %v", h.role, h.id, err)
	return &domain.CallbackError{Role: h.role, Handle: h.id, Err: err}
}

// Scope owns the callback handles registered for one operation. Close it
// once no engine call that may invoke its callbacks is still running.
type Scope struct {
	id      string
	mu      sync.Mutex
	handles map[string]*CallbackHandle
	closed  bool
}

// NewScope returns an empty open scope.
func NewScope() *Scope {
	return &Scope{
		id:      uuid.NewString(),
		handles: make(map[string]*CallbackHandle),
	}
}

// ID returns the scope id.
func (s *Scope) ID() string {
	return s.id
}

// register creates a live handle for role.
func (s *Scope) register(role domain.CallbackRole) (*CallbackHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("scope %s: %w: scope closed", s.id, domain.ErrInvalidState)
	}
	h := &CallbackHandle{id: uuid.NewString(), role: role, scope: s}
	s.handles[h.id] = h
	log.Debug("scope %s: registered %s %s", s.id, role, h.id)
	return h, nil
}

// Handle looks up a live handle by id.
func (s *Scope) Handle(id string) (*CallbackHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[id]
	return h, ok
}

// Len returns the number of live handles.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// Closed reports whether the scope has been closed.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases every handle. Closing twice is a no-op.
func (s *Scope) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for id, h := range s.handles {
		h.released.Store(true)
		delete(s.handles, id)
	}
	log.Debug("scope %s: closed", s.id)
	return nil
}

package application

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/freepackages/internal/domain"
	"github.com/bnema/freepackages/internal/ports"
)

// SessionRuntime bundles the collaborators a registered session runs with.
type SessionRuntime struct {
	Transport   ports.Transport
	Eligibility ports.Eligibility
	Queue       ports.Queue
}

// SessionHandle is the live state of one registered session.
type SessionHandle struct {
	Session     domain.Session
	Transport   ports.Transport
	Eligibility ports.Eligibility
	Queue       ports.Queue
	Registry    *domain.ChangeRegistry

	refresh     *refreshTask
	refreshedAt atomic.Int64
}

func (h *SessionHandle) Name() domain.SessionKey {
	return h.Session.Name
}

func (h *SessionHandle) Connected() bool {
	return h.Transport != nil && h.Transport.IsConnected()
}

// RefreshedAt is the time of the last successful account data refresh.
func (h *SessionHandle) RefreshedAt() time.Time {
	nanos := h.refreshedAt.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos).UTC()
}

// active reports whether the session takes part in classification: it is
// aggregated, awaited by the readiness barrier and may receive queue items.
func (h *SessionHandle) active() bool {
	return h.Session.Enabled && h.Connected()
}

func (h *SessionHandle) close() {
	if h.refresh != nil {
		h.refresh.stop()
	}
}

type sessionMap struct {
	mu      sync.RWMutex
	handles map[domain.SessionKey]*SessionHandle
}

func newSessionMap() *sessionMap {
	return &sessionMap{handles: map[domain.SessionKey]*SessionHandle{}}
}

func (m *sessionMap) get(name domain.SessionKey) (*SessionHandle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handles[name]
	return h, ok
}

// put stores h and returns the handle it replaced, if any.
func (m *sessionMap) put(h *SessionHandle) *SessionHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	previous := m.handles[h.Name()]
	m.handles[h.Name()] = h
	return previous
}

func (m *sessionMap) remove(name domain.SessionKey) (*SessionHandle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[name]
	if ok {
		delete(m.handles, name)
	}
	return h, ok
}

// snapshot copies the handles, sorted by name. Callers may iterate it while
// sessions are added or removed.
func (m *sessionMap) snapshot() []*SessionHandle {
	m.mu.RLock()
	out := make([]*SessionHandle, 0, len(m.handles))
	for _, h := range m.handles {
		out = append(out, h)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *SessionHandle) int {
		return strings.Compare(string(a.Name()), string(b.Name()))
	})
	return out
}

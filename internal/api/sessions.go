package api

import (
	"context"
	"sync"

	"khanabuddy/internal/assistant"
	"khanabuddy/internal/catalog"
	"khanabuddy/internal/events"
	"khanabuddy/internal/monitoring"
)

// SessionManager tracks live assistant conversations by ID.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*assistant.Session
	store    catalog.Store
	bus      *events.Dispatcher
}

func NewSessionManager(store catalog.Store, bus *events.Dispatcher) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*assistant.Session),
		store:    store,
		bus:      bus,
	}
}

// Create starts a new conversation and registers it.
func (m *SessionManager) Create(ctx context.Context) *assistant.Session {
	session := assistant.NewSession(ctx, m.store, m.bus)

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	monitoring.ActiveSessions.Inc()
	return session
}

func (m *SessionManager) Get(id string) (*assistant.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	return session, ok
}

// Remove unregisters a conversation and releases its subscriptions.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		session.Close()
		monitoring.ActiveSessions.Dec()
	}
}

func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll tears down every live session, used at shutdown.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, session := range m.sessions {
		session.Close()
		delete(m.sessions, id)
		monitoring.ActiveSessions.Dec()
	}
}

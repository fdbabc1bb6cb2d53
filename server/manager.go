package server

import (
	"crypto/rand"
	"errors"
	"sync"

	"github.com/karlb/termstack/config"
	"github.com/karlb/termstack/scrollback"
)

var (
	ErrSessionNotFound = errors.New("server: session not found")
)

// Manager tracks active sessions and coordinates creation/lookup.
type Manager struct {
	mu              sync.RWMutex
	sessions        map[[16]byte]*Session
	index           scrollback.Index
	cfg             config.Config
	publishObserver PublishObserver
	statsObserver   SessionStatsObserver
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[[16]byte]*Session), cfg: config.Defaults()}
}

// NewManagerWithIndex is NewManager with a shared scrollback index every
// session created from this manager will feed and search against.
func NewManagerWithIndex(index scrollback.Index) *Manager {
	return &Manager{sessions: make(map[[16]byte]*Session), index: index, cfg: config.Defaults()}
}

// SetMetricsObservers wires the observers every session created from this
// point on will report dispatch metrics to. Sessions already created are
// unaffected; call this before accepting connections.
func (m *Manager) SetMetricsObservers(publish PublishObserver, stats SessionStatsObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishObserver = publish
	m.statsObserver = stats
}

// SetConfig wires the persisted settings every session created from this
// point on will be built with. Sessions already created are unaffected;
// call this before accepting connections.
func (m *Manager) SetConfig(cfg config.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

func (m *Manager) NewSession() (*Session, error) {
	var id [16]byte
	if _, err := rand.Read(id[:]); err != nil {
		return nil, err
	}
	m.mu.RLock()
	cfg := m.cfg
	m.mu.RUnlock()
	session := NewSession(id, m.index, cfg)

	m.mu.Lock()
	defer m.mu.Unlock()
	session.SetPublishObserver(m.publishObserver)
	session.SetStatsObserver(m.statsObserver)
	m.sessions[id] = session
	return session, nil
}

func (m *Manager) Lookup(id [16]byte) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (m *Manager) Close(id [16]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[id]; ok {
		session.Close()
		delete(m.sessions, id)
	}
}

func (m *Manager) ActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dealscout/dealscout/internal/domain/catalog"
)

// Config wires runtime settings for the session domain.
type Config struct {
	DebounceInterval time.Duration
	CallTimeout      time.Duration
	IdleTTL          time.Duration
	SweepInterval    time.Duration
}

// Manager owns every live session and the shared detail store. Sessions
// left untouched for the idle TTL are evicted by the background sweep.
type Manager struct {
	cfg     Config
	gateway catalog.Gateway
	store   catalog.DetailStore
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewManager wires up the session registry.
func NewManager(cfg Config, gateway catalog.Gateway, store catalog.DetailStore, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		gateway:  gateway,
		store:    store,
		logger:   logger.With("component", "session.manager"),
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create starts a fresh session and registers it.
func (m *Manager) Create() *Session {
	id := uuid.NewString()
	s := newSession(id, m.cfg, m.gateway, m.store, m.logger, m.now())
	m.mu.Lock()
	m.sessions[id] = s
	count := len(m.sessions)
	m.mu.Unlock()
	m.logger.Info("session created", "session_id", id, "live_sessions", count)
	return s
}

// Get looks a session up by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears a session down and removes it from the registry.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.Close()
	m.logger.Info("session closed", "session_id", id)
	return true
}

// Trending exposes the most frequent stabilized queries.
func (m *Manager) Trending(ctx context.Context, limit int) ([]catalog.TrendingQuery, error) {
	return m.store.TopQueries(ctx, limit)
}

// Run evicts idle sessions until ctx is done, then closes everything.
func (m *Manager) Run(ctx context.Context) {
	interval := m.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return
		case <-ticker.C:
			m.evictIdle(m.now())
		}
	}
}

func (m *Manager) evictIdle(now time.Time) {
	if m.cfg.IdleTTL <= 0 {
		return
	}
	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastActive()) > m.cfg.IdleTTL {
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	m.mu.Unlock()
	for _, s := range expired {
		s.Close()
		m.logger.Info("idle session evicted", "session_id", s.ID)
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		delete(m.sessions, id)
		all = append(all, s)
	}
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}

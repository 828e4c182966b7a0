package session

import (
	"sync"
	"time"
)

type ManagerOption func(*Manager)

// WithClock overrides time.Now for idle expiry.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

type entry struct {
	dashboard *Dashboard
	lastUsed  time.Time
}

// Manager keeps dashboards by id for the HTTP API. It holds at most
// MaxSessions dashboards and forgets any idle for longer than IdleTTL.
type Manager struct {
	cfg        Config
	now        func() time.Time
	dashboards map[string]*entry
	mu         sync.Mutex
}

// NewManager creates a Manager. Non-positive limits fall back to
// DefaultConfig.
func NewManager(cfg Config, opts ...ManagerOption) *Manager {
	c := DefaultConfig()
	c.Merge(&cfg)

	m := &Manager{cfg: c, now: time.Now, dashboards: make(map[string]*entry)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the dashboard for id, creating a new one when id is empty,
// unknown, or expired. The returned dashboard's ID may differ from id.
func (m *Manager) Get(id string) *Dashboard {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.expire(now)

	if e, ok := m.dashboards[id]; ok {
		e.lastUsed = now
		return e.dashboard
	}

	if len(m.dashboards) >= m.cfg.MaxSessions {
		m.evictOldest()
	}
	d := NewDashboard()
	m.dashboards[d.ID()] = &entry{dashboard: d, lastUsed: now}
	return d
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dashboards)
}

func (m *Manager) expire(now time.Time) {
	for id, e := range m.dashboards {
		if now.Sub(e.lastUsed) > m.cfg.IdleTTL {
			delete(m.dashboards, id)
		}
	}
}

func (m *Manager) evictOldest() {
	var oldest string
	var at time.Time
	for id, e := range m.dashboards {
		if oldest == "" || e.lastUsed.Before(at) {
			oldest, at = id, e.lastUsed
		}
	}
	delete(m.dashboards, oldest)
}

package collab

import (
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// Manager owns one hub per project, created on first join and disposed when
// empty. Projects' channels are fully independent of each other.
type Manager struct {
	store       ContentStore
	log         *zap.Logger
	saveDelay   time.Duration
	typingQuiet time.Duration

	mu   sync.Mutex
	hubs map[uuid.UUID]*Hub
}

// NewManager constructs a hub manager. Zero durations pick the defaults.
func NewManager(store ContentStore, log *zap.Logger, saveDelay, typingQuiet time.Duration) *Manager {
	return &Manager{
		store:       store,
		log:         log,
		saveDelay:   saveDelay,
		typingQuiet: typingQuiet,
		hubs:        make(map[uuid.UUID]*Hub),
	}
}

// Hub returns the project's hub, creating it if needed.
func (m *Manager) Hub(projectID uuid.UUID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hubs[projectID]
	if !ok {
		h = NewHub(projectID, m.store, m.log, m.saveDelay, m.typingQuiet)
		m.hubs[projectID] = h
	}
	return h
}

// Release disposes the hub if its last session has left.
func (m *Manager) Release(h *Hub) {
	m.mu.Lock()
	if cur, ok := m.hubs[h.ProjectID()]; !ok || cur != h || !h.Empty() {
		m.mu.Unlock()
		return
	}
	delete(m.hubs, h.ProjectID())
	m.mu.Unlock()
	h.Close()
}

// Close shuts every hub down, flushing pending persists (shutdown path).
func (m *Manager) Close() {
	m.mu.Lock()
	hubs := make([]*Hub, 0, len(m.hubs))
	for _, h := range m.hubs {
		hubs = append(hubs, h)
	}
	m.hubs = make(map[uuid.UUID]*Hub)
	m.mu.Unlock()
	for _, h := range hubs {
		h.Close()
	}
}

package dashboard

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultSweepInterval is the interval between idle session sweeps.
const DefaultSweepInterval = time.Minute

// ShellFactory builds the shell of a new session.
type ShellFactory func(sessionID string) *Shell

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithIdleTimeout closes shells that have not been seen for ttl. The check
// runs every interval, or every DefaultSweepInterval when interval is not
// positive. A ttl that is not positive keeps shells until they are removed.
func WithIdleTimeout(ttl, interval time.Duration) ManagerOption {
	return func(m *Manager) {
		m.idleTTL = ttl
		m.sweepInterval = interval
	}
}

// Manager keeps one Shell per browser session.
type Manager struct {
	factory       ShellFactory
	logger        *logrus.Logger
	idleTTL       time.Duration
	sweepInterval time.Duration

	mu     sync.Mutex
	shells map[string]*managedShell

	stopSweep chan struct{}
	stopOnce  sync.Once
}

// managedShell records when its session last made a request.
type managedShell struct {
	shell    *Shell
	lastSeen time.Time
}

// NewManager creates a Manager that builds shells with factory.
func NewManager(factory ShellFactory, logger *logrus.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		factory:   factory,
		logger:    logger,
		shells:    make(map[string]*managedShell),
		stopSweep: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.sweepInterval <= 0 {
		m.sweepInterval = DefaultSweepInterval
	}

	if m.idleTTL > 0 {
		go m.sweepIdle()
	}
	return m
}

// Get returns the shell of sessionID, creating it on first use. It marks the
// session as seen.
func (m *Manager) Get(sessionID string) *Shell {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if entry, ok := m.shells[sessionID]; ok {
		entry.lastSeen = now
		return entry.shell
	}

	shell := m.factory(sessionID)
	m.shells[sessionID] = &managedShell{shell: shell, lastSeen: now}
	m.logger.WithField("sessions", len(m.shells)).Debug("Session shell created")
	return shell
}

// Touch marks sessionID as seen without creating a shell.
func (m *Manager) Touch(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.shells[sessionID]; ok {
		entry.lastSeen = time.Now()
	}
}

// Lookup returns the shell of sessionID without creating one.
func (m *Manager) Lookup(sessionID string) (*Shell, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.shells[sessionID]
	if !ok {
		return nil, false
	}
	return entry.shell, true
}

// Remove closes and forgets the shell of sessionID.
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	entry, ok := m.shells[sessionID]
	delete(m.shells, sessionID)
	m.mu.Unlock()

	if ok {
		entry.shell.Close()
	}
}

// Len returns the number of live shells.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shells)
}

// CloseAll stops the idle sweep and closes every shell.
func (m *Manager) CloseAll() {
	m.stopOnce.Do(func() { close(m.stopSweep) })

	m.mu.Lock()
	shells := m.shells
	m.shells = make(map[string]*managedShell)
	m.mu.Unlock()

	for _, entry := range shells {
		entry.shell.Close()
	}
	m.logger.WithField("sessions", len(shells)).Info("Closed all dashboard sessions")
}

func (m *Manager) sweepIdle() {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			m.evictIdle(now)
		case <-m.stopSweep:
			return
		}
	}
}

// evictIdle closes the shells last seen more than idleTTL before now and
// returns how many it closed.
func (m *Manager) evictIdle(now time.Time) int {
	m.mu.Lock()
	var idle []*Shell
	for id, entry := range m.shells {
		if now.Sub(entry.lastSeen) > m.idleTTL {
			idle = append(idle, entry.shell)
			delete(m.shells, id)
		}
	}
	remaining := len(m.shells)
	m.mu.Unlock()

	// Closing waits on sockets, so it runs outside mu.
	for _, shell := range idle {
		shell.Close()
	}

	if len(idle) > 0 {
		m.logger.WithFields(logrus.Fields{
			"evicted":  len(idle),
			"sessions": remaining,
		}).Info("Closed idle dashboard sessions")
	}
	return len(idle)
}

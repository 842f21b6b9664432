package dashboard

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/realtime"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/session"
)

func idleTestFactory(store session.Store, log *logrus.Logger) ShellFactory {
	noAPI := func(string) realtime.ChannelAPI { return nil }
	return func(sessionID string) *Shell {
		return NewShell(nil, session.Scoped(store, sessionID, time.Hour), noAPI, nil, log)
	}
}

func TestManager_EvictIdle(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	store := session.NewMemoryStore(log)
	t.Cleanup(func() { _ = store.Close() })

	factory := idleTestFactory(store, log)

	ttl := time.Hour
	m := NewManager(factory, log, WithIdleTimeout(ttl, time.Hour))
	t.Cleanup(m.CloseAll)

	idle := m.Get("idle")
	idleEvents, _ := idle.Events()
	m.Get("busy")

	later := time.Now().Add(ttl / 2)
	m.shells["idle"].lastSeen = later.Add(-ttl - time.Second)
	m.shells["busy"].lastSeen = later

	assert.Equal(t, 1, m.evictIdle(later))
	assert.Equal(t, 1, m.Len())

	_, open := <-idleEvents
	assert.False(t, open, "an evicted shell is closed")

	_, ok := m.Lookup("idle")
	assert.False(t, ok)
	_, ok = m.Lookup("busy")
	assert.True(t, ok)
}

func TestManager_TouchKeepsSessionAlive(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	store := session.NewMemoryStore(log)
	t.Cleanup(func() { _ = store.Close() })

	factory := idleTestFactory(store, log)

	ttl := time.Minute
	m := NewManager(factory, log, WithIdleTimeout(ttl, time.Hour))
	t.Cleanup(m.CloseAll)

	m.Get("a")
	m.shells["a"].lastSeen = time.Now().Add(-2 * ttl)

	m.Touch("a")
	m.Touch("unknown")

	assert.Equal(t, 0, m.evictIdle(time.Now()))
	assert.Equal(t, 1, m.Len(), "Touch must not create shells")
}

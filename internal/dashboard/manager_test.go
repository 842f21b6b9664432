package dashboard_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/dashboard"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/session"
)

func newManager(t *testing.T) (*dashboard.Manager, *int) {
	t.Helper()

	store := session.NewMemoryStore(quietLogger())
	t.Cleanup(func() { _ = store.Close() })

	built := 0
	factory := func(sessionID string) *dashboard.Shell {
		built++
		storage := session.Scoped(store, sessionID, time.Hour)
		apis, _ := apiFactory(&fakeAPI{})
		return dashboard.NewShell(&fakeExchanger{}, storage, apis, []string{"q1"}, quietLogger())
	}

	m := dashboard.NewManager(factory, quietLogger())
	t.Cleanup(m.CloseAll)
	return m, &built
}

func TestManager_GetCreatesOncePerSession(t *testing.T) {
	m, built := newManager(t)

	a := m.Get("a")
	assert.Same(t, a, m.Get("a"))
	b := m.Get("b")
	assert.NotSame(t, a, b)

	assert.Equal(t, 2, *built)
	assert.Equal(t, 2, m.Len())

	got, ok := m.Lookup("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = m.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, m.Len(), "Lookup must not create")
}

func TestManager_RemoveClosesShell(t *testing.T) {
	m, _ := newManager(t)

	shell := m.Get("a")
	events, _ := shell.Events()

	m.Remove("a")
	m.Remove("a")

	_, open := <-events
	assert.False(t, open)
	assert.Equal(t, 0, m.Len())

	assert.NotSame(t, shell, m.Get("a"), "a removed session starts fresh")
}

func TestManager_CloseAll(t *testing.T) {
	m, _ := newManager(t)

	var streams []<-chan dashboard.Event
	for _, id := range []string{"a", "b", "c"} {
		events, _ := m.Get(id).Events()
		streams = append(streams, events)
	}

	m.CloseAll()

	assert.Equal(t, 0, m.Len())
	for _, events := range streams {
		_, open := <-events
		assert.False(t, open)
	}
}

func TestManager_IdleShellReleasesSubscription(t *testing.T) {
	ws := newWSServer(t)

	store := session.NewMemoryStore(quietLogger())
	t.Cleanup(func() { _ = store.Close() })

	factory := func(sessionID string) *dashboard.Shell {
		apis, _ := apiFactory(&fakeAPI{connectURI: ws.uri("q1")})
		return dashboard.NewShell(&fakeExchanger{}, session.Scoped(store, sessionID, time.Hour), apis, []string{"q1"}, quietLogger())
	}

	m := dashboard.NewManager(factory, quietLogger(), dashboard.WithIdleTimeout(300*time.Millisecond, 20*time.Millisecond))
	t.Cleanup(m.CloseAll)

	shell := m.Get("abandoned")
	shell.SetToken("tok")
	require.Eventually(t, func() bool {
		return shell.Status() == dashboard.StatusRealtimeConnected
	}, waitFor, tick)

	require.Eventually(t, func() bool { return m.Len() == 0 }, waitFor, tick)
	require.Eventually(t, func() bool { return ws.closes.Load() == 1 }, waitFor, tick,
		"the platform socket of an idle session must be closed")
}

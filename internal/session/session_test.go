package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/session"
)

func newMemoryStore(t *testing.T) *session.MemoryStore {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	store := session.NewMemoryStore(logger)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, store.Set(ctx, "k", "v1", time.Minute))
	require.NoError(t, store.Set(ctx, "k", "v2", time.Minute))

	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", value)

	require.NoError(t, store.Delete(ctx, "k", "never-set"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	require.NoError(t, store.Set(ctx, "short", "v", time.Millisecond))
	require.NoError(t, store.Set(ctx, "forever", "v", 0))

	time.Sleep(5 * time.Millisecond)

	_, err := store.Get(ctx, "short")
	assert.ErrorIs(t, err, session.ErrNotFound)

	value, err := store.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}

func TestMemoryStore_PingAndClose(t *testing.T) {
	store := newMemoryStore(t)

	assert.NoError(t, store.Ping(context.Background()))
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestScoped_IsolatesSessions(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	alice := session.Scoped(store, "sid-a", time.Hour)
	bob := session.Scoped(store, "sid-b", time.Hour)

	require.NoError(t, alice.Set(ctx, "pkce_verifier", "va"))
	require.NoError(t, bob.Set(ctx, "pkce_verifier", "vb"))

	got, err := alice.Get(ctx, "pkce_verifier")
	require.NoError(t, err)
	assert.Equal(t, "va", got)

	got, err = bob.Get(ctx, "pkce_verifier")
	require.NoError(t, err)
	assert.Equal(t, "vb", got)

	raw, err := store.Get(ctx, session.KeyPrefix+"sid-a:pkce_verifier")
	require.NoError(t, err)
	assert.Equal(t, "va", raw)

	require.NoError(t, alice.Clear(ctx, "pkce_verifier", "oauth_state"))
	_, err = alice.Get(ctx, "pkce_verifier")
	assert.ErrorIs(t, err, session.ErrNotFound)

	_, err = bob.Get(ctx, "pkce_verifier")
	assert.NoError(t, err)
	assert.Equal(t, "sid-b", bob.SessionID())
}

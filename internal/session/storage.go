package session

import (
	"context"
	"time"
)

// Storage is one browser session's key/value store for short-lived
// OAuth artifacts such as the PKCE verifier and the state value.
type Storage interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error
	// Clear removes the given keys from this session.
	Clear(ctx context.Context, keys ...string) error
}

// ScopedStorage confines a Store to a single session id.
type ScopedStorage struct {
	store     Store
	sessionID string
	ttl       time.Duration
}

// Scoped returns the Storage of sessionID inside store. Every value is
// written with ttl.
func Scoped(store Store, sessionID string, ttl time.Duration) *ScopedStorage {
	return &ScopedStorage{store: store, sessionID: sessionID, ttl: ttl}
}

// SessionID returns the id this storage is scoped to.
func (s *ScopedStorage) SessionID() string {
	return s.sessionID
}

func (s *ScopedStorage) Get(ctx context.Context, key string) (string, error) {
	return s.store.Get(ctx, sessionKey(s.sessionID, key))
}

func (s *ScopedStorage) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, sessionKey(s.sessionID, key), value, s.ttl)
}

func (s *ScopedStorage) Clear(ctx context.Context, keys ...string) error {
	full := make([]string, 0, len(keys))
	for _, key := range keys {
		full = append(full, sessionKey(s.sessionID, key))
	}
	return s.store.Delete(ctx, full...)
}

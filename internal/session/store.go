// Package session provides session-scoped key/value storage for OAuth artifacts.
// A Store is the shared backend (Redis or in-memory); a Storage is one browser
// session's view of it, obtained with Scoped.
//
// Keys are organized with a prefix to avoid collisions:
//   - gqa:session:{sessionID}:{key} - one artifact of one browser session
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist or has expired.
var ErrNotFound = errors.New("session key not found")

// KeyPrefix is prepended to every stored key.
const KeyPrefix = "gqa:session:"

// Store defines the backend operations used by session storage.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// sessionKey builds the backend key for one artifact of one session.
func sessionKey(sessionID, key string) string {
	return KeyPrefix + sessionID + ":" + key
}

// Package integration contains integration tests for the queue activity dashboard.
//
// These tests use testcontainers to spin up real dependencies (Redis) and test
// the session store and rate limiter against an environment that closely
// matches production.
package integration

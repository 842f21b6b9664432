// Package models defines the data structures shared across the dashboard:
// OAuth2 token responses, platform notification payloads, and the error
// taxonomy for authentication and realtime failures.
package models

// TokenTypeBearer is the token type returned by the login host.
const TokenTypeBearer = "Bearer"

// TokenResponse is the successful result of an authorization code exchange.
type TokenResponse struct {
	// AccessToken is the opaque bearer token used against the platform API.
	AccessToken string `json:"access_token"`
	// ExpiresIn is the token lifetime in seconds as reported by the login host.
	ExpiresIn int64 `json:"expires_in"`
	// TokenType is the token type, typically "Bearer".
	TokenType string `json:"token_type"`
}

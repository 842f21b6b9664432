package client

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/models"
)

// OAuth2Client extends BaseClient with bearer token authentication.
// Tokens come from an oauth2.TokenSource and are injected on every request.
type OAuth2Client struct {
	*BaseClient // Embedded - inherits all BaseClient methods

	tokenSource oauth2.TokenSource
}

// NewOAuth2Client creates a new OAuth2-enabled HTTP client.
//
// Parameters:
//   - baseClient: Base HTTP client for core operations
//   - tokenSource: Source of the access token sent as "Authorization: Bearer ..."
func NewOAuth2Client(
	baseClient *BaseClient,
	tokenSource oauth2.TokenSource,
) *OAuth2Client {
	return &OAuth2Client{
		BaseClient:  baseClient,
		tokenSource: tokenSource,
	}
}

// StaticTokenSource returns a token source that always yields accessToken.
// The dashboard has no refresh token, so the token is used until it expires.
func StaticTokenSource(accessToken string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   models.TokenTypeBearer,
	})
}

// DoWithAuth executes an HTTP request with OAuth2 bearer token authentication.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - method: HTTP method (GET, POST, PUT, DELETE, etc.)
//   - path: Path relative to baseURL
//   - body: Request body to be JSON-encoded (nil for no body)
//
// Returns the HTTP response. Caller is responsible for closing response body.
func (c *OAuth2Client) DoWithAuth(
	ctx context.Context,
	method string,
	path string,
	body interface{},
) (*http.Response, error) {
	token, err := c.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("failed to get access token: empty token")
	}

	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	token.SetAuthHeader(req)

	resp, err := c.Send(req)
	if err != nil {
		return nil, fmt.Errorf("authenticated HTTP request failed: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Debug("Received 401 Unauthorized for bearer token")
	}

	return resp, nil
}

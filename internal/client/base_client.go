// Package client provides the HTTP plumbing used to call the Genesys Cloud
// platform API: a JSON base client and a bearer-token client built on
// golang.org/x/oauth2 token sources.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/constants"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/models"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 4096

// BaseClient provides core HTTP client functionality for calling the platform API.
// It handles request/response marshaling, error parsing, and logging.
type BaseClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *logrus.Logger
}

// NewBaseClient creates a new BaseClient for HTTP operations.
//
// Parameters:
//   - baseURL: Base URL for the service (e.g., "https://api.mypurecloud.com")
//   - timeout: HTTP request timeout duration
//   - logger: Structured logger for HTTP operations
func NewBaseClient(
	baseURL string,
	timeout time.Duration,
	logger *logrus.Logger,
) *BaseClient {
	return NewBaseClientWithHTTPClient(baseURL, &http.Client{Timeout: timeout}, logger)
}

// NewBaseClientWithHTTPClient creates a BaseClient around an existing http.Client.
func NewBaseClientWithHTTPClient(
	baseURL string,
	httpClient *http.Client,
	logger *logrus.Logger,
) *BaseClient {
	return &BaseClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// Do executes an HTTP request with JSON marshaling and error handling.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - method: HTTP method (GET, POST, PUT, DELETE, etc.)
//   - path: Path relative to baseURL (e.g., "/api/v2/notifications/channels")
//   - body: Request body to be JSON-encoded (nil for no body)
//
// Returns the HTTP response. Caller is responsible for closing response body.
func (c *BaseClient) Do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
) (*http.Response, error) {
	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	return c.Send(req)
}

// NewRequest builds a JSON request for path relative to the base URL.
func (c *BaseClient) NewRequest(
	ctx context.Context,
	method string,
	path string,
	body interface{},
) (*http.Request, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	if body != nil {
		req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	}
	req.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)

	return req, nil
}

// Send executes a prepared request and logs the outcome.
func (c *BaseClient) Send(req *http.Request) (*http.Response, error) {
	fields := logrus.Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	}

	c.logger.WithFields(fields).Debug("Sending HTTP request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithFields(fields).WithError(err).Error("HTTP request failed")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	c.logger.WithFields(fields).WithField("status", resp.StatusCode).Debug("Received HTTP response")

	return resp, nil
}

// BaseURL returns the configured base URL for this client.
func (c *BaseClient) BaseURL() string {
	return c.baseURL
}

// HTTPClient returns the underlying http.Client.
func (c *BaseClient) HTTPClient() *http.Client {
	return c.httpClient
}

// ParseErrorResponse turns a non-success response into a *models.APIError.
// It closes the response body.
func (c *BaseClient) ParseErrorResponse(resp *http.Response) error {
	defer resp.Body.Close()

	apiErr := &models.APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) != nil {
		apiErr.Message = string(data)
		return apiErr
	}

	apiErr.Code = body.Code
	apiErr.Message = body.Message
	return apiErr
}

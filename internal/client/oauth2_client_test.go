package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/client"
)

func TestOAuth2Client_DoWithAuth(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader != "Bearer test-oauth-token" {
			t.Errorf("Expected 'Bearer test-oauth-token', got '%s'", authHeader)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer apiServer.Close()

	baseClient := client.NewBaseClient(apiServer.URL, 10*time.Second, quietLogger())
	oauth2Client := client.NewOAuth2Client(baseClient, client.StaticTokenSource("test-oauth-token"))

	resp, err := oauth2Client.DoWithAuth(context.Background(), http.MethodGet, "/protected", nil)
	if err != nil {
		t.Fatalf("DoWithAuth() failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestOAuth2Client_UnauthorizedIsReturned(t *testing.T) {
	var calls atomic.Int32
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer apiServer.Close()

	baseClient := client.NewBaseClient(apiServer.URL, 10*time.Second, quietLogger())
	oauth2Client := client.NewOAuth2Client(baseClient, client.StaticTokenSource("expired"))

	resp, err := oauth2Client.DoWithAuth(context.Background(), http.MethodGet, "/protected", nil)
	if err != nil {
		t.Fatalf("DoWithAuth() failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.StatusCode)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected exactly one request without retry, got %d", calls.Load())
	}
}

type failingSource struct{}

func (failingSource) Token() (*oauth2.Token, error) {
	return nil, errors.New("no token")
}

func TestOAuth2Client_TokenSourceErrors(t *testing.T) {
	baseClient := client.NewBaseClient("http://127.0.0.1:1", time.Second, quietLogger())

	tests := []struct {
		name   string
		source oauth2.TokenSource
	}{
		{name: "source_error", source: failingSource{}},
		{name: "empty_token", source: client.StaticTokenSource("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oauth2Client := client.NewOAuth2Client(baseClient, tt.source)
			_, err := oauth2Client.DoWithAuth(context.Background(), http.MethodGet, "/protected", nil)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
		})
	}
}

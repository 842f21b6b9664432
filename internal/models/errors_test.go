package models_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/models"
)

func TestTokenExchangeErrorError(t *testing.T) {
	err := &models.TokenExchangeError{StatusCode: http.StatusBadRequest, Body: "invalid_grant"}

	assert.Equal(t, "token exchange failed: 400", err.Error())
}

func TestIsAuthExchangeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "missing_verifier",
			err:      models.ErrMissingVerifier,
			expected: true,
		},
		{
			name:     "wrapped_missing_verifier",
			err:      fmt.Errorf("callback: %w", models.ErrMissingVerifier),
			expected: true,
		},
		{
			name:     "token_exchange_error",
			err:      &models.TokenExchangeError{StatusCode: http.StatusUnauthorized},
			expected: true,
		},
		{
			name:     "wrapped_token_exchange_error",
			err:      fmt.Errorf("exchange: %w", &models.TokenExchangeError{StatusCode: 400}),
			expected: true,
		},
		{
			name:     "realtime_error",
			err:      &models.RealtimeConnectError{Op: "dial", Err: errors.New("refused")},
			expected: false,
		},
		{
			name:     "plain_error",
			err:      errors.New("boom"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, models.IsAuthExchangeError(tt.err))
		})
	}
}

func TestRealtimeConnectError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &models.RealtimeConnectError{Op: "create channel", Err: cause}

	assert.Equal(t, "create channel failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	var target *models.RealtimeConnectError
	assert.True(t, errors.As(fmt.Errorf("connect: %w", err), &target))
	assert.Equal(t, "create channel", target.Op)

	assert.Equal(t, "subscribe failed", (&models.RealtimeConnectError{Op: "subscribe"}).Error())
}

func TestAPIError(t *testing.T) {
	assert.Equal(t, "HTTP 403: missing scope", (&models.APIError{StatusCode: 403, Message: "missing scope"}).Error())
	assert.Equal(t, "HTTP 500", (&models.APIError{StatusCode: 500}).Error())
}

func TestValidationErrorError(t *testing.T) {
	err := &models.ValidationError{
		Field:   "GC_REGION",
		Message: "is required",
	}

	assert.Equal(t, "GC_REGION: is required", err.Error())
}

func TestValidationErrorsError(t *testing.T) {
	tests := []struct {
		name        string
		errors      models.ValidationErrors
		expectedMsg string
	}{
		{
			name:        "empty_errors",
			errors:      models.ValidationErrors{},
			expectedMsg: "validation failed",
		},
		{
			name: "single_error",
			errors: models.ValidationErrors{
				{Field: "GC_CLIENT_ID", Message: "is required"},
			},
			expectedMsg: "GC_CLIENT_ID: is required",
		},
		{
			name: "multiple_errors",
			errors: models.ValidationErrors{
				{Field: "GC_CLIENT_ID", Message: "is required"},
				{Field: "SERVER_PORT", Message: "is out of range"},
			},
			expectedMsg: "validation failed with 2 errors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedMsg, tt.errors.Error())
		})
	}
}

func TestValidationErrorsHasErrors(t *testing.T) {
	assert.False(t, models.ValidationErrors{}.HasErrors())
	assert.True(t, models.ValidationErrors{{Field: "f", Message: "m"}}.HasErrors())
}

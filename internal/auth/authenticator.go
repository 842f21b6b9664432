// Package auth implements the browser login for Genesys Cloud: the OAuth2
// authorization code flow with PKCE (S256) on a public client, and the
// exchange of the returned code for an access token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/config"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/models"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/session"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/token"
	"github.com/francs84-sketch/genesys-queue-activity-rt/pkg/logger"
)

// Session storage keys for the OAuth artifacts.
const (
	KeyVerifier = "pkce_verifier"
	KeyState    = "oauth_state"
)

const (
	authorizePath = "/oauth/authorize"
	tokenPath     = "/oauth/token"

	// maxErrorBody bounds the token endpoint body kept on a TokenExchangeError.
	maxErrorBody = 512
)

// Authenticator starts logins and exchanges authorization codes.
// It holds no per-user state; artifacts live in the session.Storage passed
// to each call.
type Authenticator struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewAuthenticator creates an Authenticator for the configured region and client.
//
// Parameters:
//   - cfg: Genesys region, client id and redirect URI
//   - httpClient: client used for the token endpoint; nil uses one with cfg.HTTPTimeout
//   - logger: structured logger
func NewAuthenticator(cfg *config.GenesysConfig, httpClient *http.Client, logger *logrus.Logger) *Authenticator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	loginHost := cfg.LoginURL()

	return &Authenticator{
		oauth: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   loginHost + authorizePath,
				TokenURL:  loginHost + tokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
		logger:     logger,
	}
}

// StartLogin generates a fresh verifier and state, stores both in storage
// (overwriting earlier values) and returns the authorization URL the browser
// must be sent to.
func (a *Authenticator) StartLogin(ctx context.Context, storage session.Storage) (string, error) {
	verifier, err := token.GenerateVerifier()
	if err != nil {
		return "", err
	}

	state, err := token.GenerateState()
	if err != nil {
		return "", err
	}

	if err := storage.Set(ctx, KeyVerifier, verifier); err != nil {
		return "", fmt.Errorf("failed to store PKCE verifier: %w", err)
	}
	if err := storage.Set(ctx, KeyState, state); err != nil {
		return "", fmt.Errorf("failed to store OAuth state: %w", err)
	}

	authURL := a.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", token.Challenge(verifier)),
		oauth2.SetAuthURLParam("code_challenge_method", token.CodeChallengeMethodS256),
	)

	logger.WithCorrelationID(ctx, a.logger).Debug("Login started")

	return authURL, nil
}

// ExchangeCodeForToken trades code for an access token using the stored verifier.
//
// It returns models.ErrMissingVerifier, before any network call, when no
// verifier is stored, and *models.TokenExchangeError when the token endpoint
// answers with a non-success status. The stored state is not compared with
// the callback.
func (a *Authenticator) ExchangeCodeForToken(
	ctx context.Context,
	storage session.Storage,
	code string,
) (*models.TokenResponse, error) {
	verifier, err := storage.Get(ctx, KeyVerifier)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, models.ErrMissingVerifier
		}
		return nil, fmt.Errorf("failed to read PKCE verifier: %w", err)
	}
	if verifier == "" {
		return nil, models.ErrMissingVerifier
	}

	log := logger.WithCorrelationID(ctx, a.logger)

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	tok, err := a.oauth.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			exchangeErr := &models.TokenExchangeError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       truncate(string(retrieveErr.Body), maxErrorBody),
			}
			log.WithFields(logrus.Fields{
				"status":     exchangeErr.StatusCode,
				"error_code": retrieveErr.ErrorCode,
			}).Warn("Token exchange rejected")
			return nil, exchangeErr
		}
		log.WithError(err).Error("Token exchange failed")
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	resp := &models.TokenResponse{
		AccessToken: tok.AccessToken,
		ExpiresIn:   expiresIn(tok),
		TokenType:   tok.TokenType,
	}

	log.WithFields(logrus.Fields{
		"token":      logger.MaskToken(resp.AccessToken),
		"expires_in": resp.ExpiresIn,
	}).Info("Authorization code exchanged")

	return resp, nil
}

// expiresIn reads expires_in as sent by the token endpoint, falling back to
// the computed expiry.
func expiresIn(tok *oauth2.Token) int64 {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	if tok.Expiry.IsZero() {
		return 0
	}
	return int64(time.Until(tok.Expiry).Round(time.Second) / time.Second)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

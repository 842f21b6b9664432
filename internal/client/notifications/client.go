package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/client"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/config"
)

const (
	channelsPath      = "/api/v2/notifications/channels"
	subscriptionsPath = "/api/v2/notifications/channels/%s/subscriptions"
)

// Client provides methods for interacting with the notifications API.
type Client struct {
	*client.OAuth2Client // Embedded - inherits all OAuth2Client methods

	logger *logrus.Logger
}

// NewClient creates a new notifications API client around an authenticated client.
//
// Parameters:
//   - oauth2Client: OAuth2-enabled HTTP client
//   - logger: Structured logger for notification operations
func NewClient(
	oauth2Client *client.OAuth2Client,
	logger *logrus.Logger,
) *Client {
	return &Client{
		OAuth2Client: oauth2Client,
		logger:       logger,
	}
}

// NewAPI builds a notifications client for one access token. Every call gets
// its own HTTP client and token source, so concurrent sessions never share
// credentials.
func NewAPI(cfg *config.GenesysConfig, accessToken string, logger *logrus.Logger) *Client {
	base := client.NewBaseClient(cfg.APIURL(), cfg.HTTPTimeout, logger)
	return NewClient(client.NewOAuth2Client(base, client.StaticTokenSource(accessToken)), logger)
}

// CreateChannel opens a new notification channel.
func (c *Client) CreateChannel(ctx context.Context) (*Channel, error) {
	resp, err := c.DoWithAuth(ctx, http.MethodPost, channelsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification channel: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		apiErr := c.ParseErrorResponse(resp)
		c.logger.WithError(apiErr).Error("Notification channel request failed")
		return nil, fmt.Errorf("failed to create notification channel: %w", apiErr)
	}
	defer resp.Body.Close()

	var channel Channel
	if decodeErr := json.NewDecoder(resp.Body).Decode(&channel); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode notification channel: %w", decodeErr)
	}
	if channel.ID == "" || channel.ConnectURI == "" {
		return nil, fmt.Errorf("notification channel response is missing id or connectUri")
	}

	c.logger.WithField("channel_id", channel.ID).Info("Notification channel created")

	return &channel, nil
}

// Subscribe adds topics to the channel's subscriptions.
func (c *Client) Subscribe(ctx context.Context, channelID string, topics []Topic) error {
	if topics == nil {
		topics = []Topic{}
	}

	path := fmt.Sprintf(subscriptionsPath, url.PathEscape(channelID))

	resp, err := c.DoWithAuth(ctx, http.MethodPost, path, topics)
	if err != nil {
		return fmt.Errorf("failed to subscribe channel: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := c.ParseErrorResponse(resp)
		c.logger.WithFields(logrus.Fields{
			"channel_id": channelID,
			"topics":     len(topics),
		}).WithError(apiErr).Error("Channel subscription request failed")
		return fmt.Errorf("failed to subscribe channel: %w", apiErr)
	}
	defer resp.Body.Close()

	fields := logrus.Fields{
		"channel_id": channelID,
		"topics":     len(topics),
	}

	// The body lists the channel's subscriptions; it is informational only.
	var list SubscriptionList
	if err := json.NewDecoder(resp.Body).Decode(&list); err == nil {
		fields["subscriptions"] = len(list.Entities)
	} else if !errors.Is(err, io.EOF) {
		c.logger.WithError(err).Debug("Ignoring unreadable subscription list")
	}

	c.logger.WithFields(fields).Info("Channel subscriptions added")

	return nil
}

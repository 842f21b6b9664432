// Package notifications provides a client for the Genesys Cloud notifications API:
// creating a realtime channel and subscribing it to topics.
package notifications

// Channel is a realtime notification channel.
type Channel struct {
	// ID is the channel identifier used for subscriptions.
	ID string `json:"id"`
	// ConnectURI is the websocket URL that streams the channel's events.
	ConnectURI string `json:"connectUri"`
	// Expires is the channel expiry timestamp, when reported.
	Expires string `json:"expires,omitempty"`
}

// Topic identifies one subscription topic, e.g. "v2.analytics.queues.{id}.observations".
type Topic struct {
	ID string `json:"id"`
}

// SubscriptionList is the response of a subscription call.
type SubscriptionList struct {
	Entities []Topic `json:"entities"`
}

// Package realtime opens a Genesys Cloud notification channel, connects to
// its websocket stream and subscribes it to per-queue topics.
//
// Messages of one subscription are delivered by a single goroutine, in the
// order they arrive, each handler call running to completion before the next.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"regexp"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/client/notifications"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/models"
)

// Failure steps reported in models.RealtimeConnectError.Op.
const (
	OpCreateChannel = "create channel"
	OpDial          = "dial"
	OpSubscribe     = "subscribe"
)

// closeGrace bounds the wait for the peer to acknowledge a close frame.
const closeGrace = time.Second

var observationTopic = regexp.MustCompile(`^v2\.analytics\.queues\.([^.]+)\.observations$`)

// ChannelAPI is the part of the notifications API used to open a subscription.
type ChannelAPI interface {
	CreateChannel(ctx context.Context) (*notifications.Channel, error)
	Subscribe(ctx context.Context, channelID string, topics []notifications.Topic) error
}

// MessageHandler receives the topic name and raw event body of one message.
type MessageHandler func(topic string, body json.RawMessage)

// Envelope is the JSON frame sent over the channel websocket.
type Envelope struct {
	TopicName string          `json:"topicName"`
	EventBody json.RawMessage `json:"eventBody"`
}

// Option configures OpenChannelAndSubscribe.
type Option func(*options)

type options struct {
	logger *logrus.Logger
}

// WithLogger sets the logger used by the subscription.
func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// ObservationTopic returns the analytics observation topic of a queue.
func ObservationTopic(queueID string) string {
	return "v2.analytics.queues." + queueID + ".observations"
}

// MembersTopic returns the routing membership topic of a queue.
func MembersTopic(queueID string) string {
	return "v2.routing.queues." + queueID + ".users"
}

// Topics returns the two subscription topics of every queue, in queue order.
func Topics(queueIDs []string) []notifications.Topic {
	topics := make([]notifications.Topic, 0, 2*len(queueIDs))
	for _, id := range queueIDs {
		topics = append(topics,
			notifications.Topic{ID: ObservationTopic(id)},
			notifications.Topic{ID: MembersTopic(id)},
		)
	}
	return topics
}

// MatchObservationTopic reports whether topic is a queue observation topic
// and returns the queue id it carries.
func MatchObservationTopic(topic string) (string, bool) {
	m := observationTopic.FindStringSubmatch(topic)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Subscription is a live channel socket. The caller owns it and must Close it.
type Subscription struct {
	// ChannelID is the platform id of the notification channel.
	ChannelID string

	conn      *websocket.Conn
	logger    *logrus.Logger
	done      chan struct{}
	closing   chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

// OpenChannelAndSubscribe creates a channel, connects to its websocket and
// subscribes it to the topics of queueIDs. Every text frame that decodes to an
// envelope with a topic name is passed to onMessage.
//
// Any failure is returned as *models.RealtimeConnectError; a socket opened
// before the failure is closed. There is no retry and no reconnect.
func OpenChannelAndSubscribe(
	ctx context.Context,
	api ChannelAPI,
	dialer *websocket.Dialer,
	queueIDs []string,
	onMessage MessageHandler,
	opts ...Option,
) (*Subscription, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logrus.New()
		o.logger.SetOutput(io.Discard)
	}
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	channel, err := api.CreateChannel(ctx)
	if err != nil {
		return nil, &models.RealtimeConnectError{Op: OpCreateChannel, Err: err}
	}

	log := o.logger.WithField("channel_id", channel.ID)

	conn, resp, err := dialer.DialContext(ctx, channel.ConnectURI, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			log.WithField("status", resp.StatusCode).WithError(err).Warn("Channel websocket handshake failed")
		}
		return nil, &models.RealtimeConnectError{Op: OpDial, Err: err}
	}

	if err := api.Subscribe(ctx, channel.ID, Topics(queueIDs)); err != nil {
		_ = conn.Close()
		return nil, &models.RealtimeConnectError{Op: OpSubscribe, Err: err}
	}

	sub := &Subscription{
		ChannelID: channel.ID,
		conn:      conn,
		logger:    o.logger,
		done:      make(chan struct{}),
		closing:   make(chan struct{}),
	}

	go sub.readLoop(onMessage)

	log.WithField("queues", len(queueIDs)).Info("Realtime channel subscribed")

	return sub, nil
}

// readLoop is the only reader of the socket.
func (s *Subscription) readLoop(onMessage MessageHandler) {
	defer close(s.done)

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closing:
			default:
				s.setErr(err)
				s.logger.WithField("channel_id", s.ChannelID).WithError(err).Warn("Realtime channel closed by peer")
			}
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.logger.WithField("channel_id", s.ChannelID).WithError(err).Debug("Skipping non-JSON realtime frame")
			continue
		}
		if env.TopicName == "" {
			continue
		}

		onMessage(env.TopicName, env.EventBody)
	}
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Err returns why the stream stopped when the peer ended it, or nil.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed when the reader goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close sends a close frame, closes the socket and waits for the reader to
// exit. It is safe to call more than once. Close errors from a socket the
// peer already dropped are not reported. Close must not be called from the
// message handler.
func (s *Subscription) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		close(s.closing)

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))

		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			closeErr = err
		}
		<-s.done
	})
	return closeErr
}

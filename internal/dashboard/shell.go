// Package dashboard holds the per-session application state of the queue
// dashboard: login status, the access token, the realtime subscription and
// the KPI board fed by it.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/config"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/kpi"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/metrics"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/models"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/realtime"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/session"
	"github.com/francs84-sketch/genesys-queue-activity-rt/pkg/logger"
)

// State is the lifecycle state of a Shell.
type State string

const (
	StateNotLoggedIn        State = "not_logged_in"
	StateExchangingCode     State = "exchanging_code"
	StateLoggedIn           State = "logged_in"
	StateConnectingRealtime State = "connecting_realtime"
	StateRealtimeConnected  State = "realtime_connected"
	StateError              State = "error"
)

// Status lines shown to the user.
const (
	StatusNotLoggedIn        = "Not logged in"
	StatusExchangingCode     = "Exchanging OAuth code..."
	StatusLoggedIn           = "Logged in"
	StatusConnectingRealtime = "Connecting to Genesys realtime..."
	StatusRealtimeConnected  = "Realtime connected"

	authErrorPrefix     = "Auth error: "
	realtimeErrorPrefix = "Realtime error: "
)

// errStreamClosed is reported when the platform ends the stream cleanly.
var errStreamClosed = errors.New("realtime stream closed")

// Exchanger trades an authorization code for a token.
type Exchanger interface {
	ExchangeCodeForToken(ctx context.Context, storage session.Storage, code string) (*models.TokenResponse, error)
}

// APIFactory builds a notifications API bound to an access token.
type APIFactory func(accessToken string) realtime.ChannelAPI

// Snapshot is a consistent copy of a shell's visible state.
type Snapshot struct {
	State    State                   `json:"state"`
	Status   string                  `json:"status"`
	LoggedIn bool                    `json:"loggedIn"`
	QueueIDs []string                `json:"queueIds"`
	Kpis     map[string]kpi.QueueKpi `json:"kpis"`
}

// Option configures a Shell.
type Option func(*Shell)

// WithDialer sets the websocket dialer used for the realtime channel.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(s *Shell) { s.dialer = dialer }
}

// WithMetrics sets the metrics the shell reports to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Shell) { s.metrics = m }
}

// Shell is the state of one browser session. All methods are safe for
// concurrent use.
type Shell struct {
	exchanger Exchanger
	storage   session.Storage
	newAPI    APIFactory
	dialer    *websocket.Dialer
	metrics   *metrics.Metrics
	logger    *logrus.Logger

	board  *kpi.Board
	events *broadcaster

	ctx    context.Context
	cancel context.CancelFunc

	// generation identifies the current connection attempt. It only changes
	// under mu; message handlers read it without the lock.
	generation atomic.Uint64

	mu       sync.Mutex
	state    State
	status   string
	token    string
	queueIDs []string
	sub      *realtime.Subscription
	closed   bool
}

// NewShell creates a logged-out shell watching queueIDs.
func NewShell(
	exchanger Exchanger,
	storage session.Storage,
	newAPI APIFactory,
	queueIDs []string,
	log *logrus.Logger,
	opts ...Option,
) *Shell {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Shell{
		exchanger: exchanger,
		storage:   storage,
		newAPI:    newAPI,
		logger:    log,
		board:     kpi.NewBoard(),
		events:    newBroadcaster(),
		ctx:       ctx,
		cancel:    cancel,
		state:     StateNotLoggedIn,
		status:    StatusNotLoggedIn,
		queueIDs:  config.NormalizeQueueIDs(queueIDs),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleCallback exchanges code for a token and, on success, logs the shell
// in and starts the realtime connection. The returned error is also shown
// as the status line.
func (s *Shell) HandleCallback(ctx context.Context, code string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("session closed")
	}
	s.setStatusLocked(StateExchangingCode, StatusExchangingCode)
	s.mu.Unlock()

	tok, err := s.exchanger.ExchangeCodeForToken(ctx, s.storage, code)
	s.metrics.ObserveExchange(err == nil)
	if err != nil {
		logger.WithCorrelationID(ctx, s.logger).WithError(err).Warn("OAuth callback failed")

		s.mu.Lock()
		s.setStatusLocked(StateError, authErrorPrefix+err.Error())
		s.mu.Unlock()
		return err
	}

	s.SetToken(tok.AccessToken)
	return nil
}

// SetToken replaces the access token and reconnects. An empty token logs
// the shell out.
func (s *Shell) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	if token == "" {
		s.setStatusLocked(StateNotLoggedIn, StatusNotLoggedIn)
	} else {
		s.setStatusLocked(StateLoggedIn, StatusLoggedIn)
	}
	s.mu.Unlock()

	s.reconnect()
}

// SetQueues replaces the watched queues and reconnects.
func (s *Shell) SetQueues(queueIDs []string) {
	s.mu.Lock()
	s.queueIDs = config.NormalizeQueueIDs(queueIDs)
	s.mu.Unlock()

	s.reconnect()
}

// reconnect tears down the current subscription and, when both a token and
// queues are set, opens a new one on its own goroutine.
func (s *Shell) reconnect() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	gen := s.generation.Add(1)
	old := s.sub
	s.sub = nil

	token := s.token
	queueIDs := append([]string(nil), s.queueIDs...)
	connect := token != "" && len(queueIDs) > 0

	switch {
	case connect:
		s.setStatusLocked(StateConnectingRealtime, StatusConnectingRealtime)
	case token != "" && (s.state == StateConnectingRealtime || s.state == StateRealtimeConnected):
		s.setStatusLocked(StateLoggedIn, StatusLoggedIn)
	}
	s.mu.Unlock()

	s.closeSubscription(old)

	if connect {
		go s.open(gen, token, queueIDs)
	}
}

func (s *Shell) open(gen uint64, token string, queueIDs []string) {
	log := s.logger.WithField("generation", gen)

	sub, err := realtime.OpenChannelAndSubscribe(
		s.ctx,
		s.newAPI(token),
		s.dialer,
		queueIDs,
		s.messageHandler(gen),
		realtime.WithLogger(s.logger),
	)
	s.metrics.ObserveConnect(err == nil)

	s.mu.Lock()
	if s.closed || s.generation.Load() != gen {
		s.mu.Unlock()
		if sub != nil {
			log.Debug("Discarding stale realtime subscription")
			_ = sub.Close()
		}
		return
	}

	if err != nil {
		s.setStatusLocked(StateError, realtimeErrorPrefix+err.Error())
		s.mu.Unlock()
		log.WithError(err).Warn("Realtime connection failed")
		return
	}

	s.sub = sub
	s.metrics.SubscriptionOpened()
	s.setStatusLocked(StateRealtimeConnected, StatusRealtimeConnected)
	s.mu.Unlock()

	log.WithField("channel_id", sub.ChannelID).Info("Realtime connected")

	go s.watch(gen, sub)
}

// watch reports a stream the peer ended. It does not reconnect.
func (s *Shell) watch(gen uint64, sub *realtime.Subscription) {
	<-sub.Done()

	s.mu.Lock()
	if s.closed || s.generation.Load() != gen || s.sub != sub {
		s.mu.Unlock()
		return
	}

	err := sub.Err()
	if err == nil {
		err = errStreamClosed
	}
	s.sub = nil
	s.metrics.SubscriptionClosed()
	s.setStatusLocked(StateError, realtimeErrorPrefix+err.Error())
	s.mu.Unlock()

	// The reader has exited but the socket is still open.
	if err := sub.Close(); err != nil {
		s.logger.WithError(err).Debug("Ignoring realtime close error")
	}
}

func (s *Shell) messageHandler(gen uint64) realtime.MessageHandler {
	return func(topic string, body json.RawMessage) {
		if s.generation.Load() != gen {
			return
		}

		queueID, ok := realtime.MatchObservationTopic(topic)
		if !ok {
			// Membership topics are subscribed but not shown.
			s.metrics.ObserveMessage(metrics.KindOther)
			return
		}
		s.metrics.ObserveMessage(metrics.KindObservation)

		partial := kpi.ParseQueueObservation(body)
		if partial.IsEmpty() {
			return
		}

		merged := s.board.Apply(queueID, partial)
		s.events.publish(Event{Type: EventKpi, QueueID: queueID, Kpi: &merged})
	}
}

func (s *Shell) closeSubscription(sub *realtime.Subscription) {
	if sub == nil {
		return
	}
	s.metrics.SubscriptionClosed()
	if err := sub.Close(); err != nil {
		s.logger.WithError(err).Debug("Ignoring realtime close error")
	}
}

// setStatusLocked must be called with mu held.
func (s *Shell) setStatusLocked(state State, status string) {
	if s.state == state && s.status == status {
		return
	}
	s.state = state
	s.status = status
	s.events.publish(Event{Type: EventStatus, State: state, Status: status})
}

// Snapshot returns the current visible state.
func (s *Shell) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		State:    s.state,
		Status:   s.status,
		LoggedIn: s.token != "",
		QueueIDs: append([]string{}, s.queueIDs...),
	}
	s.mu.Unlock()

	snap.Kpis = s.board.Snapshot()
	return snap
}

// Status returns the status line.
func (s *Shell) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Board returns the shell's KPI board.
func (s *Shell) Board() *kpi.Board {
	return s.board
}

// Storage returns the session storage of the shell.
func (s *Shell) Storage() session.Storage {
	return s.storage
}

// Events subscribes to status and KPI changes. The channel is closed by the
// returned cancel func or when the shell closes. Events for a full channel
// are dropped.
func (s *Shell) Events() (<-chan Event, func()) {
	return s.events.subscribe()
}

// Close tears down the subscription and ends every event stream. It is safe
// to call more than once.
func (s *Shell) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.generation.Add(1)
	old := s.sub
	s.sub = nil
	s.mu.Unlock()

	s.cancel()
	s.closeSubscription(old)
	s.events.close()
}

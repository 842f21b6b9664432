package handlers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/auth"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/client/notifications"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/config"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/dashboard"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/handlers"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/kpi"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/metrics"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/middleware"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/realtime"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/session"
)

const sessionID = "6f0e1c2a-3b4d-4e5f-8a9b-0c1d2e3f4a5b"

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

// refusingAPI fails channel creation so no socket is opened.
type refusingAPI struct{}

func (refusingAPI) CreateChannel(context.Context) (*notifications.Channel, error) {
	return nil, errors.New("HTTP 403: Forbidden")
}

func (refusingAPI) Subscribe(context.Context, string, []notifications.Topic) error {
	return nil
}

type fixture struct {
	server  *httptest.Server
	manager *dashboard.Manager
	store   *session.MemoryStore
	token   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123456789","token_type":"bearer","expires_in":86399}`))
	}))
	t.Cleanup(tokenServer.Close)

	cfg := &config.Config{
		Genesys: config.GenesysConfig{
			Region:       "example.test",
			ClientID:     "client-1",
			RedirectURI:  "http://localhost:8080/",
			LoginBaseURL: tokenServer.URL,
			HTTPTimeout:  5 * time.Second,
		},
		QueueIDs: []string{"q1", "q2"},
		Dashboard: config.DashboardConfig{
			SessionTTL:        time.Hour,
			HeartbeatInterval: 20 * time.Millisecond,
			Queues:            []config.QueueEntry{{ID: "q1", Name: "Sales"}},
		},
	}

	log := quietLogger()
	store := session.NewMemoryStore(log)
	t.Cleanup(func() { _ = store.Close() })

	authenticator := auth.NewAuthenticator(&cfg.Genesys, nil, log)
	m := metrics.New(prometheus.NewRegistry())

	manager := dashboard.NewManager(func(sid string) *dashboard.Shell {
		return dashboard.NewShell(
			authenticator,
			session.Scoped(store, sid, cfg.Dashboard.SessionTTL),
			func(string) realtime.ChannelAPI { return refusingAPI{} },
			cfg.QueueIDs,
			log,
			dashboard.WithMetrics(m),
		)
	}, log)
	t.Cleanup(manager.CloseAll)

	router := mux.NewRouter()
	handlers.NewDashboardHandler(manager, authenticator, cfg, m, log).RegisterRoutes(router)

	stack := middleware.NewStack(cfg, nil, log)
	server := httptest.NewServer(stack.Chain(router, stack.Recovery, stack.RequestLogger, stack.Session))
	t.Cleanup(server.Close)

	return &fixture{server: server, manager: manager, store: store, token: tokenServer}
}

func (f *fixture) request(t *testing.T, method, path string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, f.server.URL+path, nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: sessionID})

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (f *fixture) page(t *testing.T) string {
	t.Helper()
	resp := f.request(t, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sb strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (f *fixture) state(t *testing.T) dashboard.Snapshot {
	t.Helper()
	resp := f.request(t, http.MethodGet, "/api/state")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap dashboard.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

func TestIndex_RendersLoggedOutPage(t *testing.T) {
	f := newFixture(t)

	body := f.page(t)

	assert.Contains(t, body, "Not logged in")
	assert.Contains(t, body, "Queues: q1, q2")
	assert.Contains(t, body, "Redirect URI: http://localhost:8080/")
	assert.Contains(t, body, "Queue Sales (q1)")
	assert.Contains(t, body, "Queue q2")
	assert.Contains(t, body, `<b data-field="waiting">-</b>`)
	assert.NotContains(t, body, "disabled")
}

func TestIndex_ShowsBoardValues(t *testing.T) {
	f := newFixture(t)

	shell := f.manager.Get(sessionID)
	shell.Board().Apply("q2", kpi.QueueKpi{Waiting: kpi.Float(7), OldestWaitingMs: kpi.Float(1500)})

	body := f.page(t)
	assert.Contains(t, body, `<b data-field="waiting">7</b>`)
	assert.Contains(t, body, `<b data-field="oldestWaitingMs">1500</b>`)
}

func TestLogin_RedirectsAndStoresVerifier(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, http.MethodGet, "/login")
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/oauth/authorize", location.Path)
	assert.Equal(t, "client-1", location.Query().Get("client_id"))
	assert.Equal(t, "S256", location.Query().Get("code_challenge_method"))

	storage := session.Scoped(f.store, sessionID, time.Hour)
	verifier, err := storage.Get(context.Background(), auth.KeyVerifier)
	require.NoError(t, err)
	assert.NotEmpty(t, verifier)

	state, err := storage.Get(context.Background(), auth.KeyState)
	require.NoError(t, err)
	assert.Equal(t, state, location.Query().Get("state"))
}

func TestIndex_CallbackWithoutLoginShowsAuthError(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, http.MethodGet, "/?code=good-code")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Location"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Auth error: missing PKCE verifier")
}

func TestIndex_CallbackRejectedCode(t *testing.T) {
	f := newFixture(t)

	f.request(t, http.MethodGet, "/login")
	resp := f.request(t, http.MethodGet, "/?code=bad-code")
	require.Equal(t, http.StatusOK, resp.StatusCode, "a failed exchange is not redirected")

	snap := f.state(t)
	assert.Equal(t, dashboard.StateError, snap.State)
	assert.Equal(t, "Auth error: token exchange failed: 400", snap.Status)
	assert.False(t, snap.LoggedIn)
}

func TestIndex_CallbackLogsIn(t *testing.T) {
	f := newFixture(t)

	f.request(t, http.MethodGet, "/login")
	resp := f.request(t, http.MethodGet, "/?code=good-code")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	require.Eventually(t, func() bool {
		return f.state(t).State == dashboard.StateError
	}, 2*time.Second, 10*time.Millisecond)

	snap := f.state(t)
	assert.True(t, snap.LoggedIn)
	assert.Equal(t, "Realtime error: create channel failed: HTTP 403: Forbidden", snap.Status)
	assert.Contains(t, f.page(t), "disabled")
}

func TestLogout(t *testing.T) {
	f := newFixture(t)

	f.request(t, http.MethodGet, "/login")
	require.Equal(t, 1, f.manager.Len())

	resp := f.request(t, http.MethodPost, "/logout")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 0, f.manager.Len())

	_, err := session.Scoped(f.store, sessionID, time.Hour).Get(context.Background(), auth.KeyVerifier)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestState_JSON(t *testing.T) {
	f := newFixture(t)

	snap := f.state(t)
	assert.Equal(t, dashboard.StateNotLoggedIn, snap.State)
	assert.Equal(t, "Not logged in", snap.Status)
	assert.Equal(t, []string{"q1", "q2"}, snap.QueueIDs)
}

func TestEvents_StreamsSnapshotChangesAndHeartbeat(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, http.MethodGet, "/api/events")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	next := func() string {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream ended")
			return line
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event stream")
			return ""
		}
	}

	assert.Equal(t, "event: snapshot", next())
	data := strings.TrimPrefix(next(), "data: ")
	var snap dashboard.Snapshot
	require.NoError(t, json.Unmarshal([]byte(data), &snap))
	assert.Equal(t, "Not logged in", snap.Status)

	shell, ok := f.manager.Lookup(sessionID)
	require.True(t, ok)
	shell.SetQueues(nil)
	shell.SetToken("tok")

	var sawStatus, sawHeartbeat bool
	for !sawStatus || !sawHeartbeat {
		line := next()
		switch {
		case line == ": heartbeat":
			sawHeartbeat = true
		case line == "event: status":
			payload := strings.TrimPrefix(next(), "data: ")
			var ev dashboard.Event
			require.NoError(t, json.Unmarshal([]byte(payload), &ev))
			assert.Equal(t, "Logged in", ev.Status)
			sawStatus = true
		}
	}
}

func TestHandlers_RequireSession(t *testing.T) {
	log := quietLogger()
	manager := dashboard.NewManager(func(string) *dashboard.Shell { return nil }, log)
	h := handlers.NewDashboardHandler(manager, nil, &config.Config{}, nil, log)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		method  string
	}{
		{name: "index", handler: h.Index, method: http.MethodGet},
		{name: "state", handler: h.State, method: http.MethodGet},
		{name: "events", handler: h.Events, method: http.MethodGet},
		{name: "logout", handler: h.Logout, method: http.MethodPost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(tt.method, "/", nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"missing session"}`, rec.Body.String())
		})
	}
}

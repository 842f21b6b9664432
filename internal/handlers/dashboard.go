package handlers

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/auth"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/config"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/constants"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/dashboard"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/kpi"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/metrics"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/middleware"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/session"
	"github.com/francs84-sketch/genesys-queue-activity-rt/pkg/logger"
)

// unknownValue is shown for a KPI field that has not been reported.
const unknownValue = "-"

//go:embed templates/dashboard.html
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("dashboard.html").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/dashboard.html"),
)

// LoginStarter begins the OAuth login of a session.
type LoginStarter interface {
	StartLogin(ctx context.Context, storage session.Storage) (string, error)
}

// DashboardHandler serves the dashboard page and its APIs.
type DashboardHandler struct {
	manager *dashboard.Manager
	login   LoginStarter
	config  *config.Config
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(
	manager *dashboard.Manager,
	login LoginStarter,
	cfg *config.Config,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		manager: manager,
		login:   login,
		config:  cfg,
		metrics: m,
		logger:  logger,
	}
}

// RegisterRoutes registers the dashboard routes on router.
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Index).Methods(http.MethodGet)
	router.HandleFunc("/login", h.Login).Methods(http.MethodGet)
	router.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	router.HandleFunc("/api/state", h.State).Methods(http.MethodGet)
	router.HandleFunc("/api/events", h.Events).Methods(http.MethodGet)
}

type pageData struct {
	LoggedIn    bool
	Status      string
	QueueIDs    []string
	RedirectURI string
	Cards       []card
}

type card struct {
	ID              string
	Label           string
	Waiting         string
	Interacting     string
	Alerting        string
	OldestWaitingMs string
}

// Index renders the dashboard. A request carrying the OAuth callback code
// runs the exchange first. A successful exchange is redirected to the bare
// path; a failed one renders the page with the error status and keeps the
// code in the URL.
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	shell, ok := h.shell(w, r)
	if !ok {
		return
	}

	if code := r.URL.Query().Get("code"); code != "" {
		if err := shell.HandleCallback(r.Context(), code); err == nil {
			http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
			return
		}
	}

	snap := shell.Snapshot()
	names := h.config.QueueNames()

	data := pageData{
		LoggedIn:    snap.LoggedIn,
		Status:      snap.Status,
		QueueIDs:    snap.QueueIDs,
		RedirectURI: h.config.Genesys.RedirectURI,
		Cards:       make([]card, 0, len(snap.QueueIDs)),
	}
	for _, id := range snap.QueueIDs {
		data.Cards = append(data.Cards, newCard(id, names[id], snap.Kpis[id]))
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeHTMLUTF8)
	w.Header().Set(constants.HeaderCacheControl, "no-store")
	if err := pageTemplate.Execute(w, data); err != nil {
		logger.WithCorrelationID(r.Context(), h.logger).WithError(err).Error("Failed to render dashboard")
	}
}

func newCard(id, name string, k kpi.QueueKpi) card {
	label := id
	if name != "" {
		label = name + " (" + id + ")"
	}
	return card{
		ID:              id,
		Label:           label,
		Waiting:         formatValue(k.Waiting),
		Interacting:     formatValue(k.Interacting),
		Alerting:        formatValue(k.Alerting),
		OldestWaitingMs: formatValue(k.OldestWaitingMs),
	}
}

func formatValue(v *float64) string {
	if v == nil {
		return unknownValue
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Login starts the OAuth flow and redirects the browser to the login page.
func (h *DashboardHandler) Login(w http.ResponseWriter, r *http.Request) {
	shell, ok := h.shell(w, r)
	if !ok {
		return
	}

	authURL, err := h.login.StartLogin(r.Context(), shell.Storage())
	if err != nil {
		logger.WithCorrelationID(r.Context(), h.logger).WithError(err).Error("Failed to start login")
		writeError(w, h.logger, "failed to start login", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Logout closes the session's shell and clears its stored OAuth artifacts.
func (h *DashboardHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())
	if sessionID == "" {
		writeError(w, h.logger, "missing session", http.StatusBadRequest)
		return
	}

	if shell, ok := h.manager.Lookup(sessionID); ok {
		if err := shell.Storage().Clear(r.Context(), auth.KeyVerifier, auth.KeyState); err != nil {
			logger.WithCorrelationID(r.Context(), h.logger).WithError(err).Warn("Failed to clear session artifacts")
		}
	}
	h.manager.Remove(sessionID)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// State returns the session snapshot as JSON.
func (h *DashboardHandler) State(w http.ResponseWriter, r *http.Request) {
	shell, ok := h.shell(w, r)
	if !ok {
		return
	}
	writeJSON(w, h.logger, shell.Snapshot(), http.StatusOK)
}

// Events streams the session snapshot followed by every change as
// Server-Sent Events.
func (h *DashboardHandler) Events(w http.ResponseWriter, r *http.Request) {
	shell, ok := h.shell(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, h.logger, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sessionID := middleware.SessionID(r.Context())
	events, cancel := shell.Events()
	defer cancel()

	h.metrics.SSEClientConnected()
	defer h.metrics.SSEClientDisconnected()

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeEventStream)
	w.Header().Set(constants.HeaderCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	log := logger.WithCorrelationID(r.Context(), h.logger)

	if err := writeEvent(w, "snapshot", shell.Snapshot()); err != nil {
		log.WithError(err).Debug("Event stream closed")
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeatInterval())
	defer heartbeat.Stop()

	for {
		select {
		case ev, open := <-events:
			if !open {
				return
			}
			if err := writeEvent(w, string(ev.Type), ev); err != nil {
				log.WithError(err).Debug("Event stream closed")
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
			// An open stream keeps its session from being swept as idle.
			h.manager.Touch(sessionID)
		case <-r.Context().Done():
			return
		}
	}
}

func (h *DashboardHandler) heartbeatInterval() time.Duration {
	if d := h.config.Dashboard.HeartbeatInterval; d > 0 {
		return d
	}
	return 15 * time.Second
}

func writeEvent(w http.ResponseWriter, name string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}

// shell returns the shell of the request's session, answering 400 when the
// session middleware did not run.
func (h *DashboardHandler) shell(w http.ResponseWriter, r *http.Request) (*dashboard.Shell, bool) {
	sessionID := middleware.SessionID(r.Context())
	if sessionID == "" {
		writeError(w, h.logger, "missing session", http.StatusBadRequest)
		return nil, false
	}
	return h.manager.Get(sessionID), true
}

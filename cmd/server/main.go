// Package main provides the entry point for the queue activity dashboard.
// It initializes all dependencies, sets up HTTP routes with middleware,
// and starts the server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/auth"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/client/notifications"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/config"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/dashboard"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/handlers"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/metrics"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/middleware"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/realtime"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/session"
	"github.com/francs84-sketch/genesys-queue-activity-rt/pkg/logger"
)

func main() {
	// Load .env.local only in development (GO_ENV unset or "development").
	goEnv := os.Getenv("GO_ENV")
	if goEnv == "" || goEnv == "development" {
		if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env.local file: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithConfig(&cfg.Logging)
	log.Info("Starting Genesys queue activity dashboard")
	log.WithFields(logrus.Fields{
		"version":     handlers.Version,
		"environment": cfg.Environment.Environment,
		"port":        cfg.Server.Port,
		"host":        cfg.Server.Host,
		"tls":         cfg.IsTLSEnabled(),
		"region":      cfg.Genesys.Region,
		"queues":      len(cfg.QueueIDs),
	}).Info("Service configuration loaded")

	store, redisClient := initializeStore(cfg, log)
	defer closeStore(store, log)

	m := metrics.New(prometheus.DefaultRegisterer)
	authenticator := auth.NewAuthenticator(&cfg.Genesys, nil, log)
	manager := newManager(cfg, store, authenticator, m, log)

	server := setupServer(cfg, store, redisClient, authenticator, manager, m, log)

	runServer(server, manager, cfg, log)
}

// initializeStore connects to Redis and falls back to the in-memory store.
// The returned client is nil with the memory store.
func initializeStore(cfg *config.Config, log *logrus.Logger) (session.Store, *redis.Client) {
	redisStore, err := session.NewRedisStore(&cfg.Redis, log)
	if err != nil {
		log.WithError(err).Warn("Failed to connect to Redis, falling back to in-memory store")
		log.Warn("Note: In-memory store will not keep sessions between restarts")
		return session.NewMemoryStore(log), nil
	}

	log.Info("Successfully connected to Redis store")
	return redisStore, redisStore.Client()
}

func closeStore(store session.Store, log *logrus.Logger) {
	if err := store.Close(); err != nil {
		log.WithError(err).Error("Failed to close store connection")
	}
}

func newManager(
	cfg *config.Config,
	store session.Store,
	authenticator *auth.Authenticator,
	m *metrics.Metrics,
	log *logrus.Logger,
) *dashboard.Manager {
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.Genesys.HTTPTimeout,
	}

	newAPI := func(accessToken string) realtime.ChannelAPI {
		return notifications.NewAPI(&cfg.Genesys, accessToken, log)
	}

	return dashboard.NewManager(func(sessionID string) *dashboard.Shell {
		return dashboard.NewShell(
			authenticator,
			session.Scoped(store, sessionID, cfg.Dashboard.SessionTTL),
			newAPI,
			cfg.QueueIDs,
			log,
			dashboard.WithDialer(dialer),
			dashboard.WithMetrics(m),
		)
	}, log, dashboard.WithIdleTimeout(cfg.Dashboard.SessionTTL, dashboard.DefaultSweepInterval))
}

func setupServer(
	cfg *config.Config,
	store session.Store,
	redisClient *redis.Client,
	authenticator *auth.Authenticator,
	manager *dashboard.Manager,
	m *metrics.Metrics,
	log *logrus.Logger,
) *http.Server {
	dashboardHandler := handlers.NewDashboardHandler(manager, authenticator, cfg, m, log)
	healthHandler := handlers.NewHealthHandler(cfg, store, manager.Len, m, log)

	middlewareStack := middleware.NewStack(cfg, redisClient, log)

	router := mux.NewRouter()
	healthHandler.RegisterRoutes(router)

	// Session-bound routes.
	app := router.NewRoute().Subrouter()
	app.Use(middlewareStack.Session)
	dashboardHandler.RegisterRoutes(app)

	finalHandler := middlewareStack.Chain(
		router,
		middlewareStack.Recovery,
		middlewareStack.RequestLogger,
		middlewareStack.SecurityHeaders,
		middlewareStack.RateLimit,
	)

	return &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      finalHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func runServer(server *http.Server, manager *dashboard.Manager, cfg *config.Config, log *logrus.Logger) {
	go startServer(server, cfg, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Ends every event stream so Shutdown does not wait on them.
	manager.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	} else {
		log.Info("Server exited gracefully")
	}
}

func startServer(server *http.Server, cfg *config.Config, log *logrus.Logger) {
	log.WithFields(logrus.Fields{
		"addr": server.Addr,
		"tls":  cfg.IsTLSEnabled(),
	}).Info("Starting HTTP server")

	var err error
	if cfg.IsTLSEnabled() {
		err = server.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
	} else {
		err = server.ListenAndServe()
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("Failed to start server")
	}
}

// Command kpiwatch shows live queue KPIs in the terminal for an access token
// obtained elsewhere.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/client/notifications"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/config"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/kpi"
	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/realtime"
	"github.com/francs84-sketch/genesys-queue-activity-rt/pkg/logger"
)

func main() {
	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env.local file: %v\n", err)
	}

	cfg, err := config.LoadRealtime()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	token := flag.String("token", os.Getenv("GC_ACCESS_TOKEN"), "Genesys Cloud access token")
	queues := flag.String("queues", "", "comma separated queue ids (default QUEUE_IDS)")
	logFile := flag.String("log", "", "write logs to this file instead of discarding them")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "An access token is required (-token or GC_ACCESS_TOKEN)")
		os.Exit(2)
	}

	queueIDs := cfg.QueueIDs
	if *queues != "" {
		queueIDs = config.ParseQueueIDs(*queues)
	}

	log := newLogger(cfg, *logFile)

	if err := run(cfg, *token, queueIDs, log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger keeps the terminal free for the program.
func newLogger(cfg *config.Config, path string) *logrus.Logger {
	if path == "" {
		log := logrus.New()
		log.SetOutput(io.Discard)
		return log
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, "stderr")
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to open log file, discarding logs: %v\n", err)
		log.SetOutput(io.Discard)
		return log
	}
	log.SetOutput(f)
	return log
}

func run(cfg *config.Config, token string, queueIDs []string, log *logrus.Logger) error {
	board := kpi.NewBoard()
	updates, cancel := board.Subscribe()
	defer cancel()

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.Genesys.HTTPTimeout,
	}

	ctx, stop := context.WithTimeout(context.Background(), cfg.Genesys.HTTPTimeout)
	defer stop()

	api := notifications.NewAPI(&cfg.Genesys, token, log)
	sub, err := realtime.OpenChannelAndSubscribe(ctx, api, dialer, queueIDs, applyTo(board), realtime.WithLogger(log))
	if err != nil {
		return fmt.Errorf("open realtime channel: %w", err)
	}
	defer func() {
		if err := sub.Close(); err != nil {
			log.WithError(err).Debug("Failed to close realtime channel")
		}
	}()

	p := tea.NewProgram(newWatchModel(queueIDs, cfg.QueueNames(), board, updates), tea.WithAltScreen())

	go func() {
		<-sub.Done()
		if err := sub.Err(); err != nil {
			p.Send(statusMsg("Realtime error: " + err.Error()))
		}
	}()

	_, err = p.Run()
	return err
}

// applyTo merges every observation frame into board. Other topics are ignored.
func applyTo(board *kpi.Board) realtime.MessageHandler {
	return func(topic string, body json.RawMessage) {
		queueID, ok := realtime.MatchObservationTopic(topic)
		if !ok {
			return
		}
		board.Apply(queueID, kpi.ParseQueueObservation(body))
	}
}

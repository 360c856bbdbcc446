// Command pushwire-gateway maintains a supervised streaming connection to
// the push service and prints received notifications.
//
// The gateway runs the full supervision lifecycle: a bounded initial
// connect with exponential backoff, liveness monitoring with runtime
// recovery, and a clean shutdown on SIGINT/SIGTERM.
//
// Usage:
//
//	pushwire-gateway [flags]
//
// Flags:
//
//	-config string      Configuration file path (default "pushwire.yaml")
//	-log-level string   Override the configured log level
//	-event-log string   Override the configured supervision event log path
//
// Examples:
//
//	# Run with the default config file
//	pushwire-gateway
//
//	# Run with debug logging and an event log for later analysis
//	pushwire-gateway -config /etc/pushwire/gateway.yaml -log-level debug -event-log gateway.pwlog
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pushwire/pushwire-go/pkg/config"
	"github.com/pushwire/pushwire-go/pkg/connection"
	"github.com/pushwire/pushwire-go/pkg/log"
	"github.com/pushwire/pushwire-go/pkg/transport"
)

func main() {
	configPath := flag.String("config", "pushwire.yaml", "Configuration file path")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	eventLogPath := flag.String("event-log", "", "Override the configured supervision event log path")
	flag.Parse()

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *eventLogPath != "" {
		cfg.Logging.EventLog = *eventLogPath
	}

	logger := newLogger(cfg.Logging.Level)

	var events log.Logger = log.NoopLogger{}
	if cfg.Logging.EventLog != "" {
		fileLog, err := log.NewFileLogger(cfg.Logging.EventLog)
		if err != nil {
			logger.Error("failed to open event log", "path", cfg.Logging.EventLog, "error", err)
			os.Exit(1)
		}
		defer fileLog.Close()
		events = fileLog
	}

	socket := transport.New(transport.SocketConfig{
		URL:              cfg.Endpoint.URL,
		Token:            cfg.Endpoint.Token,
		HandshakeTimeout: cfg.Endpoint.HandshakeTimeout,
		PingTimeout:      cfg.Endpoint.PingTimeout,
		MessageBuffer:    cfg.Endpoint.MessageBuffer,
	}, logger)

	manager := connection.NewManager(socket, cfg.AccountID, connection.Config{
		MaxAttempts:        cfg.Connect.MaxAttempts,
		InitialDelay:       cfg.Connect.InitialDelay,
		MaxDelay:           cfg.Connect.MaxDelay,
		Jitter:             cfg.Connect.JitterValue(),
		MaxReconnectCycles: cfg.Connect.MaxReconnectCycles,
		CheckInterval:      cfg.Monitor.CheckInterval,
		GracePeriod:        cfg.Monitor.GracePeriod,
		EventLog:           events,
	}, logger)

	logger.Info("pushwire gateway starting",
		"account_id", cfg.AccountID,
		"endpoint", cfg.Endpoint.URL,
	)

	// Stop the manager on SIGINT/SIGTERM. The context carries through to
	// the initial connect so a signal during backoff also unblocks it.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		manager.Stop()
	}()

	if err := manager.Connect(ctx); err != nil {
		if errors.Is(err, connection.ErrConnectCancelled) || errors.Is(err, context.Canceled) {
			logger.Info("shutdown requested during connect")
			manager.WaitForStop()
			return
		}
		logger.Error("initial connect failed", "error", err)
		manager.Stop()
		os.Exit(1)
	}

	go printNotifications(socket, logger, manager.Done())

	manager.WaitForStop()
	logger.Info("pushwire gateway stopped")
}

// printNotifications drains the inbound stream until shutdown.
func printNotifications(socket *transport.Socket, logger *slog.Logger, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-socket.Messages():
			fmt.Printf("[%s] %s\n", msg.ReceivedAt.Format("15:04:05.000"), msg.Data)
			logger.Debug("notification received", "bytes", len(msg.Data))
		}
	}
}

// newLogger builds the process slog logger at the configured level.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

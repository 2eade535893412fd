package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/me/agentpool/internal/config"
	"github.com/me/agentpool/internal/drone"
	"github.com/me/agentpool/internal/logging"
	"github.com/me/agentpool/internal/loop"
	"github.com/me/agentpool/internal/machines"
	"github.com/me/agentpool/internal/scaler"
	"github.com/me/agentpool/internal/server"
	"github.com/me/agentpool/internal/store"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Status API listen address (overrides config)")
	dbPath := flag.String("db", "", "Audit database path (overrides config)")
	droneURL := flag.String("drone-url", "", "Job-queue server URL (overrides config)")
	machinesURL := flag.String("machines-url", "", "Fleet manager URL (overrides config)")
	pollInterval := flag.Duration("poll-interval", 0, "Tick cadence (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (text, json)")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Flags win over the file.
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *droneURL != "" {
		cfg.Drone.URL = *droneURL
	}
	if *machinesURL != "" {
		cfg.Machines.URL = *machinesURL
	}
	if *pollInterval > 0 {
		cfg.PollInterval = config.Duration(*pollInterval)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFormat != "" {
		cfg.LogFormat = *logFormat
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	// Collaborator tokens come from the environment when the file has none.
	if cfg.Drone.Token == "" {
		cfg.Drone.Token = os.Getenv("DRONE_TOKEN")
	}
	if cfg.Machines.Token == "" {
		cfg.Machines.Token = os.Getenv("MACHINES_TOKEN")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	// Open the audit store and run migrations.
	dbFile := cfg.DBPath
	if dbFile == "" {
		dbFile = ":memory:"
		logger.Warn("no database path configured; audit trail is in-memory only")
	}
	st, err := store.NewSQLiteStore(dbFile, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", dbFile)

	// Wire the collaborators and the decision engine.
	queue := drone.NewClient(cfg.Drone.URL, cfg.Drone.Token)
	fleet := machines.NewClient(cfg.Machines.URL, cfg.Machines.Token)

	scalerCfg := scaler.DefaultConfig()
	if d := time.Duration(cfg.Scaler.PendingExpiry); d > 0 {
		scalerCfg.PendingExpiry = d
	}
	if d := time.Duration(cfg.Scaler.BillingWindow); d > 0 {
		scalerCfg.BillingWindow = d
	}
	if d := time.Duration(cfg.Scaler.StopSlack); d > 0 {
		scalerCfg.StopSlack = d
	}
	if d := time.Duration(cfg.Scaler.MaxAge); d > 0 {
		scalerCfg.MaxAge = d
	}
	rec := scaler.New(queue, fleet, scalerCfg, logger)

	loopCfg := loop.Config{
		PollInterval:     time.Duration(cfg.PollInterval),
		HistoryRetention: time.Duration(cfg.HistoryRetention),
	}
	l := loop.NewLoop(rec, st, loopCfg, logger)

	srv := server.New(l, st, logger)
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := l.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("loop stopped", "error", err)
		}
	}()

	go func() {
		logger.Info("status API starting", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

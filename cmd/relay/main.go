package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xmgamer/liverelay/internal/config"
	"github.com/xmgamer/liverelay/internal/database"
	"github.com/xmgamer/liverelay/internal/hub"
	"github.com/xmgamer/liverelay/internal/monitor"
	"github.com/xmgamer/liverelay/internal/server"
	"github.com/xmgamer/liverelay/internal/sink"
	"github.com/xmgamer/liverelay/internal/upstream"
	"github.com/xmgamer/liverelay/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/relay.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting relay",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded", "listen_addr", cfg.Server.ListenAddr)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Optional stats database and snapshot sink
	var recorder monitor.StatsRecorder = monitor.NopRecorder{}
	var snapshots *sink.SnapshotSink
	var pool *pgxpool.Pool

	if cfg.Database.Enabled() {
		logger.Info("connecting to stats database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)

		pool, err = database.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		snapshots = sink.NewSnapshotSink(cfg.Sink, pool, logger.With("component", "sink"))
		if err := snapshots.Start(ctx); err != nil {
			logger.Error("failed to start snapshot sink", "error", err)
			os.Exit(1)
		}
		recorder = snapshots

		logger.Info("stats database connected")
	} else {
		logger.Info("stats database disabled, snapshots will not be persisted")
	}

	// Wire the relay components
	proxy := upstream.NewProxySettings(cfg.Upstream.Proxy)
	dialer := upstream.NewWebcastDialer(cfg.Upstream, proxy, logger.With("component", "upstream"))
	h := hub.NewHub(cfg.Hub, logger.With("component", "hub"))
	manager := monitor.NewManager(dialer, h, recorder, logger.With("component", "monitor"))

	srv := server.NewServer(manager, h, proxy, logger.With("component", "server"))
	if pool != nil {
		srv.WithDatabase(pool)
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: srv.Handler(),
	}

	logger.Info("relay running",
		"ws_endpoint", "/ws",
		"control_endpoint", "/api/live",
	)

	// Blocks until shutdown is signalled or the listener fails.
	serveErr := serveHTTP(ctx, httpServer, cfg.Server.ShutdownTimeout, logger)

	logger.Info("shutting down...")

	manager.ShutdownAll()
	h.Close()

	if snapshots != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer stopCancel()
		if err := snapshots.Stop(stopCtx); err != nil {
			logger.Warn("snapshot sink stop failed", "error", err)
		}
	}

	if serveErr != nil {
		logger.Error("http server failed", "error", serveErr)
		os.Exit(1)
	}

	logger.Info("relay stopped")
}

// serveHTTP runs the server until ctx is cancelled or the listener
// fails. A failed listen is returned as-is so the caller can exit
// non-zero; a clean shutdown returns nil.
func serveHTTP(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

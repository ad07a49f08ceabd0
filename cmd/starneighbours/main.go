package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/starneighbours/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/starneighbours/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/starneighbours/internal/adapter/driving/http"
	"github.com/ericfisherdev/starneighbours/internal/application"
	"github.com/ericfisherdev/starneighbours/internal/config"
	"github.com/ericfisherdev/starneighbours/internal/logging"
)

// shutdownGrace is added to the query deadline for the server write timeout,
// leaving room to encode and flush a response produced just before the deadline.
const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load .env if present, then configuration (fail fast on missing token).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"request_timeout", cfg.RequestTimeout,
		"query_timeout", cfg.QueryTimeout,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	version, err := db.Migrate()
	if err != nil {
		return err
	}
	slog.Info("migrations complete", "schema_version", version)

	// 5. Wire adapters and services.
	ghClient, err := githubadapter.NewClient(cfg.GitHubToken,
		githubadapter.WithPageTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return err
	}

	tokenStore := sqliteadapter.NewAPITokenRepo(db)
	neighbourSvc := application.NewNeighbourService(ghClient)
	gate := application.NewAccessGate(tokenStore)

	// 6. Create HTTP handler and router.
	apiHandler := httphandler.NewHandler(neighbourSvc, gate, db, cfg.QueryTimeout, logger)
	router := httphandler.NewRouter(apiHandler, logger)

	var writeTimeout time.Duration
	if cfg.QueryTimeout > 0 {
		writeTimeout = cfg.QueryTimeout + shutdownGrace
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// 7. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		return err
	}

	// 8. Graceful shutdown; in-flight queries get their request context canceled.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

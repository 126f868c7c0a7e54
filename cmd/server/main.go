// Command server runs the synthetic record generator HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/mattn/go-sqlite3"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/api"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/app"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/config"
	internaldb "github.com/skinclarityclub/Future-MarketingAI-sub004/internal/db"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/middleware"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/sink"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env fills in anything the environment does not already set.
	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	// Metadata store: single-connection write pool for serialized writes,
	// multi-connection read pool for concurrent reads.
	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.MetaDBPath, 4)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	defer func() { _ = writeDB.Close() }()
	defer func() { _ = readDB.Close() }()

	if err := internaldb.RunMigrations(writeDB); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Record sink: accepted records land in DuckDB tables, one per template.
	// An empty SINK_DB_PATH keeps the sink in memory for the process lifetime.
	sinkDB, err := sink.Open(cfg.SinkDBPath)
	if err != nil {
		return fmt.Errorf("open record sink: %w", err)
	}
	defer func() { _ = sinkDB.Close() }()

	application, err := app.New(ctx, app.Deps{
		Cfg:     cfg,
		WriteDB: writeDB,
		ReadDB:  readDB,
		SinkDB:  sinkDB,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}

	// Bearer JWT when a secret is configured; API keys from the metadata
	// store unless disabled.
	var validator middleware.JWTValidator
	if cfg.Auth.JWTSecret != "" {
		v, err := middleware.NewHS256Validator(cfg.Auth.JWTSecret)
		if err != nil {
			return fmt.Errorf("jwt validator: %w", err)
		}
		validator = v
	}
	var keys middleware.APIKeyLookup
	if cfg.Auth.APIKeyEnabled {
		keys = application.APIKeyReader
	}
	auth := middleware.NewAuthenticator(validator, keys, cfg.Auth, logger)

	handler := api.NewHandler(
		application.Services.Templates,
		application.Lookups,
		application.Services.Generation,
		application.Services.Export,
		application.Runs,
		application.APIKeyWriter,
		logger,
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", cfg.Auth.APIKeyHeader, "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))

	api.MountRoutes(r, handler, auth.Middleware())

	// Backfill cron: periodic generation for templates that declare one.
	if err := application.Services.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer application.Services.Scheduler.Stop()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http api listening", "addr", cfg.ListenAddr, "tls", cfg.TLSCertFile != "")
		logger.Info("example request",
			"curl", fmt.Sprintf("curl -H 'X-API-Key: <key>' http://%s/v1/templates", curlHostForListenAddr(cfg.ListenAddr)))
		if cfg.TLSCertFile != "" {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// curlHostForListenAddr turns a listen address into a host usable in a curl
// example. Wildcard and empty hosts become localhost; anything unparsable is
// passed through untouched.
func curlHostForListenAddr(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		return "localhost:8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}

// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/eyefile/internal/api"
	"github.com/starford/eyefile/internal/files"
	"github.com/starford/eyefile/internal/library"
	"github.com/starford/eyefile/internal/mcpserver"
	"github.com/starford/eyefile/internal/sse"
	"github.com/starford/eyefile/internal/store"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("library_path", cfg.Library.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, root, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Report documents whose files are already missing at startup.
	if paths, err := db.AllFilePaths(); err != nil {
		logger.Warn("startup file check failed", slog.String("error", err.Error()))
	} else {
		for _, p := range root.Missing(paths) {
			logger.Warn("document file missing", slog.String("path", p))
		}
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)

	// Build the library service and API router.
	svc := library.NewService(db, broker)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, root)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	if cfg.Watcher.Enabled {
		g.Go(func() error {
			err := files.Watch(gCtx, db, root, logger, func(kind, path string) {
				broker.PublishFileEvent(kind, path)
			})
			if err != nil {
				logger.Warn("file watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP server on stdin/stdout with the given options.
// Logs go to stderr because stdout carries the MCP transport.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	db, _, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := library.NewService(db, nil)

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc).ServeStdio()
}

// openLibrary creates the library and database directories, opens the
// store and seeds the starter categories.
func openLibrary(cfg *Config) (*store.DB, *files.Root, error) {
	if err := os.MkdirAll(cfg.Library.Path, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create library dir: %w", err)
	}
	if dir := filepath.Dir(cfg.SQLite.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	if err := db.EnsureDefaultCategories(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("seed categories: %w", err)
	}

	root, err := files.NewRoot(cfg.Library.Path)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("open library root: %w", err)
	}

	return db, root, nil
}

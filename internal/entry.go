// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mimir-notes/mimir/internal/api"
	"github.com/mimir-notes/mimir/internal/index"
	"github.com/mimir-notes/mimir/internal/mcpserver"
	"github.com/mimir-notes/mimir/internal/noteservice"
	"github.com/mimir-notes/mimir/internal/sse"
	"github.com/mimir-notes/mimir/internal/vault"
)

// Run starts the HTTP server, and in fs mode the index watcher.
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
	logW := io.Writer(os.Stdout)
	if app.logW != nil {
		logW = app.logW
	}
	logger := slog.New(slog.NewJSONHandler(logW, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_mode", cfg.Vault.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	acc, db, err := buildVault(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	broker := sse.NewBroker(logger)
	defer broker.Close()

	svc := newService(cfg, acc, db)

	authToken := ""
	if cfg.Auth.AuthEnabled() {
		authToken = cfg.Auth.Token
	}
	router := api.NewRouter(svc, broker, authToken, logger)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: router,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the vault for external edits (fs mode only).
	if cfg.Vault.Mode == VaultModeFS && db != nil {
		g.Go(func() error {
			index.Watch(gCtx, db, acc, cfg.Vault.Path, logger, func(kind, path string) {
				broker.PublishNoteEvent("note."+kind, path)
			})
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

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

// RunMCP serves the MCP tool surface over stdio. Logs go to stderr since
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logW := io.Writer(os.Stderr)
	if app.logW != nil {
		logW = app.logW
	}
	logger := slog.New(slog.NewJSONHandler(logW, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	acc, db, err := buildVault(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()

		// Keep the search index fresh while the session runs.
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go index.Watch(watchCtx, db, acc, cfg.Vault.Path, logger, nil)
	}

	svc := newService(cfg, acc, db)

	logger.Info("Starting MCP server on stdio", slog.String("vault_mode", cfg.Vault.Mode))
	return mcpserver.New(svc).ServeStdio()
}

// buildVault constructs the accessor for the configured mode. The returned
// DB is nil in rest mode.
func buildVault(cfg *Config, logger *slog.Logger) (vault.Accessor, *index.DB, error) {
	switch cfg.Vault.Mode {
	case VaultModeREST:
		acc, err := vault.NewREST(cfg.Vault.BaseURL, cfg.Vault.Token)
		if err != nil {
			return nil, nil, fmt.Errorf("init rest vault: %w", err)
		}
		return acc, nil, nil

	default:
		if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create vault dir: %w", err)
		}
		acc, err := vault.NewFS(cfg.Vault.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init vault: %w", err)
		}
		db, err := index.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init index: %w", err)
		}
		if err := index.Sync(context.Background(), db, acc, logger); err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
		return acc, db, nil
	}
}

func newService(cfg *Config, acc vault.Accessor, db *index.DB) *noteservice.Service {
	var idx index.NoteIndex
	if db != nil {
		idx = db
	}
	return noteservice.NewService(acc, idx, noteservice.AnalyzerConfig{
		MaxNotes:    cfg.Analyzer.MaxNotes,
		Concurrency: cfg.Analyzer.Concurrency,
		Timeout:     cfg.Analyzer.Timeout(),
	})
}

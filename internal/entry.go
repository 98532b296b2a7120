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
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avila-roffe/ansuz/internal/agentservice"
	"github.com/avila-roffe/ansuz/internal/httpapi"
	"github.com/avila-roffe/ansuz/internal/mcpserver"
	"github.com/avila-roffe/ansuz/internal/repository"
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

	// Structured JSON logger on stderr; stdout belongs to the stdio
	// MCP transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("mode", cfg.App.Mode),
		slog.String("repository", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo),
		slog.Bool("token_present", cfg.GitHub.Token != ""),
		slog.String("log_level", cfg.App.LogLevel.String()))

	repo := app.repo
	if repo == nil {
		repo = repository.NewGitHub(cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.Token)
	}

	svc := agentservice.NewService(repo, cfg.GitHub.ExcludedFolders, logger)
	srv := mcpserver.New(svc)

	if cfg.App.Mode == ModeStdio {
		logger.Info("Serving MCP over stdio")
		return srv.ServeStdio()
	}

	router := httpapi.NewRouter(srv.MCPServer(), cfg.Auth.AuthEnabled(), cfg.Auth.Token)
	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: router,
	}

	g, gCtx := errgroup.WithContext(ctx)

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

	logger.Info("Server stopped")
	return nil
}

// Package main provides the HTTP and MCP server entry point for document question answering.
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

	"github.com/bull/docqa/internal/api"
	"github.com/bull/docqa/internal/app"
	"github.com/bull/docqa/internal/config"
	mcpserver "github.com/bull/docqa/internal/mcp"
)

func main() {
	// Stdout carries the MCP stdio stream, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg := config.Load()
	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	mcp := mcpserver.NewServer(&mcpserver.Config{
		Service:         a.Service,
		AllowLocalFiles: !cfg.ServerMode,
		MaxFileBytes:    cfg.MaxUploadBytes,
		Logger:          logger,
	})

	handler := api.NewServer(a.Service, logger, api.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		Metrics:        a.Metrics,
		MCP:            mcpserver.NewHTTPHandler(mcp, &mcpserver.HTTPHandlerOptions{Logger: logger}),
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", "addr", srv.Addr, "server_mode", cfg.ServerMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	if cfg.ServerMode {
		<-ctx.Done()
	} else {
		// Stdio mode: run MCP server over stdin/stdout for local clients,
		// with the HTTP API still available in the background.
		logger.Info("Starting MCP server (stdio mode)")
		if err := mcp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("MCP server error", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fele-systems/memendex/internal/mcpserver"
	"github.com/fele-systems/memendex/internal/memeservice"
	"github.com/fele-systems/memendex/internal/repo"
	"github.com/fele-systems/memendex/internal/storage"
	"github.com/fele-systems/memendex/internal/thumbnail"
)

// RunMCP serves the MCP tools over stdio. Logs go to stderr since
// stdout carries the protocol.
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

	if err := ensureDir(cfg.Storage.UploadPath); err != nil {
		return err
	}
	if err := ensureDir(cfg.Storage.CachePath); err != nil {
		return err
	}

	store, err := storage.NewFS(cfg.Storage.UploadPath)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	db, err := repo.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init repo: %w", err)
	}
	defer db.Close()
	thumbs, err := thumbnail.NewCache(cfg.Storage.CachePath, store)
	if err != nil {
		return fmt.Errorf("init thumbnail cache: %w", err)
	}

	svc := memeservice.New(db, store, thumbs)

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc).ServeStdio()
}

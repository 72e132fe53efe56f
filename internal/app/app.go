// Package app builds the process-wide dependencies once at startup and hands
// them to the presentation surfaces by reference.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hpungsan/wishlist/internal/config"
	"github.com/hpungsan/wishlist/internal/dao"
	"github.com/hpungsan/wishlist/internal/db"
	"github.com/hpungsan/wishlist/internal/repository"
	"github.com/hpungsan/wishlist/internal/state"
)

// App holds shared dependencies.
type App struct {
	BaseDir string
	Config  *config.Config
	Logger  *slog.Logger
	DB      *sql.DB
	DAO     *dao.SQLite
	Repo    *repository.Repository
}

// Open initializes the database in baseDir and wires the storage stack.
// Logs go to logOut (stderr in production; stdout carries command output).
func Open(baseDir string, cfg *config.Config, logOut io.Writer) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := NewLogger(logOut, cfg)

	database, err := db.Init(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db.ConfigurePool(database, cfg)
	logger.Debug("database initialized", "path", db.Path(baseDir))

	d := dao.New(database, logger)

	return &App{
		BaseDir: baseDir,
		Config:  cfg,
		Logger:  logger,
		DB:      database,
		DAO:     d,
		Repo:    repository.New(d),
	}, nil
}

// NewLogger creates a text slog logger at the configured level.
func NewLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if w == nil {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// NewHolder creates a state holder over the shared repository.
// The caller owns it and must Close it.
func (a *App) NewHolder(opts ...state.Option) *state.Holder {
	return state.New(a.Repo, a.Logger, opts...)
}

// WatchExternal forwards writes made by other processes to live sequences
// until ctx is cancelled.
func (a *App) WatchExternal(ctx context.Context) {
	w := dao.NewWatcher(db.Path(a.BaseDir), a.DAO, a.Logger,
		dao.WithPollInterval(time.Duration(a.Config.WatchPollSeconds)*time.Second),
	)
	go w.Run(ctx)
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}

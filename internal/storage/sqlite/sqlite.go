// Package sqlitestorage implements the storage.Backend interface on a SQLite
// file using the pure-Go glebarez driver. It wraps the GORM backend via
// composition; the only SQLite-specific concern is opening the file.
package sqlitestorage

import (
	"fmt"
	"log/slog"

	"github.com/falconvolei/quadro/internal/config"
	"github.com/falconvolei/quadro/internal/database"
	gormstorage "github.com/falconvolei/quadro/internal/storage/gorm"

	"github.com/rs/zerolog"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
	cfg     config.SQLiteConfig
}

// New opens the SQLite database at cfg.Path. An empty path opens an
// in-memory database.
func New(cfg config.SQLiteConfig, dbLog zerolog.Logger, logger *slog.Logger) (*Backend, error) {
	manager := database.NewManager(dbLog, cfg.Path)
	db, err := manager.GetSqliteDB(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}
	manager.DB = db
	manager.ShouldSaveLocal = true

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: db, Logger: logger}),
		manager: manager,
		cfg:     cfg,
	}, nil
}

// Init runs the schema setup and then the embedded GORM backend's Init.
func (b *Backend) Init() error {
	if err := b.manager.Setup(); err != nil {
		return err
	}
	return b.Backend.Init()
}

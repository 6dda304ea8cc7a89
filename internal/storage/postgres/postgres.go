// Package postgres implements the storage.Backend interface on PostgreSQL.
// When the server cannot be reached the database manager falls back to a
// local SQLite file, so the board keeps persisting.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/falconvolei/quadro/internal/database"
	gormstorage "github.com/falconvolei/quadro/internal/storage/gorm"
)

// Backend wraps the GORM backend with a managed Postgres connection.
type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
	logger  *slog.Logger
}

// New creates a Postgres backend. The connection is opened by Init.
func New(manager *database.Manager, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		manager: manager,
		logger:  logger,
	}
}

// Init connects, migrates the schema and readies the embedded GORM backend.
func (b *Backend) Init() error {
	if err := b.manager.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	if b.manager.ShouldSaveLocal {
		b.logger.Warn("postgres unavailable, storing board state in SQLite", "path", b.manager.SqliteFilePath)
	}
	if err := b.manager.Setup(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{DB: b.manager.DB, Logger: b.logger})
	return b.Backend.Init()
}

// Close closes the connection if Init succeeded.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return b.Backend.Close()
}

// Get returns the value stored under key.
func (b *Backend) Get(key string) ([]byte, error) {
	if b.Backend == nil {
		return nil, fmt.Errorf("get %s: backend not initialized", key)
	}
	return b.Backend.Get(key)
}

// Put stores value under key.
func (b *Backend) Put(key string, value []byte) error {
	if b.Backend == nil {
		return fmt.Errorf("put %s: backend not initialized", key)
	}
	return b.Backend.Put(key, value)
}

// FellBack reports whether the backend is writing to the local SQLite file.
func (b *Backend) FellBack() bool {
	return b.manager.ShouldSaveLocal
}

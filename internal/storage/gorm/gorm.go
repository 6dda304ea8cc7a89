// Package gormstorage implements the storage.Backend interface as a
// key-value table over any GORM dialect. The SQLite and Postgres backends
// embed it and only differ in how the connection is obtained.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/falconvolei/quadro/internal/model"
	"github.com/falconvolei/quadro/internal/storage"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

// Backend implements storage.Backend on a records table.
type Backend struct {
	deps    Dependencies
	dbReady bool
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{
		deps: deps,
	}
}

// Init migrates the records table.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("gorm backend: no database")
	}
	if err := b.deps.DB.AutoMigrate(&model.Record{}); err != nil {
		return fmt.Errorf("failed to migrate records: %w", err)
	}
	b.dbReady = true
	b.deps.Logger.Debug("records table ready", "dialect", b.deps.DB.Dialector.Name())
	return nil
}

// Close releases the connection pool.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return err
	}
	b.dbReady = false
	return sqlDB.Close()
}

// Get returns the value stored under key.
func (b *Backend) Get(key string) ([]byte, error) {
	if !b.dbReady {
		return nil, fmt.Errorf("get %s: database not ready", key)
	}

	var rec model.Record
	err := b.deps.DB.Where(&model.Record{Key: key}).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(rec.Value), nil
}

// Put upserts the value stored under key.
func (b *Backend) Put(key string, value []byte) error {
	if !b.dbReady {
		return fmt.Errorf("put %s: database not ready", key)
	}

	rec := model.Record{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now().UTC(),
	}
	err := b.deps.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

package main

import (
	"fmt"
	"log/slog"

	"github.com/falconvolei/quadro/internal/config"
	"github.com/falconvolei/quadro/internal/database"
	"github.com/falconvolei/quadro/internal/storage"
	"github.com/falconvolei/quadro/internal/storage/memory"
	pgstorage "github.com/falconvolei/quadro/internal/storage/postgres"
	sqlitestorage "github.com/falconvolei/quadro/internal/storage/sqlite"
	"github.com/rs/zerolog"
)

func createStorageBackend(storageCfg config.StorageConfig, dbLog zerolog.Logger, logger *slog.Logger) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		// Falls back to the SQLite file when Postgres is unreachable.
		manager := database.NewManager(dbLog, storageCfg.SQLite.Path)
		return pgstorage.New(manager, logger), nil

	case "sqlite":
		backend, err := sqlitestorage.New(storageCfg.SQLite, dbLog, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		return backend, nil

	case "memory", "":
		return memory.New(storageCfg.Memory, logger), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

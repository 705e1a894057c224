// Package backend selects and wires the persistence implementation.
package backend

import (
	"fmt"
	"log/slog"

	"billa/internal/config"
	"billa/internal/store"
	"billa/internal/store/memory"
	"billa/internal/storage"
)

type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

func (t Type) Valid() bool {
	switch t {
	case SQLite, Memory:
		return true
	}
	return false
}

// Open creates the store selected by cfg.DataBackend. The caller owns
// the returned store and must Close it.
func Open(cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := Type(cfg.DataBackend)
	switch t {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return repo, nil
	case Memory:
		logger.Info("Initialized memory backend")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}

// Package persistence records finished runs.
package persistence

import (
	"errors"
	"log"

	"radio-survival/internal/config"
	"radio-survival/internal/game"
)

// ErrNotFound is returned by LoadRun for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Storage defines the interface for run persistence
type Storage interface {
	SaveRun(rec game.RunRecord) error
	LoadRun(runID uint64) (*game.RunRecord, error)
	TopRuns(limit int) ([]game.RunRecord, error)
	// LastRunID returns the highest stored run ID, or 0 when empty.
	LastRunID() (uint64, error)
	Close() error
}

// Open returns PostgreSQL storage when a database URL is configured and a
// JSON file otherwise.
func Open(cfg config.StorageConfig) (Storage, error) {
	if cfg.DatabaseURL != "" {
		store, err := NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Println("🗄️ Recording runs in PostgreSQL")
		return store, nil
	}

	store, err := NewJSONStore(cfg.JSONPath)
	if err != nil {
		return nil, err
	}
	log.Printf("🗄️ Recording runs in %s", cfg.JSONPath)
	return store, nil
}

// better reports whether a ranks above b: more days survived, then more kills.
func better(a, b game.RunRecord) bool {
	if a.Days != b.Days {
		return a.Days > b.Days
	}
	if a.Kills != b.Kills {
		return a.Kills > b.Kills
	}
	return a.RunID < b.RunID
}

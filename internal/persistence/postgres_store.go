package persistence

import (
	"database/sql"
	"errors"
	"fmt"

	"radio-survival/internal/game"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresStore keeps run records in PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to the database and creates the schema.
func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %v", err)
	}

	return store, nil
}

func (ps *PostgresStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id BIGINT PRIMARY KEY,
		outcome VARCHAR(16) NOT NULL,
		days INTEGER NOT NULL,
		kills INTEGER NOT NULL,
		parts INTEGER NOT NULL,
		duration DOUBLE PRECISION NOT NULL,
		ended_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_rank ON runs(days DESC, kills DESC);
	`

	_, err := ps.db.Exec(query)
	return err
}

// SaveRun stores or replaces a run record
func (ps *PostgresStore) SaveRun(rec game.RunRecord) error {
	query := `
	INSERT INTO runs (run_id, outcome, days, kills, parts, duration, ended_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (run_id) DO UPDATE SET
		outcome = EXCLUDED.outcome,
		days = EXCLUDED.days,
		kills = EXCLUDED.kills,
		parts = EXCLUDED.parts,
		duration = EXCLUDED.duration,
		ended_at = EXCLUDED.ended_at
	`

	_, err := ps.db.Exec(query, int64(rec.RunID), rec.Outcome, rec.Days, rec.Kills,
		rec.Parts, rec.Duration, rec.EndedAt)
	if err != nil {
		return fmt.Errorf("failed to save run %d: %v", rec.RunID, err)
	}
	return nil
}

// LoadRun loads a run record by ID
func (ps *PostgresStore) LoadRun(runID uint64) (*game.RunRecord, error) {
	query := `
	SELECT run_id, outcome, days, kills, parts, duration, ended_at
	FROM runs WHERE run_id = $1
	`

	rec, err := scanRun(ps.db.QueryRow(query, int64(runID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %v", err)
	}
	return &rec, nil
}

// TopRuns returns up to limit runs, longest survival first
func (ps *PostgresStore) TopRuns(limit int) ([]game.RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
	SELECT run_id, outcome, days, kills, parts, duration, ended_at
	FROM runs ORDER BY days DESC, kills DESC, run_id ASC LIMIT $1
	`

	rows, err := ps.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %v", err)
	}
	defer rows.Close()

	var runs []game.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %v", err)
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// LastRunID returns the highest stored run ID
func (ps *PostgresStore) LastRunID() (uint64, error) {
	var last int64
	if err := ps.db.QueryRow(`SELECT COALESCE(MAX(run_id), 0) FROM runs`).Scan(&last); err != nil {
		return 0, fmt.Errorf("failed to read last run id: %v", err)
	}
	return uint64(last), nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (game.RunRecord, error) {
	var rec game.RunRecord
	var id int64
	err := row.Scan(&id, &rec.Outcome, &rec.Days, &rec.Kills, &rec.Parts, &rec.Duration, &rec.EndedAt)
	rec.RunID = uint64(id)
	return rec, err
}

// Close closes the database connection
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

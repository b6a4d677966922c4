package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store persists runs and their episodes to a SQLite database. It is safe
// for use from the simulation goroutine plus a closer.
type Store struct {
	path  string
	runID string

	mu sync.RWMutex
	db *sql.DB
}

// NewStore creates a store for the database at path. Each store instance
// owns one run, identified by a fresh UUID.
func NewStore(path string) *Store {
	return &Store{path: path, runID: uuid.NewString()}
}

// RunID returns the identity of the run this store writes.
func (s *Store) RunID() string {
	if s == nil {
		return ""
	}
	return s.runID
}

// Init opens the database and creates the schema.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("telemetry: sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// BeginRun registers the run row. Call once after Init.
func (s *Store) BeginRun(ctx context.Context, seed int64, training bool) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, seed, training)
		VALUES (?, ?, ?, ?)
	`, s.runID, time.Now().UTC().Format(time.RFC3339), seed, training)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", s.runID, err)
	}
	return nil
}

// SaveEpisode persists one episode record under the current run.
func (s *Store) SaveEpisode(ctx context.Context, rec EpisodeRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO episodes (run_id, episode, steps, nectar, reward, feeds, boundary_hits)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, episode) DO UPDATE SET
			steps = excluded.steps,
			nectar = excluded.nectar,
			reward = excluded.reward,
			feeds = excluded.feeds,
			boundary_hits = excluded.boundary_hits
	`, s.runID, rec.Episode, rec.Steps, rec.Nectar, rec.Reward, rec.Feeds, rec.BoundaryHits)
	return err
}

// Episodes returns the episode records of a run in episode order.
func (s *Store) Episodes(ctx context.Context, runID string) ([]EpisodeRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT episode, steps, nectar, reward, feeds, boundary_hits
		FROM episodes WHERE run_id = ? ORDER BY episode
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []EpisodeRecord
	for rows.Next() {
		var rec EpisodeRecord
		if err := rows.Scan(&rec.Episode, &rec.Steps, &rec.Nectar, &rec.Reward, &rec.Feeds, &rec.BoundaryHits); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) getDB() (*sql.DB, error) {
	if s == nil {
		return nil, errors.New("telemetry: store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("telemetry: store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			seed INTEGER NOT NULL,
			training INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS episodes (
			run_id TEXT NOT NULL,
			episode INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			nectar REAL NOT NULL,
			reward REAL NOT NULL,
			feeds INTEGER NOT NULL,
			boundary_hits INTEGER NOT NULL,
			PRIMARY KEY (run_id, episode)
		);
	`)
	return err
}

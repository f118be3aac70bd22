// Package repository provides the SQLite-backed store for people, evidence,
// notes, insights, and outcomes. Scoring never reads through caches: views
// are recomputed from whatever this store returns at read time.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rapporthq/rapport/pkg/metrics"
)

// Store wraps SQLite access. Safe for concurrent use; SQLite serializes
// writers underneath.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_foreign_keys=on", path, cfg.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// One connection keeps writers serialized and makes :memory: databases
	// behave; sql.DB would otherwise open a fresh empty one per connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS people (
		id             TEXT PRIMARY KEY,
		display_name   TEXT NOT NULL,
		roles          TEXT NOT NULL DEFAULT '',
		archived       INTEGER NOT NULL DEFAULT 0,
		last_synced_at DATETIME,
		created_at     DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_people_archived ON people(archived);

	CREATE TABLE IF NOT EXISTS evidence (
		id          TEXT PRIMARY KEY,
		kind        TEXT NOT NULL,
		occurred_at DATETIME NOT NULL,
		ended_at    DATETIME,
		source_ref  TEXT NOT NULL DEFAULT '',
		summary     TEXT NOT NULL DEFAULT '',
		reviewed    INTEGER NOT NULL DEFAULT 0,
		created_at  DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_evidence_occurred_at ON evidence(occurred_at);
	CREATE INDEX IF NOT EXISTS idx_evidence_kind ON evidence(kind);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_evidence_source_ref
		ON evidence(source_ref) WHERE source_ref <> '';

	CREATE TABLE IF NOT EXISTS evidence_people (
		evidence_id TEXT NOT NULL REFERENCES evidence(id),
		person_id   TEXT NOT NULL REFERENCES people(id),
		PRIMARY KEY (evidence_id, person_id)
	);
	CREATE INDEX IF NOT EXISTS idx_ep_person ON evidence_people(person_id);

	CREATE TABLE IF NOT EXISTS notes (
		id          TEXT PRIMARY KEY,
		body        TEXT NOT NULL,
		evidence_id TEXT NOT NULL REFERENCES evidence(id),
		created_at  DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_notes_evidence ON notes(evidence_id);

	CREATE TABLE IF NOT EXISTS insights (
		id          TEXT PRIMARY KEY,
		person_id   TEXT NOT NULL,
		evidence_id TEXT NOT NULL,
		kind        TEXT NOT NULL,
		body        TEXT NOT NULL,
		confidence  REAL NOT NULL DEFAULT 0,
		model       TEXT NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_insights_person ON insights(person_id);

	CREATE TABLE IF NOT EXISTS outcomes (
		id             TEXT PRIMARY KEY,
		person_id      TEXT NOT NULL,
		evidence_id    TEXT NOT NULL DEFAULT '',
		cause_key      TEXT NOT NULL,
		kind           TEXT NOT NULL,
		title          TEXT NOT NULL,
		detail         TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL,
		priority_score REAL NOT NULL DEFAULT 0,
		default_action TEXT NOT NULL,
		rating         INTEGER NOT NULL DEFAULT 0,
		created_at     DATETIME NOT NULL,
		resolved_at    DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_cause ON outcomes(cause_key);
	CREATE INDEX IF NOT EXISTS idx_outcomes_status ON outcomes(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// observe wraps a store call with latency and error metrics.
func observe(isWrite bool, fn func() error) error {
	start := time.Now()
	err := fn()
	ms := float64(time.Since(start).Milliseconds())
	if isWrite {
		metrics.RecordStoreWriteLatency(ms)
	} else {
		metrics.RecordStoreQueryLatency(ms)
	}
	if err != nil {
		metrics.RecordStoreError()
	}
	return err
}

// ctxDone short-circuits long scans when the caller is gone.
func ctxDone(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Package sqlite persists the rewards engine record.
//
// The engine's whole record is saved as one serialized row per storage
// namespace, so a save is atomic by construction. Alongside the snapshot, an
// append_log audit table keeps every ledger event ever written; the durable
// history outlives the engine's in-memory retention cap.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/glowcircle/glow/internal/domain"
)

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Engine record snapshots, one row per namespace
		`CREATE TABLE IF NOT EXISTS engine_state (
			namespace  TEXT PRIMARY KEY,
			record     TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Append-only audit trail of ledger events
		`CREATE TABLE IF NOT EXISTS append_log (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			namespace  TEXT NOT NULL,
			event_id   TEXT NOT NULL,
			reason     TEXT NOT NULL,
			delta      INTEGER NOT NULL,
			related_id TEXT,
			event_at   TEXT NOT NULL,
			UNIQUE(namespace, event_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_append_log_ns ON append_log(namespace, id)`,
	}
}

// ─── Store ──────────────────────────────────────────────────────────────────

// Store is a sqlite-backed domain.StateStore.
type Store struct {
	db        *sql.DB
	namespace string
}

// Open opens (creating if needed) the database at path and applies the
// schema. namespace keys this session's record.
func Open(path, namespace string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single logical writer; serialized access avoids SQLITE_BUSY surprises.
	db.SetMaxOpenConns(1)

	for _, stmt := range Migrations() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply migration: %w", err)
		}
	}
	return &Store{db: db, namespace: namespace}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the stored record, or a fresh empty record if this namespace
// has never been saved.
func (s *Store) Load() (*domain.State, error) {
	var record string
	err := s.db.QueryRow(`
		SELECT record FROM engine_state WHERE namespace = ?
	`, s.namespace).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}

	st := domain.NewState()
	if err := json.Unmarshal([]byte(record), st); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptState, err)
	}
	return st, nil
}

// Save replaces the stored record and backfills the audit trail in one
// transaction. Either the whole save lands or none of it does.
func (s *Store) Save(st *domain.State) error {
	record, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO engine_state (namespace, record, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(namespace) DO UPDATE SET
			record     = excluded.record,
			updated_at = datetime('now')
	`, s.namespace, string(record)); err != nil {
		return fmt.Errorf("save record: %w", err)
	}

	for _, ev := range st.Ledger {
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO append_log (namespace, event_id, reason, delta, related_id, event_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, s.namespace, ev.ID, string(ev.Reason), ev.Delta, ev.RelatedID, ev.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00")); err != nil {
			return fmt.Errorf("audit event %s: %w", ev.ID, err)
		}
	}

	return tx.Commit()
}

// AuditCount returns the number of audited events for this namespace.
// The audit trail only grows; retention trimming never touches it.
func (s *Store) AuditCount() (int64, error) {
	var n int64
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM append_log WHERE namespace = ?
	`, s.namespace).Scan(&n)
	return n, err
}

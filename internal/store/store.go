package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	// Timestamps are UTC epoch milliseconds throughout. Day-level matching
	// uses strftime over recorded_at/1000, which evaluates in UTC.
	const ddl = `
	CREATE TABLE IF NOT EXISTS counters (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		icon        TEXT NOT NULL DEFAULT '',
		cadence     TEXT NOT NULL DEFAULT 'none',
		target      INTEGER,
		archived    INTEGER NOT NULL DEFAULT 0,
		created_at  INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		counter_id    INTEGER NOT NULL REFERENCES counters(id) ON DELETE CASCADE,
		count         INTEGER NOT NULL DEFAULT 0,
		recorded_at   INTEGER NOT NULL,
		target        INTEGER,
		edited_count  INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_counter  ON snapshots(counter_id);
	CREATE INDEX IF NOT EXISTS idx_snapshots_recorded ON snapshots(recorded_at);

	CREATE TABLE IF NOT EXISTS notes (
		counter_id  INTEGER NOT NULL REFERENCES counters(id) ON DELETE CASCADE,
		recorded_at INTEGER NOT NULL,
		body        TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (counter_id, recorded_at)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('date_format',   'dd/MM/yyyy'),
		('dynamic_color', '0'),
		('accent_color',  '#6C63FF'),
		('show_archived', '0');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/tally/tally.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "tally", "tally.db"), nil
}

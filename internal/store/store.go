package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for recorded scans and matches.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS scans (
  id              INTEGER PRIMARY KEY,
  root_path       TEXT NOT NULL,
  started_at      TIMESTAMP,
  completed_at    TIMESTAMP,
  match_count     INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS matches (
  id              INTEGER PRIMARY KEY,
  scan_id         INTEGER NOT NULL REFERENCES scans(id),
  module_path     TEXT NOT NULL,
  name            TEXT NOT NULL,
  kind            TEXT,
  value           TEXT,
  created_at      TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_matches_scan ON matches(scan_id);
CREATE INDEX IF NOT EXISTS idx_matches_name ON matches(name);
`

// InsertScan inserts a scan row and returns its assigned ID.
func (s *Store) InsertScan(scan *Scan) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO scans (root_path, started_at, match_count) VALUES (?, ?, 0)",
		scan.RootPath, scan.StartedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert scan: %w", err)
	}
	return res.LastInsertId()
}

// CompleteScan stamps a scan row with its completion time and final
// match count.
func (s *Store) CompleteScan(scanID int64, matchCount int) error {
	_, err := s.db.Exec(
		"UPDATE scans SET completed_at = ?, match_count = ? WHERE id = ?",
		time.Now(), matchCount, scanID,
	)
	if err != nil {
		return fmt.Errorf("complete scan: %w", err)
	}
	return nil
}

// ScanByID returns one scan row, or nil if it doesn't exist.
func (s *Store) ScanByID(id int64) (*Scan, error) {
	row := s.db.QueryRow(
		"SELECT id, root_path, started_at, completed_at, match_count FROM scans WHERE id = ?", id,
	)
	var scan Scan
	err := row.Scan(&scan.ID, &scan.RootPath, &scan.StartedAt, &scan.CompletedAt, &scan.MatchCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan by id: %w", err)
	}
	return &scan, nil
}

// InsertMatch inserts a match row and returns its assigned ID.
func (s *Store) InsertMatch(m *Match) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO matches (scan_id, module_path, name, kind, value, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		m.ScanID, m.ModulePath, m.Name, m.Kind, m.Value, m.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert match: %w", err)
	}
	return res.LastInsertId()
}

// MatchesByScan returns all matches recorded under one scan, ordered by
// module path then member name.
func (s *Store) MatchesByScan(scanID int64) ([]*Match, error) {
	return s.queryMatches(
		"SELECT id, scan_id, module_path, name, kind, value, created_at FROM matches WHERE scan_id = ? ORDER BY module_path, name",
		scanID,
	)
}

// MatchesByName returns every recorded match with the given member name,
// across all scans.
func (s *Store) MatchesByName(name string) ([]*Match, error) {
	return s.queryMatches(
		"SELECT id, scan_id, module_path, name, kind, value, created_at FROM matches WHERE name = ? ORDER BY scan_id, module_path",
		name,
	)
}

func (s *Store) queryMatches(query string, args ...any) ([]*Match, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var matches []*Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.ScanID, &m.ModulePath, &m.Name, &m.Kind, &m.Value, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		matches = append(matches, &m)
	}
	return matches, rows.Err()
}

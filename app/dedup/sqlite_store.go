package dedup

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps the fingerprint set in a single-table SQLite database.
// In-memory semantics match FileStore; the database is only touched by Load
// and Flush, with Flush rewriting the table in one transaction.
type SQLiteStore struct {
	path string
	db   *sql.DB
	seen map[string]time.Time
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{
		path: path,
		seen: make(map[string]time.Time),
	}
}

func (s *SQLiteStore) Load() error {
	db, err := s.open()
	if err != nil {
		// An unreadable database is treated like a corrupt flat file: set
		// the bad one aside, warn, and start empty rather than abort.
		slog.Warn("Dedup store unreadable, starting empty", "path", s.path, "error", err)
		if renameErr := os.Rename(s.path, s.path+".corrupt"); renameErr != nil && !os.IsNotExist(renameErr) {
			return fmt.Errorf("failed to set aside corrupt dedup store: %w", renameErr)
		}
		db, err = s.open()
		if err != nil {
			return fmt.Errorf("failed to reinitialize dedup store: %w", err)
		}
	}
	s.db = db

	rows, err := s.db.Query("SELECT fingerprint, seen_at FROM seen")
	if err != nil {
		return fmt.Errorf("failed to read dedup store: %w", err)
	}
	defer rows.Close()

	skipped := 0
	for rows.Next() {
		var fp, seenAtRaw string
		if err := rows.Scan(&fp, &seenAtRaw); err != nil {
			return fmt.Errorf("failed to scan dedup row: %w", err)
		}
		seenAt, err := time.Parse(time.RFC3339, seenAtRaw)
		if err != nil {
			skipped++
			continue
		}
		s.seen[fp] = seenAt.UTC()
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating dedup rows: %w", err)
	}

	if skipped > 0 {
		slog.Warn("Skipped dedup rows with malformed timestamps", "path", s.path, "skipped", skipped)
	}
	slog.Debug("Dedup store loaded", "path", s.path, "entries", len(s.seen))
	return nil
}

func (s *SQLiteStore) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS seen (
		fingerprint TEXT PRIMARY KEY,
		seen_at TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func (s *SQLiteStore) Contains(fp string) bool {
	_, ok := s.seen[fp]
	return ok
}

func (s *SQLiteStore) MarkSeen(fp string, seenAt time.Time) {
	if _, ok := s.seen[fp]; ok {
		return
	}
	s.seen[fp] = seenAt.UTC()
}

func (s *SQLiteStore) Flush() error {
	if s.db == nil {
		return fmt.Errorf("dedup store not loaded")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin flush transaction: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM seen"); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear dedup table: %w", err)
	}
	for fp, seenAt := range s.seen {
		if _, err := tx.Exec("INSERT INTO seen (fingerprint, seen_at) VALUES (?, ?)",
			fp, seenAt.Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to write dedup row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dedup store: %w", err)
	}

	slog.Debug("Dedup store flushed", "path", s.path, "entries", len(s.seen))
	return nil
}

func (s *SQLiteStore) EvictOlderThan(horizon time.Duration) int {
	if horizon <= 0 {
		return 0
	}
	cutoff := time.Now().UTC().Add(-horizon)
	evicted := 0
	for fp, seenAt := range s.seen {
		if seenAt.Before(cutoff) {
			delete(s.seen, fp)
			evicted++
		}
	}
	return evicted
}

func (s *SQLiteStore) Len() int {
	return len(s.seen)
}

// Close releases the underlying database handle
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

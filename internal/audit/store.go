package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"loom/internal/config"
	"loom/internal/fleet"
)

// Store persists the command journal in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Entry is one journaled fleet command.
type Entry struct {
	ID        int64
	CommandID string
	WorkerID  string
	Action    fleet.Action
	Queue     string
	Option    int
	Outcome   string
	Detail    string
	CreatedAt time.Time
}

// Open initializes or connects to the journal database at the
// configured path. Schema migrations run under a file lock so
// concurrent invocations do not race on initialization; the lock is
// released before Open returns.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.Audit.Path
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}

	lock := flock.New(dbPath + ".lock")
	if err := lock.Lock(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("acquire journal lock: %w", err)
	}
	migrateErr := store.applyMigrations(context.Background())
	if unlockErr := lock.Unlock(); unlockErr != nil && migrateErr == nil {
		migrateErr = fmt.Errorf("release journal lock: %w", unlockErr)
	}
	if migrateErr != nil {
		_ = db.Close()
		return nil, migrateErr
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the journal database path.
func (s *Store) Path() string {
	return s.path
}

// RecordCommand appends one dispatched command to the journal.
func (s *Store) RecordCommand(ctx context.Context, record fleet.CommandRecord) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO command_log (command_id, worker_id, action, queue, option, outcome, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.WorkerID, string(record.Action), record.Queue,
		record.Option, record.Outcome, record.Detail,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert command record: %w", err)
	}
	return nil
}

// Recent returns the newest journal entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command_id, worker_id, action, queue, option, outcome, detail, created_at
		 FROM command_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query command log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			action    string
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.CommandID, &entry.WorkerID, &action,
			&entry.Queue, &entry.Option, &entry.Outcome, &entry.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan command record: %w", err)
		}
		entry.Action = fleet.Action(action)
		if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			entry.CreatedAt = parsed
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate command log: %w", err)
	}
	return entries, nil
}

package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Action identifies which command produced a journal entry.
type Action string

const (
	ActionTry   Action = "try"
	ActionSync  Action = "sync"
	ActionAdopt Action = "adopt"
)

// Outcome is the recorded result of a command.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeNoop    Outcome = "noop"
	OutcomeFailure Outcome = "failure"
)

// Entry is one reconciliation history record.
type Entry struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	Subject   string    `json:"subject"` // spec or plugin name the command acted on
	Outcome   Outcome   `json:"outcome"`
	Error     *string   `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Journal is the append-only reconciliation history, backed by SQLite.
// It is strictly best-effort bookkeeping: commands must never fail or
// block because the journal is unavailable, so callers are expected to
// log and swallow Append errors.
type Journal struct {
	db   *sql.DB
	path string
}

// New creates a journal instance for the database at path.
func New(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	return &Journal{path: path}, nil
}

// Init opens the database connection and enables WAL mode.
func (j *Journal) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", j.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open journal database: %w", err)
	}

	// A CLI process holds at most one connection at a time.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping journal database: %w", err)
	}

	j.db = db
	return nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Migrate runs schema migrations.
func (j *Journal) Migrate(_ context.Context) error {
	if j.db == nil {
		return fmt.Errorf("journal database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(j.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Append records one command invocation. The entry ID is generated here.
func (j *Journal) Append(ctx context.Context, action Action, subject string, outcome Outcome, cmdErr error) error {
	query := `
		INSERT INTO entries (id, action, subject, outcome, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var errMsg *string
	if cmdErr != nil {
		msg := cmdErr.Error()
		errMsg = &msg
	}

	_, err := j.db.ExecContext(ctx, query,
		uuid.NewString(),
		string(action),
		subject,
		string(outcome),
		errMsg,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}

	return nil
}

// List returns the most recent entries, newest first.
func (j *Journal) List(ctx context.Context, limit, offset int) ([]Entry, error) {
	query := `
		SELECT id, action, subject, outcome, error, timestamp
		FROM entries
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ? OFFSET ?
	`

	rows, err := j.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &e.Action, &e.Subject, &e.Outcome, &e.Error, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("invalid journal timestamp %q: %w", ts, err)
		}
		e.Timestamp = parsed
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal entries: %w", err)
	}

	return entries, nil
}

// HealthCheck verifies the database connection is healthy.
func (j *Journal) HealthCheck(ctx context.Context) error {
	if j.db == nil {
		return fmt.Errorf("journal database not initialized")
	}
	return j.db.PingContext(ctx)
}

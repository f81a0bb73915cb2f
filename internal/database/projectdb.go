package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/backcheck/backcheck/internal/model"
)

// DBFileName is the project database file name.
const DBFileName = "backcheck.db"

// ProjectDB stores a project's durable progress in SQLite.
//
// Design decision: one database file per project rather than one
// global file. Projects are independent by construction, so per-project
// files make deleting or archiving a project a plain directory
// operation.
type ProjectDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures ProjectDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended; readers (the
	// stats command) don't block the writer.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the project database in dbDir.
func Open(dbDir string, opts Options) (*ProjectDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// mode=rw prevents accidentally creating an empty database when the
	// caller expects an existing project.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite supports only one writer; a larger pool just queues on the
	// file lock.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pdb := &ProjectDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	if err := pdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return pdb, nil
}

// Close closes the database connection.
func (pdb *ProjectDB) Close() error {
	return pdb.db.Close()
}

// Path returns the database file path.
func (pdb *ProjectDB) Path() string {
	return pdb.dbPath
}

func (pdb *ProjectDB) createTables() error {
	schema := `
	-- Single-row progress record; id is fixed to 1.
	CREATE TABLE IF NOT EXISTS project_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		last_row INTEGER NOT NULL DEFAULT 0,
		dofollow INTEGER NOT NULL DEFAULT 0,
		nofollow INTEGER NOT NULL DEFAULT 0,
		text INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0,
		not_found INTEGER NOT NULL DEFAULT 0,
		total_processed INTEGER NOT NULL DEFAULT 0,
		last_processed TEXT NOT NULL DEFAULT ''
	);
	`
	if _, err := pdb.db.ExecContext(context.Background(), schema); err != nil {
		return err
	}
	return nil
}

// SaveState upserts the project's progress record.
func (pdb *ProjectDB) SaveState(ctx context.Context, state model.ProjectState) error {
	query := `
	INSERT INTO project_state (id, last_row, dofollow, nofollow, text, errors, not_found, total_processed, last_processed)
	VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		last_row = excluded.last_row,
		dofollow = excluded.dofollow,
		nofollow = excluded.nofollow,
		text = excluded.text,
		errors = excluded.errors,
		not_found = excluded.not_found,
		total_processed = excluded.total_processed,
		last_processed = excluded.last_processed
	`
	_, err := pdb.db.ExecContext(ctx, query,
		state.LastRow,
		state.Stats.Dofollow,
		state.Stats.Nofollow,
		state.Stats.Text,
		state.Stats.Errors,
		state.Stats.NotFound,
		state.Stats.TotalProcessed,
		state.LastProcessed.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save project state: %w", err)
	}
	return nil
}

// LoadState reads the project's progress record. A fresh database with
// no record yet yields the zero state.
func (pdb *ProjectDB) LoadState(ctx context.Context) (model.ProjectState, error) {
	query := `
	SELECT last_row, dofollow, nofollow, text, errors, not_found, total_processed, last_processed
	FROM project_state WHERE id = 1
	`

	var state model.ProjectState
	var lastProcessed string
	err := pdb.db.QueryRowContext(ctx, query).Scan(
		&state.LastRow,
		&state.Stats.Dofollow,
		&state.Stats.Nofollow,
		&state.Stats.Text,
		&state.Stats.Errors,
		&state.Stats.NotFound,
		&state.Stats.TotalProcessed,
		&lastProcessed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ProjectState{}, nil
	}
	if err != nil {
		return model.ProjectState{}, fmt.Errorf("load project state: %w", err)
	}

	if lastProcessed != "" {
		state.LastProcessed = parseTimestamp(lastProcessed)
	}
	return state, nil
}

// parseTimestamp handles the timestamp formats SQLite may hand back,
// depending on how the value was originally written.
func parseTimestamp(s string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps sql.DB for the capacity service.
type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// SQLite parameters: WAL mode, busy timeout, foreign keys.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: sqlDB, path: path, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS terminals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			description TEXT,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// One row per terminal and weekday (1=Mon, 7=Sun); replaced, never deleted.
		`CREATE TABLE IF NOT EXISTS weekly_defaults (
			terminal_id INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL CHECK (day_of_week BETWEEN 1 AND 7),
			operating_start TEXT NOT NULL,
			operating_end TEXT NOT NULL,
			slot_duration INTEGER NOT NULL,
			max_trucks_per_slot INTEGER NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (terminal_id, day_of_week),
			FOREIGN KEY (terminal_id) REFERENCES terminals(id)
		)`,

		`CREATE TABLE IF NOT EXISTS closed_dates (
			terminal_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (terminal_id, date),
			FOREIGN KEY (terminal_id) REFERENCES terminals(id)
		)`,

		`CREATE TABLE IF NOT EXISTS catalogue_holidays (
			terminal_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			seeded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (terminal_id, date),
			FOREIGN KEY (terminal_id) REFERENCES terminals(id)
		)`,

		`CREATE TABLE IF NOT EXISTS capacity_overrides (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			terminal_id INTEGER NOT NULL,
			label TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			manual_priority INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (terminal_id) REFERENCES terminals(id)
		)`,

		`CREATE TABLE IF NOT EXISTS override_day_configs (
			override_id INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL CHECK (day_of_week BETWEEN 1 AND 7),
			operating_start TEXT NOT NULL,
			operating_end TEXT NOT NULL,
			slot_duration INTEGER NOT NULL,
			max_trucks_per_slot INTEGER NOT NULL,
			PRIMARY KEY (override_id, day_of_week),
			FOREIGN KEY (override_id) REFERENCES capacity_overrides(id) ON DELETE CASCADE
		)`,

		// Written by the booking subsystem; read here for occupancy.
		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			terminal_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (terminal_id) REFERENCES terminals(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_terminals_active ON terminals(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_overrides_terminal_range ON capacity_overrides(terminal_id, start_date, end_date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_terminal_date_status ON bookings(terminal_id, date, status)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// withTx runs fn in a transaction, rolling back on error.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

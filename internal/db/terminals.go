package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"truckslot/internal/model"
)

// GetTerminal returns a terminal by id.
func (db *DB) GetTerminal(ctx context.Context, id int64) (*model.Terminal, error) {
	var t model.Terminal
	var description sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM terminals WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.Name, &description, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrTerminalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get terminal %d: %w", id, err)
	}
	t.Description = description.String
	return &t, nil
}

// CheckTerminal returns nil if the terminal exists and is active.
func (db *DB) CheckTerminal(ctx context.Context, id int64) error {
	t, err := db.GetTerminal(ctx, id)
	if err != nil {
		return err
	}
	if !t.IsActive {
		return model.ErrTerminalInactive
	}
	return nil
}

// ListTerminals returns all terminals ordered by id.
func (db *DB) ListTerminals(ctx context.Context) ([]model.Terminal, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, description, is_active, created_at, updated_at
		FROM terminals ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terminals []model.Terminal
	for rows.Next() {
		var t model.Terminal
		var description sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &description, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.Description = description.String
		terminals = append(terminals, t)
	}
	return terminals, rows.Err()
}

// UpsertTerminal inserts a terminal with an explicit id or updates it,
// preserving created_at of an existing row.
func (db *DB) UpsertTerminal(ctx context.Context, t *model.Terminal) error {
	if t == nil {
		return fmt.Errorf("terminal is nil")
	}
	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO terminals (id, name, description, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, COALESCE((SELECT created_at FROM terminals WHERE id = ?), ?), ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`,
		t.ID, t.Name, t.Description, t.IsActive, t.ID, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert terminal %d: %w", t.ID, err)
	}
	return nil
}

// DeactivateTerminalsExcept marks every terminal not listed as inactive.
func (db *DB) DeactivateTerminalsExcept(ctx context.Context, keep map[int64]struct{}) (int, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM terminals WHERE is_active = 1`)
	if err != nil {
		return 0, err
	}
	var stale []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	now := time.Now()
	for _, id := range stale {
		if _, err := db.ExecContext(ctx, `UPDATE terminals SET is_active = 0, updated_at = ? WHERE id = ?`, now, id); err != nil {
			return 0, fmt.Errorf("deactivate terminal %d: %w", id, err)
		}
	}
	return len(stale), nil
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"truckslot/internal/model"
)

// AddClosedDate registers a closure. A second closure for the same date fails
// with model.ErrClosedDateExists.
func (db *DB) AddClosedDate(ctx context.Context, c *model.ClosedDate) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO closed_dates (terminal_id, date, reason, created_at)
		VALUES (?, ?, ?, ?)`,
		c.TerminalID, model.FormatDate(c.Date), c.Reason, c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrClosedDateExists
		}
		return fmt.Errorf("add closed date: %w", err)
	}
	return nil
}

// SeedHolidayClosure closes date for a catalogue holiday the first time the
// holiday is seen for the terminal. Later calls are no-ops, so a closure an
// operator deleted stays deleted across catalogue reloads.
func (db *DB) SeedHolidayClosure(ctx context.Context, c *model.ClosedDate) (bool, error) {
	var closed bool
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO catalogue_holidays (terminal_id, date, seeded_at)
			VALUES (?, ?, ?)`,
			c.TerminalID, model.FormatDate(c.Date), time.Now(),
		)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		res, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO closed_dates (terminal_id, date, reason, created_at)
			VALUES (?, ?, ?, ?)`,
			c.TerminalID, model.FormatDate(c.Date), c.Reason, time.Now(),
		)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		closed = n > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seed holiday closure: %w", err)
	}
	return closed, nil
}

// DeleteClosedDate removes a closure.
func (db *DB) DeleteClosedDate(ctx context.Context, terminalID int64, date time.Time) error {
	res, err := db.ExecContext(ctx, `DELETE FROM closed_dates WHERE terminal_id = ? AND date = ?`,
		terminalID, model.FormatDate(date))
	if err != nil {
		return fmt.Errorf("delete closed date: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrClosedDateNotFound
	}
	return nil
}

// ListClosedDates returns closures in [from, to]. Zero bounds are open.
func (db *DB) ListClosedDates(ctx context.Context, terminalID int64, from, to time.Time) ([]model.ClosedDate, error) {
	query := `SELECT date, reason, created_at FROM closed_dates WHERE terminal_id = ?`
	args := []any{terminalID}
	if !from.IsZero() {
		query += ` AND date >= ?`
		args = append(args, model.FormatDate(from))
	}
	if !to.IsZero() {
		query += ` AND date <= ?`
		args = append(args, model.FormatDate(to))
	}
	query += ` ORDER BY date`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list closed dates: %w", err)
	}
	defer rows.Close()

	var out []model.ClosedDate
	for rows.Next() {
		var dateStr string
		var reason sql.NullString
		c := model.ClosedDate{TerminalID: terminalID}
		if err := rows.Scan(&dateStr, &reason, &c.CreatedAt); err != nil {
			return nil, err
		}
		if c.Date, err = model.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("closed date %q: %w", dateStr, err)
		}
		c.Reason = reason.String
		out = append(out, c)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique
}

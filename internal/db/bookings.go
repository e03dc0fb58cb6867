package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"truckslot/internal/model"
)

// ListBookings returns bookings of a terminal dated in [from, to] whose status
// is one of statuses. An empty status list matches every status.
func (db *DB) ListBookings(
	ctx context.Context,
	terminalID int64,
	from, to time.Time,
	statuses []model.BookingStatus,
) ([]model.Booking, error) {
	query := `
		SELECT id, terminal_id, date, start_time, status, created_at
		FROM bookings
		WHERE terminal_id = ? AND date >= ? AND date <= ?`
	args := []any{terminalID, model.FormatDate(from), model.FormatDate(to)}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, s := range statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY date, start_time, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		var dateStr, startStr, status string
		if err := rows.Scan(&b.ID, &b.TerminalID, &dateStr, &startStr, &status, &b.CreatedAt); err != nil {
			return nil, err
		}
		if b.Date, err = model.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("booking %d date: %w", b.ID, err)
		}
		if b.StartTime, err = model.ParseTimeOfDay(startStr); err != nil {
			return nil, fmt.Errorf("booking %d start_time: %w", b.ID, err)
		}
		b.Status = model.BookingStatus(status)
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBooking inserts a booking row. The booking subsystem owns this table;
// the capacity service uses it for seeding and tests.
func (db *DB) CreateBooking(ctx context.Context, b *model.Booking) error {
	if !b.Status.Valid() {
		return fmt.Errorf("invalid booking status %q", b.Status)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO bookings (terminal_id, date, start_time, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		b.TerminalID, model.FormatDate(b.Date), b.StartTime.String(), string(b.Status), b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	b.ID, err = res.LastInsertId()
	return err
}

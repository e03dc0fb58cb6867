package db

import (
	"context"
	"fmt"
	"time"

	"truckslot/internal/model"
)

type dayConfigRow struct {
	weekday  int
	start    string
	end      string
	duration int
	trucks   int
}

func (r dayConfigRow) toModel() (model.Weekday, model.DayConfig, error) {
	w := model.Weekday(r.weekday)
	if !w.Valid() {
		return 0, model.DayConfig{}, fmt.Errorf("invalid day_of_week %d", r.weekday)
	}
	start, err := model.ParseTimeOfDay(r.start)
	if err != nil {
		return 0, model.DayConfig{}, err
	}
	end, err := model.ParseTimeOfDay(r.end)
	if err != nil {
		return 0, model.DayConfig{}, err
	}
	return w, model.DayConfig{
		OperatingStart:      start,
		OperatingEnd:        end,
		SlotDurationMinutes: r.duration,
		MaxTrucksPerSlot:    r.trucks,
	}, nil
}

// GetDefaultConfigs returns the weekly baseline of a terminal.
func (db *DB) GetDefaultConfigs(ctx context.Context, terminalID int64) (model.DayConfigs, error) {
	var out model.DayConfigs
	defaults, err := db.ListDefaultConfigs(ctx, terminalID)
	if err != nil {
		return out, err
	}
	for _, d := range defaults {
		out.Set(d.Weekday, d.DayConfig)
	}
	return out, nil
}

// ListDefaultConfigs returns the weekly default rows of a terminal ordered by weekday.
func (db *DB) ListDefaultConfigs(ctx context.Context, terminalID int64) ([]model.WeeklyDefaultConfig, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT day_of_week, operating_start, operating_end, slot_duration, max_trucks_per_slot, updated_at
		FROM weekly_defaults
		WHERE terminal_id = ?
		ORDER BY day_of_week`,
		terminalID,
	)
	if err != nil {
		return nil, fmt.Errorf("list default configs: %w", err)
	}
	defer rows.Close()

	var out []model.WeeklyDefaultConfig
	for rows.Next() {
		var r dayConfigRow
		var updated time.Time
		if err := rows.Scan(&r.weekday, &r.start, &r.end, &r.duration, &r.trucks, &updated); err != nil {
			return nil, err
		}
		w, cfg, err := r.toModel()
		if err != nil {
			return nil, fmt.Errorf("terminal %d weekly default: %w", terminalID, err)
		}
		out = append(out, model.WeeklyDefaultConfig{TerminalID: terminalID, Weekday: w, DayConfig: cfg, UpdatedAt: updated})
	}
	return out, rows.Err()
}

// PutDefaultConfig replaces the weekly baseline for one weekday.
func (db *DB) PutDefaultConfig(ctx context.Context, terminalID int64, weekday model.Weekday, cfg model.DayConfig) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO weekly_defaults (
			terminal_id, day_of_week, operating_start, operating_end, slot_duration, max_trucks_per_slot, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(terminal_id, day_of_week) DO UPDATE SET
			operating_start = excluded.operating_start,
			operating_end = excluded.operating_end,
			slot_duration = excluded.slot_duration,
			max_trucks_per_slot = excluded.max_trucks_per_slot,
			updated_at = excluded.updated_at`,
		terminalID, int(weekday), cfg.OperatingStart.String(), cfg.OperatingEnd.String(),
		cfg.SlotDurationMinutes, cfg.MaxTrucksPerSlot, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("put default config %d/%s: %w", terminalID, weekday, err)
	}
	return nil
}

// EnsureDefaultConfig inserts the weekday baseline only if none exists yet.
// It reports whether a row was inserted.
func (db *DB) EnsureDefaultConfig(ctx context.Context, terminalID int64, weekday model.Weekday, cfg model.DayConfig) (bool, error) {
	res, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO weekly_defaults (
			terminal_id, day_of_week, operating_start, operating_end, slot_duration, max_trucks_per_slot, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		terminalID, int(weekday), cfg.OperatingStart.String(), cfg.OperatingEnd.String(),
		cfg.SlotDurationMinutes, cfg.MaxTrucksPerSlot, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("ensure default config %d/%s: %w", terminalID, weekday, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

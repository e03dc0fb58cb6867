package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"truckslot/internal/model"
)

// CreateOverride stores the override header and its day configs in one
// transaction and fills in ID and timestamps.
func (db *DB) CreateOverride(ctx context.Context, o *model.CapacityOverride) error {
	now := time.Now()
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO capacity_overrides (terminal_id, label, start_date, end_date, manual_priority, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.TerminalID, o.Label, model.FormatDate(o.StartDate), model.FormatDate(o.EndDate),
			o.ManualPriority, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert override: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("override id: %w", err)
		}
		if err := insertDayConfigs(ctx, tx, id, o.DayConfigs); err != nil {
			return err
		}
		o.ID = id
		o.CreatedAt = now
		o.UpdatedAt = now
		return nil
	})
}

// UpdateOverride replaces an existing override, day configs included.
func (db *DB) UpdateOverride(ctx context.Context, o *model.CapacityOverride) error {
	now := time.Now()
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE capacity_overrides
			SET label = ?, start_date = ?, end_date = ?, manual_priority = ?, updated_at = ?
			WHERE id = ? AND terminal_id = ?`,
			o.Label, model.FormatDate(o.StartDate), model.FormatDate(o.EndDate), o.ManualPriority, now,
			o.ID, o.TerminalID,
		)
		if err != nil {
			return fmt.Errorf("update override %d: %w", o.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.ErrOverrideNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM override_day_configs WHERE override_id = ?`, o.ID); err != nil {
			return fmt.Errorf("clear override day configs: %w", err)
		}
		if err := insertDayConfigs(ctx, tx, o.ID, o.DayConfigs); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, `SELECT created_at FROM capacity_overrides WHERE id = ?`, o.ID).Scan(&o.CreatedAt); err != nil {
			return fmt.Errorf("reload override %d: %w", o.ID, err)
		}
		o.UpdatedAt = now
		return nil
	})
}

func insertDayConfigs(ctx context.Context, tx *sql.Tx, overrideID int64, configs model.DayConfigs) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO override_day_configs (
			override_id, day_of_week, operating_start, operating_end, slot_duration, max_trucks_per_slot
		) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare day config insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range configs.Entries() {
		if _, err := stmt.ExecContext(ctx, overrideID, int(e.Weekday), e.OperatingStart.String(),
			e.OperatingEnd.String(), e.SlotDurationMinutes, e.MaxTrucksPerSlot); err != nil {
			return fmt.Errorf("insert day config %s: %w", e.Weekday, err)
		}
	}
	return nil
}

// DeleteOverride removes an override; day configs cascade.
func (db *DB) DeleteOverride(ctx context.Context, terminalID, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM capacity_overrides WHERE id = ? AND terminal_id = ?`, id, terminalID)
	if err != nil {
		return fmt.Errorf("delete override %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrOverrideNotFound
	}
	return nil
}

// GetOverride loads one override of a terminal.
func (db *DB) GetOverride(ctx context.Context, terminalID, id int64) (*model.CapacityOverride, error) {
	var o model.CapacityOverride
	var start, end string
	err := db.QueryRowContext(ctx, `
		SELECT id, terminal_id, label, start_date, end_date, manual_priority, created_at, updated_at
		FROM capacity_overrides WHERE id = ? AND terminal_id = ?`,
		id, terminalID,
	).Scan(&o.ID, &o.TerminalID, &o.Label, &start, &end, &o.ManualPriority, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrOverrideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get override %d: %w", id, err)
	}
	if err := parseRange(&o, start, end); err != nil {
		return nil, err
	}
	list := []model.CapacityOverride{o}
	if err := db.loadDayConfigs(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ListOverrides returns overrides intersecting [from, to]. Zero bounds are open.
func (db *DB) ListOverrides(ctx context.Context, terminalID int64, from, to time.Time) ([]model.CapacityOverride, error) {
	query := `
		SELECT id, terminal_id, label, start_date, end_date, manual_priority, created_at, updated_at
		FROM capacity_overrides WHERE terminal_id = ?`
	args := []any{terminalID}
	if !to.IsZero() {
		query += ` AND start_date <= ?`
		args = append(args, model.FormatDate(to))
	}
	if !from.IsZero() {
		query += ` AND end_date >= ?`
		args = append(args, model.FormatDate(from))
	}
	query += ` ORDER BY start_date, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	var out []model.CapacityOverride
	for rows.Next() {
		var o model.CapacityOverride
		var start, end string
		if err := rows.Scan(&o.ID, &o.TerminalID, &o.Label, &start, &end, &o.ManualPriority, &o.CreatedAt, &o.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		if err := parseRange(&o, start, end); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := db.loadDayConfigs(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func parseRange(o *model.CapacityOverride, start, end string) error {
	var err error
	if o.StartDate, err = model.ParseDate(start); err != nil {
		return fmt.Errorf("override %d start_date: %w", o.ID, err)
	}
	if o.EndDate, err = model.ParseDate(end); err != nil {
		return fmt.Errorf("override %d end_date: %w", o.ID, err)
	}
	return nil
}

func (db *DB) loadDayConfigs(ctx context.Context, overrides []model.CapacityOverride) error {
	for i := range overrides {
		rows, err := db.QueryContext(ctx, `
			SELECT day_of_week, operating_start, operating_end, slot_duration, max_trucks_per_slot
			FROM override_day_configs WHERE override_id = ? ORDER BY day_of_week`,
			overrides[i].ID,
		)
		if err != nil {
			return fmt.Errorf("load day configs for override %d: %w", overrides[i].ID, err)
		}
		for rows.Next() {
			var r dayConfigRow
			if err := rows.Scan(&r.weekday, &r.start, &r.end, &r.duration, &r.trucks); err != nil {
				rows.Close()
				return err
			}
			w, cfg, err := r.toModel()
			if err != nil {
				rows.Close()
				return fmt.Errorf("override %d day config: %w", overrides[i].ID, err)
			}
			overrides[i].DayConfigs.Set(w, cfg)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
	}
	return nil
}

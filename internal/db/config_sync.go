package db

import (
	"context"
	"fmt"

	"truckslot/internal/config"
	"truckslot/internal/model"
)

// SyncResult summarises one catalogue sync.
type SyncResult struct {
	Terminals      int
	Deactivated    int
	DefaultsSeeded int
	HolidaysClosed int
}

// SyncTerminalsFromConfig applies terminals.yaml to the database. Terminals are
// upserted and those missing from the catalogue are deactivated. Weekly
// defaults are only seeded where absent so administrative edits survive a
// reload. Each holiday closes its date once per terminal; deleting that closure
// afterwards is not undone by later syncs.
func (db *DB) SyncTerminalsFromConfig(ctx context.Context, cfg *config.TerminalsConfig) (SyncResult, error) {
	var res SyncResult
	if cfg == nil {
		return res, fmt.Errorf("terminals config is nil")
	}

	seen := make(map[int64]struct{}, len(cfg.Terminals))
	for i := range cfg.Terminals {
		tc := &cfg.Terminals[i]
		t := &model.Terminal{
			ID:          tc.ID,
			Name:        tc.Name,
			Description: tc.Description,
			IsActive:    tc.IsActive,
		}
		if err := db.UpsertTerminal(ctx, t); err != nil {
			return res, err
		}
		seen[tc.ID] = struct{}{}
		res.Terminals++

		week, err := cfg.WeeklyDefaults(tc)
		if err != nil {
			return res, err
		}
		for _, e := range week.Entries() {
			inserted, err := db.EnsureDefaultConfig(ctx, tc.ID, e.Weekday, e.DayConfig)
			if err != nil {
				return res, fmt.Errorf("sync terminal %d schedule: %w", tc.ID, err)
			}
			if inserted {
				res.DefaultsSeeded++
			}
		}
	}

	n, err := db.DeactivateTerminalsExcept(ctx, seen)
	if err != nil {
		return res, err
	}
	res.Deactivated = n

	for _, h := range cfg.Holidays {
		date, err := model.ParseDate(h.Date)
		if err != nil {
			return res, fmt.Errorf("parse holiday %s: %w", h.Date, err)
		}
		for id := range seen {
			inserted, err := db.SeedHolidayClosure(ctx, &model.ClosedDate{TerminalID: id, Date: date, Reason: h.Name})
			if err != nil {
				return res, err
			}
			if inserted {
				res.HolidaysClosed++
			}
		}
	}

	db.logger.Info().
		Int("terminals", res.Terminals).
		Int("deactivated", res.Deactivated).
		Int("defaults_seeded", res.DefaultsSeeded).
		Int("holidays_closed", res.HolidaysClosed).
		Msg("terminal catalogue synced")
	return res, nil
}

package db

import (
	"context"
	"time"

	"truckslot/internal/capacity"
	"truckslot/internal/model"
)

// LoadTerminalSchedule fetches everything the resolver needs for [from, to].
func (db *DB) LoadTerminalSchedule(ctx context.Context, terminalID int64, from, to time.Time) (*capacity.TerminalSchedule, error) {
	defaults, err := db.GetDefaultConfigs(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	closed, err := db.ListClosedDates(ctx, terminalID, from, to)
	if err != nil {
		return nil, err
	}
	overrides, err := db.ListOverrides(ctx, terminalID, from, to)
	if err != nil {
		return nil, err
	}

	s := &capacity.TerminalSchedule{
		TerminalID:  terminalID,
		Defaults:    defaults,
		ClosedDates: make(map[string]model.ClosedDate, len(closed)),
		Overrides:   overrides,
	}
	for _, c := range closed {
		s.ClosedDates[model.FormatDate(c.Date)] = c
	}
	return s, nil
}

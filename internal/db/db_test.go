package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"truckslot/internal/config"
	"truckslot/internal/model"
)

var monday = time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	d, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func seedTerminal(t *testing.T, d *DB, id int64, active bool) {
	t.Helper()
	require.NoError(t, d.UpsertTerminal(context.Background(), &model.Terminal{
		ID: id, Name: "terminal-" + string(rune('A'+id)), IsActive: active,
	}))
}

func dayConfig(start, end string, duration, trucks int) model.DayConfig {
	return model.DayConfig{
		OperatingStart:      model.MustTimeOfDay(start),
		OperatingEnd:        model.MustTimeOfDay(end),
		SlotDurationMinutes: duration,
		MaxTrucksPerSlot:    trucks,
	}
}

func TestTerminals(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedTerminal(t, d, 1, true)
	seedTerminal(t, d, 2, false)

	require.NoError(t, d.CheckTerminal(ctx, 1))
	assert.ErrorIs(t, d.CheckTerminal(ctx, 2), model.ErrTerminalInactive)
	assert.ErrorIs(t, d.CheckTerminal(ctx, 3), model.ErrTerminalNotFound)

	first, err := d.GetTerminal(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, d.UpsertTerminal(ctx, &model.Terminal{ID: 1, Name: "renamed", IsActive: true}))
	again, err := d.GetTerminal(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "renamed", again.Name)
	assert.True(t, first.CreatedAt.Equal(again.CreatedAt))

	n, err := d.DeactivateTerminalsExcept(ctx, map[int64]struct{}{2: {}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := d.ListTerminals(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[0].IsActive)
}

func TestDefaultConfigs(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedTerminal(t, d, 1, true)

	require.NoError(t, d.PutDefaultConfig(ctx, 1, model.Monday, dayConfig("06:00", "18:00", 60, 5)))
	require.NoError(t, d.PutDefaultConfig(ctx, 1, model.Monday, dayConfig("08:00", "16:00", 30, 3)))

	inserted, err := d.EnsureDefaultConfig(ctx, 1, model.Monday, dayConfig("00:00", "24:00", 60, 1))
	require.NoError(t, err)
	assert.False(t, inserted)
	inserted, err = d.EnsureDefaultConfig(ctx, 1, model.Sunday, dayConfig("00:00", "24:00", 60, 1))
	require.NoError(t, err)
	assert.True(t, inserted)

	week, err := d.GetDefaultConfigs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []model.Weekday{model.Monday, model.Sunday}, week.Weekdays())
	assert.Equal(t, dayConfig("08:00", "16:00", 30, 3), *week.Get(model.Monday))
	assert.Equal(t, model.EndOfDay, week.Get(model.Sunday).OperatingEnd)
}

func TestClosedDates(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedTerminal(t, d, 1, true)

	require.NoError(t, d.AddClosedDate(ctx, &model.ClosedDate{TerminalID: 1, Date: monday, Reason: "strike"}))
	assert.ErrorIs(t, d.AddClosedDate(ctx, &model.ClosedDate{TerminalID: 1, Date: monday}), model.ErrClosedDateExists)
	require.NoError(t, d.AddClosedDate(ctx, &model.ClosedDate{TerminalID: 1, Date: monday.AddDate(0, 0, 10)}))

	list, err := d.ListClosedDates(ctx, 1, monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "strike", list[0].Reason)
	assert.True(t, list[0].Date.Equal(monday))

	all, err := d.ListClosedDates(ctx, 1, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, d.DeleteClosedDate(ctx, 1, monday))
	assert.ErrorIs(t, d.DeleteClosedDate(ctx, 1, monday), model.ErrClosedDateNotFound)
}

func TestIsUniqueViolation(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedTerminal(t, d, 1, true)

	insert := func() error {
		_, err := d.ExecContext(ctx, `INSERT INTO closed_dates (terminal_id, date) VALUES (1, '2026-01-12')`)
		return err
	}
	require.NoError(t, insert())
	dupErr := insert()
	require.Error(t, dupErr)

	_, fkErr := d.ExecContext(ctx, `INSERT INTO closed_dates (terminal_id, date) VALUES (99, '2026-01-12')`)
	require.Error(t, fkErr)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"duplicate key", dupErr, true},
		{"wrapped duplicate key", fmt.Errorf("add closed date: %w", dupErr), true},
		{"message only", errors.New("UNIQUE constraint failed: closed_dates.date"), false},
		{"other constraint", fkErr, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

func TestSeedHolidayClosure(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedTerminal(t, d, 1, true)
	holiday := &model.ClosedDate{TerminalID: 1, Date: monday, Reason: "New Year"}

	closed, err := d.SeedHolidayClosure(ctx, holiday)
	require.NoError(t, err)
	assert.True(t, closed)

	closed, err = d.SeedHolidayClosure(ctx, holiday)
	require.NoError(t, err)
	assert.False(t, closed)

	require.NoError(t, d.DeleteClosedDate(ctx, 1, monday))
	closed, err = d.SeedHolidayClosure(ctx, holiday)
	require.NoError(t, err)
	assert.False(t, closed, "deleted holiday closure must not come back")

	list, err := d.ListClosedDates(ctx, 1, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, list)

	// An operator closure on the holiday keeps its own reason.
	other := monday.AddDate(0, 0, 7)
	require.NoError(t, d.AddClosedDate(ctx, &model.ClosedDate{TerminalID: 1, Date: other, Reason: "strike"}))
	closed, err = d.SeedHolidayClosure(ctx, &model.ClosedDate{TerminalID: 1, Date: other, Reason: "holiday"})
	require.NoError(t, err)
	assert.False(t, closed)
	list, err = d.ListClosedDates(ctx, 1, other, other)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "strike", list[0].Reason)
}

func TestOverrideLifecycle(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedTerminal(t, d, 1, true)

	o := &model.CapacityOverride{
		TerminalID:     1,
		Label:          "peak week",
		StartDate:      monday,
		EndDate:        monday.AddDate(0, 0, 1),
		ManualPriority: 5,
	}
	o.DayConfigs.Set(model.Monday, dayConfig("06:00", "22:00", 60, 8))
	o.DayConfigs.Set(model.Tuesday, dayConfig("06:00", "20:00", 60, 8))
	require.NoError(t, d.CreateOverride(ctx, o))
	require.NotZero(t, o.ID)

	got, err := d.GetOverride(ctx, 1, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "peak week", got.Label)
	assert.Equal(t, 2, got.DayConfigs.Len())
	assert.True(t, got.EndDate.Equal(monday.AddDate(0, 0, 1)))

	o.Label = "peak monday"
	o.EndDate = monday
	o.DayConfigs = model.DayConfigs{}
	o.DayConfigs.Set(model.Monday, dayConfig("05:00", "23:00", 30, 4))
	require.NoError(t, d.UpdateOverride(ctx, o))

	got, err = d.GetOverride(ctx, 1, o.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.Weekday{model.Monday}, got.DayConfigs.Weekdays())
	assert.Equal(t, 4, got.DayConfigs.Get(model.Monday).MaxTrucksPerSlot)

	inRange, err := d.ListOverrides(ctx, 1, monday, monday)
	require.NoError(t, err)
	assert.Len(t, inRange, 1)
	outOfRange, err := d.ListOverrides(ctx, 1, monday.AddDate(0, 0, 1), monday.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Empty(t, outOfRange)

	_, err = d.GetOverride(ctx, 2, o.ID)
	assert.ErrorIs(t, err, model.ErrOverrideNotFound)

	require.NoError(t, d.DeleteOverride(ctx, 1, o.ID))
	assert.ErrorIs(t, d.DeleteOverride(ctx, 1, o.ID), model.ErrOverrideNotFound)

	var orphans int
	require.NoError(t, d.QueryRowContext(ctx, `SELECT COUNT(*) FROM override_day_configs`).Scan(&orphans))
	assert.Zero(t, orphans)

	missing := &model.CapacityOverride{ID: 999, TerminalID: 1, Label: "x", StartDate: monday, EndDate: monday}
	assert.ErrorIs(t, d.UpdateOverride(ctx, missing), model.ErrOverrideNotFound)
}

func TestListBookingsFiltersStatusAndRange(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedTerminal(t, d, 1, true)

	for _, b := range []model.Booking{
		{TerminalID: 1, Date: monday, StartTime: model.MustTimeOfDay("08:00"), Status: model.BookingPending},
		{TerminalID: 1, Date: monday, StartTime: model.MustTimeOfDay("08:00"), Status: model.BookingConfirmed},
		{TerminalID: 1, Date: monday, StartTime: model.MustTimeOfDay("09:00"), Status: model.BookingCancelled},
		{TerminalID: 1, Date: monday.AddDate(0, 0, 3), StartTime: model.MustTimeOfDay("10:00"), Status: model.BookingPending},
	} {
		b := b
		require.NoError(t, d.CreateBooking(ctx, &b))
	}
	assert.Error(t, d.CreateBooking(ctx, &model.Booking{TerminalID: 1, Date: monday, Status: "LOST"}))

	got, err := d.ListBookings(ctx, 1, monday, monday.AddDate(0, 0, 1), model.OccupyingStatuses)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.MustTimeOfDay("08:00"), got[0].StartTime)

	all, err := d.ListBookings(ctx, 1, monday, monday.AddDate(0, 0, 6), nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestLoadTerminalSchedule(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedTerminal(t, d, 1, true)

	require.NoError(t, d.PutDefaultConfig(ctx, 1, model.Monday, dayConfig("06:00", "18:00", 60, 5)))
	require.NoError(t, d.AddClosedDate(ctx, &model.ClosedDate{TerminalID: 1, Date: monday.AddDate(0, 0, 1), Reason: "maintenance"}))
	o := &model.CapacityOverride{TerminalID: 1, Label: "one day", StartDate: monday, EndDate: monday}
	o.DayConfigs.Set(model.Monday, dayConfig("06:00", "12:00", 60, 2))
	require.NoError(t, d.CreateOverride(ctx, o))

	s, err := d.LoadTerminalSchedule(ctx, 1, monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.TerminalID)
	assert.NotNil(t, s.Defaults.Get(model.Monday))
	assert.Contains(t, s.ClosedDates, "2026-01-13")
	assert.Len(t, s.Overrides, 1)
}

func TestSyncTerminalsFromConfig(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedTerminal(t, d, 7, true)

	cfg, err := config.ParseTerminalsConfig([]byte(`
terminals:
  - id: 1
    name: North Gate
    is_active: true
defaults:
  schedule:
    start_time: "06:00"
    end_time: "18:00"
    slot_duration_minutes: 60
    max_trucks_per_slot: 5
  days_off: [6, 7]
holidays:
  - date: "2026-01-01"
    name: New Year
`))
	require.NoError(t, err)

	res, err := d.SyncTerminalsFromConfig(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Terminals: 1, Deactivated: 1, DefaultsSeeded: 5, HolidaysClosed: 1}, res)

	// Admin edits survive a second sync.
	require.NoError(t, d.PutDefaultConfig(ctx, 1, model.Monday, dayConfig("08:00", "12:00", 60, 1)))
	res, err = d.SyncTerminalsFromConfig(ctx, cfg)
	require.NoError(t, err)
	assert.Zero(t, res.DefaultsSeeded)
	assert.Zero(t, res.HolidaysClosed)

	// A holiday closure removed by an operator stays removed after reload.
	newYear := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, d.DeleteClosedDate(ctx, 1, newYear))
	res, err = d.SyncTerminalsFromConfig(ctx, cfg)
	require.NoError(t, err)
	assert.Zero(t, res.HolidaysClosed)
	closures, err := d.ListClosedDates(ctx, 1, newYear, newYear)
	require.NoError(t, err)
	assert.Empty(t, closures)

	week, err := d.GetDefaultConfigs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, week.Get(model.Monday).MaxTrucksPerSlot)
	assert.Nil(t, week.Get(model.Saturday))

	assert.ErrorIs(t, d.CheckTerminal(ctx, 7), model.ErrTerminalInactive)
}

func TestBackupAndCleanup(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	seedTerminal(t, d, 1, true)

	dir := t.TempDir()
	dest := filepath.Join(dir, "truckslot_20260101_000000.db")
	require.NoError(t, d.Backup(ctx, dest))
	assert.FileExists(t, dest)
	assert.Error(t, d.Backup(ctx, dest))

	old := time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(dest, old, old))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o600))

	deleted, err := d.CleanupBackups(dir, 14*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.NoFileExists(t, dest)
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

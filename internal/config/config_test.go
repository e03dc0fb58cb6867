package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"truckslot/internal/capacity"
	"truckslot/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaultsAndExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRUCKSLOT_REDIS_ADDR", "redis:6379")
	path := writeFile(t, dir, "config.yaml", `
database:
  path: `+filepath.Join(dir, "data", "t.db")+`
redis:
  address: ${TRUCKSLOT_REDIS_ADDR}
capacity:
  tie_break: [most_recent, narrowest_range]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, DefaultAvailabilityMaxDays, cfg.Availability.MaxDays)
	assert.Equal(t, DefaultSlotAdjustmentPriority, cfg.Capacity.SlotAdjustmentPriority)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 24*time.Hour, cfg.BackupInterval())
	assert.Equal(t, 14*24*time.Hour, cfg.BackupRetention())
	assert.Equal(t, []capacity.TieBreak{capacity.TieBreakMostRecent, capacity.TieBreakNarrowestRange}, cfg.TieBreaks())
	assert.DirExists(t, filepath.Join(dir, "data"))
}

func TestLoadRejectsUnknownTieBreak(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
database:
  path: `+filepath.Join(dir, "t.db")+`
capacity:
  tie_break: [oldest_first]
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tie_break")
}

const catalogue = `
terminals:
  - id: 1
    name: North Gate
    is_active: true
    weekly:
      saturday:
        start_time: "08:00"
        end_time: "12:00"
        slot_duration_minutes: 60
        max_trucks_per_slot: 2
  - id: 2
    name: South Gate
    is_active: false
    schedule:
      start_time: "06:00"
      end_time: "22:00"
      slot_duration_minutes: 120
      max_trucks_per_slot: 8
    days_off: []
defaults:
  schedule:
    start_time: "06:00"
    end_time: "18:00"
    slot_duration_minutes: 60
    max_trucks_per_slot: 5
  days_off: [7]
holidays:
  - date: "2026-01-01"
    name: New Year
`

func TestParseTerminalsConfig(t *testing.T) {
	cfg, err := ParseTerminalsConfig([]byte(catalogue))
	require.NoError(t, err)
	assert.Equal(t, "TerminalsConfig: 2 terminals (1 active), 1 holidays", cfg.String())

	require.Len(t, cfg.Terminals, 2)
	week, err := cfg.WeeklyDefaults(&cfg.Terminals[0])
	require.NoError(t, err)
	assert.Equal(t, 6, week.Len())
	assert.Nil(t, week.Get(model.Sunday))
	assert.Equal(t, 5, week.Get(model.Monday).MaxTrucksPerSlot)
	sat := week.Get(model.Saturday)
	require.NotNil(t, sat)
	assert.Equal(t, model.MustTimeOfDay("12:00"), sat.OperatingEnd)

	week, err = cfg.WeeklyDefaults(&cfg.Terminals[1])
	require.NoError(t, err)
	assert.Equal(t, 7, week.Len())
	assert.Equal(t, 120, week.Get(model.Sunday).SlotDurationMinutes)

	require.Len(t, cfg.Holidays, 1)
	assert.Equal(t, "New Year", cfg.Holidays[0].Name)
}

func TestTerminalsConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"empty", `terminals: []`, "no terminals defined"},
		{"bad id", "terminals:\n  - id: 0\n    name: A\n", "id must be positive"},
		{"duplicate id", "terminals:\n  - id: 1\n    name: A\n  - id: 1\n    name: B\n", "duplicate id"},
		{"duplicate name", "terminals:\n  - id: 1\n    name: A\n  - id: 2\n    name: A\n", "duplicate name"},
		{"bad weekday", "terminals:\n  - id: 1\n    name: A\n    weekly:\n      funday:\n        start_time: \"08:00\"\n        end_time: \"09:00\"\n        slot_duration_minutes: 60\n        max_trucks_per_slot: 1\n", "weekly"},
		{"inverted window", "terminals:\n  - id: 1\n    name: A\n    schedule:\n      start_time: \"18:00\"\n      end_time: \"08:00\"\n      slot_duration_minutes: 60\n      max_trucks_per_slot: 1\n", "operating_end"},
		{"zero capacity", "terminals:\n  - id: 1\n    name: A\n    schedule:\n      start_time: \"08:00\"\n      end_time: \"18:00\"\n      slot_duration_minutes: 60\n      max_trucks_per_slot: 0\n", "max_trucks_per_slot"},
		{"bad day off", "terminals:\n  - id: 1\n    name: A\ndefaults:\n  days_off: [8]\n", "invalid day 8"},
		{"bad holiday", "terminals:\n  - id: 1\n    name: A\nholidays:\n  - date: 01.01.2026\n", "invalid date format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTerminalsConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWatchTerminalsReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "terminals.yaml", catalogue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var seen []int
	err := WatchTerminals(ctx, path, 10*time.Millisecond, nil, func(c *TerminalsConfig) {
		mu.Lock()
		seen = append(seen, len(c.Terminals))
		mu.Unlock()
	})
	require.NoError(t, err)

	updated := "terminals:\n  - id: 9\n    name: Rail\n    is_active: true\n" + catalogue[len("\nterminals:\n"):]
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2 && seen[1] == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, seen[0])
}

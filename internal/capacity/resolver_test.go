package capacity

import (
	"testing"
	"time"

	"truckslot/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-01-12 is a Monday.
var monday = time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)

func cfg(start, end string, duration, trucks int) model.DayConfig {
	return model.DayConfig{
		OperatingStart:      model.MustTimeOfDay(start),
		OperatingEnd:        model.MustTimeOfDay(end),
		SlotDurationMinutes: duration,
		MaxTrucksPerSlot:    trucks,
	}
}

func baseSchedule() *TerminalSchedule {
	s := &TerminalSchedule{TerminalID: 1, ClosedDates: map[string]model.ClosedDate{}}
	for _, w := range model.AllWeekdays[:5] {
		s.Defaults.Set(w, cfg("08:00", "18:00", 60, 10))
	}
	return s
}

func override(id int64, start time.Time, days, priority int, created time.Time, weekdays map[model.Weekday]model.DayConfig) model.CapacityOverride {
	o := model.CapacityOverride{
		ID:             id,
		TerminalID:     1,
		Label:          "o",
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, days-1),
		ManualPriority: priority,
		CreatedAt:      created,
	}
	for w, c := range weekdays {
		o.DayConfigs.Set(w, c)
	}
	return o
}

func TestResolve_DefaultConfig(t *testing.T) {
	r := NewResolver()
	res := r.Resolve(baseSchedule(), monday)

	assert.Equal(t, SourceDefaultConfig, res.Source)
	assert.False(t, res.Closed)
	require.NotNil(t, res.Config)
	assert.Equal(t, 10, res.Config.MaxTrucksPerSlot)
}

func TestResolve_NotConfiguredIsClosed(t *testing.T) {
	r := NewResolver()
	saturday := monday.AddDate(0, 0, 5)
	res := r.Resolve(baseSchedule(), saturday)

	assert.True(t, res.Closed)
	assert.Equal(t, SourceNotConfigured, res.Source)
	assert.Nil(t, res.Config)
}

func TestResolve_ClosedDateWinsOverEverything(t *testing.T) {
	s := baseSchedule()
	s.Overrides = []model.CapacityOverride{
		override(1, monday, 7, 100, monday, map[model.Weekday]model.DayConfig{
			model.Monday:  cfg("06:00", "22:00", 30, 20),
			model.Tuesday: cfg("06:00", "22:00", 30, 20),
		}),
	}
	s.ClosedDates[model.FormatDate(monday)] = model.ClosedDate{TerminalID: 1, Date: monday, Reason: "strike"}

	r := NewResolver()
	res := r.Resolve(s, monday)
	assert.True(t, res.Closed)
	assert.Equal(t, SourceClosedDate, res.Source)
	assert.Equal(t, "strike", res.Reason)

	// Other dates of the override range are still governed by it.
	tuesday := r.Resolve(s, monday.AddDate(0, 0, 1))
	assert.Equal(t, SourceOverride, tuesday.Source)
	assert.Equal(t, 20, tuesday.Config.MaxTrucksPerSlot)
}

func TestResolve_OverrideWithoutWeekdayFallsBack(t *testing.T) {
	s := baseSchedule()
	s.Overrides = []model.CapacityOverride{
		override(1, monday, 14, 0, monday, map[model.Weekday]model.DayConfig{
			model.Wednesday: cfg("10:00", "14:00", 30, 3),
		}),
	}

	r := NewResolver()
	assert.Equal(t, SourceDefaultConfig, r.Resolve(s, monday).Source)

	wed := r.Resolve(s, monday.AddDate(0, 0, 2))
	assert.Equal(t, SourceOverride, wed.Source)
	assert.Equal(t, int64(1), wed.Override.ID)
	assert.Equal(t, 3, wed.Config.MaxTrucksPerSlot)
}

func TestResolve_HigherPriorityWins(t *testing.T) {
	s := baseSchedule()
	s.Overrides = []model.CapacityOverride{
		override(1, monday, 1, 1, monday, map[model.Weekday]model.DayConfig{model.Monday: cfg("08:00", "12:00", 60, 1)}),
		override(2, monday, 30, 5, monday, map[model.Weekday]model.DayConfig{model.Monday: cfg("08:00", "12:00", 60, 5)}),
	}

	res := NewResolver().Resolve(s, monday)
	assert.Equal(t, int64(2), res.Override.ID)
}

func TestResolve_TieBrokenByNarrowestRange(t *testing.T) {
	s := baseSchedule()
	older := monday.Add(-48 * time.Hour)
	s.Overrides = []model.CapacityOverride{
		override(1, monday, 30, 3, monday, map[model.Weekday]model.DayConfig{model.Monday: cfg("08:00", "12:00", 60, 1)}),
		override(2, monday, 7, 3, older, map[model.Weekday]model.DayConfig{model.Monday: cfg("08:00", "12:00", 60, 2)}),
	}

	res := NewResolver().Resolve(s, monday)
	assert.Equal(t, int64(2), res.Override.ID)
}

func TestResolve_TieBrokenByMostRecent(t *testing.T) {
	s := baseSchedule()
	s.Overrides = []model.CapacityOverride{
		override(1, monday, 7, 3, monday, map[model.Weekday]model.DayConfig{model.Monday: cfg("08:00", "12:00", 60, 1)}),
		override(2, monday, 7, 3, monday.Add(time.Hour), map[model.Weekday]model.DayConfig{model.Monday: cfg("08:00", "12:00", 60, 2)}),
	}

	res := NewResolver().Resolve(s, monday)
	assert.Equal(t, int64(2), res.Override.ID)
}

func TestResolve_ConfigurableTieBreakOrder(t *testing.T) {
	s := baseSchedule()
	s.Overrides = []model.CapacityOverride{
		override(1, monday, 2, 0, monday, map[model.Weekday]model.DayConfig{
			model.Monday:  cfg("08:00", "12:00", 60, 1),
			model.Tuesday: cfg("08:00", "12:00", 60, 1),
		}),
		override(2, monday, 14, 0, monday.Add(time.Hour), map[model.Weekday]model.DayConfig{model.Monday: cfg("08:00", "12:00", 60, 2)}),
	}

	assert.Equal(t, int64(1), NewResolver().Resolve(s, monday).Override.ID)
	assert.Equal(t, int64(2), NewResolver(TieBreakMostRecent, TieBreakNarrowestRange).Resolve(s, monday).Override.ID)
}

func TestResolve_FullTieFallsToHigherID(t *testing.T) {
	s := baseSchedule()
	s.Overrides = []model.CapacityOverride{
		override(4, monday, 7, 0, monday, map[model.Weekday]model.DayConfig{model.Monday: cfg("08:00", "12:00", 60, 1)}),
		override(9, monday, 7, 0, monday, map[model.Weekday]model.DayConfig{model.Monday: cfg("08:00", "12:00", 60, 2)}),
	}

	assert.Equal(t, int64(9), NewResolver().Resolve(s, monday).Override.ID)
}

func TestParseTieBreaks(t *testing.T) {
	got, err := ParseTieBreaks(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTieBreaks, got)

	got, err = ParseTieBreaks([]string{"Most_Recent", "narrowest_range"})
	require.NoError(t, err)
	assert.Equal(t, []TieBreak{TieBreakMostRecent, TieBreakNarrowestRange}, got)

	_, err = ParseTieBreaks([]string{"oldest"})
	assert.Error(t, err)
	_, err = ParseTieBreaks([]string{"most_recent", "most_recent"})
	assert.Error(t, err)
}

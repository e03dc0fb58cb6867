package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DayConfig is the operating window and slot capacity for one day.
type DayConfig struct {
	OperatingStart      TimeOfDay `json:"operating_start"`
	OperatingEnd        TimeOfDay `json:"operating_end"`
	SlotDurationMinutes int       `json:"slot_duration_minutes"`
	MaxTrucksPerSlot    int       `json:"max_trucks_per_slot"`
}

// Validate checks positive duration and capacity and a non-inverted window.
func (c DayConfig) Validate() error {
	if c.SlotDurationMinutes <= 0 {
		return fmt.Errorf("slot_duration_minutes must be positive, got %d", c.SlotDurationMinutes)
	}
	if c.MaxTrucksPerSlot <= 0 {
		return fmt.Errorf("max_trucks_per_slot must be positive, got %d", c.MaxTrucksPerSlot)
	}
	if c.OperatingStart < 0 || c.OperatingEnd > EndOfDay {
		return fmt.Errorf("operating window %s-%s out of range", c.OperatingStart, c.OperatingEnd)
	}
	if c.OperatingEnd <= c.OperatingStart {
		return fmt.Errorf("operating_end %s must be after operating_start %s", c.OperatingEnd, c.OperatingStart)
	}
	return nil
}

// DayConfigs holds at most one DayConfig per weekday.
type DayConfigs [7]*DayConfig

// Get returns the config for w, or nil.
func (d *DayConfigs) Get(w Weekday) *DayConfig {
	if !w.Valid() {
		return nil
	}
	return d[w.index()]
}

// Set stores a copy of cfg for w.
func (d *DayConfigs) Set(w Weekday, cfg DayConfig) {
	d[w.index()] = &cfg
}

// Weekdays returns configured weekdays in calendar order.
func (d *DayConfigs) Weekdays() []Weekday {
	var days []Weekday
	for _, w := range AllWeekdays {
		if d[w.index()] != nil {
			days = append(days, w)
		}
	}
	return days
}

// Len returns the number of configured weekdays.
func (d *DayConfigs) Len() int {
	n := 0
	for _, c := range d {
		if c != nil {
			n++
		}
	}
	return n
}

// DayConfigEntry is the wire form of one weekday's configuration.
type DayConfigEntry struct {
	Weekday Weekday `json:"weekday"`
	DayConfig
}

// Entries lists configured weekdays in calendar order.
func (d DayConfigs) Entries() []DayConfigEntry {
	entries := make([]DayConfigEntry, 0, 7)
	for _, w := range AllWeekdays {
		if c := d[w.index()]; c != nil {
			entries = append(entries, DayConfigEntry{Weekday: w, DayConfig: *c})
		}
	}
	return entries
}

func (d DayConfigs) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Entries())
}

func (d *DayConfigs) UnmarshalJSON(b []byte) error {
	var entries []DayConfigEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return err
	}
	var out DayConfigs
	for _, e := range entries {
		if !e.Weekday.Valid() {
			return fmt.Errorf("day config: weekday is required")
		}
		if out.Get(e.Weekday) != nil {
			return fmt.Errorf("day config: duplicate weekday %s", e.Weekday)
		}
		out.Set(e.Weekday, e.DayConfig)
	}
	*d = out
	return nil
}

// WeeklyDefaultConfig is the baseline schedule of a terminal for one weekday.
type WeeklyDefaultConfig struct {
	TerminalID int64     `json:"terminal_id"`
	Weekday    Weekday   `json:"weekday"`
	DayConfig  DayConfig `json:"config"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ClosedDate marks a calendar date on which a terminal does not operate.
type ClosedDate struct {
	TerminalID int64     `json:"terminal_id"`
	Date       time.Time `json:"-"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c ClosedDate) MarshalJSON() ([]byte, error) {
	type alias ClosedDate
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias: alias(c), Date: FormatDate(c.Date)})
}

// CapacityOverride temporarily replaces the weekly default for a date range.
type CapacityOverride struct {
	ID             int64      `json:"id"`
	TerminalID     int64      `json:"terminal_id"`
	Label          string     `json:"label"`
	StartDate      time.Time  `json:"-"`
	EndDate        time.Time  `json:"-"`
	ManualPriority int        `json:"manual_priority"`
	DayConfigs     DayConfigs `json:"day_configs"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (o CapacityOverride) MarshalJSON() ([]byte, error) {
	type alias CapacityOverride
	return json.Marshal(struct {
		alias
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}{alias: alias(o), StartDate: FormatDate(o.StartDate), EndDate: FormatDate(o.EndDate)})
}

// Covers reports whether date lies within the inclusive range.
func (o *CapacityOverride) Covers(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(DateOf(o.StartDate)) && !d.After(DateOf(o.EndDate))
}

// RangeDays is the inclusive length of the override in days.
func (o *CapacityOverride) RangeDays() int {
	return DaysInRange(o.StartDate, o.EndDate)
}

// ConfigFor returns the weekday config applying to date, or nil.
func (o *CapacityOverride) ConfigFor(date time.Time) *DayConfig {
	if !o.Covers(date) {
		return nil
	}
	return o.DayConfigs.Get(WeekdayOf(date))
}

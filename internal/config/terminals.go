package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"truckslot/internal/model"
)

const DefaultTerminalsPath = "configs/terminals.yaml"

// TerminalConfig is one terminal entry of terminals.yaml.
type TerminalConfig struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	IsActive    bool   `yaml:"is_active"`

	// Schedule applies to every weekday not listed in Weekly.
	Schedule *DayScheduleConfig            `yaml:"schedule,omitempty"`
	Weekly   map[string]*DayScheduleConfig `yaml:"weekly,omitempty"`
	DaysOff  []int                         `yaml:"days_off,omitempty"` // 1=Mon, 7=Sun
}

// DayScheduleConfig is the YAML form of a day configuration.
type DayScheduleConfig struct {
	StartTime           string `yaml:"start_time"`            // "06:00"
	EndTime             string `yaml:"end_time"`              // "22:00"
	SlotDurationMinutes int    `yaml:"slot_duration_minutes"` // 60
	MaxTrucksPerSlot    int    `yaml:"max_trucks_per_slot"`
}

// HolidayConfig closes every synced terminal on a date.
type HolidayConfig struct {
	Date string `yaml:"date"` // "2026-01-01"
	Name string `yaml:"name"`
}

// TerminalDefaults is applied to terminals without their own schedule.
type TerminalDefaults struct {
	Schedule *DayScheduleConfig            `yaml:"schedule"`
	Weekly   map[string]*DayScheduleConfig `yaml:"weekly,omitempty"`
	DaysOff  []int                         `yaml:"days_off"` // 1=Mon, 7=Sun
}

// TerminalsConfig is the root of terminals.yaml.
type TerminalsConfig struct {
	Terminals []TerminalConfig `yaml:"terminals"`
	Defaults  TerminalDefaults `yaml:"defaults"`
	Holidays  []HolidayConfig  `yaml:"holidays"`
}

// LoadTerminalsConfig loads and validates the terminal catalogue.
func LoadTerminalsConfig(path string) (*TerminalsConfig, error) {
	if path == "" {
		path = DefaultTerminalsPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read terminals config: %w", err)
	}
	return ParseTerminalsConfig(data)
}

// ParseTerminalsConfig decodes and validates a terminal catalogue.
func ParseTerminalsConfig(data []byte) (*TerminalsConfig, error) {
	var cfg TerminalsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse terminals config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate terminals config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the catalogue for errors.
func (c *TerminalsConfig) Validate() error {
	if len(c.Terminals) == 0 {
		return fmt.Errorf("no terminals defined")
	}

	ids := make(map[int64]bool)
	names := make(map[string]bool)

	for i, t := range c.Terminals {
		if t.ID <= 0 {
			return fmt.Errorf("terminal[%d]: id must be positive, got %d", i, t.ID)
		}
		if ids[t.ID] {
			return fmt.Errorf("terminal[%d]: duplicate id %d", i, t.ID)
		}
		ids[t.ID] = true

		if t.Name == "" {
			return fmt.Errorf("terminal[%d]: name is required", i)
		}
		if names[t.Name] {
			return fmt.Errorf("terminal[%d]: duplicate name '%s'", i, t.Name)
		}
		names[t.Name] = true

		prefix := fmt.Sprintf("terminal[%d]", i)
		if err := validateWeek(t.Schedule, t.Weekly, t.DaysOff, prefix); err != nil {
			return err
		}
	}

	if err := validateWeek(c.Defaults.Schedule, c.Defaults.Weekly, c.Defaults.DaysOff, "defaults"); err != nil {
		return err
	}

	for i, h := range c.Holidays {
		if h.Date == "" {
			return fmt.Errorf("holiday[%d]: date is required", i)
		}
		if _, err := model.ParseDate(h.Date); err != nil {
			return fmt.Errorf("holiday[%d]: invalid date format '%s', expected YYYY-MM-DD", i, h.Date)
		}
	}
	return nil
}

func validateWeek(schedule *DayScheduleConfig, weekly map[string]*DayScheduleConfig, daysOff []int, prefix string) error {
	if schedule != nil {
		if _, err := schedule.DayConfig(); err != nil {
			return fmt.Errorf("%s.schedule: %w", prefix, err)
		}
	}
	for name, s := range weekly {
		if _, err := model.ParseWeekday(name); err != nil {
			return fmt.Errorf("%s.weekly: %w", prefix, err)
		}
		if s == nil {
			return fmt.Errorf("%s.weekly.%s: schedule is empty", prefix, name)
		}
		if _, err := s.DayConfig(); err != nil {
			return fmt.Errorf("%s.weekly.%s: %w", prefix, name, err)
		}
	}
	for i, d := range daysOff {
		if !model.Weekday(d).Valid() {
			return fmt.Errorf("%s.days_off[%d]: invalid day %d, must be 1-7 (1=Mon, 7=Sun)", prefix, i, d)
		}
	}
	return nil
}

// DayConfig converts and validates a YAML day schedule.
func (s *DayScheduleConfig) DayConfig() (model.DayConfig, error) {
	start, err := model.ParseTimeOfDay(s.StartTime)
	if err != nil {
		return model.DayConfig{}, fmt.Errorf("start_time: %w", err)
	}
	end, err := model.ParseTimeOfDay(s.EndTime)
	if err != nil {
		return model.DayConfig{}, fmt.Errorf("end_time: %w", err)
	}
	cfg := model.DayConfig{
		OperatingStart:      start,
		OperatingEnd:        end,
		SlotDurationMinutes: s.SlotDurationMinutes,
		MaxTrucksPerSlot:    s.MaxTrucksPerSlot,
	}
	if err := cfg.Validate(); err != nil {
		return model.DayConfig{}, err
	}
	return cfg, nil
}

// WeeklyDefaults resolves the weekly baseline of a terminal. Per-weekday
// entries win over a whole-week schedule; terminal settings win over
// catalogue defaults; days off stay unconfigured.
func (c *TerminalsConfig) WeeklyDefaults(t *TerminalConfig) (model.DayConfigs, error) {
	var out model.DayConfigs

	daysOff := t.DaysOff
	if daysOff == nil {
		daysOff = c.Defaults.DaysOff
	}
	off := make(map[model.Weekday]bool, len(daysOff))
	for _, d := range daysOff {
		off[model.Weekday(d)] = true
	}

	for _, w := range model.AllWeekdays {
		if off[w] {
			continue
		}
		s := lookupWeekly(t.Weekly, w)
		if s == nil {
			s = t.Schedule
		}
		if s == nil {
			s = lookupWeekly(c.Defaults.Weekly, w)
		}
		if s == nil {
			s = c.Defaults.Schedule
		}
		if s == nil {
			continue
		}
		cfg, err := s.DayConfig()
		if err != nil {
			return out, fmt.Errorf("terminal %d %s: %w", t.ID, w, err)
		}
		out.Set(w, cfg)
	}
	return out, nil
}

func lookupWeekly(weekly map[string]*DayScheduleConfig, w model.Weekday) *DayScheduleConfig {
	for name, s := range weekly {
		if d, err := model.ParseWeekday(name); err == nil && d == w {
			return s
		}
	}
	return nil
}

// String returns a summary of the configuration.
func (c *TerminalsConfig) String() string {
	active := 0
	for _, t := range c.Terminals {
		if t.IsActive {
			active++
		}
	}
	return fmt.Sprintf("TerminalsConfig: %d terminals (%d active), %d holidays",
		len(c.Terminals), active, len(c.Holidays))
}

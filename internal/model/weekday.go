package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is a day of week numbered 1=Monday .. 7=Sunday.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// AllWeekdays lists weekdays in calendar order starting from Monday.
var AllWeekdays = [7]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayNames = [7]string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

// WeekdayOf converts Go's weekday (0=Sun) to our format (1=Mon, 7=Sun).
func WeekdayOf(t time.Time) Weekday {
	day := int(t.Weekday())
	if day == 0 {
		day = 7
	}
	return Weekday(day)
}

// Valid reports whether w is one of the seven weekdays.
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

func (w Weekday) index() int {
	return int(w) - 1
}

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return weekdayNames[w.index()]
}

// ParseWeekday accepts full names, three-letter abbreviations (any case) and 1..7.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		w := Weekday(n)
		if !w.Valid() {
			return 0, fmt.Errorf("invalid weekday %d, must be 1-7 (1=Mon, 7=Sun)", n)
		}
		return w, nil
	}
	for i, name := range weekdayNames {
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return Weekday(i + 1), nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (w Weekday) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(w))
	}
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Weekday) UnmarshalText(b []byte) error {
	parsed, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// WeekdayNames renders weekdays as their names, preserving order.
func WeekdayNames(days []Weekday) []string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return names
}

// Package capacity resolves the effective schedule of a terminal for a date.
package capacity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"truckslot/internal/model"
)

// ErrConfigNotFound means no closed date, override or weekly default applies.
// Callers treat it as an implicitly closed day.
var ErrConfigNotFound = errors.New("no capacity configuration applies")

// Source tells which tier produced a resolution.
type Source string

const (
	SourceClosedDate    Source = "CLOSED_DATE"
	SourceOverride      Source = "OVERRIDE"
	SourceDefaultConfig Source = "DEFAULT_CONFIG"
	SourceNotConfigured Source = "NOT_CONFIGURED"
)

// TieBreak orders overrides that share the same manual priority.
type TieBreak string

const (
	TieBreakNarrowestRange TieBreak = "narrowest_range"
	TieBreakMostRecent     TieBreak = "most_recent"
)

// DefaultTieBreaks is applied when no order is configured.
var DefaultTieBreaks = []TieBreak{TieBreakNarrowestRange, TieBreakMostRecent}

// ParseTieBreaks validates a configured tie-break order.
func ParseTieBreaks(names []string) ([]TieBreak, error) {
	if len(names) == 0 {
		return DefaultTieBreaks, nil
	}
	seen := make(map[TieBreak]bool)
	out := make([]TieBreak, 0, len(names))
	for _, n := range names {
		tb := TieBreak(strings.ToLower(strings.TrimSpace(n)))
		switch tb {
		case TieBreakNarrowestRange, TieBreakMostRecent:
		default:
			return nil, fmt.Errorf("unknown tie-break rule %q", n)
		}
		if seen[tb] {
			return nil, fmt.Errorf("duplicate tie-break rule %q", n)
		}
		seen[tb] = true
		out = append(out, tb)
	}
	return out, nil
}

// TerminalSchedule is the configuration of one terminal fetched for a request.
type TerminalSchedule struct {
	TerminalID  int64
	Defaults    model.DayConfigs
	ClosedDates map[string]model.ClosedDate // keyed by YYYY-MM-DD
	Overrides   []model.CapacityOverride
}

// Resolution is the effective configuration for one date.
type Resolution struct {
	Date     time.Time
	Source   Source
	Closed   bool
	Reason   string
	Config   *model.DayConfig
	Override *model.CapacityOverride
}

// Resolver applies closed dates > overrides > weekly defaults.
type Resolver struct {
	tieBreaks []TieBreak
}

// NewResolver creates a resolver; an empty order falls back to DefaultTieBreaks.
func NewResolver(tieBreaks ...TieBreak) *Resolver {
	if len(tieBreaks) == 0 {
		tieBreaks = DefaultTieBreaks
	}
	return &Resolver{tieBreaks: tieBreaks}
}

// Resolve returns the effective configuration of the terminal on date.
// A day with no applicable configuration resolves as closed with SourceNotConfigured.
func (r *Resolver) Resolve(s *TerminalSchedule, date time.Time) Resolution {
	res, err := r.resolve(s, model.DateOf(date))
	if errors.Is(err, ErrConfigNotFound) {
		return Resolution{Date: model.DateOf(date), Source: SourceNotConfigured, Closed: true}
	}
	return res
}

func (r *Resolver) resolve(s *TerminalSchedule, date time.Time) (Resolution, error) {
	if cd, ok := s.ClosedDates[model.FormatDate(date)]; ok {
		return Resolution{Date: date, Source: SourceClosedDate, Closed: true, Reason: cd.Reason}, nil
	}

	if o := r.SelectOverride(s.Overrides, date); o != nil {
		return Resolution{Date: date, Source: SourceOverride, Config: o.ConfigFor(date), Override: o}, nil
	}

	if cfg := s.Defaults.Get(model.WeekdayOf(date)); cfg != nil {
		c := *cfg
		return Resolution{Date: date, Source: SourceDefaultConfig, Config: &c}, nil
	}

	return Resolution{}, ErrConfigNotFound
}

// SelectOverride picks the winning override for date among those that cover it
// and configure its weekday. It returns nil when none match.
func (r *Resolver) SelectOverride(overrides []model.CapacityOverride, date time.Time) *model.CapacityOverride {
	var candidates []*model.CapacityOverride
	for i := range overrides {
		if overrides[i].ConfigFor(date) != nil {
			candidates = append(candidates, &overrides[i])
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return r.less(candidates[i], candidates[j])
	})
	return candidates[0]
}

// less reports whether a ranks before b.
func (r *Resolver) less(a, b *model.CapacityOverride) bool {
	if a.ManualPriority != b.ManualPriority {
		return a.ManualPriority > b.ManualPriority
	}
	for _, tb := range r.tieBreaks {
		switch tb {
		case TieBreakNarrowestRange:
			if da, db := a.RangeDays(), b.RangeDays(); da != db {
				return da < db
			}
		case TieBreakMostRecent:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
	}
	return a.ID > b.ID
}

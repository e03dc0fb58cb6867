// Package override validates capacity overrides before they are persisted.
package override

import (
	"fmt"
	"strings"
	"time"

	"truckslot/internal/model"
)

// Validation error codes.
const (
	CodeInvalidTerminal    = "invalid_terminal"
	CodeMissingLabel       = "missing_label"
	CodeInvalidRange       = "invalid_range"
	CodeEmptyDayConfigs    = "empty_day_configs"
	CodeSingleDayMismatch  = "single_day_mismatch"
	CodeMissingWeekdays    = "missing_weekdays"
	CodeUnexpectedWeekdays = "unexpected_weekdays"
	CodeInvalidDayConfig   = "invalid_day_config"
	CodeSlotOffGrid        = "slot_off_grid"
)

// ValidationError describes why an override was rejected.
type ValidationError struct {
	Code           string
	Message        string
	MissingDays    []model.Weekday
	UnexpectedDays []model.Weekday
}

func (e *ValidationError) Error() string {
	return "invalid override: " + e.Message
}

func invalid(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validate checks an override on create and update. A nil result means it may be stored.
func Validate(o *model.CapacityOverride) error {
	if o == nil {
		return invalid(CodeInvalidRange, "override is nil")
	}
	if o.TerminalID <= 0 {
		return invalid(CodeInvalidTerminal, "terminal_id must be positive, got %d", o.TerminalID)
	}
	if strings.TrimSpace(o.Label) == "" {
		return invalid(CodeMissingLabel, "label is required")
	}
	if o.StartDate.IsZero() || o.EndDate.IsZero() {
		return invalid(CodeInvalidRange, "start_date and end_date are required")
	}

	days := model.DaysInRange(o.StartDate, o.EndDate)
	if days == 0 {
		return invalid(CodeInvalidRange, "end_date %s is before start_date %s",
			model.FormatDate(o.EndDate), model.FormatDate(o.StartDate))
	}

	configured := o.DayConfigs.Weekdays()
	if len(configured) == 0 {
		return invalid(CodeEmptyDayConfigs, "at least one day config is required")
	}

	if err := checkCoverage(o, days, configured); err != nil {
		return err
	}

	for _, w := range configured {
		if err := o.DayConfigs.Get(w).Validate(); err != nil {
			return invalid(CodeInvalidDayConfig, "%s: %v", w, err)
		}
	}
	return nil
}

func checkCoverage(o *model.CapacityOverride, days int, configured []model.Weekday) error {
	if days >= 7 {
		return nil
	}

	touched := TouchedWeekdays(o.StartDate, o.EndDate)
	var inRange [8]bool
	for _, w := range touched {
		inRange[w] = true
	}

	var missing, unexpected []model.Weekday
	for _, w := range touched {
		if o.DayConfigs.Get(w) == nil {
			missing = append(missing, w)
		}
	}
	for _, w := range configured {
		if !inRange[w] {
			unexpected = append(unexpected, w)
		}
	}

	if days == 1 {
		if len(configured) == 1 && len(missing) == 0 {
			return nil
		}
		return &ValidationError{
			Code: CodeSingleDayMismatch,
			Message: fmt.Sprintf("a one-day override on %s must configure exactly %s, got %s",
				model.FormatDate(o.StartDate), touched[0], strings.Join(model.WeekdayNames(configured), ", ")),
			MissingDays:    missing,
			UnexpectedDays: unexpected,
		}
	}

	if len(missing) > 0 {
		msg := "missing day configs for " + strings.Join(model.WeekdayNames(missing), ", ")
		if len(unexpected) > 0 {
			msg += "; day configs outside the range for " + strings.Join(model.WeekdayNames(unexpected), ", ")
		}
		return &ValidationError{Code: CodeMissingWeekdays, Message: msg, MissingDays: missing, UnexpectedDays: unexpected}
	}
	if len(unexpected) > 0 {
		return &ValidationError{
			Code:           CodeUnexpectedWeekdays,
			Message:        "day configs outside the range for " + strings.Join(model.WeekdayNames(unexpected), ", "),
			UnexpectedDays: unexpected,
		}
	}
	return nil
}

// TouchedWeekdays lists the distinct weekdays in [start, end] in range order, at most seven.
func TouchedWeekdays(start, end time.Time) []model.Weekday {
	days := model.DaysInRange(start, end)
	if days > 7 {
		days = 7
	}
	out := make([]model.Weekday, 0, days)
	d := model.DateOf(start)
	for i := 0; i < days; i++ {
		out = append(out, model.WeekdayOf(d.AddDate(0, 0, i)))
	}
	return out
}

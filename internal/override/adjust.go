package override

import (
	"fmt"
	"time"

	"truckslot/internal/model"
)

// SlotAdjustment changes the capacity of a single slot on one date. It is
// expressed as a one-day override covering exactly that slot.
type SlotAdjustment struct {
	TerminalID          int64
	Date                time.Time
	SlotStart           model.TimeOfDay
	SlotDurationMinutes int
	MaxTrucks           int
	Priority            int
}

// Label is the generated label of the override.
func (a SlotAdjustment) Label() string {
	return fmt.Sprintf("slot adjustment %s %s", model.FormatDate(a.Date), a.SlotStart)
}

// Override builds and validates the one-day override for the adjustment.
func (a SlotAdjustment) Override() (*model.CapacityOverride, error) {
	date := model.DateOf(a.Date)
	end := a.SlotStart.Add(a.SlotDurationMinutes)
	if end > model.EndOfDay {
		end = model.EndOfDay
	}

	o := &model.CapacityOverride{
		TerminalID:     a.TerminalID,
		Label:          a.Label(),
		StartDate:      date,
		EndDate:        date,
		ManualPriority: a.Priority,
	}
	o.DayConfigs.Set(model.WeekdayOf(date), model.DayConfig{
		OperatingStart:      a.SlotStart,
		OperatingEnd:        end,
		SlotDurationMinutes: a.SlotDurationMinutes,
		MaxTrucksPerSlot:    a.MaxTrucks,
	})

	if err := Validate(o); err != nil {
		return nil, err
	}
	return o, nil
}

// CheckGrid rejects a slot start that is not a slot of the day's current
// grid: it must fall in [OperatingStart, OperatingEnd) on a multiple of the
// slot duration from OperatingStart.
func (a SlotAdjustment) CheckGrid(cfg model.DayConfig) error {
	if a.SlotStart < cfg.OperatingStart || a.SlotStart >= cfg.OperatingEnd {
		return invalid(CodeSlotOffGrid, "slot %s on %s is outside operating hours %s-%s",
			a.SlotStart, model.FormatDate(a.Date), cfg.OperatingStart, cfg.OperatingEnd)
	}
	if cfg.SlotDurationMinutes > 0 && int(a.SlotStart-cfg.OperatingStart)%cfg.SlotDurationMinutes != 0 {
		return invalid(CodeSlotOffGrid, "slot %s on %s is not on the %d-minute grid starting at %s",
			a.SlotStart, model.FormatDate(a.Date), cfg.SlotDurationMinutes, cfg.OperatingStart)
	}
	return nil
}

package availability

import (
	"encoding/json"
	"time"

	"truckslot/internal/capacity"
	"truckslot/internal/model"
)

// OperatingHours describes where a day's configuration came from.
type OperatingHours struct {
	Source              capacity.Source  `json:"source"`
	Start               *model.TimeOfDay `json:"start,omitempty"`
	End                 *model.TimeOfDay `json:"end,omitempty"`
	SlotDurationMinutes int              `json:"slot_duration_minutes,omitempty"`
	OverrideID          int64            `json:"override_id,omitempty"`
	OverrideLabel       string           `json:"override_label,omitempty"`
}

// Slot is a generated slot with its occupancy.
type Slot struct {
	StartTime         model.TimeOfDay `json:"start_time"`
	EndTime           model.TimeOfDay `json:"end_time"`
	MaxCapacity       int             `json:"max_capacity"`
	BookedCount       int             `json:"booked_count"`
	AvailableCapacity int             `json:"available_capacity"`
	IsAvailable       bool            `json:"is_available"`
	Overflow          bool            `json:"overflow"`
	OverflowBy        int             `json:"overflow_by,omitempty"`
}

func slotFrom(s model.TimeSlot) Slot {
	return Slot{
		StartTime:         s.StartTime,
		EndTime:           s.EndTime,
		MaxCapacity:       s.MaxCapacity,
		BookedCount:       s.BookedCount,
		AvailableCapacity: s.AvailableCapacity(),
		IsAvailable:       s.IsAvailable(),
		Overflow:          s.Overflow(),
		OverflowBy:        s.OverflowCount(),
	}
}

// Window is a run of back-to-back slots with free capacity.
type Window struct {
	Start model.TimeOfDay `json:"start"`
	End   model.TimeOfDay `json:"end"`
	Slots int             `json:"slots"`
}

// DayAvailability is the availability of one terminal on one date.
type DayAvailability struct {
	Date              time.Time      `json:"-"`
	Weekday           model.Weekday  `json:"weekday"`
	IsClosed          bool           `json:"is_closed"`
	Reason            string         `json:"reason,omitempty"`
	OperatingHours    OperatingHours `json:"operating_hours"`
	Slots             []Slot         `json:"slots"`
	FreeWindows       []Window       `json:"free_windows,omitempty"`
	HasOverflow       bool           `json:"has_overflow"`
	OverflowSlots     int            `json:"overflow_slots"`
	UnmatchedBookings int            `json:"unmatched_bookings"`
}

func (d DayAvailability) MarshalJSON() ([]byte, error) {
	type alias DayAvailability
	return json.Marshal(struct {
		Date string `json:"date"`
		alias
	}{Date: model.FormatDate(d.Date), alias: alias(d)})
}

// TotalCapacity sums slot capacity of the day.
func (d DayAvailability) TotalCapacity() int {
	total := 0
	for _, s := range d.Slots {
		total += s.MaxCapacity
	}
	return total
}

// TotalBooked sums bookings matched to slots.
func (d DayAvailability) TotalBooked() int {
	total := 0
	for _, s := range d.Slots {
		total += s.BookedCount
	}
	return total
}

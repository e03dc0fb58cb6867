package model

// TimeSlot is a generated slot with its reconciled occupancy.
type TimeSlot struct {
	StartTime   TimeOfDay `json:"start_time"`
	EndTime     TimeOfDay `json:"end_time"`
	MaxCapacity int       `json:"max_capacity"`
	BookedCount int       `json:"booked_count"`
}

// AvailableCapacity never goes below zero, even on overflow.
func (s TimeSlot) AvailableCapacity() int {
	if s.BookedCount >= s.MaxCapacity {
		return 0
	}
	return s.MaxCapacity - s.BookedCount
}

// IsAvailable reports whether at least one truck can still be booked.
func (s TimeSlot) IsAvailable() bool {
	return s.AvailableCapacity() > 0
}

// Overflow reports bookings exceeding the configured capacity.
func (s TimeSlot) Overflow() bool {
	return s.BookedCount > s.MaxCapacity
}

// OverflowCount is the number of bookings above capacity.
func (s TimeSlot) OverflowCount() int {
	if !s.Overflow() {
		return 0
	}
	return s.BookedCount - s.MaxCapacity
}

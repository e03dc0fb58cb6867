package model

import "time"

// BookingStatus is the lifecycle state of a truck booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingRejected  BookingStatus = "REJECTED"
	BookingConsumed  BookingStatus = "CONSUMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingExpired   BookingStatus = "EXPIRED"
)

// OccupyingStatuses are the statuses that hold slot capacity.
var OccupyingStatuses = []BookingStatus{BookingPending, BookingConfirmed}

// OccupiesCapacity reports whether a booking in status s counts against a slot.
func (s BookingStatus) OccupiesCapacity() bool {
	return s == BookingPending || s == BookingConfirmed
}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingRejected, BookingConsumed, BookingCancelled, BookingExpired:
		return true
	}
	return false
}

// Booking is a truck booking as owned by the booking subsystem.
type Booking struct {
	ID         int64         `json:"id"`
	TerminalID int64         `json:"terminal_id"`
	Date       time.Time     `json:"date"`
	StartTime  TimeOfDay     `json:"start_time"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}

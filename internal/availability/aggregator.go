package availability

import (
	"context"
	"time"

	"truckslot/internal/model"
)

// BookingLister is the booking store query used for occupancy.
type BookingLister interface {
	ListBookings(ctx context.Context, terminalID int64, from, to time.Time, statuses []model.BookingStatus) ([]model.Booking, error)
}

// BookingCounts maps YYYY-MM-DD to per-start-time booking counts.
type BookingCounts map[string]map[model.TimeOfDay]int

// ForDate returns the counts of one date; nil when there are none.
func (c BookingCounts) ForDate(date time.Time) map[model.TimeOfDay]int {
	return c[model.FormatDate(date)]
}

// CountBookings groups capacity-occupying bookings by date and start time.
func CountBookings(bookings []model.Booking) BookingCounts {
	counts := make(BookingCounts)
	for _, b := range bookings {
		if !b.Status.OccupiesCapacity() {
			continue
		}
		key := model.FormatDate(b.Date)
		day := counts[key]
		if day == nil {
			day = make(map[model.TimeOfDay]int)
			counts[key] = day
		}
		day[b.StartTime]++
	}
	return counts
}

// Aggregator counts PENDING and CONFIRMED bookings per slot start time.
type Aggregator struct {
	bookings BookingLister
}

func NewAggregator(bookings BookingLister) *Aggregator {
	return &Aggregator{bookings: bookings}
}

// CountByStartTime returns the occupancy of a single date.
func (a *Aggregator) CountByStartTime(ctx context.Context, terminalID int64, date time.Time) (map[model.TimeOfDay]int, error) {
	counts, err := a.CountRange(ctx, terminalID, date, date)
	if err != nil {
		return nil, err
	}
	day := counts.ForDate(date)
	if day == nil {
		day = make(map[model.TimeOfDay]int)
	}
	return day, nil
}

// CountRange fetches bookings of [from, to] in one query and groups them per date.
func (a *Aggregator) CountRange(ctx context.Context, terminalID int64, from, to time.Time) (BookingCounts, error) {
	bookings, err := a.bookings.ListBookings(ctx, terminalID, from, to, model.OccupyingStatuses)
	if err != nil {
		return nil, err
	}
	return CountBookings(bookings), nil
}

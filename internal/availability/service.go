// Package availability reconciles resolved terminal capacity with bookings.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"truckslot/internal/capacity"
	"truckslot/internal/events"
	"truckslot/internal/metrics"
	"truckslot/internal/model"
	"truckslot/internal/slots"
)

// DefaultMaxDays caps the length of one availability request.
const DefaultMaxDays = 90

var (
	ErrInvalidRange  = errors.New("start_date must be before or equal to end_date")
	ErrRangeTooLarge = errors.New("date range exceeds maximum")
)

// Store is the read side the service depends on.
type Store interface {
	BookingLister
	CheckTerminal(ctx context.Context, terminalID int64) error
	LoadTerminalSchedule(ctx context.Context, terminalID int64, from, to time.Time) (*capacity.TerminalSchedule, error)
}

// Service computes per-date, per-slot availability.
type Service struct {
	store      Store
	aggregator *Aggregator
	resolver   *capacity.Resolver
	bus        events.Publisher
	logger     *zerolog.Logger
	maxDays    int
}

func NewService(store Store, resolver *capacity.Resolver, bus events.Publisher, logger *zerolog.Logger, maxDays int) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if resolver == nil {
		resolver = capacity.NewResolver()
	}
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}
	return &Service{
		store:      store,
		aggregator: NewAggregator(store),
		resolver:   resolver,
		bus:        bus,
		logger:     logger,
		maxDays:    maxDays,
	}
}

// MaxDays is the longest accepted range.
func (s *Service) MaxDays() int {
	return s.maxDays
}

// ValidateRange checks ordering and the configured maximum length.
func (s *Service) ValidateRange(start, end time.Time) error {
	days := model.DaysInRange(start, end)
	if days == 0 {
		return ErrInvalidRange
	}
	if days > s.maxDays {
		return fmt.Errorf("%w of %d days", ErrRangeTooLarge, s.maxDays)
	}
	return nil
}

// GetAvailability returns one entry per date in [start, end].
func (s *Service) GetAvailability(ctx context.Context, terminalID int64, start, end time.Time) ([]DayAvailability, error) {
	start, end = model.DateOf(start), model.DateOf(end)
	days, err := s.getAvailability(ctx, terminalID, start, end)
	switch {
	case err == nil:
		metrics.IncAvailabilityRequest("ok")
	case errors.Is(err, model.ErrTerminalNotFound), errors.Is(err, model.ErrTerminalInactive):
		metrics.IncAvailabilityRequest("terminal_unavailable")
	case errors.Is(err, ErrInvalidRange), errors.Is(err, ErrRangeTooLarge):
		metrics.IncAvailabilityRequest("invalid_range")
	default:
		metrics.IncAvailabilityRequest("error")
	}
	return days, err
}

func (s *Service) getAvailability(ctx context.Context, terminalID int64, start, end time.Time) ([]DayAvailability, error) {
	if err := s.ValidateRange(start, end); err != nil {
		return nil, err
	}
	if err := s.store.CheckTerminal(ctx, terminalID); err != nil {
		return nil, err
	}

	schedule, err := s.store.LoadTerminalSchedule(ctx, terminalID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	counts, err := s.aggregator.CountRange(ctx, terminalID, start, end)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	result := make([]DayAvailability, 0, model.DaysInRange(start, end))
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		res := s.resolver.Resolve(schedule, date)
		day := BuildDay(res, counts.ForDate(date))
		metrics.IncResolvedDay(string(res.Source))
		s.logger.Debug().
			Int64("terminal_id", terminalID).
			Str("date", model.FormatDate(date)).
			Str("source", string(res.Source)).
			Int("capacity", day.TotalCapacity()).
			Int("booked", day.TotalBooked()).
			Msg("day resolved")
		s.report(terminalID, day)
		result = append(result, day)
	}
	return result, nil
}

// ResolveDay resolves a single date of a terminal.
func (s *Service) ResolveDay(ctx context.Context, terminalID int64, date time.Time) (capacity.Resolution, error) {
	date = model.DateOf(date)
	if err := s.store.CheckTerminal(ctx, terminalID); err != nil {
		return capacity.Resolution{}, err
	}
	schedule, err := s.store.LoadTerminalSchedule(ctx, terminalID, date, date)
	if err != nil {
		return capacity.Resolution{}, fmt.Errorf("load schedule: %w", err)
	}
	return s.resolver.Resolve(schedule, date), nil
}

// BuildDay turns a resolution and the day's booking counts into availability.
// Closed days carry no slots; bookings on them count as unmatched.
func BuildDay(res capacity.Resolution, counts map[model.TimeOfDay]int) DayAvailability {
	day := DayAvailability{
		Date:           res.Date,
		Weekday:        model.WeekdayOf(res.Date),
		IsClosed:       res.Closed,
		Reason:         res.Reason,
		OperatingHours: OperatingHours{Source: res.Source},
		Slots:          []Slot{},
	}

	if res.Closed || res.Config == nil {
		for _, c := range counts {
			day.UnmatchedBookings += c
		}
		return day
	}

	cfg := *res.Config
	day.OperatingHours.Start = &cfg.OperatingStart
	day.OperatingHours.End = &cfg.OperatingEnd
	day.OperatingHours.SlotDurationMinutes = cfg.SlotDurationMinutes
	if res.Override != nil {
		day.OperatingHours.OverrideID = res.Override.ID
		day.OperatingHours.OverrideLabel = res.Override.Label
	}

	generated := slots.Generate(cfg)
	day.UnmatchedBookings = slots.ApplyCounts(generated, counts)

	day.Slots = make([]Slot, 0, len(generated))
	for _, ts := range generated {
		day.Slots = append(day.Slots, slotFrom(ts))
	}
	day.OverflowSlots = len(slots.OverflowingSlots(generated))
	day.HasOverflow = day.OverflowSlots > 0

	for _, run := range slots.FindConsecutiveSlots(generated) {
		day.FreeWindows = append(day.FreeWindows, Window{
			Start: run[0].StartTime,
			End:   run[len(run)-1].EndTime,
			Slots: len(run),
		})
	}
	return day
}

type overflowPayload struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

// report logs and publishes conditions that need manual reconciliation.
func (s *Service) report(terminalID int64, day DayAvailability) {
	if day.UnmatchedBookings > 0 {
		metrics.AddUnmatchedBookings(terminalID, day.UnmatchedBookings)
		s.logger.Warn().
			Int64("terminal_id", terminalID).
			Str("date", model.FormatDate(day.Date)).
			Str("source", string(day.OperatingHours.Source)).
			Int("unmatched", day.UnmatchedBookings).
			Msg("bookings do not match any slot")
	}
	if !day.HasOverflow {
		return
	}

	metrics.AddOverflowSlots(terminalID, day.OverflowSlots)
	s.logger.Warn().
		Int64("terminal_id", terminalID).
		Str("date", model.FormatDate(day.Date)).
		Int("overflow_slots", day.OverflowSlots).
		Msg("capacity overflow")

	if s.bus == nil {
		return
	}
	payload := overflowPayload{Date: model.FormatDate(day.Date)}
	for _, sl := range day.Slots {
		if sl.Overflow {
			payload.Slots = append(payload.Slots, sl)
		}
	}
	ev, err := events.NewEvent(events.OverflowDetected, terminalID, payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("encode overflow event")
		return
	}
	s.bus.Publish(ev)
}

// Package schedule is the administrative write path for terminal capacity:
// overrides, weekly defaults, closed dates and single-slot adjustments.
package schedule

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
	"truckslot/internal/override"
)

// Store persists schedule configuration.
type Store interface {
	GetTerminal(ctx context.Context, id int64) (*model.Terminal, error)

	CreateOverride(ctx context.Context, o *model.CapacityOverride) error
	UpdateOverride(ctx context.Context, o *model.CapacityOverride) error
	DeleteOverride(ctx context.Context, terminalID, id int64) error
	GetOverride(ctx context.Context, terminalID, id int64) (*model.CapacityOverride, error)
	ListOverrides(ctx context.Context, terminalID int64, from, to time.Time) ([]model.CapacityOverride, error)

	PutDefaultConfig(ctx context.Context, terminalID int64, weekday model.Weekday, cfg model.DayConfig) error
	ListDefaultConfigs(ctx context.Context, terminalID int64) ([]model.WeeklyDefaultConfig, error)

	AddClosedDate(ctx context.Context, c *model.ClosedDate) error
	DeleteClosedDate(ctx context.Context, terminalID int64, date time.Time) error
	ListClosedDates(ctx context.Context, terminalID int64, from, to time.Time) ([]model.ClosedDate, error)
}

// DayResolver resolves the configuration currently in effect for a date.
type DayResolver interface {
	ResolveDay(ctx context.Context, terminalID int64, date time.Time) (capacity.Resolution, error)
}

// Service validates and applies schedule changes and announces them on the bus.
type Service struct {
	store              Store
	resolver           DayResolver
	bus                events.Publisher
	logger             *zerolog.Logger
	adjustmentPriority int
}

func NewService(store Store, resolver DayResolver, bus events.Publisher, logger *zerolog.Logger, adjustmentPriority int) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		store:              store,
		resolver:           resolver,
		bus:                bus,
		logger:             logger,
		adjustmentPriority: adjustmentPriority,
	}
}

func (s *Service) ensureTerminal(ctx context.Context, terminalID int64) error {
	_, err := s.store.GetTerminal(ctx, terminalID)
	return err
}

// CreateOverride validates and stores a new override.
func (s *Service) CreateOverride(ctx context.Context, o *model.CapacityOverride) error {
	if err := s.validate(o); err != nil {
		return err
	}
	if err := s.ensureTerminal(ctx, o.TerminalID); err != nil {
		return err
	}
	if err := s.store.CreateOverride(ctx, o); err != nil {
		return err
	}
	s.publish(events.OverrideCreated, o.TerminalID, o)
	s.logger.Info().
		Int64("terminal_id", o.TerminalID).
		Int64("override_id", o.ID).
		Str("label", o.Label).
		Str("start", model.FormatDate(o.StartDate)).
		Str("end", model.FormatDate(o.EndDate)).
		Int("priority", o.ManualPriority).
		Msg("override created")
	return nil
}

// UpdateOverride replaces an existing override after validating it.
func (s *Service) UpdateOverride(ctx context.Context, o *model.CapacityOverride) error {
	if err := s.validate(o); err != nil {
		return err
	}
	if err := s.store.UpdateOverride(ctx, o); err != nil {
		return err
	}
	s.publish(events.OverrideUpdated, o.TerminalID, o)
	s.logger.Info().Int64("terminal_id", o.TerminalID).Int64("override_id", o.ID).Msg("override updated")
	return nil
}

// DeleteOverride removes an override.
func (s *Service) DeleteOverride(ctx context.Context, terminalID, id int64) error {
	if err := s.store.DeleteOverride(ctx, terminalID, id); err != nil {
		return err
	}
	s.publish(events.OverrideDeleted, terminalID, map[string]int64{"id": id})
	s.logger.Info().Int64("terminal_id", terminalID).Int64("override_id", id).Msg("override deleted")
	return nil
}

func (s *Service) GetOverride(ctx context.Context, terminalID, id int64) (*model.CapacityOverride, error) {
	return s.store.GetOverride(ctx, terminalID, id)
}

// ListOverrides returns overrides intersecting [from, to]; zero bounds are open.
func (s *Service) ListOverrides(ctx context.Context, terminalID int64, from, to time.Time) ([]model.CapacityOverride, error) {
	if err := s.ensureTerminal(ctx, terminalID); err != nil {
		return nil, err
	}
	return s.store.ListOverrides(ctx, terminalID, from, to)
}

// PutDefaultConfig replaces the weekly baseline of one weekday.
func (s *Service) PutDefaultConfig(ctx context.Context, terminalID int64, weekday model.Weekday, cfg model.DayConfig) error {
	if !weekday.Valid() {
		return s.reject(&override.ValidationError{
			Code:    override.CodeInvalidDayConfig,
			Message: fmt.Sprintf("invalid weekday %d", int(weekday)),
		})
	}
	if err := cfg.Validate(); err != nil {
		return s.reject(&override.ValidationError{
			Code:    override.CodeInvalidDayConfig,
			Message: fmt.Sprintf("%s: %v", weekday, err),
		})
	}
	if err := s.ensureTerminal(ctx, terminalID); err != nil {
		return err
	}
	if err := s.store.PutDefaultConfig(ctx, terminalID, weekday, cfg); err != nil {
		return err
	}
	s.publish(events.DefaultConfigReplaced, terminalID, model.DayConfigEntry{Weekday: weekday, DayConfig: cfg})
	s.logger.Info().Int64("terminal_id", terminalID).Str("weekday", weekday.String()).Msg("default config replaced")
	return nil
}

func (s *Service) ListDefaultConfigs(ctx context.Context, terminalID int64) ([]model.WeeklyDefaultConfig, error) {
	if err := s.ensureTerminal(ctx, terminalID); err != nil {
		return nil, err
	}
	return s.store.ListDefaultConfigs(ctx, terminalID)
}

// AddClosedDate closes a terminal on a date.
func (s *Service) AddClosedDate(ctx context.Context, c *model.ClosedDate) error {
	if c.Date.IsZero() {
		return s.reject(&override.ValidationError{Code: override.CodeInvalidRange, Message: "date is required"})
	}
	c.Date = model.DateOf(c.Date)
	if err := s.ensureTerminal(ctx, c.TerminalID); err != nil {
		return err
	}
	if err := s.store.AddClosedDate(ctx, c); err != nil {
		return err
	}
	s.publish(events.ClosedDateAdded, c.TerminalID, c)
	s.logger.Info().Int64("terminal_id", c.TerminalID).Str("date", model.FormatDate(c.Date)).Str("reason", c.Reason).Msg("closed date added")
	return nil
}

// DeleteClosedDate reopens a closed date.
func (s *Service) DeleteClosedDate(ctx context.Context, terminalID int64, date time.Time) error {
	if err := s.store.DeleteClosedDate(ctx, terminalID, date); err != nil {
		return err
	}
	s.publish(events.ClosedDateRemoved, terminalID, map[string]string{"date": model.FormatDate(date)})
	s.logger.Info().Int64("terminal_id", terminalID).Str("date", model.FormatDate(date)).Msg("closed date removed")
	return nil
}

func (s *Service) ListClosedDates(ctx context.Context, terminalID int64, from, to time.Time) ([]model.ClosedDate, error) {
	if err := s.ensureTerminal(ctx, terminalID); err != nil {
		return nil, err
	}
	return s.store.ListClosedDates(ctx, terminalID, from, to)
}

// SlotAdjustmentRequest asks for a different capacity in one slot of one date.
// On an open day SlotStart must be a slot of the current grid. A zero
// SlotDurationMinutes takes the duration in effect for the date and a nil
// Priority takes the configured adjustment priority.
type SlotAdjustmentRequest struct {
	TerminalID          int64
	Date                time.Time
	SlotStart           model.TimeOfDay
	SlotDurationMinutes int
	MaxTrucks           int
	Priority            *int
}

// AdjustSlotCapacity stores a one-day override limited to the given slot.
func (s *Service) AdjustSlotCapacity(ctx context.Context, req SlotAdjustmentRequest) (*model.CapacityOverride, error) {
	adj := override.SlotAdjustment{
		TerminalID:          req.TerminalID,
		Date:                req.Date,
		SlotStart:           req.SlotStart,
		SlotDurationMinutes: req.SlotDurationMinutes,
		MaxTrucks:           req.MaxTrucks,
		Priority:            s.adjustmentPriority,
	}
	if req.Priority != nil {
		adj.Priority = *req.Priority
	}

	res, err := s.resolver.ResolveDay(ctx, req.TerminalID, req.Date)
	if err != nil {
		return nil, err
	}
	switch {
	case res.Config != nil:
		if err := adj.CheckGrid(*res.Config); err != nil {
			return nil, s.reject(err)
		}
		if adj.SlotDurationMinutes == 0 {
			adj.SlotDurationMinutes = res.Config.SlotDurationMinutes
		}
	case adj.SlotDurationMinutes == 0:
		return nil, s.reject(&override.ValidationError{
			Code:    override.CodeInvalidDayConfig,
			Message: fmt.Sprintf("slot_duration_minutes is required: %s has no operating configuration (%s)", model.FormatDate(req.Date), res.Source),
		})
	}

	o, err := adj.Override()
	if err != nil {
		return nil, s.reject(err)
	}
	if err := s.CreateOverride(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) validate(o *model.CapacityOverride) error {
	if err := override.Validate(o); err != nil {
		return s.reject(err)
	}
	return nil
}

// reject counts validation failures and passes err through.
func (s *Service) reject(err error) error {
	var ve *override.ValidationError
	if errors.As(err, &ve) {
		metrics.IncValidationFailure(ve.Code)
		s.logger.Debug().Str("code", ve.Code).Msg(ve.Message)
	}
	return err
}

func (s *Service) publish(eventType string, terminalID int64, payload any) {
	metrics.IncScheduleChange(eventType)
	if s.bus == nil {
		return
	}
	ev, err := events.NewEvent(eventType, terminalID, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("encode event")
		return
	}
	s.bus.Publish(ev)
}

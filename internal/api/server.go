// Package api exposes availability and schedule administration over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"truckslot/internal/availability"
	"truckslot/internal/model"
	"truckslot/internal/ratelimit"
	"truckslot/internal/schedule"
)

// AvailabilityService is the read side used by the API.
type AvailabilityService interface {
	GetAvailability(ctx context.Context, terminalID int64, start, end time.Time) ([]availability.DayAvailability, error)
	MaxDays() int
}

// ScheduleService is the administrative write side used by the API.
type ScheduleService interface {
	CreateOverride(ctx context.Context, o *model.CapacityOverride) error
	UpdateOverride(ctx context.Context, o *model.CapacityOverride) error
	DeleteOverride(ctx context.Context, terminalID, id int64) error
	GetOverride(ctx context.Context, terminalID, id int64) (*model.CapacityOverride, error)
	ListOverrides(ctx context.Context, terminalID int64, from, to time.Time) ([]model.CapacityOverride, error)
	AdjustSlotCapacity(ctx context.Context, req schedule.SlotAdjustmentRequest) (*model.CapacityOverride, error)

	PutDefaultConfig(ctx context.Context, terminalID int64, weekday model.Weekday, cfg model.DayConfig) error
	ListDefaultConfigs(ctx context.Context, terminalID int64) ([]model.WeeklyDefaultConfig, error)

	AddClosedDate(ctx context.Context, c *model.ClosedDate) error
	DeleteClosedDate(ctx context.Context, terminalID int64, date time.Time) error
	ListClosedDates(ctx context.Context, terminalID int64, from, to time.Time) ([]model.ClosedDate, error)
}

// Options configures the HTTP listener.
type Options struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Limiter      ratelimit.Limiter
	RateLimit    ratelimit.Options
}

// HTTPServer serves the REST API.
type HTTPServer struct {
	server       *http.Server
	availability AvailabilityService
	schedule     ScheduleService
	logger       *zerolog.Logger
}

func NewHTTPServer(opts Options, avail AvailabilityService, sched ScheduleService, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 30 * time.Second
	}

	s := &HTTPServer{availability: avail, schedule: sched, logger: logger}
	s.server = &http.Server{
		Addr:              opts.Address,
		Handler:           s.routes(opts),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
	}
	return s
}

func (s *HTTPServer) routes(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestID(s.logger))
	r.Use(accessLog)

	r.Route("/api/terminals/{terminalID}", func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(ratelimit.Middleware(opts.Limiter, s.logger, opts.RateLimit))
		}

		r.Get("/availability", s.handleAvailability)
		r.Get("/availability/export", s.handleAvailabilityExport)

		r.Get("/overrides", s.handleListOverrides)
		r.Post("/overrides", s.handleCreateOverride)
		r.Get("/overrides/{overrideID}", s.handleGetOverride)
		r.Put("/overrides/{overrideID}", s.handleUpdateOverride)
		r.Delete("/overrides/{overrideID}", s.handleDeleteOverride)
		r.Post("/slot-adjustments", s.handleSlotAdjustment)

		r.Get("/default-config", s.handleListDefaultConfigs)
		r.Put("/default-config/{weekday}", s.handlePutDefaultConfig)

		r.Get("/closed-dates", s.handleListClosedDates)
		r.Post("/closed-dates", s.handleAddClosedDate)
		r.Delete("/closed-dates/{date}", s.handleDeleteClosedDate)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

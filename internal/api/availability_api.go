package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"truckslot/internal/availability"
	"truckslot/internal/model"
	"truckslot/internal/report"
)

// AvailabilityResponse is the body of GET /api/terminals/{id}/availability.
type AvailabilityResponse struct {
	TerminalID int64                          `json:"terminal_id"`
	Period     Period                         `json:"period"`
	Days       []availability.DayAvailability `json:"days"`
}

type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (s *HTTPServer) parseAvailabilityRange(r *http.Request) (start, end time.Time, err error) {
	q := r.URL.Query()
	if q.Get("start_date") == "" || q.Get("end_date") == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date and end_date are required")
	}
	if start, err = parseDateParam(r, "start_date"); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end, err = parseDateParam(r, "end_date"); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start_date must be before or equal to end_date")
	}
	if model.DaysInRange(start, end) > s.availability.MaxDays() {
		return time.Time{}, time.Time{}, fmt.Errorf("date range exceeds maximum of %d days", s.availability.MaxDays())
	}
	return start, end, nil
}

// handleAvailability returns per-day, per-slot availability.
// GET /api/terminals/{terminalID}/availability?start_date=&end_date=
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := terminalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := s.parseAvailabilityRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	days, err := s.availability.GetAvailability(r.Context(), id, start, end)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AvailabilityResponse{
		TerminalID: id,
		Period:     Period{Start: r.URL.Query().Get("start_date"), End: r.URL.Query().Get("end_date")},
		Days:       days,
	})
}

// handleAvailabilityExport returns the same data as an XLSX workbook.
// GET /api/terminals/{terminalID}/availability/export?start_date=&end_date=
func (s *HTTPServer) handleAvailabilityExport(w http.ResponseWriter, r *http.Request) {
	id, err := terminalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := s.parseAvailabilityRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	days, err := s.availability.GetAvailability(r.Context(), id, start, end)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteAvailability(&buf, days); err != nil {
		writeServiceError(w, r, fmt.Errorf("render export: %w", err))
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(id, days)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

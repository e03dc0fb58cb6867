package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"truckslot/internal/model"
)

// ClosedDateRequest is the body of POST /closed-dates.
type ClosedDateRequest struct {
	Date   string `json:"date"`
	Reason string `json:"reason,omitempty"`
}

// GET /api/terminals/{terminalID}/default-config
func (s *HTTPServer) handleListDefaultConfigs(w http.ResponseWriter, r *http.Request) {
	id, err := terminalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := s.schedule.ListDefaultConfigs(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []model.WeeklyDefaultConfig{}
	}
	writeJSON(w, http.StatusOK, list)
}

// PUT /api/terminals/{terminalID}/default-config/{weekday}
func (s *HTTPServer) handlePutDefaultConfig(w http.ResponseWriter, r *http.Request) {
	id, err := terminalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	weekday, err := model.ParseWeekday(chi.URLParam(r, "weekday"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var cfg model.DayConfig
	if err := decodeJSON(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := s.schedule.PutDefaultConfig(r.Context(), id, weekday, cfg); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.WeeklyDefaultConfig{TerminalID: id, Weekday: weekday, DayConfig: cfg})
}

// GET /api/terminals/{terminalID}/closed-dates?from=&to=
func (s *HTTPServer) handleListClosedDates(w http.ResponseWriter, r *http.Request) {
	id, err := terminalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, err := parseDateParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := s.schedule.ListClosedDates(r.Context(), id, from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []model.ClosedDate{}
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /api/terminals/{terminalID}/closed-dates
func (s *HTTPServer) handleAddClosedDate(w http.ResponseWriter, r *http.Request) {
	id, err := terminalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req ClosedDateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	c := &model.ClosedDate{TerminalID: id, Date: date, Reason: req.Reason}
	if err := s.schedule.AddClosedDate(r.Context(), c); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// DELETE /api/terminals/{terminalID}/closed-dates/{date}
func (s *HTTPServer) handleDeleteClosedDate(w http.ResponseWriter, r *http.Request) {
	id, err := terminalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := model.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	if err := s.schedule.DeleteClosedDate(r.Context(), id, date); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

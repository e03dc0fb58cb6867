package api

import (
	"net/http"

	"truckslot/internal/model"
	"truckslot/internal/schedule"
)

// OverrideRequest is the body of override create and update.
type OverrideRequest struct {
	Label          string           `json:"label"`
	StartDate      string           `json:"start_date"`
	EndDate        string           `json:"end_date"`
	ManualPriority int              `json:"manual_priority"`
	DayConfigs     model.DayConfigs `json:"day_configs"`
}

func (req *OverrideRequest) toModel(terminalID int64) (*model.CapacityOverride, string) {
	if req.StartDate == "" || req.EndDate == "" {
		return nil, "start_date and end_date are required"
	}
	start, err := model.ParseDate(req.StartDate)
	if err != nil {
		return nil, "invalid start_date format; expected YYYY-MM-DD"
	}
	end, err := model.ParseDate(req.EndDate)
	if err != nil {
		return nil, "invalid end_date format; expected YYYY-MM-DD"
	}
	return &model.CapacityOverride{
		TerminalID:     terminalID,
		Label:          req.Label,
		StartDate:      start,
		EndDate:        end,
		ManualPriority: req.ManualPriority,
		DayConfigs:     req.DayConfigs,
	}, ""
}

// SlotAdjustmentRequest is the body of POST /slot-adjustments.
type SlotAdjustmentRequest struct {
	Date                string           `json:"date"`
	SlotStart           *model.TimeOfDay `json:"slot_start"`
	SlotDurationMinutes int              `json:"slot_duration_minutes,omitempty"`
	MaxTrucks           int              `json:"max_trucks"`
	Priority            *int             `json:"priority,omitempty"`
}

// GET /api/terminals/{terminalID}/overrides?from=&to=
func (s *HTTPServer) handleListOverrides(w http.ResponseWriter, r *http.Request) {
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

	list, err := s.schedule.ListOverrides(r.Context(), id, from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []model.CapacityOverride{}
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /api/terminals/{terminalID}/overrides
func (s *HTTPServer) handleCreateOverride(w http.ResponseWriter, r *http.Request) {
	id, err := terminalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req OverrideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	o, msg := req.toModel(id)
	if o == nil {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.schedule.CreateOverride(r.Context(), o); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// GET /api/terminals/{terminalID}/overrides/{overrideID}
func (s *HTTPServer) handleGetOverride(w http.ResponseWriter, r *http.Request) {
	id, err := terminalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	overrideID, err := pathID(r, "overrideID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid override id")
		return
	}

	o, err := s.schedule.GetOverride(r.Context(), id, overrideID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// PUT /api/terminals/{terminalID}/overrides/{overrideID}
func (s *HTTPServer) handleUpdateOverride(w http.ResponseWriter, r *http.Request) {
	id, err := terminalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	overrideID, err := pathID(r, "overrideID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid override id")
		return
	}
	var req OverrideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	o, msg := req.toModel(id)
	if o == nil {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	o.ID = overrideID

	if err := s.schedule.UpdateOverride(r.Context(), o); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// DELETE /api/terminals/{terminalID}/overrides/{overrideID}
func (s *HTTPServer) handleDeleteOverride(w http.ResponseWriter, r *http.Request) {
	id, err := terminalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	overrideID, err := pathID(r, "overrideID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid override id")
		return
	}

	if err := s.schedule.DeleteOverride(r.Context(), id, overrideID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/terminals/{terminalID}/slot-adjustments
func (s *HTTPServer) handleSlotAdjustment(w http.ResponseWriter, r *http.Request) {
	id, err := terminalID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req SlotAdjustmentRequest
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
	if req.SlotStart == nil {
		writeError(w, http.StatusBadRequest, "slot_start is required")
		return
	}

	o, err := s.schedule.AdjustSlotCapacity(r.Context(), schedule.SlotAdjustmentRequest{
		TerminalID:          id,
		Date:                date,
		SlotStart:           *req.SlotStart,
		SlotDurationMinutes: req.SlotDurationMinutes,
		MaxTrucks:           req.MaxTrucks,
		Priority:            req.Priority,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

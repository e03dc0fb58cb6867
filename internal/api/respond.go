package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"truckslot/internal/availability"
	"truckslot/internal/model"
	"truckslot/internal/override"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error          string   `json:"error"`
	Code           string   `json:"code,omitempty"`
	MissingDays    []string `json:"missing_days,omitempty"`
	UnexpectedDays []string `json:"unexpected_days,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps domain errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *override.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:          ve.Error(),
			Code:           ve.Code,
			MissingDays:    model.WeekdayNames(ve.MissingDays),
			UnexpectedDays: model.WeekdayNames(ve.UnexpectedDays),
		})
	case errors.Is(err, model.ErrTerminalNotFound),
		errors.Is(err, model.ErrTerminalInactive),
		errors.Is(err, model.ErrOverrideNotFound),
		errors.Is(err, model.ErrClosedDateNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrClosedDateExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, availability.ErrInvalidRange), errors.Is(err, availability.ErrRangeTooLarge):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func terminalID(r *http.Request) (int64, error) {
	id, err := pathID(r, "terminalID")
	if err != nil {
		return 0, fmt.Errorf("invalid terminal id")
	}
	return id, nil
}

// parseDateParam parses an optional YYYY-MM-DD query parameter.
func parseDateParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	d, err := model.ParseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format; expected YYYY-MM-DD", name)
	}
	return d, nil
}

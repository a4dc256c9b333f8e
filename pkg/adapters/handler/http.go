package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/wadjakorntonsri/habit-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/habit-tracker/pkg/ports"
)

type HTTPHandler struct {
	service ports.HabitService
	loc     *time.Location
}

// NewHTTPHandler builds the habit endpoints. loc is the zone used to cut
// timestamps passed to GET /day into calendar days.
func NewHTTPHandler(service ports.HabitService, loc *time.Location) *HTTPHandler {
	if loc == nil {
		loc = time.Local
	}
	return &HTTPHandler{service: service, loc: loc}
}

// Create Habit
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateHabitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := h.service.CreateHabit(r.Context(), req.Title, req.WeekDays); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// Day lists the habits possible on a date and the ones completed.
func (h *HTTPHandler) Day(w http.ResponseWriter, r *http.Request) {
	q, err := parseDayQuery(r, h.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := h.service.GetDay(r.Context(), q.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// Toggle flips today's completion of a habit.
func (h *HTTPHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, err := parseHabitID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := h.service.ToggleHabit(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetSummary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if summary == nil {
		summary = []domain.DaySummary{}
	}

	writeJSON(w, http.StatusOK, summary)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Unexpected errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error()})
	case errors.Is(err, domain.ErrHabitNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

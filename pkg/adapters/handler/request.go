package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/habit-tracker/pkg/core/domain"
)

const maxBodyBytes = 1 << 20

// CreateHabitRequest payload. JSON field matching is case-insensitive, so
// "weekdays" is accepted as well.
type CreateHabitRequest struct {
	Title    string `json:"title"`
	WeekDays []int  `json:"weekDays"`
}

func (r CreateHabitRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return domain.NewValidationError("title", "is required")
	}
	if len(r.WeekDays) == 0 {
		return domain.NewValidationError("weekDays", "must contain at least one day")
	}
	for _, d := range r.WeekDays {
		if !domain.WeekDay(d).Valid() {
			return domain.NewValidationError("weekDays", fmt.Sprintf("day %d is out of range 0..6", d))
		}
	}
	return nil
}

// DayQuery is the query of GET /day.
type DayQuery struct {
	Date domain.Date
}

func parseDayQuery(r *http.Request, loc *time.Location) (DayQuery, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return DayQuery{}, domain.NewValidationError("date", "is required")
	}
	date, err := domain.ParseDate(raw, loc)
	if err != nil {
		return DayQuery{}, domain.NewValidationError("date", "must be YYYY-MM-DD or an RFC 3339 timestamp")
	}
	return DayQuery{Date: date}, nil
}

func parseHabitID(r *http.Request) (string, error) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", domain.NewValidationError("id", "must be a valid UUID")
	}
	return id, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return domain.NewValidationError("body", "is required")
		case errors.As(err, &maxErr):
			return domain.NewValidationError("body", "is too large")
		default:
			return domain.NewValidationError("body", "is not valid JSON")
		}
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wadjakorntonsri/habit-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/habit-tracker/pkg/observability"
	"github.com/wadjakorntonsri/habit-tracker/pkg/ports"
)

type HabitService struct {
	repo      ports.HabitRepository
	publisher ports.EventPublisher
	now       func() time.Time
	loc       *time.Location
}

// Option customizes a HabitService.
type Option func(*HabitService)

// WithClock overrides the source of "now", which decides the day a toggle
// applies to and the creation time of new habits.
func WithClock(now func() time.Time) Option {
	return func(s *HabitService) { s.now = now }
}

// WithLocation sets the zone in which timestamps are cut into calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *HabitService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithPublisher announces created and toggled habits. Publishing failures
// are logged and never fail the request.
func WithPublisher(p ports.EventPublisher) Option {
	return func(s *HabitService) { s.publisher = p }
}

func NewHabitService(repo ports.HabitRepository, opts ...Option) *HabitService {
	s := &HabitService{
		repo: repo,
		now:  time.Now,
		loc:  time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the zone used to derive calendar days.
func (s *HabitService) Location() *time.Location {
	return s.loc
}

// Today returns the current calendar day.
func (s *HabitService) Today() domain.Date {
	return domain.StartOfDay(s.now(), s.loc)
}

func (s *HabitService) CreateHabit(ctx context.Context, title string, weekDays []int) (*domain.Habit, error) {
	title, days, err := domain.NormalizeHabit(title, weekDays)
	if err != nil {
		return nil, err
	}

	now := s.now()
	habit := &domain.Habit{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		CreatedOn: domain.StartOfDay(now, s.loc),
		WeekDays:  days,
	}

	if err := s.repo.CreateHabit(ctx, habit); err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	observability.RecordHabitCreated()

	if s.publisher != nil {
		if err := s.publisher.PublishHabitCreated(ctx, *habit); err != nil {
			slog.ErrorContext(ctx, "Failed to publish habit created event", "habit_id", habit.ID, "error", err)
		}
	}

	return habit, nil
}

// GetDay resolves the habits possible on date and which of them were completed.
func (s *HabitService) GetDay(ctx context.Context, date domain.Date) (*domain.DayDetail, error) {
	detail := &domain.DayDetail{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		habits, err := s.repo.PossibleHabits(gctx, date)
		if err != nil {
			return fmt.Errorf("possible habits: %w", err)
		}
		detail.PossibleHabits = habits
		return nil
	})
	g.Go(func() error {
		ids, err := s.repo.CompletedHabitIDs(gctx, date)
		if err != nil {
			return fmt.Errorf("completed habits: %w", err)
		}
		detail.CompletedHabits = ids
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if detail.PossibleHabits == nil {
		detail.PossibleHabits = []domain.Habit{}
	}
	if detail.CompletedHabits == nil {
		detail.CompletedHabits = []string{}
	}
	return detail, nil
}

// ToggleHabit flips today's completion of a habit and reports the new state.
func (s *HabitService) ToggleHabit(ctx context.Context, habitID string) (bool, error) {
	if _, err := uuid.Parse(habitID); err != nil {
		return false, domain.NewValidationError("id", "must be a valid UUID")
	}

	today := s.Today()
	completed, err := s.repo.ToggleCompletion(ctx, today, habitID)
	if err != nil {
		return false, err
	}
	observability.RecordToggle(completed)

	if s.publisher != nil {
		if err := s.publisher.PublishHabitToggled(ctx, habitID, today, completed); err != nil {
			slog.ErrorContext(ctx, "Failed to publish habit toggled event", "habit_id", habitID, "error", err)
		}
	}

	return completed, nil
}

func (s *HabitService) GetSummary(ctx context.Context) ([]domain.DaySummary, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	return summary, nil
}

var _ ports.HabitService = (*HabitService)(nil)

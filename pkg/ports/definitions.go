package ports

import (
	"context"

	"github.com/wadjakorntonsri/habit-tracker/pkg/core/domain"
)

// HabitRepository defines storage operations for habits, days and completions
type HabitRepository interface {
	CreateHabit(ctx context.Context, habit *domain.Habit) error

	// Day resolution
	PossibleHabits(ctx context.Context, date domain.Date) ([]domain.Habit, error)
	CompletedHabitIDs(ctx context.Context, date domain.Date) ([]string, error)

	// ToggleCompletion flips the completion of habitID on date, creating the
	// Day row if needed. It returns true when the habit is now completed.
	ToggleCompletion(ctx context.Context, date domain.Date, habitID string) (bool, error)

	Summary(ctx context.Context) ([]domain.DaySummary, error)

	// For migration
	Dump(ctx context.Context) (*domain.Dump, error)
	Restore(ctx context.Context, dump *domain.Dump) (int, error)

	Close() error
}

// HabitService defines the business logic operations
type HabitService interface {
	CreateHabit(ctx context.Context, title string, weekDays []int) (*domain.Habit, error)
	GetDay(ctx context.Context, date domain.Date) (*domain.DayDetail, error)
	ToggleHabit(ctx context.Context, habitID string) (bool, error)
	GetSummary(ctx context.Context) ([]domain.DaySummary, error)
}

// EventPublisher announces habit changes to other systems
type EventPublisher interface {
	PublishHabitCreated(ctx context.Context, habit domain.Habit) error
	PublishHabitToggled(ctx context.Context, habitID string, date domain.Date, completed bool) error
}

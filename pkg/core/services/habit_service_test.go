package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/habit-tracker/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/habit-tracker/pkg/core/domain"
)

type publishedToggle struct {
	habitID   string
	date      domain.Date
	completed bool
}

type fakePublisher struct {
	mu      sync.Mutex
	created []domain.Habit
	toggled []publishedToggle
	err     error
}

func (p *fakePublisher) PublishHabitCreated(ctx context.Context, habit domain.Habit) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, habit)
	return p.err
}

func (p *fakePublisher) PublishHabitToggled(ctx context.Context, habitID string, date domain.Date, completed bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.toggled = append(p.toggled, publishedToggle{habitID: habitID, date: date, completed: completed})
	return p.err
}

type testEnv struct {
	svc  *HabitService
	repo *sqlite.SQLiteRepository
	now  time.Time
	pub  *fakePublisher
}

func (e *testEnv) setNow(t time.Time) { e.now = t }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := sqlite.NewSQLiteRepository("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	env := &testEnv{
		repo: repo,
		now:  time.Date(2024, time.January, 8, 10, 0, 0, 0, time.UTC), // Monday
		pub:  &fakePublisher{},
	}
	env.svc = NewHabitService(repo,
		WithClock(func() time.Time { return env.now }),
		WithLocation(time.UTC),
		WithPublisher(env.pub),
	)
	return env
}

func TestCreateHabit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	habit, err := env.svc.CreateHabit(ctx, " Read ", []int{5, 1, 3, 1})
	require.NoError(t, err)
	assert.NotEmpty(t, habit.ID)
	assert.Equal(t, "Read", habit.Title)
	assert.Equal(t, []domain.WeekDay{domain.Monday, domain.Wednesday, domain.Friday}, habit.WeekDays)
	assert.Equal(t, env.now, habit.CreatedAt)
	assert.Equal(t, domain.NewDate(2024, time.January, 8), habit.CreatedOn)

	require.Len(t, env.pub.created, 1)
	assert.Equal(t, habit.ID, env.pub.created[0].ID)
}

func TestCreateHabitValidationSkipsStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.CreateHabit(ctx, "Run", []int{})
	assert.True(t, domain.IsValidation(err))
	_, err = env.svc.CreateHabit(ctx, "Run", []int{7})
	assert.True(t, domain.IsValidation(err))
	_, err = env.svc.CreateHabit(ctx, "", []int{1})
	assert.True(t, domain.IsValidation(err))

	dump, err := env.repo.Dump(ctx)
	require.NoError(t, err)
	assert.Empty(t, dump.Habits)
	assert.Empty(t, env.pub.created)
}

func TestGetDayResolvesByWeekdayAndCreation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	habit, err := env.svc.CreateHabit(ctx, "Gym", []int{1, 3, 5})
	require.NoError(t, err)

	monday := domain.NewDate(2024, time.January, 8)
	day, err := env.svc.GetDay(ctx, monday)
	require.NoError(t, err)
	require.Len(t, day.PossibleHabits, 1)
	assert.Equal(t, habit.ID, day.PossibleHabits[0].ID)
	assert.Equal(t, []string{}, day.CompletedHabits)

	tuesday := monday.AddDays(1)
	day, err = env.svc.GetDay(ctx, tuesday)
	require.NoError(t, err)
	assert.Empty(t, day.PossibleHabits)
	assert.NotNil(t, day.PossibleHabits)

	// The Monday before creation is scheduled but the habit did not exist yet.
	day, err = env.svc.GetDay(ctx, monday.AddDays(-7))
	require.NoError(t, err)
	assert.Empty(t, day.PossibleHabits)

	day, err = env.svc.GetDay(ctx, monday.AddDays(7))
	require.NoError(t, err)
	assert.Len(t, day.PossibleHabits, 1)
}

func TestHabitCreatedLateInDayAppliesThatDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.setNow(time.Date(2024, time.January, 8, 23, 59, 0, 0, time.UTC))
	_, err := env.svc.CreateHabit(ctx, "Journal", []int{1})
	require.NoError(t, err)

	day, err := env.svc.GetDay(ctx, domain.NewDate(2024, time.January, 8))
	require.NoError(t, err)
	assert.Len(t, day.PossibleHabits, 1)
}

func TestToggleHabitTwiceRestoresState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	today := env.svc.Today()

	habit, err := env.svc.CreateHabit(ctx, "Drink water", []int{0, 1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	completed, err := env.svc.ToggleHabit(ctx, habit.ID)
	require.NoError(t, err)
	assert.True(t, completed)

	summary, err := env.svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, today, summary[0].Date)
	assert.Equal(t, 1, summary[0].Amount)
	assert.Equal(t, 1, summary[0].Completed)

	day, err := env.svc.GetDay(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, []string{habit.ID}, day.CompletedHabits)

	completed, err = env.svc.ToggleHabit(ctx, habit.ID)
	require.NoError(t, err)
	assert.False(t, completed)

	day, err = env.svc.GetDay(ctx, today)
	require.NoError(t, err)
	assert.Empty(t, day.CompletedHabits)

	// The day row survives the undo.
	summary, err = env.svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, 1, summary[0].Amount)
	assert.Equal(t, 0, summary[0].Completed)

	require.Len(t, env.pub.toggled, 2)
	assert.Equal(t, publishedToggle{habitID: habit.ID, date: today, completed: true}, env.pub.toggled[0])
	assert.Equal(t, publishedToggle{habitID: habit.ID, date: today, completed: false}, env.pub.toggled[1])
}

func TestToggleHabitErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.ToggleHabit(ctx, "not-a-uuid")
	assert.True(t, domain.IsValidation(err))

	_, err = env.svc.ToggleHabit(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrHabitNotFound)

	// A failed toggle must not leave a day behind.
	summary, err := env.svc.GetSummary(ctx)
	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestToggleUsesLocalCalendarDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	brt := time.FixedZone("BRT", -3*60*60)
	env.svc = NewHabitService(env.repo,
		WithClock(func() time.Time { return env.now }),
		WithLocation(brt),
	)

	env.setNow(time.Date(2024, time.January, 8, 1, 0, 0, 0, time.UTC)) // 22:00 Sunday in BRT
	habit, err := env.svc.CreateHabit(ctx, "Stretch", []int{0})
	require.NoError(t, err)
	assert.Equal(t, domain.NewDate(2024, time.January, 7), habit.CreatedOn)

	_, err = env.svc.ToggleHabit(ctx, habit.ID)
	require.NoError(t, err)

	summary, err := env.svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, domain.NewDate(2024, time.January, 7), summary[0].Date)
	assert.Equal(t, 1, summary[0].Amount)
}

func TestSummaryOnlyListsToggledDays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	habit, err := env.svc.CreateHabit(ctx, "Walk", []int{0, 1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	env.setNow(env.now.AddDate(0, 0, 2))
	_, err = env.svc.ToggleHabit(ctx, habit.ID)
	require.NoError(t, err)

	summary, err := env.svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, domain.NewDate(2024, time.January, 10), summary[0].Date)
}

// The summary counts possible habits in SQL while GetDay resolves them with
// the Go weekday; both must agree on every day of the year.
func TestSummaryAmountMatchesResolver(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	start := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)
	env.setNow(start)
	daily, err := env.svc.CreateHabit(ctx, "Daily", []int{0, 1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	var habits []*domain.Habit
	habits = append(habits, daily)

	schedules := [][]int{{0}, {6}, {1, 3, 5}, {2, 4}, {0, 6}}
	for i := 0; i < 366; i++ {
		env.setNow(start.AddDate(0, 0, i))
		if i%40 == 5 {
			h, err := env.svc.CreateHabit(ctx, "Habit", schedules[(i/40)%len(schedules)])
			require.NoError(t, err)
			habits = append(habits, h)
		}
		_, err := env.svc.ToggleHabit(ctx, daily.ID)
		require.NoError(t, err)
	}

	summary, err := env.svc.GetSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 366)

	for _, row := range summary {
		day, err := env.svc.GetDay(ctx, row.Date)
		require.NoError(t, err)

		want := 0
		for _, h := range habits {
			if h.AppliesTo(row.Date) {
				want++
			}
		}
		assert.Equal(t, want, row.Amount, row.Date.String())
		assert.Equal(t, len(day.PossibleHabits), row.Amount, row.Date.String())
		assert.Equal(t, 1, row.Completed, row.Date.String())
	}
}

func TestConcurrentTogglesKeepOneCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	habit, err := env.svc.CreateHabit(ctx, "Meditate", []int{1})
	require.NoError(t, err)

	const workers = 9
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.svc.ToggleHabit(ctx, habit.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("toggle failed: %v", err)
	}

	dump, err := env.repo.Dump(ctx)
	require.NoError(t, err)
	assert.Len(t, dump.Days, 1)
	// An odd number of serialized toggles leaves the habit completed.
	assert.Len(t, dump.DayHabits, 1)
}

func TestPublisherFailureDoesNotFailRequest(t *testing.T) {
	env := newTestEnv(t)
	env.pub.err = errors.New("broker down")
	ctx := context.Background()

	habit, err := env.svc.CreateHabit(ctx, "Floss", []int{1})
	require.NoError(t, err)

	completed, err := env.svc.ToggleHabit(ctx, habit.ID)
	require.NoError(t, err)
	assert.True(t, completed)
}

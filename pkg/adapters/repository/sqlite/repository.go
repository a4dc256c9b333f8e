package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/habit-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/habit-tracker/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

// localPragmas are applied to every local SQLite connection.
var localPragmas = []string{
	"_pragma=foreign_keys(1)",
	"_pragma=busy_timeout(5000)",
	"_txlock=immediate",
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := DriverName(dbURL)
	dsn := dbURL
	if driverName == "sqlite" {
		dsn = withPragmas(dbURL)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single local connection serializes writers; SQLite allows only one anyway.
	if driverName == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(driverName, dsn); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

// DriverName picks the database/sql driver for a DATABASE_URL.
func DriverName(dbURL string) string {
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		return "libsql"
	}
	return "sqlite"
}

func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	var extra []string
	for _, p := range localPragmas {
		if !strings.Contains(dsn, p) {
			extra = append(extra, p)
		}
	}
	if len(extra) == 0 {
		return dsn
	}
	return dsn + sep + strings.Join(extra, "&")
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreateHabit(ctx context.Context, habit *domain.Habit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertHabit(ctx, tx, habit); err != nil {
		return err
	}

	return tx.Commit()
}

func insertHabit(ctx context.Context, tx *sql.Tx, habit *domain.Habit) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO habits (id, title, created_at, created_on) VALUES (?, ?, ?, ?)`,
		habit.ID, habit.Title, habit.CreatedAt.UTC().Format(time.RFC3339Nano), habit.CreatedOn.String())
	if err != nil {
		return fmt.Errorf("insert habit: %w", err)
	}

	for _, wd := range habit.WeekDays {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO habit_week_days (habit_id, week_day) VALUES (?, ?)`, habit.ID, int(wd))
		if err != nil {
			return fmt.Errorf("insert week day %d: %w", wd, err)
		}
	}
	return nil
}

// PossibleHabits returns the habits that exist by date and are scheduled for
// its weekday.
func (r *SQLiteRepository) PossibleHabits(ctx context.Context, date domain.Date) ([]domain.Habit, error) {
	query := `
		SELECT h.id, h.title, h.created_at, h.created_on,
			(SELECT group_concat(w.week_day) FROM habit_week_days w WHERE w.habit_id = h.id)
		FROM habits h
		WHERE h.created_on <= ?
			AND EXISTS (
				SELECT 1 FROM habit_week_days w
				WHERE w.habit_id = h.id AND w.week_day = ?
			)
		ORDER BY h.created_at, h.id`

	return r.queryHabits(ctx, query, date.String(), int(date.WeekDay()))
}

func (r *SQLiteRepository) queryHabits(ctx context.Context, query string, args ...any) ([]domain.Habit, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []domain.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func scanHabit(rows *sql.Rows) (domain.Habit, error) {
	var h domain.Habit
	var createdAt, createdOn string
	var weekDays sql.NullString

	if err := rows.Scan(&h.ID, &h.Title, &createdAt, &createdOn, &weekDays); err != nil {
		return h, err
	}

	var err error
	h.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return h, fmt.Errorf("parse created_at for habit %s: %w", h.ID, err)
	}
	h.CreatedOn, err = domain.ParseDate(createdOn, time.UTC)
	if err != nil {
		return h, fmt.Errorf("parse created_on for habit %s: %w", h.ID, err)
	}
	h.WeekDays, err = parseWeekDays(weekDays.String)
	if err != nil {
		return h, fmt.Errorf("parse week days for habit %s: %w", h.ID, err)
	}
	return h, nil
}

// parseWeekDays reads a group_concat list such as "1,3,5".
func parseWeekDays(s string) ([]domain.WeekDay, error) {
	days := []domain.WeekDay{}
	if s == "" {
		return days, nil
	}
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		days = append(days, domain.WeekDay(n))
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, nil
}

func (r *SQLiteRepository) CompletedHabitIDs(ctx context.Context, date domain.Date) ([]string, error) {
	query := `SELECT dh.habit_id
			  FROM day_habits dh
			  JOIN days d ON d.id = dh.day_id
			  WHERE d.date = ?
			  ORDER BY dh.habit_id`

	rows, err := r.db.QueryContext(ctx, query, date.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ToggleCompletion runs the whole toggle in one transaction. Both inserts use
// ON CONFLICT DO NOTHING, so a concurrent writer that created the same day or
// link first turns ours into a no-op instead of an error.
func (r *SQLiteRepository) ToggleCompletion(ctx context.Context, date domain.Date, habitID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM habits WHERE id = ?`, habitID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, domain.ErrHabitNotFound
	}
	if err != nil {
		return false, fmt.Errorf("lookup habit: %w", err)
	}

	dayID, err := ensureDay(ctx, tx, date)
	if err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM day_habits WHERE day_id = ? AND habit_id = ?`, dayID, habitID)
	if err != nil {
		return false, fmt.Errorf("delete completion: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	completed := false
	if removed == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO day_habits (day_id, habit_id) VALUES (?, ?) ON CONFLICT(day_id, habit_id) DO NOTHING`,
			dayID, habitID)
		if err != nil {
			return false, fmt.Errorf("insert completion: %w", err)
		}
		completed = true
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit toggle: %w", err)
	}

	slog.DebugContext(ctx, "Habit completion toggled",
		"habit_id", habitID,
		"date", date.String(),
		"completed", completed)

	return completed, nil
}

// ensureDay returns the id of the Day row for date, inserting it if absent.
func ensureDay(ctx context.Context, tx *sql.Tx, date domain.Date) (string, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO days (id, date) VALUES (?, ?) ON CONFLICT(date) DO NOTHING`,
		uuid.NewString(), date.String())
	if err != nil {
		return "", fmt.Errorf("insert day: %w", err)
	}

	var dayID string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM days WHERE date = ?`, date.String()).Scan(&dayID); err != nil {
		return "", fmt.Errorf("fetch day: %w", err)
	}
	return dayID, nil
}

// Summary computes, for every stored day, how many habits were possible and
// how many were completed. strftime('%w') numbers weekdays from Sunday = 0,
// matching domain.WeekDay.
func (r *SQLiteRepository) Summary(ctx context.Context) ([]domain.DaySummary, error) {
	query := `
		SELECT
			d.id,
			d.date,
			(
				SELECT COUNT(*)
				FROM habit_week_days w
				JOIN habits h ON h.id = w.habit_id
				WHERE w.week_day = CAST(strftime('%w', d.date) AS INTEGER)
					AND h.created_on <= d.date
			) AS amount,
			(
				SELECT COUNT(*)
				FROM day_habits dh
				WHERE dh.day_id = d.id
			) AS completed
		FROM days d
		ORDER BY d.date`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := []domain.DaySummary{}
	for rows.Next() {
		var s domain.DaySummary
		var date string
		if err := rows.Scan(&s.ID, &date, &s.Amount, &s.Completed); err != nil {
			return nil, err
		}
		if s.Date, err = domain.ParseDate(date, time.UTC); err != nil {
			return nil, fmt.Errorf("parse day %s: %w", s.ID, err)
		}
		summary = append(summary, s)
	}
	return summary, rows.Err()
}

func (r *SQLiteRepository) Dump(ctx context.Context) (*domain.Dump, error) {
	dump := &domain.Dump{}

	var err error
	dump.Habits, err = r.queryHabits(ctx, `
		SELECT h.id, h.title, h.created_at, h.created_on,
			(SELECT group_concat(w.week_day) FROM habit_week_days w WHERE w.habit_id = h.id)
		FROM habits h
		ORDER BY h.created_at, h.id`)
	if err != nil {
		return nil, fmt.Errorf("dump habits: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, date FROM days ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("dump days: %w", err)
	}
	defer rows.Close()

	dump.Days = []domain.Day{}
	for rows.Next() {
		var d domain.Day
		var date string
		if err := rows.Scan(&d.ID, &date); err != nil {
			return nil, err
		}
		if d.Date, err = domain.ParseDate(date, time.UTC); err != nil {
			return nil, fmt.Errorf("parse day %s: %w", d.ID, err)
		}
		dump.Days = append(dump.Days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	links, err := r.db.QueryContext(ctx, `SELECT day_id, habit_id FROM day_habits ORDER BY day_id, habit_id`)
	if err != nil {
		return nil, fmt.Errorf("dump day habits: %w", err)
	}
	defer links.Close()

	dump.DayHabits = []domain.DayHabit{}
	for links.Next() {
		var dh domain.DayHabit
		if err := links.Scan(&dh.DayID, &dh.HabitID); err != nil {
			return nil, err
		}
		dump.DayHabits = append(dump.DayHabits, dh)
	}
	return dump, links.Err()
}

// Restore loads a dump, skipping habits, days and completions that already
// exist. Days are matched by date, so completions follow the stored day even
// when its id differs from the dump. It returns the number of habits inserted.
func (r *SQLiteRepository) Restore(ctx context.Context, dump *domain.Dump) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	imported := 0
	for i := range dump.Habits {
		h := dump.Habits[i]
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM habits WHERE id = ?`, h.ID).Scan(&one)
		if err == nil {
			slog.InfoContext(ctx, "Skipping existing habit", "habit_id", h.ID)
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("lookup habit %s: %w", h.ID, err)
		}
		if h.CreatedOn.IsZero() {
			h.CreatedOn = domain.StartOfDay(h.CreatedAt, time.UTC)
		}
		if err := insertHabit(ctx, tx, &h); err != nil {
			return 0, fmt.Errorf("restore habit %s: %w", h.ID, err)
		}
		imported++
	}

	dayIDs := make(map[string]string, len(dump.Days))
	for _, d := range dump.Days {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO days (id, date) VALUES (?, ?) ON CONFLICT DO NOTHING`, d.ID, d.Date.String())
		if err != nil {
			return 0, fmt.Errorf("restore day %s: %w", d.Date, err)
		}
		var stored string
		if err := tx.QueryRowContext(ctx, `SELECT id FROM days WHERE date = ?`, d.Date.String()).Scan(&stored); err != nil {
			return 0, fmt.Errorf("fetch day %s: %w", d.Date, err)
		}
		dayIDs[d.ID] = stored
	}

	for _, dh := range dump.DayHabits {
		dayID, ok := dayIDs[dh.DayID]
		if !ok {
			slog.WarnContext(ctx, "Skipping completion for unknown day", "day_id", dh.DayID, "habit_id", dh.HabitID)
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO day_habits (day_id, habit_id)
			SELECT ?, ? WHERE EXISTS (SELECT 1 FROM habits WHERE id = ?)
			ON CONFLICT(day_id, habit_id) DO NOTHING`,
			dayID, dh.HabitID, dh.HabitID)
		if err != nil {
			return 0, fmt.Errorf("restore completion: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return imported, nil
}

// Ensure interface compliance
var _ ports.HabitRepository = (*SQLiteRepository)(nil)

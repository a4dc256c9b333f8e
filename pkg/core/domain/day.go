package domain

// Day is a calendar date on which at least one habit was toggled.
type Day struct {
	ID   string `json:"id"`
	Date Date   `json:"date"`
}

// DayHabit marks a habit as completed on a day.
type DayHabit struct {
	DayID   string `json:"day_id"`
	HabitID string `json:"habit_id"`
}

// DaySummary is the rollup of a single day
type DaySummary struct {
	ID        string `json:"id"`
	Date      Date   `json:"date"`
	Amount    int    `json:"amount"`    // habits possible that day
	Completed int    `json:"completed"` // habits completed that day
}

// DayDetail lists the habits possible on a date and which of them were completed.
type DayDetail struct {
	PossibleHabits  []Habit  `json:"possibleHabits"`
	CompletedHabits []string `json:"completedHabits"`
}

// Dump is a full copy of the store, used for export and import.
type Dump struct {
	Habits    []Habit    `json:"habits"`
	Days      []Day      `json:"days"`
	DayHabits []DayHabit `json:"day_habits"`
}

package events

import (
	"encoding/json"
	"time"

	"github.com/wadjakorntonsri/habit-tracker/pkg/core/domain"
)

const (
	TypeHabitCreated = "habit.created"
	TypeHabitToggled = "habit.toggled"
)

// Message is the envelope of every habit event. Only the fields relevant to
// Type are set.
type Message struct {
	Type      string      `json:"type"`
	HabitID   string      `json:"habit_id"`
	Title     string      `json:"title,omitempty"`
	WeekDays  []int       `json:"week_days,omitempty"`
	Date      domain.Date `json:"date,omitzero"`
	Completed *bool       `json:"completed,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewHabitCreatedMessage(habit domain.Habit, now time.Time) *Message {
	days := make([]int, len(habit.WeekDays))
	for i, d := range habit.WeekDays {
		days[i] = int(d)
	}
	return &Message{
		Type:      TypeHabitCreated,
		HabitID:   habit.ID,
		Title:     habit.Title,
		WeekDays:  days,
		Date:      habit.CreatedOn,
		Timestamp: now,
	}
}

func NewHabitToggledMessage(habitID string, date domain.Date, completed bool, now time.Time) *Message {
	return &Message{
		Type:      TypeHabitToggled,
		HabitID:   habitID,
		Date:      date,
		Completed: &completed,
		Timestamp: now,
	}
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DateLayout is the calendar date format used on the wire and in queries.
	DateLayout = "2006-01-02"
	// TimeOfDayLayout is the normalised, lexically sortable time-of-day format.
	TimeOfDayLayout = "15:04"
)

type Task struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	TimeOfDay   string    `json:"time" db:"time_of_day"`
	Date        time.Time `json:"date" db:"date"`
	Completed   bool      `json:"completed" db:"completed"`
	Reminder    bool      `json:"reminder" db:"reminder"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type TaskPatch struct {
	Title       *string
	Description *string
	TimeOfDay   *string
	Date        *time.Time
	Completed   *bool
	Reminder    *bool
}

var timeOfDayLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3:04 pm",
	"3:04pm",
	"3 PM",
	"3PM",
	"3 pm",
	"3pm",
}

// ParseTimeOfDay accepts 24-hour and 12-hour clock strings and returns the
// value normalised to TimeOfDayLayout.
func ParseTimeOfDay(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(TimeOfDayLayout), nil
		}
	}
	return "", fmt.Errorf("invalid time of day %q", s)
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return t, nil
}

// DateOf truncates t to its calendar date in t's location, as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

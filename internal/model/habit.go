package model

import (
	"time"

	"github.com/lifeboard/lifeboard/internal/day"
)

type Habit struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Completion records that a habit was done on a calendar day.
type Completion struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	HabitID   int64     `json:"habit_id"`
	Day       day.Day   `json:"day"`
	CreatedAt time.Time `json:"created_at"`
}

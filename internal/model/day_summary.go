package model

import (
	"time"

	"github.com/lifeboard/lifeboard/internal/day"
)

// DaySummary is a user's journal entry for one calendar day. Mood and
// Productivity are 1..5 when set.
type DaySummary struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Date         day.Day   `json:"date"`
	Mood         *int      `json:"mood"`
	Productivity *int      `json:"productivity"`
	Journal      string    `json:"journal"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

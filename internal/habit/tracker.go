// Package habit applies the completion policy on top of the habit and
// completion stores and assembles streak statistics for API responses.
package habit

import (
	"database/sql"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lifeboard/lifeboard/internal/day"
	"github.com/lifeboard/lifeboard/internal/model"
	"github.com/lifeboard/lifeboard/internal/store"
	"github.com/lifeboard/lifeboard/internal/streak"
)

const (
	DefaultIcon  = "🔥"
	DefaultColor = "emerald"

	maxNameLength = 100

	msgAlreadyDone = "already done for today"
)

type Tracker struct {
	habits *store.HabitStore
	ledger *store.CompletionStore
	policy Policy
	now    func() time.Time
}

func NewTracker(db *sql.DB, policy Policy) *Tracker {
	if policy.HeatmapDays < 1 {
		policy.HeatmapDays = DefaultHeatmapDays
	}
	return &Tracker{
		habits: store.NewHabitStore(db),
		ledger: store.NewCompletionStore(db),
		policy: policy,
		now:    time.Now,
	}
}

// Today is the current UTC calendar day.
func (t *Tracker) Today() day.Day {
	return day.Today(t.now)
}

// HabitSummary is a habit with statistics over its full history.
type HabitSummary struct {
	model.Habit
	streak.Summary
}

type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

type ListResult struct {
	Habits     []HabitSummary `json:"habits"`
	Pagination Pagination     `json:"pagination"`
	Today      day.Day        `json:"today"`
}

type DetailResult struct {
	Habit       model.Habit        `json:"habit"`
	Completions []model.Completion `json:"completions"`
	Stats       streak.Summary     `json:"stats"`
	Window      day.Range          `json:"window"`
	Today       day.Day            `json:"today"`
}

type ToggleResult struct {
	HabitID int64          `json:"habit_id"`
	Day     day.Day        `json:"day"`
	Done    bool           `json:"done"`
	Message string         `json:"message,omitempty"`
	Stats   streak.Summary `json:"stats"`
}

type CreateInput struct {
	Name  string
	Icon  string
	Color string
}

func (t *Tracker) Create(userID int64, in CreateInput) (*model.Habit, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, invalid("name", "name must be at most %d characters", maxNameLength)
	}
	icon := strings.TrimSpace(in.Icon)
	if icon == "" {
		icon = DefaultIcon
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = DefaultColor
	}
	return t.habits.Create(userID, name, icon, color)
}

func validateQuery(q store.HabitQuery) error {
	switch q.SortBy {
	case "", "created_at", "name":
	default:
		return invalid("sort_by", "sort_by must be created_at or name")
	}
	switch strings.ToLower(q.Order) {
	case "", "asc", "desc":
	default:
		return invalid("order", "order must be asc or desc")
	}
	if q.Page < 0 {
		return invalid("page", "page must be positive")
	}
	if q.Page > store.MaxHabitPage {
		return invalid("page", "page must be at most %d", store.MaxHabitPage)
	}
	if q.Limit < 0 || q.Limit > store.MaxHabitLimit {
		return invalid("limit", "limit must be between 1 and %d", store.MaxHabitLimit)
	}
	return nil
}

// List returns one page of the user's habits with their streak statistics.
func (t *Tracker) List(userID int64, q store.HabitQuery) (*ListResult, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	q.Order = strings.ToLower(q.Order)
	q = q.Normalized()

	habits, total, err := t.habits.List(userID, q)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}
	days, err := t.ledger.ListDaysForHabits(userID, ids)
	if err != nil {
		return nil, err
	}

	today := t.Today()
	summaries := make([]HabitSummary, len(habits))
	for i, h := range habits {
		summaries[i] = HabitSummary{Habit: h, Summary: streak.Summarize(days[h.ID], today)}
	}

	return &ListResult{
		Habits: summaries,
		Pagination: Pagination{
			Total:      total,
			Page:       q.Page,
			Limit:      q.Limit,
			TotalPages: (total + q.Limit - 1) / q.Limit,
		},
		Today: today,
	}, nil
}

func (t *Tracker) get(userID, habitID int64) (*model.Habit, error) {
	h, err := t.habits.GetByID(userID, habitID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrNotFound
	}
	return h, nil
}

// Detail returns the habit, its completions within the heatmap window ending
// today, and statistics over the whole history.
func (t *Tracker) Detail(userID, habitID int64) (*DetailResult, error) {
	h, err := t.get(userID, habitID)
	if err != nil {
		return nil, err
	}

	today := t.Today()
	window := day.Trailing(today, t.policy.HeatmapDays)
	completions, err := t.ledger.List(userID, habitID, &window)
	if err != nil {
		return nil, err
	}
	if completions == nil {
		completions = []model.Completion{}
	}

	all, err := t.ledger.ListDays(userID, habitID, nil)
	if err != nil {
		return nil, err
	}

	return &DetailResult{
		Habit:       *h,
		Completions: completions,
		Stats:       streak.Summarize(all, today),
		Window:      window,
		Today:       today,
	}, nil
}

func (t *Tracker) Delete(userID, habitID int64) error {
	deleted, err := t.habits.Delete(userID, habitID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// ToggleToday marks the habit done for today. Under ModeToggle an existing
// completion is removed instead.
func (t *Tracker) ToggleToday(userID, habitID int64) (*ToggleResult, error) {
	return t.toggle(userID, habitID, t.Today())
}

// ToggleDate flips the completion of any past day, or today following the
// same rules as ToggleToday. Future days require AllowFuture.
func (t *Tracker) ToggleDate(userID, habitID int64, d day.Day) (*ToggleResult, error) {
	if d.After(t.Today()) && !t.policy.AllowFuture {
		return nil, invalid("date", "cannot complete a habit on a future date")
	}
	return t.toggle(userID, habitID, d)
}

func (t *Tracker) toggle(userID, habitID int64, d day.Day) (*ToggleResult, error) {
	if _, err := t.get(userID, habitID); err != nil {
		return nil, err
	}

	today := t.Today()
	oneWay := t.policy.Mode != ModeToggle && d == today

	res := &ToggleResult{HabitID: habitID, Day: d}

	exists, err := t.ledger.Exists(userID, habitID, d)
	if err != nil {
		return nil, err
	}

	switch {
	case exists && oneWay:
		res.Done = true
		res.Message = msgAlreadyDone
	case exists:
		if _, err := t.ledger.Remove(userID, habitID, d); err != nil {
			return nil, err
		}
		res.Done = false
	default:
		c, created, err := t.ledger.Record(userID, habitID, d)
		if err != nil {
			return nil, err
		}
		if c == nil {
			// Deleted between the ownership check and the insert.
			return nil, ErrNotFound
		}
		res.Done = true
		if !created && d == today {
			res.Message = msgAlreadyDone
		}
	}

	all, err := t.ledger.ListDays(userID, habitID, nil)
	if err != nil {
		return nil, err
	}
	res.Stats = streak.Summarize(all, today)
	return res, nil
}

package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lifeboard/lifeboard/internal/day"
	"github.com/lifeboard/lifeboard/internal/model"
)

// CompletionStore is the completion ledger: at most one row per
// (user, habit, day), enforced by a unique index.
type CompletionStore struct {
	db *sql.DB
}

func NewCompletionStore(db *sql.DB) *CompletionStore {
	return &CompletionStore{db: db}
}

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.Completion, error) {
	var c model.Completion
	err := scanner.Scan(&c.ID, &c.UserID, &c.HabitID, &c.Day, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const completionCols = `id, user_id, habit_id, day, created_at`

// Record inserts a completion for d unless one already exists. created is
// false when the day was already recorded. A nil completion means the user
// owns no such habit.
func (s *CompletionStore) Record(userID, habitID int64, d day.Day) (c *model.Completion, created bool, err error) {
	result, err := s.db.Exec(
		`INSERT INTO habit_completions (user_id, habit_id, day)
		 SELECT user_id, id, ? FROM habits WHERE id = ? AND user_id = ?
		 ON CONFLICT (user_id, habit_id, day) DO NOTHING`,
		d, habitID, userID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert completion: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	c, err = s.Get(userID, habitID, d)
	if err != nil {
		return nil, false, err
	}
	return c, n == 1 && c != nil, nil
}

func (s *CompletionStore) Get(userID, habitID int64, d day.Day) (*model.Completion, error) {
	row := s.db.QueryRow(
		`SELECT `+completionCols+` FROM habit_completions WHERE user_id = ? AND habit_id = ? AND day = ?`,
		userID, habitID, d,
	)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

func (s *CompletionStore) Exists(userID, habitID int64, d day.Day) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM habit_completions WHERE user_id = ? AND habit_id = ? AND day = ?`,
		userID, habitID, d,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check completion: %w", err)
	}
	return n > 0, nil
}

// Remove deletes the completion for d and reports whether one existed.
func (s *CompletionStore) Remove(userID, habitID int64, d day.Day) (bool, error) {
	result, err := s.db.Exec(
		`DELETE FROM habit_completions WHERE user_id = ? AND habit_id = ? AND day = ?`,
		userID, habitID, d,
	)
	if err != nil {
		return false, fmt.Errorf("delete completion: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func windowClause(window *day.Range) (string, []any) {
	if window == nil {
		return "", nil
	}
	return ` AND day >= ? AND day <= ?`, []any{window.Start, window.End}
}

// List returns completion rows in ascending day order, optionally bounded to window.
func (s *CompletionStore) List(userID, habitID int64, window *day.Range) ([]model.Completion, error) {
	clause, extra := windowClause(window)
	args := append([]any{userID, habitID}, extra...)

	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM habit_completions WHERE user_id = ? AND habit_id = ?`+clause+` ORDER BY day ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

// ListDays returns the completed days in ascending order, optionally bounded to window.
func (s *CompletionStore) ListDays(userID, habitID int64, window *day.Range) ([]day.Day, error) {
	clause, extra := windowClause(window)
	args := append([]any{userID, habitID}, extra...)

	rows, err := s.db.Query(
		`SELECT day FROM habit_completions WHERE user_id = ? AND habit_id = ?`+clause+` ORDER BY day ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list completion days: %w", err)
	}
	defer rows.Close()

	var days []day.Day
	for rows.Next() {
		var d day.Day
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// ListDaysForHabits loads the completed days of several habits in one query.
func (s *CompletionStore) ListDaysForHabits(userID int64, habitIDs []int64) (map[int64][]day.Day, error) {
	out := make(map[int64][]day.Day, len(habitIDs))
	if len(habitIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(habitIDs)), ",")
	args := make([]any, 0, len(habitIDs)+1)
	args = append(args, userID)
	for _, id := range habitIDs {
		args = append(args, id)
	}

	rows, err := s.db.Query(
		`SELECT habit_id, day FROM habit_completions
		 WHERE user_id = ? AND habit_id IN (`+placeholders+`)
		 ORDER BY habit_id, day ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list completion days: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var habitID int64
		var d day.Day
		if err := rows.Scan(&habitID, &d); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		out[habitID] = append(out[habitID], d)
	}
	return out, rows.Err()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// DeleteAllForHabit removes every completion of the habit and returns the
// count. ex runs the statement, so a caller can make it part of its own
// transaction; nil uses the store's database.
func (s *CompletionStore) DeleteAllForHabit(ex execer, userID, habitID int64) (int64, error) {
	if ex == nil {
		ex = s.db
	}
	result, err := ex.Exec(
		`DELETE FROM habit_completions WHERE user_id = ? AND habit_id = ?`,
		userID, habitID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete completions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

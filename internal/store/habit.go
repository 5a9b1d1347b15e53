package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lifeboard/lifeboard/internal/model"
)

type HabitStore struct {
	db     *sql.DB
	ledger *CompletionStore
}

func NewHabitStore(db *sql.DB) *HabitStore {
	return &HabitStore{db: db, ledger: NewCompletionStore(db)}
}

// HabitQuery selects a page of a user's habits. Zero values mean "no filter"
// or the default listed on each field.
type HabitQuery struct {
	Search string // substring of name, case-insensitive
	Color  string // exact color tag
	SortBy string // "created_at" (default) or "name"
	Order  string // "asc" (default) or "desc"
	Page   int    // 1-based, default 1, at most MaxHabitPage
	Limit  int    // default 10
}

const (
	DefaultHabitLimit = 10
	MaxHabitLimit     = 100
	// MaxHabitPage keeps the row offset well inside int range.
	MaxHabitPage = 1 << 20
)

var habitSortColumns = map[string]string{
	"created_at": "created_at",
	"name":       "name COLLATE NOCASE",
}

// Normalized fills in defaults and clamps out-of-range values.
func (q HabitQuery) Normalized() HabitQuery {
	q.Search = strings.TrimSpace(q.Search)
	q.Color = strings.TrimSpace(q.Color)
	if _, ok := habitSortColumns[q.SortBy]; !ok {
		q.SortBy = "created_at"
	}
	if q.Order != "desc" {
		q.Order = "asc"
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxHabitPage {
		q.Page = MaxHabitPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultHabitLimit
	}
	if q.Limit > MaxHabitLimit {
		q.Limit = MaxHabitLimit
	}
	return q
}

func (q HabitQuery) where(userID int64) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{userID}
	if q.Search != "" {
		clauses = append(clauses, `name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(q.Search)+"%")
	}
	if q.Color != "" {
		clauses = append(clauses, "color = ?")
		args = append(args, q.Color)
	}
	return strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func scanHabit(scanner interface{ Scan(...any) error }) (*model.Habit, error) {
	var h model.Habit
	err := scanner.Scan(&h.ID, &h.UserID, &h.Name, &h.Icon, &h.Color, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const habitCols = `id, user_id, name, icon, color, created_at`

func (s *HabitStore) Create(userID int64, name, icon, color string) (*model.Habit, error) {
	result, err := s.db.Exec(
		`INSERT INTO habits (user_id, name, icon, color) VALUES (?, ?, ?, ?)`,
		userID, name, icon, color,
	)
	if err != nil {
		return nil, fmt.Errorf("insert habit: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(userID, id)
}

// GetByID returns nil when the habit does not exist or belongs to another user.
func (s *HabitStore) GetByID(userID, id int64) (*model.Habit, error) {
	row := s.db.QueryRow(`SELECT `+habitCols+` FROM habits WHERE id = ? AND user_id = ?`, id, userID)
	h, err := scanHabit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return h, nil
}

// List returns one page of the user's habits and the total number matching q.
func (s *HabitStore) List(userID int64, q HabitQuery) ([]model.Habit, int, error) {
	q = q.Normalized()
	where, args := q.where(userID)

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM habits WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count habits: %w", err)
	}

	query := `SELECT ` + habitCols + ` FROM habits WHERE ` + where +
		` ORDER BY ` + habitSortColumns[q.SortBy] + ` ` + strings.ToUpper(q.Order) + `, id ASC` +
		` LIMIT ? OFFSET ?`
	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan habit: %w", err)
		}
		habits = append(habits, *h)
	}
	return habits, total, rows.Err()
}

// Delete removes the habit's completions and then the habit in one transaction.
// It reports false when the user owns no such habit.
func (s *HabitStore) Delete(userID, id int64) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.ledger.DeleteAllForHabit(tx, userID, id); err != nil {
		return false, err
	}

	result, err := tx.Exec(`DELETE FROM habits WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete habit: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

package store

import (
	"database/sql"
	"fmt"

	"github.com/lifeboard/lifeboard/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var completed int

	err := scanner.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.Completed = completed != 0
	return &t, nil
}

const taskCols = `id, user_id, title, description, completed, created_at, updated_at`

// TaskPatch carries the fields of a partial update; nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

func (s *TaskStore) Create(userID int64, title, description string) (*model.Task, error) {
	result, err := s.db.Exec(
		`INSERT INTO tasks (user_id, title, description) VALUES (?, ?, ?)`,
		userID, title, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *TaskStore) GetByID(userID, id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns the user's tasks newest first. A non-nil completed filters by state.
func (s *TaskStore) List(userID int64, completed *bool) ([]model.Task, error) {
	query := `SELECT ` + taskCols + ` FROM tasks WHERE user_id = ?`
	args := []any{userID}
	if completed != nil {
		query += ` AND completed = ?`
		args = append(args, boolInt(*completed))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Update applies p and returns nil when the user owns no such task.
func (s *TaskStore) Update(userID, id int64, p TaskPatch) (*model.Task, error) {
	existing, err := s.GetByID(userID, id)
	if err != nil || existing == nil {
		return nil, err
	}

	if p.Title != nil {
		existing.Title = *p.Title
	}
	if p.Description != nil {
		existing.Description = *p.Description
	}
	if p.Completed != nil {
		existing.Completed = *p.Completed
	}

	_, err = s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, completed = ? WHERE id = ? AND user_id = ?`,
		existing.Title, existing.Description, boolInt(existing.Completed), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *TaskStore) Delete(userID, id int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

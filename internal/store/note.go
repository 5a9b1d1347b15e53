package store

import (
	"database/sql"
	"fmt"

	"github.com/lifeboard/lifeboard/internal/model"
)

type NoteStore struct {
	db *sql.DB
}

func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

func scanNote(scanner interface{ Scan(...any) error }) (*model.Note, error) {
	var n model.Note
	var pinned int

	err := scanner.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &pinned, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}

	n.Pinned = pinned != 0
	return &n, nil
}

const noteCols = `id, user_id, title, body, pinned, created_at, updated_at`

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *NoteStore) Create(userID int64, title, body string, pinned bool) (*model.Note, error) {
	result, err := s.db.Exec(
		`INSERT INTO notes (user_id, title, body, pinned) VALUES (?, ?, ?, ?)`,
		userID, title, body, boolInt(pinned),
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *NoteStore) GetByID(userID, id int64) (*model.Note, error) {
	row := s.db.QueryRow(`SELECT `+noteCols+` FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// List returns the user's notes, pinned first, newest first within each group.
func (s *NoteStore) List(userID int64) ([]model.Note, error) {
	rows, err := s.db.Query(
		`SELECT `+noteCols+` FROM notes WHERE user_id = ?
		 ORDER BY pinned DESC, created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

// Update returns nil when the user owns no such note.
func (s *NoteStore) Update(userID, id int64, title, body string, pinned bool) (*model.Note, error) {
	result, err := s.db.Exec(
		`UPDATE notes SET title = ?, body = ?, pinned = ? WHERE id = ? AND user_id = ?`,
		title, body, boolInt(pinned), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil || n == 0 {
		return nil, err
	}
	return s.GetByID(userID, id)
}

func (s *NoteStore) TogglePinned(userID, id int64) (*model.Note, error) {
	result, err := s.db.Exec(
		`UPDATE notes SET pinned = 1 - pinned WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("toggle pinned: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil || n == 0 {
		return nil, err
	}
	return s.GetByID(userID, id)
}

func (s *NoteStore) Delete(userID, id int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

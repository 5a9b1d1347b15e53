package store

import (
	"database/sql"
	"fmt"

	"github.com/lifeboard/lifeboard/internal/day"
	"github.com/lifeboard/lifeboard/internal/model"
)

type DaySummaryStore struct {
	db *sql.DB
}

func NewDaySummaryStore(db *sql.DB) *DaySummaryStore {
	return &DaySummaryStore{db: db}
}

func scanDaySummary(scanner interface{ Scan(...any) error }) (*model.DaySummary, error) {
	var s model.DaySummary
	err := scanner.Scan(&s.ID, &s.UserID, &s.Date, &s.Mood, &s.Productivity, &s.Journal, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const daySummaryCols = `id, user_id, day, mood, productivity, journal, created_at, updated_at`

// DaySummaryPatch carries optional fields; nil fields are left unchanged on
// update and stored as empty on insert.
type DaySummaryPatch struct {
	Mood         *int
	Productivity *int
	Journal      *string
}

// Save creates the summary for d, or merges p into the existing one.
// created reports which happened.
func (s *DaySummaryStore) Save(userID int64, d day.Day, p DaySummaryPatch) (ds *model.DaySummary, created bool, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow(`SELECT id FROM day_summaries WHERE user_id = ? AND day = ?`, userID, d).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		journal := ""
		if p.Journal != nil {
			journal = *p.Journal
		}
		result, err := tx.Exec(
			`INSERT INTO day_summaries (user_id, day, mood, productivity, journal) VALUES (?, ?, ?, ?, ?)`,
			userID, d, nullable(p.Mood), nullable(p.Productivity), journal,
		)
		if err != nil {
			return nil, false, fmt.Errorf("insert day summary: %w", err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return nil, false, fmt.Errorf("last insert id: %w", err)
		}
		created = true
	case err != nil:
		return nil, false, fmt.Errorf("find day summary: %w", err)
	default:
		if err := applyDaySummaryPatch(tx, userID, id, p); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}
	ds, err = s.GetByID(userID, id)
	return ds, created, err
}

func applyDaySummaryPatch(tx *sql.Tx, userID, id int64, p DaySummaryPatch) error {
	_, err := tx.Exec(
		`UPDATE day_summaries SET
			mood = COALESCE(?, mood),
			productivity = COALESCE(?, productivity),
			journal = COALESCE(?, journal)
		 WHERE id = ? AND user_id = ?`,
		nullable(p.Mood), nullable(p.Productivity), nullable(p.Journal), id, userID,
	)
	if err != nil {
		return fmt.Errorf("update day summary: %w", err)
	}
	return nil
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func (s *DaySummaryStore) GetByID(userID, id int64) (*model.DaySummary, error) {
	row := s.db.QueryRow(`SELECT `+daySummaryCols+` FROM day_summaries WHERE id = ? AND user_id = ?`, id, userID)
	ds, err := scanDaySummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get day summary: %w", err)
	}
	return ds, nil
}

func (s *DaySummaryStore) GetByDate(userID int64, d day.Day) (*model.DaySummary, error) {
	row := s.db.QueryRow(`SELECT `+daySummaryCols+` FROM day_summaries WHERE user_id = ? AND day = ?`, userID, d)
	ds, err := scanDaySummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get day summary by date: %w", err)
	}
	return ds, nil
}

// ListRange returns summaries within r in ascending date order.
func (s *DaySummaryStore) ListRange(userID int64, r day.Range) ([]model.DaySummary, error) {
	rows, err := s.db.Query(
		`SELECT `+daySummaryCols+` FROM day_summaries
		 WHERE user_id = ? AND day >= ? AND day <= ? ORDER BY day ASC`,
		userID, r.Start, r.End,
	)
	if err != nil {
		return nil, fmt.Errorf("list day summaries: %w", err)
	}
	defer rows.Close()

	var summaries []model.DaySummary
	for rows.Next() {
		ds, err := scanDaySummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan day summary: %w", err)
		}
		summaries = append(summaries, *ds)
	}
	return summaries, rows.Err()
}

// Update merges p into the summary. It returns nil when the user owns no such summary.
func (s *DaySummaryStore) Update(userID, id int64, p DaySummaryPatch) (*model.DaySummary, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := applyDaySummaryPatch(tx, userID, id, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(userID, id)
}

func (s *DaySummaryStore) Delete(userID, id int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM day_summaries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete day summary: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

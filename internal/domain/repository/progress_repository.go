package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// ProgressRepository works on single (user, sheet, problem) rows. Add and
// Remove are each one atomic statement, so two racing toggles of the same
// problem can never lose an unrelated completion the way a whole-document
// overwrite would.
type ProgressRepository interface {
	AddEntry(ctx context.Context, userID, sheetID, problemID string) (bool, error)
	RemoveEntry(ctx context.Context, userID, sheetID, problemID string) (bool, error)
	AddEntries(ctx context.Context, userID, sheetID string, problemIDs []string) error
	GetCompletedIDs(ctx context.Context, userID, sheetID string) ([]string, error)
	GetCompletedBySheet(ctx context.Context, sheetID string) (map[string][]string, error)
	DeleteByUser(ctx context.Context, tx *sql.Tx, userID string) error
}

type pgProgressRepository struct {
	db *sql.DB
}

func NewPgProgressRepository(db *sql.DB) ProgressRepository {
	return &pgProgressRepository{db: db}
}

// AddEntry inserts one completion; reports whether a row was actually added.
func (r *pgProgressRepository) AddEntry(ctx context.Context, userID, sheetID, problemID string) (bool, error) {
	query := `INSERT INTO progress_entries (user_id, sheet_id, problem_id)
	          VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`
	result, err := r.db.ExecContext(ctx, query, userID, sheetID, problemID)
	if err != nil {
		return false, fmt.Errorf("pgProgressRepository.AddEntry: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *pgProgressRepository) RemoveEntry(ctx context.Context, userID, sheetID, problemID string) (bool, error) {
	query := `DELETE FROM progress_entries WHERE user_id = $1 AND sheet_id = $2 AND problem_id = $3`
	result, err := r.db.ExecContext(ctx, query, userID, sheetID, problemID)
	if err != nil {
		return false, fmt.Errorf("pgProgressRepository.RemoveEntry: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// AddEntries unions a batch of completions in. Existing rows stay untouched,
// so importing the same set twice is a no-op.
func (r *pgProgressRepository) AddEntries(ctx context.Context, userID, sheetID string, problemIDs []string) error {
	if len(problemIDs) == 0 {
		return nil
	}
	stmt, err := r.db.PrepareContext(ctx,
		`INSERT INTO progress_entries (user_id, sheet_id, problem_id)
		 VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`)
	if err != nil {
		return fmt.Errorf("pgProgressRepository.AddEntries prepare: %w", err)
	}
	defer stmt.Close()

	for _, problemID := range problemIDs {
		if _, err := stmt.ExecContext(ctx, userID, sheetID, problemID); err != nil {
			return fmt.Errorf("pgProgressRepository.AddEntries exec for %s: %w", problemID, err)
		}
	}
	return nil
}

func (r *pgProgressRepository) GetCompletedIDs(ctx context.Context, userID, sheetID string) ([]string, error) {
	query := `SELECT problem_id FROM progress_entries
	          WHERE user_id = $1 AND sheet_id = $2 ORDER BY completed_at ASC`
	rows, err := r.db.QueryContext(ctx, query, userID, sheetID)
	if err != nil {
		return nil, fmt.Errorf("pgProgressRepository.GetCompletedIDs query: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pgProgressRepository.GetCompletedIDs scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProgressRepository.GetCompletedIDs rows.Err: %w", err)
	}
	return ids, nil
}

func (r *pgProgressRepository) GetCompletedBySheet(ctx context.Context, sheetID string) (map[string][]string, error) {
	query := `SELECT user_id, problem_id FROM progress_entries WHERE sheet_id = $1`
	rows, err := r.db.QueryContext(ctx, query, sheetID)
	if err != nil {
		return nil, fmt.Errorf("pgProgressRepository.GetCompletedBySheet query: %w", err)
	}
	defer rows.Close()

	completed := map[string][]string{}
	for rows.Next() {
		var userID, problemID string
		if err := rows.Scan(&userID, &problemID); err != nil {
			return nil, fmt.Errorf("pgProgressRepository.GetCompletedBySheet scan: %w", err)
		}
		completed[userID] = append(completed[userID], problemID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProgressRepository.GetCompletedBySheet rows.Err: %w", err)
	}
	return completed, nil
}

func (r *pgProgressRepository) DeleteByUser(ctx context.Context, tx *sql.Tx, userID string) error {
	query := `DELETE FROM progress_entries WHERE user_id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, userID)
	} else {
		_, err = r.db.ExecContext(ctx, query, userID)
	}
	if err != nil {
		return fmt.Errorf("pgProgressRepository.DeleteByUser: %w", err)
	}
	return nil
}

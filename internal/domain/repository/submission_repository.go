package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"prepsheet/internal/common"
	"prepsheet/internal/domain/model"
)

type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.Submission) error
	FindByID(ctx context.Context, id string) (*model.Submission, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Submission, int, error)
	ListAll(ctx context.Context, status model.SubmissionStatus, limit, offset int) ([]model.Submission, int, error)
	Review(ctx context.Context, id string, status model.SubmissionStatus, note *string, reviewerID string) error
	ListAllStatuses(ctx context.Context) ([]model.Submission, error)
	DeleteByUser(ctx context.Context, tx *sql.Tx, userID string) error
}

const submissionSelect = `
	SELECT s.id, s.user_id, s.problem_id, s.code, s.language, s.status,
	       s.review_note, s.reviewed_by, s.reviewed_at, s.submitted_at, s.updated_at,
	       u.username, p.title
	FROM submissions s
	JOIN users u ON s.user_id = u.id
	JOIN problems p ON s.problem_id = p.id`

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	query := `INSERT INTO submissions (id, user_id, problem_id, code, language, status)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, sub.ID, sub.UserID, sub.ProblemID, sub.Code, sub.Language, sub.Status)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.Create: %w", err)
	}
	return nil
}

func scanSubmission(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.Submission, error) {
	sub := &model.Submission{}
	err := scanner.Scan(
		&sub.ID, &sub.UserID, &sub.ProblemID, &sub.Code, &sub.Language, &sub.Status,
		&sub.ReviewNote, &sub.ReviewedBy, &sub.ReviewedAt, &sub.SubmittedAt, &sub.UpdatedAt,
		&sub.UserUsername, &sub.ProblemTitle,
	)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *pgSubmissionRepository) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	query := submissionSelect + ` WHERE s.id = $1`
	sub, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.FindByID: %w", err)
	}
	return sub, nil
}

func (r *pgSubmissionRepository) listPage(ctx context.Context, where string, countArgs, pageArgs []interface{}, caller string) ([]model.Submission, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM submissions s` + where
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s count: %w", caller, err)
	}

	query := submissionSelect + where +
		fmt.Sprintf(" ORDER BY s.submitted_at DESC LIMIT $%d OFFSET $%d", len(countArgs)+1, len(countArgs)+2)
	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s query: %w", caller, err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s scan: %w", caller, err)
		}
		subs = append(subs, *sub)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s rows.Err: %w", caller, err)
	}
	return subs, total, nil
}

func (r *pgSubmissionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Submission, int, error) {
	where := ` WHERE s.user_id = $1`
	return r.listPage(ctx, where,
		[]interface{}{userID},
		[]interface{}{userID, limit, offset},
		"pgSubmissionRepository.ListByUser")
}

func (r *pgSubmissionRepository) ListAll(ctx context.Context, status model.SubmissionStatus, limit, offset int) ([]model.Submission, int, error) {
	var where string
	var countArgs, pageArgs []interface{}
	if status != "" {
		where = ` WHERE s.status = $1`
		countArgs = []interface{}{status}
		pageArgs = []interface{}{status, limit, offset}
	} else {
		pageArgs = []interface{}{limit, offset}
	}
	return r.listPage(ctx, where, countArgs, pageArgs, "pgSubmissionRepository.ListAll")
}

func (r *pgSubmissionRepository) Review(ctx context.Context, id string, status model.SubmissionStatus, note *string, reviewerID string) error {
	query := `UPDATE submissions SET
	            status = $1, review_note = $2, reviewed_by = $3,
	            reviewed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, status, note, reviewerID, id)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.Review: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

// ListAllStatuses feeds the global stats aggregation; it loads the bulk
// collection and leaves the per-account grouping to the caller.
func (r *pgSubmissionRepository) ListAllStatuses(ctx context.Context) ([]model.Submission, error) {
	query := `SELECT id, user_id, status FROM submissions`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListAllStatuses query: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Status); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListAllStatuses scan: %w", err)
		}
		subs = append(subs, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListAllStatuses rows.Err: %w", err)
	}
	return subs, nil
}

func (r *pgSubmissionRepository) DeleteByUser(ctx context.Context, tx *sql.Tx, userID string) error {
	query := `DELETE FROM submissions WHERE user_id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, userID)
	} else {
		_, err = r.db.ExecContext(ctx, query, userID)
	}
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.DeleteByUser: %w", err)
	}
	return nil
}

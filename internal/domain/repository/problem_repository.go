package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"prepsheet/internal/common"
	"prepsheet/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type ProblemRepository interface {
	CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	UpdateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	DeleteProblem(ctx context.Context, tx *sql.Tx, id string) error
	FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error)
	ListProblems(ctx context.Context, limit, offset int, difficulty model.Difficulty, tagIDs []string, searchTerm string) ([]model.Problem, int, error)

	AddExamplesToProblem(ctx context.Context, tx *sql.Tx, problemID string, examples []model.Example) error
	GetExamplesByProblemID(ctx context.Context, problemID string) ([]model.Example, error)
	DeleteExamplesByProblemID(ctx context.Context, tx *sql.Tx, problemID string) error

	FindTagBySlug(ctx context.Context, slug string) (*model.Tag, error)
	CreateTag(ctx context.Context, tx *sql.Tx, tag *model.Tag) error
	AddTagsToProblem(ctx context.Context, tx *sql.Tx, problemID string, tagIDs []string) error
	GetTagsByProblemID(ctx context.Context, problemID string) ([]model.Tag, error)
	ClearProblemTags(ctx context.Context, tx *sql.Tx, problemID string) error
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) CreateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	query := `INSERT INTO problems (id, title, slug, description, difficulty, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, p.ID, p.Title, p.Slug, p.Description, p.Difficulty, p.CreatedByID)
	} else {
		_, err = r.db.ExecContext(ctx, query, p.ID, p.Title, p.Slug, p.Description, p.Difficulty, p.CreatedByID)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("problem with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) UpdateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	query := `UPDATE problems SET
	            title = $1, slug = $2, description = $3, difficulty = $4,
	            updated_at = CURRENT_TIMESTAMP
	          WHERE id = $5`
	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.ExecContext(ctx, query, p.Title, p.Slug, p.Description, p.Difficulty, p.ID)
	} else {
		result, err = r.db.ExecContext(ctx, query, p.Title, p.Slug, p.Description, p.Difficulty, p.ID)
	}
	if err != nil {
		return fmt.Errorf("pgProblemRepository.UpdateProblem: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProblemRepository) DeleteProblem(ctx context.Context, tx *sql.Tx, id string) error {
	query := `DELETE FROM problems WHERE id = $1`
	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.ExecContext(ctx, query, id)
	} else {
		result, err = r.db.ExecContext(ctx, query, id)
	}
	if err != nil {
		return fmt.Errorf("pgProblemRepository.DeleteProblem: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgProblemRepository) scanProblem(row *sql.Row, caller string) (*model.Problem, error) {
	problem := &model.Problem{}
	err := row.Scan(
		&problem.ID, &problem.Title, &problem.Slug, &problem.Description, &problem.Difficulty,
		&problem.CreatedByID, &problem.CreatedAt, &problem.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	return problem, nil
}

func (r *pgProblemRepository) FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	query := `SELECT id, title, slug, description, difficulty, created_by, created_at, updated_at
	          FROM problems WHERE slug = $1`
	return r.scanProblem(r.db.QueryRowContext(ctx, query, slug), "pgProblemRepository.FindProblemBySlug")
}

// ListProblems builds the filtered query dynamically; the same WHERE clause
// backs both the page query and the total count.
func (r *pgProblemRepository) ListProblems(ctx context.Context, limit, offset int, difficulty model.Difficulty, tagIDs []string, searchTerm string) ([]model.Problem, int, error) {
	var baseQuery strings.Builder
	baseQuery.WriteString(`
        SELECT DISTINCT p.id, p.title, p.slug, p.description, p.difficulty,
               p.created_by, p.created_at, p.updated_at
        FROM problems p`)

	var countQuery strings.Builder
	countQuery.WriteString(`SELECT COUNT(DISTINCT p.id) FROM problems p`)

	var conditions []string
	var args []interface{}
	argID := 1

	if len(tagIDs) > 0 {
		join := " JOIN problem_tags pt ON p.id = pt.problem_id JOIN tags t ON pt.tag_id = t.id"
		baseQuery.WriteString(join)
		countQuery.WriteString(join)

		tagPlaceholders := make([]string, len(tagIDs))
		for i := range tagIDs {
			tagPlaceholders[i] = fmt.Sprintf("$%d", argID)
			args = append(args, tagIDs[i])
			argID++
		}
		conditions = append(conditions, fmt.Sprintf("t.id IN (%s)", strings.Join(tagPlaceholders, ",")))
	}

	if difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("p.difficulty = $%d", argID))
		args = append(args, difficulty)
		argID++
	}

	if searchTerm != "" {
		conditions = append(conditions, fmt.Sprintf("(p.title ILIKE $%d OR p.description ILIKE $%d)", argID, argID+1))
		likeTerm := "%" + searchTerm + "%"
		args = append(args, likeTerm, likeTerm)
		argID += 2
	}

	if len(conditions) > 0 {
		whereClause := " WHERE " + strings.Join(conditions, " AND ")
		baseQuery.WriteString(whereClause)
		countQuery.WriteString(whereClause)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery.String(), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems count: %w", err)
	}

	baseQuery.WriteString(fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, baseQuery.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems query: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		var p model.Problem
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.Difficulty,
			&p.CreatedByID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems scan: %w", err)
		}
		problems = append(problems, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems rows.Err: %w", err)
	}
	return problems, total, nil
}

func (r *pgProblemRepository) AddExamplesToProblem(ctx context.Context, tx *sql.Tx, problemID string, examples []model.Example) error {
	if len(examples) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO problem_examples (id, problem_id, input, expected_output, explanation, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.AddExamplesToProblem prepare: %w", err)
	}
	defer stmt.Close()

	for i, ex := range examples {
		if _, err := stmt.ExecContext(ctx, ex.ID, problemID, ex.Input, ex.ExpectedOutput, ex.Explanation, i+1); err != nil {
			return fmt.Errorf("pgProblemRepository.AddExamplesToProblem exec for example %s: %w", ex.ID, err)
		}
	}
	return nil
}

func (r *pgProblemRepository) GetExamplesByProblemID(ctx context.Context, problemID string) ([]model.Example, error) {
	query := `SELECT id, problem_id, input, expected_output, explanation, sort_order, created_at
	          FROM problem_examples WHERE problem_id = $1 ORDER BY sort_order ASC`
	rows, err := r.db.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetExamplesByProblemID query: %w", err)
	}
	defer rows.Close()

	var examples []model.Example
	for rows.Next() {
		var ex model.Example
		if err := rows.Scan(&ex.ID, &ex.ProblemID, &ex.Input, &ex.ExpectedOutput, &ex.Explanation, &ex.SortOrder, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.GetExamplesByProblemID scan: %w", err)
		}
		examples = append(examples, ex)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetExamplesByProblemID rows.Err: %w", err)
	}
	return examples, nil
}

func (r *pgProblemRepository) DeleteExamplesByProblemID(ctx context.Context, tx *sql.Tx, problemID string) error {
	query := `DELETE FROM problem_examples WHERE problem_id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, problemID)
	} else {
		_, err = r.db.ExecContext(ctx, query, problemID)
	}
	if err != nil {
		return fmt.Errorf("pgProblemRepository.DeleteExamplesByProblemID: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) FindTagBySlug(ctx context.Context, slug string) (*model.Tag, error) {
	query := `SELECT id, name, slug FROM tags WHERE slug = $1`
	tag := &model.Tag{}
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&tag.ID, &tag.Name, &tag.Slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindTagBySlug: %w", err)
	}
	return tag, nil
}

func (r *pgProblemRepository) CreateTag(ctx context.Context, tx *sql.Tx, tag *model.Tag) error {
	query := `INSERT INTO tags (id, name, slug) VALUES ($1, $2, $3)`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, tag.ID, tag.Name, tag.Slug)
	} else {
		_, err = r.db.ExecContext(ctx, query, tag.ID, tag.Name, tag.Slug)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("tag with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.CreateTag: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) AddTagsToProblem(ctx context.Context, tx *sql.Tx, problemID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO problem_tags (problem_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.AddTagsToProblem prepare: %w", err)
	}
	defer stmt.Close()

	for _, tagID := range tagIDs {
		if _, err := stmt.ExecContext(ctx, problemID, tagID); err != nil {
			return fmt.Errorf("pgProblemRepository.AddTagsToProblem exec for tag %s: %w", tagID, err)
		}
	}
	return nil
}

func (r *pgProblemRepository) GetTagsByProblemID(ctx context.Context, problemID string) ([]model.Tag, error) {
	query := `SELECT t.id, t.name, t.slug FROM tags t
	          JOIN problem_tags pt ON t.id = pt.tag_id
	          WHERE pt.problem_id = $1 ORDER BY t.name ASC`
	rows, err := r.db.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetTagsByProblemID query: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.GetTagsByProblemID scan: %w", err)
		}
		tags = append(tags, tag)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetTagsByProblemID rows.Err: %w", err)
	}
	return tags, nil
}

func (r *pgProblemRepository) ClearProblemTags(ctx context.Context, tx *sql.Tx, problemID string) error {
	query := `DELETE FROM problem_tags WHERE problem_id = $1`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, problemID)
	} else {
		_, err = r.db.ExecContext(ctx, query, problemID)
	}
	if err != nil {
		return fmt.Errorf("pgProblemRepository.ClearProblemTags: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"prepsheet/internal/common"
	"prepsheet/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type SheetRepository interface {
	CreateSheet(ctx context.Context, tx *sql.Tx, sheet *model.Sheet) error
	UpdateSheetMeta(ctx context.Context, tx *sql.Tx, sheet *model.Sheet) error
	DeleteSheet(ctx context.Context, tx *sql.Tx, id string) error
	FindByID(ctx context.Context, id string) (*model.Sheet, error)
	FindBySlug(ctx context.Context, slug string) (*model.Sheet, error)
	ListSheets(ctx context.Context) ([]model.Sheet, error)

	// ReplaceOutline swaps the whole sections/topics/problems tree in one go.
	// Old rows go away via the sheet_sections FK cascade.
	ReplaceOutline(ctx context.Context, tx *sql.Tx, sheetID string, sections []model.SheetSection) error
	GetOutline(ctx context.Context, sheetID string) ([]model.SheetSection, error)

	ProblemExistsInSheet(ctx context.Context, sheetID, problemID string) (bool, error)
	GetProblemDifficulties(ctx context.Context, sheetID string) (map[string]model.Difficulty, error)
}

type pgSheetRepository struct {
	db *sql.DB
}

func NewPgSheetRepository(db *sql.DB) SheetRepository {
	return &pgSheetRepository{db: db}
}

func (r *pgSheetRepository) CreateSheet(ctx context.Context, tx *sql.Tx, s *model.Sheet) error {
	query := `INSERT INTO sheets (id, slug, title, description, total_problems, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, s.ID, s.Slug, s.Title, s.Description, s.TotalProblems, s.CreatedByID)
	} else {
		_, err = r.db.ExecContext(ctx, query, s.ID, s.Slug, s.Title, s.Description, s.TotalProblems, s.CreatedByID)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("sheet with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgSheetRepository.CreateSheet: %w", err)
	}
	return nil
}

func (r *pgSheetRepository) UpdateSheetMeta(ctx context.Context, tx *sql.Tx, s *model.Sheet) error {
	query := `UPDATE sheets SET
	            slug = $1, title = $2, description = $3, total_problems = $4,
	            updated_at = CURRENT_TIMESTAMP
	          WHERE id = $5`
	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.ExecContext(ctx, query, s.Slug, s.Title, s.Description, s.TotalProblems, s.ID)
	} else {
		result, err = r.db.ExecContext(ctx, query, s.Slug, s.Title, s.Description, s.TotalProblems, s.ID)
	}
	if err != nil {
		return fmt.Errorf("pgSheetRepository.UpdateSheetMeta: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgSheetRepository) DeleteSheet(ctx context.Context, tx *sql.Tx, id string) error {
	query := `DELETE FROM sheets WHERE id = $1`
	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.ExecContext(ctx, query, id)
	} else {
		result, err = r.db.ExecContext(ctx, query, id)
	}
	if err != nil {
		return fmt.Errorf("pgSheetRepository.DeleteSheet: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgSheetRepository) scanSheet(row *sql.Row, caller string) (*model.Sheet, error) {
	sheet := &model.Sheet{}
	err := row.Scan(
		&sheet.ID, &sheet.Slug, &sheet.Title, &sheet.Description, &sheet.TotalProblems,
		&sheet.CreatedByID, &sheet.CreatedAt, &sheet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", caller, err)
	}
	return sheet, nil
}

func (r *pgSheetRepository) FindByID(ctx context.Context, id string) (*model.Sheet, error) {
	query := `SELECT id, slug, title, description, total_problems, created_by, created_at, updated_at
	          FROM sheets WHERE id = $1`
	return r.scanSheet(r.db.QueryRowContext(ctx, query, id), "pgSheetRepository.FindByID")
}

func (r *pgSheetRepository) FindBySlug(ctx context.Context, slug string) (*model.Sheet, error) {
	query := `SELECT id, slug, title, description, total_problems, created_by, created_at, updated_at
	          FROM sheets WHERE slug = $1`
	return r.scanSheet(r.db.QueryRowContext(ctx, query, slug), "pgSheetRepository.FindBySlug")
}

func (r *pgSheetRepository) ListSheets(ctx context.Context) ([]model.Sheet, error) {
	query := `SELECT id, slug, title, description, total_problems, created_by, created_at, updated_at
	          FROM sheets ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgSheetRepository.ListSheets query: %w", err)
	}
	defer rows.Close()

	sheets := []model.Sheet{}
	for rows.Next() {
		var s model.Sheet
		if err := rows.Scan(&s.ID, &s.Slug, &s.Title, &s.Description, &s.TotalProblems,
			&s.CreatedByID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("pgSheetRepository.ListSheets scan: %w", err)
		}
		sheets = append(sheets, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSheetRepository.ListSheets rows.Err: %w", err)
	}
	return sheets, nil
}

func (r *pgSheetRepository) ReplaceOutline(ctx context.Context, tx *sql.Tx, sheetID string, sections []model.SheetSection) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_sections WHERE sheet_id = $1`, sheetID); err != nil {
		return fmt.Errorf("pgSheetRepository.ReplaceOutline delete: %w", err)
	}

	sectionStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sheet_sections (id, sheet_id, title, sort_order) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("pgSheetRepository.ReplaceOutline prepare sections: %w", err)
	}
	defer sectionStmt.Close()

	topicStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sheet_topics (id, section_id, title, sort_order) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("pgSheetRepository.ReplaceOutline prepare topics: %w", err)
	}
	defer topicStmt.Close()

	problemStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sheet_problems (id, topic_id, title, difficulty, yt_link, practice_link, article_link, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("pgSheetRepository.ReplaceOutline prepare problems: %w", err)
	}
	defer problemStmt.Close()

	for si, section := range sections {
		if _, err := sectionStmt.ExecContext(ctx, section.ID, sheetID, section.Title, si+1); err != nil {
			return fmt.Errorf("pgSheetRepository.ReplaceOutline section %s: %w", section.ID, err)
		}
		for ti, topic := range section.Topics {
			if _, err := topicStmt.ExecContext(ctx, topic.ID, section.ID, topic.Title, ti+1); err != nil {
				return fmt.Errorf("pgSheetRepository.ReplaceOutline topic %s: %w", topic.ID, err)
			}
			for pi, problem := range topic.Problems {
				if _, err := problemStmt.ExecContext(ctx, problem.ID, topic.ID, problem.Title, problem.Difficulty,
					problem.YoutubeLink, problem.PracticeLink, problem.ArticleLink, pi+1); err != nil {
					return fmt.Errorf("pgSheetRepository.ReplaceOutline problem %s: %w", problem.ID, err)
				}
			}
		}
	}
	return nil
}

func (r *pgSheetRepository) GetOutline(ctx context.Context, sheetID string) ([]model.SheetSection, error) {
	sectionRows, err := r.db.QueryContext(ctx,
		`SELECT id, sheet_id, title, sort_order FROM sheet_sections WHERE sheet_id = $1 ORDER BY sort_order ASC`, sheetID)
	if err != nil {
		return nil, fmt.Errorf("pgSheetRepository.GetOutline sections: %w", err)
	}
	defer sectionRows.Close()

	sections := []model.SheetSection{}
	sectionIdx := map[string]int{}
	for sectionRows.Next() {
		var s model.SheetSection
		if err := sectionRows.Scan(&s.ID, &s.SheetID, &s.Title, &s.SortOrder); err != nil {
			return nil, fmt.Errorf("pgSheetRepository.GetOutline section scan: %w", err)
		}
		sectionIdx[s.ID] = len(sections)
		sections = append(sections, s)
	}
	if err = sectionRows.Err(); err != nil {
		return nil, fmt.Errorf("pgSheetRepository.GetOutline sections rows.Err: %w", err)
	}

	topicRows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.section_id, t.title, t.sort_order
		 FROM sheet_topics t JOIN sheet_sections s ON t.section_id = s.id
		 WHERE s.sheet_id = $1 ORDER BY t.sort_order ASC`, sheetID)
	if err != nil {
		return nil, fmt.Errorf("pgSheetRepository.GetOutline topics: %w", err)
	}
	defer topicRows.Close()

	topicSection := map[string]string{}
	for topicRows.Next() {
		var t model.SheetTopic
		if err := topicRows.Scan(&t.ID, &t.SectionID, &t.Title, &t.SortOrder); err != nil {
			return nil, fmt.Errorf("pgSheetRepository.GetOutline topic scan: %w", err)
		}
		topicSection[t.ID] = t.SectionID
		if idx, ok := sectionIdx[t.SectionID]; ok {
			sections[idx].Topics = append(sections[idx].Topics, t)
		}
	}
	if err = topicRows.Err(); err != nil {
		return nil, fmt.Errorf("pgSheetRepository.GetOutline topics rows.Err: %w", err)
	}

	problemRows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.topic_id, p.title, p.difficulty, p.yt_link, p.practice_link, p.article_link, p.sort_order
		 FROM sheet_problems p
		 JOIN sheet_topics t ON p.topic_id = t.id
		 JOIN sheet_sections s ON t.section_id = s.id
		 WHERE s.sheet_id = $1 ORDER BY p.sort_order ASC`, sheetID)
	if err != nil {
		return nil, fmt.Errorf("pgSheetRepository.GetOutline problems: %w", err)
	}
	defer problemRows.Close()

	problemsByTopic := map[string][]model.SheetProblem{}
	for problemRows.Next() {
		var p model.SheetProblem
		if err := problemRows.Scan(&p.ID, &p.TopicID, &p.Title, &p.Difficulty,
			&p.YoutubeLink, &p.PracticeLink, &p.ArticleLink, &p.SortOrder); err != nil {
			return nil, fmt.Errorf("pgSheetRepository.GetOutline problem scan: %w", err)
		}
		problemsByTopic[p.TopicID] = append(problemsByTopic[p.TopicID], p)
	}
	if err = problemRows.Err(); err != nil {
		return nil, fmt.Errorf("pgSheetRepository.GetOutline problems rows.Err: %w", err)
	}

	for si := range sections {
		for ti := range sections[si].Topics {
			topicID := sections[si].Topics[ti].ID
			sections[si].Topics[ti].Problems = problemsByTopic[topicID]
		}
	}
	return sections, nil
}

func (r *pgSheetRepository) ProblemExistsInSheet(ctx context.Context, sheetID, problemID string) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM sheet_problems p
	            JOIN sheet_topics t ON p.topic_id = t.id
	            JOIN sheet_sections s ON t.section_id = s.id
	            WHERE s.sheet_id = $1 AND p.id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, sheetID, problemID).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgSheetRepository.ProblemExistsInSheet: %w", err)
	}
	return exists, nil
}

func (r *pgSheetRepository) GetProblemDifficulties(ctx context.Context, sheetID string) (map[string]model.Difficulty, error) {
	query := `SELECT p.id, p.difficulty FROM sheet_problems p
	          JOIN sheet_topics t ON p.topic_id = t.id
	          JOIN sheet_sections s ON t.section_id = s.id
	          WHERE s.sheet_id = $1`
	rows, err := r.db.QueryContext(ctx, query, sheetID)
	if err != nil {
		return nil, fmt.Errorf("pgSheetRepository.GetProblemDifficulties query: %w", err)
	}
	defer rows.Close()

	difficulties := map[string]model.Difficulty{}
	for rows.Next() {
		var id string
		var difficulty model.Difficulty
		if err := rows.Scan(&id, &difficulty); err != nil {
			return nil, fmt.Errorf("pgSheetRepository.GetProblemDifficulties scan: %w", err)
		}
		difficulties[id] = difficulty
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSheetRepository.GetProblemDifficulties rows.Err: %w", err)
	}
	return difficulties, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"

	"prepsheet/internal/common"
	"prepsheet/internal/domain/model"
	"prepsheet/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
	db          *sql.DB
	log         *zap.Logger
}

func NewProblemService(problemRepo repository.ProblemRepository, db *sql.DB, log *zap.Logger) *ProblemService {
	return &ProblemService{problemRepo: problemRepo, db: db, log: log}
}

type ExampleRequest struct {
	Input          string  `json:"input" validate:"required"`
	ExpectedOutput *string `json:"expected_output,omitempty"`
	Explanation    *string `json:"explanation,omitempty"`
}

type CreateProblemRequest struct {
	Title       string           `json:"title" validate:"required,min=3,max=120"`
	Description string           `json:"description" validate:"required"`
	Difficulty  string           `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	Tags        []string         `json:"tags" validate:"dive,required"`
	Examples    []ExampleRequest `json:"examples" validate:"dive"`
}

func (s *ProblemService) CreateProblem(ctx context.Context, adminID string, req CreateProblemRequest) (*model.Problem, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	problem := &model.Problem{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Slug:        slug.Make(req.Title),
		Description: req.Description,
		Difficulty:  model.Difficulty(req.Difficulty),
		CreatedByID: &adminID,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := s.problemRepo.CreateProblem(ctx, tx, problem); err != nil {
		return nil, err
	}

	tags, err := s.findOrCreateTags(ctx, tx, req.Tags)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		tagIDs := make([]string, len(tags))
		for i, t := range tags {
			tagIDs[i] = t.ID
		}
		if err := s.problemRepo.AddTagsToProblem(ctx, tx, problem.ID, tagIDs); err != nil {
			return nil, err
		}
	}

	examples := buildExamples(problem.ID, req.Examples)
	if err := s.problemRepo.AddExamplesToProblem(ctx, tx, problem.ID, examples); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	problem.Tags = tags
	problem.Examples = examples
	s.log.Info("problem created", zap.String("problem_id", problem.ID), zap.String("slug", problem.Slug))
	return problem, nil
}

func buildExamples(problemID string, reqs []ExampleRequest) []model.Example {
	examples := make([]model.Example, 0, len(reqs))
	for i, ex := range reqs {
		examples = append(examples, model.Example{
			ID:             uuid.NewString(),
			ProblemID:      problemID,
			Input:          ex.Input,
			ExpectedOutput: ex.ExpectedOutput,
			Explanation:    ex.Explanation,
			SortOrder:      i + 1,
		})
	}
	return examples
}

// findOrCreateTags resolves tag names to rows, creating missing ones inside
// the caller's transaction.
func (s *ProblemService) findOrCreateTags(ctx context.Context, tx *sql.Tx, names []string) ([]model.Tag, error) {
	var tags []model.Tag
	seen := map[string]bool{}
	for _, name := range names {
		tagSlug := slug.Make(name)
		if seen[tagSlug] {
			continue
		}
		seen[tagSlug] = true

		tag, err := s.problemRepo.FindTagBySlug(ctx, tagSlug)
		if err != nil {
			if !errors.Is(err, common.ErrNotFound) {
				return nil, err
			}
			tag = &model.Tag{ID: uuid.NewString(), Name: name, Slug: tagSlug}
			if err := s.problemRepo.CreateTag(ctx, tx, tag); err != nil {
				return nil, err
			}
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

func (s *ProblemService) UpdateProblem(ctx context.Context, problemSlug string, req CreateProblemRequest) (*model.Problem, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	problem, err := s.problemRepo.FindProblemBySlug(ctx, problemSlug)
	if err != nil {
		return nil, err
	}
	problem.Title = req.Title
	problem.Slug = slug.Make(req.Title)
	problem.Description = req.Description
	problem.Difficulty = model.Difficulty(req.Difficulty)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.problemRepo.UpdateProblem(ctx, tx, problem); err != nil {
		return nil, err
	}

	if err := s.problemRepo.ClearProblemTags(ctx, tx, problem.ID); err != nil {
		return nil, err
	}
	tags, err := s.findOrCreateTags(ctx, tx, req.Tags)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		tagIDs := make([]string, len(tags))
		for i, t := range tags {
			tagIDs[i] = t.ID
		}
		if err := s.problemRepo.AddTagsToProblem(ctx, tx, problem.ID, tagIDs); err != nil {
			return nil, err
		}
	}

	if err := s.problemRepo.DeleteExamplesByProblemID(ctx, tx, problem.ID); err != nil {
		return nil, err
	}
	examples := buildExamples(problem.ID, req.Examples)
	if err := s.problemRepo.AddExamplesToProblem(ctx, tx, problem.ID, examples); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	problem.Tags = tags
	problem.Examples = examples
	return problem, nil
}

func (s *ProblemService) DeleteProblem(ctx context.Context, problemSlug string) error {
	problem, err := s.problemRepo.FindProblemBySlug(ctx, problemSlug)
	if err != nil {
		return err
	}
	return s.problemRepo.DeleteProblem(ctx, nil, problem.ID)
}

func (s *ProblemService) GetProblemDetails(ctx context.Context, problemSlug string) (*model.Problem, error) {
	problem, err := s.problemRepo.FindProblemBySlug(ctx, problemSlug)
	if err != nil {
		return nil, err
	}

	examples, err := s.problemRepo.GetExamplesByProblemID(ctx, problem.ID)
	if err != nil {
		s.log.Warn("failed to fetch examples", zap.String("problem_id", problem.ID), zap.Error(err))
	}
	problem.Examples = examples

	tags, err := s.problemRepo.GetTagsByProblemID(ctx, problem.ID)
	if err != nil {
		s.log.Warn("failed to fetch tags", zap.String("problem_id", problem.ID), zap.Error(err))
	}
	problem.Tags = tags

	return problem, nil
}

func (s *ProblemService) ListProblems(ctx context.Context, page, pageSize int, difficulty model.Difficulty, tagSlugs []string, searchTerm string) ([]model.Problem, int, error) {
	limit := pageSize
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	var tagIDs []string
	for _, tagSlug := range tagSlugs {
		tag, err := s.problemRepo.FindTagBySlug(ctx, tagSlug)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				// Filtering by a tag nobody uses matches nothing.
				return []model.Problem{}, 0, nil
			}
			return nil, 0, err
		}
		tagIDs = append(tagIDs, tag.ID)
	}

	problems, total, err := s.problemRepo.ListProblems(ctx, limit, offset, difficulty, tagIDs, searchTerm)
	if err != nil {
		return nil, 0, err
	}

	for i := range problems {
		pTags, err := s.problemRepo.GetTagsByProblemID(ctx, problems[i].ID)
		if err == nil {
			problems[i].Tags = pTags
		}
	}
	return problems, total, nil
}

package service

import (
	"context"
	"database/sql"

	"prepsheet/internal/common"
	"prepsheet/internal/domain/model"
	"prepsheet/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

type SheetService struct {
	sheetRepo repository.SheetRepository
	db        *sql.DB
	log       *zap.Logger
}

func NewSheetService(sheetRepo repository.SheetRepository, db *sql.DB, log *zap.Logger) *SheetService {
	return &SheetService{sheetRepo: sheetRepo, db: db, log: log}
}

type SheetProblemRequest struct {
	ID           string  `json:"id"` // Stable identifier; generated when empty
	Title        string  `json:"title" validate:"required"`
	Difficulty   string  `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	YoutubeLink  *string `json:"yt_link,omitempty" validate:"omitempty,url"`
	PracticeLink *string `json:"practice_link,omitempty" validate:"omitempty,url"`
	ArticleLink  *string `json:"article_link,omitempty" validate:"omitempty,url"`
}

type SheetTopicRequest struct {
	Title    string                `json:"title" validate:"required"`
	Problems []SheetProblemRequest `json:"problems" validate:"dive"`
}

type SheetSectionRequest struct {
	Title  string              `json:"title" validate:"required"`
	Topics []SheetTopicRequest `json:"topics" validate:"dive"`
}

type CreateSheetRequest struct {
	Title         string                `json:"title" validate:"required,min=3,max=120"`
	Description   string                `json:"description" validate:"required"`
	TotalProblems int                   `json:"total_problems" validate:"omitempty,min=0"`
	Sections      []SheetSectionRequest `json:"sections" validate:"required,min=1,dive"`
}

func buildOutline(sections []SheetSectionRequest) ([]model.SheetSection, int) {
	outline := make([]model.SheetSection, 0, len(sections))
	problemCount := 0
	for si, sreq := range sections {
		section := model.SheetSection{
			ID:        uuid.NewString(),
			Title:     sreq.Title,
			SortOrder: si + 1,
		}
		for ti, treq := range sreq.Topics {
			topic := model.SheetTopic{
				ID:        uuid.NewString(),
				SectionID: section.ID,
				Title:     treq.Title,
				SortOrder: ti + 1,
			}
			for pi, preq := range treq.Problems {
				problemID := preq.ID
				if problemID == "" {
					problemID = uuid.NewString()
				}
				topic.Problems = append(topic.Problems, model.SheetProblem{
					ID:           problemID,
					TopicID:      topic.ID,
					Title:        preq.Title,
					Difficulty:   model.Difficulty(preq.Difficulty),
					YoutubeLink:  preq.YoutubeLink,
					PracticeLink: preq.PracticeLink,
					ArticleLink:  preq.ArticleLink,
					SortOrder:    pi + 1,
				})
				problemCount++
			}
			section.Topics = append(section.Topics, topic)
		}
		outline = append(outline, section)
	}
	return outline, problemCount
}

func (s *SheetService) CreateSheet(ctx context.Context, adminID string, req CreateSheetRequest) (*model.Sheet, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	outline, problemCount := buildOutline(req.Sections)
	total := req.TotalProblems
	if total == 0 {
		total = problemCount
	}

	sheet := &model.Sheet{
		ID:            uuid.NewString(),
		Slug:          slug.Make(req.Title),
		Title:         req.Title,
		Description:   req.Description,
		TotalProblems: total,
		CreatedByID:   &adminID,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := s.sheetRepo.CreateSheet(ctx, tx, sheet); err != nil {
		return nil, err
	}
	for i := range outline {
		outline[i].SheetID = sheet.ID
	}
	if err := s.sheetRepo.ReplaceOutline(ctx, tx, sheet.ID, outline); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	sheet.Sections = outline
	s.log.Info("sheet created", zap.String("sheet_id", sheet.ID), zap.String("slug", sheet.Slug))
	return sheet, nil
}

// UpdateSheet replaces metadata and the whole outline. Progress entries for
// problem IDs that survive the replace keep counting; IDs that disappear
// simply stop matching the outline.
func (s *SheetService) UpdateSheet(ctx context.Context, sheetSlug string, req CreateSheetRequest) (*model.Sheet, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	sheet, err := s.sheetRepo.FindBySlug(ctx, sheetSlug)
	if err != nil {
		return nil, err
	}

	outline, problemCount := buildOutline(req.Sections)
	sheet.Title = req.Title
	sheet.Slug = slug.Make(req.Title)
	sheet.Description = req.Description
	sheet.TotalProblems = req.TotalProblems
	if sheet.TotalProblems == 0 {
		sheet.TotalProblems = problemCount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.sheetRepo.UpdateSheetMeta(ctx, tx, sheet); err != nil {
		return nil, err
	}
	for i := range outline {
		outline[i].SheetID = sheet.ID
	}
	if err := s.sheetRepo.ReplaceOutline(ctx, tx, sheet.ID, outline); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	sheet.Sections = outline
	return sheet, nil
}

func (s *SheetService) DeleteSheet(ctx context.Context, sheetSlug string) error {
	sheet, err := s.sheetRepo.FindBySlug(ctx, sheetSlug)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.sheetRepo.DeleteSheet(ctx, tx, sheet.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return common.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Info("sheet deleted", zap.String("sheet_id", sheet.ID))
	return nil
}

func (s *SheetService) ListSheets(ctx context.Context) ([]model.Sheet, error) {
	return s.sheetRepo.ListSheets(ctx)
}

func (s *SheetService) GetSheet(ctx context.Context, sheetSlug string) (*model.Sheet, error) {
	sheet, err := s.sheetRepo.FindBySlug(ctx, sheetSlug)
	if err != nil {
		return nil, err
	}
	sections, err := s.sheetRepo.GetOutline(ctx, sheet.ID)
	if err != nil {
		return nil, err
	}
	sheet.Sections = sections
	return sheet, nil
}

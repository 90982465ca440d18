package service

import (
	"context"

	"prepsheet/internal/common"
	"prepsheet/internal/domain/model"
	"prepsheet/internal/domain/repository"

	"go.uber.org/zap"
)

type ProgressService struct {
	progressRepo repository.ProgressRepository
	sheetRepo    repository.SheetRepository
	log          *zap.Logger
}

func NewProgressService(progressRepo repository.ProgressRepository, sheetRepo repository.SheetRepository, log *zap.Logger) *ProgressService {
	return &ProgressService{progressRepo: progressRepo, sheetRepo: sheetRepo, log: log}
}

type ToggleRequest struct {
	ProblemID string `json:"problem_id" validate:"required"`
}

type ImportRequest struct {
	ProblemIDs []string `json:"problem_ids" validate:"required,min=1,dive,required"`
}

// Toggle flips one problem's completion. Toggling the same problem twice
// restores the set the caller started from. The problem must belong to the
// sheet, so a completed set can never drift outside the outline.
func (s *ProgressService) Toggle(ctx context.Context, userID, sheetSlug string, req ToggleRequest) (*model.Progress, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	sheet, err := s.sheetRepo.FindBySlug(ctx, sheetSlug)
	if err != nil {
		return nil, err
	}
	exists, err := s.sheetRepo.ProblemExistsInSheet(ctx, sheet.ID, req.ProblemID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, common.Errorf("problem %s is not part of this sheet: %w", req.ProblemID, common.ErrBadRequest)
	}

	// Remove first; if nothing was there, this toggle is an add. Both sides
	// are single atomic statements, so racing toggles cannot clobber
	// unrelated completions.
	removed, err := s.progressRepo.RemoveEntry(ctx, userID, sheet.ID, req.ProblemID)
	if err != nil {
		return nil, err
	}
	if !removed {
		if _, err := s.progressRepo.AddEntry(ctx, userID, sheet.ID, req.ProblemID); err != nil {
			return nil, err
		}
	}

	return s.fetch(ctx, userID, sheet.ID)
}

// Import unions a guest-cached completed set into the account. Unknown
// problem IDs are skipped rather than failing the whole merge, since stale
// browser caches can outlive outline edits. Re-importing is a no-op.
func (s *ProgressService) Import(ctx context.Context, userID, sheetSlug string, req ImportRequest) (*model.Progress, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	sheet, err := s.sheetRepo.FindBySlug(ctx, sheetSlug)
	if err != nil {
		return nil, err
	}

	known, err := s.sheetRepo.GetProblemDifficulties(ctx, sheet.ID)
	if err != nil {
		return nil, err
	}

	valid := make([]string, 0, len(req.ProblemIDs))
	for _, id := range req.ProblemIDs {
		if _, ok := known[id]; ok {
			valid = append(valid, id)
		} else {
			s.log.Warn("skipping unknown problem id in progress import",
				zap.String("sheet_id", sheet.ID), zap.String("problem_id", id))
		}
	}

	if err := s.progressRepo.AddEntries(ctx, userID, sheet.ID, valid); err != nil {
		return nil, err
	}
	return s.fetch(ctx, userID, sheet.ID)
}

func (s *ProgressService) GetProgress(ctx context.Context, userID, sheetSlug string) (*model.Progress, error) {
	sheet, err := s.sheetRepo.FindBySlug(ctx, sheetSlug)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, userID, sheet.ID)
}

func (s *ProgressService) fetch(ctx context.Context, userID, sheetID string) (*model.Progress, error) {
	ids, err := s.progressRepo.GetCompletedIDs(ctx, userID, sheetID)
	if err != nil {
		return nil, err
	}
	return &model.Progress{UserID: userID, SheetID: sheetID, CompletedIDs: ids}, nil
}

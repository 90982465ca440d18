package service

import (
	"context"

	"prepsheet/internal/common"
	"prepsheet/internal/domain/model"
	"prepsheet/internal/domain/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	log            *zap.Logger
}

func NewSubmissionService(submissionRepo repository.SubmissionRepository, problemRepo repository.ProblemRepository, log *zap.Logger) *SubmissionService {
	return &SubmissionService{submissionRepo: submissionRepo, problemRepo: problemRepo, log: log}
}

type CreateSubmissionRequest struct {
	Code     string `json:"code" validate:"required"`
	Language string `json:"language" validate:"required,max=40"`
}

type ReviewRequest struct {
	Status     string  `json:"status" validate:"required,oneof=Accepted Rejected NeedsWork"`
	ReviewNote *string `json:"review_note,omitempty" validate:"omitempty,max=2000"`
}

// Create records an answer against a problem. Every submission starts in
// Pending until an admin reviews it.
func (s *SubmissionService) Create(ctx context.Context, userID, problemSlug string, req CreateSubmissionRequest) (*model.Submission, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	problem, err := s.problemRepo.FindProblemBySlug(ctx, problemSlug)
	if err != nil {
		return nil, err
	}

	sub := &model.Submission{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProblemID: problem.ID,
		Code:      req.Code,
		Language:  req.Language,
		Status:    model.StatusPending,
	}
	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	s.log.Info("submission created",
		zap.String("submission_id", sub.ID),
		zap.String("user_id", userID),
		zap.String("problem_id", problem.ID))
	return s.submissionRepo.FindByID(ctx, sub.ID)
}

func (s *SubmissionService) ListMine(ctx context.Context, userID string, page, pageSize int) ([]model.Submission, int, error) {
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	return s.submissionRepo.ListByUser(ctx, userID, pageSize, offset)
}

// Get returns a submission to its owner or to an admin. Anyone else sees a
// 403, not a 404, since submission IDs are not secrets.
func (s *SubmissionService) Get(ctx context.Context, requester *model.User, submissionID string) (*model.Submission, error) {
	sub, err := s.submissionRepo.FindByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != requester.ID && requester.Role != model.RoleAdmin {
		return nil, common.ErrForbidden
	}
	return sub, nil
}

func (s *SubmissionService) ListForReview(ctx context.Context, status model.SubmissionStatus, page, pageSize int) ([]model.Submission, int, error) {
	if status != "" && status != model.StatusPending && !status.ValidReview() {
		return nil, 0, common.Errorf("unknown submission status %q: %w", status, common.ErrBadRequest)
	}
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	return s.submissionRepo.ListAll(ctx, status, pageSize, offset)
}

func (s *SubmissionService) Review(ctx context.Context, reviewerID, submissionID string, req ReviewRequest) (*model.Submission, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	status := model.SubmissionStatus(req.Status)
	if !status.ValidReview() {
		return nil, common.Errorf("invalid review status %q: %w", req.Status, common.ErrBadRequest)
	}

	if err := s.submissionRepo.Review(ctx, submissionID, status, req.ReviewNote, reviewerID); err != nil {
		return nil, err
	}
	s.log.Info("submission reviewed",
		zap.String("submission_id", submissionID),
		zap.String("reviewer_id", reviewerID),
		zap.String("status", req.Status))
	return s.submissionRepo.FindByID(ctx, submissionID)
}

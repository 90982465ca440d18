package service

import (
	"context"
	"testing"

	"prepsheet/internal/common"
	"prepsheet/internal/domain/model"
	"prepsheet/internal/domain/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memSubmissionRepo struct {
	repository.SubmissionRepository
	byID map[string]*model.Submission
}

func newMemSubmissionRepo() *memSubmissionRepo {
	return &memSubmissionRepo{byID: map[string]*model.Submission{}}
}

func (r *memSubmissionRepo) Create(ctx context.Context, sub *model.Submission) error {
	cp := *sub
	r.byID[sub.ID] = &cp
	return nil
}

func (r *memSubmissionRepo) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	if sub, ok := r.byID[id]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (r *memSubmissionRepo) Review(ctx context.Context, id string, status model.SubmissionStatus, note *string, reviewerID string) error {
	sub, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	sub.Status = status
	sub.ReviewNote = note
	sub.ReviewedBy = &reviewerID
	return nil
}

type fakeProblemRepo struct {
	repository.ProblemRepository
	problems map[string]*model.Problem
}

func (r *fakeProblemRepo) FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	if p, ok := r.problems[slug]; ok {
		return p, nil
	}
	return nil, common.ErrNotFound
}

func newSubmissionTestService() (*SubmissionService, *memSubmissionRepo) {
	subs := newMemSubmissionRepo()
	problems := &fakeProblemRepo{problems: map[string]*model.Problem{
		"two-sum": {ID: "prob1", Slug: "two-sum", Title: "Two Sum"},
	}}
	return NewSubmissionService(subs, problems, zap.NewNop()), subs
}

func TestCreateSubmissionStartsPending(t *testing.T) {
	svc, _ := newSubmissionTestService()

	sub, err := svc.Create(context.Background(), "u1", "two-sum", CreateSubmissionRequest{
		Code: "func main() {}", Language: "go",
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, sub.Status)
	require.Equal(t, "u1", sub.UserID)
}

func TestCreateSubmissionUnknownProblem(t *testing.T) {
	svc, _ := newSubmissionTestService()

	_, err := svc.Create(context.Background(), "u1", "missing", CreateSubmissionRequest{
		Code: "x", Language: "go",
	})
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetSubmissionOwnerAndAdminOnly(t *testing.T) {
	svc, _ := newSubmissionTestService()
	ctx := context.Background()

	sub, err := svc.Create(ctx, "u1", "two-sum", CreateSubmissionRequest{Code: "x", Language: "go"})
	require.NoError(t, err)

	owner := &model.User{ID: "u1", Role: model.RoleUser}
	admin := &model.User{ID: "u9", Role: model.RoleAdmin}
	stranger := &model.User{ID: "u2", Role: model.RoleUser}

	_, err = svc.Get(ctx, owner, sub.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, admin, sub.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, stranger, sub.ID)
	require.ErrorIs(t, err, common.ErrForbidden)
}

func TestReviewUpdatesStatusAndReviewer(t *testing.T) {
	svc, _ := newSubmissionTestService()
	ctx := context.Background()

	sub, err := svc.Create(ctx, "u1", "two-sum", CreateSubmissionRequest{Code: "x", Language: "go"})
	require.NoError(t, err)

	note := "tighten the loop bound"
	reviewed, err := svc.Review(ctx, "admin1", sub.ID, ReviewRequest{Status: "NeedsWork", ReviewNote: &note})
	require.NoError(t, err)
	require.Equal(t, model.StatusNeedsWork, reviewed.Status)
	require.Equal(t, "admin1", *reviewed.ReviewedBy)
	require.Equal(t, note, *reviewed.ReviewNote)
}

func TestReviewRejectsPendingAsTarget(t *testing.T) {
	svc, _ := newSubmissionTestService()
	ctx := context.Background()

	sub, err := svc.Create(ctx, "u1", "two-sum", CreateSubmissionRequest{Code: "x", Language: "go"})
	require.NoError(t, err)

	// A review can only land on a terminal status.
	_, err = svc.Review(ctx, "admin1", sub.ID, ReviewRequest{Status: "Pending"})
	require.ErrorIs(t, err, common.ErrValidation)
}

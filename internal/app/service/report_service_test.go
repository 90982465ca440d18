package service

import (
	"context"
	"testing"

	"prepsheet/internal/domain/model"
	"prepsheet/internal/domain/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUserRepo struct {
	repository.UserRepository
	users []model.User
}

func (r *fakeUserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	return r.users, nil
}

type fakeSubmissionRepo struct {
	repository.SubmissionRepository
	subs []model.Submission
}

func (r *fakeSubmissionRepo) ListAllStatuses(ctx context.Context) ([]model.Submission, error) {
	return r.subs, nil
}

type fakeBlogRepo struct {
	repository.BlogRepository
	reads []model.BlogReadReceipt
	posts int
}

func (r *fakeBlogRepo) ListAllReads(ctx context.Context) ([]model.BlogReadReceipt, error) {
	return r.reads, nil
}

func (r *fakeBlogRepo) CountPosts(ctx context.Context) (int, error) {
	return r.posts, nil
}

func reportFixture() (*ReportService, *memProgressRepo, *fakeSubmissionRepo, *fakeBlogRepo) {
	users := &fakeUserRepo{users: []model.User{
		{ID: "u1", Username: "alice"},
		{ID: "u2", Username: "bob"},
	}}
	sheets := &fakeSheetRepo{
		sheet: &model.Sheet{ID: "s1", Title: "Core DSA", TotalProblems: 10},
		difficulties: map[string]model.Difficulty{
			"e1": model.DifficultyEasy, "e2": model.DifficultyEasy, "e3": model.DifficultyEasy,
			"e4": model.DifficultyEasy, "m1": model.DifficultyMedium, "m2": model.DifficultyMedium,
			"m3": model.DifficultyMedium, "h1": model.DifficultyHard, "h2": model.DifficultyHard,
			"h3": model.DifficultyHard,
		},
	}
	progress := newMemProgressRepo()
	subs := &fakeSubmissionRepo{}
	blog := &fakeBlogRepo{}
	svc := NewReportService(users, sheets, progress, subs, blog, zap.NewNop())
	return svc, progress, subs, blog
}

func entryFor(t *testing.T, report *model.SheetReport, userID string) model.SheetReportEntry {
	t.Helper()
	for _, e := range report.Entries {
		if e.UserID == userID {
			return e
		}
	}
	t.Fatalf("no entry for user %s", userID)
	return model.SheetReportEntry{}
}

func TestSheetReportPercentAndDifficultySplit(t *testing.T) {
	svc, progress, _, _ := reportFixture()
	ctx := context.Background()

	require.NoError(t, progress.AddEntries(ctx, "u1", "s1", []string{"e1", "e2", "h1"}))

	report, err := svc.SheetReport(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "Core DSA", report.SheetTitle)
	require.Len(t, report.Entries, 2)

	alice := entryFor(t, report, "u1")
	require.Equal(t, 3, alice.Completed)
	require.Equal(t, 10, alice.Total)
	require.Equal(t, 30, alice.Percent)
	require.Equal(t, model.DifficultyCount{Done: 2, Total: 4}, alice.ByDifficulty[model.DifficultyEasy])
	require.Equal(t, model.DifficultyCount{Done: 0, Total: 3}, alice.ByDifficulty[model.DifficultyMedium])
	require.Equal(t, model.DifficultyCount{Done: 1, Total: 3}, alice.ByDifficulty[model.DifficultyHard])
}

func TestSheetReportUserWithoutProgress(t *testing.T) {
	svc, _, _, _ := reportFixture()

	report, err := svc.SheetReport(context.Background(), "s1")
	require.NoError(t, err)

	bob := entryFor(t, report, "u2")
	require.Equal(t, 0, bob.Completed)
	require.Equal(t, 0, bob.Percent)
	require.Equal(t, 10, bob.Total)
}

func TestSheetReportIgnoresStaleCompletions(t *testing.T) {
	svc, progress, _, _ := reportFixture()
	ctx := context.Background()

	// "ghost" was removed from the outline after the user completed it.
	require.NoError(t, progress.AddEntries(ctx, "u1", "s1", []string{"e1", "ghost"}))

	report, err := svc.SheetReport(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 1, entryFor(t, report, "u1").Completed)
}

func TestGlobalStats(t *testing.T) {
	svc, _, subs, blog := reportFixture()
	subs.subs = []model.Submission{
		{ID: "x1", UserID: "u1", Status: model.StatusAccepted},
		{ID: "x2", UserID: "u1", Status: model.StatusAccepted},
		{ID: "x3", UserID: "u1", Status: model.StatusPending},
		{ID: "x4", UserID: "u2", Status: model.StatusRejected},
	}
	blog.posts = 5
	blog.reads = []model.BlogReadReceipt{
		{UserID: "u1", PostID: "b1"},
		{UserID: "u1", PostID: "b2"},
	}

	stats, err := svc.GlobalStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalUsers)
	require.Equal(t, 4, stats.TotalSubmissions)
	require.Equal(t, 5, stats.TotalPosts)

	var alice, bob model.GlobalStatsEntry
	for _, e := range stats.Entries {
		switch e.UserID {
		case "u1":
			alice = e
		case "u2":
			bob = e
		}
	}
	require.Equal(t, 3, alice.Submissions)
	require.Equal(t, 2, alice.SubmissionsByStatus[model.StatusAccepted])
	require.Equal(t, 1, alice.SubmissionsByStatus[model.StatusPending])
	require.Equal(t, 2, alice.PostsRead)
	require.Equal(t, 1, bob.Submissions)
	require.Equal(t, 0, bob.PostsRead)
}

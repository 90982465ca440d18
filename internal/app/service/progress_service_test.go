package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"

	"prepsheet/internal/common"
	"prepsheet/internal/domain/model"
	"prepsheet/internal/domain/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memProgressRepo struct {
	entries map[string]map[string]bool // userID|sheetID -> problem set
}

func newMemProgressRepo() *memProgressRepo {
	return &memProgressRepo{entries: map[string]map[string]bool{}}
}

func (r *memProgressRepo) key(userID, sheetID string) string { return userID + "|" + sheetID }

func (r *memProgressRepo) AddEntry(ctx context.Context, userID, sheetID, problemID string) (bool, error) {
	k := r.key(userID, sheetID)
	if r.entries[k] == nil {
		r.entries[k] = map[string]bool{}
	}
	if r.entries[k][problemID] {
		return false, nil
	}
	r.entries[k][problemID] = true
	return true, nil
}

func (r *memProgressRepo) RemoveEntry(ctx context.Context, userID, sheetID, problemID string) (bool, error) {
	k := r.key(userID, sheetID)
	if !r.entries[k][problemID] {
		return false, nil
	}
	delete(r.entries[k], problemID)
	return true, nil
}

func (r *memProgressRepo) AddEntries(ctx context.Context, userID, sheetID string, problemIDs []string) error {
	for _, id := range problemIDs {
		if _, err := r.AddEntry(ctx, userID, sheetID, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *memProgressRepo) GetCompletedIDs(ctx context.Context, userID, sheetID string) ([]string, error) {
	ids := []string{}
	for id := range r.entries[r.key(userID, sheetID)] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memProgressRepo) GetCompletedBySheet(ctx context.Context, sheetID string) (map[string][]string, error) {
	out := map[string][]string{}
	for k, set := range r.entries {
		userID := k[:len(k)-len(sheetID)-1]
		if k != userID+"|"+sheetID {
			continue
		}
		for id := range set {
			out[userID] = append(out[userID], id)
		}
		sort.Strings(out[userID])
	}
	return out, nil
}

func (r *memProgressRepo) DeleteByUser(ctx context.Context, tx *sql.Tx, userID string) error {
	for k := range r.entries {
		if len(k) > len(userID) && k[:len(userID)+1] == userID+"|" {
			delete(r.entries, k)
		}
	}
	return nil
}

// fakeSheetRepo serves a single sheet with a fixed outline. Unused methods
// come from the embedded interface and panic if reached.
type fakeSheetRepo struct {
	repository.SheetRepository
	sheet        *model.Sheet
	difficulties map[string]model.Difficulty
}

func (r *fakeSheetRepo) FindByID(ctx context.Context, id string) (*model.Sheet, error) {
	if r.sheet == nil || r.sheet.ID != id {
		return nil, common.ErrNotFound
	}
	return r.sheet, nil
}

func (r *fakeSheetRepo) FindBySlug(ctx context.Context, slug string) (*model.Sheet, error) {
	if r.sheet == nil || r.sheet.Slug != slug {
		return nil, common.ErrNotFound
	}
	return r.sheet, nil
}

func (r *fakeSheetRepo) ProblemExistsInSheet(ctx context.Context, sheetID, problemID string) (bool, error) {
	_, ok := r.difficulties[problemID]
	return ok, nil
}

func (r *fakeSheetRepo) GetProblemDifficulties(ctx context.Context, sheetID string) (map[string]model.Difficulty, error) {
	return r.difficulties, nil
}

func newProgressTestService() (*ProgressService, *memProgressRepo) {
	progressRepo := newMemProgressRepo()
	sheetRepo := &fakeSheetRepo{
		sheet: &model.Sheet{ID: "s1", Slug: "core-dsa", Title: "Core DSA", TotalProblems: 3},
		difficulties: map[string]model.Difficulty{
			"p1": model.DifficultyEasy,
			"p2": model.DifficultyMedium,
			"p3": model.DifficultyHard,
		},
	}
	return NewProgressService(progressRepo, sheetRepo, zap.NewNop()), progressRepo
}

func TestToggleAddsThenRemoves(t *testing.T) {
	svc, _ := newProgressTestService()
	ctx := context.Background()

	progress, err := svc.Toggle(ctx, "u1", "core-dsa", ToggleRequest{ProblemID: "p1"})
	require.NoError(t, err)
	require.True(t, progress.Contains("p1"))

	progress, err = svc.Toggle(ctx, "u1", "core-dsa", ToggleRequest{ProblemID: "p1"})
	require.NoError(t, err)
	require.False(t, progress.Contains("p1"))
	require.Empty(t, progress.CompletedIDs)
}

func TestToggleLeavesOtherEntriesAlone(t *testing.T) {
	svc, _ := newProgressTestService()
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "u1", "core-dsa", ToggleRequest{ProblemID: "p1"})
	require.NoError(t, err)
	progress, err := svc.Toggle(ctx, "u1", "core-dsa", ToggleRequest{ProblemID: "p2"})
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2"}, progress.CompletedIDs)
}

func TestToggleRejectsProblemOutsideSheet(t *testing.T) {
	svc, _ := newProgressTestService()

	_, err := svc.Toggle(context.Background(), "u1", "core-dsa", ToggleRequest{ProblemID: "nope"})
	require.ErrorIs(t, err, common.ErrBadRequest)
}

func TestToggleUnknownSheet(t *testing.T) {
	svc, _ := newProgressTestService()

	_, err := svc.Toggle(context.Background(), "u1", "missing", ToggleRequest{ProblemID: "p1"})
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestImportUnionsWithExisting(t *testing.T) {
	svc, _ := newProgressTestService()
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "u1", "core-dsa", ToggleRequest{ProblemID: "p1"})
	require.NoError(t, err)

	// Unknown IDs from a stale browser cache are dropped, not fatal.
	progress, err := svc.Import(ctx, "u1", "core-dsa", ImportRequest{ProblemIDs: []string{"p1", "p2", "ghost"}})
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2"}, progress.CompletedIDs)
}

func TestImportIsIdempotent(t *testing.T) {
	svc, _ := newProgressTestService()
	ctx := context.Background()

	first, err := svc.Import(ctx, "u1", "core-dsa", ImportRequest{ProblemIDs: []string{"p2", "p3"}})
	require.NoError(t, err)
	second, err := svc.Import(ctx, "u1", "core-dsa", ImportRequest{ProblemIDs: []string{"p2", "p3"}})
	require.NoError(t, err)
	require.Equal(t, first.CompletedIDs, second.CompletedIDs)
}

func TestImportValidatesPayload(t *testing.T) {
	svc, _ := newProgressTestService()

	_, err := svc.Import(context.Background(), "u1", "core-dsa", ImportRequest{})
	require.ErrorIs(t, err, common.ErrValidation)
}

package service

import (
	"testing"

	"prepsheet/internal/domain/model"

	"github.com/stretchr/testify/require"
)

func TestBuildOutlineKeepsCallerProblemIDs(t *testing.T) {
	sections := []SheetSectionRequest{{
		Title: "Arrays",
		Topics: []SheetTopicRequest{{
			Title: "Two Pointers",
			Problems: []SheetProblemRequest{
				{ID: "two-sum", Title: "Two Sum", Difficulty: "Easy"},
				{Title: "3Sum", Difficulty: "Medium"},
			},
		}},
	}}

	outline, count := buildOutline(sections)
	require.Equal(t, 2, count)
	require.Len(t, outline, 1)

	problems := outline[0].Topics[0].Problems
	// Stable IDs survive re-saves so progress entries keep matching.
	require.Equal(t, "two-sum", problems[0].ID)
	require.NotEmpty(t, problems[1].ID)
	require.Equal(t, model.DifficultyMedium, problems[1].Difficulty)
	require.Equal(t, 1, problems[0].SortOrder)
	require.Equal(t, 2, problems[1].SortOrder)
}

func TestBuildOutlineOrdersSectionsAndTopics(t *testing.T) {
	sections := []SheetSectionRequest{
		{Title: "A", Topics: []SheetTopicRequest{{Title: "A1"}, {Title: "A2"}}},
		{Title: "B"},
	}

	outline, count := buildOutline(sections)
	require.Equal(t, 0, count)
	require.Equal(t, 1, outline[0].SortOrder)
	require.Equal(t, 2, outline[1].SortOrder)
	require.Equal(t, 1, outline[0].Topics[0].SortOrder)
	require.Equal(t, 2, outline[0].Topics[1].SortOrder)
	require.Equal(t, outline[0].ID, outline[0].Topics[0].SectionID)
}

package model

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Sheet is a curated, hierarchical list of practice problems
// (sections -> topics -> problems) authored by admins. Learners only read it.
type Sheet struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	TotalProblems int       `json:"total_problems"`
	CreatedByID   *string   `json:"created_by_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Sections []SheetSection `json:"sections,omitempty"`
}

type SheetSection struct {
	ID        string       `json:"id"`
	SheetID   string       `json:"sheet_id"`
	Title     string       `json:"title"`
	SortOrder int          `json:"sort_order"`
	Topics    []SheetTopic `json:"topics,omitempty"`
}

type SheetTopic struct {
	ID        string         `json:"id"`
	SectionID string         `json:"section_id"`
	Title     string         `json:"title"`
	SortOrder int            `json:"sort_order"`
	Problems  []SheetProblem `json:"problems,omitempty"`
}

type SheetProblem struct {
	ID           string     `json:"id"`
	TopicID      string     `json:"topic_id"`
	Title        string     `json:"title"`
	Difficulty   Difficulty `json:"difficulty"`
	YoutubeLink  *string    `json:"yt_link,omitempty"`
	PracticeLink *string    `json:"practice_link,omitempty"`
	ArticleLink  *string    `json:"article_link,omitempty"`
	SortOrder    int        `json:"sort_order"`
}

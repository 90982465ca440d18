package model

import "time"

// Problem is a standalone practice problem, separate from sheet outlines.
// Submissions reference these.
type Problem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
	CreatedByID *string    `json:"created_by_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Tags     []Tag     `json:"tags,omitempty"`
	Examples []Example `json:"examples,omitempty"`
}

type Example struct {
	ID             string    `json:"id"`
	ProblemID      string    `json:"problem_id"`
	Input          string    `json:"input"`
	ExpectedOutput *string   `json:"expected_output,omitempty"`
	Explanation    *string   `json:"explanation,omitempty"`
	SortOrder      int       `json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
}

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

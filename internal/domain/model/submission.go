package model

import "time"

type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "Pending"
	StatusAccepted  SubmissionStatus = "Accepted"
	StatusRejected  SubmissionStatus = "Rejected"
	StatusNeedsWork SubmissionStatus = "NeedsWork"
)

func (s SubmissionStatus) ValidReview() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusNeedsWork
}

// Submission is a learner's code answer to a standalone problem. Append-mostly;
// only admin review mutates status and the review fields.
type Submission struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	ProblemID   string           `json:"problem_id"`
	Code        string           `json:"code"`
	Language    string           `json:"language"`
	Status      SubmissionStatus `json:"status"`
	ReviewNote  *string          `json:"review_note,omitempty"`
	ReviewedBy  *string          `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time       `json:"reviewed_at,omitempty"`
	SubmittedAt time.Time        `json:"submitted_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	UserUsername *string `json:"user_username,omitempty"` // For display
	ProblemTitle *string `json:"problem_title,omitempty"` // For display
}

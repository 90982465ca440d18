package model

import "time"

type BlogPost struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  *string   `json:"author_id,omitempty"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AuthorUsername *string `json:"author_username,omitempty"` // For display
	Read           bool    `json:"read"`                      // Per-session read flag
}

// BlogReadReceipt marks a post as read by an account, at most once per pair.
type BlogReadReceipt struct {
	UserID string    `json:"user_id"`
	PostID string    `json:"post_id"`
	ReadAt time.Time `json:"read_at"`
}

package model

// DifficultyCount is a done/total pair for one difficulty tier.
type DifficultyCount struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// SheetReportEntry is one account's completion on one sheet. Percent is
// against the sheet's declared total, rounded to the nearest integer; an
// account with no progress record reports zero.
type SheetReportEntry struct {
	UserID       string                         `json:"user_id"`
	Username     string                         `json:"username"`
	Completed    int                            `json:"completed"`
	Total        int                            `json:"total"`
	Percent      int                            `json:"percent"`
	ByDifficulty map[Difficulty]DifficultyCount `json:"by_difficulty"`
}

type SheetReport struct {
	SheetID    string             `json:"sheet_id"`
	SheetTitle string             `json:"sheet_title"`
	Entries    []SheetReportEntry `json:"entries"`
}

// GlobalStatsEntry aggregates one account's activity across the platform.
type GlobalStatsEntry struct {
	UserID              string                   `json:"user_id"`
	Username            string                   `json:"username"`
	Submissions         int                      `json:"submissions"`
	SubmissionsByStatus map[SubmissionStatus]int `json:"submissions_by_status"`
	PostsRead           int                      `json:"posts_read"`
}

type GlobalStats struct {
	TotalUsers       int                `json:"total_users"`
	TotalSubmissions int                `json:"total_submissions"`
	TotalPosts       int                `json:"total_posts"`
	Entries          []GlobalStatsEntry `json:"entries"`
}

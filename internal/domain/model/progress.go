package model

// Progress is the completed-problem set of one (user, sheet) pair. The set
// is stored one row per completed problem, so toggles touch single rows
// instead of rewriting a whole document.
type Progress struct {
	UserID       string   `json:"user_id"`
	SheetID      string   `json:"sheet_id"`
	CompletedIDs []string `json:"completed_ids"`
}

func (p *Progress) Contains(problemID string) bool {
	for _, id := range p.CompletedIDs {
		if id == problemID {
			return true
		}
	}
	return false
}

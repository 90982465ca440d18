package model

const (
	MailTypeWelcome = "welcome"
)

// MailJob is the payload pushed onto the Redis mail queue. Welcome mail is
// best-effort: enqueue and send failures are logged, never surfaced.
type MailJob struct {
	Type     string `json:"type"`
	To       string `json:"to"`
	Username string `json:"username"`
}

// internal/workers/communication/notify-matches/models.go
package notifymatches

type Input struct {
	BusinessID  string `json:"businessId"`
	MinScore    *int   `json:"minScore,omitempty"`
	MaxPrograms int    `json:"maxPrograms,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "no_matches", "disabled"
	ProgramCount   int      `json:"programCount"`
	Channels       []string `json:"channels"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// Statuses
const (
	StatusSent      = "sent"
	StatusNoMatches = "no_matches"
	StatusDisabled  = "disabled"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

package ledger

import "time"

const (
	AlertSuccess AlertType = "success"
	AlertError   AlertType = "error"
	AlertWarning AlertType = "warning"
	AlertInfo    AlertType = "info"
)

// AlertTTL is how long an alert stays visible before auto-expiry.
const AlertTTL = 3 * time.Second

type AlertType string

// Alert is the ephemeral operation feedback shown to the user. It is never
// persisted and expires AlertTTL after being raised.
type Alert struct {
	Show    bool      `json:"show"`
	Message string    `json:"message"`
	Type    AlertType `json:"type"`

	expiresAt time.Time
}

func (a Alert) expired(now time.Time) bool {
	return !a.Show || now.After(a.expiresAt)
}

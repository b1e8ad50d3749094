package domain

import "time"

// OAuthToken is a long-lived Instagram access token for one account. The token
// value is a secret: log only Redacted(), never the full value.
type OAuthToken struct {
	IGUserID    string
	AccessToken string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Expired reports whether the token can no longer authorize publish calls.
func (t *OAuthToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// Redacted returns a loggable prefix of the token value.
func (t *OAuthToken) Redacted() string {
	if len(t.AccessToken) <= 8 {
		return "********"
	}
	return t.AccessToken[:8] + "..."
}

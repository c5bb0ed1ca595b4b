package model

import "time"

// Session represents an authentication session backing one bearer token.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ActiveAt reports whether the session is still usable at now.
func (s *Session) ActiveAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

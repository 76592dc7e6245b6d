package models

import "time"

// Session is one refresh-token lineage. The stored hash is the only
// credential material kept at rest; rotation overwrites it in place.
type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash []byte
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

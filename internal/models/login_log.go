package models

import "time"

type LoginStatus string

const (
	LoginStatusSuccess LoginStatus = "success"
	LoginStatusFailed  LoginStatus = "failed"
	LoginStatusBlocked LoginStatus = "blocked"
)

// LoginLog is an append-only audit record of an authentication attempt.
type LoginLog struct {
	ID        string
	UserID    *string
	IPAddress string
	UserAgent string
	Status    LoginStatus
	CreatedAt time.Time
}

package models

import "time"

type CodePurpose string

const (
	CodePurposeLogin    CodePurpose = "login"
	CodePurposeRegister CodePurpose = "register"
	CodePurposeReset    CodePurpose = "reset"
)

func (p CodePurpose) Valid() bool {
	switch p {
	case CodePurposeLogin, CodePurposeRegister, CodePurposeReset:
		return true
	}
	return false
}

// EmailCode is a single-use 6-digit verification code sent to an address.
type EmailCode struct {
	ID        string
	Email     string
	Code      string
	Purpose   CodePurpose
	IsUsed    bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (c EmailCode) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

package service

import "errors"

var (
	// ErrRateLimited: a code for the same (email, purpose) was sent inside
	// the resend window.
	ErrRateLimited = errors.New("verification code sent too recently")

	// ErrInvalidCode deliberately covers wrong, unknown and already-used
	// codes; callers must not be able to tell which.
	ErrInvalidCode = errors.New("invalid verification code")

	ErrCodeExpired = errors.New("verification code expired")

	ErrEmailNotRegistered = errors.New("email not registered")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountDisabled    = errors.New("account disabled")

	// ErrUnauthorized is the single failure every login/refresh problem
	// collapses into; the message never says whether the email, the code or
	// the account was at fault.
	ErrUnauthorized = errors.New("unauthorized")

	ErrUserNotFound = errors.New("user not found")
	ErrRoleNotFound = errors.New("role not found")
	ErrRoleInUse    = errors.New("role still assigned to users")
	ErrRoleConflict = errors.New("role name already exists")
)

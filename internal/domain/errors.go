package domain

import "errors"

// Sentinel errors shared across services. Controllers map these to HTTP
// status codes with errors.Is; repositories return them where the condition
// is detectable at the storage layer.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")

	// Message state machine violations.
	ErrAlreadySent         = errors.New("message already sent")
	ErrCannotModifySent    = errors.New("cannot modify a sent message")
	ErrCannotDeleteSending = errors.New("cannot delete a message while sending")
	ErrInvalidState        = errors.New("operation not allowed in this message state")
)

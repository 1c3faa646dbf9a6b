package service

import "errors"

// Service-level failure conditions. Controllers map these onto HTTP status
// codes; anything else is treated as an internal error.
var (
	// ErrInvalidInput covers malformed or empty request fields.
	ErrInvalidInput = errors.New("username and password must not be empty")

	// ErrDuplicateUsername is returned when a signup races or repeats an
	// existing username.
	ErrDuplicateUsername = errors.New("username is already taken")

	// ErrInvalidCredentials covers unknown user and wrong password alike, so
	// the two cases stay indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrConversationNotFound covers both a missing conversation and one
	// owned by another user; the cases are deliberately indistinguishable.
	ErrConversationNotFound = errors.New("conversation not found or access denied")

	// ErrInvalidRole rejects roles outside system/user/assistant.
	ErrInvalidRole = errors.New("role must be one of system, user or assistant")
)

package presence

import "errors"

// Presence tracking error types
var (
	ErrInvalidUsername = errors.New("username must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrStorageFailure  = errors.New("presence storage failure")
)

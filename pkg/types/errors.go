package types

import "errors"

// ARCHITECTURAL DISCOVERY: Specific error types enable proper error handling
// and user-friendly error messages throughout the system
var (
	ErrInvalidUsername  = errors.New("username must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidGroupName = errors.New("group name must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrEmptyMessageBody = errors.New("message body cannot be empty")
	ErrMessageTooLarge  = errors.New("message body exceeds 64KB limit")
)

package registry

import "errors"

// Registration store error types
var (
	ErrInvalidUsername  = errors.New("username must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidGroupName = errors.New("group name must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrStorageFailure   = errors.New("registration storage failure")
)

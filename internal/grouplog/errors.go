package grouplog

import "errors"

// Group log error types
var (
	ErrInvalidGroupName = errors.New("group name must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrStorageFailure   = errors.New("group log storage failure")
)

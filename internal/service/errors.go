package service

import "errors"

// Error kinds surfaced by the account services. Callers match them with errors.Is;
// the returned errors usually wrap one of these with detail.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrAlreadyExists     = errors.New("already exists")
	ErrNotFound          = errors.New("not found")
	ErrDependencyFailure = errors.New("dependency failure")
)

package errs

import "errors"

// Sentinel errors shared by the services and handlers. Services wrap these
// with fmt.Errorf("...: %w", ...) so callers can match with errors.Is while
// the message still carries the failing field or pair.
var (
	ErrValidation    = errors.New("invalid argument")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrPersistence   = errors.New("persistence failure")
	ErrAuthorization = errors.New("not authorized")
)

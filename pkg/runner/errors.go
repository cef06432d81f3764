package runner

import "errors"

// Common sentinel errors
var (
	ErrMissingFields = errors.New("all experiment fields are required")
	ErrBusy          = errors.New("an experiment is already running")
	ErrShutdown      = errors.New("supervisor is shut down")
	ErrRunNotFound   = errors.New("run not found")
)

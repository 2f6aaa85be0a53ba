package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrStopped        = errors.New("worker stopped")
	ErrUnknownRequest = errors.New("unknown request type")
)

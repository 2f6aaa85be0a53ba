package repository

import (
	"errors"

	"github.com/okian/draftlens/internal/domain/stats"
)

// Sentinel kinds for statistics store errors.
var (
	// ErrNotFound aliases the domain sentinel so callers can match either.
	ErrNotFound        = stats.ErrNotFound
	ErrInvalidSnapshot = errors.New("invalid statistics snapshot")
	ErrNoSnapshotPath  = errors.New("statistics snapshot path not configured")
)

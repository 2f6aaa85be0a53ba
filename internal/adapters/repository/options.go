// Package repository serves read-only statistics from an in-memory snapshot.
package repository

import (
	"time"

	"github.com/okian/draftlens/pkg/logger"
)

// Option applies a configuration option to the SnapshotStore.
type Option func(*SnapshotStore)

// WithSnapshotPath sets the JSON file Reload reads.
func WithSnapshotPath(path string) Option {
	return func(s *SnapshotStore) {
		s.path = path
	}
}

// WithReloadInterval enables periodic reloads from the snapshot path.
func WithReloadInterval(interval time.Duration) Option {
	return func(s *SnapshotStore) {
		if interval > 0 {
			s.reloadInterval = interval
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *SnapshotStore) {
		if l != nil {
			s.log = l
		}
	}
}

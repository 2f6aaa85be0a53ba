package worker

import (
	"github.com/okian/draftlens/pkg/logger"
)

// Option applies a configuration option to the ClassifierWorker.
type Option func(*ClassifierWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *ClassifierWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *ClassifierWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

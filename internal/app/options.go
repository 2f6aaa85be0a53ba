package service

import (
	"time"

	"github.com/okian/draftlens/internal/adapters/capture"
	"github.com/okian/draftlens/internal/domain/classifier"
	"github.com/okian/draftlens/internal/domain/engine"
	"github.com/okian/draftlens/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSessionFactory sets how the worker opens the model.
func WithSessionFactory(f classifier.SessionFactory) Option {
	return func(s *Service) {
		s.factory = f
	}
}

// WithClassifierInit sets the model and class-name paths.
func WithClassifierInit(o classifier.InitOptions) Option {
	return func(s *Service) {
		s.initOpts = o
	}
}

// WithEagerInit loads the classifier during Start instead of on first scan.
func WithEagerInit(eager bool) Option {
	return func(s *Service) {
		s.eagerInit = eager
	}
}

// WithConfidenceThreshold sets the minimum probability for a named result.
func WithConfidenceThreshold(t float64) Option {
	return func(s *Service) {
		if t >= 0 && t <= 1 {
			s.threshold = t
		}
	}
}

// WithSettings sets the engine thresholds.
func WithSettings(st engine.Settings) Option {
	return func(s *Service) {
		s.settings = st
	}
}

// WithCapture sets the screenshot cache used when a scan carries no image.
func WithCapture(c *capture.Cache) Option {
	return func(s *Service) {
		s.capture = c
	}
}

// WithQueueSize sets the classifier request queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithScanTimeout bounds one scan end to end.
func WithScanTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.scanTimeout = d
		}
	}
}

// Package capture supplies screenshots to the scan pipeline and keeps a
// short-lived cache warm with a background prefetch loop.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/okian/draftlens/pkg/logger"
	"github.com/okian/draftlens/pkg/metrics"
)

// Defaults for the cache and prefetch loop.
const (
	DefaultTTL      = 2 * time.Second
	DefaultInterval = time.Second
)

// ErrNoSource is returned when no capture source is configured.
var ErrNoSource = errors.New("no capture source configured")

// Source takes one screenshot, encoded as PNG, JPEG or BMP.
type Source interface {
	Capture(ctx context.Context) ([]byte, error)
}

// FileSource reads the screenshot an external tool keeps writing to path.
type FileSource struct {
	Path string
}

// Capture reads the file.
func (f FileSource) Capture(_ context.Context) ([]byte, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read screenshot %s: %w", f.Path, err)
	}
	return b, nil
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets how long a capture may be reused.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithInterval sets the prefetch tick.
func WithInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithLogger sets the cache logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// withClock replaces time.Now in tests.
func withClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Cache holds the most recent capture for up to ttl.
type Cache struct {
	source   Source
	ttl      time.Duration
	interval time.Duration
	log      logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	data    []byte
	takenAt time.Time

	loopMu   sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewCache wraps source. A nil source makes every Get fail with ErrNoSource.
func NewCache(source Source, opts ...Option) *Cache {
	c := &Cache{
		source:   source,
		ttl:      DefaultTTL,
		interval: DefaultInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("capture")
	}
	return c
}

// Get returns a capture no older than the TTL, taking a new one if needed.
func (c *Cache) Get(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	if c.data != nil && c.now().Sub(c.takenAt) < c.ttl {
		data := c.data
		c.mu.Unlock()
		metrics.RecordCaptureCacheHit()
		return data, nil
	}
	c.mu.Unlock()
	metrics.RecordCaptureCacheMiss()
	return c.refresh(ctx)
}

func (c *Cache) refresh(ctx context.Context) ([]byte, error) {
	if c.source == nil {
		return nil, ErrNoSource
	}
	start := time.Now()
	data, err := c.source.Capture(ctx)
	metrics.RecordCapture(float64(time.Since(start).Milliseconds()), err)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.data, c.takenAt = data, c.now()
	c.mu.Unlock()
	return data, nil
}

// Clear drops the cached capture.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.data, c.takenAt = nil, time.Time{}
	c.mu.Unlock()
}

// Start begins prefetching on the configured interval. Calling Start while
// running is a no-op.
func (c *Cache) Start(ctx context.Context) {
	if c.source == nil {
		return
	}
	c.loopMu.Lock()
	defer c.loopMu.Unlock()
	if c.stopChan != nil {
		return
	}
	stop := make(chan struct{})
	c.stopChan = stop
	c.wg.Add(1)
	go c.prefetch(ctx, stop)
}

// Running reports whether the prefetch loop is active.
func (c *Cache) Running() bool {
	c.loopMu.Lock()
	defer c.loopMu.Unlock()
	return c.stopChan != nil
}

// Stop ends prefetching and waits for the loop. Safe to call when stopped.
func (c *Cache) Stop() {
	c.loopMu.Lock()
	stop := c.stopChan
	c.stopChan = nil
	c.loopMu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	c.wg.Wait()
}

func (c *Cache) prefetch(ctx context.Context, stop <-chan struct{}) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if _, err := c.refresh(ctx); err != nil {
				c.log.Debug(ctx, "prefetch failed", logger.Error(err))
			}
		}
	}
}

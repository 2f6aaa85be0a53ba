// Package classifier turns slot crops of a screenshot into ability names
// with one batched forward pass per scan.
package classifier

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/draftlens/internal/domain/model"
	"github.com/okian/draftlens/pkg/logger"
	"github.com/okian/draftlens/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Session is a loaded model. Run takes a contiguous NHWC batch and returns
// per-image class probabilities, row-major [batch, classes].
type Session interface {
	Run(input []float32, batch int) ([]float32, error)
	Provider() string
	Close() error
}

// SessionFactory opens a model. accelerate asks for a hardware execution path.
type SessionFactory func(modelPath string, accelerate bool) (Session, error)

// InitOptions mirror the worker init request.
type InitOptions struct {
	ModelPath       string
	ClassNamesPath  string
	UseAcceleration bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.log = l
		}
	}
}

// Classifier owns a single long-lived Session.
type Classifier struct {
	factory SessionFactory
	log     logger.Logger

	mu      sync.Mutex
	session Session
	names   []string
}

// New creates an uninitialized classifier.
func New(factory SessionFactory, opts ...Option) *Classifier {
	c := &Classifier{
		factory: factory,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("classifier")
	}
	return c
}

// LoadClassNames reads a JSON array of class names indexed by model output.
func LoadClassNames(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class names: %w", err)
	}
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return nil, fmt.Errorf("parse class names: %w", err)
	}
	return names, nil
}

// Init loads class names, opens a session (accelerated first when asked,
// CPU otherwise) and runs one warm-up pass that also checks the output
// width against the class list. A previous session is released first.
// Returns the execution provider in use.
func (c *Classifier) Init(ctx context.Context, o InitOptions) (string, error) {
	names, err := LoadClassNames(o.ClassNamesPath)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()

	sess, err := c.open(ctx, o)
	if err != nil {
		metrics.RecordClassifierInit("none", "error")
		return "", err
	}

	out, err := sess.Run(make([]float32, ImageLen), 1)
	if err != nil {
		_ = sess.Close()
		metrics.RecordClassifierInit(sess.Provider(), "error")
		return "", fmt.Errorf("warm-up inference: %w", err)
	}
	if len(out) != len(names) {
		_ = sess.Close()
		metrics.RecordClassifierInit(sess.Provider(), "error")
		return "", fmt.Errorf("%w: %d names, %d outputs", ErrClassCountMismatch, len(names), len(out))
	}

	c.session = sess
	c.names = names
	metrics.RecordClassifierInit(sess.Provider(), "success")
	metrics.SetClassifierReady(true)
	c.log.Info(ctx, "classifier ready",
		logger.String("provider", sess.Provider()),
		logger.Int("classes", len(names)))
	return sess.Provider(), nil
}

func (c *Classifier) open(ctx context.Context, o InitOptions) (Session, error) {
	if o.UseAcceleration {
		sess, err := c.factory(o.ModelPath, true)
		if err == nil {
			return sess, nil
		}
		c.log.Warn(ctx, "accelerated session unavailable, falling back to cpu", logger.Error(err))
	}
	sess, err := c.factory(o.ModelPath, false)
	if err != nil {
		return nil, fmt.Errorf("open model %s: %w", o.ModelPath, err)
	}
	return sess, nil
}

// Ready reports whether a session is loaded.
func (c *Classifier) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// ClassNames returns a copy of the loaded class list.
func (c *Classifier) ClassNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...)
}

// Classify returns one result per slot, in slot order. Dropped slots keep
// their coordinate with an empty name and ClassIndex -1.
func (c *Classifier) Classify(img image.Image, slots []model.SlotCoordinate, threshold float64) ([]model.ScanResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, ErrNotInitialized
	}

	results := make([]model.ScanResult, len(slots))
	for i, s := range slots {
		results[i] = model.ScanResult{
			ClassIndex:   -1,
			HeroOrder:    s.HeroOrder,
			AbilityOrder: s.AbilityOrder,
			IsUltimate:   s.IsUltimate,
			Coord:        s,
		}
	}

	tensor, valid := Preprocess(img, slots)
	metrics.RecordSlotsDropped(len(slots) - len(valid))
	if len(valid) == 0 {
		return results, ErrEmptyBatch
	}

	start := time.Now()
	out, err := c.session.Run(tensor, len(valid))
	metrics.RecordInference(float64(time.Since(start).Milliseconds()), len(valid))
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}
	classes := len(c.names)
	if len(out) != len(valid)*classes {
		return nil, fmt.Errorf("%w: %d outputs for batch %d", ErrClassCountMismatch, len(out), len(valid))
	}

	below := 0
	for b, slot := range valid {
		idx, p := argmax(out[b*classes : (b+1)*classes])
		r := &results[slot]
		r.ClassIndex = idx
		r.Confidence = float64(p)
		if r.Confidence >= threshold {
			r.Name = c.names[idx]
		} else {
			below++
		}
	}
	metrics.RecordSlotsBelowThreshold(below)
	return results, nil
}

// Dispose releases the session. Safe without a prior Init.
func (c *Classifier) Dispose() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Classifier) closeLocked() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	c.names = nil
	metrics.SetClassifierReady(false)
	return err
}

func argmax(row []float32) (int, float32) {
	best, bestP := 0, row[0]
	for i, p := range row[1:] {
		if p > bestP {
			best, bestP = i+1, p
		}
	}
	return best, bestP
}

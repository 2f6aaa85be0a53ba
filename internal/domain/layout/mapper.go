package layout

import (
	"context"
	"fmt"

	"github.com/okian/draftlens/internal/domain/model"
	"github.com/okian/draftlens/pkg/logger"
	"github.com/okian/draftlens/pkg/metrics"
)

// Source tells where a resolved layout came from.
type Source string

// Layout sources in priority order.
const (
	SourceCustom Source = "custom"
	SourcePreset Source = "preset"
	SourceScaled Source = "scaled"
	SourceNone   Source = "none"
)

// CustomStore persists user-saved layouts keyed by WIDTHxHEIGHT.
type CustomStore interface {
	Get(ctx context.Context, resolution string) (Layout, bool, error)
	Save(ctx context.Context, resolution string, l Layout) error
	Delete(ctx context.Context, resolution string) error
	List(ctx context.Context) ([]string, error)
}

// Option applies a configuration option to the Mapper.
type Option func(*Mapper)

// WithLogger sets the mapper logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Mapper) {
		if l != nil {
			m.log = l
		}
	}
}

// Mapper resolves layouts: custom, then preset, then scaled from the base.
type Mapper struct {
	presets map[string]Layout
	custom  CustomStore
	log     logger.Logger
}

// NewMapper builds a mapper over presets and a custom store.
func NewMapper(presets map[string]Layout, custom CustomStore, opts ...Option) *Mapper {
	m := &Mapper{presets: presets, custom: custom, log: logger.Discard()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Base returns the 1920x1080 preset.
func (m *Mapper) Base() (Layout, bool) {
	l, ok := m.presets[BaseResolution.String()]
	return l, ok
}

// Get resolves the layout for res. ErrNotFound is returned when nothing,
// not even the base layout, is available.
func (m *Mapper) Get(ctx context.Context, res model.Resolution) (Layout, Source, error) {
	key := res.String()
	if m.custom != nil {
		l, ok, err := m.custom.Get(ctx, key)
		if err != nil {
			// A broken custom store must not block scanning.
			m.log.Warn(ctx, "custom layout lookup failed", logger.String("resolution", key), logger.Error(err))
		} else if ok {
			metrics.RecordLayoutResolution(string(SourceCustom))
			return l.Normalize(), SourceCustom, nil
		}
	}
	if l, ok := m.presets[key]; ok {
		metrics.RecordLayoutResolution(string(SourcePreset))
		return l.Clone(), SourcePreset, nil
	}
	base, ok := m.Base()
	if !ok {
		metrics.RecordLayoutResolution(string(SourceNone))
		return Layout{}, SourceNone, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	metrics.RecordLayoutResolution(string(SourceScaled))
	m.log.Debug(ctx, "layout scaled from base",
		logger.String("resolution", key), logger.Float64("scale_factor", ScaleFactor(res)))
	return Scale(base, res), SourceScaled, nil
}

// Source reports where Get would resolve res from.
func (m *Mapper) Source(ctx context.Context, res model.Resolution) Source {
	_, src, err := m.Get(ctx, res)
	if err != nil {
		return SourceNone
	}
	return src
}

// ScaleFactor is the height ratio of res to the base.
func (m *Mapper) ScaleFactor(res model.Resolution) float64 {
	return ScaleFactor(res)
}

// SaveCustom stores a layout for res after rejecting out-of-bounds rectangles.
func (m *Mapper) SaveCustom(ctx context.Context, res model.Resolution, l Layout) ([]Violation, error) {
	if m.custom == nil {
		return nil, fmt.Errorf("%w: no custom store", ErrInvalidLayout)
	}
	l = l.Normalize()
	if v := BoundsViolations(l, res); len(v) > 0 {
		return v, fmt.Errorf("%w: %d rectangles out of bounds for %s", ErrInvalidLayout, len(v), res)
	}
	if err := m.custom.Save(ctx, res.String(), l); err != nil {
		return nil, fmt.Errorf("save custom layout: %w", err)
	}
	m.log.Info(ctx, "custom layout saved", logger.String("resolution", res.String()))
	return nil, nil
}

// DeleteCustom removes the custom layout for res.
func (m *Mapper) DeleteCustom(ctx context.Context, res model.Resolution) error {
	if m.custom == nil {
		return fmt.Errorf("%w: no custom store", ErrNotFound)
	}
	if err := m.custom.Delete(ctx, res.String()); err != nil {
		return fmt.Errorf("delete custom layout: %w", err)
	}
	m.log.Info(ctx, "custom layout deleted", logger.String("resolution", res.String()))
	return nil
}

// CustomResolutions lists resolutions with a saved custom layout.
func (m *Mapper) CustomResolutions(ctx context.Context) ([]string, error) {
	if m.custom == nil {
		return []string{}, nil
	}
	keys, err := m.custom.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list custom layouts: %w", err)
	}
	return keys, nil
}

// CalibrateCustom fits anchors against the base layout and saves the result
// when every rectangle is on screen.
func (m *Mapper) CalibrateCustom(ctx context.Context, res model.Resolution, anchors []Anchor) (Layout, []Violation, error) {
	base, ok := m.Base()
	if !ok {
		return Layout{}, nil, fmt.Errorf("%w: base %s", ErrNotFound, BaseResolution)
	}
	l, violations, err := Calibrate(base, anchors, res)
	if err != nil {
		return Layout{}, nil, err
	}
	if len(violations) > 0 {
		return l, violations, nil
	}
	if _, err := m.SaveCustom(ctx, res, l); err != nil {
		return Layout{}, nil, err
	}
	return l, nil, nil
}

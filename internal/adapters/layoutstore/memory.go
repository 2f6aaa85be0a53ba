// Package layoutstore persists user-saved custom layouts.
package layoutstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/draftlens/internal/domain/layout"
)

// Memory keeps custom layouts for the lifetime of the process.
type Memory struct {
	mu      sync.RWMutex
	layouts map[string]layout.Layout
}

var _ layout.CustomStore = (*Memory)(nil)

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{layouts: make(map[string]layout.Layout)}
}

// Get returns a copy of the layout saved for resolution.
func (m *Memory) Get(_ context.Context, resolution string) (layout.Layout, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.layouts[resolution]
	if !ok {
		return layout.Layout{}, false, nil
	}
	return l.Clone(), true, nil
}

// Save replaces the layout for resolution.
func (m *Memory) Save(_ context.Context, resolution string, l layout.Layout) error {
	m.mu.Lock()
	m.layouts[resolution] = l.Clone()
	m.mu.Unlock()
	return nil
}

// Delete removes the layout for resolution.
func (m *Memory) Delete(_ context.Context, resolution string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.layouts[resolution]; !ok {
		return fmt.Errorf("%w: custom %s", layout.ErrNotFound, resolution)
	}
	delete(m.layouts, resolution)
	return nil
}

// List returns the saved resolutions in sorted order.
func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.layouts))
	for k := range m.layouts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

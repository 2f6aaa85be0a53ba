// Package engine turns classified draft slots into the overlay payload and
// advances the draft session state. It is deterministic: identical input and
// prior state always yield identical output.
package engine

import (
	"context"
	"fmt"

	"github.com/okian/draftlens/internal/domain/model"
	"github.com/okian/draftlens/internal/domain/stats"
	"github.com/okian/draftlens/internal/domain/types"
)

// Settings carries the user-tunable thresholds.
type Settings struct {
	OPThreshold   float64
	TrapThreshold float64
	Language      string
}

// DefaultSettings returns the stock thresholds.
func DefaultSettings() Settings {
	return Settings{OPThreshold: 0.13, TrapThreshold: 0.05, Language: "en"}
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSettings overrides the thresholds.
func WithSettings(s Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

// Engine is the draft analysis engine.
type Engine struct {
	repos    stats.Repositories
	settings Settings
}

// New builds an Engine over read-only statistics repositories.
func New(repos stats.Repositories, opts ...Option) *Engine {
	e := &Engine{repos: repos, settings: DefaultSettings()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Settings returns the active thresholds.
func (e *Engine) Settings() Settings { return e.settings }

// View carries per-scan layout context echoed into the payload.
type View struct {
	HeroCoords       []model.SlotCoordinate
	TargetResolution string
	ScaleFactor      float64
}

// InitialInput is the classifier output of the first scan of a draft.
type InitialInput struct {
	Raw         model.RawScan
	ModelCoords []model.SlotCoordinate
	View        View
}

// RescanInput is the classifier output of a later scan: the still visible
// pool slots plus the picked-ability slots.
type RescanInput struct {
	Slots         []model.ScanResult
	SelectedSlots []model.ScanResult
	View          View
}

// InitialScan identifies the hero models, seeds the pool caches and resets
// both user selections.
func (e *Engine) InitialScan(ctx context.Context, in InitialInput) (types.Payload, State, error) {
	if err := ctx.Err(); err != nil {
		return types.Payload{}, State{}, err
	}
	seen := map[string]struct{}{}
	st := State{
		InitialPoolAbilitiesCache: PoolCache{
			Ultimates: uniqueRecognized(in.Raw.Ultimates, seen),
			Standard:  uniqueRecognized(in.Raw.Standard, seen),
		},
		PickedAbilitiesCache:      []PickedAbility{},
		IdentifiedHeroModelsCache: e.identifyHeroes(ctx, in.ModelCoords, in.Raw.HeroDefining),
	}

	visible := make([]model.ScanResult, 0, len(in.Raw.Ultimates)+len(in.Raw.Standard))
	visible = append(visible, in.Raw.Ultimates...)
	visible = append(visible, in.Raw.Standard...)

	p, err := e.build(ctx, st, visible, nil, in.View)
	if err != nil {
		return types.Payload{}, State{}, err
	}
	p.InitialSetup = true
	return p, st, nil
}

// Rescan removes abilities that disappeared from the pool, records them as
// picked and rebuilds the payload. prev is not modified.
func (e *Engine) Rescan(ctx context.Context, prev State, in RescanInput) (types.Payload, State, error) {
	if err := ctx.Err(); err != nil {
		return types.Payload{}, State{}, err
	}
	st := prev.Clone()

	// Blank slots are drafted abilities; they neither keep a pool entry
	// alive nor show up in the display sections.
	visible := make([]model.ScanResult, 0, len(in.Slots))
	present := make(map[string]struct{}, len(in.Slots))
	for _, r := range in.Slots {
		if r.Recognized() {
			present[r.Name] = struct{}{}
			visible = append(visible, r)
		}
	}
	alreadyPicked := make(map[string]struct{}, len(st.PickedAbilitiesCache))
	for _, p := range st.PickedAbilitiesCache {
		alreadyPicked[p.Result.Name] = struct{}{}
	}
	keep := func(pool []model.ScanResult) []model.ScanResult {
		out := make([]model.ScanResult, 0, len(pool))
		for _, r := range pool {
			if _, ok := present[r.Name]; ok {
				out = append(out, r)
				continue
			}
			if _, dup := alreadyPicked[r.Name]; !dup {
				alreadyPicked[r.Name] = struct{}{}
				st.PickedAbilitiesCache = append(st.PickedAbilitiesCache, PickedAbility{Result: r})
			}
		}
		return out
	}
	st.InitialPoolAbilitiesCache.Ultimates = keep(st.InitialPoolAbilitiesCache.Ultimates)
	st.InitialPoolAbilitiesCache.Standard = keep(st.InitialPoolAbilitiesCache.Standard)

	for i := range st.PickedAbilitiesCache {
		if st.PickedAbilitiesCache[i].ByHeroOrder != nil {
			continue
		}
		for _, s := range in.SelectedSlots {
			if s.Recognized() && s.Name == st.PickedAbilitiesCache[i].Result.Name {
				order := s.HeroOrder
				st.PickedAbilitiesCache[i].ByHeroOrder = &order
				break
			}
		}
	}

	p, err := e.build(ctx, st, visible, in.SelectedSlots, in.View)
	if err != nil {
		return types.Payload{}, State{}, err
	}
	return p, st, nil
}

func wrap(op string, err error) error {
	return fmt.Errorf("engine %s: %w", op, err)
}

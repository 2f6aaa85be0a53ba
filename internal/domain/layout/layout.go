// Package layout resolves screen resolutions to per-slot pixel rectangles.
package layout

import (
	"fmt"
	"io"
	"slices"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/draftlens/internal/domain/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // shared codec

// BaseResolution is the reference layout every other size derives from.
var BaseResolution = model.Resolution{Width: 1920, Height: 1080} //nolint:gochecknoglobals // constant value

// Expected entry counts for a complete layout.
const (
	ExpectedUltimates = 12
	ExpectedStandard  = 36
	ExpectedModels    = 12
	ExpectedHeroes    = 10
	ExpectedSelected  = 40
)

// Params supplies the shared size for entries that omit their own.
type Params struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Layout holds one rectangle per slot, grouped by category.
type Layout struct {
	UltimateSlots           []model.SlotCoordinate `json:"ultimate_slots_coords"`
	StandardSlots           []model.SlotCoordinate `json:"standard_slots_coords"`
	Models                  []model.SlotCoordinate `json:"models_coords"`
	Heroes                  []model.SlotCoordinate `json:"heroes_coords"`
	SelectedAbilities       []model.SlotCoordinate `json:"selected_abilities_coords"`
	HeroesParams            *Params                `json:"heroes_params,omitempty"`
	SelectedAbilitiesParams *Params                `json:"selected_abilities_params,omitempty"`
}

// Clone returns a deep copy.
func (l Layout) Clone() Layout {
	out := Layout{
		UltimateSlots:     slices.Clone(l.UltimateSlots),
		StandardSlots:     slices.Clone(l.StandardSlots),
		Models:            slices.Clone(l.Models),
		Heroes:            slices.Clone(l.Heroes),
		SelectedAbilities: slices.Clone(l.SelectedAbilities),
	}
	if l.HeroesParams != nil {
		p := *l.HeroesParams
		out.HeroesParams = &p
	}
	if l.SelectedAbilitiesParams != nil {
		p := *l.SelectedAbilitiesParams
		out.SelectedAbilitiesParams = &p
	}
	return out
}

// Normalize fills omitted entry sizes from the shared params and marks
// ultimate slots.
func (l Layout) Normalize() Layout {
	out := l.Clone()
	fill := func(cs []model.SlotCoordinate, p *Params) {
		if p == nil {
			return
		}
		for i := range cs {
			if cs[i].Width == 0 {
				cs[i].Width = p.Width
			}
			if cs[i].Height == 0 {
				cs[i].Height = p.Height
			}
		}
	}
	fill(out.Heroes, out.HeroesParams)
	fill(out.SelectedAbilities, out.SelectedAbilitiesParams)
	for i := range out.UltimateSlots {
		out.UltimateSlots[i].IsUltimate = true
	}
	return out
}

// each visits every category with its name.
func (l *Layout) each(fn func(category string, cs []model.SlotCoordinate)) {
	fn("ultimate_slots_coords", l.UltimateSlots)
	fn("standard_slots_coords", l.StandardSlots)
	fn("models_coords", l.Models)
	fn("heroes_coords", l.Heroes)
	fn("selected_abilities_coords", l.SelectedAbilities)
}

// transform maps every rectangle through fn, leaving the receiver untouched.
func (l Layout) transform(fn func(model.SlotCoordinate) model.SlotCoordinate) Layout {
	out := l.Normalize()
	out.each(func(_ string, cs []model.SlotCoordinate) {
		for i := range cs {
			cs[i] = fn(cs[i])
		}
	})
	out.HeroesParams, out.SelectedAbilitiesParams = nil, nil
	return out
}

// File is the preset document: layouts keyed by WIDTHxHEIGHT.
type File struct {
	Resolutions map[string]Layout `json:"resolutions"`
}

// Warning is a non-fatal preset issue.
type Warning struct {
	Resolution string
	Violation  Violation
}

// LoadPresets parses and validates a preset document. Bounds violations are
// fatal; count mismatches are returned as warnings.
func LoadPresets(r io.Reader) (map[string]Layout, []Warning, error) {
	var f File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, nil, fmt.Errorf("%w: decode: %w", ErrInvalidLayout, err)
	}
	keys := make([]string, 0, len(f.Resolutions))
	for k := range f.Resolutions {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make(map[string]Layout, len(f.Resolutions))
	var warnings []Warning
	for _, key := range keys {
		res, err := model.ParseResolution(key)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
		}
		l := f.Resolutions[key].Normalize()
		for _, v := range Validate(l, res) {
			if v.Kind != ViolationCount {
				return nil, nil, fmt.Errorf("%w: %s: %s", ErrInvalidLayout, key, v)
			}
			warnings = append(warnings, Warning{Resolution: res.String(), Violation: v})
		}
		out[res.String()] = l
	}
	return out, warnings, nil
}

package engine

import (
	"slices"

	"github.com/okian/draftlens/internal/domain/model"
	"github.com/okian/draftlens/internal/domain/types"
)

// PoolCache holds the abilities still available in the draft.
type PoolCache struct {
	Ultimates []model.ScanResult `json:"ultimates"`
	Standard  []model.ScanResult `json:"standard"`
}

// PickedAbility is an ability that left the pool.
type PickedAbility struct {
	Result model.ScanResult `json:"result"`
	// ByHeroOrder is the hero slot seen drafting it, if any.
	ByHeroOrder *int `json:"byHeroOrder,omitempty"`
}

// State is the draft session. Every scan returns a new State; values passed
// in are never modified.
type State struct {
	InitialPoolAbilitiesCache PoolCache         `json:"initialPoolAbilitiesCache"`
	PickedAbilitiesCache      []PickedAbility   `json:"pickedAbilitiesCache"`
	IdentifiedHeroModelsCache []types.HeroModel `json:"identifiedHeroModelsCache"`

	MySelectedSpotDBID       *int `json:"mySelectedSpotDbId"`
	MySelectedSpotHeroOrder  *int `json:"mySelectedSpotHeroOrder"`
	MySelectedModelDBHeroID  *int `json:"mySelectedModelDbHeroId"`
	MySelectedModelHeroOrder *int `json:"mySelectedModelHeroOrder"`
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := State{
		InitialPoolAbilitiesCache: PoolCache{
			Ultimates: slices.Clone(s.InitialPoolAbilitiesCache.Ultimates),
			Standard:  slices.Clone(s.InitialPoolAbilitiesCache.Standard),
		},
		PickedAbilitiesCache:      make([]PickedAbility, len(s.PickedAbilitiesCache)),
		IdentifiedHeroModelsCache: make([]types.HeroModel, len(s.IdentifiedHeroModelsCache)),
		MySelectedSpotDBID:        clonePtr(s.MySelectedSpotDBID),
		MySelectedSpotHeroOrder:   clonePtr(s.MySelectedSpotHeroOrder),
		MySelectedModelDBHeroID:   clonePtr(s.MySelectedModelDBHeroID),
		MySelectedModelHeroOrder:  clonePtr(s.MySelectedModelHeroOrder),
	}
	for i, p := range s.PickedAbilitiesCache {
		out.PickedAbilitiesCache[i] = PickedAbility{Result: p.Result, ByHeroOrder: clonePtr(p.ByHeroOrder)}
	}
	for i, h := range s.IdentifiedHeroModelsCache {
		h.DBHeroID = clonePtr(h.DBHeroID)
		h.StrongAbilitySynergies = nil
		h.WeakAbilitySynergies = nil
		out.IdentifiedHeroModelsCache[i] = h
	}
	return out
}

// Started reports whether an initial scan has populated the session.
func (s State) Started() bool {
	return len(s.InitialPoolAbilitiesCache.Ultimates)+len(s.InitialPoolAbilitiesCache.Standard) > 0 ||
		len(s.IdentifiedHeroModelsCache) > 0
}

// WithMySpot toggles the user's hero slot. Selecting the current slot clears it.
func (s State) WithMySpot(heroOrder int, dbHeroID *int) State {
	out := s.Clone()
	if out.MySelectedSpotHeroOrder != nil && *out.MySelectedSpotHeroOrder == heroOrder {
		out.MySelectedSpotHeroOrder, out.MySelectedSpotDBID = nil, nil
		return out
	}
	out.MySelectedSpotHeroOrder = &heroOrder
	out.MySelectedSpotDBID = clonePtr(dbHeroID)
	return out
}

// WithMyModel toggles the user's hero model. Selecting the current model clears it.
func (s State) WithMyModel(heroOrder int, dbHeroID *int) State {
	out := s.Clone()
	if out.MySelectedModelHeroOrder != nil && *out.MySelectedModelHeroOrder == heroOrder {
		out.MySelectedModelHeroOrder, out.MySelectedModelDBHeroID = nil, nil
		return out
	}
	out.MySelectedModelHeroOrder = &heroOrder
	out.MySelectedModelDBHeroID = clonePtr(dbHeroID)
	return out
}

// PoolNames lists pool names, ultimates first.
func (s State) PoolNames() []string {
	out := make([]string, 0, len(s.InitialPoolAbilitiesCache.Ultimates)+len(s.InitialPoolAbilitiesCache.Standard))
	for _, r := range s.InitialPoolAbilitiesCache.Ultimates {
		out = append(out, r.Name)
	}
	for _, r := range s.InitialPoolAbilitiesCache.Standard {
		out = append(out, r.Name)
	}
	return out
}

// PickedNames lists picked names in pick order.
func (s State) PickedNames() []string {
	out := make([]string, 0, len(s.PickedAbilitiesCache))
	for _, p := range s.PickedAbilitiesCache {
		out = append(out, p.Result.Name)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// uniqueRecognized keeps the first result per name and drops unnamed ones.
func uniqueRecognized(results []model.ScanResult, seen map[string]struct{}) []model.ScanResult {
	out := make([]model.ScanResult, 0, len(results))
	for _, r := range results {
		if !r.Recognized() {
			continue
		}
		if _, dup := seen[r.Name]; dup {
			continue
		}
		seen[r.Name] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Package synergy splits per-ability synergy data and filters the global
// combination tables down to what matters for the current draft.
package synergy

import (
	"cmp"
	"slices"

	"github.com/okian/draftlens/internal/domain/stats"
)

const (
	// Neutral separates strong from weak combinations.
	Neutral = 0.5
	// TopN bounds the strong and weak hero lists.
	TopN = 5
)

// Names is a set of internal names.
type Names map[string]struct{}

// NewNames builds a set from names, skipping empty ones.
func NewNames(names ...string) Names {
	s := make(Names, len(names))
	for _, n := range names {
		if n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// Has reports membership.
func (n Names) Has(name string) bool {
	_, ok := n[name]
	return ok
}

// HeroIDs is a set of hero ids.
type HeroIDs map[int]struct{}

// Has reports membership.
func (h HeroIDs) Has(id int) bool {
	_, ok := h[id]
	return ok
}

// Split puts partners at or above Neutral into high (descending) and the
// rest into low (ascending). Ties break by name.
func Split(partners []stats.SynergyPartner) (high, low []stats.SynergyPartner) {
	high = make([]stats.SynergyPartner, 0)
	low = make([]stats.SynergyPartner, 0)
	for _, p := range partners {
		if p.SynergyWinrate >= Neutral {
			high = append(high, p)
		} else {
			low = append(low, p)
		}
	}
	slices.SortFunc(high, func(a, b stats.SynergyPartner) int {
		return cmp.Or(cmp.Compare(b.SynergyWinrate, a.SynergyWinrate), cmp.Compare(a.Name, b.Name))
	})
	slices.SortFunc(low, func(a, b stats.SynergyPartner) int {
		return cmp.Or(cmp.Compare(a.SynergyWinrate, b.SynergyWinrate), cmp.Compare(a.Name, b.Name))
	})
	return high, low
}

// HeroSynergiesForAbility returns the ability's top strong and weak hero rows
// among visible heroes.
func HeroSynergiesForAbility(ability string, rows []stats.HeroAbilityRow, visible HeroIDs) (strong, weak []stats.HeroAbilityRow) {
	return strongWeak(rows, func(r stats.HeroAbilityRow) bool {
		return r.AbilityName == ability && visible.Has(r.HeroID)
	})
}

// AbilitySynergiesForHero returns the hero's top strong and weak ability rows
// among relevant abilities.
func AbilitySynergiesForHero(heroID int, rows []stats.HeroAbilityRow, relevant Names) (strong, weak []stats.HeroAbilityRow) {
	return strongWeak(rows, func(r stats.HeroAbilityRow) bool {
		return r.HeroID == heroID && relevant.Has(r.AbilityName)
	})
}

func strongWeak(rows []stats.HeroAbilityRow, keep func(stats.HeroAbilityRow) bool) (strong, weak []stats.HeroAbilityRow) {
	strong = make([]stats.HeroAbilityRow, 0)
	weak = make([]stats.HeroAbilityRow, 0)
	for _, r := range rows {
		if !keep(r) {
			continue
		}
		if r.SynergyWinrate >= Neutral {
			strong = append(strong, r)
		} else {
			weak = append(weak, r)
		}
	}
	slices.SortFunc(strong, func(a, b stats.HeroAbilityRow) int {
		return cmp.Or(cmp.Compare(b.SynergyWinrate, a.SynergyWinrate), compareRow(a, b))
	})
	slices.SortFunc(weak, func(a, b stats.HeroAbilityRow) int {
		return cmp.Or(cmp.Compare(a.SynergyWinrate, b.SynergyWinrate), compareRow(a, b))
	})
	return strong[:min(TopN, len(strong))], weak[:min(TopN, len(weak))]
}

func compareRow(a, b stats.HeroAbilityRow) int {
	return cmp.Or(cmp.Compare(a.HeroID, b.HeroID), cmp.Compare(a.AbilityName, b.AbilityName))
}

// FilterRelevantOP keeps OP pairs that matter for the current pool and picks.
func FilterRelevantOP(pairs []stats.AbilityPair, pool, picked Names) []stats.AbilityPair {
	return filterPairs(pairs, pool, picked, true)
}

// FilterRelevantTrap keeps trap pairs that matter for the current pool and picks.
func FilterRelevantTrap(pairs []stats.AbilityPair, pool, picked Names) []stats.AbilityPair {
	return filterPairs(pairs, pool, picked, false)
}

// A pair is relevant when both members are in the pool, or exactly one is in
// the pool and the other has been picked.
// OP lists sort strongest first, trap lists weakest first.
func filterPairs(pairs []stats.AbilityPair, pool, picked Names, desc bool) []stats.AbilityPair {
	out := make([]stats.AbilityPair, 0)
	for _, p := range pairs {
		in1, in2 := pool.Has(p.Ability1), pool.Has(p.Ability2)
		switch {
		case in1 && in2:
		case in1 && picked.Has(p.Ability2):
		case in2 && picked.Has(p.Ability1):
		default:
			continue
		}
		out = append(out, p)
	}
	slices.SortStableFunc(out, func(a, b stats.AbilityPair) int {
		return cmp.Or(
			byWinrate(a.SynergyWinrate, b.SynergyWinrate, desc),
			cmp.Compare(a.Ability1, b.Ability1),
			cmp.Compare(a.Ability2, b.Ability2),
		)
	})
	return out
}

// FilterRelevantHeroSynergies keeps rows whose ability is in pool or picked,
// whose hero is visible, and whose winrate beats Neutral by opThreshold.
func FilterRelevantHeroSynergies(rows []stats.HeroAbilityRow, relevant Names, visible HeroIDs, opThreshold float64) []stats.HeroAbilityRow {
	return filterHeroRows(rows, relevant, visible, true, func(r stats.HeroAbilityRow) bool {
		return r.SynergyWinrate-Neutral >= opThreshold
	})
}

// FilterRelevantHeroTraps applies the same gating without a threshold.
func FilterRelevantHeroTraps(rows []stats.HeroAbilityRow, relevant Names, visible HeroIDs) []stats.HeroAbilityRow {
	return filterHeroRows(rows, relevant, visible, false, nil)
}

func filterHeroRows(rows []stats.HeroAbilityRow, relevant Names, visible HeroIDs, desc bool, keep func(stats.HeroAbilityRow) bool) []stats.HeroAbilityRow {
	out := make([]stats.HeroAbilityRow, 0)
	for _, r := range rows {
		if !relevant.Has(r.AbilityName) || !visible.Has(r.HeroID) {
			continue
		}
		if keep != nil && !keep(r) {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b stats.HeroAbilityRow) int {
		return cmp.Or(byWinrate(a.SynergyWinrate, b.SynergyWinrate, desc), compareRow(a, b))
	})
	return out
}

func byWinrate(a, b float64, desc bool) int {
	if desc {
		return cmp.Compare(b, a)
	}
	return cmp.Compare(a, b)
}

// Package toptier picks the bounded, synergy-first recommendation set.
package toptier

import (
	"cmp"
	"slices"
)

// MaxEntries caps the recommendation set.
const MaxEntries = 10

// Kind distinguishes ability from hero candidates.
type Kind string

// Candidate kinds.
const (
	KindAbility Kind = "ability"
	KindHero    Kind = "hero"
)

// Tag marks why an entity was selected.
type Tag string

// Tags are mutually exclusive.
const (
	TagSynergy Tag = "synergy_suggestion"
	TagGeneral Tag = "general_top_tier"
)

// Entity is a scored candidate.
type Entity struct {
	Key   string
	Kind  Kind
	Score float64
	// UltFromCoord is set when the slot layout marks the entity as an ultimate.
	UltFromCoord bool
	// UltFromStats is set when the statistics store flags it as an ultimate.
	UltFromStats bool
}

// Ultimate reports whether either source flags the entity as an ultimate.
func (e Entity) Ultimate() bool { return e.UltFromCoord || e.UltFromStats }

// Selected is a chosen entity and its tag.
type Selected struct {
	Entity
	Tag Tag
}

// Select returns at most MaxEntries entities, synergy partners first. With a
// model selected, only abilities compete in the general partition. When my
// spot already holds an ultimate, ultimates are excluded from both.
func Select(entities []Entity, modelSelected, mySpotHasUltimate bool, partners map[string]struct{}) []Selected {
	var syn, gen []Entity
	for _, e := range entities {
		if mySpotHasUltimate && e.Ultimate() {
			continue
		}
		if _, ok := partners[e.Key]; ok && e.Kind == KindAbility {
			syn = append(syn, e)
			continue
		}
		if modelSelected && e.Kind != KindAbility {
			continue
		}
		gen = append(gen, e)
	}
	byScore := func(a, b Entity) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.Key, b.Key))
	}
	slices.SortStableFunc(syn, byScore)
	slices.SortStableFunc(gen, byScore)

	out := make([]Selected, 0, MaxEntries)
	for _, e := range syn[:min(MaxEntries, len(syn))] {
		out = append(out, Selected{Entity: e, Tag: TagSynergy})
	}
	for _, e := range gen[:min(MaxEntries-len(out), len(gen))] {
		out = append(out, Selected{Entity: e, Tag: TagGeneral})
	}
	return out
}

package repository

import (
	"fmt"
	"io"
	"slices"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/draftlens/internal/domain/stats"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // shared codec

// Snapshot is the on-disk statistics document.
type Snapshot struct {
	Heroes               []stats.Hero           `json:"heroes"`
	Abilities            []stats.Ability        `json:"abilities"`
	AbilityPairs         []stats.AbilityPair    `json:"abilityPairs"`
	HeroAbilitySynergies []stats.HeroAbilityRow `json:"heroAbilitySynergies"`
}

// DecodeSnapshot parses a snapshot document.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return &snap, nil
}

// index is an immutable lookup view over a snapshot. Published atomically;
// readers never lock.
type index struct {
	heroes        []stats.Hero
	heroByID      map[int]stats.Hero
	abilityByName map[string]stats.Ability
	abilityNames  []string
	pairs         []stats.AbilityPair
	// partners holds both directions of every pair keyed by ability name.
	partners map[string][]stats.SynergyPartner
	heroRows []stats.HeroAbilityRow
}

func buildIndex(snap *Snapshot) (*index, error) {
	ix := &index{
		heroes:        slices.Clone(snap.Heroes),
		heroByID:      make(map[int]stats.Hero, len(snap.Heroes)),
		abilityByName: make(map[string]stats.Ability, len(snap.Abilities)),
		abilityNames:  make([]string, 0, len(snap.Abilities)),
		pairs:         slices.Clone(snap.AbilityPairs),
		partners:      make(map[string][]stats.SynergyPartner),
		heroRows:      slices.Clone(snap.HeroAbilitySynergies),
	}
	for _, h := range snap.Heroes {
		if _, dup := ix.heroByID[h.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate hero id %d", ErrInvalidSnapshot, h.ID)
		}
		ix.heroByID[h.ID] = h
	}
	for _, a := range snap.Abilities {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: ability with empty name", ErrInvalidSnapshot)
		}
		if _, dup := ix.abilityByName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate ability %q", ErrInvalidSnapshot, name)
		}
		ix.abilityByName[name] = a
		ix.abilityNames = append(ix.abilityNames, name)
	}
	slices.Sort(ix.abilityNames)
	for _, p := range snap.AbilityPairs {
		ix.partners[p.Ability1] = append(ix.partners[p.Ability1], stats.SynergyPartner{
			Name: p.Ability2, DisplayName: p.Ability2Display, SynergyWinrate: p.SynergyWinrate,
		})
		ix.partners[p.Ability2] = append(ix.partners[p.Ability2], stats.SynergyPartner{
			Name: p.Ability1, DisplayName: p.Ability1Display, SynergyWinrate: p.SynergyWinrate,
		})
	}
	return ix, nil
}

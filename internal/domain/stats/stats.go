// Package stats holds the statistics records the engine reads and the
// read-only repository contracts that serve them.
package stats

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repositories for unknown ids or names.
var ErrNotFound = errors.New("stats record not found")

// Hero is a hero statistics record.
type Hero struct {
	ID               int      `json:"id"`
	Name             string   `json:"name"`
	DisplayName      string   `json:"displayName"`
	Winrate          *float64 `json:"winrate"`
	HighSkillWinrate *float64 `json:"highSkillWinrate"`
	PickRate         *float64 `json:"pickRate"`
	HSPickRate       *float64 `json:"hsPickRate"`
}

// Ability is an ability statistics record. PickRate carries the pick order
// rank (1 best, 50 worst).
type Ability struct {
	Name             string   `json:"name"`
	DisplayName      string   `json:"displayName"`
	HeroID           *int     `json:"heroId"`
	Winrate          *float64 `json:"winrate"`
	HighSkillWinrate *float64 `json:"highSkillWinrate"`
	PickRate         *float64 `json:"pickRate"`
	HSPickRate       *float64 `json:"hsPickRate"`
	IsUltimate       *bool    `json:"isUltimate"`
	AbilityOrder     int      `json:"abilityOrder"`
}

// Ultimate reports the store's ultimate flag, false when unknown.
func (a Ability) Ultimate() bool {
	return a.IsUltimate != nil && *a.IsUltimate
}

// SynergyPartner is the other half of an ability pair seen from one ability.
type SynergyPartner struct {
	Name           string  `json:"name"`
	DisplayName    string  `json:"displayName"`
	SynergyWinrate float64 `json:"synergyWinrate"`
}

// AbilityPair is a global ability combination.
type AbilityPair struct {
	Ability1        string  `json:"ability1"`
	Ability1Display string  `json:"ability1DisplayName"`
	Ability2        string  `json:"ability2"`
	Ability2Display string  `json:"ability2DisplayName"`
	SynergyWinrate  float64 `json:"synergyWinrate"`
}

// HeroAbilityRow is a hero and ability combination.
type HeroAbilityRow struct {
	HeroID             int     `json:"heroId"`
	HeroName           string  `json:"heroName"`
	HeroDisplayName    string  `json:"heroDisplayName"`
	AbilityName        string  `json:"abilityName"`
	AbilityDisplayName string  `json:"abilityDisplayName"`
	SynergyWinrate     float64 `json:"synergyWinrate"`
}

// HeroRepository reads hero records.
type HeroRepository interface {
	All(ctx context.Context) ([]Hero, error)
	ByID(ctx context.Context, id int) (Hero, error)
	// ByAbilityName resolves the hero owning an ability.
	ByAbilityName(ctx context.Context, ability string) (Hero, error)
}

// AbilityRepository reads ability records.
type AbilityRepository interface {
	// Details returns the known records keyed by name; unknown names are absent.
	Details(ctx context.Context, names []string) (map[string]Ability, error)
	ByHeroID(ctx context.Context, heroID int) ([]Ability, error)
	Names(ctx context.Context) ([]string, error)
}

// SynergyRepository reads the global combination tables.
type SynergyRepository interface {
	// PartnerCombinations returns every recorded partner of base among candidates.
	PartnerCombinations(ctx context.Context, base string, candidates []string) ([]SynergyPartner, error)
	// OPCombinations returns pairs whose winrate exceeds 0.5 by at least threshold.
	OPCombinations(ctx context.Context, threshold float64) ([]AbilityPair, error)
	// TrapCombinations returns pairs whose winrate falls below 0.5 by at least threshold.
	TrapCombinations(ctx context.Context, threshold float64) ([]AbilityPair, error)
	// HeroSynergies returns hero/ability rows at or above 0.5.
	HeroSynergies(ctx context.Context) ([]HeroAbilityRow, error)
	// HeroTrapSynergies returns hero/ability rows below 0.5 by at least threshold.
	HeroTrapSynergies(ctx context.Context, threshold float64) ([]HeroAbilityRow, error)
	// HeroAbilitySynergiesUnfiltered returns every hero/ability row.
	HeroAbilitySynergiesUnfiltered(ctx context.Context) ([]HeroAbilityRow, error)
}

// Repositories bundles the three read-only stores.
type Repositories struct {
	Heroes    HeroRepository
	Abilities AbilityRepository
	Synergies SynergyRepository
}

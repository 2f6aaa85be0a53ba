// Package types contains the presentation shapes emitted by the engine.
package types

import (
	"github.com/okian/draftlens/internal/domain/model"
	"github.com/okian/draftlens/internal/domain/stats"
)

// Placeholder display names for unresolved classifications.
const (
	UnknownAbility = "Unknown Ability"
	UnknownHero    = "Unknown Hero"
)

// AbilityEntry is an enriched ability slot.
type AbilityEntry struct {
	InternalName        string   `json:"internalName"`
	DisplayName         string   `json:"displayName"`
	Known               bool     `json:"known"`
	Winrate             *float64 `json:"winrate"`
	HighSkillWinrate    *float64 `json:"highSkillWinrate"`
	PickRate            *float64 `json:"pickRate"`
	HSPickRate          *float64 `json:"hsPickRate"`
	IsUltimateFromDB    bool     `json:"isUltimateFromDb"`
	IsUltimateFromCoord bool     `json:"isUltimateFromCoordSource"`
	HeroOrder           int      `json:"heroOrder"`
	AbilityOrder        int      `json:"abilityOrder"`
	Confidence          float64  `json:"confidence"`
	ConsolidatedScore   float64  `json:"consolidatedScore"`
	// PickedByHeroOrder is the hero slot that drafted this ability, when seen.
	PickedByHeroOrder *int                 `json:"pickedByHeroOrder,omitempty"`
	Coord             model.SlotCoordinate `json:"coord"`

	HighSynergyPartners []stats.SynergyPartner `json:"highWinrateSynergyPartners"`
	LowSynergyPartners  []stats.SynergyPartner `json:"lowWinrateSynergyPartners"`
	StrongHeroSynergies []stats.HeroAbilityRow `json:"strongHeroSynergies"`
	WeakHeroSynergies   []stats.HeroAbilityRow `json:"weakHeroSynergies"`

	IsSynergySuggestion bool `json:"isSynergySuggestionForMySpot"`
	IsGeneralTopTier    bool `json:"isGeneralTopTier"`
}

// HeroModel is an identified hero model slot.
type HeroModel struct {
	HeroOrder                int                  `json:"heroOrder"`
	DBHeroID                 *int                 `json:"dbHeroId"`
	HeroName                 string               `json:"heroName"`
	DisplayName              string               `json:"heroDisplayName"`
	DefiningAbility          string               `json:"definingAbility"`
	IdentificationConfidence float64              `json:"identificationConfidence"`
	Winrate                  *float64             `json:"winrate"`
	HighSkillWinrate         *float64             `json:"highSkillWinrate"`
	PickRate                 *float64             `json:"pickRate"`
	HSPickRate               *float64             `json:"hsPickRate"`
	ConsolidatedScore        float64              `json:"consolidatedScore"`
	Coord                    model.SlotCoordinate `json:"coord"`

	StrongAbilitySynergies []stats.HeroAbilityRow `json:"strongAbilitySynergies"`
	WeakAbilitySynergies   []stats.HeroAbilityRow `json:"weakAbilitySynergies"`

	IsGeneralTopTier bool `json:"isGeneralTopTier"`
}

// Identified reports whether the slot resolved to a known hero.
func (h HeroModel) Identified() bool { return h.DBHeroID != nil }

// HeroSpot is one hero slot the user can claim as their own.
type HeroSpot struct {
	HeroOrder   int                  `json:"heroOrder"`
	DBHeroID    *int                 `json:"dbHeroId"`
	HeroName    string               `json:"heroName"`
	DisplayName string               `json:"heroDisplayName"`
	Coord       model.SlotCoordinate `json:"coord"`
}

// ScanData groups enriched abilities by section.
type ScanData struct {
	Ultimates         []AbilityEntry `json:"ultimates"`
	Standard          []AbilityEntry `json:"standard"`
	SelectedAbilities []AbilityEntry `json:"selectedAbilities"`
}

// Payload is the engine output for one scan.
type Payload struct {
	ScanData          ScanData               `json:"scanData"`
	HeroModels        []HeroModel            `json:"heroModels"`
	OPCombinations    []stats.AbilityPair    `json:"opCombinations"`
	TrapCombinations  []stats.AbilityPair    `json:"trapCombinations"`
	HeroSynergies     []stats.HeroAbilityRow `json:"heroSynergies"`
	HeroTraps         []stats.HeroAbilityRow `json:"heroTraps"`
	HeroesForMySpotUI []HeroSpot             `json:"heroesForMySpotUI"`

	MySelectedSpotDBID       *int `json:"mySelectedSpotDbId"`
	MySelectedSpotHeroOrder  *int `json:"mySelectedSpotHeroOrder"`
	MySelectedModelDBHeroID  *int `json:"mySelectedModelDbHeroId"`
	MySelectedModelHeroOrder *int `json:"mySelectedModelHeroOrder"`

	TargetResolution string  `json:"targetResolution"`
	ScaleFactor      float64 `json:"scaleFactor"`
	InitialSetup     bool    `json:"initialSetup"`
	Language         string  `json:"language"`
}

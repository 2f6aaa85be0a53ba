// Package staleness compares the classifier's label set with the statistics
// store to flag drift between the two.
package staleness

import (
	"slices"
	"strings"
	"time"
)

var unpickablePrefixes = []string{ //nolint:gochecknoglobals // static filter table
	"ad_special_bonus_",
	"special_bonus_",
	"greevil_",
	"frostbitten_",
}

// Innate and shard-only abilities that are never offered in the draft pool.
var unpickableNames = map[string]struct{}{ //nolint:gochecknoglobals // static filter table
	"generic_hidden":                {},
	"ability_capture":               {},
	"ability_lamp_use":              {},
	"ability_pluck_famango":         {},
	"abyssal_underlord_portal_warp": {},
	"twin_gate_portal_warp":         {},
	"plus_high_five":                {},
	"plus_guild_banner":             {},
	"seasonal_ti9_banner":           {},
	"morphling_morph":               {},
	"invoker_empty1":                {},
	"invoker_empty2":                {},
	"rubick_empty1":                 {},
	"rubick_empty2":                 {},
	"dawnbreaker_converge":          {},
	"kez_switch_weapons":            {},
}

// Report lists names present on only one side.
type Report struct {
	// MissingFromModel are in the statistics store but unknown to the classifier.
	MissingFromModel []string  `json:"missingFromModel"`
	// StaleInModel are classifier labels the statistics store no longer has.
	StaleInModel     []string  `json:"staleInModel"`
	DetectedAt       time.Time `json:"detectedAt"`
}

// IsPickableAbility reports whether name is a real draftable ability.
func IsPickableAbility(name string) bool {
	if name == "" {
		return false
	}
	for _, p := range unpickablePrefixes {
		if strings.HasPrefix(name, p) {
			return false
		}
	}
	_, denied := unpickableNames[name]
	return !denied
}

// DetectModelGaps returns nil when the filtered name sets are equal, else the
// sorted symmetric difference stamped with now. unpickable adds to the
// built-in filter and may be nil.
func DetectModelGaps(modelClassNames, dbAbilityNames []string, unpickable map[string]struct{}, now time.Time) *Report {
	model := filter(modelClassNames, unpickable)
	db := filter(dbAbilityNames, unpickable)

	missing := difference(db, model)
	stale := difference(model, db)
	if len(missing) == 0 && len(stale) == 0 {
		return nil
	}
	return &Report{MissingFromModel: missing, StaleInModel: stale, DetectedAt: now}
}

func filter(names []string, unpickable map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		if !IsPickableAbility(n) {
			continue
		}
		if _, skip := unpickable[n]; skip {
			continue
		}
		out[n] = struct{}{}
	}
	return out
}

// difference returns the sorted names in a but not in b.
func difference(a, b map[string]struct{}) []string {
	out := make([]string, 0)
	for n := range a {
		if _, ok := b[n]; !ok {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out
}

package engine

import (
	"context"

	"github.com/okian/draftlens/internal/domain/model"
	"github.com/okian/draftlens/internal/domain/scoring"
	"github.com/okian/draftlens/internal/domain/stats"
	"github.com/okian/draftlens/internal/domain/synergy"
	"github.com/okian/draftlens/internal/domain/toptier"
	"github.com/okian/draftlens/internal/domain/types"
)

const heroKeyPrefix = "hero:"

// scan is the per-build lookup context.
type scan struct {
	st       State
	pool     synergy.Names
	picked   synergy.Names
	relevant []string
	details  map[string]stats.Ability
	heroRows []stats.HeroAbilityRow
	visible  synergy.HeroIDs
}

func (e *Engine) build(ctx context.Context, st State, visibleSlots, selectedSlots []model.ScanResult, view View) (types.Payload, error) {
	sc, err := e.prepare(ctx, st, visibleSlots, selectedSlots)
	if err != nil {
		return types.Payload{}, err
	}

	p := types.Payload{
		ScanData: types.ScanData{
			Ultimates:         make([]types.AbilityEntry, 0),
			Standard:          make([]types.AbilityEntry, 0),
			SelectedAbilities: make([]types.AbilityEntry, 0, len(st.PickedAbilitiesCache)),
		},
		MySelectedSpotDBID:       clonePtr(st.MySelectedSpotDBID),
		MySelectedSpotHeroOrder:  clonePtr(st.MySelectedSpotHeroOrder),
		MySelectedModelDBHeroID:  clonePtr(st.MySelectedModelDBHeroID),
		MySelectedModelHeroOrder: clonePtr(st.MySelectedModelHeroOrder),
		TargetResolution:         view.TargetResolution,
		ScaleFactor:              view.ScaleFactor,
		Language:                 e.settings.Language,
	}

	for _, r := range visibleSlots {
		entry, err := e.enrich(ctx, sc, r)
		if err != nil {
			return types.Payload{}, err
		}
		if r.IsUltimate || r.Coord.IsUltimate {
			p.ScanData.Ultimates = append(p.ScanData.Ultimates, entry)
		} else {
			p.ScanData.Standard = append(p.ScanData.Standard, entry)
		}
	}
	for _, pk := range st.PickedAbilitiesCache {
		entry, err := e.enrich(ctx, sc, pk.Result)
		if err != nil {
			return types.Payload{}, err
		}
		entry.PickedByHeroOrder = clonePtr(pk.ByHeroOrder)
		p.ScanData.SelectedAbilities = append(p.ScanData.SelectedAbilities, entry)
	}

	p.HeroModels = make([]types.HeroModel, 0, len(st.IdentifiedHeroModelsCache))
	for _, h := range st.IdentifiedHeroModelsCache {
		h.DBHeroID = clonePtr(h.DBHeroID)
		h.StrongAbilitySynergies = make([]stats.HeroAbilityRow, 0)
		h.WeakAbilitySynergies = make([]stats.HeroAbilityRow, 0)
		if h.Identified() {
			h.ConsolidatedScore = scoring.ConsolidatedScore(h.Winrate, h.PickRate)
			h.StrongAbilitySynergies, h.WeakAbilitySynergies = synergy.AbilitySynergiesForHero(*h.DBHeroID, sc.heroRows, sc.relevantSet())
		}
		p.HeroModels = append(p.HeroModels, h)
	}

	partners, err := e.partnerSet(ctx, sc, selectedSlots)
	if err != nil {
		return types.Payload{}, err
	}
	applyTopTier(&p, st, sc, selectedSlots, partners)

	if err := e.combinations(ctx, &p, sc); err != nil {
		return types.Payload{}, err
	}
	p.HeroesForMySpotUI = heroSpots(view.HeroCoords, st.IdentifiedHeroModelsCache)
	return p, nil
}

func (e *Engine) prepare(ctx context.Context, st State, visibleSlots, selectedSlots []model.ScanResult) (*scan, error) {
	sc := &scan{
		st:      st,
		pool:    synergy.NewNames(st.PoolNames()...),
		picked:  synergy.NewNames(st.PickedNames()...),
		visible: synergy.HeroIDs{},
	}
	sc.relevant = append(st.PoolNames(), st.PickedNames()...)

	lookup := make([]string, 0, len(visibleSlots)+len(selectedSlots)+len(sc.relevant))
	lookup = append(lookup, sc.relevant...)
	for _, r := range visibleSlots {
		lookup = append(lookup, r.Name)
	}
	for _, r := range selectedSlots {
		lookup = append(lookup, r.Name)
	}
	var err error
	if sc.details, err = e.repos.Abilities.Details(ctx, lookup); err != nil {
		return nil, wrap("ability details", err)
	}
	if sc.heroRows, err = e.repos.Synergies.HeroAbilitySynergiesUnfiltered(ctx); err != nil {
		return nil, wrap("hero ability synergies", err)
	}
	for _, h := range st.IdentifiedHeroModelsCache {
		if h.Identified() {
			sc.visible[*h.DBHeroID] = struct{}{}
		}
	}
	return sc, nil
}

func (sc *scan) relevantSet() synergy.Names {
	return synergy.NewNames(sc.relevant...)
}

func (e *Engine) enrich(ctx context.Context, sc *scan, r model.ScanResult) (types.AbilityEntry, error) {
	entry := types.AbilityEntry{
		InternalName:        r.Name,
		DisplayName:         types.UnknownAbility,
		IsUltimateFromCoord: r.IsUltimate || r.Coord.IsUltimate,
		HeroOrder:           r.HeroOrder,
		AbilityOrder:        r.AbilityOrder,
		Confidence:          r.Confidence,
		Coord:               r.Coord,
		HighSynergyPartners: make([]stats.SynergyPartner, 0),
		LowSynergyPartners:  make([]stats.SynergyPartner, 0),
		StrongHeroSynergies: make([]stats.HeroAbilityRow, 0),
		WeakHeroSynergies:   make([]stats.HeroAbilityRow, 0),
	}
	a, ok := sc.details[r.Name]
	if !r.Recognized() || !ok {
		return entry, nil
	}
	entry.Known = true
	entry.DisplayName = a.DisplayName
	entry.Winrate = a.Winrate
	entry.HighSkillWinrate = a.HighSkillWinrate
	entry.PickRate = a.PickRate
	entry.HSPickRate = a.HSPickRate
	entry.IsUltimateFromDB = a.Ultimate()
	entry.ConsolidatedScore = scoring.ConsolidatedScore(a.Winrate, a.PickRate)

	partners, err := e.repos.Synergies.PartnerCombinations(ctx, r.Name, sc.relevant)
	if err != nil {
		return types.AbilityEntry{}, wrap("partner combinations", err)
	}
	entry.HighSynergyPartners, entry.LowSynergyPartners = synergy.Split(partners)
	entry.StrongHeroSynergies, entry.WeakHeroSynergies = synergy.HeroSynergiesForAbility(r.Name, sc.heroRows, sc.visible)
	return entry, nil
}

// partnerSet collects the in-pool high synergy partners of the abilities my
// spot has drafted and the strong ability synergies of my selected model.
func (e *Engine) partnerSet(ctx context.Context, sc *scan, selectedSlots []model.ScanResult) (map[string]struct{}, error) {
	partners := map[string]struct{}{}
	poolNames := sc.st.PoolNames()
	for _, name := range mySpotAbilities(sc.st, selectedSlots) {
		found, err := e.repos.Synergies.PartnerCombinations(ctx, name, poolNames)
		if err != nil {
			return nil, wrap("partner combinations", err)
		}
		high, _ := synergy.Split(found)
		for _, p := range high {
			partners[p.Name] = struct{}{}
		}
	}
	if id := sc.st.MySelectedModelDBHeroID; id != nil {
		strong, _ := synergy.AbilitySynergiesForHero(*id, sc.heroRows, sc.pool)
		for _, r := range strong {
			partners[r.AbilityName] = struct{}{}
		}
	}
	return partners, nil
}

// mySpotAbilities lists abilities drafted by my spot, in slot order.
func mySpotAbilities(st State, selectedSlots []model.ScanResult) []string {
	if st.MySelectedSpotHeroOrder == nil {
		return nil
	}
	mine := *st.MySelectedSpotHeroOrder
	seen := map[string]struct{}{}
	var out []string
	add := func(name string) {
		if _, dup := seen[name]; name != "" && !dup {
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	for _, s := range selectedSlots {
		if s.HeroOrder == mine {
			add(s.Name)
		}
	}
	for _, p := range st.PickedAbilitiesCache {
		if p.ByHeroOrder != nil && *p.ByHeroOrder == mine {
			add(p.Result.Name)
		}
	}
	return out
}

func mySpotHasUltimate(st State, selected []types.AbilityEntry, selectedSlots []model.ScanResult, details map[string]stats.Ability) bool {
	if st.MySelectedSpotHeroOrder == nil {
		return false
	}
	mine := *st.MySelectedSpotHeroOrder
	for _, s := range selectedSlots {
		if s.HeroOrder != mine || !s.Recognized() {
			continue
		}
		if s.IsUltimate || s.Coord.IsUltimate || details[s.Name].Ultimate() {
			return true
		}
	}
	for _, e := range selected {
		if e.PickedByHeroOrder != nil && *e.PickedByHeroOrder == mine && (e.IsUltimateFromDB || e.IsUltimateFromCoord) {
			return true
		}
	}
	return false
}

func applyTopTier(p *types.Payload, st State, sc *scan, selectedSlots []model.ScanResult, partners map[string]struct{}) {
	modelSelected := st.MySelectedModelDBHeroID != nil || st.MySelectedModelHeroOrder != nil

	var entities []toptier.Entity
	seen := map[string]struct{}{}
	for _, section := range [][]types.AbilityEntry{p.ScanData.Ultimates, p.ScanData.Standard} {
		for _, a := range section {
			if !a.Known || !sc.pool.Has(a.InternalName) {
				continue
			}
			if _, dup := seen[a.InternalName]; dup {
				continue
			}
			seen[a.InternalName] = struct{}{}
			entities = append(entities, toptier.Entity{
				Key:          a.InternalName,
				Kind:         toptier.KindAbility,
				Score:        a.ConsolidatedScore,
				UltFromCoord: a.IsUltimateFromCoord,
				UltFromStats: a.IsUltimateFromDB,
			})
		}
	}
	if !modelSelected {
		for _, h := range p.HeroModels {
			key := heroKeyPrefix + h.HeroName
			if _, dup := seen[key]; !h.Identified() || dup {
				continue
			}
			seen[key] = struct{}{}
			entities = append(entities, toptier.Entity{Key: key, Kind: toptier.KindHero, Score: h.ConsolidatedScore})
		}
	}

	hasUlt := mySpotHasUltimate(st, p.ScanData.SelectedAbilities, selectedSlots, sc.details)
	tags := map[string]toptier.Tag{}
	for _, s := range toptier.Select(entities, modelSelected, hasUlt, partners) {
		tags[s.Key] = s.Tag
	}
	for _, section := range []*[]types.AbilityEntry{&p.ScanData.Ultimates, &p.ScanData.Standard} {
		for i := range *section {
			a := &(*section)[i]
			if !sc.pool.Has(a.InternalName) {
				continue
			}
			switch tags[a.InternalName] {
			case toptier.TagSynergy:
				a.IsSynergySuggestion = true
			case toptier.TagGeneral:
				a.IsGeneralTopTier = true
			}
		}
	}
	for i := range p.HeroModels {
		h := &p.HeroModels[i]
		if h.Identified() && tags[heroKeyPrefix+h.HeroName] == toptier.TagGeneral {
			h.IsGeneralTopTier = true
		}
	}
}

func (e *Engine) combinations(ctx context.Context, p *types.Payload, sc *scan) error {
	op, err := e.repos.Synergies.OPCombinations(ctx, e.settings.OPThreshold)
	if err != nil {
		return wrap("op combinations", err)
	}
	trap, err := e.repos.Synergies.TrapCombinations(ctx, e.settings.TrapThreshold)
	if err != nil {
		return wrap("trap combinations", err)
	}
	heroSyn, err := e.repos.Synergies.HeroSynergies(ctx)
	if err != nil {
		return wrap("hero synergies", err)
	}
	heroTraps, err := e.repos.Synergies.HeroTrapSynergies(ctx, e.settings.TrapThreshold)
	if err != nil {
		return wrap("hero trap synergies", err)
	}
	relevant := sc.relevantSet()
	p.OPCombinations = synergy.FilterRelevantOP(op, sc.pool, sc.picked)
	p.TrapCombinations = synergy.FilterRelevantTrap(trap, sc.pool, sc.picked)
	p.HeroSynergies = synergy.FilterRelevantHeroSynergies(heroSyn, relevant, sc.visible, e.settings.OPThreshold)
	p.HeroTraps = synergy.FilterRelevantHeroTraps(heroTraps, relevant, sc.visible)
	return nil
}

// heroSpots pairs every hero box with the model identified at that order.
func heroSpots(coords []model.SlotCoordinate, models []types.HeroModel) []types.HeroSpot {
	out := make([]types.HeroSpot, 0, len(coords))
	for _, c := range coords {
		spot := types.HeroSpot{HeroOrder: c.HeroOrder, DisplayName: types.UnknownHero, Coord: c}
		for _, m := range models {
			if m.HeroOrder == c.HeroOrder && m.Identified() {
				spot.DBHeroID = clonePtr(m.DBHeroID)
				spot.HeroName = m.HeroName
				spot.DisplayName = m.DisplayName
				break
			}
		}
		out = append(out, spot)
	}
	return out
}

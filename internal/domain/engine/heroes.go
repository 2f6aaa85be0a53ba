package engine

import (
	"context"

	"github.com/okian/draftlens/internal/domain/model"
	"github.com/okian/draftlens/internal/domain/types"
)

// identifyHeroes resolves each model slot, in coordinate order, through the
// ability detected in that hero's defining slot. Every failure degrades to
// an unknown hero.
func (e *Engine) identifyHeroes(ctx context.Context, modelCoords []model.SlotCoordinate, defining []model.ScanResult) []types.HeroModel {
	out := make([]types.HeroModel, 0, len(modelCoords))
	for _, c := range modelCoords {
		out = append(out, e.identifyHero(ctx, c, defining))
	}
	return out
}

func (e *Engine) identifyHero(ctx context.Context, c model.SlotCoordinate, defining []model.ScanResult) types.HeroModel {
	unknown := types.HeroModel{HeroOrder: c.HeroOrder, DisplayName: types.UnknownHero, Coord: c}

	var det *model.ScanResult
	for i := range defining {
		if defining[i].HeroOrder == c.HeroOrder {
			det = &defining[i]
			break
		}
	}
	if det == nil || !det.Recognized() {
		return unknown
	}
	unknown.DefiningAbility = det.Name

	owner, err := e.repos.Heroes.ByAbilityName(ctx, det.Name)
	if err != nil {
		return unknown
	}
	hero, err := e.repos.Heroes.ByID(ctx, owner.ID)
	if err != nil {
		return unknown
	}
	id := hero.ID
	return types.HeroModel{
		HeroOrder:                c.HeroOrder,
		DBHeroID:                 &id,
		HeroName:                 hero.Name,
		DisplayName:              hero.DisplayName,
		DefiningAbility:          det.Name,
		IdentificationConfidence: det.Confidence,
		Winrate:                  hero.Winrate,
		HighSkillWinrate:         hero.HighSkillWinrate,
		PickRate:                 hero.PickRate,
		HSPickRate:               hero.HSPickRate,
		Coord:                    c,
	}
}

package classifier

import (
	"image"

	"github.com/okian/draftlens/internal/domain/layout"
	"github.com/okian/draftlens/internal/domain/model"
	"github.com/okian/draftlens/pkg/metrics"
)

// heroDefiningOrder is the ability slot that identifies a hero.
const heroDefiningOrder = 2

// ScanLayout classifies the ultimate, standard and picked-ability slots of
// l in one batch and splits the results by category. Hero-defining results
// are the standard slots at ability order 2.
func (c *Classifier) ScanLayout(img image.Image, l layout.Layout, threshold float64) (model.RawScan, error) {
	nu, ns := len(l.UltimateSlots), len(l.StandardSlots)
	slots := make([]model.SlotCoordinate, 0, nu+ns+len(l.SelectedAbilities))
	slots = append(slots, l.UltimateSlots...)
	slots = append(slots, l.StandardSlots...)
	slots = append(slots, l.SelectedAbilities...)

	results, err := c.Classify(img, slots, threshold)
	if err != nil {
		return model.RawScan{}, err
	}

	raw := model.RawScan{
		Ultimates:         results[:nu],
		Standard:          results[nu : nu+ns],
		SelectedAbilities: results[nu+ns:],
	}
	for _, r := range raw.Standard {
		if r.AbilityOrder == heroDefiningOrder {
			raw.HeroDefining = append(raw.HeroDefining, r)
		}
	}
	metrics.RecordSlotsClassified("ultimate", nu)
	metrics.RecordSlotsClassified("standard", ns)
	metrics.RecordSlotsClassified("selected", len(raw.SelectedAbilities))
	return raw, nil
}

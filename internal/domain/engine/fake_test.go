package engine

import (
	"context"
	"fmt"

	"github.com/okian/draftlens/internal/domain/stats"
)

// fakeRepo is a minimal in-memory statistics store.
type fakeRepo struct {
	heroes    []stats.Hero
	abilities []stats.Ability
	pairs     []stats.AbilityPair
	heroRows  []stats.HeroAbilityRow
	failOn    string
}

func (f *fakeRepo) repos() stats.Repositories {
	return stats.Repositories{Heroes: f, Abilities: f, Synergies: f}
}

func (f *fakeRepo) fail(op string) error {
	if f.failOn == op {
		return fmt.Errorf("%s unavailable", op)
	}
	return nil
}

func (f *fakeRepo) All(context.Context) ([]stats.Hero, error) { return f.heroes, nil }

func (f *fakeRepo) ByID(_ context.Context, id int) (stats.Hero, error) {
	for _, h := range f.heroes {
		if h.ID == id {
			return h, nil
		}
	}
	return stats.Hero{}, stats.ErrNotFound
}

func (f *fakeRepo) ByAbilityName(ctx context.Context, name string) (stats.Hero, error) {
	for _, a := range f.abilities {
		if a.Name == name && a.HeroID != nil {
			return f.ByID(ctx, *a.HeroID)
		}
	}
	return stats.Hero{}, stats.ErrNotFound
}

func (f *fakeRepo) Details(_ context.Context, names []string) (map[string]stats.Ability, error) {
	if err := f.fail("details"); err != nil {
		return nil, err
	}
	out := map[string]stats.Ability{}
	for _, n := range names {
		for _, a := range f.abilities {
			if a.Name == n {
				out[n] = a
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) ByHeroID(_ context.Context, id int) ([]stats.Ability, error) {
	var out []stats.Ability
	for _, a := range f.abilities {
		if a.HeroID != nil && *a.HeroID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) Names(context.Context) ([]string, error) {
	out := make([]string, 0, len(f.abilities))
	for _, a := range f.abilities {
		out = append(out, a.Name)
	}
	return out, nil
}

func (f *fakeRepo) PartnerCombinations(_ context.Context, base string, candidates []string) ([]stats.SynergyPartner, error) {
	in := map[string]bool{}
	for _, c := range candidates {
		in[c] = c != base
	}
	var out []stats.SynergyPartner
	for _, p := range f.pairs {
		switch {
		case p.Ability1 == base && in[p.Ability2]:
			out = append(out, stats.SynergyPartner{Name: p.Ability2, SynergyWinrate: p.SynergyWinrate})
		case p.Ability2 == base && in[p.Ability1]:
			out = append(out, stats.SynergyPartner{Name: p.Ability1, SynergyWinrate: p.SynergyWinrate})
		}
	}
	return out, nil
}

func (f *fakeRepo) OPCombinations(_ context.Context, threshold float64) ([]stats.AbilityPair, error) {
	if err := f.fail("op"); err != nil {
		return nil, err
	}
	var out []stats.AbilityPair
	for _, p := range f.pairs {
		if p.SynergyWinrate-0.5 >= threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) TrapCombinations(_ context.Context, threshold float64) ([]stats.AbilityPair, error) {
	var out []stats.AbilityPair
	for _, p := range f.pairs {
		if 0.5-p.SynergyWinrate >= threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) HeroSynergies(context.Context) ([]stats.HeroAbilityRow, error) {
	var out []stats.HeroAbilityRow
	for _, r := range f.heroRows {
		if r.SynergyWinrate >= 0.5 {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) HeroTrapSynergies(_ context.Context, threshold float64) ([]stats.HeroAbilityRow, error) {
	var out []stats.HeroAbilityRow
	for _, r := range f.heroRows {
		if 0.5-r.SynergyWinrate >= threshold {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) HeroAbilitySynergiesUnfiltered(context.Context) ([]stats.HeroAbilityRow, error) {
	return f.heroRows, nil
}

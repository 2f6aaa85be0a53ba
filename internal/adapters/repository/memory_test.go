package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/draftlens/internal/domain/stats"
)

const fixture = `{
  "heroes": [
    {"id": 1, "name": "lina", "displayName": "Lina", "winrate": 0.52},
    {"id": 2, "name": "crystal_maiden", "displayName": "Crystal Maiden", "winrate": 0.49}
  ],
  "abilities": [
    {"name": "lina_dragon_slave", "displayName": "Dragon Slave", "heroId": 1, "abilityOrder": 1},
    {"name": "fireball", "displayName": "Fireball", "heroId": 1, "abilityOrder": 2, "winrate": 0.55, "pickRate": 4},
    {"name": "ice_blast", "displayName": "Ice Blast", "heroId": 2, "abilityOrder": 2, "isUltimate": true},
    {"name": "orphan", "displayName": "Orphan"}
  ],
  "abilityPairs": [
    {"ability1": "fireball", "ability2": "ice_blast", "synergyWinrate": 0.66},
    {"ability1": "orphan", "ability2": "fireball", "synergyWinrate": 0.40}
  ],
  "heroAbilitySynergies": [
    {"heroId": 1, "abilityName": "ice_blast", "synergyWinrate": 0.64},
    {"heroId": 2, "abilityName": "fireball", "synergyWinrate": 0.42}
  ]
}`

func loadFixture() *SnapshotStore {
	snap, err := DecodeSnapshot(strings.NewReader(fixture))
	So(err, ShouldBeNil)
	s := NewSnapshotStore()
	So(s.Replace(snap), ShouldBeNil)
	return s
}

func TestSnapshotStoreLookups(t *testing.T) {
	ctx := context.Background()

	Convey("Given a loaded snapshot store", t, func() {
		s := loadFixture()

		Convey("Then heroes resolve by id and by ability", func() {
			h, err := s.ByID(ctx, 2)
			So(err, ShouldBeNil)
			So(h.Name, ShouldEqual, "crystal_maiden")

			h, err = s.ByAbilityName(ctx, "fireball")
			So(err, ShouldBeNil)
			So(h.ID, ShouldEqual, 1)
		})

		Convey("Then unknown lookups return ErrNotFound", func() {
			_, err := s.ByID(ctx, 99)
			So(errors.Is(err, stats.ErrNotFound), ShouldBeTrue)
			_, err = s.ByAbilityName(ctx, "orphan")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("Then Details omits unknown names", func() {
			d, err := s.Details(ctx, []string{"fireball", "nope"})
			So(err, ShouldBeNil)
			So(d, ShouldContainKey, "fireball")
			So(d, ShouldNotContainKey, "nope")
			So(*d["fireball"].PickRate, ShouldEqual, 4)
		})

		Convey("Then ByHeroID is ordered by ability order", func() {
			as, err := s.ByHeroID(ctx, 1)
			So(err, ShouldBeNil)
			So(len(as), ShouldEqual, 2)
			So(as[0].Name, ShouldEqual, "lina_dragon_slave")
			So(as[1].Name, ShouldEqual, "fireball")
		})

		Convey("Then Names is sorted", func() {
			names, _ := s.Names(ctx)
			So(names, ShouldResemble, []string{"fireball", "ice_blast", "lina_dragon_slave", "orphan"})
		})
	})
}

func TestSnapshotStoreSynergies(t *testing.T) {
	ctx := context.Background()

	Convey("Given a loaded snapshot store", t, func() {
		s := loadFixture()

		Convey("Then partners are found in both pair directions", func() {
			p, _ := s.PartnerCombinations(ctx, "fireball", []string{"ice_blast", "orphan", "fireball"})
			So(len(p), ShouldEqual, 2)
			p, _ = s.PartnerCombinations(ctx, "ice_blast", []string{"fireball"})
			So(len(p), ShouldEqual, 1)
			So(p[0].Name, ShouldEqual, "fireball")
		})

		Convey("Then OP and trap tables honour the thresholds", func() {
			op, _ := s.OPCombinations(ctx, 0.13)
			So(len(op), ShouldEqual, 1)
			trap, _ := s.TrapCombinations(ctx, 0.05)
			So(len(trap), ShouldEqual, 1)
			So(trap[0].Ability1, ShouldEqual, "orphan")
			trap, _ = s.TrapCombinations(ctx, 0.2)
			So(trap, ShouldBeEmpty)
		})

		Convey("Then hero rows are split around 0.5", func() {
			syn, _ := s.HeroSynergies(ctx)
			So(len(syn), ShouldEqual, 1)
			traps, _ := s.HeroTrapSynergies(ctx, 0.05)
			So(len(traps), ShouldEqual, 1)
			all, _ := s.HeroAbilitySynergiesUnfiltered(ctx)
			So(len(all), ShouldEqual, 2)
		})
	})
}

func TestSnapshotStoreReload(t *testing.T) {
	ctx := context.Background()

	Convey("Given a snapshot file", t, func() {
		path := filepath.Join(t.TempDir(), "stats.json")
		So(os.WriteFile(path, []byte(fixture), 0o600), ShouldBeNil)
		s := NewSnapshotStore(WithSnapshotPath(path))
		defer func() { _ = s.Close() }()

		Convey("When reloading", func() {
			So(s.Reload(ctx), ShouldBeNil)
			heroes, _ := s.All(ctx)
			So(len(heroes), ShouldEqual, 2)

			Convey("And the file becomes invalid, the previous snapshot is kept", func() {
				So(os.WriteFile(path, []byte("{"), 0o600), ShouldBeNil)
				err := s.Reload(ctx)
				So(errors.Is(err, ErrInvalidSnapshot), ShouldBeTrue)
				heroes, _ := s.All(ctx)
				So(len(heroes), ShouldEqual, 2)
			})
		})

		Convey("When no path is configured", func() {
			So(errors.Is(NewSnapshotStore().Reload(ctx), ErrNoSnapshotPath), ShouldBeTrue)
		})
	})

	Convey("Given a snapshot with duplicate abilities", t, func() {
		snap := &Snapshot{Abilities: []stats.Ability{{Name: "a"}, {Name: "a"}}}

		Convey("Then Replace rejects it", func() {
			So(errors.Is(NewSnapshotStore().Replace(snap), ErrInvalidSnapshot), ShouldBeTrue)
		})
	})
}

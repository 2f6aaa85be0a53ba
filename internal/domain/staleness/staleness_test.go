package staleness

import (
	"sort"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestIsPickableAbility(t *testing.T) {
	Convey("Given ability identifiers", t, func() {
		Convey("Then talent and event prefixes are rejected", func() {
			So(IsPickableAbility("special_bonus_attack_damage_20"), ShouldBeFalse)
			So(IsPickableAbility("ad_special_bonus_gold_lvl10"), ShouldBeFalse)
			So(IsPickableAbility("greevil_miniboss_black_nightmare"), ShouldBeFalse)
			So(IsPickableAbility("frostbitten_golem_time_warp_aura"), ShouldBeFalse)
		})

		Convey("Then deny-listed and empty names are rejected", func() {
			So(IsPickableAbility("morphling_morph"), ShouldBeFalse)
			So(IsPickableAbility(""), ShouldBeFalse)
		})

		Convey("Then real abilities pass", func() {
			So(IsPickableAbility("lina_laguna_blade"), ShouldBeTrue)
		})
	})
}

func TestDetectModelGaps(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given model and store name sets", t, func() {
		Convey("When they match after filtering", func() {
			model := []string{"fireball", "ice_blast", "special_bonus_hp_200"}
			db := []string{"ice_blast", "fireball", "greevil_cold_snap"}

			Convey("Then no report is produced", func() {
				So(DetectModelGaps(model, db, nil, now), ShouldBeNil)
			})
		})

		Convey("When they diverge", func() {
			model := []string{"zeta", "fireball", "alpha_stale", "beta_stale"}
			db := []string{"fireball", "omega_new", "delta_new"}

			r := DetectModelGaps(model, db, nil, now)

			Convey("Then both lists are sorted alphabetically", func() {
				So(r, ShouldNotBeNil)
				So(r.MissingFromModel, ShouldResemble, []string{"delta_new", "omega_new"})
				So(r.StaleInModel, ShouldResemble, []string{"alpha_stale", "beta_stale", "zeta"})
				So(sort.StringsAreSorted(r.StaleInModel), ShouldBeTrue)
				So(r.DetectedAt, ShouldEqual, now)
			})
		})

		Convey("When the extra deny-list hides the only difference", func() {
			model := []string{"fireball", "innate_thing"}
			db := []string{"fireball"}
			extra := map[string]struct{}{"innate_thing": {}}

			Convey("Then no report is produced", func() {
				So(DetectModelGaps(model, db, extra, now), ShouldBeNil)
			})
		})

		Convey("When only one side is missing a name", func() {
			r := DetectModelGaps([]string{"a"}, []string{"a", "b"}, nil, now)

			Convey("Then the other list is empty but non-nil", func() {
				So(r.MissingFromModel, ShouldResemble, []string{"b"})
				So(r.StaleInModel, ShouldNotBeNil)
				So(r.StaleInModel, ShouldBeEmpty)
			})
		})
	})
}

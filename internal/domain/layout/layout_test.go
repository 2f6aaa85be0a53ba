package layout

import (
	"context"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/draftlens/internal/domain/model"
)

func baseLayout() Layout {
	return Layout{
		UltimateSlots: []model.SlotCoordinate{{X: 100, Y: 200, Width: 60, Height: 60, HeroOrder: 0}},
		StandardSlots: []model.SlotCoordinate{
			{X: 200, Y: 200, Width: 60, Height: 60, HeroOrder: 0, AbilityOrder: 1},
			{X: 270, Y: 200, Width: 60, Height: 60, HeroOrder: 0, AbilityOrder: 2},
		},
		Models:            []model.SlotCoordinate{{X: 10, Y: 900, Width: 100, Height: 150, HeroOrder: 0}},
		Heroes:            []model.SlotCoordinate{{X: 20, Y: 20, HeroOrder: 0}},
		SelectedAbilities: []model.SlotCoordinate{{X: 40, Y: 60, HeroOrder: 0, AbilityOrder: 4}},
		HeroesParams:      &Params{Width: 80, Height: 40},
		SelectedAbilitiesParams: &Params{
			Width: 30, Height: 30,
		},
	}
}

type memStore struct{ m map[string]Layout }

func (s *memStore) Get(_ context.Context, r string) (Layout, bool, error) {
	l, ok := s.m[r]
	return l, ok, nil
}
func (s *memStore) Save(_ context.Context, r string, l Layout) error { s.m[r] = l; return nil }
func (s *memStore) Delete(_ context.Context, r string) error         { delete(s.m, r); return nil }
func (s *memStore) List(context.Context) ([]string, error)           { return nil, nil }

func TestNormalize(t *testing.T) {
	Convey("Given a layout with shared params", t, func() {
		l := baseLayout()
		n := l.Normalize()

		Convey("Then omitted sizes are filled and ultimates flagged", func() {
			So(n.Heroes[0].Width, ShouldEqual, 80)
			So(n.SelectedAbilities[0].Height, ShouldEqual, 30)
			So(n.UltimateSlots[0].IsUltimate, ShouldBeTrue)
		})

		Convey("Then the source layout is untouched", func() {
			So(l.Heroes[0].Width, ShouldEqual, 0)
			So(l.UltimateSlots[0].IsUltimate, ShouldBeFalse)
		})
	})
}

func TestScale(t *testing.T) {
	Convey("Given the base layout", t, func() {
		base := baseLayout()

		Convey("When scaling to 2560x1440", func() {
			out := Scale(base, model.Resolution{Width: 2560, Height: 1440})

			Convey("Then coordinates scale by 4/3 with no offset", func() {
				So(ScaleFactor(model.Resolution{Width: 2560, Height: 1440}), ShouldAlmostEqual, 4.0/3.0, 1e-9)
				So(out.UltimateSlots[0].X, ShouldEqual, 133)
				So(out.UltimateSlots[0].Y, ShouldEqual, 267)
				So(out.UltimateSlots[0].Width, ShouldEqual, 80)
				So(out.Heroes[0].Width, ShouldEqual, 107)
			})
		})

		Convey("When scaling to an ultrawide 3440x1440", func() {
			out := Scale(base, model.Resolution{Width: 3440, Height: 1440})

			Convey("Then the layout is centred horizontally", func() {
				// offset = (3440 - 1920*4/3) / 2 = 440
				So(out.UltimateSlots[0].X, ShouldEqual, 573)
				So(out.UltimateSlots[0].Y, ShouldEqual, 267)
			})
		})

		Convey("When scaling to 1920x1080", func() {
			So(Scale(base, BaseResolution).StandardSlots, ShouldResemble, base.StandardSlots)
		})
	})
}

func TestCalibrate(t *testing.T) {
	Convey("Given four anchors produced by a known transform", t, func() {
		// x' = 1.5x + 20, y' = 1.25y - 10
		mk := func(x, y float64) Anchor {
			return Anchor{Base: Point{X: x, Y: y}, Screen: Point{X: 1.5*x + 20, Y: 1.25*y - 10}}
		}
		anchors := []Anchor{mk(100, 100), mk(1800, 100), mk(100, 1000), mk(1800, 1000)}

		Convey("Then the fit recovers the transform", func() {
			a, err := FitAffine(anchors)
			So(err, ShouldBeNil)
			So(a.SX, ShouldAlmostEqual, 1.5, 1e-9)
			So(a.TX, ShouldAlmostEqual, 20, 1e-6)
			So(a.SY, ShouldAlmostEqual, 1.25, 1e-9)
			So(a.TY, ShouldAlmostEqual, -10, 1e-6)
		})

		Convey("Then a small base layout fits on a large screen without violations", func() {
			out, v, err := Calibrate(baseLayout(), anchors, model.Resolution{Width: 3000, Height: 1400})
			So(err, ShouldBeNil)
			So(v, ShouldBeEmpty)
			So(out.UltimateSlots[0].X, ShouldEqual, 170)
			So(out.UltimateSlots[0].Width, ShouldEqual, 90)
		})

		Convey("Then a small screen reports bounds violations instead of failing", func() {
			_, v, err := Calibrate(baseLayout(), anchors, model.Resolution{Width: 1280, Height: 720})
			So(err, ShouldBeNil)
			So(len(v), ShouldBeGreaterThan, 0)
			So(v[0].Kind, ShouldEqual, ViolationOverflow)
		})
	})

	Convey("Given bad anchors", t, func() {
		Convey("Then the wrong count is rejected", func() {
			_, err := FitAffine([]Anchor{{}, {}})
			So(errors.Is(err, ErrInvalidAnchors), ShouldBeTrue)
		})

		Convey("Then collinear base points are rejected", func() {
			a := Anchor{Base: Point{X: 5, Y: 5}, Screen: Point{X: 5, Y: 5}}
			_, err := FitAffine([]Anchor{a, a, a, a})
			So(errors.Is(err, ErrInvalidAnchors), ShouldBeTrue)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given a partial layout", t, func() {
		l := baseLayout().Normalize()
		l.StandardSlots = append(l.StandardSlots, model.SlotCoordinate{X: -1, Y: 0, Width: 10, Height: 10})
		l.Models = append(l.Models, model.SlotCoordinate{X: 1900, Y: 0, Width: 40, Height: 10})

		v := Validate(l, BaseResolution)

		Convey("Then counts, negatives and overflow are reported per entry", func() {
			kinds := map[ViolationKind]int{}
			for _, x := range v {
				kinds[x.Kind]++
			}
			So(kinds[ViolationCount], ShouldEqual, 5)
			So(kinds[ViolationNegative], ShouldEqual, 1)
			So(kinds[ViolationOverflow], ShouldEqual, 1)
		})
	})
}

func TestMirror(t *testing.T) {
	Convey("Given a left-hand layout", t, func() {
		left := Layout{
			UltimateSlots: []model.SlotCoordinate{{X: 100, Y: 10, Width: 50, Height: 50, HeroOrder: 0}, {X: 100, Y: 70, Width: 50, Height: 50, HeroOrder: 10}},
			StandardSlots: []model.SlotCoordinate{
				{X: 160, Y: 10, Width: 50, Height: 50, HeroOrder: 1, AbilityOrder: 1},
				{X: 220, Y: 10, Width: 50, Height: 50, HeroOrder: 1, AbilityOrder: 2},
			},
			Models: []model.SlotCoordinate{{X: 0, Y: 0, Width: 100, Height: 100, HeroOrder: 10}},
			Heroes: []model.SlotCoordinate{{X: 10, Y: 0, Width: 100, Height: 40, HeroOrder: 3}},
		}

		right := Mirror(left, 1920)

		Convey("Then x is flipped around the screen width", func() {
			So(right.UltimateSlots[0].X, ShouldEqual, 1920-100-50)
			So(right.Models[0].X, ShouldEqual, 1820)
		})

		Convey("Then hero orders follow the mirror tables", func() {
			So(right.UltimateSlots[0].HeroOrder, ShouldEqual, 7)
			So(right.UltimateSlots[1].HeroOrder, ShouldEqual, 8)
			So(right.StandardSlots[0].HeroOrder, ShouldEqual, 6)
			So(right.StandardSlots[1].AbilityOrder, ShouldEqual, 2)
			So(right.Models[0].HeroOrder, ShouldEqual, 11)
			So(right.Heroes[0].HeroOrder, ShouldEqual, 8)
		})

		Convey("Then Merge appends the mirrored side", func() {
			So(len(Merge(left, right).UltimateSlots), ShouldEqual, 4)
		})
	})
}

func TestLoadPresets(t *testing.T) {
	Convey("Given a preset document", t, func() {
		doc := `{"resolutions": {"1920x1080": {
			"ultimate_slots_coords": [{"x": 1, "y": 1, "width": 10, "height": 10, "hero_order": 0}],
			"heroes_coords": [{"x": 5, "y": 5, "hero_order": 0}],
			"heroes_params": {"width": 20, "height": 10}
		}}}`

		presets, warnings, err := LoadPresets(strings.NewReader(doc))

		Convey("Then partial layouts load with count warnings", func() {
			So(err, ShouldBeNil)
			So(presets, ShouldContainKey, "1920x1080")
			So(presets["1920x1080"].Heroes[0].Width, ShouldEqual, 20)
			So(len(warnings), ShouldEqual, 5)
		})
	})

	Convey("Given a preset with an off-screen rectangle", t, func() {
		doc := `{"resolutions": {"1280x720": {"models_coords": [{"x": 1270, "y": 0, "width": 50, "height": 50}]}}}`

		Convey("Then loading fails", func() {
			_, _, err := LoadPresets(strings.NewReader(doc))
			So(errors.Is(err, ErrInvalidLayout), ShouldBeTrue)
		})
	})
}

func TestMapper(t *testing.T) {
	ctx := context.Background()

	Convey("Given presets and a custom store", t, func() {
		presets := map[string]Layout{
			"1920x1080": baseLayout().Normalize(),
			"1280x1024": Scale(baseLayout(), model.Resolution{Width: 1280, Height: 1024}),
		}
		store := &memStore{m: map[string]Layout{}}
		m := NewMapper(presets, store)

		Convey("Then resolution follows custom, preset, scaled order", func() {
			_, src, err := m.Get(ctx, model.Resolution{Width: 1280, Height: 1024})
			So(err, ShouldBeNil)
			So(src, ShouldEqual, SourcePreset)

			_, src, _ = m.Get(ctx, model.Resolution{Width: 2560, Height: 1440})
			So(src, ShouldEqual, SourceScaled)

			_, err = m.SaveCustom(ctx, model.Resolution{Width: 1280, Height: 1024}, baseLayout())
			So(err, ShouldNotBeNil) // base rectangles fall off a 1280 wide screen

			small := Layout{UltimateSlots: []model.SlotCoordinate{{X: 10, Y: 10, Width: 20, Height: 20}}}
			_, err = m.SaveCustom(ctx, model.Resolution{Width: 1280, Height: 1024}, small)
			So(err, ShouldBeNil)
			So(m.Source(ctx, model.Resolution{Width: 1280, Height: 1024}), ShouldEqual, SourceCustom)

			So(m.DeleteCustom(ctx, model.Resolution{Width: 1280, Height: 1024}), ShouldBeNil)
			So(m.Source(ctx, model.Resolution{Width: 1280, Height: 1024}), ShouldEqual, SourcePreset)
		})

		Convey("Then calibration saves a fitting layout", func() {
			mk := func(x, y float64) Anchor { return Anchor{Base: Point{X: x, Y: y}, Screen: Point{X: x + 5, Y: y + 5}} }
			res := model.Resolution{Width: 1920, Height: 1200}
			_, v, err := m.CalibrateCustom(ctx, res, []Anchor{mk(0, 0), mk(1000, 0), mk(0, 800), mk(1000, 800)})
			So(err, ShouldBeNil)
			So(v, ShouldBeEmpty)
			So(m.Source(ctx, res), ShouldEqual, SourceCustom)
		})
	})

	Convey("Given no base layout", t, func() {
		m := NewMapper(map[string]Layout{}, nil)

		Convey("Then unknown resolutions are not found", func() {
			_, src, err := m.Get(ctx, model.Resolution{Width: 800, Height: 600})
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			So(src, ShouldEqual, SourceNone)
		})
	})
}

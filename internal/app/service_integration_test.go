package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/draftlens/internal/adapters/layoutstore"
	service "github.com/okian/draftlens/internal/app"
	"github.com/okian/draftlens/internal/domain/classifier"
	"github.com/okian/draftlens/internal/domain/layout"
	"github.com/okian/draftlens/internal/domain/model"
	"github.com/okian/draftlens/pkg/logger"
)

func newTestService(t *testing.T, sess *fakeSession, opts ...service.Option) *service.Service {
	t.Helper()
	store := testStore(t)
	mapper := layout.NewMapper(
		map[string]layout.Layout{"200x100": testLayout().Normalize()},
		layoutstore.NewMemory(),
		layout.WithLogger(logger.Discard()))
	base := []service.Option{
		service.WithLogger(logger.Discard()),
		service.WithSessionFactory(factoryFor(sess)),
		service.WithClassifierInit(classifier.InitOptions{ClassNamesPath: writeClassNames(t)}),
		service.WithConfidenceThreshold(0.9),
	}
	return service.New(store.Repositories(), mapper, append(base, opts...)...)
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service over a fixture store and layout", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		svc := newTestService(t, &fakeSession{classes: 5})
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		So(svc.Activate(ctx), ShouldBeNil)

		Convey("An initial scan identifies both heroes in coordinate order", func() {
			p, err := svc.Scan(ctx, true, initialShot(t))
			So(err, ShouldBeNil)
			So(p.InitialSetup, ShouldBeTrue)
			So(p.TargetResolution, ShouldEqual, "200x100")
			So(p.HeroModels, ShouldHaveLength, 2)
			So(*p.HeroModels[0].DBHeroID, ShouldEqual, 1)
			So(*p.HeroModels[1].DBHeroID, ShouldEqual, 2)

			st := svc.State()
			So(st.InitialPoolAbilitiesCache.Ultimates, ShouldHaveLength, 1)
			So(st.InitialPoolAbilitiesCache.Standard, ShouldHaveLength, 3)
			So(p.OPCombinations, ShouldNotBeEmpty)
			So(svc.GetStats()["classifierReady"], ShouldEqual, true)

			Convey("A rescan moves a vanished ability into the picks", func() {
				p, err := svc.Scan(ctx, false, afterFireballPick(t))
				So(err, ShouldBeNil)
				So(p.InitialSetup, ShouldBeFalse)
				So(svc.State().PoolNames(), ShouldNotContain, "fireball")
				So(p.ScanData.SelectedAbilities, ShouldHaveLength, 1)
				So(p.ScanData.SelectedAbilities[0].InternalName, ShouldEqual, "fireball")
				So(*p.ScanData.SelectedAbilities[0].PickedByHeroOrder, ShouldEqual, 0)
			})

			Convey("Selecting a model twice toggles it off", func() {
				id := 1
				p, err := svc.SelectMyModel(ctx, 0, &id)
				So(err, ShouldBeNil)
				So(*p.MySelectedModelHeroOrder, ShouldEqual, 0)
				So(p.InitialSetup, ShouldBeTrue)

				p, err = svc.SelectMyModel(ctx, 0, &id)
				So(err, ShouldBeNil)
				So(p.MySelectedModelHeroOrder, ShouldBeNil)
			})

			Convey("Selecting my spot keeps the pool", func() {
				id := 2
				p, err := svc.SelectMySpot(ctx, 1, &id)
				So(err, ShouldBeNil)
				So(*p.MySelectedSpotDBID, ShouldEqual, 2)
				So(svc.State().PoolNames(), ShouldHaveLength, 4)
			})

			Convey("Activate starts a new session", func() {
				So(svc.Activate(ctx), ShouldBeNil)
				_, ok := svc.Payload()
				So(ok, ShouldBeFalse)
				So(svc.State().Started(), ShouldBeFalse)
			})
		})

		Convey("A rescan without a session runs as an initial scan", func() {
			p, err := svc.Scan(ctx, false, initialShot(t))
			So(err, ShouldBeNil)
			So(p.InitialSetup, ShouldBeTrue)
		})

		Convey("Selections need a session", func() {
			_, err := svc.SelectMySpot(ctx, 0, nil)
			So(errors.Is(err, service.ErrNoSession), ShouldBeTrue)
		})

		Convey("A screenshot with no layout is an unsupported resolution", func() {
			_, err := svc.Scan(ctx, true, screenshot(t, 64, 64, nil))
			So(errors.Is(err, service.ErrUnsupportedResolution), ShouldBeTrue)
			_, ok := svc.Payload()
			So(ok, ShouldBeFalse)
		})

		Convey("Garbage bytes are an invalid screenshot", func() {
			_, err := svc.Scan(ctx, true, []byte("not an image"))
			So(errors.Is(err, service.ErrInvalidScreenshot), ShouldBeTrue)
		})

		Convey("Without a capture source a scan needs a screenshot", func() {
			_, err := svc.Scan(ctx, true, nil)
			So(errors.Is(err, service.ErrInvalidScreenshot), ShouldBeTrue)
		})

		Convey("Model gaps report labels the store does not know", func() {
			report, err := svc.ModelGaps(ctx)
			So(err, ShouldBeNil)
			So(report, ShouldNotBeNil)
			So(report.StaleInModel, ShouldResemble, []string{"blank"})
			So(report.MissingFromModel, ShouldBeEmpty)
		})

		Convey("Custom layouts override presets", func() {
			res := model.Resolution{Width: screenWidth, Height: screenHeight}
			custom := testLayout()
			custom.UltimateSlots[0].X = 5
			violations, err := svc.SaveCustomLayout(ctx, res, custom)
			So(err, ShouldBeNil)
			So(violations, ShouldBeEmpty)

			l, src, _, err := svc.Layout(ctx, res)
			So(err, ShouldBeNil)
			So(src, ShouldEqual, layout.SourceCustom)
			keys, err := svc.CustomLayouts(ctx)
			So(err, ShouldBeNil)
			So(keys, ShouldResemble, []string{res.String()})
			So(l.UltimateSlots[0].X, ShouldEqual, 5)

			So(svc.DeleteCustomLayout(ctx, res), ShouldBeNil)
			_, src, _, _ = svc.Layout(ctx, res)
			So(src, ShouldEqual, layout.SourcePreset)
			keys, _ = svc.CustomLayouts(ctx)
			So(keys, ShouldBeEmpty)
		})
	})
}

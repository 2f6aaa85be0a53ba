package classifier

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/draftlens/internal/domain/layout"
	"github.com/okian/draftlens/internal/domain/model"
	"github.com/okian/draftlens/pkg/logger"
)

// This package's tests never initialise the global logger: constructors
// given a logger must not reach for it.
func TestNewWithInjectedLogger(t *testing.T) {
	Convey("Given an injected logger and no global logger", t, func() {
		Convey("New does not panic", func() {
			So(func() { _ = New(nil, WithLogger(logger.Discard())) }, ShouldNotPanic)
		})
	})
}

// fakeSession scores class i for image b by the red channel of its first pixel.
type fakeSession struct {
	classes  int
	provider string
	calls    int
	batches  []int
	closed   bool
}

func (f *fakeSession) Run(input []float32, batch int) ([]float32, error) {
	f.calls++
	f.batches = append(f.batches, batch)
	out := make([]float32, batch*f.classes)
	for b := 0; b < batch; b++ {
		red := int(input[b*ImageLen])
		idx := red % f.classes
		p := float32(0.95)
		if red >= 200 {
			p = 0.4
		}
		out[b*f.classes+idx] = p
	}
	return out, nil
}

func (f *fakeSession) Provider() string { return f.provider }
func (f *fakeSession) Close() error     { f.closed = true; return nil }

func writeNames(t *testing.T, names string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "class_names.json")
	if err := os.WriteFile(p, []byte(names), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func solid(w, h int, fills map[image.Rectangle]color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for r, c := range fills {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.SetRGBA(x, y, c)
			}
		}
	}
	return img
}

func TestPreprocess(t *testing.T) {
	Convey("Given a screenshot and three slots", t, func() {
		img := solid(200, 100, map[image.Rectangle]color.RGBA{
			image.Rect(0, 0, 50, 50): {R: 7, G: 8, B: 9, A: 255},
		})
		slots := []model.SlotCoordinate{
			{X: 0, Y: 0, Width: 50, Height: 50},
			{X: 10, Y: 10, Width: 0, Height: 20},
			{X: 180, Y: 80, Width: 50, Height: 50},
		}

		Convey("Empty and out-of-bounds slots are dropped", func() {
			tensor, valid := Preprocess(img, slots)
			So(valid, ShouldResemble, []int{0})
			So(len(tensor), ShouldEqual, ImageLen)
		})

		Convey("Pixels are raw RGB in 0..255", func() {
			tensor, _ := Preprocess(img, slots)
			So(tensor[0], ShouldEqual, 7)
			So(tensor[1], ShouldEqual, 8)
			So(tensor[2], ShouldEqual, 9)
		})
	})
}

func TestScreenshotDecode(t *testing.T) {
	Convey("PNG screenshots decode and report their resolution", t, func() {
		var buf bytes.Buffer
		So(png.Encode(&buf, solid(64, 32, nil)), ShouldBeNil)

		res, err := ScreenshotResolution(buf.Bytes())
		So(err, ShouldBeNil)
		So(res, ShouldResemble, model.Resolution{Width: 64, Height: 32})

		img, err := DecodeScreenshot(buf.Bytes())
		So(err, ShouldBeNil)
		So(img.Bounds().Dx(), ShouldEqual, 64)

		_, err = DecodeScreenshot([]byte("nope"))
		So(errors.Is(err, ErrDecode), ShouldBeTrue)
	})
}

func TestClassifier(t *testing.T) {
	ctx := context.Background()

	Convey("Given a classifier over a fake session", t, func() {
		sess := &fakeSession{classes: 3, provider: "cpu"}
		var accelerated []bool
		factory := func(_ string, accelerate bool) (Session, error) {
			accelerated = append(accelerated, accelerate)
			if accelerate {
				return nil, errors.New("no cuda")
			}
			return sess, nil
		}
		c := New(factory, WithLogger(logger.Discard()))
		names := writeNames(t, `["fireball","ice_blast","blink"]`)

		Convey("Classify before Init fails", func() {
			_, err := c.Classify(solid(10, 10, nil), nil, 0.5)
			So(errors.Is(err, ErrNotInitialized), ShouldBeTrue)
		})

		Convey("Init falls back to cpu and warms up once", func() {
			provider, err := c.Init(ctx, InitOptions{ClassNamesPath: names, UseAcceleration: true})
			So(err, ShouldBeNil)
			So(provider, ShouldEqual, "cpu")
			So(accelerated, ShouldResemble, []bool{true, false})
			So(sess.calls, ShouldEqual, 1)
			So(c.Ready(), ShouldBeTrue)
		})

		Convey("A class count mismatch is fatal", func() {
			_, err := c.Init(ctx, InitOptions{ClassNamesPath: writeNames(t, `["a","b"]`)})
			So(errors.Is(err, ErrClassCountMismatch), ShouldBeTrue)
			So(c.Ready(), ShouldBeFalse)
			So(sess.closed, ShouldBeTrue)
		})

		Convey("When initialized", func() {
			_, err := c.Init(ctx, InitOptions{ClassNamesPath: names})
			So(err, ShouldBeNil)
			img := solid(300, 100, map[image.Rectangle]color.RGBA{
				image.Rect(0, 0, 100, 100):   {R: 1, A: 255},
				image.Rect(100, 0, 200, 100): {R: 200, A: 255},
				image.Rect(200, 0, 300, 100): {R: 2, A: 255},
			})
			slots := []model.SlotCoordinate{
				{X: 10, Y: 10, Width: 50, Height: 50, HeroOrder: 0},
				{X: 0, Y: 0, Width: 0, Height: 0, HeroOrder: 1},
				{X: 110, Y: 10, Width: 50, Height: 50, HeroOrder: 2},
				{X: 210, Y: 10, Width: 50, Height: 50, HeroOrder: 3},
			}

			results, err := c.Classify(img, slots, 0.9)
			So(err, ShouldBeNil)

			Convey("One forward pass covers every valid slot", func() {
				So(sess.batches, ShouldResemble, []int{1, 3})
			})

			Convey("Results keep slot order with gaps for dropped slots", func() {
				So(results, ShouldHaveLength, 4)
				So(results[0].Name, ShouldEqual, "ice_blast")
				So(results[1].ClassIndex, ShouldEqual, -1)
				So(results[1].HeroOrder, ShouldEqual, 1)
				So(results[3].Name, ShouldEqual, "blink")
			})

			Convey("Below threshold keeps confidence and index but no name", func() {
				So(results[2].Name, ShouldEqual, "")
				So(results[2].ClassIndex, ShouldEqual, 2)
				So(results[2].Confidence, ShouldAlmostEqual, 0.4, 1e-6)
			})

			Convey("Dispose releases the session and is repeatable", func() {
				So(c.Dispose(), ShouldBeNil)
				So(sess.closed, ShouldBeTrue)
				So(c.Dispose(), ShouldBeNil)
				So(c.Ready(), ShouldBeFalse)
			})
		})

		Convey("ScanLayout splits results by category", func() {
			_, err := c.Init(ctx, InitOptions{ClassNamesPath: names})
			So(err, ShouldBeNil)
			img := solid(300, 100, map[image.Rectangle]color.RGBA{
				image.Rect(0, 0, 300, 100): {R: 0, A: 255},
			})
			l := layout.Layout{
				UltimateSlots: []model.SlotCoordinate{{X: 0, Y: 0, Width: 20, Height: 20, IsUltimate: true}},
				StandardSlots: []model.SlotCoordinate{
					{X: 30, Y: 0, Width: 20, Height: 20, AbilityOrder: 1},
					{X: 60, Y: 0, Width: 20, Height: 20, AbilityOrder: 2},
				},
				SelectedAbilities: []model.SlotCoordinate{{X: 90, Y: 0, Width: 20, Height: 20}},
			}
			raw, err := c.ScanLayout(img, l, 0.5)
			So(err, ShouldBeNil)
			So(raw.Ultimates, ShouldHaveLength, 1)
			So(raw.Standard, ShouldHaveLength, 2)
			So(raw.SelectedAbilities, ShouldHaveLength, 1)
			So(raw.HeroDefining, ShouldHaveLength, 1)
			So(raw.HeroDefining[0].AbilityOrder, ShouldEqual, 2)
			So(raw.Ultimates[0].Name, ShouldEqual, "fireball")
		})
	})
}

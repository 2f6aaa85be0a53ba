package layout

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/okian/draftlens/internal/domain/model"
)

// ScaleFactor returns targetHeight / 1080.
func ScaleFactor(res model.Resolution) float64 {
	return float64(res.Height) / float64(BaseResolution.Height)
}

// Scale maps a base layout onto res. Coordinates scale by the height ratio
// and are centred horizontally, keeping aspect-correct placement on
// non-16:9 screens.
func Scale(base Layout, res model.Resolution) Layout {
	s := ScaleFactor(res)
	offset := (float64(res.Width) - float64(BaseResolution.Width)*s) / 2
	return base.transform(func(c model.SlotCoordinate) model.SlotCoordinate {
		c.X = round(float64(c.X)*s + offset)
		c.Y = round(float64(c.Y) * s)
		c.Width = round(float64(c.Width) * s)
		c.Height = round(float64(c.Height) * s)
		return c
	})
}

// Point is a pixel position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Anchor pairs a base layout reference point with the point clicked on screen.
type Anchor struct {
	Base   Point `json:"base"`
	Screen Point `json:"screen"`
}

// AnchorCount is the number of anchors calibration requires.
const AnchorCount = 4

// Affine is an independent per-axis scale and translation.
type Affine struct {
	SX, TX float64
	SY, TY float64
}

// Apply maps a rectangle; sizes scale by the axis factors.
func (a Affine) Apply(c model.SlotCoordinate) model.SlotCoordinate {
	c.X = round(a.SX*float64(c.X) + a.TX)
	c.Y = round(a.SY*float64(c.Y) + a.TY)
	c.Width = round(a.SX * float64(c.Width))
	c.Height = round(a.SY * float64(c.Height))
	return c
}

// FitAffine solves x' = sx*x + tx and y' = sy*y + ty by least squares over
// the anchors.
func FitAffine(anchors []Anchor) (Affine, error) {
	if len(anchors) != AnchorCount {
		return Affine{}, fmt.Errorf("%w: need %d anchors, got %d", ErrInvalidAnchors, AnchorCount, len(anchors))
	}
	xs := make([][2]float64, len(anchors))
	ys := make([][2]float64, len(anchors))
	for i, a := range anchors {
		xs[i] = [2]float64{a.Base.X, a.Screen.X}
		ys[i] = [2]float64{a.Base.Y, a.Screen.Y}
	}
	sx, tx, err := fitAxis(xs)
	if err != nil {
		return Affine{}, fmt.Errorf("x axis: %w", err)
	}
	sy, ty, err := fitAxis(ys)
	if err != nil {
		return Affine{}, fmt.Errorf("y axis: %w", err)
	}
	if sx <= 0 || sy <= 0 {
		return Affine{}, fmt.Errorf("%w: anchors produce a mirrored or collapsed axis", ErrInvalidAnchors)
	}
	return Affine{SX: sx, TX: tx, SY: sy, TY: ty}, nil
}

// fitAxis solves [b 1] * [s t]^T = p for one axis using QR.
func fitAxis(pairs [][2]float64) (scale, offset float64, err error) {
	n := len(pairs)
	minB, maxB := math.Inf(1), math.Inf(-1)
	A := mat.NewDense(n, 2, nil)
	B := mat.NewVecDense(n, nil)
	for i, p := range pairs {
		A.Set(i, 0, p[0])
		A.Set(i, 1, 1)
		B.SetVec(i, p[1])
		minB, maxB = math.Min(minB, p[0]), math.Max(maxB, p[0])
	}
	if maxB-minB < 1 {
		return 0, 0, fmt.Errorf("%w: base points do not span the axis", ErrInvalidAnchors)
	}

	var qr mat.QR
	qr.Factorize(A)
	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrInvalidAnchors, err)
	}
	return params.AtVec(0), params.AtVec(1), nil
}

// Calibrate fits the anchors and maps the base layout onto res. Rectangles
// that fall outside the screen are reported, not fatal.
func Calibrate(base Layout, anchors []Anchor, res model.Resolution) (Layout, []Violation, error) {
	a, err := FitAffine(anchors)
	if err != nil {
		return Layout{}, nil, err
	}
	out := base.transform(a.Apply)
	return out, BoundsViolations(out, res), nil
}

// Hero order remaps from the left-hand team to the right-hand team.
var (
	ultimateMirror = map[int]int{0: 7, 1: 6, 2: 5, 3: 11, 4: 9, 10: 8} //nolint:gochecknoglobals // static table
	standardMirror = map[int]int{0: 5, 1: 6, 2: 7, 3: 8, 4: 9, 10: 11} //nolint:gochecknoglobals // static table
)

// Mirror derives the right-hand side of a layout from a left-hand one:
// x' = screenWidth - x - width, with hero orders remapped per category.
// Heroes, models and selected abilities shift by five, the bonus slot 10
// becomes 11. Standard rows renumber ability order 1..3 within each hero.
func Mirror(left Layout, screenWidth int) Layout {
	flip := func(c model.SlotCoordinate) model.SlotCoordinate {
		c.X = screenWidth - c.X - c.Width
		return c
	}
	shift := func(o int) int {
		if o == 10 {
			return 11
		}
		return o + 5
	}
	src := left.Normalize()
	out := Layout{}

	for _, c := range src.UltimateSlots {
		m := flip(c)
		if o, ok := ultimateMirror[c.HeroOrder]; ok {
			m.HeroOrder = o
		}
		out.UltimateSlots = append(out.UltimateSlots, m)
	}
	perHero := map[int]int{}
	for _, c := range src.StandardSlots {
		m := flip(c)
		if o, ok := standardMirror[c.HeroOrder]; ok {
			m.HeroOrder = o
		}
		perHero[m.HeroOrder]++
		m.AbilityOrder = perHero[m.HeroOrder]
		out.StandardSlots = append(out.StandardSlots, m)
	}
	for _, group := range []struct {
		src []model.SlotCoordinate
		dst *[]model.SlotCoordinate
	}{
		{src.Models, &out.Models},
		{src.Heroes, &out.Heroes},
		{src.SelectedAbilities, &out.SelectedAbilities},
	} {
		for _, c := range group.src {
			m := flip(c)
			m.HeroOrder = shift(c.HeroOrder)
			*group.dst = append(*group.dst, m)
		}
	}
	return out
}

// Merge appends the right-hand side produced by Mirror to a left-hand layout.
func Merge(left, right Layout) Layout {
	out := left.Normalize()
	out.UltimateSlots = append(out.UltimateSlots, right.UltimateSlots...)
	out.StandardSlots = append(out.StandardSlots, right.StandardSlots...)
	out.Models = append(out.Models, right.Models...)
	out.Heroes = append(out.Heroes, right.Heroes...)
	out.SelectedAbilities = append(out.SelectedAbilities, right.SelectedAbilities...)
	return out
}

func round(v float64) int {
	return int(math.Round(v))
}

package layout

import (
	"fmt"

	"github.com/okian/draftlens/internal/domain/model"
)

// ViolationKind classifies a layout problem.
type ViolationKind string

// Violation kinds.
const (
	ViolationCount    ViolationKind = "count"
	ViolationNegative ViolationKind = "negative"
	ViolationEmpty    ViolationKind = "empty"
	ViolationOverflow ViolationKind = "overflow"
)

// Violation describes one offending layout entry. Index is -1 for category
// level issues.
type Violation struct {
	Category string                `json:"category"`
	Index    int                   `json:"index"`
	Kind     ViolationKind         `json:"kind"`
	Detail   string                `json:"detail"`
	Coord    *model.SlotCoordinate `json:"coord,omitempty"`
}

func (v Violation) String() string {
	if v.Index < 0 {
		return fmt.Sprintf("%s: %s: %s", v.Category, v.Kind, v.Detail)
	}
	return fmt.Sprintf("%s[%d]: %s: %s", v.Category, v.Index, v.Kind, v.Detail)
}

// Validate checks entry counts and that every rectangle lies inside
// [0,width) x [0,height).
func Validate(l Layout, res model.Resolution) []Violation {
	var out []Violation
	expected := map[string]int{
		"ultimate_slots_coords":     ExpectedUltimates,
		"standard_slots_coords":     ExpectedStandard,
		"models_coords":             ExpectedModels,
		"heroes_coords":             ExpectedHeroes,
		"selected_abilities_coords": ExpectedSelected,
	}
	l.each(func(category string, cs []model.SlotCoordinate) {
		if want := expected[category]; len(cs) != want {
			out = append(out, Violation{
				Category: category, Index: -1, Kind: ViolationCount,
				Detail: fmt.Sprintf("expected %d entries, got %d", want, len(cs)),
			})
		}
		out = append(out, Bounds(category, cs, res)...)
	})
	return out
}

// Bounds reports rectangles outside the screen.
func Bounds(category string, cs []model.SlotCoordinate, res model.Resolution) []Violation {
	var out []Violation
	for i, c := range cs {
		switch {
		case c.X < 0 || c.Y < 0:
			out = append(out, Violation{Category: category, Index: i, Kind: ViolationNegative,
				Detail: fmt.Sprintf("origin (%d,%d) is negative", c.X, c.Y), Coord: &c})
		case c.Empty():
			out = append(out, Violation{Category: category, Index: i, Kind: ViolationEmpty,
				Detail: fmt.Sprintf("size %dx%d has no area", c.Width, c.Height), Coord: &c})
		case c.X+c.Width > res.Width || c.Y+c.Height > res.Height:
			out = append(out, Violation{Category: category, Index: i, Kind: ViolationOverflow,
				Detail: fmt.Sprintf("rectangle ends at (%d,%d) beyond %s", c.X+c.Width, c.Y+c.Height, res), Coord: &c})
		}
	}
	return out
}

// BoundsViolations checks every category against res without count checks.
func BoundsViolations(l Layout, res model.Resolution) []Violation {
	var out []Violation
	l.each(func(category string, cs []model.SlotCoordinate) {
		out = append(out, Bounds(category, cs, res)...)
	})
	return out
}

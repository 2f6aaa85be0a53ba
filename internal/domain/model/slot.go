// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// SlotCoordinate is a pixel rectangle plus the logical draft slot it covers.
type SlotCoordinate struct {
	X            int  `json:"x"`
	Y            int  `json:"y"`
	Width        int  `json:"width"`
	Height       int  `json:"height"`
	HeroOrder    int  `json:"hero_order"`
	AbilityOrder int  `json:"ability_order,omitempty"`
	IsUltimate   bool `json:"is_ultimate,omitempty"`
}

// Empty reports whether the rectangle has no area.
func (c SlotCoordinate) Empty() bool {
	return c.Width <= 0 || c.Height <= 0
}

// Rect returns the slot as an image rectangle.
func (c SlotCoordinate) Rect() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
}

// ScanResult is the classifier output for a single slot. An empty Name means
// the slot was below the confidence threshold or not recognised; Confidence
// and ClassIndex are still reported in that case.
type ScanResult struct {
	Name         string         `json:"name"`
	Confidence   float64        `json:"confidence"`
	ClassIndex   int            `json:"class_index"`
	HeroOrder    int            `json:"hero_order"`
	AbilityOrder int            `json:"ability_order"`
	IsUltimate   bool           `json:"is_ultimate"`
	Coord        SlotCoordinate `json:"coord"`
}

// Recognized reports whether the slot carries a class name.
func (r ScanResult) Recognized() bool { return r.Name != "" }

// RawScan groups the classifier output of one screenshot by slot category.
type RawScan struct {
	Ultimates         []ScanResult `json:"ultimates"`
	Standard          []ScanResult `json:"standard"`
	HeroDefining      []ScanResult `json:"hero_defining"`
	SelectedAbilities []ScanResult `json:"selected_abilities"`
}

// Resolution is a screen size in pixels.
type Resolution struct {
	Width  int
	Height int
}

// String renders the resolution as WIDTHxHEIGHT, the layout preset key.
func (r Resolution) String() string {
	return strconv.Itoa(r.Width) + "x" + strconv.Itoa(r.Height)
}

// ParseResolution parses WIDTHxHEIGHT.
func ParseResolution(s string) (Resolution, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Resolution{}, fmt.Errorf("resolution %q: expected WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolution %q: width: %w", s, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolution %q: height: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return Resolution{}, fmt.Errorf("resolution %q: dimensions must be positive", s)
	}
	return Resolution{Width: width, Height: height}, nil
}

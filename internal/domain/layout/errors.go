package layout

import "errors"

// Sentinel error kinds for layout resolution.
var (
	ErrInvalidLayout  = errors.New("invalid layout")
	ErrInvalidAnchors = errors.New("invalid calibration anchors")
	ErrNotFound       = errors.New("layout not found")
)

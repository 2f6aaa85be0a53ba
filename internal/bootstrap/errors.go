package bootstrap

import "errors"

var (
	ErrLoadLayouts = errors.New("load layout presets failed")
	ErrLoadStats   = errors.New("load statistics snapshot failed")
)

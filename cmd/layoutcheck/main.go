// Command layoutcheck validates layout presets offline and can expand a
// left-half layout into a full one by mirroring it.
package main

import (
	"cmp"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"

	jsoniter "github.com/json-iterator/go"

	"github.com/okian/draftlens/internal/adapters/layoutstore"
	"github.com/okian/draftlens/internal/bootstrap"
	"github.com/okian/draftlens/internal/domain/layout"
	"github.com/okian/draftlens/internal/domain/model"
	"github.com/okian/draftlens/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // shared codec

func main() {
	var (
		layoutsPath = flag.String("layouts", "config/layout_coordinates.json", "Layout preset document")
		resolution  = flag.String("resolution", "", "Resolve and validate a single WIDTHxHEIGHT (default: every preset)")
		mirrorPath  = flag.String("mirror", "", "Left-half layout JSON to mirror into a full layout on stdout")
		width       = flag.Int("width", layout.BaseResolution.Width, "Screen width used by -mirror")
		height      = flag.Int("height", layout.BaseResolution.Height, "Screen height used to validate -mirror output")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("layoutcheck: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx := context.Background()
	var err error
	if *mirrorPath != "" {
		err = mirror(*mirrorPath, model.Resolution{Width: *width, Height: *height}, os.Stdout)
	} else {
		err = check(ctx, logger.Named("layoutcheck"), *layoutsPath, *resolution, os.Stdout)
	}
	if err != nil {
		os.Stderr.WriteString("layoutcheck: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func check(ctx context.Context, log logger.Logger, path, resolution string, out io.Writer) error {
	presets, err := bootstrap.LoadPresetFile(ctx, path, log)
	if err != nil {
		return err
	}
	mapper := layout.NewMapper(presets, layoutstore.NewMemory(), layout.WithLogger(log))

	targets := make([]model.Resolution, 0, len(presets))
	if resolution != "" {
		res, err := model.ParseResolution(resolution)
		if err != nil {
			return err
		}
		targets = append(targets, res)
	} else {
		for key := range presets {
			res, _ := model.ParseResolution(key)
			targets = append(targets, res)
		}
		slices.SortFunc(targets, func(a, b model.Resolution) int {
			if c := cmp.Compare(a.Width, b.Width); c != 0 {
				return c
			}
			return cmp.Compare(a.Height, b.Height)
		})
	}

	failed := 0
	for _, res := range targets {
		l, src, err := mapper.Get(ctx, res)
		if err != nil {
			return err
		}
		violations := layout.Validate(l, res)
		_, _ = fmt.Fprintf(out, "%s\t%s\tscale=%.4f\tviolations=%d\n", res, src, mapper.ScaleFactor(res), len(violations))
		for _, v := range violations {
			_, _ = fmt.Fprintf(out, "  %s\n", v)
			if v.Kind != layout.ViolationCount {
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d rectangles out of bounds", failed)
	}
	return nil
}

func mirror(path string, res model.Resolution, out io.Writer) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var left layout.Layout
	if err := json.Unmarshal(b, &left); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	left = left.Normalize()
	full := layout.Merge(left, layout.Mirror(left, res.Width))
	if v := layout.BoundsViolations(full, res); len(v) > 0 {
		return fmt.Errorf("mirrored layout has %d rectangles out of bounds for %s", len(v), res)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(full)
}

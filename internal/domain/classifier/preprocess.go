package classifier

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // screenshot decoder
	_ "image/png"  // screenshot decoder

	_ "golang.org/x/image/bmp" // screenshot decoder
	xdraw "golang.org/x/image/draw"

	"github.com/okian/draftlens/internal/domain/model"
)

// Model input geometry: NHWC float32 [N, 96, 96, 3].
const (
	InputSize = 96
	Channels  = 3
	ImageLen  = InputSize * InputSize * Channels
)

// DecodeScreenshot decodes a PNG, JPEG or BMP screenshot.
func DecodeScreenshot(b []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, nil
}

// ScreenshotResolution reads the dimensions without decoding pixels.
func ScreenshotResolution(b []byte) (model.Resolution, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return model.Resolution{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return model.Resolution{Width: cfg.Width, Height: cfg.Height}, nil
}

// Preprocess crops every slot, resizes it to 96x96 and appends its RGB
// bytes, widened to float32 without rescaling, to one contiguous tensor.
// Slots with no area or outside the screenshot are dropped; validIndices
// maps tensor positions back to slot indices.
func Preprocess(img image.Image, slots []model.SlotCoordinate) (tensor []float32, validIndices []int) {
	tensor = make([]float32, 0, len(slots)*ImageLen)
	validIndices = make([]int, 0, len(slots))
	dst := image.NewRGBA(image.Rect(0, 0, InputSize, InputSize))
	bounds := img.Bounds()

	for i, s := range slots {
		if s.Empty() {
			continue
		}
		rect := s.Rect().Add(bounds.Min)
		if !rect.In(bounds) {
			continue
		}
		draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
		xdraw.BiLinear.Scale(dst, dst.Bounds(), img, rect, xdraw.Src, nil)
		tensor = appendRGB(tensor, dst)
		validIndices = append(validIndices, i)
	}
	return tensor, validIndices
}

// appendRGB drops alpha and widens each byte to float32.
func appendRGB(dst []float32, img *image.RGBA) []float32 {
	for y := 0; y < InputSize; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+InputSize*4]
		for x := 0; x < InputSize; x++ {
			px := row[x*4 : x*4+4]
			dst = append(dst, float32(px[0]), float32(px[1]), float32(px[2]))
		}
	}
	return dst
}

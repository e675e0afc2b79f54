package resample

import (
	"image"
	"math"

	"github.com/Fepozopo/timpcore/pkg/tile"
)

// FitSize resolves a requested size against a source of sw x sh. A zero
// width or height is derived from the other one, preserving the aspect
// ratio. If both are zero the source size is returned.
func FitSize(sw, sh, width, height int) (int, int) {
	if width <= 0 && height <= 0 {
		return sw, sh
	}
	w, h := width, height
	if w <= 0 {
		w = int(math.Round(float64(sw) * float64(h) / float64(sh)))
	}
	if h <= 0 {
		h = int(math.Round(float64(sh) * float64(w) / float64(sw)))
	}
	return max(w, 1), max(h, 1)
}

// ScaleImage resamples img to width x height and returns the result as a new
// image. Pixels are processed as non-premultiplied RGBA.
func ScaleImage(img image.Image, width, height int, kind Kind, opts ...Option) (*image.NRGBA, Stats, error) {
	src, err := tile.NewFromImage(img, 4)
	if err != nil {
		return nil, Stats{}, err
	}
	defer src.Close()

	dst, err := tile.New(width, height, 4)
	if err != nil {
		return nil, Stats{}, err
	}
	defer dst.Close()

	st, err := Resample(src, src.Bounds(), dst, dst.Bounds(), kind, opts...)
	if err != nil {
		return nil, st, err
	}
	out, err := dst.ToNRGBA()
	return out, st, err
}

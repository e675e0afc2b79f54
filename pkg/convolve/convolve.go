// Package convolve applies 2-D kernels to tiled surfaces, reading each
// neighborhood through a surround.
package convolve

import (
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/Fepozopo/timpcore/pkg/logging"
	"github.com/Fepozopo/timpcore/pkg/mathx"
	"github.com/Fepozopo/timpcore/pkg/resample"
	"github.com/Fepozopo/timpcore/pkg/surround"
	"github.com/Fepozopo/timpcore/pkg/tile"
)

var (
	ErrKernel       = errors.New("convolve: kernel must have odd width and height and one weight per tap")
	ErrRegionBounds = errors.New("convolve: region lies outside a surface")
	ErrBPPMismatch  = errors.New("convolve: source and destination bytes per pixel differ")
)

// Destination receives convolved rows.
type Destination = resample.Destination

// Kernel is a row-major Width x Height weight matrix centered on the output
// pixel.
type Kernel struct {
	Width, Height int
	Weights       []float64
}

func (k Kernel) valid() bool {
	return k.Width > 0 && k.Height > 0 && k.Width%2 == 1 && k.Height%2 == 1 &&
		len(k.Weights) == k.Width*k.Height
}

// Sum returns the sum of all weights.
func (k Kernel) Sum() float64 {
	s := 0.0
	for _, w := range k.Weights {
		s += w
	}
	return s
}

// gaussian1D returns a normalized 1-D Gaussian of radius ceil(3*sigma).
func gaussian1D(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	radius := int(math.Ceil(3 * sigma))
	kern := make([]float64, radius*2+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		kern[i+radius] = v
		sum += v
	}
	for i := range kern {
		kern[i] /= sum
	}
	return kern
}

// Gaussian returns a normalized square Gaussian kernel. sigma <= 0 gives the
// 1x1 identity kernel.
func Gaussian(sigma float64) Kernel {
	g := gaussian1D(sigma)
	n := len(g)
	k := Kernel{Width: n, Height: n, Weights: make([]float64, n*n)}
	for y, wy := range g {
		for x, wx := range g {
			k.Weights[y*n+x] = wx * wy
		}
	}
	return k
}

// Box returns a normalized (2r+1) x (2r+1) mean kernel.
func Box(radius int) Kernel {
	n := max(radius, 0)*2 + 1
	k := Kernel{Width: n, Height: n, Weights: make([]float64, n*n)}
	for i := range k.Weights {
		k.Weights[i] = 1 / float64(n*n)
	}
	return k
}

type config struct {
	edge       resample.Edge
	background []byte
	progress   resample.ProgressFunc
}

// Option configures Convolve.
type Option func(*config)

// WithEdge selects the edge policy. EdgeClip (the default) renormalizes the
// taps that fall inside the surface; EdgeBackground reads the background.
func WithEdge(e resample.Edge) Option {
	return func(c *config) { c.edge = e }
}

// WithBackground sets the pixel used outside the surface.
func WithBackground(bg []byte) Option {
	return func(c *config) { c.background = bg }
}

// WithProgress installs a per-row progress callback; returning false stops.
func WithProgress(f resample.ProgressFunc) Option {
	return func(c *config) { c.progress = f }
}

// Convolve writes k applied to src over rect into the same rect of dst.
// Rows are processed top to bottom; a canceled run returns canceled=true and
// a nil error.
func Convolve(src tile.Surface, dst Destination, rect image.Rectangle, k Kernel, opts ...Option) (canceled bool, err error) {
	if !k.valid() {
		return false, ErrKernel
	}
	if rect.Empty() || !rect.In(src.Bounds()) || !rect.In(dst.Bounds()) {
		return false, fmt.Errorf("%w: %v", ErrRegionBounds, rect)
	}
	bpp := src.BPP()
	if dst.BPP() != bpp {
		return false, ErrBPPMismatch
	}
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.background == nil {
		cfg.background = make([]byte, bpp)
	}
	if len(cfg.background) != bpp {
		return false, resample.ErrBackground
	}

	start := time.Now()
	log := logging.Logger()
	log.Debug("convolve start", "rect", rect, "kernel", fmt.Sprintf("%dx%d", k.Width, k.Height))

	sr := surround.New(src, k.Width, k.Height, cfg.background)
	defer sr.Clear()

	kSum := k.Sum()
	bounds := src.Bounds()
	rx, ry := k.Width/2, k.Height/2
	row := make([]byte, rect.Dx()*bpp)
	acc := make([]float64, bpp)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			ox, oy := x-rx, y-ry
			buf, stride, err := sr.Lock(ox, oy)
			if err != nil {
				return false, fmt.Errorf("convolve row %d: %w", y, err)
			}
			clear(acc)
			used := 0.0
			for ty := 0; ty < k.Height; ty++ {
				sy := oy + ty
				for tx := 0; tx < k.Width; tx++ {
					w := k.Weights[ty*k.Width+tx]
					if cfg.edge == resample.EdgeClip && !image.Pt(ox+tx, sy).In(bounds) {
						continue
					}
					used += w
					p := buf[ty*stride+tx*bpp:]
					for c := range acc {
						acc[c] += w * float64(p[c])
					}
				}
			}
			sr.Release()

			scale := 1.0
			if cfg.edge == resample.EdgeClip && math.Abs(kSum) > resample.Epsilon && math.Abs(used) > resample.Epsilon {
				scale = kSum / used
			}
			px := row[(x-rect.Min.X)*bpp:]
			for c, v := range acc {
				px[c] = mathx.RoundToUint8(v * scale)
			}
		}
		if err := dst.WriteRow(rect.Min.X, y, row); err != nil {
			return false, fmt.Errorf("convolve write row %d: %w", y, err)
		}
		if cfg.progress != nil && !cfg.progress(y-rect.Min.Y+1, rect.Dy()) {
			log.Debug("convolve canceled", "row", y)
			return true, nil
		}
	}
	log.Debug("convolve done", "rect", rect, "elapsed", time.Since(start))
	return false, nil
}

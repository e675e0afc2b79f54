package resample

import (
	"math"

	"github.com/Fepozopo/timpcore/pkg/mathx"
)

// axisTap is the precomputed kernel for one destination column or row: the
// first source coordinate of its neighborhood and one weight per tap.
type axisTap struct {
	origin  int
	weights []float64
}

// SourceCoord maps destination index d to its source coordinate:
// s = s0 + (d - d0 + 0.5) * sLen/dLen - 0.5.
func SourceCoord(d, d0, dLen, s0, sLen int) float64 {
	// Multiply before dividing so exact ratios stay exact.
	return float64(s0) + ((float64(d-d0)+0.5)*float64(sLen))/float64(dLen) - 0.5
}

// AxisWeights returns the neighborhood origin and per-tap weights for source
// coordinate s on an axis whose source region is [lo, hi). The weights sum
// to 1. With EdgeClip, taps outside [lo, hi) weigh 0.
func AxisWeights(kind Kind, s float64, lo, hi int, edge Edge, table *LanczosTable) (int, []float64) {
	taps := kind.Taps()
	w := make([]float64, taps)

	base := math.Floor(s)
	f := s - base
	if f < Epsilon {
		f = 0
	} else if f > 1-Epsilon {
		base++
		f = 0
	}
	b := int(base)

	var origin int
	switch kind {
	case Nearest:
		origin = int(math.Floor(s + 0.5))
		if edge == EdgeClip {
			origin = mathx.Clamp(origin, lo, hi-1)
		}
		w[0] = 1
		return origin, w

	case Linear:
		origin = b
		w[0] = mathx.Clamp(1-f, 0, 1)
		w[1] = mathx.Clamp(f, 0, 1)

	case Cubic:
		origin = b - 1
		w[0] = catmullRom(f + 1)
		w[1] = catmullRom(f)
		w[2] = catmullRom(1 - f)
		w[3] = catmullRom(2 - f)

	case Lanczos:
		if table == nil {
			table = DefaultLanczosTable()
		}
		origin = b - LanczosWidth
		for i := range w {
			k := i - LanczosWidth
			w[i] = table.Weight(f - float64(k))
		}
	}

	if edge == EdgeClip {
		for i := range w {
			if p := origin + i; p < lo || p >= hi {
				w[i] = 0
			}
		}
	}

	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if math.Abs(sum) < Epsilon {
		// Nothing usable left: fall back to the nearest in-region tap.
		clear(w)
		p := mathx.Clamp(int(math.Floor(s+0.5)), lo, hi-1)
		w[mathx.Clamp(p-origin, 0, taps-1)] = 1
		return origin, w
	}
	for i := range w {
		w[i] /= sum
	}
	return origin, w
}

// catmullRom is the cubic convolution kernel with a = -0.5.
func catmullRom(x float64) float64 {
	x = math.Abs(x)
	switch {
	case x < 1:
		return (1.5*x-2.5)*x*x + 1
	case x < 2:
		return ((-0.5*x+2.5)*x-4)*x + 2
	default:
		return 0
	}
}

// axisTaps precomputes the kernels of every destination index on one axis.
func axisTaps(kind Kind, d0, dLen, s0, sLen int, edge Edge, table *LanczosTable) []axisTap {
	out := make([]axisTap, dLen)
	for i := range out {
		s := SourceCoord(d0+i, d0, dLen, s0, sLen)
		origin, w := AxisWeights(kind, s, s0, s0+sLen, edge, table)
		out[i] = axisTap{origin: origin, weights: w}
	}
	return out
}

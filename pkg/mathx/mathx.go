// Package mathx has the small numeric helpers shared by the pixel loops.
package mathx

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Clamp returns v limited to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RoundToUint8 rounds v half away from zero and clamps it into [0,255].
func RoundToUint8(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(Clamp(math.Round(v), 0, 255))
}

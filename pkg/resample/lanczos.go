package resample

import (
	"math"
	"sync"

	"github.com/Fepozopo/timpcore/pkg/mathx"
)

const (
	// LanczosWidth is the number of lobes of the windowed sinc.
	LanczosWidth = 3

	// LanczosWidth2 is the number of taps per axis.
	LanczosWidth2 = LanczosWidth*2 + 1

	// LanczosSPP is the number of table samples per unit of x.
	LanczosSPP = 4000

	// LanczosSamples is the table length. The table covers x in
	// [0, LanczosWidth+1) since a tap can sit up to one pixel past the window.
	LanczosSamples = LanczosSPP * (LanczosWidth + 1)

	// Epsilon guards near-zero fractions and weight sums.
	Epsilon = 0.0001
)

// LanczosTable holds the 1-D Lanczos kernel sampled at LanczosSPP points
// per unit. It is immutable once built and safe to share.
type LanczosTable struct {
	values []float64
}

// BuildLanczosTable computes a new table.
func BuildLanczosTable() *LanczosTable {
	v := make([]float64, LanczosSamples)
	for i := range v {
		v[i] = lanczos(float64(i) / LanczosSPP)
	}
	return &LanczosTable{values: v}
}

var (
	defaultTableOnce sync.Once
	defaultTable     *LanczosTable
)

// DefaultLanczosTable returns a process-wide table, built on first use.
func DefaultLanczosTable() *LanczosTable {
	defaultTableOnce.Do(func() {
		defaultTable = BuildLanczosTable()
	})
	return defaultTable
}

// Len returns LanczosSamples.
func (t *LanczosTable) Len() int { return len(t.values) }

// At returns the sample at index i.
func (t *LanczosTable) At(i int) float64 { return t.values[i] }

// Values returns a copy of the samples.
func (t *LanczosTable) Values() []float64 {
	return append([]float64(nil), t.values...)
}

// Weight returns the kernel value at distance x. The kernel is even, so only
// |x| matters; distances past the window weigh 0.
func (t *LanczosTable) Weight(x float64) float64 {
	i := int(math.Round(math.Abs(x) * LanczosSPP))
	return t.values[mathx.Clamp(i, 0, LanczosSamples-1)]
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	x *= math.Pi
	return math.Sin(x) / x
}

func lanczos(x float64) float64 {
	x = math.Abs(x)
	if x == 0 {
		return 1
	}
	if x >= LanczosWidth {
		return 0
	}
	return sinc(x) * sinc(x/LanczosWidth)
}

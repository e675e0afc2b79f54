package resample

import (
	"fmt"
	"strings"
)

// Kind selects the interpolation kernel.
type Kind uint8

const (
	// Nearest copies the closest source pixel.
	Nearest Kind = iota

	// Linear blends the 2x2 neighbors with bilinear weights.
	Linear

	// Cubic blends a 4x4 neighborhood with a Catmull-Rom kernel.
	Cubic

	// Lanczos blends a 7x7 neighborhood with a 3-lobe windowed sinc read
	// from a lookup table.
	Lanczos
)

// KindSpec describes one interpolation kind for help text and parsing.
type KindSpec struct {
	Kind        Kind
	Name        string
	Taps        int // neighborhood width and height
	Description string
}

// Kinds lists every supported kind. Keep it in sync with the Kind
// constants; Taps drives the surround size used by Resample.
var Kinds = []KindSpec{
	{Nearest, "nearest", 1, "Copy the closest source pixel, no blending."},
	{Linear, "linear", 2, "Bilinear blend of the 2x2 neighbors."},
	{Cubic, "cubic", 4, "Catmull-Rom cubic convolution over 4x4 neighbors."},
	{Lanczos, "lanczos", LanczosWidth2, "3-lobe windowed sinc over 7x7 neighbors, table driven."},
}

func (k Kind) spec() (KindSpec, bool) {
	if int(k) < len(Kinds) {
		return Kinds[k], true
	}
	return KindSpec{}, false
}

func (k Kind) String() string {
	if s, ok := k.spec(); ok {
		return s.Name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Taps returns the neighborhood width of the kernel, or 0 for an unknown kind.
func (k Kind) Taps() int {
	s, _ := k.spec()
	return s.Taps
}

// ParseKind accepts a kind name, case-insensitively, plus a few common
// aliases.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "none", "nn":
		return Nearest, nil
	case "bilinear":
		return Linear, nil
	case "bicubic", "catmull-rom":
		return Cubic, nil
	case "sinc", "lanczos3":
		return Lanczos, nil
	}
	for _, s := range Kinds {
		if s.Name == n {
			return s.Kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Edge selects how taps falling outside the source region are treated.
type Edge uint8

const (
	// EdgeClip drops taps outside the source region and renormalizes the
	// remaining weights to sum to 1.
	EdgeClip Edge = iota

	// EdgeBackground keeps every tap. Taps outside the surface read the
	// background color.
	EdgeBackground
)

func (e Edge) String() string {
	switch e {
	case EdgeClip:
		return "clip"
	case EdgeBackground:
		return "background"
	default:
		return fmt.Sprintf("Edge(%d)", uint8(e))
	}
}

// ParseEdge parses "clip" or "background".
func ParseEdge(name string) (Edge, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "clip", "":
		return EdgeClip, nil
	case "background", "bg":
		return EdgeBackground, nil
	}
	return 0, fmt.Errorf("resample: unknown edge mode %q", name)
}

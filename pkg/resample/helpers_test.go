package resample

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/Fepozopo/timpcore/pkg/tile"
)

// noiseNRGBA returns a deterministic random opaque image.
func noiseNRGBA(w, h int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

func solidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func surfaceFrom(t *testing.T, img image.Image, bpp int, opts ...tile.Option) *tile.Manager {
	t.Helper()
	m, err := tile.NewFromImage(img, bpp, opts...)
	if err != nil {
		t.Fatalf("NewFromImage failed: %v", err)
	}
	return m
}

func newSurface(t *testing.T, w, h, bpp int) *tile.Manager {
	t.Helper()
	m, err := tile.New(w, h, bpp)
	if err != nil {
		t.Fatalf("tile.New failed: %v", err)
	}
	return m
}

func readAll(t *testing.T, m *tile.Manager) []byte {
	t.Helper()
	b := m.Bounds()
	out := make([]byte, b.Dx()*b.Dy()*m.BPP())
	rowLen := b.Dx() * m.BPP()
	for y := 0; y < b.Dy(); y++ {
		if err := m.ReadRow(0, y, out[y*rowLen:(y+1)*rowLen]); err != nil {
			t.Fatalf("ReadRow failed: %v", err)
		}
	}
	return out
}

func absDiff(a, b byte) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

package convolve

import (
	"bytes"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/Fepozopo/timpcore/pkg/resample"
	"github.com/Fepozopo/timpcore/pkg/tile"
)

func grayFrom(t *testing.T, w, h int, px func(x, y int) byte) *tile.Manager {
	t.Helper()
	m, err := tile.New(w, h, 1)
	if err != nil {
		t.Fatalf("tile.New failed: %v", err)
	}
	row := make([]byte, w)
	for y := 0; y < h; y++ {
		for x := range row {
			row[x] = px(x, y)
		}
		if err := m.WriteRow(0, y, row); err != nil {
			t.Fatalf("WriteRow failed: %v", err)
		}
	}
	return m
}

func rows(t *testing.T, m *tile.Manager) [][]byte {
	t.Helper()
	b := m.Bounds()
	out := make([][]byte, b.Dy())
	for y := range out {
		out[y] = make([]byte, b.Dx()*m.BPP())
		if err := m.ReadRow(0, y, out[y]); err != nil {
			t.Fatalf("ReadRow failed: %v", err)
		}
	}
	return out
}

func TestGaussianKernel(t *testing.T) {
	k := Gaussian(1)
	if k.Width != 7 || k.Height != 7 {
		t.Fatalf("Gaussian(1) size = %dx%d, want 7x7", k.Width, k.Height)
	}
	if math.Abs(k.Sum()-1) > 1e-9 {
		t.Errorf("Gaussian(1) sum = %v, want 1", k.Sum())
	}
	center := k.Weights[3*7+3]
	for i, w := range k.Weights {
		if w > center {
			t.Fatalf("weight %d = %v exceeds center %v", i, w, center)
		}
	}
	if id := Gaussian(0); id.Width != 1 || id.Weights[0] != 1 {
		t.Errorf("Gaussian(0) = %+v, want identity", id)
	}
}

func TestBoxKernel(t *testing.T) {
	k := Box(2)
	if k.Width != 5 || len(k.Weights) != 25 {
		t.Fatalf("Box(2) = %dx%d with %d weights", k.Width, k.Height, len(k.Weights))
	}
	if math.Abs(k.Sum()-1) > 1e-9 {
		t.Errorf("Box(2) sum = %v, want 1", k.Sum())
	}
}

func TestConvolveIdentity(t *testing.T) {
	src := grayFrom(t, 70, 70, func(x, y int) byte { return byte(x*7 + y*3) })
	dst := grayFrom(t, 70, 70, func(x, y int) byte { return 0 })
	if _, err := Convolve(src, dst, src.Bounds(), Gaussian(0)); err != nil {
		t.Fatalf("Convolve failed: %v", err)
	}
	want, got := rows(t, src), rows(t, dst)
	for y := range want {
		if !bytes.Equal(got[y], want[y]) {
			t.Fatalf("row %d differs after identity kernel", y)
		}
	}
}

func TestConvolveFlatStaysFlat(t *testing.T) {
	src := grayFrom(t, 66, 10, func(x, y int) byte { return 200 })
	dst := grayFrom(t, 66, 10, func(x, y int) byte { return 0 })
	if _, err := Convolve(src, dst, src.Bounds(), Box(2)); err != nil {
		t.Fatalf("Convolve failed: %v", err)
	}
	for y, row := range rows(t, dst) {
		for x, v := range row {
			if v != 200 {
				t.Fatalf("pixel (%d,%d) = %d, want 200", x, y, v)
			}
		}
	}
}

func TestConvolveBackgroundEdge(t *testing.T) {
	src := grayFrom(t, 10, 10, func(x, y int) byte { return 200 })
	dst := grayFrom(t, 10, 10, func(x, y int) byte { return 0 })
	_, err := Convolve(src, dst, src.Bounds(), Box(2), WithEdge(resample.EdgeBackground))
	if err != nil {
		t.Fatalf("Convolve failed: %v", err)
	}
	out := rows(t, dst)
	// 9 of 25 taps land inside at the corner.
	if got := out[0][0]; got != 72 {
		t.Errorf("corner = %d, want 72", got)
	}
	if got := out[5][5]; got != 200 {
		t.Errorf("interior = %d, want 200", got)
	}
}

func TestConvolveSpreadsImpulse(t *testing.T) {
	src := grayFrom(t, 15, 15, func(x, y int) byte {
		if x == 7 && y == 7 {
			return 255
		}
		return 0
	})
	dst := grayFrom(t, 15, 15, func(x, y int) byte { return 0 })
	if _, err := Convolve(src, dst, src.Bounds(), Gaussian(1)); err != nil {
		t.Fatalf("Convolve failed: %v", err)
	}
	out := rows(t, dst)
	if c := out[7][7]; c == 0 || c == 255 {
		t.Errorf("center = %d, want a spread value", c)
	}
	if out[7][6] == 0 || out[6][7] == 0 {
		t.Errorf("neighbors stayed dark: %d %d", out[7][6], out[6][7])
	}
	if out[0][0] != 0 {
		t.Errorf("far corner = %d, want 0", out[0][0])
	}
	total := 0
	for _, row := range out {
		for _, v := range row {
			total += int(v)
		}
	}
	if total < 255-25 || total > 255+25 {
		t.Errorf("energy = %d, want about 255", total)
	}
}

func TestConvolveCancel(t *testing.T) {
	src := grayFrom(t, 8, 8, func(x, y int) byte { return 90 })
	dst := grayFrom(t, 8, 8, func(x, y int) byte { return 0 })
	calls := 0
	canceled, err := Convolve(src, dst, src.Bounds(), Box(1), WithProgress(func(done, total int) bool {
		calls++
		if total != 8 {
			t.Errorf("total = %d, want 8", total)
		}
		return done < 2
	}))
	if err != nil {
		t.Fatalf("Convolve failed: %v", err)
	}
	if !canceled || calls != 2 {
		t.Fatalf("canceled = %v after %d calls, want true after 2", canceled, calls)
	}
	out := rows(t, dst)
	if out[1][0] != 90 || out[2][0] != 0 {
		t.Errorf("rows after cancel = %d, %d; want 90, 0", out[1][0], out[2][0])
	}
}

func TestConvolveValidation(t *testing.T) {
	src := grayFrom(t, 8, 8, func(x, y int) byte { return 0 })
	rgb, err := tile.New(8, 8, 3)
	if err != nil {
		t.Fatalf("tile.New failed: %v", err)
	}
	even := Kernel{Width: 2, Height: 2, Weights: []float64{0.25, 0.25, 0.25, 0.25}}
	short := Kernel{Width: 3, Height: 3, Weights: []float64{1}}
	tests := []struct {
		name string
		dst  Destination
		rect image.Rectangle
		k    Kernel
		opts []Option
		want error
	}{
		{"even kernel", src, src.Bounds(), even, nil, ErrKernel},
		{"short weights", src, src.Bounds(), short, nil, ErrKernel},
		{"outside", src, image.Rect(4, 4, 12, 12), Box(1), nil, ErrRegionBounds},
		{"empty", src, image.Rect(2, 2, 2, 5), Box(1), nil, ErrRegionBounds},
		{"bpp", rgb, src.Bounds(), Box(1), nil, ErrBPPMismatch},
		{"background", src, src.Bounds(), Box(1), []Option{WithBackground([]byte{1, 2})}, resample.ErrBackground},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Convolve(src, tt.dst, tt.rect, tt.k, tt.opts...); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

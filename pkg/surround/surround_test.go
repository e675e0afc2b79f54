package surround

import (
	"errors"
	"testing"

	"github.com/Fepozopo/timpcore/pkg/tile"
)

func pattern(x, y, c int) byte {
	return byte(x*5 + y*11 + c*17 + 1)
}

func newPatternSurface(t *testing.T, w, h, bpp int) *tile.Manager {
	t.Helper()
	m, err := tile.New(w, h, bpp)
	if err != nil {
		t.Fatalf("tile.New failed: %v", err)
	}
	row := make([]byte, w*bpp)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < bpp; c++ {
				row[x*bpp+c] = pattern(x, y, c)
			}
		}
		if err := m.WriteRow(0, y, row); err != nil {
			t.Fatalf("WriteRow failed: %v", err)
		}
	}
	return m
}

// countingSurface tracks outstanding tile locks.
type countingSurface struct {
	*tile.Manager
	held    int
	lockErr error
}

func (c *countingSurface) Lock(t *tile.Tile) error {
	if c.lockErr != nil {
		return c.lockErr
	}
	if err := c.Manager.Lock(t); err != nil {
		return err
	}
	c.held++
	return nil
}

func (c *countingSurface) Unlock(t *tile.Tile) {
	c.held--
	c.Manager.Unlock(t)
}

func checkWindow(t *testing.T, buf []byte, stride, x0, y0, w, h, bpp int, bounds [2]int, bg []byte) {
	t.Helper()
	for r := 0; r < h; r++ {
		for col := 0; col < w; col++ {
			sx, sy := x0+col, y0+r
			inside := sx >= 0 && sy >= 0 && sx < bounds[0] && sy < bounds[1]
			for c := 0; c < bpp; c++ {
				got := buf[r*stride+col*bpp+c]
				var want byte
				if inside {
					want = pattern(sx, sy, c)
				} else {
					want = bg[c]
				}
				if got != want {
					t.Fatalf("window pixel (%d,%d) channel %d = %d, want %d (inside=%v)", sx, sy, c, got, want, inside)
				}
			}
		}
	}
}

func TestDirectWindowIsZeroCopy(t *testing.T) {
	m := newPatternSurface(t, 128, 128, 3)
	s := New(m, 4, 4, []byte{0, 0, 0})
	defer s.Clear()

	buf, stride, err := s.Lock(70, 10)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if s.Strategy() != Direct {
		t.Fatalf("Strategy = %v, want direct", s.Strategy())
	}

	tl, _ := m.LookupTile(70, 10)
	if err := m.Lock(tl); err != nil {
		t.Fatalf("tile Lock failed: %v", err)
	}
	tileBuf, tileStride := m.TileBuffer(tl)
	off := tl.PixelOffset(70, 10, 3)
	if &buf[0] != &tileBuf[off] {
		t.Errorf("direct window does not point into the tile buffer")
	}
	if stride != tileStride || s.Rowstride() != tileStride {
		t.Errorf("stride = %d, want tile stride %d", stride, tileStride)
	}
	m.Unlock(tl)

	checkWindow(t, buf, stride, 70, 10, 4, 4, 3, [2]int{128, 128}, nil)
	s.Release()
}

func TestCopiedWindowAcrossTiles(t *testing.T) {
	m := newPatternSurface(t, 128, 128, 2)
	cs := &countingSurface{Manager: m}
	s := New(cs, 5, 5, []byte{0, 0})
	defer s.Clear()

	buf, stride, err := s.Lock(61, 62)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if s.Strategy() != Copied {
		t.Fatalf("Strategy = %v, want copied", s.Strategy())
	}
	if stride != 5*2 {
		t.Errorf("stride = %d, want %d", stride, 10)
	}
	if cs.held != 0 {
		t.Errorf("copied window holds %d tile locks, want 0", cs.held)
	}
	checkWindow(t, buf, stride, 61, 62, 5, 5, 2, [2]int{128, 128}, []byte{0, 0})
	s.Release()
}

func TestBackgroundSubstitution(t *testing.T) {
	bg := []byte{201, 202, 203, 204}
	m := newPatternSurface(t, 100, 70, 4)
	s := New(m, 7, 7, bg)
	defer s.Clear()

	corners := [][2]int{{-3, -3}, {96, -2}, {-4, 66}, {97, 67}, {40, 68}, {-10, -10}}
	for _, p := range corners {
		buf, stride, err := s.Lock(p[0], p[1])
		if err != nil {
			t.Fatalf("Lock(%v) failed: %v", p, err)
		}
		if s.Strategy() != Copied {
			t.Fatalf("Lock(%v) Strategy = %v, want copied", p, s.Strategy())
		}
		checkWindow(t, buf, stride, p[0], p[1], 7, 7, 4, [2]int{100, 70}, bg)
		s.Release()
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	m := newPatternSurface(t, 64, 64, 1)
	cs := &countingSurface{Manager: m}
	s := New(cs, 3, 3, []byte{0})
	defer s.Clear()

	if _, _, err := s.Lock(1, 1); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if cs.held != 1 {
		t.Fatalf("direct window holds %d locks, want 1", cs.held)
	}
	s.Release()
	s.Release()
	if cs.held != 0 {
		t.Fatalf("held = %d after release, want 0", cs.held)
	}

	buf, stride, err := s.Lock(10, 20)
	if err != nil {
		t.Fatalf("second Lock failed: %v", err)
	}
	checkWindow(t, buf, stride, 10, 20, 3, 3, 1, [2]int{64, 64}, []byte{0})
	s.Release()
}

func TestScratchIsReused(t *testing.T) {
	m := newPatternSurface(t, 100, 100, 1)
	s := New(m, 4, 4, []byte{9})
	defer s.Clear()

	a, _, err := s.Lock(62, 62)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	s.Release()
	b, _, err := s.Lock(-1, -1)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if &a[0] != &b[0] {
		t.Errorf("scratch buffer was reallocated between locks")
	}
	checkWindow(t, b, 4, -1, -1, 4, 4, 1, [2]int{100, 100}, []byte{9})
	s.Release()
}

func TestScratchLimit(t *testing.T) {
	m := newPatternSurface(t, 100, 100, 4)
	s := New(m, 7, 7, []byte{0, 0, 0, 0}, WithScratchLimit(100))
	defer s.Clear()

	if _, _, err := s.Lock(60, 60); !errors.Is(err, ErrScratchLimit) {
		t.Fatalf("Lock err = %v, want ErrScratchLimit", err)
	}
	if s.Strategy() != None {
		t.Errorf("failed Lock left strategy %v", s.Strategy())
	}
	// Direct windows need no scratch.
	if _, _, err := s.Lock(0, 0); err != nil {
		t.Fatalf("direct Lock failed: %v", err)
	}
	s.Release()
}

func TestLockErrorPropagates(t *testing.T) {
	boom := errors.New("swap failed")
	cs := &countingSurface{Manager: newPatternSurface(t, 100, 100, 1), lockErr: boom}
	s := New(cs, 3, 3, []byte{0})
	defer s.Clear()

	if _, _, err := s.Lock(5, 5); !errors.Is(err, boom) {
		t.Errorf("direct Lock err = %v, want %v", err, boom)
	}
	if _, _, err := s.Lock(63, 63); !errors.Is(err, boom) {
		t.Errorf("copied Lock err = %v, want %v", err, boom)
	}
}

// wideSurface reports more channels than a tile can hold.
type wideSurface struct {
	*tile.Manager
}

func (wideSurface) BPP() int { return tile.MaxBPP + 2 }

func expectPanic(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	f()
}

func TestContractViolations(t *testing.T) {
	m := newPatternSurface(t, 64, 64, 3)

	expectPanic(t, "wrong background size", func() { New(m, 3, 3, []byte{1}) })
	expectPanic(t, "empty window", func() { New(m, 0, 3, []byte{1, 2, 3}) })
	expectPanic(t, "too many channels", func() { New(wideSurface{m}, 3, 3, make([]byte, tile.MaxBPP+2)) })

	s := New(m, 3, 3, []byte{1, 2, 3})
	if _, _, err := s.Lock(0, 0); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	expectPanic(t, "double lock", func() { s.Lock(1, 1) })
	s.Clear()

	expectPanic(t, "lock after clear", func() { s.Lock(0, 0) })
	expectPanic(t, "rowstride after clear", func() { s.Rowstride() })
}

// Package surround gives read-only access to a fixed-size window of pixels
// anywhere on a tiled surface.
//
// A window that fits inside one tile is returned as a slice of that tile's
// buffer and the tile stays locked until Release. Any other window is copied
// into a scratch buffer owned by the Surround, with the background color
// standing in for pixels outside the surface. Callers only ever see a buffer
// and a row stride.
//
// Windows are anchored at their top-left pixel: Lock(x, y) covers
// [x, x+w) x [y, y+h).
//
// A Surround is not safe for concurrent use. Goroutines that share a surface
// each need their own.
package surround

import (
	"errors"
	"image"

	"github.com/Fepozopo/timpcore/internal/assert"
	"github.com/Fepozopo/timpcore/pkg/tile"
)

// ErrScratchLimit is returned when a copied window would need a scratch
// buffer larger than the configured limit.
var ErrScratchLimit = errors.New("surround: scratch buffer limit exceeded")

// Strategy tells how the current window is being served.
type Strategy uint8

const (
	// None means no window is locked.
	None Strategy = iota

	// Direct windows point into a locked tile buffer.
	Direct

	// Copied windows live in the scratch buffer.
	Copied
)

func (s Strategy) String() string {
	switch s {
	case None:
		return "none"
	case Direct:
		return "direct"
	case Copied:
		return "copied"
	default:
		return "unknown"
	}
}

// access is the window handed out by the latest Lock.
type access struct {
	kind   Strategy
	tile   *tile.Tile // Direct only
	buf    []byte
	stride int
}

// Surround serves w x h windows of one surface.
type Surround struct {
	surface tile.Surface
	w, h    int
	bpp     int
	bg      [tile.MaxBPP]byte

	scratch []byte
	limit   int
	cur     access
	cleared bool
}

// Option configures a Surround.
type Option func(*Surround)

// WithScratchLimit caps the scratch buffer at n bytes. Zero means no cap.
func WithScratchLimit(n int) Option {
	return func(s *Surround) {
		s.limit = n
	}
}

// New prepares a Surround for w x h windows of surface. bg holds one pixel,
// exactly surface.BPP() bytes, used for everything outside the surface.
// Nothing is locked or allocated yet.
func New(surface tile.Surface, w, h int, bg []byte, opts ...Option) *Surround {
	assert.That(surface != nil, "nil surface")
	assert.That(w > 0 && h > 0, "window size %dx%d", w, h)
	bpp := surface.BPP()
	assert.That(bpp >= 1 && bpp <= tile.MaxBPP, "surface has %d bytes per pixel, want 1..%d", bpp, tile.MaxBPP)
	assert.That(len(bg) == bpp, "background has %d channels, surface has %d", len(bg), bpp)

	s := &Surround{surface: surface, w: w, h: h, bpp: bpp}
	copy(s.bg[:], bg)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Size returns the window size.
func (s *Surround) Size() (w, h int) { return s.w, s.h }

// BPP returns the bytes per pixel of the windows.
func (s *Surround) BPP() int { return s.bpp }

// Background returns a copy of the background pixel.
func (s *Surround) Background() []byte {
	return append([]byte(nil), s.bg[:s.bpp]...)
}

// Strategy reports how the currently locked window is served.
func (s *Surround) Strategy() Strategy { return s.cur.kind }

// Lock returns the window whose top-left pixel is (x, y) and its row stride.
// Row r of the window starts at buf[r*stride]. The buffer must not be
// modified and is valid until Release.
//
// Locking twice without Release, or after Clear, panics.
func (s *Surround) Lock(x, y int) ([]byte, int, error) {
	assert.That(!s.cleared, "lock after clear")
	assert.That(s.cur.kind == None, "lock at %d,%d while a window is locked", x, y)

	win := image.Rect(x, y, x+s.w, y+s.h)
	if t, ok := s.surface.LookupTile(x, y); ok && win.In(t.Rect()) {
		if err := s.surface.Lock(t); err != nil {
			return nil, 0, err
		}
		buf, stride := s.surface.TileBuffer(t)
		off := t.PixelOffset(x, y, s.bpp)
		s.cur = access{kind: Direct, tile: t, buf: buf[off:], stride: stride}
		return s.cur.buf, s.cur.stride, nil
	}

	if err := s.copyWindow(win); err != nil {
		return nil, 0, err
	}
	s.cur = access{kind: Copied, buf: s.scratch, stride: s.w * s.bpp}
	return s.cur.buf, s.cur.stride, nil
}

// Rowstride returns the stride of the locked window.
func (s *Surround) Rowstride() int {
	assert.That(s.cur.kind != None, "rowstride without a locked window")
	return s.cur.stride
}

// Release unlocks the tile held by the last Lock, if any. Calling it with
// nothing locked does nothing. The scratch buffer is kept for reuse.
func (s *Surround) Release() {
	if s.cur.kind == Direct {
		s.surface.Unlock(s.cur.tile)
	}
	s.cur = access{}
}

// Clear releases any lock and frees the scratch buffer. The Surround cannot
// be used afterwards.
func (s *Surround) Clear() {
	assert.That(!s.cleared, "clear called twice")
	s.Release()
	s.scratch = nil
	s.cleared = true
}

// copyWindow fills the scratch buffer with win, locking one tile at a time.
func (s *Surround) copyWindow(win image.Rectangle) error {
	need := s.w * s.h * s.bpp
	if s.limit > 0 && need > s.limit {
		return ErrScratchLimit
	}
	if cap(s.scratch) < need {
		s.scratch = make([]byte, need)
	}
	s.scratch = s.scratch[:need]

	clip := win.Intersect(s.surface.Bounds())
	if clip != win {
		for i := 0; i < need; i += s.bpp {
			copy(s.scratch[i:i+s.bpp], s.bg[:s.bpp])
		}
	}
	if clip.Empty() {
		return nil
	}

	rowBytes := s.w * s.bpp
	for ty := clip.Min.Y; ty < clip.Max.Y; {
		next := clip.Max.Y
		for tx := clip.Min.X; tx < clip.Max.X; {
			t, _ := s.surface.LookupTile(tx, ty)
			part := t.Rect().Intersect(clip)
			if err := s.surface.Lock(t); err != nil {
				return err
			}
			buf, _ := s.surface.TileBuffer(t)
			n := part.Dx() * s.bpp
			for py := part.Min.Y; py < part.Max.Y; py++ {
				src := t.PixelOffset(part.Min.X, py, s.bpp)
				dst := (py-win.Min.Y)*rowBytes + (part.Min.X-win.Min.X)*s.bpp
				copy(s.scratch[dst:dst+n], buf[src:src+n])
			}
			s.surface.Unlock(t)
			tx = part.Max.X
			next = part.Max.Y
		}
		ty = next
	}
	return nil
}

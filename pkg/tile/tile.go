// Package tile stores large rasters as a grid of fixed-size tiles.
//
// A tile is the unit of locking: its buffer may only be read or written
// between Lock and Unlock, and a locked tile's memory stays put. Tiles that
// are not locked may be swapped out to a Store when the surface is given a
// residency budget, and are swapped back in on the next Lock.
//
// Tile rows are packed, so the row stride of a tile buffer is the tile's
// width times the surface's bytes per pixel.
package tile

import (
	"errors"
	"image"
)

const (
	// TileWidth is the width of a full tile in pixels.
	TileWidth = 64

	// TileHeight is the height of a full tile in pixels.
	TileHeight = 64

	// MaxBPP is the largest supported number of bytes (channels) per pixel.
	MaxBPP = 4
)

var (
	ErrBadBPP      = errors.New("tile: bytes per pixel must be between 1 and 4")
	ErrBadSize     = errors.New("tile: surface width and height must be positive")
	ErrOutOfBounds = errors.New("tile: coordinates outside the surface")
	ErrRowLength   = errors.New("tile: row length is not a multiple of bytes per pixel")
	ErrCorruptTile = errors.New("tile: stored tile has the wrong size")
)

// Surface is a 2-D raster addressed by (x, y) and backed by tiles.
//
// Implementations must allow concurrent locks on different tiles.
type Surface interface {
	// Bounds returns the surface rectangle, always anchored at (0,0).
	Bounds() image.Rectangle

	// BPP returns the number of bytes (channels) per pixel.
	BPP() int

	// LookupTile returns the tile holding pixel (x, y). It reports false when
	// the pixel lies outside the surface: such tiles do not exist.
	LookupTile(x, y int) (*Tile, bool)

	// Lock makes the tile's buffer available and pins it in memory.
	Lock(t *Tile) error

	// Unlock releases a lock taken with Lock.
	Unlock(t *Tile)

	// TileBuffer returns the tile's pixels and row stride. The slice is only
	// valid while the tile is locked.
	TileBuffer(t *Tile) ([]byte, int)
}

// Tile is one block of surface storage.
type Tile struct {
	index int
	rect  image.Rectangle

	// Guarded by the owning Manager's mutex.
	data    []byte
	locks   int
	dirty   bool
	swapped bool
	lastUse uint64
}

// Index returns the tile's row-major position in its grid.
func (t *Tile) Index() int { return t.index }

// Rect returns the pixels covered by the tile, in surface coordinates.
// Edge tiles may be smaller than TileWidth x TileHeight.
func (t *Tile) Rect() image.Rectangle { return t.rect }

// Contains reports whether the surface pixel (x, y) lies in the tile.
func (t *Tile) Contains(x, y int) bool {
	return image.Pt(x, y).In(t.rect)
}

// PixelOffset returns the byte offset of surface pixel (x, y) inside the
// tile buffer, or -1 if the pixel is not in the tile.
func (t *Tile) PixelOffset(x, y, bpp int) int {
	if !t.Contains(x, y) {
		return -1
	}
	return ((y-t.rect.Min.Y)*t.rect.Dx() + (x - t.rect.Min.X)) * bpp
}

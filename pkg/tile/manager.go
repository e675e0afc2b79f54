package tile

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/Fepozopo/timpcore/internal/assert"
	"github.com/Fepozopo/timpcore/pkg/logging"
)

var nextSurfaceID atomic.Uint64

// Manager is the tiled Surface implementation. Tile memory is allocated on
// first lock and starts zeroed.
//
// Thread safety: all methods are safe for concurrent use. Writers must not
// touch a region another goroutine is reading.
type Manager struct {
	mu sync.Mutex

	id            uint64
	width, height int
	bpp           int
	tilesX        int
	tilesY        int
	tiles         []*Tile

	store      Store
	ownStore   bool
	cacheTiles int
	resident   map[int]*Tile
	clock      uint64

	swapIns  int
	swapOuts int
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore sets the store used for swapped-out tiles. The caller keeps
// ownership: Close removes this surface's tiles but does not close s.
func WithStore(s Store) Option {
	return func(m *Manager) {
		m.store = s
		m.ownStore = false
	}
}

// WithCacheTiles limits how many unlocked tiles stay resident. Zero or a
// negative value means no limit. Without WithStore a MemStore is used.
func WithCacheTiles(n int) Option {
	return func(m *Manager) {
		m.cacheTiles = n
	}
}

// New creates a width x height surface with bpp bytes per pixel.
func New(width, height, bpp int, opts ...Option) (*Manager, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrBadSize
	}
	if bpp < 1 || bpp > MaxBPP {
		return nil, ErrBadBPP
	}

	tilesX := (width + TileWidth - 1) / TileWidth
	tilesY := (height + TileHeight - 1) / TileHeight
	m := &Manager{
		id:       nextSurfaceID.Add(1),
		width:    width,
		height:   height,
		bpp:      bpp,
		tilesX:   tilesX,
		tilesY:   tilesY,
		tiles:    make([]*Tile, tilesX*tilesY),
		resident: make(map[int]*Tile),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cacheTiles > 0 && m.store == nil {
		m.store = NewMemStore()
		m.ownStore = true
	}

	for ty := range tilesY {
		for tx := range tilesX {
			x0, y0 := tx*TileWidth, ty*TileHeight
			x1, y1 := min(x0+TileWidth, width), min(y0+TileHeight, height)
			idx := ty*tilesX + tx
			m.tiles[idx] = &Tile{index: idx, rect: image.Rect(x0, y0, x1, y1)}
		}
	}
	return m, nil
}

// Bounds returns the surface rectangle.
func (m *Manager) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }

// BPP returns the bytes per pixel.
func (m *Manager) BPP() int { return m.bpp }

// TileCount returns the grid size in tiles.
func (m *Manager) TileCount() (x, y int) { return m.tilesX, m.tilesY }

// LookupTile returns the tile containing pixel (x, y).
func (m *Manager) LookupTile(x, y int) (*Tile, bool) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return nil, false
	}
	return m.tiles[(y/TileHeight)*m.tilesX+x/TileWidth], true
}

// Lock pins t in memory, swapping it in if needed.
func (m *Manager) Lock(t *Tile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.data == nil {
		if err := m.swapIn(t); err != nil {
			return err
		}
	}
	t.locks++
	m.clock++
	t.lastUse = m.clock
	return nil
}

// Unlock drops one lock on t. Unlocking a tile that is not locked panics.
func (m *Manager) Unlock(t *Tile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	assert.That(t.locks > 0, "unlock of unlocked tile %d", t.index)
	t.locks--
	if t.locks == 0 {
		m.evict()
	}
}

// TileBuffer returns the locked tile's pixels and row stride.
func (m *Manager) TileBuffer(t *Tile) ([]byte, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	assert.That(t.locks > 0, "buffer of unlocked tile %d", t.index)
	return t.data, t.rect.Dx() * m.bpp
}

// MarkDirty records that a locked tile's pixels changed, so eviction must
// write it to the store.
func (m *Manager) MarkDirty(t *Tile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	assert.That(t.locks > 0, "dirtying unlocked tile %d", t.index)
	t.dirty = true
}

func (m *Manager) key(t *Tile) Key {
	return Key{Surface: m.id, Index: t.index}
}

// swapIn allocates t's buffer and restores it from the store. Called with
// m.mu held.
func (m *Manager) swapIn(t *Tile) error {
	buf := make([]byte, t.rect.Dx()*t.rect.Dy()*m.bpp)
	if t.swapped {
		ok, err := m.store.Load(m.key(t), buf)
		if err != nil {
			return fmt.Errorf("swap in tile %d: %w", t.index, err)
		}
		if !ok {
			return fmt.Errorf("swap in tile %d: %w", t.index, ErrCorruptTile)
		}
		m.swapIns++
		logging.Logger().Debug("tile swapped in", "surface", m.id, "tile", t.index)
	}
	t.data = buf
	t.dirty = false
	m.resident[t.index] = t
	return nil
}

// evict writes least recently used unlocked tiles to the store until the
// residency budget holds. Called with m.mu held.
func (m *Manager) evict() {
	if m.cacheTiles <= 0 || m.store == nil {
		return
	}
	for len(m.resident) > m.cacheTiles {
		var victim *Tile
		for _, t := range m.resident {
			if t.locks > 0 {
				continue
			}
			if victim == nil || t.lastUse < victim.lastUse {
				victim = t
			}
		}
		if victim == nil {
			return
		}
		if victim.dirty {
			if err := m.store.Save(m.key(victim), victim.data); err != nil {
				// The tile stays resident; the budget is soft.
				logging.Logger().Warn("tile swap out failed", "surface", m.id, "tile", victim.index, "err", err)
				return
			}
			victim.swapped = true
			m.swapOuts++
			logging.Logger().Debug("tile swapped out", "surface", m.id, "tile", victim.index)
		}
		victim.data = nil
		victim.dirty = false
		delete(m.resident, victim.index)
	}
}

// Stats describes tile residency.
type Stats struct {
	Resident int
	SwapIns  int
	SwapOuts int
}

// Stats returns current residency counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Resident: len(m.resident), SwapIns: m.swapIns, SwapOuts: m.swapOuts}
}

// Close drops all tiles and removes this surface's entries from the store.
// A store created by the manager itself is closed as well.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for _, t := range m.tiles {
		assert.That(t.locks == 0, "close with tile %d locked", t.index)
		if t.swapped && m.store != nil {
			if err := m.store.Delete(m.key(t)); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		t.data = nil
		t.swapped = false
		t.dirty = false
	}
	m.resident = make(map[int]*Tile)
	if m.ownStore && m.store != nil {
		if err := m.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.store = nil
	}
	return firstErr
}

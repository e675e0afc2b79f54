package tile

import (
	"encoding/binary"
	"sync"
)

// Key identifies a swapped-out tile: the owning surface and the tile index.
type Key struct {
	Surface uint64
	Index   int
}

// Bytes encodes the key so that all tiles of one surface sort together.
func (k Key) Bytes() []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[:8], k.Surface)
	binary.BigEndian.PutUint64(b[8:], uint64(k.Index))
	return b
}

// Store holds the pixels of tiles that are not resident in memory.
//
// Implementations must be safe for concurrent use; several managers may
// share one store since keys carry the surface id.
type Store interface {
	// Load copies the stored tile into dst. It reports false when nothing
	// is stored under k.
	Load(k Key, dst []byte) (bool, error)

	// Save stores a copy of src under k.
	Save(k Key, src []byte) error

	// Delete removes k. Deleting a missing key is not an error.
	Delete(k Key) error

	Close() error
}

// MemStore keeps swapped tiles in a map. It is the default store of a
// Manager with a residency budget.
type MemStore struct {
	mu    sync.Mutex
	tiles map[Key][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{tiles: make(map[Key][]byte)}
}

func (s *MemStore) Load(k Key, dst []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.tiles[k]
	if !ok {
		return false, nil
	}
	if len(src) != len(dst) {
		return false, ErrCorruptTile
	}
	copy(dst, src)
	return true, nil
}

func (s *MemStore) Save(k Key, src []byte) error {
	buf := make([]byte, len(src))
	copy(buf, src)
	s.mu.Lock()
	s.tiles[k] = buf
	s.mu.Unlock()
	return nil
}

func (s *MemStore) Delete(k Key) error {
	s.mu.Lock()
	delete(s.tiles, k)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored tiles.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tiles)
}

func (s *MemStore) Close() error {
	s.mu.Lock()
	s.tiles = make(map[Key][]byte)
	s.mu.Unlock()
	return nil
}

package tile

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// LevelStore swaps tiles into a LevelDB database, either on disk or in
// memory.
type LevelStore struct {
	db *leveldb.DB
}

// OpenLevelStore opens (or creates) a swap database in dir.
func OpenLevelStore(dir string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{
		Compression: opt.NoCompression,
	})
	if err != nil {
		return nil, fmt.Errorf("open swap store %s: %w", dir, err)
	}
	return &LevelStore{db: db}, nil
}

// NewMemLevelStore returns a LevelDB store backed by memory.
func NewMemLevelStore() (*LevelStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open memory swap store: %w", err)
	}
	return &LevelStore{db: db}, nil
}

func (s *LevelStore) Load(k Key, dst []byte) (bool, error) {
	v, err := s.db.Get(k.Bytes(), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load tile %d of surface %d: %w", k.Index, k.Surface, err)
	}
	if len(v) != len(dst) {
		return false, ErrCorruptTile
	}
	copy(dst, v)
	return true, nil
}

func (s *LevelStore) Save(k Key, src []byte) error {
	if err := s.db.Put(k.Bytes(), src, nil); err != nil {
		return fmt.Errorf("save tile %d of surface %d: %w", k.Index, k.Surface, err)
	}
	return nil
}

func (s *LevelStore) Delete(k Key) error {
	if err := s.db.Delete(k.Bytes(), nil); err != nil {
		return fmt.Errorf("delete tile %d of surface %d: %w", k.Index, k.Surface, err)
	}
	return nil
}

func (s *LevelStore) Close() error {
	return s.db.Close()
}

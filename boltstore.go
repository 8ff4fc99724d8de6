package batchgcd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/boltdb/bolt"
	"github.com/ncw/gmp"
)

var shapeBkt = []byte("shape")

// BoltStore keeps the product tree in a single bolt database: one
// bucket per level, keyed by big-endian position, plus a shape bucket
// holding per-level element counts. Reads are safe to issue from
// concurrent workers.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens the database at path, creating it (and its parent
// directory) if absent.
func OpenBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	db, err := bolt.Open(path, 0644, nil)
	if err != nil {
		return nil, fmt.Errorf("opening level store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(shapeBkt)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing level store %s: %w", path, err)
	}
	return &BoltStore{db: db}, nil
}

func levelBkt(level int) []byte {
	return []byte("level" + strconv.Itoa(level))
}

func intKey(i int) []byte {
	k := make([]byte, lengthSize)
	encodeLength(k, i)
	return k
}

func (s *BoltStore) WriteLevel(level int, xs []*gmp.Int) error {
	name := levelBkt(level)
	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(name) != nil {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		bkt, err := tx.CreateBucket(name)
		if err != nil {
			return err
		}
		for i, x := range xs {
			if err := bkt.Put(intKey(i), EncodeInt(x)); err != nil {
				return err
			}
		}
		return tx.Bucket(shapeBkt).Put(intKey(level), intKey(len(xs)))
	})
	if err != nil {
		return fmt.Errorf("writing level %d: %w", level, err)
	}
	return nil
}

func (s *BoltStore) ReadLevel(level int) ([]*gmp.Int, error) {
	count, err := s.Shape(level)
	if err != nil {
		return nil, err
	}
	xs := make([]*gmp.Int, count)
	err = s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(levelBkt(level))
		if bkt == nil {
			return fmt.Errorf("%w: level %d", ErrMissingLevel, level)
		}
		for i := 0; i < count; i++ {
			v := bkt.Get(intKey(i))
			if v == nil {
				return fmt.Errorf("%w: level %d position %d", ErrMissingLevel, level, i)
			}
			x, err := DecodeInt(v)
			if err != nil {
				return fmt.Errorf("level %d position %d: %w", level, i, err)
			}
			xs[i] = x
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return xs, nil
}

func (s *BoltStore) ReadElement(level, pos int) (*gmp.Int, error) {
	var x *gmp.Int
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(levelBkt(level))
		if bkt == nil {
			return fmt.Errorf("%w: level %d", ErrMissingLevel, level)
		}
		v := bkt.Get(intKey(pos))
		if v == nil {
			return fmt.Errorf("%w: level %d position %d", ErrMissingLevel, level, pos)
		}
		var err error
		if x, err = DecodeInt(v); err != nil {
			return fmt.Errorf("level %d position %d: %w", level, pos, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return x, nil
}

func (s *BoltStore) RecordShape(level, count int) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(shapeBkt).Put(intKey(level), intKey(count))
	})
	if err != nil {
		return fmt.Errorf("recording shape of level %d: %w", level, err)
	}
	return nil
}

func (s *BoltStore) Shape(level int) (int, error) {
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(shapeBkt).Get(intKey(level))
		if v == nil {
			return fmt.Errorf("%w: no shape for level %d", ErrMissingLevel, level)
		}
		count = decodeLength(v)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *BoltStore) Levels() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(shapeBkt).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *BoltStore) Truncate(height int) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		shape := tx.Bucket(shapeBkt)
		for l := height; ; l++ {
			stale := false
			if tx.Bucket(levelBkt(l)) != nil {
				if err := tx.DeleteBucket(levelBkt(l)); err != nil {
					return err
				}
				stale = true
			}
			if shape.Get(intKey(l)) != nil {
				if err := shape.Delete(intKey(l)); err != nil {
					return err
				}
				stale = true
			}
			if !stale {
				return nil
			}
		}
	})
	if err != nil {
		return fmt.Errorf("truncating store to %d levels: %w", height, err)
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

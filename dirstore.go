package batchgcd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/ncw/gmp"
	"github.com/sugawarayuuta/sonnet"
)

const shapeFile = "shape.json"

// DirStore lays the product tree out on the filesystem: one directory
// per level, one file per element. The per-level element counts live in
// shape.json at the store root, rewritten on every shape update so that
// separate invocations can read levels back without scanning
// directories.
type DirStore struct {
	dir string

	mu    sync.RWMutex
	shape []int
}

// OpenDirStore opens the store rooted at dir, creating it if absent and
// loading any previously recorded shape.
func OpenDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	s := &DirStore{dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, shapeFile))
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading tree shape: %w", err)
	}
	if err := sonnet.Unmarshal(data, &s.shape); err != nil {
		return nil, fmt.Errorf("decoding tree shape: %w", err)
	}
	return s, nil
}

func (s *DirStore) levelDir(level int) string {
	return filepath.Join(s.dir, "level"+strconv.Itoa(level))
}

func (s *DirStore) elementPath(level, pos int) string {
	return filepath.Join(s.levelDir(level), strconv.Itoa(pos)+".int")
}

func (s *DirStore) WriteLevel(level int, xs []*gmp.Int) error {
	dir := s.levelDir(level)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing level %d: %w", level, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating level %d: %w", level, err)
	}
	for i, x := range xs {
		if err := os.WriteFile(s.elementPath(level, i), EncodeInt(x), 0644); err != nil {
			return fmt.Errorf("writing level %d position %d: %w", level, i, err)
		}
	}
	return s.RecordShape(level, len(xs))
}

func (s *DirStore) ReadLevel(level int) ([]*gmp.Int, error) {
	count, err := s.Shape(level)
	if err != nil {
		return nil, err
	}
	xs := make([]*gmp.Int, count)
	for i := 0; i < count; i++ {
		if xs[i], err = s.ReadElement(level, i); err != nil {
			return nil, err
		}
	}
	return xs, nil
}

func (s *DirStore) ReadElement(level, pos int) (*gmp.Int, error) {
	data, err := os.ReadFile(s.elementPath(level, pos))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: level %d position %d", ErrMissingLevel, level, pos)
	}
	if err != nil {
		return nil, fmt.Errorf("reading level %d position %d: %w", level, pos, err)
	}
	x, err := DecodeInt(data)
	if err != nil {
		return nil, fmt.Errorf("level %d position %d: %w", level, pos, err)
	}
	return x, nil
}

func (s *DirStore) RecordShape(level, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.shape) <= level {
		// -1 marks levels that were never recorded.
		s.shape = append(s.shape, -1)
	}
	s.shape[level] = count
	return s.writeShape()
}

// writeShape rewrites shape.json; callers hold mu.
func (s *DirStore) writeShape() error {
	data, err := sonnet.Marshal(s.shape)
	if err != nil {
		return fmt.Errorf("encoding tree shape: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, shapeFile), data, 0644); err != nil {
		return fmt.Errorf("writing tree shape: %w", err)
	}
	return nil
}

func (s *DirStore) Shape(level int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if level < 0 || level >= len(s.shape) || s.shape[level] < 0 {
		return 0, fmt.Errorf("%w: no shape for level %d", ErrMissingLevel, level)
	}
	return s.shape[level], nil
}

func (s *DirStore) Levels() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shape), nil
}

func (s *DirStore) Truncate(height int) error {
	s.mu.Lock()
	if len(s.shape) > height {
		s.shape = s.shape[:height]
		if err := s.writeShape(); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	for l := height; ; l++ {
		dir := s.levelDir(l)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return nil
		} else if err != nil {
			return fmt.Errorf("truncating level %d: %w", l, err)
		}
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("truncating level %d: %w", l, err)
		}
	}
}

func (s *DirStore) Close() error {
	return nil
}

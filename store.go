package batchgcd

import "github.com/ncw/gmp"

// A LevelStore holds the persisted levels of a product tree. Level 0 is
// the input moduli in their original order; the highest level holds the
// single root product. Writing a level also records its element count
// (the tree shape), so any later invocation can read a level back
// without scanning storage or rebuilding the tree.
type LevelStore interface {
	// WriteLevel persists every element of a level, addressable by
	// position, and records the level's shape. Rewriting a level
	// replaces it.
	WriteLevel(level int, xs []*gmp.Int) error

	// ReadLevel reads a whole level back in positional order, failing
	// with ErrMissingLevel if the level was never written.
	ReadLevel(level int) ([]*gmp.Int, error)

	// ReadElement reads the single element at (level, pos).
	ReadElement(level, pos int) (*gmp.Int, error)

	// RecordShape stores the element count for a level.
	RecordShape(level, count int) error

	// Shape returns the recorded element count for a level, failing
	// with ErrMissingLevel if none was recorded.
	Shape(level int) (int, error)

	// Levels returns the number of recorded levels; after a completed
	// build this is the height of the tree.
	Levels() (int, error)

	// Truncate removes every level at or above height, dropping the
	// stale upper levels a previous, taller build may have left
	// behind.
	Truncate(height int) error

	Close() error
}

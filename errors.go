package batchgcd

import "errors"

var (
	// ErrNoModuli is returned when the tree builder receives zero moduli.
	ErrNoModuli = errors.New("no moduli supplied")

	// ErrParse is returned for malformed input records.
	ErrParse = errors.New("malformed moduli record")

	// ErrDecode is returned when a persisted integer cannot be decoded.
	ErrDecode = errors.New("malformed integer encoding")

	// ErrMissingLevel is returned when a tree level or its shape is not in
	// the store.
	ErrMissingLevel = errors.New("tree level not in store")

	// ErrIncompleteTree is returned by the streaming remainder algorithm
	// when the top level of the persisted tree does not hold exactly one
	// element. The prior build is corrupt or truncated; rebuild the tree.
	ErrIncompleteTree = errors.New("incomplete product tree")

	// ErrInexactDivision is returned when a remainder is not divisible by
	// its modulus. The tree construction guarantees exactness, so this
	// signals a defective tree or remainder computation.
	ErrInexactDivision = errors.New("remainder not divisible by modulus")
)

package vhash

import "errors"

var (
	// ErrExhaustedVersionSpace is returned by every mutation of a lineage
	// once its version counter has reached the maximum version number.
	// The lineage can still be read but never written again.
	ErrExhaustedVersionSpace = errors.New("attempted to create more versions than the lineage can number")

	// ErrUnsupportedAsKey is returned when a Map, Set or Version is used as
	// a key or set member, or when one of them is asked for a hash code.
	ErrUnsupportedAsKey = errors.New("cannot use a versioned handle as a key in a map or set")
)

package vhash

import "fmt"

// Set is one version of a persistent hash set. Like Map, it never changes;
// Add and Delete return a handle for the next version.
type Set[V comparable] struct {
	t       *table[V, bool]
	version *Version
	size    int
}

// NewSet returns the empty root version of a new lineage.
func NewSet[V comparable](options *Options) *Set[V] {
	t := newTable[V](
		options.withDefaults(),
		func(present bool) bool { return present },
		func(a, b bool) bool { return a == b },
		false,
	)
	return &Set[V]{t: t, version: t.lin.root()}
}

// NewSetOf returns the root version of a new lineage holding values.
func NewSetOf[V comparable](options *Options, values ...V) (*Set[V], error) {
	s := NewSet[V](options)
	hashes, err := s.t.hasher.hashAll(values)
	if err != nil {
		return nil, err
	}
	s.size = s.t.seed(s.version, func(v view) int {
		added := 0
		for i, value := range values {
			if s.t.put(v, value, hashes[i], true).added() {
				added++
			}
		}
		return added
	})
	return s, nil
}

// Contains reports whether value is a member of this version. It panics
// with an error wrapping ErrUnsupportedAsKey if value is a handle.
func (s *Set[V]) Contains(value V) bool {
	return s.t.contains(s.version, value)
}

// Add returns the version of the set that also holds values. Adding only
// values the set already holds is a no-op, governed by the lineage's
// NoOpPolicy.
func (s *Set[V]) Add(values ...V) (*Set[V], error) {
	hashes, err := s.t.hasher.hashAll(values)
	if err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}
	child, delta, err := s.t.mutate(s.version, func(v view) (int, bool) {
		added := 0
		for i, value := range values {
			if s.t.put(v, value, hashes[i], true).added() {
				added++
			}
		}
		return added, added > 0
	})
	if err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}
	return s.successor(child, delta), nil
}

// Delete returns the version of the set without values.
func (s *Set[V]) Delete(values ...V) (*Set[V], error) {
	hashes, err := s.t.hasher.hashAll(values)
	if err != nil {
		return nil, fmt.Errorf("delete: %w", err)
	}
	child, delta, err := s.t.mutate(s.version, func(v view) (int, bool) {
		deleted := 0
		for i, value := range values {
			if s.t.delete(v, value, hashes[i]) {
				deleted++
			}
		}
		return -deleted, deleted > 0
	})
	if err != nil {
		return nil, fmt.Errorf("delete: %w", err)
	}
	return s.successor(child, delta), nil
}

func (s *Set[V]) successor(child *Version, delta int) *Set[V] {
	if child == nil {
		return s
	}
	return &Set[V]{t: s.t, version: child, size: s.size + delta}
}

// Clear returns the empty root of a new lineage with the same options.
func (s *Set[V]) Clear() *Set[V] {
	opts := s.t.opts
	return NewSet[V](&opts)
}

func (s *Set[V]) Size() int {
	return s.size
}

func (s *Set[V]) VersionNumber() uint32 {
	return s.version.number
}

func (s *Set[V]) Version() *Version {
	return s.version
}

// Iterator returns a single-pass iterator over the members of this version.
func (s *Set[V]) Iterator() *SetIterator[V] {
	return &SetIterator[V]{c: newCursor(s.t, s.version)}
}

// Iter invokes f for every member, stopping at the first error f returns.
func (s *Set[V]) Iter(f func(V) error) error {
	c := newCursor(s.t, s.version)
	for c.next() {
		if err := f(c.key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Set[V]) Stats() Stats {
	return s.t.stats(s.version, s.size)
}

// Hash always fails: a set cannot be used as a key.
func (s *Set[V]) Hash() (uint64, error) {
	return 0, ErrUnsupportedAsKey
}

func (s *Set[V]) lineageHandle() {}

func (s *Set[V]) String() string {
	return fmt.Sprintf("vhash.Set: %v, size=%d", s.version, s.size)
}

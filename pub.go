package vhash

import "fmt"

// Map is one version of a persistent hash map. It never changes: Put and
// Delete return a handle for the next version and leave the receiver as it
// was. All versions derived from one NewMap share a single table, so a new
// version costs one history node per written key rather than a copy.
//
// Handles are safe for concurrent use, including mutating different
// versions of one lineage at the same time.
type Map[K comparable, V any] struct {
	t       *table[K, slot[V]]
	version *Version
	size    int
}

// NewMap returns the empty root version of a new lineage.
func NewMap[K comparable, V any](options *Options) *Map[K, V] {
	opts := options.withDefaults()
	equal := opts.Equal
	t := newTable[K](
		opts,
		func(s slot[V]) bool { return s.ok },
		func(a, b slot[V]) bool { return equal(a.value, b.value) },
		slot[V]{},
	)
	return &Map[K, V]{t: t, version: t.lin.root()}
}

// NewMapOf returns the root version of a new lineage holding the given
// pairs. Later pairs win over earlier ones with the same key.
func NewMapOf[K comparable, V any](options *Options, pairs ...Pair[K, V]) (*Map[K, V], error) {
	m := NewMap[K, V](options)
	keys := make([]K, len(pairs))
	for i := range pairs {
		keys[i] = pairs[i].Key
	}
	hashes, err := m.t.hasher.hashAll(keys)
	if err != nil {
		return nil, err
	}
	m.size = m.t.seed(m.version, func(v view) int {
		added := 0
		for i, p := range pairs {
			if m.t.put(v, p.Key, hashes[i], slot[V]{p.Value, true}).added() {
				added++
			}
		}
		return added
	})
	return m, nil
}

// ContainsKey reports whether this version has a value for key. Like Get,
// it panics with an error wrapping ErrUnsupportedAsKey if key is a handle.
func (m *Map[K, V]) ContainsKey(key K) bool {
	return m.t.contains(m.version, key)
}

// Get returns the value this version has for key. A key that is a Map, Set
// or Version panics with an error wrapping ErrUnsupportedAsKey.
func (m *Map[K, V]) Get(key K) (V, bool) {
	s, _ := m.t.get(m.version, key)
	return s.value, s.ok
}

// Put returns the version of the map that also maps key to value. If the
// map already maps key to an equal value, the result depends on the
// lineage's NoOpPolicy.
func (m *Map[K, V]) Put(key K, value V) (*Map[K, V], error) {
	return m.PutPairs(Pair[K, V]{key, value})
}

// PutPairs puts all the pairs in a single new version.
func (m *Map[K, V]) PutPairs(pairs ...Pair[K, V]) (*Map[K, V], error) {
	keys := make([]K, len(pairs))
	for i := range pairs {
		keys[i] = pairs[i].Key
	}
	hashes, err := m.t.hasher.hashAll(keys)
	if err != nil {
		return nil, fmt.Errorf("put: %w", err)
	}
	child, delta, err := m.t.mutate(m.version, func(v view) (int, bool) {
		added, wrote := 0, false
		for i, p := range pairs {
			action := m.t.put(v, p.Key, hashes[i], slot[V]{p.Value, true})
			if action.added() {
				added++
			}
			if action != putNoOp {
				wrote = true
			}
		}
		return added, wrote
	})
	if err != nil {
		return nil, fmt.Errorf("put: %w", err)
	}
	return m.successor(child, delta), nil
}

// Delete returns the version of the map without the given keys. Keys the
// map doesn't have are ignored.
func (m *Map[K, V]) Delete(keys ...K) (*Map[K, V], error) {
	hashes, err := m.t.hasher.hashAll(keys)
	if err != nil {
		return nil, fmt.Errorf("delete: %w", err)
	}
	child, delta, err := m.t.mutate(m.version, func(v view) (int, bool) {
		deleted := 0
		for i, key := range keys {
			if m.t.delete(v, key, hashes[i]) {
				deleted++
			}
		}
		return -deleted, deleted > 0
	})
	if err != nil {
		return nil, fmt.Errorf("delete: %w", err)
	}
	return m.successor(child, delta), nil
}

func (m *Map[K, V]) successor(child *Version, delta int) *Map[K, V] {
	if child == nil {
		return m
	}
	return &Map[K, V]{t: m.t, version: child, size: m.size + delta}
}

// Clear returns the empty root of a new lineage with the same options.
func (m *Map[K, V]) Clear() *Map[K, V] {
	opts := m.t.opts
	return NewMap[K, V](&opts)
}

// Size returns the number of keys in this version.
func (m *Map[K, V]) Size() int {
	return m.size
}

// VersionNumber returns the number of this version within its lineage.
func (m *Map[K, V]) VersionNumber() uint32 {
	return m.version.number
}

// Version returns this map's version.
func (m *Map[K, V]) Version() *Version {
	return m.version
}

// KeyIterator returns a single-pass iterator over the keys of this version.
func (m *Map[K, V]) KeyIterator() *KeyIterator[K, V] {
	return &KeyIterator[K, V]{c: newCursor(m.t, m.version)}
}

// ValueIterator returns a single-pass iterator over the values of this
// version.
func (m *Map[K, V]) ValueIterator() *ValueIterator[K, V] {
	return &ValueIterator[K, V]{c: newCursor(m.t, m.version)}
}

// Iter invokes f for every key and value of this version, stopping at the
// first error f returns.
func (m *Map[K, V]) Iter(f func(K, V) error) error {
	c := newCursor(m.t, m.version)
	for c.next() {
		if err := f(c.key, c.payload.value); err != nil {
			return err
		}
	}
	return nil
}

// Stats describes this version and its lineage's table.
func (m *Map[K, V]) Stats() Stats {
	return m.t.stats(m.version, m.size)
}

// Hash always fails: a map cannot be used as a key.
func (m *Map[K, V]) Hash() (uint64, error) {
	return 0, ErrUnsupportedAsKey
}

func (m *Map[K, V]) lineageHandle() {}

func (m *Map[K, V]) String() string {
	return fmt.Sprintf("vhash.Map: %v, size=%d", m.version, m.size)
}

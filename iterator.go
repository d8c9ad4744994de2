package vhash

// cursor walks a table's entry arena, stopping at entries visible to one
// version. It holds the read lock only while stepping, so callers may
// mutate the lineage between steps; nothing they write is visible to the
// cursor's version anyway.
type cursor[K comparable, P any] struct {
	t       *table[K, P]
	version *Version
	pos     ref
	limit   ref
	key     K
	payload P
}

func newCursor[K comparable, P any](t *table[K, P], version *Version) *cursor[K, P] {
	return &cursor[K, P]{t: t, version: version, limit: t.arenaLimit()}
}

func (c *cursor[K, P]) next() bool {
	if c.pos >= c.limit {
		return false
	}
	c.pos, c.key, c.payload = c.t.step(c.version, c.pos, c.limit)
	return c.pos < c.limit
}

// KeyIterator iterates over the keys of one map version:
//
//	for it := m.KeyIterator(); it.Next(); {
//		key := it.Key()
//	}
//
// It cannot be restarted and does not support removal.
type KeyIterator[K comparable, V any] struct {
	c *cursor[K, slot[V]]
}

// Next advances to the next key, returning false when there are none left.
func (it *KeyIterator[K, V]) Next() bool {
	return it.c.next()
}

// Key returns the current key.
func (it *KeyIterator[K, V]) Key() K {
	return it.c.key
}

// ValueIterator iterates over the values of one map version.
type ValueIterator[K comparable, V any] struct {
	c *cursor[K, slot[V]]
}

// Next advances to the next value, returning false when there are none
// left.
func (it *ValueIterator[K, V]) Next() bool {
	return it.c.next()
}

// Value returns the current value.
func (it *ValueIterator[K, V]) Value() V {
	return it.c.payload.value
}

// SetIterator iterates over the members of one set version.
type SetIterator[V comparable] struct {
	c *cursor[V, bool]
}

// Next advances to the next member, returning false when there are none
// left.
func (it *SetIterator[V]) Next() bool {
	return it.c.next()
}

// Value returns the current member.
func (it *SetIterator[V]) Value() V {
	return it.c.key
}

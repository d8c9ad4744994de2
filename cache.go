package vhash

import lru "github.com/hashicorp/golang-lru"

// lookupCache remembers the outcome of lookups by (version, key). What a
// published version sees never changes, so entries never go stale and are
// only ever evicted.
type lookupCache[K comparable, P any] struct {
	arc *lru.ARCCache
}

type cacheKey[K comparable] struct {
	version uint32
	key     K
}

type cachedLookup[P any] struct {
	payload P
	found   bool
}

func newLookupCache[K comparable, P any](size int) *lookupCache[K, P] {
	if size <= 0 {
		return nil
	}
	arc, err := lru.NewARC(size)
	if err != nil {
		panic(err)
	}
	return &lookupCache[K, P]{arc: arc}
}

func (c *lookupCache[K, P]) get(version uint32, key K) (P, bool, bool) {
	if c == nil {
		var zero P
		return zero, false, false
	}
	v, ok := c.arc.Get(cacheKey[K]{version, key})
	if !ok {
		var zero P
		return zero, false, false
	}
	hit := v.(cachedLookup[P])
	return hit.payload, hit.found, true
}

func (c *lookupCache[K, P]) add(version uint32, key K, payload P, found bool) {
	if c == nil {
		return
	}
	c.arc.Add(cacheKey[K]{version, key}, cachedLookup[P]{payload, found})
}

func (c *lookupCache[K, P]) len() int {
	if c == nil {
		return 0
	}
	return c.arc.Len()
}

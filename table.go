package vhash

import (
	"fmt"

	"go.uber.org/zap"
)

// table is the chained hash table shared by every handle of a lineage. It
// never forgets a write: each key has one entry whose history records every
// value it had in every version, and readers pick the newest write their
// version can see.
//
// Entries and history nodes live in append-only arenas; buckets and links
// hold arena indexes. findEntry, visible, lookup, record, put, delete and
// rehash expect the caller to hold lin.mu, for writing when they mutate.
//
// present tells a value from a tombstone, and same compares two values.
type table[K comparable, P any] struct {
	lin       *lineage
	opts      Options
	hasher    keyHasher[K]
	buckets   []ref
	entries   []entry[K]
	nodes     []historyNode[P]
	live      int
	rehashes  int
	present   func(P) bool
	same      func(a, b P) bool
	tombstone P
	cache     *lookupCache[K, P]
}

func newTable[K comparable, P any](
	opts Options,
	present func(P) bool,
	same func(a, b P) bool,
	tombstone P,
) *table[K, P] {
	return &table[K, P]{
		lin:       newLineage(opts.MaxVersion),
		opts:      opts,
		hasher:    newKeyHasher[K](),
		buckets:   make([]ref, opts.InitialBuckets),
		entries:   make([]entry[K], 1, opts.InitialBuckets+1),
		nodes:     make([]historyNode[P], 1, opts.InitialBuckets+1),
		present:   present,
		same:      same,
		tombstone: tombstone,
		cache:     newLookupCache[K, P](opts.LookupCacheSize),
	}
}

// findEntry scans the chain of the key's bucket.
func (t *table[K, P]) findEntry(key K, hash uint64) ref {
	for e := t.buckets[bucketIndex(hash, len(t.buckets))]; e != nilRef; e = t.entries[e].next {
		if t.entries[e].hash == hash && t.entries[e].key == key {
			return e
		}
	}
	return nilRef
}

// visible returns the newest history node of e that v can see. Versions
// only ever see smaller numbers than their own, and histories are newest
// first, so the first hit is the value as of v, across branches too.
func (t *table[K, P]) visible(e ref, v view) ref {
	for n := t.entries[e].history; n != nilRef; n = t.nodes[n].next {
		if v.sees(t.nodes[n].version) {
			return n
		}
	}
	return nilRef
}

// lookup returns the payload visible to v for key, and whether any write of
// the key is visible at all.
func (t *table[K, P]) lookup(v view, key K, hash uint64) (P, bool) {
	var zero P
	e := t.findEntry(key, hash)
	if e == nilRef {
		return zero, false
	}
	n := t.visible(e, v)
	if n == nilRef {
		return zero, false
	}
	return t.nodes[n].payload, true
}

// get is the read path of the handles: it takes the read lock and consults
// the lookup cache. A key that can't be hashed is a usage error and panics,
// since nothing could ever have been stored under it.
func (t *table[K, P]) get(version *Version, key K) (P, bool) {
	if p, found, ok := t.cache.get(version.number, key); ok {
		return p, found
	}
	hash, err := t.hasher.hash(key)
	if err != nil {
		panic(fmt.Errorf("vhash: lookup: %w", err))
	}
	t.lin.mu.RLock()
	p, found := t.lookup(versionView(version), key, hash)
	t.lin.mu.RUnlock()
	t.cache.add(version.number, key, p, found)
	return p, found
}

// contains reports whether key has a present value visible to version.
func (t *table[K, P]) contains(version *Version, key K) bool {
	p, found := t.get(version, key)
	return found && t.present(p)
}

// record writes payload for entry e under v's label. A second write to the
// same entry under the same label, as in a batch naming a key twice,
// replaces the first so that version numbers stay strictly decreasing.
func (t *table[K, P]) record(e ref, v view, payload P) {
	label := v.label()
	head := t.entries[e].history
	if head != nilRef {
		if t.nodes[head].version == label {
			t.nodes[head].payload = payload
			return
		}
		if t.nodes[head].version > label {
			panic(fmt.Sprintf("bug! writing version %d over newer version %d", label, t.nodes[head].version))
		}
	}
	t.nodes = append(t.nodes, historyNode[P]{version: label, payload: payload, next: head})
	t.entries[e].history = ref(len(t.nodes) - 1)
}

// put writes a present payload for key as of v.
func (t *table[K, P]) put(v view, key K, hash uint64, payload P) putAction {
	e := t.findEntry(key, hash)
	if e == nilRef {
		i := bucketIndex(hash, len(t.buckets))
		t.entries = append(t.entries, entry[K]{key: key, hash: hash, next: t.buckets[i]})
		e = ref(len(t.entries) - 1)
		t.buckets[i] = e
		t.live++
		t.record(e, v, payload)
		if float64(t.live)/float64(len(t.buckets)) > t.opts.LoadFactor {
			t.rehash()
		}
		return putAddedEntry
	}
	action := putRevived
	if n := t.visible(e, v); n != nilRef && t.present(t.nodes[n].payload) {
		if t.same(t.nodes[n].payload, payload) {
			return putNoOp
		}
		action = putReplaced
	}
	t.record(e, v, payload)
	return action
}

// delete writes a tombstone for key as of v if v sees a value for it.
// Deleting a key v doesn't see writes nothing.
func (t *table[K, P]) delete(v view, key K, hash uint64) bool {
	e := t.findEntry(key, hash)
	if e == nilRef {
		return false
	}
	n := t.visible(e, v)
	if n == nilRef || !t.present(t.nodes[n].payload) {
		return false
	}
	t.record(e, v, t.tombstone)
	return true
}

// rehash relinks every entry into 2n+1 buckets. Histories travel with their
// entries untouched, so no version's view changes.
func (t *table[K, P]) rehash() {
	newBuckets := make([]ref, len(t.buckets)*2+1)
	for _, head := range t.buckets {
		e := head
		for e != nilRef {
			next := t.entries[e].next
			i := bucketIndex(t.entries[e].hash, len(newBuckets))
			t.entries[e].next = newBuckets[i]
			newBuckets[i] = e
			e = next
		}
	}
	t.buckets = newBuckets
	t.rehashes++
	if t.opts.Debug {
		t.opts.Logger.Debug("rehashed",
			zap.Int("buckets", len(t.buckets)),
			zap.Int("entries", t.live),
			zap.Int("rehashes", t.rehashes))
	}
}

// mutate runs apply against the pending child of parent and allocates the
// child if apply wrote anything, or always under AlwaysAllocate. Allocation
// and the writes it labels happen under one hold of the write lock, so no
// number is ever handed out without its writes or vice versa. A nil version
// means nothing changed and none was allocated.
func (t *table[K, P]) mutate(parent *Version, apply func(v view) (delta int, wrote bool)) (*Version, int, error) {
	t.lin.mu.Lock()
	defer t.lin.mu.Unlock()
	pending, err := t.lin.pending()
	if err != nil {
		return nil, 0, err
	}
	delta, wrote := apply(view{base: parent, pending: pending, hasPending: true})
	if !wrote && t.opts.NoOpPolicy == ReuseVersion {
		return nil, 0, nil
	}
	child, err := t.lin.next(parent)
	if err != nil {
		return nil, 0, err
	}
	if child.number != pending {
		panic(fmt.Sprintf("bug! allocated version %d, wrote under %d", child.number, pending))
	}
	return child, delta, nil
}

// seed writes initial contents at the root version, before any handle has
// been published.
func (t *table[K, P]) seed(root *Version, apply func(v view) int) int {
	t.lin.mu.Lock()
	defer t.lin.mu.Unlock()
	return apply(versionView(root))
}

// step advances a cursor to the next entry after pos, below limit, that has
// a present value visible to version.
func (t *table[K, P]) step(version *Version, pos, limit ref) (ref, K, P) {
	t.lin.mu.RLock()
	defer t.lin.mu.RUnlock()
	v := versionView(version)
	for pos++; pos < limit; pos++ {
		if n := t.visible(pos, v); n != nilRef && t.present(t.nodes[n].payload) {
			return pos, t.entries[pos].key, t.nodes[n].payload
		}
	}
	var k K
	var p P
	return limit, k, p
}

func (t *table[K, P]) arenaLimit() ref {
	t.lin.mu.RLock()
	defer t.lin.mu.RUnlock()
	return ref(len(t.entries))
}

// Stats describes a handle and the table it shares with its lineage.
type Stats struct {
	// Size and Version describe the handle the stats were taken from.
	Size    int
	Version uint32
	// Entries counts distinct keys ever written to the table.
	Entries int
	// HistoryNodes counts writes recorded across all versions.
	HistoryNodes int
	Buckets      int
	Rehashes     int
	// LongestChain is the longest bucket chain.
	LongestChain int
	// LongestHistory is the longest history list of any entry.
	LongestHistory int
	// HighestVersion is the highest version number allocated so far.
	HighestVersion uint32
	// BranchClones counts ancestor sets copied at branch points.
	BranchClones uint64
	// CachedLookups is the number of lookups held by the lookup cache.
	CachedLookups int
	Exhausted     bool
}

func (t *table[K, P]) stats(version *Version, size int) Stats {
	t.lin.mu.RLock()
	defer t.lin.mu.RUnlock()
	s := Stats{
		Size:           size,
		Version:        version.number,
		Entries:        t.live,
		HistoryNodes:   len(t.nodes) - 1,
		Buckets:        len(t.buckets),
		Rehashes:       t.rehashes,
		HighestVersion: t.lin.highest,
		BranchClones:   t.lin.branchClones,
		CachedLookups:  t.cache.len(),
		Exhausted:      t.lin.exhausted,
	}
	for _, head := range t.buckets {
		chain := 0
		for e := head; e != nilRef; e = t.entries[e].next {
			chain++
			history := 0
			for n := t.entries[e].history; n != nilRef; n = t.nodes[n].next {
				history++
			}
			if history > s.LongestHistory {
				s.LongestHistory = history
			}
		}
		if chain > s.LongestChain {
			s.LongestChain = chain
		}
	}
	return s
}

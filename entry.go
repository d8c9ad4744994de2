package vhash

// ref indexes one of a table's arenas. Slot 0 of every arena is unused so
// the zero ref means "none".
type ref uint32

const nilRef ref = 0

// entry is the bucket node for one distinct key ever written to a table.
type entry[K comparable] struct {
	key     K
	hash    uint64
	next    ref
	history ref
}

// historyNode records one write to an entry. An entry's history list is
// ordered newest first with strictly decreasing version numbers.
type historyNode[P any] struct {
	version uint32
	payload P
	next    ref
}

// slot is the payload of a map write. ok is false for a deletion.
type slot[V any] struct {
	value V
	ok    bool
}

// putAction says what a put did to the table.
type putAction int

const (
	// putNoOp: the same value was already visible; nothing was written.
	putNoOp putAction = iota
	// putAddedEntry: the key had never been written; a new entry was made.
	putAddedEntry
	// putRevived: the entry existed but was not visible to the version,
	// either because it was deleted or because it was written on another
	// branch.
	putRevived
	// putReplaced: a different value was visible and has been superseded.
	putReplaced
)

func (a putAction) added() bool {
	return a == putAddedEntry || a == putRevived
}

// Pair carries one key and value for a batched put.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// handle is implemented by the types that must never be used as keys.
type handle interface {
	lineageHandle()
}

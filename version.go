package vhash

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// DefaultMaxVersion is the highest version number a lineage hands out unless
// Options.MaxVersion says otherwise.
const DefaultMaxVersion = math.MaxInt32

// lineage is the state shared by every version descended from one root: the
// lock that serializes table mutation and the counter of allocated version
// numbers.
type lineage struct {
	mu           sync.RWMutex
	highest      uint32
	max          uint32
	exhausted    bool
	branchClones uint64
}

// ancestry is a set of version numbers that one or more versions share.
// Only the version numbered tip may extend it in place; every other version
// holding it treats it as read-only.
type ancestry struct {
	bits *bitset.BitSet
	tip  uint32
}

// Version identifies one snapshot in a branching history.
type Version struct {
	number    uint32
	ancestors *ancestry
	lin       *lineage
}

func newLineage(max uint32) *lineage {
	if max == 0 {
		max = DefaultMaxVersion
	}
	return &lineage{max: max}
}

func (l *lineage) root() *Version {
	bits := bitset.New(64)
	bits.Set(0)
	return &Version{
		number:    0,
		ancestors: &ancestry{bits: bits, tip: 0},
		lin:       l,
	}
}

// pending returns the number the next version of this lineage will get,
// without allocating it. Callers hold l.mu for writing.
func (l *lineage) pending() (uint32, error) {
	if l.exhausted || l.highest >= l.max {
		l.exhausted = true
		return 0, ErrExhaustedVersionSpace
	}
	return l.highest + 1, nil
}

// next allocates the child of parent. Callers hold l.mu for writing.
func (l *lineage) next(parent *Version) (*Version, error) {
	number, err := l.pending()
	if err != nil {
		return nil, err
	}
	var anc *ancestry
	if parent.ancestors.tip == parent.number {
		// Nobody has extended parent's set yet, so the child can take it over.
		anc = parent.ancestors
	} else {
		bits := parent.ancestors.bits.Clone()
		for i, ok := bits.NextSet(uint(parent.number) + 1); ok; i, ok = bits.NextSet(i + 1) {
			bits.Clear(i)
		}
		anc = &ancestry{bits: bits}
		l.branchClones++
	}
	anc.bits.Set(uint(number))
	anc.tip = number
	l.highest = number
	return &Version{number: number, ancestors: anc, lin: l}, nil
}

// sees reports whether a write labelled n is visible to v. Callers hold
// v.lin.mu.
func (v *Version) sees(n uint32) bool {
	return n == v.number || (n < v.number && v.ancestors.bits.Test(uint(n)))
}

// Number returns the version number, unique within the lineage.
func (v *Version) Number() uint32 {
	return v.number
}

// IsAncestor reports whether version number n lies on the path from the
// lineage root to v. A version is its own ancestor.
func (v *Version) IsAncestor(n uint32) bool {
	v.lin.mu.RLock()
	defer v.lin.mu.RUnlock()
	return v.sees(n)
}

// Hash always fails; versions are not meant to be used as keys.
func (v *Version) Hash() (uint64, error) {
	return 0, ErrUnsupportedAsKey
}

func (v *Version) lineageHandle() {}

func (v *Version) String() string {
	v.lin.mu.RLock()
	defer v.lin.mu.RUnlock()
	var sb strings.Builder
	fmt.Fprintf(&sb, "version: %d, ancestors:", v.number)
	for i, ok := v.ancestors.bits.NextSet(0); ok && i <= uint(v.number); i, ok = v.ancestors.bits.NextSet(i + 1) {
		fmt.Fprintf(&sb, " %d", i)
	}
	return sb.String()
}

// view is what a table consults to decide visibility. During a mutation it
// is the parent version plus the number its child is about to get.
type view struct {
	base       *Version
	pending    uint32
	hasPending bool
}

func versionView(v *Version) view {
	return view{base: v}
}

func (v view) sees(n uint32) bool {
	if v.hasPending && n == v.pending {
		return true
	}
	return v.base.sees(n)
}

// label is the version number writes made through this view carry.
func (v view) label() uint32 {
	if v.hasPending {
		return v.pending
	}
	return v.base.number
}

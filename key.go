package vhash

import (
	"fmt"
	"hash/maphash"
)

// keyHasher computes the cached hash codes of a table's keys. The seed is
// chosen per lineage, so hash codes and bucket order differ between
// lineages and between runs.
type keyHasher[K comparable] struct {
	seed maphash.Seed
}

func newKeyHasher[K comparable]() keyHasher[K] {
	return keyHasher[K]{seed: maphash.MakeSeed()}
}

func (h keyHasher[K]) hash(key K) (uint64, error) {
	if _, ok := any(key).(handle); ok {
		return 0, fmt.Errorf("key of type %T: %w", key, ErrUnsupportedAsKey)
	}
	return maphash.Comparable(h.seed, key), nil
}

// hashAll hashes every key up front, so a mutation can be refused before
// anything has been written under its pending version.
func (h keyHasher[K]) hashAll(keys []K) ([]uint64, error) {
	hashes := make([]uint64, len(keys))
	for i, key := range keys {
		var err error
		hashes[i], err = h.hash(key)
		if err != nil {
			return nil, err
		}
	}
	return hashes, nil
}

func bucketIndex(hash uint64, buckets int) int {
	return int(hash % uint64(buckets))
}

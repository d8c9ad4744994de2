package vhash

import (
	"encoding/base64"

	"github.com/minio/blake2b-simd"
)

// digester folds per-entry hashes into an order-independent content hash,
// so two versions with the same contents digest alike whatever order their
// keys were written in, across lineages too.
type digester struct {
	marshal func(interface{}) ([]byte, error)
	sum     [32]byte
}

func (d *digester) add(key interface{}, value interface{}, hasValue bool) error {
	encoded, err := encodeEntry(key, value, hasValue, d.marshal)
	if err != nil {
		return err
	}
	h := blake2b.Sum256(encoded)
	for i := range d.sum {
		d.sum[i] ^= h[i]
	}
	return nil
}

func (d *digester) String() string {
	return base64.RawURLEncoding.EncodeToString(d.sum[:])
}

// Digest returns a content hash of this version, using the lineage's
// Marshal for keys and values.
func (m *Map[K, V]) Digest() (string, error) {
	d := digester{marshal: m.t.opts.Marshal}
	err := m.Iter(func(key K, value V) error {
		return d.add(key, value, true)
	})
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

// Digest returns a content hash of this version's members.
func (s *Set[V]) Digest() (string, error) {
	d := digester{marshal: s.t.opts.Marshal}
	err := s.Iter(func(value V) error {
		return d.add(value, nil, false)
	})
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

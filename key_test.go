package vhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyHasher(t *testing.T) {
	t.Parallel()
	h := newKeyHasher[string]()
	a1, err := h.hash("a")
	require.NoError(t, err)
	a2, err := h.hash("a")
	require.NoError(t, err)
	b, err := h.hash("b")
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)

	hashes, err := h.hashAll([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []uint64{a1, b}, hashes)
}

func TestKeyHasherInterfaceKeys(t *testing.T) {
	t.Parallel()
	h := newKeyHasher[interface{}]()
	x, err := h.hash(1)
	require.NoError(t, err)
	y, err := h.hash(int64(1))
	require.NoError(t, err)
	// Different dynamic types are different keys.
	assert.NotEqual(t, x, y)

	_, err = h.hashAll([]interface{}{1, NewSet[int](nil)})
	assert.ErrorIs(t, err, ErrUnsupportedAsKey)
}

func TestBucketIndex(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, bucketIndex(0, 11))
	assert.Equal(t, 10, bucketIndex(21, 11))
	assert.Equal(t, int(^uint64(0)%7), bucketIndex(^uint64(0), 7))
}

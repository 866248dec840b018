package cuckoo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketInsertAndGet(t *testing.T) {
	var b bucket[string]

	require.True(t, b.insert(1, "one"))
	require.True(t, b.insert(2, "two"))

	v, ok := b.get(1)
	require.True(t, ok)
	assert.Equal(t, "one", v)

	assert.True(t, b.contains(2))
	assert.False(t, b.contains(3))
	assert.Equal(t, 2, b.size())
}

func TestBucketInsertFull(t *testing.T) {
	var b bucket[int]

	for i := 0; i < slotsPerBucket; i++ {
		require.True(t, b.insert(uint64(i), i))
	}

	assert.False(t, b.insert(99, 99))
	assert.Equal(t, slotsPerBucket, b.size())
}

func TestBucketInsertOrEvict(t *testing.T) {
	var b bucket[int]

	// with room, behaves like insert
	_, _, evicted := b.insertOrEvict(1, 10)
	assert.False(t, evicted)

	for i := 2; i <= slotsPerBucket; i++ {
		_, _, evicted = b.insertOrEvict(uint64(i), i*10)
		require.False(t, evicted)
	}

	// full bucket kicks out the last slot
	ekey, evalue, evicted := b.insertOrEvict(99, 990)
	require.True(t, evicted)
	assert.Equal(t, uint64(slotsPerBucket), ekey)
	assert.Equal(t, slotsPerBucket*10, evalue)

	v, ok := b.get(99)
	require.True(t, ok)
	assert.Equal(t, 990, v)
	assert.False(t, b.contains(uint64(slotsPerBucket)))
	assert.Equal(t, slotsPerBucket, b.size())
}

func TestBucketRemoveKeepsLeftPacking(t *testing.T) {
	var b bucket[int]

	for i := 0; i < slotsPerBucket; i++ {
		require.True(t, b.insert(uint64(i), i))
	}

	v, ok := b.remove(1)
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, slotsPerBucket-1, b.size())

	// survivors shifted left, no gap
	for i, want := range []uint64{0, 2, 3} {
		assert.True(t, b.slots[i].occupied)
		assert.Equal(t, want, b.slots[i].key)
	}
	assert.False(t, b.slots[slotsPerBucket-1].occupied)

	// removing the only remaining first slot
	_, ok = b.remove(0)
	require.True(t, ok)
	assert.Equal(t, uint64(2), b.slots[0].key)
}

func TestBucketRemoveAbsent(t *testing.T) {
	var b bucket[int]
	require.True(t, b.insert(1, 1))

	_, ok := b.remove(2)
	assert.False(t, ok)
	assert.Equal(t, 1, b.size())
}

func TestBucketZeroKey(t *testing.T) {
	var b bucket[string]

	// key 0 is a valid key, occupancy is tracked by the flag
	require.True(t, b.insert(0, "zero"))
	assert.True(t, b.contains(0))

	v, ok := b.remove(0)
	require.True(t, ok)
	assert.Equal(t, "zero", v)
	assert.Equal(t, 0, b.size())
}

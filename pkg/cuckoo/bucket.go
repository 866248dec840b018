package cuckoo

// slotsPerBucket is the number of key/value slots in a bucket. With 8-byte
// keys and word-sized values a bucket spans roughly one 64-byte cache line.
const slotsPerBucket = 4

type slot[V any] struct {
	key      uint64
	value    V
	occupied bool
}

// bucket is a fixed array of slots. Occupied slots are left-packed: if a
// slot is empty, every slot after it is empty too, so scans stop at the
// first empty slot.
type bucket[V any] struct {
	slots [slotsPerBucket]slot[V]
}

func (b *bucket[V]) contains(key uint64) bool {
	_, ok := b.get(key)
	return ok
}

func (b *bucket[V]) get(key uint64) (V, bool) {
	for i := range b.slots {
		if !b.slots[i].occupied {
			break
		}
		if b.slots[i].key == key {
			return b.slots[i].value, true
		}
	}

	var zero V
	return zero, false
}

// insert places the pair in the first empty slot and reports whether the
// bucket had room.
func (b *bucket[V]) insert(key uint64, value V) bool {
	for i := range b.slots {
		if !b.slots[i].occupied {
			b.slots[i] = slot[V]{key: key, value: value, occupied: true}
			return true
		}
	}

	return false
}

// insertOrEvict places the pair in the first empty slot. If the bucket is
// full it overwrites the last slot instead and returns the pair that was
// kicked out.
func (b *bucket[V]) insertOrEvict(key uint64, value V) (uint64, V, bool) {
	if b.insert(key, value) {
		var zero V
		return 0, zero, false
	}

	last := &b.slots[slotsPerBucket-1]
	ekey, evalue := last.key, last.value
	last.key, last.value = key, value

	return ekey, evalue, true
}

// remove deletes the pair holding key and shifts every following occupied
// slot left by one, keeping the bucket left-packed.
func (b *bucket[V]) remove(key uint64) (V, bool) {
	for i := range b.slots {
		if !b.slots[i].occupied {
			break
		}
		if b.slots[i].key != key {
			continue
		}

		value := b.slots[i].value
		for j := i + 1; j < slotsPerBucket && b.slots[j].occupied; j++ {
			b.slots[j-1] = b.slots[j]
			i = j
		}
		b.slots[i] = slot[V]{}

		return value, true
	}

	var zero V
	return zero, false
}

// size returns the number of occupied slots.
func (b *bucket[V]) size() int {
	n := 0
	for i := range b.slots {
		if !b.slots[i].occupied {
			break
		}
		n++
	}

	return n
}

package cuckoo

import "github.com/optable/cuckoostash/internal/hash"

// grow doubles the bucket count until every resident settles in the new
// tables. The retry capacity is strictly increasing, so the loop
// terminates; entries are reshuffled, never dropped.
func (t *Table[V]) grow(target uint64) {
	for nb := target; ; nb *= 2 {
		if t.rebuild(nb, t.hashers) {
			t.grows++
			t.logger.V(1).Info("grew table",
				"buckets", t.nbuckets, "entries", t.entries, "stash", t.stash.size())
			return
		}
	}
}

// maybeShrink halves the bucket count once occupancy falls below a
// quarter of the grow threshold. Shrinking at a quarter of total slots
// instead would land right back above the grow threshold after halving.
// A shrink that cannot settle is abandoned and the table keeps its size.
func (t *Table[V]) maybeShrink() {
	if t.nbuckets <= minBuckets || t.entries >= t.growThreshold()/4 {
		return
	}

	if t.rebuild(t.nbuckets/2, t.hashers) {
		t.shrinks++
		t.logger.V(1).Info("shrunk table", "buckets", t.nbuckets, "entries", t.entries)
	}
}

// rehash draws fresh seeds and rebuilds at the current size to break a
// displacement cycle, retrying with new seeds up to maxReseeds times.
// It returns errRehashExhausted when every attempt cycled, and the
// entropy source's error if drawing seeds fails; the table is untouched
// in both cases.
func (t *Table[V]) rehash() error {
	for i := 0; i < maxReseeds; i++ {
		hashers, err := t.newHashers()
		if err != nil {
			return err
		}

		if t.rebuild(t.nbuckets, hashers) {
			t.rehashes++
			t.logger.V(1).Info("rehashed table",
				"attempts", i+1, "buckets", t.nbuckets, "entries", t.entries)
			return nil
		}
	}

	return errRehashExhausted
}

// rebuild allocates fresh tables of nbuckets buckets and reinserts every
// occupied slot from both tables and the stash under hashers, using the
// eviction loop with no stash fallback and no escalation. The fresh
// tables are swapped in only when every resident settles; on a cycle the
// old tables stay live and intact. The stash always drains into the
// fresh tables, and the entry count never changes.
func (t *Table[V]) rebuild(nbuckets uint64, hashers [ntables]hash.Hasher) bool {
	var fresh [ntables][]bucket[V]
	for i := range fresh {
		fresh[i] = make([]bucket[V], nbuckets)
	}
	maxTries := triesFor(nbuckets)

	reinsert := func(key uint64, value V) bool {
		for i := 0; i < maxTries; i++ {
			ti := i % ntables
			b := &fresh[ti][hashers[ti].Hash64(key)&(nbuckets-1)]

			ekey, evalue, evicted := b.insertOrEvict(key, value)
			if !evicted {
				return true
			}
			key, value = ekey, evalue
		}

		return false
	}

	for ti := range t.tables {
		for bi := range t.tables[ti] {
			b := &t.tables[ti][bi]
			for si := 0; si < slotsPerBucket && b.slots[si].occupied; si++ {
				if !reinsert(b.slots[si].key, b.slots[si].value) {
					return false
				}
			}
		}
	}
	for si := 0; si < slotsPerBucket && t.stash.slots[si].occupied; si++ {
		if !reinsert(t.stash.slots[si].key, t.stash.slots[si].value) {
			return false
		}
	}

	t.tables = fresh
	t.stash = bucket[V]{}
	t.nbuckets = nbuckets
	t.maxTries = maxTries
	t.hashers = hashers

	return true
}

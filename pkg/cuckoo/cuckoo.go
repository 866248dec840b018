// Package cuckoo implements a bucketized two-table cuckoo hash table with
// an overflow stash, mapping 64-bit keys to caller-owned values. Each key
// has one candidate bucket per table; insertion displaces resident keys to
// their alternate bucket until everything settles, spilling to the stash
// and escalating to a reseed or a capacity doubling when a displacement
// cycle cannot be broken. The table is not safe for concurrent use.
package cuckoo

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/go-logr/logr"

	"github.com/optable/cuckoostash/internal/hash"
	"github.com/optable/cuckoostash/internal/seed"
)

const (
	// ntables is the number of independently seeded tables, the minimum
	// for cuckoo displacement.
	ntables = 2

	// minBuckets is the smallest per-table bucket count.
	minBuckets = 1

	// evictionFanout scales the logarithmic safe displacement depth of
	// the table into the eviction loop bound.
	evictionFanout = 16

	// maxReseeds is the number of fresh seed pairs a rehash may try
	// before giving up so the insert path grows the table instead.
	maxReseeds = 8
)

// errRehashExhausted reports that maxReseeds rehash attempts all hit a
// displacement cycle. Recoverable by growing; never returned to callers.
var errRehashExhausted = fmt.Errorf("exhausted %d rehash attempts", maxReseeds)

// Table is a cuckoo hash table from uint64 keys to values of type V.
// Values are stored verbatim; the table never inspects them. Every key
// occupies at most one slot across both tables and the stash.
type Table[V any] struct {
	// per-table bucket count, always a power of two
	nbuckets uint64
	entries  uint64
	maxTries int

	hashers [ntables]hash.Hasher
	tables  [ntables][]bucket[V]
	stash   bucket[V]

	hashKind int
	entropy  *seed.Source
	logger   logr.Logger

	grows    uint64
	shrinks  uint64
	rehashes uint64
}

// Option configures a Table at construction.
type Option[V any] func(*Table[V])

// WithLogger directs structural events (grow, shrink, rehash) to logger
// at verbosity 1. The default discards them.
func WithLogger[V any](logger logr.Logger) Option[V] {
	return func(t *Table[V]) {
		t.logger = logger
	}
}

// WithEntropy seeds the hash functions from entropy instead of the
// platform CSPRNG. Tests pass a deterministic reader here.
func WithEntropy[V any](entropy io.Reader) Option[V] {
	return func(t *Table[V]) {
		t.entropy = seed.NewSource(entropy)
	}
}

// WithHashKind selects the seeded hash family from the hash package
// (hash.Murmur3, hash.Metro or hash.Highway). Murmur3 is the default.
func WithHashKind[V any](kind int) Option[V] {
	return func(t *Table[V]) {
		t.hashKind = kind
	}
}

// New returns an empty table sized to hold capacity entries before the
// first grow. Both tables and the stash are allocated up front and the
// two hash functions are seeded from the entropy source.
func New[V any](capacity uint64, opts ...Option[V]) (*Table[V], error) {
	t := &Table[V]{
		hashKind: hash.Murmur3,
		logger:   logr.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.entropy == nil {
		t.entropy = seed.NewSource(nil)
	}

	hashers, err := t.newHashers()
	if err != nil {
		return nil, fmt.Errorf("cuckoo: seeding hash functions: %w", err)
	}

	t.hashers = hashers
	t.nbuckets = bucketsFor(capacity)
	t.maxTries = triesFor(t.nbuckets)
	for i := range t.tables {
		t.tables[i] = make([]bucket[V], t.nbuckets)
	}

	return t, nil
}

// bucketsFor converts a desired entry capacity into a per-table bucket
// count, rounded up to a power of two so bucket indexing is a mask.
func bucketsFor(capacity uint64) uint64 {
	n := (capacity + slotsPerBucket - 1) / slotsPerBucket
	if n < minBuckets {
		n = minBuckets
	}
	if n&(n-1) != 0 {
		n = 1 << bits.Len64(n)
	}

	return n
}

// triesFor bounds the eviction loop at a constant multiple of the
// logarithm of the per-table slot count.
func triesFor(nbuckets uint64) int {
	depth := bits.Len64(nbuckets*slotsPerBucket - 1)
	if depth < 1 {
		depth = 1
	}

	return evictionFanout * depth
}

func (t *Table[V]) newHashers() ([ntables]hash.Hasher, error) {
	var hashers [ntables]hash.Hasher

	salts, err := t.entropy.Salts(ntables)
	if err != nil {
		return hashers, err
	}
	for i, salt := range salts {
		if hashers[i], err = hash.New(t.hashKind, salt); err != nil {
			return hashers, err
		}
	}

	return hashers, nil
}

// bucketIndex returns key's candidate bucket in table ti.
func (t *Table[V]) bucketIndex(ti int, key uint64) uint64 {
	return t.hashers[ti].Hash64(key) & (t.nbuckets - 1)
}

// Get returns the value stored under key, probing the first table, the
// second table, then the stash.
func (t *Table[V]) Get(key uint64) (V, bool) {
	for ti := range t.tables {
		if value, ok := t.tables[ti][t.bucketIndex(ti, key)].get(key); ok {
			return value, true
		}
	}

	return t.stash.get(key)
}

// Exists reports whether key is present.
func (t *Table[V]) Exists(key uint64) bool {
	_, ok := t.Get(key)
	return ok
}

// Len returns the number of entries.
func (t *Table[V]) Len() uint64 {
	return t.entries
}

// Insert stores value under key. Inserting a key that is already present
// is a no-op success: the stored value is kept and the entry count does
// not change. A displacement cycle escalates to a reseed and, when that
// cannot settle the table, to a capacity doubling, so Insert never drops
// a resident; the returned error is nil in the current implementation.
func (t *Table[V]) Insert(key uint64, value V) error {
	if t.Exists(key) {
		return nil
	}

	if t.entries+1 > t.growThreshold() {
		t.grow(t.nbuckets * 2)
	}

	for {
		homelessKey, homelessValue, placed := t.evictInsert(key, value)
		if placed {
			t.entries++
			return nil
		}

		// The chain hit maxTries with a full stash: a displacement cycle.
		// Fresh seeds usually break it; grow when reseeding is exhausted
		// or its entropy draw fails, since growth reuses the current
		// seeds and always terminates. A failed reseed must not surface
		// here: the chain has displaced a resident out of the tables,
		// and only another placement pass can bring it back.
		if err := t.rehash(); err != nil {
			if err != errRehashExhausted {
				t.logger.Error(err, "reseed failed, growing with current seeds")
			}
			t.grow(t.nbuckets * 2)
		}

		// The pair left homeless by a failed chain is not necessarily the
		// caller's: the new key may hold a slot while an older resident
		// was displaced out. Carry whichever pair ended up without one.
		key, value = homelessKey, homelessValue
	}
}

// evictInsert runs the bounded eviction loop for one pair, falling back
// to the stash. On failure it returns the pair left without a slot.
func (t *Table[V]) evictInsert(key uint64, value V) (uint64, V, bool) {
	for i := 0; i < t.maxTries; i++ {
		ti := i % ntables
		b := &t.tables[ti][t.bucketIndex(ti, key)]

		ekey, evalue, evicted := b.insertOrEvict(key, value)
		if !evicted {
			var zero V
			return 0, zero, true
		}
		key, value = ekey, evalue
	}

	if t.stash.insert(key, value) {
		var zero V
		return 0, zero, true
	}

	return key, value, false
}

// Remove deletes key and returns its value, probing the first table, the
// second table, then the stash. Removing an absent key changes nothing.
func (t *Table[V]) Remove(key uint64) (V, bool) {
	for ti := range t.tables {
		if value, ok := t.tables[ti][t.bucketIndex(ti, key)].remove(key); ok {
			t.entries--
			t.maybeShrink()
			return value, true
		}
	}

	if value, ok := t.stash.remove(key); ok {
		t.entries--
		t.maybeShrink()
		return value, true
	}

	var zero V
	return zero, false
}

// growThreshold is the high-water mark for proactive growth:
// nbuckets * B * (2B-1) / (2B) entries, about half of total slot capacity.
func (t *Table[V]) growThreshold() uint64 {
	return t.nbuckets * slotsPerBucket * (2*slotsPerBucket - 1) / (2 * slotsPerBucket)
}

// Clear drops both tables and the stash and zeroes the counters. The
// table must not be used afterwards; build a new one with New.
func (t *Table[V]) Clear() {
	for i := range t.tables {
		t.tables[i] = nil
	}
	t.stash = bucket[V]{}
	t.nbuckets = 0
	t.entries = 0
	t.maxTries = 0
}

// Stats reports occupancy and structural-event counters.
type Stats struct {
	Entries    uint64
	Buckets    uint64 // per table
	Slots      uint64 // across both tables, excluding the stash
	LoadFactor float64
	StashLen   int
	Grows      uint64
	Shrinks    uint64
	Rehashes   uint64
}

// Stats returns a snapshot of the table's occupancy and counters.
func (t *Table[V]) Stats() Stats {
	slots := ntables * t.nbuckets * slotsPerBucket

	var load float64
	if slots > 0 {
		load = float64(t.entries) / float64(slots)
	}

	return Stats{
		Entries:    t.entries,
		Buckets:    t.nbuckets,
		Slots:      slots,
		LoadFactor: load,
		StashLen:   t.stash.size(),
		Grows:      t.grows,
		Shrinks:    t.shrinks,
		Rehashes:   t.rehashes,
	}
}

package hash

import (
	"fmt"

	"github.com/alecthomas/unsafeslice"
	"github.com/minio/highwayhash"
	"github.com/shivakar/metrohash"
	"github.com/twmb/murmur3"
)

const (
	// SaltLength is the fixed byte length of the salt that seeds a Hasher.
	// It matches the key length required by highwayhash.
	SaltLength = 32

	Murmur3 = iota
	Metro
	Highway
)

var (
	ErrUnknownHash        = fmt.Errorf("cannot create a hasher of unknown hash type")
	ErrSaltLengthMismatch = fmt.Errorf("provided salt is not %d length", SaltLength)
)

// Hasher maps a 64-bit key to a 64-bit digest. Two Hashers built from
// independent salts produce independent digests for the same key.
type Hasher interface {
	Hash64(key uint64) uint64
}

// New creates a hasher of type t seeded with salt.
func New(t int, salt []byte) (Hasher, error) {
	switch t {
	case Murmur3:
		return NewMurmur3Hasher(salt)
	case Metro:
		return NewMetroHasher(salt)
	case Highway:
		return NewHighwayHasher(salt)
	default:
		return nil, ErrUnknownHash
	}
}

// keyBytes views a uint64 key as its 8 in-memory bytes without copying.
func keyBytes(key uint64) []byte {
	return unsafeslice.ByteSliceFromUint64Slice([]uint64{key})
}

// Murmur3 implementation of Hasher
type murmur64 struct {
	salt []byte
}

// NewMurmur3Hasher returns a Murmur3 hasher that uses salt as a prefix to
// the key bytes being summed
func NewMurmur3Hasher(salt []byte) (murmur64, error) {
	if len(salt) != SaltLength {
		return murmur64{}, ErrSaltLengthMismatch
	}

	return murmur64{salt: salt}, nil
}

func (t murmur64) Hash64(key uint64) uint64 {
	// prepend the salt and then Sum
	return murmur3.Sum64(append(t.salt[:len(t.salt):len(t.salt)], keyBytes(key)...))
}

// Metro Hash implementation of Hasher
type metro struct {
	salt []byte
}

// NewMetroHasher returns a metro hasher that uses salt as a prefix to
// the key bytes being summed
func NewMetroHasher(salt []byte) (metro, error) {
	if len(salt) != SaltLength {
		return metro{}, ErrSaltLengthMismatch
	}

	return metro{salt: salt}, nil
}

func (m metro) Hash64(key uint64) uint64 {
	h := metrohash.NewMetroHash64()
	h.Write(m.salt)
	h.Write(keyBytes(key))
	return h.Sum64()
}

// Highway Hash implementation of Hasher
type highway struct {
	salt []byte
}

// NewHighwayHasher returns a highwayhash hasher keyed with salt.
func NewHighwayHasher(salt []byte) (highway, error) {
	if len(salt) != SaltLength {
		return highway{}, ErrSaltLengthMismatch
	}

	return highway{salt: salt}, nil
}

func (h highway) Hash64(key uint64) uint64 {
	return highwayhash.Sum64(keyBytes(key), h.salt)
}

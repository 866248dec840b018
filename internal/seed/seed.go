package seed

import (
	crand "crypto/rand"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// Length is the byte length of a master seed and of every derived salt.
const Length = 32

// Source draws master seeds from an entropy reader and expands them into
// hash salts. The zero entropy reader is replaced with the platform CSPRNG,
// so callers only supply a reader when they need deterministic seeding
// (tests, reproducing a failure).
type Source struct {
	entropy io.Reader
	h       *blake3.Hasher
}

// NewSource returns a Source reading from entropy, or from crypto/rand
// when entropy is nil.
func NewSource(entropy io.Reader) *Source {
	if entropy == nil {
		entropy = crand.Reader
	}

	return &Source{
		entropy: entropy,
		h:       blake3.New(),
	}
}

// Salts draws one master seed from the entropy source and expands it into
// n independent salts of Length bytes each. Two calls return unrelated
// salts unless the entropy source repeats itself.
func (s *Source) Salts(n int) ([][]byte, error) {
	master := make([]byte, Length)
	if _, err := io.ReadFull(s.entropy, master); err != nil {
		return nil, fmt.Errorf("reading %d byte master seed: %w", Length, err)
	}

	dst := make([]byte, n*Length)
	if err := expand(dst, master, s.h); err != nil {
		return nil, err
	}

	salts := make([][]byte, n)
	for i := range salts {
		// full slice expressions so appending to one salt cannot
		// clobber its neighbour in the shared buffer
		salts[i] = dst[i*Length : (i+1)*Length : (i+1)*Length]
	}

	return salts, nil
}

// expand fills dst from a deterministic random bit generator (DRBG) keyed
// by seed, as specified by NIST Special Publication 800-90A Revision 1.
// Blake3 is used here.
func expand(dst []byte, seed []byte, h *blake3.Hasher) error {
	// reset internal state
	h.Reset()
	if _, err := h.Write(seed); err != nil {
		return err
	}

	drbg := h.Digest()

	_, err := drbg.Read(dst)

	return err
}

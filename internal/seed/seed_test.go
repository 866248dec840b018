package seed

import (
	"bytes"
	"fmt"
	"testing"
)

func TestSaltsDeterministicForSameEntropy(t *testing.T) {
	master := bytes.Repeat([]byte{0xA5}, Length)

	s1 := NewSource(bytes.NewReader(master))
	s2 := NewSource(bytes.NewReader(master))

	salts1, err := s1.Salts(2)
	if err != nil {
		t.Fatal(err)
	}
	salts2, err := s2.Salts(2)
	if err != nil {
		t.Fatal(err)
	}

	for i := range salts1 {
		if len(salts1[i]) != Length {
			t.Errorf("salt %d: want length %d, got %d", i, Length, len(salts1[i]))
		}
		if !bytes.Equal(salts1[i], salts2[i]) {
			t.Errorf("salt %d differs between identical entropy sources", i)
		}
	}

	if bytes.Equal(salts1[0], salts1[1]) {
		t.Error("derived salts are not independent")
	}
}

func TestSaltsShortEntropy(t *testing.T) {
	s := NewSource(bytes.NewReader(make([]byte, Length-1)))

	if _, err := s.Salts(2); err == nil {
		t.Error("want an error on a short entropy source")
	}
}

func TestSaltsEntropyFailure(t *testing.T) {
	s := NewSource(errReader{})

	if _, err := s.Salts(2); err == nil {
		t.Error("want an error when the entropy source fails")
	}
}

func TestDefaultSourceIsCSPRNG(t *testing.T) {
	s := NewSource(nil)

	salts1, err := s.Salts(2)
	if err != nil {
		t.Fatal(err)
	}
	salts2, err := s.Salts(2)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(salts1[0], salts2[0]) {
		t.Error("two draws from the CSPRNG produced the same salt")
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, fmt.Errorf("entropy source closed")
}

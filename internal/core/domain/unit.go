package domain

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// DNASize is the length of a unit identifier in bytes.
const DNASize = 16

// DNA is the 128-bit genetic code of a unit. It doubles as the unit's
// unique identifier in the registry.
type DNA [DNASize]byte

func (d DNA) String() string {
	return hex.EncodeToString(d[:])
}

func (d *DNA) FromString(s string) error {
	buf, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid dna string: %s", s)
	}
	if len(buf) != DNASize {
		return fmt.Errorf("invalid dna length: expected %d bytes, got %d", DNASize, len(buf))
	}
	copy(d[:], buf)
	return nil
}

func (d DNA) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DNA) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.FromString(s)
}

func (d DNA) IsZero() bool {
	return d == DNA{}
}

// Not returns the bitwise complement, used as the mirrored selector when
// swapping parent order in a crossover.
func (d DNA) Not() DNA {
	var out DNA
	for i := range d {
		out[i] = ^d[i]
	}
	return out
}

type Unit struct {
	DNA       DNA
	Price     uint64
	Owner     string
	CreatedAt int64
}

func (u Unit) String() string {
	// nolint
	b, _ := json.MarshalIndent(map[string]interface{}{
		"dna":        u.DNA.String(),
		"price":      u.Price,
		"owner":      u.Owner,
		"created_at": u.CreatedAt,
	}, "", "  ")
	return string(b)
}

// IsForSale reports whether the unit is listed. A zero price delists it.
func (u Unit) IsForSale() bool {
	return u.Price > 0
}

// DeriveDNA mixes external entropy, the caller identity and a per-operation
// sequence number into a fresh identifier. Deterministic for identical
// inputs; the sequence number keeps two calls by the same caller distinct
// within one batch of entropy.
func DeriveDNA(seed []byte, owner string, sequence uint64) DNA {
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], sequence)

	h, _ := blake2b.New(DNASize, nil)
	// nolint:errcheck
	h.Write(seed)
	// nolint:errcheck
	h.Write([]byte(owner))
	// nolint:errcheck
	h.Write(seqBuf[:])

	var dna DNA
	copy(dna[:], h.Sum(nil))
	return dna
}

// Crossover combines two parent codes into a child code. For every bit, the
// selector picks which parent contributes it: a set bit takes the bit from
// parentA, a cleared bit takes it from parentB.
func Crossover(parentA, parentB, selector DNA) DNA {
	var child DNA
	for i := range child {
		child[i] = (parentA[i] & selector[i]) | (parentB[i] &^ selector[i])
	}
	return child
}

package entropy

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync/atomic"

	"github.com/brood-labs/broodd/internal/core/ports"
)

const seedSize = 32

type cryptoSource struct{}

// NewCryptoSource returns an entropy source backed by the operating system's
// CSPRNG.
func NewCryptoSource() ports.EntropySource {
	return cryptoSource{}
}

func (cryptoSource) Seed(_ context.Context) ([]byte, error) {
	seed := make([]byte, seedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("failed to read entropy: %w", err)
	}
	return seed, nil
}

type sequencer struct {
	counter atomic.Uint64
}

// NewSequencer returns a process-wide monotonic operation counter.
func NewSequencer() ports.Sequencer {
	return &sequencer{}
}

func (s *sequencer) Next() uint64 {
	return s.counter.Add(1)
}

package ports

import "context"

// EntropySource supplies unpredictable seed material for identifier
// generation. Implementations must return fresh bytes on every call.
type EntropySource interface {
	Seed(ctx context.Context) ([]byte, error)
}

// Sequencer hands out a monotonically increasing per-operation index so that
// two identifier derivations within the same entropy batch cannot collide.
type Sequencer interface {
	Next() uint64
}

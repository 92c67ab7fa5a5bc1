package entropy_test

import (
	"context"
	"testing"

	"github.com/brood-labs/broodd/internal/infrastructure/entropy"
	"github.com/stretchr/testify/require"
)

func TestCryptoSource(t *testing.T) {
	src := entropy.NewCryptoSource()

	a, err := src.Seed(context.Background())
	require.NoError(t, err)
	require.Len(t, a, 32)

	b, err := src.Seed(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestSequencer(t *testing.T) {
	seq := entropy.NewSequencer()
	require.Equal(t, uint64(1), seq.Next())
	require.Equal(t, uint64(2), seq.Next())
	require.Equal(t, uint64(3), seq.Next())
}

package domain_test

import (
	"fmt"
	"testing"

	"github.com/brood-labs/broodd/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestErrorCodeMatching(t *testing.T) {
	err := domain.ErrUnitNotFound.New("unit %s not found", "deadbeef")
	require.True(t, domain.ErrUnitNotFound.Is(err))
	require.False(t, domain.ErrNotOwner.Is(err))
	require.False(t, domain.ErrUnitNotFound.Is(nil))
	require.False(t, domain.ErrUnitNotFound.Is(fmt.Errorf("untyped")))

	// matching survives wrapping
	wrapped := fmt.Errorf("operation failed: %w", err)
	require.True(t, domain.ErrUnitNotFound.Is(wrapped))

	require.Equal(t, uint16(5), err.Code())
	require.Equal(t, "UNIT_NOT_FOUND", err.CodeName())
	require.Contains(t, err.Error(), "UNIT_NOT_FOUND")
	require.Contains(t, err.Error(), "deadbeef")
}

func TestErrorWrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := domain.ErrDuplicateUnit.Wrap(cause)
	require.True(t, domain.ErrDuplicateUnit.Is(err))
	require.ErrorIs(t, err, cause)
}

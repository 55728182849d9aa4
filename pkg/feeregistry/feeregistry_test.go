package feeregistry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultTiers(t *testing.T) {
	r := NewDefault()

	for fee, want := range map[uint32]int32{FeeLow: 10, FeeMedium: 60, FeeHigh: 200} {
		spacing, err := r.TickSpacing(fee)
		require.NoError(t, err)
		require.Equal(t, want, spacing)
	}
}

func TestUnknownFeeRejected(t *testing.T) {
	r := NewDefault()
	_, err := r.TickSpacing(1234)
	require.ErrorIs(t, err, ErrUnknownFee)
}

func TestRegisterAddsAndOverwrites(t *testing.T) {
	r := NewDefault()
	r.Register(100, 1)

	spacing, err := r.TickSpacing(100)
	require.NoError(t, err)
	require.Equal(t, int32(1), spacing)

	r.Register(100, 2)
	spacing, err = r.TickSpacing(100)
	require.NoError(t, err)
	require.Equal(t, int32(2), spacing)
}

package pool

import (
	"math/big"
	"testing"

	"github.com/CoinSummer/clamm-pool-engine/pkg/numerics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func testKey() PositionKey {
	return PositionKey{
		Owner:     common.HexToAddress("0xbbbb000000000000000000000000000000bbbb"),
		TickLower: -60,
		TickUpper: 60,
	}
}

func TestPositionUpdateAccruesFeesOnLaterTouch(t *testing.T) {
	s := NewPositionStore()
	key := testKey()

	_, err := s.Update(key, numerics.I128FromInt64(2), numerics.U128FromUint64(0), numerics.U128FromUint64(0))
	require.NoError(t, err)

	// a feeGrowthInside delta of 2^127 against liquidity=2 yields exactly
	// floor(2^127 * 2 / 2^128) = 1 token owed.
	half := new(big.Int).Lsh(big.NewInt(1), 127)
	feeGrowthDelta, err := numerics.U128FromBig(half)
	require.NoError(t, err)

	pos, err := s.Update(key, numerics.ZeroI128(), feeGrowthDelta, numerics.U128FromUint64(0))
	require.NoError(t, err)
	require.True(t, pos.TokensOwed0.Equal(numerics.U128FromUint64(1)))
}

func TestPositionUpdateZeroDeltaNoLiquidityRejected(t *testing.T) {
	s := NewPositionStore()
	key := testKey()
	_, err := s.Update(key, numerics.ZeroI128(), numerics.U128FromUint64(0), numerics.U128FromUint64(0))
	require.ErrorIs(t, err, ErrZeroAmount)
}

func TestPositionUpdateUnderflowRejected(t *testing.T) {
	s := NewPositionStore()
	key := testKey()
	_, err := s.Update(key, numerics.I128FromInt64(100), numerics.U128FromUint64(0), numerics.U128FromUint64(0))
	require.NoError(t, err)

	_, err = s.Update(key, numerics.I128FromInt64(-200), numerics.U128FromUint64(0), numerics.U128FromUint64(0))
	require.ErrorIs(t, err, ErrLiquidityUnderflow)
}

func TestPositionCollectCapsAtOwed(t *testing.T) {
	s := NewPositionStore()
	key := testKey()
	require.NoError(t, s.CreditOwed(key, numerics.U128FromUint64(100), numerics.U128FromUint64(50)))

	amount0, amount1, err := s.Collect(key, numerics.U128FromUint64(1_000), numerics.U128FromUint64(1_000))
	require.NoError(t, err)
	require.True(t, amount0.Equal(numerics.U128FromUint64(100)))
	require.True(t, amount1.Equal(numerics.U128FromUint64(50)))

	again, _, err := s.Collect(key, numerics.U128FromUint64(1_000), numerics.U128FromUint64(0))
	require.NoError(t, err)
	require.True(t, again.IsZero())
}

func TestPositionCollectUnknownReturnsZero(t *testing.T) {
	s := NewPositionStore()
	amount0, amount1, err := s.Collect(testKey(), numerics.U128FromUint64(1), numerics.U128FromUint64(1))
	require.NoError(t, err)
	require.True(t, amount0.IsZero())
	require.True(t, amount1.IsZero())
}

func TestPositionRemovedAfterLiquidityAndOwedBothZero(t *testing.T) {
	s := NewPositionStore()
	key := testKey()
	require.NoError(t, s.CreditOwed(key, numerics.U128FromUint64(100), numerics.U128FromUint64(50)))

	_, _, err := s.Collect(key, numerics.U128FromUint64(1_000), numerics.U128FromUint64(1_000))
	require.NoError(t, err)

	_, ok := s.positions[key.String()]
	require.False(t, ok, "position with zero liquidity and zero owed should be removed")
}


package tickmath

import (
	"testing"

	"github.com/CoinSummer/clamm-pool-engine/pkg/numerics"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestSqrtRatioAtTickZero(t *testing.T) {
	got, err := SqrtRatioAtTick(0)
	require.NoError(t, err)
	require.Equal(t, Q96.Dec(), got.Uint256().Dec())
}

func TestSqrtRatioAtTickMonotonic(t *testing.T) {
	prev, err := SqrtRatioAtTick(-10000)
	require.NoError(t, err)
	for tick := int32(-9900); tick <= 10000; tick += 100 {
		cur, err := SqrtRatioAtTick(tick)
		require.NoError(t, err)
		require.True(t, cur.GreaterThan(prev), "tick %d should increase sqrt price", tick)
		prev = cur
	}
}

func TestSqrtRatioAtTickBounds(t *testing.T) {
	min, err := SqrtRatioAtTick(MinTick)
	require.NoError(t, err)
	require.True(t, min.GreaterOrEqual(mustU128(MinSqrtRatio)))

	max, err := SqrtRatioAtTick(MaxTick)
	require.NoError(t, err)
	require.True(t, max.LessOrEqual(mustU128(MaxSqrtRatio)))
}

func TestSqrtRatioAtTickOutOfBounds(t *testing.T) {
	_, err := SqrtRatioAtTick(MaxTick + 1)
	require.ErrorIs(t, err, ErrTickOutOfBounds)
	_, err = SqrtRatioAtTick(MinTick - 1)
	require.ErrorIs(t, err, ErrTickOutOfBounds)
}

func TestTickAtSqrtRatioRoundTrip(t *testing.T) {
	for _, tick := range []int32{-100000, -10000, -1000, -100, 0, 100, 1000, 10000, 100000} {
		sqrtPrice, err := SqrtRatioAtTick(tick)
		require.NoError(t, err)
		recovered, err := TickAtSqrtRatio(sqrtPrice)
		require.NoError(t, err)
		diff := recovered - tick
		if diff < 0 {
			diff = -diff
		}
		require.LessOrEqual(t, diff, int32(1), "tick %d should round-trip, got %d", tick, recovered)
	}
}

func TestTickAtSqrtRatioAtMin(t *testing.T) {
	tick, err := TickAtSqrtRatio(mustU128(MinSqrtRatio))
	require.NoError(t, err)
	require.Equal(t, MinTick, tick)
}

func TestTickAtSqrtRatioOutOfBounds(t *testing.T) {
	_, err := TickAtSqrtRatio(mustU128(MaxSqrtRatio))
	require.ErrorIs(t, err, ErrRatioOutOfBounds)
}

func mustU128(x *uint256.Int) numerics.Uint128 {
	u, err := numerics.U128FromUint256(x)
	if err != nil {
		panic(err)
	}
	return u
}

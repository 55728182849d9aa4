package sqrtmath

import (
	"math/big"
	"testing"

	"github.com/CoinSummer/clamm-pool-engine/pkg/numerics"
	"github.com/CoinSummer/clamm-pool-engine/pkg/tickmath"
	"github.com/stretchr/testify/require"
)

func q96U128(t *testing.T) numerics.Uint128 {
	t.Helper()
	u, err := numerics.U128FromUint256(tickmath.Q96)
	require.NoError(t, err)
	return u
}

func twoTo80U128(t *testing.T) numerics.Uint128 {
	t.Helper()
	u, err := numerics.U128FromBig(new(big.Int).Lsh(big.NewInt(1), 80))
	require.NoError(t, err)
	return u
}

func TestAmount0DeltaOrderIndependent(t *testing.T) {
	sqrtA := q96U128(t)
	sqrtB, err := numerics.U128FromBig(sqrtA.Big())
	require.NoError(t, err)
	sqrtB, err = sqrtB.Add(numerics.U128FromUint64(1_000_000))
	require.NoError(t, err)
	liquidity := numerics.U128FromUint64(1_000_000_000_000)

	ab, err := Amount0Delta(sqrtA, sqrtB, liquidity, false)
	require.NoError(t, err)
	ba, err := Amount0Delta(sqrtB, sqrtA, liquidity, false)
	require.NoError(t, err)
	require.True(t, ab.Equal(ba))
}

func TestAmount0DeltaZeroRange(t *testing.T) {
	sqrtA := q96U128(t)
	liquidity := numerics.U128FromUint64(1_000_000_000_000)
	amt, err := Amount0Delta(sqrtA, sqrtA, liquidity, false)
	require.NoError(t, err)
	require.True(t, amt.IsZero())
}

func TestAmount0DeltaRoundingUpGreaterOrEqual(t *testing.T) {
	sqrtA := q96U128(t)
	sqrtB, err := sqrtA.Add(numerics.U128FromUint64(1 << 60))
	require.NoError(t, err)
	liquidity := numerics.U128FromUint64(1_000_000_000)

	down, err := Amount0Delta(sqrtA, sqrtB, liquidity, false)
	require.NoError(t, err)
	up, err := Amount0Delta(sqrtA, sqrtB, liquidity, true)
	require.NoError(t, err)
	require.True(t, up.GreaterOrEqual(down))
}

func TestNextSqrtFromInputZeroForOneDecreases(t *testing.T) {
	sqrtPrice := q96U128(t)
	liquidity := numerics.U128FromUint64(1_000_000_000_000_000_000)
	amountIn := numerics.U128FromUint64(1_000_000_000)

	next, err := NextSqrtFromInput(sqrtPrice, liquidity, amountIn, true)
	require.NoError(t, err)
	require.True(t, next.LessThan(sqrtPrice))
}

func TestNextSqrtFromInputOneForZeroIncreases(t *testing.T) {
	sqrtPrice := q96U128(t)
	liquidity := numerics.U128FromUint64(1_000_000_000_000_000_000)
	amountIn := numerics.U128FromUint64(1_000_000_000)

	next, err := NextSqrtFromInput(sqrtPrice, liquidity, amountIn, false)
	require.NoError(t, err)
	require.True(t, next.GreaterThan(sqrtPrice))
}

func TestNextSqrtFromInputZeroAmountNoOp(t *testing.T) {
	sqrtPrice := q96U128(t)
	liquidity := numerics.U128FromUint64(1_000_000_000_000)
	next, err := NextSqrtFromInput(sqrtPrice, liquidity, numerics.U128FromUint64(0), true)
	require.NoError(t, err)
	require.True(t, next.Equal(sqrtPrice))
}

func TestAmountsForLiquidityDispatch(t *testing.T) {
	lower, err := q96U128(t).Sub(twoTo80U128(t))
	require.NoError(t, err)
	upper, err := q96U128(t).Add(twoTo80U128(t))
	require.NoError(t, err)
	liquidity := numerics.U128FromUint64(1_000_000_000_000)

	a0, a1, err := AmountsForLiquidity(lower, lower, upper, liquidity)
	require.NoError(t, err)
	require.True(t, a0.GreaterThan(numerics.U128FromUint64(0)))
	require.True(t, a1.IsZero())

	a0, a1, err = AmountsForLiquidity(upper, lower, upper, liquidity)
	require.NoError(t, err)
	require.True(t, a0.IsZero())
	require.True(t, a1.GreaterThan(numerics.U128FromUint64(0)))

	a0, a1, err = AmountsForLiquidity(q96U128(t), lower, upper, liquidity)
	require.NoError(t, err)
	require.True(t, a0.GreaterThan(numerics.U128FromUint64(0)))
	require.True(t, a1.GreaterThan(numerics.U128FromUint64(0)))
}

func TestLiquidityForAmountsRoundTripAboveRange(t *testing.T) {
	lower, err := q96U128(t).Sub(twoTo80U128(t))
	require.NoError(t, err)
	upper, err := q96U128(t).Add(twoTo80U128(t))
	require.NoError(t, err)
	twoTo70, err := numerics.U128FromBig(new(big.Int).Lsh(big.NewInt(1), 70))
	require.NoError(t, err)
	above, err := upper.Add(twoTo70)
	require.NoError(t, err)

	initial := numerics.U128FromUint64(1_000_000_000_000_000)
	_, amount1, err := AmountsForLiquidity(above, lower, upper, initial)
	require.NoError(t, err)

	recovered, err := LiquidityForAmounts(above, lower, upper, numerics.U128FromUint64(0), amount1)
	require.NoError(t, err)
	require.True(t, recovered.LessOrEqual(initial))
}

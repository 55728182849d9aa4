package pool

import (
	"testing"

	"github.com/CoinSummer/clamm-pool-engine/pkg/numerics"
	"github.com/CoinSummer/clamm-pool-engine/pkg/tickmath"
	"github.com/stretchr/testify/require"
)

func TestComputeSwapStepExactInPartialFill(t *testing.T) {
	current, err := tickmath.SqrtRatioAtTick(0)
	require.NoError(t, err)
	target, err := tickmath.SqrtRatioAtTick(-6000)
	require.NoError(t, err)
	liquidity := numerics.U128FromUint64(1_000_000_000_000_000_000)

	next, amountIn, amountOut, feeAmount, err := computeSwapStep(current, target, liquidity, numerics.I128FromInt64(1_000_000), 3000)
	require.NoError(t, err)
	require.True(t, next.LessThan(current))
	require.True(t, next.GreaterThan(target))
	require.True(t, amountIn.GreaterThan(numerics.U128FromUint64(0)))
	require.True(t, amountOut.GreaterThan(numerics.U128FromUint64(0)))
	require.True(t, feeAmount.GreaterThan(numerics.U128FromUint64(0)))
}

func TestComputeSwapStepExactInReachesTarget(t *testing.T) {
	current, err := tickmath.SqrtRatioAtTick(0)
	require.NoError(t, err)
	target, err := tickmath.SqrtRatioAtTick(-60)
	require.NoError(t, err)
	liquidity := numerics.U128FromUint64(1_000_000_000_000_000_000)

	next, _, _, _, err := computeSwapStep(current, target, liquidity, numerics.I128FromInt64(10_000_000_000_000_000), 3000)
	require.NoError(t, err)
	require.True(t, next.Equal(target))
}

func TestComputeSwapStepZeroAmountNoOp(t *testing.T) {
	current, err := tickmath.SqrtRatioAtTick(0)
	require.NoError(t, err)
	target, err := tickmath.SqrtRatioAtTick(-60)
	require.NoError(t, err)
	liquidity := numerics.U128FromUint64(1_000_000_000_000_000_000)

	next, amountIn, amountOut, feeAmount, err := computeSwapStep(current, target, liquidity, numerics.ZeroI128(), 3000)
	require.NoError(t, err)
	require.True(t, next.Equal(current))
	require.True(t, amountIn.IsZero())
	require.True(t, amountOut.IsZero())
	require.True(t, feeAmount.IsZero())
}

func TestComputeSwapStepExactOutput(t *testing.T) {
	current, err := tickmath.SqrtRatioAtTick(0)
	require.NoError(t, err)
	target, err := tickmath.SqrtRatioAtTick(-6000)
	require.NoError(t, err)
	liquidity := numerics.U128FromUint64(1_000_000_000_000_000_000)

	_, amountIn, amountOut, feeAmount, err := computeSwapStep(current, target, liquidity, numerics.I128FromInt64(-1_000_000), 3000)
	require.NoError(t, err)
	require.True(t, amountIn.GreaterThan(numerics.U128FromUint64(0)))
	require.True(t, amountOut.LessOrEqual(numerics.U128FromUint64(1_000_000)))
	require.True(t, feeAmount.GreaterThan(numerics.U128FromUint64(0)))
}

func TestComputeSwapStepHighFeeRejected(t *testing.T) {
	current, err := tickmath.SqrtRatioAtTick(0)
	require.NoError(t, err)
	target, err := tickmath.SqrtRatioAtTick(-60)
	require.NoError(t, err)
	_, _, _, _, err = computeSwapStep(current, target, numerics.U128FromUint64(1000), numerics.I128FromInt64(100), 1_000_000)
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestFeeGrowthFromFeeAmountScalesByLiquidity(t *testing.T) {
	small, err := feeGrowthFromFeeAmount(numerics.U128FromUint64(1_000_000), numerics.U128FromUint64(1_000_000_000_000))
	require.NoError(t, err)
	large, err := feeGrowthFromFeeAmount(numerics.U128FromUint64(1_000_000), numerics.U128FromUint64(1_000))
	require.NoError(t, err)
	require.True(t, large.GreaterThan(small), "less liquidity sharing the same fee gets a bigger fee-growth increment")
}

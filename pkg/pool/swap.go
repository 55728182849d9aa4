package pool

import (
	"fmt"

	"github.com/CoinSummer/clamm-pool-engine/pkg/numerics"
	"github.com/CoinSummer/clamm-pool-engine/pkg/sqrtmath"
	"github.com/CoinSummer/clamm-pool-engine/pkg/tickmath"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// feeGrowthFromFeeAmount computes floor(feeAmount * 2^128 / liquidity), the
// increment added to a pool's global fee-growth accumulator after a swap
// step. The multiplication by 2^128 must happen in 256-bit arithmetic
// before the division (feeAmount << 128 alone exceeds a u128), so this runs
// through uint256 directly rather than numerics.MulDiv.
func feeGrowthFromFeeAmount(feeAmount, liquidity numerics.Uint128) (numerics.Uint128, error) {
	if liquidity.IsZero() {
		return numerics.Uint128{}, ErrDivisionByZero
	}
	shifted := new(uint256.Int).Lsh(feeAmount.Uint256(), 128)
	result := new(uint256.Int).Div(shifted, liquidity.Uint256())
	return numerics.U128FromUint256(result)
}

const feeDenominator = 1_000_000

// swapState is the running accumulator threaded through the swap loop.
// Nothing is written back to the pool until the loop finishes.
type swapState struct {
	amountSpecifiedRemaining numerics.Int128
	amountCalculated         numerics.Int128
	sqrtPriceX96             numerics.Uint128
	tick                     int32
	liquidity                numerics.Uint128
	feeGrowthGlobalX128      numerics.Uint128
}

type stepComputations struct {
	sqrtPriceStartX96 numerics.Uint128
	tickNext          int32
	initialized       bool
	sqrtPriceNextX96  numerics.Uint128
	amountIn          numerics.Uint128
	amountOut         numerics.Uint128
	feeAmount         numerics.Uint128
}

// computeSwapStep computes the result of swapping within a single tick
// range: how far the price moves toward sqrtRatioTarget, the amounts in and
// out, and the fee taken. On a partial step (target not reached) the fee is
// whatever input remains after amountIn, so the budget is consumed exactly.
func computeSwapStep(
	sqrtRatioCurrent, sqrtRatioTarget, liquidity numerics.Uint128,
	amountRemaining numerics.Int128,
	feePips uint32,
) (sqrtRatioNext, amountIn, amountOut, feeAmount numerics.Uint128, err error) {
	if feePips >= feeDenominator {
		return numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, ErrDivisionByZero
	}

	zeroForOne := !sqrtRatioCurrent.LessThan(sqrtRatioTarget)
	exactIn := !amountRemaining.IsNeg()
	amountSpecifiedMag := amountRemaining.Abs()

	million := numerics.U128FromUint64(feeDenominator)
	feeComplement, err := million.Sub(numerics.U128FromUint64(uint64(feePips)))
	if err != nil {
		return numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, err
	}

	amountIn = numerics.U128FromUint64(0)
	amountOut = numerics.U128FromUint64(0)

	if exactIn {
		amountRemainingLessFee, err := numerics.MulDiv(amountSpecifiedMag, feeComplement, million)
		if err != nil {
			return numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, err
		}

		if zeroForOne {
			amountIn, err = sqrtmath.Amount0Delta(sqrtRatioTarget, sqrtRatioCurrent, liquidity, true)
		} else {
			amountIn, err = sqrtmath.Amount1Delta(sqrtRatioCurrent, sqrtRatioTarget, liquidity, true)
		}
		if err != nil {
			return numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, err
		}

		if amountRemainingLessFee.GreaterOrEqual(amountIn) {
			sqrtRatioNext = sqrtRatioTarget
		} else {
			sqrtRatioNext, err = sqrtmath.NextSqrtFromInput(sqrtRatioCurrent, liquidity, amountRemainingLessFee, zeroForOne)
			if err != nil {
				return numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, err
			}
		}
	} else {
		var err error
		if zeroForOne {
			amountOut, err = sqrtmath.Amount1Delta(sqrtRatioTarget, sqrtRatioCurrent, liquidity, false)
		} else {
			amountOut, err = sqrtmath.Amount0Delta(sqrtRatioCurrent, sqrtRatioTarget, liquidity, false)
		}
		if err != nil {
			return numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, err
		}

		if amountSpecifiedMag.GreaterOrEqual(amountOut) {
			sqrtRatioNext = sqrtRatioTarget
		} else {
			sqrtRatioNext, err = sqrtmath.NextSqrtFromOutput(sqrtRatioCurrent, liquidity, amountSpecifiedMag, zeroForOne)
			if err != nil {
				return numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, err
			}
		}
	}

	reachedTarget := sqrtRatioTarget.Equal(sqrtRatioNext)

	if zeroForOne {
		if !reachedTarget || !exactIn {
			amountIn, err = sqrtmath.Amount0Delta(sqrtRatioNext, sqrtRatioCurrent, liquidity, true)
			if err != nil {
				return numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, err
			}
		}
		if !reachedTarget || exactIn {
			amountOut, err = sqrtmath.Amount1Delta(sqrtRatioNext, sqrtRatioCurrent, liquidity, false)
			if err != nil {
				return numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, err
			}
		}
	} else {
		if !reachedTarget || !exactIn {
			amountIn, err = sqrtmath.Amount1Delta(sqrtRatioCurrent, sqrtRatioNext, liquidity, true)
			if err != nil {
				return numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, err
			}
		}
		if !reachedTarget || exactIn {
			amountOut, err = sqrtmath.Amount0Delta(sqrtRatioCurrent, sqrtRatioNext, liquidity, false)
			if err != nil {
				return numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, err
			}
		}
	}

	if !exactIn && amountOut.GreaterThan(amountSpecifiedMag) {
		amountOut = amountSpecifiedMag
	}

	if exactIn && !sqrtRatioNext.Equal(sqrtRatioTarget) {
		feeAmount, err = amountSpecifiedMag.Sub(amountIn)
		if err != nil {
			return numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, err
		}
	} else {
		feeAmount, err = numerics.MulDivRoundUp(amountIn, numerics.U128FromUint64(uint64(feePips)), feeComplement)
		if err != nil {
			return numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, numerics.Uint128{}, err
		}
	}

	return sqrtRatioNext, amountIn, amountOut, feeAmount, nil
}

// Swap executes the stepwise swap loop across tick boundaries until the
// specified amount is exhausted, the price limit is reached, or the crossing
// cap halts it with a partial fill. amountSpecified positive means exact
// input, negative means exact output. A nil sqrtPriceLimitX96 defaults to
// the domain extreme on the appropriate side.
func (p *Pool) Swap(recipient common.Address, zeroForOne bool, amountSpecified numerics.Int128, sqrtPriceLimitX96 *numerics.Uint128) (amount0, amount1 numerics.Int128, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.SqrtPriceX96.IsZero() {
		return numerics.Int128{}, numerics.Int128{}, ErrNotInitialized
	}
	if amountSpecified.IsZero() {
		return numerics.Int128{}, numerics.Int128{}, ErrZeroAmount
	}

	var limit numerics.Uint128
	if sqrtPriceLimitX96 == nil {
		if zeroForOne {
			limit, err = numerics.U128FromUint256(tickmath.MinSqrtRatio)
			if err == nil {
				limit, err = limit.Add(numerics.U128FromUint64(1))
			}
		} else {
			limit, err = numerics.U128FromUint256(tickmath.MaxSqrtRatio)
			if err == nil {
				limit, err = limit.Sub(numerics.U128FromUint64(1))
			}
		}
		if err != nil {
			return numerics.Int128{}, numerics.Int128{}, err
		}
	} else {
		limit = *sqrtPriceLimitX96
	}

	minRatio, err := numerics.U128FromUint256(tickmath.MinSqrtRatio)
	if err != nil {
		return numerics.Int128{}, numerics.Int128{}, err
	}
	maxRatio, err := numerics.U128FromUint256(tickmath.MaxSqrtRatio)
	if err != nil {
		return numerics.Int128{}, numerics.Int128{}, err
	}

	if zeroForOne {
		if !limit.GreaterThan(minRatio) || !limit.LessThan(p.SqrtPriceX96) {
			return numerics.Int128{}, numerics.Int128{}, ErrBadPriceLimit
		}
	} else {
		if !limit.LessThan(maxRatio) || !limit.GreaterThan(p.SqrtPriceX96) {
			return numerics.Int128{}, numerics.Int128{}, ErrBadPriceLimit
		}
	}

	exactInput := !amountSpecified.IsNeg()

	state := swapState{
		amountSpecifiedRemaining: amountSpecified,
		amountCalculated:         numerics.ZeroI128(),
		sqrtPriceX96:             p.SqrtPriceX96,
		tick:                     p.Tick,
		liquidity:                p.Liquidity,
	}
	if zeroForOne {
		state.feeGrowthGlobalX128 = p.FeeGrowthGlobal0X128
	} else {
		state.feeGrowthGlobalX128 = p.FeeGrowthGlobal1X128
	}

	if logrus.GetLevel() >= logrus.DebugLevel {
		logrus.Debugf("swap start: zeroForOne=%t exactInput=%t amountSpecified=%s price=%s limit=%s",
			zeroForOne, exactInput, amountSpecified, p.SqrtPriceX96, limit)
	}

	crossings := 0
	for !state.amountSpecifiedRemaining.IsZero() && !state.sqrtPriceX96.Equal(limit) && crossings < maxCrossings {
		step := stepComputations{sqrtPriceStartX96: state.sqrtPriceX96}

		tickNext, initialized, err := p.Ticks.NextInitialized(state.tick, zeroForOne)
		if err != nil {
			return numerics.Int128{}, numerics.Int128{}, fmt.Errorf("pool: finding next tick: %w", err)
		}
		step.tickNext = tickNext
		step.initialized = initialized

		if step.tickNext < tickmath.MinTick {
			step.tickNext = tickmath.MinTick
		} else if step.tickNext > tickmath.MaxTick {
			step.tickNext = tickmath.MaxTick
		}

		sqrtPriceNext, err := tickmath.SqrtRatioAtTick(step.tickNext)
		if err != nil {
			return numerics.Int128{}, numerics.Int128{}, fmt.Errorf("pool: sqrt ratio at tick %d: %w", step.tickNext, err)
		}
		step.sqrtPriceNextX96 = sqrtPriceNext

		var target numerics.Uint128
		if zeroForOne {
			if step.sqrtPriceNextX96.LessThan(limit) {
				target = limit
			} else {
				target = step.sqrtPriceNextX96
			}
		} else {
			if step.sqrtPriceNextX96.GreaterThan(limit) {
				target = limit
			} else {
				target = step.sqrtPriceNextX96
			}
		}

		nextPrice, amountIn, amountOut, feeAmount, err := computeSwapStep(state.sqrtPriceX96, target, state.liquidity, state.amountSpecifiedRemaining, p.Fee)
		if err != nil {
			return numerics.Int128{}, numerics.Int128{}, fmt.Errorf("pool: swap step: %w", err)
		}
		state.sqrtPriceX96 = nextPrice
		step.amountIn, step.amountOut, step.feeAmount = amountIn, amountOut, feeAmount

		inPlusFee, err := step.amountIn.Add(step.feeAmount)
		if err != nil {
			return numerics.Int128{}, numerics.Int128{}, err
		}
		if exactInput {
			state.amountSpecifiedRemaining, err = state.amountSpecifiedRemaining.Sub(numerics.I128FromUint128(inPlusFee, false))
			if err != nil {
				return numerics.Int128{}, numerics.Int128{}, err
			}
			state.amountCalculated, err = state.amountCalculated.Sub(numerics.I128FromUint128(step.amountOut, false))
			if err != nil {
				return numerics.Int128{}, numerics.Int128{}, err
			}
		} else {
			state.amountSpecifiedRemaining, err = state.amountSpecifiedRemaining.Add(numerics.I128FromUint128(step.amountOut, false))
			if err != nil {
				return numerics.Int128{}, numerics.Int128{}, err
			}
			state.amountCalculated, err = state.amountCalculated.Add(numerics.I128FromUint128(inPlusFee, false))
			if err != nil {
				return numerics.Int128{}, numerics.Int128{}, err
			}
		}

		if !state.liquidity.IsZero() {
			feeGrowthDelta, err := feeGrowthFromFeeAmount(step.feeAmount, state.liquidity)
			if err != nil {
				return numerics.Int128{}, numerics.Int128{}, err
			}
			state.feeGrowthGlobalX128, err = state.feeGrowthGlobalX128.Add(feeGrowthDelta)
			if err != nil {
				return numerics.Int128{}, numerics.Int128{}, err
			}
		}

		if state.sqrtPriceX96.Equal(step.sqrtPriceNextX96) {
			if step.initialized {
				var liquidityNet numerics.Int128
				if zeroForOne {
					liquidityNet = p.Ticks.Cross(step.tickNext, state.feeGrowthGlobalX128, p.FeeGrowthGlobal1X128)
				} else {
					liquidityNet = p.Ticks.Cross(step.tickNext, p.FeeGrowthGlobal0X128, state.feeGrowthGlobalX128)
				}
				if zeroForOne {
					liquidityNet = liquidityNet.Neg()
				}
				state.liquidity, err = numerics.AddDelta(state.liquidity, liquidityNet)
				if err != nil {
					return numerics.Int128{}, numerics.Int128{}, fmt.Errorf("pool: liquidity update at tick %d: %w", step.tickNext, err)
				}
				crossings++
			}
			if zeroForOne {
				state.tick = step.tickNext - 1
			} else {
				state.tick = step.tickNext
			}
		} else if !state.sqrtPriceX96.Equal(step.sqrtPriceStartX96) {
			state.tick, err = tickmath.TickAtSqrtRatio(state.sqrtPriceX96)
			if err != nil {
				return numerics.Int128{}, numerics.Int128{}, fmt.Errorf("pool: tick at price %s: %w", state.sqrtPriceX96, err)
			}
		}

		if logrus.GetLevel() >= logrus.TraceLevel {
			logrus.Tracef("swap step: tick=%d price=%s amountIn=%s amountOut=%s fee=%s liquidity=%s",
				state.tick, state.sqrtPriceX96, step.amountIn, step.amountOut, step.feeAmount, state.liquidity)
		}
	}

	p.SqrtPriceX96 = state.sqrtPriceX96
	p.Tick = state.tick
	p.Liquidity = state.liquidity
	if zeroForOne {
		p.FeeGrowthGlobal0X128 = state.feeGrowthGlobalX128
	} else {
		p.FeeGrowthGlobal1X128 = state.feeGrowthGlobalX128
	}

	remainingConsumed, err := amountSpecified.Sub(state.amountSpecifiedRemaining)
	if err != nil {
		return numerics.Int128{}, numerics.Int128{}, err
	}
	if zeroForOne == exactInput {
		amount0 = remainingConsumed
		amount1 = state.amountCalculated
	} else {
		amount0 = state.amountCalculated
		amount1 = remainingConsumed
	}

	if logrus.GetLevel() >= logrus.DebugLevel {
		logrus.Debugf("swap done: amount0=%s amount1=%s price=%s tick=%d", amount0, amount1, state.sqrtPriceX96, state.tick)
	}

	p.emit(SwapEvent{Sender: recipient, Amount0: amount0, Amount1: amount1, SqrtPriceX96: state.sqrtPriceX96, Liquidity: state.liquidity, Tick: state.tick})

	return amount0, amount1, nil
}

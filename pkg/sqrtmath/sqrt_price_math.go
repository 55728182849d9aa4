// Package sqrtmath converts between Q96 sqrt-price moves and token amounts.
//
// Every mul-div here runs through uint256's 512-bit-intermediate
// MulDivOverflow rather than a plain 256-bit multiply: liquidity<<96 alone
// can exceed 128 bits, and a plain multiply would silently wrap on the
// (liquidity<<96)*(sqrtRatio delta) term.
package sqrtmath

import (
	"errors"
	"fmt"

	"github.com/CoinSummer/clamm-pool-engine/pkg/numerics"
	"github.com/holiman/uint256"
)

var (
	ErrInvalidInput = errors.New("sqrtmath: invalid input")
	ErrOverflow     = errors.New("sqrtmath: intermediate overflow")
	ErrUnderflow    = errors.New("sqrtmath: intermediate underflow")
)

var q96 = new(uint256.Int).Lsh(uint256.NewInt(1), 96)

// Amount0Delta returns the amount of token0 needed to move liquidity L
// across [sqrtRatioA, sqrtRatioB], independent of argument order.
func Amount0Delta(sqrtRatioA, sqrtRatioB, liquidity numerics.Uint128, roundUp bool) (numerics.Uint128, error) {
	lower, upper := order(sqrtRatioA, sqrtRatioB)
	if lower.IsZero() {
		return numerics.Uint128{}, fmt.Errorf("%w: sqrt_ratio_lower is zero", ErrInvalidInput)
	}

	numerator1 := new(uint256.Int).Lsh(liquidity.Uint256(), 96)
	numerator2, err := upper.Sub(lower)
	if err != nil {
		return numerics.Uint128{}, err
	}
	if numerator2.IsZero() {
		return numerics.U128FromUint64(0), nil
	}

	if roundUp {
		inner, err := rawMulDivRoundUp(numerator1, numerator2.Uint256(), upper.Uint256())
		if err != nil {
			return numerics.Uint128{}, err
		}
		result := divRoundUpRaw(inner, lower.Uint256())
		return numerics.U128FromUint256(result)
	}

	inner, err := rawMulDiv(numerator1, numerator2.Uint256(), upper.Uint256())
	if err != nil {
		return numerics.Uint128{}, err
	}
	result := new(uint256.Int).Div(inner, lower.Uint256())
	return numerics.U128FromUint256(result)
}

// Amount1Delta returns the amount of token1 needed to move liquidity L
// across [sqrtRatioA, sqrtRatioB], independent of argument order.
func Amount1Delta(sqrtRatioA, sqrtRatioB, liquidity numerics.Uint128, roundUp bool) (numerics.Uint128, error) {
	lower, upper := order(sqrtRatioA, sqrtRatioB)
	diff, err := upper.Sub(lower)
	if err != nil {
		return numerics.Uint128{}, err
	}
	if roundUp {
		z, err := rawMulDivRoundUp(liquidity.Uint256(), diff.Uint256(), q96)
		if err != nil {
			return numerics.Uint128{}, err
		}
		return numerics.U128FromUint256(z)
	}
	z, err := rawMulDiv(liquidity.Uint256(), diff.Uint256(), q96)
	if err != nil {
		return numerics.Uint128{}, err
	}
	return numerics.U128FromUint256(z)
}

// NextSqrtFromInput returns the sqrt price after swapping amountIn tokens
// in, holding liquidity constant over the step.
func NextSqrtFromInput(sqrtPriceX96, liquidity, amountIn numerics.Uint128, zeroForOne bool) (numerics.Uint128, error) {
	if sqrtPriceX96.IsZero() || liquidity.IsZero() {
		return numerics.Uint128{}, fmt.Errorf("%w: zero price or liquidity", ErrInvalidInput)
	}
	if zeroForOne {
		return nextSqrtFromAmount0(sqrtPriceX96, liquidity, amountIn, true)
	}
	return nextSqrtFromAmount1(sqrtPriceX96, liquidity, amountIn, true)
}

// NextSqrtFromOutput returns the sqrt price after swapping amountOut tokens
// out, holding liquidity constant over the step.
func NextSqrtFromOutput(sqrtPriceX96, liquidity, amountOut numerics.Uint128, zeroForOne bool) (numerics.Uint128, error) {
	if sqrtPriceX96.IsZero() || liquidity.IsZero() {
		return numerics.Uint128{}, fmt.Errorf("%w: zero price or liquidity", ErrInvalidInput)
	}
	if zeroForOne {
		return nextSqrtFromAmount1(sqrtPriceX96, liquidity, amountOut, false)
	}
	return nextSqrtFromAmount0(sqrtPriceX96, liquidity, amountOut, false)
}

func nextSqrtFromAmount0(sqrtPriceX96, liquidity, amount numerics.Uint128, add bool) (numerics.Uint128, error) {
	if amount.IsZero() {
		return sqrtPriceX96, nil
	}
	numerator1 := new(uint256.Int).Lsh(liquidity.Uint256(), 96)
	product := new(uint256.Int).Mul(amount.Uint256(), sqrtPriceX96.Uint256())

	if add {
		denominator := new(uint256.Int).Add(numerator1, product)
		if denominator.Lt(numerator1) {
			return numerics.Uint128{}, fmt.Errorf("%w: denominator", ErrOverflow)
		}
		z, err := rawMulDivRoundUp(numerator1, sqrtPriceX96.Uint256(), denominator)
		if err != nil {
			return numerics.Uint128{}, err
		}
		return numerics.U128FromUint256(z)
	}

	if !numerator1.Gt(product) {
		return numerics.Uint128{}, fmt.Errorf("%w: denominator", ErrUnderflow)
	}
	denominator := new(uint256.Int).Sub(numerator1, product)
	z, err := rawMulDivRoundUp(numerator1, sqrtPriceX96.Uint256(), denominator)
	if err != nil {
		return numerics.Uint128{}, err
	}
	return numerics.U128FromUint256(z)
}

func nextSqrtFromAmount1(sqrtPriceX96, liquidity, amount numerics.Uint128, add bool) (numerics.Uint128, error) {
	if add {
		q, err := rawMulDiv(amount.Uint256(), q96, liquidity.Uint256())
		if err != nil {
			return numerics.Uint128{}, err
		}
		qU, err := numerics.U128FromUint256(q)
		if err != nil {
			return numerics.Uint128{}, err
		}
		return sqrtPriceX96.Add(qU)
	}
	q, err := rawMulDivRoundUp(amount.Uint256(), q96, liquidity.Uint256())
	if err != nil {
		return numerics.Uint128{}, err
	}
	qU, err := numerics.U128FromUint256(q)
	if err != nil {
		return numerics.Uint128{}, err
	}
	if !sqrtPriceX96.GreaterThan(qU) {
		return numerics.Uint128{}, fmt.Errorf("%w: sqrt price", ErrUnderflow)
	}
	return sqrtPriceX96.Sub(qU)
}

// AmountsForLiquidity dispatches on where sqrtPriceX96 sits relative to
// [sqrtRatioA, sqrtRatioB]: below range needs only token0, above range only
// token1, in range needs both.
func AmountsForLiquidity(sqrtPriceX96, sqrtRatioA, sqrtRatioB, liquidity numerics.Uint128) (amount0, amount1 numerics.Uint128, err error) {
	lower, upper := order(sqrtRatioA, sqrtRatioB)
	switch {
	case sqrtPriceX96.LessOrEqual(lower):
		amount0, err = Amount0Delta(lower, upper, liquidity, true)
		return amount0, numerics.U128FromUint64(0), err
	case sqrtPriceX96.LessThan(upper):
		amount0, err = Amount0Delta(sqrtPriceX96, upper, liquidity, true)
		if err != nil {
			return numerics.Uint128{}, numerics.Uint128{}, err
		}
		amount1, err = Amount1Delta(lower, sqrtPriceX96, liquidity, true)
		return amount0, amount1, err
	default:
		amount1, err = Amount1Delta(lower, upper, liquidity, true)
		return numerics.U128FromUint64(0), amount1, err
	}
}

// LiquidityForAmounts is the inverse of AmountsForLiquidity: given the two
// token amounts a caller is willing to supply, it returns the liquidity that
// consumes no more than either amount, using the same three-way dispatch.
func LiquidityForAmounts(sqrtPriceX96, sqrtRatioA, sqrtRatioB, amount0, amount1 numerics.Uint128) (numerics.Uint128, error) {
	lower, upper := order(sqrtRatioA, sqrtRatioB)
	switch {
	case sqrtPriceX96.LessOrEqual(lower):
		return liquidityForAmount0(lower, upper, amount0)
	case sqrtPriceX96.LessThan(upper):
		l0, err := liquidityForAmount0(sqrtPriceX96, upper, amount0)
		if err != nil {
			return numerics.Uint128{}, err
		}
		l1, err := liquidityForAmount1(lower, sqrtPriceX96, amount1)
		if err != nil {
			return numerics.Uint128{}, err
		}
		if l0.LessThan(l1) {
			return l0, nil
		}
		return l1, nil
	default:
		return liquidityForAmount1(lower, upper, amount1)
	}
}

func liquidityForAmount0(sqrtRatioA, sqrtRatioB, amount0 numerics.Uint128) (numerics.Uint128, error) {
	lower, upper := order(sqrtRatioA, sqrtRatioB)
	intermediate, err := rawMulDiv(lower.Uint256(), upper.Uint256(), q96)
	if err != nil {
		return numerics.Uint128{}, err
	}
	diff, err := upper.Sub(lower)
	if err != nil {
		return numerics.Uint128{}, err
	}
	z, err := rawMulDiv(amount0.Uint256(), intermediate, diff.Uint256())
	if err != nil {
		return numerics.Uint128{}, err
	}
	return numerics.U128FromUint256(z)
}

func liquidityForAmount1(sqrtRatioA, sqrtRatioB, amount1 numerics.Uint128) (numerics.Uint128, error) {
	lower, upper := order(sqrtRatioA, sqrtRatioB)
	diff, err := upper.Sub(lower)
	if err != nil {
		return numerics.Uint128{}, err
	}
	z, err := rawMulDiv(amount1.Uint256(), q96, diff.Uint256())
	if err != nil {
		return numerics.Uint128{}, err
	}
	return numerics.U128FromUint256(z)
}

func order(a, b numerics.Uint128) (lower, upper numerics.Uint128) {
	if a.GreaterThan(b) {
		return b, a
	}
	return a, b
}

func rawMulDiv(a, b, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, numerics.ErrDivByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(a, b, d)
	if overflow {
		return nil, fmt.Errorf("%w: mul_div result exceeds 256 bits", ErrOverflow)
	}
	return z, nil
}

func rawMulDivRoundUp(a, b, d *uint256.Int) (*uint256.Int, error) {
	q, err := rawMulDiv(a, b, d)
	if err != nil {
		return nil, err
	}
	r := new(uint256.Int).MulMod(a, b, d)
	if !r.IsZero() {
		q = new(uint256.Int).Add(q, uint256.NewInt(1))
	}
	return q, nil
}

func divRoundUpRaw(a, b *uint256.Int) *uint256.Int {
	q := new(uint256.Int).Div(a, b)
	r := new(uint256.Int).Mod(a, b)
	if !r.IsZero() {
		q.Add(q, uint256.NewInt(1))
	}
	return q
}

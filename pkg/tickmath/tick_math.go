package tickmath

import (
	"errors"
	"fmt"

	"github.com/CoinSummer/clamm-pool-engine/pkg/numerics"
	"github.com/holiman/uint256"
)

var (
	// ErrTickOutOfBounds is returned when a tick falls outside [MinTick, MaxTick].
	ErrTickOutOfBounds = errors.New("tickmath: tick out of bounds")
	// ErrRatioOutOfBounds is returned when a sqrt ratio falls outside
	// [MinSqrtRatio, MaxSqrtRatio).
	ErrRatioOutOfBounds = errors.New("tickmath: sqrt ratio out of bounds")
)

// SqrtRatioAtTick returns sqrt(1.0001^tick) * 2^96 as a Q96 fixed-point
// value. It walks the double-and-add ladder bit by bit over |tick|, then
// inverts for positive ticks and rescales from Q128 to Q96.
func SqrtRatioAtTick(tick int32) (numerics.Uint128, error) {
	if tick < MinTick || tick > MaxTick {
		return numerics.Uint128{}, fmt.Errorf("%w: %d", ErrTickOutOfBounds, tick)
	}

	absTick := tick
	if absTick < 0 {
		absTick = -absTick
	}
	u := uint32(absTick)

	ratio := new(uint256.Int).Set(q128)
	for i, c := range ladder {
		if u&(1<<uint(i)) != 0 {
			ratio = mulShift128(ratio, c)
		}
	}

	if tick > 0 {
		allOnes := new(uint256.Int).Not(uint256.NewInt(0))
		ratio = new(uint256.Int).Div(allOnes, ratio)
	}

	result := new(uint256.Int).Rsh(ratio, 32)

	if result.Gt(MaxSqrtRatio) {
		result = MaxSqrtRatio
	}
	if result.Lt(MinSqrtRatio) {
		result = MinSqrtRatio
	}

	return numerics.U128FromUint256(result)
}

// TickAtSqrtRatio recovers the tick whose sqrt ratio is the greatest value
// not exceeding sqrtPriceX96, via the same monotone binary search as the
// ground truth: SqrtRatioAtTick is monotonically increasing in tick, so the
// search narrows to the largest tick whose ratio is still <= sqrtPriceX96.
func TickAtSqrtRatio(sqrtPriceX96 numerics.Uint128) (int32, error) {
	p := sqrtPriceX96.Uint256()
	if p.Lt(MinSqrtRatio) || !p.Lt(MaxSqrtRatio) {
		return 0, fmt.Errorf("%w: %s", ErrRatioOutOfBounds, p.Dec())
	}

	low, high := MinTick, MaxTick
	for low < high {
		mid := (low + high + 1) / 2
		sqrtAtMid, err := SqrtRatioAtTick(mid)
		if err != nil {
			return 0, err
		}
		if !sqrtAtMid.Uint256().Gt(p) {
			low = mid
		} else {
			high = mid - 1
		}
	}
	return low, nil
}

func mulShift128(x, y *uint256.Int) *uint256.Int {
	product := new(uint256.Int).Mul(x, y)
	return product.Div(product, q128)
}

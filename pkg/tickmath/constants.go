// Package tickmath converts between tick indices and Q96 sqrt-price values.
//
// The conversion follows Uniswap v3's TickMath: a double-and-add ladder over
// precomputed sqrt(1.0001^(2^i)) constants, an invert step for positive
// ticks, and a final Q128->Q96 right-shift-by-32. The tick range is narrower
// than v3's so that MaxSqrtRatio fits inside a u128.
package tickmath

import "github.com/holiman/uint256"

const (
	// MinTick and MaxTick bound the tick range this engine will accept.
	// Narrower than Uniswap v3's +/-887272 so that the sqrt-price range
	// stays inside 128 bits end to end.
	MinTick int32 = -443636
	MaxTick int32 = 443636
)

var (
	// Q96 is 2^96, the fixed-point base for sqrtPriceX96 values.
	Q96 = new(uint256.Int).Lsh(uint256.NewInt(1), 96)

	// MinSqrtRatio and MaxSqrtRatio bound the valid sqrtPriceX96 range.
	// MinSqrtRatio equals SqrtRatioAtTick(MinTick); MaxSqrtRatio is one
	// above SqrtRatioAtTick(MaxTick) and still fits in 128 bits.
	MinSqrtRatio = uint256.MustFromDecimal("18447090764788882727")
	MaxSqrtRatio = uint256.MustFromDecimal("340275971719517849884101479065584693834")
)

var q128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)

var ladder = [19]*uint256.Int{
	mustHex("0xfffcb933bd6fad37aa2d162d1a594001"),
	mustHex("0xfff97272373d413259a46990580e213a"),
	mustHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
	mustHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
	mustHex("0xffcb9843d60f6159c9db58835c926644"),
	mustHex("0xff973b41fa98c081472e6896dfb254c0"),
	mustHex("0xff2ea16466c96a3843ec78b326b52861"),
	mustHex("0xfe5dee046a99a2a811c461f1969c3053"),
	mustHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
	mustHex("0xf987a7253ac413176f2b074cf7815e54"),
	mustHex("0xf3392b0822b70005940c7a398e4b70f3"),
	mustHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
	mustHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
	mustHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
	mustHex("0x70d869a156d2a1b890bb3df62baf32f7"),
	mustHex("0x31be135f97d08fd981231505542fcfa6"),
	mustHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
	mustHex("0x5d6af8dedb81196699c329225ee604"),
	mustHex("0x2216e584f5fa1ea926041bedfe98"),
}

func mustHex(s string) *uint256.Int {
	z, err := uint256.FromHex(s)
	if err != nil {
		panic(err)
	}
	return z
}

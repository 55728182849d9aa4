package numerics

import (
	"fmt"
	"math/big"
)

// Int128 is a signed integer represented as a sign and a Uint128 magnitude,
// so its range is (-(2^128), 2^128); no tighter 2^127 bound is enforced.
// Liquidity deltas and signed swap amounts use it.
type Int128 struct {
	neg bool
	mag Uint128
}

// ZeroI128 returns the zero value.
func ZeroI128() Int128 { return Int128{} }

// I128FromInt64 builds an Int128 from an int64.
func I128FromInt64(x int64) Int128 {
	if x < 0 {
		return Int128{neg: true, mag: U128FromUint64(uint64(-x))}
	}
	return Int128{neg: false, mag: U128FromUint64(uint64(x))}
}

// I128FromUint128 builds a signed value from a magnitude and sign. Zero
// magnitude is always treated as non-negative.
func I128FromUint128(mag Uint128, neg bool) Int128 {
	if mag.IsZero() {
		neg = false
	}
	return Int128{neg: neg, mag: mag}
}

// IsNeg reports whether i is strictly negative.
func (i Int128) IsNeg() bool { return i.neg && !i.mag.IsZero() }

// IsZero reports whether i is zero.
func (i Int128) IsZero() bool { return i.mag.IsZero() }

// Abs returns the unsigned magnitude of i.
func (i Int128) Abs() Uint128 { return i.mag }

// Neg returns -i.
func (i Int128) Neg() Int128 {
	if i.mag.IsZero() {
		return i
	}
	return Int128{neg: !i.neg, mag: i.mag}
}

// Cmp returns -1, 0 or 1 as i is less than, equal to, or greater than o.
func (i Int128) Cmp(o Int128) int {
	iNeg, oNeg := i.IsNeg(), o.IsNeg()
	if iNeg != oNeg {
		if iNeg {
			return -1
		}
		return 1
	}
	c := i.mag.Cmp(o.mag)
	if iNeg {
		return -c
	}
	return c
}

// Add returns i+o, failing with ErrOverflow if the magnitude exceeds 128
// bits.
func (i Int128) Add(o Int128) (Int128, error) {
	if i.neg == o.neg {
		m, err := i.mag.Add(o.mag)
		if err != nil {
			return Int128{}, err
		}
		return I128FromUint128(m, i.neg), nil
	}
	if i.mag.Cmp(o.mag) >= 0 {
		m, _ := i.mag.Sub(o.mag)
		return I128FromUint128(m, i.neg), nil
	}
	m, _ := o.mag.Sub(i.mag)
	return I128FromUint128(m, o.neg), nil
}

// Sub returns i-o.
func (i Int128) Sub(o Int128) (Int128, error) {
	return i.Add(o.Neg())
}

// Big returns the value as a signed big.Int, used by pkg/storage to persist
// liquidity_net through shopspring/decimal columns.
func (i Int128) Big() *big.Int {
	b := i.mag.Big()
	if i.IsNeg() {
		b.Neg(b)
	}
	return b
}

func (i Int128) String() string {
	if i.IsNeg() {
		return "-" + i.mag.String()
	}
	return i.mag.String()
}

// AddDelta applies a signed liquidity delta to an unsigned liquidity value.
// It fails with ErrUnderflow on an over-withdrawal and ErrOverflow if the
// result would exceed 128 bits.
func AddDelta(l Uint128, delta Int128) (Uint128, error) {
	if delta.IsNeg() {
		r, err := l.Sub(delta.Abs())
		if err != nil {
			return Uint128{}, fmt.Errorf("numerics: add_delta underflow: %w", err)
		}
		return r, nil
	}
	r, err := l.Add(delta.Abs())
	if err != nil {
		return Uint128{}, fmt.Errorf("numerics: add_delta overflow: %w", err)
	}
	return r, nil
}

// Package numerics implements the 128-bit fixed-point arithmetic the pool
// engine builds on: checked add/sub, mul-div with a 256-bit intermediate
// product, and the add-delta helper used throughout tick and position
// accounting.
//
// Everything is built on github.com/holiman/uint256: it gives an exact
// 256-bit product of two 128-bit operands, which is what avoids the phantom
// overflow a naive a*b/d computed in 128-bit arithmetic would hit.
package numerics

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// ErrOverflow is returned when a result does not fit in 128 bits.
	ErrOverflow = errors.New("numerics: value does not fit in 128 bits")
	// ErrUnderflow is returned when a subtraction would go negative.
	ErrUnderflow = errors.New("numerics: subtraction underflows")
	// ErrDivByZero is returned by any division with a zero divisor.
	ErrDivByZero = errors.New("numerics: division by zero")
)

var maxUint128 = func() *uint256.Int {
	one := uint256.NewInt(1)
	z := new(uint256.Int).Lsh(one, 128)
	return z.Sub(z, one)
}()

// Uint128 is an unsigned integer guaranteed to fit in [0, 2^128).
// The zero value is zero.
type Uint128 struct {
	v uint256.Int
}

// U128FromUint64 builds a Uint128 from a uint64.
func U128FromUint64(x uint64) Uint128 {
	var u Uint128
	u.v.SetUint64(x)
	return u
}

// U128FromUint256 builds a Uint128 from a 256-bit intermediate, failing if
// the value doesn't fit in 128 bits.
func U128FromUint256(x *uint256.Int) (Uint128, error) {
	if x.Gt(maxUint128) {
		return Uint128{}, fmt.Errorf("%w: %s", ErrOverflow, x.Dec())
	}
	var u Uint128
	u.v.Set(x)
	return u, nil
}

// U128FromBig builds a Uint128 from a big.Int, failing on negative values or
// values that overflow 128 bits.
func U128FromBig(b *big.Int) (Uint128, error) {
	if b.Sign() < 0 {
		return Uint128{}, fmt.Errorf("%w: negative value %s", ErrOverflow, b.String())
	}
	var x uint256.Int
	if overflow := x.SetFromBig(b); overflow {
		return Uint128{}, fmt.Errorf("%w: %s exceeds 256 bits", ErrOverflow, b.String())
	}
	return U128FromUint256(&x)
}

// Uint256 returns a standalone copy of the underlying 256-bit word, safe for
// the caller to widen via Lsh/Mul without affecting u.
func (u Uint128) Uint256() *uint256.Int {
	c := u.v
	return &c
}

// Big returns the value as a big.Int.
func (u Uint128) Big() *big.Int { return u.v.ToBig() }

// IsZero reports whether u is zero.
func (u Uint128) IsZero() bool { return u.v.IsZero() }

// Cmp returns -1, 0 or 1 as u is less than, equal to, or greater than o.
func (u Uint128) Cmp(o Uint128) int {
	switch {
	case u.v.Lt(&o.v):
		return -1
	case u.v.Gt(&o.v):
		return 1
	default:
		return 0
	}
}

func (u Uint128) LessThan(o Uint128) bool       { return u.v.Lt(&o.v) }
func (u Uint128) GreaterThan(o Uint128) bool    { return u.v.Gt(&o.v) }
func (u Uint128) Equal(o Uint128) bool          { return u.v.Eq(&o.v) }
func (u Uint128) LessOrEqual(o Uint128) bool    { return !u.v.Gt(&o.v) }
func (u Uint128) GreaterOrEqual(o Uint128) bool { return !u.v.Lt(&o.v) }

// Add returns u+o, failing with ErrOverflow if the result exceeds 128 bits.
func (u Uint128) Add(o Uint128) (Uint128, error) {
	var z uint256.Int
	z.Add(&u.v, &o.v)
	return U128FromUint256(&z)
}

// Sub returns u-o, failing with ErrUnderflow if o > u.
func (u Uint128) Sub(o Uint128) (Uint128, error) {
	if u.v.Lt(&o.v) {
		return Uint128{}, fmt.Errorf("%w: %s - %s", ErrUnderflow, u.v.Dec(), o.v.Dec())
	}
	var z uint256.Int
	z.Sub(&u.v, &o.v)
	return Uint128{z}, nil
}

// WrappingSub returns u-o modulo 2^128. Fee-growth accumulators live in
// Z/2^128: their subtraction must wrap, never error.
func (u Uint128) WrappingSub(o Uint128) Uint128 {
	if !u.v.Lt(&o.v) {
		var z uint256.Int
		z.Sub(&u.v, &o.v)
		return Uint128{z}
	}
	var z uint256.Int
	z.Add(&u.v, maxUint128)
	z.Sub(&z, &o.v)
	var one uint256.Int
	one.SetUint64(1)
	z.Add(&z, &one)
	return Uint128{z}
}

func (u Uint128) String() string { return u.v.Dec() }

// MulDiv computes floor(a*b/d) using a 256-bit intermediate product.
func MulDiv(a, b, d Uint128) (Uint128, error) {
	if d.IsZero() {
		return Uint128{}, ErrDivByZero
	}
	var prod uint256.Int
	prod.Mul(&a.v, &b.v)
	var q uint256.Int
	q.Div(&prod, &d.v)
	return U128FromUint256(&q)
}

// MulDivRoundUp computes ceil(a*b/d) using a 256-bit intermediate product.
func MulDivRoundUp(a, b, d Uint128) (Uint128, error) {
	if d.IsZero() {
		return Uint128{}, ErrDivByZero
	}
	var prod uint256.Int
	prod.Mul(&a.v, &b.v)
	var q uint256.Int
	q.Div(&prod, &d.v)
	var r uint256.Int
	r.Mod(&prod, &d.v)
	if !r.IsZero() {
		var one uint256.Int
		one.SetUint64(1)
		q.Add(&q, &one)
	}
	return U128FromUint256(&q)
}

// DivRoundUp computes ceil(a/b).
func DivRoundUp(a, b Uint128) (Uint128, error) {
	if b.IsZero() {
		return Uint128{}, ErrDivByZero
	}
	if a.IsZero() {
		return Uint128{}, nil
	}
	one := U128FromUint64(1)
	aMinus1, err := a.Sub(one)
	if err != nil {
		return Uint128{}, err
	}
	var q uint256.Int
	q.Div(aMinus1.Uint256(), &b.v)
	var oneW uint256.Int
	oneW.SetUint64(1)
	q.Add(&q, &oneW)
	return U128FromUint256(&q)
}

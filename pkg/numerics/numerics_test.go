package numerics

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMulDivAvoidsPhantomOverflow(t *testing.T) {
	// a*b alone overflows 128 bits but the true quotient fits comfortably.
	a := U128FromUint64(1 << 63)
	b := U128FromUint64(1 << 63)
	d := U128FromUint64(1 << 62)
	got, err := MulDiv(a, b, d)
	require.NoError(t, err)
	want, err := U128FromBig(new(big.Int).Lsh(big.NewInt(1), 64))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestMulDivRoundUp(t *testing.T) {
	a := U128FromUint64(7)
	b := U128FromUint64(1)
	d := U128FromUint64(2)
	down, err := MulDiv(a, b, d)
	require.NoError(t, err)
	require.Equal(t, U128FromUint64(3), down)

	up, err := MulDivRoundUp(a, b, d)
	require.NoError(t, err)
	require.Equal(t, U128FromUint64(4), up)
}

func TestMulDivByZero(t *testing.T) {
	_, err := MulDiv(U128FromUint64(1), U128FromUint64(1), U128FromUint64(0))
	require.ErrorIs(t, err, ErrDivByZero)
}

func TestDivRoundUp(t *testing.T) {
	got, err := DivRoundUp(U128FromUint64(10), U128FromUint64(3))
	require.NoError(t, err)
	require.Equal(t, U128FromUint64(4), got)

	got, err = DivRoundUp(U128FromUint64(9), U128FromUint64(3))
	require.NoError(t, err)
	require.Equal(t, U128FromUint64(3), got)

	got, err = DivRoundUp(U128FromUint64(0), U128FromUint64(3))
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestUint128SubUnderflow(t *testing.T) {
	_, err := U128FromUint64(1).Sub(U128FromUint64(2))
	require.ErrorIs(t, err, ErrUnderflow)
}

func TestUint128WrappingSub(t *testing.T) {
	zero := U128FromUint64(0)
	one := U128FromUint64(1)
	got := zero.WrappingSub(one)
	want, err := maxUint128Value().Sub(U128FromUint64(0))
	require.NoError(t, err)
	require.Equal(t, want.String(), got.String())
}

func maxUint128Value() Uint128 {
	u, err := U128FromUint256(maxUint128)
	if err != nil {
		panic(err)
	}
	return u
}

func TestAddDeltaPositiveAndNegative(t *testing.T) {
	l := U128FromUint64(100)

	up, err := AddDelta(l, I128FromInt64(50))
	require.NoError(t, err)
	require.Equal(t, U128FromUint64(150), up)

	down, err := AddDelta(l, I128FromInt64(-50))
	require.NoError(t, err)
	require.Equal(t, U128FromUint64(50), down)

	_, err = AddDelta(l, I128FromInt64(-200))
	require.ErrorIs(t, err, ErrUnderflow)
}

func TestInt128CmpAndArithmetic(t *testing.T) {
	neg := I128FromInt64(-10)
	pos := I128FromInt64(10)
	require.True(t, neg.IsNeg())
	require.False(t, pos.IsNeg())
	require.Equal(t, -1, neg.Cmp(pos))
	require.Equal(t, 1, pos.Cmp(neg))

	sum, err := neg.Add(pos)
	require.NoError(t, err)
	require.True(t, sum.IsZero())

	diff, err := pos.Sub(I128FromInt64(3))
	require.NoError(t, err)
	require.Equal(t, I128FromInt64(7), diff)
}

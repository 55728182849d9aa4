package storage

import (
	"math/big"

	"github.com/CoinSummer/clamm-pool-engine/pkg/numerics"
	"github.com/shopspring/decimal"
)

// Decimal is the column type every 128-bit field persists as.
type Decimal = decimal.Decimal

// fromU128 converts a 128-bit unsigned magnitude to its decimal column
// representation.
func fromU128(u numerics.Uint128) Decimal {
	return decimal.NewFromBigInt(u.Big(), 0)
}

// fromI128 converts a signed 128-bit magnitude to its decimal column
// representation.
func fromI128(i numerics.Int128) Decimal {
	return decimal.NewFromBigInt(i.Big(), 0)
}

// toU128 converts a decimal column value back to a Uint128, failing if the
// stored value is negative or out of range.
func toU128(d Decimal) (numerics.Uint128, error) {
	return numerics.U128FromBig(d.BigInt())
}

// toI128 converts a decimal column value back to an Int128's magnitude and
// sign.
func toI128(d Decimal) (numerics.Int128, error) {
	v := d.BigInt()
	neg := v.Sign() < 0
	if neg {
		v = new(big.Int).Neg(v)
	}
	mag, err := numerics.U128FromBig(v)
	if err != nil {
		return numerics.Int128{}, err
	}
	return numerics.I128FromUint128(mag, neg), nil
}

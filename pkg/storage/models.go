// Package storage persists pool state to SQLite via GORM: three tables for
// the pool's scalar state, its sparse tick map, and its position map.
//
// Every 128-bit field is stored as a shopspring/decimal column rather than a
// string or blob; decimal.Decimal already satisfies database/sql's
// Scanner/Valuer, so GORM needs no custom serialization.
package storage

import (
	"gorm.io/gorm"
)

// PoolRecord is the persisted scalar state of a single pool, keyed by
// PoolAddress.
type PoolRecord struct {
	gorm.Model
	PoolAddress          string `gorm:"uniqueIndex"`
	Token0               string
	Token1               string
	Fee                  uint32
	TickSpacing          int32
	SqrtPriceX96         Decimal
	Tick                 int32
	Liquidity            Decimal
	FeeGrowthGlobal0X128 Decimal
	FeeGrowthGlobal1X128 Decimal
}

// TickRecord is one row of a pool's sparse tick map.
type TickRecord struct {
	gorm.Model
	PoolAddress           string `gorm:"uniqueIndex:idx_pool_tick"`
	Tick                  int32  `gorm:"uniqueIndex:idx_pool_tick"`
	LiquidityGross        Decimal
	LiquidityNet          Decimal
	FeeGrowthOutside0X128 Decimal
	FeeGrowthOutside1X128 Decimal
}

// PositionRecord is one row of a pool's position map.
type PositionRecord struct {
	gorm.Model
	PoolAddress              string `gorm:"uniqueIndex:idx_pool_position"`
	Owner                    string `gorm:"uniqueIndex:idx_pool_position"`
	TickLower                int32  `gorm:"uniqueIndex:idx_pool_position"`
	TickUpper                int32  `gorm:"uniqueIndex:idx_pool_position"`
	Liquidity                Decimal
	FeeGrowthInside0LastX128 Decimal
	FeeGrowthInside1LastX128 Decimal
	TokensOwed0              Decimal
	TokensOwed1              Decimal
}

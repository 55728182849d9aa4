package storage

import (
	"fmt"

	"github.com/CoinSummer/clamm-pool-engine/pkg/pool"
	"github.com/ethereum/go-ethereum/common"
)

// Load rebuilds a pool from its persisted scalar row, ticks, and positions,
// the read-side counterpart of Flush. It restores the engine's sparse tick
// and position maps row by row rather than through Mint/Burn, since the
// persisted fee-growth-outside and liquidity-net values are themselves the
// derived accounting state, not something a replayed Mint would reproduce
// exactly once fees have accrued.
func (s *Store) Load(poolAddress string) (*pool.Pool, error) {
	var record PoolRecord
	if err := s.db.Where("pool_address = ?", poolAddress).First(&record).Error; err != nil {
		return nil, fmt.Errorf("storage: load pool %s: %w", poolAddress, err)
	}

	cfg := pool.Config{
		Token0:      common.HexToAddress(record.Token0),
		Token1:      common.HexToAddress(record.Token1),
		Fee:         record.Fee,
		TickSpacing: record.TickSpacing,
	}
	p, err := pool.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: rebuild pool %s: %w", poolAddress, err)
	}

	sqrtPrice, err := toU128(record.SqrtPriceX96)
	if err != nil {
		return nil, fmt.Errorf("storage: pool %s sqrt price: %w", poolAddress, err)
	}
	if !sqrtPrice.IsZero() {
		if err := p.Initialize(sqrtPrice); err != nil {
			return nil, fmt.Errorf("storage: initialize pool %s: %w", poolAddress, err)
		}
	}

	liquidity, err := toU128(record.Liquidity)
	if err != nil {
		return nil, fmt.Errorf("storage: pool %s liquidity: %w", poolAddress, err)
	}
	feeGrowth0, err := toU128(record.FeeGrowthGlobal0X128)
	if err != nil {
		return nil, fmt.Errorf("storage: pool %s fee growth0: %w", poolAddress, err)
	}
	feeGrowth1, err := toU128(record.FeeGrowthGlobal1X128)
	if err != nil {
		return nil, fmt.Errorf("storage: pool %s fee growth1: %w", poolAddress, err)
	}

	var ticks []TickRecord
	if err := s.db.Where("pool_address = ?", poolAddress).Find(&ticks).Error; err != nil {
		return nil, fmt.Errorf("storage: load ticks for %s: %w", poolAddress, err)
	}
	for _, row := range ticks {
		if err := restoreTick(p, row); err != nil {
			return nil, fmt.Errorf("storage: restore tick %d for %s: %w", row.Tick, poolAddress, err)
		}
	}

	var positions []PositionRecord
	if err := s.db.Where("pool_address = ?", poolAddress).Find(&positions).Error; err != nil {
		return nil, fmt.Errorf("storage: load positions for %s: %w", poolAddress, err)
	}
	for _, row := range positions {
		if err := restorePosition(p, row); err != nil {
			return nil, fmt.Errorf("storage: restore position %s[%d,%d] for %s: %w", row.Owner, row.TickLower, row.TickUpper, poolAddress, err)
		}
	}

	return p.RestoreState(pool.State{
		SqrtPriceX96:         sqrtPrice,
		Tick:                 record.Tick,
		Liquidity:            liquidity,
		FeeGrowthGlobal0X128: feeGrowth0,
		FeeGrowthGlobal1X128: feeGrowth1,
	})
}

func restoreTick(p *pool.Pool, row TickRecord) error {
	gross, err := toU128(row.LiquidityGross)
	if err != nil {
		return err
	}
	net, err := toI128(row.LiquidityNet)
	if err != nil {
		return err
	}
	outside0, err := toU128(row.FeeGrowthOutside0X128)
	if err != nil {
		return err
	}
	outside1, err := toU128(row.FeeGrowthOutside1X128)
	if err != nil {
		return err
	}
	return p.RestoreTick(row.Tick, pool.TickInfo{
		LiquidityGross:        gross,
		LiquidityNet:          net,
		FeeGrowthOutside0X128: outside0,
		FeeGrowthOutside1X128: outside1,
		Initialized:           true,
	})
}

func restorePosition(p *pool.Pool, row PositionRecord) error {
	liquidity, err := toU128(row.Liquidity)
	if err != nil {
		return err
	}
	feeGrowth0, err := toU128(row.FeeGrowthInside0LastX128)
	if err != nil {
		return err
	}
	feeGrowth1, err := toU128(row.FeeGrowthInside1LastX128)
	if err != nil {
		return err
	}
	owed0, err := toU128(row.TokensOwed0)
	if err != nil {
		return err
	}
	owed1, err := toU128(row.TokensOwed1)
	if err != nil {
		return err
	}
	return p.RestorePosition(pool.Position{
		Owner:                    common.HexToAddress(row.Owner),
		TickLower:                row.TickLower,
		TickUpper:                row.TickUpper,
		Liquidity:                liquidity,
		FeeGrowthInside0LastX128: feeGrowth0,
		FeeGrowthInside1LastX128: feeGrowth1,
		TokensOwed0:              owed0,
		TokensOwed1:              owed1,
	})
}

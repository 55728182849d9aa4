package storage

import (
	"fmt"
	"sync"

	"github.com/CoinSummer/clamm-pool-engine/pkg/pool"
	"github.com/CoinSummer/clamm-pool-engine/pkg/tickmath"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store is a SQLite-backed snapshot target for one or more pools. It tracks,
// per pool address, whether the scalar row has been created yet, so Flush
// can decide between an insert and an update without a read.
type Store struct {
	db *gorm.DB

	mu      sync.Mutex
	created map[string]bool
}

// Open creates (or reopens) a SQLite database at path and migrates the
// pool/tick/position tables via GORM's AutoMigrate.
func Open(path string) (*Store, error) {
	gormCfg := &gorm.Config{}
	if logrus.GetLevel() < logrus.DebugLevel {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	db, err := gorm.Open(sqlite.Open(path), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&PoolRecord{}, &TickRecord{}, &PositionRecord{}); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}

	return &Store{db: db, created: make(map[string]bool)}, nil
}

// Flush writes the pool's full current state (scalar fields, every
// initialized tick, and every position) to the database, creating the
// scalar row on first call and updating it thereafter.
func (s *Store) Flush(poolAddress string, p *pool.Pool) error {
	state, err := p.GetState()
	if err != nil {
		return fmt.Errorf("storage: flush %s: %w", poolAddress, err)
	}
	cfg := p.GetConfig()

	s.mu.Lock()
	defer s.mu.Unlock()

	if logrus.GetLevel() >= logrus.DebugLevel {
		logrus.Debugf("storage: flushing pool %s at tick=%d liquidity=%s", poolAddress, state.Tick, state.Liquidity)
	}

	if err := s.flushScalar(poolAddress, cfg, state); err != nil {
		return err
	}
	if err := s.flushTicks(poolAddress, p); err != nil {
		return err
	}
	if err := s.flushPositions(poolAddress, p); err != nil {
		return err
	}
	return nil
}

func (s *Store) flushScalar(poolAddress string, cfg pool.Config, state pool.State) error {
	if s.created[poolAddress] {
		return s.db.Model(&PoolRecord{}).Where("pool_address = ?", poolAddress).Updates(map[string]interface{}{
			"sqrt_price_x96":          fromU128(state.SqrtPriceX96),
			"tick":                    state.Tick,
			"liquidity":               fromU128(state.Liquidity),
			"fee_growth_global0_x128": fromU128(state.FeeGrowthGlobal0X128),
			"fee_growth_global1_x128": fromU128(state.FeeGrowthGlobal1X128),
		}).Error
	}

	record := PoolRecord{
		PoolAddress:          poolAddress,
		Token0:               cfg.Token0.Hex(),
		Token1:               cfg.Token1.Hex(),
		Fee:                  cfg.Fee,
		TickSpacing:          cfg.TickSpacing,
		SqrtPriceX96:         fromU128(state.SqrtPriceX96),
		Tick:                 state.Tick,
		Liquidity:            fromU128(state.Liquidity),
		FeeGrowthGlobal0X128: fromU128(state.FeeGrowthGlobal0X128),
		FeeGrowthGlobal1X128: fromU128(state.FeeGrowthGlobal1X128),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("storage: create pool %s: %w", poolAddress, err)
	}
	s.created[poolAddress] = true
	return nil
}

// flushTicks replaces every persisted tick row for the pool with the tick
// store's current contents. The tick map is sparse and typically small
// enough to round-trip whole; pkg/pool's own ListInitialized already bounds
// any single read to 50 rows, so this walks the full store a page at a time
// instead of introducing a second, unbounded iteration path.
func (s *Store) flushTicks(poolAddress string, p *pool.Pool) error {
	if err := s.db.Unscoped().Where("pool_address = ?", poolAddress).Delete(&TickRecord{}).Error; err != nil {
		return fmt.Errorf("storage: clear ticks for %s: %w", poolAddress, err)
	}

	start := tickmath.MinTick
	for {
		ticks, infos, next, hasMore := p.ListTicks(start, 0)
		rows := make([]TickRecord, len(ticks))
		for i, tick := range ticks {
			rows[i] = TickRecord{
				PoolAddress:           poolAddress,
				Tick:                  tick,
				LiquidityGross:        fromU128(infos[i].LiquidityGross),
				LiquidityNet:          fromI128(infos[i].LiquidityNet),
				FeeGrowthOutside0X128: fromU128(infos[i].FeeGrowthOutside0X128),
				FeeGrowthOutside1X128: fromU128(infos[i].FeeGrowthOutside1X128),
			}
		}
		if len(rows) > 0 {
			if err := s.db.Create(&rows).Error; err != nil {
				return fmt.Errorf("storage: write ticks for %s: %w", poolAddress, err)
			}
		}
		if !hasMore {
			return nil
		}
		start = next
	}
}

// flushPositions mirrors flushTicks for the position map.
func (s *Store) flushPositions(poolAddress string, p *pool.Pool) error {
	if err := s.db.Unscoped().Where("pool_address = ?", poolAddress).Delete(&PositionRecord{}).Error; err != nil {
		return fmt.Errorf("storage: clear positions for %s: %w", poolAddress, err)
	}

	after := ""
	for {
		positions, next, hasMore := p.ListPositions(after, 0)
		rows := make([]PositionRecord, len(positions))
		for i, pos := range positions {
			rows[i] = PositionRecord{
				PoolAddress:              poolAddress,
				Owner:                    pos.Owner.Hex(),
				TickLower:                pos.TickLower,
				TickUpper:                pos.TickUpper,
				Liquidity:                fromU128(pos.Liquidity),
				FeeGrowthInside0LastX128: fromU128(pos.FeeGrowthInside0LastX128),
				FeeGrowthInside1LastX128: fromU128(pos.FeeGrowthInside1LastX128),
				TokensOwed0:              fromU128(pos.TokensOwed0),
				TokensOwed1:              fromU128(pos.TokensOwed1),
			}
		}
		if len(rows) > 0 {
			if err := s.db.Create(&rows).Error; err != nil {
				return fmt.Errorf("storage: write positions for %s: %w", poolAddress, err)
			}
		}
		if !hasMore {
			return nil
		}
		after = next
	}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

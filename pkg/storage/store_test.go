package storage

import (
	"testing"

	"github.com/CoinSummer/clamm-pool-engine/pkg/numerics"
	"github.com/CoinSummer/clamm-pool-engine/pkg/pool"
	"github.com/CoinSummer/clamm-pool-engine/pkg/tickmath"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T) *pool.Pool {
	t.Helper()
	cfg := pool.Config{
		Token0:      common.HexToAddress("0x1000000000000000000000000000000000000001"),
		Token1:      common.HexToAddress("0x2000000000000000000000000000000000000002"),
		Fee:         3000,
		TickSpacing: 60,
	}
	p, err := pool.New(cfg)
	require.NoError(t, err)
	sqrtPrice, err := tickmath.SqrtRatioAtTick(0)
	require.NoError(t, err)
	require.NoError(t, p.Initialize(sqrtPrice))
	return p
}

func TestFlushThenLoadRoundTrips(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	p := newTestPool(t)
	owner := common.HexToAddress("0xaaaa000000000000000000000000000000aaaa")
	trader := common.HexToAddress("0xbbbb000000000000000000000000000000bbbb")

	_, _, err = p.Mint(owner, -6000, 6000, numerics.U128FromUint64(1_000_000_000_000))
	require.NoError(t, err)
	_, _, err = p.Swap(trader, true, numerics.I128FromInt64(1_000_000), nil)
	require.NoError(t, err)

	const addr = "0xpool0000000000000000000000000000000001"
	require.NoError(t, store.Flush(addr, p))

	loaded, err := store.Load(addr)
	require.NoError(t, err)

	before, err := p.GetState()
	require.NoError(t, err)
	after, err := loaded.GetState()
	require.NoError(t, err)

	require.True(t, before.SqrtPriceX96.Equal(after.SqrtPriceX96))
	require.Equal(t, before.Tick, after.Tick)
	require.True(t, before.Liquidity.Equal(after.Liquidity))
	require.True(t, before.FeeGrowthGlobal0X128.Equal(after.FeeGrowthGlobal0X128))

	cfg := loaded.GetConfig()
	require.Equal(t, p.GetConfig().Token0, cfg.Token0)

	restoredPos := loaded.GetPosition(owner, -6000, 6000)
	originalPos := p.GetPosition(owner, -6000, 6000)
	require.True(t, restoredPos.Liquidity.Equal(originalPos.Liquidity))

	tick := loaded.GetTick(-6000)
	original := p.GetTick(-6000)
	require.True(t, tick.LiquidityGross.Equal(original.LiquidityGross))
	require.True(t, tick.Initialized)
}

func TestFlushTwiceUpdatesRatherThanDuplicates(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	p := newTestPool(t)
	owner := common.HexToAddress("0xaaaa000000000000000000000000000000aaaa")
	const addr = "0xpool0000000000000000000000000000000002"

	_, _, err = p.Mint(owner, -600, 600, numerics.U128FromUint64(1_000_000))
	require.NoError(t, err)
	require.NoError(t, store.Flush(addr, p))

	trader := common.HexToAddress("0xbbbb000000000000000000000000000000bbbb")
	_, _, err = p.Swap(trader, false, numerics.I128FromInt64(500), nil)
	require.NoError(t, err)
	require.NoError(t, store.Flush(addr, p))

	var count int64
	require.NoError(t, store.db.Model(&PoolRecord{}).Where("pool_address = ?", addr).Count(&count).Error)
	require.Equal(t, int64(1), count, "flushing the same pool twice must update, not insert a second row")

	loaded, err := store.Load(addr)
	require.NoError(t, err)
	after, err := loaded.GetState()
	require.NoError(t, err)
	live, err := p.GetState()
	require.NoError(t, err)
	require.True(t, after.SqrtPriceX96.Equal(live.SqrtPriceX96))
}

package pool

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/CoinSummer/clamm-pool-engine/pkg/bitmap"
	"github.com/CoinSummer/clamm-pool-engine/pkg/numerics"
	"github.com/CoinSummer/clamm-pool-engine/pkg/tickmath"
)

// maxPageSize caps every "list all X" enumeration at 50 entries per call so
// a full sparse-map scan never blows a host's per-operation read budget.
const maxPageSize = 50

// TickInfo is the per-tick accounting record. Invariants: |LiquidityNet| <=
// LiquidityGross, and Initialized iff LiquidityGross > 0.
type TickInfo struct {
	LiquidityGross        numerics.Uint128
	LiquidityNet          numerics.Int128
	FeeGrowthOutside0X128 numerics.Uint128
	FeeGrowthOutside1X128 numerics.Uint128
	Initialized           bool
}

// TickStore holds every initialized tick plus the bitmap index used to find
// the next initialized tick in a swap step. The bitmap bit for a tick is set
// iff its TickInfo is initialized; Update and Clear keep the two in sync.
type TickStore struct {
	spacing int32
	ticks   map[int32]*TickInfo
	bitmap  *bitmap.TickBitmap
}

// NewTickStore returns an empty store for pools with the given tick spacing.
func NewTickStore(spacing int32) *TickStore {
	return &TickStore{
		spacing: spacing,
		ticks:   make(map[int32]*TickInfo),
		bitmap:  bitmap.New(),
	}
}

// Clone deep-copies the store, bitmap included.
func (s *TickStore) Clone() *TickStore {
	clone := NewTickStore(s.spacing)
	for tick, info := range s.ticks {
		cp := *info
		clone.ticks[tick] = &cp
		if info.Initialized {
			_ = clone.bitmap.Flip(tick, s.spacing)
		}
	}
	return clone
}

func (s *TickStore) getOrInit(tick int32) *TickInfo {
	info, ok := s.ticks[tick]
	if !ok {
		info = &TickInfo{
			LiquidityGross:        numerics.U128FromUint64(0),
			LiquidityNet:          numerics.ZeroI128(),
			FeeGrowthOutside0X128: numerics.U128FromUint64(0),
			FeeGrowthOutside1X128: numerics.U128FromUint64(0),
		}
		s.ticks[tick] = info
	}
	return info
}

// Get returns the tick info for tick, or a zero-valued TickInfo if it has
// never been touched (a read-only view; it is not inserted into the store).
func (s *TickStore) Get(tick int32) TickInfo {
	info, ok := s.ticks[tick]
	if !ok {
		return TickInfo{LiquidityGross: numerics.U128FromUint64(0), LiquidityNet: numerics.ZeroI128()}
	}
	return *info
}

// Update applies a liquidity delta to tick, initializing it on first touch
// and rejecting the update if liquidity_gross would exceed maxLiquidity. It
// reports whether the tick flipped between zero and nonzero gross liquidity
// so the caller knows to toggle the bitmap-backed lifecycle (clear on burn).
func (s *TickStore) Update(
	tick, tickCurrent int32,
	liquidityDelta numerics.Int128,
	feeGrowthGlobal0X128, feeGrowthGlobal1X128 numerics.Uint128,
	upper bool,
	maxLiquidity numerics.Uint128,
) (flipped bool, err error) {
	info := s.getOrInit(tick)

	grossBefore := info.LiquidityGross
	grossAfter, err := numerics.AddDelta(grossBefore, liquidityDelta)
	if err != nil {
		return false, fmt.Errorf("%w: tick %d", ErrLiquidityUnderflow, tick)
	}
	if grossAfter.GreaterThan(maxLiquidity) {
		return false, fmt.Errorf("%w: tick %d", ErrLiquidityOverflow, tick)
	}

	flipped = grossAfter.IsZero() != grossBefore.IsZero()

	if grossBefore.IsZero() {
		if tick <= tickCurrent {
			info.FeeGrowthOutside0X128 = feeGrowthGlobal0X128
			info.FeeGrowthOutside1X128 = feeGrowthGlobal1X128
		}
		info.Initialized = true
	}

	info.LiquidityGross = grossAfter

	if upper {
		info.LiquidityNet, err = info.LiquidityNet.Sub(liquidityDelta)
	} else {
		info.LiquidityNet, err = info.LiquidityNet.Add(liquidityDelta)
	}
	if err != nil {
		return false, fmt.Errorf("%w: liquidity_net tick %d", ErrLiquidityOverflow, tick)
	}

	if flipped {
		if err := s.bitmap.Flip(tick, s.spacing); err != nil {
			return false, err
		}
	}

	return flipped, nil
}

// Clear removes a tick once its gross liquidity returns to zero.
func (s *TickStore) Clear(tick int32) {
	delete(s.ticks, tick)
}

// Cross flips a tick's outside fee-growth accumulators as price crosses it
// during a swap, returning the liquidity_net to apply to the running
// liquidity total. Fee growth outside is wrapping-subtracted from global,
// not recomputed.
func (s *TickStore) Cross(tick int32, feeGrowthGlobal0X128, feeGrowthGlobal1X128 numerics.Uint128) numerics.Int128 {
	info := s.getOrInit(tick)
	info.FeeGrowthOutside0X128 = feeGrowthGlobal0X128.WrappingSub(info.FeeGrowthOutside0X128)
	info.FeeGrowthOutside1X128 = feeGrowthGlobal1X128.WrappingSub(info.FeeGrowthOutside1X128)
	return info.LiquidityNet
}

// NextInitialized locates the next initialized tick within the bitmap word
// containing tick, delegating entirely to the bitmap's within-word search.
// When the word holds no set bit in the requested direction it returns the
// word's boundary tick with found=false; the swap loop in swap.go advances
// to that boundary and calls again, so multi-word gaps cost one loop
// iteration per empty word rather than being walked here.
func (s *TickStore) NextInitialized(tick int32, lte bool) (int32, bool, error) {
	compressed := tick / s.spacing
	if tick < 0 && tick%s.spacing != 0 {
		compressed--
	}
	aligned := compressed * s.spacing

	next, found, err := s.bitmap.NextInitializedWithinWord(aligned, s.spacing, lte)
	if err != nil {
		return 0, false, err
	}
	if next < tickmath.MinTick {
		next = tickmath.MinTick
	}
	if next > tickmath.MaxTick {
		next = tickmath.MaxTick
	}
	return next, found, nil
}

// FeeGrowthInside computes the fee growth accrued inside [tickLower,
// tickUpper] given the current tick and the pool's global accumulators,
// using wrapping subtraction throughout: inside = global - below - above.
func (s *TickStore) FeeGrowthInside(
	tickLower, tickUpper, tickCurrent int32,
	feeGrowthGlobal0X128, feeGrowthGlobal1X128 numerics.Uint128,
) (numerics.Uint128, numerics.Uint128) {
	lower := s.Get(tickLower)
	upper := s.Get(tickUpper)

	var feeGrowthBelow0, feeGrowthBelow1 numerics.Uint128
	if tickCurrent >= tickLower {
		feeGrowthBelow0 = lower.FeeGrowthOutside0X128
		feeGrowthBelow1 = lower.FeeGrowthOutside1X128
	} else {
		feeGrowthBelow0 = feeGrowthGlobal0X128.WrappingSub(lower.FeeGrowthOutside0X128)
		feeGrowthBelow1 = feeGrowthGlobal1X128.WrappingSub(lower.FeeGrowthOutside1X128)
	}

	var feeGrowthAbove0, feeGrowthAbove1 numerics.Uint128
	if tickCurrent < tickUpper {
		feeGrowthAbove0 = upper.FeeGrowthOutside0X128
		feeGrowthAbove1 = upper.FeeGrowthOutside1X128
	} else {
		feeGrowthAbove0 = feeGrowthGlobal0X128.WrappingSub(upper.FeeGrowthOutside0X128)
		feeGrowthAbove1 = feeGrowthGlobal1X128.WrappingSub(upper.FeeGrowthOutside1X128)
	}

	inside0 := feeGrowthGlobal0X128.WrappingSub(feeGrowthBelow0).WrappingSub(feeGrowthAbove0)
	inside1 := feeGrowthGlobal1X128.WrappingSub(feeGrowthBelow1).WrappingSub(feeGrowthAbove1)
	return inside0, inside1
}

// ListInitialized returns up to maxPageSize initialized ticks at or above
// startTick, in ascending tick order, plus the tick to pass as startTick on
// the next call (0, false when the enumeration is exhausted). pkg/storage's
// Flush walks the tick map through this method a page at a time.
func (s *TickStore) ListInitialized(startTick int32, pageSize int) (ticks []int32, infos []TickInfo, next int32, hasMore bool) {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	keys := make([]int32, 0, len(s.ticks))
	for tick, info := range s.ticks {
		if info.Initialized && tick >= startTick {
			keys = append(keys, tick)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	if len(keys) > pageSize {
		hasMore = true
		next = keys[pageSize]
		keys = keys[:pageSize]
	}

	ticks = keys
	infos = make([]TickInfo, len(keys))
	for i, tick := range keys {
		infos[i] = *s.ticks[tick]
	}
	return ticks, infos, next, hasMore
}

// Restore inserts tick info directly into the store, flipping the bitmap if
// the tick is initialized and not already marked so, bypassing Update's
// liquidity-delta bookkeeping. Used by pkg/storage's Load to rebuild a pool
// from a persisted snapshot, where the fee-growth-outside and liquidity-net
// values are themselves the thing being restored, not recomputed.
func (s *TickStore) Restore(tick int32, info TickInfo) error {
	cp := info
	s.ticks[tick] = &cp

	if info.Initialized {
		already, err := s.bitmap.IsInitialized(tick, s.spacing)
		if err != nil {
			return err
		}
		if !already {
			if err := s.bitmap.Flip(tick, s.spacing); err != nil {
				return err
			}
		}
	}
	return nil
}

// MaxLiquidityPerTick computes the largest liquidity_gross a single tick may
// hold for a given spacing: the full 128-bit range divided evenly across
// every tick a pool with that spacing can initialize, so the sum over all
// ticks can never overflow a u128. Only spacing-aligned ticks count, so the
// domain bounds are truncated to aligned boundaries before counting.
func MaxLiquidityPerTick(spacing int32) (numerics.Uint128, error) {
	minAligned := (tickmath.MinTick / spacing) * spacing
	maxAligned := (tickmath.MaxTick / spacing) * spacing
	numTicks := (maxAligned-minAligned)/spacing + 1

	maxU128Big := new(big.Int).Lsh(big.NewInt(1), 128)
	maxU128Big.Sub(maxU128Big, big.NewInt(1))
	maxU128, err := numerics.U128FromBig(maxU128Big)
	if err != nil {
		return numerics.Uint128{}, err
	}

	return numerics.MulDiv(maxU128, numerics.U128FromUint64(1), numerics.U128FromUint64(uint64(numTicks)))
}

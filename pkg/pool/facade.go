package pool

import (
	"bytes"
	"sync"

	"github.com/CoinSummer/clamm-pool-engine/pkg/feeregistry"
	"github.com/CoinSummer/clamm-pool-engine/pkg/numerics"
	"github.com/CoinSummer/clamm-pool-engine/pkg/tickmath"
	"github.com/ethereum/go-ethereum/common"
)

// Config is the immutable identity of a pool: its token pair, fee tier and
// tick spacing.
type Config struct {
	Token0      common.Address
	Token1      common.Address
	Fee         uint32
	TickSpacing int32
}

// Pool is the concentrated-liquidity engine for a single token pair and fee
// tier: current price/tick/liquidity, the global fee-growth accumulators,
// and the tick and position stores. Every operation is atomic under a
// single per-pool lock; hosts with true serialized execution pay only the
// uncontended acquisition.
type Pool struct {
	mu sync.RWMutex

	Config
	MaxLiquidityPerTick numerics.Uint128

	SqrtPriceX96         numerics.Uint128
	Tick                 int32
	Liquidity            numerics.Uint128
	FeeGrowthGlobal0X128 numerics.Uint128
	FeeGrowthGlobal1X128 numerics.Uint128

	// Protocol fee cut, always zero for now: the storage shape reserves the
	// accumulators so enabling a protocol fee later is not a state migration.
	ProtocolFees0 numerics.Uint128
	ProtocolFees1 numerics.Uint128

	Ticks     *TickStore
	Positions *PositionStore

	events []Event
}

// emit appends an event to the pool's pending event log. Callers drain it
// with DrainEvents once the host has durably committed the operation's
// state effect.
func (p *Pool) emit(e Event) {
	p.events = append(p.events, e)
}

// DrainEvents returns every event queued since the last drain and clears
// the queue. Pull-based emission keeps state writes ahead of any external
// call a listener might make, so a re-entrant callback never sees a
// half-updated pool.
func (p *Pool) DrainEvents() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	drained := p.events
	p.events = nil
	return drained
}

// New constructs an uninitialized pool for the given config. Token0 must be
// strictly less than Token1 under byte order so every pair has exactly one
// canonical pool identity.
func New(cfg Config) (*Pool, error) {
	if bytes.Compare(cfg.Token0.Bytes(), cfg.Token1.Bytes()) >= 0 {
		return nil, ErrBadTokenOrder
	}
	if cfg.Fee >= feeDenominator {
		return nil, ErrBadFee
	}
	if cfg.TickSpacing < 1 || cfg.TickSpacing > maxTickSpacing {
		return nil, ErrBadTickSpacing
	}

	maxLiq, err := MaxLiquidityPerTick(cfg.TickSpacing)
	if err != nil {
		return nil, err
	}

	return &Pool{
		Config:               cfg,
		MaxLiquidityPerTick:  maxLiq,
		SqrtPriceX96:         numerics.U128FromUint64(0),
		Liquidity:            numerics.U128FromUint64(0),
		FeeGrowthGlobal0X128: numerics.U128FromUint64(0),
		FeeGrowthGlobal1X128: numerics.U128FromUint64(0),
		Ticks:                NewTickStore(cfg.TickSpacing),
		Positions:            NewPositionStore(),
	}, nil
}

// NewFromFeeTier constructs an uninitialized pool for a registered fee
// tier, looking the tick spacing up in reg instead of taking it from the
// caller. This is the path a factory deploying a standard-tier pool goes
// through; New remains for pools with a directly supplied spacing.
func NewFromFeeTier(token0, token1 common.Address, fee uint32, reg *feeregistry.Registry) (*Pool, error) {
	spacing, err := reg.TickSpacing(fee)
	if err != nil {
		return nil, err
	}
	return New(Config{Token0: token0, Token1: token1, Fee: fee, TickSpacing: spacing})
}

// Initialize sets the pool's starting price, deriving the starting tick
// from it. It may be called exactly once.
func (p *Pool) Initialize(sqrtPriceX96 numerics.Uint128) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.SqrtPriceX96.IsZero() {
		return ErrAlreadyInitialized
	}

	tick, err := tickmath.TickAtSqrtRatio(sqrtPriceX96)
	if err != nil {
		return err
	}
	p.SqrtPriceX96 = sqrtPriceX96
	p.Tick = tick
	p.emit(InitializeEvent{SqrtPriceX96: sqrtPriceX96, Tick: tick})
	return nil
}

// State is a read-only snapshot of the pool's mutable fields, returned by
// GetState so callers never see the live struct outside the lock.
type State struct {
	SqrtPriceX96         numerics.Uint128
	Tick                 int32
	Liquidity            numerics.Uint128
	FeeGrowthGlobal0X128 numerics.Uint128
	FeeGrowthGlobal1X128 numerics.Uint128
	ProtocolFees0        numerics.Uint128
	ProtocolFees1        numerics.Uint128
}

// GetState returns the pool's current price, tick, liquidity and fee-growth
// accumulators.
func (p *Pool) GetState() (State, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.SqrtPriceX96.IsZero() {
		return State{}, ErrNotInitialized
	}
	return State{
		SqrtPriceX96:         p.SqrtPriceX96,
		Tick:                 p.Tick,
		Liquidity:            p.Liquidity,
		FeeGrowthGlobal0X128: p.FeeGrowthGlobal0X128,
		FeeGrowthGlobal1X128: p.FeeGrowthGlobal1X128,
		ProtocolFees0:        p.ProtocolFees0,
		ProtocolFees1:        p.ProtocolFees1,
	}, nil
}

// GetConfig returns the pool's immutable identity.
func (p *Pool) GetConfig() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Config
}

// GetTick returns a read-only snapshot of a single tick's accounting state.
func (p *Pool) GetTick(tick int32) TickInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Ticks.Get(tick)
}

// GetPosition returns a read-only snapshot of a single position.
func (p *Pool) GetPosition(owner common.Address, tickLower, tickUpper int32) Position {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Positions.Get(PositionKey{Owner: owner, TickLower: tickLower, TickUpper: tickUpper})
}

// ListTicks returns a page of at most 50 initialized ticks at or above
// startTick, for callers paging through the full sparse tick map.
func (p *Pool) ListTicks(startTick int32, pageSize int) (ticks []int32, infos []TickInfo, next int32, hasMore bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Ticks.ListInitialized(startTick, pageSize)
}

// ListPositions returns a page of at most 50 positions, for callers paging
// through the full position map.
func (p *Pool) ListPositions(afterKey string, pageSize int) (positions []Position, next string, hasMore bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Positions.List(afterKey, pageSize)
}

// Clone returns a deep copy of the pool. Quote swaps against a clone so the
// live pool never sees dry-run mutations.
func (p *Pool) Clone() *Pool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &Pool{
		Config:               p.Config,
		MaxLiquidityPerTick:  p.MaxLiquidityPerTick,
		SqrtPriceX96:         p.SqrtPriceX96,
		Tick:                 p.Tick,
		Liquidity:            p.Liquidity,
		FeeGrowthGlobal0X128: p.FeeGrowthGlobal0X128,
		FeeGrowthGlobal1X128: p.FeeGrowthGlobal1X128,
		ProtocolFees0:        p.ProtocolFees0,
		ProtocolFees1:        p.ProtocolFees1,
		Ticks:                p.Ticks.Clone(),
		Positions:            p.Positions.Clone(),
	}
}

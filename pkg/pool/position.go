package pool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/CoinSummer/clamm-pool-engine/pkg/numerics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// tokensOwedFromFeeGrowth computes floor(feeGrowthDelta * liquidity / 2^128),
// the Q128.128 -> integer token conversion used throughout fee accrual. The
// divisor 2^128 itself doesn't fit a Uint128, so this works in a raw
// uint256.Int and right-shifts rather than routing through numerics.MulDiv.
func tokensOwedFromFeeGrowth(feeGrowthDelta, liquidity numerics.Uint128) (numerics.Uint128, error) {
	product := new(uint256.Int).Mul(feeGrowthDelta.Uint256(), liquidity.Uint256())
	shifted := new(uint256.Int).Rsh(product, 128)
	return numerics.U128FromUint256(shifted)
}

// Position is the owner's stake in a tick range: its liquidity, the
// fee-growth-inside checkpoints from its last touch, and the token balances
// it has accrued but not yet collected.
type Position struct {
	Owner                    common.Address
	TickLower                int32
	TickUpper                int32
	Liquidity                numerics.Uint128
	FeeGrowthInside0LastX128 numerics.Uint128
	FeeGrowthInside1LastX128 numerics.Uint128
	TokensOwed0              numerics.Uint128
	TokensOwed1              numerics.Uint128
}

// PositionKey identifies a position by owner and tick range.
type PositionKey struct {
	Owner     common.Address
	TickLower int32
	TickUpper int32
}

func (k PositionKey) String() string {
	return fmt.Sprintf("%s:%d:%d", k.Owner.Hex(), k.TickLower, k.TickUpper)
}

// PositionStore is a concurrency-safe map of PositionKey to Position.
type PositionStore struct {
	mu        sync.RWMutex
	positions map[string]*Position
}

// NewPositionStore returns an empty store.
func NewPositionStore() *PositionStore {
	return &PositionStore{positions: make(map[string]*Position)}
}

// Clone deep-copies the store.
func (s *PositionStore) Clone() *PositionStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := NewPositionStore()
	for key, pos := range s.positions {
		cp := *pos
		clone.positions[key] = &cp
	}
	return clone
}

func (s *PositionStore) getOrInit(key PositionKey) *Position {
	k := key.String()
	pos, ok := s.positions[k]
	if !ok {
		pos = &Position{
			Owner:                    key.Owner,
			TickLower:                key.TickLower,
			TickUpper:                key.TickUpper,
			Liquidity:                numerics.U128FromUint64(0),
			FeeGrowthInside0LastX128: numerics.U128FromUint64(0),
			FeeGrowthInside1LastX128: numerics.U128FromUint64(0),
			TokensOwed0:              numerics.U128FromUint64(0),
			TokensOwed1:              numerics.U128FromUint64(0),
		}
		s.positions[k] = pos
	}
	return pos
}

// Get returns a read-only snapshot of the position at key, or a zero-valued
// Position if it has never been touched.
func (s *PositionStore) Get(key PositionKey) Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.positions[key.String()]
	if !ok {
		return Position{Owner: key.Owner, TickLower: key.TickLower, TickUpper: key.TickUpper}
	}
	return *pos
}

// Update applies a liquidity delta and the current fee-growth-inside values
// to the position at key, accruing owed tokens from the fee growth accrued
// since the last touch. Fee growth deltas are wrapping-subtracted, then
// scaled by the position's prior liquidity and divided down from Q128.
func (s *PositionStore) Update(
	key PositionKey,
	liquidityDelta numerics.Int128,
	feeGrowthInside0X128, feeGrowthInside1X128 numerics.Uint128,
) (*Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.getOrInit(key)

	var liquidityNext numerics.Uint128
	var err error
	if liquidityDelta.IsZero() {
		if pos.Liquidity.IsZero() {
			return nil, fmt.Errorf("%w: no liquidity to update", ErrZeroAmount)
		}
		liquidityNext = pos.Liquidity
	} else {
		liquidityNext, err = numerics.AddDelta(pos.Liquidity, liquidityDelta)
		if err != nil {
			return nil, fmt.Errorf("%w: position %s", ErrLiquidityUnderflow, key)
		}
	}

	feeGrowthDelta0 := feeGrowthInside0X128.WrappingSub(pos.FeeGrowthInside0LastX128)
	feeGrowthDelta1 := feeGrowthInside1X128.WrappingSub(pos.FeeGrowthInside1LastX128)

	tokensOwed0, err := tokensOwedFromFeeGrowth(feeGrowthDelta0, pos.Liquidity)
	if err != nil {
		return nil, err
	}
	tokensOwed1, err := tokensOwedFromFeeGrowth(feeGrowthDelta1, pos.Liquidity)
	if err != nil {
		return nil, err
	}

	pos.Liquidity = liquidityNext
	pos.FeeGrowthInside0LastX128 = feeGrowthInside0X128
	pos.FeeGrowthInside1LastX128 = feeGrowthInside1X128

	if !tokensOwed0.IsZero() || !tokensOwed1.IsZero() {
		pos.TokensOwed0, err = pos.TokensOwed0.Add(tokensOwed0)
		if err != nil {
			return nil, err
		}
		pos.TokensOwed1, err = pos.TokensOwed1.Add(tokensOwed1)
		if err != nil {
			return nil, err
		}
	}

	s.removeIfEmpty(key)

	cp := *pos
	return &cp, nil
}

// Collect withdraws up to amount0Req/amount1Req from the position's owed
// tokens, capped at what is actually owed. A position that was never
// minted, or that has already been fully collected and removed, has nothing
// owed on either side, so this returns (0, 0, nil) rather than an error.
func (s *PositionStore) Collect(key PositionKey, amount0Req, amount1Req numerics.Uint128) (amount0, amount1 numerics.Uint128, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[key.String()]
	if !ok {
		return numerics.U128FromUint64(0), numerics.U128FromUint64(0), nil
	}

	if amount0Req.GreaterThan(pos.TokensOwed0) {
		amount0 = pos.TokensOwed0
	} else {
		amount0 = amount0Req
	}
	if amount1Req.GreaterThan(pos.TokensOwed1) {
		amount1 = pos.TokensOwed1
	} else {
		amount1 = amount1Req
	}

	pos.TokensOwed0, err = pos.TokensOwed0.Sub(amount0)
	if err != nil {
		return numerics.Uint128{}, numerics.Uint128{}, err
	}
	pos.TokensOwed1, err = pos.TokensOwed1.Sub(amount1)
	if err != nil {
		return numerics.Uint128{}, numerics.Uint128{}, err
	}

	s.removeIfEmpty(key)

	return amount0, amount1, nil
}

// removeIfEmpty deletes the position at key once it carries no liquidity
// and no uncollected balance on either side, so the sparse map only ever
// holds live positions. Caller must hold s.mu.
func (s *PositionStore) removeIfEmpty(key PositionKey) {
	k := key.String()
	pos, ok := s.positions[k]
	if !ok {
		return
	}
	if pos.Liquidity.IsZero() && pos.TokensOwed0.IsZero() && pos.TokensOwed1.IsZero() {
		delete(s.positions, k)
	}
}

// List returns up to maxPageSize positions with a string key strictly after
// afterKey, ordered lexicographically by key, plus the key to pass as
// afterKey on the next call and whether more entries remain. pkg/storage's
// Flush walks the position map through this method a page at a time.
func (s *PositionStore) List(afterKey string, pageSize int) (positions []Position, next string, hasMore bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	keys := make([]string, 0, len(s.positions))
	for k := range s.positions {
		if k > afterKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if len(keys) > pageSize {
		hasMore = true
		next = keys[pageSize-1]
		keys = keys[:pageSize]
	}

	positions = make([]Position, len(keys))
	for i, k := range keys {
		positions[i] = *s.positions[k]
	}
	return positions, next, hasMore
}

// Restore inserts a position directly into the store under key, bypassing
// Update's fee-accrual bookkeeping. Used by pkg/storage's Load to rebuild a
// pool from a persisted snapshot.
func (s *PositionStore) Restore(key PositionKey, pos Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := pos
	s.positions[key.String()] = &cp
	return nil
}

// CreditOwed adds amount0/amount1 directly to a position's owed tokens,
// used by Burn to park withdrawn principal until Collect is called.
func (s *PositionStore) CreditOwed(key PositionKey, amount0, amount1 numerics.Uint128) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos := s.getOrInit(key)
	var err error
	pos.TokensOwed0, err = pos.TokensOwed0.Add(amount0)
	if err != nil {
		return err
	}
	pos.TokensOwed1, err = pos.TokensOwed1.Add(amount1)
	return err
}

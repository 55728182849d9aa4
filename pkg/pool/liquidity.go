package pool

import (
	"fmt"

	"github.com/CoinSummer/clamm-pool-engine/pkg/numerics"
	"github.com/CoinSummer/clamm-pool-engine/pkg/sqrtmath"
	"github.com/CoinSummer/clamm-pool-engine/pkg/tickmath"
	"github.com/ethereum/go-ethereum/common"
)

func (p *Pool) checkTicks(tickLower, tickUpper int32) error {
	if !(tickLower < tickUpper) {
		return fmt.Errorf("%w: tick_lower %d must be less than tick_upper %d", ErrBadTickRange, tickLower, tickUpper)
	}
	if tickLower < tickmath.MinTick {
		return fmt.Errorf("%w: tick_lower %d below MinTick", ErrBadTickRange, tickLower)
	}
	if tickUpper > tickmath.MaxTick {
		return fmt.Errorf("%w: tick_upper %d above MaxTick", ErrBadTickRange, tickUpper)
	}
	if tickLower%p.TickSpacing != 0 {
		return fmt.Errorf("%w: tick_lower %d not aligned to spacing %d", ErrBadTickRange, tickLower, p.TickSpacing)
	}
	if tickUpper%p.TickSpacing != 0 {
		return fmt.Errorf("%w: tick_upper %d not aligned to spacing %d", ErrBadTickRange, tickUpper, p.TickSpacing)
	}
	return nil
}

// Mint adds liquidity to the position identified by (owner, tickLower,
// tickUpper), returning the token amounts the caller owes the pool, rounded
// up so the provider always covers the exact cost.
func (p *Pool) Mint(owner common.Address, tickLower, tickUpper int32, amount numerics.Uint128) (amount0, amount1 numerics.Uint128, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.SqrtPriceX96.IsZero() {
		return numerics.Uint128{}, numerics.Uint128{}, ErrNotInitialized
	}
	if amount.IsZero() {
		return numerics.Uint128{}, numerics.Uint128{}, ErrZeroAmount
	}

	_, a0, a1, err := p.modifyPosition(owner, tickLower, tickUpper, numerics.I128FromUint128(amount, false))
	if err != nil {
		return numerics.Uint128{}, numerics.Uint128{}, err
	}
	p.emit(MintEvent{Sender: owner, Owner: owner, TickLower: tickLower, TickUpper: tickUpper, Amount: amount, Amount0: a0, Amount1: a1})
	return a0, a1, nil
}

// Burn removes liquidity from the position, parking the withdrawn principal
// as owed tokens for a later Collect. Keeping Burn transfer-free means no
// external call can re-enter while tick and position state is mid-update.
func (p *Pool) Burn(owner common.Address, tickLower, tickUpper int32, amount numerics.Uint128) (amount0, amount1 numerics.Uint128, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.SqrtPriceX96.IsZero() {
		return numerics.Uint128{}, numerics.Uint128{}, ErrNotInitialized
	}

	key := PositionKey{Owner: owner, TickLower: tickLower, TickUpper: tickUpper}
	before := p.Positions.Get(key)
	if before.Liquidity.LessThan(amount) {
		return numerics.Uint128{}, numerics.Uint128{}, ErrBurnExceedsLiquidity
	}

	_, a0, a1, err := p.modifyPosition(owner, tickLower, tickUpper, numerics.I128FromUint128(amount, true))
	if err != nil {
		return numerics.Uint128{}, numerics.Uint128{}, err
	}

	if !a0.IsZero() || !a1.IsZero() {
		if err := p.Positions.CreditOwed(key, a0, a1); err != nil {
			return numerics.Uint128{}, numerics.Uint128{}, err
		}
	}
	p.emit(BurnEvent{Owner: owner, TickLower: tickLower, TickUpper: tickUpper, Amount: amount, Amount0: a0, Amount1: a1})
	return a0, a1, nil
}

// Collect withdraws up to amount0Req/amount1Req of a position's owed
// tokens, capped at what is actually owed.
func (p *Pool) Collect(owner common.Address, tickLower, tickUpper int32, amount0Req, amount1Req numerics.Uint128) (amount0, amount1 numerics.Uint128, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkTicks(tickLower, tickUpper); err != nil {
		return numerics.Uint128{}, numerics.Uint128{}, err
	}
	key := PositionKey{Owner: owner, TickLower: tickLower, TickUpper: tickUpper}
	amount0, amount1, err = p.Positions.Collect(key, amount0Req, amount1Req)
	if err != nil {
		return numerics.Uint128{}, numerics.Uint128{}, err
	}
	p.emit(CollectEvent{Owner: owner, Recipient: owner, TickLower: tickLower, TickUpper: tickUpper, Amount0: amount0, Amount1: amount1})
	return amount0, amount1, nil
}

// modifyPosition is the shared Mint/Burn path: it validates the tick range,
// updates tick and position accounting, and computes the token amounts the
// liquidity change requires, dispatching on where the pool's current tick
// sits relative to the range. Active liquidity changes only in the in-range
// case.
func (p *Pool) modifyPosition(owner common.Address, tickLower, tickUpper int32, liquidityDelta numerics.Int128) (*Position, numerics.Uint128, numerics.Uint128, error) {
	if err := p.checkTicks(tickLower, tickUpper); err != nil {
		return nil, numerics.Uint128{}, numerics.Uint128{}, err
	}

	amount0 := numerics.U128FromUint64(0)
	amount1 := numerics.U128FromUint64(0)

	position, err := p.updatePosition(owner, tickLower, tickUpper, liquidityDelta)
	if err != nil {
		return nil, numerics.Uint128{}, numerics.Uint128{}, err
	}

	if !liquidityDelta.IsZero() {
		sqrtLower, err := tickmath.SqrtRatioAtTick(tickLower)
		if err != nil {
			return nil, numerics.Uint128{}, numerics.Uint128{}, err
		}
		sqrtUpper, err := tickmath.SqrtRatioAtTick(tickUpper)
		if err != nil {
			return nil, numerics.Uint128{}, numerics.Uint128{}, err
		}

		switch {
		case p.Tick < tickLower:
			amount0, err = amountDelta0(sqrtLower, sqrtUpper, liquidityDelta)
			if err != nil {
				return nil, numerics.Uint128{}, numerics.Uint128{}, err
			}
		case p.Tick < tickUpper:
			amount0, err = amountDelta0(p.SqrtPriceX96, sqrtUpper, liquidityDelta)
			if err != nil {
				return nil, numerics.Uint128{}, numerics.Uint128{}, err
			}
			amount1, err = amountDelta1(sqrtLower, p.SqrtPriceX96, liquidityDelta)
			if err != nil {
				return nil, numerics.Uint128{}, numerics.Uint128{}, err
			}
			p.Liquidity, err = numerics.AddDelta(p.Liquidity, liquidityDelta)
			if err != nil {
				return nil, numerics.Uint128{}, numerics.Uint128{}, err
			}
		default:
			amount1, err = amountDelta1(sqrtLower, sqrtUpper, liquidityDelta)
			if err != nil {
				return nil, numerics.Uint128{}, numerics.Uint128{}, err
			}
		}
	}

	return position, amount0, amount1, nil
}

// amountDelta0/amountDelta1 pick the rounding mode from the sign of
// liquidityDelta: up on a liquidity increase (the caller must supply
// enough), down on a decrease (the caller is owed no more than what is
// actually withdrawable).
func amountDelta0(sqrtA, sqrtB numerics.Uint128, liquidityDelta numerics.Int128) (numerics.Uint128, error) {
	return sqrtmath.Amount0Delta(sqrtA, sqrtB, liquidityDelta.Abs(), !liquidityDelta.IsNeg())
}

func amountDelta1(sqrtA, sqrtB numerics.Uint128, liquidityDelta numerics.Int128) (numerics.Uint128, error) {
	return sqrtmath.Amount1Delta(sqrtA, sqrtB, liquidityDelta.Abs(), !liquidityDelta.IsNeg())
}

func (p *Pool) updatePosition(owner common.Address, lower, upper int32, delta numerics.Int128) (*Position, error) {
	flippedLower := false
	flippedUpper := false

	if !delta.IsZero() {
		var err error
		flippedLower, err = p.Ticks.Update(lower, p.Tick, delta, p.FeeGrowthGlobal0X128, p.FeeGrowthGlobal1X128, false, p.MaxLiquidityPerTick)
		if err != nil {
			return nil, err
		}
		flippedUpper, err = p.Ticks.Update(upper, p.Tick, delta, p.FeeGrowthGlobal0X128, p.FeeGrowthGlobal1X128, true, p.MaxLiquidityPerTick)
		if err != nil {
			return nil, err
		}
	}

	feeGrowthInside0, feeGrowthInside1 := p.Ticks.FeeGrowthInside(lower, upper, p.Tick, p.FeeGrowthGlobal0X128, p.FeeGrowthGlobal1X128)

	key := PositionKey{Owner: owner, TickLower: lower, TickUpper: upper}
	position, err := p.Positions.Update(key, delta, feeGrowthInside0, feeGrowthInside1)
	if err != nil {
		return nil, err
	}

	if delta.IsNeg() {
		if flippedLower {
			p.Ticks.Clear(lower)
		}
		if flippedUpper {
			p.Ticks.Clear(upper)
		}
	}

	return position, nil
}

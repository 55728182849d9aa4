package pool

// RestoreState sets the pool's scalar price/tick/liquidity/fee-growth fields
// directly, bypassing Initialize's already-initialized guard. Used by
// pkg/storage's Load to rebuild a pool from a persisted snapshot; returns p
// so the caller can chain it off New/Load in one expression.
func (p *Pool) RestoreState(state State) (*Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.SqrtPriceX96 = state.SqrtPriceX96
	p.Tick = state.Tick
	p.Liquidity = state.Liquidity
	p.FeeGrowthGlobal0X128 = state.FeeGrowthGlobal0X128
	p.FeeGrowthGlobal1X128 = state.FeeGrowthGlobal1X128
	p.ProtocolFees0 = state.ProtocolFees0
	p.ProtocolFees1 = state.ProtocolFees1
	return p, nil
}

// RestoreTick inserts a tick directly into the pool's tick store, bypassing
// Mint/Burn's liquidity-delta accounting. Used by pkg/storage's Load.
func (p *Pool) RestoreTick(tick int32, info TickInfo) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Ticks.Restore(tick, info)
}

// RestorePosition inserts a position directly into the pool's position
// store, bypassing Mint/Burn/Collect. Used by pkg/storage's Load.
func (p *Pool) RestorePosition(pos Position) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := PositionKey{Owner: pos.Owner, TickLower: pos.TickLower, TickUpper: pos.TickUpper}
	return p.Positions.Restore(key, pos)
}

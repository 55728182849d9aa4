package pool

import (
	"github.com/CoinSummer/clamm-pool-engine/pkg/numerics"
	"github.com/ethereum/go-ethereum/common"
)

// Quote runs a swap against a throwaway clone of the pool and reports the
// resulting amounts and post-swap price without mutating the live pool.
// Cloning is simpler than threading a dry-run flag through the swap loop and
// keeps Swap's commit path branch-free.
func (p *Pool) Quote(recipient common.Address, zeroForOne bool, amountSpecified numerics.Int128, sqrtPriceLimitX96 *numerics.Uint128) (amount0, amount1 numerics.Int128, sqrtPriceAfter numerics.Uint128, err error) {
	clone := p.Clone()
	amount0, amount1, err = clone.Swap(recipient, zeroForOne, amountSpecified, sqrtPriceLimitX96)
	if err != nil {
		return numerics.Int128{}, numerics.Int128{}, numerics.Uint128{}, err
	}
	state, err := clone.GetState()
	if err != nil {
		return numerics.Int128{}, numerics.Int128{}, numerics.Uint128{}, err
	}
	return amount0, amount1, state.SqrtPriceX96, nil
}

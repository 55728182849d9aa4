package pool

import (
	"github.com/CoinSummer/clamm-pool-engine/pkg/numerics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Event is implemented by every struct this package emits; Signature returns
// the precomputed topic hash a host would index the event under.
type Event interface {
	Signature() common.Hash
}

// Signatures are keccak hashes of the canonical event signature strings,
// computed once at package init.
var (
	initializeSig = crypto.Keccak256Hash([]byte("Initialize(uint160,int24)"))
	mintSig       = crypto.Keccak256Hash([]byte("Mint(address,address,int24,int24,uint128,uint256,uint256)"))
	burnSig       = crypto.Keccak256Hash([]byte("Burn(address,int24,int24,uint128,uint256,uint256)"))
	collectSig    = crypto.Keccak256Hash([]byte("Collect(address,address,int24,int24,uint128,uint128)"))
	swapSig       = crypto.Keccak256Hash([]byte("Swap(address,int256,int256,uint160,uint128,int24)"))
)

// InitializeEvent is emitted once, the first time a pool's price is set.
type InitializeEvent struct {
	SqrtPriceX96 numerics.Uint128
	Tick         int32
}

func (InitializeEvent) Signature() common.Hash { return initializeSig }

// MintEvent is emitted when liquidity is added to a position.
type MintEvent struct {
	Sender    common.Address
	Owner     common.Address
	TickLower int32
	TickUpper int32
	Amount    numerics.Uint128
	Amount0   numerics.Uint128
	Amount1   numerics.Uint128
}

func (MintEvent) Signature() common.Hash { return mintSig }

// BurnEvent is emitted when liquidity is removed from a position.
type BurnEvent struct {
	Owner     common.Address
	TickLower int32
	TickUpper int32
	Amount    numerics.Uint128
	Amount0   numerics.Uint128
	Amount1   numerics.Uint128
}

func (BurnEvent) Signature() common.Hash { return burnSig }

// CollectEvent is emitted when owed tokens are withdrawn from a position.
type CollectEvent struct {
	Owner     common.Address
	Recipient common.Address
	TickLower int32
	TickUpper int32
	Amount0   numerics.Uint128
	Amount1   numerics.Uint128
}

func (CollectEvent) Signature() common.Hash { return collectSig }

// SwapEvent is emitted after every completed swap.
type SwapEvent struct {
	Sender       common.Address
	Amount0      numerics.Int128
	Amount1      numerics.Int128
	SqrtPriceX96 numerics.Uint128
	Liquidity    numerics.Uint128
	Tick         int32
}

func (SwapEvent) Signature() common.Hash { return swapSig }

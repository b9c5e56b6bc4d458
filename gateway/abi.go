// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/swapgate/contract"
	"github.com/luxfi/swapgate/dex"
)

const poolKeyComponents = `[
	{"name": "currency0", "type": "address"},
	{"name": "currency1", "type": "address"},
	{"name": "fee", "type": "uint24"},
	{"name": "tickSpacing", "type": "int24"},
	{"name": "hooks", "type": "address"}
]`

// GatewayRawABI is the call surface of the gateway
const GatewayRawABI = `[
	{
		"type": "function", "name": "beforeSwap", "stateMutability": "nonpayable",
		"inputs": [
			{"name": "sender", "type": "address"},
			{"name": "key", "type": "tuple", "components": ` + poolKeyComponents + `},
			{"name": "params", "type": "tuple", "components": [
				{"name": "zeroForOne", "type": "bool"},
				{"name": "amountSpecified", "type": "int256"},
				{"name": "sqrtPriceLimitX96", "type": "uint160"}
			]},
			{"name": "hookData", "type": "bytes"}
		],
		"outputs": [
			{"name": "selector", "type": "bytes4"},
			{"name": "delta", "type": "int256"},
			{"name": "lpFeeOverride", "type": "uint24"}
		]
	},
	{
		"type": "function", "name": "beforeAddLiquidity", "stateMutability": "nonpayable",
		"inputs": [
			{"name": "sender", "type": "address"},
			{"name": "key", "type": "tuple", "components": ` + poolKeyComponents + `},
			{"name": "params", "type": "tuple", "components": [
				{"name": "tickLower", "type": "int24"},
				{"name": "tickUpper", "type": "int24"},
				{"name": "liquidityDelta", "type": "int256"},
				{"name": "salt", "type": "bytes32"}
			]},
			{"name": "hookData", "type": "bytes"}
		],
		"outputs": [{"name": "selector", "type": "bytes4"}]
	},
	{
		"type": "function", "name": "beforeDonate", "stateMutability": "nonpayable",
		"inputs": [
			{"name": "sender", "type": "address"},
			{"name": "key", "type": "tuple", "components": ` + poolKeyComponents + `},
			{"name": "amount0", "type": "uint256"},
			{"name": "amount1", "type": "uint256"},
			{"name": "hookData", "type": "bytes"}
		],
		"outputs": [{"name": "selector", "type": "bytes4"}]
	},
	{
		"type": "function", "name": "addLiquidity", "stateMutability": "nonpayable",
		"inputs": [
			{"name": "key", "type": "tuple", "components": ` + poolKeyComponents + `},
			{"name": "amountEach", "type": "uint256"}
		],
		"outputs": []
	},
	{"type": "function", "name": "setPolicy", "stateMutability": "nonpayable", "inputs": [{"name": "policyID", "type": "string"}], "outputs": []},
	{"type": "function", "name": "setAuthority", "stateMutability": "nonpayable", "inputs": [{"name": "authority", "type": "address"}], "outputs": []},
	{"type": "function", "name": "addLPs", "stateMutability": "nonpayable", "inputs": [{"name": "lps", "type": "address[]"}], "outputs": []},
	{"type": "function", "name": "removeLPs", "stateMutability": "nonpayable", "inputs": [{"name": "lps", "type": "address[]"}], "outputs": []},
	{"type": "function", "name": "addSwappers", "stateMutability": "nonpayable", "inputs": [{"name": "swappers", "type": "address[]"}], "outputs": []},
	{"type": "function", "name": "removeSwappers", "stateMutability": "nonpayable", "inputs": [{"name": "swappers", "type": "address[]"}], "outputs": []},
	{"type": "function", "name": "transferOwnership", "stateMutability": "nonpayable", "inputs": [{"name": "newOwner", "type": "address"}], "outputs": []},
	{"type": "function", "name": "acceptOwnership", "stateMutability": "nonpayable", "inputs": [], "outputs": []},

	{"type": "function", "name": "owner", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "pendingOwner", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "getPolicy", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "string"}]},
	{"type": "function", "name": "getAuthority", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "isAuthorizedLP", "stateMutability": "view", "inputs": [{"name": "account", "type": "address"}], "outputs": [{"name": "", "type": "bool"}]},
	{"type": "function", "name": "isAuthorizedSwapper", "stateMutability": "view", "inputs": [{"name": "account", "type": "address"}], "outputs": [{"name": "", "type": "bool"}]},

	{"type": "event", "name": "PolicyUpdated", "anonymous": false, "inputs": [{"name": "policyID", "type": "string", "indexed": false}]},
	{"type": "event", "name": "AuthorityUpdated", "anonymous": false, "inputs": [{"name": "authority", "type": "address", "indexed": true}]},
	{"type": "event", "name": "LPAdded", "anonymous": false, "inputs": [{"name": "lp", "type": "address", "indexed": true}]},
	{"type": "event", "name": "LPRemoved", "anonymous": false, "inputs": [{"name": "lp", "type": "address", "indexed": true}]},
	{"type": "event", "name": "SwapperAdded", "anonymous": false, "inputs": [{"name": "swapper", "type": "address", "indexed": true}]},
	{"type": "event", "name": "SwapperRemoved", "anonymous": false, "inputs": [{"name": "swapper", "type": "address", "indexed": true}]},
	{"type": "event", "name": "OwnershipTransferStarted", "anonymous": false, "inputs": [
		{"name": "previousOwner", "type": "address", "indexed": true},
		{"name": "newOwner", "type": "address", "indexed": true}
	]},
	{"type": "event", "name": "OwnershipTransferred", "anonymous": false, "inputs": [
		{"name": "previousOwner", "type": "address", "indexed": true},
		{"name": "newOwner", "type": "address", "indexed": true}
	]},
	{"type": "event", "name": "LiquidityAdded", "anonymous": false, "inputs": [
		{"name": "provider", "type": "address", "indexed": true},
		{"name": "amountEach", "type": "uint256", "indexed": false}
	]}
]`

// GatewayABI is the parsed call surface
var GatewayABI = contract.ParseABI(GatewayRawABI)

// PoolKeyABI mirrors the pool key tuple as the ABI codec sees it
type PoolKeyABI struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         *big.Int
	TickSpacing *big.Int
	Hooks       common.Address
}

// SwapParamsABI mirrors the swap params tuple
type SwapParamsABI struct {
	ZeroForOne        bool
	AmountSpecified   *big.Int
	SqrtPriceLimitX96 *big.Int
}

// ModifyLiquidityParamsABI mirrors the liquidity params tuple
type ModifyLiquidityParamsABI struct {
	TickLower      *big.Int
	TickUpper      *big.Int
	LiquidityDelta *big.Int
	Salt           [32]byte
}

// NewPoolKeyABI converts a pool key for packing
func NewPoolKeyABI(key dex.PoolKey) PoolKeyABI {
	return PoolKeyABI{
		Currency0:   key.Currency0.Address,
		Currency1:   key.Currency1.Address,
		Fee:         new(big.Int).SetUint64(uint64(key.Fee)),
		TickSpacing: big.NewInt(int64(key.TickSpacing)),
		Hooks:       key.Hooks,
	}
}

// PoolKey converts back to the pool primitive
func (k PoolKeyABI) PoolKey() dex.PoolKey {
	return dex.PoolKey{
		Currency0:   dex.Currency{Address: k.Currency0},
		Currency1:   dex.Currency{Address: k.Currency1},
		Fee:         uint32(k.Fee.Uint64()),
		TickSpacing: int32(k.TickSpacing.Int64()),
		Hooks:       k.Hooks,
	}
}

// NewSwapParamsABI converts swap params for packing
func NewSwapParamsABI(params dex.SwapParams) SwapParamsABI {
	limit := params.SqrtPriceLimitX96
	if limit == nil {
		limit = new(big.Int)
	}
	return SwapParamsABI{
		ZeroForOne:        params.ZeroForOne,
		AmountSpecified:   params.AmountSpecified,
		SqrtPriceLimitX96: limit,
	}
}

// SwapParams converts back to the pool primitive
func (p SwapParamsABI) SwapParams() dex.SwapParams {
	return dex.SwapParams{
		ZeroForOne:        p.ZeroForOne,
		AmountSpecified:   p.AmountSpecified,
		SqrtPriceLimitX96: p.SqrtPriceLimitX96,
	}
}

// ModifyLiquidityParams converts back to the pool primitive and validates it
func (p ModifyLiquidityParamsABI) ModifyLiquidityParams() (dex.ModifyLiquidityParams, error) {
	for _, tick := range []*big.Int{p.TickLower, p.TickUpper} {
		if tick == nil || !tick.IsInt64() {
			return dex.ModifyLiquidityParams{}, dex.ErrInvalidTickRange
		}
	}
	params := dex.ModifyLiquidityParams{
		TickLower:      int32(p.TickLower.Int64()),
		TickUpper:      int32(p.TickUpper.Int64()),
		LiquidityDelta: p.LiquidityDelta,
		Salt:           p.Salt,
	}
	if int64(params.TickLower) != p.TickLower.Int64() || int64(params.TickUpper) != p.TickUpper.Int64() {
		return dex.ModifyLiquidityParams{}, dex.ErrInvalidTickRange
	}
	return params, params.Validate()
}

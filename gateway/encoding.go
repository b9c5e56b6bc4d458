// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"math/big"

	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/swapgate/contract"
	"github.com/luxfi/swapgate/dex"
)

// CanonicalSwapSignature versions the encoding endorsements are bound to
const CanonicalSwapSignature = "_beforeSwap(address,address,address,uint24,int24,address,bool,int256)"

// CanonicalSwapSelector prefixes every canonical swap encoding
var CanonicalSwapSelector = contract.CalculateFunctionSelector(CanonicalSwapSignature)

var canonicalSwapArgs = abi.Arguments{
	{Name: "sender", Type: mustType("address")},
	{Name: "currency0", Type: mustType("address")},
	{Name: "currency1", Type: mustType("address")},
	{Name: "fee", Type: mustType("uint24")},
	{Name: "tickSpacing", Type: mustType("int24")},
	{Name: "hooks", Type: mustType("address")},
	{Name: "zeroForOne", Type: mustType("bool")},
	{Name: "amountSpecified", Type: mustType("int256")},
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// EncodeSwap returns the canonical encoding of a swap by [sender]: the
// version selector followed by the ABI encoding of every field that
// determines how the swap settles.
func EncodeSwap(sender common.Address, key dex.PoolKey, params dex.SwapParams) ([]byte, error) {
	amount := params.AmountSpecified
	if amount == nil {
		amount = new(big.Int)
	}
	packed, err := canonicalSwapArgs.Pack(
		sender,
		key.Currency0.Address,
		key.Currency1.Address,
		new(big.Int).SetUint64(uint64(key.Fee)),
		big.NewInt(int64(key.TickSpacing)),
		key.Hooks,
		params.ZeroForOne,
		amount,
	)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, contract.SelectorLen+len(packed))
	out = append(out, CanonicalSwapSelector[:]...)
	return append(out, packed...), nil
}

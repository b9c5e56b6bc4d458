// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/swapgate/contract"
	"github.com/luxfi/swapgate/dex"
)

// Ledger is the host's claims ledger as seen by the gateway
type Ledger interface {
	// Mint increases [owner]'s claims on [currency]
	Mint(stateDB contract.StateDB, owner common.Address, currency dex.Currency, amount *uint256.Int) error
	// Burn decreases [owner]'s claims on [currency]
	Burn(stateDB contract.StateDB, owner common.Address, currency dex.Currency, amount *uint256.Int) error
	// Collect moves tokens from [from] into the host's reserve
	Collect(stateDB contract.StateDB, from common.Address, currency dex.Currency, amount *uint256.Int) error
}

var _ Ledger = (*dex.ClaimsLedger)(nil)

// Accountant settles every swap 1:1 against the gateway's own claims: the
// input currency's claims grow and the output currency's claims shrink by the
// same amount.
type Accountant struct {
	self   common.Address
	ledger Ledger
}

// NewAccountant creates an accountant keeping claims for [self]
func NewAccountant(self common.Address, ledger Ledger) *Accountant {
	return &Accountant{self: self, ledger: ledger}
}

// Account records the two ledger legs of a swap and returns the delta that
// absorbs it. Either both legs apply or neither does.
//
// Exact-input swaps (negative amount) return (+amount, -amount); exact-output
// swaps return (-amount, +amount).
func (a *Accountant) Account(stateDB contract.StateDB, key dex.PoolKey, params dex.SwapParams) (dex.BeforeSwapDelta, error) {
	if key.Currency0 == key.Currency1 {
		return dex.BeforeSwapDelta{}, fmt.Errorf("%w: %w", ErrAccounting, ErrIdenticalCurrencies)
	}
	if params.AmountSpecified == nil || params.AmountSpecified.Sign() == 0 {
		return dex.BeforeSwapDelta{}, fmt.Errorf("%w: %w", ErrAccounting, ErrZeroAmount)
	}

	magnitude := new(big.Int).Abs(params.AmountSpecified)
	if !dex.FitsInt128(magnitude) {
		return dex.BeforeSwapDelta{}, fmt.Errorf("%w: %w: %s", ErrAccounting, ErrAmountOverflow, magnitude)
	}
	amount, overflow := uint256.FromBig(magnitude)
	if overflow {
		return dex.BeforeSwapDelta{}, fmt.Errorf("%w: %w: %s", ErrAccounting, ErrAmountOverflow, magnitude)
	}

	in, out := key.Currency0, key.Currency1
	if !params.ZeroForOne {
		in, out = out, in
	}

	snapshot := stateDB.Snapshot()
	if err := a.ledger.Mint(stateDB, a.self, in, amount); err != nil {
		stateDB.RevertToSnapshot(snapshot)
		return dex.BeforeSwapDelta{}, fmt.Errorf("%w: %w", ErrAccounting, err)
	}
	if err := a.ledger.Burn(stateDB, a.self, out, amount); err != nil {
		stateDB.RevertToSnapshot(snapshot)
		return dex.BeforeSwapDelta{}, fmt.Errorf("%w: %w", ErrAccounting, err)
	}

	if params.IsExactInput() {
		return dex.BeforeSwapDelta{
			Specified:   magnitude,
			Unspecified: new(big.Int).Neg(magnitude),
		}, nil
	}
	return dex.BeforeSwapDelta{
		Specified:   new(big.Int).Neg(magnitude),
		Unspecified: magnitude,
	}, nil
}

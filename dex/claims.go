// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"

	"github.com/luxfi/swapgate/contract"
)

// Storage key prefixes for ledger state
var (
	claimPrefix   = []byte("clm")
	balancePrefix = []byte("bal")
)

// ClaimsLedger keeps two kinds of balances in the host's state:
//   - token balances of accounts, including the pool manager's own reserve
//   - claims: ERC-6909 style receipts against the reserve, held by hooks
//
// Claims never move tokens; they only record who the reserve is owed to.
type ClaimsLedger struct {
	// reserve is the account that custodies pooled tokens and whose storage
	// holds the ledger
	reserve common.Address
}

// NewClaimsLedger creates a ledger custodied by [reserve]
func NewClaimsLedger(reserve common.Address) *ClaimsLedger {
	return &ClaimsLedger{reserve: reserve}
}

// Reserve returns the custody account
func (l *ClaimsLedger) Reserve() common.Address {
	return l.reserve
}

// makeStorageKey creates a storage key from prefix, account and currency
func makeStorageKey(prefix []byte, account common.Address, currency Currency) common.Hash {
	h := blake3.New()
	h.Write(prefix)
	h.Write(account.Bytes())
	h.Write(currency.ToBytes())
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

// ClaimOf returns [owner]'s claims on [currency]
func (l *ClaimsLedger) ClaimOf(stateDB contract.StateDB, owner common.Address, currency Currency) *uint256.Int {
	return l.get(stateDB, makeStorageKey(claimPrefix, owner, currency))
}

// BalanceOf returns [account]'s token balance of [currency]
func (l *ClaimsLedger) BalanceOf(stateDB contract.StateDB, account common.Address, currency Currency) *uint256.Int {
	return l.get(stateDB, makeStorageKey(balancePrefix, account, currency))
}

// Mint increases [owner]'s claims on [currency]
func (l *ClaimsLedger) Mint(stateDB contract.StateDB, owner common.Address, currency Currency, amount *uint256.Int) error {
	key := makeStorageKey(claimPrefix, owner, currency)
	next, overflow := new(uint256.Int).AddOverflow(l.get(stateDB, key), amount)
	if overflow {
		return fmt.Errorf("%w: claims of %s", ErrBalanceOverflow, owner.Hex())
	}
	l.set(stateDB, key, next)
	return nil
}

// Burn decreases [owner]'s claims on [currency]
func (l *ClaimsLedger) Burn(stateDB contract.StateDB, owner common.Address, currency Currency, amount *uint256.Int) error {
	key := makeStorageKey(claimPrefix, owner, currency)
	current := l.get(stateDB, key)
	if current.Lt(amount) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientClaims, current.Dec(), amount.Dec())
	}
	l.set(stateDB, key, new(uint256.Int).Sub(current, amount))
	return nil
}

// Collect moves tokens from [from] into the reserve
func (l *ClaimsLedger) Collect(stateDB contract.StateDB, from common.Address, currency Currency, amount *uint256.Int) error {
	return l.Transfer(stateDB, currency, from, l.reserve, amount)
}

// Pay moves tokens out of the reserve to [to]
func (l *ClaimsLedger) Pay(stateDB contract.StateDB, to common.Address, currency Currency, amount *uint256.Int) error {
	return l.Transfer(stateDB, currency, l.reserve, to, amount)
}

// Credit adds tokens to [account] from outside the ledger (deposits, genesis)
func (l *ClaimsLedger) Credit(stateDB contract.StateDB, account common.Address, currency Currency, amount *uint256.Int) error {
	key := makeStorageKey(balancePrefix, account, currency)
	next, overflow := new(uint256.Int).AddOverflow(l.get(stateDB, key), amount)
	if overflow {
		return fmt.Errorf("%w: balance of %s", ErrBalanceOverflow, account.Hex())
	}
	l.set(stateDB, key, next)
	return nil
}

// Transfer moves [amount] of [currency] between two accounts
func (l *ClaimsLedger) Transfer(stateDB contract.StateDB, currency Currency, from, to common.Address, amount *uint256.Int) error {
	fromKey := makeStorageKey(balancePrefix, from, currency)
	fromBal := l.get(stateDB, fromKey)
	if fromBal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), fromBal.Dec(), amount.Dec())
	}
	l.set(stateDB, fromKey, new(uint256.Int).Sub(fromBal, amount))
	return l.Credit(stateDB, to, currency, amount)
}

func (l *ClaimsLedger) get(stateDB contract.StateDB, key common.Hash) *uint256.Int {
	val := stateDB.GetState(l.reserve, key)
	return new(uint256.Int).SetBytes32(val[:])
}

func (l *ClaimsLedger) set(stateDB contract.StateDB, key common.Hash, v *uint256.Int) {
	stateDB.SetState(l.reserve, key, common.Hash(v.Bytes32()))
}

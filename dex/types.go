// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dex implements the singleton-pool primitives a swap hook is invoked
// with: pool keys, swap parameters, balance deltas, hook permissions, the
// claims ledger the hook keeps its reserve in, and a minimal pool manager
// that drives hooks with flash accounting.
package dex

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// uint24 type alias for fees
type uint24 = uint32

// int24 type alias for ticks
type int24 = int32

// Hook flags (bitmap for hook capabilities)
type HookFlags uint16

const (
	HookBeforeInitialize HookFlags = 1 << iota
	HookAfterInitialize
	HookBeforeAddLiquidity
	HookAfterAddLiquidity
	HookBeforeRemoveLiquidity
	HookAfterRemoveLiquidity
	HookBeforeSwap
	HookAfterSwap
	HookBeforeDonate
	HookAfterDonate
	HookBeforeSwapReturnDelta
	HookAfterSwapReturnDelta
)

// FeeMax is the largest fee a pool key may carry (hundredths of a bip)
const FeeMax uint24 = 1_000_000

// Currency represents a token (native or ERC20)
// Address(0) represents native LUX
type Currency struct {
	Address common.Address
}

// NativeCurrency represents native LUX
var NativeCurrency = Currency{Address: common.Address{}}

// IsNative returns true if this currency is native LUX
func (c Currency) IsNative() bool {
	return c.Address == common.Address{}
}

// ToBytes serializes currency for storage
func (c Currency) ToBytes() []byte {
	return c.Address.Bytes()
}

// Less orders currencies by address
func (c Currency) Less(other Currency) bool {
	return bytes.Compare(c.Address.Bytes(), other.Address.Bytes()) < 0
}

// PoolKey uniquely identifies a pool
// Sorted by currency address (currency0 < currency1)
type PoolKey struct {
	Currency0   Currency       // Lower address token
	Currency1   Currency       // Higher address token
	Fee         uint24         // Fee in hundredths of a bip
	TickSpacing int24          // Tick spacing
	Hooks       common.Address // Hook contract address (zero = no hooks)
}

// ID computes the unique pool identifier
func (pk PoolKey) ID() [32]byte {
	h := blake3.New()
	h.Write(pk.ToBytes())

	var id [32]byte
	h.Digest().Read(id[:])
	return id
}

// ToBytes serializes pool key as currency0 | currency1 | fee(3) | tickSpacing(3) | hooks
func (pk PoolKey) ToBytes() []byte {
	data := make([]byte, 0, 20+20+3+3+20)
	data = append(data, pk.Currency0.ToBytes()...)
	data = append(data, pk.Currency1.ToBytes()...)

	var word [4]byte
	binary.BigEndian.PutUint32(word[:], pk.Fee)
	data = append(data, word[1:]...)
	binary.BigEndian.PutUint32(word[:], uint32(pk.TickSpacing))
	data = append(data, word[1:]...)

	return append(data, pk.Hooks.Bytes()...)
}

// Validate checks the currencies are distinct and sorted and the fee is in range
func (pk PoolKey) Validate() error {
	if pk.Currency0 == pk.Currency1 {
		return ErrIdenticalCurrencies
	}
	if !pk.Currency0.Less(pk.Currency1) {
		return ErrCurrencyNotSorted
	}
	if pk.Fee > FeeMax {
		return ErrInvalidFee
	}
	return nil
}

// SwapParams contains parameters for a swap
type SwapParams struct {
	ZeroForOne        bool     // true = swap currency0 for currency1
	AmountSpecified   *big.Int // Negative = exact input, non-negative = exact output
	SqrtPriceLimitX96 *big.Int // Price limit (unused by constant-sum pools)
}

// IsExactInput reports whether the specified amount is the input amount
func (p SwapParams) IsExactInput() bool {
	return p.AmountSpecified != nil && p.AmountSpecified.Sign() < 0
}

// ModifyLiquidityParams contains parameters for adding/removing liquidity
type ModifyLiquidityParams struct {
	TickLower      int24
	TickUpper      int24
	LiquidityDelta *big.Int // Positive = add, Negative = remove
	Salt           [32]byte
}

// Tick bounds of a position
const (
	MinTick int24 = -887272
	MaxTick int24 = 887272
)

// Validate checks the position's ticks are ordered and in range
func (p ModifyLiquidityParams) Validate() error {
	if p.TickLower >= p.TickUpper || p.TickLower < MinTick || p.TickUpper > MaxTick {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidTickRange, p.TickLower, p.TickUpper)
	}
	if p.LiquidityDelta == nil {
		return fmt.Errorf("%w: nil liquidity delta", ErrInvalidAmount)
	}
	return nil
}

// BalanceDelta represents the net token changes of a locker.
// Positive = owed to the pool, Negative = owed to the user.
type BalanceDelta struct {
	Amount0 *big.Int
	Amount1 *big.Int
}

// NewBalanceDelta creates a new balance delta
func NewBalanceDelta(amount0, amount1 *big.Int) BalanceDelta {
	return BalanceDelta{
		Amount0: new(big.Int).Set(amount0),
		Amount1: new(big.Int).Set(amount1),
	}
}

// ZeroBalanceDelta returns a zero balance delta
func ZeroBalanceDelta() BalanceDelta {
	return BalanceDelta{
		Amount0: big.NewInt(0),
		Amount1: big.NewInt(0),
	}
}

// IsZero returns true if both amounts are zero
func (bd BalanceDelta) IsZero() bool {
	return bd.Amount0.Sign() == 0 && bd.Amount1.Sign() == 0
}

// BeforeSwapDelta is the delta a hook returns from beforeSwap, expressed in
// the specified and unspecified currencies of the swap.
type BeforeSwapDelta struct {
	Specified   *big.Int
	Unspecified *big.Int
}

// ZeroBeforeSwapDelta returns a delta that leaves the swap untouched
func ZeroBeforeSwapDelta() BeforeSwapDelta {
	return BeforeSwapDelta{Specified: big.NewInt(0), Unspecified: big.NewInt(0)}
}

// Pack encodes the delta as one int256 word: specified in the upper 128 bits,
// unspecified in the lower 128 bits.
func (d BeforeSwapDelta) Pack() (*big.Int, error) {
	if !FitsInt128(d.Specified) || !FitsInt128(d.Unspecified) {
		return nil, ErrDeltaOverflow
	}
	lower := new(big.Int).And(d.Unspecified, maxUint128)
	word := new(big.Int).And(d.Specified, maxUint128)
	word.Lsh(word, 128).Or(word, lower)
	// Reinterpret the 256-bit pattern as two's complement
	if word.Bit(255) == 1 {
		word.Sub(word, twoPow256)
	}
	return word, nil
}

// UnpackBeforeSwapDelta decodes a packed int256 word
func UnpackBeforeSwapDelta(word *big.Int) (BeforeSwapDelta, error) {
	if word.Cmp(minInt256) < 0 || word.Cmp(maxInt256) > 0 {
		return BeforeSwapDelta{}, ErrDeltaOverflow
	}
	bits := new(big.Int).Set(word)
	if bits.Sign() < 0 {
		bits.Add(bits, twoPow256)
	}
	specified := toInt128(new(big.Int).Rsh(bits, 128))
	unspecified := toInt128(new(big.Int).And(bits, maxUint128))
	return BeforeSwapDelta{Specified: specified, Unspecified: unspecified}, nil
}

// Sum returns specified + unspecified
func (d BeforeSwapDelta) Sum() *big.Int {
	return new(big.Int).Add(d.Specified, d.Unspecified)
}

func (d BeforeSwapDelta) String() string {
	return fmt.Sprintf("{specified: %s, unspecified: %s}", d.Specified, d.Unspecified)
}

// FitsInt128 reports whether v is representable as int128
func FitsInt128(v *big.Int) bool {
	return v != nil && v.Cmp(MinInt128) >= 0 && v.Cmp(MaxInt128) <= 0
}

func toInt128(u *big.Int) *big.Int {
	if u.Bit(127) == 1 {
		return u.Sub(u, twoPow128)
	}
	return u
}

// Integer bounds
var (
	twoPow128  = new(big.Int).Lsh(big.NewInt(1), 128)
	twoPow256  = new(big.Int).Lsh(big.NewInt(1), 256)
	maxUint128 = new(big.Int).Sub(twoPow128, big.NewInt(1))

	MaxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	MinInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))

	maxInt256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
	minInt256 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
)

// Errors - Core DEX
var (
	ErrPoolNotInitialized     = errors.New("pool not initialized")
	ErrPoolAlreadyInitialized = errors.New("pool already initialized")
	ErrInvalidFee             = errors.New("invalid fee")
	ErrCurrencyNotSorted      = errors.New("currencies not sorted")
	ErrIdenticalCurrencies    = errors.New("identical currencies")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrNonZeroDelta           = errors.New("non-zero balance delta after settlement")
	ErrReentrant              = errors.New("reentrancy detected")
	ErrNoLiquidity            = errors.New("no liquidity in pool")
	ErrDeltaOverflow          = errors.New("delta does not fit in int128")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidTickRange       = errors.New("invalid tick range")
)

// Errors - Claims ledger
var (
	ErrInsufficientClaims  = errors.New("insufficient claims")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBalanceOverflow     = errors.New("balance overflow")
)

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/swapgate/contract"
)

// PoolManager is the singleton settlement host. Pools carry no curve of
// their own: every swap must be fully absorbed by the pool's hook through
// its beforeSwap delta, and custody lives in the claims ledger.
//
// Token movements are tracked as per-currency deltas during a Lock callback
// and must net to zero before the lock is released.
type PoolManager struct {
	// mu protects the reentrancy flag
	mu sync.Mutex

	// locked prevents reentrancy attacks
	locked bool

	address common.Address
	ledger  *ClaimsLedger
	hooks   *HookRegistry

	// pools stores initialized pool keys by pool ID
	pools map[[32]byte]PoolKey

	// locker is the current callback context owner
	locker common.Address

	// currentDeltas tracks balance changes of the locker during a callback
	currentDeltas map[Currency]*big.Int
}

// NewPoolManager creates a pool manager custodying tokens at [address]
func NewPoolManager(address common.Address) *PoolManager {
	return &PoolManager{
		address:       address,
		ledger:        NewClaimsLedger(address),
		hooks:         NewHookRegistry(),
		pools:         make(map[[32]byte]PoolKey),
		currentDeltas: make(map[Currency]*big.Int),
	}
}

// Address returns the pool manager's account
func (pm *PoolManager) Address() common.Address { return pm.address }

// Ledger returns the claims ledger
func (pm *PoolManager) Ledger() *ClaimsLedger { return pm.ledger }

// Hooks returns the hook registry
func (pm *PoolManager) Hooks() *HookRegistry { return pm.hooks }

// Initialize registers a new pool
func (pm *PoolManager) Initialize(key PoolKey) ([32]byte, error) {
	if err := key.Validate(); err != nil {
		return [32]byte{}, err
	}

	poolID := key.ID()
	if _, exists := pm.pools[poolID]; exists {
		return [32]byte{}, ErrPoolAlreadyInitialized
	}
	if key.Hooks != (common.Address{}) {
		if _, ok := pm.hooks.GetHook(key.Hooks); !ok {
			return [32]byte{}, fmt.Errorf("%w: %s", ErrHookNotRegistered, key.Hooks.Hex())
		}
	}

	pm.pools[poolID] = key
	return poolID, nil
}

// =========================================================================
// Flash Accounting - Lock/Unlock Pattern
// =========================================================================

// Lock runs [callback] as [caller]. Swaps, settles and takes inside the
// callback are tracked as deltas; at the end all deltas must net to zero or
// every state change made during the callback is reverted.
func (pm *PoolManager) Lock(stateDB contract.StateDB, caller common.Address, callback func() error) error {
	pm.mu.Lock()
	if pm.locked {
		pm.mu.Unlock()
		return ErrReentrant
	}
	pm.locked = true
	pm.mu.Unlock()

	defer func() {
		pm.mu.Lock()
		pm.locked = false
		pm.mu.Unlock()
	}()

	snapshot := stateDB.Snapshot()
	pm.locker = caller
	pm.currentDeltas = make(map[Currency]*big.Int)
	defer func() {
		pm.locker = common.Address{}
		pm.currentDeltas = make(map[Currency]*big.Int)
	}()

	if err := callback(); err != nil {
		stateDB.RevertToSnapshot(snapshot)
		return err
	}
	if err := pm.verifySettlement(); err != nil {
		stateDB.RevertToSnapshot(snapshot)
		return err
	}
	return nil
}

// verifySettlement ensures all deltas for the locker are zero
func (pm *PoolManager) verifySettlement() error {
	for currency, delta := range pm.currentDeltas {
		if delta.Sign() != 0 {
			return fmt.Errorf("%w: currency=%s, delta=%s",
				ErrNonZeroDelta, currency.Address.Hex(), delta.String())
		}
	}
	return nil
}

// CurrencyDelta returns the locker's outstanding delta for [currency]
func (pm *PoolManager) CurrencyDelta(currency Currency) *big.Int {
	if d, ok := pm.currentDeltas[currency]; ok {
		return new(big.Int).Set(d)
	}
	return big.NewInt(0)
}

// updateDelta updates the balance delta for a currency
func (pm *PoolManager) updateDelta(currency Currency, delta *big.Int) {
	current, ok := pm.currentDeltas[currency]
	if !ok {
		current = big.NewInt(0)
	}
	pm.currentDeltas[currency] = new(big.Int).Add(current, delta)
}

// Settle pays [amount] of [currency] from the locker into the reserve
func (pm *PoolManager) Settle(stateDB contract.StateDB, currency Currency, amount *big.Int) error {
	if pm.locker == (common.Address{}) {
		return ErrUnauthorized
	}
	u, err := toUint256(amount)
	if err != nil {
		return err
	}
	if err := pm.ledger.Collect(stateDB, pm.locker, currency, u); err != nil {
		return err
	}
	pm.updateDelta(currency, new(big.Int).Neg(amount))
	return nil
}

// Take sends [amount] of [currency] from the reserve to [to]
func (pm *PoolManager) Take(stateDB contract.StateDB, currency Currency, to common.Address, amount *big.Int) error {
	if pm.locker == (common.Address{}) {
		return ErrUnauthorized
	}
	u, err := toUint256(amount)
	if err != nil {
		return err
	}
	if err := pm.ledger.Pay(stateDB, to, currency, u); err != nil {
		return err
	}
	pm.updateDelta(currency, amount)
	return nil
}

// =========================================================================
// Core DEX Operations
// =========================================================================

// Swap executes a swap in a pool. The caller's resulting delta is returned
// in (currency0, currency1) order.
func (pm *PoolManager) Swap(
	stateDB contract.StateDB,
	key PoolKey,
	params SwapParams,
	hookData []byte,
) (BalanceDelta, error) {
	if pm.locker == (common.Address{}) {
		return ZeroBalanceDelta(), ErrUnauthorized
	}
	if _, ok := pm.pools[key.ID()]; !ok {
		return ZeroBalanceDelta(), ErrPoolNotInitialized
	}
	if params.AmountSpecified == nil || params.AmountSpecified.Sign() == 0 {
		return ZeroBalanceDelta(), ErrInvalidAmount
	}

	hookDelta := ZeroBeforeSwapDelta()
	if HasPermission(key.Hooks, HookBeforeSwap) {
		hook, ok := pm.hooks.GetHook(key.Hooks)
		if !ok {
			return ZeroBalanceDelta(), ErrHookNotRegistered
		}
		res, err := hook.BeforeSwap(stateDB, pm.locker, key, params, hookData)
		if err != nil {
			return ZeroBalanceDelta(), err
		}
		if res.Selector != SigBeforeSwap {
			return ZeroBalanceDelta(), ErrInvalidHookResponse
		}
		if HasPermission(key.Hooks, HookBeforeSwapReturnDelta) {
			hookDelta = res.Delta
		}
	}

	// Whatever the hook did not absorb would go to the curve, and there is none
	remaining := new(big.Int).Add(params.AmountSpecified, hookDelta.Specified)
	if remaining.Sign() != 0 {
		return ZeroBalanceDelta(), ErrNoLiquidity
	}

	specified, unspecified := key.Currency1, key.Currency0
	if params.IsExactInput() == params.ZeroForOne {
		specified, unspecified = key.Currency0, key.Currency1
	}
	pm.updateDelta(specified, hookDelta.Specified)
	pm.updateDelta(unspecified, hookDelta.Unspecified)

	if specified == key.Currency0 {
		return NewBalanceDelta(hookDelta.Specified, hookDelta.Unspecified), nil
	}
	return NewBalanceDelta(hookDelta.Unspecified, hookDelta.Specified), nil
}

// ModifyLiquidity is gated by the pool's beforeAddLiquidity hook. Pools have
// no positions of their own, so an approved call still finds no liquidity to
// modify.
func (pm *PoolManager) ModifyLiquidity(
	stateDB contract.StateDB,
	key PoolKey,
	params ModifyLiquidityParams,
	hookData []byte,
) error {
	if pm.locker == (common.Address{}) {
		return ErrUnauthorized
	}
	if _, ok := pm.pools[key.ID()]; !ok {
		return ErrPoolNotInitialized
	}
	if params.LiquidityDelta != nil && params.LiquidityDelta.Sign() > 0 && HasPermission(key.Hooks, HookBeforeAddLiquidity) {
		hook, ok := pm.hooks.GetHook(key.Hooks)
		if !ok {
			return ErrHookNotRegistered
		}
		if _, err := hook.BeforeAddLiquidity(stateDB, pm.locker, key, params, hookData); err != nil {
			return err
		}
	}
	return ErrNoLiquidity
}

// Donate donates tokens to a pool's liquidity providers
func (pm *PoolManager) Donate(
	stateDB contract.StateDB,
	key PoolKey,
	amount0 *big.Int,
	amount1 *big.Int,
	hookData []byte,
) (BalanceDelta, error) {
	if pm.locker == (common.Address{}) {
		return ZeroBalanceDelta(), ErrUnauthorized
	}
	if _, ok := pm.pools[key.ID()]; !ok {
		return ZeroBalanceDelta(), ErrPoolNotInitialized
	}

	if HasPermission(key.Hooks, HookBeforeDonate) {
		hook, ok := pm.hooks.GetHook(key.Hooks)
		if !ok {
			return ZeroBalanceDelta(), ErrHookNotRegistered
		}
		if _, err := hook.BeforeDonate(stateDB, pm.locker, key, amount0, amount1, hookData); err != nil {
			return ZeroBalanceDelta(), err
		}
	}

	// Donations accrue to in-range positions; constant-sum pools have none
	return ZeroBalanceDelta(), ErrNoLiquidity
}

func toUint256(amount *big.Int) (*uint256.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	u, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrBalanceOverflow, amount)
	}
	return u, nil
}

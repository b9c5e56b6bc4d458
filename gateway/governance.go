// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"fmt"

	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"

	"github.com/luxfi/swapgate/contract"
)

// SetPolicy binds endorsements to [policyID]. An empty ID is allowed.
func (g *Gateway) SetPolicy(stateDB contract.StateDB, caller common.Address, policyID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.onlyOwner(stateDB, caller); err != nil {
		return err
	}
	logs, err := g.events(event{"PolicyUpdated", []interface{}{policyID}})
	if err != nil {
		return err
	}
	g.settings.setPolicyID(stateDB, policyID)
	g.commit(stateDB, logs)
	g.log.Info("policy updated", "policyID", policyID)
	return nil
}

// SetAuthority points verification at the authority deployed at [authority].
// The zero address is allowed and makes every endorsement fail.
func (g *Gateway) SetAuthority(stateDB contract.StateDB, caller, authority common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.onlyOwner(stateDB, caller); err != nil {
		return err
	}
	logs, err := g.events(event{"AuthorityUpdated", []interface{}{authority}})
	if err != nil {
		return err
	}
	g.settings.setAuthority(stateDB, authority)
	g.commit(stateDB, logs)
	g.log.Info("authority updated", "authority", authority)
	return nil
}

// AddLPs authorizes liquidity providers
func (g *Gateway) AddLPs(stateDB contract.StateDB, caller common.Address, lps []common.Address) error {
	return g.updateRole(stateDB, caller, RoleLiquidityProvider, lps, true)
}

// RemoveLPs revokes liquidity providers
func (g *Gateway) RemoveLPs(stateDB contract.StateDB, caller common.Address, lps []common.Address) error {
	return g.updateRole(stateDB, caller, RoleLiquidityProvider, lps, false)
}

// AddSwappers lets swappers skip verification
func (g *Gateway) AddSwappers(stateDB contract.StateDB, caller common.Address, swappers []common.Address) error {
	return g.updateRole(stateDB, caller, RoleSwapper, swappers, true)
}

// RemoveSwappers sends swappers back through verification
func (g *Gateway) RemoveSwappers(stateDB contract.StateDB, caller common.Address, swappers []common.Address) error {
	return g.updateRole(stateDB, caller, RoleSwapper, swappers, false)
}

// TransferOwnership nominates [newOwner]. Ownership moves only once the
// nominee accepts; nominating the zero address cancels a pending transfer.
func (g *Gateway) TransferOwnership(stateDB contract.StateDB, caller, newOwner common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.onlyOwner(stateDB, caller); err != nil {
		return err
	}
	logs, err := g.events(event{"OwnershipTransferStarted", []interface{}{caller, newOwner}})
	if err != nil {
		return err
	}
	g.settings.setPendingOwner(stateDB, newOwner)
	g.commit(stateDB, logs)
	g.log.Info("ownership transfer started", "owner", caller, "pendingOwner", newOwner)
	return nil
}

// AcceptOwnership completes a transfer started by TransferOwnership
func (g *Gateway) AcceptOwnership(stateDB contract.StateDB, caller common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	pending := g.settings.PendingOwner(stateDB)
	if pending == (common.Address{}) || caller != pending {
		return fmt.Errorf("%w: %s", ErrNotPendingOwner, caller.Hex())
	}
	logs, err := g.events(event{"OwnershipTransferred", []interface{}{g.settings.Owner(stateDB), caller}})
	if err != nil {
		return err
	}
	prev := g.settings.promotePending(stateDB)
	g.commit(stateDB, logs)
	g.log.Info("ownership transferred", "previousOwner", prev, "owner", caller)
	return nil
}

func (g *Gateway) updateRole(stateDB contract.StateDB, caller common.Address, role Role, ids []common.Address, add bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.onlyOwner(stateDB, caller); err != nil {
		return err
	}

	name := roleEvent(role, add)
	changed := g.settings.pending(stateDB, role, ids, add)
	evs := make([]event, len(changed))
	for i, id := range changed {
		evs[i] = event{name, []interface{}{id}}
	}
	logs, err := g.events(evs...)
	if err != nil {
		return err
	}

	if add {
		g.settings.add(stateDB, role, changed)
	} else {
		g.settings.remove(stateDB, role, changed)
	}
	g.commit(stateDB, logs)
	g.log.Info("bypass registry updated", "role", role, "event", name, "changed", len(changed), "requested", len(ids))
	return nil
}

func roleEvent(role Role, add bool) string {
	switch {
	case role == RoleLiquidityProvider && add:
		return "LPAdded"
	case role == RoleLiquidityProvider:
		return "LPRemoved"
	case add:
		return "SwapperAdded"
	default:
		return "SwapperRemoved"
	}
}

// onlyOwner fails for every caller of an unconfigured gateway
func (g *Gateway) onlyOwner(stateDB contract.StateDB, caller common.Address) error {
	owner := g.settings.Owner(stateDB)
	if owner == (common.Address{}) || caller != owner {
		g.log.Debug("governance call rejected", "caller", caller)
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
	}
	return nil
}

type event struct {
	name string
	args []interface{}
}

// events packs every event up front so a packing failure leaves no partial
// state change behind
func (g *Gateway) events(evs ...event) ([]*ethtypes.Log, error) {
	logs := make([]*ethtypes.Log, 0, len(evs))
	for _, ev := range evs {
		l, err := GatewayABI.NewLog(g.address, ev.name, ev.args...)
		if err != nil {
			return nil, fmt.Errorf("packing %s: %w", ev.name, err)
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func (g *Gateway) commit(stateDB contract.StateDB, logs []*ethtypes.Log) {
	for _, l := range logs {
		stateDB.AddLog(l)
	}
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/swapgate/contract"
)

var _ contract.StatefulPrecompiledContract = (*Contract)(nil)

// Gas costs
const (
	GasBeforeSwap      uint64 = 60_000
	GasHookCallback    uint64 = 2_000
	GasAddLiquidity    uint64 = 50_000
	GasGovernanceWrite uint64 = 20_000
	GasRegistryEntry   uint64 = 5_000
	GasRead            uint64 = 1_000
)

// Contract exposes a Gateway through its ABI
type Contract struct {
	gateway *Gateway
}

// NewContract wraps [g] for ABI calls
func NewContract(g *Gateway) *Contract {
	return &Contract{gateway: g}
}

// Run executes an ABI encoded call
func (c *Contract) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) (ret []byte, remainingGas uint64, err error) {
	method, data, err := GatewayABI.MethodFor(input)
	if err != nil {
		return nil, suppliedGas, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	args, err := GatewayABI.UnpackInput(method.Name, data, false)
	if err != nil {
		return nil, suppliedGas, fmt.Errorf("%w: %s: %w", ErrInvalidInput, method.Name, err)
	}

	switch method.Name {
	case "beforeSwap":
		return c.runBeforeSwap(accessibleState, caller, args, suppliedGas, readOnly)
	case "beforeAddLiquidity":
		params := *abi.ConvertType(args[2], new(ModifyLiquidityParamsABI)).(*ModifyLiquidityParamsABI)
		if _, err := params.ModifyLiquidityParams(); err != nil {
			return nil, suppliedGas, fmt.Errorf("%w: %s: %w", ErrInvalidInput, method.Name, err)
		}
		return c.runHookCallback(caller, suppliedGas, readOnly, ErrAddLiquidityThroughHook)
	case "beforeDonate":
		return c.runHookCallback(caller, suppliedGas, readOnly, ErrDonationRejected)
	case "addLiquidity":
		return c.runAddLiquidity(accessibleState, caller, args, suppliedGas, readOnly)
	case "setPolicy", "setAuthority", "transferOwnership", "acceptOwnership":
		return c.runGovernance(accessibleState, caller, method, args, suppliedGas, readOnly)
	case "addLPs", "removeLPs", "addSwappers", "removeSwappers":
		return c.runRegistry(accessibleState, caller, method, args, suppliedGas, readOnly)
	default:
		return c.runView(accessibleState, method, args, suppliedGas)
	}
}

func (c *Contract) runBeforeSwap(
	state contract.AccessibleState,
	caller common.Address,
	args []interface{},
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasBeforeSwap)
	if err != nil {
		return nil, 0, err
	}
	if readOnly {
		return nil, remainingGas, ErrWriteProtection
	}
	if caller != c.gateway.PoolManager() {
		return nil, remainingGas, ErrNotPoolManager
	}

	sender := args[0].(common.Address)
	key := *abi.ConvertType(args[1], new(PoolKeyABI)).(*PoolKeyABI)
	params := *abi.ConvertType(args[2], new(SwapParamsABI)).(*SwapParamsABI)
	hookData := args[3].([]byte)

	res, err := c.gateway.BeforeSwap(state.GetStateDB(), sender, key.PoolKey(), params.SwapParams(), hookData)
	if err != nil {
		return nil, remainingGas, err
	}
	packed, err := res.Delta.Pack()
	if err != nil {
		return nil, remainingGas, err
	}
	out, err := GatewayABI.PackOutput("beforeSwap", res.Selector, packed, new(big.Int).SetUint64(uint64(res.FeeOverride)))
	return out, remainingGas, err
}

// runHookCallback serves the liquidity and donation callbacks, which always
// refuse. The pool manager check comes first, so a donation callback from any
// other caller fails with ErrNotPoolManager rather than ErrDonationRejected.
func (c *Contract) runHookCallback(caller common.Address, suppliedGas uint64, readOnly bool, refusal error) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasHookCallback)
	if err != nil {
		return nil, 0, err
	}
	if readOnly {
		return nil, remainingGas, ErrWriteProtection
	}
	if caller != c.gateway.PoolManager() {
		return nil, remainingGas, ErrNotPoolManager
	}
	return nil, remainingGas, refusal
}

func (c *Contract) runAddLiquidity(
	state contract.AccessibleState,
	caller common.Address,
	args []interface{},
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasAddLiquidity)
	if err != nil {
		return nil, 0, err
	}
	if readOnly {
		return nil, remainingGas, ErrWriteProtection
	}

	key := *abi.ConvertType(args[0], new(PoolKeyABI)).(*PoolKeyABI)
	amount := args[1].(*big.Int)
	return nil, remainingGas, c.gateway.AddLiquidity(state.GetStateDB(), caller, key.PoolKey(), amount)
}

func (c *Contract) runGovernance(
	state contract.AccessibleState,
	caller common.Address,
	method *abi.Method,
	args []interface{},
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasGovernanceWrite)
	if err != nil {
		return nil, 0, err
	}
	if readOnly {
		return nil, remainingGas, ErrWriteProtection
	}

	stateDB := state.GetStateDB()
	switch method.Name {
	case "setPolicy":
		err = c.gateway.SetPolicy(stateDB, caller, args[0].(string))
	case "setAuthority":
		err = c.gateway.SetAuthority(stateDB, caller, args[0].(common.Address))
	case "transferOwnership":
		err = c.gateway.TransferOwnership(stateDB, caller, args[0].(common.Address))
	case "acceptOwnership":
		err = c.gateway.AcceptOwnership(stateDB, caller)
	}
	return nil, remainingGas, err
}

func (c *Contract) runRegistry(
	state contract.AccessibleState,
	caller common.Address,
	method *abi.Method,
	args []interface{},
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	ids := args[0].([]common.Address)
	required := GasGovernanceWrite + GasRegistryEntry*uint64(len(ids))
	remainingGas, err := contract.DeductGas(suppliedGas, required)
	if err != nil {
		return nil, 0, err
	}
	if readOnly {
		return nil, remainingGas, ErrWriteProtection
	}

	stateDB := state.GetStateDB()
	switch method.Name {
	case "addLPs":
		err = c.gateway.AddLPs(stateDB, caller, ids)
	case "removeLPs":
		err = c.gateway.RemoveLPs(stateDB, caller, ids)
	case "addSwappers":
		err = c.gateway.AddSwappers(stateDB, caller, ids)
	case "removeSwappers":
		err = c.gateway.RemoveSwappers(stateDB, caller, ids)
	}
	return nil, remainingGas, err
}

func (c *Contract) runView(
	state contract.AccessibleState,
	method *abi.Method,
	args []interface{},
	suppliedGas uint64,
) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasRead)
	if err != nil {
		return nil, 0, err
	}

	stateDB := state.GetStateDB()
	settings := c.gateway.Settings()
	var out interface{}
	switch method.Name {
	case "owner":
		out = settings.Owner(stateDB)
	case "pendingOwner":
		out = settings.PendingOwner(stateDB)
	case "getPolicy":
		out = settings.Policy(stateDB).PolicyID
	case "getAuthority":
		out = settings.Policy(stateDB).Authority
	case "isAuthorizedLP":
		out = settings.IsBypassed(stateDB, args[0].(common.Address), RoleLiquidityProvider)
	case "isAuthorizedSwapper":
		out = settings.IsBypassed(stateDB, args[0].(common.Address), RoleSwapper)
	default:
		return nil, remainingGas, fmt.Errorf("%w: unhandled method %s", ErrInvalidInput, method.Name)
	}
	ret, err := GatewayABI.PackOutput(method.Name, out)
	return ret, remainingGas, err
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"

	"github.com/luxfi/swapgate/contract"
)

// Hook is implemented by contracts the pool manager calls around pool operations
type Hook interface {
	BeforeSwap(
		stateDB contract.StateDB,
		sender common.Address,
		key PoolKey,
		params SwapParams,
		hookData []byte,
	) (BeforeSwapResult, error)

	BeforeAddLiquidity(
		stateDB contract.StateDB,
		sender common.Address,
		key PoolKey,
		params ModifyLiquidityParams,
		hookData []byte,
	) ([4]byte, error)

	BeforeDonate(
		stateDB contract.StateDB,
		sender common.Address,
		key PoolKey,
		amount0 *big.Int,
		amount1 *big.Int,
		hookData []byte,
	) ([4]byte, error)
}

// BeforeSwapResult is what a hook hands back to the pool manager from beforeSwap
type BeforeSwapResult struct {
	Selector    [4]byte
	Delta       BeforeSwapDelta
	FeeOverride uint24
}

// HookPermissions contains the flags derived from a hook address.
// The hook address encodes its capabilities in its leading bits.
type HookPermissions struct {
	BeforeInitialize      bool
	AfterInitialize       bool
	BeforeAddLiquidity    bool
	AfterAddLiquidity     bool
	BeforeRemoveLiquidity bool
	AfterRemoveLiquidity  bool
	BeforeSwap            bool
	AfterSwap             bool
	BeforeDonate          bool
	AfterDonate           bool
	BeforeSwapReturnDelta bool
	AfterSwapReturnDelta  bool
}

// Hook callback selectors; a hook returns the selector of the callback it
// served to acknowledge it.
var (
	SigBeforeSwap = contract.CalculateFunctionSelector(
		"beforeSwap(address,(address,address,uint24,int24,address),(bool,int256,uint160),bytes)")
	SigBeforeAddLiquidity = contract.CalculateFunctionSelector(
		"beforeAddLiquidity(address,(address,address,uint24,int24,address),(int24,int24,int256,bytes32),bytes)")
	SigBeforeDonate = contract.CalculateFunctionSelector(
		"beforeDonate(address,(address,address,uint24,int24,address),uint256,uint256,bytes)")
)

// Hook errors
var (
	ErrHookNotRegistered   = errors.New("hook not registered")
	ErrHookInvalidAddress  = errors.New("hook address doesn't match capabilities")
	ErrInvalidHookResponse = errors.New("invalid hook response")
)

// ValidateHookAddress validates that a hook address encodes exactly the claimed permissions
func ValidateHookAddress(addr common.Address, permissions HookPermissions) error {
	if addressFlags(addr) != EncodeHookPermissions(permissions) {
		return ErrHookInvalidAddress
	}
	return nil
}

// EncodeHookPermissions encodes permissions into a HookFlags bitmap
func EncodeHookPermissions(p HookPermissions) HookFlags {
	var flags HookFlags
	set := func(on bool, flag HookFlags) {
		if on {
			flags |= flag
		}
	}
	set(p.BeforeInitialize, HookBeforeInitialize)
	set(p.AfterInitialize, HookAfterInitialize)
	set(p.BeforeAddLiquidity, HookBeforeAddLiquidity)
	set(p.AfterAddLiquidity, HookAfterAddLiquidity)
	set(p.BeforeRemoveLiquidity, HookBeforeRemoveLiquidity)
	set(p.AfterRemoveLiquidity, HookAfterRemoveLiquidity)
	set(p.BeforeSwap, HookBeforeSwap)
	set(p.AfterSwap, HookAfterSwap)
	set(p.BeforeDonate, HookBeforeDonate)
	set(p.AfterDonate, HookAfterDonate)
	set(p.BeforeSwapReturnDelta, HookBeforeSwapReturnDelta)
	set(p.AfterSwapReturnDelta, HookAfterSwapReturnDelta)
	return flags
}

// DecodeHookPermissions decodes a HookFlags bitmap into permissions
func DecodeHookPermissions(flags HookFlags) HookPermissions {
	return HookPermissions{
		BeforeInitialize:      flags&HookBeforeInitialize != 0,
		AfterInitialize:       flags&HookAfterInitialize != 0,
		BeforeAddLiquidity:    flags&HookBeforeAddLiquidity != 0,
		AfterAddLiquidity:     flags&HookAfterAddLiquidity != 0,
		BeforeRemoveLiquidity: flags&HookBeforeRemoveLiquidity != 0,
		AfterRemoveLiquidity:  flags&HookAfterRemoveLiquidity != 0,
		BeforeSwap:            flags&HookBeforeSwap != 0,
		AfterSwap:             flags&HookAfterSwap != 0,
		BeforeDonate:          flags&HookBeforeDonate != 0,
		AfterDonate:           flags&HookAfterDonate != 0,
		BeforeSwapReturnDelta: flags&HookBeforeSwapReturnDelta != 0,
		AfterSwapReturnDelta:  flags&HookAfterSwapReturnDelta != 0,
	}
}

// GetHookPermissionsFromAddress extracts permissions from hook address
func GetHookPermissionsFromAddress(addr common.Address) HookPermissions {
	return DecodeHookPermissions(addressFlags(addr))
}

// HasPermission checks if an address has a specific hook permission
func HasPermission(addr common.Address, flag HookFlags) bool {
	return addressFlags(addr)&flag != 0
}

func addressFlags(addr common.Address) HookFlags {
	return HookFlags(binary.BigEndian.Uint16(addr[0:2]))
}

// GenerateHookAddress derives a hook address for the given permissions.
// The salted hash supplies the address body; the permission flags overwrite
// the first 2 bytes.
func GenerateHookAddress(deployer common.Address, salt [32]byte, permissions HookPermissions) common.Address {
	h := blake3.New()
	h.Write([]byte{0xff})
	h.Write(deployer.Bytes())
	h.Write(salt[:])

	var hash [32]byte
	h.Digest().Read(hash[:])

	var addr common.Address
	copy(addr[:], hash[12:32])
	binary.BigEndian.PutUint16(addr[0:2], uint16(EncodeHookPermissions(permissions)))
	return addr
}

// HookRegistry maps hook addresses to their implementations
type HookRegistry struct {
	hooks map[common.Address]Hook
}

// NewHookRegistry creates a new hook registry
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{
		hooks: make(map[common.Address]Hook),
	}
}

// RegisterHook registers a hook implementation at [addr]
func (hr *HookRegistry) RegisterHook(addr common.Address, hook Hook) error {
	if addressFlags(addr) == 0 {
		return ErrHookInvalidAddress
	}
	hr.hooks[addr] = hook
	return nil
}

// GetHook returns the hook registered at [addr]
func (hr *HookRegistry) GetHook(addr common.Address) (Hook, bool) {
	hook, ok := hr.hooks[addr]
	return hook, ok
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dex

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/swapgate/contract"
)

// =========================================================================
// Hook Permission Tests
// =========================================================================

func TestEncodeDecodeHookPermissions(t *testing.T) {
	tests := []struct {
		name        string
		permissions HookPermissions
		flags       HookFlags
	}{
		{
			name:        "no permissions",
			permissions: HookPermissions{},
			flags:       0,
		},
		{
			name:        "beforeSwap only",
			permissions: HookPermissions{BeforeSwap: true},
			flags:       HookBeforeSwap,
		},
		{
			name: "constant sum gateway",
			permissions: HookPermissions{
				BeforeAddLiquidity:    true,
				BeforeSwap:            true,
				BeforeDonate:          true,
				BeforeSwapReturnDelta: true,
			},
			flags: HookBeforeAddLiquidity | HookBeforeSwap | HookBeforeDonate | HookBeforeSwapReturnDelta,
		},
		{
			name: "all hooks",
			permissions: HookPermissions{
				BeforeInitialize:      true,
				AfterInitialize:       true,
				BeforeAddLiquidity:    true,
				AfterAddLiquidity:     true,
				BeforeRemoveLiquidity: true,
				AfterRemoveLiquidity:  true,
				BeforeSwap:            true,
				AfterSwap:             true,
				BeforeDonate:          true,
				AfterDonate:           true,
				BeforeSwapReturnDelta: true,
				AfterSwapReturnDelta:  true,
			},
			flags: 0x0FFF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := EncodeHookPermissions(tt.permissions)
			if flags != tt.flags {
				t.Errorf("flags mismatch: got %#x, want %#x", flags, tt.flags)
			}
			if decoded := DecodeHookPermissions(flags); decoded != tt.permissions {
				t.Errorf("round trip mismatch: got %+v, want %+v", decoded, tt.permissions)
			}
		})
	}
}

func TestGetHookPermissionsFromAddress(t *testing.T) {
	var addr common.Address
	binary.BigEndian.PutUint16(addr[0:2], uint16(HookBeforeSwap|HookBeforeSwapReturnDelta))

	perms := GetHookPermissionsFromAddress(addr)
	if !perms.BeforeSwap || !perms.BeforeSwapReturnDelta {
		t.Errorf("expected beforeSwap and beforeSwapReturnDelta, got %+v", perms)
	}
	if perms.AfterSwap || perms.BeforeDonate {
		t.Errorf("unexpected permissions %+v", perms)
	}
}

func TestHasPermission(t *testing.T) {
	var addr common.Address
	binary.BigEndian.PutUint16(addr[0:2], uint16(HookBeforeDonate))

	if !HasPermission(addr, HookBeforeDonate) {
		t.Error("expected beforeDonate permission")
	}
	if HasPermission(addr, HookBeforeSwap) {
		t.Error("unexpected beforeSwap permission")
	}
	if HasPermission(common.Address{}, HookBeforeSwap) {
		t.Error("zero address has no permissions")
	}
}

func TestValidateHookAddress(t *testing.T) {
	perms := HookPermissions{BeforeSwap: true, BeforeSwapReturnDelta: true}
	addr := GenerateHookAddress(common.HexToAddress("0x01"), [32]byte{0x01}, perms)

	if err := ValidateHookAddress(addr, perms); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	// Extra bits are as wrong as missing ones
	if err := ValidateHookAddress(addr, HookPermissions{BeforeSwap: true}); err != ErrHookInvalidAddress {
		t.Errorf("expected ErrHookInvalidAddress, got %v", err)
	}
	if err := ValidateHookAddress(addr, HookPermissions{BeforeSwap: true, BeforeSwapReturnDelta: true, AfterSwap: true}); err != ErrHookInvalidAddress {
		t.Errorf("expected ErrHookInvalidAddress, got %v", err)
	}
}

func TestGenerateHookAddress(t *testing.T) {
	deployer := common.HexToAddress("0x1234")
	perms := HookPermissions{BeforeSwap: true}

	a := GenerateHookAddress(deployer, [32]byte{0x01}, perms)
	b := GenerateHookAddress(deployer, [32]byte{0x01}, perms)
	c := GenerateHookAddress(deployer, [32]byte{0x02}, perms)

	if a != b {
		t.Error("hook address derivation is not deterministic")
	}
	if a == c {
		t.Error("different salts produced the same address")
	}
	if GetHookPermissionsFromAddress(c) != perms {
		t.Error("salt changed the permission bits")
	}
}

func TestHookRegistry(t *testing.T) {
	hr := NewHookRegistry()
	hook := &constantSumHook{}

	if err := hr.RegisterHook(common.HexToAddress("0x1234"), hook); err != ErrHookInvalidAddress {
		t.Errorf("expected ErrHookInvalidAddress for flagless address, got %v", err)
	}

	addr := GenerateHookAddress(common.Address{}, [32]byte{}, HookPermissions{BeforeSwap: true})
	if err := hr.RegisterHook(addr, hook); err != nil {
		t.Fatalf("register: %v", err)
	}
	got, ok := hr.GetHook(addr)
	if !ok || got != Hook(hook) {
		t.Error("registered hook not returned")
	}
	if _, ok := hr.GetHook(common.HexToAddress("0x99")); ok {
		t.Error("unexpected hook at unregistered address")
	}
}

func TestHookSelectors(t *testing.T) {
	tests := []struct {
		sig  string
		want [4]byte
	}{
		{
			sig:  "beforeSwap(address,(address,address,uint24,int24,address),(bool,int256,uint160),bytes)",
			want: SigBeforeSwap,
		},
		{
			sig:  "beforeAddLiquidity(address,(address,address,uint24,int24,address),(int24,int24,int256,bytes32),bytes)",
			want: SigBeforeAddLiquidity,
		},
		{
			sig:  "beforeDonate(address,(address,address,uint24,int24,address),uint256,uint256,bytes)",
			want: SigBeforeDonate,
		},
	}
	for _, tt := range tests {
		if got := contract.CalculateFunctionSelector(tt.sig); got != tt.want {
			t.Errorf("%s: got %x, want %x", tt.sig, got, tt.want)
		}
	}
	if SigBeforeSwap == SigBeforeDonate || SigBeforeSwap == SigBeforeAddLiquidity {
		t.Error("hook selectors collide")
	}
}

// =========================================================================
// Test hook
// =========================================================================

// constantSumHook absorbs every swap 1:1 without any checks
type constantSumHook struct {
	swaps    int
	selector [4]byte
	err      error
}

func (h *constantSumHook) BeforeSwap(
	_ contract.StateDB,
	_ common.Address,
	_ PoolKey,
	params SwapParams,
	_ []byte,
) (BeforeSwapResult, error) {
	h.swaps++
	if h.err != nil {
		return BeforeSwapResult{}, h.err
	}
	selector := SigBeforeSwap
	if h.selector != ([4]byte{}) {
		selector = h.selector
	}
	amount := new(big.Int).Abs(params.AmountSpecified)
	delta := BeforeSwapDelta{Specified: amount, Unspecified: new(big.Int).Neg(amount)}
	if !params.IsExactInput() {
		delta = BeforeSwapDelta{Specified: new(big.Int).Neg(amount), Unspecified: amount}
	}
	return BeforeSwapResult{Selector: selector, Delta: delta}, nil
}

func (h *constantSumHook) BeforeAddLiquidity(
	contract.StateDB, common.Address, PoolKey, ModifyLiquidityParams, []byte,
) ([4]byte, error) {
	return SigBeforeAddLiquidity, nil
}

func (h *constantSumHook) BeforeDonate(
	contract.StateDB, common.Address, PoolKey, *big.Int, *big.Int, []byte,
) ([4]byte, error) {
	return SigBeforeDonate, nil
}

// =========================================================================
// Benchmarks
// =========================================================================

func BenchmarkEncodeHookPermissions(b *testing.B) {
	perms := HookPermissions{BeforeSwap: true, BeforeSwapReturnDelta: true, BeforeDonate: true}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = EncodeHookPermissions(perms)
	}
}

func BenchmarkHasPermission(b *testing.B) {
	addr := GenerateHookAddress(common.Address{}, [32]byte{}, HookPermissions{BeforeSwap: true})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = HasPermission(addr, HookBeforeSwap)
	}
}

func BenchmarkGenerateHookAddress(b *testing.B) {
	deployer := common.HexToAddress("0x1234")
	perms := HookPermissions{BeforeSwap: true}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = GenerateHookAddress(deployer, [32]byte{byte(i)}, perms)
	}
}

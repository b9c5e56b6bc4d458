// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"errors"

	"github.com/luxfi/crypto"
)

// SelectorLen is the length of an ABI function selector
const SelectorLen = 4

var (
	ErrOutOfGas     = errors.New("out of gas")
	ErrShortInput   = errors.New("input shorter than function selector")
	ErrUnknownInput = errors.New("unknown function selector")
)

// CalculateFunctionSelector returns the 4-byte selector of a canonical
// function signature such as "setPolicy(string)".
func CalculateFunctionSelector(functionSignature string) [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(functionSignature))[:SelectorLen])
	return sel
}

// DeductGas charges [requiredGas] against [suppliedGas]
func DeductGas(suppliedGas uint64, requiredGas uint64) (uint64, error) {
	if suppliedGas < requiredGas {
		return 0, ErrOutOfGas
	}
	return suppliedGas - requiredGas, nil
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contract defines the host-facing interfaces a stateful hook is
// executed against, plus the ABI helpers shared by the hook call surface.
package contract

import (
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
)

// StateDB is the subset of the host's state the gateway reads and writes.
// Snapshot/RevertToSnapshot give every swap attempt all-or-nothing semantics.
type StateDB interface {
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key common.Hash, value common.Hash) common.Hash

	AddLog(log *ethtypes.Log)

	Snapshot() int
	RevertToSnapshot(id int)
}

// AccessibleState is handed to a precompile on every call
type AccessibleState interface {
	GetStateDB() StateDB
	BlockTimestamp() uint64
}

// StatefulPrecompiledContract is a contract executed natively by the host
type StatefulPrecompiledContract interface {
	Run(
		accessibleState AccessibleState,
		caller common.Address,
		addr common.Address,
		input []byte,
		suppliedGas uint64,
		readOnly bool,
	) (ret []byte, remainingGas uint64, err error)
}

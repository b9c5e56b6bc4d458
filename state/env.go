// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import "github.com/luxfi/swapgate/contract"

var _ contract.AccessibleState = (*Env)(nil)

// Env pairs a StateDB with the block it executes in
type Env struct {
	stateDB   *StateDB
	timestamp uint64
}

// NewEnv returns an execution environment at [timestamp]
func NewEnv(stateDB *StateDB, timestamp uint64) *Env {
	return &Env{stateDB: stateDB, timestamp: timestamp}
}

func (e *Env) GetStateDB() contract.StateDB { return e.stateDB }

func (e *Env) BlockTimestamp() uint64 { return e.timestamp }

// SetBlockTimestamp advances the block clock
func (e *Env) SetBlockTimestamp(timestamp uint64) { e.timestamp = timestamp }

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package authority

import (
	"sync"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/swapgate/attestation"
)

// Directory maps authority addresses to their implementations, the way a
// host resolves a call target to the contract deployed there.
type Directory struct {
	mu          sync.RWMutex
	authorities map[common.Address]attestation.Authority
}

// NewDirectory creates an empty directory
func NewDirectory() *Directory {
	return &Directory{
		authorities: make(map[common.Address]attestation.Authority),
	}
}

// Register binds [auth] to [addr], replacing any previous binding
func (d *Directory) Register(addr common.Address, auth attestation.Authority) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.authorities[addr] = auth
}

// Unregister removes the binding at [addr]
func (d *Directory) Unregister(addr common.Address) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.authorities, addr)
}

// Resolve returns the authority bound to [addr]
func (d *Directory) Resolve(addr common.Address) (attestation.Authority, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	auth, ok := d.authorities[addr]
	return auth, ok
}

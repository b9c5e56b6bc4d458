// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"math/big"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/swapgate/attestation"
	"github.com/luxfi/swapgate/contract"
	"github.com/luxfi/swapgate/dex"
)

// Resolver finds the authority deployed at an address
type Resolver interface {
	Resolve(addr common.Address) (attestation.Authority, bool)
}

// Verifier checks that a swap carries an endorsement from the configured
// authority under the configured policy.
type Verifier struct {
	self     common.Address
	settings *Settings
	resolver Resolver
	log      log.Logger
}

// NewVerifier creates a verifier for the gateway at [self]
func NewVerifier(self common.Address, settings *Settings, resolver Resolver, logger log.Logger) *Verifier {
	return &Verifier{
		self:     self,
		settings: settings,
		resolver: resolver,
		log:      logger,
	}
}

// Verify reports whether [hookData] endorses the swap by [caller] under the
// policy binding held in [stateDB]. It never fails loudly: every problem is a
// plain false.
func (v *Verifier) Verify(
	stateDB contract.StateDB,
	caller common.Address,
	key dex.PoolKey,
	params dex.SwapParams,
	hookData []byte,
) (ok bool) {
	// A panicking authority counts as a rejection
	defer func() {
		if r := recover(); r != nil {
			v.log.Warn("authority panicked", "sender", caller, "panic", r)
			ok = false
		}
	}()

	msg, err := attestation.DecodeMessage(hookData)
	if err != nil {
		v.log.Debug("authorization message undecodable", "sender", caller, "err", err)
		return false
	}

	encoded, err := EncodeSwap(caller, key, params)
	if err != nil {
		v.log.Debug("swap not encodable", "sender", caller, "err", err)
		return false
	}

	policy := v.settings.Policy(stateDB)
	if v.resolver == nil {
		v.log.Debug("no authority resolver", "sender", caller)
		return false
	}
	authority, found := v.resolver.Resolve(policy.Authority)
	if !found {
		v.log.Debug("authority not found", "sender", caller, "authority", policy.Authority)
		return false
	}

	task := attestation.Task{
		TaskID:       msg.TaskID,
		MsgSender:    caller,
		Target:       v.self,
		Value:        new(big.Int),
		Encoded:      encoded,
		PolicyID:     policy.PolicyID,
		ExpireByTime: msg.ExpireByTime,
	}
	if !authority.Verify(stateDB, task, msg) {
		v.log.Debug("authority rejected endorsement",
			"sender", caller,
			"taskID", msg.TaskID,
			"policyID", policy.PolicyID,
		)
		return false
	}
	return true
}

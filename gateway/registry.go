// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"

	"github.com/luxfi/swapgate/contract"
)

// Role names a bypass set
type Role uint8

const (
	RoleLiquidityProvider Role = iota + 1
	RoleSwapper
)

func (r Role) String() string {
	switch r {
	case RoleLiquidityProvider:
		return "liquidity provider"
	case RoleSwapper:
		return "swapper"
	default:
		return "unknown"
	}
}

// Storage slots of the governed state in the gateway's own account
var (
	ConfiguredSlot   = storageKey([]byte("configured"))
	OwnerSlot        = storageKey([]byte("owner"))
	PendingOwnerSlot = storageKey([]byte("pendingOwner"))
	AuthoritySlot    = storageKey([]byte("authority"))
	// PolicyIDSlot holds the policy ID length; the bytes follow in 32-byte
	// chunks at policyChunkSlot(i)
	PolicyIDSlot = storageKey([]byte("policyID"))
)

// Storage key prefixes of the bypass sets. Each set is kept enumerable: a
// member count, the member at each index, and each member's index plus one.
var (
	memberCountPrefix = []byte("mcnt")
	memberAtPrefix    = []byte("mat")
	memberPosPrefix   = []byte("mpos")
)

// storageKey hashes [parts] into a storage slot
func storageKey(parts ...[]byte) common.Hash {
	h := blake3.New()
	for _, p := range parts {
		h.Write(p)
	}
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

func indexBytes(i uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, i)
}

func policyChunkSlot(i uint64) common.Hash {
	return storageKey(PolicyIDSlot.Bytes(), indexBytes(i))
}

// PolicyConfig names the policy endorsements must be issued under and the
// authority that issues them
type PolicyConfig struct {
	PolicyID  string
	Authority common.Address
}

// Settings is the governed state of a gateway: ownership, policy binding and
// the bypass registry. It lives in the gateway's storage in the host StateDB,
// so host reverts and commits cover it like any other state. Writes go
// through the Gateway's governance methods.
type Settings struct {
	address common.Address
}

func newSettings(address common.Address) *Settings {
	return &Settings{address: address}
}

// Configured reports whether a deployment config was written for this gateway
func (s *Settings) Configured(stateDB contract.StateDB) bool {
	return s.get(stateDB, ConfiguredSlot) != (common.Hash{})
}

func (s *Settings) configure(stateDB contract.StateDB, cfg Config) {
	s.set(stateDB, OwnerSlot, common.BytesToHash(cfg.Owner.Bytes()))
	s.setAuthority(stateDB, cfg.Authority)
	s.setPolicyID(stateDB, cfg.PolicyID)
	s.add(stateDB, RoleLiquidityProvider, cfg.LiquidityProviders)
	s.add(stateDB, RoleSwapper, cfg.Swappers)
	s.setUint(stateDB, ConfiguredSlot, 1)
}

// IsBypassed reports whether [identity] holds [role]
func (s *Settings) IsBypassed(stateDB contract.StateDB, identity common.Address, role Role) bool {
	return s.position(stateDB, role, identity) != 0
}

// Members returns the identities holding [role] in address order
func (s *Settings) Members(stateDB contract.StateDB, role Role) []common.Address {
	n := s.getUint(stateDB, memberCountSlot(role))
	out := make([]common.Address, 0, n)
	for i := uint64(0); i < n; i++ {
		out = append(out, common.BytesToAddress(s.get(stateDB, memberAtSlot(role, i)).Bytes()))
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Bytes(), out[j].Bytes()) < 0
	})
	return out
}

// Owner returns the current owner
func (s *Settings) Owner(stateDB contract.StateDB) common.Address {
	return common.BytesToAddress(s.get(stateDB, OwnerSlot).Bytes())
}

// PendingOwner returns the nominated owner, zero if none
func (s *Settings) PendingOwner(stateDB contract.StateDB) common.Address {
	return common.BytesToAddress(s.get(stateDB, PendingOwnerSlot).Bytes())
}

// Policy returns the current policy binding
func (s *Settings) Policy(stateDB contract.StateDB) PolicyConfig {
	return PolicyConfig{
		PolicyID:  s.policyID(stateDB),
		Authority: common.BytesToAddress(s.get(stateDB, AuthoritySlot).Bytes()),
	}
}

// pending returns the identities of [ids] whose membership in [role] would
// change, in first-seen order without duplicates
func (s *Settings) pending(stateDB contract.StateDB, role Role, ids []common.Address, add bool) []common.Address {
	seen := make(map[common.Address]struct{}, len(ids))
	changed := make([]common.Address, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if s.IsBypassed(stateDB, id, role) != add {
			changed = append(changed, id)
		}
	}
	return changed
}

func (s *Settings) add(stateDB contract.StateDB, role Role, ids []common.Address) {
	countSlot := memberCountSlot(role)
	for _, id := range ids {
		if s.IsBypassed(stateDB, id, role) {
			continue
		}
		n := s.getUint(stateDB, countSlot)
		s.set(stateDB, memberAtSlot(role, n), common.BytesToHash(id.Bytes()))
		s.setUint(stateDB, memberPosSlot(role, id), n+1)
		s.setUint(stateDB, countSlot, n+1)
	}
}

// remove moves the last member into each vacated index
func (s *Settings) remove(stateDB contract.StateDB, role Role, ids []common.Address) {
	countSlot := memberCountSlot(role)
	for _, id := range ids {
		pos := s.position(stateDB, role, id)
		if pos == 0 {
			continue
		}
		last := s.getUint(stateDB, countSlot) - 1
		if idx := pos - 1; idx != last {
			moved := s.get(stateDB, memberAtSlot(role, last))
			s.set(stateDB, memberAtSlot(role, idx), moved)
			s.setUint(stateDB, memberPosSlot(role, common.BytesToAddress(moved.Bytes())), pos)
		}
		s.set(stateDB, memberAtSlot(role, last), common.Hash{})
		s.set(stateDB, memberPosSlot(role, id), common.Hash{})
		s.setUint(stateDB, countSlot, last)
	}
}

func (s *Settings) setPolicyID(stateDB contract.StateDB, id string) {
	prevChunks := chunks(s.getUint(stateDB, PolicyIDSlot))
	raw := []byte(id)
	for i := uint64(0); i < chunks(uint64(len(raw))); i++ {
		var chunk common.Hash
		copy(chunk[:], raw[i*common.HashLength:])
		s.set(stateDB, policyChunkSlot(i), chunk)
	}
	// Clear the tail of a longer previous ID
	for i := chunks(uint64(len(raw))); i < prevChunks; i++ {
		s.set(stateDB, policyChunkSlot(i), common.Hash{})
	}
	s.setUint(stateDB, PolicyIDSlot, uint64(len(raw)))
}

func (s *Settings) policyID(stateDB contract.StateDB) string {
	n := s.getUint(stateDB, PolicyIDSlot)
	raw := make([]byte, 0, chunks(n)*common.HashLength)
	for i := uint64(0); i < chunks(n); i++ {
		chunk := s.get(stateDB, policyChunkSlot(i))
		raw = append(raw, chunk[:]...)
	}
	return string(raw[:n])
}

func (s *Settings) setAuthority(stateDB contract.StateDB, addr common.Address) {
	s.set(stateDB, AuthoritySlot, common.BytesToHash(addr.Bytes()))
}

func (s *Settings) setPendingOwner(stateDB contract.StateDB, addr common.Address) {
	s.set(stateDB, PendingOwnerSlot, common.BytesToHash(addr.Bytes()))
}

// promotePending makes the pending owner the owner and returns the previous owner
func (s *Settings) promotePending(stateDB contract.StateDB) common.Address {
	prev := s.Owner(stateDB)
	s.set(stateDB, OwnerSlot, s.get(stateDB, PendingOwnerSlot))
	s.set(stateDB, PendingOwnerSlot, common.Hash{})
	return prev
}

func (s *Settings) position(stateDB contract.StateDB, role Role, id common.Address) uint64 {
	return s.getUint(stateDB, memberPosSlot(role, id))
}

func (s *Settings) get(stateDB contract.StateDB, slot common.Hash) common.Hash {
	return stateDB.GetState(s.address, slot)
}

func (s *Settings) set(stateDB contract.StateDB, slot, value common.Hash) {
	stateDB.SetState(s.address, slot, value)
}

func (s *Settings) getUint(stateDB contract.StateDB, slot common.Hash) uint64 {
	val := s.get(stateDB, slot)
	return new(uint256.Int).SetBytes32(val[:]).Uint64()
}

func (s *Settings) setUint(stateDB contract.StateDB, slot common.Hash, v uint64) {
	s.set(stateDB, slot, common.Hash(uint256.NewInt(v).Bytes32()))
}

func memberCountSlot(role Role) common.Hash {
	return storageKey(memberCountPrefix, []byte{byte(role)})
}

func memberAtSlot(role Role, i uint64) common.Hash {
	return storageKey(memberAtPrefix, []byte{byte(role)}, indexBytes(i))
}

func memberPosSlot(role Role, id common.Address) common.Hash {
	return storageKey(memberPosPrefix, []byte{byte(role)}, id.Bytes())
}

// chunks returns the number of 32-byte words needed for [n] bytes
func chunks(n uint64) uint64 {
	return (n + common.HashLength - 1) / common.HashLength
}

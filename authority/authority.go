// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package authority implements a policy authority whose decisions are
// endorsed by a quorum of registered ECDSA operators.
//
// An endorsement is valid when it names a deployed policy, has not expired,
// has not been used before, and carries at least the policy's threshold of
// signatures from distinct registered operators over the task digest.
// A valid endorsement is spent by the verification that accepts it. Spent
// task IDs are kept in the authority's storage in the host StateDB, so an
// enclosing revert makes the endorsement usable again.
package authority

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/zeebo/blake3"

	"github.com/luxfi/swapgate/attestation"
	"github.com/luxfi/swapgate/contract"
)

var _ attestation.Authority = (*ServiceManager)(nil)

// Errors
var (
	ErrInvalidThreshold = errors.New("threshold must be positive")
	ErrZeroOperator     = errors.New("operator address is zero")
	ErrUnknownPolicy    = errors.New("unknown policy")
	ErrExpired          = errors.New("endorsement expired")
	ErrSpent            = errors.New("task already spent")
	ErrTaskMismatch     = errors.New("message does not match task")
	ErrBelowThreshold   = errors.New("not enough signatures")
	ErrSignerOrder      = errors.New("signers not strictly ascending")
	ErrUnknownOperator  = errors.New("signer is not a registered operator")
	ErrSignerMismatch   = errors.New("signature does not recover to signer")
)

// Policy is a deployed policy and its signature threshold
type Policy struct {
	ID        string
	Threshold int
}

// spentPrefix namespaces spent task markers in the authority's storage
var spentPrefix = []byte("spent")

// ServiceManager is a policy authority deployed at an address. Operators and
// policies are its in-process configuration; spent task IDs are host state.
type ServiceManager struct {
	address common.Address

	log log.Logger
	now func() time.Time

	operators map[common.Address]struct{}
	policies  map[string]Policy

	mu sync.Mutex
}

// Option configures a ServiceManager
type Option func(*ServiceManager)

// WithClock replaces the wall clock used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(sm *ServiceManager) { sm.now = now }
}

// WithLogger sets the logger rejection reasons are reported to
func WithLogger(logger log.Logger) Option {
	return func(sm *ServiceManager) { sm.log = logger }
}

// NewServiceManager creates an authority at [address] with no operators or
// policies
func NewServiceManager(address common.Address, opts ...Option) *ServiceManager {
	sm := &ServiceManager{
		address:   address,
		log:       log.NewTestLogger(log.InfoLevel),
		now:       time.Now,
		operators: make(map[common.Address]struct{}),
		policies:  make(map[string]Policy),
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// RegisterOperator adds [operator] to the signing set
func (sm *ServiceManager) RegisterOperator(operator common.Address) error {
	if operator == (common.Address{}) {
		return ErrZeroOperator
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.operators[operator] = struct{}{}
	sm.log.Info("operator registered", "operator", operator)
	return nil
}

// DeregisterOperator removes [operator]. Its signatures stop counting at once.
func (sm *ServiceManager) DeregisterOperator(operator common.Address) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.operators, operator)
	sm.log.Info("operator deregistered", "operator", operator)
}

// IsOperator reports whether [addr] is a registered operator
func (sm *ServiceManager) IsOperator(addr common.Address) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	_, ok := sm.operators[addr]
	return ok
}

// DeployPolicy creates or replaces the policy [id]
func (sm *ServiceManager) DeployPolicy(id string, threshold int) error {
	if threshold <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, threshold)
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.policies[id] = Policy{ID: id, Threshold: threshold}
	sm.log.Info("policy deployed", "policyID", id, "threshold", threshold)
	return nil
}

// Policy returns the deployed policy [id]
func (sm *ServiceManager) Policy(id string) (Policy, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	p, ok := sm.policies[id]
	return p, ok
}

// Address returns the account holding the authority's storage
func (sm *ServiceManager) Address() common.Address {
	return sm.address
}

// IsSpent reports whether [taskID] has already been accepted in [stateDB]
func (sm *ServiceManager) IsSpent(stateDB contract.StateDB, taskID string) bool {
	return stateDB.GetState(sm.address, spentKey(taskID)) != (common.Hash{})
}

// Verify accepts [msg] as an endorsement of [task] and spends the task ID in
// [stateDB]. The rejection reason is logged at debug level only.
func (sm *ServiceManager) Verify(stateDB contract.StateDB, task attestation.Task, msg attestation.Message) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if err := sm.check(stateDB, task, msg); err != nil {
		sm.log.Debug("endorsement rejected",
			"taskID", task.TaskID,
			"policyID", task.PolicyID,
			"sender", task.MsgSender,
			"reason", err,
		)
		return false
	}

	stateDB.SetState(sm.address, spentKey(task.TaskID), common.BytesToHash([]byte{1}))
	sm.log.Debug("endorsement accepted", "taskID", task.TaskID, "policyID", task.PolicyID)
	return true
}

func (sm *ServiceManager) check(stateDB contract.StateDB, task attestation.Task, msg attestation.Message) error {
	if task.TaskID != msg.TaskID || cmpBig(task.ExpireByTime, msg.ExpireByTime) != 0 {
		return ErrTaskMismatch
	}
	policy, ok := sm.policies[task.PolicyID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPolicy, task.PolicyID)
	}
	if task.ExpireByTime == nil || task.ExpireByTime.Cmp(big.NewInt(sm.now().Unix())) < 0 {
		return ErrExpired
	}
	if sm.IsSpent(stateDB, task.TaskID) {
		return ErrSpent
	}
	if len(msg.Signers) != len(msg.Signatures) {
		return attestation.ErrLengthMismatch
	}
	if len(msg.Signers) < policy.Threshold {
		return fmt.Errorf("%w: have %d, need %d", ErrBelowThreshold, len(msg.Signers), policy.Threshold)
	}

	digest, err := attestation.Digest(task)
	if err != nil {
		return err
	}

	for i, signer := range msg.Signers {
		// Ascending order makes duplicate signers impossible
		if i > 0 && bytes.Compare(msg.Signers[i-1].Bytes(), signer.Bytes()) >= 0 {
			return ErrSignerOrder
		}
		if _, ok := sm.operators[signer]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownOperator, signer.Hex())
		}
		recovered, err := attestation.RecoverSigner(digest, msg.Signatures[i])
		if err != nil {
			return err
		}
		if recovered != signer {
			return fmt.Errorf("%w: %s", ErrSignerMismatch, signer.Hex())
		}
	}
	return nil
}

// spentKey returns the storage slot marking [taskID] as spent
func spentKey(taskID string) common.Hash {
	h := blake3.New()
	h.Write(spentPrefix)
	h.Write([]byte(taskID))
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

func cmpBig(a, b *big.Int) int {
	if a == nil {
		a = new(big.Int)
	}
	if b == nil {
		b = new(big.Int)
	}
	return a.Cmp(b)
}

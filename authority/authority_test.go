// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package authority

import (
	"crypto/ecdsa"
	"math/big"
	"testing"
	"time"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/swapgate/attestation"
	"github.com/luxfi/swapgate/state"
)

var (
	testNow           = time.Unix(1_700_000_000, 0)
	testAuthorityAddr = common.HexToAddress("0x000000000000000000000000000000000000c001")
)

func newTestAuthority(t *testing.T, threshold int, operators int) (*ServiceManager, []*ecdsa.PrivateKey) {
	t.Helper()

	sm := NewServiceManager(testAuthorityAddr, WithClock(func() time.Time { return testNow }))
	keys := make([]*ecdsa.PrivateKey, operators)
	for i := range keys {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		keys[i] = key
		require.NoError(t, sm.RegisterOperator(attestation.PubkeyToAddress(&key.PublicKey)))
	}
	require.NoError(t, sm.DeployPolicy("policy-a", threshold))
	return sm, keys
}

func newTestTask(id string) attestation.Task {
	return attestation.Task{
		TaskID:       id,
		MsgSender:    common.HexToAddress("0xaaaa"),
		Target:       common.HexToAddress("0xbbbb"),
		Value:        big.NewInt(0),
		Encoded:      []byte("swap"),
		PolicyID:     "policy-a",
		ExpireByTime: big.NewInt(testNow.Unix() + 60),
	}
}

func TestVerifyQuorum(t *testing.T) {
	sm, keys := newTestAuthority(t, 2, 3)
	stateDB := state.New(nil)
	task := newTestTask("t1")

	msg, err := Endorse(task, keys[0], keys[2])
	require.NoError(t, err)
	require.True(t, sm.Verify(stateDB, task, msg))
	require.True(t, sm.IsSpent(stateDB, "t1"))
}

func TestVerifyReplay(t *testing.T) {
	sm, keys := newTestAuthority(t, 1, 1)
	stateDB := state.New(nil)
	task := newTestTask("t1")

	msg, err := Endorse(task, keys[0])
	require.NoError(t, err)
	require.True(t, sm.Verify(stateDB, task, msg))
	require.False(t, sm.Verify(stateDB, task, msg))
}

func TestVerifyRejectionDoesNotSpend(t *testing.T) {
	sm, keys := newTestAuthority(t, 2, 2)
	stateDB := state.New(nil)
	task := newTestTask("t1")

	short, err := Endorse(task, keys[0])
	require.NoError(t, err)
	require.False(t, sm.Verify(stateDB, task, short))
	require.False(t, sm.IsSpent(stateDB, "t1"))

	full, err := Endorse(task, keys...)
	require.NoError(t, err)
	require.True(t, sm.Verify(stateDB, task, full))
}

func TestVerifyRejects(t *testing.T) {
	outsider, err := crypto.GenerateKey()
	require.NoError(t, err)

	tests := []struct {
		name  string
		build func(t *testing.T, keys []*ecdsa.PrivateKey) (attestation.Task, attestation.Message)
	}{
		{
			name: "below threshold",
			build: func(t *testing.T, keys []*ecdsa.PrivateKey) (attestation.Task, attestation.Message) {
				task := newTestTask("t")
				msg, err := Endorse(task, keys[0])
				require.NoError(t, err)
				return task, msg
			},
		},
		{
			name: "expired",
			build: func(t *testing.T, keys []*ecdsa.PrivateKey) (attestation.Task, attestation.Message) {
				task := newTestTask("t")
				task.ExpireByTime = big.NewInt(testNow.Unix() - 1)
				msg, err := Endorse(task, keys...)
				require.NoError(t, err)
				return task, msg
			},
		},
		{
			name: "unknown policy",
			build: func(t *testing.T, keys []*ecdsa.PrivateKey) (attestation.Task, attestation.Message) {
				task := newTestTask("t")
				task.PolicyID = "policy-z"
				msg, err := Endorse(task, keys...)
				require.NoError(t, err)
				return task, msg
			},
		},
		{
			name: "unregistered signer",
			build: func(t *testing.T, keys []*ecdsa.PrivateKey) (attestation.Task, attestation.Message) {
				task := newTestTask("t")
				msg, err := Endorse(task, keys[0], outsider)
				require.NoError(t, err)
				return task, msg
			},
		},
		{
			name: "duplicate signer",
			build: func(t *testing.T, keys []*ecdsa.PrivateKey) (attestation.Task, attestation.Message) {
				task := newTestTask("t")
				msg, err := Endorse(task, keys[0], keys[0])
				require.NoError(t, err)
				return task, msg
			},
		},
		{
			name: "descending signers",
			build: func(t *testing.T, keys []*ecdsa.PrivateKey) (attestation.Task, attestation.Message) {
				task := newTestTask("t")
				msg, err := Endorse(task, keys...)
				require.NoError(t, err)
				msg.Signers[0], msg.Signers[1] = msg.Signers[1], msg.Signers[0]
				msg.Signatures[0], msg.Signatures[1] = msg.Signatures[1], msg.Signatures[0]
				return task, msg
			},
		},
		{
			name: "swapped signatures",
			build: func(t *testing.T, keys []*ecdsa.PrivateKey) (attestation.Task, attestation.Message) {
				task := newTestTask("t")
				msg, err := Endorse(task, keys...)
				require.NoError(t, err)
				msg.Signatures[0], msg.Signatures[1] = msg.Signatures[1], msg.Signatures[0]
				return task, msg
			},
		},
		{
			name: "signed different task",
			build: func(t *testing.T, keys []*ecdsa.PrivateKey) (attestation.Task, attestation.Message) {
				task := newTestTask("t")
				signed := task
				signed.Encoded = []byte("other swap")
				msg, err := Endorse(signed, keys...)
				require.NoError(t, err)
				return task, msg
			},
		},
		{
			name: "task id mismatch",
			build: func(t *testing.T, keys []*ecdsa.PrivateKey) (attestation.Task, attestation.Message) {
				task := newTestTask("t")
				msg, err := Endorse(task, keys...)
				require.NoError(t, err)
				msg.TaskID = "u"
				return task, msg
			},
		},
		{
			name: "malformed signature",
			build: func(t *testing.T, keys []*ecdsa.PrivateKey) (attestation.Task, attestation.Message) {
				task := newTestTask("t")
				msg, err := Endorse(task, keys...)
				require.NoError(t, err)
				msg.Signatures[1] = []byte{0x01}
				return task, msg
			},
		},
		{
			name: "length mismatch",
			build: func(t *testing.T, keys []*ecdsa.PrivateKey) (attestation.Task, attestation.Message) {
				task := newTestTask("t")
				msg, err := Endorse(task, keys...)
				require.NoError(t, err)
				msg.Signatures = msg.Signatures[:1]
				return task, msg
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm, keys := newTestAuthority(t, 2, 2)
			stateDB := state.New(nil)
			task, msg := tt.build(t, keys)
			require.False(t, sm.Verify(stateDB, task, msg))
			require.False(t, sm.IsSpent(stateDB, task.TaskID))
		})
	}
}

func TestExpiryBoundary(t *testing.T) {
	sm, keys := newTestAuthority(t, 1, 1)
	stateDB := state.New(nil)
	task := newTestTask("t1")
	task.ExpireByTime = big.NewInt(testNow.Unix())

	msg, err := Endorse(task, keys[0])
	require.NoError(t, err)
	require.True(t, sm.Verify(stateDB, task, msg))
}

func TestDeregisteredOperator(t *testing.T) {
	sm, keys := newTestAuthority(t, 1, 1)
	stateDB := state.New(nil)
	operator := attestation.PubkeyToAddress(&keys[0].PublicKey)
	require.True(t, sm.IsOperator(operator))

	sm.DeregisterOperator(operator)
	require.False(t, sm.IsOperator(operator))

	task := newTestTask("t1")
	msg, err := Endorse(task, keys[0])
	require.NoError(t, err)
	require.False(t, sm.Verify(stateDB, task, msg))
}

func TestDeployPolicy(t *testing.T) {
	sm := NewServiceManager(testAuthorityAddr)
	require.ErrorIs(t, sm.DeployPolicy("p", 0), ErrInvalidThreshold)
	require.ErrorIs(t, sm.RegisterOperator(common.Address{}), ErrZeroOperator)

	require.NoError(t, sm.DeployPolicy("p", 3))
	p, ok := sm.Policy("p")
	require.True(t, ok)
	require.Equal(t, 3, p.Threshold)

	_, ok = sm.Policy("q")
	require.False(t, ok)
}

func TestDirectory(t *testing.T) {
	d := NewDirectory()
	addr := common.HexToAddress("0x1234")

	_, ok := d.Resolve(addr)
	require.False(t, ok)

	sm := NewServiceManager(testAuthorityAddr)
	d.Register(addr, sm)
	got, ok := d.Resolve(addr)
	require.True(t, ok)
	require.Equal(t, sm, got)

	d.Unregister(addr)
	_, ok = d.Resolve(addr)
	require.False(t, ok)
}

func TestSpentTaskFollowsStateReverts(t *testing.T) {
	sm, keys := newTestAuthority(t, 1, 1)
	stateDB := state.New(nil)
	task := newTestTask("t1")
	msg, err := Endorse(task, keys[0])
	require.NoError(t, err)

	snapshot := stateDB.Snapshot()
	require.True(t, sm.Verify(stateDB, task, msg))
	require.True(t, sm.IsSpent(stateDB, "t1"))

	// The enclosing call reverted: the endorsement is usable again
	stateDB.RevertToSnapshot(snapshot)
	require.False(t, sm.IsSpent(stateDB, "t1"))
	require.True(t, sm.Verify(stateDB, task, msg))

	// Another authority keeps its own spent set
	other := NewServiceManager(common.HexToAddress("0xc002"), WithClock(func() time.Time { return testNow }))
	require.False(t, other.IsSpent(stateDB, "t1"))
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package attestation

import (
	"math/big"
	"testing"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func testTask() Task {
	return Task{
		TaskID:       "task-1",
		MsgSender:    common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Target:       common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Value:        big.NewInt(0),
		Encoded:      []byte{0xde, 0xad, 0xbe, 0xef},
		PolicyID:     "policy-a",
		ExpireByTime: big.NewInt(1_700_000_000),
	}
}

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{
		TaskID:       "task-1",
		ExpireByTime: big.NewInt(1_700_000_000),
		Signers: []common.Address{
			common.HexToAddress("0x01"),
			common.HexToAddress("0x02"),
		},
		Signatures: [][]byte{{0x01, 0x02}, make([]byte, SignatureLength)},
	}

	data, err := EncodeMessage(msg)
	require.NoError(t, err)

	got, err := DecodeMessage(data)
	require.NoError(t, err)
	require.Equal(t, msg.TaskID, got.TaskID)
	require.Zero(t, msg.ExpireByTime.Cmp(got.ExpireByTime))
	require.Equal(t, msg.Signers, got.Signers)
	require.Equal(t, msg.Signatures, got.Signatures)
}

func TestEncodeMessageLengthMismatch(t *testing.T) {
	_, err := EncodeMessage(Message{
		TaskID:     "t",
		Signers:    []common.Address{{}},
		Signatures: nil,
	})
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestDecodeMessageGarbage(t *testing.T) {
	tests := map[string][]byte{
		"empty":      nil,
		"short":      {0x01, 0x02, 0x03},
		"one word":   make([]byte, 32),
		"bad offset": append(common.LeftPadBytes([]byte{0xff, 0xff}, 32), make([]byte, 96)...),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeMessage(data)
			require.Error(t, err)
		})
	}
}

func TestHashTaskBindsEveryField(t *testing.T) {
	base := testTask()
	baseHash, err := HashTask(base)
	require.NoError(t, err)

	mutations := map[string]func(*Task){
		"task id": func(t *Task) { t.TaskID = "task-2" },
		"sender":  func(t *Task) { t.MsgSender = common.HexToAddress("0x03") },
		"target":  func(t *Task) { t.Target = common.HexToAddress("0x04") },
		"value":   func(t *Task) { t.Value = big.NewInt(1) },
		"encoded": func(t *Task) { t.Encoded = []byte{0xde, 0xad} },
		"policy":  func(t *Task) { t.PolicyID = "policy-b" },
		"expiry":  func(t *Task) { t.ExpireByTime = big.NewInt(1_700_000_001) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			task := testTask()
			mutate(&task)
			h, err := HashTask(task)
			require.NoError(t, err)
			require.NotEqual(t, baseHash, h)
		})
	}
}

func TestHashTaskNilDefaults(t *testing.T) {
	task := testTask()
	task.Value = nil
	h1, err := HashTask(task)
	require.NoError(t, err)

	task.Value = big.NewInt(0)
	h2, err := HashTask(task)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestSignRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := PubkeyToAddress(&key.PublicKey)

	task := testTask()
	sig, err := Sign(task, key)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)
	require.Contains(t, []byte{27, 28}, sig[64])

	digest, err := Digest(task)
	require.NoError(t, err)

	got, err := RecoverSigner(digest, sig)
	require.NoError(t, err)
	require.Equal(t, signer, got)

	// Raw 0/1 recovery ids are accepted too
	raw := append([]byte(nil), sig...)
	raw[64] -= 27
	got, err = RecoverSigner(digest, raw)
	require.NoError(t, err)
	require.Equal(t, signer, got)

	// A different task recovers a different address
	other := testTask()
	other.TaskID = "task-2"
	otherDigest, err := Digest(other)
	require.NoError(t, err)
	got, err = RecoverSigner(otherDigest, sig)
	if err == nil {
		require.NotEqual(t, signer, got)
	}
}

func TestRecoverSignerRejects(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	task := testTask()
	sig, err := Sign(task, key)
	require.NoError(t, err)
	digest, err := Digest(task)
	require.NoError(t, err)

	t.Run("short", func(t *testing.T) {
		_, err := RecoverSigner(digest, sig[:64])
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("bad recovery id", func(t *testing.T) {
		bad := append([]byte(nil), sig...)
		bad[64] = 30
		_, err := RecoverSigner(digest, bad)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("high s", func(t *testing.T) {
		bad := append([]byte(nil), sig...)
		copy(bad[32:64], common.LeftPadBytes(secp256k1HalfN.Bytes(), 32))
		bad[63]++
		_, err := RecoverSigner(digest, bad)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})
}

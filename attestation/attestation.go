// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package attestation defines the endorsement format exchanged between swap
// callers, the gateway and policy authorities.
//
// A caller obtains a Message off-chain from the authority's operators and
// passes it ABI encoded as hook data. The gateway rebuilds the Task the
// operators signed from the swap it is intercepting, so an endorsement only
// verifies for exactly the swap it was issued for.
package attestation

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/swapgate/contract"
)

// SignatureLength is the length of an [R || S || V] secp256k1 signature
const SignatureLength = 65

// Errors
var (
	ErrInvalidMessage   = errors.New("invalid authorization message")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrLengthMismatch   = errors.New("signers and signatures length mismatch")
)

// Task is the subject an authority's operators endorse
type Task struct {
	TaskID       string         // Unique per endorsement, spent on use
	MsgSender    common.Address // Identity whose action is endorsed
	Target       common.Address // Contract enforcing the endorsement
	Value        *big.Int       // Native value forwarded; always zero for swaps
	Encoded      []byte         // Canonical encoding of the endorsed call
	PolicyID     string         // Policy the decision was taken under
	ExpireByTime *big.Int       // Unix seconds after which the endorsement is void
}

// Authority decides whether [msg] endorses [task]. Any state it keeps for the
// decision, such as spent task IDs, goes through [stateDB] so the caller's
// reverts undo it. Implementations must not panic on malformed messages.
type Authority interface {
	Verify(stateDB contract.StateDB, task Task, msg Message) bool
}

// Message is the authorization payload presented with a swap
type Message struct {
	TaskID       string
	ExpireByTime *big.Int
	Signers      []common.Address
	Signatures   [][]byte
}

var (
	messageArgs = abi.Arguments{
		{Type: mustType("string")},
		{Type: mustType("uint256")},
		{Type: mustType("address[]")},
		{Type: mustType("bytes[]")},
	}

	taskArgs = abi.Arguments{
		{Type: mustType("string")},
		{Type: mustType("address")},
		{Type: mustType("address")},
		{Type: mustType("uint256")},
		{Type: mustType("bytes")},
		{Type: mustType("string")},
		{Type: mustType("uint256")},
	}

	// secp256k1N / 2, the upper bound of canonical S values
	secp256k1HalfN, _ = new(big.Int).SetString("7fffffffffffffffffffffffffffffff5d576e7357a4501ddfe92f46681b20a0", 16)
)

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// EncodeMessage ABI encodes [m] as (string,uint256,address[],bytes[])
func EncodeMessage(m Message) ([]byte, error) {
	if len(m.Signers) != len(m.Signatures) {
		return nil, ErrLengthMismatch
	}
	expiry := m.ExpireByTime
	if expiry == nil {
		expiry = new(big.Int)
	}
	return messageArgs.Pack(m.TaskID, expiry, m.Signers, m.Signatures)
}

// DecodeMessage parses hook data produced by EncodeMessage
func DecodeMessage(data []byte) (Message, error) {
	vals, err := messageArgs.Unpack(data)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if len(vals) != len(messageArgs) {
		return Message{}, ErrInvalidMessage
	}

	taskID, ok1 := vals[0].(string)
	expiry, ok2 := vals[1].(*big.Int)
	signers, ok3 := vals[2].([]common.Address)
	signatures, ok4 := vals[3].([][]byte)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Message{}, ErrInvalidMessage
	}
	if len(signers) != len(signatures) {
		return Message{}, ErrLengthMismatch
	}

	return Message{
		TaskID:       taskID,
		ExpireByTime: expiry,
		Signers:      signers,
		Signatures:   signatures,
	}, nil
}

// HashTask returns keccak256 of the ABI encoding of every task field
func HashTask(t Task) (common.Hash, error) {
	value := t.Value
	if value == nil {
		value = new(big.Int)
	}
	expiry := t.ExpireByTime
	if expiry == nil {
		expiry = new(big.Int)
	}
	packed, err := taskArgs.Pack(t.TaskID, t.MsgSender, t.Target, value, t.Encoded, t.PolicyID, expiry)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(crypto.Keccak256(packed)), nil
}

// Digest returns the EIP-191 personal-message digest operators sign
func Digest(t Task) (common.Hash, error) {
	h, err := HashTask(t)
	if err != nil {
		return common.Hash{}, err
	}
	prefix := []byte("\x19Ethereum Signed Message:\n32")
	return common.BytesToHash(crypto.Keccak256(prefix, h.Bytes())), nil
}

// Sign endorses [t] with [key]. The recovery byte is 27 or 28.
func Sign(t Task, key *ecdsa.PrivateKey) ([]byte, error) {
	digest, err := Digest(t)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}

// RecoverSigner returns the address that produced [sig] over [digest].
// High-S signatures are rejected so each endorsement has one encoding.
func RecoverSigner(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}
	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	if normalized[64] > 1 {
		return common.Address{}, fmt.Errorf("%w: recovery id %d", ErrInvalidSignature, sig[64])
	}
	if new(big.Int).SetBytes(normalized[32:64]).Cmp(secp256k1HalfN) > 0 {
		return common.Address{}, fmt.Errorf("%w: malleable s value", ErrInvalidSignature)
	}

	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return PubkeyToAddress(pub), nil
}

// PubkeyToAddress derives the account address of a secp256k1 public key
func PubkeyToAddress(pub *ecdsa.PublicKey) common.Address {
	return common.BytesToAddress(crypto.Keccak256(crypto.FromECDSAPub(pub)[1:])[12:])
}

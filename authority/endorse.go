// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package authority

import (
	"bytes"
	"crypto/ecdsa"
	"sort"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/swapgate/attestation"
)

// Endorse signs [task] with every key in [keys] and assembles the message in
// the signer order ServiceManager.Verify expects.
func Endorse(task attestation.Task, keys ...*ecdsa.PrivateKey) (attestation.Message, error) {
	type signed struct {
		signer common.Address
		sig    []byte
	}
	sigs := make([]signed, 0, len(keys))
	for _, key := range keys {
		sig, err := attestation.Sign(task, key)
		if err != nil {
			return attestation.Message{}, err
		}
		sigs = append(sigs, signed{signer: attestation.PubkeyToAddress(&key.PublicKey), sig: sig})
	}
	sort.Slice(sigs, func(i, j int) bool {
		return bytes.Compare(sigs[i].signer.Bytes(), sigs[j].signer.Bytes()) < 0
	})

	msg := attestation.Message{
		TaskID:       task.TaskID,
		ExpireByTime: task.ExpireByTime,
		Signers:      make([]common.Address, len(sigs)),
		Signatures:   make([][]byte, len(sigs)),
	}
	for i, s := range sigs {
		msg.Signers[i] = s.signer
		msg.Signatures[i] = s.sig
	}
	return msg, nil
}

// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/luxfi/swapgate/attestation"
	"github.com/luxfi/swapgate/authority"
	"github.com/luxfi/swapgate/gateway"
)

type endorseFlags struct {
	swap     swapFlags
	gateway  string
	policyID string
	taskID   string
	expire   int64
	ttl      time.Duration
	keys     []string
}

func newEndorseCmd() *cobra.Command {
	var flags endorseFlags

	cmd := &cobra.Command{
		Use:   "endorse",
		Short: "Sign a swap endorsement and print it as hook data",
		Long: "Builds the task a gateway derives for the swap, signs it with every operator key given, " +
			"and prints the encoded authorization message to pass as the swap's hook data.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hookData, err := endorse(flags, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(hookData))
			return nil
		},
	}
	flags.swap.bind(cmd)
	fs := cmd.Flags()
	fs.StringVar(&flags.gateway, "gateway", "", "Gateway enforcing the endorsement (defaults to --hooks)")
	fs.StringVar(&flags.policyID, "policy", "", "Policy ID the gateway is configured with")
	fs.StringVar(&flags.taskID, "task-id", "", "Unique task ID")
	fs.Int64Var(&flags.expire, "expire", 0, "Expiry as unix seconds (overrides --ttl)")
	fs.DurationVar(&flags.ttl, "ttl", 5*time.Minute, "Validity window from now")
	fs.StringArrayVar(&flags.keys, "key", nil, "Operator private key (hex); repeat for each signer")
	for _, name := range []string{"policy", "task-id", "key"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func endorse(flags endorseFlags, now time.Time) ([]byte, error) {
	sender, key, params, err := flags.swap.swap()
	if err != nil {
		return nil, err
	}
	target := key.Hooks
	if flags.gateway != "" {
		if target, err = parseAddress("gateway", flags.gateway); err != nil {
			return nil, err
		}
	}
	if flags.taskID == "" {
		return nil, fmt.Errorf("%w: empty task id", errBadFlag)
	}
	expire := flags.expire
	if expire == 0 {
		expire = now.Add(flags.ttl).Unix()
	}

	signers := make([]*ecdsa.PrivateKey, 0, len(flags.keys))
	for i, k := range flags.keys {
		priv, err := crypto.HexToECDSA(strings.TrimPrefix(k, "0x"))
		if err != nil {
			return nil, fmt.Errorf("%w: key %d: %v", errBadFlag, i, err)
		}
		signers = append(signers, priv)
	}
	if len(signers) == 0 {
		return nil, fmt.Errorf("%w: no signing keys", errBadFlag)
	}

	encoded, err := gateway.EncodeSwap(sender, key, params)
	if err != nil {
		return nil, err
	}
	task := attestation.Task{
		TaskID:       flags.taskID,
		MsgSender:    sender,
		Target:       target,
		Value:        new(big.Int),
		Encoded:      encoded,
		PolicyID:     flags.policyID,
		ExpireByTime: big.NewInt(expire),
	}
	msg, err := authority.Endorse(task, signers...)
	if err != nil {
		return nil, err
	}
	return attestation.EncodeMessage(msg)
}

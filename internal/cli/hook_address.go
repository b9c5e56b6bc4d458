// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxfi/swapgate/gateway"
)

func newHookAddressCmd() *cobra.Command {
	var deployer, salt string

	cmd := &cobra.Command{
		Use:   "hook-address",
		Short: "Derive a gateway address carrying the gateway's hook permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := parseAddress("deployer", deployer)
			if err != nil {
				return err
			}
			s, err := parseHash("salt", salt)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), gateway.HookAddress(d, s).Hex())
			return nil
		},
	}
	cmd.Flags().StringVar(&deployer, "deployer", "", "Deploying account")
	cmd.Flags().StringVar(&salt, "salt", "0x00", "32-byte salt (hex)")
	_ = cmd.MarkFlagRequired("deployer")
	return cmd
}

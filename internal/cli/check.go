// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxfi/swapgate/dex"
	"github.com/luxfi/swapgate/gateway"
)

type checkReport struct {
	Address            string              `json:"address"`
	Owner              string              `json:"owner"`
	PoolManager        string              `json:"poolManager"`
	PolicyID           string              `json:"policyID"`
	Authority          string              `json:"authority"`
	LiquidityProviders int                 `json:"liquidityProviders"`
	Swappers           int                 `json:"swappers"`
	Permissions        dex.HookPermissions `json:"permissions"`
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <gateway.yaml>",
		Short: "Validate a gateway deployment config",
		Long:  "Loads a gateway YAML config, rejects it if the owner or pool manager is unset or the address does not carry exactly the gateway's hook permissions, and prints a summary.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gateway.LoadConfig(args[0])
			if err != nil {
				return err
			}
			if err := cfg.Verify(); err != nil {
				return err
			}

			report := checkReport{
				Address:            cfg.Address.Hex(),
				Owner:              cfg.Owner.Hex(),
				PoolManager:        cfg.PoolManager.Hex(),
				PolicyID:           cfg.PolicyID,
				Authority:          cfg.Authority.Hex(),
				LiquidityProviders: len(cfg.LiquidityProviders),
				Swappers:           len(cfg.Swappers),
				Permissions:        dex.GetHookPermissionsFromAddress(cfg.Address),
			}
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

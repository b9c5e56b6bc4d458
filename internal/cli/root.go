// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

// NewRootCmd assembles the swapgate command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "swapgate",
		Short:         "Operate authorized constant-sum swap gateways",
		Long:          "Checks gateway configs, derives hook addresses, and encodes and endorses swaps for gateways that only settle authorized trades.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newCheckCmd(),
		newHookAddressCmd(),
		newEncodeSwapCmd(),
		newEndorseCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "swapgate %s\n", version)
		},
	}
}

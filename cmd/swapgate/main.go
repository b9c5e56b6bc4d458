// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// swapgate is the operator tool for authorized constant-sum swap gateways:
// it checks deployment configs, derives hook addresses and produces the
// endorsement payloads traders attach to swaps.
package main

import "github.com/luxfi/swapgate/internal/cli"

func main() {
	cli.Execute()
}

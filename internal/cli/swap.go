// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/luxfi/swapgate/dex"
	"github.com/luxfi/swapgate/gateway"
)

var errBadFlag = errors.New("invalid flag value")

// swapFlags describe the swap an endorsement is bound to
type swapFlags struct {
	sender      string
	currency0   string
	currency1   string
	fee         uint32
	tickSpacing int32
	hooks       string
	zeroForOne  bool
	amount      string
}

func (f *swapFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.sender, "sender", "", "Account submitting the swap")
	fs.StringVar(&f.currency0, "currency0", "", "Lower-sorted pool currency")
	fs.StringVar(&f.currency1, "currency1", "", "Higher-sorted pool currency")
	fs.Uint32Var(&f.fee, "fee", 0, "Pool fee in hundredths of a bip")
	fs.Int32Var(&f.tickSpacing, "tick-spacing", 1, "Pool tick spacing")
	fs.StringVar(&f.hooks, "hooks", "", "Gateway (hook) address of the pool")
	fs.BoolVar(&f.zeroForOne, "zero-for-one", true, "Swap currency0 for currency1")
	fs.StringVar(&f.amount, "amount", "", "Signed amount: negative for exact input, positive for exact output")
	for _, name := range []string{"sender", "currency0", "currency1", "hooks", "amount"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

func (f *swapFlags) swap() (common.Address, dex.PoolKey, dex.SwapParams, error) {
	var (
		key    dex.PoolKey
		params dex.SwapParams
	)
	sender, err := parseAddress("sender", f.sender)
	if err != nil {
		return common.Address{}, key, params, err
	}
	c0, err := parseAddress("currency0", f.currency0)
	if err != nil {
		return common.Address{}, key, params, err
	}
	c1, err := parseAddress("currency1", f.currency1)
	if err != nil {
		return common.Address{}, key, params, err
	}
	hooks, err := parseAddress("hooks", f.hooks)
	if err != nil {
		return common.Address{}, key, params, err
	}
	amount, ok := new(big.Int).SetString(f.amount, 10)
	if !ok || amount.Sign() == 0 {
		return common.Address{}, key, params, fmt.Errorf("%w: amount %q", errBadFlag, f.amount)
	}

	key = dex.PoolKey{
		Currency0:   dex.Currency{Address: c0},
		Currency1:   dex.Currency{Address: c1},
		Fee:         f.fee,
		TickSpacing: f.tickSpacing,
		Hooks:       hooks,
	}
	if err := key.Validate(); err != nil {
		return common.Address{}, key, params, err
	}
	params = dex.SwapParams{ZeroForOne: f.zeroForOne, AmountSpecified: amount}
	return sender, key, params, nil
}

func newEncodeSwapCmd() *cobra.Command {
	var flags swapFlags

	cmd := &cobra.Command{
		Use:   "encode-swap",
		Short: "Print the canonical encoding of a swap",
		Long:  "Prints the byte string an authority endorses for a swap: the gateway's canonical swap selector followed by the ABI-encoded sender, pool key, direction and amount.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sender, key, params, err := flags.swap()
			if err != nil {
				return err
			}
			encoded, err := gateway.EncodeSwap(sender, key, params)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(encoded))
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}

func parseAddress(name, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %s %q is not an address", errBadFlag, name, s)
	}
	return common.HexToAddress(s), nil
}

func parseHash(name, s string) ([32]byte, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) > 64 {
		return [32]byte{}, fmt.Errorf("%w: %s longer than 32 bytes", errBadFlag, name)
	}
	if len(raw)%2 == 1 {
		raw = "0" + raw
	}
	b, err := hexutil.Decode("0x" + raw)
	if err != nil {
		return [32]byte{}, fmt.Errorf("%w: %s: %v", errBadFlag, name, err)
	}
	return common.BytesToHash(b), nil
}

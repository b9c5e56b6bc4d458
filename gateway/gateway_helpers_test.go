// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"crypto/ecdsa"
	"math/big"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/swapgate/attestation"
	"github.com/luxfi/swapgate/authority"
	"github.com/luxfi/swapgate/contract"
	"github.com/luxfi/swapgate/dex"
	"github.com/luxfi/swapgate/state"
)

var (
	testNow = time.Unix(1_700_000_000, 0)

	ownerAddr         = common.HexToAddress("0x000000000000000000000000000000000000a001")
	poolManagerAddr   = common.HexToAddress("0x000000000000000000000000000000000000b001")
	authorityAddr     = common.HexToAddress("0x000000000000000000000000000000000000c001")
	lpAddr            = common.HexToAddress("0x000000000000000000000000000000000000d001")
	bypassSwapperAddr = common.HexToAddress("0x000000000000000000000000000000000000d002")
	traderAddr        = common.HexToAddress("0x000000000000000000000000000000000000d003")
	strangerAddr      = common.HexToAddress("0x000000000000000000000000000000000000d004")

	token0 = dex.Currency{Address: common.HexToAddress("0x1000000000000000000000000000000000000001")}
	token1 = dex.Currency{Address: common.HexToAddress("0x2000000000000000000000000000000000000002")}

	testPolicyID = "policy-a"
)

// countingAuthority records how often it is consulted
type countingAuthority struct {
	calls  int
	accept bool
}

func (a *countingAuthority) Verify(contract.StateDB, attestation.Task, attestation.Message) bool {
	a.calls++
	return a.accept
}

type staticResolver map[common.Address]attestation.Authority

func (r staticResolver) Resolve(addr common.Address) (attestation.Authority, bool) {
	auth, ok := r[addr]
	return auth, ok
}

type testEnv struct {
	stateDB *state.StateDB
	pm      *dex.PoolManager
	gw      *Gateway
	key     dex.PoolKey

	authority *authority.ServiceManager
	operators []*ecdsa.PrivateKey
}

func testConfig() Config {
	return Config{
		Owner:              ownerAddr,
		PoolManager:        poolManagerAddr,
		Address:            HookAddress(ownerAddr, [32]byte{0x01}),
		PolicyID:           testPolicyID,
		Authority:          authorityAddr,
		LiquidityProviders: []common.Address{lpAddr},
		Swappers:           []common.Address{bypassSwapperAddr},
	}
}

// newTestEnv wires a gateway to a pool manager, a two-of-two operator
// authority and a pool seeded with 1000 of each token
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sm := authority.NewServiceManager(authorityAddr, authority.WithClock(func() time.Time { return testNow }))
	operators := make([]*ecdsa.PrivateKey, 2)
	for i := range operators {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		operators[i] = key
		require.NoError(t, sm.RegisterOperator(attestation.PubkeyToAddress(&key.PublicKey)))
	}
	require.NoError(t, sm.DeployPolicy(testPolicyID, 2))

	dir := authority.NewDirectory()
	dir.Register(authorityAddr, sm)

	te := newTestEnvWithResolver(t, dir)
	te.authority = sm
	te.operators = operators
	return te
}

func newTestEnvWithResolver(t *testing.T, resolver Resolver) *testEnv {
	t.Helper()

	cfg := testConfig()
	stateDB := state.New(nil)
	pm := dex.NewPoolManager(poolManagerAddr)

	gw, err := New(cfg, pm.Ledger(), resolver)
	require.NoError(t, err)
	require.NoError(t, gw.Configure(stateDB))
	require.NoError(t, pm.Hooks().RegisterHook(gw.Address(), gw))

	key := dex.PoolKey{
		Currency0:   token0,
		Currency1:   token1,
		TickSpacing: 1,
		Hooks:       gw.Address(),
	}
	_, err = pm.Initialize(key)
	require.NoError(t, err)

	ledger := pm.Ledger()
	for _, account := range []common.Address{lpAddr, bypassSwapperAddr, traderAddr, strangerAddr} {
		require.NoError(t, ledger.Credit(stateDB, account, token0, uint256.NewInt(10_000)))
		require.NoError(t, ledger.Credit(stateDB, account, token1, uint256.NewInt(10_000)))
	}
	require.NoError(t, gw.AddLiquidity(stateDB, lpAddr, key, big.NewInt(1000)))

	return &testEnv{
		stateDB: stateDB,
		pm:      pm,
		gw:      gw,
		key:     key,
	}
}

func (te *testEnv) claims(currency dex.Currency) uint64 {
	return te.pm.Ledger().ClaimOf(te.stateDB, te.gw.Address(), currency).Uint64()
}

func (te *testEnv) balance(account common.Address, currency dex.Currency) uint64 {
	return te.pm.Ledger().BalanceOf(te.stateDB, account, currency).Uint64()
}

// endorse returns hook data signed by every operator for a swap by [sender]
func (te *testEnv) endorse(t *testing.T, sender common.Address, params dex.SwapParams, taskID string) []byte {
	t.Helper()

	encoded, err := EncodeSwap(sender, te.key, params)
	require.NoError(t, err)
	task := attestation.Task{
		TaskID:       taskID,
		MsgSender:    sender,
		Target:       te.gw.Address(),
		Value:        big.NewInt(0),
		Encoded:      encoded,
		PolicyID:     te.gw.Settings().Policy(te.stateDB).PolicyID,
		ExpireByTime: big.NewInt(testNow.Unix() + 300),
	}
	msg, err := authority.Endorse(task, te.operators...)
	require.NoError(t, err)
	data, err := attestation.EncodeMessage(msg)
	require.NoError(t, err)
	return data
}

// swapThroughHost runs a full swap as [sender] inside a pool manager lock and
// settles the resulting delta
func (te *testEnv) swapThroughHost(sender common.Address, params dex.SwapParams, hookData []byte) error {
	return te.pm.Lock(te.stateDB, sender, func() error {
		delta, err := te.pm.Swap(te.stateDB, te.key, params, hookData)
		if err != nil {
			return err
		}
		legs := []struct {
			currency dex.Currency
			amount   *big.Int
		}{
			{te.key.Currency0, delta.Amount0},
			{te.key.Currency1, delta.Amount1},
		}
		for _, leg := range legs {
			switch leg.amount.Sign() {
			case 1:
				if err := te.pm.Settle(te.stateDB, leg.currency, leg.amount); err != nil {
					return err
				}
			case -1:
				if err := te.pm.Take(te.stateDB, leg.currency, sender, new(big.Int).Neg(leg.amount)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func garbageHookData(t *testing.T) []byte {
	t.Helper()

	data, err := attestation.EncodeMessage(attestation.Message{
		TaskID:       "forged",
		ExpireByTime: big.NewInt(testNow.Unix() + 300),
	})
	require.NoError(t, err)
	return data
}

func exactIn(zeroForOne bool, amount int64) dex.SwapParams {
	return dex.SwapParams{ZeroForOne: zeroForOne, AmountSpecified: big.NewInt(-amount)}
}

func exactOut(zeroForOne bool, amount int64) dex.SwapParams {
	return dex.SwapParams{ZeroForOne: zeroForOne, AmountSpecified: big.NewInt(amount)}
}

func requireBig(t *testing.T, want int64, got *big.Int) {
	t.Helper()
	require.NotNil(t, got)
	require.Zero(t, big.NewInt(want).Cmp(got), "want %d, got %s", want, got)
}

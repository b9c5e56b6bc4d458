// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gateway implements a swap hook that settles every swap 1:1 against
// its own claims and only lets a swap through when the caller either is a
// registered bypass swapper or presents an endorsement from the configured
// policy authority.
//
// The gateway never judges compliance itself; it only checks that someone
// entitled to judge has signed off on exactly this swap.
package gateway

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/swapgate/contract"
	"github.com/luxfi/swapgate/dex"
)

var _ dex.Hook = (*Gateway)(nil)

// AttemptState is a stage of a swap attempt
type AttemptState uint8

const (
	StateReceived AttemptState = iota
	StateAccounted
	StateBypassChecked
	StateVerified
	StateSettled
	StateRejected
)

func (s AttemptState) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateAccounted:
		return "accounted"
	case StateBypassChecked:
		return "bypass-checked"
	case StateVerified:
		return "verified"
	case StateSettled:
		return "settled"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("AttemptState(%d)", uint8(s))
	}
}

// Attempt records how a single swap moved through the gateway
type Attempt struct {
	Sender common.Address
	PoolID [32]byte
	State  AttemptState
	// Path lists every state entered, starting with StateReceived
	Path  []AttemptState
	Delta dex.BeforeSwapDelta
	// Bypassed is set when the sender skipped verification
	Bypassed bool
}

func (a *Attempt) advance(s AttemptState) {
	a.State = s
	a.Path = append(a.Path, s)
}

// Gateway is the swap hook. Swaps, liquidity and governance calls are
// serialized; each is all-or-nothing against the state it is given.
type Gateway struct {
	mu sync.Mutex

	address     common.Address
	poolManager common.Address
	genesis     Config

	settings   *Settings
	accountant *Accountant
	verifier   *Verifier
	ledger     Ledger

	log log.Logger
}

// New creates a gateway from [cfg]. [ledger] is the host's claims ledger and
// [resolver] locates the policy authority by address. The governed state is
// read from the host StateDB; Configure writes [cfg] there once.
func New(cfg Config, ledger Ledger, resolver Resolver) (*Gateway, error) {
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, fmt.Errorf("%w: nil ledger", ErrInvalidConfig)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewTestLogger(log.InfoLevel)
	}

	settings := newSettings(cfg.Address)
	g := &Gateway{
		address:     cfg.Address,
		poolManager: cfg.PoolManager,
		genesis:     cfg,
		settings:    settings,
		accountant:  NewAccountant(cfg.Address, ledger),
		verifier:    NewVerifier(cfg.Address, settings, resolver, logger),
		ledger:      ledger,
		log:         logger,
	}
	logger.Info("gateway created",
		"address", cfg.Address,
		"owner", cfg.Owner,
		"policyID", cfg.PolicyID,
		"authority", cfg.Authority,
	)
	return g, nil
}

// Configure writes the deployment config's owner, policy binding and bypass
// sets into [stateDB]. A gateway reloaded over configured state skips it.
func (g *Gateway) Configure(stateDB contract.StateDB) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.settings.Configured(stateDB) {
		return fmt.Errorf("%w: %s", ErrAlreadyConfigured, g.address.Hex())
	}
	g.settings.configure(stateDB, g.genesis)
	g.log.Info("gateway configured",
		"address", g.address,
		"swappers", len(g.genesis.Swappers),
		"liquidityProviders", len(g.genesis.LiquidityProviders),
	)
	return nil
}

// Address returns the gateway's address
func (g *Gateway) Address() common.Address { return g.address }

// PoolManager returns the only address allowed to invoke hook callbacks
func (g *Gateway) PoolManager() common.Address { return g.poolManager }

// Settings returns the reader of the governed state
func (g *Gateway) Settings() *Settings { return g.settings }

// Swap runs one attempt for a swap by [sender]:
//
//	Received -> Accounted -> BypassChecked | Verified -> Settled
//
// Any failure moves the attempt to Rejected and reverts [stateDB] to where it
// was when the attempt was received. The attempt is returned in both cases.
func (g *Gateway) Swap(
	stateDB contract.StateDB,
	sender common.Address,
	key dex.PoolKey,
	params dex.SwapParams,
	hookData []byte,
) (*Attempt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	attempt := &Attempt{Sender: sender, PoolID: key.ID()}
	attempt.advance(StateReceived)
	snapshot := stateDB.Snapshot()

	reject := func(err error) (*Attempt, error) {
		stateDB.RevertToSnapshot(snapshot)
		attempt.advance(StateRejected)
		g.log.Info("swap rejected", "sender", sender, "zeroForOne", params.ZeroForOne, "err", err)
		return attempt, err
	}

	delta, err := g.accountant.Account(stateDB, key, params)
	if err != nil {
		return reject(err)
	}
	attempt.Delta = delta
	attempt.advance(StateAccounted)

	if g.settings.IsBypassed(stateDB, sender, RoleSwapper) {
		attempt.Bypassed = true
		attempt.advance(StateBypassChecked)
	} else if g.verifier.Verify(stateDB, sender, key, params, hookData) {
		attempt.advance(StateVerified)
	} else {
		return reject(ErrAuthorization)
	}

	attempt.advance(StateSettled)
	g.log.Info("swap settled",
		"sender", sender,
		"zeroForOne", params.ZeroForOne,
		"amountSpecified", params.AmountSpecified,
		"bypass", attempt.Bypassed,
	)
	return attempt, nil
}

// BeforeSwap is the pool manager's pre-settlement callback
func (g *Gateway) BeforeSwap(
	stateDB contract.StateDB,
	sender common.Address,
	key dex.PoolKey,
	params dex.SwapParams,
	hookData []byte,
) (dex.BeforeSwapResult, error) {
	attempt, err := g.Swap(stateDB, sender, key, params, hookData)
	if err != nil {
		return dex.BeforeSwapResult{}, err
	}
	return dex.BeforeSwapResult{
		Selector: dex.SigBeforeSwap,
		Delta:    attempt.Delta,
	}, nil
}

// BeforeDonate rejects every donation
func (g *Gateway) BeforeDonate(
	_ contract.StateDB,
	sender common.Address,
	_ dex.PoolKey,
	_ *big.Int,
	_ *big.Int,
	_ []byte,
) ([4]byte, error) {
	g.log.Debug("donation rejected", "sender", sender)
	return [4]byte{}, ErrDonationRejected
}

// BeforeAddLiquidity rejects pool-level liquidity; use AddLiquidity instead
func (g *Gateway) BeforeAddLiquidity(
	_ contract.StateDB,
	sender common.Address,
	_ dex.PoolKey,
	_ dex.ModifyLiquidityParams,
	_ []byte,
) ([4]byte, error) {
	g.log.Debug("pool liquidity rejected", "sender", sender)
	return [4]byte{}, ErrAddLiquidityThroughHook
}

// AddLiquidity moves [amountEach] of both pool currencies from [provider]
// into the host's reserve and credits the gateway with the matching claims.
func (g *Gateway) AddLiquidity(
	stateDB contract.StateDB,
	provider common.Address,
	key dex.PoolKey,
	amountEach *big.Int,
) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.settings.IsBypassed(stateDB, provider, RoleLiquidityProvider) {
		return fmt.Errorf("%w: %s", ErrUnauthorizedLP, provider.Hex())
	}
	if err := key.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if amountEach == nil || amountEach.Sign() <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInput, ErrZeroAmount)
	}
	amount, overflow := uint256.FromBig(amountEach)
	if overflow {
		return fmt.Errorf("%w: %w", ErrInvalidInput, ErrAmountOverflow)
	}

	snapshot := stateDB.Snapshot()
	if err := g.addLiquidity(stateDB, provider, key, amount); err != nil {
		stateDB.RevertToSnapshot(snapshot)
		g.log.Info("liquidity rejected", "provider", provider, "err", err)
		return err
	}
	g.log.Info("liquidity added", "provider", provider, "amountEach", amountEach)
	return nil
}

func (g *Gateway) addLiquidity(stateDB contract.StateDB, provider common.Address, key dex.PoolKey, amount *uint256.Int) error {
	for _, currency := range []dex.Currency{key.Currency0, key.Currency1} {
		if err := g.ledger.Collect(stateDB, provider, currency, amount); err != nil {
			return err
		}
		if err := g.ledger.Mint(stateDB, g.address, currency, amount); err != nil {
			return err
		}
	}
	return GatewayABI.EmitEvent(stateDB, g.address, "LiquidityAdded", provider, amount.ToBig())
}

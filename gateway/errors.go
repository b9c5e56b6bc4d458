// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import "errors"

// Swap attempt errors
var (
	// ErrAccounting rejects an attempt the ledger could not balance
	ErrAccounting = errors.New("accounting failed")
	// ErrAuthorization rejects an attempt without a valid endorsement
	ErrAuthorization = errors.New("swap not authorized")

	ErrZeroAmount          = errors.New("zero swap amount")
	ErrAmountOverflow      = errors.New("swap amount overflows delta")
	ErrIdenticalCurrencies = errors.New("input and output currency are identical")
)

// Governance errors
var (
	ErrUnauthorized     = errors.New("caller is not the owner")
	ErrNotPendingOwner  = errors.New("caller is not the pending owner")
	ErrDonationRejected = errors.New("donations are not accepted")
)

// Liquidity and call surface errors
var (
	ErrUnauthorizedLP          = errors.New("caller is not an authorized liquidity provider")
	ErrAddLiquidityThroughHook = errors.New("liquidity must be added through the gateway")
	ErrNotPoolManager          = errors.New("caller is not the pool manager")
	ErrWriteProtection         = errors.New("write protection")
	ErrInvalidInput            = errors.New("invalid input")
	ErrInvalidConfig           = errors.New("invalid gateway config")
	ErrAlreadyConfigured       = errors.New("gateway already configured")
)

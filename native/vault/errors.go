// Package vault implements the lending, swapping and trading engines that
// share a single base/quote liquidity pool, the strategies that fund them,
// the vault orchestrator that routes liquidity between them, and the
// user-facing statement that tracks collateral and liabilities across
// vaults, the way the teacher's native/lending and native/swap engines
// implement their own accounting domains.
package vault

import "errors"

// Sentinel errors mirror the reference implementation's LibErrors enum.
// Names follow the reference one-to-one; a handful (ServiceAlreadyExists,
// PositionAlreadyExists, CollateralizationTooLow) are inferred from usage
// sites in vault/trade.rs and vault/mod.rs rather than the errors.rs
// listing itself, which is stale relative to the rest of the source tree.
var (
	ErrDataTooLarge              = errors.New("vault: too large data")
	ErrToBeDefined               = errors.New("vault: to be defined")
	ErrNotEnoughQuoteQuantity    = errors.New("vault: not enough available quote quantity")
	ErrNotEnoughBaseQuantity     = errors.New("vault: not enough available base quantity")
	ErrUserAllowedBorrowExceeded = errors.New("vault: borrow value is higher than user's max allowed borrow")
	ErrLendServiceNone           = errors.New("vault: services does not have lend")
	ErrSwapServiceNone           = errors.New("vault: services does not have swap")
	ErrTradeServiceNone          = errors.New("vault: services does not have trade")
	ErrOracleNone                = errors.New("vault: vault does not contain base oracle")
	ErrQuoteOracleNone           = errors.New("vault: vault does not contain quote oracle")
	ErrOracleAlreadyEnabled      = errors.New("vault: given oracle was enabled before")
	ErrConfidenceTooHigh         = errors.New("vault: price confidence is higher than spread limit")
	ErrStrategyNoLend            = errors.New("vault: strategy does not provide to lend")
	ErrStrategyNoSwap            = errors.New("vault: strategy does not provide to swap")
	ErrStrategyNoTrade           = errors.New("vault: strategy does not provide to trade")
	ErrStrategyMissing           = errors.New("vault: there is no strategy on given index in strategies array")
	ErrCannotBorrow              = errors.New("vault: cannot borrow due to high utilization or max borrow limit")
	ErrRepayLowerThanFee         = errors.New("vault: given repay amount is lower than accrued fee")
	ErrCannotAddStrategy         = errors.New("vault: cannot add strategy (array limit exceeded)")
	ErrCannotAddPosition         = errors.New("vault: cannot add user position (array limit exceeded)")
	ErrNoVaultOnIndex            = errors.New("vault: there is no defined vault on provided index")
	ErrIndexOutOfBounds          = errors.New("vault: provided index is out of bounds")
	ErrNoStrategyOnIndex         = errors.New("vault: there is no defined strategy on provided index")
	ErrInvalidService            = errors.New("vault: service is not valid")
	ErrArrayEmpty                = errors.New("vault: array is empty")
	ErrPositionNotFound          = errors.New("vault: given position was not found")
	ErrServiceAlreadyExists      = errors.New("vault: service was already enabled on this vault")
	ErrPositionAlreadyExists     = errors.New("vault: position already open for this vault/side")
	ErrCollateralizationTooLow   = errors.New("vault: position leverage exceeds the maximum allowed")
	ErrNoMinAmountOut            = errors.New("vault: amount out did not reach passed minimum")
	ErrNotEligibleForLiquidation = errors.New("vault: user statement is still healthy")
)

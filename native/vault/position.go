package vault

import "vaultcore/decimal"

// Side distinguishes a leveraged trade's direction, as stored on a Receipt
// and used as part of a Trading position's structural identity.
type Side uint8

const (
	Long Side = iota
	Short
)

// Receipt is the immutable snapshot of a leveraged position taken at open
// time; everything close_long/close_short need to compute P/L is captured
// here rather than recomputed from mutable trade-engine state.
type Receipt struct {
	Side           Side
	Size           decimal.Quantity
	Locked         decimal.Quantity
	InitialFunding decimal.FundingRate
	OpenPrice      decimal.Price
	OpenValue      decimal.Value
}

// PositionKind tags which variant of the Position union a slot holds.
type PositionKind uint8

const (
	PositionEmpty PositionKind = iota
	PositionLiquidityProvide
	PositionBorrow
	PositionTrading
)

// Position is the tagged union kept per user: an LP stake in one strategy,
// an outstanding borrow against one vault's Lend service, or an open
// leveraged trade. Only the fields relevant to Kind are meaningful; the
// rest are carried as zero values.
type Position struct {
	Kind          PositionKind
	VaultIndex    uint16
	StrategyIndex uint16

	Shares      decimal.Shares
	Amount      decimal.Quantity
	QuoteAmount decimal.Quantity

	Receipt Receipt
}

// NewLiquidityProvidePosition builds an LP position for the given vault and
// strategy.
func NewLiquidityProvidePosition(vaultIndex, strategyIndex uint16, shares decimal.Shares, amount, quoteAmount decimal.Quantity) Position {
	return Position{
		Kind:          PositionLiquidityProvide,
		VaultIndex:    vaultIndex,
		StrategyIndex: strategyIndex,
		Shares:        shares,
		Amount:        amount,
		QuoteAmount:   quoteAmount,
	}
}

// NewBorrowPosition builds a borrow position against the given vault's Lend
// service.
func NewBorrowPosition(vaultIndex uint16, shares decimal.Shares, amount decimal.Quantity) Position {
	return Position{
		Kind:       PositionBorrow,
		VaultIndex: vaultIndex,
		Shares:     shares,
		Amount:     amount,
	}
}

// NewTradingPosition builds a trading position wrapping the receipt opened
// against the given vault's Trade service.
func NewTradingPosition(vaultIndex uint16, receipt Receipt) Position {
	return Position{
		Kind:       PositionTrading,
		VaultIndex: vaultIndex,
		Receipt:    receipt,
	}
}

// IsEmpty reports whether the position is an unused slot.
func (p Position) IsEmpty() bool { return p.Kind == PositionEmpty }

// Equal implements the structural-identity equality the reference
// implementation uses for position lookup: positions compare equal when
// they are the same kind, on the same vault, and (for the variants that can
// coexist multiple times under one vault) the same strategy or side. Amount
// and shares are never compared, so a lookup key only needs to carry the
// identifying fields.
func (p Position) Equal(o Position) bool {
	if p.Kind != o.Kind {
		return false
	}
	switch p.Kind {
	case PositionLiquidityProvide:
		return p.VaultIndex == o.VaultIndex && p.StrategyIndex == o.StrategyIndex
	case PositionBorrow:
		return p.VaultIndex == o.VaultIndex
	case PositionTrading:
		return p.VaultIndex == o.VaultIndex && p.Receipt.Side == o.Receipt.Side
	default:
		return false
	}
}

// LiquidityProvideKey builds a search key matching any LiquidityProvide
// position on the given vault/strategy.
func LiquidityProvideKey(vaultIndex, strategyIndex uint16) Position {
	return Position{Kind: PositionLiquidityProvide, VaultIndex: vaultIndex, StrategyIndex: strategyIndex}
}

// BorrowKey builds a search key matching the Borrow position on the given
// vault, if any.
func BorrowKey(vaultIndex uint16) Position {
	return Position{Kind: PositionBorrow, VaultIndex: vaultIndex}
}

// TradingKey builds a search key matching the Trading position on the given
// vault/side, if any.
func TradingKey(vaultIndex uint16, side Side) Position {
	return Position{Kind: PositionTrading, VaultIndex: vaultIndex, Receipt: Receipt{Side: side}}
}

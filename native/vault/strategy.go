package vault

import "vaultcore/decimal"

// ServiceTag names which service a strategy operation is acting on behalf
// of, selecting which per-service sub-ledger field on Strategy gets
// updated.
type ServiceTag uint8

const (
	ServiceLend ServiceTag = iota
	ServiceSwap
	ServiceTrade
)

// Services groups the three optional engines a Vault may expose. A nil
// field means the vault never enabled that service; strategies that opted
// into it are rejected at add_strategy time, so by the time a strategy
// method runs, a non-nil field here is guaranteed whenever the strategy's
// Has* flag is set.
type Services struct {
	Lend  *Lend
	Swap  *Swap
	Trade *Trade
}

// Strategy is one LP bucket inside a vault: it owns a slice of the vault's
// available/locked base and quote liquidity and, for each service it opts
// into, a per-service sub-ledger mirroring how much of that liquidity is
// currently working for that service.
type Strategy struct {
	HasLend  bool
	HasSwap  bool
	HasTrade bool

	// Lent is the per-service sub-ledger for Lend: base currently counted
	// as this strategy's contribution to the borrow pool.
	Lent decimal.Quantity
	// Sold is the per-service sub-ledger for Swap.
	Sold decimal.Balances
	// Traded is the per-service sub-ledger for Trade.
	Traded decimal.Balances

	Available decimal.Balances
	Locked    decimal.Balances

	TotalShares decimal.Shares

	AccruedFee           decimal.Quantity
	CollateralRatio      decimal.Fraction
	LiquidationThreshold decimal.Fraction
}

// NewStrategy builds a strategy opted into the given services, with its own
// collateral and liquidation thresholds (which may differ from the vault's
// Trade-level defaults to let conservative strategies offer better terms).
func NewStrategy(hasLend, hasSwap, hasTrade bool, collateralRatio, liquidationThreshold decimal.Fraction) Strategy {
	return Strategy{
		HasLend:              hasLend,
		HasSwap:              hasSwap,
		HasTrade:             hasTrade,
		CollateralRatio:      collateralRatio,
		LiquidationThreshold: liquidationThreshold,
	}
}

// Balance returns available+locked per side, the strategy's total claim on
// vault liquidity.
func (s *Strategy) Balance() decimal.Balances {
	return decimal.Balances{
		Base:  s.Available.Base.Add(s.Locked.Base),
		Quote: s.Available.Quote.Add(s.Locked.Quote),
	}
}

// Deposit credits base/quote to available, mints shares, and notifies every
// service this strategy contributes to that new liquidity became
// available.
func (s *Strategy) Deposit(baseQty, quoteQty decimal.Quantity, shares decimal.Shares, svcs *Services) {
	s.Available.Base = s.Available.Base.Add(baseQty)
	s.Available.Quote = s.Available.Quote.Add(quoteQty)
	s.TotalShares = s.TotalShares.Add(shares)

	if s.HasLend && svcs.Lend != nil {
		svcs.Lend.AddAvailableBase(baseQty)
	}
	if s.HasSwap && svcs.Swap != nil {
		svcs.Swap.AddLiquidityBase(baseQty)
		svcs.Swap.AddLiquidityQuote(quoteQty)
	}
	if s.HasTrade && svcs.Trade != nil {
		svcs.Trade.AddAvailableBase(baseQty)
		svcs.Trade.AddAvailableQuote(quoteQty)
	}
}

// Withdraw is the inverse of Deposit.
func (s *Strategy) Withdraw(baseQty, quoteQty decimal.Quantity, shares decimal.Shares, svcs *Services) error {
	if s.Available.Base.Lt(baseQty) {
		return ErrNotEnoughBaseQuantity
	}
	if s.Available.Quote.Lt(quoteQty) {
		return ErrNotEnoughQuoteQuantity
	}
	s.Available.Base = s.Available.Base.Sub(baseQty)
	s.Available.Quote = s.Available.Quote.Sub(quoteQty)
	s.TotalShares = s.TotalShares.Sub(shares)

	if s.HasLend && svcs.Lend != nil {
		if err := svcs.Lend.RemoveAvailableBase(baseQty); err != nil {
			return err
		}
	}
	if s.HasSwap && svcs.Swap != nil {
		if err := svcs.Swap.RemoveLiquidityBase(baseQty); err != nil {
			return err
		}
		if err := svcs.Swap.RemoveLiquidityQuote(quoteQty); err != nil {
			return err
		}
	}
	if s.HasTrade && svcs.Trade != nil {
		if err := svcs.Trade.RemoveAvailableBase(baseQty); err != nil {
			return err
		}
		if err := svcs.Trade.RemoveAvailableQuote(quoteQty); err != nil {
			return err
		}
	}
	return nil
}

// LockBase moves qty from available to locked, increments the sub-ledger
// for which (the service this lock is on behalf of), and notifies every
// enabled service that base became unavailable — every service sharing this
// strategy's pool must know capacity shrank, not just the one that
// requested the lock.
func (s *Strategy) LockBase(qty decimal.Quantity, which ServiceTag, svcs *Services) error {
	if s.Available.Base.Lt(qty) {
		return ErrNotEnoughBaseQuantity
	}
	switch which {
	case ServiceLend:
		if !s.HasLend {
			return ErrStrategyNoLend
		}
		s.Lent = s.Lent.Add(qty)
	case ServiceTrade:
		if !s.HasTrade {
			return ErrStrategyNoTrade
		}
		s.Traded.Base = s.Traded.Base.Add(qty)
	}
	s.Available.Base = s.Available.Base.Sub(qty)
	s.Locked.Base = s.Locked.Base.Add(qty)
	return s.notifyRemoveAvailable(qty, decimal.Quantity{}, svcs)
}

// LockQuote is the quote-side sibling of LockBase.
func (s *Strategy) LockQuote(qty decimal.Quantity, which ServiceTag, svcs *Services) error {
	if s.Available.Quote.Lt(qty) {
		return ErrNotEnoughQuoteQuantity
	}
	switch which {
	case ServiceTrade:
		if !s.HasTrade {
			return ErrStrategyNoTrade
		}
		s.Traded.Quote = s.Traded.Quote.Add(qty)
	}
	s.Available.Quote = s.Available.Quote.Sub(qty)
	s.Locked.Quote = s.Locked.Quote.Add(qty)
	return s.notifyRemoveAvailable(decimal.Quantity{}, qty, svcs)
}

// UnlockBase moves qty from locked back to available, decrementing the
// sub-ledger for which.
func (s *Strategy) UnlockBase(qty decimal.Quantity, which ServiceTag, svcs *Services) error {
	if s.Locked.Base.Lt(qty) {
		return ErrNotEnoughBaseQuantity
	}
	switch which {
	case ServiceLend:
		s.Lent = s.Lent.Sub(qty)
	case ServiceTrade:
		s.Traded.Base = s.Traded.Base.Sub(qty)
	}
	s.Locked.Base = s.Locked.Base.Sub(qty)
	s.Available.Base = s.Available.Base.Add(qty)
	return s.notifyAddAvailable(qty, decimal.Quantity{}, svcs)
}

// UnlockQuote is the quote-side sibling of UnlockBase.
func (s *Strategy) UnlockQuote(qty decimal.Quantity, which ServiceTag, svcs *Services) error {
	if s.Locked.Quote.Lt(qty) {
		return ErrNotEnoughQuoteQuantity
	}
	switch which {
	case ServiceTrade:
		s.Traded.Quote = s.Traded.Quote.Sub(qty)
	}
	s.Locked.Quote = s.Locked.Quote.Sub(qty)
	s.Available.Quote = s.Available.Quote.Add(qty)
	return s.notifyAddAvailable(decimal.Quantity{}, qty, svcs)
}

func (s *Strategy) notifyRemoveAvailable(baseQty, quoteQty decimal.Quantity, svcs *Services) error {
	if s.HasLend && svcs.Lend != nil && !baseQty.IsZero() {
		if err := svcs.Lend.RemoveAvailableBase(baseQty); err != nil {
			return err
		}
	}
	if s.HasSwap && svcs.Swap != nil {
		if !baseQty.IsZero() {
			if err := svcs.Swap.RemoveLiquidityBase(baseQty); err != nil {
				return err
			}
		}
		if !quoteQty.IsZero() {
			if err := svcs.Swap.RemoveLiquidityQuote(quoteQty); err != nil {
				return err
			}
		}
	}
	if s.HasTrade && svcs.Trade != nil {
		if !baseQty.IsZero() {
			if err := svcs.Trade.RemoveAvailableBase(baseQty); err != nil {
				return err
			}
		}
		if !quoteQty.IsZero() {
			if err := svcs.Trade.RemoveAvailableQuote(quoteQty); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Strategy) notifyAddAvailable(baseQty, quoteQty decimal.Quantity, svcs *Services) error {
	if s.HasLend && svcs.Lend != nil && !baseQty.IsZero() {
		svcs.Lend.AddAvailableBase(baseQty)
	}
	if s.HasSwap && svcs.Swap != nil {
		if !baseQty.IsZero() {
			svcs.Swap.AddLiquidityBase(baseQty)
		}
		if !quoteQty.IsZero() {
			svcs.Swap.AddLiquidityQuote(quoteQty)
		}
	}
	if s.HasTrade && svcs.Trade != nil {
		if !baseQty.IsZero() {
			svcs.Trade.AddAvailableBase(baseQty)
		}
		if !quoteQty.IsZero() {
			svcs.Trade.AddAvailableQuote(quoteQty)
		}
	}
	return nil
}

// IncreaseBalanceBase credits base without crossing the locked/available
// boundary — used when a swap settlement grows the strategy's base share of
// the pool.
func (s *Strategy) IncreaseBalanceBase(qty decimal.Quantity, svcs *Services) {
	s.Available.Base = s.Available.Base.Add(qty)
	if s.HasSwap {
		s.Sold.Base = s.Sold.Base.Add(qty)
	}
	if svcs.Swap != nil {
		svcs.Swap.AddLiquidityBase(qty)
	}
}

// IncreaseBalanceQuote is the quote-side sibling of IncreaseBalanceBase.
func (s *Strategy) IncreaseBalanceQuote(qty decimal.Quantity, svcs *Services) {
	s.Available.Quote = s.Available.Quote.Add(qty)
	if s.HasSwap {
		s.Sold.Quote = s.Sold.Quote.Add(qty)
	}
	if svcs.Swap != nil {
		svcs.Swap.AddLiquidityQuote(qty)
	}
}

// DecreaseBalanceBase debits base without crossing the locked/available
// boundary.
func (s *Strategy) DecreaseBalanceBase(qty decimal.Quantity, svcs *Services) error {
	if s.Available.Base.Lt(qty) {
		return ErrNotEnoughBaseQuantity
	}
	s.Available.Base = s.Available.Base.Sub(qty)
	if s.HasSwap {
		s.Sold.Base = s.Sold.Base.Sub(qty)
	}
	if svcs.Swap != nil {
		return svcs.Swap.RemoveLiquidityBase(qty)
	}
	return nil
}

// DecreaseBalanceQuote is the quote-side sibling of DecreaseBalanceBase.
func (s *Strategy) DecreaseBalanceQuote(qty decimal.Quantity, svcs *Services) error {
	if s.Available.Quote.Lt(qty) {
		return ErrNotEnoughQuoteQuantity
	}
	s.Available.Quote = s.Available.Quote.Sub(qty)
	if s.HasSwap {
		s.Sold.Quote = s.Sold.Quote.Sub(qty)
	}
	if svcs.Swap != nil {
		return svcs.Swap.RemoveLiquidityQuote(qty)
	}
	return nil
}

// AccrueFee adds qty to locked (it is revenue the strategy has earned but
// not yet made available for withdrawal) and to the Lend sub-ledger, used
// by the vault's lend fee settlement.
func (s *Strategy) AccrueFee(qty decimal.Quantity, which ServiceTag) {
	s.Locked.Base = s.Locked.Base.Add(qty)
	s.AccruedFee = s.AccruedFee.Add(qty)
	if which == ServiceLend {
		s.Lent = s.Lent.Add(qty)
	}
}

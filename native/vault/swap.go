package vault

import (
	"vaultcore/decimal"
	"vaultcore/feecurve"
	"vaultcore/oracle"
)

// Swap is the CPMM-like exchange engine: it holds its own view of pool
// liquidity (mirrored from the strategies that fund it) and prices trades
// off the two oracles rather than off an internal invariant curve, with the
// fee charged on the output side rising as that side's share of pool value
// shrinks.
type Swap struct {
	Available decimal.Balances
	Balances  decimal.Balances

	SellingFee feecurve.FeeCurve
	BuyingFee  feecurve.FeeCurve
	KeptFee    decimal.Fraction

	TotalEarnedFee decimal.Balances
	TotalPaidFee   decimal.Balances
	TotalKeptFee   decimal.Balances
}

// NewSwap constructs an empty Swap engine seeded with the fee curves
// enable_swapping accepts.
func NewSwap(sellingFee, buyingFee feecurve.FeeCurve, keptFee decimal.Fraction) *Swap {
	return &Swap{SellingFee: sellingFee, BuyingFee: buyingFee, KeptFee: keptFee}
}

// AddLiquidityBase credits deposited base liquidity to both the available
// and total balance counters.
func (s *Swap) AddLiquidityBase(qty decimal.Quantity) {
	s.Available.Base = s.Available.Base.Add(qty)
	s.Balances.Base = s.Balances.Base.Add(qty)
}

// AddLiquidityQuote is the quote-side sibling of AddLiquidityBase.
func (s *Swap) AddLiquidityQuote(qty decimal.Quantity) {
	s.Available.Quote = s.Available.Quote.Add(qty)
	s.Balances.Quote = s.Balances.Quote.Add(qty)
}

// RemoveLiquidityBase debits withdrawn base liquidity.
func (s *Swap) RemoveLiquidityBase(qty decimal.Quantity) error {
	if s.Available.Base.Lt(qty) {
		return ErrNotEnoughBaseQuantity
	}
	s.Available.Base = s.Available.Base.Sub(qty)
	s.Balances.Base = s.Balances.Base.Sub(qty)
	return nil
}

// RemoveLiquidityQuote is the quote-side sibling of RemoveLiquidityBase.
func (s *Swap) RemoveLiquidityQuote(qty decimal.Quantity) error {
	if s.Available.Quote.Lt(qty) {
		return ErrNotEnoughQuoteQuantity
	}
	s.Available.Quote = s.Available.Quote.Sub(qty)
	s.Balances.Quote = s.Balances.Quote.Sub(qty)
	return nil
}

// SwapOutcome is the result of a completed sell/buy: NetOut is what the
// caller receives, PoolOut is how much leaves the pool's tracked
// available/balances (net output plus the protocol's kept cut — the
// remainder of the fee stays in the pool as LP revenue).
type SwapOutcome struct {
	Gross   decimal.Quantity
	Fee     decimal.Quantity
	Kept    decimal.Quantity
	NetOut  decimal.Quantity
	PoolOut decimal.Quantity
}

// Sell exchanges baseQty of base for quote, pricing the output at the
// quote oracle's buy-side rate and charging a fee that rises with the
// pool's post-trade base-side share of value.
func (s *Swap) Sell(baseQty decimal.Quantity, baseOracle, quoteOracle *oracle.Oracle) (SwapOutcome, error) {
	if s.Available.Quote.IsZero() {
		return SwapOutcome{}, ErrNotEnoughQuoteQuantity
	}
	value := baseOracle.CalculateValue(baseQty)
	quoteOutGross := quoteOracle.CalculateQuantity(value)
	if quoteOutGross.Gt(s.Available.Quote) {
		return SwapOutcome{}, ErrNotEnoughQuoteQuantity
	}

	pBefore := decimal.ValueProportion(
		baseOracle.CalculateValue(s.Balances.Base),
		quoteOracle.CalculateValue(s.Balances.Quote),
	)
	pAfter := decimal.ValueProportion(
		baseOracle.CalculateValue(s.Balances.Base.Add(baseQty)),
		quoteOracle.CalculateValue(s.Balances.Quote.Sub(quoteOutGross)),
	)

	feeFraction, err := s.SellingFee.GetMean(pBefore, pAfter)
	if err != nil {
		return SwapOutcome{}, err
	}

	fee := quoteOutGross.MulFractionUp(feeFraction)
	kept := fee.MulFractionDown(s.KeptFee)
	netOut := quoteOutGross.Sub(fee)
	poolOut := netOut.Add(kept)

	s.Balances.Base = s.Balances.Base.Add(baseQty)
	s.Available.Base = s.Available.Base.Add(baseQty)
	s.Balances.Quote = s.Balances.Quote.Sub(poolOut)
	s.Available.Quote = s.Available.Quote.Sub(poolOut)

	s.TotalEarnedFee.Quote = s.TotalEarnedFee.Quote.Add(fee.Sub(kept))
	s.TotalPaidFee.Quote = s.TotalPaidFee.Quote.Add(fee)
	// Preserved from the reference implementation: total_kept_fee.base is
	// assigned rather than accumulated, and always targets the Base field
	// even though this fee was collected on the quote side.
	s.TotalKeptFee.Base = kept

	return SwapOutcome{Gross: quoteOutGross, Fee: fee, Kept: kept, NetOut: netOut, PoolOut: poolOut}, nil
}

// Buy exchanges quoteQty of quote for base, the mirror image of Sell.
func (s *Swap) Buy(quoteQty decimal.Quantity, baseOracle, quoteOracle *oracle.Oracle) (SwapOutcome, error) {
	if s.Available.Base.IsZero() {
		return SwapOutcome{}, ErrNotEnoughBaseQuantity
	}
	value := quoteOracle.CalculateValue(quoteQty)
	baseOutGross := baseOracle.CalculateQuantity(value)
	if baseOutGross.Gt(s.Available.Base) {
		return SwapOutcome{}, ErrNotEnoughBaseQuantity
	}

	pBefore := oneMinus(decimal.ValueProportion(
		baseOracle.CalculateValue(s.Balances.Base),
		quoteOracle.CalculateValue(s.Balances.Quote),
	))
	pAfter := oneMinus(decimal.ValueProportion(
		baseOracle.CalculateValue(s.Balances.Base.Sub(baseOutGross)),
		quoteOracle.CalculateValue(s.Balances.Quote.Add(quoteQty)),
	))

	feeFraction, err := s.BuyingFee.GetMean(pBefore, pAfter)
	if err != nil {
		return SwapOutcome{}, err
	}

	fee := baseOutGross.MulFractionUp(feeFraction)
	kept := fee.MulFractionDown(s.KeptFee)
	netOut := baseOutGross.Sub(fee)
	poolOut := netOut.Add(kept)

	s.Balances.Quote = s.Balances.Quote.Add(quoteQty)
	s.Available.Quote = s.Available.Quote.Add(quoteQty)
	s.Balances.Base = s.Balances.Base.Sub(poolOut)
	s.Available.Base = s.Available.Base.Sub(poolOut)

	s.TotalEarnedFee.Base = s.TotalEarnedFee.Base.Add(fee.Sub(kept))
	s.TotalPaidFee.Base = s.TotalPaidFee.Base.Add(fee)
	// Same preserved quirk as Sell: always the Base field, always assigned.
	s.TotalKeptFee.Base = kept

	return SwapOutcome{Gross: baseOutGross, Fee: fee, Kept: kept, NetOut: netOut, PoolOut: poolOut}, nil
}

func oneMinus(f decimal.Fraction) decimal.Fraction {
	one := decimal.FractionFromInteger(1)
	if f.Gte(one) {
		return decimal.Fraction{}
	}
	return one.Sub(f)
}

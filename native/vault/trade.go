package vault

import (
	"math/big"

	"vaultcore/decimal"
	"vaultcore/feecurve"
	"vaultcore/oracle"
)

// ValuePair holds a per-side Value, used to track the open notional value
// backing each side's locked positions.
type ValuePair struct {
	Base  decimal.Value
	Quote decimal.Value
}

// FundingPair holds a per-side cumulative FundingRate.
type FundingPair struct {
	Base  decimal.FundingRate
	Quote decimal.FundingRate
}

// FeeCurvePair holds a per-side borrow fee curve.
type FeeCurvePair struct {
	Base  feecurve.FeeCurve
	Quote feecurve.FeeCurve
}

// Trade is the leveraged long/short engine: longs lock base and profit in
// base against the sell price at close, shorts lock a quote quantity of
// equal value to the base size at open and profit (capped at what's
// locked) in quote.
type Trade struct {
	Available decimal.Balances
	Locked    decimal.Balances

	OpenValue ValuePair
	BorrowFee FeeCurvePair
	Funding   FundingPair
	LastFee   decimal.Time

	FundingMultiplier decimal.Fraction
	OpenFee           decimal.Fraction

	MaxOpenLeverage decimal.Fraction
	MaxLeverage     decimal.Fraction

	AccruedFee           decimal.Quantity
	CollateralRatio      decimal.Fraction
	LiquidationThreshold decimal.Fraction
}

// NewTrade constructs an empty Trade engine seeded with the risk parameters
// enable_trading accepts.
func NewTrade(openFee, maxLeverage, collateralRatio, liquidationThreshold decimal.Fraction, startTime decimal.Time) *Trade {
	return &Trade{
		OpenFee:              openFee,
		MaxLeverage:          maxLeverage,
		MaxOpenLeverage:      maxLeverage,
		CollateralRatio:      collateralRatio,
		LiquidationThreshold: liquidationThreshold,
		LastFee:              startTime,
		FundingMultiplier:    decimal.FractionFromScale(1, 2), // 0.01 default multiplier
	}
}

// AddAvailableBase credits base liquidity made available to back longs.
func (t *Trade) AddAvailableBase(qty decimal.Quantity) { t.Available.Base = t.Available.Base.Add(qty) }

// AddAvailableQuote credits quote liquidity made available to back shorts.
func (t *Trade) AddAvailableQuote(qty decimal.Quantity) {
	t.Available.Quote = t.Available.Quote.Add(qty)
}

// RemoveAvailableBase debits base liquidity withdrawn from backing longs.
func (t *Trade) RemoveAvailableBase(qty decimal.Quantity) error {
	if t.Available.Base.Lt(qty) {
		return ErrNotEnoughBaseQuantity
	}
	t.Available.Base = t.Available.Base.Sub(qty)
	return nil
}

// RemoveAvailableQuote is the quote-side sibling of RemoveAvailableBase.
func (t *Trade) RemoveAvailableQuote(qty decimal.Quantity) error {
	if t.Available.Quote.Lt(qty) {
		return ErrNotEnoughQuoteQuantity
	}
	t.Available.Quote = t.Available.Quote.Sub(qty)
	return nil
}

// OpenLong opens a long of qty base against collateral (a Value), locking
// qty of base and snapshotting a Receipt the caller stores on the user's
// Trading position.
func (t *Trade) OpenLong(qty decimal.Quantity, collateral decimal.Value, o *oracle.Oracle) (Receipt, error) {
	posValue := o.CalculateNeededValue(qty)
	leverage := posValue.DivUp(collateral)
	if leverage.Gt(t.MaxOpenLeverage) {
		return Receipt{}, ErrCollateralizationTooLow
	}
	if qty.Gt(t.Available.Base) {
		return Receipt{}, ErrNotEnoughBaseQuantity
	}

	t.Locked.Base = t.Locked.Base.Add(qty)
	t.OpenValue.Base = t.OpenValue.Base.Add(posValue)

	return Receipt{
		Side:           Long,
		Size:           qty,
		Locked:         qty,
		InitialFunding: t.Funding.Base,
		OpenPrice:      o.PriceFor(oracle.Buy),
		OpenValue:      posValue,
	}, nil
}

// OpenShort opens a short of qty base (valued in quote), locking the quote
// quantity of equal value, with qty valued at the sell price.
func (t *Trade) OpenShort(qty decimal.Quantity, collateral decimal.Value, o, quoteOracle *oracle.Oracle) (Receipt, error) {
	posValue := o.CalculateValue(qty)
	quoteQty := quoteOracle.CalculateNeededQuantity(posValue)
	leverage := posValue.DivUp(collateral)
	if leverage.Gt(t.MaxOpenLeverage) {
		return Receipt{}, ErrCollateralizationTooLow
	}
	if quoteQty.Gt(t.Available.Quote) {
		return Receipt{}, ErrNotEnoughQuoteQuantity
	}

	t.Locked.Quote = t.Locked.Quote.Add(quoteQty)
	t.OpenValue.Quote = t.OpenValue.Quote.Add(posValue)

	return Receipt{
		Side:           Short,
		Size:           qty,
		Locked:         quoteQty,
		InitialFunding: t.Funding.Quote,
		OpenPrice:      o.PriceFor(oracle.Sell),
		OpenValue:      posValue,
	}, nil
}

// CloseOutcome is the net settlement of closing a Receipt: Profit indicates
// the direction (true = pool pays the user, false = user pays the pool) and
// Quantity the net amount in the position's settlement unit (base for
// longs, quote for shorts). UnlockQuantity is always the receipt's locked
// principal, returned to the strategies that backed it regardless of P/L
// direction.
type CloseOutcome struct {
	Profit         bool
	Quantity       decimal.Quantity
	UnlockQuantity decimal.Quantity
}

// CloseLong settles a long Receipt against the current oracle price.
func (t *Trade) CloseLong(r Receipt, o *oracle.Oracle) CloseOutcome {
	closePrice := o.PriceFor(oracle.Sell)

	net := new(big.Int)
	if closePrice.Cmp(r.OpenPrice) > 0 {
		diff := o.CalculateValueDifferenceDown(r.Size, closePrice, r.OpenPrice)
		net.SetInt64(int64(o.CalculateQuantity(diff).Get()))
	} else {
		diff := o.CalculateValueDifferenceUp(r.Size, r.OpenPrice, closePrice)
		net.SetInt64(-int64(o.CalculateNeededQuantity(diff).Get()))
	}

	fundingDelta := t.Funding.Base.Sub(r.InitialFunding)
	net.Sub(net, fundingQuantity(fundingDelta, r.Size))

	openFeeQty := r.Size.MulFractionUp(t.OpenFee)
	net.Sub(net, big.NewInt(int64(openFeeQty.Get())))

	t.Locked.Base = t.Locked.Base.Sub(r.Locked)
	t.OpenValue.Base = t.OpenValue.Base.Sub(r.OpenValue)

	return netToOutcome(net, r.Locked)
}

// CloseShort settles a short Receipt against the current oracle prices.
// Profit is capped at the receipt's locked quote quantity, matching the
// reference implementation's min(locked, profit) clamp. The open fee is
// charged in quote, on the locked quote quantity.
func (t *Trade) CloseShort(r Receipt, o, quoteOracle *oracle.Oracle) CloseOutcome {
	closePrice := o.PriceFor(oracle.Buy)

	net := new(big.Int)
	if r.OpenPrice.Cmp(closePrice) > 0 {
		diff := o.CalculateValueDifferenceDown(r.Size, r.OpenPrice, closePrice)
		net.SetInt64(int64(quoteOracle.CalculateQuantity(diff).Get()))
	} else {
		diff := o.CalculateValueDifferenceUp(r.Size, closePrice, r.OpenPrice)
		net.SetInt64(-int64(quoteOracle.CalculateNeededQuantity(diff).Get()))
	}

	fundingDelta := t.Funding.Quote.Sub(r.InitialFunding)
	net.Sub(net, fundingQuantity(fundingDelta, r.Size))

	openFeeQty := r.Locked.MulFractionUp(t.OpenFee)
	net.Sub(net, big.NewInt(int64(openFeeQty.Get())))

	lockedLimit := big.NewInt(int64(r.Locked.Get()))
	if net.Sign() > 0 && net.Cmp(lockedLimit) > 0 {
		net = lockedLimit
	}

	t.Locked.Quote = t.Locked.Quote.Sub(r.Locked)
	t.OpenValue.Quote = t.OpenValue.Quote.Sub(r.OpenValue)

	return netToOutcome(net, r.Locked)
}

func netToOutcome(net *big.Int, unlock decimal.Quantity) CloseOutcome {
	profit := net.Sign() >= 0
	abs := new(big.Int).Abs(net)
	return CloseOutcome{Profit: profit, Quantity: decimal.NewQuantity(abs.Uint64()), UnlockQuantity: unlock}
}

// fundingQuantity converts a signed, scale-24 cumulative funding delta over
// a position of the given size into a signed quantity delta: positive means
// a loss to the position (subtracted from net), negative a gain.
func fundingQuantity(delta decimal.FundingRate, size decimal.Quantity) *big.Int {
	raw := new(big.Int).Mul(delta.BigInt(), big.NewInt(int64(size.Get())))
	raw.Quo(raw, decimal.Pow10(24))
	return raw
}

// Refresh accrues per-side borrow fees over the elapsed span and updates
// cumulative funding based on which side of the book is heavier. It is
// never invoked automatically by OpenLong/OpenShort/CloseLong/CloseShort —
// the reference implementation leaves this call to the caller, a quirk
// preserved here pending a host integration that specifies otherwise.
func (t *Trade) Refresh(now decimal.Time) {
	if now <= t.LastFee {
		return
	}
	dt := now - t.LastFee
	t.LastFee = now

	if !t.Locked.Base.IsZero() && !t.Available.Base.Add(t.Locked.Base).IsZero() {
		util := decimal.QuantityRatio(t.Locked.Base, t.Available.Base.Add(t.Locked.Base))
		growth := t.BorrowFee.Base.CompoundedFee(util, dt)
		fee := growth.MulQuantityDown(t.Locked.Base)
		t.AccruedFee = t.AccruedFee.Add(fee)
	}
	if !t.Locked.Quote.IsZero() && !t.Available.Quote.Add(t.Locked.Quote).IsZero() {
		util := decimal.QuantityRatio(t.Locked.Quote, t.Available.Quote.Add(t.Locked.Quote))
		growth := t.BorrowFee.Quote.CompoundedFee(util, dt)
		fee := growth.MulQuantityDown(t.Locked.Quote)
		t.AccruedFee = t.AccruedFee.Add(fee)
	}

	baseValue := t.OpenValue.Base
	quoteValue := t.OpenValue.Quote
	total := baseValue.Add(quoteValue)
	if total.IsZero() {
		return
	}
	baseShare := decimal.ValueProportion(baseValue, quoteValue)
	half := decimal.FractionFromScale(5, 1)
	var imbalance decimal.Fraction
	var baseDominant bool
	if baseShare.Gt(half) {
		imbalance = baseShare.Sub(half)
		baseDominant = true
	} else {
		imbalance = half.Sub(baseShare)
		baseDominant = false
	}
	fundingFraction := imbalance.MulUp(t.FundingMultiplier)
	delta := decimal.FundingRateFromFraction(fundingFraction)
	if baseDominant {
		t.Funding.Base = t.Funding.Base.Add(delta)
		t.Funding.Quote = t.Funding.Quote.Sub(delta)
	} else {
		t.Funding.Quote = t.Funding.Quote.Add(delta)
		t.Funding.Base = t.Funding.Base.Sub(delta)
	}
}

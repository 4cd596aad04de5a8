// Package oracle implements the price feed attached to a vault: a single
// last-known price and confidence interval, refreshed by an external
// reporter and consumed by the lending, swap and trade engines through
// buy/sell/spot price variants that widen by the confidence spread whenever
// the spread is forced on or the confidence interval, relative to price,
// exceeds the spread limit. The age of the price does not affect the spread.
package oracle

import (
	"errors"
	"math/big"

	"vaultcore/decimal"
)

// DefaultMaxUpdateInterval is the MaxUpdateInterval every new Oracle starts
// with. Oracle only stores the interval; nothing in this module checks a
// price's age against it.
const DefaultMaxUpdateInterval decimal.Time = 100

var ErrConfidenceTooHigh = errors.New("oracle: confidence interval exceeds the configured spread limit")

// PriceType selects which side of the confidence spread Price returns.
type PriceType uint8

const (
	// Spot ignores the spread entirely and always returns the last
	// reported price, used for display and for collateral valuation that
	// should not be asymmetric.
	Spot PriceType = iota
	// Sell is the price a seller receives: spot minus confidence when the
	// spread applies.
	Sell
	// Buy is the price a buyer pays: spot plus confidence when the spread
	// applies.
	Buy
)

// Oracle holds the latest reported price for one asset and the parameters
// that govern when buy/sell quotes widen away from the spot price.
type Oracle struct {
	Price             decimal.Price
	Confidence        decimal.Price
	LastUpdate        decimal.Time
	MaxUpdateInterval decimal.Time
	UseSpread         bool
	SpreadLimit       decimal.Price
	Decimals          int
}

// New constructs an Oracle seeded with an initial price and confidence,
// spread disabled until ShouldUseSpread's threshold is crossed or a caller
// enables it explicitly.
func New(decimals int, price, confidence, spreadLimit decimal.Price, now decimal.Time) Oracle {
	return Oracle{
		Price:             price,
		Confidence:        confidence,
		LastUpdate:        now,
		MaxUpdateInterval: DefaultMaxUpdateInterval,
		UseSpread:         false,
		SpreadLimit:       spreadLimit,
		Decimals:          decimals,
	}
}

// Update replaces the reported price and confidence, rejecting updates
// whose confidence interval (rounded up, relative to price) exceeds the
// configured spread limit.
func (o *Oracle) Update(price, confidence decimal.Price, now decimal.Time) error {
	ratio := divUpRaw(confidence.Get(), price.Get())
	if ratio > o.SpreadLimit.Get() {
		return ErrConfidenceTooHigh
	}
	o.Price = price
	o.Confidence = confidence
	o.LastUpdate = now
	return nil
}

// ShouldUseSpread reports whether Price variants should widen away from the
// spot price: either the spread was forced on, or the confidence interval
// (rounded down, relative to price) exceeds the spread limit.
func (o *Oracle) ShouldUseSpread() bool {
	if o.UseSpread {
		return true
	}
	ratio := divDownRaw(o.Confidence.Get(), o.Price.Get())
	return ratio > o.SpreadLimit.Get()
}

// PriceFor returns the spot, buy or sell price, widening by the confidence
// interval for Buy/Sell whenever ShouldUseSpread is true.
func (o *Oracle) PriceFor(which PriceType) decimal.Price {
	if !o.ShouldUseSpread() {
		return o.Price
	}
	switch which {
	case Sell:
		return o.Price.Sub(o.Confidence)
	case Buy:
		return o.Price.Add(o.Confidence)
	default:
		return o.Price
	}
}

// CalculateValue converts a token quantity into its Value at the Sell
// price, rounding down (a credit paid out to a seller).
func (o *Oracle) CalculateValue(quantity decimal.Quantity) decimal.Value {
	v := decimal.ValueFromScale(quantity.Get(), o.Decimals)
	return v.MulPriceDown(o.PriceFor(Sell))
}

// CalculateNeededValue converts a token quantity into the Value a buyer
// must pay at the Buy price, rounding up (a debit charged to a buyer).
func (o *Oracle) CalculateNeededValue(quantity decimal.Quantity) decimal.Value {
	v := decimal.ValueFromScale(quantity.Get(), o.Decimals)
	return v.MulPriceUp(o.PriceFor(Buy))
}

// CalculateQuantity converts a Value into the token quantity it buys at the
// Buy price, rounding down (a credit paid out to a buyer).
func (o *Oracle) CalculateQuantity(value decimal.Value) decimal.Quantity {
	return o.divValueByPriceDown(value, o.PriceFor(Buy))
}

// CalculateNeededQuantity converts a Value into the token quantity a seller
// must hand over at the Sell price, rounding up (a debit charged to a
// seller).
func (o *Oracle) CalculateNeededQuantity(value decimal.Value) decimal.Quantity {
	return o.divValueByPriceUp(value, o.PriceFor(Sell))
}

// CalculateValueDifferenceUp prices quantity at the spread between two
// prices (greater-smaller), rounding up.
func (o *Oracle) CalculateValueDifferenceUp(quantity decimal.Quantity, greater, smaller decimal.Price) decimal.Value {
	v := decimal.ValueFromScale(quantity.Get(), o.Decimals)
	return v.MulPriceUp(greater.Sub(smaller))
}

// CalculateValueDifferenceDown is the rounded-down sibling of
// CalculateValueDifferenceUp.
func (o *Oracle) CalculateValueDifferenceDown(quantity decimal.Quantity, greater, smaller decimal.Price) decimal.Value {
	v := decimal.ValueFromScale(quantity.Get(), o.Decimals)
	return v.MulPriceDown(greater.Sub(smaller))
}

// divValueByPriceDown computes floor(value * 10^decimals / price), the
// quantity a Value buys at price, undoing the decimals scaling applied by
// ValueFromScale in a single combined division.
func (o *Oracle) divValueByPriceDown(value decimal.Value, price decimal.Price) decimal.Quantity {
	num := new(big.Int).Mul(value.BigInt(), pow10(o.Decimals))
	num.Quo(num, big.NewInt(int64(price.Get())))
	return decimal.NewQuantity(num.Uint64())
}

// divValueByPriceUp is the rounded-up sibling of divValueByPriceDown.
func (o *Oracle) divValueByPriceUp(value decimal.Value, price decimal.Price) decimal.Quantity {
	num := new(big.Int).Mul(value.BigInt(), pow10(o.Decimals))
	denom := big.NewInt(int64(price.Get()))
	q, r := new(big.Int).QuoRem(num, denom, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return decimal.NewQuantity(q.Uint64())
}

func pow10(n int) *big.Int { return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil) }

func divDownRaw(num, den uint64) uint64 {
	if den == 0 {
		return 0
	}
	n := new(big.Int).Mul(big.NewInt(int64(num)), big.NewInt(1_000_000_000))
	n.Quo(n, big.NewInt(int64(den)))
	return n.Uint64()
}

func divUpRaw(num, den uint64) uint64 {
	if den == 0 {
		return 0
	}
	n := new(big.Int).Mul(big.NewInt(int64(num)), big.NewInt(1_000_000_000))
	d := big.NewInt(int64(den))
	q, r := new(big.Int).QuoRem(n, d, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q.Uint64()
}

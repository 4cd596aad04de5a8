// Package decimal implements the fixed-point scalar types shared by the
// lending, swap and trade engines. Every type carries an explicit scale so
// that conversions between quantities of tokens, fractional rates and
// prices never silently lose precision: Quantity (scale 0), Fraction and
// Price (scale 6 / 9 respectively), Utilization, Value, Shares, BigFraction,
// FundingRate and Precise (scale 6 / 9 / 0 / 12 / 24 / 24), matching the
// reference implementation's scalar hierarchy.
//
// Rounding is never implicit: every operation that can lose precision names
// its direction, Down (floor) or Up (ceiling), in its name or doc comment.
// Many come in both variants, and callers pick the one that matches the
// accounting direction (pool credits round down, pool debits round up);
// some exist in only one direction (e.g. Fraction.MulUp, QuantityRatio).
package decimal

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Time mirrors the reference implementation's Unix-second timestamp type.
type Time = uint32

// Quantity represents a raw token amount in its smallest unit (scale 0).
type Quantity struct {
	val uint64
}

// Fraction represents a ratio with 6 decimal places of precision, used for
// fee curves, collateral ratios and utilization thresholds expressed as
// percentages.
type Fraction struct {
	val uint64
}

// Price represents an oracle price with 9 decimal places of precision.
type Price struct {
	val uint64
}

// Balances pairs a base-token and quote-token quantity, the unit every
// service and strategy accounts liquidity in.
type Balances struct {
	Base  Quantity
	Quote Quantity
}

const (
	scaleQuantity   = 0
	scaleFraction   = 6
	scalePrice      = 9
	scaleUtil       = 6
	scaleValue      = 9
	scaleShares     = 0
	scaleBigFrac    = 12
	scaleFunding    = 24
	scalePrecise    = 24
)

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

var (
	denomUtil    = pow10(scaleUtil)
	denomValue   = pow10(scaleValue)
	denomBigFrac = pow10(scaleBigFrac)
	denomFunding = pow10(scaleFunding)
	denomPrecise = pow10(scalePrecise)
)

// --- Quantity ---

func NewQuantity(v uint64) Quantity { return Quantity{val: v} }

func (q Quantity) Get() uint64  { return q.val }
func (q Quantity) IsZero() bool { return q.val == 0 }
func (q Quantity) Add(o Quantity) Quantity { return Quantity{val: q.val + o.val} }
func (q Quantity) Sub(o Quantity) Quantity {
	if o.val > q.val {
		panic("decimal: Quantity subtraction underflow")
	}
	return Quantity{val: q.val - o.val}
}
func (q Quantity) Cmp(o Quantity) int {
	switch {
	case q.val < o.val:
		return -1
	case q.val > o.val:
		return 1
	default:
		return 0
	}
}
func (q Quantity) Lt(o Quantity) bool  { return q.val < o.val }
func (q Quantity) Lte(o Quantity) bool { return q.val <= o.val }
func (q Quantity) Gt(o Quantity) bool  { return q.val > o.val }
func (q Quantity) Gte(o Quantity) bool { return q.val >= o.val }
func (q Quantity) Min(o Quantity) Quantity {
	if q.val < o.val {
		return q
	}
	return o
}
func (q Quantity) String() string { return fmt.Sprintf("%d", q.val) }

func (q Quantity) bigInt() *big.Int { return new(big.Int).SetUint64(q.val) }

// BigMulDiv computes floor(q*mul/div) using a 256-bit uint256 intermediate
// rather than an allocating math/big.Int, the primitive every
// proportional-distribution computation in the vault orchestrator builds on.
func (q Quantity) BigMulDiv(mul, div Quantity) Quantity {
	if div.val == 0 {
		return Quantity{}
	}
	x := uint256.NewInt(q.val)
	x.Mul(x, uint256.NewInt(mul.val))
	x.Div(x, uint256.NewInt(div.val))
	return Quantity{val: x.Uint64()}
}

// BigMulDivUp computes ceil(q*mul/div) using the same 256-bit intermediate.
func (q Quantity) BigMulDivUp(mul, div Quantity) Quantity {
	if div.val == 0 {
		return Quantity{}
	}
	x := uint256.NewInt(q.val)
	x.Mul(x, uint256.NewInt(mul.val))
	d := uint256.NewInt(div.val)
	mod := new(uint256.Int)
	x.DivMod(x, d, mod)
	if !mod.IsZero() {
		x.AddUint64(x, 1)
	}
	return Quantity{val: x.Uint64()}
}

// --- Fraction ---

func NewFraction(v uint64) Fraction            { return Fraction{val: v} }
func FractionFromInteger(v uint64) Fraction    { return Fraction{val: v * pow10u(scaleFraction)} }
func FractionFromScale(v uint64, scale int) Fraction {
	return Fraction{val: rescale(v, scale, scaleFraction)}
}

func pow10u(n int) uint64 {
	r := uint64(1)
	for i := 0; i < n; i++ {
		r *= 10
	}
	return r
}

func rescale(v uint64, from, to int) uint64 {
	if to >= from {
		return v * pow10u(to-from)
	}
	return v / pow10u(from-to)
}

func (f Fraction) Get() uint64  { return f.val }
func (f Fraction) IsZero() bool { return f.val == 0 }
func (f Fraction) Add(o Fraction) Fraction { return Fraction{val: f.val + o.val} }
func (f Fraction) Sub(o Fraction) Fraction {
	if o.val > f.val {
		panic("decimal: Fraction subtraction underflow")
	}
	return Fraction{val: f.val - o.val}
}
func (f Fraction) Cmp(o Fraction) int {
	switch {
	case f.val < o.val:
		return -1
	case f.val > o.val:
		return 1
	default:
		return 0
	}
}
func (f Fraction) Lt(o Fraction) bool  { return f.val < o.val }
func (f Fraction) Lte(o Fraction) bool { return f.val <= o.val }
func (f Fraction) Gt(o Fraction) bool  { return f.val > o.val }
func (f Fraction) Gte(o Fraction) bool { return f.val >= o.val }

// MulUp multiplies two scale-6 fractions, rounding the result up.
func (f Fraction) MulUp(o Fraction) Fraction {
	num := new(big.Int).Mul(big.NewInt(int64(f.val)), big.NewInt(int64(o.val)))
	denom := big.NewInt(int64(pow10u(scaleFraction)))
	return Fraction{val: quoCeilUint64(num, denom)}
}

// DivUp divides two scale-6 fractions, rounding the result up.
func (f Fraction) DivUp(o Fraction) Fraction {
	num := new(big.Int).Mul(big.NewInt(int64(f.val)), big.NewInt(int64(pow10u(scaleFraction))))
	denom := big.NewInt(int64(o.val))
	return Fraction{val: quoCeilUint64(num, denom)}
}

func quoCeilUint64(num, denom *big.Int) uint64 {
	if denom.Sign() == 0 {
		return 0
	}
	q, r := new(big.Int).QuoRem(num, denom, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q.Uint64()
}

// --- Price ---

func NewPrice(v uint64) Price { return Price{val: v} }
func PriceFromInteger(v uint64) Price { return Price{val: v * pow10u(scalePrice)} }
func PriceFromScale(v uint64, scale int) Price {
	return Price{val: rescale(v, scale, scalePrice)}
}
func (p Price) Get() uint64  { return p.val }
func (p Price) IsZero() bool { return p.val == 0 }
func (p Price) Cmp(o Price) int {
	switch {
	case p.val < o.val:
		return -1
	case p.val > o.val:
		return 1
	default:
		return 0
	}
}
func (p Price) Add(o Price) Price { return Price{val: p.val + o.val} }
func (p Price) Sub(o Price) Price {
	if o.val > p.val {
		panic("decimal: Price subtraction underflow")
	}
	return Price{val: p.val - o.val}
}

// --- Utilization (u128, scale 6) ---

type Utilization struct{ val *big.Int }

func NewUtilization(v *big.Int) Utilization { return Utilization{val: new(big.Int).Set(v)} }
func UtilizationFromInteger(v uint64) Utilization {
	return Utilization{val: new(big.Int).Mul(big.NewInt(int64(v)), denomUtil)}
}
func (u Utilization) BigInt() *big.Int { return new(big.Int).Set(u.val) }
func (u Utilization) Cmp(o Utilization) int { return u.val.Cmp(o.val) }

// --- Value (u128, scale 9) ---

type Value struct{ val *big.Int }

func NewValue(v *big.Int) Value { return Value{val: new(big.Int).Set(v)} }
func ValueFromInteger(v uint64) Value {
	return Value{val: new(big.Int).Mul(big.NewInt(int64(v)), denomValue)}
}
func ZeroValue() Value { return Value{val: big.NewInt(0)} }
func (v Value) BigInt() *big.Int { return new(big.Int).Set(v.val) }
func (v Value) IsZero() bool     { return v.val.Sign() == 0 }
func (v Value) Add(o Value) Value { return Value{val: new(big.Int).Add(v.val, o.val)} }
func (v Value) Sub(o Value) Value {
	r := new(big.Int).Sub(v.val, o.val)
	if r.Sign() < 0 {
		panic("decimal: Value subtraction underflow")
	}
	return Value{val: r}
}
func (v Value) Cmp(o Value) int { return v.val.Cmp(o.val) }
func (v Value) Min(o Value) Value {
	if v.val.Cmp(o.val) <= 0 {
		return v
	}
	return o
}

// ValueFromScale lifts a raw token quantity expressed with decimals
// fractional digits into scale-9 Value space. Token decimals never exceed
// Value's own scale in this system, so the conversion is always exact.
func ValueFromScale(raw uint64, decimals int) Value {
	return Value{val: new(big.Int).Mul(big.NewInt(int64(raw)), pow10(scaleValue-decimals))}
}

// MulPriceDown multiplies a Value by a Price, rounding the scale-9 product
// down, matching the reference's same-scale decimal Mul operator.
func (v Value) MulPriceDown(p Price) Value {
	num := new(big.Int).Mul(v.val, big.NewInt(int64(p.val)))
	num.Quo(num, denomValue)
	return Value{val: num}
}

// MulPriceUp is the rounded-up sibling of MulPriceDown.
func (v Value) MulPriceUp(p Price) Value {
	num := new(big.Int).Mul(v.val, big.NewInt(int64(p.val)))
	return Value{val: quoCeil(num, denomValue)}
}

// QuantityFromValueDown converts a scale-9 Value back to a plain Quantity,
// rounding down.
func QuantityFromValueDown(v Value) Quantity {
	q := new(big.Int).Quo(v.val, denomValue)
	return Quantity{val: q.Uint64()}
}

// QuantityFromValueUp is the rounded-up sibling of QuantityFromValueDown.
func QuantityFromValueUp(v Value) Quantity {
	return Quantity{val: quoCeil(v.val, denomValue).Uint64()}
}

// Pow10 exposes the package's power-of-ten helper for callers outside the
// package (e.g. the vault engines) that need a scale denominator without
// duplicating the computation.
func Pow10(n int) *big.Int { return pow10(n) }

// MulFractionDown scales a Quantity by a scale-6 Fraction, rounding down, the
// form used whenever a fee fraction is deducted from an amount credited to a
// caller.
func (q Quantity) MulFractionDown(f Fraction) Quantity {
	num := new(big.Int).Mul(q.bigInt(), big.NewInt(int64(f.val)))
	num.Quo(num, pow10(scaleFraction))
	return Quantity{val: num.Uint64()}
}

// MulFractionUp is the rounded-up sibling of MulFractionDown, used when the
// scaled amount is a debit charged to a caller.
func (q Quantity) MulFractionUp(f Fraction) Quantity {
	num := new(big.Int).Mul(q.bigInt(), big.NewInt(int64(f.val)))
	return Quantity{val: quoCeil(num, pow10(scaleFraction)).Uint64()}
}

// DivUp divides one Value by another, returning the ratio as a scale-6
// Fraction rounded up, the form leverage checks use (position value over
// collateral value).
func (v Value) DivUp(o Value) Fraction {
	num := new(big.Int).Mul(v.val, pow10(scaleFraction))
	return Fraction{val: quoCeilUint64(num, o.val)}
}

// ValueProportion returns a/(a+b) as a scale-6 Fraction rounded down, the
// pool-composition weight the swap engine's fee curves are evaluated
// against.
func ValueProportion(a, b Value) Fraction {
	total := new(big.Int).Add(a.val, b.val)
	if total.Sign() == 0 {
		return Fraction{}
	}
	num := new(big.Int).Mul(a.val, pow10(scaleFraction))
	num.Quo(num, total)
	return Fraction{val: num.Uint64()}
}

// MulFractionDown scales a Value by a scale-6 Fraction, rounding down, used
// to apply a collateral ratio or liquidation threshold to a collateral
// value.
func (v Value) MulFractionDown(f Fraction) Value {
	num := new(big.Int).Mul(v.val, big.NewInt(int64(f.val)))
	num.Quo(num, pow10(scaleFraction))
	return Value{val: num}
}

// QuantityRatio returns num/den as a scale-6 Fraction rounded down, used to
// derive a utilization ratio from a borrowed/available quantity pair.
func QuantityRatio(num, den Quantity) Fraction {
	if den.val == 0 {
		return Fraction{}
	}
	n := new(big.Int).Mul(num.bigInt(), pow10(scaleFraction))
	n.Quo(n, den.bigInt())
	return Fraction{val: n.Uint64()}
}

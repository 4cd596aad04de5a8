package decimal

import "math/big"

// Precise (scale 24) is the extra-precision scalar used for compounding fee
// curves over many periods, where scale-6 Fractions would lose too much
// accuracy across repeated multiplication.
type Precise struct{ val *big.Int }

func NewPrecise(v *big.Int) Precise { return Precise{val: new(big.Int).Set(v)} }
func PreciseFromInteger(v int64) Precise {
	return Precise{val: new(big.Int).Mul(big.NewInt(v), denomPrecise)}
}

// PreciseFromDecimal lifts a scale-6 Fraction into scale-24 Precise space.
func PreciseFromDecimal(f Fraction) Precise {
	scaled := new(big.Int).Mul(big.NewInt(int64(f.val)), pow10(scalePrecise-scaleFraction))
	return Precise{val: scaled}
}

func (p Precise) BigInt() *big.Int { return new(big.Int).Set(p.val) }
func (p Precise) Cmp(o Precise) int { return p.val.Cmp(o.val) }

func (p Precise) Add(o Precise) Precise { return Precise{val: new(big.Int).Add(p.val, o.val)} }
func (p Precise) Sub(o Precise) Precise {
	r := new(big.Int).Sub(p.val, o.val)
	if r.Sign() < 0 {
		panic("decimal: Precise subtraction underflow")
	}
	return Precise{val: r}
}

// MulUp multiplies two scale-24 values, rounding the result up.
func (p Precise) MulUp(o Precise) Precise {
	num := new(big.Int).Mul(p.val, o.val)
	return Precise{val: quoCeil(num, denomPrecise)}
}

// DivUp divides a Precise by a plain Quantity, rounding up.
func (p Precise) DivUp(q Quantity) Precise {
	return Precise{val: quoCeil(new(big.Int).Set(p.val), q.bigInt())}
}

// BigMulUp multiplies using a wider intermediate, matching the reference's
// big_mul_up used inside exponentiation-by-squaring to avoid overflow.
func (p Precise) BigMulUp(o Precise) Precise { return p.MulUp(o) }

// Pow raises p to exp via exponentiation by squaring, rounding down at each
// step.
func (p Precise) Pow(exp uint32) Precise {
	result := PreciseFromInteger(1)
	base := p
	for exp > 0 {
		if exp%2 == 1 {
			result = result.mulDown(base)
		}
		exp /= 2
		base = base.mulDown(base)
	}
	return result
}

func (p Precise) mulDown(o Precise) Precise {
	num := new(big.Int).Mul(p.val, o.val)
	num.Quo(num, denomPrecise)
	return Precise{val: num}
}

// PowUp is the rounded-up sibling of Pow.
func (p Precise) PowUp(exp uint32) Precise {
	result := PreciseFromInteger(1)
	base := p
	for exp > 0 {
		if exp%2 == 1 {
			result = result.MulUp(base)
		}
		exp /= 2
		base = base.MulUp(base)
	}
	return result
}

// BigPowUp is the wide-intermediate sibling of PowUp used for fee
// compounding, where exp is typically a duration in seconds and can be
// large enough that per-multiplication overflow margin matters.
func (p Precise) BigPowUp(exp uint32) Precise {
	result := PreciseFromInteger(1)
	base := p
	for exp > 0 {
		if exp%2 == 1 {
			result = result.BigMulUp(base)
		}
		exp /= 2
		base = base.BigMulUp(base)
	}
	return result
}

// MulQuantityDown scales a Quantity by a growth factor expressed as
// Precise, rounding down, used to turn a compounded-fee growth factor into
// a Quantity delta.
func (p Precise) MulQuantityDown(q Quantity) Quantity {
	num := new(big.Int).Mul(p.val, q.bigInt())
	num.Quo(num, denomPrecise)
	return Quantity{val: num.Uint64()}
}

// MulQuantityUp is the rounded-up sibling of MulQuantityDown.
func (p Precise) MulQuantityUp(q Quantity) Quantity {
	num := new(big.Int).Mul(p.val, q.bigInt())
	return Quantity{val: quoCeil(num, denomPrecise).Uint64()}
}

// PreciseApy is a distinct scale-24 type mirroring Precise, kept separate so
// APY compounding (displayed, longer horizon) can never be mixed up with
// per-settlement fee compounding (applied to balances) at the type level.
type PreciseApy struct{ val *big.Int }

func PreciseApyFromInteger(v int64) PreciseApy {
	return PreciseApy{val: new(big.Int).Mul(big.NewInt(v), denomPrecise)}
}
func PreciseApyFromDecimal(f Fraction) PreciseApy {
	scaled := new(big.Int).Mul(big.NewInt(int64(f.val)), pow10(scalePrecise-scaleFraction))
	return PreciseApy{val: scaled}
}
func (p PreciseApy) BigInt() *big.Int { return new(big.Int).Set(p.val) }
func (p PreciseApy) Add(o PreciseApy) PreciseApy {
	return PreciseApy{val: new(big.Int).Add(p.val, o.val)}
}
func (p PreciseApy) Sub(o PreciseApy) PreciseApy {
	r := new(big.Int).Sub(p.val, o.val)
	if r.Sign() < 0 {
		panic("decimal: PreciseApy subtraction underflow")
	}
	return PreciseApy{val: r}
}
func (p PreciseApy) DivUp(q Quantity) PreciseApy {
	return PreciseApy{val: quoCeil(new(big.Int).Set(p.val), q.bigInt())}
}
func (p PreciseApy) MulUp(o PreciseApy) PreciseApy {
	num := new(big.Int).Mul(p.val, o.val)
	return PreciseApy{val: quoCeil(num, denomPrecise)}
}
func (p PreciseApy) BigPowUp(exp uint32) PreciseApy {
	result := PreciseApyFromInteger(1)
	base := p
	for exp > 0 {
		if exp%2 == 1 {
			result = result.MulUp(base)
		}
		exp /= 2
		base = base.MulUp(base)
	}
	return result
}

// FundingRate (signed, scale 24) accumulates the cumulative per-unit funding
// paid or received by a trade side over time; it can go negative when the
// funding flow reverses.
type FundingRate struct{ val *big.Int }

func NewFundingRate(v *big.Int) FundingRate { return FundingRate{val: new(big.Int).Set(v)} }
func ZeroFundingRate() FundingRate          { return FundingRate{val: big.NewInt(0)} }
func (f FundingRate) BigInt() *big.Int      { return new(big.Int).Set(f.val) }
func (f FundingRate) Add(o FundingRate) FundingRate {
	return FundingRate{val: new(big.Int).Add(f.val, o.val)}
}
func (f FundingRate) Sub(o FundingRate) FundingRate {
	return FundingRate{val: new(big.Int).Sub(f.val, o.val)}
}
func (f FundingRate) Cmp(o FundingRate) int { return f.val.Cmp(o.val) }

// FundingRateFromFraction lifts a scale-6 Fraction into scale-24
// FundingRate space, used to turn a per-refresh funding fraction into a
// cumulative rate delta.
func FundingRateFromFraction(f Fraction) FundingRate {
	return FundingRate{val: new(big.Int).Mul(big.NewInt(int64(f.val)), pow10(scalePrecise-scaleFraction))}
}

// BigFraction (scale 12) is used where Fraction's 6-digit precision is
// insufficient but full Precise (24-digit) precision is unnecessary, e.g.
// intermediate utilization ratios feeding the fee curve mean calculation.
type BigFraction struct{ val *big.Int }

func NewBigFraction(v *big.Int) BigFraction { return BigFraction{val: new(big.Int).Set(v)} }
func (b BigFraction) BigInt() *big.Int      { return new(big.Int).Set(b.val) }

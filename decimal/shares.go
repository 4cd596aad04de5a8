package decimal

import "math/big"

// Shares tracks pool or debt ownership as a plain integer count (scale 0,
// u128-ranged). Conversions to and from Quantity/Value are always performed
// with an explicit rounding direction: growing a pool's share supply rounds
// down (the depositor never receives more ownership than their deposit
// justifies) while burning shares for withdrawal rounds up against the
// caller and down for the quantity paid out, matching the reference
// implementation's get_change_down/up and calculate_owed/earned split.
type Shares struct{ val *big.Int }

func NewShares(v *big.Int) Shares { return Shares{val: new(big.Int).Set(v)} }
func SharesFromUint64(v uint64) Shares { return Shares{val: new(big.Int).SetUint64(v)} }
func ZeroShares() Shares { return Shares{val: big.NewInt(0)} }

func (s Shares) BigInt() *big.Int { return new(big.Int).Set(s.val) }
func (s Shares) IsZero() bool     { return s.val.Sign() == 0 }
func (s Shares) Add(o Shares) Shares { return Shares{val: new(big.Int).Add(s.val, o.val)} }
func (s Shares) Sub(o Shares) Shares {
	r := new(big.Int).Sub(s.val, o.val)
	if r.Sign() < 0 {
		panic("decimal: Shares subtraction underflow")
	}
	return Shares{val: r}
}
func (s Shares) Cmp(o Shares) int { return s.val.Cmp(o.val) }
func (s Shares) Lt(o Shares) bool { return s.val.Cmp(o.val) < 0 }
func (s Shares) Gte(o Shares) bool { return s.val.Cmp(o.val) >= 0 }
func (s Shares) Min(o Shares) Shares {
	if s.val.Cmp(o.val) <= 0 {
		return s
	}
	return o
}

// GetChangeDown computes the share delta for depositing amount into a pool
// holding allLiquidity backing the existing share supply, rounded down.
func (s Shares) GetChangeDown(amount, allLiquidity Quantity) Shares {
	if s.IsZero() {
		return Shares{val: amount.bigInt()}
	}
	num := new(big.Int).Mul(s.val, amount.bigInt())
	num.Quo(num, allLiquidity.bigInt())
	return Shares{val: num}
}

// GetChangeDownByValue is the value-denominated sibling of GetChangeDown.
func (s Shares) GetChangeDownByValue(value, allValue Value) Shares {
	if s.IsZero() {
		return Shares{val: value.BigInt()}
	}
	num := new(big.Int).Mul(s.val, value.val)
	num.Quo(num, allValue.val)
	return Shares{val: num}
}

// GetChangeUp computes the share delta for withdrawing amount from a pool
// holding allLiquidity, rounded up so the withdrawer never under-burns
// shares relative to the quantity they pull out.
func (s Shares) GetChangeUp(amount, allLiquidity Quantity) Shares {
	if s.IsZero() {
		return Shares{val: amount.bigInt()}
	}
	num := new(big.Int).Mul(s.val, amount.bigInt())
	return Shares{val: quoCeil(num, allLiquidity.bigInt())}
}

// GetChangeUpByValue is the value-denominated sibling of GetChangeUp.
func (s Shares) GetChangeUpByValue(value, allValue Value) Shares {
	if s.IsZero() {
		return Shares{val: value.BigInt()}
	}
	num := new(big.Int).Mul(s.val, value.val)
	return Shares{val: quoCeil(num, allValue.val)}
}

// CalculateOwed converts sharesToBurn into the Quantity the burner owes the
// pool, rounded up (a debit against the caller).
func (s Shares) CalculateOwed(sharesToBurn Shares, allLiquidity Quantity) Quantity {
	num := new(big.Int).Mul(sharesToBurn.val, allLiquidity.bigInt())
	return Quantity{val: quoCeil(num, s.val).Uint64()}
}

// CalculateEarned converts sharesToBurn into the Quantity the burner is
// paid, rounded down (a credit to the caller).
func (s Shares) CalculateEarned(sharesToBurn Shares, allLiquidity Quantity) Quantity {
	num := new(big.Int).Mul(sharesToBurn.val, allLiquidity.bigInt())
	num.Quo(num, s.val)
	return Quantity{val: num.Uint64()}
}

// CalculateEarnedByValue is the value-denominated sibling of CalculateEarned.
func (s Shares) CalculateEarnedByValue(sharesToBurn Shares, allValue Value) Value {
	num := new(big.Int).Mul(allValue.val, sharesToBurn.val)
	num.Quo(num, s.val)
	return Value{val: num}
}

func quoCeil(num, denom *big.Int) *big.Int {
	if denom.Sign() == 0 {
		return big.NewInt(0)
	}
	q, r := new(big.Int).QuoRem(num, denom, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

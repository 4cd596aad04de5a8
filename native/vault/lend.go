package vault

import (
	"vaultcore/decimal"
	"vaultcore/feecurve"
	"vaultcore/oracle"
)

// Lend is the interest-accruing borrow pool keyed off a single base asset:
// available liquidity shrinks as users borrow against it, utilization drives
// a fee curve, and accrued interest is periodically materialized into
// borrowed principal before being handed to the vault for distribution
// across strategies.
type Lend struct {
	Available decimal.Quantity
	Borrowed  decimal.Quantity

	Fee            feecurve.FeeCurve
	LastFeePaid    decimal.Time
	InitialFeeTime decimal.Time

	Utilization    decimal.Fraction
	MaxUtilization decimal.Fraction
	BorrowLimit    decimal.Quantity

	BorrowShares decimal.Shares
	UnclaimedFee decimal.Quantity
	TotalFee     decimal.Quantity
}

// NewLend constructs an empty Lend pool seeded with the curve and risk
// parameters enable_lending accepts.
func NewLend(curve feecurve.FeeCurve, maxUtilization decimal.Fraction, borrowLimit decimal.Quantity, initialFeeTime, lastFeePaid decimal.Time) *Lend {
	return &Lend{
		Fee:            curve,
		LastFeePaid:    lastFeePaid,
		InitialFeeTime: initialFeeTime,
		MaxUtilization: maxUtilization,
		BorrowLimit:    borrowLimit,
	}
}

func (l *Lend) recomputeUtilization() {
	l.Utilization = decimal.QuantityRatio(l.Borrowed, l.Available.Add(l.Borrowed))
}

// AddAvailableBase credits newly deposited liquidity to the pool.
func (l *Lend) AddAvailableBase(qty decimal.Quantity) {
	l.Available = l.Available.Add(qty)
	l.recomputeUtilization()
}

// RemoveAvailableBase debits liquidity withdrawn from the pool.
func (l *Lend) RemoveAvailableBase(qty decimal.Quantity) error {
	if l.Available.Lt(qty) {
		return ErrNotEnoughBaseQuantity
	}
	l.Available = l.Available.Sub(qty)
	l.recomputeUtilization()
	return nil
}

// AccrueInterestRate advances last_fee_paid to now, compounding the
// point fee at the pool's current utilization over the elapsed span and
// moving the result into unclaimed_fee/total_fee. It is a no-op if now has
// not advanced.
func (l *Lend) AccrueInterestRate(now decimal.Time) {
	if now <= l.LastFeePaid {
		return
	}
	dt := now - l.LastFeePaid
	growth := l.Fee.CompoundedFee(l.Utilization, dt)
	delta := growth.MulQuantityDown(l.Borrowed)
	l.UnclaimedFee = l.UnclaimedFee.Add(delta)
	l.TotalFee = l.TotalFee.Add(delta)
	l.LastFeePaid = now
}

// AccrueFee materializes unclaimed_fee into borrowed principal and returns
// the amount moved; the caller (the vault orchestrator) is responsible for
// redistributing that amount across the strategies backing this pool.
func (l *Lend) AccrueFee() decimal.Quantity {
	moved := l.UnclaimedFee
	l.Borrowed = l.Borrowed.Add(moved)
	l.UnclaimedFee = decimal.NewQuantity(0)
	l.recomputeUtilization()
	return moved
}

// CalculateBorrowQuantity computes the quantity to actually borrow
// (desired principal plus an upfront fee charged for the initial fee
// window) and checks it against the caller's value-denominated borrow
// allowance. The fee is evaluated at the pool's utilization projected after
// the borrow, over a span of initial_fee_time seconds anchored at
// last_fee_paid rather than now — a deliberately preserved quirk of the
// reference implementation.
func (l *Lend) CalculateBorrowQuantity(o *oracle.Oracle, desired decimal.Quantity, allowedValue decimal.Value) (decimal.Quantity, error) {
	projectedBorrowed := l.Borrowed.Add(desired)
	var projectedAvailable decimal.Quantity
	if l.Available.Gte(desired) {
		projectedAvailable = l.Available.Sub(desired)
	}
	projectedUtil := decimal.QuantityRatio(projectedBorrowed, projectedAvailable.Add(projectedBorrowed))

	growth := l.Fee.CompoundedFee(projectedUtil, l.InitialFeeTime)
	fee := growth.MulQuantityUp(desired)
	total := desired.Add(fee)

	value := o.CalculateNeededValue(total)
	if value.Cmp(allowedValue) > 0 {
		return decimal.Quantity{}, ErrUserAllowedBorrowExceeded
	}
	return total, nil
}

// CanBorrow reports whether borrowing amount keeps utilization at or below
// max_utilization and keeps total borrowed strictly under borrow_limit.
func (l *Lend) CanBorrow(amount decimal.Quantity) bool {
	if l.Available.Lt(amount) {
		return false
	}
	projectedBorrowed := l.Borrowed.Add(amount)
	projectedAvailable := l.Available.Sub(amount)
	projectedUtil := decimal.QuantityRatio(projectedBorrowed, projectedAvailable.Add(projectedBorrowed))
	return projectedUtil.Lte(l.MaxUtilization) && projectedBorrowed.Lt(l.BorrowLimit)
}

// Borrow moves qty from available to borrowed, minting shares at the
// current share price (rounded up) or seeding the share supply 1:1 if the
// pool currently has no debt.
func (l *Lend) Borrow(qty decimal.Quantity) (decimal.Shares, error) {
	if !l.CanBorrow(qty) {
		return decimal.Shares{}, ErrCannotBorrow
	}
	var minted decimal.Shares
	if l.BorrowShares.IsZero() {
		minted = decimal.SharesFromUint64(qty.Get())
	} else {
		minted = l.BorrowShares.GetChangeUp(qty, l.Borrowed)
	}
	l.Available = l.Available.Sub(qty)
	l.Borrowed = l.Borrowed.Add(qty)
	l.BorrowShares = l.BorrowShares.Add(minted)
	l.recomputeUtilization()
	return minted, nil
}

// Repay settles a portion of a borrow position: repayQty is what the
// caller is handing back, borrowedQty is the position's original principal
// (its Amount field) and borrowedShares is the position's share count.
// The position's current liability (owed) is computed from its shares at
// the pool's current share price, rounded up; the growth since origination
// (owed - borrowedQty) is the interest the caller must cover before any
// principal is considered repaid. Shares are burned proportionally to the
// fraction of owed being repaid; the unlock quantity returned is the
// portion of repayQty that frees up previously locked principal (i.e.
// excludes the interest portion, which strategies already received via
// settle_lend_fees).
func (l *Lend) Repay(repayQty, borrowedQty decimal.Quantity, borrowedShares decimal.Shares) (unlockQty decimal.Quantity, burnedShares decimal.Shares, err error) {
	owed := l.BorrowShares.CalculateOwed(borrowedShares, l.Borrowed)
	var feeOwed decimal.Quantity
	if owed.Gt(borrowedQty) {
		feeOwed = owed.Sub(borrowedQty)
	}
	if repayQty.Lte(feeOwed) {
		return decimal.Quantity{}, decimal.Shares{}, ErrRepayLowerThanFee
	}

	burned := borrowedShares.GetChangeDown(repayQty, owed)
	if burned.Gte(borrowedShares) {
		burned = borrowedShares
	}

	l.Borrowed = l.Borrowed.Sub(repayQty)
	l.BorrowShares = l.BorrowShares.Sub(burned)
	l.recomputeUtilization()

	return repayQty.Sub(feeOwed), burned, nil
}

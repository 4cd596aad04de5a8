package vault

import (
	"testing"

	"vaultcore/decimal"
	"vaultcore/feecurve"
)

func TestStrategyDepositWithdrawRoundTrip(t *testing.T) {
	st := NewStrategy(true, true, true, decimal.Fraction{}, decimal.Fraction{})
	lend := NewLend(flatCurve(decimal.Fraction{}), decimal.FractionFromInteger(1), decimal.NewQuantity(1_000_000_000), 0, 0)
	swap := NewSwap(feecurveZero(), feecurveZero(), decimal.Fraction{})
	trade := NewTrade(decimal.Fraction{}, decimal.FractionFromInteger(1000), decimal.Fraction{}, decimal.Fraction{}, 0)
	svcs := &Services{Lend: lend, Swap: swap, Trade: trade}

	shares := decimal.SharesFromUint64(1000)
	st.Deposit(decimal.NewQuantity(1000), decimal.NewQuantity(2000), shares, svcs)

	if st.Available.Base.Get() != 1000 || st.Available.Quote.Get() != 2000 {
		t.Fatalf("Available after Deposit = %+v, want {1000 2000}", st.Available)
	}
	if lend.Available.Get() != 1000 {
		t.Fatalf("Lend.Available after Deposit = %d, want 1000", lend.Available.Get())
	}
	if swap.Available.Base.Get() != 1000 || swap.Available.Quote.Get() != 2000 {
		t.Fatalf("Swap.Available after Deposit = %+v, want {1000 2000}", swap.Available)
	}
	if trade.Available.Base.Get() != 1000 || trade.Available.Quote.Get() != 2000 {
		t.Fatalf("Trade.Available after Deposit = %+v, want {1000 2000}", trade.Available)
	}

	if err := st.Withdraw(decimal.NewQuantity(400), decimal.NewQuantity(800), decimal.SharesFromUint64(400), svcs); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if st.Available.Base.Get() != 600 || st.Available.Quote.Get() != 1200 {
		t.Fatalf("Available after Withdraw = %+v, want {600 1200}", st.Available)
	}
	if st.TotalShares.BigInt().Uint64() != 600 {
		t.Fatalf("TotalShares after Withdraw = %s, want 600", st.TotalShares.BigInt())
	}

	if err := st.Withdraw(decimal.NewQuantity(10_000), decimal.NewQuantity(0), decimal.Shares{}, svcs); err != ErrNotEnoughBaseQuantity {
		t.Fatalf("Withdraw past Available.Base = %v, want ErrNotEnoughBaseQuantity", err)
	}
}

func TestStrategyLockUnlockBaseMovesBetweenAvailableAndLocked(t *testing.T) {
	st := NewStrategy(true, false, false, decimal.Fraction{}, decimal.Fraction{})
	lend := NewLend(flatCurve(decimal.Fraction{}), decimal.FractionFromInteger(1), decimal.NewQuantity(1_000_000_000), 0, 0)
	svcs := &Services{Lend: lend}
	lend.AddAvailableBase(decimal.NewQuantity(1000))
	st.Available.Base = decimal.NewQuantity(1000)

	if err := st.LockBase(decimal.NewQuantity(400), ServiceLend, svcs); err != nil {
		t.Fatalf("LockBase: %v", err)
	}
	if st.Available.Base.Get() != 600 || st.Locked.Base.Get() != 400 {
		t.Fatalf("after LockBase: available=%d locked=%d, want 600/400", st.Available.Base.Get(), st.Locked.Base.Get())
	}
	if st.Lent.Get() != 400 {
		t.Fatalf("Lent sub-ledger = %d, want 400", st.Lent.Get())
	}
	if lend.Available.Get() != 600 {
		t.Fatalf("Lend.Available after LockBase = %d, want 600", lend.Available.Get())
	}

	if err := st.LockBase(decimal.NewQuantity(900), ServiceLend, svcs); err != ErrNotEnoughBaseQuantity {
		t.Fatalf("LockBase past available = %v, want ErrNotEnoughBaseQuantity", err)
	}

	if err := st.UnlockBase(decimal.NewQuantity(400), ServiceLend, svcs); err != nil {
		t.Fatalf("UnlockBase: %v", err)
	}
	if st.Available.Base.Get() != 1000 || !st.Locked.Base.IsZero() {
		t.Fatalf("after UnlockBase: available=%d locked=%d, want 1000/0", st.Available.Base.Get(), st.Locked.Base.Get())
	}
	if !st.Lent.IsZero() {
		t.Fatalf("Lent sub-ledger after UnlockBase = %d, want 0", st.Lent.Get())
	}
	if lend.Available.Get() != 1000 {
		t.Fatalf("Lend.Available after UnlockBase = %d, want 1000", lend.Available.Get())
	}
}

func TestStrategyIncreaseDecreaseBalanceStaysWithinAvailable(t *testing.T) {
	st := NewStrategy(false, true, false, decimal.Fraction{}, decimal.Fraction{})
	swap := NewSwap(feecurveZero(), feecurveZero(), decimal.Fraction{})
	svcs := &Services{Swap: swap}
	st.Available.Base = decimal.NewQuantity(1000)

	st.IncreaseBalanceBase(decimal.NewQuantity(500), svcs)
	if st.Available.Base.Get() != 1500 {
		t.Fatalf("Available.Base after IncreaseBalanceBase = %d, want 1500", st.Available.Base.Get())
	}
	if st.Sold.Base.Get() != 500 {
		t.Fatalf("Sold.Base after IncreaseBalanceBase = %d, want 500", st.Sold.Base.Get())
	}

	if err := st.DecreaseBalanceBase(decimal.NewQuantity(2000), svcs); err != ErrNotEnoughBaseQuantity {
		t.Fatalf("DecreaseBalanceBase past Available = %v, want ErrNotEnoughBaseQuantity", err)
	}
	if err := st.DecreaseBalanceBase(decimal.NewQuantity(500), svcs); err != nil {
		t.Fatalf("DecreaseBalanceBase: %v", err)
	}
	if st.Available.Base.Get() != 1000 {
		t.Fatalf("Available.Base after DecreaseBalanceBase = %d, want 1000", st.Available.Base.Get())
	}
	if !st.Sold.Base.IsZero() {
		t.Fatalf("Sold.Base after round trip = %d, want 0", st.Sold.Base.Get())
	}
}

func TestStrategyAccrueFeeCreditsLockedAndLentSubLedger(t *testing.T) {
	st := NewStrategy(true, false, false, decimal.Fraction{}, decimal.Fraction{})
	st.AccrueFee(decimal.NewQuantity(250), ServiceLend)
	if st.Locked.Base.Get() != 250 {
		t.Fatalf("Locked.Base after AccrueFee = %d, want 250", st.Locked.Base.Get())
	}
	if st.AccruedFee.Get() != 250 {
		t.Fatalf("AccruedFee after AccrueFee = %d, want 250", st.AccruedFee.Get())
	}
	if st.Lent.Get() != 250 {
		t.Fatalf("Lent sub-ledger after a Lend fee accrual = %d, want 250", st.Lent.Get())
	}
}

// feecurveZero builds an empty fee curve whose get_point_fee is always zero,
// used where the test cares about strategy balance bookkeeping rather than
// swap pricing.
func feecurveZero() feecurve.FeeCurve {
	var c feecurve.FeeCurve
	c.AddConstantFee(decimal.Fraction{}, decimal.FractionFromInteger(1))
	return c
}

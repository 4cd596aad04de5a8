package vault

import (
	"testing"

	"vaultcore/decimal"
)

// TestRegistryGetBounds checks Registry's vault_index resolution, including
// the NoVaultOnIndex failure mode used throughout the orchestrator.
func TestRegistryGetBounds(t *testing.T) {
	var reg Registry
	v := New(1, nil)
	idx := reg.Add(v)
	if idx != 0 {
		t.Fatalf("first Registry.Add index = %d, want 0", idx)
	}
	got, err := reg.Get(0)
	if err != nil || got != v {
		t.Fatalf("Registry.Get(0) = %v, %v; want %v, nil", got, err, v)
	}
	if _, err := reg.Get(1); err != ErrNoVaultOnIndex {
		t.Fatalf("Registry.Get(out of range) = %v, want ErrNoVaultOnIndex", err)
	}
}

// TestUserStatementPermittedDebtAndTiers exercises Refresh's aggregation of
// a Borrow liability against a LiquidityProvide position's three collateral
// tiers, and the collateralized/healthy predicates derived from them.
func TestUserStatementPermittedDebtAndTiers(t *testing.T) {
	v := New(1, nil)
	if err := v.EnableOracle(TokenBase, 0, decimal.PriceFromInteger(1), decimal.Price{}, decimal.PriceFromInteger(1), 0); err != nil {
		t.Fatalf("EnableOracle(base): %v", err)
	}
	if err := v.EnableOracle(TokenQuote, 0, decimal.PriceFromInteger(1), decimal.Price{}, decimal.PriceFromInteger(1), 0); err != nil {
		t.Fatalf("EnableOracle(quote): %v", err)
	}
	curve := flatTradeCurve()
	if err := v.EnableLending(curve, decimal.FractionFromScale(9, 1), decimal.NewQuantity(1_000_000_000), 0, 0); err != nil {
		t.Fatalf("EnableLending: %v", err)
	}
	// 80% collateral ratio, 90% liquidation threshold: a user backed by
	// 1,000,000 of value has 800,000 of borrow headroom and stays healthy
	// until liabilities exceed 900,000.
	ratio := decimal.FractionFromScale(8, 1)
	liqThreshold := decimal.FractionFromScale(9, 1)
	if _, err := v.AddStrategy(true, false, false, ratio, liqThreshold); err != nil {
		t.Fatalf("AddStrategy: %v", err)
	}

	var reg Registry
	reg.Add(v)
	user := &UserStatement{}

	if err := v.Deposit(0, 0, TokenBase, decimal.NewQuantity(1_000_000), user, &reg, 0); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	if user.Collateral.Exact.Cmp(decimal.ValueFromInteger(2_000_000)) != 0 {
		t.Fatalf("Collateral.Exact = %s, want 2_000_000 (1e6 base + 1e6 quote at parity)", user.Collateral.Exact.BigInt())
	}
	wantRatio := decimal.ValueFromInteger(1_600_000)
	if user.Collateral.WithCollateralRatio.Cmp(wantRatio) != 0 {
		t.Fatalf("Collateral.WithCollateralRatio = %s, want %s", user.Collateral.WithCollateralRatio.BigInt(), wantRatio.BigInt())
	}
	if !user.IsCollateralized() {
		t.Fatal("a user with zero liabilities should be collateralized")
	}
	if !user.IsHealthy() {
		t.Fatal("a user with zero liabilities should be healthy")
	}

	if err := v.Borrow(0, decimal.NewQuantity(400_000), user, &reg, 0); err != nil {
		t.Fatalf("Borrow: %v", err)
	}
	if !user.IsCollateralized() {
		t.Fatal("a 400_000 borrow against 1_600_000 of ratio-tier collateral should stay collateralized")
	}
	wantPermitted := decimal.ValueFromInteger(1_200_000)
	if user.PermittedDebt().Cmp(wantPermitted) != 0 {
		t.Fatalf("PermittedDebt after a 400_000 borrow = %s, want %s", user.PermittedDebt().BigInt(), wantPermitted.BigInt())
	}

	// A further borrow whose needed value exceeds the remaining headroom
	// must be rejected before ever touching the pool's own availability or
	// utilization limits.
	if err := v.Borrow(0, decimal.NewQuantity(2_000_000), user, &reg, 0); err != ErrUserAllowedBorrowExceeded {
		t.Fatalf("Borrow past PermittedDebt = %v, want ErrUserAllowedBorrowExceeded", err)
	}
}

package feecurve

import (
	"math/big"
	"testing"

	"vaultcore/decimal"
)

func TestFindIndex(t *testing.T) {
	var fee FeeCurve
	fee.AddConstantFee(decimal.NewFraction(1), decimal.NewFraction(1))
	fee.AddConstantFee(decimal.NewFraction(2), decimal.NewFraction(2))
	fee.AddConstantFee(decimal.NewFraction(3), decimal.NewFraction(3))

	cases := []struct {
		util uint64
		want int
	}{
		{0, 0}, {1, 0}, {2, 1}, {3, 2},
	}
	for _, c := range cases {
		if got := fee.findIndex(decimal.NewFraction(c.util)); got != c.want {
			t.Fatalf("findIndex(%d) = %d, want %d", c.util, got, c.want)
		}
	}
}

func TestFindIndexes(t *testing.T) {
	var fee FeeCurve
	fee.AddConstantFee(decimal.NewFraction(1), decimal.NewFraction(1))
	fee.AddConstantFee(decimal.NewFraction(2), decimal.NewFraction(2))
	fee.AddConstantFee(decimal.NewFraction(3), decimal.NewFraction(3))

	check := func(s, g uint64, wantS, wantG int) {
		a, b, err := fee.findIndexes(decimal.NewFraction(s), decimal.NewFraction(g))
		if err != nil {
			t.Fatalf("findIndexes(%d,%d): %v", s, g, err)
		}
		if a != wantS || b != wantG {
			t.Fatalf("findIndexes(%d,%d) = (%d,%d), want (%d,%d)", s, g, a, b, wantS, wantG)
		}
	}
	check(0, 0, 0, 0)
	check(1, 3, 0, 2)
	check(2, 2, 1, 1)
	check(3, 3, 2, 2)

	if _, _, err := fee.findIndexes(decimal.NewFraction(4), decimal.NewFraction(4)); err == nil {
		t.Fatal("expected error for out-of-range utilization")
	}
}

func TestCompoundedFee(t *testing.T) {
	var fee FeeCurve
	fee.AddConstantFee(decimal.FractionFromScale(1, 2), decimal.FractionFromScale(5, 1))
	fee.AddConstantFee(decimal.FractionFromScale(2, 2), decimal.FractionFromInteger(1))

	got := fee.CompoundedFee(decimal.FractionFromScale(2, 1), HourDuration)
	want := decimal.NewPrecise(mustBig("10050153055719590731686"))
	if got.Cmp(want) != 0 {
		t.Fatalf("CompoundedFee = %s, want %s", got.BigInt(), want.BigInt())
	}

	got2 := fee.CompoundedFee(decimal.FractionFromScale(6, 1), 60)
	want2 := decimal.NewPrecise(mustBig("333387968831054398543"))
	if got2.Cmp(want2) != 0 {
		t.Fatalf("CompoundedFee(60s) = %s, want %s", got2.BigInt(), want2.BigInt())
	}
}

func TestGetMean(t *testing.T) {
	var fee FeeCurve
	fee.AddConstantFee(decimal.FractionFromScale(1, 2), decimal.FractionFromScale(5, 1))
	fee.AddConstantFee(decimal.FractionFromScale(2, 2), decimal.FractionFromInteger(1))

	mean, err := fee.GetMean(decimal.FractionFromScale(0, 0), decimal.FractionFromScale(5, 1))
	if err != nil {
		t.Fatal(err)
	}
	if mean.Cmp(decimal.FractionFromScale(1, 2)) != 0 {
		t.Fatalf("GetMean(0,0.5) = %d, want 0.01", mean.Get())
	}

	mean, err = fee.GetMean(decimal.FractionFromScale(6, 1), decimal.FractionFromScale(9, 1))
	if err != nil {
		t.Fatal(err)
	}
	if mean.Cmp(decimal.FractionFromScale(2, 2)) != 0 {
		t.Fatalf("GetMean(0.6,0.9) = %d, want 0.02", mean.Get())
	}

	mean, err = fee.GetMean(decimal.FractionFromScale(4, 1), decimal.FractionFromScale(6, 1))
	if err != nil {
		t.Fatal(err)
	}
	if mean.Cmp(decimal.FractionFromScale(15, 3)) != 0 {
		t.Fatalf("GetMean(0.4,0.6) = %d, want 0.015", mean.Get())
	}
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad constant: " + s)
	}
	return v
}

package decimal

import "testing"

func TestQuantityArithmetic(t *testing.T) {
	a := NewQuantity(10)
	b := NewQuantity(3)

	if got := a.Add(b).Get(); got != 13 {
		t.Fatalf("Add = %d, want 13", got)
	}
	if got := a.Sub(b).Get(); got != 7 {
		t.Fatalf("Sub = %d, want 7", got)
	}
	if !a.Gt(b) {
		t.Fatalf("expected a > b")
	}
	if !b.Lt(a) {
		t.Fatalf("expected b < a")
	}
	if got := a.Min(b).Get(); got != 3 {
		t.Fatalf("Min = %d, want 3", got)
	}
}

func TestQuantitySubUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on underflow")
		}
	}()
	NewQuantity(1).Sub(NewQuantity(2))
}

func TestQuantityBigMulDiv(t *testing.T) {
	q := NewQuantity(100)
	got := q.BigMulDiv(NewQuantity(3), NewQuantity(7))
	if want := uint64(42); got.Get() != want {
		t.Fatalf("BigMulDiv = %d, want %d", got.Get(), want)
	}

	gotUp := q.BigMulDivUp(NewQuantity(3), NewQuantity(7))
	if want := uint64(43); gotUp.Get() != want {
		t.Fatalf("BigMulDivUp = %d, want %d", gotUp.Get(), want)
	}

	if got := q.BigMulDiv(NewQuantity(3), NewQuantity(0)); !got.IsZero() {
		t.Fatalf("BigMulDiv by zero divisor should return zero, got %d", got.Get())
	}
}

func TestFractionFromInteger(t *testing.T) {
	f := FractionFromInteger(2)
	if got := f.Get(); got != 2_000_000 {
		t.Fatalf("FractionFromInteger(2) = %d, want 2000000", got)
	}
}

func TestFractionMulDivUp(t *testing.T) {
	half := FractionFromScale(5, 1)
	third := FractionFromScale(1, 1)

	got := half.MulUp(third)
	if want := uint64(50_000); got.Get() != want {
		t.Fatalf("MulUp = %d, want %d", got.Get(), want)
	}

	got2 := half.DivUp(third)
	if want := uint64(5_000_000); got2.Get() != want {
		t.Fatalf("DivUp = %d, want %d", got2.Get(), want)
	}
}

func TestQuantityMulFractionRounding(t *testing.T) {
	q := NewQuantity(10)
	f := FractionFromScale(33, 2) // 0.33

	down := q.MulFractionDown(f)
	up := q.MulFractionUp(f)
	if down.Get() != 3 {
		t.Fatalf("MulFractionDown = %d, want 3", down.Get())
	}
	if up.Get() != 4 {
		t.Fatalf("MulFractionUp = %d, want 4", up.Get())
	}
}

func TestValueFromScaleAndMulPrice(t *testing.T) {
	v := ValueFromScale(1_000_000, 6) // 1.0 token, 6 decimals -> scale-9 value
	price := PriceFromInteger(2)      // price of 2.0

	got := v.MulPriceDown(price)
	want := ValueFromInteger(2)
	if got.Cmp(want) != 0 {
		t.Fatalf("MulPriceDown = %s, want %s", got.BigInt(), want.BigInt())
	}
}

func TestQuantityFromValueRounding(t *testing.T) {
	v := NewValue(Pow10(scaleValue))
	v = v.Add(NewValue(Pow10(scaleValue - 1))) // 1.1 in scale-9 terms, roughly

	down := QuantityFromValueDown(v)
	up := QuantityFromValueUp(v)
	if down.Get() != 1 {
		t.Fatalf("QuantityFromValueDown = %d, want 1", down.Get())
	}
	if up.Get() != 2 {
		t.Fatalf("QuantityFromValueUp = %d, want 2", up.Get())
	}
}

func TestValueProportion(t *testing.T) {
	a := ValueFromInteger(1)
	b := ValueFromInteger(3)

	got := ValueProportion(a, b)
	if want := uint64(250_000); got.Get() != want {
		t.Fatalf("ValueProportion = %d, want %d", got.Get(), want)
	}

	zero := ValueProportion(ZeroValue(), ZeroValue())
	if !zero.IsZero() {
		t.Fatalf("ValueProportion(0,0) = %d, want 0", zero.Get())
	}
}

func TestQuantityRatio(t *testing.T) {
	got := QuantityRatio(NewQuantity(1), NewQuantity(4))
	if want := uint64(250_000); got.Get() != want {
		t.Fatalf("QuantityRatio = %d, want %d", got.Get(), want)
	}

	if got := QuantityRatio(NewQuantity(1), NewQuantity(0)); !got.IsZero() {
		t.Fatalf("QuantityRatio by zero denominator should return zero, got %d", got.Get())
	}
}

package oracle

import (
	"testing"

	"vaultcore/decimal"
)

func newTestOracle() Oracle {
	return New(6,
		decimal.PriceFromInteger(2),
		decimal.PriceFromScale(1, 3),
		decimal.PriceFromScale(5, 3),
		0)
}

func TestUpdateOracle(t *testing.T) {
	o := New(6,
		decimal.PriceFromInteger(2),
		decimal.PriceFromScale(1, 3),
		decimal.PriceFromScale(2, 2),
		0)

	if err := o.Update(decimal.NewPrice(5000000000), decimal.NewPrice(25000000), 0); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestCalculateValue(t *testing.T) {
	o := newTestOracle()

	check := func(got, want decimal.Value, label string) {
		t.Helper()
		if got.Cmp(want) != 0 {
			t.Fatalf("%s = %s, want %s", label, got.BigInt(), want.BigInt())
		}
	}

	check(o.CalculateValue(decimal.NewQuantity(100_000000)), decimal.ValueFromInteger(200), "calculate_value(100)")
	check(o.CalculateNeededValue(decimal.NewQuantity(100_000000)), decimal.ValueFromInteger(200), "calculate_needed_value(100)")
	check(o.CalculateValue(decimal.NewQuantity(1)), decimal.ValueFromScale(2, 6), "calculate_value(1)")
	check(o.CalculateNeededValue(decimal.NewQuantity(1)), decimal.ValueFromScale(2, 6), "calculate_needed_value(1)")
	check(o.CalculateValue(decimal.NewQuantity(1_000000_000000)), decimal.ValueFromInteger(2_000000), "calculate_value(1e12)")
	check(o.CalculateNeededValue(decimal.NewQuantity(1_000000_000000)), decimal.ValueFromInteger(2_000000), "calculate_needed_value(1e12)")

	if err := o.Update(decimal.PriceFromInteger(50000), decimal.PriceFromScale(2, 3), 0); err != nil {
		t.Fatalf("Update: %v", err)
	}

	check(o.CalculateValue(decimal.NewQuantity(100_000000)), decimal.ValueFromInteger(5000000), "calculate_value(100) #2")
	check(o.CalculateNeededValue(decimal.NewQuantity(100_000000)), decimal.ValueFromInteger(5000000), "calculate_needed_value(100) #2")
	check(o.CalculateValue(decimal.NewQuantity(1)), decimal.ValueFromScale(50000, 6), "calculate_value(1) #2")
	check(o.CalculateNeededValue(decimal.NewQuantity(1)), decimal.ValueFromScale(50000, 6), "calculate_needed_value(1) #2")
	check(o.CalculateValue(decimal.NewQuantity(1_000000_000000)), decimal.ValueFromInteger(50000000000), "calculate_value(1e12) #2")
	check(o.CalculateNeededValue(decimal.NewQuantity(1_000000_000000)), decimal.ValueFromInteger(50000000000), "calculate_needed_value(1e12) #2")

	if err := o.Update(decimal.PriceFromScale(2, 6), decimal.PriceFromScale(1, 9), 0); err != nil {
		t.Fatalf("Update: %v", err)
	}

	check(o.CalculateValue(decimal.NewQuantity(100_000000)), decimal.ValueFromScale(200, 6), "calculate_value(100) #3")
	check(o.CalculateNeededValue(decimal.NewQuantity(100_000000)), decimal.ValueFromScale(200, 6), "calculate_needed_value(100) #3")
	check(o.CalculateValue(decimal.NewQuantity(1)), decimal.ValueFromScale(0, 6), "calculate_value(1) #3")
	check(o.CalculateNeededValue(decimal.NewQuantity(1)), decimal.ValueFromScale(1, 9), "calculate_needed_value(1) #3")
	check(o.CalculateValue(decimal.NewQuantity(1_000000_000000)), decimal.ValueFromInteger(2), "calculate_value(1e12) #3")
	check(o.CalculateNeededValue(decimal.NewQuantity(1_000000_000000)), decimal.ValueFromInteger(2), "calculate_needed_value(1e12) #3")

	nine := New(9,
		decimal.PriceFromScale(2, 6),
		decimal.PriceFromScale(1, 9),
		decimal.PriceFromScale(5, 3),
		0)

	check(nine.CalculateValue(decimal.NewQuantity(1_000000_000000000)), decimal.ValueFromInteger(2), "nine decimals calculate_value")
	check(nine.CalculateNeededValue(decimal.NewQuantity(1_000000_000000000)), decimal.ValueFromInteger(2), "nine decimals calculate_needed_value")
}

func TestCalculateQuantity(t *testing.T) {
	o := newTestOracle()

	check := func(got, want decimal.Quantity, label string) {
		t.Helper()
		if got.Cmp(want) != 0 {
			t.Fatalf("%s = %d, want %d", label, got.Get(), want.Get())
		}
	}

	check(o.CalculateQuantity(decimal.ValueFromInteger(200)), decimal.NewQuantity(100_000000), "calculate_quantity(200)")
	check(o.CalculateNeededQuantity(decimal.ValueFromInteger(200)), decimal.NewQuantity(100_000000), "calculate_needed_quantity(200)")
	check(o.CalculateQuantity(decimal.ValueFromScale(2, 6)), decimal.NewQuantity(1), "calculate_quantity(0.000002)")
	check(o.CalculateNeededQuantity(decimal.ValueFromScale(2, 6)), decimal.NewQuantity(1), "calculate_needed_quantity(0.000002)")
	check(o.CalculateQuantity(decimal.ValueFromInteger(2_000000)), decimal.NewQuantity(1_000000_000000), "calculate_quantity(2e6)")
	check(o.CalculateNeededQuantity(decimal.ValueFromInteger(2_000000)), decimal.NewQuantity(1_000000_000000), "calculate_needed_quantity(2e6)")
	check(o.CalculateQuantity(decimal.ValueFromScale(1, 6)), decimal.NewQuantity(0), "calculate_quantity(0.000001)")
	check(o.CalculateNeededQuantity(decimal.ValueFromScale(1, 6)), decimal.NewQuantity(1), "calculate_needed_quantity(0.000001)")
}

package vault

import (
	"testing"

	"vaultcore/decimal"
	"vaultcore/oracle"
)

func newTestTrade() (*Trade, *oracle.Oracle, *oracle.Oracle) {
	trade := NewTrade(decimal.Fraction{}, decimal.FractionFromInteger(1000), decimal.Fraction{}, decimal.Fraction{}, 0)
	trade.AddAvailableBase(decimal.NewQuantity(2000))
	trade.AddAvailableQuote(decimal.NewQuantity(2000))

	base := oracle.New(0, decimal.PriceFromInteger(1), decimal.Price{}, decimal.PriceFromInteger(1), 0)
	quote := oracle.New(0, decimal.PriceFromInteger(1), decimal.Price{}, decimal.PriceFromInteger(1), 0)
	return trade, &base, &quote
}

func TestOpenLongRejectsOverLeverage(t *testing.T) {
	trade, base, _ := newTestTrade()
	tinyCollateral := decimal.ValueFromInteger(0)
	if _, err := trade.OpenLong(decimal.NewQuantity(1000), tinyCollateral, base); err != ErrCollateralizationTooLow {
		t.Fatalf("OpenLong with zero collateral = %v, want ErrCollateralizationTooLow", err)
	}
}

func TestOpenLongRejectsInsufficientAvailable(t *testing.T) {
	trade, base, _ := newTestTrade()
	collateral := decimal.ValueFromInteger(1_000_000)
	if _, err := trade.OpenLong(decimal.NewQuantity(10_000), collateral, base); err != ErrNotEnoughBaseQuantity {
		t.Fatalf("OpenLong past available base = %v, want ErrNotEnoughBaseQuantity", err)
	}
}

func TestCloseLongProfit(t *testing.T) {
	trade, base, _ := newTestTrade()
	collateral := decimal.ValueFromInteger(1_000_000)

	receipt, err := trade.OpenLong(decimal.NewQuantity(1000), collateral, base)
	if err != nil {
		t.Fatalf("OpenLong: %v", err)
	}
	if receipt.Locked.Get() != 1000 {
		t.Fatalf("Locked = %d, want 1000", receipt.Locked.Get())
	}

	if err := base.Update(decimal.PriceFromScale(11, 1), decimal.Price{}, 1); err != nil {
		t.Fatalf("Update: %v", err)
	}

	outcome := trade.CloseLong(receipt, base)
	if !outcome.Profit {
		t.Fatal("a price rise on a long should be a profit")
	}
	if outcome.Quantity.Get() != 90 {
		t.Fatalf("Quantity = %d, want 90", outcome.Quantity.Get())
	}
	if outcome.UnlockQuantity.Get() != 1000 {
		t.Fatalf("UnlockQuantity = %d, want 1000", outcome.UnlockQuantity.Get())
	}
	if !trade.Locked.Base.IsZero() {
		t.Fatalf("Locked.Base after close = %d, want 0", trade.Locked.Base.Get())
	}
}

func TestCloseLongLoss(t *testing.T) {
	trade, base, _ := newTestTrade()
	collateral := decimal.ValueFromInteger(1_000_000)

	receipt, err := trade.OpenLong(decimal.NewQuantity(1000), collateral, base)
	if err != nil {
		t.Fatalf("OpenLong: %v", err)
	}

	if err := base.Update(decimal.PriceFromScale(9, 1), decimal.Price{}, 1); err != nil {
		t.Fatalf("Update: %v", err)
	}

	outcome := trade.CloseLong(receipt, base)
	if outcome.Profit {
		t.Fatal("a price drop on a long should be a loss")
	}
	if outcome.Quantity.Get() != 112 {
		t.Fatalf("Quantity = %d, want 112", outcome.Quantity.Get())
	}
	if outcome.UnlockQuantity.Get() != 1000 {
		t.Fatalf("UnlockQuantity = %d, want 1000", outcome.UnlockQuantity.Get())
	}
}

func TestOpenShortLocksQuoteAtEqualValue(t *testing.T) {
	trade, base, quote := newTestTrade()
	collateral := decimal.ValueFromInteger(1_000_000)

	receipt, err := trade.OpenShort(decimal.NewQuantity(1000), collateral, base, quote)
	if err != nil {
		t.Fatalf("OpenShort: %v", err)
	}
	if receipt.Locked.Get() != 1000 {
		t.Fatalf("Locked = %d, want 1000 (equal value at a 1:1 price)", receipt.Locked.Get())
	}
	if trade.Locked.Quote.Get() != 1000 {
		t.Fatalf("trade.Locked.Quote = %d, want 1000", trade.Locked.Quote.Get())
	}
}

func TestCloseShortProfitAndLoss(t *testing.T) {
	trade, base, quote := newTestTrade()
	collateral := decimal.ValueFromInteger(1_000_000)

	receiptProfit, err := trade.OpenShort(decimal.NewQuantity(1000), collateral, base, quote)
	if err != nil {
		t.Fatalf("OpenShort: %v", err)
	}
	if err := base.Update(decimal.PriceFromScale(9, 1), decimal.Price{}, 1); err != nil {
		t.Fatalf("Update: %v", err)
	}
	outcome := trade.CloseShort(receiptProfit, base, quote)
	if !outcome.Profit {
		t.Fatal("a price drop on a short should be a profit")
	}
	if outcome.Quantity.Get() != 100 {
		t.Fatalf("Quantity = %d, want 100", outcome.Quantity.Get())
	}
	if outcome.UnlockQuantity.Get() != 1000 {
		t.Fatalf("UnlockQuantity = %d, want 1000", outcome.UnlockQuantity.Get())
	}

	trade2, base2, quote2 := newTestTrade()
	receiptLoss, err := trade2.OpenShort(decimal.NewQuantity(1000), collateral, base2, quote2)
	if err != nil {
		t.Fatalf("OpenShort: %v", err)
	}
	if err := base2.Update(decimal.PriceFromScale(11, 1), decimal.Price{}, 1); err != nil {
		t.Fatalf("Update: %v", err)
	}
	outcomeLoss := trade2.CloseShort(receiptLoss, base2, quote2)
	if outcomeLoss.Profit {
		t.Fatal("a price rise on a short should be a loss")
	}
	if outcomeLoss.Quantity.Get() != 100 {
		t.Fatalf("Quantity = %d, want 100", outcomeLoss.Quantity.Get())
	}
}

func TestCloseShortProfitClampsToLocked(t *testing.T) {
	trade, base, quote := newTestTrade()

	// Hand-build a receipt with a deliberately small Locked quantity to
	// exercise the profit clamp without needing an oracle pair that can
	// naturally produce a profit this large: the raw price move below
	// would otherwise net close to the full position size.
	receipt := Receipt{
		Side:      Short,
		Size:      decimal.NewQuantity(1000),
		Locked:    decimal.NewQuantity(500),
		OpenPrice: decimal.PriceFromInteger(1),
	}
	trade.Locked.Quote = decimal.NewQuantity(500)
	trade.OpenValue.Quote = decimal.ValueFromInteger(1000)

	if err := base.Update(decimal.NewPrice(1), decimal.Price{}, 1); err != nil {
		t.Fatalf("Update: %v", err)
	}

	outcome := trade.CloseShort(receipt, base, quote)
	if !outcome.Profit {
		t.Fatal("expected a profit close")
	}
	if outcome.Quantity.Get() != 500 {
		t.Fatalf("Quantity = %d, want 500 (clamped to Locked)", outcome.Quantity.Get())
	}
	if outcome.UnlockQuantity.Get() != 500 {
		t.Fatalf("UnlockQuantity = %d, want 500", outcome.UnlockQuantity.Get())
	}
}

package vault

import (
	"fmt"
	"log/slog"

	"vaultcore/decimal"
	"vaultcore/feecurve"
	"vaultcore/oracle"
)

// Token selects which side of a vault's pool an operation concerns.
type Token uint8

const (
	TokenBase Token = iota
	TokenQuote
)

// Vault owns one base/quote liquidity pool, the subset of {Lend, Swap,
// Trade} services it has enabled over that pool, and the bounded list of
// strategies that fund those services. Vaults are created once; services
// and oracles are one-shot (monotonic) and strategies are only ever
// appended.
type Vault struct {
	ID uint64

	BaseOracle  *oracle.Oracle
	QuoteOracle *oracle.Oracle

	Services   Services
	Strategies Strategies

	logger  *slog.Logger
	metrics *vaultMetrics
}

// New constructs an empty vault with no oracles, services or strategies.
func New(id uint64, logger *slog.Logger) *Vault {
	if logger == nil {
		logger = slog.Default()
	}
	return &Vault{ID: id, logger: logger, metrics: newVaultMetrics()}
}

func (v *Vault) label() string { return fmt.Sprintf("%d", v.ID) }

// EnableOracle attaches the base or quote oracle. Each side may only be
// enabled once.
func (v *Vault) EnableOracle(token Token, decimals int, price, confidence, spreadLimit decimal.Price, now decimal.Time) error {
	switch token {
	case TokenBase:
		if v.BaseOracle != nil {
			return ErrOracleAlreadyEnabled
		}
		o := oracle.New(decimals, price, confidence, spreadLimit, now)
		v.BaseOracle = &o
	case TokenQuote:
		if v.QuoteOracle != nil {
			return ErrOracleAlreadyEnabled
		}
		o := oracle.New(decimals, price, confidence, spreadLimit, now)
		v.QuoteOracle = &o
	default:
		return ErrInvalidService
	}
	return nil
}

// EnableLending turns on the Lend service, requiring the base oracle to
// already be attached.
func (v *Vault) EnableLending(curve feecurve.FeeCurve, maxUtilization decimal.Fraction, borrowLimit decimal.Quantity, initialFeeTime, lastFeePaid decimal.Time) error {
	if v.BaseOracle == nil {
		return ErrOracleNone
	}
	if v.Services.Lend != nil {
		return ErrServiceAlreadyExists
	}
	v.Services.Lend = NewLend(curve, maxUtilization, borrowLimit, initialFeeTime, lastFeePaid)
	return nil
}

// EnableSwapping turns on the Swap service.
func (v *Vault) EnableSwapping(sellingFee, buyingFee feecurve.FeeCurve, keptFee decimal.Fraction) error {
	if v.Services.Swap != nil {
		return ErrServiceAlreadyExists
	}
	v.Services.Swap = NewSwap(sellingFee, buyingFee, keptFee)
	return nil
}

// EnableTrading turns on the Trade service.
func (v *Vault) EnableTrading(openFee, maxLeverage, collateralRatio, liquidationThreshold decimal.Fraction, startTime decimal.Time) error {
	if v.Services.Trade != nil {
		return ErrServiceAlreadyExists
	}
	v.Services.Trade = NewTrade(openFee, maxLeverage, collateralRatio, liquidationThreshold, startTime)
	return nil
}

// AddStrategy appends a strategy opted into the given subset of this
// vault's enabled services, rejecting any flag whose service isn't enabled.
func (v *Vault) AddStrategy(hasLend, hasSwap, hasTrade bool, collateralRatio, liquidationThreshold decimal.Fraction) (int, error) {
	if hasLend && v.Services.Lend == nil {
		return 0, ErrLendServiceNone
	}
	if hasSwap && v.Services.Swap == nil {
		return 0, ErrSwapServiceNone
	}
	if hasTrade && v.Services.Trade == nil {
		return 0, ErrTradeServiceNone
	}
	idx := v.Strategies.Len()
	if err := v.Strategies.Add(NewStrategy(hasLend, hasSwap, hasTrade, collateralRatio, liquidationThreshold)); err != nil {
		return 0, err
	}
	return idx, nil
}

// Refresh accrues Lend interest and, if there is anything newly accrued,
// settles it across the lend-enabled strategies. It is the first step of
// every user-facing vault operation.
func (v *Vault) Refresh(now decimal.Time) {
	if v.Services.Lend == nil {
		return
	}
	v.Services.Lend.AccrueInterestRate(now)
	v.metrics.setUtilization(v.label(), float64(v.Services.Lend.Utilization.Get())/1e6)
	if v.Services.Lend.Borrowed.IsZero() {
		return
	}
	fee := v.Services.Lend.AccrueFee()
	if fee.IsZero() {
		return
	}
	v.settleLendFees(fee)
	v.metrics.recordFee(v.label(), "lend", fee.Get())
	v.logger.Info("lend fee settled", "vault_id", v.ID, "fee", fee.Get())
}

// split distributes amount across every strategy for which part returns a
// non-zero figure, in proportion to that figure's share of total, handing
// the last qualifying strategy the rounding residue so the sum of every
// action call exactly equals amount.
func (v *Vault) split(amount, total decimal.Quantity, part func(*Strategy) decimal.Quantity, action func(*Strategy, decimal.Quantity)) {
	if total.IsZero() {
		return
	}
	strategies := v.Strategies.Iter()
	var last *Strategy
	for _, st := range strategies {
		if !part(st).IsZero() {
			last = st
		}
	}
	if last == nil {
		return
	}
	processed := decimal.NewQuantity(0)
	for _, st := range strategies {
		p := part(st)
		if p.IsZero() {
			continue
		}
		if st == last {
			action(st, amount.Sub(processed))
			continue
		}
		share := amount.BigMulDiv(p, total)
		action(st, share)
		processed = processed.Add(share)
	}
}

// doubleSplit is split applied to two quantities in lock-step using the
// same per-strategy ratio, used for swap settlement (decrease one side,
// increase the other) and trade close settlement (unlock principal, apply
// P/L).
func (v *Vault) doubleSplit(amountA, amountB, total decimal.Quantity, part func(*Strategy) decimal.Quantity, actionA, actionB func(*Strategy, decimal.Quantity)) {
	if total.IsZero() {
		return
	}
	strategies := v.Strategies.Iter()
	var last *Strategy
	for _, st := range strategies {
		if !part(st).IsZero() {
			last = st
		}
	}
	if last == nil {
		return
	}
	processedA := decimal.NewQuantity(0)
	processedB := decimal.NewQuantity(0)
	for _, st := range strategies {
		p := part(st)
		if p.IsZero() {
			continue
		}
		if st == last {
			actionA(st, amountA.Sub(processedA))
			actionB(st, amountB.Sub(processedB))
			continue
		}
		shareA := amountA.BigMulDiv(p, total)
		shareB := amountB.BigMulDiv(p, total)
		actionA(st, shareA)
		actionB(st, shareB)
		processedA = processedA.Add(shareA)
		processedB = processedB.Add(shareB)
	}
}

func (v *Vault) lentTotal() decimal.Quantity {
	total := decimal.NewQuantity(0)
	for _, st := range v.Strategies.Iter() {
		if st.HasLend {
			total = total.Add(st.Lent)
		}
	}
	return total
}

func (v *Vault) soldTotal(which func(decimal.Balances) decimal.Quantity) decimal.Quantity {
	total := decimal.NewQuantity(0)
	for _, st := range v.Strategies.Iter() {
		if st.HasSwap {
			total = total.Add(which(st.Available))
		}
	}
	return total
}

func (v *Vault) tradedTotal(which func(decimal.Balances) decimal.Quantity) decimal.Quantity {
	total := decimal.NewQuantity(0)
	for _, st := range v.Strategies.Iter() {
		if st.HasTrade {
			total = total.Add(which(st.Traded))
		}
	}
	return total
}

func (v *Vault) settleLendFees(fee decimal.Quantity) {
	total := v.lentTotal()
	v.split(fee, total,
		func(st *Strategy) decimal.Quantity {
			if !st.HasLend {
				return decimal.Quantity{}
			}
			return st.Lent
		},
		func(st *Strategy, amt decimal.Quantity) { st.AccrueFee(amt, ServiceLend) },
	)
}

// Deposit adds liquidity to one strategy, deriving the opposite token's
// quantity from the strategy's existing ratio (or a 1:1-value split via the
// oracles if the strategy currently holds no liquidity), minting shares and
// upserting a LiquidityProvide position.
func (v *Vault) Deposit(vaultIndex uint16, strategyIndex int, token Token, amount decimal.Quantity, user *UserStatement, reg *Registry, now decimal.Time) error {
	v.Refresh(now)
	st, err := v.Strategies.GetChecked(strategyIndex)
	if err != nil {
		return err
	}
	if amount.IsZero() {
		return ErrNotEnoughBaseQuantity
	}

	bal := st.Balance()
	var baseQty, quoteQty decimal.Quantity
	switch token {
	case TokenBase:
		baseQty = amount
		if bal.Base.IsZero() {
			if v.BaseOracle == nil || v.QuoteOracle == nil {
				return ErrOracleNone
			}
			value := v.BaseOracle.CalculateValue(amount)
			quoteQty = v.QuoteOracle.CalculateQuantity(value)
		} else {
			quoteQty = amount.BigMulDiv(bal.Quote, bal.Base)
		}
	case TokenQuote:
		quoteQty = amount
		if bal.Quote.IsZero() {
			if v.BaseOracle == nil || v.QuoteOracle == nil {
				return ErrQuoteOracleNone
			}
			value := v.QuoteOracle.CalculateValue(amount)
			baseQty = v.BaseOracle.CalculateQuantity(value)
		} else {
			baseQty = amount.BigMulDiv(bal.Base, bal.Quote)
		}
	default:
		return ErrInvalidService
	}

	var shares decimal.Shares
	if st.TotalShares.IsZero() {
		shares = decimal.SharesFromUint64(baseQty.Get())
	} else {
		shares = st.TotalShares.GetChangeDown(baseQty, bal.Base)
	}

	st.Deposit(baseQty, quoteQty, shares, &v.Services)
	v.logger.Info("deposit settled", "request_id", NewRequestID(), "vault_id", v.ID,
		"strategy", strategyIndex, "base", baseQty.Get(), "quote", quoteQty.Get())

	key := LiquidityProvideKey(vaultIndex, uint16(strategyIndex))
	if existing, ok := user.Positions.FindMut(key); ok {
		existing.Shares = existing.Shares.Add(shares)
		existing.Amount = existing.Amount.Add(baseQty)
		existing.QuoteAmount = existing.QuoteAmount.Add(quoteQty)
	} else if err := user.Positions.Add(NewLiquidityProvidePosition(vaultIndex, uint16(strategyIndex), shares, baseQty, quoteQty)); err != nil {
		return err
	}

	return user.Refresh(reg)
}

// Withdraw pulls liquidity out of one strategy, burning shares and
// decrementing or deleting the user's LiquidityProvide position, then
// re-validates the user remains collateralized.
func (v *Vault) Withdraw(vaultIndex uint16, strategyIndex int, amountBase decimal.Quantity, user *UserStatement, reg *Registry, now decimal.Time) error {
	v.Refresh(now)
	st, err := v.Strategies.GetChecked(strategyIndex)
	if err != nil {
		return err
	}
	key := LiquidityProvideKey(vaultIndex, uint16(strategyIndex))
	idx, pos, ok := user.Positions.EnumerateFindMut(key)
	if !ok {
		return ErrPositionNotFound
	}

	bal := st.Balance()
	sharesToBurn := st.TotalShares.GetChangeUp(amountBase, bal.Base)
	if sharesToBurn.Cmp(pos.Shares) > 0 {
		sharesToBurn = pos.Shares
	}

	earnedBase := st.TotalShares.CalculateEarned(sharesToBurn, bal.Base)
	earnedQuote := st.TotalShares.CalculateEarned(sharesToBurn, bal.Quote)

	if err := st.Withdraw(earnedBase, earnedQuote, sharesToBurn, &v.Services); err != nil {
		return err
	}

	pos.Shares = pos.Shares.Sub(sharesToBurn)
	if pos.Amount.Gte(earnedBase) {
		pos.Amount = pos.Amount.Sub(earnedBase)
	}
	if pos.QuoteAmount.Gte(earnedQuote) {
		pos.QuoteAmount = pos.QuoteAmount.Sub(earnedQuote)
	}
	if pos.Shares.IsZero() {
		if err := user.Positions.Delete(idx); err != nil {
			return err
		}
	}

	if err := user.Refresh(reg); err != nil {
		return err
	}
	if !user.IsCollateralized() {
		return ErrUserAllowedBorrowExceeded
	}
	return nil
}

// Borrow draws down the Lend pool, charging the upfront fee, minting borrow
// shares, locking principal proportionally across lend-enabled strategies
// and upserting a Borrow position.
func (v *Vault) Borrow(vaultIndex uint16, amount decimal.Quantity, user *UserStatement, reg *Registry, now decimal.Time) error {
	v.Refresh(now)
	if v.Services.Lend == nil {
		return ErrLendServiceNone
	}
	if err := user.Refresh(reg); err != nil {
		return err
	}

	total, err := v.Services.Lend.CalculateBorrowQuantity(v.BaseOracle, amount, user.PermittedDebt())
	if err != nil {
		return err
	}

	minted, err := v.Services.Lend.Borrow(total)
	if err != nil {
		return err
	}

	lentTotal := v.lentTotal()
	if lentTotal.IsZero() {
		// No strategy has lent anything yet (first borrow against fresh
		// liquidity): fall back to distributing by available base so the
		// lock still lands somewhere.
		v.split(total, v.availableBaseTotal(),
			func(st *Strategy) decimal.Quantity {
				if !st.HasLend {
					return decimal.Quantity{}
				}
				return st.Available.Base
			},
			func(st *Strategy, amt decimal.Quantity) { _ = st.LockBase(amt, ServiceLend, &v.Services) },
		)
	} else {
		v.split(total, lentTotal,
			func(st *Strategy) decimal.Quantity {
				if !st.HasLend {
					return decimal.Quantity{}
				}
				return st.Lent
			},
			func(st *Strategy, amt decimal.Quantity) { _ = st.LockBase(amt, ServiceLend, &v.Services) },
		)
	}

	key := BorrowKey(vaultIndex)
	if existing, ok := user.Positions.FindMut(key); ok {
		existing.Shares = existing.Shares.Add(minted)
		existing.Amount = existing.Amount.Add(total)
	} else if err := user.Positions.Add(NewBorrowPosition(vaultIndex, minted, total)); err != nil {
		return err
	}

	v.metrics.recordBorrow(v.label(), total.Get())
	v.logger.Info("borrow settled", "request_id", NewRequestID(), "vault_id", v.ID, "quantity", total.Get())
	return user.Refresh(reg)
}

func (v *Vault) availableBaseTotal() decimal.Quantity {
	total := decimal.NewQuantity(0)
	for _, st := range v.Strategies.Iter() {
		if st.HasLend {
			total = total.Add(st.Available.Base)
		}
	}
	return total
}

// Repay settles a borrow position: burns shares, unlocks principal
// proportionally across lend-enabled strategies, and decrements or deletes
// the position.
func (v *Vault) Repay(vaultIndex uint16, amount decimal.Quantity, user *UserStatement, reg *Registry, now decimal.Time) error {
	v.Refresh(now)
	if v.Services.Lend == nil {
		return ErrLendServiceNone
	}
	key := BorrowKey(vaultIndex)
	idx, pos, ok := user.Positions.EnumerateFindMut(key)
	if !ok {
		return ErrPositionNotFound
	}

	unlockQty, burnedShares, err := v.Services.Lend.Repay(amount, pos.Amount, pos.Shares)
	if err != nil {
		return err
	}

	v.split(unlockQty, v.lentTotal(),
		func(st *Strategy) decimal.Quantity {
			if !st.HasLend {
				return decimal.Quantity{}
			}
			return st.Lent
		},
		func(st *Strategy, amt decimal.Quantity) { _ = st.UnlockBase(amt, ServiceLend, &v.Services) },
	)

	pos.Shares = pos.Shares.Sub(burnedShares)
	if pos.Amount.Gte(amount) {
		pos.Amount = pos.Amount.Sub(amount)
	} else {
		pos.Amount = decimal.Quantity{}
	}
	if pos.Shares.IsZero() {
		if err := user.Positions.Delete(idx); err != nil {
			return err
		}
	}

	v.metrics.recordRepay(v.label(), amount.Get())
	return user.Refresh(reg)
}

// Sell exchanges base for quote through the Swap service, distributing the
// balance change proportionally across swap-enabled strategies.
func (v *Vault) Sell(baseQty decimal.Quantity, now decimal.Time) (SwapOutcome, error) {
	v.Refresh(now)
	if v.Services.Swap == nil {
		return SwapOutcome{}, ErrSwapServiceNone
	}
	if v.BaseOracle == nil {
		return SwapOutcome{}, ErrOracleNone
	}
	if v.QuoteOracle == nil {
		return SwapOutcome{}, ErrQuoteOracleNone
	}

	outcome, err := v.Services.Swap.Sell(baseQty, v.BaseOracle, v.QuoteOracle)
	if err != nil {
		return SwapOutcome{}, err
	}

	v.exchangeToQuote(baseQty, outcome.PoolOut)
	v.metrics.recordSwap(v.label(), "sell", baseQty.Get())
	return outcome, nil
}

// Buy exchanges quote for base through the Swap service.
func (v *Vault) Buy(quoteQty decimal.Quantity, now decimal.Time) (SwapOutcome, error) {
	v.Refresh(now)
	if v.Services.Swap == nil {
		return SwapOutcome{}, ErrSwapServiceNone
	}
	if v.BaseOracle == nil {
		return SwapOutcome{}, ErrOracleNone
	}
	if v.QuoteOracle == nil {
		return SwapOutcome{}, ErrQuoteOracleNone
	}

	outcome, err := v.Services.Swap.Buy(quoteQty, v.BaseOracle, v.QuoteOracle)
	if err != nil {
		return SwapOutcome{}, err
	}

	v.exchangeToBase(quoteQty, outcome.PoolOut)
	v.metrics.recordSwap(v.label(), "buy", quoteQty.Get())
	return outcome, nil
}

func (v *Vault) exchangeToQuote(baseIn, quoteOut decimal.Quantity) {
	total := v.soldTotal(func(b decimal.Balances) decimal.Quantity { return b.Base })
	v.doubleSplit(baseIn, quoteOut, total,
		func(st *Strategy) decimal.Quantity {
			if !st.HasSwap {
				return decimal.Quantity{}
			}
			return st.Available.Base
		},
		func(st *Strategy, amt decimal.Quantity) { st.IncreaseBalanceBase(amt, &v.Services) },
		func(st *Strategy, amt decimal.Quantity) { _ = st.DecreaseBalanceQuote(amt, &v.Services) },
	)
}

func (v *Vault) exchangeToBase(quoteIn, baseOut decimal.Quantity) {
	total := v.soldTotal(func(b decimal.Balances) decimal.Quantity { return b.Quote })
	v.doubleSplit(quoteIn, baseOut, total,
		func(st *Strategy) decimal.Quantity {
			if !st.HasSwap {
				return decimal.Quantity{}
			}
			return st.Available.Quote
		},
		func(st *Strategy, amt decimal.Quantity) { st.IncreaseBalanceQuote(amt, &v.Services) },
		func(st *Strategy, amt decimal.Quantity) { _ = st.DecreaseBalanceBase(amt, &v.Services) },
	)
}

// OpenPosition opens a leveraged long or short, refusing to open a second
// position on the same side of the same vault, then locks the backing
// quantity proportionally across trade-enabled strategies.
func (v *Vault) OpenPosition(vaultIndex uint16, side Side, qty decimal.Quantity, user *UserStatement, reg *Registry, now decimal.Time) error {
	v.Refresh(now)
	if v.Services.Trade == nil {
		return ErrTradeServiceNone
	}
	key := TradingKey(vaultIndex, side)
	if _, ok := user.Positions.FindMut(key); ok {
		return ErrPositionAlreadyExists
	}
	if err := user.Refresh(reg); err != nil {
		return err
	}
	collateral := user.PermittedDebt()

	var receipt Receipt
	var err error
	switch side {
	case Long:
		if v.BaseOracle == nil {
			return ErrOracleNone
		}
		receipt, err = v.Services.Trade.OpenLong(qty, collateral, v.BaseOracle)
		if err != nil {
			return err
		}
		v.split(receipt.Locked, v.availableBaseTotalTrade(),
			func(st *Strategy) decimal.Quantity {
				if !st.HasTrade {
					return decimal.Quantity{}
				}
				return st.Available.Base
			},
			func(st *Strategy, amt decimal.Quantity) { _ = st.LockBase(amt, ServiceTrade, &v.Services) },
		)
	case Short:
		if v.BaseOracle == nil {
			return ErrOracleNone
		}
		if v.QuoteOracle == nil {
			return ErrQuoteOracleNone
		}
		receipt, err = v.Services.Trade.OpenShort(qty, collateral, v.BaseOracle, v.QuoteOracle)
		if err != nil {
			return err
		}
		v.split(receipt.Locked, v.availableQuoteTotalTrade(),
			func(st *Strategy) decimal.Quantity {
				if !st.HasTrade {
					return decimal.Quantity{}
				}
				return st.Available.Quote
			},
			func(st *Strategy, amt decimal.Quantity) { _ = st.LockQuote(amt, ServiceTrade, &v.Services) },
		)
	default:
		return ErrInvalidService
	}

	if err := user.Positions.Add(NewTradingPosition(vaultIndex, receipt)); err != nil {
		return err
	}
	sideLabel := "long"
	openValue := v.Services.Trade.OpenValue.Base
	if side == Short {
		sideLabel = "short"
		openValue = v.Services.Trade.OpenValue.Quote
	}
	v.metrics.setOpenInterest(v.label(), sideLabel, float64(openValue.BigInt().Int64())/1e9)
	return nil
}

func (v *Vault) availableBaseTotalTrade() decimal.Quantity {
	total := decimal.NewQuantity(0)
	for _, st := range v.Strategies.Iter() {
		if st.HasTrade {
			total = total.Add(st.Available.Base)
		}
	}
	return total
}

func (v *Vault) availableQuoteTotalTrade() decimal.Quantity {
	total := decimal.NewQuantity(0)
	for _, st := range v.Strategies.Iter() {
		if st.HasTrade {
			total = total.Add(st.Available.Quote)
		}
	}
	return total
}

// ClosePosition closes the user's open trade on this vault's given side,
// unlocking the receipt's locked principal and settling P/L proportionally
// across trade-enabled strategies, then deletes the position.
func (v *Vault) ClosePosition(vaultIndex uint16, side Side, user *UserStatement, reg *Registry, now decimal.Time) (CloseOutcome, error) {
	v.Refresh(now)
	if v.Services.Trade == nil {
		return CloseOutcome{}, ErrTradeServiceNone
	}
	key := TradingKey(vaultIndex, side)
	idx, pos, ok := user.Positions.EnumerateFindMut(key)
	if !ok {
		return CloseOutcome{}, ErrPositionNotFound
	}

	var outcome CloseOutcome
	switch side {
	case Long:
		if v.BaseOracle == nil {
			return CloseOutcome{}, ErrOracleNone
		}
		outcome = v.Services.Trade.CloseLong(pos.Receipt, v.BaseOracle)
		v.settleTradeClose(outcome, func(b decimal.Balances) decimal.Quantity { return b.Base },
			func(st *Strategy, amt decimal.Quantity) { _ = st.UnlockBase(amt, ServiceTrade, &v.Services) },
			func(st *Strategy, amt decimal.Quantity) { st.IncreaseBalanceBase(amt, &v.Services) },
			func(st *Strategy, amt decimal.Quantity) { _ = st.DecreaseBalanceBase(amt, &v.Services) },
		)
	case Short:
		if v.BaseOracle == nil {
			return CloseOutcome{}, ErrOracleNone
		}
		if v.QuoteOracle == nil {
			return CloseOutcome{}, ErrQuoteOracleNone
		}
		outcome = v.Services.Trade.CloseShort(pos.Receipt, v.BaseOracle, v.QuoteOracle)
		v.settleTradeClose(outcome, func(b decimal.Balances) decimal.Quantity { return b.Quote },
			func(st *Strategy, amt decimal.Quantity) { _ = st.UnlockQuote(amt, ServiceTrade, &v.Services) },
			func(st *Strategy, amt decimal.Quantity) { st.IncreaseBalanceQuote(amt, &v.Services) },
			func(st *Strategy, amt decimal.Quantity) { _ = st.DecreaseBalanceQuote(amt, &v.Services) },
		)
	default:
		return CloseOutcome{}, ErrInvalidService
	}

	if err := user.Positions.Delete(idx); err != nil {
		return CloseOutcome{}, err
	}
	sideLabel := "long"
	openValue := v.Services.Trade.OpenValue.Base
	if side == Short {
		sideLabel = "short"
		openValue = v.Services.Trade.OpenValue.Quote
	}
	v.metrics.setOpenInterest(v.label(), sideLabel, float64(openValue.BigInt().Int64())/1e9)
	return outcome, nil
}

// LiquidatePosition force-closes a position whose owner has fallen below the
// liquidation threshold, routing the settlement through ClosePosition and
// recording the event for the liquidation counter.
func (v *Vault) LiquidatePosition(vaultIndex uint16, side Side, user *UserStatement, reg *Registry, now decimal.Time) (CloseOutcome, error) {
	if err := user.Refresh(reg); err != nil {
		return CloseOutcome{}, err
	}
	if user.IsHealthy() {
		return CloseOutcome{}, ErrNotEligibleForLiquidation
	}
	outcome, err := v.ClosePosition(vaultIndex, side, user, reg, now)
	if err != nil {
		return CloseOutcome{}, err
	}
	v.metrics.recordLiquidation(v.label())
	return outcome, nil
}

// settleTradeClose unlocks the receipt's locked principal across
// trade-enabled strategies in proportion to each strategy's contribution,
// then applies the P/L as a balance decrease (pool pays the user a profit)
// or increase (user pays the pool a loss).
func (v *Vault) settleTradeClose(outcome CloseOutcome, tradedSide func(decimal.Balances) decimal.Quantity, unlock func(*Strategy, decimal.Quantity), gain func(*Strategy, decimal.Quantity), loss func(*Strategy, decimal.Quantity)) {
	total := v.tradedTotal(tradedSide)
	part := func(st *Strategy) decimal.Quantity {
		if !st.HasTrade {
			return decimal.Quantity{}
		}
		return tradedSide(st.Traded)
	}
	if outcome.Profit {
		v.doubleSplit(outcome.UnlockQuantity, outcome.Quantity, total, part, unlock, loss)
	} else {
		v.doubleSplit(outcome.UnlockQuantity, outcome.Quantity, total, part, unlock, gain)
	}
}

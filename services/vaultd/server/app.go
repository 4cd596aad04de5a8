// Package server holds vaultd's transport-agnostic application logic: it
// resolves a request onto a live vault and user statement, calls into
// native/vault, then persists the settled state and an audit ledger entry.
// httpapi is a thin JSON-over-HTTP adapter in front of this package.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vaultcore/decimal"
	"vaultcore/native/common"
	"vaultcore/native/vault"
	"vaultcore/storage/ledger"
	"vaultcore/storage/vaultstore"
)

// PauseView reports whether a named service ("lend", "swap", "trade") has
// been administratively paused; config.Config implements this.
type PauseView = common.PauseView

// App is vaultd's application core: a vault registry, an in-memory set of
// live user statements (the working set a running process actually touches,
// lazily loaded from vaultstore), durable storage, and an optional audit
// ledger.
type App struct {
	Registry *vault.Registry
	Store    *vaultstore.Store
	Ledger   *ledger.Store
	Pauses   PauseView
	Logger   *slog.Logger

	// BorrowQuota bounds how much a single user can draw across every vault
	// within one quota epoch; the zero value (all fields 0) disables the
	// check entirely.
	BorrowQuota common.Quota
	quota       *memQuotaStore

	mu    sync.Mutex
	users map[string]*vault.UserStatement
}

// New constructs an App over an already-populated registry.
func New(reg *vault.Registry, store *vaultstore.Store, ledgerStore *ledger.Store, pauses PauseView, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		Registry: reg,
		Store:    store,
		Ledger:   ledgerStore,
		Pauses:   pauses,
		Logger:   logger,
		quota:    newMemQuotaStore(),
		users:    make(map[string]*vault.UserStatement),
	}
}

// checkBorrowQuota enforces BorrowQuota for userKey, a no-op when the quota
// is unset. epochSeconds of 0 falls back to a one-hour epoch.
func (a *App) checkBorrowQuota(userKey string, amount uint64, now decimal.Time) error {
	if a.BorrowQuota.MaxRequestsPerMin == 0 && a.BorrowQuota.MaxNHBPerEpoch == 0 {
		return nil
	}
	epochSeconds := a.BorrowQuota.EpochSeconds
	if epochSeconds == 0 {
		epochSeconds = 3600
	}
	epoch := uint64(now) / uint64(epochSeconds)
	_, err := common.Apply(a.quota, "borrow", epoch, []byte(userKey), a.BorrowQuota, 1, amount)
	return err
}

// userStatement returns the live statement for userKey, loading it from the
// durable store on first touch within this process.
func (a *App) userStatement(userKey string) *vault.UserStatement {
	a.mu.Lock()
	defer a.mu.Unlock()
	if u, ok := a.users[userKey]; ok {
		return u
	}
	u := &vault.UserStatement{}
	if a.Store != nil {
		if loaded, err := a.Store.GetStatement(userKey); err == nil {
			u = loaded
		}
	}
	a.users[userKey] = u
	return u
}

func (a *App) persistUser(userKey string, u *vault.UserStatement) {
	if a.Store == nil {
		return
	}
	if err := a.Store.PutStatement(userKey, u); err != nil {
		a.Logger.Warn("persist user statement failed", "user", userKey, "error", err)
	}
}

func (a *App) persistVault(index uint16, v *vault.Vault) {
	if a.Store == nil {
		return
	}
	if err := a.Store.PutVault(index, v); err != nil {
		a.Logger.Warn("persist vault failed", "vault_index", index, "error", err)
	}
}

func (a *App) guard(service string) error {
	return common.Guard(a.Pauses, service)
}

func (a *App) record(ctx context.Context, requestID string, vaultID uint64, userKey, op string, baseDelta, quoteDelta int64, fee uint64, outcome string, now time.Time) {
	if a.Ledger == nil {
		return
	}
	entry := ledger.Entry{
		RequestID:  requestID,
		VaultID:    vaultID,
		UserKey:    userKey,
		Operation:  op,
		BaseDelta:  baseDelta,
		QuoteDelta: quoteDelta,
		FeeAmount:  fee,
		Outcome:    outcome,
		SettledAt:  now,
	}
	if err := a.Ledger.Record(ctx, entry); err != nil {
		a.Logger.Warn("ledger record failed", "request_id", requestID, "error", err)
	}
}

// DepositRequest is the caller-supplied input to Deposit.
type DepositRequest struct {
	UserKey       string
	VaultIndex    uint16
	StrategyIndex int
	Token         vault.Token
	Amount        uint64
	Now           decimal.Time
}

// Deposit adds liquidity to one strategy on behalf of a user.
func (a *App) Deposit(ctx context.Context, req DepositRequest) error {
	if err := a.guard("lend"); err != nil {
		return err
	}
	v, err := a.Registry.Get(req.VaultIndex)
	if err != nil {
		return err
	}
	user := a.userStatement(req.UserKey)
	requestID := vault.NewRequestID()
	err = v.Deposit(req.VaultIndex, req.StrategyIndex, req.Token, decimal.NewQuantity(req.Amount), user, a.Registry, req.Now)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	a.record(ctx, requestID, v.ID, req.UserKey, "deposit", int64(req.Amount), 0, 0, outcome, time.Unix(int64(req.Now), 0))
	if err != nil {
		return err
	}
	a.persistUser(req.UserKey, user)
	a.persistVault(req.VaultIndex, v)
	return nil
}

// WithdrawRequest is the caller-supplied input to Withdraw.
type WithdrawRequest struct {
	UserKey       string
	VaultIndex    uint16
	StrategyIndex int
	AmountBase    uint64
	Now           decimal.Time
}

// Withdraw pulls liquidity out of one strategy on behalf of a user.
func (a *App) Withdraw(ctx context.Context, req WithdrawRequest) error {
	if err := a.guard("lend"); err != nil {
		return err
	}
	v, err := a.Registry.Get(req.VaultIndex)
	if err != nil {
		return err
	}
	user := a.userStatement(req.UserKey)
	requestID := vault.NewRequestID()
	err = v.Withdraw(req.VaultIndex, req.StrategyIndex, decimal.NewQuantity(req.AmountBase), user, a.Registry, req.Now)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	a.record(ctx, requestID, v.ID, req.UserKey, "withdraw", -int64(req.AmountBase), 0, 0, outcome, time.Unix(int64(req.Now), 0))
	if err != nil {
		return err
	}
	a.persistUser(req.UserKey, user)
	a.persistVault(req.VaultIndex, v)
	return nil
}

// BorrowRequest is the caller-supplied input to Borrow.
type BorrowRequest struct {
	UserKey    string
	VaultIndex uint16
	Amount     uint64
	Now        decimal.Time
}

// Borrow draws down a vault's Lend pool on behalf of a user.
func (a *App) Borrow(ctx context.Context, req BorrowRequest) error {
	if err := a.guard("lend"); err != nil {
		return err
	}
	if err := a.checkBorrowQuota(req.UserKey, req.Amount, req.Now); err != nil {
		return err
	}
	v, err := a.Registry.Get(req.VaultIndex)
	if err != nil {
		return err
	}
	user := a.userStatement(req.UserKey)
	requestID := vault.NewRequestID()
	err = v.Borrow(req.VaultIndex, decimal.NewQuantity(req.Amount), user, a.Registry, req.Now)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	a.record(ctx, requestID, v.ID, req.UserKey, "borrow", int64(req.Amount), 0, 0, outcome, time.Unix(int64(req.Now), 0))
	if err != nil {
		return err
	}
	a.persistUser(req.UserKey, user)
	a.persistVault(req.VaultIndex, v)
	return nil
}

// RepayRequest is the caller-supplied input to Repay.
type RepayRequest struct {
	UserKey    string
	VaultIndex uint16
	Amount     uint64
	Now        decimal.Time
}

// Repay settles a portion of a user's outstanding borrow.
func (a *App) Repay(ctx context.Context, req RepayRequest) error {
	if err := a.guard("lend"); err != nil {
		return err
	}
	v, err := a.Registry.Get(req.VaultIndex)
	if err != nil {
		return err
	}
	user := a.userStatement(req.UserKey)
	requestID := vault.NewRequestID()
	err = v.Repay(req.VaultIndex, decimal.NewQuantity(req.Amount), user, a.Registry, req.Now)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	a.record(ctx, requestID, v.ID, req.UserKey, "repay", -int64(req.Amount), 0, 0, outcome, time.Unix(int64(req.Now), 0))
	if err != nil {
		return err
	}
	a.persistUser(req.UserKey, user)
	a.persistVault(req.VaultIndex, v)
	return nil
}

// SwapRequest is the caller-supplied input to Sell/Buy.
type SwapRequest struct {
	VaultIndex uint16
	Quantity   uint64
	Now        decimal.Time
}

// Sell exchanges base for quote through a vault's Swap service.
func (a *App) Sell(ctx context.Context, req SwapRequest) (vault.SwapOutcome, error) {
	if err := a.guard("swap"); err != nil {
		return vault.SwapOutcome{}, err
	}
	v, err := a.Registry.Get(req.VaultIndex)
	if err != nil {
		return vault.SwapOutcome{}, err
	}
	requestID := vault.NewRequestID()
	outcome, err := v.Sell(decimal.NewQuantity(req.Quantity), req.Now)
	status := "ok"
	if err != nil {
		status = "error"
	}
	a.record(ctx, requestID, v.ID, "", "sell", int64(req.Quantity), -int64(outcome.PoolOut.Get()), outcome.Fee.Get(), status, time.Unix(int64(req.Now), 0))
	if err != nil {
		return vault.SwapOutcome{}, err
	}
	a.persistVault(req.VaultIndex, v)
	return outcome, nil
}

// Buy exchanges quote for base through a vault's Swap service.
func (a *App) Buy(ctx context.Context, req SwapRequest) (vault.SwapOutcome, error) {
	if err := a.guard("swap"); err != nil {
		return vault.SwapOutcome{}, err
	}
	v, err := a.Registry.Get(req.VaultIndex)
	if err != nil {
		return vault.SwapOutcome{}, err
	}
	requestID := vault.NewRequestID()
	outcome, err := v.Buy(decimal.NewQuantity(req.Quantity), req.Now)
	status := "ok"
	if err != nil {
		status = "error"
	}
	a.record(ctx, requestID, v.ID, "", "buy", -int64(outcome.PoolOut.Get()), int64(req.Quantity), outcome.Fee.Get(), status, time.Unix(int64(req.Now), 0))
	if err != nil {
		return vault.SwapOutcome{}, err
	}
	a.persistVault(req.VaultIndex, v)
	return outcome, nil
}

// OpenPositionRequest is the caller-supplied input to OpenPosition.
type OpenPositionRequest struct {
	UserKey    string
	VaultIndex uint16
	Side       vault.Side
	Quantity   uint64
	Now        decimal.Time
}

// OpenPosition opens a leveraged long or short on behalf of a user.
func (a *App) OpenPosition(ctx context.Context, req OpenPositionRequest) error {
	if err := a.guard("trade"); err != nil {
		return err
	}
	v, err := a.Registry.Get(req.VaultIndex)
	if err != nil {
		return err
	}
	user := a.userStatement(req.UserKey)
	requestID := vault.NewRequestID()
	err = v.OpenPosition(req.VaultIndex, req.Side, decimal.NewQuantity(req.Quantity), user, a.Registry, req.Now)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	a.record(ctx, requestID, v.ID, req.UserKey, "open_position", int64(req.Quantity), 0, 0, outcome, time.Unix(int64(req.Now), 0))
	if err != nil {
		return err
	}
	a.persistUser(req.UserKey, user)
	a.persistVault(req.VaultIndex, v)
	return nil
}

// ClosePositionRequest is the caller-supplied input to ClosePosition.
type ClosePositionRequest struct {
	UserKey    string
	VaultIndex uint16
	Side       vault.Side
	Now        decimal.Time
}

// ClosePosition closes a user's open trade on the given vault/side.
func (a *App) ClosePosition(ctx context.Context, req ClosePositionRequest) (vault.CloseOutcome, error) {
	if err := a.guard("trade"); err != nil {
		return vault.CloseOutcome{}, err
	}
	v, err := a.Registry.Get(req.VaultIndex)
	if err != nil {
		return vault.CloseOutcome{}, err
	}
	user := a.userStatement(req.UserKey)
	requestID := vault.NewRequestID()
	outcome, err := v.ClosePosition(req.VaultIndex, req.Side, user, a.Registry, req.Now)
	status := "ok"
	if err != nil {
		status = "error"
	}
	delta := int64(outcome.Quantity.Get())
	if !outcome.Profit {
		delta = -delta
	}
	a.record(ctx, requestID, v.ID, req.UserKey, "close_position", delta, 0, 0, status, time.Unix(int64(req.Now), 0))
	if err != nil {
		return vault.CloseOutcome{}, err
	}
	a.persistUser(req.UserKey, user)
	a.persistVault(req.VaultIndex, v)
	return outcome, nil
}

// LiquidatePosition force-closes a position whose owner has fallen below
// the liquidation threshold. The caller (a liquidator bot) supplies the
// owner's key; the liquidator's own incentive/reward accounting is a
// caller concern outside this core.
func (a *App) LiquidatePosition(ctx context.Context, req ClosePositionRequest) (vault.CloseOutcome, error) {
	v, err := a.Registry.Get(req.VaultIndex)
	if err != nil {
		return vault.CloseOutcome{}, err
	}
	user := a.userStatement(req.UserKey)
	requestID := vault.NewRequestID()
	outcome, err := v.LiquidatePosition(req.VaultIndex, req.Side, user, a.Registry, req.Now)
	status := "ok"
	if err != nil {
		status = "error"
	}
	delta := int64(outcome.Quantity.Get())
	if !outcome.Profit {
		delta = -delta
	}
	a.record(ctx, requestID, v.ID, req.UserKey, "liquidate", delta, 0, 0, status, time.Unix(int64(req.Now), 0))
	if err != nil {
		return vault.CloseOutcome{}, err
	}
	a.persistUser(req.UserKey, user)
	a.persistVault(req.VaultIndex, v)
	return outcome, nil
}

// Statement returns the live UserStatement for userKey (after refreshing
// its cached aggregates against the registry), used by read-only
// statement/health endpoints.
func (a *App) Statement(userKey string) (*vault.UserStatement, error) {
	user := a.userStatement(userKey)
	if err := user.Refresh(a.Registry); err != nil {
		return nil, fmt.Errorf("refresh user statement: %w", err)
	}
	return user, nil
}

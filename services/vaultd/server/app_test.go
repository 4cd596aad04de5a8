package server_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"vaultcore/decimal"
	"vaultcore/feecurve"
	"vaultcore/native/common"
	"vaultcore/native/vault"
	"vaultcore/services/vaultd/server"
	"vaultcore/storage"
	"vaultcore/storage/vaultstore"
)

type staticPauses struct {
	paused map[string]bool
}

func (p staticPauses) IsPaused(module string) bool { return p.paused[module] }

func newLendingVault(t *testing.T, now decimal.Time) (*vault.Registry, uint16) {
	t.Helper()
	v := vault.New(1, nil)
	require.NoError(t, v.EnableOracle(vault.TokenBase, 6, decimal.NewPrice(1_000_000_000), decimal.NewPrice(1_000_000), decimal.NewPrice(50_000_000), now))
	require.NoError(t, v.EnableOracle(vault.TokenQuote, 6, decimal.NewPrice(1_000_000_000), decimal.NewPrice(1_000_000), decimal.NewPrice(50_000_000), now))

	curve := (&feecurve.FeeCurve{}).AddConstantFee(decimal.NewFraction(10_000), decimal.NewFraction(1_000_000))
	require.NoError(t, v.EnableLending(*curve, decimal.NewFraction(800_000), decimal.NewQuantity(1_000_000_000), now, now))

	idx, err := v.AddStrategy(true, false, false, decimal.NewFraction(800_000), decimal.NewFraction(900_000))
	require.NoError(t, err)
	require.Equal(t, 0, idx)

	reg := &vault.Registry{}
	vaultIndex := reg.Add(v)
	return reg, vaultIndex
}

func newTestApp(t *testing.T, reg *vault.Registry, pauses server.PauseView) *server.App {
	t.Helper()
	store := vaultstore.New(storage.NewMemDB())
	return server.New(reg, store, nil, pauses, nil)
}

func TestDepositThenBorrowAndRepay(t *testing.T) {
	now := decimal.Time(1_700_000_000)
	reg, vaultIndex := newLendingVault(t, now)
	app := newTestApp(t, reg, nil)
	ctx := context.Background()

	err := app.Deposit(ctx, server.DepositRequest{
		UserKey:       "alice",
		VaultIndex:    vaultIndex,
		StrategyIndex: 0,
		Token:         vault.TokenBase,
		Amount:        1_000_000,
		Now:           now,
	})
	require.NoError(t, err)

	err = app.Borrow(ctx, server.BorrowRequest{
		UserKey:    "alice",
		VaultIndex: vaultIndex,
		Amount:     100_000,
		Now:        now,
	})
	require.NoError(t, err)

	err = app.Repay(ctx, server.RepayRequest{
		UserKey:    "alice",
		VaultIndex: vaultIndex,
		Amount:     100_000,
		Now:        now,
	})
	require.NoError(t, err)

	st, err := app.Statement("alice")
	require.NoError(t, err)
	require.True(t, st.IsHealthy())
}

func TestDepositRejectsZeroAmount(t *testing.T) {
	now := decimal.Time(1_700_000_000)
	reg, vaultIndex := newLendingVault(t, now)
	app := newTestApp(t, reg, nil)

	err := app.Deposit(context.Background(), server.DepositRequest{
		UserKey:       "bob",
		VaultIndex:    vaultIndex,
		StrategyIndex: 0,
		Token:         vault.TokenBase,
		Amount:        0,
		Now:           now,
	})
	require.ErrorIs(t, err, vault.ErrNotEnoughBaseQuantity)
}

func TestGuardRejectsPausedService(t *testing.T) {
	now := decimal.Time(1_700_000_000)
	reg, vaultIndex := newLendingVault(t, now)
	app := newTestApp(t, reg, staticPauses{paused: map[string]bool{"lend": true}})

	err := app.Deposit(context.Background(), server.DepositRequest{
		UserKey:       "carol",
		VaultIndex:    vaultIndex,
		StrategyIndex: 0,
		Token:         vault.TokenBase,
		Amount:        1_000,
		Now:           now,
	})
	require.ErrorIs(t, err, common.ErrModulePaused)
}

func TestBorrowRejectsUnknownVault(t *testing.T) {
	now := decimal.Time(1_700_000_000)
	reg, _ := newLendingVault(t, now)
	app := newTestApp(t, reg, nil)

	err := app.Borrow(context.Background(), server.BorrowRequest{
		UserKey:    "dave",
		VaultIndex: 99,
		Amount:     1_000,
		Now:        now,
	})
	require.ErrorIs(t, err, vault.ErrNoVaultOnIndex)
}

package vault

import "vaultcore/decimal"

// Registry resolves a vault_index into the Vault it names, the indirection
// every user operation goes through: a UserStatement's positions only ever
// carry a VaultIndex, never a direct pointer, so a position can be
// round-tripped through storage without pinning a live Vault behind it.
type Registry struct {
	vaults []*Vault
}

// Add appends v and returns the index it was assigned.
func (r *Registry) Add(v *Vault) uint16 {
	r.vaults = append(r.vaults, v)
	return uint16(len(r.vaults) - 1)
}

// Get resolves a vault_index, failing if it is out of range.
func (r *Registry) Get(index uint16) (*Vault, error) {
	if int(index) >= len(r.vaults) {
		return nil, ErrNoVaultOnIndex
	}
	return r.vaults[index], nil
}

// CollateralTiers holds the three discount levels a LiquidityProvide
// position's value is aggregated into: the raw value, the value gated by
// each strategy's collateral ratio (how much of it can back a borrow or
// trade), and the value gated by each strategy's liquidation threshold (the
// floor below which the user is unhealthy).
type CollateralTiers struct {
	Exact               decimal.Value
	WithCollateralRatio decimal.Value
	Unhealthy           decimal.Value
}

// UserStatement is the bounded set of positions a single user holds across
// every vault, plus the aggregate values Refresh caches between calls.
type UserStatement struct {
	Positions Positions

	Liabilities decimal.Value
	Collateral  CollateralTiers
}

// Refresh recomputes Liabilities and Collateral from scratch by walking
// every position and consulting the vault each references. It must be
// called (and is, by every vault orchestration entry point) before any
// permission check that reads these cached aggregates.
func (u *UserStatement) Refresh(reg *Registry) error {
	liabilities := decimal.ZeroValue()
	exact := decimal.ZeroValue()
	withRatio := decimal.ZeroValue()
	unhealthy := decimal.ZeroValue()

	for _, pos := range u.Positions.Iter() {
		v, err := reg.Get(pos.VaultIndex)
		if err != nil {
			return err
		}
		switch pos.Kind {
		case PositionBorrow:
			if v.Services.Lend == nil {
				return ErrLendServiceNone
			}
			owed := v.Services.Lend.BorrowShares.CalculateOwed(pos.Shares, v.Services.Lend.Borrowed)
			if v.BaseOracle == nil {
				return ErrOracleNone
			}
			liabilities = liabilities.Add(v.BaseOracle.CalculateNeededValue(owed))
		case PositionLiquidityProvide:
			st, err := v.Strategies.Get(int(pos.StrategyIndex))
			if err != nil {
				return err
			}
			bal := st.Balance()
			var baseAmt, quoteAmt decimal.Quantity
			if !st.TotalShares.IsZero() {
				baseAmt = st.TotalShares.CalculateEarned(pos.Shares, bal.Base)
				quoteAmt = st.TotalShares.CalculateEarned(pos.Shares, bal.Quote)
			}
			if v.BaseOracle == nil || v.QuoteOracle == nil {
				return ErrOracleNone
			}
			value := v.BaseOracle.CalculateValue(baseAmt).Add(v.QuoteOracle.CalculateValue(quoteAmt))
			exact = exact.Add(value)
			withRatio = withRatio.Add(value.MulFractionDown(st.CollateralRatio))
			unhealthy = unhealthy.Add(value.MulFractionDown(st.LiquidationThreshold))
		case PositionTrading:
			// Trading positions carry locked collateral inside the Trade
			// engine itself; they neither add liability nor collateral to
			// the aggregate borrow/LP gating computed here.
		}
	}

	u.Liabilities = liabilities
	u.Collateral = CollateralTiers{Exact: exact, WithCollateralRatio: withRatio, Unhealthy: unhealthy}
	return nil
}

// PermittedDebt is the headroom a user may still borrow or lock as trading
// collateral: collateral at the collateral-ratio tier minus current
// liabilities, floored at zero.
func (u *UserStatement) PermittedDebt() decimal.Value {
	if u.Liabilities.Cmp(u.Collateral.WithCollateralRatio) >= 0 {
		return decimal.ZeroValue()
	}
	return u.Collateral.WithCollateralRatio.Sub(u.Liabilities)
}

// IsCollateralized reports whether liabilities are covered at the
// collateral-ratio tier.
func (u *UserStatement) IsCollateralized() bool {
	return u.Liabilities.Cmp(u.Collateral.WithCollateralRatio) <= 0
}

// IsHealthy reports whether liabilities are covered at the (looser)
// liquidation-threshold tier; false means the position set is eligible for
// liquidation.
func (u *UserStatement) IsHealthy() bool {
	return u.Liabilities.Cmp(u.Collateral.Unhealthy) <= 0
}

package config

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"vaultcore/decimal"
	"vaultcore/feecurve"
	"vaultcore/native/vault"
)

// VaultSetConfig is a declarative bootstrap manifest for every vault a
// vaultd instance should create at startup: its oracle feeds, enabled
// services and strategies, a YAML sibling to Config's TOML runtime
// settings, following the pack's mixed toml/yaml convention.
type VaultSetConfig struct {
	Vaults []VaultSpec `yaml:"vaults"`
}

// VaultSpec describes one vault to bootstrap.
type VaultSpec struct {
	Name  string       `yaml:"name"`
	Base  OracleSpec   `yaml:"base"`
	Quote OracleSpec   `yaml:"quote"`
	Lend  *LendSpec    `yaml:"lend,omitempty"`
	Swap  *SwapSpec    `yaml:"swap,omitempty"`
	Trade *TradeSpec   `yaml:"trade,omitempty"`

	Strategies []StrategySpec `yaml:"strategies"`
}

// OracleSpec seeds a vault side's oracle with a decimals count, an initial
// price/confidence and a spread limit, each given as a plain decimal number
// that Build converts to a scale-9 Price.
type OracleSpec struct {
	Decimals    int     `yaml:"decimals"`
	Price       float64 `yaml:"price"`
	Confidence  float64 `yaml:"confidence"`
	SpreadLimit float64 `yaml:"spread_limit"`
}

// LendSpec configures a vault's Lend service.
type LendSpec struct {
	MaxUtilization float64 `yaml:"max_utilization"`
	BorrowLimit    uint64  `yaml:"borrow_limit"`
	InitialFeeTime uint32  `yaml:"initial_fee_time_secs"`
	FeeSegments    []FeeSegmentSpec `yaml:"fee_curve"`
}

// SwapSpec configures a vault's Swap service.
type SwapSpec struct {
	KeptFee        float64          `yaml:"kept_fee"`
	SellingCurve   []FeeSegmentSpec `yaml:"selling_fee_curve"`
	BuyingCurve    []FeeSegmentSpec `yaml:"buying_fee_curve"`
}

// TradeSpec configures a vault's Trade service.
type TradeSpec struct {
	OpenFee              float64 `yaml:"open_fee"`
	MaxLeverage          float64 `yaml:"max_leverage"`
	CollateralRatio      float64 `yaml:"collateral_ratio"`
	LiquidationThreshold float64 `yaml:"liquidation_threshold"`
}

// FeeSegmentSpec describes one piecewise segment of a fee curve.
type FeeSegmentSpec struct {
	Kind       string  `yaml:"kind"` // "constant" or "linear"
	StartUtil  float64 `yaml:"start_utilization"`
	EndUtil    float64 `yaml:"end_utilization"`
	StartFee   float64 `yaml:"start_fee"`
	EndFee     float64 `yaml:"end_fee"`
}

// StrategySpec declares one strategy to add to a vault at bootstrap.
type StrategySpec struct {
	HasLend              bool    `yaml:"has_lend"`
	HasSwap              bool    `yaml:"has_swap"`
	HasTrade             bool    `yaml:"has_trade"`
	CollateralRatio      float64 `yaml:"collateral_ratio"`
	LiquidationThreshold float64 `yaml:"liquidation_threshold"`
}

// LoadVaultSet reads and parses a vault-set manifest from path.
func LoadVaultSet(path string) (*VaultSetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &VaultSetConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the manifest back out as YAML, used by admin tooling that
// edits a running vault set and persists the result.
func (c *VaultSetConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func buildCurve(segments []FeeSegmentSpec) feecurve.FeeCurve {
	var curve feecurve.FeeCurve
	for _, seg := range segments {
		bound := decimal.FractionFromScale(uint64(seg.EndUtil*1_000_000), 6)
		switch seg.Kind {
		case "linear":
			a := decimal.FractionFromScale(uint64((seg.EndFee-seg.StartFee)*1_000_000), 6)
			b := decimal.FractionFromScale(uint64(seg.StartFee*1_000_000), 6)
			curve.AddLinearFee(a, b, bound)
		default:
			curve.AddConstantFee(decimal.FractionFromScale(uint64(seg.StartFee*1_000_000), 6), bound)
		}
	}
	return curve
}

// Build constructs a live vault.Registry from the manifest: one vault per
// VaultSpec with its oracles, enabled services and strategies wired up,
// ready for vaultd to serve traffic against.
func (c *VaultSetConfig) Build(logger *slog.Logger, now decimal.Time) (*vault.Registry, error) {
	reg := &vault.Registry{}
	for i, spec := range c.Vaults {
		v := vault.New(uint64(i), logger)

		basePrice := decimal.PriceFromScale(uint64(spec.Base.Price*1e9), 9)
		baseConf := decimal.PriceFromScale(uint64(spec.Base.Confidence*1e9), 9)
		baseSpread := decimal.PriceFromScale(uint64(spec.Base.SpreadLimit*1e9), 9)
		if err := v.EnableOracle(vault.TokenBase, spec.Base.Decimals, basePrice, baseConf, baseSpread, now); err != nil {
			return nil, err
		}

		quotePrice := decimal.PriceFromScale(uint64(spec.Quote.Price*1e9), 9)
		quoteConf := decimal.PriceFromScale(uint64(spec.Quote.Confidence*1e9), 9)
		quoteSpread := decimal.PriceFromScale(uint64(spec.Quote.SpreadLimit*1e9), 9)
		if err := v.EnableOracle(vault.TokenQuote, spec.Quote.Decimals, quotePrice, quoteConf, quoteSpread, now); err != nil {
			return nil, err
		}

		if spec.Lend != nil {
			curve := buildCurve(spec.Lend.FeeSegments)
			maxUtil := decimal.FractionFromScale(uint64(spec.Lend.MaxUtilization*1_000_000), 6)
			limit := decimal.NewQuantity(spec.Lend.BorrowLimit)
			if err := v.EnableLending(curve, maxUtil, limit, spec.Lend.InitialFeeTime, now); err != nil {
				return nil, err
			}
		}
		if spec.Swap != nil {
			sellCurve := buildCurve(spec.Swap.SellingCurve)
			buyCurve := buildCurve(spec.Swap.BuyingCurve)
			keptFee := decimal.FractionFromScale(uint64(spec.Swap.KeptFee*1_000_000), 6)
			if err := v.EnableSwapping(sellCurve, buyCurve, keptFee); err != nil {
				return nil, err
			}
		}
		if spec.Trade != nil {
			openFee := decimal.FractionFromScale(uint64(spec.Trade.OpenFee*1_000_000), 6)
			maxLeverage := decimal.FractionFromScale(uint64(spec.Trade.MaxLeverage*1_000_000), 6)
			collateralRatio := decimal.FractionFromScale(uint64(spec.Trade.CollateralRatio*1_000_000), 6)
			liqThreshold := decimal.FractionFromScale(uint64(spec.Trade.LiquidationThreshold*1_000_000), 6)
			if err := v.EnableTrading(openFee, maxLeverage, collateralRatio, liqThreshold, now); err != nil {
				return nil, err
			}
		}

		for _, st := range spec.Strategies {
			collateralRatio := decimal.FractionFromScale(uint64(st.CollateralRatio*1_000_000), 6)
			liqThreshold := decimal.FractionFromScale(uint64(st.LiquidationThreshold*1_000_000), 6)
			if _, err := v.AddStrategy(st.HasLend, st.HasSwap, st.HasTrade, collateralRatio, liqThreshold); err != nil {
				return nil, err
			}
		}

		reg.Add(v)
	}
	return reg, nil
}

// Package config loads vaultd's runtime configuration (listen addresses,
// the data directory, risk settings and pause flags) and the YAML
// vault-set manifest that vaults are bootstrapped from.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config is vaultd's top-level runtime configuration, toml-tagged and
// loaded with the same Load/EnsureDefaults/Clone pattern the teacher's node
// config uses.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	RPCAddress    string `toml:"RPCAddress"`
	DataDir       string `toml:"DataDir"`
	VaultSetPath  string `toml:"VaultSetPath"`

	// StorageBackend selects the embedded key-value store vaultd opens at
	// DataDir: "leveldb" (default) or "bolt" for a single-file store that's
	// easier to snapshot for backup.
	StorageBackend string `toml:"StorageBackend"`

	RateLimitPerMin  int      `toml:"RateLimitPerMin"`
	AllowedClientCNs []string `toml:"AllowedClientCNs"`
	TLSCertFile      string   `toml:"TLSCertFile"`
	TLSKeyFile       string   `toml:"TLSKeyFile"`

	Risk RiskDefaults `toml:"Risk"`
}

// RiskDefaults holds conservative fee, borrow-cap, leverage and oracle
// spread settings. vaultd reads BorrowLimit (as the per-user borrow quota
// cap) and Paused; vaults are bootstrapped from the VaultSetConfig manifest
// alone, and the other fields are not applied to any vault.
type RiskDefaults struct {
	MaxUtilization       float64 `toml:"MaxUtilization"`
	BorrowLimit          uint64  `toml:"BorrowLimit"`
	InitialFeeTimeSecs   uint32  `toml:"InitialFeeTimeSecs"`
	OracleSpreadLimit    float64 `toml:"OracleSpreadLimit"`
	CollateralRatio      float64 `toml:"CollateralRatio"`
	LiquidationThreshold float64 `toml:"LiquidationThreshold"`
	MaxLeverage          float64 `toml:"MaxLeverage"`
	OpenFee              float64 `toml:"OpenFee"`
	KeptFee              float64 `toml:"KeptFee"`

	// Paused holds the set of service names ("lend", "swap", "trade") an
	// operator has paused across every vault, consulted by
	// native/common.Guard before vaultd dispatches an operation.
	Paused []string `toml:"Paused"`
}

// EnsureDefaults fills zero-valued fields that have a safe default, called
// after decoding a possibly-partial config file. VaultSetPath, the TLS
// settings, AllowedClientCNs and Risk's OpenFee, KeptFee and Paused have no
// default and are left as decoded.
func (c *Config) EnsureDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = ":6101"
	}
	if c.RPCAddress == "" {
		c.RPCAddress = ":8090"
	}
	if c.DataDir == "" {
		c.DataDir = "./vaultd-data"
	}
	if c.StorageBackend == "" {
		c.StorageBackend = "leveldb"
	}
	if c.RateLimitPerMin == 0 {
		c.RateLimitPerMin = 600
	}
	c.Risk.ensureDefaults()
}

func (r *RiskDefaults) ensureDefaults() {
	if r.MaxUtilization == 0 {
		r.MaxUtilization = 0.8
	}
	if r.BorrowLimit == 0 {
		r.BorrowLimit = 1_000_000_000
	}
	if r.InitialFeeTimeSecs == 0 {
		r.InitialFeeTimeSecs = 3600
	}
	if r.OracleSpreadLimit == 0 {
		r.OracleSpreadLimit = 0.02
	}
	if r.CollateralRatio == 0 {
		r.CollateralRatio = 0.8
	}
	if r.LiquidationThreshold == 0 {
		r.LiquidationThreshold = 0.9
	}
	if r.MaxLeverage == 0 {
		r.MaxLeverage = 5
	}
}

// Clone returns a deep copy of c, used by callers that hand the config to
// a goroutine that must not observe later mutation.
func (c *Config) Clone() *Config {
	clone := *c
	clone.AllowedClientCNs = append([]string(nil), c.AllowedClientCNs...)
	clone.Risk.Paused = append([]string(nil), c.Risk.Paused...)
	return &clone
}

// IsPaused implements native/common.PauseView, consulted by vaultd before
// dispatching an operation against the named service.
func (c *Config) IsPaused(module string) bool {
	for _, m := range c.Risk.Paused {
		if m == module {
			return true
		}
	}
	return false
}

// Load reads the configuration at path, creating a default file there if
// none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.EnsureDefaults()
	return cfg, nil
}

// Save writes cfg to path as TOML, overwriting any existing file. It's used
// by operator tooling that mutates a running deployment's config, such as
// toggling Risk.Paused.
func Save(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.EnsureDefaults()

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

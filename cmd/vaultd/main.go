// Command vaultd runs the liquidity-vault accounting service: it loads a
// vault-set manifest into a live registry, serves the JSON-over-HTTP front
// door in services/vaultd/httpapi, and persists settled state to LevelDB
// and an audit ledger, following the teacher's cmd/gateway entrypoint shape.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/natefinch/lumberjack.v2"

	"vaultcore/config"
	"vaultcore/decimal"
	"vaultcore/native/common"
	"vaultcore/native/vault"
	"vaultcore/observability/logging"
	vaulttelemetry "vaultcore/services/vaultd/telemetry"

	"vaultcore/services/vaultd/httpapi"
	"vaultcore/services/vaultd/server"
	"vaultcore/storage"
	"vaultcore/storage/ledger"
	"vaultcore/storage/vaultstore"
)

func main() {
	var cfgPath, vaultSetPath, logFile, ledgerDSN string
	flag.StringVar(&cfgPath, "config", "./vaultd.toml", "path to vaultd configuration")
	flag.StringVar(&vaultSetPath, "vault-set", "", "override the vault-set manifest path from config")
	flag.StringVar(&logFile, "log-file", "", "rotate logs to this path instead of stdout")
	flag.StringVar(&ledgerDSN, "ledger-dsn", "", "postgres DSN for the audit ledger; empty disables it")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("VAULTD_ENV"))

	var logWriter *lumberjack.Logger
	if logFile != "" {
		logWriter = &lumberjack.Logger{Filename: logFile, MaxSize: 100, MaxBackups: 5, MaxAge: 28, Compress: true}
		defer logWriter.Close()
	}
	logger := logging.Setup("vaultd", env, logWriter)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if vaultSetPath != "" {
		cfg.VaultSetPath = vaultSetPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := vaulttelemetry.Init(ctx, vaulttelemetry.Config{
		Environment: env,
		Endpoint:    strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		Insecure:    true,
		Metrics:     true,
		Traces:      true,
	})
	if err != nil {
		logger.Error("init telemetry", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	kv, err := openStorage(cfg)
	if err != nil {
		logger.Error("open storage", "error", err)
		os.Exit(1)
	}
	defer kv.Close()
	vstore := vaultstore.New(kv)

	var ledgerStore *ledger.Store
	if ledgerDSN != "" {
		ledgerStore, err = ledger.Open(ledgerDSN)
		if err != nil {
			logger.Error("open ledger", "error", err)
			os.Exit(1)
		}
	}

	now := decimal.Time(time.Now().Unix())
	reg, err := loadRegistry(cfg.VaultSetPath, logger, now)
	if err != nil {
		logger.Error("build vault registry", "error", err)
		os.Exit(1)
	}

	app := server.New(reg, vstore, ledgerStore, cfg, logger)
	app.BorrowQuota = common.Quota{
		MaxRequestsPerMin: 0,
		MaxNHBPerEpoch:    cfg.Risk.BorrowLimit,
		EpochSeconds:      3600,
	}

	var auth *httpapi.Authenticator
	if secret := strings.TrimSpace(os.Getenv("VAULTD_JWT_SECRET")); secret != "" {
		auth = httpapi.NewAuthenticator(httpapi.AuthConfig{Enabled: true, HMACSecret: secret}, logger)
	}
	limiter := httpapi.NewRateLimiter(cfg.RateLimitPerMin)

	api := httpapi.New(app, auth, limiter)
	mux := http.NewServeMux()
	mux.Handle("/", api.Router())
	mux.Handle("/metrics", promhttp.Handler())

	tlsConfig, err := buildTLSConfig(cfg)
	if err != nil {
		logger.Error("build tls config", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if tlsConfig != nil {
		httpServer.TLSConfig = tlsConfig
	}

	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		logger.Error("listen", "error", err)
		os.Exit(1)
	}

	go func() {
		scheme := "http"
		var serveErr error
		if tlsConfig != nil {
			scheme = "https"
			serveErr = httpServer.Serve(tls.NewListener(listener, tlsConfig))
		} else {
			serveErr = httpServer.Serve(listener)
		}
		logger.Info("listening", "scheme", scheme, "addr", listener.Addr().String())
		if serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("serve", "error", serveErr)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
}

func openStorage(cfg *config.Config) (storage.Database, error) {
	switch cfg.StorageBackend {
	case "bolt":
		return storage.NewBoltDB(cfg.DataDir)
	case "leveldb", "":
		return storage.NewLevelDB(cfg.DataDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func loadRegistry(vaultSetPath string, logger *slog.Logger, now decimal.Time) (*vault.Registry, error) {
	if vaultSetPath == "" {
		return &vault.Registry{}, nil
	}
	set, err := config.LoadVaultSet(vaultSetPath)
	if err != nil {
		return nil, fmt.Errorf("load vault set: %w", err)
	}
	return set.Build(logger, now)
}

func buildTLSConfig(cfg *config.Config) (*tls.Config, error) {
	if cfg.TLSCertFile == "" || cfg.TLSKeyFile == "" {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
	if err != nil {
		return nil, fmt.Errorf("load tls keypair: %w", err)
	}
	tlsConfig := &tls.Config{Certificates: []tls.Certificate{cert}}
	if len(cfg.AllowedClientCNs) > 0 {
		// RequireAnyClientCert skips chain verification against a CA pool;
		// the allow-list below is the actual authorization check, matching
		// the gateway's mTLS + CN allow-list combination.
		tlsConfig.ClientAuth = tls.RequireAnyClientCert
		tlsConfig.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			for _, raw := range rawCerts {
				leaf, err := x509.ParseCertificate(raw)
				if err != nil {
					continue
				}
				for _, cn := range cfg.AllowedClientCNs {
					if leaf.Subject.CommonName == cn {
						return nil
					}
				}
			}
			return fmt.Errorf("client certificate common name not permitted")
		}
	}
	return tlsConfig, nil
}

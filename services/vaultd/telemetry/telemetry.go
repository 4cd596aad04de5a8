// Package telemetry wires vaultd into the shared OpenTelemetry exporter
// setup in observability/otel, giving the HTTP front door request tracing
// and the vault engines span/metric export over OTLP.
package telemetry

import (
	"context"

	vaultotel "vaultcore/observability/otel"
)

// Config is the subset of vaultotel.Config vaultd sets. cmd/vaultd fills it
// from its environment name and OTEL_EXPORTER_OTLP_ENDPOINT; it is not read
// from the TOML config.
type Config struct {
	Environment string
	Endpoint    string
	Insecure    bool
	Metrics     bool
	Traces      bool
}

// Shutdown tears down the telemetry providers started by Init.
type Shutdown func(context.Context) error

// Init configures tracing and metrics export for the "vaultd" service.
func Init(ctx context.Context, cfg Config) (Shutdown, error) {
	return vaultotel.Init(ctx, vaultotel.Config{
		ServiceName: "vaultd",
		Environment: cfg.Environment,
		Endpoint:    cfg.Endpoint,
		Insecure:    cfg.Insecure,
		Metrics:     cfg.Metrics,
		Traces:      cfg.Traces,
	})
}

package vault

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsInitOnce sync.Once
	sharedMetrics   *vaultMetrics
)

type vaultMetrics struct {
	borrowVolume     *prometheus.CounterVec
	repayVolume      *prometheus.CounterVec
	swapVolume       *prometheus.CounterVec
	utilization      *prometheus.GaugeVec
	openInterest     *prometheus.GaugeVec
	liquidationCount *prometheus.CounterVec
	feeAccrued       *prometheus.CounterVec
}

func newVaultMetrics() *vaultMetrics {
	metricsInitOnce.Do(func() {
		m := &vaultMetrics{
			borrowVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vaultcore_lend_borrow_base_total",
				Help: "Total base quantity borrowed, per vault.",
			}, []string{"vault"}),
			repayVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vaultcore_lend_repay_base_total",
				Help: "Total base quantity repaid, per vault.",
			}, []string{"vault"}),
			swapVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vaultcore_swap_volume_total",
				Help: "Total quantity swapped, per vault and side.",
			}, []string{"vault", "side"}),
			utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "vaultcore_lend_utilization",
				Help: "Current Lend pool utilization (scale-6 fraction as a float), per vault.",
			}, []string{"vault"}),
			openInterest: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "vaultcore_trade_open_interest",
				Help: "Open notional value locked per vault and trade side.",
			}, []string{"vault", "side"}),
			liquidationCount: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vaultcore_liquidations_total",
				Help: "Count of positions closed by a liquidation rather than a user-initiated close.",
			}, []string{"vault"}),
			feeAccrued: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vaultcore_fee_accrued_total",
				Help: "Total fee accrued across services, per vault and service.",
			}, []string{"vault", "service"}),
		}
		prometheus.MustRegister(m.borrowVolume, m.repayVolume, m.swapVolume, m.utilization,
			m.openInterest, m.liquidationCount, m.feeAccrued)
		sharedMetrics = m
	})
	return sharedMetrics
}

func (m *vaultMetrics) recordBorrow(vaultLabel string, qty uint64) {
	if m == nil {
		return
	}
	m.borrowVolume.WithLabelValues(vaultLabel).Add(float64(qty))
}

func (m *vaultMetrics) recordRepay(vaultLabel string, qty uint64) {
	if m == nil {
		return
	}
	m.repayVolume.WithLabelValues(vaultLabel).Add(float64(qty))
}

func (m *vaultMetrics) recordSwap(vaultLabel, side string, qty uint64) {
	if m == nil {
		return
	}
	m.swapVolume.WithLabelValues(vaultLabel, side).Add(float64(qty))
}

func (m *vaultMetrics) setUtilization(vaultLabel string, utilization float64) {
	if m == nil {
		return
	}
	m.utilization.WithLabelValues(vaultLabel).Set(utilization)
}

func (m *vaultMetrics) setOpenInterest(vaultLabel, side string, value float64) {
	if m == nil {
		return
	}
	m.openInterest.WithLabelValues(vaultLabel, side).Set(value)
}

func (m *vaultMetrics) recordLiquidation(vaultLabel string) {
	if m == nil {
		return
	}
	m.liquidationCount.WithLabelValues(vaultLabel).Inc()
}

func (m *vaultMetrics) recordFee(vaultLabel, service string, qty uint64) {
	if m == nil {
		return
	}
	m.feeAccrued.WithLabelValues(vaultLabel, service).Add(float64(qty))
}

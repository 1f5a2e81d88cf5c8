package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics exposes counters and gauges for the campaign and contest
// engines. Amount-valued metrics are reported as floats and may lose
// precision for very large pools; they are observability aids, not
// accounting records.
type SettlementMetrics struct {
	donations      prometheus.Counter
	refunds        prometheus.Counter
	entriesPaid    prometheus.Counter
	scores         prometheus.Counter
	settlements    prometheus.Counter
	totalRaised    prometheus.Gauge
	prizePool      prometheus.Gauge
	roundingDust   *prometheus.GaugeVec
	requestsFailed *prometheus.CounterVec
}

var (
	settlementOnce     sync.Once
	settlementRegistry *SettlementMetrics
)

// Settlement returns the shared settlement metrics registry, registering the
// collectors on first use.
func Settlement() *SettlementMetrics {
	settlementOnce.Do(func() {
		settlementRegistry = &SettlementMetrics{
			donations: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "campaign_donations_total",
				Help: "Count of accepted campaign donations.",
			}),
			refunds: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "campaign_refunds_total",
				Help: "Count of settled campaign refunds.",
			}),
			entriesPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "contest_entries_paid_total",
				Help: "Count of collected contest entry fees.",
			}),
			scores: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "contest_scores_total",
				Help: "Count of accepted score submissions.",
			}),
			settlements: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "contest_settlements_total",
				Help: "Count of completed contest settlements.",
			}),
			totalRaised: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "campaign_total_raised",
				Help: "Current campaign running total in base units.",
			}),
			prizePool: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "contest_prize_pool",
				Help: "Current contest prize pool in base units.",
			}),
			roundingDust: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "contest_rounding_dust",
				Help: "Undistributed truncation remainder left in custody per session.",
			}, []string{"session"}),
			requestsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rpc_requests_failed_total",
				Help: "Count of failed RPC requests by method.",
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			settlementRegistry.donations,
			settlementRegistry.refunds,
			settlementRegistry.entriesPaid,
			settlementRegistry.scores,
			settlementRegistry.settlements,
			settlementRegistry.totalRaised,
			settlementRegistry.prizePool,
			settlementRegistry.roundingDust,
			settlementRegistry.requestsFailed,
		)
	})
	return settlementRegistry
}

func amountValue(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	value, _ := new(big.Float).SetInt(v).Float64()
	return value
}

// ObserveDonation records a successful donation and the new running total.
func (m *SettlementMetrics) ObserveDonation(total *big.Int) {
	if m == nil {
		return
	}
	m.donations.Inc()
	m.totalRaised.Set(amountValue(total))
}

// ObserveRefund records a settled refund and the new running total.
func (m *SettlementMetrics) ObserveRefund(total *big.Int) {
	if m == nil {
		return
	}
	m.refunds.Inc()
	m.totalRaised.Set(amountValue(total))
}

// ObserveEntryPaid records a collected entry fee and the new pool size.
func (m *SettlementMetrics) ObserveEntryPaid(pool *big.Int) {
	if m == nil {
		return
	}
	m.entriesPaid.Inc()
	m.prizePool.Set(amountValue(pool))
}

// ObserveScore records an accepted score submission.
func (m *SettlementMetrics) ObserveScore() {
	if m == nil {
		return
	}
	m.scores.Inc()
}

// ObserveSettlement records a completed round settlement and the dust left in
// custody.
func (m *SettlementMetrics) ObserveSettlement(session string, remainder *big.Int) {
	if m == nil {
		return
	}
	m.settlements.Inc()
	m.prizePool.Set(amountValue(remainder))
	m.roundingDust.WithLabelValues(session).Set(amountValue(remainder))
}

// ObserveRequestFailure records a failed RPC request for the given method.
func (m *SettlementMetrics) ObserveRequestFailure(method string) {
	if m == nil {
		return
	}
	m.requestsFailed.WithLabelValues(method).Inc()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics for the AMM engine.
type Metrics struct {
	opsTotal   *prometheus.CounterVec
	swapVolume *prometheus.CounterVec
	lpSupply   *prometheus.GaugeVec
}

// NewMetrics creates and registers the engine metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		opsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amm_operations_total",
			Help: "Total number of engine operations, labeled by operation and result.",
		}, []string{"op", "result"}),
		swapVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amm_swap_volume_total",
			Help: "Cumulative input volume swapped, labeled by pool and input mint.",
		}, []string{"pool", "mint"}),
		lpSupply: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "amm_pool_lp_supply",
			Help: "Outstanding LP share supply per pool.",
		}, []string{"pool"}),
	}
	reg.MustRegister(m.opsTotal, m.swapVolume, m.lpSupply)
	return m
}

// ObserveOp records one operation outcome. Nil-safe.
func (m *Metrics) ObserveOp(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.opsTotal.WithLabelValues(op, result).Inc()
}

// AddSwapVolume records the input amount of a committed swap. Nil-safe.
func (m *Metrics) AddSwapVolume(pool, mint string, amount uint64) {
	if m == nil {
		return
	}
	m.swapVolume.WithLabelValues(pool, mint).Add(float64(amount))
}

// SetLPSupply records the pool's outstanding share supply. Nil-safe.
func (m *Metrics) SetLPSupply(pool string, supply uint64) {
	if m == nil {
		return
	}
	m.lpSupply.WithLabelValues(pool).Set(float64(supply))
}

package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LayerTwo-Labs/orchard-sandbox/logx"
)

type ledgerPromMetrics struct {
	engineUpUnixSeconds    prometheus.Gauge
	blockHeight            prometheus.Gauge
	poolSize               prometheus.Gauge
	connectedBlockCount    prometheus.Counter
	disconnectedBlockCount prometheus.Counter
	appliedTxCount         *prometheus.CounterVec
	rejectedTxCount        *prometheus.CounterVec
	blockConnectTime       prometheus.Histogram
	txInBlock              prometheus.Histogram
	panicCount             prometheus.Counter
}

func newLedgerPromMetrics() *ledgerPromMetrics {
	return &ledgerPromMetrics{
		engineUpUnixSeconds: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "orchard_engine_up_timestamp_unix_seconds",
				Help: "Unix timestamp of engine start",
			},
		),
		blockHeight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "orchard_engine_block_height",
				Help: "The current active tip height",
			},
		),
		poolSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "orchard_engine_pool_size",
				Help: "Lifetime note commitment count of the shielded pool",
			},
		),
		connectedBlockCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "orchard_engine_connected_block_count",
				Help: "The total number of blocks connected",
			},
		),
		disconnectedBlockCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "orchard_engine_disconnected_block_count",
				Help: "The total number of blocks disconnected",
			},
		),
		appliedTxCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orchard_engine_applied_tx_count",
				Help: "The total number of applied transactions",
			},
			[]string{"kind"},
		),
		rejectedTxCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orchard_engine_rejected_tx_count",
				Help: "The total number of rejected transactions",
			},
			[]string{"reason"},
		),
		blockConnectTime: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "orchard_engine_block_connect_time",
				Help: "Duration in seconds of a block connection",
			},
		),
		txInBlock: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "orchard_engine_tx_in_block",
				Help: "Number of tx in connected block",
			},
		),
		panicCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "orchard_engine_panic_count",
				Help: "The total number of recovered panics",
			},
		),
	}
}

var engineMetrics = newLedgerPromMetrics()

// InitMetrics stamps the engine start time
func InitMetrics() {
	engineMetrics.engineUpUnixSeconds.SetToCurrentTime()
}

func RegisterMetrics(mux *http.ServeMux) {
	logx.Info("MONITORING", "Registering prometheus metrics")
	mux.Handle("/metrics", promhttp.Handler())
}

func SetBlockHeight(height uint64) {
	engineMetrics.blockHeight.Set(float64(height))
}

func SetPoolSize(size uint64) {
	engineMetrics.poolSize.Set(float64(size))
}

func RecordBlockConnected(txCount int, duration time.Duration) {
	engineMetrics.connectedBlockCount.Inc()
	engineMetrics.txInBlock.Observe(float64(txCount))
	engineMetrics.blockConnectTime.Observe(duration.Seconds())
}

func IncreaseDisconnectedBlockCount() {
	engineMetrics.disconnectedBlockCount.Inc()
}

func IncreaseAppliedTxCount(kind string) {
	engineMetrics.appliedTxCount.WithLabelValues(kind).Inc()
}

func IncreaseRejectedTxCount(reason string) {
	engineMetrics.rejectedTxCount.WithLabelValues(reason).Inc()
}

func IncreasePanicCount() {
	engineMetrics.panicCount.Inc()
}

package snapshot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"clob/internal/matching"
)

// Metrics is the Prometheus-backed implementation of matching.Recorder and
// transport's malformed-frame recorder. It never blocks: every method is
// one or two atomic counter/gauge updates.
type Metrics struct {
	ordersReceived prometheus.Counter
	ordersRejected *prometheus.CounterVec
	tradesExecuted prometheus.Counter
	tradeFills     prometheus.Counter
	queueDepth     prometheus.Gauge
	bestPrice      *prometheus.GaugeVec
}

// NewMetrics registers the engine's collectors against reg. Pass
// prometheus.DefaultRegisterer to expose them on the default /metrics
// handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ordersReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "clob",
			Name:      "orders_received_total",
			Help:      "Orders accepted onto the matcher queue.",
		}),
		ordersRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clob",
			Name:      "orders_rejected_total",
			Help:      "Orders rejected before matching, by reason.",
		}, []string{"reason"}),
		tradesExecuted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "clob",
			Name:      "matches_total",
			Help:      "Requests that produced at least one trade.",
		}),
		tradeFills: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "clob",
			Name:      "fills_total",
			Help:      "Individual trade fills executed.",
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "clob",
			Name:      "request_queue_depth",
			Help:      "Momentary depth of the bounded matcher request queue.",
		}),
		bestPrice: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "clob",
			Name:      "best_price",
			Help:      "Best bid/ask price per symbol.",
		}, []string{"symbol", "side"}),
	}
}

// OrderReceived implements matching.Recorder.
func (m *Metrics) OrderReceived() {
	m.ordersReceived.Inc()
}

// OrderRejected implements matching.Recorder and transport's recorder.
func (m *Metrics) OrderRejected(reason string) {
	m.ordersRejected.WithLabelValues(reason).Inc()
}

// TradesExecuted implements matching.Recorder. n is the fill count for one
// applied request.
func (m *Metrics) TradesExecuted(n int) {
	m.tradesExecuted.Inc()
	m.tradeFills.Add(float64(n))
}

// SetQueueDepth records a point-in-time sample of the matcher queue depth.
func (m *Metrics) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// ObservePublication mirrors a matching.Publisher.Publish call so the best
// bid/ask gauges track the same state the stats feed publishes.
func (m *Metrics) ObservePublication(snap matching.BookSnapshot) {
	if snap.BestBid.Present {
		m.bestPrice.WithLabelValues(snap.Symbol, "bid").Set(parsePriceOrZero(snap.BestBid.Price))
	}
	if snap.BestAsk.Present {
		m.bestPrice.WithLabelValues(snap.Symbol, "ask").Set(parsePriceOrZero(snap.BestAsk.Price))
	}
}

// FanoutPublisher implements matching.Publisher by forwarding each
// publication to the stats Publisher (for REST reads) and the Metrics
// collectors (for Prometheus scrapes), so the matcher wires exactly one
// Publisher regardless of how many consumers watch it.
type FanoutPublisher struct {
	Stats   *Publisher
	Metrics *Metrics
}

// Publish implements matching.Publisher.
func (f FanoutPublisher) Publish(snap matching.BookSnapshot) {
	if f.Stats != nil {
		f.Stats.Publish(snap)
	}
	if f.Metrics != nil {
		f.Metrics.ObservePublication(snap)
	}
}

func parsePriceOrZero(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

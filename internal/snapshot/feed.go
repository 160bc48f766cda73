package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"clob/internal/matching"
)

// Feed is a matching.Recorder that also drives the periodic throughput log,
// adapted from original_source/udp_server.py's OrderProcessor, which prints
// orders/sec once a second from inside the hot path. Here the counting
// stays on the matcher's hot path (cheap atomic adds) and the logging
// moves onto its own ticker goroutine so Run never blocks matching.
type Feed struct {
	inner matching.Recorder // optional; Prometheus metrics, may be nil

	received int64
	rejected int64
	trades   int64

	interval time.Duration
	queueLen func() int
}

// NewFeed returns a Feed that logs every interval and forwards every
// observation to inner (nil disables Prometheus export). queueLen, if
// non-nil, is sampled each tick to report matcher backlog.
func NewFeed(inner matching.Recorder, interval time.Duration, queueLen func() int) *Feed {
	return &Feed{inner: inner, interval: interval, queueLen: queueLen}
}

// OrderReceived implements matching.Recorder.
func (f *Feed) OrderReceived() {
	atomic.AddInt64(&f.received, 1)
	if f.inner != nil {
		f.inner.OrderReceived()
	}
}

// OrderRejected implements matching.Recorder.
func (f *Feed) OrderRejected(reason string) {
	atomic.AddInt64(&f.rejected, 1)
	if f.inner != nil {
		f.inner.OrderRejected(reason)
	}
}

// TradesExecuted implements matching.Recorder.
func (f *Feed) TradesExecuted(n int) {
	atomic.AddInt64(&f.trades, int64(n))
	if f.inner != nil {
		f.inner.TradesExecuted(n)
	}
}

// Run logs cumulative throughput every interval until the tomb dies.
func (f *Feed) Run(t *tomb.Tomb) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-t.Dying():
			return nil
		case now := <-ticker.C:
			received := atomic.LoadInt64(&f.received)
			elapsed := now.Sub(start).Seconds()
			var throughput float64
			if elapsed > 0 {
				throughput = float64(received) / elapsed
			}

			ev := log.Info().
				Float64("orders_per_sec", throughput).
				Int64("total_received", received).
				Int64("total_rejected", atomic.LoadInt64(&f.rejected)).
				Int64("total_trades", atomic.LoadInt64(&f.trades))
			if f.queueLen != nil {
				depth := f.queueLen()
				if m, ok := f.inner.(*Metrics); ok {
					m.SetQueueDepth(depth)
				}
				ev = ev.Int("queue_depth", depth)
			}
			ev.Msg("throughput")
		}
	}
}

// Package matching serialises requests into the matcher and fans the
// resulting acknowledgements back out. It is the only code allowed to
// mutate a registry.Registry or any book.Book (spec §4.E/§5).
package matching

import (
	"fmt"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"clob/internal/book"
	"clob/internal/egress"
	"clob/internal/model"
	"clob/internal/registry"
)

// Request pairs a decoded order with a reply callback. Reply must never
// block the caller for long — the UDP transport enqueues onto a bounded
// response queue, the REST façade writes to a buffered channel of one.
type Request struct {
	Order model.Order
	Reply func(egress.Response)
}

// Pipeline is the bounded-queue matcher. Exactly one goroutine (Run)
// drains Requests in FIFO order and applies them to the registry; this
// defines the engine's linearization order (spec §5).
type Pipeline struct {
	requests  chan Request
	registry  *registry.Registry
	publisher Publisher
	recorder  Recorder
	snapDepth int
	seq       uint64 // admission counter; touched only inside Run's goroutine
}

// Publisher receives a fresh per-symbol snapshot after every request the
// matcher applies. Implementations must not block.
type Publisher interface {
	Publish(snap BookSnapshot)
}

// Recorder observes matcher throughput for metrics export. Implementations
// must not block; internal/snapshot provides two: the Prometheus-backed
// Metrics and the throughput-logging Feed, which forwards to Metrics.
type Recorder interface {
	OrderReceived()
	OrderRejected(reason string)
	TradesExecuted(n int)
}

// BookLevel is a minimal, dependency-free view of one side's best price,
// letting internal/snapshot implement Publisher without importing
// internal/book itself.
type BookLevel struct {
	Price    string
	Quantity int64
	Present  bool
}

// DepthLevel is one resting price level, for the top-N depth a reader
// requests via GET /orderbook (spec component H).
type DepthLevel struct {
	Price    string
	Quantity int64
}

// BookSnapshot is the complete publication the matcher hands to Publisher
// after every applied request: aggregate counters, best bid/ask, and the
// top snapDepth price levels per side. Readers never see a *book.Book
// itself (spec §4.C/§4.H).
type BookSnapshot struct {
	Symbol      string
	TotalVolume int64
	TotalTrades int64
	BestBid     BookLevel
	BestAsk     BookLevel
	Bids        []DepthLevel
	Asks        []DepthLevel
}

// New builds a Pipeline over reg with a bounded request queue of size
// queueSize. pub may be nil if no snapshot feed is wired.
func New(reg *registry.Registry, queueSize int, pub Publisher) *Pipeline {
	return &Pipeline{
		requests:  make(chan Request, queueSize),
		registry:  reg,
		publisher: pub,
		snapDepth: 10,
	}
}

// SetRecorder wires a metrics Recorder after construction. Safe to call
// once before Run starts; rec may be nil to disable metrics.
func (p *Pipeline) SetRecorder(rec Recorder) {
	p.recorder = rec
}

// QueueLen reports the current depth of the bounded request queue, for the
// metrics feed to sample; it is a momentary snapshot, not a guarantee.
func (p *Pipeline) QueueLen() int {
	return len(p.requests)
}

// Submit enqueues req for matching. It never blocks: if the queue is at
// capacity the request is dropped and a negative "overload" ack is sent
// immediately, per spec §4.E.
func (p *Pipeline) Submit(req Request) {
	select {
	case p.requests <- req:
	default:
		if p.recorder != nil {
			p.recorder.OrderRejected("overload")
		}
		if req.Reply != nil {
			req.Reply(egress.Rejected(req.Order.OrderID, "overload", "overload"))
		}
	}
}

// Run drains the request queue in FIFO order until the tomb dies. It is
// the only goroutine that ever touches the registry or its books.
func (p *Pipeline) Run(t *tomb.Tomb) error {
	log.Info().Msg("matcher running")
	for {
		select {
		case <-t.Dying():
			p.drain()
			return nil
		case req := <-p.requests:
			p.apply(req)
		}
	}
}

// drain applies whatever is already queued before shutdown so in-flight
// requests are not silently lost (spec §5 "drains in-flight requests").
func (p *Pipeline) drain() {
	for {
		select {
		case req := <-p.requests:
			p.apply(req)
		default:
			return
		}
	}
}

func (p *Pipeline) apply(req Request) {
	p.seq++
	order := req.Order
	order.SubmitTime = p.seq

	if p.recorder != nil {
		p.recorder.OrderReceived()
	}

	b := p.registry.GetOrCreate(order.Symbol)

	var resp egress.Response
	if order.Kind == model.Cancel {
		removed := b.Cancel(order.OrderID)
		msg := "not found"
		if removed {
			msg = "cancelled"
		}
		resp = egress.Accepted(order.OrderID, msg, nil)
	} else {
		fills, err := b.Submit(order)
		if err != nil {
			// Matching is pure over well-formed input; a failure here is a
			// fatal programming bug, not a client-facing error.
			log.Fatal().Err(err).Str("symbol", order.Symbol).Msg("book invariant violation")
		}
		for i := range fills {
			fills[i].EventTime = order.SubmitTime
		}
		msg := "Order accepted"
		if len(fills) > 0 {
			msg = fmt.Sprintf("Order executed with %d trades", len(fills))
		}
		resp = egress.Accepted(order.OrderID, msg, fills)
		if p.recorder != nil && len(fills) > 0 {
			p.recorder.TradesExecuted(len(fills))
		}
	}

	if req.Reply != nil {
		req.Reply(resp)
	}

	if p.publisher != nil {
		snap := b.Snapshot(p.snapDepth)
		bestBid, bidQty, bidOK := b.BestBid()
		bestAsk, askQty, askOK := b.BestAsk()
		p.publisher.Publish(BookSnapshot{
			Symbol:      order.Symbol,
			TotalVolume: snap.TotalVolume,
			TotalTrades: snap.TotalTrades,
			BestBid:     BookLevel{Price: bestBid.String(), Quantity: bidQty, Present: bidOK},
			BestAsk:     BookLevel{Price: bestAsk.String(), Quantity: askQty, Present: askOK},
			Bids:        depthLevels(snap.Bids),
			Asks:        depthLevels(snap.Asks),
		})
	}
}

func depthLevels(levels []book.Level) []DepthLevel {
	out := make([]DepthLevel, len(levels))
	for i, l := range levels {
		out[i] = DepthLevel{Price: l.Price.String(), Quantity: l.Quantity}
	}
	return out
}

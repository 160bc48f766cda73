// Package snapshot implements the read-side publish discipline of spec
// §4.C/§4.H: the matcher publishes a consistent snapshot after every
// request it applies. The REST façade and the Prometheus best-price
// gauges read only from that publication; the periodic stats feed reads
// counters the matcher increments. None of them reads a book.Book
// directly.
package snapshot

import (
	"sync"

	"clob/internal/matching"
)

// Level is a JSON-friendly top-of-book view.
type Level struct {
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
}

// Stats is the latest published view of one symbol's book, including the
// top-N resting price levels per side a GET /orderbook reader needs (spec
// component H) alongside the aggregate counters GET /statistics uses.
type Stats struct {
	Symbol      string  `json:"symbol"`
	TotalVolume int64   `json:"total_volume"`
	TotalTrades int64   `json:"total_trades"`
	BestBid     *Level  `json:"best_bid,omitempty"`
	BestAsk     *Level  `json:"best_ask,omitempty"`
	Bids        []Level `json:"bids"`
	Asks        []Level `json:"asks"`
}

// Statistics is the aggregate-only projection of Stats, mirroring
// order_book.py's get_statistics (no price levels, unlike
// get_order_book_snapshot). GET /statistics returns this; GET /orderbook
// returns the full Stats with depth.
type Statistics struct {
	Symbol      string `json:"symbol"`
	TotalVolume int64  `json:"total_volume"`
	TotalTrades int64  `json:"total_trades"`
	BestBid     *Level `json:"best_bid,omitempty"`
	BestAsk     *Level `json:"best_ask,omitempty"`
}

// Statistics strips the depth levels from s, for GET /statistics readers
// that only want the aggregate view.
func (s Stats) Statistics() Statistics {
	return Statistics{
		Symbol:      s.Symbol,
		TotalVolume: s.TotalVolume,
		TotalTrades: s.TotalTrades,
		BestBid:     s.BestBid,
		BestAsk:     s.BestAsk,
	}
}

// Publisher is a mutex-guarded latest-snapshot store. It satisfies
// matching.Publisher. Readers (internal/restapi) only ever see a
// fully-formed Stats value, never a Book mid-mutation.
type Publisher struct {
	mu    sync.RWMutex
	stats map[string]Stats
}

// NewPublisher returns an empty publisher.
func NewPublisher() *Publisher {
	return &Publisher{stats: make(map[string]Stats)}
}

// Publish implements matching.Publisher. Called only from the matcher
// goroutine after it applies a request.
func (p *Publisher) Publish(snap matching.BookSnapshot) {
	stats := Stats{
		Symbol:      snap.Symbol,
		TotalVolume: snap.TotalVolume,
		TotalTrades: snap.TotalTrades,
		Bids:        depthToLevels(snap.Bids),
		Asks:        depthToLevels(snap.Asks),
	}
	if snap.BestBid.Present {
		stats.BestBid = &Level{Price: snap.BestBid.Price, Quantity: snap.BestBid.Quantity}
	}
	if snap.BestAsk.Present {
		stats.BestAsk = &Level{Price: snap.BestAsk.Price, Quantity: snap.BestAsk.Quantity}
	}

	p.mu.Lock()
	p.stats[snap.Symbol] = stats
	p.mu.Unlock()
}

func depthToLevels(depth []matching.DepthLevel) []Level {
	out := make([]Level, len(depth))
	for i, d := range depth {
		out[i] = Level{Price: d.Price, Quantity: d.Quantity}
	}
	return out
}

// Get returns the latest published stats for symbol.
func (p *Publisher) Get(symbol string) (Stats, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.stats[symbol]
	return s, ok
}

// All returns a copy of every symbol's latest published stats.
func (p *Publisher) All() map[string]Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]Stats, len(p.stats))
	for k, v := range p.stats {
		out[k] = v
	}
	return out
}

// Symbols lists every symbol seen so far.
func (p *Publisher) Symbols() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.stats))
	for k := range p.stats {
		out = append(out, k)
	}
	return out
}

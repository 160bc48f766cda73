// Package book implements the price-time-priority matching core for a
// single symbol: partial fills, cancellation, and top-of-book snapshots.
package book

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"clob/internal/model"
)

// priceLevel holds every resting order at one price, oldest first — a
// FIFO queue within the level, matching spec price-time priority.
type priceLevel struct {
	price  decimal.Decimal
	orders []*model.RestingOrder
}

type levelTree = btree.BTreeG[*priceLevel]

// locator lets Cancel find an order's price level in O(log n) without a
// linear scan over the book.
type locator struct {
	side  model.Side
	price decimal.Decimal
}

// Book is the matching core for one symbol. It is exclusively owned and
// mutated by a single matcher goroutine (see internal/matching); it is
// not safe for concurrent use. Read-only consumers must go through a
// published Snapshot instead of touching a Book directly.
type Book struct {
	Symbol string

	bids *levelTree // descending by price
	asks *levelTree // ascending by price

	index map[string]locator

	trades      []model.Execution
	totalVolume int64
}

// New creates an empty book for symbol.
func New(symbol string) *Book {
	return &Book{
		Symbol: symbol,
		bids: btree.NewBTreeG(func(a, b *priceLevel) bool {
			return a.price.GreaterThan(b.price) // highest first
		}),
		asks: btree.NewBTreeG(func(a, b *priceLevel) bool {
			return a.price.LessThan(b.price) // lowest first
		}),
		index: make(map[string]locator),
	}
}

// ErrInvariant is a fatal internal bug: matching is pure over well-formed
// input, so any invariant breach indicates a programming error rather
// than bad input. Callers should treat it as unrecoverable (see spec
// §4.B "Failure semantics").
type ErrInvariant struct{ Detail string }

func (e ErrInvariant) Error() string { return "book invariant violation: " + e.Detail }

// Submit applies order to the book and returns the executions it
// produced, in the order they occurred.
func (b *Book) Submit(order model.Order) ([]model.Execution, error) {
	switch order.Kind {
	case model.Market:
		return b.submitMarket(order)
	case model.Limit:
		return b.submitLimit(order)
	default:
		return nil, ErrInvariant{Detail: fmt.Sprintf("Submit called with kind %v", order.Kind)}
	}
}

func (b *Book) submitLimit(order model.Order) ([]model.Execution, error) {
	opposite, _ := b.sides(order.Side)
	remaining := order.Quantity
	var fills []model.Execution

	for remaining > 0 {
		level, ok := opposite.Min()
		if !ok {
			break
		}
		if order.Side == model.Buy && level.price.GreaterThan(order.Price) {
			break
		}
		if order.Side == model.Sell && level.price.LessThan(order.Price) {
			break
		}

		filled, execs, err := b.matchLevel(order, level, remaining, opposite)
		if err != nil {
			return fills, err
		}
		fills = append(fills, execs...)
		remaining -= filled
	}

	if remaining > 0 {
		resting := &model.RestingOrder{
			OrderID:           order.OrderID,
			ClientID:          order.ClientID,
			Symbol:            order.Symbol,
			Side:              order.Side,
			Price:             order.Price,
			SubmitTime:        order.SubmitTime,
			RemainingQuantity: remaining,
		}
		b.rest(resting)
	}

	return fills, nil
}

func (b *Book) submitMarket(order model.Order) ([]model.Execution, error) {
	opposite, _ := b.sides(order.Side)
	remaining := order.Quantity
	var fills []model.Execution

	for remaining > 0 {
		level, ok := opposite.Min()
		if !ok {
			break // residue discarded: market orders never rest
		}
		filled, execs, err := b.matchLevel(order, level, remaining, opposite)
		if err != nil {
			return fills, err
		}
		fills = append(fills, execs...)
		remaining -= filled
	}

	return fills, nil
}

// matchLevel consumes resting orders at level, earliest first, until
// remaining is exhausted or the level empties. Returns quantity filled.
func (b *Book) matchLevel(incoming model.Order, level *priceLevel, remaining int64, opposite *levelTree) (int64, []model.Execution, error) {
	var execs []model.Execution
	var filled int64

	for remaining > 0 && len(level.orders) > 0 {
		resting := level.orders[0]
		fill := min64(remaining, resting.RemainingQuantity)

		buyID, sellID := incoming.OrderID, resting.OrderID
		if incoming.Side == model.Sell {
			buyID, sellID = resting.OrderID, incoming.OrderID
		}

		execs = append(execs, model.Execution{
			TradeID:     uuid.New().String(),
			BuyOrderID:  buyID,
			SellOrderID: sellID,
			Symbol:      incoming.Symbol,
			Quantity:    fill,
			Price:       resting.Price,
		})

		resting.RemainingQuantity -= fill
		remaining -= fill
		filled += fill

		if resting.RemainingQuantity == 0 {
			level.orders = level.orders[1:]
			delete(b.index, resting.OrderID)
		} else if remaining == 0 {
			// partial consumption of the resting order, still at index 0
		}
	}

	if len(level.orders) == 0 {
		opposite.Delete(level)
	}

	for _, e := range execs {
		b.trades = append(b.trades, e)
		b.totalVolume += e.Quantity
	}

	return filled, execs, nil
}

// rest inserts a resting order on its side, creating the price level if
// needed, and records it in the id index.
func (b *Book) rest(order *model.RestingOrder) {
	_, side := b.sides(order.Side)
	key := &priceLevel{price: order.Price}
	level, ok := side.Get(key)
	if !ok {
		level = &priceLevel{price: order.Price}
		side.Set(level)
	}
	level.orders = append(level.orders, order)
	b.index[order.OrderID] = locator{side: order.Side, price: order.Price}
}

// Cancel removes a resting order regardless of side. Idempotent: cancelling
// an unknown or already-cancelled id returns removed=false.
func (b *Book) Cancel(orderID string) (removed bool) {
	loc, ok := b.index[orderID]
	if !ok {
		return false
	}

	_, side := b.sides(loc.side)
	level, ok := side.Get(&priceLevel{price: loc.price})
	if !ok {
		delete(b.index, orderID)
		return false
	}

	for i, o := range level.orders {
		if o.OrderID == orderID {
			level.orders = append(level.orders[:i], level.orders[i+1:]...)
			break
		}
	}
	if len(level.orders) == 0 {
		side.Delete(level)
	}
	delete(b.index, orderID)
	return true
}

// BestBid returns the highest resting bid price and the aggregated
// quantity resting at that price.
func (b *Book) BestBid() (price decimal.Decimal, qty int64, ok bool) {
	return bestOf(b.bids)
}

// BestAsk returns the lowest resting ask price and the aggregated
// quantity resting at that price.
func (b *Book) BestAsk() (price decimal.Decimal, qty int64, ok bool) {
	return bestOf(b.asks)
}

func bestOf(side *levelTree) (decimal.Decimal, int64, bool) {
	level, ok := side.Min()
	if !ok {
		return decimal.Zero, 0, false
	}
	var total int64
	for _, o := range level.orders {
		total += o.RemainingQuantity
	}
	return level.price, total, true
}

// Level is one price level of a Snapshot: total resting quantity and the
// resting order ids at that level, in time order.
type Level struct {
	Price    decimal.Decimal
	Quantity int64
	OrderIDs []string
}

// Snapshot is a top-of-book view safe to hand to a reader that must never
// observe a Book mid-mutation (see spec §4.C/§4.H).
type Snapshot struct {
	Symbol      string
	Bids        []Level
	Asks        []Level
	TotalVolume int64
	TotalTrades int64
}

// Snapshot returns the top depth price levels per side plus aggregate
// counters. The returned value shares no memory with the book.
func (b *Book) Snapshot(depth int) Snapshot {
	return Snapshot{
		Symbol:      b.Symbol,
		Bids:        levels(b.bids, depth),
		Asks:        levels(b.asks, depth),
		TotalVolume: b.totalVolume,
		TotalTrades: int64(len(b.trades)),
	}
}

func levels(side *levelTree, depth int) []Level {
	var out []Level
	side.Scan(func(l *priceLevel) bool {
		if len(out) >= depth {
			return false
		}
		var qty int64
		ids := make([]string, 0, len(l.orders))
		for _, o := range l.orders {
			qty += o.RemainingQuantity
			ids = append(ids, o.OrderID)
		}
		out = append(out, Level{Price: l.price, Quantity: qty, OrderIDs: ids})
		return true
	})
	return out
}

func (b *Book) sides(incoming model.Side) (opposite *levelTree, own *levelTree) {
	if incoming == model.Buy {
		return b.asks, b.bids
	}
	return b.bids, b.asks
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

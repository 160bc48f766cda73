// Package model holds the value types shared by every stage of the
// matching pipeline: the order/trade wire model and its on-book form.
package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Side is which side of the book an order sits on.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// ParseSide case-normalises and validates a side tag.
func ParseSide(raw string) (Side, error) {
	switch normalize(raw) {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	default:
		return 0, fmt.Errorf("invalid side %q", raw)
	}
}

// Kind is the order type: LIMIT, MARKET, or CANCEL.
type Kind uint8

const (
	Limit Kind = iota
	Market
	Cancel
)

func (k Kind) String() string {
	switch k {
	case Market:
		return "MARKET"
	case Cancel:
		return "CANCEL"
	default:
		return "LIMIT"
	}
}

// ParseKind case-normalises and validates an order-type tag.
func ParseKind(raw string) (Kind, error) {
	switch normalize(raw) {
	case "LIMIT":
		return Limit, nil
	case "MARKET":
		return Market, nil
	case "CANCEL":
		return Cancel, nil
	default:
		return 0, fmt.Errorf("invalid order type %q", raw)
	}
}

func normalize(raw string) string {
	out := make([]byte, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// Order is an immutable request at admission. SubmitTime is assigned by
// the matcher from its monotonic admission counter, never from the
// wall clock — see internal/matching.
type Order struct {
	OrderID    string
	ClientID   string
	Symbol     string
	Side       Side
	Kind       Kind
	Quantity   int64
	Price      decimal.Decimal // zero value for MARKET/CANCEL
	SubmitTime uint64
}

// RestingOrder is the on-book form of an accepted LIMIT order: the
// original identity plus mutable remaining quantity.
type RestingOrder struct {
	OrderID           string
	ClientID          string
	Symbol            string
	Side              Side
	Price             decimal.Decimal
	SubmitTime        uint64
	RemainingQuantity int64
}

// PriorityKey returns the (price, submit_time) priority of a resting
// order. internal/book does not call it: it keeps each side ordered by
// price level and each level in insertion order, which is ascending
// SubmitTime when the matcher assigns SubmitTime on admission.
func (r *RestingOrder) PriorityKey() (decimal.Decimal, uint64) {
	return r.Price, r.SubmitTime
}

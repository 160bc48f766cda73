// Package egress encodes acknowledgements/executions into the response
// frame format of spec §6. Encoding is synchronous and failure-free; any
// transport send failure is the caller's concern (best-effort transport).
package egress

import (
	"encoding/json"
	"time"

	"clob/internal/model"
)

// TradeView is one execution as reported to a client.
type TradeView struct {
	TradeID   string  `json:"trade_id"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

// Response is the frame of spec §6: {order_id?, success, message, trades,
// timestamp}.
type Response struct {
	OrderID   string      `json:"order_id,omitempty"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Trades    []TradeView `json:"trades"`
	Timestamp int64       `json:"timestamp"`
}

// Accepted builds a positive ack carrying whatever executions the order
// produced (possibly none).
func Accepted(orderID, message string, fills []model.Execution) Response {
	return Response{
		OrderID:   orderID,
		Success:   true,
		Message:   message,
		Trades:    tradeViews(fills),
		Timestamp: time.Now().Unix(),
	}
}

// Rejected builds a negative ack for malformed_request/overload; kind is
// informational only (e.g. "overload", "malformed_request").
func Rejected(orderID, kind, message string) Response {
	return Response{
		OrderID:   orderID,
		Success:   false,
		Message:   message,
		Trades:    []TradeView{},
		Timestamp: time.Now().Unix(),
	}
}

func tradeViews(fills []model.Execution) []TradeView {
	out := make([]TradeView, len(fills))
	for i, f := range fills {
		price, _ := f.Price.Float64()
		out[i] = TradeView{
			TradeID:   f.TradeID,
			Quantity:  f.Quantity,
			Price:     price,
			Timestamp: int64(f.EventTime),
		}
	}
	return out
}

// Serialize encodes the response to its wire form. Never fails on a
// well-formed Response.
func Serialize(r Response) ([]byte, error) {
	return json.Marshal(r)
}

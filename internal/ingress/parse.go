// Package ingress decodes request frames (opaque bytes) into model.Order,
// rejecting anything malformed before it can reach the matcher.
package ingress

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"clob/internal/model"
)

// MaxFrameSize is the maximum accepted request frame size (spec §6).
const MaxFrameSize = 4 * 1024

// ErrMalformed wraps every rejection reason so callers can classify it as
// spec's malformed_request without inspecting error text.
type ErrMalformed struct{ Reason string }

func (e ErrMalformed) Error() string { return "malformed_request: " + e.Reason }

// wireOrder is the self-describing text (JSON) record of spec §6.
type wireOrder struct {
	OrderID   *string  `json:"order_id,omitempty"`
	ClientID  string   `json:"client_id"`
	Symbol    string   `json:"symbol"`
	Side      string   `json:"side"`
	OrderType string   `json:"order_type"`
	Quantity  *int64   `json:"quantity"`
	Price     *float64 `json:"price,omitempty"`
}

// Parse decodes and validates a request frame, per spec §4.D. The
// returned Order has no SubmitTime yet — that is assigned by the matcher
// on admission.
func Parse(frame []byte) (model.Order, error) {
	if len(frame) == 0 {
		return model.Order{}, ErrMalformed{Reason: "empty frame"}
	}
	if len(frame) > MaxFrameSize {
		return model.Order{}, ErrMalformed{Reason: fmt.Sprintf("frame exceeds %d bytes", MaxFrameSize)}
	}

	var w wireOrder
	if err := json.Unmarshal(frame, &w); err != nil {
		return model.Order{}, ErrMalformed{Reason: "invalid json: " + err.Error()}
	}

	if w.ClientID == "" {
		return model.Order{}, ErrMalformed{Reason: "missing client_id"}
	}
	if w.Symbol == "" {
		return model.Order{}, ErrMalformed{Reason: "missing symbol"}
	}

	side, err := model.ParseSide(w.Side)
	if err != nil {
		return model.Order{}, ErrMalformed{Reason: err.Error()}
	}

	kind, err := model.ParseKind(w.OrderType)
	if err != nil {
		return model.Order{}, ErrMalformed{Reason: err.Error()}
	}

	order := model.Order{
		ClientID: w.ClientID,
		Symbol:   w.Symbol,
		Side:     side,
		Kind:     kind,
	}

	if w.OrderID != nil && *w.OrderID != "" {
		order.OrderID = *w.OrderID
	}

	switch kind {
	case model.Cancel:
		if order.OrderID == "" {
			return model.Order{}, ErrMalformed{Reason: "cancel requires order_id"}
		}
		return order, nil

	case model.Limit:
		if w.Price == nil {
			return model.Order{}, ErrMalformed{Reason: "limit order requires price"}
		}
		if math.IsNaN(*w.Price) || math.IsInf(*w.Price, 0) || *w.Price <= 0 {
			return model.Order{}, ErrMalformed{Reason: "price must be positive and finite"}
		}
		price := decimal.NewFromFloat(*w.Price)
		order.Price = price

	case model.Market:
		// price ignored for MARKET

	default:
		return model.Order{}, ErrMalformed{Reason: "unreachable order type"}
	}

	if w.Quantity == nil || *w.Quantity <= 0 {
		return model.Order{}, ErrMalformed{Reason: "quantity must be a positive integer"}
	}
	order.Quantity = *w.Quantity

	if order.OrderID == "" {
		order.OrderID = uuid.New().String()
	}

	return order, nil
}

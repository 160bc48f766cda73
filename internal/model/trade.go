package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Execution is an immutable trade record. Price is always the resting
// (passive) order's price; Quantity is the fill size.
type Execution struct {
	TradeID     string
	BuyOrderID  string
	SellOrderID string
	Symbol      string
	Quantity    int64
	Price       decimal.Decimal
	EventTime   uint64
}

func (e Execution) String() string {
	return fmt.Sprintf("%s: buy=%s sell=%s qty=%d price=%s", e.Symbol, e.BuyOrderID, e.SellOrderID, e.Quantity, e.Price)
}

package book

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clob/internal/model"
)

func price(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func limit(id, clientID string, side model.Side, qty int64, px string, submitTime uint64) model.Order {
	return model.Order{
		OrderID:    id,
		ClientID:   clientID,
		Symbol:     "AAPL",
		Side:       side,
		Kind:       model.Limit,
		Quantity:   qty,
		Price:      price(px),
		SubmitTime: submitTime,
	}
}

func market(id, clientID string, side model.Side, qty int64, submitTime uint64) model.Order {
	return model.Order{
		OrderID:    id,
		ClientID:   clientID,
		Symbol:     "AAPL",
		Side:       side,
		Kind:       model.Market,
		Quantity:   qty,
		SubmitTime: submitTime,
	}
}

func TestCrossingLimitFullFill(t *testing.T) {
	b := New("AAPL")

	fills, err := b.Submit(limit("S1", "alice", model.Sell, 50, "150.00", 1))
	require.NoError(t, err)
	assert.Empty(t, fills)

	fills, err = b.Submit(limit("B1", "bob", model.Buy, 50, "150.00", 2))
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, "B1", fills[0].BuyOrderID)
	assert.Equal(t, "S1", fills[0].SellOrderID)
	assert.EqualValues(t, 50, fills[0].Quantity)
	assert.True(t, price("150.00").Equal(fills[0].Price))

	_, _, bidOK := b.BestBid()
	_, _, askOK := b.BestAsk()
	assert.False(t, bidOK)
	assert.False(t, askOK)
}

func TestPartialFillResidualRests(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(limit("S1", "alice", model.Sell, 100, "150.00", 1))
	require.NoError(t, err)

	fills, err := b.Submit(limit("B1", "bob", model.Buy, 30, "150.00", 2))
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.EqualValues(t, 30, fills[0].Quantity)

	askPrice, askQty, ok := b.BestAsk()
	require.True(t, ok)
	assert.True(t, price("150.00").Equal(askPrice))
	assert.EqualValues(t, 70, askQty)
}

func TestPriceTimePriority(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(limit("B1", "bob", model.Buy, 10, "151.00", 1))
	require.NoError(t, err)
	_, err = b.Submit(limit("B2", "carl", model.Buy, 10, "151.00", 2))
	require.NoError(t, err)

	fills, err := b.Submit(limit("S1", "alice", model.Sell, 15, "151.00", 3))
	require.NoError(t, err)
	require.Len(t, fills, 2)

	assert.Equal(t, "B1", fills[0].BuyOrderID)
	assert.EqualValues(t, 10, fills[0].Quantity)
	assert.Equal(t, "B2", fills[1].BuyOrderID)
	assert.EqualValues(t, 5, fills[1].Quantity)

	bidPrice, bidQty, ok := b.BestBid()
	require.True(t, ok)
	assert.True(t, price("151.00").Equal(bidPrice))
	assert.EqualValues(t, 5, bidQty)
}

func TestMarketOrderWalksBook(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(limit("S1", "alice", model.Sell, 10, "150.00", 1))
	require.NoError(t, err)
	_, err = b.Submit(limit("S2", "alice", model.Sell, 10, "151.00", 2))
	require.NoError(t, err)

	fills, err := b.Submit(market("M1", "bob", model.Buy, 15, 3))
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, "S1", fills[0].SellOrderID)
	assert.EqualValues(t, 10, fills[0].Quantity)
	assert.Equal(t, "S2", fills[1].SellOrderID)
	assert.EqualValues(t, 5, fills[1].Quantity)

	askPrice, askQty, ok := b.BestAsk()
	require.True(t, ok)
	assert.True(t, price("151.00").Equal(askPrice))
	assert.EqualValues(t, 5, askQty)

	assert.False(t, b.Cancel("M1"))
}

func TestMarketOrderInsufficientLiquidityDiscardsResidue(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(limit("S1", "alice", model.Sell, 5, "150.00", 1))
	require.NoError(t, err)

	fills, err := b.Submit(market("M1", "bob", model.Buy, 20, 2))
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.EqualValues(t, 5, fills[0].Quantity)

	_, _, askOK := b.BestAsk()
	assert.False(t, askOK)
}

func TestCancelBeforeFill(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(limit("B1", "bob", model.Buy, 10, "100.00", 1))
	require.NoError(t, err)

	assert.True(t, b.Cancel("B1"))
	assert.False(t, b.Cancel("B1")) // idempotent

	fills, err := b.Submit(limit("S1", "alice", model.Sell, 10, "100.00", 2))
	require.NoError(t, err)
	assert.Empty(t, fills)

	askPrice, askQty, ok := b.BestAsk()
	require.True(t, ok)
	assert.True(t, price("100.00").Equal(askPrice))
	assert.EqualValues(t, 10, askQty)
}

func TestCancelUnknownIsNotFound(t *testing.T) {
	b := New("AAPL")
	assert.False(t, b.Cancel("nope"))
}

func TestSelfTradePermitted(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(limit("S1", "bob", model.Sell, 10, "100.00", 1))
	require.NoError(t, err)

	fills, err := b.Submit(limit("B1", "bob", model.Buy, 10, "100.00", 2))
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.EqualValues(t, 10, fills[0].Quantity)
}

func TestBookNeverCrossed(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(limit("B1", "bob", model.Buy, 10, "99.00", 1))
	require.NoError(t, err)
	_, err = b.Submit(limit("S1", "alice", model.Sell, 10, "101.00", 2))
	require.NoError(t, err)

	bidPrice, _, bidOK := b.BestBid()
	askPrice, _, askOK := b.BestAsk()
	require.True(t, bidOK)
	require.True(t, askOK)
	assert.True(t, bidPrice.LessThan(askPrice))
}

func TestSnapshotReflectsState(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(limit("S1", "alice", model.Sell, 10, "100.00", 1))
	require.NoError(t, err)
	_, err = b.Submit(limit("S2", "alice", model.Sell, 20, "101.00", 2))
	require.NoError(t, err)

	snap := b.Snapshot(10)
	require.Len(t, snap.Asks, 2)
	assert.True(t, price("100.00").Equal(snap.Asks[0].Price))
	assert.EqualValues(t, 10, snap.Asks[0].Quantity)
	assert.Equal(t, []string{"S1"}, snap.Asks[0].OrderIDs)
	assert.True(t, price("101.00").Equal(snap.Asks[1].Price))
}

func TestLimitSelfConsistencyResidualAsksStayAboveLimit(t *testing.T) {
	b := New("AAPL")

	_, err := b.Submit(limit("S1", "alice", model.Sell, 10, "100.00", 1))
	require.NoError(t, err)
	_, err = b.Submit(limit("S2", "alice", model.Sell, 10, "102.00", 2))
	require.NoError(t, err)

	fills, err := b.Submit(limit("B1", "bob", model.Buy, 10, "101.00", 3))
	require.NoError(t, err)
	require.Len(t, fills, 1)

	askPrice, _, ok := b.BestAsk()
	require.True(t, ok)
	assert.True(t, askPrice.GreaterThan(price("101.00")))
}

package matching

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"

	"clob/internal/egress"
	"clob/internal/model"
	"clob/internal/registry"
)

func runPipeline(t *testing.T) (*Pipeline, *tomb.Tomb) {
	t.Helper()
	reg := registry.New()
	p := New(reg, 16, nil)
	tb := &tomb.Tomb{}
	tb.Go(func() error { return p.Run(tb) })
	t.Cleanup(func() {
		tb.Kill(nil)
		_ = tb.Wait()
	})
	return p, tb
}

func syncSubmit(p *Pipeline, order model.Order) egress.Response {
	replies := make(chan egress.Response, 1)
	p.Submit(Request{Order: order, Reply: func(r egress.Response) { replies <- r }})
	select {
	case r := <-replies:
		return r
	case <-time.After(time.Second):
		panic("pipeline did not reply in time")
	}
}

func TestPipelineMatchesCrossingOrders(t *testing.T) {
	p, _ := runPipeline(t)

	sell := model.Order{OrderID: "S1", ClientID: "a", Symbol: "AAPL", Side: model.Sell, Kind: model.Limit, Quantity: 10, Price: decimal.RequireFromString("10")}
	resp := syncSubmit(p, sell)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Trades)

	buy := model.Order{OrderID: "B1", ClientID: "b", Symbol: "AAPL", Side: model.Buy, Kind: model.Limit, Quantity: 10, Price: decimal.RequireFromString("10")}
	resp = syncSubmit(p, buy)
	assert.True(t, resp.Success)
	require.Len(t, resp.Trades, 1)
	assert.EqualValues(t, 10, resp.Trades[0].Quantity)
}

func TestPipelineCancelNotFoundIsPositiveAck(t *testing.T) {
	p, _ := runPipeline(t)

	resp := syncSubmit(p, model.Order{OrderID: "nope", ClientID: "a", Symbol: "AAPL", Kind: model.Cancel})
	assert.True(t, resp.Success)
	assert.Equal(t, "not found", resp.Message)
}

func TestPipelineRepliesToEveryConcurrentRequest(t *testing.T) {
	p, _ := runPipeline(t)

	var mu sync.Mutex
	var order []string
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		id := string(rune('A' + i))
		go func(id string) {
			defer wg.Done()
			p.Submit(Request{
				Order: model.Order{OrderID: id, ClientID: "c", Symbol: "AAPL", Side: model.Buy, Kind: model.Limit, Quantity: 1, Price: decimal.RequireFromString("1")},
				Reply: func(egress.Response) {
					mu.Lock()
					order = append(order, id)
					mu.Unlock()
				},
			})
		}(id)
	}
	wg.Wait()
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, order, 20)
}

func TestPipelineOverloadDropsNewestWithNegativeAck(t *testing.T) {
	reg := registry.New()
	p := New(reg, 0, nil) // zero-capacity queue: every Submit overflows immediately

	resp := syncSubmit(p, model.Order{OrderID: "B1", ClientID: "a", Symbol: "AAPL", Side: model.Buy, Kind: model.Limit, Quantity: 1, Price: decimal.RequireFromString("1")})
	assert.False(t, resp.Success)
	assert.Equal(t, "overload", resp.Message)
}

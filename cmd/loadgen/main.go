// Command clob-loadgen fires randomized order frames at a running clob
// server over UDP and reports throughput. Adapted from
// realmfikri-Limitless's cmd/loadgen/main.go, which drove an in-process
// engine.OrderBook directly; this one drives the real UDP wire protocol
// since load generation is an external collaborator of the matcher, not
// a component of it (spec §1).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"time"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9000", "address of the clob UDP gateway")
	totalOrders := flag.Int("orders", 100000, "number of orders to submit")
	symbol := flag.String("symbol", "SIM", "symbol to trade")
	basePrice := flag.Float64("base-price", 100.0, "mid price used for randomization")
	priceWidth := flag.Float64("price-width", 5.0, "price spread around the mid")
	cancelRatio := flag.Int("cancel-ratio", 0, "1 in N orders is a cancel of a prior order id instead of a new order")
	marketRatio := flag.Int("market-ratio", 10, "1 in N orders is a market order instead of limit")
	seed := flag.Int64("seed", time.Now().UnixNano(), "seed for the random stream")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	conn, err := net.Dial("udp", *serverAddr)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	type placed struct {
		id   string
		side string
	}
	sent := make([]placed, 0, *totalOrders)
	start := time.Now()

	for i := 0; i < *totalOrders; i++ {
		if *cancelRatio > 0 && len(sent) > 0 && rng.Intn(*cancelRatio) == 0 {
			target := sent[rng.Intn(len(sent))]
			send(conn, map[string]any{
				"order_id":   target.id,
				"client_id":  "loadgen",
				"symbol":     *symbol,
				"side":       target.side,
				"order_type": "CANCEL",
			})
			continue
		}

		id := "lg-" + strconv.Itoa(i)
		side := "BUY"
		if rng.Intn(2) == 1 {
			side = "SELL"
		}
		orderType := "LIMIT"
		if *marketRatio > 0 && rng.Intn(*marketRatio) == 0 {
			orderType = "MARKET"
		}
		qty := rng.Int63n(10) + 1

		frame := map[string]any{
			"order_id":   id,
			"client_id":  "loadgen",
			"symbol":     *symbol,
			"side":       side,
			"order_type": orderType,
			"quantity":   qty,
		}
		if orderType == "LIMIT" {
			offset := (rng.Float64()*2 - 1) * *priceWidth
			frame["price"] = *basePrice + offset
		}
		send(conn, frame)
		sent = append(sent, placed{id: id, side: side})
	}

	elapsed := time.Since(start)
	rate := float64(*totalOrders) / elapsed.Seconds()
	fmt.Printf("submitted %d frames in %s (%.0f frames/s)\n", *totalOrders, elapsed.Truncate(time.Millisecond), rate)
}

func send(conn net.Conn, frame map[string]any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		panic(err)
	}
	if _, err := conn.Write(payload); err != nil {
		panic(err)
	}
}

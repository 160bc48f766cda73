// Command clob-client sends a single order or cancel frame over UDP and
// prints whatever ack comes back. Retargeted from the teacher's
// cmd/client/client.go, which built a binary TCP frame by hand; this
// client builds the same JSON frame internal/ingress.Parse accepts and
// sends it over a UDP socket, since the wire format changed from
// length-prefixed binary to self-describing JSON (spec §6).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9000", "address of the clob UDP gateway")
	clientID := flag.String("client", "", "client id (compulsory)")
	action := flag.String("action", "place", "action to perform: 'place' or 'cancel'")

	symbol := flag.String("symbol", "AAPL", "ticker symbol")
	side := flag.String("side", "buy", "order side: 'buy' or 'sell' (also required to cancel, matching the side of the order being cancelled)")
	orderType := flag.String("type", "limit", "order type: 'limit' or 'market'")
	price := flag.Float64("price", 100.0, "limit price (ignored for market orders)")
	quantity := flag.Int64("qty", 10, "order quantity")

	orderID := flag.String("order-id", "", "order id to cancel (required for -action cancel)")

	flag.Parse()

	if *clientID == "" {
		fmt.Println("Error: -client is compulsory.")
		flag.Usage()
		os.Exit(1)
	}

	conn, err := net.Dial("udp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to dial %s: %v", *serverAddr, err)
	}
	defer conn.Close()

	var frame map[string]any
	switch strings.ToLower(*action) {
	case "place":
		frame = map[string]any{
			"client_id":  *clientID,
			"symbol":     *symbol,
			"side":       strings.ToUpper(*side),
			"order_type": strings.ToUpper(*orderType),
			"quantity":   *quantity,
		}
		if strings.ToUpper(*orderType) == "LIMIT" {
			frame["price"] = *price
		}
	case "cancel":
		if *orderID == "" {
			log.Fatal("Error: -order-id is required for -action cancel")
		}
		frame = map[string]any{
			"order_id":   *orderID,
			"client_id":  *clientID,
			"symbol":     *symbol,
			"side":       strings.ToUpper(*side),
			"order_type": "CANCEL",
		}
	default:
		log.Fatalf("unknown action: %s", *action)
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		log.Fatalf("failed to encode frame: %v", err)
	}
	if _, err := conn.Write(payload); err != nil {
		log.Fatalf("failed to send frame: %v", err)
	}
	fmt.Printf("-> sent %s\n", payload)

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	buf := make([]byte, 8192)
	n, err := conn.Read(buf)
	if err != nil {
		log.Fatalf("no response from server: %v", err)
	}
	fmt.Printf("<- %s\n", buf[:n])
}

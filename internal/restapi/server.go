// Package restapi is a thin façade over the same submit and snapshot paths
// the UDP transport uses: POST /orders enqueues through the same
// matching.Pipeline, and every GET route reads only from
// internal/snapshot's published state, never from a book.Book (spec §4.H
// "no new semantics"). Routing and request shapes are adapted from
// TanishqAgarwal-OrderMatchingEngine/internal/api/server.go.
package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"clob/internal/egress"
	"clob/internal/ingress"
	"clob/internal/matching"
	"clob/internal/snapshot"
)

// Server is the HTTP façade. It holds no matching state of its own.
type Server struct {
	addr      string
	pipeline  *matching.Pipeline
	publisher *snapshot.Publisher
	startedAt time.Time
}

// New builds a Server bound to addr once Run starts it.
func New(addr string, pipeline *matching.Pipeline, publisher *snapshot.Publisher) *Server {
	return &Server{addr: addr, pipeline: pipeline, publisher: publisher, startedAt: time.Now()}
}

// Run serves HTTP until the tomb dies, then shuts the listener down
// gracefully. It is supervised the same way as the UDP listener and the
// matcher, all under one tomb.Tomb in the entrypoint.
func (s *Server) Run(t *tomb.Tomb) error {
	r := mux.NewRouter()
	r.HandleFunc("/orders", s.handleCreateOrder).Methods(http.MethodPost)
	r.HandleFunc("/symbols", s.handleSymbols).Methods(http.MethodGet)
	r.HandleFunc("/statistics", s.handleStatisticsAll).Methods(http.MethodGet)
	r.HandleFunc("/orderbook", s.handleOrderBookAll).Methods(http.MethodGet)
	r.HandleFunc("/orderbook/{symbol}", s.handleOrderBookOne).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	httpServer := &http.Server{Addr: s.addr, Handler: r}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("address", s.addr).Msg("rest façade listening")
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-t.Dying():
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, ingress.MaxFrameSize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read request body"})
		return
	}

	// The REST body is the same self-describing frame the UDP transport
	// parses, so both paths share one validation path (spec §6).
	order, err := ingress.Parse(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	replies := make(chan egress.Response, 1)
	s.pipeline.Submit(matching.Request{
		Order: order,
		Reply: func(resp egress.Response) { replies <- resp },
	})

	select {
	case resp := <-replies:
		status := http.StatusOK
		if !resp.Success {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	case <-time.After(5 * time.Second):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "matcher did not respond"})
	}
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"symbols": s.publisher.Symbols()})
}

// handleStatisticsAll mirrors order_book.py's get_statistics: aggregate
// counters and best bid/ask per symbol, no depth.
func (s *Server) handleStatisticsAll(w http.ResponseWriter, r *http.Request) {
	all := s.publisher.All()
	out := make(map[string]snapshot.Statistics, len(all))
	for symbol, stats := range all {
		out[symbol] = stats.Statistics()
	}
	writeJSON(w, http.StatusOK, out)
}

// handleOrderBookAll mirrors get_order_book_snapshot for every symbol:
// the same aggregate view plus the top-N resting price levels per side.
func (s *Server) handleOrderBookAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.publisher.All())
}

func (s *Server) handleOrderBookOne(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	stats, ok := s.publisher.Get(symbol)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown symbol"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}


// Command clob-server runs the matching engine: one matcher goroutine, a
// UDP order gateway, a REST façade, and a periodic throughput feed, all
// supervised by a single tomb.Tomb and torn down on SIGINT/SIGTERM. The
// shutdown shape is adapted from the teacher's cmd/main.go
// signal.NotifyContext pattern, generalized from one goroutine to several
// tomb-supervised ones.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"clob/internal/config"
	"clob/internal/matching"
	"clob/internal/registry"
	"clob/internal/restapi"
	"clob/internal/snapshot"
	"clob/internal/transport"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := registry.New()
	statsPublisher := snapshot.NewPublisher()
	metrics := snapshot.NewMetrics(prometheus.DefaultRegisterer)

	pipeline := matching.New(reg, cfg.RequestQueueSize, snapshot.FanoutPublisher{Stats: statsPublisher, Metrics: metrics})

	feed := snapshot.NewFeed(metrics, time.Duration(cfg.StatsLogInterval)*time.Second, pipeline.QueueLen)
	pipeline.SetRecorder(feed)

	udpListener := transport.New(cfg.UDPAddress, pipeline, cfg.UDPWorkerCount)
	udpListener.SetRecorder(feed)

	restServer := restapi.New(cfg.RESTAddress, pipeline, statsPublisher)

	var t tomb.Tomb
	t.Go(func() error { return pipeline.Run(&t) })
	t.Go(func() error { return udpListener.Run(&t) })
	t.Go(func() error { return restServer.Run(&t) })
	t.Go(func() error { return feed.Run(&t) })

	log.Info().
		Str("udp_address", cfg.UDPAddress).
		Str("rest_address", cfg.RESTAddress).
		Int("queue_size", cfg.RequestQueueSize).
		Msg("clob server starting")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, draining")
	t.Kill(nil)

	if err := t.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

// Package config centralises the flags that wire a server process
// together, adapted from cmd/client/client.go's flat flag.String/flag.Int
// style in the teacher repo.
package config

import "flag"

// Config holds every knob the server entrypoint needs to start the
// matcher, the UDP transport, the REST façade and the stats feed.
type Config struct {
	UDPAddress  string
	RESTAddress string

	RequestQueueSize int
	SnapshotDepth    int // parsed only; cmd/server does not pass it on and the matcher always publishes 10 levels per side
	StatsLogInterval int // seconds between throughput log lines
	UDPWorkerCount   int
}

// Parse reads flags from args (pass os.Args[1:] in production, a fixed
// slice in tests) and returns a populated Config.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("clob-server", flag.ContinueOnError)

	udpAddr := fs.String("udp-address", "0.0.0.0:9000", "address the UDP order gateway listens on")
	restAddr := fs.String("rest-address", "0.0.0.0:8080", "address the REST façade listens on")
	queueSize := fs.Int("queue-size", 4096, "bounded matcher request queue capacity")
	snapDepth := fs.Int("snapshot-depth", 10, "price levels per published book snapshot (not applied: the matcher always publishes 10)")
	statsInterval := fs.Int("stats-interval-seconds", 1, "seconds between throughput log lines")
	workers := fs.Int("udp-workers", 8, "worker goroutines parsing inbound UDP datagrams")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return Config{
		UDPAddress:       *udpAddr,
		RESTAddress:      *restAddr,
		RequestQueueSize: *queueSize,
		SnapshotDepth:    *snapDepth,
		StatsLogInterval: *statsInterval,
		UDPWorkerCount:   *workers,
	}, nil
}

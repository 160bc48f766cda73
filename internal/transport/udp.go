// Package transport owns the connectionless datagram endpoint (spec
// §4.G): it demultiplexes inbound frames to ingress and multiplexes
// outbound acks back to their originating address. It never touches a
// Book or the registry directly.
package transport

import (
	"context"
	"net"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"clob/internal/egress"
	"clob/internal/ingress"
	"clob/internal/matching"
)

const (
	defaultWorkers      = 8
	responseQueueSize   = 1024
	maxDatagramSize     = ingress.MaxFrameSize
)

type receivedDatagram struct {
	data []byte
	addr *net.UDPAddr
}

type outboundFrame struct {
	frame []byte
	addr  *net.UDPAddr
}

// Recorder observes malformed frames rejected before they ever reach the
// matcher. matching.Recorder satisfies this.
type Recorder interface {
	OrderRejected(reason string)
}

// Listener owns one bound UDP endpoint for the life of the process.
type Listener struct {
	address  string
	pipeline *matching.Pipeline
	pool     *WorkerPool
	recorder Recorder

	conn      *net.UDPConn
	responses chan outboundFrame
}

// New returns a Listener bound to address (host:port) once Run starts it,
// parsing inbound datagrams across workers goroutines (defaultWorkers if
// workers <= 0).
func New(address string, pipeline *matching.Pipeline, workers int) *Listener {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Listener{
		address:   address,
		pipeline:  pipeline,
		pool:      NewWorkerPool(workers),
		responses: make(chan outboundFrame, responseQueueSize),
	}
}

// SetRecorder wires an optional malformed-frame recorder.
func (l *Listener) SetRecorder(rec Recorder) {
	l.recorder = rec
}

// Run binds the socket, starts the parsing worker pool and the response
// sender, then blocks receiving datagrams until the tomb dies. On
// shutdown it closes the socket so no further datagrams are accepted.
func (l *Listener) Run(t *tomb.Tomb) error {
	var lc net.ListenConfig
	packetConn, err := lc.ListenPacket(context.Background(), "udp", l.address)
	if err != nil {
		return err
	}
	conn, ok := packetConn.(*net.UDPConn)
	if !ok {
		packetConn.Close()
		return errNotUDP
	}
	l.conn = conn
	defer l.conn.Close()

	// Closing the socket unblocks ReadFromUDP so the loop below can see
	// the dying tomb and return.
	go func() {
		<-t.Dying()
		l.conn.Close()
	}()

	log.Info().Str("address", l.address).Msg("udp listener bound")

	l.pool.Setup(t, l.handleDatagram)
	t.Go(func() error { return l.sendResponses(t) })

	buf := make([]byte, maxDatagramSize)
	for {
		select {
		case <-t.Dying():
			return nil
		default:
		}

		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.Dying():
				return nil
			default:
				log.Error().Err(err).Msg("udp read error")
				continue
			}
		}

		frame := make([]byte, n)
		copy(frame, buf[:n])
		l.pool.AddTask(receivedDatagram{data: frame, addr: addr})
	}
}

func (l *Listener) handleDatagram(t *tomb.Tomb, task any) error {
	dg, ok := task.(receivedDatagram)
	if !ok {
		return errBadTask
	}

	order, err := ingress.Parse(dg.data)
	if err != nil {
		if l.recorder != nil {
			l.recorder.OrderRejected("malformed_request")
		}
		resp := egress.Rejected("", "malformed_request", err.Error())
		l.enqueueResponse(resp, dg.addr)
		return nil
	}

	l.pipeline.Submit(matching.Request{
		Order: order,
		Reply: func(resp egress.Response) {
			l.enqueueResponse(resp, dg.addr)
		},
	})
	return nil
}

func (l *Listener) enqueueResponse(resp egress.Response, addr *net.UDPAddr) {
	frame, err := egress.Serialize(resp)
	if err != nil {
		log.Error().Err(err).Msg("failed to serialize response")
		return
	}
	select {
	case l.responses <- outboundFrame{frame: frame, addr: addr}:
	default:
		log.Warn().Str("addr", addr.String()).Msg("response queue full, dropping ack")
	}
}

// sendResponses is the single egress sender: outbound frames are
// best-effort, failures are logged and discarded (spec §4.F/§7
// transport_failure).
func (l *Listener) sendResponses(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case out := <-l.responses:
			if _, err := l.conn.WriteToUDP(out.frame, out.addr); err != nil {
				log.Error().Err(err).Str("addr", out.addr.String()).Msg("transport_failure sending response")
			}
		}
	}
}

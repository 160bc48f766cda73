package transport

import "errors"

var (
	errNotUDP  = errors.New("listen config did not return a UDP connection")
	errBadTask = errors.New("worker pool task was not a received datagram")
)

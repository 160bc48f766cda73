package transport

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskChanSize = 256

// WorkerFunc processes one queued task. Adapted from the teacher's
// internal/worker.go WorkerPool, generalized from "one accepted net.Conn
// per task" to "one received datagram per task" since UDP has no
// connections to hand off.
type WorkerFunc = func(t *tomb.Tomb, task any) error

// WorkerPool runs n workers pulling tasks off a shared channel, all
// supervised by the same tomb as the listener that feeds them.
type WorkerPool struct {
	n     int
	tasks chan any
}

// NewWorkerPool returns a pool sized for n concurrent workers.
func NewWorkerPool(n int) *WorkerPool {
	return &WorkerPool{
		n:     n,
		tasks: make(chan any, taskChanSize),
	}
}

// AddTask enqueues a task for the pool. Blocks if the pool's internal
// buffer is full — callers that must never block (the UDP read loop)
// should size the pool generously or select on a separate overflow path.
func (pool *WorkerPool) AddTask(task any) {
	pool.tasks <- task
}

// Setup starts n long-lived workers, each running work in a loop until
// the tomb dies.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunc) {
	log.Info().Int("workers", pool.n).Msg("starting datagram worker pool")
	for i := 0; i < pool.n; i++ {
		t.Go(func() error {
			return pool.worker(t, work)
		})
	}
}

func (pool *WorkerPool) worker(t *tomb.Tomb, work WorkerFunc) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-pool.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Msg("worker task failed")
			}
		}
	}
}

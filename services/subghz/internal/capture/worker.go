// services/subghz/internal/capture/worker.go
package capture

import (
	"context"
	"sync/atomic"
	"time"

	"subghz-go/types"
	"subghz-go/x/mathx"
	"subghz-go/x/shmring"
)

// WorkerConfig sizes the ISR ring and the consumer channel.
type WorkerConfig struct {
	RingSize int           // power of two; default 512
	OutBuf   int           // default 256
	Poll     time.Duration // safety re-check of the ring; default 5 ms, kept within 1..100 ms
}

const drainBatch = 32

// Worker moves capture events out of interrupt context. Push is the ISR
// side: it never blocks and counts drops when the ring is full. A goroutine
// drains the ring into Events().
type Worker struct {
	ring    *shmring.Ring[types.CaptureEvent]
	outQ    chan types.CaptureEvent
	poll    time.Duration
	stopped chan struct{}

	isrDrops atomic.Uint32
	outDrops atomic.Uint32
}

func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.RingSize <= 0 {
		cfg.RingSize = 512
	}
	if cfg.OutBuf <= 0 {
		cfg.OutBuf = 256
	}
	if cfg.Poll <= 0 {
		cfg.Poll = 5 * time.Millisecond
	}
	cfg.Poll = mathx.Clamp(cfg.Poll, time.Millisecond, 100*time.Millisecond)
	return &Worker{
		ring:    shmring.New[types.CaptureEvent](cfg.RingSize),
		outQ:    make(chan types.CaptureEvent, cfg.OutBuf),
		poll:    cfg.Poll,
		stopped: make(chan struct{}),
	}
}

// Push is a Callback suitable for StartAsyncRx.
func (w *Worker) Push(ev types.CaptureEvent) {
	if !w.ring.TryPush(ev) {
		w.isrDrops.Add(1) // protect ISR path
	}
}

// Start runs the drain loop until ctx is cancelled. Events() is closed on exit.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer close(w.stopped)
		defer close(w.outQ)
		tick := time.NewTicker(w.poll)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				w.drain()
				return
			case <-w.ring.Readable():
			case <-tick.C:
			}
			w.drain()
		}
	}()
}

func (w *Worker) drain() {
	var batch [drainBatch]types.CaptureEvent
	for {
		n := w.ring.Drain(batch[:])
		if n == 0 {
			return
		}
		for _, ev := range batch[:n] {
			select {
			case w.outQ <- ev:
			default:
				// drop to protect system if consumer is slow
				w.outDrops.Add(1)
			}
		}
	}
}

func (w *Worker) Events() <-chan types.CaptureEvent { return w.outQ }

// Done is closed once the drain goroutine has exited.
func (w *Worker) Done() <-chan struct{} { return w.stopped }

// Backlog reports events waiting in the ring and the ring capacity.
func (w *Worker) Backlog() (queued, capacity int) {
	return w.ring.Available(), w.ring.Cap()
}

func (w *Worker) ISRDrops() uint32 { return w.isrDrops.Load() }
func (w *Worker) OutDrops() uint32 { return w.outDrops.Load() }

// services/subghz/internal/platform/softtoggle.go
package platform

import (
	"sync"
	"sync/atomic"
	"time"

	"subghz-go/errcode"
	"subghz-go/services/subghz/hw"
)

// dataLine is a GD0 line that software can drive while in timer-output mode.
type dataLine interface {
	hw.DataPin
	Mode() hw.PinMode
	Drive(level bool)
}

// softToggle plays the slot buffer on a goroutine with the semantics of a
// toggle-mode timer fed by circular DMA: each period holds the output, then
// the output toggles, the preloaded slot becomes the reload and the next slot
// is fetched. Interrupt handlers run on the playing goroutine.
type softToggle struct {
	line dataLine
	wait func(deadline time.Time, stop <-chan struct{}) bool

	mu      sync.Mutex
	armed   bool
	cfg     hw.ToggleConfig
	slots   []uint32
	isr     hw.ToggleISRs
	stop    chan struct{}
	done    chan struct{}
	running atomic.Bool
}

func newSoftToggle(line dataLine) *softToggle {
	return &softToggle{line: line, wait: waitUntil}
}

func (t *softToggle) Arm(cfg hw.ToggleConfig, slots []uint32, isr hw.ToggleISRs) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.armed {
		return errcode.Busy
	}
	if len(slots) < 2 || len(slots)%2 != 0 || isr.HalfTransfer == nil || isr.TransferComplete == nil || isr.Update == nil {
		return errcode.InvalidParams
	}
	t.armed, t.cfg, t.slots, t.isr = true, cfg, slots, isr
	return nil
}

func (t *softToggle) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed || t.done != nil {
		return
	}
	t.stop, t.done = make(chan struct{}), make(chan struct{})
	t.running.Store(true)
	go t.play(t.cfg, t.slots, t.isr, t.stop, t.done)
}

func (t *softToggle) Halt() { t.running.Store(false) }

// Disarm stops the player and waits for it, so no handler runs afterwards.
// A period in progress is abandoned.
func (t *softToggle) Disarm() {
	t.mu.Lock()
	t.running.Store(false)
	stop, done := t.stop, t.done
	t.armed, t.stop, t.done, t.slots, t.isr = false, nil, nil, nil, hw.ToggleISRs{}
	t.mu.Unlock()
	if done != nil {
		close(stop)
		<-done
	}
}

func (t *softToggle) play(cfg hw.ToggleConfig, slots []uint32, isr hw.ToggleISRs, stop, done chan struct{}) {
	defer close(done)
	tick := tickOf(cfg.Prescaler)
	half := len(slots) / 2
	arr, preload, pos := cfg.InitialReload, slots[0], 1
	out := false
	next := time.Now()
	for t.running.Load() {
		if t.line.Mode() == hw.PinTimerOutput {
			t.line.Drive(out)
		}
		next = next.Add(time.Duration(arr) * tick)
		if !t.wait(next, stop) {
			return
		}

		out = !out
		arr, preload = preload, slots[pos]
		pos++
		switch pos {
		case half:
			isr.HalfTransfer()
		case len(slots):
			pos = 0
			isr.TransferComplete()
		}
		isr.Update(arr)
	}
}

// spinWindow is the tail of a wait that is spun rather than slept.
const spinWindow = time.Millisecond

// waitUntil sleeps for the bulk of a wait and spins the tail. It returns
// false as soon as stop is closed.
func waitUntil(deadline time.Time, stop <-chan struct{}) bool {
	if d := time.Until(deadline) - spinWindow; d > 0 {
		tm := time.NewTimer(d)
		select {
		case <-stop:
			tm.Stop()
			return false
		case <-tm.C:
		}
	}
	for time.Now().Before(deadline) {
		select {
		case <-stop:
			return false
		default:
		}
	}
	return true
}

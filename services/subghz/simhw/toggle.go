// services/subghz/simhw/toggle.go
package simhw

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"subghz-go/errcode"
	"subghz-go/services/subghz/hw"
	"subghz-go/types"
)

// Segment is one stretch of constant carrier level on the air.
type Segment struct {
	Level types.Level
	Ticks types.Tick
}

// ToggleTimer models an up-counting timer in output-compare toggle mode with
// auto-reload preload, fed by a circular DMA from the slot buffer on every
// update event.
//
// Each Step plays one timer period at the current output level, then
// performs the update: the output toggles, the preloaded value becomes the
// reload, DMA fetches the next slot into the preload register (firing
// half-transfer / transfer-complete as it crosses the halves) and the update
// ISR runs with the reload just loaded.
type ToggleTimer struct {
	mu      sync.Mutex
	data    *Pin
	armed   bool
	running atomic.Bool
	slots   []uint32
	isr     hw.ToggleISRs
	cfg     hw.ToggleConfig

	pos     int
	arr     uint32
	preload uint32
	out     bool

	trace   []Segment
	updates []uint32
	halts   atomic.Int32
}

func (t *ToggleTimer) Arm(cfg hw.ToggleConfig, slots []uint32, isr hw.ToggleISRs) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.armed {
		return errcode.Busy
	}
	if len(slots) < 2 || len(slots)%2 != 0 || isr.HalfTransfer == nil || isr.TransferComplete == nil || isr.Update == nil {
		return errcode.InvalidParams
	}
	t.armed, t.cfg, t.slots, t.isr = true, cfg, slots, isr
	t.arr, t.out = cfg.InitialReload, false
	t.trace, t.updates = nil, nil
	t.halts.Store(0)
	// Software update event: DMA preloads the first slot.
	t.preload, t.pos = slots[0], 1
	return nil
}

func (t *ToggleTimer) Start() {
	t.mu.Lock()
	if t.armed {
		t.running.Store(true)
	}
	t.mu.Unlock()
}

// Halt may be called from the update ISR.
func (t *ToggleTimer) Halt() {
	if t.running.Swap(false) {
		t.halts.Add(1)
	}
}

func (t *ToggleTimer) Disarm() {
	t.mu.Lock()
	t.running.Store(false)
	t.armed = false
	t.slots = nil
	t.isr = hw.ToggleISRs{}
	t.mu.Unlock()
}

// Running reports whether the counter is counting.
func (t *ToggleTimer) Running() bool { return t.running.Load() }

// Step plays one period. It returns false once the counter is stopped.
func (t *ToggleTimer) Step() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed || !t.running.Load() {
		return false
	}
	if t.arr > 0 && t.data.Mode() == hw.PinTimerOutput {
		t.emit(types.Level(t.out), types.Tick(t.arr))
	}

	t.out = !t.out
	t.arr = t.preload
	t.preload = t.slots[t.pos]
	t.pos++
	half := len(t.slots) / 2
	switch t.pos {
	case half:
		t.isr.HalfTransfer()
	case len(t.slots):
		t.pos = 0
		t.isr.TransferComplete()
	}
	t.updates = append(t.updates, t.arr)
	t.isr.Update(t.arr)
	return t.running.Load()
}

// Run steps until the counter stops or max periods elapse, and returns the
// number of periods played.
func (t *ToggleTimer) Run(max int) int {
	n := 0
	for n < max {
		n++
		if !t.Step() {
			break
		}
	}
	return n
}

// Clock plays up to burst periods every interval while the counter runs,
// until ctx is done. It drives the timer when the simulator backs a live
// driver rather than a test.
func (t *ToggleTimer) Clock(ctx context.Context, interval time.Duration, burst int) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if t.Running() {
				t.Run(burst)
			}
		}
	}
}

func (t *ToggleTimer) emit(l types.Level, d types.Tick) {
	if n := len(t.trace); n > 0 && t.trace[n-1].Level == l {
		t.trace[n-1].Ticks += d
		return
	}
	t.trace = append(t.trace, Segment{Level: l, Ticks: d})
}

// Trace returns the waveform emitted while the pin was timer-driven, with
// adjacent equal levels merged. The initial reload period is included.
func (t *ToggleTimer) Trace() []Segment {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Segment(nil), t.trace...)
}

// Updates returns the reload value seen by every update ISR.
func (t *ToggleTimer) Updates() []uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]uint32(nil), t.updates...)
}

// Halts counts Halt calls that stopped a running counter.
func (t *ToggleTimer) Halts() int { return int(t.halts.Load()) }

func (t *ToggleTimer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

// services/subghz/internal/capture/capture.go
package capture

import (
	"subghz-go/services/subghz/hw"
	"subghz-go/types"
)

// Timer setup for async RX: 1 µs ticks, a reload large enough that the
// counter never wraps between two rising edges in practice, and the
// 32-sample/8-event input filter on the direct channel.
const (
	Prescaler = 64
	Reload    = 0x7FFFFFFE
	FilterB   = 0x0F
)

// Config returns the capture timer configuration used by async RX.
func Config() hw.CaptureConfig {
	return hw.CaptureConfig{Prescaler: Prescaler, Reload: Reload, FilterB: FilterB}
}

// Callback receives one event per edge, in edge order, in ISR context.
type Callback func(types.CaptureEvent)

// Engine turns capture-register snapshots into mark/space durations.
//
// Channel B (rising edge) resets the counter, so channel A (falling edge)
// captures the mark width directly, and channel B captures mark+space.
type Engine struct {
	delta  uint32 // last mark width latched from channel A
	marked bool   // a mark has been reported
	cb     Callback
}

func NewEngine(cb Callback) *Engine {
	if cb == nil {
		panic("subghz: nil capture callback")
	}
	return &Engine{cb: cb}
}

// ISR services one capture interrupt. When both flags are pending, A is
// older than B (a falling edge cannot follow a rising edge that already
// reset the counter within the same interrupt latency), so A goes first.
func (e *Engine) ISR(flags hw.CaptureFlags, ccrA, ccrB uint32) {
	if flags&hw.CaptureA != 0 {
		e.delta, e.marked = ccrA, true
		e.cb(types.CaptureEvent{Starting: true, Duration: types.Tick(ccrA)})
	}
	if flags&hw.CaptureB != 0 {
		var space uint32
		if ccrB >= e.delta {
			space = ccrB - e.delta
		}
		// A rising edge with no falling edge since the last reset reports
		// the whole period as space.
		e.delta = 0
		// A rising edge at the instant capture starts carries no space.
		if space == 0 && !e.marked {
			return
		}
		e.cb(types.CaptureEvent{Starting: false, Duration: types.Tick(space)})
	}
}

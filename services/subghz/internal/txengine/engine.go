// services/subghz/internal/txengine/engine.go
package txengine

import (
	"subghz-go/errcode"
	"subghz-go/services/subghz/hw"
	"subghz-go/services/subghz/internal/state"
	"subghz-go/types"
)

// Toggle timer setup: 1 µs ticks, first reload before the DMA stream takes over.
const (
	Prescaler     = 64
	InitialReload = 500
)

// Engine drives one async transmission through the toggle timer and its
// circular DMA. The caller owns the driver state transitions into AsyncTx
// and back to Idle; the engine performs the ISR-side ones.
type Engine struct {
	st  *state.Machine
	hw  *hw.Hardware
	ctx *Context
}

func NewEngine(st *state.Machine, h *hw.Hardware) *Engine {
	return &Engine{st: st, hw: h}
}

// Start primes the buffer, arms the timer and keys the transmitter.
// State must already be AsyncTx.
func (e *Engine) Start(pull func() types.LevelDuration, guard types.Tick, size int) error {
	e.st.Assert(state.AsyncTx)
	if e.hw.Toggle == nil {
		return errcode.Wrap(errcode.NotConfigured, "txengine.Start", nil)
	}
	c := NewContext(pull, guard, size)
	c.Prime()
	e.ctx = c

	e.hw.Data.SetMode(hw.PinTimerOutput)
	err := e.hw.Toggle.Arm(
		hw.ToggleConfig{Prescaler: Prescaler, InitialReload: InitialReload},
		c.Slots(),
		hw.ToggleISRs{
			HalfTransfer:     func() { e.dma(0) },
			TransferComplete: func() { e.dma(c.Half()) },
			Update:           e.update,
		},
	)
	if err != nil {
		e.hw.Data.SetMode(hw.PinAnalog)
		e.ctx = nil
		return errcode.Wrap(errcode.Of(err), "txengine.Start", err)
	}
	if e.hw.RFEnable != nil {
		e.hw.RFEnable.Set(true)
	}
	e.hw.Radio.SwitchTo(types.ModeTx)
	e.hw.Toggle.Start()
	return nil
}

// dma refills the half the DMA just finished reading.
func (e *Engine) dma(start int) {
	switch e.st.Load() {
	case state.AsyncTx:
		e.ctx.Refill(start, e.ctx.Half())
	case state.AsyncTxLast, state.AsyncTxEnd:
		e.ctx.ZeroFill(start, e.ctx.Half())
	default:
		panic("subghz: tx dma interrupt in state " + e.st.Load().String())
	}
}

// update runs on every timer update. A zero reload is the end sentinel:
// the first one drops the carrier, the next one stops the counter.
func (e *Engine) update(reload uint32) {
	if reload != 0 {
		return
	}
	if e.st.Try(state.AsyncTxLast, state.AsyncTx) {
		e.hw.Data.SetMode(hw.PinInputPullDown)
		return
	}
	if e.st.Try(state.AsyncTxEnd, state.AsyncTxLast) {
		e.hw.Toggle.Halt()
	}
}

// Stop releases the hardware and returns the duty accounting. No ISR runs
// after the timer is disarmed, so the context is read without races.
func (e *Engine) Stop() Stats {
	e.hw.Radio.SwitchTo(types.ModeIdle)
	if e.hw.RFEnable != nil {
		e.hw.RFEnable.Set(false)
	}
	e.hw.RunCritical(e.hw.Toggle.Disarm)
	e.hw.Data.SetMode(hw.PinAnalog)

	var s Stats
	if e.ctx != nil {
		s = e.ctx.Stats()
		e.ctx = nil
	}
	return s
}

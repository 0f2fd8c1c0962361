// services/subghz/async.go
package subghz

import (
	"context"
	"time"

	"subghz-go/errcode"
	"subghz-go/services/subghz/hw"
	"subghz-go/services/subghz/internal/capture"
	"subghz-go/services/subghz/internal/state"
	"subghz-go/types"
)

// waitPoll is the completion poll period of WaitAsyncTx.
const waitPoll = time.Millisecond

// ---- async RX ----

// Worker moves capture events out of interrupt context.
type (
	Worker       = capture.Worker
	WorkerConfig = capture.WorkerConfig
)

func NewWorker(cfg WorkerConfig) *Worker { return capture.NewWorker(cfg) }

// StartAsyncRx routes the data pin to the capture timer and switches the
// radio to receive. cb runs in interrupt context once per edge, alternating
// mark (Starting=true) and space durations; it must not block or call back
// into the driver. Pass a Worker's Push to hand events to a goroutine.
// The first event may be a space: the idle time from capture start to the
// first rising edge. A rising edge at capture start is not reported.
func (d *Driver) StartAsyncRx(cb func(types.CaptureEvent)) error {
	if cb == nil {
		panic("subghz: nil capture callback")
	}
	d.st.Must(state.AsyncRx, state.Idle)
	if d.hw.Capture == nil {
		d.st.Must(state.Idle, state.AsyncRx)
		return errcode.Wrap(errcode.NotConfigured, "subghz.StartAsyncRx", nil)
	}

	eng := capture.NewEngine(cb)
	d.hw.Data.SetMode(hw.PinCaptureInput)
	if err := d.hw.Capture.StartCapture(capture.Config(), eng.ISR); err != nil {
		d.hw.Data.SetMode(hw.PinAnalog)
		d.st.Must(state.Idle, state.AsyncRx)
		d.log.Error("async rx start failed", "err", err)
		return errcode.Wrap(errcode.Of(err), "subghz.StartAsyncRx", err)
	}
	d.hw.Radio.SwitchTo(types.ModeRx)
	if err := d.radioErr("async rx"); err != nil {
		d.hw.Radio.SwitchTo(types.ModeIdle)
		_ = d.radioErr("async rx stop")
		d.hw.RunCritical(d.hw.Capture.StopCapture)
		d.hw.Data.SetMode(hw.PinAnalog)
		d.st.Must(state.Idle, state.AsyncRx)
		return errcode.Wrap(errcode.Of(err), "subghz.StartAsyncRx", err)
	}
	d.log.Debug("async rx started", "hz", d.Frequency())
	return nil
}

// StopAsyncRx idles the radio and tears the capture timer down.
func (d *Driver) StopAsyncRx() {
	d.st.Assert(state.AsyncRx)
	d.hw.Radio.SwitchTo(types.ModeIdle)
	d.hw.RunCritical(d.hw.Capture.StopCapture)
	d.hw.Data.SetMode(hw.PinAnalog)
	d.st.Must(state.Idle, state.AsyncRx)
	_ = d.radioErr("async rx stop")
	d.log.Debug("async rx stopped")
}

// ---- async TX ----

// StartAsyncTx starts streaming the symbols produced by pull. pull runs in
// interrupt context and must return quickly; Wait pads with silence and
// Reset ends the stream. It returns false, leaving the hardware untouched,
// when the tuned frequency is not permitted in the region or the platform
// cannot arm the timer. A radio that fails to enter transmit is torn down
// again and also yields false.
func (d *Driver) StartAsyncTx(pull func() types.LevelDuration) bool {
	if pull == nil {
		panic("subghz: nil tx pull callback")
	}
	d.st.Assert(state.Idle)
	if d.Regulation() != types.RegulationTxRx {
		d.log.Warn("async tx refused", "hz", d.Frequency(), "region", d.policy.Region())
		return false
	}

	d.st.Must(state.AsyncTx, state.Idle)
	if err := d.tx.Start(pull, d.cfg.GuardTime, d.cfg.BufferSize); err != nil {
		d.st.Must(state.Idle, state.AsyncTx)
		d.log.Error("async tx start failed", "err", err)
		return false
	}
	if d.radioErr("async tx") != nil {
		d.tx.Stop()
		_ = d.radioErr("async tx stop")
		d.st.Must(state.Idle, state.AsyncTx, state.AsyncTxLast, state.AsyncTxEnd)
		return false
	}
	d.log.Debug("async tx started", "hz", d.Frequency())
	return true
}

// IsAsyncTxComplete reports whether the carrier has ended and the timer
// stopped. It never blocks.
func (d *Driver) IsAsyncTxComplete() bool { return d.st.Is(state.AsyncTxEnd) }

// WaitAsyncTx polls for completion until ctx is done. On expiry it returns
// an errcode.Timeout error; the caller still owns StopAsyncTx.
func (d *Driver) WaitAsyncTx(ctx context.Context) error {
	d.st.Assert(state.AsyncTx, state.AsyncTxLast, state.AsyncTxEnd)
	if d.IsAsyncTxComplete() {
		return nil
	}
	tick := time.NewTicker(waitPoll)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return errcode.Wrap(errcode.Timeout, "subghz.WaitAsyncTx", ctx.Err())
		case <-tick.C:
			if d.IsAsyncTxComplete() {
				return nil
			}
		}
	}
}

// StopAsyncTx tears transmission down, early or after completion, and
// returns the duty accounting.
func (d *Driver) StopAsyncTx() Stats {
	d.st.Assert(state.AsyncTx, state.AsyncTxLast, state.AsyncTxEnd)
	s := d.tx.Stop()
	_ = d.radioErr("async tx stop")
	d.log.Debug("async tx stopped",
		"on_us", s.DutyHigh,
		"off_us", s.DutyLow,
		"duty_pct", s.DutyCycle(),
	)
	d.st.Must(state.Idle, state.AsyncTx, state.AsyncTxLast, state.AsyncTxEnd)
	return s
}

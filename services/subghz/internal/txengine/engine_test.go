package txengine

import (
	"errors"
	"testing"

	"subghz-go/services/subghz/hw"
	"subghz-go/services/subghz/internal/state"
	"subghz-go/services/subghz/simhw"
	"subghz-go/types"
)

func startEngine(t *testing.T, seq []types.LevelDuration, size int) (*Engine, *state.Machine, *simhw.Sim) {
	t.Helper()
	sim := simhw.New()
	h := sim.Hardware()
	var st state.Machine
	st.Must(state.AsyncTx, state.Idle)
	e := NewEngine(&st, &h)
	if err := e.Start(types.Replay(seq), guard, size); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return e, &st, sim
}

func TestEngineHandshake(t *testing.T) {
	e, st, sim := startEngine(t, []types.LevelDuration{H(100), L(200), H(300)}, 8)

	if !sim.Toggle.Running() || !sim.RFEnable.Level() || sim.Radio.Mode() != types.ModeTx {
		t.Fatal("transmitter not keyed")
	}
	sim.Toggle.Run(100)
	if !st.Is(state.AsyncTxEnd) {
		t.Fatalf("state = %v", st.Load())
	}
	if sim.Toggle.Halts() != 1 {
		t.Fatalf("halts = %d", sim.Toggle.Halts())
	}

	want := []simhw.Segment{
		{Level: types.Low, Ticks: InitialReload},
		{Level: types.High, Ticks: 100},
		{Level: types.Low, Ticks: 200},
		{Level: types.High, Ticks: 300},
		{Level: types.Low, Ticks: guard},
	}
	got := sim.Toggle.Trace()
	if len(got) != len(want) {
		t.Fatalf("trace = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("trace = %v want %v", got, want)
		}
	}

	s := e.Stop()
	if s.DutyHigh != 400 || s.DutyLow != 200+guard {
		t.Fatalf("stats = %+v", s)
	}
	modes := sim.Data.History()
	wantModes := []hw.PinMode{hw.PinTimerOutput, hw.PinInputPullDown, hw.PinAnalog}
	if len(modes) != len(wantModes) {
		t.Fatalf("pin modes = %v", modes)
	}
	for i := range wantModes {
		if modes[i] != wantModes[i] {
			t.Fatalf("pin modes = %v want %v", modes, wantModes)
		}
	}
	if sim.Toggle.Armed() || sim.RFEnable.Level() || sim.Radio.Mode() != types.ModeIdle {
		t.Fatal("hardware not released")
	}
}

func TestEngineLongStreamAcrossLaps(t *testing.T) {
	var seq []types.LevelDuration
	var high, low uint64
	for i := 0; i < 101; i++ {
		d := types.Tick(10 + i)
		lvl := types.Level(i%2 == 0)
		seq = append(seq, types.Timed(lvl, d))
		if lvl {
			high += uint64(d)
		} else {
			low += uint64(d)
		}
	}
	e, st, sim := startEngine(t, seq, 16)
	sim.Toggle.Run(10000)
	if !st.Is(state.AsyncTxEnd) {
		t.Fatalf("state = %v", st.Load())
	}
	tr := sim.Toggle.Trace()
	// Leading initial period, then one segment per symbol; the stream ends
	// High so a Low guard closes it.
	if len(tr) != 1+len(seq)+1 {
		t.Fatalf("trace has %d segments", len(tr))
	}
	for i, ld := range seq {
		if tr[i+1].Level != ld.Level() || tr[i+1].Ticks != ld.Duration() {
			t.Fatalf("segment %d = %+v want %v", i, tr[i+1], ld)
		}
	}
	s := e.Stop()
	if s.DutyHigh != high || s.DutyLow != low+guard {
		t.Fatalf("stats = %+v want high=%d low=%d", s, high, low+guard)
	}
}

func TestEngineWaitEndsThroughHandshake(t *testing.T) {
	e, st, sim := startEngine(t, []types.LevelDuration{H(100), types.Wait(), L(50)}, 8)
	sim.Toggle.Run(100)
	if !st.Is(state.AsyncTxEnd) {
		t.Fatalf("state = %v", st.Load())
	}
	tr := sim.Toggle.Trace()
	if last := tr[len(tr)-1]; last.Level != types.High || last.Ticks != 100 {
		t.Fatalf("trace = %v", tr)
	}
	if s := e.Stop(); s.DutyHigh != 100 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestEngineStopEarly(t *testing.T) {
	pull := func() types.LevelDuration { return H(10) } // never ends
	sim := simhw.New()
	h := sim.Hardware()
	var st state.Machine
	st.Must(state.AsyncTx, state.Idle)
	e := NewEngine(&st, &h)
	if err := e.Start(pull, guard, 8); err != nil {
		t.Fatal(err)
	}
	sim.Toggle.Run(50)
	if !st.Is(state.AsyncTx) {
		t.Fatalf("state = %v", st.Load())
	}
	s := e.Stop()
	if s.DutyHigh == 0 || s.DutyLow == 0 {
		t.Fatalf("stats = %+v", s)
	}
	if sim.Toggle.Step() {
		t.Fatal("timer still running after Stop")
	}
}

func TestEngineDMAInIdlePanics(t *testing.T) {
	e, st, _ := startEngine(t, []types.LevelDuration{H(1)}, 8)
	st.Must(state.Idle, state.AsyncTx)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	e.dma(0)
}

func TestEngineDMAAfterLastZeroFills(t *testing.T) {
	e, st, _ := startEngine(t, []types.LevelDuration{H(1), L(1), H(1), L(1), H(1), L(1), H(1), L(1), H(1)}, 8)
	st.Must(state.AsyncTxLast, state.AsyncTx)
	e.dma(0)
	for i, v := range e.ctx.Slots()[:4] {
		if v != 0 {
			t.Fatalf("slot %d = %d", i, v)
		}
	}
}

type failingToggle struct{ hw.ToggleTimer }

func (failingToggle) Arm(hw.ToggleConfig, []uint32, hw.ToggleISRs) error {
	return errors.New("dma busy")
}

func TestEngineArmFailureReleasesPin(t *testing.T) {
	sim := simhw.New()
	h := sim.Hardware()
	h.Toggle = failingToggle{}
	var st state.Machine
	st.Must(state.AsyncTx, state.Idle)
	e := NewEngine(&st, &h)
	if err := e.Start(types.Replay(nil), guard, 8); err == nil {
		t.Fatal("expected error")
	}
	if sim.Data.Mode() != hw.PinAnalog {
		t.Fatalf("pin mode = %v", sim.Data.Mode())
	}
	if sim.RFEnable.Level() || sim.Radio.Mode() == types.ModeTx {
		t.Fatal("transmitter keyed after failed arm")
	}
}

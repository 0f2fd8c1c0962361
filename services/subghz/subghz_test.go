package subghz

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"subghz-go/errcode"
	"subghz-go/services/subghz/hw"
	"subghz-go/services/subghz/simhw"
	"subghz-go/types"
	"subghz-go/x/logx"
)

func newSim(t *testing.T, r types.Region) (*Driver, *simhw.Sim) {
	t.Helper()
	logx.SetOutput(nil)
	sim := simhw.New()
	return New(sim.Hardware(), Config{Region: r}), sim
}

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected panic", name)
		}
	}()
	fn()
}

func TestNewInitialisesChip(t *testing.T) {
	d, sim := newSim(t, types.RegionEuRu)
	if d.State() != StateIdle {
		t.Fatalf("state = %v", d.State())
	}
	if sim.Radio.Resets() != 1 || !sim.Radio.Sleeping() {
		t.Fatal("chip not reset and put to sleep")
	}
	if sim.Data.Mode() != hw.PinAnalog {
		t.Fatalf("pin = %v", sim.Data.Mode())
	}
	if d.Regulation() != types.RegulationOnlyRx {
		t.Fatal("tx must be refused before tuning")
	}
}

func TestSetFrequencyRegulation(t *testing.T) {
	d, sim := newSim(t, types.RegionEuRu)

	actual := d.SetFrequency(433920000)
	if actual == 0 || actual != sim.Radio.Frequency() || d.Frequency() != actual {
		t.Fatalf("actual = %d radio = %d", actual, sim.Radio.Frequency())
	}
	if d.Regulation() != types.RegulationTxRx {
		t.Fatal("433.92 MHz must be allowed in EU")
	}

	d.SetFrequency(315000000)
	if d.Regulation() != types.RegulationOnlyRx {
		t.Fatal("315 MHz must be RX only in EU")
	}
}

func TestSetFrequencyAndPath(t *testing.T) {
	d, sim := newSim(t, types.RegionUnknown)
	cases := []struct {
		hz   uint32
		path types.Path
	}{
		{315000000, types.Path315},
		{433920000, types.Path433},
		{868350000, types.Path868},
	}
	for _, tc := range cases {
		d.SetFrequencyAndPath(tc.hz)
		if sim.Radio.Path() != tc.path {
			t.Fatalf("%d: path = %v want %v", tc.hz, sim.Radio.Path(), tc.path)
		}
	}
	mustPanic(t, "untunable", func() { d.SetFrequencyAndPath(600000000) })
}

func TestTxRefusedLeavesHardwareUntouched(t *testing.T) {
	d, sim := newSim(t, types.RegionEuRu)
	d.SetFrequency(315000000)
	modes := len(sim.Radio.Modes())
	pins := len(sim.Data.History())

	if d.StartAsyncTx(types.Replay(nil)) {
		t.Fatal("StartAsyncTx allowed outside permitted band")
	}
	if d.Tx() {
		t.Fatal("Tx allowed outside permitted band")
	}
	if d.State() != StateIdle {
		t.Fatalf("state = %v", d.State())
	}
	if len(sim.Radio.Modes()) != modes || len(sim.Data.History()) != pins || sim.Toggle.Armed() {
		t.Fatal("hardware touched by a refused transmission")
	}
}

func TestAsyncTxLifecycle(t *testing.T) {
	d, sim := newSim(t, types.RegionEuRu)
	d.SetFrequencyAndPath(433920000)

	seq := []types.LevelDuration{
		types.Timed(types.High, 400),
		types.Timed(types.Low, 800),
		types.Timed(types.High, 400),
		types.Timed(types.Low, 1600),
	}
	if !d.StartAsyncTx(types.Replay(seq)) {
		t.Fatal("StartAsyncTx refused")
	}
	if d.State() != StateAsyncTx || d.IsAsyncTxComplete() {
		t.Fatalf("state = %v", d.State())
	}
	mustPanic(t, "rx during tx", func() { _ = d.StartAsyncRx(func(types.CaptureEvent) {}) })
	mustPanic(t, "second tx", func() { d.StartAsyncTx(types.Replay(nil)) })

	sim.Toggle.Run(1000)
	if !d.IsAsyncTxComplete() {
		t.Fatalf("state = %v", d.State())
	}
	s := d.StopAsyncTx()
	if s.DutyHigh != 800 || s.DutyLow != 2400 {
		t.Fatalf("stats = %+v", s)
	}
	if got := s.DutyCycle(); got != 25 {
		t.Fatalf("duty = %v", got)
	}
	if d.State() != StateIdle || sim.Radio.Mode() != types.ModeIdle || sim.RFEnable.Level() {
		t.Fatal("not back to idle")
	}
	mustPanic(t, "double stop", func() { d.StopAsyncTx() })
}

func TestAsyncTxStopEarly(t *testing.T) {
	d, sim := newSim(t, types.RegionUnknown)
	d.SetFrequency(433920000)
	endless := func() types.LevelDuration { return types.Timed(types.High, 100) }
	if !d.StartAsyncTx(endless) {
		t.Fatal("refused")
	}
	sim.Toggle.Run(20)
	d.StopAsyncTx()
	if d.State() != StateIdle || sim.Toggle.Armed() {
		t.Fatal("stop early did not release hardware")
	}
	// The driver is reusable afterwards.
	if !d.StartAsyncTx(types.Replay([]types.LevelDuration{types.Timed(types.High, 10)})) {
		t.Fatal("restart refused")
	}
	sim.Toggle.Run(100)
	d.StopAsyncTx()
}

func TestWaitAsyncTx(t *testing.T) {
	d, sim := newSim(t, types.RegionUnknown)
	d.SetFrequency(433920000)

	if !d.StartAsyncTx(types.Replay([]types.LevelDuration{types.Timed(types.High, 10)})) {
		t.Fatal("refused")
	}
	go sim.Toggle.Run(1000)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.WaitAsyncTx(ctx); err != nil {
		t.Fatalf("WaitAsyncTx: %v", err)
	}
	d.StopAsyncTx()
}

func TestWaitAsyncTxTimeout(t *testing.T) {
	d, _ := newSim(t, types.RegionUnknown)
	d.SetFrequency(433920000)
	if !d.StartAsyncTx(types.Replay(nil)) {
		t.Fatal("refused")
	}
	// Nobody drives the timer, so the stream never completes.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := d.WaitAsyncTx(ctx)
	if errcode.Of(err) != errcode.Timeout || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	d.StopAsyncTx()
}

func TestAsyncRxEndToEnd(t *testing.T) {
	d, sim := newSim(t, types.RegionEuRu)
	d.SetFrequencyAndPath(433920000)

	var got []types.CaptureEvent
	if err := d.StartAsyncRx(func(ev types.CaptureEvent) { got = append(got, ev) }); err != nil {
		t.Fatal(err)
	}
	if sim.Radio.Mode() != types.ModeRx || sim.Data.Mode() != hw.PinCaptureInput {
		t.Fatal("receiver not armed")
	}
	mustPanic(t, "tx during rx", func() { d.StartAsyncTx(types.Replay(nil)) })

	sim.Capture.Edge(0, true)
	sim.Capture.Edge(100, false)
	sim.Capture.Edge(250, true)
	sim.Capture.Edge(300, false)

	d.StopAsyncRx()
	sim.Capture.Edge(500, true) // lost: capture stopped

	want := []types.CaptureEvent{
		{Starting: true, Duration: 100},
		{Starting: false, Duration: 150},
		{Starting: true, Duration: 50},
	}
	if len(got) != len(want) {
		t.Fatalf("events = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %+v want %+v", i, got[i], want[i])
		}
	}
	if d.State() != StateIdle || sim.Data.Mode() != hw.PinAnalog || sim.Capture.Running() {
		t.Fatal("rx not torn down")
	}
	mustPanic(t, "double stop", d.StopAsyncRx)
}

func TestAsyncRxWithWorker(t *testing.T) {
	d, sim := newSim(t, types.RegionUnknown)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWorker(WorkerConfig{RingSize: 64, OutBuf: 64})
	w.Start(ctx)
	if err := d.StartAsyncRx(w.Push); err != nil {
		t.Fatal(err)
	}
	wave := []types.LevelDuration{
		types.Timed(types.Low, 1000),
		types.Timed(types.High, 300),
		types.Timed(types.Low, 600),
		types.Timed(types.High, 300),
	}
	sim.Capture.Play(0, wave)
	d.StopAsyncRx()

	var durs []types.Tick
	timeout := time.After(time.Second)
	for len(durs) < 4 {
		select {
		case ev := <-w.Events():
			durs = append(durs, ev.Duration)
		case <-timeout:
			t.Fatalf("got %v", durs)
		}
	}
	want := []types.Tick{1000, 300, 600, 300}
	for i := range want {
		if durs[i] != want[i] {
			t.Fatalf("durations = %v want %v", durs, want)
		}
	}
}

type failingCapture struct{}

func (failingCapture) StartCapture(hw.CaptureConfig, hw.CaptureISR) error { return errcode.Busy }
func (failingCapture) StopCapture()                                     {}

func TestAsyncRxStartFailureRollsBack(t *testing.T) {
	logx.SetOutput(nil)
	sim := simhw.New()
	h := sim.Hardware()
	h.Capture = failingCapture{}
	d := New(h, Config{})
	if err := d.StartAsyncRx(func(types.CaptureEvent) {}); errcode.Of(err) != errcode.Busy {
		t.Fatalf("err = %v", err)
	}
	if d.State() != StateIdle || sim.Data.Mode() != hw.PinAnalog {
		t.Fatal("not rolled back")
	}
}

func TestChipLifecycle(t *testing.T) {
	d, sim := newSim(t, types.RegionUnknown)
	if err := d.LoadPreset(types.PresetOok650Async); err != nil {
		t.Fatal(err)
	}
	if d.Preset() != types.PresetOok650Async || sim.Radio.Preset() != types.PresetOok650Async {
		t.Fatal("preset not loaded")
	}
	if err := d.Reset(); err != nil {
		t.Fatal(err)
	}
	if d.Preset() != types.PresetIdle {
		t.Fatal("reset must drop the preset")
	}
	if err := d.Shutdown(); err != nil || !sim.Radio.Sleeping() {
		t.Fatalf("shutdown: %v", err)
	}

	var buf bytes.Buffer
	logx.SetOutput(&buf)
	defer logx.SetOutput(nil)
	d.DumpState()
	if !strings.Contains(buf.String(), "version=0x14") || !strings.Contains(buf.String(), "tx=unrestricted") {
		t.Fatalf("dump = %q", buf.String())
	}
}

func TestDumpStateListsBands(t *testing.T) {
	d, _ := newSim(t, types.RegionEuRu)
	var buf bytes.Buffer
	logx.SetOutput(&buf)
	defer logx.SetOutput(nil)
	d.DumpState()
	for _, want := range []string{"lo_hz=433050000 hi_hz=434790000", "lo_hz=868150000 hi_hz=868550000"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("missing %q in %q", want, buf.String())
		}
	}
}

type bareRadio struct{}

func (bareRadio) SetFrequency(hz uint32) uint32 { return hz }
func (bareRadio) SetPath(types.Path)            {}
func (bareRadio) SwitchTo(types.RadioMode)      {}
func (bareRadio) RSSI() float32                 { return -90 }
func (bareRadio) LQI() uint8                    { return 3 }

func TestChipOpsUnsupported(t *testing.T) {
	logx.SetOutput(nil)
	d := New(hw.Hardware{Radio: bareRadio{}, Data: &simhw.Pin{}}, Config{})
	if err := d.LoadPreset(types.PresetOok270Async); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("err = %v", err)
	}
	if d.RSSI() != -90 || d.LQI() != 3 {
		t.Fatal("passthrough")
	}
	if err := d.StartAsyncRx(func(types.CaptureEvent) {}); errcode.Of(err) != errcode.NotConfigured {
		t.Fatalf("err = %v", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	if c.GuardTime != DefaultGuardTime || c.BufferSize != DefaultBufferSize {
		t.Fatalf("defaults = %+v", c)
	}
}

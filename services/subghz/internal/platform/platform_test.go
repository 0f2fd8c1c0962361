package platform

import (
	"sync"
	"testing"
	"time"

	"subghz-go/services/subghz/hw"
)

type fakeLine struct {
	mu     sync.Mutex
	mode   hw.PinMode
	drives []bool
}

func (l *fakeLine) SetMode(m hw.PinMode) {
	l.mu.Lock()
	l.mode = m
	l.mu.Unlock()
}

func (l *fakeLine) Mode() hw.PinMode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

func (l *fakeLine) Drive(v bool) {
	l.mu.Lock()
	l.drives = append(l.drives, v)
	l.mu.Unlock()
}

func TestSoftTogglePlaysAndStops(t *testing.T) {
	line := &fakeLine{mode: hw.PinTimerOutput}
	tg := newSoftToggle(line)
	tg.wait = func(time.Time, <-chan struct{}) bool { return true }

	var (
		ht, tc  int
		updates []uint32
		zeros   int
	)
	slots := []uint32{100, 200, 300, 0}
	isr := hw.ToggleISRs{
		HalfTransfer:     func() { ht++ },
		TransferComplete: func() { tc++ },
		Update: func(reload uint32) {
			updates = append(updates, reload)
			if reload == 0 {
				zeros++
				if zeros == 1 {
					line.SetMode(hw.PinInputPullDown)
				} else {
					tg.Halt()
				}
			}
		},
	}
	if err := tg.Arm(hw.ToggleConfig{Prescaler: 64, InitialReload: 500}, slots, isr); err != nil {
		t.Fatal(err)
	}
	if err := tg.Arm(hw.ToggleConfig{}, slots, isr); err == nil {
		t.Fatal("double arm accepted")
	}
	tg.Start()

	deadline := time.Now().Add(time.Second)
	for tg.running.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	tg.Disarm()

	// Nothing refills the buffer, so after the first zero the DMA wraps
	// and replays it until the zero comes round again.
	want := []uint32{100, 200, 300, 0, 100, 200, 300, 0}
	if len(updates) != len(want) {
		t.Fatalf("updates = %v", updates)
	}
	for i := range want {
		if updates[i] != want[i] {
			t.Fatalf("updates = %v", updates)
		}
	}
	if ht == 0 || tc == 0 {
		t.Fatalf("ht=%d tc=%d", ht, tc)
	}
	// Low for the initial period, then one level per slot until the line
	// is forced idle.
	line.mu.Lock()
	drives := append([]bool(nil), line.drives...)
	line.mu.Unlock()
	wantDrives := []bool{false, true, false, true}
	if len(drives) != len(wantDrives) {
		t.Fatalf("drives = %v", drives)
	}
	for i := range wantDrives {
		if drives[i] != wantDrives[i] {
			t.Fatalf("drives = %v", drives)
		}
	}
}

func TestSoftToggleDisarmAbandonsLongPeriod(t *testing.T) {
	line := &fakeLine{mode: hw.PinTimerOutput}
	tg := newSoftToggle(line)
	nop := func() {}
	isr := hw.ToggleISRs{HalfTransfer: nop, TransferComplete: nop, Update: func(uint32) {}}
	// 2 s per slot at 1 µs ticks.
	slots := []uint32{2000000, 2000000, 2000000, 2000000}
	if err := tg.Arm(hw.ToggleConfig{Prescaler: 64, InitialReload: 2000000}, slots, isr); err != nil {
		t.Fatal(err)
	}
	tg.Start()
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	tg.Disarm()
	if took := time.Since(start); took > 200*time.Millisecond {
		t.Fatalf("Disarm took %v", took)
	}
	if tg.running.Load() {
		t.Fatal("still running")
	}
}

func TestWaitUntilStops(t *testing.T) {
	stop := make(chan struct{})
	if !waitUntil(time.Now().Add(2*time.Millisecond), stop) {
		t.Fatal("short wait reported stop")
	}
	close(stop)
	start := time.Now()
	if waitUntil(time.Now().Add(time.Hour), stop) {
		t.Fatal("wait ignored stop")
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("stop not prompt")
	}
}

func TestSoftToggleRejectsBadArm(t *testing.T) {
	tg := newSoftToggle(&fakeLine{})
	if err := tg.Arm(hw.ToggleConfig{}, []uint32{1, 2, 3}, hw.ToggleISRs{}); err == nil {
		t.Fatal("expected error")
	}
	tg.Disarm() // never armed: must not block
}

type fakeEdges struct {
	on       func(bool, time.Time)
	disabled bool
}

func (f *fakeEdges) enableEdges(on func(bool, time.Time)) error {
	f.on, f.disabled = on, false
	return nil
}

func (f *fakeEdges) disableEdges() { f.disabled = true }

func TestEdgeCaptureTimestamps(t *testing.T) {
	src := &fakeEdges{}
	c := newEdgeCapture(src)

	type call struct {
		flags      hw.CaptureFlags
		ccrA, ccrB uint32
	}
	var calls []call
	err := c.StartCapture(hw.CaptureConfig{Prescaler: 64}, func(f hw.CaptureFlags, a, b uint32) {
		calls = append(calls, call{f, a, b})
	})
	if err != nil {
		t.Fatal(err)
	}
	t0 := c.origin
	us := func(n int) time.Time { return t0.Add(time.Duration(n) * time.Microsecond) }

	src.on(true, us(1000))
	src.on(false, us(1100))
	src.on(true, us(1250))

	c.StopCapture()
	src.on(false, us(1300)) // after stop: ignored

	want := []call{
		{hw.CaptureB, 0, 1000},
		{hw.CaptureA, 100, 0},
		{hw.CaptureB, 100, 250},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %+v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d = %+v want %+v", i, calls[i], want[i])
		}
	}
	if !src.disabled {
		t.Fatal("edges not disabled")
	}
}

func TestTickOf(t *testing.T) {
	if tickOf(64) != time.Microsecond || tickOf(0) != time.Microsecond || tickOf(128) != 2*time.Microsecond {
		t.Fatal("tick")
	}
}

package main

import (
	"context"
	"time"

	"subghz-go/services/subghz"
	"subghz-go/types"
	"subghz-go/x/logx"
)

const (
	frequency  = 433920000
	beaconCode = 0xA5C3F0
	listenFor  = time.Second
)

// beaconFrame encodes code as a 24-bit fixed-code OOK frame: a short pulse
// and long gap for 0, a long pulse and short gap for 1, then the sync gap.
func beaconFrame(code uint32) []types.LevelDuration {
	const te = 350
	var f []types.LevelDuration
	for i := 23; i >= 0; i-- {
		if code>>uint(i)&1 == 1 {
			f = append(f, types.Timed(types.High, 3*te), types.Timed(types.Low, te))
		} else {
			f = append(f, types.Timed(types.High, te), types.Timed(types.Low, 3*te))
		}
	}
	return append(f, types.Timed(types.High, te), types.Timed(types.Low, 31*te))
}

func beacon(ctx context.Context, d *subghz.Driver, log logx.Logger) {
	if !d.StartAsyncTx(types.Replay(beaconFrame(beaconCode))) {
		log.Warn("beacon refused", "hz", d.Frequency())
		return
	}
	wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	err := d.WaitAsyncTx(wctx)
	cancel()
	s := d.StopAsyncTx()
	if err != nil {
		log.Warn("beacon incomplete", "err", err)
		return
	}
	log.Info("beacon sent", "on_us", s.DutyHigh, "off_us", s.DutyLow, "duty_pct", s.DutyCycle())
}

func listen(d *subghz.Driver, w *subghz.Worker, log logx.Logger) {
	if err := d.StartAsyncRx(w.Push); err != nil {
		log.Error("rx start failed", "err", err)
		return
	}
	deadline := time.After(listenFor)
	marks := 0
	for done := false; !done; {
		select {
		case ev := <-w.Events():
			if ev.Starting {
				marks++
			}
		case <-deadline:
			done = true
		}
	}
	rssi := d.RSSI()
	d.StopAsyncRx()
	queued, _ := w.Backlog()
	log.Info("listen", "marks", marks, "rssi_dbm", rssi, "backlog", queued, "drops", w.ISRDrops()+w.OutDrops())
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	log := logx.New("main")
	log.Info("boot")

	d, err := subghz.Open(subghz.Config{Region: types.RegionEuRu})
	if err != nil {
		log.Error("radio bring-up failed", "err", err)
		select {}
	}
	d.DumpState()
	if err := d.LoadPreset(types.PresetOok650Async); err != nil {
		log.Error("preset", "err", err)
	}
	d.SetFrequencyAndPath(frequency)

	ctx := context.Background()
	w := subghz.NewWorker(subghz.WorkerConfig{})
	w.Start(ctx)

	tick := time.NewTicker(5 * time.Second)
	defer tick.Stop()
	for range tick.C {
		beacon(ctx, d, log)
		listen(d, w, log)
	}
}

// Command subghz-sim runs the sub-GHz engine against the simulated board:
// it replays the transmit bursts of a scenario through the async TX path,
// feeds the receive bursts through the capture timer and reports duty
// accounting and capture statistics, optionally as Prometheus metrics.
package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"subghz-go/services/subghz"
	"subghz-go/services/subghz/simhw"
	"subghz-go/types"
	"subghz-go/x/conv"
	"subghz-go/x/logx"
)

var log = logx.New("sim")

// demoScenario runs when no scenario file is given.
const demoScenario = `
region: eu_ru
frequency: 433920000
preset: ook_650khz_async
transmit:
  - name: doorbell
    repeat: 3
    pattern: [350, -1050, 1050, -350, 350, -1050, 1050, -350, 350, -10850]
  - name: paused
    pattern: [500, -500, 0, 500]
receive:
  - name: remote
    repeat: 2
    pattern: [-2000, 400, -800, 400, -800, 800, -400, 400, -6000]
`

type report struct {
	sent, refused, incomplete int
	marks, spaces             int
	drops                     uint32
}

func main() {
	var (
		scenarioPath = pflag.StringP("scenario", "s", "", "Scenario YAML file (default: built-in demo)")
		region       = pflag.StringP("region", "r", "", "Override the scenario region (eu_ru, us_ca_au, jp, unknown)")
		level        = pflag.StringP("log-level", "l", "info", "Log level (debug, info, warn, error)")
		metricsAddr  = pflag.StringP("metrics-addr", "m", "", "Serve Prometheus metrics on this address and wait for a signal")
		trace        = pflag.BoolP("trace", "t", false, "Print the emitted waveform of every transmission")
	)
	pflag.Parse()

	lvl, ok := logx.ParseLevel(*level)
	if !ok {
		log.Error("bad log level", "level", *level)
		os.Exit(2)
	}
	logx.SetLevel(lvl)

	var (
		sc  *Scenario
		err error
	)
	if *scenarioPath != "" {
		sc, err = LoadScenario(*scenarioPath)
	} else {
		sc, err = ParseScenario([]byte(demoScenario))
	}
	if err != nil {
		log.Error("scenario", "err", err)
		os.Exit(1)
	}
	if *region != "" {
		sc.Region = *region
	}

	reg := prometheus.NewRegistry()
	m := newSimMetrics(reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server", "err", err)
			}
		}()
		defer srv.Close()
	}

	rep, err := run(ctx, sc, m, os.Stdout, *trace)
	if err != nil {
		log.Error("run", "err", err)
		os.Exit(1)
	}
	log.Info("done",
		"sent", rep.sent, "refused", rep.refused, "incomplete", rep.incomplete,
		"marks", rep.marks, "spaces", rep.spaces, "drops", rep.drops)

	if *metricsAddr != "" {
		log.Info("serving metrics", "addr", *metricsAddr)
		<-ctx.Done()
	}
}

func run(ctx context.Context, sc *Scenario, m *simMetrics, out io.Writer, trace bool) (report, error) {
	var rep report
	cfg, err := sc.Config()
	if err != nil {
		return rep, err
	}
	sim := simhw.New()
	d := subghz.New(sim.Hardware(), cfg)
	if err := d.LoadPreset(sc.preset()); err != nil {
		return rep, err
	}
	d.SetFrequencyAndPath(sc.Frequency)
	log.Info("tuned", "hz", d.Frequency(), "regulation", d.Regulation(), "region", d.Region())

	bufSize := cfg.BufferSize
	if bufSize == 0 {
		bufSize = subghz.DefaultBufferSize
	}
	for _, b := range sc.Transmit {
		syms := b.Symbols()
		for i := 0; i < b.Repeat; i++ {
			if !d.StartAsyncTx(types.Replay(syms)) {
				rep.refused++
				m.observeTx("refused", subghz.Stats{})
				continue
			}
			sim.Toggle.Run(2*len(syms) + 2*bufSize + 16)
			result := "sent"
			if !d.IsAsyncTxComplete() {
				result = "incomplete"
				rep.incomplete++
			} else {
				rep.sent++
			}
			s := d.StopAsyncTx()
			m.observeTx(result, s)
			log.Info("tx", "burst", b.Name, "result", result,
				"on_us", s.DutyHigh, "off_us", s.DutyLow, "duty_pct", s.DutyCycle())
			if trace {
				writeTrace(out, b.Name, sim.Toggle.Trace())
			}
		}
	}

	if len(sc.Receive) == 0 {
		return rep, nil
	}
	wctx, cancel := context.WithCancel(ctx)
	w := subghz.NewWorker(subghz.WorkerConfig{})
	w.Start(wctx)
	if err := d.StartAsyncRx(w.Push); err != nil {
		cancel()
		return rep, err
	}
	var at uint32
	for _, b := range sc.Receive {
		syms := b.Symbols()
		for i := 0; i < b.Repeat; i++ {
			at = sim.Capture.Play(at, syms)
		}
	}
	d.StopAsyncRx()
	cancel()
	for ev := range w.Events() {
		if ev.Starting {
			rep.marks++
		} else {
			rep.spaces++
		}
		m.observeRx(ev.Starting)
	}
	rep.drops = w.ISRDrops() + w.OutDrops()
	m.rxDrops.Add(float64(rep.drops))
	return rep, nil
}

func writeTrace(out io.Writer, name string, segs []simhw.Segment) {
	b := append([]byte(name), ':')
	for _, s := range segs {
		b = append(b, ' ')
		if s.Level == types.High {
			b = append(b, 'H')
		} else {
			b = append(b, 'L')
		}
		b = conv.AppendUint(b, uint64(s.Ticks))
	}
	b = append(b, '\n')
	_, _ = out.Write(b)
}

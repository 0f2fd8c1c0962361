package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"subghz-go/services/subghz"
)

// simMetrics holds the collectors exported on /metrics.
type simMetrics struct {
	transmissions *prometheus.CounterVec // by result
	highTicks     prometheus.Counter
	lowTicks      prometheus.Counter
	dutyCycle     prometheus.Gauge
	rxEvents      *prometheus.CounterVec // by kind
	rxDrops       prometheus.Counter
}

func newSimMetrics(reg prometheus.Registerer) *simMetrics {
	f := promauto.With(reg)
	return &simMetrics{
		transmissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "subghz_transmissions_total",
			Help: "Async transmissions by result (sent, refused, incomplete)",
		}, []string{"result"}),
		highTicks: f.NewCounter(prometheus.CounterOpts{
			Name: "subghz_tx_high_ticks_total",
			Help: "Emitted carrier-on time in timer ticks (µs)",
		}),
		lowTicks: f.NewCounter(prometheus.CounterOpts{
			Name: "subghz_tx_low_ticks_total",
			Help: "Emitted carrier-off time in timer ticks (µs)",
		}),
		dutyCycle: f.NewGauge(prometheus.GaugeOpts{
			Name: "subghz_tx_duty_cycle_percent",
			Help: "Duty cycle of the last transmission",
		}),
		rxEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "subghz_rx_events_total",
			Help: "Captured intervals by kind (mark, space)",
		}, []string{"kind"}),
		rxDrops: f.NewCounter(prometheus.CounterOpts{
			Name: "subghz_rx_drops_total",
			Help: "Capture events dropped between interrupt and consumer",
		}),
	}
}

func (m *simMetrics) observeTx(result string, s subghz.Stats) {
	m.transmissions.WithLabelValues(result).Inc()
	if result != "sent" {
		return
	}
	m.highTicks.Add(float64(s.DutyHigh))
	m.lowTicks.Add(float64(s.DutyLow))
	m.dutyCycle.Set(s.DutyCycle())
}

func (m *simMetrics) observeRx(starting bool) {
	kind := "space"
	if starting {
		kind = "mark"
	}
	m.rxEvents.WithLabelValues(kind).Inc()
}

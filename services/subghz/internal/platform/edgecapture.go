// services/subghz/internal/platform/edgecapture.go
package platform

import (
	"sync/atomic"
	"time"

	"subghz-go/errcode"
	"subghz-go/services/subghz/hw"
	"subghz-go/x/mathx"
)

// edgeSource enables edge notifications on the data line. on runs in
// interrupt context (or a goroutine standing in for it) with the new level.
// disable must guarantee on is not called after it returns.
type edgeSource interface {
	enableEdges(on func(rising bool, at time.Time)) error
	disableEdges()
}

// edgeCapture emulates a capture timer in slave-reset mode from timestamped
// pin edges: falling edges latch channel A, rising edges latch channel B and
// restart the count.
type edgeCapture struct {
	src     edgeSource
	running atomic.Bool

	// Owned by the edge handler while running.
	isr     hw.CaptureISR
	tick    time.Duration
	origin  time.Time
	resetAt uint32
	ccrA    uint32
}

func newEdgeCapture(src edgeSource) *edgeCapture { return &edgeCapture{src: src} }

func tickOf(prescaler uint32) time.Duration {
	if prescaler == 0 {
		return time.Microsecond
	}
	// Timer kernel clock is 64 MHz.
	return time.Duration(mathx.RoundDiv(uint64(prescaler)*uint64(time.Second), 64000000))
}

func (c *edgeCapture) StartCapture(cfg hw.CaptureConfig, isr hw.CaptureISR) error {
	if isr == nil {
		return errcode.InvalidParams
	}
	if c.running.Load() {
		return errcode.Busy
	}
	c.isr, c.tick, c.origin = isr, tickOf(cfg.Prescaler), time.Now()
	c.resetAt, c.ccrA = 0, 0
	c.running.Store(true)
	if err := c.src.enableEdges(c.edge); err != nil {
		c.running.Store(false)
		return err
	}
	return nil
}

func (c *edgeCapture) StopCapture() {
	c.running.Store(false)
	c.src.disableEdges()
}

func (c *edgeCapture) edge(rising bool, at time.Time) {
	if !c.running.Load() {
		return
	}
	now := uint32(at.Sub(c.origin) / c.tick)
	cnt := now - c.resetAt
	if rising {
		c.resetAt = now
		c.isr(hw.CaptureB, c.ccrA, cnt)
		return
	}
	c.ccrA = cnt
	c.isr(hw.CaptureA, cnt, 0)
}

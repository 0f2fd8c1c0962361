// services/subghz/simhw/capture.go
package simhw

import (
	"sync"

	"subghz-go/errcode"
	"subghz-go/services/subghz/hw"
	"subghz-go/types"
)

// CaptureTimer models a free-running timer with two capture channels on the
// data pin: A latches on falling edges, B latches on rising edges and resets
// the counter. Edges are given as absolute tick timestamps.
type CaptureTimer struct {
	mu      sync.Mutex
	running bool
	cfg     hw.CaptureConfig
	isr     hw.CaptureISR
	resetAt uint32
	ccrA    uint32
	ccrB    uint32
	edges   int
}

// StartCapture resets the counter at tick 0.
func (c *CaptureTimer) StartCapture(cfg hw.CaptureConfig, isr hw.CaptureISR) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return errcode.Busy
	}
	if isr == nil {
		return errcode.InvalidParams
	}
	c.running, c.cfg, c.isr = true, cfg, isr
	c.resetAt, c.ccrA, c.ccrB = 0, 0, 0
	return nil
}

func (c *CaptureTimer) StopCapture() {
	c.mu.Lock()
	c.running, c.isr = false, nil
	c.mu.Unlock()
}

func (c *CaptureTimer) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Config returns the configuration of the last StartCapture.
func (c *CaptureTimer) Config() hw.CaptureConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Edges counts edges delivered while running.
func (c *CaptureTimer) Edges() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.edges
}

// Edge injects one edge at absolute time at. Edges while stopped are lost,
// as on hardware.
func (c *CaptureTimer) Edge(at uint32, rising bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.edges++
	cnt := at - c.resetAt
	if r := c.cfg.Reload; r != 0 && r < ^uint32(0) {
		cnt %= r + 1
	}
	if rising {
		c.ccrB = cnt
		c.resetAt = at
		c.isr(hw.CaptureB, c.ccrA, c.ccrB)
		return
	}
	c.ccrA = cnt
	c.isr(hw.CaptureA, c.ccrA, c.ccrB)
}

// Play injects the edges of a waveform that starts Low at tick start.
// Consecutive segments of the same level are merged. It returns the time
// after the last segment.
func (c *CaptureTimer) Play(start uint32, wave []types.LevelDuration) uint32 {
	t := start
	lvl := types.Low
	for _, ld := range wave {
		if ld.IsWait() || ld.IsReset() {
			continue
		}
		if ld.Level() != lvl {
			lvl = ld.Level()
			c.Edge(t, lvl == types.High)
		}
		t += uint32(ld.Duration())
	}
	if lvl == types.High {
		c.Edge(t, false)
	}
	return t
}

// services/subghz/internal/txengine/buffer.go
package txengine

import (
	"subghz-go/types"
	"subghz-go/x/mathx"
)

// Stats is the emitted duty accounting of one transmission, in ticks.
// Guard slots count toward the level their slot implies; Wait padding
// counts toward neither side.
type Stats struct {
	DutyHigh uint64
	DutyLow  uint64
}

// DutyCycle is the share of emitted time spent High, in percent.
func (s Stats) DutyCycle() float64 {
	return mathx.Percent(s.DutyHigh, s.DutyHigh+s.DutyLow)
}

// Context is the transmit state shared with the DMA interrupt. While the
// toggle timer is armed only interrupt handlers touch it.
//
// Slot i holds the duration of the level the output has after the i-th
// toggle: even slots are High and odd slots are Low. Both buffer halves have
// even length so the parity of a buffer index equals the parity of the
// absolute slot number.
type Context struct {
	pull  func() types.LevelDuration
	buf   []uint32
	guard uint32

	pending    types.LevelDuration
	hasPending bool
	done       bool // Reset seen; pull is never called again

	stats Stats
}

// NewContext allocates the slot buffer. size must be a power of two >= 4 so
// both halves stay even.
func NewContext(pull func() types.LevelDuration, guard types.Tick, size int) *Context {
	if pull == nil {
		panic("subghz: nil tx pull callback")
	}
	if size < 4 || size&(size-1) != 0 {
		panic("subghz: tx buffer size must be a power of two >= 4")
	}
	if guard == 0 {
		panic("subghz: zero guard time")
	}
	return &Context{pull: pull, buf: make([]uint32, size), guard: uint32(guard)}
}

// Slots exposes the DMA source buffer.
func (c *Context) Slots() []uint32 { return c.buf }

// Half is the slot count refilled per DMA half/complete interrupt.
func (c *Context) Half() int { return len(c.buf) / 2 }

func (c *Context) Stats() Stats { return c.stats }

// Done reports whether the stream has ended with Reset.
func (c *Context) Done() bool { return c.done }

// Prime fills the whole buffer before the timer starts.
func (c *Context) Prime() { c.Refill(0, len(c.buf)) }

// ZeroFill writes the end-of-stream sentinel over [start, start+n).
func (c *Context) ZeroFill(start, n int) {
	clear(c.buf[start : start+n])
}

func (c *Context) next() types.LevelDuration {
	if c.hasPending {
		c.hasPending = false
		return c.pending
	}
	return c.pull()
}

func (c *Context) account(high bool, d uint32) {
	if high {
		c.stats.DutyHigh += uint64(d)
	} else {
		c.stats.DutyLow += uint64(d)
	}
}

// Refill encodes symbols into [start, start+n). It never writes outside
// that range: a symbol displaced by a guard slot in the last position is
// carried over to the next refill.
func (c *Context) Refill(start, n int) {
	end := start + n
	if start < 0 || n < 0 || end > len(c.buf) {
		panic("subghz: tx refill out of range")
	}
	i := start
	for i < end {
		if c.done {
			c.ZeroFill(i, end-i)
			return
		}
		before := i
		ld := c.next()
		switch {
		case ld.IsWait():
			c.ZeroFill(i, end-i)
			return

		case ld.IsReset():
			// Finish on Low: a pending High slot gets a Low guard first.
			if i%2 == 1 {
				c.buf[i] = c.guard
				c.account(false, c.guard)
				i++
			}
			c.done = true
			c.ZeroFill(i, end-i)
			return

		default:
			d := uint32(ld.Duration())
			if d == 0 {
				panic("subghz: zero-length tx symbol")
			}
			implied := types.Level(i%2 == 0)
			if ld.Level() != implied {
				c.buf[i] = c.guard
				c.account(bool(implied), c.guard)
				i++
				if i == end {
					c.pending, c.hasPending = ld, true
					return
				}
			}
			c.buf[i] = d
			c.account(bool(ld.Level()), d)
			i++
		}
		if i == before {
			panic("subghz: tx refill made no progress")
		}
	}
}

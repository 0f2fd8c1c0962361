// services/subghz/internal/platform/factories_linux.go
//go:build linux && !baremetal && !(rp2040 || rp2350)

package platform

import (
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"subghz-go/drivers/cc1101"
	"subghz-go/errcode"
	"subghz-go/services/subghz/hw"
)

// Wiring of a CC1101 module on a Raspberry Pi header. The SPI driver owns
// chip select.
const (
	SPIPort   = "" // first available
	SPIFreq   = 4 * physic.MegaHertz
	PinGD0    = "GPIO24"
	PinSwitch = "GPIO25"
)

// Open brings up the CC1101 on the host SPI bus with GD0 timed in software.
func Open() (hw.Hardware, error) {
	if _, err := host.Init(); err != nil {
		return hw.Hardware{}, errcode.Wrap(errcode.NotConfigured, "platform.Open", err)
	}
	port, err := spireg.Open(SPIPort)
	if err != nil {
		return hw.Hardware{}, errcode.Wrap(errcode.UnknownBus, "platform.Open", err)
	}
	conn, err := port.Connect(SPIFreq, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return hw.Hardware{}, errcode.Wrap(errcode.UnknownBus, "platform.Open", err)
	}
	gd0 := gpioreg.ByName(PinGD0)
	if gd0 == nil {
		_ = port.Close()
		return hw.Hardware{}, &errcode.E{C: errcode.UnknownPin, Op: "platform.Open", Msg: PinGD0}
	}

	var sw cc1101.Pin
	if p := gpioreg.ByName(PinSwitch); p != nil {
		sw = periphOut{p}
	}
	line := &periphLine{pin: gd0}
	line.SetMode(hw.PinAnalog)
	radio := cc1101.New(periphSPI{conn}, nil, cc1101.Config{Switch: sw, GD0: line})
	if err := radio.Configure(); err != nil {
		_ = port.Close()
		return hw.Hardware{}, errcode.Wrap(errcode.ChipNotFound, "platform.Open", err)
	}

	return hw.Hardware{
		Radio:   radio,
		Data:    line,
		Capture: newEdgeCapture(line),
		Toggle:  newSoftToggle(line),
	}, nil
}

// periphSPI adapts a periph connection to the tinygo drivers.SPI interface.
type periphSPI struct{ c spi.Conn }

func (s periphSPI) Tx(w, r []byte) error { return s.c.Tx(w, r) }

func (s periphSPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := s.c.Tx([]byte{b}, r[:])
	return r[0], err
}

type periphOut struct{ p gpio.PinIO }

func (o periphOut) Set(high bool) { _ = o.p.Out(gpio.Level(high)) }

// periphLine is GD0 on a periph GPIO. Edge capture runs a goroutine on
// WaitForEdge.
type periphLine struct {
	pin  gpio.PinIO
	mode atomic.Uint32

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (l *periphLine) SetMode(m hw.PinMode) {
	switch m {
	case hw.PinCaptureInput:
		_ = l.pin.In(gpio.Float, gpio.BothEdges)
	case hw.PinTimerOutput:
		_ = l.pin.Out(gpio.Low)
	case hw.PinInputPullDown:
		_ = l.pin.In(gpio.PullDown, gpio.NoEdge)
	default:
		_ = l.pin.In(gpio.Float, gpio.NoEdge)
	}
	l.mode.Store(uint32(m))
}

func (l *periphLine) Mode() hw.PinMode { return hw.PinMode(l.mode.Load()) }

func (l *periphLine) Drive(level bool) { _ = l.pin.Out(gpio.Level(level)) }

// Get reads the line for the chip self test.
func (l *periphLine) Get() bool { return l.pin.Read() == gpio.High }

func (l *periphLine) enableEdges(on func(bool, time.Time)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		return errcode.Busy
	}
	if err := l.pin.In(gpio.Float, gpio.BothEdges); err != nil {
		return errcode.Wrap(errcode.UnknownPin, "platform.enableEdges", err)
	}
	l.stop, l.done = make(chan struct{}), make(chan struct{})
	go l.watch(on, l.stop, l.done)
	return nil
}

func (l *periphLine) watch(on func(bool, time.Time), stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}
		if !l.pin.WaitForEdge(50 * time.Millisecond) {
			continue
		}
		on(l.pin.Read() == gpio.High, time.Now())
	}
}

func (l *periphLine) disableEdges() {
	l.mu.Lock()
	stop, done := l.stop, l.done
	l.stop, l.done = nil, nil
	l.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

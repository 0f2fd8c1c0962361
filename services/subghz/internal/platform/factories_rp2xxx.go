// services/subghz/internal/platform/factories_rp2xxx.go
//go:build rp2040 || rp2350

package platform

import (
	"machine"
	"sync/atomic"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"subghz-go/drivers/cc1101"
	"subghz-go/errcode"
	"subghz-go/services/subghz/hw"
	"subghz-go/x/logx"
)

// Pico wiring of a CC1101 module on SPI0.
const (
	pinSCK    = machine.GP18
	pinSDO    = machine.GP19
	pinSDI    = machine.GP16
	pinCS     = machine.GP17
	pinGD0    = machine.GP20
	pinSwitch = machine.GP21
	pinUARTTX = machine.GP0
	pinUARTRX = machine.GP1
)

// Open configures the log UART, SPI0 and the CC1101, and times GD0 with pin
// interrupts and a software toggle player.
func Open() (hw.Hardware, error) {
	_ = uartx.UART0.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       pinUARTTX,
		RX:       pinUARTRX,
	})
	logx.SetOutput(uartx.UART0)

	spi := machine.SPI0
	if err := spi.Configure(machine.SPIConfig{
		Frequency: 4 * machine.MHz,
		SCK:       pinSCK,
		SDO:       pinSDO,
		SDI:       pinSDI,
		Mode:      0,
	}); err != nil {
		return hw.Hardware{}, errcode.Wrap(errcode.UnknownBus, "platform.Open", err)
	}
	pinCS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinCS.High()
	pinSwitch.Configure(machine.PinConfig{Mode: machine.PinOutput})

	line := &rp2Line{pin: pinGD0}
	line.SetMode(hw.PinAnalog)
	radio := cc1101.New(spi, pinCS, cc1101.Config{Switch: pinSwitch, GD0: pinGD0})
	if err := radio.Configure(); err != nil {
		return hw.Hardware{}, errcode.Wrap(errcode.ChipNotFound, "platform.Open", err)
	}

	return hw.Hardware{
		Radio:   radio,
		Data:    line,
		Capture: newEdgeCapture(line),
		Toggle:  newSoftToggle(line),
	}, nil
}

// rp2Line is GD0 on a machine pin; capture edges arrive as pin interrupts.
type rp2Line struct {
	pin  machine.Pin
	mode atomic.Uint32
}

func (l *rp2Line) SetMode(m hw.PinMode) {
	switch m {
	case hw.PinCaptureInput:
		l.pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	case hw.PinTimerOutput:
		l.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		l.pin.Low()
	case hw.PinInputPullDown:
		l.pin.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	default:
		l.pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	}
	l.mode.Store(uint32(m))
}

func (l *rp2Line) Mode() hw.PinMode { return hw.PinMode(l.mode.Load()) }

func (l *rp2Line) Drive(level bool) { l.pin.Set(level) }

func (l *rp2Line) enableEdges(on func(bool, time.Time)) error {
	err := l.pin.SetInterrupt(machine.PinRising|machine.PinFalling, func(p machine.Pin) {
		on(p.Get(), time.Now())
	})
	if err != nil {
		return errcode.Wrap(errcode.UnknownPin, "platform.enableEdges", err)
	}
	return nil
}

func (l *rp2Line) disableEdges() { _ = l.pin.SetInterrupt(0, nil) }

// Package hw is the boundary between the sub-GHz engines and the platform:
// the radio IC driver, the GD0 data pin, the capture timer used by async RX
// and the toggle timer + circular DMA used by async TX.
//
// Callbacks passed to CaptureTimer and ToggleTimer run in interrupt context
// (or a goroutine standing in for it). They must not block.
package hw

import "subghz-go/types"

// Radio is the register-level transceiver driver.
type Radio interface {
	// SetFrequency tunes the synthesiser and returns the frequency actually
	// programmed (synthesiser resolution).
	SetFrequency(hz uint32) uint32
	SetPath(p types.Path)
	SwitchTo(m types.RadioMode)
	RSSI() float32
	LQI() uint8
}

// Chip is implemented by radios that support full lifecycle control.
type Chip interface {
	Reset() error
	Sleep() error
	PartNumber() uint8
	Version() uint8
	LoadPreset(p types.Preset) error
}

// Faulter is implemented by radios whose Radio methods latch bus and settle
// errors instead of returning them. Err returns and clears the first one.
type Faulter interface {
	Err() error
}

// PacketRadio is implemented by radios with a packet FIFO.
type PacketRadio interface {
	FlushRx() error
	FlushTx() error
	// WritePacket queues one length-prefixed packet for transmission.
	WritePacket(data []byte) error
	// ReadPacket copies the next received packet into buf and returns its
	// length.
	ReadPacket(buf []byte) (int, error)
	// RxCRCOK reports whether the last received packet passed its CRC.
	RxCRCOK() (bool, error)
}

// RegisterLoader is implemented by radios that accept raw register tables
// as (address, value) pairs and a PA power table.
type RegisterLoader interface {
	LoadRegisters(pairs [][2]uint8) error
	LoadPatable(pa [8]uint8) error
}

// PinMode is the electrical configuration of the GD0 data pin.
type PinMode uint8

const (
	PinAnalog        PinMode = iota // inert
	PinCaptureInput                 // routed to the capture timer
	PinTimerOutput                  // driven by the toggle timer, pulled down
	PinInputPullDown                // carrier forced off
)

func (m PinMode) String() string {
	switch m {
	case PinCaptureInput:
		return "capture_input"
	case PinTimerOutput:
		return "timer_output"
	case PinInputPullDown:
		return "input_pulldown"
	default:
		return "analog"
	}
}

// DataPin is the radio's async serial data line (GD0).
type DataPin interface {
	SetMode(m PinMode)
}

// OutputPin is a plain GPIO output such as an external RF-enable line.
type OutputPin interface {
	Set(level bool)
}

// CaptureFlags report which capture channels latched a value.
type CaptureFlags uint8

const (
	// CaptureA latches on falling edges through the indirect input.
	CaptureA CaptureFlags = 1 << iota
	// CaptureB latches on rising edges through the direct input and
	// resets the counter (slave-reset mode).
	CaptureB
)

// CaptureConfig describes the free-running capture timer.
type CaptureConfig struct {
	Prescaler uint32 // timer clock divider (64 => 1 µs ticks at 64 MHz)
	Reload    uint32 // auto-reload; large so the counter never wraps in practice
	FilterB   uint8  // input filter on the direct (rising) channel
}

// CaptureISR receives the pending flags and both capture registers.
type CaptureISR func(flags CaptureFlags, ccrA, ccrB uint32)

// CaptureTimer is the hardware behind async RX.
type CaptureTimer interface {
	StartCapture(cfg CaptureConfig, isr CaptureISR) error
	// StopCapture tears the timer down. No ISR runs after it returns.
	StopCapture()
}

// ToggleConfig describes the output-compare timer used by async TX.
type ToggleConfig struct {
	Prescaler     uint32
	InitialReload uint32
}

// ToggleISRs are the interrupt handlers bound while TX is armed.
type ToggleISRs struct {
	HalfTransfer     func()              // DMA consumed the first half
	TransferComplete func()              // DMA consumed the second half
	Update           func(reload uint32) // timer update; reload is the value just loaded
}

// ToggleTimer streams slots circularly into the timer's auto-reload register;
// the output toggles every time the counter reaches the reload value.
type ToggleTimer interface {
	// Arm configures timer, circular DMA and ISRs and generates an update
	// event so the first slot is preloaded. The counter is not started.
	Arm(cfg ToggleConfig, slots []uint32, isr ToggleISRs) error
	// Start runs the counter.
	Start()
	// Halt stops the counter; DMA requests stop with it.
	Halt()
	// Disarm tears down timer, DMA and ISR bindings. No ISR runs after it returns.
	Disarm()
}

// Hardware bundles everything the driver needs. RFEnable and Critical are
// optional.
type Hardware struct {
	Radio    Radio
	Data     DataPin
	RFEnable OutputPin
	Capture  CaptureTimer
	Toggle   ToggleTimer
	// Critical runs f with interrupts masked. nil runs f directly.
	Critical func(f func())
}

// RunCritical runs f under h.Critical when set.
func (h *Hardware) RunCritical(f func()) {
	if h.Critical != nil {
		h.Critical(f)
		return
	}
	f()
}

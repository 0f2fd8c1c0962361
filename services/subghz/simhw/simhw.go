// Package simhw is a deterministic host simulator of the sub-GHz hardware:
// a CC1101-like radio, the GD0 data pin, the capture timer used by async RX
// and the toggle timer with circular DMA used by async TX.
//
// Interrupt handlers are invoked synchronously from Edge and Step, which
// stand in for the hardware. They may be driven from another goroutine.
package simhw

import (
	"sync"

	"subghz-go/errcode"
	"subghz-go/services/subghz/hw"
	"subghz-go/types"
)

// Sim bundles one simulated board.
type Sim struct {
	Radio    *Radio
	Data     *Pin
	RFEnable *Switch
	Capture  *CaptureTimer
	Toggle   *ToggleTimer
}

func New() *Sim {
	data := &Pin{}
	return &Sim{
		Radio:    &Radio{part: 0x00, version: 0x14},
		Data:     data,
		RFEnable: &Switch{},
		Capture:  &CaptureTimer{},
		Toggle:   &ToggleTimer{data: data},
	}
}

// Hardware wires the simulator into the driver.
func (s *Sim) Hardware() hw.Hardware {
	return hw.Hardware{
		Radio:    s.Radio,
		Data:     s.Data,
		RFEnable: s.RFEnable,
		Capture:  s.Capture,
		Toggle:   s.Toggle,
	}
}

// ---- radio ----

// Radio records everything the driver asks of the transceiver.
type Radio struct {
	mu       sync.Mutex
	freq     uint32
	path     types.Path
	mode     types.RadioMode
	modes    []types.RadioMode
	preset   types.Preset
	sleeping bool
	resets   int
	part     uint8
	version  uint8
	fault    error
	regs     map[uint8]uint8
	patable  [8]uint8
	txq      [][]byte
	rxq      [][]byte
	crcOK    bool

	// Values reported by RSSI and LQI.
	RSSIdBm float32
	LQIRaw  uint8
}

var (
	_ hw.Radio          = (*Radio)(nil)
	_ hw.Chip           = (*Radio)(nil)
	_ hw.Faulter        = (*Radio)(nil)
	_ hw.PacketRadio    = (*Radio)(nil)
	_ hw.RegisterLoader = (*Radio)(nil)
)

// SetFrequency quantises like a 26 MHz crystal synthesiser with a 16-bit
// fractional word.
func (r *Radio) SetFrequency(hz uint32) uint32 {
	word := (uint64(hz) << 16) / 26000000
	actual := uint32((word * 26000000) >> 16)
	r.mu.Lock()
	r.freq = actual
	r.mu.Unlock()
	return actual
}

func (r *Radio) SetPath(p types.Path) {
	r.mu.Lock()
	r.path = p
	r.mu.Unlock()
}

func (r *Radio) SwitchTo(m types.RadioMode) {
	r.mu.Lock()
	r.mode = m
	r.modes = append(r.modes, m)
	r.sleeping = false
	r.mu.Unlock()
}

func (r *Radio) RSSI() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.RSSIdBm
}

func (r *Radio) LQI() uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.LQIRaw & 0x7F
}

func (r *Radio) Reset() error {
	r.mu.Lock()
	r.resets++
	r.mode = types.ModeIdle
	r.preset = types.PresetIdle
	r.sleeping = false
	r.mu.Unlock()
	return nil
}

func (r *Radio) Sleep() error {
	r.mu.Lock()
	r.sleeping = true
	r.mu.Unlock()
	return nil
}

func (r *Radio) PartNumber() uint8 { return r.part }
func (r *Radio) Version() uint8    { return r.version }

func (r *Radio) LoadPreset(p types.Preset) error {
	r.mu.Lock()
	r.preset = p
	r.mu.Unlock()
	return nil
}

// Fail latches err as if the bus had failed; Err reports it once.
func (r *Radio) Fail(err error) {
	r.mu.Lock()
	r.fault = err
	r.mu.Unlock()
}

func (r *Radio) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.fault
	r.fault = nil
	return err
}

func (r *Radio) LoadRegisters(pairs [][2]uint8) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regs = make(map[uint8]uint8, len(pairs))
	for _, p := range pairs {
		r.regs[p[0]] = p[1]
	}
	r.preset = types.PresetCustom
	return nil
}

func (r *Radio) LoadPatable(pa [8]uint8) error {
	r.mu.Lock()
	r.patable = pa
	r.mu.Unlock()
	return nil
}

// Register returns a value written by LoadRegisters.
func (r *Radio) Register(addr uint8) (uint8, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.regs[addr]
	return v, ok
}

func (r *Radio) Patable() [8]uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.patable
}

// ---- packet FIFO ----

func (r *Radio) FlushRx() error {
	r.mu.Lock()
	r.rxq = nil
	r.mu.Unlock()
	return nil
}

func (r *Radio) FlushTx() error {
	r.mu.Lock()
	r.txq = nil
	r.mu.Unlock()
	return nil
}

func (r *Radio) WritePacket(data []byte) error {
	r.mu.Lock()
	r.txq = append(r.txq, append([]byte(nil), data...))
	r.mu.Unlock()
	return nil
}

// ReadPacket pops the oldest packet given to Receive. It returns 0 when
// none is queued.
func (r *Radio) ReadPacket(buf []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rxq) == 0 {
		return 0, nil
	}
	pkt := r.rxq[0]
	r.rxq = r.rxq[1:]
	if len(pkt) > len(buf) {
		return 0, errcode.InvalidParams
	}
	return copy(buf, pkt), nil
}

func (r *Radio) RxCRCOK() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.crcOK, nil
}

// Receive queues a packet as if it had arrived over the air.
func (r *Radio) Receive(pkt []byte, crcOK bool) {
	r.mu.Lock()
	r.rxq = append(r.rxq, append([]byte(nil), pkt...))
	r.crcOK = crcOK
	r.mu.Unlock()
}

// Sent returns the packets queued by WritePacket since the last FlushTx.
func (r *Radio) Sent() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.txq...)
}

func (r *Radio) Frequency() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.freq
}

func (r *Radio) Path() types.Path {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

func (r *Radio) Mode() types.RadioMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// Modes returns every mode switch in order.
func (r *Radio) Modes() []types.RadioMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.RadioMode(nil), r.modes...)
}

func (r *Radio) Preset() types.Preset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.preset
}

func (r *Radio) Sleeping() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sleeping
}

func (r *Radio) Resets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resets
}

// ---- pins ----

// Pin is the GD0 data line.
type Pin struct {
	mu      sync.Mutex
	mode    hw.PinMode
	history []hw.PinMode
}

func (p *Pin) SetMode(m hw.PinMode) {
	p.mu.Lock()
	p.mode = m
	p.history = append(p.history, m)
	p.mu.Unlock()
}

func (p *Pin) Mode() hw.PinMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// History returns every mode change in order.
func (p *Pin) History() []hw.PinMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]hw.PinMode(nil), p.history...)
}

// Switch is a plain output such as the RF-enable line.
type Switch struct {
	mu      sync.Mutex
	level   bool
	history []bool
}

func (s *Switch) Set(level bool) {
	s.mu.Lock()
	s.level = level
	s.history = append(s.history, level)
	s.mu.Unlock()
}

func (s *Switch) Level() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

func (s *Switch) History() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.history...)
}

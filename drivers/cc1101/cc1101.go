// Package cc1101 provides a driver for the TI CC1101 sub-GHz transceiver in
// asynchronous serial mode, where GDO0 carries the raw modulation envelope
// and the host times it with hardware timers.
//
//	d := cc1101.New(spi, csPin, cc1101.Config{Switch: swPin})
//	err := d.Configure()
//	d.LoadPreset(types.PresetOok650Async)
//	actual, err := d.Tune(433920000)
//
// Every wait on the radio state machine is bounded by Config.SettleTimeout.
// The hw.Radio methods without an error return latch the first failure,
// which Err reports.
package cc1101

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"

	"subghz-go/types"
)

// Errors returned by the driver.
var (
	ErrTimeout  = errors.New("cc1101: timeout")
	ErrNotFound = errors.New("cc1101: chip not found")
	ErrPreset   = errors.New("cc1101: unknown preset")
	ErrSelfTest = errors.New("cc1101: GDO0 self test failed")
	ErrPacket   = errors.New("cc1101: packet does not fit")
	ErrRegister = errors.New("cc1101: not a configuration register")
)

// Pin is a GPIO output; machine.Pin satisfies it.
type Pin interface {
	Set(high bool)
}

// Input is a GPIO input; machine.Pin satisfies it.
type Input interface {
	Get() bool
}

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// XOSC is the crystal frequency in Hz. Default 26 MHz.
	XOSC uint32
	// SettleTimeout bounds every wait for a radio state. Default 10 ms.
	SettleTimeout time.Duration
	// Switch drives the external RF switch together with GDO2. nil when the
	// board has no switch.
	Switch Pin
	// GD0 reads the GDO0 line. When set, Configure checks the line follows
	// the chip.
	GD0 Input
}

// Device wraps an SPI connection to a CC1101.
type Device struct {
	spi    drivers.SPI
	cs     Pin
	cfg    Config
	w, r   [fifoSize + 1]byte
	err    error
	preset types.Preset
}

func New(spi drivers.SPI, cs Pin, cfg Config) *Device {
	if cfg.XOSC == 0 {
		cfg.XOSC = defaultXOSC
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = 10 * time.Millisecond
	}
	return &Device{spi: spi, cs: cs, cfg: cfg}
}

// Configure resets the chip, checks it answers with a plausible version and
// runs the GDO0 self test when Config.GD0 is set.
func (d *Device) Configure() error {
	if d.cs != nil {
		d.cs.Set(true)
	}
	if err := d.Reset(); err != nil {
		return err
	}
	if v := d.Version(); v == 0x00 || v == 0xFF {
		return ErrNotFound
	}
	return d.SelfTest()
}

// SelfTest drives GDO0 low, then high, checks the host sees each level on
// Config.GD0 and leaves the pin in high impedance.
func (d *Device) SelfTest() error {
	if d.cfg.GD0 == nil {
		return nil
	}
	for _, high := range []bool{false, true} {
		v := uint8(iocfgHW)
		if high {
			v |= iocfgInvert
		}
		if err := d.writeReg(regIOCFG0, v); err != nil {
			return err
		}
		if err := d.waitGD0(high); err != nil {
			_ = d.writeReg(regIOCFG0, iocfgHighImpedance)
			return err
		}
	}
	return d.writeReg(regIOCFG0, iocfgHighImpedance)
}

func (d *Device) waitGD0(high bool) error {
	deadline := time.Now().Add(d.cfg.SettleTimeout)
	for d.cfg.GD0.Get() != high {
		if time.Now().After(deadline) {
			return ErrSelfTest
		}
	}
	return nil
}

// ---- bus primitives ----

func (d *Device) tx(n int) error {
	if d.cs != nil {
		d.cs.Set(false)
		defer d.cs.Set(true)
	}
	return d.spi.Tx(d.w[:n], d.r[:n])
}

// strobe issues a command and returns the chip status byte.
func (d *Device) strobe(cmd uint8) (uint8, error) {
	d.w[0] = cmd
	if err := d.tx(1); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

func (d *Device) writeReg(addr, val uint8) error {
	d.w[0], d.w[1] = addr, val
	return d.tx(2)
}

func (d *Device) readReg(addr uint8) (uint8, error) {
	d.w[0], d.w[1] = addr|flagRead, 0
	if err := d.tx(2); err != nil {
		return 0, err
	}
	return d.r[1], nil
}

func (d *Device) readStatus(addr uint8) (uint8, error) {
	return d.readReg(addr | flagBurst)
}

func (d *Device) writeBurst(addr uint8, data []byte) error {
	if len(data) > len(d.w)-1 {
		return ErrPacket
	}
	d.w[0] = addr | flagBurst
	copy(d.w[1:], data)
	return d.tx(1 + len(data))
}

func (d *Device) readBurst(addr uint8, out []byte) error {
	if len(out) > len(d.r)-1 {
		return ErrPacket
	}
	d.w[0] = addr | flagRead | flagBurst
	clear(d.w[1 : 1+len(out)])
	if err := d.tx(1 + len(out)); err != nil {
		return err
	}
	copy(out, d.r[1:1+len(out)])
	return nil
}

// waitMarc polls MARCSTATE until it equals want or the settle timeout passes.
func (d *Device) waitMarc(want uint8) error {
	deadline := time.Now().Add(d.cfg.SettleTimeout)
	for {
		st, err := d.readStatus(statMARCSTATE)
		if err != nil {
			return err
		}
		if st&0x1F == want {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
	}
}

func (d *Device) latch(err error) {
	if err != nil && d.err == nil {
		d.err = err
	}
}

// Err returns and clears the first error latched by a method that cannot
// return one.
func (d *Device) Err() error {
	err := d.err
	d.err = nil
	return err
}

// ---- hw.Chip ----

// Reset soft-resets the chip and parks GDO0 in high impedance.
func (d *Device) Reset() error {
	if _, err := d.strobe(strobeSRES); err != nil {
		return err
	}
	if err := d.waitMarc(marcIdle); err != nil {
		return err
	}
	d.preset = types.PresetIdle
	return d.writeReg(regIOCFG0, iocfgHighImpedance)
}

// Sleep idles the chip, releases GDO0 and powers it down. Any SPI access
// wakes it.
func (d *Device) Sleep() error {
	if err := d.idle(); err != nil {
		return err
	}
	if err := d.writeReg(regIOCFG0, iocfgHighImpedance); err != nil {
		return err
	}
	_, err := d.strobe(strobeSPWD)
	return err
}

func (d *Device) PartNumber() uint8 {
	v, err := d.readStatus(statPARTNUM)
	d.latch(err)
	return v
}

func (d *Device) Version() uint8 {
	v, err := d.readStatus(statVERSION)
	d.latch(err)
	return v
}

// LoadPreset resets the chip and writes the modem registers and PA table of p.
// PresetIdle only resets.
func (d *Device) LoadPreset(p types.Preset) error {
	if err := d.Reset(); err != nil {
		return err
	}
	if p == types.PresetIdle {
		return nil
	}
	regs, pa, ok := presetTables(p)
	if !ok {
		return ErrPreset
	}
	for _, rp := range regs {
		if err := d.writeReg(rp.addr, rp.val); err != nil {
			return err
		}
	}
	if err := d.LoadPatable(pa); err != nil {
		return err
	}
	d.preset = p
	return nil
}

// LoadRegisters resets the chip and writes raw (address, value) pairs.
// The preset becomes PresetCustom.
func (d *Device) LoadRegisters(pairs [][2]uint8) error {
	if err := d.Reset(); err != nil {
		return err
	}
	for _, p := range pairs {
		if p[0] > regTEST0 {
			return ErrRegister
		}
		if err := d.writeReg(p[0], p[1]); err != nil {
			return err
		}
	}
	d.preset = types.PresetCustom
	return nil
}

// LoadPatable writes the PA power table.
func (d *Device) LoadPatable(pa [8]uint8) error {
	return d.writeBurst(regPATABLE, pa[:])
}

// Preset returns the preset last loaded.
func (d *Device) Preset() types.Preset { return d.preset }

// ---- packet FIFO ----

func (d *Device) FlushRx() error {
	_, err := d.strobe(strobeSFRX)
	return err
}

func (d *Device) FlushTx() error {
	_, err := d.strobe(strobeSFTX)
	return err
}

// WritePacket flushes the TX FIFO and queues data behind its length byte.
func (d *Device) WritePacket(data []byte) error {
	if len(data) > fifoSize-1 {
		return ErrPacket
	}
	if err := d.FlushTx(); err != nil {
		return err
	}
	if err := d.writeReg(regFIFO, uint8(len(data))); err != nil {
		return err
	}
	return d.writeBurst(regFIFO, data)
}

// ReadPacket reads the length byte and payload of the next packet, then
// flushes the RX FIFO. It returns 0 when the FIFO is empty. A length that does not fit buf or the FIFO is
// discarded with ErrPacket.
func (d *Device) ReadPacket(buf []byte) (int, error) {
	avail, err := d.rxBytes()
	if err != nil || avail == 0 {
		return 0, err
	}
	var hdr [1]byte
	if err := d.readBurst(regFIFO, hdr[:]); err != nil {
		return 0, err
	}
	n := int(hdr[0])
	if n > len(buf) || n > fifoSize-1 {
		if err := d.FlushRx(); err != nil {
			return 0, err
		}
		return 0, ErrPacket
	}
	if err := d.readBurst(regFIFO, buf[:n]); err != nil {
		return 0, err
	}
	return n, d.FlushRx()
}

// RxCRCOK reports the CRC flag of the last received packet.
func (d *Device) RxCRCOK() (bool, error) {
	v, err := d.readStatus(statLQI)
	if err != nil {
		return false, err
	}
	return v&lqiCRCOK != 0, nil
}

func (d *Device) rxBytes() (uint8, error) {
	v, err := d.readStatus(statRXBYTES)
	return v & 0x7F, err
}

// ---- hw.Radio ----

// FrequencyWord returns the 24-bit FREQ register value for hz.
func FrequencyWord(hz, xosc uint32) uint32 {
	return uint32((uint64(hz) << 16) / uint64(xosc))
}

// Tune programs the synthesiser, recalibrates and returns the frequency
// actually set.
func (d *Device) Tune(hz uint32) (uint32, error) {
	word := FrequencyWord(hz, d.cfg.XOSC)
	actual := uint32((uint64(word) * uint64(d.cfg.XOSC)) >> 16)

	if err := d.idle(); err != nil {
		return actual, err
	}
	for _, rp := range []regPair{
		{regFREQ2, uint8(word >> 16)},
		{regFREQ1, uint8(word >> 8)},
		{regFREQ0, uint8(word)},
	} {
		if err := d.writeReg(rp.addr, rp.val); err != nil {
			return actual, err
		}
	}
	if _, err := d.strobe(strobeSCAL); err != nil {
		return actual, err
	}
	return actual, d.waitMarc(marcIdle)
}

// SetFrequency is Tune with the error latched.
func (d *Device) SetFrequency(hz uint32) uint32 {
	actual, err := d.Tune(hz)
	d.latch(err)
	return actual
}

// SetPath selects the front-end filter through the RF switch pin and GDO2.
func (d *Device) SetPath(p types.Path) {
	sw, gdo2 := false, uint8(iocfgHW)
	switch p {
	case types.Path433:
		gdo2 |= iocfgInvert
	case types.Path315:
		sw = true
	case types.Path868:
		sw = true
		gdo2 |= iocfgInvert
	}
	if d.cfg.Switch != nil {
		d.cfg.Switch.Set(sw)
	}
	d.latch(d.writeReg(regIOCFG2, gdo2))
}

func (d *Device) idle() error {
	if _, err := d.strobe(strobeSIDLE); err != nil {
		return err
	}
	return d.waitMarc(marcIdle)
}

// SwitchTo moves the radio state machine and waits for it to settle.
func (d *Device) SwitchTo(m types.RadioMode) {
	var err error
	switch m {
	case types.ModeRx:
		if _, err = d.strobe(strobeSRX); err == nil {
			err = d.waitMarc(marcRx)
		}
	case types.ModeTx:
		if _, err = d.strobe(strobeSTX); err == nil {
			err = d.waitMarc(marcTx)
		}
	default:
		err = d.idle()
	}
	d.latch(err)
}

// RSSIFromRaw converts the two's-complement half-dB register value to dBm.
func RSSIFromRaw(raw uint8) float32 {
	v := int(raw)
	if v >= 128 {
		v -= 256
	}
	return float32(v)/2 - 74
}

// RSSI returns the current received signal strength in dBm.
func (d *Device) RSSI() float32 {
	raw, err := d.readStatus(statRSSI)
	d.latch(err)
	return RSSIFromRaw(raw)
}

// LQI returns the link quality estimate without the CRC flag.
func (d *Device) LQI() uint8 {
	raw, err := d.readStatus(statLQI)
	d.latch(err)
	return raw & 0x7F
}

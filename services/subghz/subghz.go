// Package subghz is the sub-GHz radio waveform engine: region-gated tuning,
// edge-timestamped asynchronous receive and DMA-fed asynchronous transmit of
// OOK/ASK envelopes, on top of the hardware described by package hw.
//
// A Driver owns one radio. Async RX and async TX are mutually exclusive;
// calling an entry point in the wrong state is a programmer error and panics.
// The only expected runtime refusal is StartAsyncTx returning false when the
// tuned frequency is not permitted in the configured region.
package subghz

import (
	"sync"

	"subghz-go/errcode"
	"subghz-go/services/subghz/hw"
	"subghz-go/services/subghz/internal/region"
	"subghz-go/services/subghz/internal/state"
	"subghz-go/services/subghz/internal/txengine"
	"subghz-go/types"
	"subghz-go/x/logx"
)

// Defaults.
const (
	DefaultGuardTime  types.Tick = 333
	DefaultBufferSize            = 256
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Region selects the transmit band table. RegionUnknown permits all
	// frequencies (development hardware).
	Region types.Region
	// GuardTime is the filler slot inserted to realign levels and to end a
	// transmission Low. Default 333 ticks.
	GuardTime types.Tick
	// BufferSize is the DMA slot count, a power of two. Default 256.
	BufferSize int
}

func (c Config) withDefaults() Config {
	if c.GuardTime == 0 {
		c.GuardTime = DefaultGuardTime
	}
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	return c
}

// State is the driver-wide engine state.
type State = state.State

const (
	StateIdle        = state.Idle
	StateAsyncRx     = state.AsyncRx
	StateAsyncTx     = state.AsyncTx
	StateAsyncTxLast = state.AsyncTxLast
	StateAsyncTxEnd  = state.AsyncTxEnd
)

// Stats is the duty accounting of one transmission, in ticks.
type Stats = txengine.Stats

// Driver is the owned driver context for one radio.
type Driver struct {
	hw     hw.Hardware
	cfg    Config
	policy region.Policy
	st     state.Machine
	tx     *txengine.Engine
	log    logx.Logger

	mu         sync.Mutex
	freq       uint32
	regulation types.Regulation
	preset     types.Preset
}

// New initialises the radio: data pin inert, chip reset and put to sleep
// when the radio supports it. Transmission stays refused until a permitted
// frequency is tuned.
func New(h hw.Hardware, cfg Config) *Driver {
	if h.Radio == nil || h.Data == nil {
		panic("subghz: radio and data pin are required")
	}
	cfg = cfg.withDefaults()
	d := &Driver{
		hw:         h,
		cfg:        cfg,
		policy:     region.New(cfg.Region),
		log:        logx.New("subghz"),
		regulation: types.RegulationOnlyRx,
	}
	d.tx = txengine.NewEngine(&d.st, &d.hw)

	d.hw.Data.SetMode(hw.PinAnalog)
	if d.hw.RFEnable != nil {
		d.hw.RFEnable.Set(false)
	}
	if chip, ok := d.hw.Radio.(hw.Chip); ok {
		if err := chip.Reset(); err != nil {
			d.log.Error("init: reset failed", "err", err)
		} else if err := chip.Sleep(); err != nil {
			d.log.Error("init: sleep failed", "err", err)
		}
	}
	d.log.Info("init ok", "region", cfg.Region)
	return d
}

// State returns the current engine state.
func (d *Driver) State() State { return d.st.Load() }

// Region returns the configured transmit region.
func (d *Driver) Region() types.Region { return d.policy.Region() }

// ---- tuning and regulation ----

// IsFrequencyValid reports whether the front end can tune hz.
func IsFrequencyValid(hz uint32) bool { return region.IsFrequencyValid(hz) }

// IsFrequencyValid reports whether the front end can tune hz.
func (d *Driver) IsFrequencyValid(hz uint32) bool { return IsFrequencyValid(hz) }

// IsTxAllowed reports whether hz lies in a band permitted for the region.
func (d *Driver) IsTxAllowed(hz uint32) bool { return d.policy.IsTxAllowed(hz) }

// SetFrequency tunes the radio and updates the regulation flag from the
// requested frequency. It returns the frequency actually programmed. A tune
// the radio reports as failed leaves transmission refused.
func (d *Driver) SetFrequency(hz uint32) uint32 {
	reg := d.policy.Regulation(hz)
	actual := d.hw.Radio.SetFrequency(hz)
	if d.radioErr("tune") != nil {
		reg = types.RegulationOnlyRx
	}

	d.mu.Lock()
	d.freq, d.regulation = actual, reg
	d.mu.Unlock()

	d.log.Debug("tuned", "hz", actual, "regulation", reg)
	return actual
}

// SetFrequencyAndPath tunes hz and selects the RF switch path serving it.
// hz outside every tunable band panics.
func (d *Driver) SetFrequencyAndPath(hz uint32) uint32 {
	path, ok := region.PathFor(hz)
	if !ok {
		panic("subghz: frequency outside tunable bands")
	}
	actual := d.SetFrequency(hz)
	if p, ok := region.PathFor(actual); ok {
		path = p
	}
	d.SetPath(path)
	return actual
}

func (d *Driver) SetPath(p types.Path) {
	d.hw.Radio.SetPath(p)
	_ = d.radioErr("path")
}

// Frequency is the last programmed frequency, 0 before the first tune.
func (d *Driver) Frequency() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.freq
}

func (d *Driver) Regulation() types.Regulation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regulation
}

// ---- radio passthrough ----

// radioErr collects a fault latched by the radio since the last call and
// logs it against op.
func (d *Driver) radioErr(op string) error {
	f, ok := d.hw.Radio.(hw.Faulter)
	if !ok {
		return nil
	}
	err := f.Err()
	if err != nil {
		d.log.Error("radio fault", "op", op, "err", err)
	}
	return err
}

func (d *Driver) Idle() {
	d.hw.Radio.SwitchTo(types.ModeIdle)
	_ = d.radioErr("idle")
}

func (d *Driver) Rx() {
	d.hw.Radio.SwitchTo(types.ModeRx)
	_ = d.radioErr("rx")
}

// Tx keys the transmitter for a one-shot transmission. It is refused when
// the tuned frequency is not permitted, and fails when the radio does not
// reach transmit.
func (d *Driver) Tx() bool {
	if d.Regulation() != types.RegulationTxRx {
		d.log.Warn("tx refused", "hz", d.Frequency())
		return false
	}
	d.hw.Radio.SwitchTo(types.ModeTx)
	if d.radioErr("tx") != nil {
		d.Idle()
		return false
	}
	return true
}

// RSSI returns the received signal strength in dBm.
func (d *Driver) RSSI() float32 {
	v := d.hw.Radio.RSSI()
	_ = d.radioErr("rssi")
	return v
}

// LQI returns the link quality indicator (0..127, lower is better).
func (d *Driver) LQI() uint8 {
	v := d.hw.Radio.LQI()
	_ = d.radioErr("lqi")
	return v
}

// ---- chip lifecycle ----

func (d *Driver) chip(op string) (hw.Chip, error) {
	d.st.Assert(state.Idle)
	c, ok := d.hw.Radio.(hw.Chip)
	if !ok {
		return nil, errcode.Wrap(errcode.Unsupported, op, nil)
	}
	return c, nil
}

// LoadPreset programs a modem register preset.
func (d *Driver) LoadPreset(p types.Preset) error {
	c, err := d.chip("subghz.LoadPreset")
	if err != nil {
		return err
	}
	if err := c.LoadPreset(p); err != nil {
		return errcode.Wrap(errcode.Of(err), "subghz.LoadPreset", err)
	}
	d.setPreset(p)
	d.log.Debug("preset loaded", "preset", p)
	return nil
}

// Preset is the last preset loaded.
func (d *Driver) Preset() types.Preset {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.preset
}

// Sleep releases the data pin and puts the chip into its lowest power
// state. The loaded preset is lost.
func (d *Driver) Sleep() error {
	c, err := d.chip("subghz.Sleep")
	if err != nil {
		return err
	}
	d.hw.Data.SetMode(hw.PinAnalog)
	if err := c.Sleep(); err != nil {
		return errcode.Wrap(errcode.Of(err), "subghz.Sleep", err)
	}
	d.setPreset(types.PresetIdle)
	return nil
}

// Shutdown releases the data pin and RF-enable line and puts the chip to sleep.
func (d *Driver) Shutdown() error {
	d.st.Assert(state.Idle)
	if d.hw.RFEnable != nil {
		d.hw.RFEnable.Set(false)
	}
	return d.Sleep()
}

// Reset releases the data pin and soft-resets the chip. The loaded preset
// is lost.
func (d *Driver) Reset() error {
	c, err := d.chip("subghz.Reset")
	if err != nil {
		return err
	}
	d.hw.Data.SetMode(hw.PinAnalog)
	if err := c.Reset(); err != nil {
		return errcode.Wrap(errcode.Of(err), "subghz.Reset", err)
	}
	d.setPreset(types.PresetIdle)
	return nil
}

func (d *Driver) setPreset(p types.Preset) {
	d.mu.Lock()
	d.preset = p
	d.mu.Unlock()
}

// LoadRegisters programs a raw register table. Preset then reports
// PresetCustom.
func (d *Driver) LoadRegisters(pairs [][2]uint8) error {
	d.st.Assert(state.Idle)
	l, ok := d.hw.Radio.(hw.RegisterLoader)
	if !ok {
		return errcode.Wrap(errcode.Unsupported, "subghz.LoadRegisters", nil)
	}
	if err := l.LoadRegisters(pairs); err != nil {
		return errcode.Wrap(errcode.Of(err), "subghz.LoadRegisters", err)
	}
	d.setPreset(types.PresetCustom)
	return nil
}

// LoadPatable programs the PA power table.
func (d *Driver) LoadPatable(pa [8]uint8) error {
	d.st.Assert(state.Idle)
	l, ok := d.hw.Radio.(hw.RegisterLoader)
	if !ok {
		return errcode.Wrap(errcode.Unsupported, "subghz.LoadPatable", nil)
	}
	if err := l.LoadPatable(pa); err != nil {
		return errcode.Wrap(errcode.Of(err), "subghz.LoadPatable", err)
	}
	return nil
}

// DumpState logs the transmit bands of the region and the chip identity.
func (d *Driver) DumpState() {
	bands := d.policy.Bands()
	if bands == nil {
		d.log.Info("region", "region", d.policy.Region(), "tx", "unrestricted")
	}
	for _, b := range bands {
		d.log.Info("region", "region", d.policy.Region(), "lo_hz", b.Lo, "hi_hz", b.Hi)
	}
	c, err := d.chip("subghz.DumpState")
	if err != nil {
		d.log.Warn("dump state", "err", err)
		return
	}
	d.log.Info("chip", "part", c.PartNumber(), "version", c.Version())
	_ = d.radioErr("dump")
}

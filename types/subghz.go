package types

// CaptureEvent is emitted once per detected edge by async RX. Duration is
// the width of the interval the edge closed: a mark (carrier on, Starting
// true) on a falling edge, a space on a rising edge.
type CaptureEvent struct {
	Starting bool
	Duration Tick
}

// Region is the hardware regulatory region burned into the device.
type Region uint8

const (
	RegionUnknown Region = iota
	RegionEuRu
	RegionUsCaAu
	RegionJp
)

func (r Region) String() string {
	switch r {
	case RegionEuRu:
		return "eu_ru"
	case RegionUsCaAu:
		return "us_ca_au"
	case RegionJp:
		return "jp"
	default:
		return "unknown"
	}
}

// ParseRegion maps the short names used by tools and configs to a Region.
func ParseRegion(s string) (Region, bool) {
	switch s {
	case "eu_ru", "eu", "ru":
		return RegionEuRu, true
	case "us_ca_au", "us", "ca", "au":
		return RegionUsCaAu, true
	case "jp":
		return RegionJp, true
	case "", "unknown", "default":
		return RegionUnknown, true
	}
	return RegionUnknown, false
}

// Band is an inclusive frequency range in Hz.
type Band struct {
	Lo, Hi uint32
}

// Path selects the RF front-end switch / matching network.
type Path uint8

const (
	PathIsolate Path = iota
	Path315
	Path433
	Path868
)

func (p Path) String() string {
	switch p {
	case Path315:
		return "315"
	case Path433:
		return "433"
	case Path868:
		return "868"
	default:
		return "isolate"
	}
}

// RadioMode is the transceiver operating mode.
type RadioMode uint8

const (
	ModeIdle RadioMode = iota
	ModeRx
	ModeTx
)

func (m RadioMode) String() string {
	switch m {
	case ModeRx:
		return "rx"
	case ModeTx:
		return "tx"
	default:
		return "idle"
	}
}

// Regulation records whether the tuned frequency may be transmitted on.
type Regulation uint8

const (
	RegulationTxRx Regulation = iota
	RegulationOnlyRx
)

func (r Regulation) String() string {
	if r == RegulationTxRx {
		return "tx_rx"
	}
	return "only_rx"
}

// Preset names a modem register set.
type Preset uint8

const (
	PresetIdle Preset = iota
	PresetOok270Async
	PresetOok650Async
	Preset2FSKDev238Async
	Preset2FSKDev476Async
	// PresetCustom marks registers loaded from a raw table.
	PresetCustom
)

func (p Preset) String() string {
	switch p {
	case PresetOok270Async:
		return "ook_270khz_async"
	case PresetOok650Async:
		return "ook_650khz_async"
	case Preset2FSKDev238Async:
		return "2fsk_dev2_38khz_async"
	case Preset2FSKDev476Async:
		return "2fsk_dev47_6khz_async"
	case PresetCustom:
		return "custom"
	default:
		return "idle"
	}
}

// ParsePreset is the inverse of Preset.String for the named presets.
func ParsePreset(s string) (Preset, bool) {
	for p := PresetIdle; p <= Preset2FSKDev476Async; p++ {
		if p.String() == s {
			return p, true
		}
	}
	return PresetIdle, false
}

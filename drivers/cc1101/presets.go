package cc1101

import "subghz-go/types"

// regPair is one register write of a preset.
type regPair struct{ addr, val uint8 }

// Async OOK presets route the modem through GDO0 in asynchronous serial mode
// with no preamble or sync word so the capture and toggle timers see the
// raw envelope.
var ook650 = []regPair{
	{regIOCFG0, iocfgAsyncSerial},
	{regFIFOTHR, 0x07},
	{regPKTCTRL0, 0x32}, // async serial, infinite length
	{regFSCTRL1, 0x06},  // IF 152 kHz
	{regMDMCFG0, 0x00},
	{regMDMCFG1, 0x00},
	{regMDMCFG2, 0x30}, // ASK/OOK, no sync
	{regMDMCFG3, 0x32},
	{regMDMCFG4, 0x17}, // RX BW 650 kHz
	{regMCSM0, 0x18},   // autocalibrate idle->rx/tx
	{regFOCCFG, 0x18},
	{regAGCCTRL0, 0x91},
	{regAGCCTRL1, 0x00},
	{regAGCCTRL2, 0x07},
	{regWORCTRL, 0xFB},
	{regFREND0, 0x11}, // OOK high level is PATABLE[1]
	{regFREND1, 0xB6},
}

var ook270 = []regPair{
	{regIOCFG0, iocfgAsyncSerial},
	{regFIFOTHR, 0x47},
	{regPKTCTRL0, 0x32},
	{regFSCTRL1, 0x06},
	{regMDMCFG0, 0x00},
	{regMDMCFG1, 0x00},
	{regMDMCFG2, 0x30},
	{regMDMCFG3, 0x32},
	{regMDMCFG4, 0x67}, // RX BW 270 kHz
	{regMCSM0, 0x18},
	{regFOCCFG, 0x18},
	{regAGCCTRL0, 0x40},
	{regAGCCTRL1, 0x00},
	{regAGCCTRL2, 0x03},
	{regWORCTRL, 0xFB},
	{regFREND0, 0x11},
	{regFREND1, 0xB6},
}

func fsk(deviation uint8) []regPair {
	return []regPair{
		{regIOCFG0, iocfgAsyncSerial},
		{regFIFOTHR, 0x47},
		{regPKTCTRL0, 0x32},
		{regFSCTRL1, 0x06},
		{regMDMCFG0, 0x00},
		{regMDMCFG1, 0x02},
		{regMDMCFG2, 0x04}, // 2-FSK, no sync
		{regMDMCFG3, 0x83},
		{regMDMCFG4, 0x67},
		{regDEVIATN, deviation},
		{regMCSM0, 0x18},
		{regFOCCFG, 0x16},
		{regAGCCTRL0, 0x91},
		{regAGCCTRL1, 0x00},
		{regAGCCTRL2, 0x07},
		{regWORCTRL, 0xFB},
		{regFREND0, 0x10},
		{regFREND1, 0x56},
	}
}

var (
	fsk238 = fsk(0x04) // 2.38 kHz
	fsk476 = fsk(0x47) // 47.6 kHz
)

// PA tables: OOK uses index 0 for off and 1 for on; FSK uses index 0.
var (
	patableOOK = [8]byte{0x00, 0xC0}
	patableFSK = [8]byte{0xC0}
)

func presetTables(p types.Preset) ([]regPair, [8]byte, bool) {
	switch p {
	case types.PresetOok270Async:
		return ook270, patableOOK, true
	case types.PresetOok650Async:
		return ook650, patableOOK, true
	case types.Preset2FSKDev238Async:
		return fsk238, patableFSK, true
	case types.Preset2FSKDev476Async:
		return fsk476, patableFSK, true
	}
	return nil, [8]byte{}, false
}

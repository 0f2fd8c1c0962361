// Package region holds the regulatory band tables and the tunable ranges of
// the CC1101 front end. Everything here is immutable policy data.
package region

import (
	"subghz-go/types"
	"subghz-go/x/mathx"
)

// Regional transmit permissions, inclusive bounds in Hz.
var txBands = map[types.Region][]types.Band{
	types.RegionEuRu: {
		{Lo: 433050000, Hi: 434790000},
		{Lo: 868150000, Hi: 868550000},
	},
	types.RegionUsCaAu: {
		{Lo: 304100000, Hi: 321950000},
		{Lo: 433050000, Hi: 434790000},
		{Lo: 915000000, Hi: 928000000},
	},
	types.RegionJp: {
		{Lo: 312000000, Hi: 315250000},
		{Lo: 920500000, Hi: 923500000},
	},
}

// Tunable ranges and the RF switch path serving each one.
var tunable = []struct {
	band types.Band
	path types.Path
}{
	{types.Band{Lo: 299999755, Hi: 348000335}, types.Path315},
	{types.Band{Lo: 386999938, Hi: 464000000}, types.Path433},
	{types.Band{Lo: 778999847, Hi: 928000000}, types.Path868},
}

// Policy answers transmit-permission questions for one hardware region.
type Policy struct {
	region types.Region
}

func New(r types.Region) Policy { return Policy{region: r} }

func (p Policy) Region() types.Region { return p.region }

// Bands returns a copy of the permitted bands; nil means unrestricted.
func (p Policy) Bands() []types.Band {
	b, ok := txBands[p.region]
	if !ok {
		return nil
	}
	return append([]types.Band(nil), b...)
}

// IsTxAllowed reports whether freq lies in a permitted band. Regions without
// a table (development hardware) permit every frequency.
func (p Policy) IsTxAllowed(freq uint32) bool {
	bands, ok := txBands[p.region]
	if !ok {
		return true
	}
	for _, b := range bands {
		if mathx.Between(freq, b.Lo, b.Hi) {
			return true
		}
	}
	return false
}

// Regulation is the flag value implied by tuning to freq.
func (p Policy) Regulation(freq uint32) types.Regulation {
	if p.IsTxAllowed(freq) {
		return types.RegulationTxRx
	}
	return types.RegulationOnlyRx
}

// IsFrequencyValid reports whether the front end can tune freq at all.
func IsFrequencyValid(freq uint32) bool {
	_, ok := PathFor(freq)
	return ok
}

// PathFor returns the RF switch path for a tunable frequency.
func PathFor(freq uint32) (types.Path, bool) {
	for _, t := range tunable {
		if mathx.Between(freq, t.band.Lo, t.band.Hi) {
			return t.path, true
		}
	}
	return types.PathIsolate, false
}

package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"subghz-go/errcode"
	"subghz-go/services/subghz"
	"subghz-go/types"
)

// Scenario is a YAML description of one simulated session.
type Scenario struct {
	Region     string  `yaml:"region"`      // eu_ru, us_ca_au, jp or unknown
	Frequency  uint32  `yaml:"frequency"`   // Hz
	Preset     string  `yaml:"preset"`      // e.g. ook_650khz_async
	GuardTime  uint32  `yaml:"guard_time"`  // ticks, default 333
	BufferSize int     `yaml:"buffer_size"` // DMA slots, default 256
	Transmit   []Burst `yaml:"transmit"`
	Receive    []Burst `yaml:"receive"`
}

// Burst is a waveform given as signed microseconds: positive is carrier on,
// negative is carrier off and 0 inserts a Wait.
type Burst struct {
	Name    string  `yaml:"name"`
	Repeat  int     `yaml:"repeat"`
	Pattern []int32 `yaml:"pattern"`
}

// Symbols converts the pattern to encoder symbols.
func (b Burst) Symbols() []types.LevelDuration {
	out := make([]types.LevelDuration, 0, len(b.Pattern))
	for _, v := range b.Pattern {
		switch {
		case v > 0:
			out = append(out, types.Timed(types.High, types.Tick(v)))
		case v < 0:
			out = append(out, types.Timed(types.Low, types.Tick(-v)))
		default:
			out = append(out, types.Wait())
		}
	}
	return out
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errcode.Wrap(errcode.NotConfigured, "scenario.Load", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes YAML, applies defaults and validates the result.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "scenario.Parse", err)
	}
	if sc.Frequency == 0 {
		sc.Frequency = 433920000
	}
	if sc.Preset == "" {
		sc.Preset = types.PresetOok650Async.String()
	}
	for i := range sc.Transmit {
		if sc.Transmit[i].Repeat <= 0 {
			sc.Transmit[i].Repeat = 1
		}
	}
	for i := range sc.Receive {
		if sc.Receive[i].Repeat <= 0 {
			sc.Receive[i].Repeat = 1
		}
	}
	if _, err := sc.Config(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Config maps the scenario onto the driver configuration.
func (sc *Scenario) Config() (subghz.Config, error) {
	r, ok := types.ParseRegion(sc.Region)
	if !ok {
		return subghz.Config{}, &errcode.E{C: errcode.InvalidParams, Op: "scenario", Msg: "unknown region " + sc.Region}
	}
	if _, ok := types.ParsePreset(sc.Preset); !ok {
		return subghz.Config{}, &errcode.E{C: errcode.InvalidParams, Op: "scenario", Msg: "unknown preset " + sc.Preset}
	}
	if !subghz.IsFrequencyValid(sc.Frequency) {
		return subghz.Config{}, &errcode.E{C: errcode.InvalidFrequency, Op: "scenario"}
	}
	bs := sc.BufferSize
	if bs != 0 && (bs < 4 || bs&(bs-1) != 0) {
		return subghz.Config{}, &errcode.E{C: errcode.InvalidParams, Op: "scenario", Msg: "buffer_size must be a power of two >= 4"}
	}
	return subghz.Config{Region: r, GuardTime: types.Tick(sc.GuardTime), BufferSize: bs}, nil
}

func (sc *Scenario) preset() types.Preset {
	p, _ := types.ParsePreset(sc.Preset)
	return p
}

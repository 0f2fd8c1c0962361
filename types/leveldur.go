package types

// Tick is a duration in timer counts (1 µs after the /64 prescaler).
// 0 is reserved for silence/padding and never describes a real symbol.
type Tick uint32

// Level is the logical carrier level.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

type ldKind uint8

const (
	ldTimed ldKind = iota
	ldWait
	ldReset
)

// LevelDuration is one encoder symbol: a timed level, Wait (no data yet,
// pad with silence) or Reset (end of transmission; the carrier ends Low).
type LevelDuration struct {
	kind  ldKind
	level Level
	dur   Tick
}

// Timed holds level for d ticks.
func Timed(level Level, d Tick) LevelDuration {
	return LevelDuration{kind: ldTimed, level: level, dur: d}
}

// Wait reports that no data is currently available.
func Wait() LevelDuration { return LevelDuration{kind: ldWait} }

// Reset ends the transmission.
func Reset() LevelDuration { return LevelDuration{kind: ldReset} }

func (ld LevelDuration) IsWait() bool  { return ld.kind == ldWait }
func (ld LevelDuration) IsReset() bool { return ld.kind == ldReset }
func (ld LevelDuration) Level() Level  { return ld.level }

// Duration is zero for Wait and Reset.
func (ld LevelDuration) Duration() Tick { return ld.dur }

func (ld LevelDuration) String() string {
	switch ld.kind {
	case ldWait:
		return "wait"
	case ldReset:
		return "reset"
	}
	b := []byte(ld.level.String())
	b = append(b, ':')
	var tmp [10]byte
	i := len(tmp)
	d := uint32(ld.dur)
	if d == 0 {
		i--
		tmp[i] = '0'
	}
	for d > 0 {
		i--
		tmp[i] = byte('0' + d%10)
		d /= 10
	}
	return string(append(b, tmp[i:]...))
}

// Replay returns a pull function that yields seq in order and then Reset
// on every further call. seq is not copied; callers must not mutate it
// while a transmission is running.
func Replay(seq []LevelDuration) func() LevelDuration {
	i := 0
	return func() LevelDuration {
		if i >= len(seq) {
			return Reset()
		}
		ld := seq[i]
		i++
		return ld
	}
}

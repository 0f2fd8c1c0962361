// Package logx provides tagged, leveled line logging that stays usable on
// TinyGo targets: values are rendered with x/conv rather than fmt.
//
//	log := logx.New("subghz")
//	log.Debug("async tx stats", "on_us", high, "off_us", low)
//
// Output looks like "D [subghz] async tx stats on_us=1000 off_us=3000".
package logx

import (
	"io"
	"sync"
	"sync/atomic"

	"subghz-go/x/conv"
)

type Level uint32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) letter() byte {
	switch l {
	case LevelDebug:
		return 'D'
	case LevelInfo:
		return 'I'
	case LevelWarn:
		return 'W'
	default:
		return 'E'
	}
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return LevelInfo, false
}

var (
	mu     sync.Mutex
	out    io.Writer = defaultOutput()
	minLvl atomic.Uint32
	buf    []byte
)

func init() { minLvl.Store(uint32(LevelInfo)) }

// SetOutput replaces the sink for all loggers. nil discards output.
func SetOutput(w io.Writer) {
	mu.Lock()
	if w == nil {
		w = io.Discard
	}
	out = w
	mu.Unlock()
}

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) { minLvl.Store(uint32(l)) }

// Enabled reports whether l would be written.
func Enabled(l Level) bool { return uint32(l) >= minLvl.Load() }

// Logger prefixes every line with its tag.
type Logger struct{ tag string }

func New(tag string) Logger { return Logger{tag: tag} }

func (l Logger) Debug(msg string, kv ...any) { l.log(LevelDebug, msg, kv) }
func (l Logger) Info(msg string, kv ...any)  { l.log(LevelInfo, msg, kv) }
func (l Logger) Warn(msg string, kv ...any)  { l.log(LevelWarn, msg, kv) }
func (l Logger) Error(msg string, kv ...any) { l.log(LevelError, msg, kv) }

func (l Logger) log(lvl Level, msg string, kv []any) {
	if !Enabled(lvl) {
		return
	}
	mu.Lock()
	defer mu.Unlock()

	b := buf[:0]
	b = append(b, lvl.letter(), ' ', '[')
	b = append(b, l.tag...)
	b = append(b, ']', ' ')
	b = append(b, msg...)
	for i := 0; i+1 < len(kv); i += 2 {
		b = append(b, ' ')
		if k, ok := kv[i].(string); ok {
			b = append(b, k...)
		} else {
			b = append(b, '?')
		}
		b = append(b, '=')
		b = appendValue(b, kv[i+1])
	}
	if len(kv)%2 == 1 {
		b = append(b, " !extra="...)
		b = appendValue(b, kv[len(kv)-1])
	}
	b = append(b, '\n')
	_, _ = out.Write(b)
	buf = b
}

func appendValue(b []byte, v any) []byte {
	switch x := v.(type) {
	case nil:
		return append(b, "nil"...)
	case string:
		return append(b, x...)
	case bool:
		if x {
			return append(b, "true"...)
		}
		return append(b, "false"...)
	case int:
		return conv.AppendInt(b, int64(x))
	case int8:
		return conv.AppendInt(b, int64(x))
	case int16:
		return conv.AppendInt(b, int64(x))
	case int32:
		return conv.AppendInt(b, int64(x))
	case int64:
		return conv.AppendInt(b, x)
	case uint:
		return conv.AppendUint(b, uint64(x))
	case uint8:
		return conv.AppendHex8(b, x)
	case uint16:
		return conv.AppendUint(b, uint64(x))
	case uint32:
		return conv.AppendUint(b, uint64(x))
	case uint64:
		return conv.AppendUint(b, x)
	case float32:
		return conv.AppendFixed(b, float64(x), 1)
	case float64:
		return conv.AppendFixed(b, x, 1)
	case error:
		return append(b, x.Error()...)
	case interface{ String() string }:
		return append(b, x.String()...)
	default:
		return append(b, '?')
	}
}

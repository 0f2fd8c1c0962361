// services/subghz/internal/platform/factories_host.go
//go:build !linux && !rp2040 && !rp2350

package platform

import (
	"context"
	"time"

	"subghz-go/services/subghz/hw"
	"subghz-go/services/subghz/simhw"
)

// Open returns a simulated board on hosts without radio hardware. A
// goroutine clocks its toggle timer so transmissions complete.
func Open() (hw.Hardware, error) {
	sim := simhw.New()
	go sim.Toggle.Clock(context.Background(), time.Millisecond, 4096)
	return sim.Hardware(), nil
}

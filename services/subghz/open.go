// services/subghz/open.go
package subghz

import (
	"subghz-go/errcode"
	"subghz-go/services/subghz/internal/platform"
)

// Open brings up the board's radio for the current build target and
// returns an initialised driver. Host builds without radio hardware get
// the simulator.
func Open(cfg Config) (*Driver, error) {
	h, err := platform.Open()
	if err != nil {
		return nil, errcode.Wrap(errcode.Of(err), "subghz.Open", err)
	}
	return New(h, cfg), nil
}

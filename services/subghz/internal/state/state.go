// services/subghz/internal/state/state.go
package state

import "sync/atomic"

// State is the single driver-wide engine state.
type State uint32

const (
	Idle State = iota
	AsyncRx
	AsyncTx
	AsyncTxLast
	AsyncTxEnd
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AsyncRx:
		return "async_rx"
	case AsyncTx:
		return "async_tx"
	case AsyncTxLast:
		return "async_tx_last"
	case AsyncTxEnd:
		return "async_tx_end"
	default:
		return "invalid"
	}
}

// Machine guards engine exclusivity. Transitions are compare-and-swap so they
// are atomic with respect to interrupt handlers touching the same word.
type Machine struct {
	v atomic.Uint32
}

// Load returns the current state.
func (m *Machine) Load() State { return State(m.v.Load()) }

// Is reports whether the current state is s.
func (m *Machine) Is(s State) bool { return m.Load() == s }

// In reports whether the current state is one of set.
func (m *Machine) In(set ...State) bool {
	cur := m.Load()
	for _, s := range set {
		if cur == s {
			return true
		}
	}
	return false
}

// Must moves from any state in from to to. A precondition violation is a
// programmer error and panics.
func (m *Machine) Must(to State, from ...State) {
	if !m.Try(to, from...) {
		panic("subghz: illegal transition " + m.Load().String() + " -> " + to.String())
	}
}

// Try is Must without the panic; it reports whether the transition happened.
func (m *Machine) Try(to State, from ...State) bool {
	if !allowed(to, from) {
		panic("subghz: undeclared transition to " + to.String())
	}
	for {
		cur := m.Load()
		ok := false
		for _, f := range from {
			if cur == f {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
		if m.v.CompareAndSwap(uint32(cur), uint32(to)) {
			return true
		}
	}
}

// Assert panics unless the current state is one of set.
func (m *Machine) Assert(set ...State) {
	if !m.In(set...) {
		panic("subghz: unexpected state " + m.Load().String())
	}
}

// allowed lists the only legal edges of the driver state graph.
func allowed(to State, from []State) bool {
	for _, f := range from {
		ok := false
		switch f {
		case Idle:
			ok = to == AsyncRx || to == AsyncTx
		case AsyncRx:
			ok = to == Idle
		case AsyncTx:
			ok = to == AsyncTxLast || to == Idle
		case AsyncTxLast:
			ok = to == AsyncTxEnd || to == Idle
		case AsyncTxEnd:
			ok = to == Idle
		}
		if !ok {
			return false
		}
	}
	return len(from) > 0
}

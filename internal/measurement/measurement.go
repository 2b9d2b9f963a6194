// Package measurement implements the dice's face-value drawing rules: a
// uniform, unbiased 1-6 draw plus the memoization and anti-correlation rules
// that make repeated measurements of an unthrown or entangled dice behave
// consistently.
package measurement

import (
	"crypto/rand"
	"sync"

	"github.com/rs/zerolog"

	"github.com/qdice/quantumdice/internal/fsm"
)

// Axis identifies which physical face pair produced a measurement.
type Axis uint8

const (
	AxisUndefined Axis = iota
	AxisX
	AxisY
	AxisZ
)

// Engine draws face values and applies the per-entanglement-state rule that
// decides whether a fresh draw happens or a remembered value is reused.
type Engine struct {
	mu  sync.Mutex
	log zerolog.Logger

	// AlwaysSeven is a debug override (config-driven, see internal/config)
	// carried over from the original firmware's alwaysSeven flag: forces
	// every fresh draw to 6, which paired with PostEntanglement math makes
	// anti-correlation trivially verifiable on the bench.
	AlwaysSeven bool

	memoAxis   Axis
	memoNumber uint8
	memoValid  bool

	teleportAxis   Axis
	teleportNumber uint8
	teleportValid  bool

	partnerAxis   Axis
	partnerNumber uint8
	partnerValid  bool
}

func New(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "measurement").Logger()}
}

// SetTeleportedValue records the (axis, number) pair carried by a
// TELEPORT_PAYLOAD frame, consumed by the next Measure call on that axis.
func (e *Engine) SetTeleportedValue(axis Axis, number uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.teleportAxis, e.teleportNumber, e.teleportValid = axis, number, true
}

// SetPartnerMeasurement records the entangled partner's measured value,
// consumed by the next PostEntanglement Measure call on the matching axis to
// enforce the sum-to-7 anti-correlation invariant.
func (e *Engine) SetPartnerMeasurement(axis Axis, number uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.partnerAxis, e.partnerNumber, e.partnerValid = axis, number, true
}

// Measure returns the face value for axis given the dice's current
// entanglement state, applying:
//   - Pure: memoizes the last (axis, number) pair; a later measurement on
//     the same axis returns the same number until Reset or a measurement on
//     another axis replaces the memo.
//   - Entangled: always draws fresh; the caller is responsible for
//     transmitting the result to the partner.
//   - PostEntanglement: forces 7-partnerNumber on the axis the partner
//     reported, otherwise draws fresh.
//   - Teleported: reuses the teleported (axis, number) pair on a matching
//     axis, otherwise draws fresh.
func (e *Engine) Measure(state fsm.EntanglementState, axis Axis) uint8 {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch state {
	case fsm.Pure, fsm.EntangleRequested:
		if e.memoValid && e.memoAxis == axis {
			return e.memoNumber
		}
		n := e.draw()
		e.memoAxis, e.memoNumber, e.memoValid = axis, n, true
		return n

	case fsm.PostEntanglement:
		if e.partnerValid && e.partnerAxis == axis {
			n := 7 - e.partnerNumber
			e.partnerValid = false
			return n
		}
		return e.draw()

	case fsm.Teleported:
		if e.teleportValid && e.teleportAxis == axis {
			n := e.teleportNumber
			e.teleportValid = false
			return n
		}
		return e.draw()

	case fsm.Entangled:
		return e.draw()

	default:
		return e.draw()
	}
}

// Reset clears all memoized and pending measurement state, used when an
// entanglement resolves via a teleport relay rather than a fresh roll.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.memoValid = false
	e.partnerValid = false
	e.teleportValid = false
}

// draw returns a uniform value in [1,6] using rejection sampling over a
// cryptographically random byte stream, avoiding the modulo bias a naive
// `randomByte % 6` would introduce (256 is not a multiple of 6).
func (e *Engine) draw() uint8 {
	if e.AlwaysSeven {
		// 7 has no single-die representation; the debug flag pins every
		// draw to 6 so PostEntanglement's 7-n math is easy to eyeball.
		return 6
	}

	const limit = 252 // largest multiple of 6 that fits in a byte
	var b [1]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			e.log.Error().Err(err).Msg("crypto/rand read failed, retrying")
			continue
		}
		if b[0] < limit {
			return b[0]%6 + 1
		}
	}
}

// OppositeFace returns the value on the opposite face of a standard die,
// the same 7-n identity Measure applies in PostEntanglement.
func OppositeFace(n uint8) uint8 { return 7 - n }

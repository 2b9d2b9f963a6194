package fsm

import "github.com/rs/zerolog"

// StateMachine holds a dice's current State and applies triggers against the
// transition table. It has no knowledge of the radio, sensors, or display;
// those are wired together by the device package.
type StateMachine struct {
	state State
	log   zerolog.Logger
}

func New(log zerolog.Logger) *StateMachine {
	return &StateMachine{
		state: State{Mode: Quantum, ThrowState: Idle, EntanglementState: Pure},
		log:   log.With().Str("component", "fsm").Logger(),
	}
}

func (m *StateMachine) State() State { return m.state }

// Dispatch applies trig to the current state via the transition table. An
// unmatched trigger is logged and leaves the state unchanged, matching the
// original firmware's non-fatal handling of irrelevant events.
func (m *StateMachine) Dispatch(trig Trigger) (from, to State, transitioned bool) {
	from = m.state
	tr, ok := getStateTransition(m.state, trig)
	if !ok {
		m.log.Debug().
			Str("state", m.state.String()).
			Str("trigger", trig.String()).
			Msg("no matching transition, state unchanged")
		return from, from, false
	}

	m.state = tr.apply(m.state)
	if m.state != from {
		m.log.Info().
			Str("from", from.String()).
			Str("to", m.state.String()).
			Str("trigger", trig.String()).
			Msg("state transition")
	}
	return from, m.state, true
}

// ForceTeleported bypasses the transition table: the teleport payload
// carries an explicit destination axis/number that a declarative match
// cannot express cleanly, so the device loop mutates the entanglement axis
// directly here, mirroring the original firmware's inline state assignment
// inside its TELEPORT_PAYLOAD handler.
func (m *StateMachine) ForceTeleported() {
	m.state.EntanglementState = Teleported
	m.log.Info().Str("state", m.state.String()).Msg("state forced via teleport payload")
}

// ForceEntangled bypasses the transition table for a teleport payload whose
// carried state was itself Entangled: the destination adopts the sender's
// former partner directly, mirroring ForceTeleported.
func (m *StateMachine) ForceEntangled() {
	m.state.EntanglementState = Entangled
	m.log.Info().Str("state", m.state.String()).Msg("state forced to Entangled via teleport payload")
}

// ForcePostEntanglement is the analogous direct mutation used when this
// dice's entangled partner reports its own measurement: the anti-correlated
// pairing state cannot wait for the next tick's trigger dispatch.
func (m *StateMachine) ForcePostEntanglement() {
	m.state.EntanglementState = PostEntanglement
	m.log.Info().Str("state", m.state.String()).Msg("state forced to PostEntanglement")
}

// ForceRequested bypasses the transition table for the initiating side of a
// handshake: sending ENTANGLE_REQUEST and recording that this dice is now
// awaiting a reply happen together, so the device loop drives both the
// transmit and the state change from one call.
func (m *StateMachine) ForceRequested() {
	m.state.EntanglementState = EntangleRequested
	m.log.Info().Str("state", m.state.String()).Msg("state forced to EntangleRequested")
}

// Disentangle drops back to Pure outside the transition table, used when a
// partner is lost to a teleport handoff or an entangled-family state
// resolves at measurement time, rather than to a triggered transition.
func (m *StateMachine) Disentangle() {
	m.state.EntanglementState = Pure
	m.log.Info().Str("state", m.state.String()).Msg("state forced to Pure (disentangled)")
}

// CanAcceptEntangleRequest reports whether an inbound ENTANGLE_REQUEST
// should be honored: Classic mode always denies, and a dice with its own
// pending request denies to break the symmetric race.
func (m *StateMachine) CanAcceptEntangleRequest() bool {
	if m.state.Mode == Classic {
		return false
	}
	return m.state.EntanglementState != EntangleRequested
}

// IsHijackable reports whether this dice, already Entangled, should treat a
// fresh inbound ENTANGLE_REQUEST as a teleport-hijack instead of a plain
// denial: an already-paired dice can still be asked to relay a teleport.
func (m *StateMachine) IsHijackable() bool {
	return m.state.EntanglementState == Entangled
}

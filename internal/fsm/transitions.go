package fsm

// StateTransition is one row of the declarative transition table. A nil
// matcher field matches any value of that axis; a nil assigner field leaves
// that axis of the destination state unchanged. This mirrors the original
// firmware's optional-matcher/optional-assigner StateTransition struct.
type StateTransition struct {
	MatchMode              *Mode
	MatchThrowState        *ThrowState
	MatchEntanglementState *EntanglementState
	Trigger                Trigger

	AssignMode              *Mode
	AssignThrowState        *ThrowState
	AssignEntanglementState *EntanglementState
}

func mode(m Mode) *Mode                               { return &m }
func throwState(t ThrowState) *ThrowState             { return &t }
func entanglement(e EntanglementState) *EntanglementState { return &e }

// matches reports whether the row applies to the current state and trigger.
func (tr StateTransition) matches(s State, trig Trigger) bool {
	if tr.Trigger != trig {
		return false
	}
	if tr.MatchMode != nil && *tr.MatchMode != s.Mode {
		return false
	}
	if tr.MatchThrowState != nil && *tr.MatchThrowState != s.ThrowState {
		return false
	}
	if tr.MatchEntanglementState != nil && *tr.MatchEntanglementState != s.EntanglementState {
		return false
	}
	return true
}

// apply computes the destination state, leaving unassigned axes unchanged.
func (tr StateTransition) apply(s State) State {
	out := s
	if tr.AssignMode != nil {
		out.Mode = *tr.AssignMode
	}
	if tr.AssignThrowState != nil {
		out.ThrowState = *tr.AssignThrowState
	}
	if tr.AssignEntanglementState != nil {
		out.EntanglementState = *tr.AssignEntanglementState
	}
	return out
}

// transitionTable is scanned first-match-wins, exactly like the original
// firmware's flat array: more specific rows are listed before the general
// fallbacks they would otherwise shadow.
var transitionTable = []StateTransition{
	// --- Mode switch, any throw/entanglement state ---
	{MatchMode: mode(Classic), Trigger: TriggerModeSwitch, AssignMode: mode(Quantum)},
	{MatchMode: mode(Quantum), Trigger: TriggerModeSwitch, AssignMode: mode(Classic)},

	// --- Battery ---
	{Trigger: TriggerLowBattery, AssignMode: mode(LowBattery)},
	{MatchMode: mode(LowBattery), Trigger: TriggerBatteryOK, AssignMode: mode(Quantum)},

	// --- Classic mode: rolling still flips ThrowState so the watchdog/display
	//     logic has something to react to, but entanglement axis is inert. ---
	{MatchMode: mode(Classic), MatchThrowState: throwState(Idle), Trigger: TriggerStartRolling,
		AssignThrowState: throwState(Throwing)},
	{MatchMode: mode(Classic), MatchThrowState: throwState(Throwing), Trigger: TriggerStopRolling,
		AssignThrowState: throwState(Observed)},
	{MatchMode: mode(Classic), MatchThrowState: throwState(Observed), Trigger: TriggerStartRolling,
		AssignThrowState: throwState(Throwing)},

	// --- Quantum mode: Idle -> Throwing, any entanglement state ---
	{MatchMode: mode(Quantum), MatchThrowState: throwState(Idle), MatchEntanglementState: entanglement(Pure),
		Trigger: TriggerStartRolling, AssignThrowState: throwState(Throwing)},
	{MatchMode: mode(Quantum), MatchThrowState: throwState(Idle), MatchEntanglementState: entanglement(EntangleRequested),
		Trigger: TriggerStartRolling, AssignThrowState: throwState(Throwing)},
	{MatchMode: mode(Quantum), MatchThrowState: throwState(Idle), MatchEntanglementState: entanglement(Entangled),
		Trigger: TriggerStartRolling, AssignThrowState: throwState(Throwing)},
	{MatchMode: mode(Quantum), MatchThrowState: throwState(Idle), MatchEntanglementState: entanglement(PostEntanglement),
		Trigger: TriggerStartRolling, AssignThrowState: throwState(Throwing)},
	{MatchMode: mode(Quantum), MatchThrowState: throwState(Idle), MatchEntanglementState: entanglement(Teleported),
		Trigger: TriggerStartRolling, AssignThrowState: throwState(Throwing)},

	// --- Quantum mode: Throwing -> Observed (measurement happens in the entry
	//     action of Observed; this row only flips ThrowState) ---
	{MatchMode: mode(Quantum), MatchThrowState: throwState(Throwing), MatchEntanglementState: entanglement(Pure),
		Trigger: TriggerStopRolling, AssignThrowState: throwState(Observed)},
	{MatchMode: mode(Quantum), MatchThrowState: throwState(Throwing), MatchEntanglementState: entanglement(EntangleRequested),
		Trigger: TriggerStopRolling, AssignThrowState: throwState(Observed)},
	{MatchMode: mode(Quantum), MatchThrowState: throwState(Throwing), MatchEntanglementState: entanglement(Entangled),
		Trigger: TriggerStopRolling, AssignThrowState: throwState(Observed)},
	{MatchMode: mode(Quantum), MatchThrowState: throwState(Throwing), MatchEntanglementState: entanglement(PostEntanglement),
		Trigger: TriggerStopRolling, AssignThrowState: throwState(Observed)},
	{MatchMode: mode(Quantum), MatchThrowState: throwState(Throwing), MatchEntanglementState: entanglement(Teleported),
		Trigger: TriggerStopRolling, AssignThrowState: throwState(Observed)},

	// --- Quantum mode: Observed -> Throwing on a new roll. Entangled,
	//     PostEntanglement, and Teleported held at measurement time resolve
	//     to Pure inside the device loop's measure step, not here; this row
	//     only flips ThrowState and keeps whatever entanglement_state the
	//     dice holds (e.g. PostEntanglement forced while it lay Observed). ---
	{MatchMode: mode(Quantum), MatchThrowState: throwState(Observed), Trigger: TriggerStartRolling,
		AssignThrowState: throwState(Throwing)},

	// --- Entanglement handshake, receiver side: a Pure dice accepting an
	//     inbound ENTANGLE_REQUEST becomes Entangled. The initiator's
	//     Pure -> EntangleRequested is performed by the device loop directly
	//     (it needs to also transmit ENTANGLE_REQUEST), not via this table. ---
	{MatchEntanglementState: entanglement(Pure), Trigger: TriggerEntangleRequestReceived,
		AssignEntanglementState: entanglement(Entangled)},

	// --- Symmetric race: both sides requested each other at once. The
	//     second request to arrive while already EntangleRequested is
	//     denied, leaving this dice's own pending request alone. ---
	{MatchEntanglementState: entanglement(EntangleRequested), Trigger: TriggerEntangleRequestReceived},

	// --- Initiator receiving the receiver's reply ---
	{MatchEntanglementState: entanglement(EntangleRequested), Trigger: TriggerEntangleConfirmReceived,
		AssignEntanglementState: entanglement(Entangled)},
	{MatchEntanglementState: entanglement(EntangleRequested), Trigger: TriggerEntangleDeniedReceived,
		AssignEntanglementState: entanglement(Pure)},

	// --- Timeouts: Timed reverts both a pending request and a live
	//     entanglement to Pure. The device loop dispatches Timed only for a
	//     pending request that has waited MAX_ENTANGLED_WAIT. ---
	{MatchEntanglementState: entanglement(EntangleRequested), Trigger: TriggerTimed,
		AssignEntanglementState: entanglement(Pure)},
	{MatchEntanglementState: entanglement(Entangled), Trigger: TriggerTimed,
		AssignEntanglementState: entanglement(Pure)},
}

// getStateTransition returns the first matching row, or ok=false if the
// trigger is simply not meaningful in the current state (logged by the
// caller, state left unchanged).
func getStateTransition(s State, trig Trigger) (StateTransition, bool) {
	for _, tr := range transitionTable {
		if tr.matches(s, trig) {
			return tr, true
		}
	}
	return StateTransition{}, false
}

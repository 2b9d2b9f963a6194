package fsm

import (
	"testing"

	"github.com/rs/zerolog"
)

func newTestMachine() *StateMachine {
	return New(zerolog.Nop())
}

func TestInitialState(t *testing.T) {
	m := newTestMachine()
	want := State{Mode: Quantum, ThrowState: Idle, EntanglementState: Pure}
	if got := m.State(); got != want {
		t.Fatalf("initial state = %v, want %v", got, want)
	}
}

func TestUnmatchedTriggerLeavesStateUnchanged(t *testing.T) {
	m := newTestMachine()
	before := m.State()
	_, after, transitioned := m.Dispatch(TriggerEntangleConfirmReceived)
	if transitioned {
		t.Fatal("Dispatch() reported a transition for an irrelevant trigger")
	}
	if after != before {
		t.Fatalf("state changed on unmatched trigger: %v -> %v", before, after)
	}
}

func TestRollCycle(t *testing.T) {
	m := newTestMachine()

	_, s, ok := m.Dispatch(TriggerStartRolling)
	if !ok || s.ThrowState != Throwing {
		t.Fatalf("StartRolling: state = %v, ok = %v", s, ok)
	}

	_, s, ok = m.Dispatch(TriggerStopRolling)
	if !ok || s.ThrowState != Observed {
		t.Fatalf("StopRolling: state = %v, ok = %v", s, ok)
	}
}

func TestEntanglementHandshakeInitiator(t *testing.T) {
	m := newTestMachine()

	_, s, ok := m.Dispatch(TriggerEntangleConfirmReceived)
	if ok {
		t.Fatalf("ConfirmReceived matched from Pure, want no match: %v", s)
	}

	// Initiator moves itself to EntangleRequested out of band (it must send
	// the request), simulated here by forcing the axis before dispatch.
	m.state.EntanglementState = EntangleRequested

	_, s, ok = m.Dispatch(TriggerEntangleConfirmReceived)
	if !ok || s.EntanglementState != Entangled {
		t.Fatalf("ConfirmReceived: state = %v, ok = %v", s, ok)
	}
}

func TestEntanglementDeniedRevertsToPure(t *testing.T) {
	m := newTestMachine()
	m.state.EntanglementState = EntangleRequested

	_, s, ok := m.Dispatch(TriggerEntangleDeniedReceived)
	if !ok || s.EntanglementState != Pure {
		t.Fatalf("DeniedReceived: state = %v, ok = %v", s, ok)
	}
}

func TestTimeoutFromBothRequestedAndEntangled(t *testing.T) {
	for _, start := range []EntanglementState{EntangleRequested, Entangled} {
		m := newTestMachine()
		m.state.EntanglementState = start

		_, s, ok := m.Dispatch(TriggerTimed)
		if !ok || s.EntanglementState != Pure {
			t.Errorf("Timed from %v: state = %v, ok = %v", start, s, ok)
		}
	}
}

func TestObservedStartRollingOnlyFlipsThrowState(t *testing.T) {
	// PostEntanglement resolves to Pure at measurement time, inside the
	// device loop, not via this table row; by the time a new roll starts
	// the entanglement axis is already whatever the device loop left it as.
	m := newTestMachine()
	m.state.ThrowState = Observed
	m.state.EntanglementState = PostEntanglement

	_, s, ok := m.Dispatch(TriggerStartRolling)
	if !ok || s.ThrowState != Throwing || s.EntanglementState != PostEntanglement {
		t.Fatalf("state = %v, ok = %v, want Throwing/PostEntanglement", s, ok)
	}
}

func TestClassicModeDeniesEntangleRequest(t *testing.T) {
	m := newTestMachine()
	m.state.Mode = Classic
	if m.CanAcceptEntangleRequest() {
		t.Error("CanAcceptEntangleRequest() = true in Classic mode")
	}
}

func TestSymmetricRaceDeniesRequest(t *testing.T) {
	m := newTestMachine()
	m.state.EntanglementState = EntangleRequested
	if m.CanAcceptEntangleRequest() {
		t.Error("CanAcceptEntangleRequest() = true while already requesting")
	}
}

func TestEntangledIsHijackable(t *testing.T) {
	m := newTestMachine()
	m.state.EntanglementState = Entangled
	if !m.IsHijackable() {
		t.Error("IsHijackable() = false while Entangled")
	}
}

func TestModeSwitchRoundTrip(t *testing.T) {
	m := newTestMachine()
	_, s, ok := m.Dispatch(TriggerModeSwitch)
	if !ok || s.Mode != Classic {
		t.Fatalf("ModeSwitch: state = %v, ok = %v", s, ok)
	}
	_, s, ok = m.Dispatch(TriggerModeSwitch)
	if !ok || s.Mode != Quantum {
		t.Fatalf("ModeSwitch back: state = %v, ok = %v", s, ok)
	}
}

func TestLowBatteryOverridesMode(t *testing.T) {
	m := newTestMachine()
	_, s, ok := m.Dispatch(TriggerLowBattery)
	if !ok || s.Mode != LowBattery {
		t.Fatalf("LowBattery: state = %v, ok = %v", s, ok)
	}
	_, s, ok = m.Dispatch(TriggerBatteryOK)
	if !ok || s.Mode != Quantum {
		t.Fatalf("BatteryOK: state = %v, ok = %v", s, ok)
	}
}

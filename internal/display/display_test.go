package display

import (
	"testing"
	"time"

	"github.com/qdice/quantumdice/internal/fsm"
)

func TestClassicModeShowsFixedPips(t *testing.T) {
	s := fsm.State{Mode: fsm.Classic}
	got := Determine(s, 0, UpNone, Options{})
	want := Faces{X0: ScreenN2, X1: ScreenN5, Y0: ScreenN3, Y1: ScreenN4, Z0: ScreenN6, Z1: ScreenN1}
	if got != want {
		t.Errorf("Determine(Classic) = %+v, want %+v", got, want)
	}
}

func TestLowBatteryShowsGlyphEverywhere(t *testing.T) {
	s := fsm.State{Mode: fsm.LowBattery}
	got := Determine(s, 0, UpNone, Options{})
	if got != uniform(ScreenLowBattery) {
		t.Errorf("Determine(LowBattery) = %+v, want uniform LowBattery", got)
	}
}

func TestIdleShowsSuperposition(t *testing.T) {
	s := fsm.State{Mode: fsm.Quantum, ThrowState: fsm.Idle, EntanglementState: fsm.Pure}
	got := Determine(s, 0, UpNone, Options{})
	if got != uniform(ScreenSuperposition) {
		t.Errorf("Determine(Idle/Pure) = %+v, want uniform superposition", got)
	}
}

func TestEntangledShowsDistinctSuperposition(t *testing.T) {
	s := fsm.State{Mode: fsm.Quantum, ThrowState: fsm.Idle, EntanglementState: fsm.Entangled}
	got := Determine(s, 0, UpNone, Options{ShowColors: true})
	if got != uniform(ScreenSuperpositionEntangled) {
		t.Errorf("Determine(Entangled) = %+v, want uniform entangled superposition", got)
	}
}

func TestColorToggleFallsBackAfterFlashExpires(t *testing.T) {
	now := time.Now()
	s := fsm.State{Mode: fsm.Quantum, ThrowState: fsm.Idle, EntanglementState: fsm.Entangled}
	got := Determine(s, 0, UpNone, Options{ShowColors: false, FlashUntil: now.Add(time.Minute), Now: now})
	if got != uniform(ScreenSuperpositionEntangled) {
		t.Errorf("within flash window = %+v, want entangled glyph preserved", got)
	}

	got = Determine(s, 0, UpNone, Options{ShowColors: false, FlashUntil: now.Add(-time.Minute), Now: now})
	if got != uniform(ScreenSuperposition) {
		t.Errorf("after flash window = %+v, want plain superposition", got)
	}
}

func TestEntanglementColorPassesThrough(t *testing.T) {
	s := fsm.State{Mode: fsm.Quantum, ThrowState: fsm.Idle, EntanglementState: fsm.Entangled}
	got := Determine(s, 0, UpNone, Options{ShowColors: true, Color: 0xFFE0})
	if got.Color != 0xFFE0 {
		t.Errorf("Color = %#x, want 0xFFE0", got.Color)
	}
}

func TestObservedOverlaysMeasuredFace(t *testing.T) {
	s := fsm.State{Mode: fsm.Quantum, ThrowState: fsm.Observed, EntanglementState: fsm.Pure}
	got := Determine(s, 4, UpZ1, Options{})
	want := uniform(ScreenSuperposition)
	want.Z1 = ScreenN4
	if got != want {
		t.Errorf("Determine(Observed) = %+v, want %+v", got, want)
	}
}

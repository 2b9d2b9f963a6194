package measurement

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/qdice/quantumdice/internal/fsm"
)

func newEngine() *Engine { return New(zerolog.Nop()) }

func TestDrawIsWithinRange(t *testing.T) {
	e := newEngine()
	for i := 0; i < 500; i++ {
		n := e.draw()
		if n < 1 || n > 6 {
			t.Fatalf("draw() = %v, want in [1,6]", n)
		}
	}
}

func TestPureMemoizesSameAxis(t *testing.T) {
	e := newEngine()
	first := e.Measure(fsm.Pure, AxisX)
	second := e.Measure(fsm.Pure, AxisX)
	if first != second {
		t.Errorf("repeat measurement on same axis = %v, want %v", second, first)
	}
}

func TestPureDoesNotMemoizeAcrossAxes(t *testing.T) {
	e := newEngine()
	e.memoAxis, e.memoNumber, e.memoValid = AxisX, 3, true
	// Different axis should not return the memoized value deterministically;
	// it should draw fresh (verified indirectly: the memo moves from X to Y
	// after measuring Y).
	_ = e.Measure(fsm.Pure, AxisY)
	if e.memoAxis != AxisY {
		t.Errorf("memoAxis = %v, want AxisY after measuring a new axis", e.memoAxis)
	}
}

func TestPostEntanglementAntiCorrelation(t *testing.T) {
	e := newEngine()
	e.SetPartnerMeasurement(AxisZ, 3)
	got := e.Measure(fsm.PostEntanglement, AxisZ)
	if got != 4 {
		t.Errorf("Measure(PostEntanglement) = %v, want 4 (7-3)", got)
	}
}

func TestPostEntanglementConsumesPartnerValueOnce(t *testing.T) {
	e := newEngine()
	e.SetPartnerMeasurement(AxisZ, 2)
	_ = e.Measure(fsm.PostEntanglement, AxisZ)
	if e.partnerValid {
		t.Error("partner measurement was not consumed after use")
	}
}

func TestTeleportedReusesPayload(t *testing.T) {
	e := newEngine()
	e.SetTeleportedValue(AxisY, 5)
	got := e.Measure(fsm.Teleported, AxisY)
	if got != 5 {
		t.Errorf("Measure(Teleported) = %v, want 5", got)
	}
	if e.teleportValid {
		t.Error("teleported value was not consumed after use")
	}
}

func TestOppositeFace(t *testing.T) {
	for n := uint8(1); n <= 6; n++ {
		if got := OppositeFace(n); got+n != 7 {
			t.Errorf("OppositeFace(%v) = %v, sum != 7", n, got)
		}
	}
}

func TestAlwaysSevenDebugOverride(t *testing.T) {
	e := newEngine()
	e.AlwaysSeven = true
	e.SetPartnerMeasurement(AxisX, e.draw())
	// draw() itself is pinned when AlwaysSeven is set.
	if got := e.draw(); got != 6 {
		t.Errorf("draw() with AlwaysSeven = %v, want 6", got)
	}
}

package sensor

import "testing"

func TestSimAdvancesThroughTimeline(t *testing.T) {
	s := NewSim(
		Event{Stable: true, OnTable: true},
		Event{Moving: true},
		Event{Stable: true, OnTable: true, Tumbled: true},
	)

	if !s.Stable() || !s.OnTable() {
		t.Fatal("initial event not applied")
	}

	s.Advance()
	if !s.Moving() {
		t.Fatal("second event not applied")
	}

	s.Advance()
	if !s.Tumbled() {
		t.Fatal("tumbled flag not applied")
	}

	s.ResetTumbleDetection()
	if s.Tumbled() {
		t.Fatal("ResetTumbleDetection() did not clear the flag")
	}
}

func TestSimCursorDoesNotOverrun(t *testing.T) {
	s := NewSim(Event{Moving: true})
	for i := 0; i < 5; i++ {
		s.Advance()
	}
	if !s.Moving() {
		t.Fatal("cursor overran the single-event timeline")
	}
}

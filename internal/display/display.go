// Package display computes which glyph each of a dice's six faces should
// show, as a pure function of state. It performs no rendering itself: that
// remains a hardware concern outside this module's scope.
package display

import (
	"time"

	"github.com/qdice/quantumdice/internal/fsm"
)

// Screen is the glyph shown on one face.
type Screen uint8

const (
	ScreenBlank Screen = iota
	ScreenN1
	ScreenN2
	ScreenN3
	ScreenN4
	ScreenN5
	ScreenN6
	ScreenSuperposition
	ScreenSuperpositionEntangled
	ScreenLowBattery
)

// UpSide names the face currently reporting up in an Observed measurement.
type UpSide uint8

const (
	UpNone UpSide = iota
	UpX0
	UpX1
	UpY0
	UpY1
	UpZ0
	UpZ1
)

// Faces holds the six glyphs to show, one per physical face, plus the
// entanglement color (RGB565) a renderer should tint the entangled-
// superposition glyph with.
type Faces struct {
	X0, X1, Y0, Y1, Z0, Z1 Screen
	Color                  uint16
}

var numberScreens = [...]Screen{
	0: ScreenBlank,
	1: ScreenN1, 2: ScreenN2, 3: ScreenN3, 4: ScreenN4, 5: ScreenN5, 6: ScreenN6,
}

func numberScreen(n uint8) Screen {
	if int(n) < len(numberScreens) {
		return numberScreens[n]
	}
	return ScreenSuperposition
}

// Options carries the D6 supplemented short-click color toggle: when
// ShowColors is false the entangled superposition glyph is kept until
// FlashUntil and replaced by the plain one from then on, mirroring the
// original firmware's
// flashColor/flashColorStartTime behavior.
type Options struct {
	ShowColors bool
	FlashUntil time.Time
	Now        time.Time

	// Color is the dice's current entanglement_color; it is carried through
	// to Faces.Color unconditionally and is only meaningful to a renderer
	// when the glyph it accompanies is one of the entangled variants.
	Color uint16
}

// Determine computes the six face glyphs for the given state and most
// recent measurement, exactly mirroring the original firmware's
// determineScreens: Classic mode shows fixed pips, LowBattery shows the
// low-battery glyph everywhere, Throwing/Idle show superposition (entangled
// variant if applicable), and Observed overlays the measured face.
func Determine(s fsm.State, number uint8, up UpSide, opt Options) Faces {
	faces := determine(s, number, up, opt)
	faces.Color = opt.Color
	return faces
}

func determine(s fsm.State, number uint8, up UpSide, opt Options) Faces {
	switch s.Mode {
	case fsm.Classic:
		return Faces{X0: ScreenN2, X1: ScreenN5, Y0: ScreenN3, Y1: ScreenN4, Z0: ScreenN6, Z1: ScreenN1}
	case fsm.LowBattery:
		return uniform(ScreenLowBattery)
	}

	entangledGlyph := ScreenSuperpositionEntangled
	if !opt.ShowColors && !opt.Now.Before(opt.FlashUntil) {
		entangledGlyph = ScreenSuperposition
	}

	superposition := func() Screen {
		if isEntangledLike(s.EntanglementState) {
			return entangledGlyph
		}
		return ScreenSuperposition
	}

	switch s.ThrowState {
	case fsm.Throwing, fsm.Idle:
		return uniform(superposition())
	case fsm.Observed:
		base := uniform(superposition())
		measured := numberScreen(number)
		switch up {
		case UpX0:
			base.X0 = measured
		case UpX1:
			base.X1 = measured
		case UpY0:
			base.Y0 = measured
		case UpY1:
			base.Y1 = measured
		case UpZ0:
			base.Z0 = measured
		case UpZ1:
			base.Z1 = measured
		}
		return base
	default:
		return uniform(ScreenSuperposition)
	}
}

func isEntangledLike(e fsm.EntanglementState) bool {
	return e == fsm.Entangled || e == fsm.EntangleRequested
}

func uniform(s Screen) Faces {
	return Faces{X0: s, X1: s, Y0: s, Y1: s, Z0: s, Z1: s}
}

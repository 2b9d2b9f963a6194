// Package device wires the protocol, transport, fsm, measurement, display,
// sensor, and config components into the cooperative per-dice main loop.
package device

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/qdice/quantumdice/internal/config"
	"github.com/qdice/quantumdice/internal/deepsleep"
	"github.com/qdice/quantumdice/internal/display"
	"github.com/qdice/quantumdice/internal/fsm"
	"github.com/qdice/quantumdice/internal/measurement"
	"github.com/qdice/quantumdice/internal/protocol"
	"github.com/qdice/quantumdice/internal/sensor"
	"github.com/qdice/quantumdice/internal/transport"
)

// pendingRelay tracks this dice's progress as the entangled intermediary
// (A, per the protocol's naming) brokering a teleport of the requester's
// value to this dice's partner: it has sent TELEPORT_REQUEST to the
// requester and is awaiting that requester's TELEPORT_CONFIRM.
type pendingRelay struct {
	active    bool
	requester protocol.MacAddress // M
}

// Device orchestrates one dice's full state: its FSM, its measurement
// engine, its radio transport, the sensor it polls, and the display
// requests it produces.
type Device struct {
	Self protocol.MacAddress
	cfg  config.Config
	log  zerolog.Logger

	fsm   *fsm.StateMachine
	meas  *measurement.Engine
	sense sensor.Facade
	radio *transport.RadioTransport
	sleep deepsleep.Policy

	partner           protocol.MacAddress
	partnerValid      bool
	entanglementColor uint16

	// sisterState caches the entangled partner's most recently announced
	// state, updated from WATCH_DOG frames whose source is current_peer.
	sisterState fsm.State

	lastAxis   measurement.Axis
	lastNumber uint8
	lastUpSide display.UpSide

	showColors bool
	flashUntil time.Time

	requestedAt time.Time
	idleSince   time.Time

	relay pendingRelay

	lastFaces display.Faces
}

func New(self protocol.MacAddress, cfg config.Config, radio *transport.RadioTransport, sense sensor.Facade, log zerolog.Logger) *Device {
	log = log.With().Str("component", "device").Str("dice_id", cfg.DiceID).Logger()
	meas := measurement.New(log)
	meas.AlwaysSeven = cfg.Debug.AlwaysSeven

	return &Device{
		Self:  self,
		cfg:   cfg,
		log:   log,
		fsm:   fsm.New(log),
		meas:  meas,
		sense: sense,
		radio: radio,
		sleep: deepsleep.NewTimeout(time.Duration(cfg.Power.DeepSleepTimeoutMS) * time.Millisecond),
	}
}

// Run drives the device until ctx is cancelled. The radio's own receive
// loop runs independently (started by radio.Start); this method supervises
// the tick loop and the watchdog broadcast with errgroup, keeping the FSM
// dispatch itself single-threaded: both goroutines only ever call into
// Device through its own un-exported, non-reentrant methods via the tick
// loop's channel-free direct calls, never concurrently.
func (d *Device) Run(ctx context.Context) error {
	if err := d.radio.Start(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				d.Tick()
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(protocol.WatchdogIntervalMS * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				d.broadcastWatchdog()
			}
		}
	})

	return g.Wait()
}

func (d *Device) broadcastWatchdog() {
	s := d.fsm.State()
	_ = d.radio.Send(protocol.Message{
		Type:  protocol.MsgWatchdog,
		Mode:  byte(s.Mode),
		Throw: byte(s.ThrowState),
		Ent:   byte(s.EntanglementState),
	})
}

// Tick performs one cooperative scheduling pass: drain inbound messages,
// poll the sensor for motion edges, check entanglement timeouts, and
// recompute the display. It is the synchronous heart of the device and is
// never called concurrently with itself.
func (d *Device) Tick() {
	for {
		r, ok := d.radio.Queue().Pop()
		if !ok {
			break
		}
		d.handleMessage(r.Message, r.RSSI)
	}

	d.pollSensor()
	d.checkEntangleTimeout()
	d.maybeAutoEntangle()
	d.checkDeepSleep()
	d.refreshDisplay()
}

// checkDeepSleep asks the deep-sleep policy whether the idle period since
// the last throw justifies sleeping. No hardware sleep is actually entered;
// this only logs the transition so an external power-management layer can
// act on it.
func (d *Device) checkDeepSleep() {
	if d.idleSince.IsZero() || d.sleep == nil {
		return
	}
	if d.sleep.ShouldSleep(time.Since(d.idleSince)) {
		d.log.Info().Dur("idle_for", time.Since(d.idleSince)).Msg("deep sleep threshold reached")
		d.idleSince = time.Now()
	}
}

func (d *Device) pollSensor() {
	moving := d.sense.Moving()
	state := d.fsm.State()

	if moving && state.ThrowState != fsm.Throwing {
		d.fsm.Dispatch(fsm.TriggerStartRolling)
		d.idleSince = time.Time{}
		return
	}
	if !moving && state.ThrowState == fsm.Throwing && d.sense.Stable() {
		_, to, ok := d.fsm.Dispatch(fsm.TriggerStopRolling)
		if ok && to.ThrowState == fsm.Observed {
			d.measure(to)
		}
		d.idleSince = time.Now()
	}
}

func (d *Device) axisFor(up display.UpSide) measurement.Axis {
	switch up {
	case display.UpX0, display.UpX1:
		return measurement.AxisX
	case display.UpY0, display.UpY1:
		return measurement.AxisY
	case display.UpZ0, display.UpZ1:
		return measurement.AxisZ
	default:
		return measurement.AxisUndefined
	}
}

func orientationToUpSide(o sensor.Orientation) display.UpSide {
	switch o {
	case sensor.OrientationX0Up:
		return display.UpX0
	case sensor.OrientationX1Up:
		return display.UpX1
	case sensor.OrientationY0Up:
		return display.UpY0
	case sensor.OrientationY1Up:
		return display.UpY1
	case sensor.OrientationZ0Up:
		return display.UpZ0
	case sensor.OrientationZ1Up:
		return display.UpZ1
	default:
		return display.UpNone
	}
}

// measure draws (or reuses, per the measurement engine's rules) the face
// value for the axis the sensor reports up. Entangled transmits the result
// to the partner; Entangled, PostEntanglement, and Teleported all resolve
// to Pure right here, at the moment of measurement, rather than waiting for
// the next roll.
func (d *Device) measure(state fsm.State) {
	up := orientationToUpSide(d.sense.Orientation())
	axis := d.axisFor(up)

	number := d.meas.Measure(state.EntanglementState, axis)
	d.lastAxis, d.lastNumber, d.lastUpSide = axis, number, up

	switch state.EntanglementState {
	case fsm.Entangled:
		if d.partnerValid {
			_ = d.radio.Send(protocol.Message{
				Type:   protocol.MsgMeasurement,
				Mode:   byte(state.Mode),
				Throw:  byte(fsm.Observed),
				Ent:    byte(fsm.Entangled),
				Axis:   byte(axis),
				Number: number,
				UpSide: byte(up),
			})
		}
		d.disentangle()
	case fsm.PostEntanglement, fsm.Teleported:
		d.disentangle()
	}
}

// disentangle drops this dice back to Pure and unbinds its partner. Used
// wherever an entangled-family state resolves outside the normal trigger
// flow: at measurement time, on a lost partner, or on a relayed teleport.
func (d *Device) disentangle() {
	d.fsm.Disentangle()
	d.partner, d.partnerValid = protocol.Zero, false
	d.entanglementColor = 0
}

func (d *Device) handleMessage(m protocol.Message, rssi int8) {
	switch m.Type {
	case protocol.MsgEntangleRequest:
		d.handleEntangleRequest(m, rssi)
	case protocol.MsgEntangleConfirm:
		d.handleEntangleConfirm(m)
	case protocol.MsgEntangleDenied:
		d.handleEntangleDenied(m)
	case protocol.MsgMeasurement:
		d.handleMeasurement(m)
	case protocol.MsgTeleportRequest:
		d.handleTeleportRequest(m)
	case protocol.MsgTeleportConfirm:
		d.handleTeleportConfirm(m)
	case protocol.MsgTeleportPayload:
		d.handleTeleportPayload(m)
	case protocol.MsgTeleportPartner:
		d.handleTeleportPartner(m)
	case protocol.MsgWatchdog:
		d.handleWatchdog(m)
	}
}

func (d *Device) handleWatchdog(m protocol.Message) {
	if !d.partnerValid || m.Sender != d.partner {
		return
	}
	d.sisterState = fsm.State{
		Mode:              fsm.Mode(m.Mode),
		ThrowState:        fsm.ThrowState(m.Throw),
		EntanglementState: fsm.EntanglementState(m.Ent),
	}
}

func (d *Device) handleEntangleRequest(m protocol.Message, rssi int8) {
	if !transport.InRange(rssi, d.cfg.Radio.RSSILimit) {
		return
	}

	if d.fsm.IsHijackable() && d.partnerValid {
		// Already entangled: the incoming request hijacks this pairing into
		// a teleport instead of a flat denial; the requester is told, via the
		// usual teleport handshake, to hand its own value on to this dice's
		// partner.
		d.startTeleport(m.Sender, d.partner)
		return
	}

	if !d.fsm.CanAcceptEntangleRequest() {
		_ = d.radio.Send(protocol.Message{
			Type:       protocol.MsgEntangleDenied,
			DenyReason: denyReasonFor(d.fsm.State()),
		})
		return
	}

	color := d.pickColor()
	d.fsm.Dispatch(fsm.TriggerEntangleRequestReceived)
	d.partner, d.partnerValid = m.Sender, true
	d.entanglementColor = color
	_ = d.radio.Send(protocol.Message{Type: protocol.MsgEntangleConfirm, Color: color})
}

func denyReasonFor(s fsm.State) byte {
	if s.Mode == fsm.Classic {
		return protocol.DenyClassicMode
	}
	if s.EntanglementState == fsm.EntangleRequested {
		return protocol.DenyAlreadyRequested
	}
	return protocol.DenyBusy
}

func (d *Device) pickColor() uint16 {
	if len(d.cfg.Display.EntangColors) == 0 {
		return 0xFFE0
	}
	return d.cfg.Display.EntangColors[0]
}

func (d *Device) handleEntangleConfirm(m protocol.Message) {
	if d.fsm.State().EntanglementState != fsm.EntangleRequested {
		return
	}
	d.fsm.Dispatch(fsm.TriggerEntangleConfirmReceived)
	d.partner, d.partnerValid = m.Sender, true
	d.entanglementColor = m.Color
}

func (d *Device) handleEntangleDenied(m protocol.Message) {
	if d.fsm.State().EntanglementState != fsm.EntangleRequested {
		return
	}
	d.fsm.Dispatch(fsm.TriggerEntangleDeniedReceived)
	d.partnerValid = false
	// The denial frame was itself recorded as a proximity sighting; drop it so
	// it does not immediately restart the handshake that was just denied.
	d.radio.Proximity().Consume()
}

func (d *Device) handleMeasurement(m protocol.Message) {
	if !d.partnerValid || m.Sender != d.partner {
		return
	}
	d.meas.SetPartnerMeasurement(measurement.Axis(m.Axis), m.Number)
	d.fsm.ForcePostEntanglement()
	// Cache the partner's reported value: if this dice is later hijacked into
	// relaying a teleport, it has something to hand the new target.
	d.lastAxis, d.lastNumber = measurement.Axis(m.Axis), m.Number
}

// RequestEntanglement sends an ENTANGLE_REQUEST to whichever dice was just
// observed in proximity range, and marks this dice as awaiting a reply.
// This bypasses the transition table because it must also transmit: the
// table only models the state change, not the side effect.
func (d *Device) RequestEntanglement(target protocol.MacAddress) {
	if d.fsm.State().Mode != fsm.Quantum || !d.fsm.CanAcceptEntangleRequest() {
		return
	}
	_ = d.radio.Send(protocol.Message{Type: protocol.MsgEntangleRequest})
	d.fsm.ForceRequested()
	d.requestedAt = time.Now()
}

// maybeAutoEntangle reacts to the most recently observed in-range frame:
// a Pure dice initiates a fresh handshake, while an Entangled dice treats a
// newly nearby third party as the trigger to have that party teleport its
// value to this dice's partner (the
// proximity-initiated path of teleportation, distinct from the
// ENTANGLE_REQUEST-initiated hijack handled in handleEntangleRequest).
func (d *Device) maybeAutoEntangle() {
	source, rssi, ok := d.radio.Proximity().Consume()
	if !ok || !transport.InRange(rssi, d.cfg.Radio.RSSILimit) {
		return
	}

	switch d.fsm.State().EntanglementState {
	case fsm.Pure:
		d.RequestEntanglement(source)
	case fsm.Entangled:
		if d.partnerValid && source != d.partner && !d.relay.active {
			d.startTeleport(source, d.partner)
		}
	}
}

func (d *Device) checkEntangleTimeout() {
	state := d.fsm.State().EntanglementState
	if state != fsm.EntangleRequested {
		return
	}
	if d.requestedAt.IsZero() {
		return
	}
	if time.Since(d.requestedAt) >= protocol.MaxEntangledWaitMS*time.Millisecond {
		d.fsm.Dispatch(fsm.TriggerTimed)
		d.partnerValid = false
	}
}

// startTeleport sends TELEPORT_REQUEST{target=B} to requester (M), playing
// this dice's role as A, the entangled intermediary: either M just showed
// up nearby while this dice was already Entangled, or M sent an
// ENTANGLE_REQUEST while this dice was Entangled and gets redirected here.
func (d *Device) startTeleport(requester, targetB protocol.MacAddress) {
	d.relay = pendingRelay{active: true, requester: requester}
	_ = d.radio.Send(protocol.Message{Type: protocol.MsgTeleportRequest, TeleportTarget: targetB})
}

// handleTeleportRequest is M's side: told to relay its current value to B,
// it tells its own former partner N (if any) that N's partner is now B,
// hands its value to B, confirms back to A, and returns to Pure.
func (d *Device) handleTeleportRequest(m protocol.Message) {
	if m.TeleportTarget == d.Self {
		// This dice is B, the destination named in the request; it waits
		// for TELEPORT_PAYLOAD instead of acting as the relaying M.
		return
	}
	if d.relay.active {
		return
	}

	state := d.fsm.State()
	var entangledPeer protocol.MacAddress
	if state.EntanglementState == fsm.Entangled && d.partnerValid {
		entangledPeer = d.partner
		_ = d.radio.Send(protocol.Message{Type: protocol.MsgTeleportPartner, Partner: m.TeleportTarget})
	}

	_ = d.radio.Send(protocol.Message{
		Type:          protocol.MsgTeleportPayload,
		Mode:          byte(state.Mode),
		Throw:         byte(state.ThrowState),
		Ent:           byte(state.EntanglementState),
		Axis:          byte(d.lastAxis),
		Number:        d.lastNumber,
		UpSide:        byte(d.lastUpSide),
		EntangledPeer: entangledPeer,
		Color:         d.entanglementColor,
	})
	_ = d.radio.Send(protocol.Message{Type: protocol.MsgTeleportConfirm})

	d.disentangle()
	d.meas.Reset()
	d.lastAxis, d.lastNumber, d.lastUpSide = measurement.AxisUndefined, 0, display.UpNone
}

// handleTeleportConfirm is A's side: the requester it relayed through has
// confirmed, so A drops its own pairing and returns to Pure.
func (d *Device) handleTeleportConfirm(m protocol.Message) {
	if !d.relay.active || m.Sender != d.relay.requester {
		return
	}
	d.disentangle()
	d.meas.Reset()
	d.relay = pendingRelay{}
}

// handleTeleportPayload is B's side. A dice relaying its own teleport
// through this one (tracked in d.relay) also observes this broadcast; it is
// addressed to B, not to the relay, so it is ignored here.
func (d *Device) handleTeleportPayload(m protocol.Message) {
	if d.relay.active && m.Sender == d.relay.requester {
		return
	}

	switch {
	case fsm.EntanglementState(m.Ent) == fsm.Entangled:
		d.partner, d.partnerValid = m.EntangledPeer, !m.EntangledPeer.IsZero()
		d.entanglementColor = m.Color
		d.meas.Reset()
		d.fsm.ForceEntangled()
	case fsm.ThrowState(m.Throw) == fsm.Observed:
		d.meas.SetTeleportedValue(measurement.Axis(m.Axis), m.Number)
		d.lastAxis, d.lastNumber, d.lastUpSide = measurement.Axis(m.Axis), m.Number, display.UpSide(m.UpSide)
		d.fsm.ForceTeleported()
	default:
		d.disentangle()
	}
	d.refreshDisplay()
}

// handleTeleportPartner is N's side: the dice it was entangled with has
// relayed its value onward to B, so N's own pairing simply repoints at B
// instead of being dropped.
func (d *Device) handleTeleportPartner(m protocol.Message) {
	if !d.partnerValid || m.Sender != d.partner {
		return
	}
	d.partner = m.Partner
}

// ToggleColorDisplay flips the short-click color-display preference,
// carried over from the original firmware's button handler. Honored only
// in Quantum mode.
func (d *Device) ToggleColorDisplay() {
	if d.fsm.State().Mode != fsm.Quantum {
		return
	}
	d.showColors = !d.showColors
	d.flashUntil = time.Now().Add(time.Duration(d.cfg.Display.ColorFlashTimeoutMS) * time.Millisecond)
}

func (d *Device) refreshDisplay() {
	state := d.fsm.State()
	d.lastFaces = display.Determine(state, d.lastNumber, d.lastUpSide, display.Options{
		ShowColors: d.showColors,
		FlashUntil: d.flashUntil,
		Now:        time.Now(),
		Color:      d.entanglementColor,
	})
}

// Faces exposes the most recently computed display request.
func (d *Device) Faces() display.Faces { return d.lastFaces }

// State exposes the dice's current FSM state.
func (d *Device) State() fsm.State { return d.fsm.State() }

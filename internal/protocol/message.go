package protocol

import "encoding/binary"

// Message is the decoded, typed form of an Envelope payload. Exactly one of
// the typed fields is meaningful, selected by Type.
type Message struct {
	Type   byte
	Sender MacAddress
	Seq    uint32

	// State snapshot, carried by WatchDog, Measurement, and TeleportPayload.
	// Ordinals match fsm.Mode / fsm.ThrowState / fsm.EntanglementState.
	Mode  byte
	Throw byte
	Ent   byte

	// EntangleConfirm / TeleportPayload
	Color uint16

	// EntangleDenied
	DenyReason byte

	// TeleportRequest
	TeleportTarget MacAddress // B: the teleportation destination

	// Measurement / TeleportPayload
	Axis   byte
	Number byte
	UpSide byte

	// TeleportPayload: the sender's own entangled partner, Zero if it held none
	EntangledPeer MacAddress

	// TeleportPartner
	Partner MacAddress
}

// EncodeMessage builds the wire Envelope for a Message.
func EncodeMessage(m *Message) []byte {
	var payload []byte

	switch m.Type {
	case MsgEntangleRequest, MsgTeleportConfirm:
		payload = nil
	case MsgWatchdog:
		payload = []byte{m.Mode, m.Throw, m.Ent}
	case MsgMeasurement:
		payload = []byte{m.Mode, m.Throw, m.Ent, m.Axis, m.Number, m.UpSide}
	case MsgEntangleConfirm:
		payload = make([]byte, 2)
		binary.LittleEndian.PutUint16(payload, m.Color)
	case MsgEntangleDenied:
		payload = []byte{m.DenyReason}
	case MsgTeleportRequest:
		payload = make([]byte, 6)
		copy(payload, m.TeleportTarget[:])
	case MsgTeleportPayload:
		payload = make([]byte, 14)
		payload[0], payload[1], payload[2] = m.Mode, m.Throw, m.Ent
		payload[3], payload[4], payload[5] = m.Axis, m.Number, m.UpSide
		copy(payload[6:12], m.EntangledPeer[:])
		binary.LittleEndian.PutUint16(payload[12:14], m.Color)
	case MsgTeleportPartner:
		payload = make([]byte, 6)
		copy(payload, m.Partner[:])
	}

	return EncodeEnvelope(&Envelope{
		Sender:  m.Sender,
		Type:    m.Type,
		Seq:     m.Seq,
		Payload: payload,
	})
}

// DecodeMessage parses on-air bytes into a typed Message.
func DecodeMessage(data []byte) (*Message, error) {
	env := DecodeEnvelope(data)
	if env == nil {
		return nil, ErrMalformedFrame
	}

	m := &Message{Type: env.Type, Sender: env.Sender, Seq: env.Seq}

	switch env.Type {
	case MsgEntangleRequest, MsgTeleportConfirm:
		// no payload
	case MsgWatchdog:
		if len(env.Payload) < 3 {
			return nil, ErrInvalidPayload
		}
		m.Mode, m.Throw, m.Ent = env.Payload[0], env.Payload[1], env.Payload[2]
	case MsgMeasurement:
		if len(env.Payload) < 6 {
			return nil, ErrInvalidPayload
		}
		m.Mode, m.Throw, m.Ent = env.Payload[0], env.Payload[1], env.Payload[2]
		m.Axis, m.Number, m.UpSide = env.Payload[3], env.Payload[4], env.Payload[5]
	case MsgEntangleConfirm:
		if len(env.Payload) < 2 {
			return nil, ErrInvalidPayload
		}
		m.Color = binary.LittleEndian.Uint16(env.Payload)
	case MsgEntangleDenied:
		if len(env.Payload) < 1 {
			return nil, ErrInvalidPayload
		}
		m.DenyReason = env.Payload[0]
	case MsgTeleportRequest:
		if len(env.Payload) < 6 {
			return nil, ErrInvalidPayload
		}
		copy(m.TeleportTarget[:], env.Payload[0:6])
	case MsgTeleportPayload:
		if len(env.Payload) < 14 {
			return nil, ErrInvalidPayload
		}
		m.Mode, m.Throw, m.Ent = env.Payload[0], env.Payload[1], env.Payload[2]
		m.Axis, m.Number, m.UpSide = env.Payload[3], env.Payload[4], env.Payload[5]
		copy(m.EntangledPeer[:], env.Payload[6:12])
		m.Color = binary.LittleEndian.Uint16(env.Payload[12:14])
	case MsgTeleportPartner:
		if len(env.Payload) < 6 {
			return nil, ErrInvalidPayload
		}
		copy(m.Partner[:], env.Payload[0:6])
	default:
		return nil, ErrUnknownMessage
	}

	return m, nil
}

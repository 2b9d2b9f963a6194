package protocol

import "testing"

func TestMessageRoundTrip(t *testing.T) {
	sender := MacAddress{1, 2, 3, 4, 5, 6}

	tests := []*Message{
		{Type: MsgWatchdog, Sender: sender, Mode: 1, Throw: 2, Ent: 3},
		{Type: MsgMeasurement, Sender: sender, Mode: 1, Throw: 2, Ent: 2, Axis: 3, Number: 6, UpSide: 5},
		{Type: MsgEntangleRequest, Sender: sender},
		{Type: MsgEntangleConfirm, Sender: sender, Color: 0xFFE0},
		{Type: MsgEntangleDenied, Sender: sender, DenyReason: DenyClassicMode},
		{Type: MsgTeleportRequest, Sender: sender, TeleportTarget: MacAddress{9, 9, 9, 9, 9, 9}},
		{Type: MsgTeleportConfirm, Sender: sender},
		{
			Type: MsgTeleportPayload, Sender: sender,
			Mode: 1, Throw: 2, Ent: 2, Axis: 1, Number: 4, UpSide: 5,
			EntangledPeer: MacAddress{8, 8, 8, 8, 8, 8}, Color: 0x07E0,
		},
		{Type: MsgTeleportPartner, Sender: sender, Partner: MacAddress{7, 7, 7, 7, 7, 7}},
	}

	for _, m := range tests {
		encoded := EncodeMessage(m)
		decoded, err := DecodeMessage(encoded)
		if err != nil {
			t.Fatalf("DecodeMessage() error for type %#x: %v", m.Type, err)
		}
		if decoded.Type != m.Type {
			t.Errorf("Type = %#x, want %#x", decoded.Type, m.Type)
		}
		if decoded.Sender != m.Sender {
			t.Errorf("Sender = %v, want %v", decoded.Sender, m.Sender)
		}
		switch m.Type {
		case MsgWatchdog:
			if decoded.Mode != m.Mode || decoded.Throw != m.Throw || decoded.Ent != m.Ent {
				t.Errorf("State = %v/%v/%v, want %v/%v/%v", decoded.Mode, decoded.Throw, decoded.Ent, m.Mode, m.Throw, m.Ent)
			}
		case MsgMeasurement:
			if decoded.Axis != m.Axis || decoded.Number != m.Number || decoded.UpSide != m.UpSide {
				t.Errorf("Axis/Number/UpSide = %v/%v/%v, want %v/%v/%v", decoded.Axis, decoded.Number, decoded.UpSide, m.Axis, m.Number, m.UpSide)
			}
		case MsgEntangleConfirm:
			if decoded.Color != m.Color {
				t.Errorf("Color = %v, want %v", decoded.Color, m.Color)
			}
		case MsgEntangleDenied:
			if decoded.DenyReason != m.DenyReason {
				t.Errorf("DenyReason = %v, want %v", decoded.DenyReason, m.DenyReason)
			}
		case MsgTeleportRequest:
			if decoded.TeleportTarget != m.TeleportTarget {
				t.Errorf("TeleportTarget = %v, want %v", decoded.TeleportTarget, m.TeleportTarget)
			}
		case MsgTeleportPayload:
			if decoded.Axis != m.Axis || decoded.Number != m.Number || decoded.UpSide != m.UpSide {
				t.Errorf("Axis/Number/UpSide = %v/%v/%v, want %v/%v/%v", decoded.Axis, decoded.Number, decoded.UpSide, m.Axis, m.Number, m.UpSide)
			}
			if decoded.EntangledPeer != m.EntangledPeer {
				t.Errorf("EntangledPeer = %v, want %v", decoded.EntangledPeer, m.EntangledPeer)
			}
			if decoded.Color != m.Color {
				t.Errorf("Color = %v, want %v", decoded.Color, m.Color)
			}
		case MsgTeleportPartner:
			if decoded.Partner != m.Partner {
				t.Errorf("Partner = %v, want %v", decoded.Partner, m.Partner)
			}
		}
	}
}

func TestDecodeMessageUnknownType(t *testing.T) {
	env := &Envelope{Sender: Broadcast, Type: 0x7F}
	encoded := EncodeEnvelope(env)
	if _, err := DecodeMessage(encoded); err != ErrUnknownMessage {
		t.Errorf("DecodeMessage() error = %v, want %v", err, ErrUnknownMessage)
	}
}

package protocol

import (
	"bytes"
	"testing"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty payload", nil},
		{"small payload", []byte{1, 2, 3, 4}},
		{"max payload", bytes.Repeat([]byte{0xAA}, MaxPayloadSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &Envelope{
				Sender:  MacAddress{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01},
				Type:    MsgWatchdog,
				Seq:     7,
				Payload: tt.payload,
			}
			encoded := EncodeEnvelope(env)
			decoded := DecodeEnvelope(encoded)
			if decoded == nil {
				t.Fatal("DecodeEnvelope() returned nil, want a frame")
			}
			if decoded.Sender != env.Sender {
				t.Errorf("Sender = %v, want %v", decoded.Sender, env.Sender)
			}
			if decoded.Type != env.Type {
				t.Errorf("Type = %v, want %v", decoded.Type, env.Type)
			}
			if decoded.Seq != env.Seq {
				t.Errorf("Seq = %v, want %v", decoded.Seq, env.Seq)
			}
			if !bytes.Equal(decoded.Payload, tt.payload) {
				t.Errorf("Payload = %v, want %v", decoded.Payload, tt.payload)
			}
		})
	}
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"nil", nil},
		{"too short", []byte{0x01, 0x02}},
		{"corrupt crc", func() []byte {
			enc := EncodeEnvelope(&Envelope{Sender: Broadcast, Type: MsgEntangleRequest})
			enc[len(enc)-2] ^= 0xFF
			return enc
		}()},
		{"bad terminal", func() []byte {
			enc := EncodeEnvelope(&Envelope{Sender: Broadcast, Type: MsgEntangleRequest})
			enc[len(enc)-1] = 0x00
			return enc
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeEnvelope(tt.data); got != nil {
				t.Errorf("DecodeEnvelope() = %v, want nil", got)
			}
		})
	}
}

package protocol

import (
	"encoding/binary"
	"hash/crc32"
)

// Envelope wraps a Message payload for transmission. Layout:
// Length(1) | SenderMAC(6) | Type(1) | Seq(4) | Payload(0-N) | CRC32(4) | Terminal(1)
// Length counts everything after the length byte.
type Envelope struct {
	Sender  MacAddress
	Type    byte
	Seq     uint32
	Payload []byte
}

// EncodeEnvelope serialises an Envelope into on-air bytes.
func EncodeEnvelope(e *Envelope) []byte {
	if e == nil {
		return nil
	}

	payloadLen := len(e.Payload)
	if payloadLen > MaxPayloadSize {
		payloadLen = MaxPayloadSize
	}

	bodyLen := headerWithoutLen + payloadLen + CRCSize + TerminalSize
	totalLen := LengthFieldSize + bodyLen

	data := make([]byte, totalLen)
	data[0] = byte(bodyLen)
	copy(data[1:7], e.Sender[:])
	data[7] = e.Type
	binary.LittleEndian.PutUint32(data[8:12], e.Seq)

	if payloadLen > 0 {
		copy(data[EnvelopeHeaderSize:], e.Payload[:payloadLen])
	}

	crcPos := EnvelopeHeaderSize + payloadLen
	var crc uint32
	if payloadLen > 0 {
		crc = crc32.ChecksumIEEE(e.Payload[:payloadLen])
	}
	binary.LittleEndian.PutUint32(data[crcPos:crcPos+CRCSize], crc)

	data[totalLen-1] = EnvelopeTerminal

	return data
}

// DecodeEnvelope parses on-air bytes back into an Envelope, or returns nil if
// the frame fails any structural or checksum check.
func DecodeEnvelope(data []byte) *Envelope {
	minLen := EnvelopeHeaderSize + CRCSize + TerminalSize
	if len(data) < minLen {
		return nil
	}

	bodyLen := int(data[0])
	if bodyLen == 0 || (bodyLen+LengthFieldSize) > len(data) {
		return nil
	}

	if data[LengthFieldSize+bodyLen-1] != EnvelopeTerminal {
		return nil
	}

	payloadLen := bodyLen - headerWithoutLen - CRCSize - TerminalSize
	if payloadLen < 0 || payloadLen > MaxPayloadSize {
		return nil
	}

	payloadOffset := EnvelopeHeaderSize
	crcOffset := payloadOffset + payloadLen
	if crcOffset+CRCSize > len(data) {
		return nil
	}

	wantCRC := binary.LittleEndian.Uint32(data[crcOffset : crcOffset+CRCSize])
	var gotCRC uint32
	if payloadLen > 0 {
		gotCRC = crc32.ChecksumIEEE(data[payloadOffset:crcOffset])
	}
	if wantCRC != gotCRC {
		return nil
	}

	e := &Envelope{
		Type: data[7],
		Seq:  binary.LittleEndian.Uint32(data[8:12]),
	}
	copy(e.Sender[:], data[1:7])

	if payloadLen > 0 {
		e.Payload = make([]byte, payloadLen)
		copy(e.Payload, data[payloadOffset:crcOffset])
	}

	return e
}

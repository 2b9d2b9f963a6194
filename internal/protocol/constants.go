package protocol

// Wire-level sizing for the outer envelope:
// Length(1) | SenderMAC(6) | Type(1) | Seq(4) | Payload(0-max) | CRC32(4) | Terminal(1).
const (
	LengthFieldSize = 1
	MacFieldSize    = 6
	TypeFieldSize   = 1
	SeqFieldSize    = 4
	CRCSize         = 4
	TerminalSize    = 1

	EnvelopeHeaderSize = LengthFieldSize + MacFieldSize + TypeFieldSize + SeqFieldSize

	MaxEnvelopeSize = 96
	MaxPayloadSize  = MaxEnvelopeSize - EnvelopeHeaderSize - CRCSize - TerminalSize

	EnvelopeTerminal = 0x55

	headerWithoutLen = EnvelopeHeaderSize - LengthFieldSize
)

// Message type tags. Ordinals are part of the wire contract and must not change.
const (
	MsgWatchdog        byte = 0
	MsgMeasurement     byte = 1
	MsgEntangleRequest byte = 2
	MsgEntangleConfirm byte = 3
	MsgEntangleDenied  byte = 4
	MsgTeleportRequest byte = 5
	MsgTeleportConfirm byte = 6
	MsgTeleportPayload byte = 7
	MsgTeleportPartner byte = 8
)

// EntangleDenied reasons.
const (
	DenyAlreadyRequested byte = 0x01
	DenyClassicMode      byte = 0x02
	DenyBusy             byte = 0x03
)

// WatchdogIntervalMS is the cadence at which a dice broadcasts its liveness frame.
const WatchdogIntervalMS = 500

// MaxEntangledWaitMS bounds how long a dice waits in EntangleRequested before
// the request times out and the dice reverts to Pure.
const MaxEntangledWaitMS = 120000

package protocol

import (
	"encoding/hex"
	"errors"
)

// MacAddress identifies a dice on the radio medium. The broadcast sentinel
// FF:FF:FF:FF:FF:FF addresses every dice within range.
type MacAddress [6]byte

var Broadcast = MacAddress{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// Zero is used where a field is absent, e.g. TeleportPayload's EntangledPeer when the sender held no partner.
var Zero MacAddress

func (m MacAddress) IsBroadcast() bool { return m == Broadcast }

func (m MacAddress) IsZero() bool { return m == Zero }

func (m MacAddress) String() string {
	buf := make([]byte, 0, 17)
	for i, b := range m {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, hex.EncodeToString([]byte{b})...)
	}
	return string(buf)
}

var ErrBadMacString = errors.New("protocol: malformed mac address string")

// ParseMac parses a "AA:BB:CC:DD:EE:FF" string, mainly used by config and the CLI.
func ParseMac(s string) (MacAddress, error) {
	var m MacAddress
	if len(s) != 17 {
		return m, ErrBadMacString
	}
	for i := 0; i < 6; i++ {
		chunk := s[i*3 : i*3+2]
		b, err := hex.DecodeString(chunk)
		if err != nil || len(b) != 1 {
			return m, ErrBadMacString
		}
		m[i] = b[0]
		if i < 5 && s[i*3+2] != ':' {
			return m, ErrBadMacString
		}
	}
	return m, nil
}

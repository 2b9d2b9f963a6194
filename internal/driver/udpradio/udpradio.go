// Package udpradio lets several OS processes on one LAN segment stand in for
// physically nearby dice, broadcasting envelopes over UDP. It is the nearest
// idiomatic Go analogue to the original firmware's ESP-NOW broadcast radio:
// there is no real signal strength over UDP, so RSSI is synthesized from a
// configurable per-peer attenuation table instead of measured.
package udpradio

import (
	"net"
	"time"

	"github.com/qdice/quantumdice/internal/protocol"
	"github.com/qdice/quantumdice/internal/transport"
)

// AttenuationTable maps a peer MAC to the synthetic RSSI reported for frames
// received from it. Peers absent from the table use DefaultRSSI.
type AttenuationTable map[protocol.MacAddress]int8

const DefaultRSSI = -40

// Driver broadcasts frames over UDP on Port and listens for inbound frames
// on the same port.
type Driver struct {
	Port        int
	Attenuation AttenuationTable

	conn    *net.UDPConn
	bcast   *net.UDPAddr
}

var _ transport.RadioDriver = (*Driver)(nil)

func New(port int, attenuation AttenuationTable) *Driver {
	return &Driver{Port: port, Attenuation: attenuation}
}

func (d *Driver) Start() error {
	addr := &net.UDPAddr{IP: net.IPv4zero, Port: d.Port}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return err
	}
	d.conn = conn
	d.bcast = &net.UDPAddr{IP: net.IPv4bcast, Port: d.Port}
	return nil
}

func (d *Driver) Tx(data []byte) error {
	_, err := d.conn.WriteToUDP(data, d.bcast)
	return err
}

func (d *Driver) Rx(timeout time.Duration) ([]byte, int8, error) {
	buf := make([]byte, 512)
	_ = d.conn.SetReadDeadline(time.Now().Add(timeout))
	n, _, err := d.conn.ReadFromUDP(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	msg, decodeErr := protocol.DecodeMessage(buf[:n])
	rssi := int8(DefaultRSSI)
	if decodeErr == nil {
		if v, ok := d.Attenuation[msg.Sender]; ok {
			rssi = v
		}
	}
	return buf[:n], rssi, nil
}

func (d *Driver) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

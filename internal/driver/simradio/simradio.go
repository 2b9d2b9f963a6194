// Package simradio provides an in-process broadcast medium used by tests and
// the single-process multi-dice simulation: a shared multi-peer bus built
// around the same bounded ring-buffer idea as a real host-side radio stub.
package simradio

import (
	"sync"
	"time"

	"github.com/qdice/quantumdice/internal/protocol"
	"github.com/qdice/quantumdice/internal/transport"
)

// DefaultRSSI is used for any peer pair with no explicit attenuation entry.
const DefaultRSSI = -40

const ringCapacity = 64

type frame struct {
	data []byte
	rssi int8
}

type ringBuffer struct {
	data       [ringCapacity]frame
	head, tail int
	count      int
}

func (rb *ringBuffer) push(f frame) {
	if rb.count == ringCapacity {
		rb.head = (rb.head + 1) % ringCapacity
		rb.count--
	}
	rb.data[rb.tail] = f
	rb.tail = (rb.tail + 1) % ringCapacity
	rb.count++
}

func (rb *ringBuffer) pop() (frame, bool) {
	if rb.count == 0 {
		return frame{}, false
	}
	f := rb.data[rb.head]
	rb.head = (rb.head + 1) % ringCapacity
	rb.count--
	return f, true
}

// Medium is a shared broadcast bus: every Tx from one Endpoint is delivered
// to the Rx buffer of every other joined Endpoint, with a configurable
// per-pair synthetic RSSI standing in for real signal strength.
type Medium struct {
	mu          sync.Mutex
	peers       map[protocol.MacAddress]*Endpoint
	attenuation map[[2]protocol.MacAddress]int8
}

func NewMedium() *Medium {
	return &Medium{
		peers:       make(map[protocol.MacAddress]*Endpoint),
		attenuation: make(map[[2]protocol.MacAddress]int8),
	}
}

// SetRSSI overrides the synthetic RSSI reported for frames traveling in
// either direction between a and b, letting tests simulate two dice being
// near or far apart.
func (m *Medium) SetRSSI(a, b protocol.MacAddress, rssi int8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attenuation[[2]protocol.MacAddress{a, b}] = rssi
	m.attenuation[[2]protocol.MacAddress{b, a}] = rssi
}

func (m *Medium) rssiFor(a, b protocol.MacAddress) int8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.attenuation[[2]protocol.MacAddress{a, b}]; ok {
		return v
	}
	return DefaultRSSI
}

// Join registers a new Endpoint for mac on this medium.
func (m *Medium) Join(mac protocol.MacAddress) *Endpoint {
	e := &Endpoint{mac: mac, medium: m}
	m.mu.Lock()
	m.peers[mac] = e
	m.mu.Unlock()
	return e
}

func (m *Medium) Leave(mac protocol.MacAddress) {
	m.mu.Lock()
	delete(m.peers, mac)
	m.mu.Unlock()
}

func (m *Medium) broadcast(from protocol.MacAddress, data []byte) {
	m.mu.Lock()
	recipients := make([]*Endpoint, 0, len(m.peers))
	for mac, ep := range m.peers {
		if mac == from {
			continue
		}
		recipients = append(recipients, ep)
	}
	m.mu.Unlock()

	for _, ep := range recipients {
		rssi := m.rssiFor(from, ep.mac)
		ep.deliver(data, rssi)
	}
}

// Endpoint implements transport.RadioDriver against a Medium.
type Endpoint struct {
	mac    protocol.MacAddress
	medium *Medium
	mu     sync.Mutex
	rx     ringBuffer
}

var _ transport.RadioDriver = (*Endpoint)(nil)

func (e *Endpoint) Start() error { return nil }

func (e *Endpoint) Tx(data []byte) error {
	e.medium.broadcast(e.mac, data)
	return nil
}

func (e *Endpoint) Rx(timeout time.Duration) ([]byte, int8, error) {
	deadline := time.Now().Add(timeout)
	for {
		e.mu.Lock()
		f, ok := e.rx.pop()
		e.mu.Unlock()
		if ok {
			return f.data, f.rssi, nil
		}
		if time.Now().After(deadline) {
			return nil, 0, nil
		}
		time.Sleep(time.Millisecond)
	}
}

func (e *Endpoint) deliver(data []byte, rssi int8) {
	cp := make([]byte, len(data))
	copy(cp, data)
	e.mu.Lock()
	e.rx.push(frame{data: cp, rssi: rssi})
	e.mu.Unlock()
}

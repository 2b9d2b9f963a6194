package transport

import (
	"math"
	"sync"

	"github.com/qdice/quantumdice/internal/protocol"
)

// sentinelRSSI mirrors the original firmware's use of INT32_MIN to mean
// "nothing seen yet".
const sentinelRSSI = math.MinInt8

// ProximityTracker remembers the most recently seen (sender, rssi) pair from
// any inbound frame, and is reset once consumed so a single sighting cannot
// trigger entanglement twice.
type ProximityTracker struct {
	mu      sync.Mutex
	source  protocol.MacAddress
	rssi    int8
	hasSeen bool
}

func NewProximityTracker() *ProximityTracker {
	return &ProximityTracker{rssi: sentinelRSSI}
}

// Observe records the most recent sighting, overwriting any prior one.
func (p *ProximityTracker) Observe(source protocol.MacAddress, rssi int8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = source
	p.rssi = rssi
	p.hasSeen = true
}

// Consume returns the last sighting and resets the tracker to its sentinel
// state. InRange gates entanglement eligibility: rssi > limit && rssi < -1,
// matching the original's proximity check.
func (p *ProximityTracker) Consume() (source protocol.MacAddress, rssi int8, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasSeen {
		return protocol.MacAddress{}, sentinelRSSI, false
	}
	source, rssi = p.source, p.rssi
	p.hasSeen = false
	p.rssi = sentinelRSSI
	return source, rssi, true
}

// InRange applies the proximity gate used to allow entanglement: the signal
// must be stronger than rssiLimit but still a plausible negative dBm value.
func InRange(rssi int8, rssiLimit int8) bool {
	return rssi > rssiLimit && rssi < -1
}

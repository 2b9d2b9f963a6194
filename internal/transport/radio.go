package transport

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/qdice/quantumdice/internal/protocol"
)

// RadioTransport is the component the device loop talks to: Send encodes and
// transmits an outbound frame, and a background receive loop (the radio callback) decodes
// inbound frames and pushes them onto the MessageQueue without ever touching
// FSM state directly.
type RadioTransport struct {
	self   protocol.MacAddress
	driver RadioDriver
	log    zerolog.Logger

	queue      *MessageQueue
	proximity  *ProximityTracker
	seq        uint32
	listening  atomic.Bool
	stop       chan struct{}
}

func New(self protocol.MacAddress, driver RadioDriver, log zerolog.Logger) *RadioTransport {
	return &RadioTransport{
		self:      self,
		driver:    driver,
		log:       log.With().Str("component", "transport").Logger(),
		queue:     NewMessageQueue(),
		proximity: NewProximityTracker(),
		stop:      make(chan struct{}),
	}
}

func (t *RadioTransport) Queue() *MessageQueue         { return t.queue }
func (t *RadioTransport) Proximity() *ProximityTracker { return t.proximity }

// Start powers on the driver and begins the receive loop. The receive loop
// is the only goroutine this component owns; it never calls into the FSM.
func (t *RadioTransport) Start() error {
	if err := t.driver.Start(); err != nil {
		return err
	}
	if t.listening.CompareAndSwap(false, true) {
		go t.receiveLoop()
	}
	return nil
}

func (t *RadioTransport) Stop() {
	if t.listening.CompareAndSwap(true, false) {
		close(t.stop)
	}
}

func (t *RadioTransport) receiveLoop() {
	for t.listening.Load() {
		select {
		case <-t.stop:
			return
		default:
		}

		data, rssi, err := t.driver.Rx(50 * time.Millisecond)
		if err != nil || data == nil {
			continue
		}

		msg, err := protocol.DecodeMessage(data)
		if err != nil {
			t.log.Debug().Err(err).Msg("discarding malformed frame")
			continue
		}
		if msg.Sender == t.self {
			continue
		}

		t.proximity.Observe(msg.Sender, rssi)
		t.queue.Push(Received{Message: *msg, RSSI: rssi})
	}
}

// Send encodes and transmits a message, stamping it with this transport's
// own address and the next sequence number.
func (t *RadioTransport) Send(m protocol.Message) error {
	m.Sender = t.self
	m.Seq = atomic.AddUint32(&t.seq, 1)
	return t.driver.Tx(protocol.EncodeMessage(&m))
}

package gatt

import (
	"sync"

	badge "github.com/samsamfire/gobadge"
	log "github.com/sirupsen/logrus"
)

// NotificationSource identifies the logical device-to-host channel a
// payload arrived on.
type NotificationSource uint8

const (
	SourceData      NotificationSource = iota // AE02
	SourceCtrlInfo                            // FD01
	SourceCtrlReady                           // FD03
	SourceCtrlMisc                            // FD05
)

func (s NotificationSource) String() string {
	switch s {
	case SourceData:
		return "data"
	case SourceCtrlInfo:
		return "ctrl-info"
	case SourceCtrlReady:
		return "ctrl-ready"
	case SourceCtrlMisc:
		return "ctrl-misc"
	}
	return "unknown"
}

// NotificationListener receives every inbound payload, intact, on the
// delivering goroutine.
type NotificationListener interface {
	Handle(src NotificationSource, payload []byte)
}

// Transport bundles the badge's four logical endpoints: two writable
// channels and the notification fan-in. It is shared between the upload
// session and the auxiliary request/response operations for the
// lifetime of the logical connection.
type Transport struct {
	mu        sync.Mutex
	dataW     *Endpoint
	ctrlW     *Endpoint
	listeners []NotificationListener
	connected bool
}

func NewTransport(dataW *Endpoint, ctrlW *Endpoint) *Transport {
	return &Transport{dataW: dataW, ctrlW: ctrlW, connected: true}
}

// DataWrite sends raw bytes on the data endpoint (AE01).
func (t *Transport) DataWrite(p []byte) error {
	t.mu.Lock()
	connected := t.connected
	ep := t.dataW
	t.mu.Unlock()
	if !connected {
		return badge.ErrUnavailable
	}
	return ep.Write(p)
}

// CtrlWrite sends raw bytes on the control endpoint (FD02/FD04).
func (t *Transport) CtrlWrite(p []byte) error {
	t.mu.Lock()
	connected := t.connected
	ep := t.ctrlW
	t.mu.Unlock()
	if !connected {
		return badge.ErrUnavailable
	}
	return ep.Write(p)
}

// Subscribe registers a listener for every inbound notification.
func (t *Transport) Subscribe(l NotificationListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Unsubscribe removes a previously registered listener.
func (t *Transport) Unsubscribe(l NotificationListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, cur := range t.listeners {
		if cur == l {
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			return
		}
	}
}

// Notify is called by the platform BLE layer for every inbound value.
// The payload is copied before hand-off, listeners may retain it.
func (t *Transport) Notify(src NotificationSource, payload []byte) {
	buf := make([]byte, len(payload))
	copy(buf, payload)
	t.mu.Lock()
	listeners := make([]NotificationListener, len(t.listeners))
	copy(listeners, t.listeners)
	connected := t.connected
	t.mu.Unlock()
	if !connected {
		return
	}
	log.Debugf("[GATT][RX] %v (%v bytes) % x", src, len(buf), buf)
	for _, l := range listeners {
		l.Handle(src, buf)
	}
}

// Connected reports whether the transport still accepts traffic.
func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Disconnect tears down all registrations. Subsequent writes fail with
// ErrUnavailable.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
	t.listeners = nil
}

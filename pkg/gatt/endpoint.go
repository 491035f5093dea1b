package gatt

import (
	"sync"

	badge "github.com/samsamfire/gobadge"
	log "github.com/sirupsen/logrus"
)

// Standard characteristic UUID fragments of the badge service.
const (
	UUIDDataWrite   = "AE01"
	UUIDDataNotify  = "AE02"
	UUIDCtrlWrite   = "FD02"
	UUIDCtrlWrite2  = "FD04"
	UUIDCtrlNotify  = "FD01"
	UUIDCtrlReady   = "FD03"
	UUIDCtrlNotify2 = "FD05"
)

// Characteristic is the OS-level GATT writer behind an endpoint. The
// platform BLE layer provides one per writable characteristic.
type Characteristic interface {
	// WriteValue pushes one value to the characteristic, with or
	// without a link-layer acknowledgment.
	WriteValue(p []byte, withResponse bool) error
}

// WriteMode selects the write semantics of an endpoint. Decided once at
// construction from what the characteristic advertises.
type WriteMode uint8

const (
	WriteAcked WriteMode = iota
	WriteUnacked
)

// Endpoint is one host-to-device byte channel. Writes are serialized:
// the next write starts only after the previous one resolved.
type Endpoint struct {
	mu   sync.Mutex
	name string
	mode WriteMode
	char Characteristic
}

// NewEndpoint wraps a characteristic. Write-without-response is
// preferred whenever the characteristic supports it.
func NewEndpoint(name string, char Characteristic, supportsUnacked bool) *Endpoint {
	mode := WriteAcked
	if supportsUnacked {
		mode = WriteUnacked
	}
	return &Endpoint{name: name, mode: mode, char: char}
}

func (e *Endpoint) Name() string {
	return e.name
}

func (e *Endpoint) Mode() WriteMode {
	return e.mode
}

// Write sends one value on the endpoint.
func (e *Endpoint) Write(p []byte) error {
	if e == nil || e.char == nil {
		return badge.ErrUnavailable
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	log.Debugf("[GATT][TX] %v (%v bytes) % x", e.name, len(p), p)
	return e.char.WriteValue(p, e.mode == WriteAcked)
}

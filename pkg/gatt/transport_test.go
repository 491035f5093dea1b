package gatt

import (
	"sync"
	"testing"

	badge "github.com/samsamfire/gobadge"
	"github.com/stretchr/testify/assert"
)

type recordingChar struct {
	mu       sync.Mutex
	values   [][]byte
	withResp []bool
}

func (c *recordingChar) WriteValue(p []byte, withResponse bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(p))
	copy(buf, p)
	c.values = append(c.values, buf)
	c.withResp = append(c.withResp, withResponse)
	return nil
}

type listenerRecorder struct {
	mu       sync.Mutex
	payloads [][]byte
	sources  []NotificationSource
}

func (l *listenerRecorder) Handle(src NotificationSource, payload []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources = append(l.sources, src)
	l.payloads = append(l.payloads, payload)
}

func TestEndpointPrefersUnacked(t *testing.T) {
	char := &recordingChar{}
	ep := NewEndpoint(UUIDDataWrite, char, true)
	assert.Equal(t, WriteUnacked, ep.Mode())
	assert.Nil(t, ep.Write([]byte{0x01}))
	assert.Equal(t, []bool{false}, char.withResp)

	acked := NewEndpoint(UUIDCtrlWrite, char, false)
	assert.Equal(t, WriteAcked, acked.Mode())
	assert.Nil(t, acked.Write([]byte{0x02}))
	assert.Equal(t, []bool{false, true}, char.withResp)
}

func TestEndpointNilCharacteristic(t *testing.T) {
	ep := NewEndpoint(UUIDDataWrite, nil, true)
	assert.Equal(t, badge.ErrUnavailable, ep.Write([]byte{0x01}))
}

func TestTransportWriteAndNotify(t *testing.T) {
	dataChar := &recordingChar{}
	ctrlChar := &recordingChar{}
	tr := NewTransport(
		NewEndpoint(UUIDDataWrite, dataChar, true),
		NewEndpoint(UUIDCtrlWrite, ctrlChar, true),
	)

	assert.Nil(t, tr.DataWrite([]byte{0xAA}))
	assert.Nil(t, tr.CtrlWrite([]byte{0xBB}))
	assert.Len(t, dataChar.values, 1)
	assert.Len(t, ctrlChar.values, 1)

	l := &listenerRecorder{}
	tr.Subscribe(l)
	tr.Notify(SourceData, []byte{0x01})
	tr.Notify(SourceCtrlReady, []byte{0x02})
	assert.Equal(t, []NotificationSource{SourceData, SourceCtrlReady}, l.sources)

	tr.Unsubscribe(l)
	tr.Notify(SourceData, []byte{0x03})
	assert.Len(t, l.payloads, 2)
}

func TestTransportNotifyCopies(t *testing.T) {
	tr := NewTransport(NewEndpoint(UUIDDataWrite, &recordingChar{}, true), nil)
	l := &listenerRecorder{}
	tr.Subscribe(l)

	buf := []byte{0x01, 0x02}
	tr.Notify(SourceData, buf)
	buf[0] = 0xFF
	assert.Equal(t, []byte{0x01, 0x02}, l.payloads[0])
}

func TestTransportDisconnect(t *testing.T) {
	tr := NewTransport(
		NewEndpoint(UUIDDataWrite, &recordingChar{}, true),
		NewEndpoint(UUIDCtrlWrite, &recordingChar{}, true),
	)
	l := &listenerRecorder{}
	tr.Subscribe(l)

	assert.True(t, tr.Connected())
	tr.Disconnect()
	assert.False(t, tr.Connected())
	assert.Equal(t, badge.ErrUnavailable, tr.DataWrite([]byte{0x01}))
	assert.Equal(t, badge.ErrUnavailable, tr.CtrlWrite([]byte{0x01}))

	tr.Notify(SourceData, []byte{0x01})
	assert.Empty(t, l.payloads)
}

func TestSourceString(t *testing.T) {
	assert.Equal(t, "data", SourceData.String())
	assert.Equal(t, "ctrl-ready", SourceCtrlReady.String())
}

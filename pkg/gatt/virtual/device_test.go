package virtual

import (
	"testing"
	"time"

	badge "github.com/samsamfire/gobadge"
	"github.com/samsamfire/gobadge/pkg/gatt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameCollector struct {
	frames chan []byte
}

func (c *frameCollector) Handle(src gatt.NotificationSource, payload []byte) {
	if src == gatt.SourceData {
		c.frames <- payload
	}
}

func TestDeviceAnswersCommands(t *testing.T) {
	device := NewDevice(nil)
	defer device.Close()
	tr := device.Connect()

	collector := &frameCollector{frames: make(chan []byte, 16)}
	tr.Subscribe(collector)

	cmd := badge.NewFrame(badge.FlagCommand, badge.CmdFeatureMap, []byte{0x07})
	require.Nil(t, tr.DataWrite(cmd.Marshal()))

	select {
	case raw := <-collector.frames:
		frame, err := badge.UnmarshalFrame(raw)
		require.Nil(t, err)
		assert.Equal(t, badge.FlagResponse, frame.Flag)
		assert.Equal(t, badge.CmdFeatureMap, frame.Cmd)
		assert.Equal(t, []byte{0x00, 0x07, 0x00, 0x00, 0x0C, 0x81}, frame.Body)
	case <-time.After(time.Second):
		t.Fatal("device did not answer")
	}
}

func TestDeviceMetadataStartsWindow(t *testing.T) {
	device := NewDevice(nil)
	defer device.Close()
	tr := device.Connect()

	collector := &frameCollector{frames: make(chan []byte, 16)}
	tr.Subscribe(collector)

	// 1000-byte announcement: the first window must start at the
	// second chunk, the prefix travels in the commit window.
	meta := []byte{0x05, 0x00, 0x00, 0x03, 0xE8, 0xAB, 0xCD, 0x00, 0x00, 'X', 0x00}
	require.Nil(t, tr.DataWrite(badge.NewFrame(badge.FlagCommand, badge.CmdFileMetadata, meta).Marshal()))

	var ack badge.Frame
	deadline := time.After(time.Second)
	for ack.Cmd != badge.CmdWindowAck {
		select {
		case raw := <-collector.frames:
			frame, err := badge.UnmarshalFrame(raw)
			require.Nil(t, err)
			ack = frame
		case <-deadline:
			t.Fatal("no window ack")
		}
	}
	assert.Equal(t, badge.FlagNotification, ack.Flag)
	// seq 1, status 0, win 3920, next offset 490
	assert.Equal(t, []byte{0x01, 0x00, 0x0F, 0x50, 0x00, 0x00, 0x01, 0xEA}, ack.Body)
	assert.Equal(t, "X", device.FileName())
}

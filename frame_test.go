package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
	}{
		{"response no body", Frame{Flag: FlagResponse, Cmd: CmdSessionOpen, Body: []byte{}}},
		{"command", Frame{Flag: FlagCommand, Cmd: CmdResetFlag, Body: []byte{0x02, 0x00, 0x01}}},
		{"notification", Frame{Flag: FlagNotification, Cmd: CmdWindowAck, Body: []byte{0x01, 0x00, 0x0F, 0x50, 0x00, 0x00, 0x01, 0xEA}}},
		{"data", Frame{Flag: FlagNotification, Cmd: CmdData, Body: make([]byte, 495)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := tt.frame.Marshal()
			decoded, err := UnmarshalFrame(raw)
			assert.Nil(t, err)
			assert.Equal(t, tt.frame.Flag, decoded.Flag)
			assert.Equal(t, tt.frame.Cmd, decoded.Cmd)
			assert.Equal(t, []byte(tt.frame.Body), decoded.Body)
		})
	}
}

func TestFrameMarshalWire(t *testing.T) {
	raw := Frame{Flag: FlagCommand, Cmd: CmdResetFlag, Body: []byte{0x02, 0x00, 0x01}}.Marshal()
	assert.Equal(t, []byte{0xFE, 0xDC, 0xBA, 0xC0, 0x06, 0x00, 0x03, 0x02, 0x00, 0x01, 0xEF}, raw)
}

func TestFrameDecodeRejects(t *testing.T) {
	valid := Frame{Flag: FlagResponse, Cmd: CmdSessionOpen, Body: []byte{0x00, 0x03}}.Marshal()

	t.Run("too short", func(t *testing.T) {
		_, err := UnmarshalFrame(valid[:7])
		assert.Equal(t, ErrFrameSize, err)
	})
	t.Run("bad magic", func(t *testing.T) {
		raw := append([]byte{}, valid...)
		raw[0] = 0xFD
		_, err := UnmarshalFrame(raw)
		assert.Equal(t, ErrFrameMagic, err)
	})
	t.Run("bad terminator", func(t *testing.T) {
		raw := append([]byte{}, valid...)
		raw[len(raw)-1] = 0x00
		_, err := UnmarshalFrame(raw)
		assert.Equal(t, ErrFrameTerminator, err)
	})
	t.Run("length mismatch", func(t *testing.T) {
		raw := append([]byte{}, valid...)
		raw[6] = 0x01
		_, err := UnmarshalFrame(raw)
		assert.Equal(t, ErrFrameLength, err)
	})
}

func TestQixRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		frame QixFrame
	}{
		{"request", QixFrame{Flags: QixFlagIsRequest, Cmd: QixCmdSettings, Payload: []byte{0x01}}},
		{"empty payload", QixFrame{Flags: QixFlagIsRequest, Cmd: QixCmdPrepare, Payload: []byte{}}},
		{"with serial", QixFrame{Flags: QixFlagIsRequest, Cmd: QixCmdReqData, Payload: []byte{0x80}}.WithSerial(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := tt.frame.Marshal()
			decoded, err := UnmarshalQixFrame(raw)
			assert.Nil(t, err)
			assert.Equal(t, tt.frame, decoded)
			assert.Equal(t, qixChecksum(raw[2:]), raw[1])
		})
	}
}

func TestQixMarshalWire(t *testing.T) {
	// Fixed control writes observed on the wire.
	tests := []struct {
		name  string
		frame QixFrame
		want  []byte
	}{
		{"settings", QixFrame{Flags: 0x08, Cmd: 0x16, Payload: []byte{0x01}},
			[]byte{0x9E, 0x20, 0x08, 0x16, 0x01, 0x00, 0x01}},
		{"heartbeat", QixFrame{Flags: 0x0B, Cmd: 0x29, Payload: []byte{0x80}},
			[]byte{0x9E, 0xB5, 0x0B, 0x29, 0x01, 0x00, 0x80}},
		{"info request", QixFrame{Flags: 0x0B, Cmd: 0xC6, Payload: []byte{0x01}},
			[]byte{0x9E, 0xD3, 0x0B, 0xC6, 0x01, 0x00, 0x01}},
		{"prepare", QixFrame{Flags: 0x0B, Cmd: 0xDC, Payload: []byte{0x0C}},
			[]byte{0x9E, 0xF4, 0x0B, 0xDC, 0x01, 0x00, 0x0C}},
		{"display", QixFrame{Flags: 0x08, Cmd: 0x20, Payload: []byte{0xFF, 0x07}},
			[]byte{0x9E, 0x30, 0x08, 0x20, 0x02, 0x00, 0xFF, 0x07}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.frame.Marshal())
		})
	}
}

func TestQixDecodeRejects(t *testing.T) {
	valid := QixFrame{Flags: 0x08, Cmd: 0x16, Payload: []byte{0x01}}.Marshal()

	t.Run("bad checksum", func(t *testing.T) {
		raw := append([]byte{}, valid...)
		raw[1] ^= 0xFF
		_, err := UnmarshalQixFrame(raw)
		assert.Equal(t, ErrQixChecksum, err)
	})
	t.Run("bad magic", func(t *testing.T) {
		raw := append([]byte{}, valid...)
		raw[0] = 0x9F
		_, err := UnmarshalQixFrame(raw)
		assert.Equal(t, ErrFrameMagic, err)
	})
	t.Run("truncated", func(t *testing.T) {
		_, err := UnmarshalQixFrame(valid[:5])
		assert.Equal(t, ErrFrameSize, err)
	})
}

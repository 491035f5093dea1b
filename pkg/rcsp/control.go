package rcsp

import (
	"encoding/binary"
	"time"

	badge "github.com/samsamfire/gobadge"
	"github.com/samsamfire/gobadge/pkg/gatt"
)

// ControlTimeout bounds the control-channel exchanges; they answer fast
// or not at all.
const ControlTimeout = 3 * time.Second

// BatteryState is the device's battery report.
type BatteryState struct {
	Status byte
	Level  byte
}

// Battery requests the current battery state over the control channel.
func (c *Client) Battery() (BatteryState, error) {
	frame := badge.NewQixFrame(
		badge.QixFlagIsRequest|badge.QixFlagNeedResponse|badge.QixFlagIsResponse,
		badge.QixCmdReqData, []byte{0x80},
	).WithSerial(c.nextQixSerial())
	if err := c.tr.CtrlWrite(frame.Marshal()); err != nil {
		return BatteryState{}, err
	}
	reply, err := c.bus.WaitQix(gatt.SourceCtrlInfo, func(q badge.QixFrame) bool {
		return q.Cmd == badge.QixCmdBattery
	}, ControlTimeout)
	if err != nil {
		return BatteryState{}, err
	}
	if len(reply.Payload) < 2 {
		return BatteryState{}, badge.ErrResponseMismatch
	}
	return BatteryState{Status: reply.Payload[0], Level: reply.Payload[1]}, nil
}

// ScreenInfo describes the badge display.
type ScreenInfo struct {
	Width     uint16
	Height    uint16
	PicWidth  uint16
	PicHeight uint16
	Memory    uint32
}

// Screen reads the display properties over the control channel.
func (c *Client) Screen() (ScreenInfo, error) {
	frame := badge.NewQixFrame(
		badge.QixFlagIsRequest|badge.QixFlagNeedResponse|badge.QixFlagIsResponse,
		badge.QixCmdScreenInfo, []byte{0x01},
	).WithSerial(c.nextQixSerial())
	if err := c.tr.CtrlWrite(frame.Marshal()); err != nil {
		return ScreenInfo{}, err
	}
	reply, err := c.bus.WaitQix(gatt.SourceCtrlInfo, func(q badge.QixFrame) bool {
		return q.Cmd == badge.QixCmdScreenRet
	}, ControlTimeout)
	if err != nil {
		return ScreenInfo{}, err
	}
	return parseScreenInfo(reply.Payload)
}

func parseScreenInfo(payload []byte) (ScreenInfo, error) {
	if len(payload) < 13 || payload[0] != 0x01 {
		return ScreenInfo{}, badge.ErrResponseMismatch
	}
	return ScreenInfo{
		Width:     binary.LittleEndian.Uint16(payload[1:3]),
		Height:    binary.LittleEndian.Uint16(payload[3:5]),
		PicWidth:  binary.LittleEndian.Uint16(payload[5:7]),
		PicHeight: binary.LittleEndian.Uint16(payload[7:9]),
		Memory:    binary.LittleEndian.Uint32(payload[9:13]),
	}, nil
}

func marshalScreenInfo(info ScreenInfo) []byte {
	payload := make([]byte, 0, 13)
	payload = append(payload, 0x01)
	payload = binary.LittleEndian.AppendUint16(payload, info.Width)
	payload = binary.LittleEndian.AppendUint16(payload, info.Height)
	payload = binary.LittleEndian.AppendUint16(payload, info.PicWidth)
	payload = binary.LittleEndian.AppendUint16(payload, info.PicHeight)
	payload = binary.LittleEndian.AppendUint32(payload, info.Memory)
	return payload
}

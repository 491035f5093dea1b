package badge

import (
	"bytes"
	"encoding/binary"
)

// FE frame envelope constants
var frameMagic = []byte{0xFE, 0xDC, 0xBA}

const (
	frameTerminator byte = 0xEF
	frameMinSize         = 8 // magic(3) + flag + cmd + length(2) + terminator
)

// Frame is one FE-framed packet on the data channel.
// The wire layout is FE DC BA | flag | cmd | length(BE16) | body | EF.
type Frame struct {
	Flag byte
	Cmd  byte
	Body []byte
}

func NewFrame(flag byte, cmd byte, body []byte) Frame {
	return Frame{Flag: flag, Cmd: cmd, Body: body}
}

// Marshal serializes the frame, length is always derived from the body.
func (f Frame) Marshal() []byte {
	buf := make([]byte, 0, frameMinSize+len(f.Body))
	buf = append(buf, frameMagic...)
	buf = append(buf, f.Flag, f.Cmd)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(f.Body)))
	buf = append(buf, f.Body...)
	buf = append(buf, frameTerminator)
	return buf
}

// UnmarshalFrame parses a complete FE frame from buf.
// The declared length must match the actual body length exactly.
func UnmarshalFrame(buf []byte) (Frame, error) {
	if len(buf) < frameMinSize {
		return Frame{}, ErrFrameSize
	}
	if !bytes.Equal(buf[0:3], frameMagic) {
		return Frame{}, ErrFrameMagic
	}
	if buf[len(buf)-1] != frameTerminator {
		return Frame{}, ErrFrameTerminator
	}
	length := binary.BigEndian.Uint16(buf[5:7])
	if int(length) != len(buf)-frameMinSize {
		return Frame{}, ErrFrameLength
	}
	body := make([]byte, length)
	copy(body, buf[7:7+length])
	return Frame{Flag: buf[3], Cmd: buf[4], Body: body}, nil
}

// IsFrame reports whether buf starts with the FE frame magic. Used to
// separate framed traffic from the raw authentication exchange which
// shares the data channel.
func IsFrame(buf []byte) bool {
	return len(buf) >= 3 && bytes.Equal(buf[0:3], frameMagic)
}

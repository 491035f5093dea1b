package badge

import "encoding/binary"

// 9E frame envelope constants
const (
	qixMagic   byte = 0x9E
	qixMinSize      = 6 // magic + checksum + flag + cmd + length(2)
)

// QixFrame flag bits. The serial number occupies bits 4..7.
const (
	QixFlagIsResponse   byte = 0x01
	QixFlagNeedResponse byte = 0x02
	QixFlagIsLong       byte = 0x04
	QixFlagIsRequest    byte = 0x08
)

// QixFrame is one 9E-framed packet on the control channel.
// The wire layout is 9E | checksum | flag | cmd | length(LE16) | payload,
// where checksum is the additive sum of every byte after it, mod 256.
type QixFrame struct {
	Flags   byte
	Cmd     byte
	Payload []byte
}

func NewQixFrame(flags byte, cmd byte, payload []byte) QixFrame {
	return QixFrame{Flags: flags, Cmd: cmd, Payload: payload}
}

// Serial extracts the 4-bit serial number from the flag byte.
func (q QixFrame) Serial() byte {
	return q.Flags >> 4
}

// WithSerial returns a copy of the frame with the serial bits replaced.
func (q QixFrame) WithSerial(serial byte) QixFrame {
	q.Flags = (q.Flags & 0x0F) | (serial&0x0F)<<4
	return q
}

func qixChecksum(buf []byte) byte {
	var sum byte
	for _, b := range buf {
		sum += b
	}
	return sum
}

// Marshal serializes the frame and computes the additive checksum.
func (q QixFrame) Marshal() []byte {
	buf := make([]byte, 0, qixMinSize+len(q.Payload))
	buf = append(buf, qixMagic, 0x00, q.Flags, q.Cmd)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(q.Payload)))
	buf = append(buf, q.Payload...)
	buf[1] = qixChecksum(buf[2:])
	return buf
}

// UnmarshalQixFrame parses a complete 9E frame and validates checksum
// and declared length.
func UnmarshalQixFrame(buf []byte) (QixFrame, error) {
	if len(buf) < qixMinSize {
		return QixFrame{}, ErrFrameSize
	}
	if buf[0] != qixMagic {
		return QixFrame{}, ErrFrameMagic
	}
	if qixChecksum(buf[2:]) != buf[1] {
		return QixFrame{}, ErrQixChecksum
	}
	length := binary.LittleEndian.Uint16(buf[4:6])
	if int(length) != len(buf)-qixMinSize {
		return QixFrame{}, ErrFrameLength
	}
	payload := make([]byte, length)
	copy(payload, buf[6:])
	return QixFrame{Flags: buf[2], Cmd: buf[3], Payload: payload}, nil
}

// IsQixFrame reports whether buf starts with the 9E magic.
func IsQixFrame(buf []byte) bool {
	return len(buf) >= 1 && buf[0] == qixMagic
}

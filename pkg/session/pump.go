package session

import (
	"encoding/binary"
	"sync/atomic"
	"time"

	badge "github.com/samsamfire/gobadge"
	"github.com/samsamfire/gobadge/internal/crc"
	log "github.com/sirupsen/logrus"
)

// windowAck is the parsed body of a flag 0x80 / cmd 0x1D notification.
type windowAck struct {
	Seq        byte
	Status     byte
	WinSize    uint16
	NextOffset uint32
}

// parseWindowAck decodes the 8-byte window ACK body.
func parseWindowAck(body []byte) (windowAck, error) {
	if len(body) < 8 {
		return windowAck{}, badge.ErrFrameSize
	}
	return windowAck{
		Seq:        body[0],
		Status:     body[1],
		WinSize:    binary.BigEndian.Uint16(body[2:4]),
		NextOffset: binary.BigEndian.Uint32(body[4:8]),
	}, nil
}

// isCommit reports whether the ACK announces the commit window: the
// final chunk covering the payload prefix.
func (a windowAck) isCommit(chunkSize uint16) bool {
	return a.NextOffset == 0 && a.WinSize <= chunkSize
}

// transfer runs the device-driven data loop. The device dictates every
// offset; the host never blasts frames on its own schedule, a missing
// first ACK is fatal.
func (s *Session) transfer() error {
	frame, err := s.windowEvent(s.initialAckTimeout)
	if err != nil {
		return &badge.PhaseError{Phase: "initial window ack", Cmd: badge.CmdWindowAck, Err: err}
	}

	for {
		if err := s.checkCancel(); err != nil {
			return err
		}

		switch frame.Cmd {
		case badge.CmdWindowAck:
			ack, err := parseWindowAck(frame.Body)
			if err != nil {
				log.Warnf("[PUMP] malformed window ack % x: %v", frame.Body, err)
				break
			}
			if ack.Status != 0 {
				// The device may self-correct; only a session close
				// with non-zero status is terminal.
				log.Warnf("[PUMP] window ack carries status x%02x", ack.Status)
			}
			if err := s.sendWindow(ack); err != nil {
				return err
			}

		case badge.CmdFileComplete:
			s.setState(StateCompletionHandshake)
			if err := s.replyFileComplete(frame); err != nil {
				return err
			}

		case badge.CmdSessionClose:
			s.setState(StateCompletionHandshake)
			return s.replySessionClose(frame)
		}

		frame, err = s.windowEvent(s.windowTimeout)
		if err != nil {
			return &badge.PhaseError{Phase: "data transfer", Cmd: badge.CmdWindowAck, Err: err}
		}
	}
}

// windowEvent waits for the next window ACK, completion or close frame.
func (s *Session) windowEvent(timeout time.Duration) (badge.Frame, error) {
	return s.bus.WaitFrame(func(f badge.Frame) bool {
		switch {
		case f.Flag == badge.FlagNotification && f.Cmd == badge.CmdWindowAck:
			return true
		case f.Flag == badge.FlagCommand && f.Cmd == badge.CmdFileComplete:
			return true
		case f.Flag == badge.FlagCommand && f.Cmd == badge.CmdSessionClose:
			return true
		}
		return false
	}, timeout)
}

// sendWindow slices the payload per the ACK and emits the data frames.
// Slot cycles from zero within the window; the chunk CRC covers only
// the chunk bytes.
func (s *Session) sendWindow(ack windowAck) error {
	if ack.isCommit(s.chunkSize) {
		end := int(ack.WinSize)
		if end > len(s.payload) {
			end = len(s.payload)
		}
		log.Debugf("[PUMP] commit window, %v bytes", end)
		return s.sendChunk(s.payload[:end], 0)
	}

	start := int(ack.NextOffset)
	if start > len(s.payload) {
		start = len(s.payload)
	}
	end := start + int(ack.WinSize)
	if end > len(s.payload) {
		end = len(s.payload)
	}
	log.Debugf("[PUMP] window [%v..%v)", start, end)

	slot := 0
	for off := start; off < end; off += int(s.chunkSize) {
		if err := s.checkCancel(); err != nil {
			return err
		}
		chunkEnd := off + int(s.chunkSize)
		if chunkEnd > end {
			chunkEnd = end
		}
		if err := s.sendChunk(s.payload[off:chunkEnd], byte(slot&0x07)); err != nil {
			return err
		}
		slot++
	}
	return nil
}

// sendChunk emits one 0x01 data frame.
func (s *Session) sendChunk(chunk []byte, slot byte) error {
	seq := s.nextSeq()
	sum := crc.Checksum(chunk)

	body := make([]byte, 0, 5+len(chunk))
	body = append(body, seq, badge.CmdWindowAck, slot, byte(sum>>8), byte(sum))
	body = append(body, chunk...)

	frame := badge.NewFrame(badge.FlagNotification, badge.CmdData, body)
	if err := s.tr.DataWrite(frame.Marshal()); err != nil {
		return &badge.PhaseError{Phase: "data transfer", Cmd: badge.CmdData, Err: err}
	}
	atomic.AddUint32(&s.bytesSent, uint32(len(chunk)))
	s.reportProgress()
	return nil
}

// replyFileComplete answers a device cmd 0x20 with the artifact path,
// unless the fast path already did.
func (s *Session) replyFileComplete(frame badge.Frame) error {
	if s.bus.PathHandled() {
		log.Debugf("[SESSION] completion path already answered from fast path")
		return nil
	}
	var devSeq byte
	if len(frame.Body) > 0 {
		devSeq = frame.Body[0]
	}
	reply := badge.NewFrame(badge.FlagResponse, badge.CmdFileComplete,
		pathReplyBody(devSeq, s.clock(), s.kind))
	return s.tr.DataWrite(reply.Marshal())
}

// replySessionClose acknowledges cmd 0x1C and maps its status byte to
// the terminal outcome.
func (s *Session) replySessionClose(frame badge.Frame) error {
	var devSeq, status byte
	if len(frame.Body) > 0 {
		devSeq = frame.Body[0]
	}
	if len(frame.Body) > 1 {
		status = frame.Body[1]
	}
	reply := badge.NewFrame(badge.FlagResponse, badge.CmdSessionClose, []byte{0x00, devSeq})
	if err := s.tr.DataWrite(reply.Marshal()); err != nil {
		log.Warnf("[SESSION] session close ack failed: %v", err)
	}
	if status != 0x00 {
		return &badge.PhaseError{Phase: "completion handshake", Cmd: badge.CmdSessionClose,
			Err: &badge.DeviceError{Cmd: badge.CmdSessionClose, Status: status}}
	}
	log.Debugf("[SESSION] transfer closed, %v bytes sent", s.BytesSent())
	return nil
}

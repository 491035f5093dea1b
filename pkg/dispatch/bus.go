package dispatch

import (
	"sync"
	"time"

	badge "github.com/samsamfire/gobadge"
	"github.com/samsamfire/gobadge/internal/fifo"
	"github.com/samsamfire/gobadge/pkg/gatt"
	log "github.com/sirupsen/logrus"
)

// QueueSize bounds the inbound notification queue; the eldest entry is
// evicted when full.
const QueueSize = 200

// WriteSink is the capability the bus uses to answer device-initiated
// commands from inside the arrival callback. Handed in at construction
// to avoid a mutual reference with the session.
type WriteSink func(p []byte) error

// PathReplyBuilder builds the cmd 0x20 response body for the given
// device sequence byte. Armed by the session ahead of the completion
// handshake so the reply leaves before the device gives up waiting.
type PathReplyBuilder func(devSeq byte) []byte

type waiter struct {
	match func(fifo.Entry) bool
	ch    chan fifo.Entry
}

// Bus classifies every inbound payload, answers device-initiated
// commands immediately and parks everything else for predicate-keyed
// waiters.
type Bus struct {
	mu       sync.Mutex
	queue    *fifo.Fifo
	waiters  []*waiter
	sink     WriteSink
	armed    bool
	handled  bool
	pathFunc PathReplyBuilder
}

func New(sink WriteSink) *Bus {
	return &Bus{
		queue: fifo.NewFifo(QueueSize),
		sink:  sink,
	}
}

// sessionCmd reports whether cmd is a device-initiated command the
// session handles explicitly, exempt from the generic auto-ack.
func sessionCmd(cmd byte) bool {
	return cmd == badge.CmdFileComplete ||
		cmd == badge.CmdSessionClose ||
		cmd == badge.CmdWindowAck
}

// Handle implements gatt.NotificationListener. Runs on the transport
// callback; must stay short. The device penalizes slow responders, so
// acks and the armed path reply are written here, not in user code.
func (b *Bus) Handle(src gatt.NotificationSource, payload []byte) {
	if src == gatt.SourceData && badge.IsFrame(payload) {
		frame, err := badge.UnmarshalFrame(payload)
		if err != nil {
			log.Warnf("[BUS] dropping malformed frame: %v", err)
			return
		}
		if frame.Flag == badge.FlagCommand {
			if !sessionCmd(frame.Cmd) {
				b.autoAck(frame)
				return
			}
			if frame.Cmd == badge.CmdFileComplete {
				b.fastPathReply(frame)
			}
		}
	}
	b.deliver(fifo.Entry{Source: uint8(src), Payload: payload})
}

// autoAck answers a device-initiated command with an immediate empty
// status response. The frame is not enqueued.
func (b *Bus) autoAck(frame badge.Frame) {
	var devSeq byte
	if len(frame.Body) > 0 {
		devSeq = frame.Body[0]
	}
	ack := badge.NewFrame(badge.FlagResponse, frame.Cmd, []byte{0x00, devSeq})
	if err := b.sink(ack.Marshal()); err != nil {
		log.Warnf("[BUS] auto-ack for cmd x%02x failed: %v", frame.Cmd, err)
		return
	}
	log.Debugf("[BUS] auto-ack cmd x%02x seq x%02x", frame.Cmd, devSeq)
}

// fastPathReply writes the armed completion path response in the
// arrival callback. The frame is still delivered to waiters so the
// session observes the completion.
func (b *Bus) fastPathReply(frame badge.Frame) {
	b.mu.Lock()
	armed := b.armed && !b.handled
	builder := b.pathFunc
	if armed {
		b.handled = true
	}
	b.mu.Unlock()
	if !armed || builder == nil {
		return
	}
	var devSeq byte
	if len(frame.Body) > 0 {
		devSeq = frame.Body[0]
	}
	reply := badge.NewFrame(badge.FlagResponse, badge.CmdFileComplete, builder(devSeq))
	if err := b.sink(reply.Marshal()); err != nil {
		log.Warnf("[BUS] fast-path completion reply failed: %v", err)
		return
	}
	log.Debugf("[BUS] fast-path completion reply for seq x%02x", devSeq)
}

// deliver hands the entry to the newest matching waiter, or enqueues.
func (b *Bus) deliver(e fifo.Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.waiters) - 1; i >= 0; i-- {
		w := b.waiters[i]
		if w.match(e) {
			b.waiters = append(b.waiters[:i], b.waiters[i+1:]...)
			w.ch <- e
			return
		}
	}
	if b.queue.Push(e) {
		log.Warnf("[BUS] notification queue full, evicted oldest entry")
	}
}

// ArmPathResponder enables the cmd 0x20 fast path.
func (b *Bus) ArmPathResponder(builder PathReplyBuilder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.armed = true
	b.handled = false
	b.pathFunc = builder
}

// DisarmPathResponder disables the fast path. Always called on session
// exit.
func (b *Bus) DisarmPathResponder() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.armed = false
	b.pathFunc = nil
}

// PathHandled reports whether the fast path already answered a
// cmd 0x20 since it was last armed.
func (b *Bus) PathHandled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handled
}

// wait blocks until an entry matching the predicate is available or the
// deadline passes.
func (b *Bus) wait(match func(fifo.Entry) bool, timeout time.Duration) (fifo.Entry, error) {
	b.mu.Lock()
	if e, ok := b.queue.TakeFirst(match); ok {
		b.mu.Unlock()
		return e, nil
	}
	w := &waiter{match: match, ch: make(chan fifo.Entry, 1)}
	b.waiters = append(b.waiters, w)
	b.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case e := <-w.ch:
		return e, nil
	case <-timer.C:
		b.mu.Lock()
		for i, cur := range b.waiters {
			if cur == w {
				b.waiters = append(b.waiters[:i], b.waiters[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		// Lost race: the producer may have delivered just before removal
		select {
		case e := <-w.ch:
			return e, nil
		default:
		}
		return fifo.Entry{}, badge.ErrTimeout
	}
}

// WaitRaw waits for an un-decoded payload on the given source. Used for
// the handshake traffic which is not FE framed.
func (b *Bus) WaitRaw(src gatt.NotificationSource, pred func([]byte) bool, timeout time.Duration) ([]byte, error) {
	e, err := b.wait(func(e fifo.Entry) bool {
		return e.Source == uint8(src) && pred(e.Payload)
	}, timeout)
	if err != nil {
		return nil, err
	}
	return e.Payload, nil
}

// WaitFrame waits for a decoded FE frame on the data source.
func (b *Bus) WaitFrame(pred func(badge.Frame) bool, timeout time.Duration) (badge.Frame, error) {
	var matched badge.Frame
	_, err := b.wait(func(e fifo.Entry) bool {
		if e.Source != uint8(gatt.SourceData) {
			return false
		}
		frame, err := badge.UnmarshalFrame(e.Payload)
		if err != nil {
			return false
		}
		if !pred(frame) {
			return false
		}
		matched = frame
		return true
	}, timeout)
	if err != nil {
		return badge.Frame{}, err
	}
	return matched, nil
}

// WaitQix waits for a decoded 9E frame on one of the control sources.
func (b *Bus) WaitQix(src gatt.NotificationSource, pred func(badge.QixFrame) bool, timeout time.Duration) (badge.QixFrame, error) {
	var matched badge.QixFrame
	_, err := b.wait(func(e fifo.Entry) bool {
		if e.Source != uint8(src) {
			return false
		}
		frame, err := badge.UnmarshalQixFrame(e.Payload)
		if err != nil {
			return false
		}
		if !pred(frame) {
			return false
		}
		matched = frame
		return true
	}, timeout)
	if err != nil {
		return badge.QixFrame{}, err
	}
	return matched, nil
}

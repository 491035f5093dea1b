package dispatch

import (
	"sync"
	"testing"
	"time"

	badge "github.com/samsamfire/gobadge"
	"github.com/samsamfire/gobadge/pkg/gatt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkRecorder struct {
	mu     sync.Mutex
	writes [][]byte
}

func (s *sinkRecorder) write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(p))
	copy(buf, p)
	s.writes = append(s.writes, buf)
	return nil
}

func (s *sinkRecorder) all() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte{}, s.writes...)
}

func TestAutoAck(t *testing.T) {
	sink := &sinkRecorder{}
	bus := New(sink.write)

	// A device-initiated command outside the session set is acked and
	// not delivered.
	cmd := badge.NewFrame(badge.FlagCommand, 0x42, []byte{0x11, 0x01})
	bus.Handle(gatt.SourceData, cmd.Marshal())

	writes := sink.all()
	require.Len(t, writes, 1)
	ack, err := badge.UnmarshalFrame(writes[0])
	require.Nil(t, err)
	assert.Equal(t, badge.FlagResponse, ack.Flag)
	assert.EqualValues(t, 0x42, ack.Cmd)
	assert.Equal(t, []byte{0x00, 0x11}, ack.Body)

	_, err = bus.WaitFrame(func(badge.Frame) bool { return true }, 50*time.Millisecond)
	assert.Equal(t, badge.ErrTimeout, err)
}

func TestSessionCmdsNotAcked(t *testing.T) {
	sink := &sinkRecorder{}
	bus := New(sink.write)

	ack := badge.NewFrame(badge.FlagNotification, badge.CmdWindowAck,
		[]byte{0x01, 0x00, 0x0F, 0x50, 0x00, 0x00, 0x01, 0xEA})
	bus.Handle(gatt.SourceData, ack.Marshal())

	assert.Empty(t, sink.all())
	frame, err := bus.WaitFrame(func(f badge.Frame) bool { return f.Cmd == badge.CmdWindowAck }, time.Second)
	require.Nil(t, err)
	assert.Equal(t, badge.FlagNotification, frame.Flag)
}

func TestFastPathReply(t *testing.T) {
	sink := &sinkRecorder{}
	bus := New(sink.write)
	bus.ArmPathResponder(func(devSeq byte) []byte {
		return []byte{0x00, devSeq, 'p'}
	})
	defer bus.DisarmPathResponder()

	complete := badge.NewFrame(badge.FlagCommand, badge.CmdFileComplete, []byte{0x06})
	bus.Handle(gatt.SourceData, complete.Marshal())

	writes := sink.all()
	require.Len(t, writes, 1)
	reply, err := badge.UnmarshalFrame(writes[0])
	require.Nil(t, err)
	assert.Equal(t, badge.CmdFileComplete, reply.Cmd)
	assert.Equal(t, []byte{0x00, 0x06, 'p'}, reply.Body)
	assert.True(t, bus.PathHandled())

	// The frame is still observable by the session.
	frame, err := bus.WaitFrame(func(f badge.Frame) bool { return f.Cmd == badge.CmdFileComplete }, time.Second)
	require.Nil(t, err)
	assert.Equal(t, []byte{0x06}, frame.Body)

	// Only the first completion is answered from the fast path.
	bus.Handle(gatt.SourceData, complete.Marshal())
	assert.Len(t, sink.all(), 1)
}

func TestWaiterBeforeArrival(t *testing.T) {
	bus := New(func([]byte) error { return nil })

	done := make(chan badge.Frame, 1)
	go func() {
		frame, err := bus.WaitFrame(func(f badge.Frame) bool { return f.Cmd == 0x21 }, 2*time.Second)
		if err == nil {
			done <- frame
		}
	}()
	time.Sleep(20 * time.Millisecond)
	bus.Handle(gatt.SourceData, badge.NewFrame(badge.FlagResponse, 0x21, []byte{0x00, 0x03}).Marshal())

	select {
	case frame := <-done:
		assert.Equal(t, []byte{0x00, 0x03}, frame.Body)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not woken")
	}
}

func TestWaitRawIgnoresOtherSources(t *testing.T) {
	bus := New(func([]byte) error { return nil })
	bus.Handle(gatt.SourceCtrlInfo, []byte{0x01, 0xAA})
	bus.Handle(gatt.SourceData, []byte{0x01, 0xBB})

	payload, err := bus.WaitRaw(gatt.SourceData, func(p []byte) bool { return p[0] == 0x01 }, time.Second)
	assert.Nil(t, err)
	assert.Equal(t, []byte{0x01, 0xBB}, payload)
}

func TestWaitQix(t *testing.T) {
	bus := New(func([]byte) error { return nil })
	frame := badge.QixFrame{Flags: 0x0B, Cmd: badge.QixCmdBattery, Payload: []byte{0x00, 0x55}}
	bus.Handle(gatt.SourceCtrlInfo, frame.Marshal())

	got, err := bus.WaitQix(gatt.SourceCtrlInfo, func(q badge.QixFrame) bool {
		return q.Cmd == badge.QixCmdBattery
	}, time.Second)
	assert.Nil(t, err)
	assert.Equal(t, []byte{0x00, 0x55}, got.Payload)
}

func TestWaitTimeout(t *testing.T) {
	bus := New(func([]byte) error { return nil })
	start := time.Now()
	_, err := bus.WaitFrame(func(badge.Frame) bool { return true }, 50*time.Millisecond)
	assert.Equal(t, badge.ErrTimeout, err)
	assert.Less(t, time.Since(start), time.Second)
}

package session

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	badge "github.com/samsamfire/gobadge"
	"github.com/samsamfire/gobadge/internal/crc"
	"github.com/samsamfire/gobadge/pkg/auth"
	"github.com/samsamfire/gobadge/pkg/dispatch"
	"github.com/samsamfire/gobadge/pkg/gatt"
	log "github.com/sirupsen/logrus"
)

const (
	// MaxPayloadSize bounds an upload; larger artifacts are rejected
	// before the session touches the device.
	MaxPayloadSize = 2_000_000

	// DefaultChunkSize is used until the metadata response suggests
	// another one.
	DefaultChunkSize uint16 = 490

	// MaxChunkSize is the largest suggestion the session accepts.
	MaxChunkSize uint16 = 4096

	// MaxNameLen bounds the ASCII file name sent in the metadata body.
	MaxNameLen = 11
)

// Default deadlines for the protocol waits.
const (
	ackTimeout        = 8 * time.Second
	initialAckTimeout = 10 * time.Second
	windowTimeout     = 15 * time.Second
	controlTimeout    = 3 * time.Second
)

// Kind selects the artifact type; it decides the path extension sent in
// the completion response.
type Kind uint8

const (
	KindStill Kind = iota
	KindAnimation
)

func (k Kind) Ext() string {
	if k == KindAnimation {
		return ".avi"
	}
	return ".jpg"
}

func (k Kind) defaultName() string {
	if k == KindAnimation {
		return "VIDEO"
	}
	return "IMAGE"
}

// State of the upload session.
type State uint8

const (
	StateIdle State = iota
	StateAuthenticating
	StateResetFlag
	StateControlBootstrap
	StateInfoQuery
	StateConfigQuery
	StateReadySignal
	StateSessionOpen
	StateTransferParams
	StateMetadata
	StateDataTransfer
	StateCompletionHandshake
	StateComplete
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAuthenticating:
		return "authenticating"
	case StateResetFlag:
		return "reset flag"
	case StateControlBootstrap:
		return "control bootstrap"
	case StateInfoQuery:
		return "info query"
	case StateConfigQuery:
		return "config query"
	case StateReadySignal:
		return "ready signal"
	case StateSessionOpen:
		return "session open"
	case StateTransferParams:
		return "transfer params"
	case StateMetadata:
		return "metadata"
	case StateDataTransfer:
		return "data transfer"
	case StateCompletionHandshake:
		return "completion handshake"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Progress is invoked after every emitted data frame.
type Progress func(sent uint32, total uint32)

// Options tune one upload. The zero value is usable.
type Options struct {
	// Name overrides the file name in the metadata body. ASCII,
	// truncated to MaxNameLen bytes.
	Name string
	// Progress callback, may be nil.
	Progress Progress
	// Clock supplies the wall time for the control bootstrap and the
	// completion path. Defaults to time.Now.
	Clock func() time.Time
}

// Session owns one upload at a time over a shared transport. Created
// once per logical connection alongside the dispatcher and the auth
// engine.
type Session struct {
	tr     *gatt.Transport
	bus    *dispatch.Bus
	engine *auth.Engine

	mu    sync.Mutex
	state State

	busy      atomic.Bool
	cancelled atomic.Bool

	// per-upload, owned exclusively for the lifetime of one transfer
	seq       byte
	chunkSize uint16
	payload   []byte
	fileCrc   uint16
	bytesSent uint32
	kind      Kind
	progress  Progress
	clock     func() time.Time

	// deadlines, fixed at construction
	ackTimeout        time.Duration
	initialAckTimeout time.Duration
	windowTimeout     time.Duration
	controlTimeout    time.Duration
}

func NewSession(tr *gatt.Transport, bus *dispatch.Bus, engine *auth.Engine) *Session {
	return &Session{
		tr:                tr,
		bus:               bus,
		engine:            engine,
		state:             StateIdle,
		clock:             time.Now,
		ackTimeout:        ackTimeout,
		initialAckTimeout: initialAckTimeout,
		windowTimeout:     windowTimeout,
		controlTimeout:    controlTimeout,
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	log.Debugf("[SESSION] -> %v", state)
}

// Cancel requests cancellation. Observed between data frame emissions,
// after authentication, once the best-effort setup phases are done and
// after every wait of the data loop. The waits of the individual setup
// phases (session open, transfer params, metadata included) are neither
// interrupted nor followed by a check of their own. The device recovers
// only on reconnection.
func (s *Session) Cancel() {
	s.cancelled.Store(true)
}

func (s *Session) checkCancel() error {
	if s.cancelled.Load() {
		return badge.ErrCancelled
	}
	return nil
}

// BytesSent reports the cumulative data bytes emitted by the current or
// last upload.
func (s *Session) BytesSent() uint32 {
	return atomic.LoadUint32(&s.bytesSent)
}

// Upload transfers one artifact. Returns nil on Complete; otherwise
// ErrCancelled or an error carrying the failing phase and status.
func (s *Session) Upload(payload []byte, kind Kind, opts *Options) error {
	if len(payload) == 0 || len(payload) > MaxPayloadSize {
		return badge.ErrPayloadSize
	}
	if !s.busy.CompareAndSwap(false, true) {
		return badge.ErrTransferActive
	}
	defer s.busy.Store(false)

	if opts == nil {
		opts = &Options{}
	}
	s.cancelled.Store(false)
	s.seq = 0
	s.chunkSize = DefaultChunkSize
	s.payload = payload
	s.fileCrc = crc.Checksum(payload)
	atomic.StoreUint32(&s.bytesSent, 0)
	s.kind = kind
	s.progress = opts.Progress
	if opts.Clock != nil {
		s.clock = opts.Clock
	}

	// The fast path is always disarmed on exit, whatever the outcome.
	defer s.bus.DisarmPathResponder()

	err := s.run(opts)
	switch {
	case err == nil:
		s.setState(StateComplete)
	case err == badge.ErrCancelled:
		s.setState(StateCancelled)
	default:
		s.setState(StateFailed)
	}
	s.payload = nil
	return err
}

func (s *Session) run(opts *Options) error {
	s.setState(StateAuthenticating)
	if err := s.engine.Authenticate(); err != nil {
		return &badge.PhaseError{Phase: "authenticate", Err: err}
	}
	if err := s.checkCancel(); err != nil {
		return err
	}

	s.setState(StateResetFlag)
	s.resetFlag()

	s.setState(StateControlBootstrap)
	s.controlBootstrap()

	s.setState(StateInfoQuery)
	s.infoQuery()

	s.setState(StateConfigQuery)
	s.configQuery()

	s.controlStatus()

	s.setState(StateReadySignal)
	s.readySignal()

	if err := s.checkCancel(); err != nil {
		return err
	}

	s.setState(StateSessionOpen)
	if err := s.sessionOpen(); err != nil {
		return err
	}

	s.setState(StateTransferParams)
	if err := s.transferParams(); err != nil {
		return err
	}

	s.setState(StateMetadata)
	if err := s.metadata(opts); err != nil {
		return err
	}

	// Arm before the data phase: the device may complete quickly and
	// it times out near 100 ms waiting for the path.
	s.bus.ArmPathResponder(func(devSeq byte) []byte {
		return pathReplyBody(devSeq, s.clock(), s.kind)
	})

	s.setState(StateDataTransfer)
	return s.transfer()
}

// command writes one FE command frame on the data endpoint.
func (s *Session) command(cmd byte, body []byte) error {
	frame := badge.NewFrame(badge.FlagCommand, cmd, body)
	log.Debugf("[SESSION][TX] cmd x%02x % x", cmd, body)
	return s.tr.DataWrite(frame.Marshal())
}

// awaitAck waits for the response frame of the given command.
func (s *Session) awaitAck(cmd byte, timeout time.Duration) (badge.Frame, error) {
	return s.bus.WaitFrame(func(f badge.Frame) bool {
		return f.Flag == badge.FlagResponse && f.Cmd == cmd
	}, timeout)
}

// nextSeq consumes the current sequence value.
func (s *Session) nextSeq() byte {
	v := s.seq
	s.seq++
	return v
}

// resetFlag sends the fixed cmd 0x06 body and forces the counter to
// 0x01 whether or not the device answered.
func (s *Session) resetFlag() {
	if err := s.command(badge.CmdResetFlag, []byte{0x02, 0x00, 0x01}); err != nil {
		log.Warnf("[SESSION] reset flag write failed: %v", err)
	} else if _, err := s.awaitAck(badge.CmdResetFlag, s.ackTimeout); err != nil {
		log.Warnf("[SESSION] reset flag not acknowledged: %v", err)
	}
	s.seq = 0x01
}

// infoQuery reads the device information block, best-effort.
func (s *Session) infoQuery() {
	seq := s.nextSeq()
	if err := s.command(badge.CmdDeviceInfo, []byte{seq, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}); err != nil {
		log.Warnf("[SESSION] info query write failed: %v", err)
		return
	}
	frame, err := s.awaitAck(badge.CmdDeviceInfo, s.ackTimeout)
	if err != nil {
		log.Warnf("[SESSION] info query not answered: %v", err)
		return
	}
	log.Debugf("[SESSION][RX] device info (%v bytes)", len(frame.Body))
}

// configQuery reads the device configuration block, best-effort.
func (s *Session) configQuery() {
	seq := s.nextSeq()
	if err := s.command(badge.CmdDeviceConfig, []byte{seq, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}); err != nil {
		log.Warnf("[SESSION] config query write failed: %v", err)
		return
	}
	frame, err := s.awaitAck(badge.CmdDeviceConfig, s.ackTimeout)
	if err != nil {
		log.Warnf("[SESSION] config query not answered: %v", err)
		return
	}
	log.Debugf("[SESSION][RX] device config (%v bytes)", len(frame.Body))
}

// sessionOpen starts the transfer session. Fatal on failure.
func (s *Session) sessionOpen() error {
	seq := s.nextSeq()
	if err := s.command(badge.CmdSessionOpen, []byte{seq, 0x00}); err != nil {
		return &badge.PhaseError{Phase: "session open", Cmd: badge.CmdSessionOpen, Err: err}
	}
	if err := s.requireAck(badge.CmdSessionOpen, seq, "session open"); err != nil {
		return err
	}
	return nil
}

// transferParams negotiates the transfer mode. The response's trailing
// bytes are opaque constants. Fatal on failure.
func (s *Session) transferParams() error {
	seq := s.nextSeq()
	body := []byte{seq, 0x00, 0x00, 0x00, 0x00, 0x02, 0x01}
	if err := s.command(badge.CmdTransferParams, body); err != nil {
		return &badge.PhaseError{Phase: "transfer params", Cmd: badge.CmdTransferParams, Err: err}
	}
	if err := s.requireAck(badge.CmdTransferParams, seq, "transfer params"); err != nil {
		return err
	}
	return nil
}

// metadata announces size, whole-file CRC and name. The device answers
// with a suggested chunk size. Fatal on failure.
func (s *Session) metadata(opts *Options) error {
	seq := s.nextSeq()

	name := opts.Name
	if name == "" {
		name = s.kind.defaultName()
	}
	ascii := make([]byte, 0, MaxNameLen)
	for _, r := range name {
		if r < 0x20 || r > 0x7E {
			continue
		}
		ascii = append(ascii, byte(r))
		if len(ascii) == MaxNameLen {
			break
		}
	}

	var nonce [2]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return &badge.PhaseError{Phase: "metadata", Cmd: badge.CmdFileMetadata, Err: err}
	}

	body := make([]byte, 0, 9+len(ascii)+1)
	body = append(body, seq)
	body = binary.BigEndian.AppendUint32(body, uint32(len(s.payload)))
	body = binary.BigEndian.AppendUint16(body, s.fileCrc)
	body = append(body, nonce[0], nonce[1])
	body = append(body, ascii...)
	body = append(body, 0x00)

	if err := s.command(badge.CmdFileMetadata, body); err != nil {
		return &badge.PhaseError{Phase: "metadata", Cmd: badge.CmdFileMetadata, Err: err}
	}
	frame, err := s.awaitSeqAck(badge.CmdFileMetadata, seq, s.ackTimeout)
	if err != nil {
		return &badge.PhaseError{Phase: "metadata", Cmd: badge.CmdFileMetadata, Err: err}
	}
	if frame.Body[0] != 0x00 {
		return &badge.PhaseError{Phase: "metadata", Cmd: badge.CmdFileMetadata,
			Err: &badge.DeviceError{Cmd: badge.CmdFileMetadata, Status: frame.Body[0]}}
	}

	if len(frame.Body) >= 4 {
		suggested := binary.BigEndian.Uint16(frame.Body[2:4])
		if suggested > 0 && suggested <= MaxChunkSize {
			s.chunkSize = suggested
		} else {
			s.chunkSize = DefaultChunkSize
		}
	}
	log.Debugf("[SESSION] metadata accepted, chunk size %v", s.chunkSize)
	return nil
}

// awaitSeqAck waits for a response of cmd that echoes the sequence.
func (s *Session) awaitSeqAck(cmd byte, seq byte, timeout time.Duration) (badge.Frame, error) {
	return s.bus.WaitFrame(func(f badge.Frame) bool {
		return f.Flag == badge.FlagResponse && f.Cmd == cmd &&
			len(f.Body) >= 2 && f.Body[1] == seq
	}, timeout)
}

// requireAck enforces a zero status response echoing the sequence.
func (s *Session) requireAck(cmd byte, seq byte, phase string) error {
	frame, err := s.awaitSeqAck(cmd, seq, s.ackTimeout)
	if err != nil {
		return &badge.PhaseError{Phase: phase, Cmd: cmd, Err: err}
	}
	if frame.Body[0] != 0x00 {
		return &badge.PhaseError{Phase: phase, Cmd: cmd,
			Err: &badge.DeviceError{Cmd: cmd, Status: frame.Body[0]}}
	}
	return nil
}

func (s *Session) reportProgress() {
	if s.progress != nil {
		s.progress(atomic.LoadUint32(&s.bytesSent), uint32(len(s.payload)))
	}
}

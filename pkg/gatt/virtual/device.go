package virtual

import (
	"bytes"
	"encoding/binary"
	"sync"
	"unicode/utf16"

	badge "github.com/samsamfire/gobadge"
	"github.com/samsamfire/gobadge/internal/crc"
	"github.com/samsamfire/gobadge/pkg/gatt"
	"github.com/samsamfire/gobadge/pkg/jieli"
	log "github.com/sirupsen/logrus"
)

// Virtual badge device primarily used for testing. It implements the
// firmware side of the protocol in-process: the mutual handshake, the
// upload phases with device-driven window ACKs, per-chunk and whole
// file CRC validation, the completion handshake and the auxiliary
// request/response operations.

// Config tunes the emulated firmware.
type Config struct {
	ChunkSize    uint16
	WindowChunks int
	FeatureMap   uint32
	Battery      [2]byte // status, level
	ScreenInfo   []byte  // raw 0xC7 payload
	CloseStatus  byte    // status reported in the final 0x1C
	RejectAuth   bool    // answer the challenge response with garbage
	DropAcks     bool    // never send window ACKs
	OpenStatus   byte    // status byte of the 0x21 response
}

func defaultConfig() *Config {
	return &Config{
		ChunkSize:    490,
		WindowChunks: 8,
		FeatureMap:   0x0000_0C81,
		Battery:      [2]byte{0x00, 0x64},
		ScreenInfo: []byte{
			0x01,
			0x70, 0x01, 0x70, 0x01, // 368 x 368
			0x70, 0x01, 0x70, 0x01,
			0x00, 0x00, 0x20, 0x00, // 2 MiB
		},
	}
}

type write struct {
	ctrl    bool
	payload []byte
}

// Device is one emulated badge. Writable characteristics feed a worker
// goroutine; replies come back as transport notifications.
type Device struct {
	mu  sync.Mutex
	cfg *Config
	tr  *gatt.Transport

	writes    chan write
	closed    chan struct{}
	closeOnce sync.Once

	// handshake
	challenge     [16]byte
	challengeSent bool
	authenticated bool

	// transfer
	fileSize   uint32
	fileCrc    uint16
	fileName   string
	assembled  []byte
	cursor     int
	winSeq     byte
	windowOpen bool
	expectLeft int
	commitMode bool
	dataFrames int
	lastSeq    byte
	seqValid   bool
	devSeq     byte
	path       string

	// small-file store fixture
	smallFiles map[byte]map[uint16][]byte
	dirEntries []byte
}

// NewDevice creates an emulated badge with the given configuration;
// nil selects the defaults.
func NewDevice(cfg *Config) *Device {
	if cfg == nil {
		cfg = defaultConfig()
	} else {
		base := defaultConfig()
		if cfg.ChunkSize == 0 {
			cfg.ChunkSize = base.ChunkSize
		}
		if cfg.WindowChunks == 0 {
			cfg.WindowChunks = base.WindowChunks
		}
		if cfg.ScreenInfo == nil {
			cfg.ScreenInfo = base.ScreenInfo
		}
	}
	d := &Device{
		cfg:        cfg,
		writes:     make(chan write, 512),
		closed:     make(chan struct{}),
		devSeq:     0x06,
		smallFiles: map[byte]map[uint16][]byte{},
	}
	go d.worker()
	return d
}

// Connect builds a transport wired to this device. The device prefers
// write-without-response on both endpoints, as real firmware does.
func (d *Device) Connect() *gatt.Transport {
	dataW := gatt.NewEndpoint(gatt.UUIDDataWrite, characteristic{d, false}, true)
	ctrlW := gatt.NewEndpoint(gatt.UUIDCtrlWrite, characteristic{d, true}, true)
	tr := gatt.NewTransport(dataW, ctrlW)
	d.mu.Lock()
	d.tr = tr
	d.mu.Unlock()
	return tr
}

// Close stops the worker. Safe to call more than once.
func (d *Device) Close() {
	d.closeOnce.Do(func() { close(d.closed) })
}

// Uploaded returns the fully assembled artifact after a successful
// transfer.
func (d *Device) Uploaded() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte{}, d.assembled...)
}

// Path returns the path string the host supplied in the completion
// handshake.
func (d *Device) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

// FileName returns the name announced in the metadata phase.
func (d *Device) FileName() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fileName
}

// DataFrames counts the received 0x01 frames.
func (d *Device) DataFrames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dataFrames
}

// LastDataSeq returns the sequence byte of the most recent data frame.
func (d *Device) LastDataSeq() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSeq
}

// PutSmallFile seeds the small-file store.
func (d *Device) PutSmallFile(fileType byte, id uint16, value []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.smallFiles[fileType] == nil {
		d.smallFiles[fileType] = map[uint16][]byte{}
	}
	d.smallFiles[fileType][id] = value
}

// SetDirEntries seeds the file browser fixture with pre-marshalled
// entries.
func (d *Device) SetDirEntries(raw []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dirEntries = raw
}

// characteristic adapts a device endpoint to gatt.Characteristic.
type characteristic struct {
	d    *Device
	ctrl bool
}

func (c characteristic) WriteValue(p []byte, withResponse bool) error {
	buf := make([]byte, len(p))
	copy(buf, p)
	select {
	case c.d.writes <- write{ctrl: c.ctrl, payload: buf}:
		return nil
	case <-c.d.closed:
		return badge.ErrUnavailable
	}
}

func (d *Device) worker() {
	for {
		select {
		case w := <-d.writes:
			if w.ctrl {
				d.handleCtrl(w.payload)
			} else {
				d.handleData(w.payload)
			}
		case <-d.closed:
			return
		}
	}
}

func (d *Device) notifyData(payload []byte) {
	d.mu.Lock()
	tr := d.tr
	d.mu.Unlock()
	if tr != nil {
		tr.Notify(gatt.SourceData, payload)
	}
}

func (d *Device) notifyCtrl(src gatt.NotificationSource, payload []byte) {
	d.mu.Lock()
	tr := d.tr
	d.mu.Unlock()
	if tr != nil {
		tr.Notify(src, payload)
	}
}

func (d *Device) respond(cmd byte, body []byte) {
	d.notifyData(badge.NewFrame(badge.FlagResponse, cmd, body).Marshal())
}

func (d *Device) handleData(payload []byte) {
	if !badge.IsFrame(payload) {
		d.handleAuth(payload)
		return
	}
	frame, err := badge.UnmarshalFrame(payload)
	if err != nil {
		log.Warnf("[VIRTUAL] malformed frame from host: %v", err)
		return
	}
	switch frame.Flag {
	case badge.FlagCommand:
		d.handleCommand(frame)
	case badge.FlagNotification:
		if frame.Cmd == badge.CmdData {
			d.handleChunk(frame.Body)
		}
	case badge.FlagResponse:
		d.handleResponse(frame)
	}
}

func (d *Device) handleAuth(payload []byte) {
	switch {
	case len(payload) == 17 && payload[0] == jieli.AuthTypeRandom:
		var block [16]byte
		copy(block[:], payload[1:])
		enc := jieli.Encrypt(block, jieli.StaticKey)
		reply := append([]byte{jieli.AuthTypeEncrypted}, enc[:]...)
		d.notifyData(reply)

	case bytes.Equal(payload, jieli.PassToken):
		if d.challengeSent {
			return
		}
		d.challengeSent = true
		// Deterministic challenge; the host must encrypt it under the
		// shared static key.
		for i := range d.challenge {
			d.challenge[i] = byte(0xA5 ^ i*7)
		}
		d.notifyData(append([]byte{jieli.AuthTypeRandom}, d.challenge[:]...))

	case len(payload) == 17 && payload[0] == jieli.AuthTypeEncrypted:
		expected := jieli.Encrypt(d.challenge, jieli.StaticKey)
		if d.cfg.RejectAuth || !bytes.Equal(payload[1:], expected[:]) {
			d.notifyData([]byte{jieli.AuthTypePass, 'f', 'a', 'i', 'l'})
			return
		}
		d.authenticated = true
		d.notifyData(jieli.PassToken)
	}
}

func (d *Device) handleCommand(frame badge.Frame) {
	body := frame.Body
	var seq byte
	if len(body) > 0 {
		seq = body[0]
	}
	switch frame.Cmd {
	case badge.CmdResetFlag:
		d.respond(badge.CmdResetFlag, []byte{0x00, 0x00})

	case badge.CmdDeviceInfo:
		if len(body) >= 6 && bytes.Equal(body[1:6], []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x01}) {
			// Bootstrap info block, fixed 125-byte response
			resp := make([]byte, 125)
			resp[0], resp[1] = 0x00, seq
			d.respond(badge.CmdDeviceInfo, resp)
			return
		}
		attrs := d.targetInfoFixture()
		d.respond(badge.CmdDeviceInfo, append([]byte{0x00, seq}, attrs...))

	case badge.CmdDeviceConfig:
		if len(body) >= 6 && bytes.Equal(body[1:6], []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}) {
			resp := make([]byte, 56)
			resp[0], resp[1] = 0x00, seq
			d.respond(badge.CmdDeviceConfig, resp)
			return
		}
		d.respond(badge.CmdDeviceConfig, append([]byte{0x00, seq}, d.sysInfoFixture()...))

	case badge.CmdFeatureMap:
		resp := []byte{0x00, seq}
		resp = binary.BigEndian.AppendUint32(resp, d.cfg.FeatureMap)
		d.respond(badge.CmdFeatureMap, resp)

	case badge.CmdSessionOpen:
		d.respond(badge.CmdSessionOpen, []byte{d.cfg.OpenStatus, seq})

	case badge.CmdTransferParams:
		d.respond(badge.CmdTransferParams, []byte{0x00, seq, 0x00, 0x01})

	case badge.CmdFileMetadata:
		d.handleMetadata(body)

	case badge.CmdFileBrowse:
		d.mu.Lock()
		entries := d.dirEntries
		d.mu.Unlock()
		d.respond(badge.CmdFileBrowse, append([]byte{0x00, seq}, entries...))

	case badge.CmdFileBrowseStop:
		d.respond(badge.CmdFileBrowseStop, []byte{0x00, seq})

	case badge.CmdSmallFile:
		d.handleSmallFile(seq, body)
	}
}

func (d *Device) targetInfoFixture() []byte {
	var out []byte
	add := func(t byte, v []byte) {
		out = append(out, byte(1+len(v)), t)
		out = append(out, v...)
	}
	add(0x02, []byte("LED-BADGE"))
	add(0x03, []byte("1.2.0"))
	add(0x04, []byte{d.cfg.Battery[1]})
	fm := binary.BigEndian.AppendUint32(nil, d.cfg.FeatureMap)
	add(0x06, fm)
	add(0x09, []byte{0x02})
	return out
}

func (d *Device) sysInfoFixture() []byte {
	var out []byte
	out = append(out, 0x02, 0x09, 0x02)
	return out
}

func (d *Device) handleSmallFile(seq byte, body []byte) {
	if len(body) < 3 {
		d.respond(badge.CmdSmallFile, []byte{0x01, seq})
		return
	}
	op, fileType := body[1], body[2]
	d.mu.Lock()
	store := d.smallFiles[fileType]
	d.mu.Unlock()
	switch op {
	case 0x00: // query
		resp := []byte{0x00, seq}
		resp = binary.BigEndian.AppendUint16(resp, uint16(len(store)))
		d.respond(badge.CmdSmallFile, resp)
	case 0x01: // read
		if len(body) < 5 {
			d.respond(badge.CmdSmallFile, []byte{0x01, seq})
			return
		}
		id := binary.BigEndian.Uint16(body[3:5])
		value, ok := store[id]
		if !ok {
			d.respond(badge.CmdSmallFile, []byte{0x02, seq})
			return
		}
		d.respond(badge.CmdSmallFile, append([]byte{0x00, seq}, value...))
	case 0x04: // delete
		if len(body) < 5 {
			d.respond(badge.CmdSmallFile, []byte{0x01, seq})
			return
		}
		id := binary.BigEndian.Uint16(body[3:5])
		d.mu.Lock()
		delete(store, id)
		d.mu.Unlock()
		d.respond(badge.CmdSmallFile, []byte{0x00, seq})
	default:
		d.respond(badge.CmdSmallFile, []byte{0x01, seq})
	}
}

func (d *Device) handleMetadata(body []byte) {
	if len(body) < 9 {
		return
	}
	seq := body[0]
	d.mu.Lock()
	d.fileSize = binary.BigEndian.Uint32(body[1:5])
	d.fileCrc = binary.BigEndian.Uint16(body[5:7])
	name := body[9:]
	if i := bytes.IndexByte(name, 0x00); i >= 0 {
		name = name[:i]
	}
	d.fileName = string(name)
	d.assembled = make([]byte, d.fileSize)
	d.cursor = int(d.cfg.ChunkSize)
	d.winSeq = 0
	d.windowOpen = false
	d.commitMode = false
	d.dataFrames = 0
	d.seqValid = false
	chunk := d.cfg.ChunkSize
	drop := d.cfg.DropAcks
	d.mu.Unlock()

	resp := []byte{0x00, seq, byte(chunk >> 8), byte(chunk)}
	d.respond(badge.CmdFileMetadata, resp)

	if !drop {
		d.nextWindow()
	}
}

// nextWindow emits the next window ACK. The transfer starts at the
// second chunk; the prefix travels last inside the commit window.
func (d *Device) nextWindow() {
	d.mu.Lock()
	chunk := int(d.cfg.ChunkSize)
	size := int(d.fileSize)
	span := chunk * d.cfg.WindowChunks

	var winSize uint16
	var nextOffset uint32
	if d.cursor < size || !d.windowOpen {
		// Tail window starting at the current cursor.
		remaining := size - d.cursor
		if remaining < 0 {
			remaining = 0
		}
		expect := remaining
		if expect > span {
			expect = span
		}
		winSize = uint16(span)
		nextOffset = uint32(d.cursor)
		d.expectLeft = (expect + chunk - 1) / chunk
		d.windowOpen = true
	} else {
		// Tail fully received: the commit window carries the prefix.
		d.commitMode = true
		commitLen := chunk
		if size < chunk {
			commitLen = size
		}
		winSize = uint16(commitLen)
		nextOffset = 0
		d.expectLeft = 1
	}
	d.winSeq++
	ack := []byte{d.winSeq, 0x00}
	ack = binary.BigEndian.AppendUint16(ack, winSize)
	ack = binary.BigEndian.AppendUint32(ack, nextOffset)
	expectLeft := d.expectLeft
	d.mu.Unlock()

	d.notifyData(badge.NewFrame(badge.FlagNotification, badge.CmdWindowAck, ack).Marshal())

	if expectLeft == 0 {
		// Empty tail window; move straight on.
		d.nextWindow()
	}
}

func (d *Device) handleChunk(body []byte) {
	if len(body) < 5 {
		log.Warnf("[VIRTUAL] short data frame")
		return
	}
	seq, marker, _ := body[0], body[1], body[2]
	sum := binary.BigEndian.Uint16(body[3:5])
	chunk := body[5:]

	if marker != badge.CmdWindowAck {
		log.Warnf("[VIRTUAL] data frame without window marker")
		return
	}
	if crc.Checksum(chunk) != sum {
		log.Warnf("[VIRTUAL] chunk crc mismatch")
		return
	}

	d.mu.Lock()
	if d.seqValid && seq != d.lastSeq+1 {
		log.Warnf("[VIRTUAL] sequence jump x%02x -> x%02x", d.lastSeq, seq)
	}
	d.lastSeq = seq
	d.seqValid = true
	d.dataFrames++

	complete := false
	if d.commitMode {
		copy(d.assembled[0:], chunk)
		d.expectLeft = 0
		complete = true
	} else {
		copy(d.assembled[d.cursor:], chunk)
		d.cursor += len(chunk)
		d.expectLeft--
	}
	expectLeft := d.expectLeft
	d.mu.Unlock()

	if complete {
		d.finishTransfer()
		return
	}
	if expectLeft == 0 {
		d.nextWindow()
	}
}

func (d *Device) finishTransfer() {
	d.mu.Lock()
	ok := crc.Checksum(d.assembled) == d.fileCrc
	devSeq := d.devSeq
	d.mu.Unlock()
	if !ok {
		log.Errorf("[VIRTUAL] whole-file crc mismatch")
	}
	d.notifyData(badge.NewFrame(badge.FlagCommand, badge.CmdFileComplete, []byte{devSeq}).Marshal())
}

func (d *Device) handleResponse(frame badge.Frame) {
	switch frame.Cmd {
	case badge.CmdFileComplete:
		if len(frame.Body) < 4 {
			return
		}
		// status, devSeq, UTF-16LE path, 00 00
		raw := frame.Body[2 : len(frame.Body)-2]
		units := make([]uint16, 0, len(raw)/2)
		for i := 0; i+1 < len(raw); i += 2 {
			units = append(units, uint16(raw[i])|uint16(raw[i+1])<<8)
		}
		d.mu.Lock()
		d.path = string(utf16.Decode(units))
		d.devSeq++
		devSeq := d.devSeq
		status := d.cfg.CloseStatus
		d.mu.Unlock()
		d.notifyData(badge.NewFrame(badge.FlagCommand, badge.CmdSessionClose, []byte{devSeq, status}).Marshal())

	case badge.CmdSessionClose:
		// transfer concluded
	}
}

func (d *Device) handleCtrl(payload []byte) {
	frame, err := badge.UnmarshalQixFrame(payload)
	if err != nil {
		log.Warnf("[VIRTUAL] malformed control frame: %v", err)
		return
	}
	switch frame.Cmd {
	case badge.QixCmdReqData:
		if len(frame.Payload) >= 1 && frame.Payload[0] == 0x80 {
			reply := badge.NewQixFrame(badge.QixFlagIsResponse, badge.QixCmdBattery,
				[]byte{d.cfg.Battery[0], d.cfg.Battery[1]})
			d.notifyCtrl(gatt.SourceCtrlInfo, reply.Marshal())
		}
	case badge.QixCmdScreenInfo:
		reply := badge.NewQixFrame(badge.QixFlagIsResponse, badge.QixCmdScreenRet, d.cfg.ScreenInfo)
		d.notifyCtrl(gatt.SourceCtrlInfo, reply.Marshal())
	case badge.QixCmdPrepare:
		reply := badge.NewQixFrame(badge.QixFlagIsResponse, badge.QixCmdReady, []byte{0x00})
		d.notifyCtrl(gatt.SourceCtrlReady, reply.Marshal())
	}
}

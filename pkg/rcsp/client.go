package rcsp

import (
	"encoding/binary"
	"sync"
	"time"

	badge "github.com/samsamfire/gobadge"
	"github.com/samsamfire/gobadge/pkg/dispatch"
	"github.com/samsamfire/gobadge/pkg/gatt"
	log "github.com/sirupsen/logrus"
)

// RequestTimeout bounds one request/response exchange.
const RequestTimeout = 8 * time.Second

// Client performs the auxiliary request/response operations that share
// the transport with the upload session: capability queries, file
// browsing and the small-file store.
type Client struct {
	mu      sync.Mutex
	tr      *gatt.Transport
	bus     *dispatch.Bus
	seq     byte // 1..255, skips 0 on wrap
	qixSeq  byte // 0..15
	timeout time.Duration
}

func NewClient(tr *gatt.Transport, bus *dispatch.Bus) *Client {
	return &Client{tr: tr, bus: bus, timeout: RequestTimeout}
}

// nextSeq allocates the next request sequence, wrapping away from zero.
func (c *Client) nextSeq() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	if c.seq == 0 {
		c.seq = 1
	}
	return c.seq
}

// nextQixSerial allocates the 4-bit control-channel serial.
func (c *Client) nextQixSerial() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	serial := c.qixSeq
	c.qixSeq = (c.qixSeq + 1) & 0x0F
	return serial
}

// request performs one FE command exchange. The response body is
// returned without its status and sequence bytes.
func (c *Client) request(cmd byte, params []byte) ([]byte, error) {
	seq := c.nextSeq()
	body := make([]byte, 0, 1+len(params))
	body = append(body, seq)
	body = append(body, params...)

	frame := badge.NewFrame(badge.FlagCommand, cmd, body)
	log.Debugf("[RCSP][TX] cmd x%02x seq x%02x % x", cmd, seq, params)
	if err := c.tr.DataWrite(frame.Marshal()); err != nil {
		return nil, err
	}

	resp, err := c.bus.WaitFrame(func(f badge.Frame) bool {
		return f.Flag == badge.FlagResponse && f.Cmd == cmd &&
			len(f.Body) >= 2 && f.Body[1] == seq
	}, c.timeout)
	if err != nil {
		return nil, err
	}
	if resp.Body[0] != 0x00 {
		return nil, &badge.DeviceError{Cmd: cmd, Status: resp.Body[0]}
	}
	return resp.Body[2:], nil
}

// FeatureMap reads the 32-bit capability mask.
func (c *Client) FeatureMap() (uint32, error) {
	data, err := c.request(badge.CmdFeatureMap, nil)
	if err != nil {
		return 0, err
	}
	if len(data) < 4 {
		return 0, badge.ErrResponseMismatch
	}
	return binary.BigEndian.Uint32(data), nil
}

// TargetInfo queries the attribute list selected by mask.
func (c *Client) TargetInfo(mask uint32, platform byte) (*TargetInfo, error) {
	params := make([]byte, 0, 5)
	params = binary.BigEndian.AppendUint32(params, mask)
	params = append(params, platform)
	data, err := c.request(badge.CmdDeviceInfo, params)
	if err != nil {
		return nil, err
	}
	attrs, err := parseAttributes(data)
	if err != nil {
		return nil, err
	}
	info := &TargetInfo{Attributes: attrs}
	info.decode()
	return info, nil
}

// SysInfo queries a function-scoped attribute list.
func (c *Client) SysInfo(function byte, mask uint32) ([]Attribute, error) {
	params := make([]byte, 0, 5)
	params = append(params, function)
	params = binary.BigEndian.AppendUint32(params, mask)
	data, err := c.request(badge.CmdDeviceConfig, params)
	if err != nil {
		return nil, err
	}
	return parseAttributes(data)
}

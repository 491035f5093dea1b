package config

import (
	"fmt"
	"time"

	"github.com/samsamfire/gobadge/pkg/gatt"
	"gopkg.in/ini.v1"
)

// Profile describes one badge model: the characteristic UUIDs of its
// four logical endpoints and the transfer tuning. The compiled-in
// defaults match the common Jieli firmware; an INI profile exists for
// tooling that talks to variants.
type Profile struct {
	DataWriteUUID  string
	DataNotifyUUID string
	CtrlWriteUUID  string
	CtrlNotifyUUID string
	CtrlReadyUUID  string

	ChunkSize  uint16
	MaxPayload int

	AckTimeout        time.Duration
	InitialAckTimeout time.Duration
	WindowTimeout     time.Duration
	ControlTimeout    time.Duration
	HandshakeTimeout  time.Duration
}

// Default returns the built-in profile.
func Default() *Profile {
	return &Profile{
		DataWriteUUID:     gatt.UUIDDataWrite,
		DataNotifyUUID:    gatt.UUIDDataNotify,
		CtrlWriteUUID:     gatt.UUIDCtrlWrite,
		CtrlNotifyUUID:    gatt.UUIDCtrlNotify,
		CtrlReadyUUID:     gatt.UUIDCtrlReady,
		ChunkSize:         490,
		MaxPayload:        2_000_000,
		AckTimeout:        8 * time.Second,
		InitialAckTimeout: 10 * time.Second,
		WindowTimeout:     15 * time.Second,
		ControlTimeout:    3 * time.Second,
		HandshakeTimeout:  5 * time.Second,
	}
}

// Load reads a profile file, filling anything missing from the
// defaults.
func Load(path string) (*Profile, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading profile %v: %w", path, err)
	}
	return fromFile(file)
}

func fromFile(file *ini.File) (*Profile, error) {
	p := Default()

	if section := file.Section("endpoints"); section != nil {
		p.DataWriteUUID = section.Key("data_write").MustString(p.DataWriteUUID)
		p.DataNotifyUUID = section.Key("data_notify").MustString(p.DataNotifyUUID)
		p.CtrlWriteUUID = section.Key("ctrl_write").MustString(p.CtrlWriteUUID)
		p.CtrlNotifyUUID = section.Key("ctrl_notify").MustString(p.CtrlNotifyUUID)
		p.CtrlReadyUUID = section.Key("ctrl_ready").MustString(p.CtrlReadyUUID)
	}

	if section := file.Section("transfer"); section != nil {
		chunk := section.Key("chunk_size").MustInt(int(p.ChunkSize))
		if chunk <= 0 || chunk > 4096 {
			return nil, fmt.Errorf("chunk_size %v out of range", chunk)
		}
		p.ChunkSize = uint16(chunk)
		p.MaxPayload = section.Key("max_payload").MustInt(p.MaxPayload)
		if p.MaxPayload <= 0 {
			return nil, fmt.Errorf("max_payload must be positive")
		}
	}

	if section := file.Section("timeouts"); section != nil {
		ms := func(key string, fallback time.Duration) time.Duration {
			return time.Duration(section.Key(key).MustInt(int(fallback/time.Millisecond))) * time.Millisecond
		}
		p.AckTimeout = ms("ack_ms", p.AckTimeout)
		p.InitialAckTimeout = ms("initial_window_ms", p.InitialAckTimeout)
		p.WindowTimeout = ms("window_ms", p.WindowTimeout)
		p.ControlTimeout = ms("control_ms", p.ControlTimeout)
		p.HandshakeTimeout = ms("handshake_ms", p.HandshakeTimeout)
	}

	return p, nil
}

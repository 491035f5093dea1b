package rcsp

import (
	"encoding/binary"

	badge "github.com/samsamfire/gobadge"
)

// Attribute types returned by the target-info query.
const (
	AttrName       byte = 0x02
	AttrVersion    byte = 0x03
	AttrBattery    byte = 0x04
	AttrVidPid     byte = 0x05
	AttrFeatureMap byte = 0x06
	AttrPlatform   byte = 0x09
)

// Attribute is one TLV entry: a one-byte length covering type and
// value, the type, then the value.
type Attribute struct {
	Type  byte
	Value []byte
}

// parseAttributes walks a TLV list. Unknown types are preserved raw.
func parseAttributes(data []byte) ([]Attribute, error) {
	var attrs []Attribute
	for len(data) > 0 {
		if len(data) < 2 {
			return nil, badge.ErrResponseMismatch
		}
		length := int(data[0])
		if length < 1 || 1+length > len(data) {
			return nil, badge.ErrResponseMismatch
		}
		value := make([]byte, length-1)
		copy(value, data[2:1+length])
		attrs = append(attrs, Attribute{Type: data[1], Value: value})
		data = data[1+length:]
	}
	return attrs, nil
}

// marshalAttributes is the inverse, used by the emulator and tests.
func marshalAttributes(attrs []Attribute) []byte {
	var out []byte
	for _, a := range attrs {
		out = append(out, byte(1+len(a.Value)), a.Type)
		out = append(out, a.Value...)
	}
	return out
}

// TargetInfo is the decoded attribute list of a device.
type TargetInfo struct {
	Attributes []Attribute

	Name       string
	Version    string
	Battery    byte
	Vid        uint16
	Pid        uint16
	FeatureMap uint32
	Platform   byte
}

func (t *TargetInfo) decode() {
	for _, a := range t.Attributes {
		switch a.Type {
		case AttrName:
			t.Name = string(a.Value)
		case AttrVersion:
			t.Version = string(a.Value)
		case AttrBattery:
			if len(a.Value) >= 1 {
				t.Battery = a.Value[0]
			}
		case AttrVidPid:
			if len(a.Value) >= 4 {
				t.Vid = binary.BigEndian.Uint16(a.Value[0:2])
				t.Pid = binary.BigEndian.Uint16(a.Value[2:4])
			}
		case AttrFeatureMap:
			if len(a.Value) >= 4 {
				t.FeatureMap = binary.BigEndian.Uint32(a.Value)
			}
		case AttrPlatform:
			if len(a.Value) >= 1 {
				t.Platform = a.Value[0]
			}
		}
	}
}

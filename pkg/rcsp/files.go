package rcsp

import (
	"encoding/binary"

	badge "github.com/samsamfire/gobadge"
)

// Directory entry types reported by the file browser.
const (
	EntryTypeFile byte = 0x00
	EntryTypeDir  byte = 0x01
)

// DirEntry is one entry of a file browse response:
// type(1) | handler(BE32) | nameLen(1) | name.
type DirEntry struct {
	Type    byte
	Handler uint32
	Name    string
}

// BrowseRequest parameterizes a directory listing.
type BrowseRequest struct {
	Type       byte
	ReadNum    byte
	StartIndex uint16
	DevHandler uint32
	Path       string
}

// StartFileBrowse lists up to ReadNum entries under the given path.
func (c *Client) StartFileBrowse(req BrowseRequest) ([]DirEntry, error) {
	params := make([]byte, 0, 10+len(req.Path))
	params = append(params, req.Type, req.ReadNum)
	params = binary.BigEndian.AppendUint16(params, req.StartIndex)
	params = binary.BigEndian.AppendUint32(params, req.DevHandler)
	params = binary.LittleEndian.AppendUint16(params, uint16(len(req.Path)))
	params = append(params, req.Path...)

	data, err := c.request(badge.CmdFileBrowse, params)
	if err != nil {
		return nil, err
	}
	return parseDirEntries(data)
}

// StopFileBrowse terminates an ongoing listing.
func (c *Client) StopFileBrowse() error {
	_, err := c.request(badge.CmdFileBrowseStop, nil)
	return err
}

func parseDirEntries(data []byte) ([]DirEntry, error) {
	var entries []DirEntry
	for len(data) > 0 {
		if len(data) < 6 {
			return nil, badge.ErrResponseMismatch
		}
		nameLen := int(data[5])
		if 6+nameLen > len(data) {
			return nil, badge.ErrResponseMismatch
		}
		entries = append(entries, DirEntry{
			Type:    data[0],
			Handler: binary.BigEndian.Uint32(data[1:5]),
			Name:    string(data[6 : 6+nameLen]),
		})
		data = data[6+nameLen:]
	}
	return entries, nil
}

func marshalDirEntries(entries []DirEntry) []byte {
	var out []byte
	for _, e := range entries {
		out = append(out, e.Type)
		out = binary.BigEndian.AppendUint32(out, e.Handler)
		out = append(out, byte(len(e.Name)))
		out = append(out, e.Name...)
	}
	return out
}

// Small-file operations.
const (
	smallFileQuery  byte = 0x00
	smallFileRead   byte = 0x01
	smallFileDelete byte = 0x04
)

// Small-file record types.
const (
	SmallFileContact byte = 0x01
	SmallFileNote    byte = 0x02
	SmallFileWeather byte = 0x03
	SmallFileAlarm   byte = 0x04
)

// SmallFileQuery returns the number of records of the given type.
func (c *Client) SmallFileQuery(fileType byte) (uint16, error) {
	data, err := c.request(badge.CmdSmallFile, []byte{smallFileQuery, fileType})
	if err != nil {
		return 0, err
	}
	if len(data) < 2 {
		return 0, badge.ErrResponseMismatch
	}
	return binary.BigEndian.Uint16(data), nil
}

// SmallFileRead fetches one record addressed by (type, id) in a single
// exchange.
func (c *Client) SmallFileRead(fileType byte, id uint16) ([]byte, error) {
	params := make([]byte, 0, 4)
	params = append(params, smallFileRead, fileType)
	params = binary.BigEndian.AppendUint16(params, id)
	return c.request(badge.CmdSmallFile, params)
}

// SmallFileDelete removes one record.
func (c *Client) SmallFileDelete(fileType byte, id uint16) error {
	params := make([]byte, 0, 4)
	params = append(params, smallFileDelete, fileType)
	params = binary.BigEndian.AppendUint16(params, id)
	_, err := c.request(badge.CmdSmallFile, params)
	return err
}

package session

import (
	"time"
	"unicode/utf16"
)

// pathMarker is the first character of every artifact path the badge
// stores; the remainder is the timestamp plus the kind extension.
const pathMarker = '啜'

// pathReplyBody builds the cmd 0x20 response body: status, device
// sequence, the UTF-16LE path and a two-byte terminator.
func pathReplyBody(devSeq byte, ts time.Time, kind Kind) []byte {
	name := string(pathMarker) + ts.Format("20060102150405") + kind.Ext()
	units := utf16.Encode([]rune(name))

	body := make([]byte, 0, 2+2*len(units)+2)
	body = append(body, 0x00, devSeq)
	for _, u := range units {
		body = append(body, byte(u), byte(u>>8))
	}
	body = append(body, 0x00, 0x00)
	return body
}

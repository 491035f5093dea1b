package jieli

import (
	"crypto/rand"
	"fmt"
)

// Auth message type prefixes exchanged as raw payloads on the data
// channel before any framed traffic.
const (
	AuthTypeRandom    byte = 0x00
	AuthTypeEncrypted byte = 0x01
	AuthTypePass      byte = 0x02
)

// PassToken is the success token both sides send to conclude their half
// of the handshake.
var PassToken = []byte{AuthTypePass, 'p', 'a', 's', 's'}

// RandomAuthMessage builds the opening handshake message: prefix 0x00
// followed by 16 bytes from a cryptographically strong source.
func RandomAuthMessage() ([17]byte, error) {
	var msg [17]byte
	msg[0] = AuthTypeRandom
	if _, err := rand.Read(msg[1:]); err != nil {
		return msg, fmt.Errorf("reading random source: %w", err)
	}
	return msg, nil
}

// ChallengeResponse answers a device challenge: prefix 0x01 followed by
// the challenge encrypted under the static key.
func ChallengeResponse(challenge [16]byte) [17]byte {
	var msg [17]byte
	msg[0] = AuthTypeEncrypted
	enc := Encrypt(challenge, StaticKey)
	copy(msg[1:], enc[:])
	return msg
}

package jieli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testChallenge = [16]byte{
	0xB6, 0xE0, 0x80, 0xEC, 0xAF, 0xF3, 0x22, 0x91,
	0x6D, 0x88, 0xFA, 0xD5, 0xAA, 0x34, 0xC2, 0xAC,
}

// Pinned output of Encrypt for the embedded tables and static key.
var testCiphertext = [16]byte{
	0x00, 0xCC, 0x69, 0xC7, 0x8E, 0x42, 0x28, 0xB4,
	0x27, 0xA2, 0x57, 0x7F, 0x8C, 0x51, 0xCF, 0x0F,
}

func TestSboxInverse(t *testing.T) {
	for i := 0; i < 256; i++ {
		assert.EqualValues(t, i, sbox[isbox[i]])
		assert.EqualValues(t, i, isbox[sbox[i]])
	}
}

func TestEncryptVector(t *testing.T) {
	assert.Equal(t, testCiphertext, Encrypt(testChallenge, StaticKey))
}

func TestEncryptDeterministic(t *testing.T) {
	zero := Encrypt([16]byte{}, StaticKey)
	assert.Equal(t, [16]byte{
		0x92, 0x52, 0x29, 0x7A, 0xF2, 0x86, 0x37, 0xB1,
		0x96, 0xE9, 0x60, 0x66, 0xFE, 0x21, 0x95, 0x6C,
	}, zero)
	assert.Equal(t, zero, Encrypt([16]byte{}, StaticKey))
}

func TestEncryptKeyDependent(t *testing.T) {
	other := StaticKey
	other[0] ^= 0x01
	assert.NotEqual(t, Encrypt(testChallenge, StaticKey), Encrypt(testChallenge, other))
}

func TestChallengeResponse(t *testing.T) {
	msg := ChallengeResponse(testChallenge)
	assert.Equal(t, AuthTypeEncrypted, msg[0])
	assert.Equal(t, testCiphertext[:], msg[1:])
}

func TestRandomAuthMessage(t *testing.T) {
	m1, err := RandomAuthMessage()
	assert.Nil(t, err)
	assert.Equal(t, AuthTypeRandom, m1[0])
	m2, err := RandomAuthMessage()
	assert.Nil(t, err)
	assert.NotEqual(t, m1[1:], m2[1:])
}

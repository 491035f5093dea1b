package crc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSingle(t *testing.T) {
	crc := CRC16(0)
	crc.Single(10)
	assert.EqualValues(t, 0xA14A, crc)
}

func TestChecksum(t *testing.T) {
	assert.EqualValues(t, 0x31C3, Checksum([]byte("123456789")))
	assert.EqualValues(t, 0x0000, Checksum(nil))
}

func TestIncrementalMatchesOneShot(t *testing.T) {
	data := make([]byte, 490)
	for i := range data {
		data[i] = byte(i % 251)
	}
	crc := CRC16(0)
	crc.Block(data[:100])
	crc.Block(data[100:])
	assert.Equal(t, Checksum(data), crc.Crc())
	assert.EqualValues(t, 0x6A4D, crc.Crc())
}

func TestChecksumIdempotent(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}
	assert.Equal(t, Checksum(data), Checksum(data))
}

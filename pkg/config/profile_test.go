package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, "AE01", p.DataWriteUUID)
	assert.EqualValues(t, 490, p.ChunkSize)
	assert.Equal(t, 10*time.Second, p.InitialAckTimeout)
}

func TestLoad(t *testing.T) {
	p, err := Load("testdata/badge.ini")
	require.Nil(t, err)
	assert.Equal(t, "FD04", p.CtrlWriteUUID)
	assert.Equal(t, "FD05", p.CtrlNotifyUUID)
	assert.EqualValues(t, 980, p.ChunkSize)
	assert.Equal(t, 4*time.Second, p.AckTimeout)
	assert.Equal(t, 12*time.Second, p.InitialAckTimeout)
	// untouched keys fall back to defaults
	assert.Equal(t, "FD03", p.CtrlReadyUUID)
	assert.Equal(t, 15*time.Second, p.WindowTimeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/absent.ini")
	assert.NotNil(t, err)
}

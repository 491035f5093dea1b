package rcsp

import (
	"testing"

	"github.com/samsamfire/gobadge/pkg/dispatch"
	"github.com/samsamfire/gobadge/pkg/gatt/virtual"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createClientTest(cfg *virtual.Config) (*Client, *virtual.Device) {
	device := virtual.NewDevice(cfg)
	tr := device.Connect()
	bus := dispatch.New(tr.DataWrite)
	tr.Subscribe(bus)
	return NewClient(tr, bus), device
}

func TestFeatureMap(t *testing.T) {
	client, device := createClientTest(&virtual.Config{FeatureMap: 0xDEADBEEF})
	defer device.Close()

	mask, err := client.FeatureMap()
	require.Nil(t, err)
	assert.EqualValues(t, 0xDEADBEEF, mask)
}

func TestTargetInfo(t *testing.T) {
	client, device := createClientTest(nil)
	defer device.Close()

	info, err := client.TargetInfo(0xFFFFFFFF, 0x02)
	require.Nil(t, err)
	assert.Equal(t, "LED-BADGE", info.Name)
	assert.Equal(t, "1.2.0", info.Version)
	assert.EqualValues(t, 0x64, info.Battery)
	assert.NotZero(t, info.FeatureMap)
	assert.EqualValues(t, 0x02, info.Platform)
}

func TestSysInfo(t *testing.T) {
	client, device := createClientTest(nil)
	defer device.Close()

	attrs, err := client.SysInfo(0x00, 0xFFFFFFFF)
	require.Nil(t, err)
	require.Len(t, attrs, 1)
	assert.Equal(t, AttrPlatform, attrs[0].Type)
}

func TestSequenceSkipsZero(t *testing.T) {
	client, device := createClientTest(nil)
	defer device.Close()

	client.seq = 0xFE
	_, err := client.FeatureMap() // consumes 0xFF
	require.Nil(t, err)
	_, err = client.FeatureMap() // wraps, must skip 0x00
	require.Nil(t, err)
	assert.EqualValues(t, 0x01, client.seq)
}

func TestFileBrowse(t *testing.T) {
	client, device := createClientTest(nil)
	defer device.Close()

	seeded := []DirEntry{
		{Type: EntryTypeDir, Handler: 0x01, Name: "IMAGE"},
		{Type: EntryTypeFile, Handler: 0x1002, Name: "20240602.jpg"},
	}
	device.SetDirEntries(marshalDirEntries(seeded))

	entries, err := client.StartFileBrowse(BrowseRequest{Type: 0x00, ReadNum: 10, Path: "/"})
	require.Nil(t, err)
	assert.Equal(t, seeded, entries)

	assert.Nil(t, client.StopFileBrowse())
}

func TestSmallFiles(t *testing.T) {
	client, device := createClientTest(nil)
	defer device.Close()

	device.PutSmallFile(SmallFileContact, 1, []byte("alice"))
	device.PutSmallFile(SmallFileContact, 2, []byte("bob"))

	count, err := client.SmallFileQuery(SmallFileContact)
	require.Nil(t, err)
	assert.EqualValues(t, 2, count)

	value, err := client.SmallFileRead(SmallFileContact, 1)
	require.Nil(t, err)
	assert.Equal(t, []byte("alice"), value)

	require.Nil(t, client.SmallFileDelete(SmallFileContact, 1))
	count, err = client.SmallFileQuery(SmallFileContact)
	require.Nil(t, err)
	assert.EqualValues(t, 1, count)

	_, err = client.SmallFileRead(SmallFileContact, 1)
	assert.NotNil(t, err)
}

func TestBattery(t *testing.T) {
	client, device := createClientTest(&virtual.Config{Battery: [2]byte{0x00, 0x42}})
	defer device.Close()

	state, err := client.Battery()
	require.Nil(t, err)
	assert.EqualValues(t, 0x42, state.Level)
}

func TestScreen(t *testing.T) {
	client, device := createClientTest(nil)
	defer device.Close()

	info, err := client.Screen()
	require.Nil(t, err)
	assert.EqualValues(t, 368, info.Width)
	assert.EqualValues(t, 368, info.Height)
	assert.EqualValues(t, 2*1024*1024, info.Memory)
}

func TestAttributesRoundTrip(t *testing.T) {
	attrs := []Attribute{
		{Type: AttrName, Value: []byte("X")},
		{Type: AttrFeatureMap, Value: []byte{0x00, 0x00, 0x0C, 0x81}},
	}
	parsed, err := parseAttributes(marshalAttributes(attrs))
	require.Nil(t, err)
	assert.Equal(t, attrs, parsed)
}

func TestParseAttributesRejectsTruncated(t *testing.T) {
	_, err := parseAttributes([]byte{0x05, 0x02, 'a'})
	assert.NotNil(t, err)
}

func TestParseScreenInfo(t *testing.T) {
	payload := marshalScreenInfo(ScreenInfo{Width: 368, Height: 368, PicWidth: 368, PicHeight: 368, Memory: 0x200000})
	info, err := parseScreenInfo(payload)
	require.Nil(t, err)
	assert.EqualValues(t, 368, info.PicWidth)

	_, err = parseScreenInfo(payload[:5])
	assert.NotNil(t, err)
}

// Package badge implements the link-layer protocol spoken by Jieli RCSP
// based BLE LED badges: the FE framing used on the data channel, the 9E
// framing used on the control channel, and the shared error taxonomy.
//
// The higher layers live in pkg/: gatt (endpoint abstraction), dispatch
// (notification demultiplexing), auth (mutual handshake), session (file
// upload state machine) and rcsp (auxiliary request/response operations).
package badge

// Frame flag values.
const (
	FlagResponse     byte = 0x00 // host or device acknowledgment
	FlagNotification byte = 0x80 // unsolicited data, window ACKs
	FlagCommand      byte = 0xC0 // device or host initiated command
)

// FE command identifiers.
const (
	CmdData           byte = 0x01
	CmdFeatureMap     byte = 0x02
	CmdDeviceInfo     byte = 0x03
	CmdResetFlag      byte = 0x06
	CmdDeviceConfig   byte = 0x07
	CmdFileBrowse     byte = 0x0C
	CmdFileBrowseStop byte = 0x0D
	CmdFileMetadata   byte = 0x1B
	CmdSessionClose   byte = 0x1C
	CmdWindowAck      byte = 0x1D
	CmdFileComplete   byte = 0x20
	CmdSessionOpen    byte = 0x21
	CmdTransferParams byte = 0x27
	CmdSmallFile      byte = 0x28
)

// 9E command identifiers used on the control channel.
const (
	QixCmdTimeSet    byte = 0x02
	QixCmdSettings   byte = 0x16
	QixCmdDisplay    byte = 0x20
	QixCmdBattery    byte = 0x27
	QixCmdReqData    byte = 0x29
	QixCmdAux        byte = 0x60
	QixCmdScreenInfo byte = 0xC6
	QixCmdScreenRet  byte = 0xC7
	QixCmdPrepare    byte = 0xDC
	QixCmdReady      byte = 0xE6
	QixCmdVendor     byte = 0xFF
)

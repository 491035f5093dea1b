package session

import (
	badge "github.com/samsamfire/gobadge"
	"github.com/samsamfire/gobadge/pkg/gatt"
	log "github.com/sirupsen/logrus"
)

// The control-channel bootstrap interleaved with the FE phases. All of
// it is best-effort: short waits, failures never abort the upload.

func (s *Session) qixWrite(frame badge.QixFrame) {
	if err := s.tr.CtrlWrite(frame.Marshal()); err != nil {
		log.Warnf("[SESSION] control write cmd x%02x failed: %v", frame.Cmd, err)
	}
}

// controlBootstrap pushes the wall clock and the fixed settings value.
func (s *Session) controlBootstrap() {
	now := s.clock()
	year := now.Year()
	payload := []byte{
		byte(year), byte(year >> 8),
		byte(now.Month()), byte(now.Day()),
		0x00,
		byte(now.Hour()), byte(now.Minute()),
	}
	s.qixWrite(badge.NewQixFrame(badge.QixFlagIsRequest, badge.QixCmdTimeSet, payload))
	s.qixWrite(badge.NewQixFrame(badge.QixFlagIsRequest, badge.QixCmdSettings, []byte{0x01}))
}

// controlStatus requests battery and display information; the answers
// arrive as notifications on the control info channel.
func (s *Session) controlStatus() {
	reqFlags := badge.QixFlagIsRequest | badge.QixFlagNeedResponse | badge.QixFlagIsResponse

	s.qixWrite(badge.NewQixFrame(reqFlags, badge.QixCmdReqData, []byte{0x80}))
	if _, err := s.bus.WaitQix(gatt.SourceCtrlInfo, func(q badge.QixFrame) bool {
		return q.Cmd == badge.QixCmdBattery
	}, s.controlTimeout); err != nil {
		log.Warnf("[SESSION] no battery report: %v", err)
	}

	s.qixWrite(badge.NewQixFrame(reqFlags, badge.QixCmdScreenInfo, []byte{0x01}))
	if _, err := s.bus.WaitQix(gatt.SourceCtrlInfo, func(q badge.QixFrame) bool {
		return q.Cmd == badge.QixCmdScreenRet
	}, s.controlTimeout); err != nil {
		log.Warnf("[SESSION] no screen info: %v", err)
	}

	// Vendor-specific housekeeping writes, fire and forget.
	aux := make([]byte, 13)
	aux[0] = 0x03
	s.qixWrite(badge.NewQixFrame(reqFlags, badge.QixCmdAux, aux))
	s.qixWrite(badge.NewQixFrame(badge.QixFlagIsRequest, badge.QixCmdDisplay, []byte{0xFF, 0x07}))
	s.qixWrite(badge.NewQixFrame(badge.QixFlagIsRequest, badge.QixCmdVendor, []byte{0x22, 0x00}))
	s.qixWrite(badge.NewQixFrame(badge.QixFlagIsRequest, badge.QixCmdVendor, []byte{0x24, 0x00}))
}

// readySignal asks the device to prepare for the transfer and waits for
// its ready notification.
func (s *Session) readySignal() {
	reqFlags := badge.QixFlagIsRequest | badge.QixFlagNeedResponse | badge.QixFlagIsResponse
	s.qixWrite(badge.NewQixFrame(reqFlags, badge.QixCmdPrepare, []byte{0x0C}))
	if _, err := s.bus.WaitQix(gatt.SourceCtrlReady, func(q badge.QixFrame) bool {
		return q.Cmd == badge.QixCmdReady
	}, s.controlTimeout); err != nil {
		log.Warnf("[SESSION] no ready signal: %v", err)
	}
}

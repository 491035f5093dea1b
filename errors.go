package badge

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalArgument  = errors.New("error in function arguments")
	ErrUnavailable      = errors.New("transport not present or not connected")
	ErrTimeout          = errors.New("wait timed out")
	ErrFrameSize        = errors.New("frame is too short")
	ErrFrameMagic       = errors.New("wrong frame magic")
	ErrFrameTerminator  = errors.New("wrong frame terminator")
	ErrFrameLength      = errors.New("declared length does not match body length")
	ErrQixChecksum      = errors.New("additive checksum does not match")
	ErrAuthFailed       = errors.New("device rejected mutual authentication")
	ErrCancelled        = errors.New("operation cancelled by host")
	ErrPayloadSize      = errors.New("payload size out of accepted range")
	ErrTransferActive   = errors.New("a transfer is already in progress")
	ErrResponseMismatch = errors.New("response does not match request")
)

// DeviceError carries a non-zero status byte returned by the device.
// Terminal for the operation that observed it.
type DeviceError struct {
	Cmd    byte
	Status byte
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device returned status x%02x for cmd x%02x", e.Status, e.Cmd)
}

// PhaseError wraps a failure with the upload phase and opcode it
// occurred in, so callers can surface both.
type PhaseError struct {
	Phase string
	Cmd   byte
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s (cmd x%02x): %v", e.Phase, e.Cmd, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

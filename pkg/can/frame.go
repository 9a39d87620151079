// Package can defines the frame-level types and transport boundary
// that the ISO-TP and UDS layers are built on, plus a production
// transport over Linux SocketCAN.
package can

import "fmt"

// CanFrame is a single CAN frame: an 11- or 29-bit arbitration id and
// up to 8 data bytes.
type CanFrame struct {
	ArbitrationID uint32
	Length        uint8
	Data          [8]byte
}

// Payload returns the frame's data bytes, truncated to Length.
func (f CanFrame) Payload() []byte {
	return f.Data[:f.Length]
}

// NewCanFrame builds a frame from an arbitration id and payload bytes.
// Payload must be 0..=8 bytes.
func NewCanFrame(arbitrationID uint32, payload []byte) CanFrame {
	var f CanFrame
	f.ArbitrationID = arbitrationID
	f.Length = uint8(len(payload))
	copy(f.Data[:], payload)
	return f
}

// Addressing distinguishes 11-bit (standard) from 29-bit (extended)
// CAN arbitration ids. It is fixed per channel, not inferred from a
// given id's numeric value, since a legal 11-bit id and a legal
// 29-bit id can overlap numerically.
type Addressing int

const (
	Standard11Bit Addressing = iota
	Extended29Bit
)

func (a Addressing) String() string {
	switch a {
	case Standard11Bit:
		return "standard-11-bit"
	case Extended29Bit:
		return "extended-29-bit"
	default:
		return "unknown-addressing"
	}
}

const (
	maxStandardID = 0x7FF
	maxExtendedID = 0x1FFFFFFF
)

// ModuleAddress identifies one ECU on the bus: requests go to
// RequestID, responses are accepted from ResponseID.
type ModuleAddress struct {
	RequestID  uint32
	ResponseID uint32
	Addressing Addressing
}

// Validate checks that both ids fit within the addressing mode's
// range. The core never enforces a particular request/response
// pairing convention (e.g. FCA's +8 offset) beyond this.
func (m ModuleAddress) Validate() error {
	max := uint32(maxStandardID)
	if m.Addressing == Extended29Bit {
		max = maxExtendedID
	}
	if m.RequestID > max {
		return fmt.Errorf("can: request id %#x exceeds %v range", m.RequestID, m.Addressing)
	}
	if m.ResponseID > max {
		return fmt.Errorf("can: response id %#x exceeds %v range", m.ResponseID, m.Addressing)
	}
	return nil
}

// PaddingConfig is a channel-level profile option: whether frames
// shorter than 8 bytes are padded, and with which byte. Some ECUs
// reject unpadded frames; others reject a particular padding byte.
type PaddingConfig struct {
	Enabled bool
	Byte    byte
}

// DefaultPadding matches the common ISO 15765 profile: pad to 8 bytes
// with 0x00.
func DefaultPadding() PaddingConfig {
	return PaddingConfig{Enabled: true, Byte: 0x00}
}

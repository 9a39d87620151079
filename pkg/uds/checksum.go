package uds

import "github.com/Dsmasal14/FcaDiag/internal/crc"

// ChecksumRoutine builds a RoutineControl request that appends a
// CRC16/CCITT of data, big-endian, to the routine's parameter bytes.
// This is one concrete way to build a RoutineControl intent (real
// ECUs commonly verify a calibration block's checksum this way before
// flashing or activating it); it does not replace the general
// RoutineControl builder.
func ChecksumRoutine(sub byte, routineID uint16, data []byte) Request {
	var sum crc.CRC16
	sum.Block(data)
	params := []byte{byte(sum >> 8), byte(sum)}
	return RoutineControl(sub, routineID, params)
}

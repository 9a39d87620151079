package uds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticSessionControlBytes(t *testing.T) {
	req := DiagnosticSessionControl(0x03)
	assert.Equal(t, []byte{0x10, 0x03}, req.Bytes())
}

func TestReadDataByIdentifierBytes(t *testing.T) {
	req, err := ReadDataByIdentifier(0xF190)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x22, 0xF1, 0x90}, req.Bytes())
}

func TestReadDataByIdentifierRejectsEmpty(t *testing.T) {
	_, err := ReadDataByIdentifier()
	assert.ErrorIs(t, err, ErrEmptyIdentifiers)
}

func TestSecurityAccessRequestSeedRejectsEvenLevel(t *testing.T) {
	_, err := SecurityAccessRequestSeed(4)
	assert.ErrorIs(t, err, ErrSecurityLevel)
}

func TestSecurityAccessSendKeyBytes(t *testing.T) {
	req, err := SecurityAccessSendKey(5, []byte{0xB5, 0xD9, 0xF5, 0xC6})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x27, 0x06, 0xB5, 0xD9, 0xF5, 0xC6}, req.Bytes())
}

func TestClearDiagnosticInformationBytes(t *testing.T) {
	req := ClearDiagnosticInformation(0xFFFFFF)
	assert.Equal(t, []byte{0x14, 0xFF, 0xFF, 0xFF}, req.Bytes())
}

func TestTesterPresentBytes(t *testing.T) {
	assert.Equal(t, []byte{0x3E, 0x00}, TesterPresent(false).Bytes())
	assert.Equal(t, []byte{0x3E, 0x80}, TesterPresent(true).Bytes())
}

func TestChecksumRoutineAppendsCRC(t *testing.T) {
	req := ChecksumRoutine(0x01, 0x0203, []byte{10})
	// CRC16/CCITT(0) over a single byte 10 is 0xA14A (verified against
	// internal/crc's own test fixture).
	assert.Equal(t, []byte{0x31, 0x01, 0x02, 0x03, 0xA1, 0x4A}, req.Bytes())
}

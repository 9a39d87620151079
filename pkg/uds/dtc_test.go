package uds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDTCsScenario(t *testing.T) {
	// Positive response body to ReadDtcInformation(0x02, 0xFF), per the
	// reassembled payload "59 02 FF 03 00 00 08 01 71 00 08".
	body := []byte{0x02, 0xFF, 0x03, 0x00, 0x00, 0x08, 0x01, 0x71, 0x00, 0x08}
	dtcs := ParseDTCs(body)
	if assert.Len(t, dtcs, 2) {
		assert.Equal(t, uint32(0x030000), dtcs[0].RawCode)
		assert.Equal(t, byte(0x08), dtcs[0].Status)
		assert.Equal(t, "P0300", dtcs[0].Display())
		assert.True(t, dtcs[0].Confirmed())

		assert.Equal(t, uint32(0x017100), dtcs[1].RawCode)
		assert.Equal(t, "P0171", dtcs[1].Display())
	}
}

func TestParseDTCsShortBodyIsEmpty(t *testing.T) {
	assert.Empty(t, ParseDTCs([]byte{0x02}))
	assert.Empty(t, ParseDTCs(nil))
}

func TestParseDTCsIgnoresTrailingPartialRecord(t *testing.T) {
	body := []byte{0x02, 0xFF, 0x03, 0x00, 0x00, 0x08, 0xAA, 0xBB}
	dtcs := ParseDTCs(body)
	assert.Len(t, dtcs, 1)
}

func TestDisplayDeterministic(t *testing.T) {
	dtc := DiagnosticTroubleCode{RawCode: 0x0A1200, Status: 0}
	first := dtc.Display()
	second := dtc.Display()
	assert.Equal(t, first, second)
}

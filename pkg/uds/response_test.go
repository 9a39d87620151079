package uds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResponsePositive(t *testing.T) {
	resp := ParseResponse(0x22, []byte{0x62, 0xF1, 0x90, 0x31})
	assert.Equal(t, Positive, resp.Kind)
	assert.Equal(t, []byte{0xF1, 0x90, 0x31}, resp.Body)
}

func TestParseResponseNegative(t *testing.T) {
	resp := ParseResponse(0x22, []byte{0x7F, 0x22, 0x31})
	assert.Equal(t, Negative, resp.Kind)
	assert.Equal(t, RequestOutOfRange, resp.Code)
	assert.Equal(t, byte(0x22), resp.ServiceID)
}

func TestParseResponseEmptyIsSyntheticGeneralReject(t *testing.T) {
	resp := ParseResponse(0x22, nil)
	assert.Equal(t, Negative, resp.Kind)
	assert.Equal(t, GeneralReject, resp.Code)
}

func TestParseResponseUnrecognisedFirstByte(t *testing.T) {
	resp := ParseResponse(0x22, []byte{0x99, 0x00})
	assert.Equal(t, Negative, resp.Kind)
	assert.Equal(t, GeneralReject, resp.Code)
}

func TestParseResponsePositiveNegativeDisjoint(t *testing.T) {
	for b := 0; b < 256; b++ {
		first := byte(b)
		posRaw := []byte{first}
		negRaw := []byte{0x7F, 0x22, 0x10}
		pos := ParseResponse(first-0x40, posRaw)
		neg := ParseResponse(0x22, negRaw)
		if first == 0x7F {
			continue // 0x7F is reserved for negative framing, not a valid service+0x40
		}
		assert.Equal(t, Positive, pos.Kind)
		assert.Equal(t, Negative, neg.Kind)
	}
}

func TestIsPending(t *testing.T) {
	resp := ParseResponse(0x22, []byte{0x7F, 0x22, 0x78})
	assert.True(t, resp.IsPending())
}

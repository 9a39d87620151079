package security

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dsmasal14/FcaDiag/internal/cantest"
	"github.com/Dsmasal14/FcaDiag/pkg/can"
	"github.com/Dsmasal14/FcaDiag/pkg/isotp"
	"github.com/Dsmasal14/FcaDiag/pkg/uds"
)

var testAddr = can.ModuleAddress{RequestID: 0x7E0, ResponseID: 0x7E8, Addressing: can.Standard11Bit}

// ecuScript answers one request per entry in responses, in order: a
// fresh RequestSeed or SendKey transaction each time.
func ecuScript(t *testing.T, ecuSide can.FrameTransport, addr can.ModuleAddress, responses [][]byte) {
	t.Helper()
	swapped := can.ModuleAddress{RequestID: addr.ResponseID, ResponseID: addr.RequestID, Addressing: addr.Addressing}
	for _, resp := range responses {
		ecuSide.SetFilter(addr.RequestID)
		frame, err := ecuSide.Recv(time.Now().Add(2 * time.Second))
		require.NoError(t, err)
		require.NotNil(t, frame)

		enc := isotp.NewEncoder(isotp.DefaultEncoderConfig(), nil)
		require.NoError(t, enc.Send(context.Background(), ecuSide, swapped, resp))
	}
}

// S6: seed exchange followed by an accepted key.
func TestUnlockSeedKeySuccess(t *testing.T) {
	clientSide, ecuSide := cantest.NewLoopbackPair()
	seedResp := []byte{0x67, 0x05, 0xCC, 0x55, 0x4A, 0xF6}
	keyResp := []byte{0x67, 0x06}
	go ecuScript(t, ecuSide, testAddr, [][]byte{seedResp, keyResp})

	derive := func(seed []byte, level byte) ([]byte, error) {
		assert.Equal(t, []byte{0xCC, 0x55, 0x4A, 0xF6}, seed)
		assert.Equal(t, byte(5), level)
		return []byte{0xB5, 0xD9, 0xF5, 0xC6}, nil
	}

	c := uds.NewClient(clientSide, testAddr)
	ctrl := NewController(c, derive, nil)
	obs, err := ctrl.Unlock(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, obs.Accepted)
	assert.Equal(t, []byte{0xCC, 0x55, 0x4A, 0xF6}, obs.Seed)
	assert.Equal(t, []byte{0xB5, 0xD9, 0xF5, 0xC6}, obs.Key)
}

// Testable property 8: an all-zero seed short-circuits send-key.
func TestUnlockSeedOfZerosShortcut(t *testing.T) {
	clientSide, ecuSide := cantest.NewLoopbackPair()
	seedResp := []byte{0x67, 0x05, 0x00, 0x00, 0x00, 0x00}
	go ecuScript(t, ecuSide, testAddr, [][]byte{seedResp})

	called := false
	derive := func(seed []byte, level byte) ([]byte, error) {
		called = true
		return nil, nil
	}

	c := uds.NewClient(clientSide, testAddr)
	ctrl := NewController(c, derive, nil)
	obs, err := ctrl.Unlock(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, obs.Accepted)
	assert.False(t, called, "KeyDerivation must not be invoked when the seed is all zeros")
}

func TestUnlockInvalidKey(t *testing.T) {
	clientSide, ecuSide := cantest.NewLoopbackPair()
	seedResp := []byte{0x67, 0x05, 0x01, 0x02}
	keyResp := []byte{0x7F, 0x27, 0x35} // InvalidKey
	go ecuScript(t, ecuSide, testAddr, [][]byte{seedResp, keyResp})

	derive := func(seed []byte, level byte) ([]byte, error) {
		return []byte{0xFF, 0xFF}, nil
	}

	c := uds.NewClient(clientSide, testAddr)
	ctrl := NewController(c, derive, nil)
	obs, err := ctrl.Unlock(context.Background(), 5)
	require.Error(t, err)
	assert.False(t, obs.Accepted)
	assert.Equal(t, uds.InvalidKey, obs.NRC)
	diagErr, ok := err.(*uds.DiagError)
	require.True(t, ok)
	assert.Equal(t, uds.InvalidKey, diagErr.Code)
}

func TestUnlockRejectsEvenLevel(t *testing.T) {
	clientSide, _ := cantest.NewLoopbackPair()
	c := uds.NewClient(clientSide, testAddr)
	ctrl := NewController(c, func(seed []byte, level byte) ([]byte, error) { return nil, nil }, nil)
	_, err := ctrl.Unlock(context.Background(), 4)
	assert.ErrorIs(t, err, uds.ErrSecurityLevel)
}

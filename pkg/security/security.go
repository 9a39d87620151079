// Package security drives the UDS SecurityAccess (0x27) seed/key
// exchange on top of pkg/uds.Client, the same way the teacher's LSS
// master layers a multi-step challenge/response protocol on top of
// its bus manager.
package security

import (
	"context"
	"log/slog"

	"github.com/Dsmasal14/FcaDiag/pkg/uds"
)

// KeyDerivation computes the key to send back for a given seed and
// security level. The core supplies no real algorithm: vehicle-family
// specific functions are injected by the caller.
type KeyDerivation func(seed []byte, level byte) ([]byte, error)

// Observation records one seed/key attempt, successful or not, for
// auditing and algorithm analysis.
type Observation struct {
	Level    byte
	Seed     []byte
	Key      []byte
	Accepted bool
	HasNRC   bool
	NRC      uds.NegativeResponseCode
}

// Controller executes the request-seed / compute-key / send-key
// sequence for one ModuleAddress's Client.
type Controller struct {
	client *uds.Client
	derive KeyDerivation
	logger *slog.Logger
}

// NewController binds a Controller to a Client and a KeyDerivation.
func NewController(client *uds.Client, derive KeyDerivation, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		client: client,
		derive: derive,
		logger: logger.With("component", "security.controller"),
	}
}

// Unlock runs the full seed/key exchange for level, which must be
// odd. It does not retry after a failed key: ECUs enforce attempt
// counters with cooldown penalties, so a caller that wants another
// try must call Unlock again explicitly.
func (c *Controller) Unlock(ctx context.Context, level byte) (Observation, error) {
	seedReq, err := uds.SecurityAccessRequestSeed(level)
	if err != nil {
		return Observation{}, err
	}

	seedResp, err := c.client.Transact(ctx, seedReq)
	if err != nil {
		return Observation{}, err
	}
	if seedResp.Kind == uds.Negative {
		c.logger.Warn("request-seed denied", "level", level, "nrc", seedResp.Code)
		return Observation{Level: level, HasNRC: true, NRC: seedResp.Code},
			uds.NewNegativeError(seedResp.ServiceID, seedResp.Code)
	}
	if len(seedResp.Body) < 1 {
		return Observation{Level: level}, &uds.DiagError{Kind: uds.KindMalformedResponse}
	}
	seed := seedResp.Body[1:]

	if allZero(seed) {
		c.logger.Info("ECU already unlocked at this level, skipping send-key", "level", level)
		return Observation{Level: level, Seed: seed, Accepted: true}, nil
	}

	key, err := c.derive(seed, level)
	if err != nil {
		return Observation{Level: level, Seed: seed}, err
	}

	keyReq, err := uds.SecurityAccessSendKey(level, key)
	if err != nil {
		return Observation{Level: level, Seed: seed}, err
	}

	keyResp, err := c.client.Transact(ctx, keyReq)
	obs := Observation{Level: level, Seed: seed, Key: key}
	if err != nil {
		return obs, err
	}

	if keyResp.Kind == uds.Positive {
		obs.Accepted = true
		c.logger.Info("security access unlocked", "level", level)
		return obs, nil
	}

	obs.HasNRC = true
	obs.NRC = keyResp.Code
	c.logger.Warn("send-key rejected", "level", level, "nrc", keyResp.Code)
	return obs, uds.NewNegativeError(keyResp.ServiceID, keyResp.Code)
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

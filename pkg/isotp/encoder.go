package isotp

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dsmasal14/FcaDiag/pkg/can"
)

// EncoderConfig tunes the flow-control handshake the same way the
// teacher's SDO block-transfer client lets a caller override block
// size and inter-frame timing.
type EncoderConfig struct {
	Padding             can.PaddingConfig
	FlowControlTimeout  time.Duration
	MaxConsecutiveWaits int
}

func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		Padding:             can.DefaultPadding(),
		FlowControlTimeout:  time.Second,
		MaxConsecutiveWaits: 10,
	}
}

// Encoder turns one UDS payload into the CAN frame(s) ISO-TP needs to
// carry it, driving the flow-control handshake for multi-frame
// transfers.
type Encoder struct {
	cfg EncoderConfig
	log *logrus.Entry
}

func NewEncoder(cfg EncoderConfig, log *logrus.Entry) *Encoder {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Encoder{cfg: cfg, log: log.WithField("component", "isotp.encoder")}
}

// Send segments payload and writes it to transport, addressed to
// addr.RequestID. For multi-frame payloads it blocks on the peer's
// flow-control responses, which it expects on addr.ResponseID.
func (e *Encoder) Send(ctx context.Context, transport can.FrameTransport, addr can.ModuleAddress, payload []byte) error {
	if len(payload) == 0 {
		return &Error{Kind: InvalidFirstFrameLength, Detail: "empty payload"}
	}
	if len(payload) > 4095 {
		return &Error{Kind: InvalidFirstFrameLength, Detail: fmt.Sprintf("payload length %d exceeds 4095", len(payload))}
	}

	if len(payload) <= 7 {
		return e.sendRaw(transport, addr.RequestID, encodeSingle(payload))
	}

	transport.SetFilter(addr.ResponseID)

	first6 := payload[:6]
	remaining := payload[6:]
	if err := e.sendRaw(transport, addr.RequestID, encodeFirst(len(payload), first6)); err != nil {
		return err
	}

	seq := uint8(1)
	waits := 0
	for len(remaining) > 0 {
		if err := ctxErr(ctx); err != nil {
			return err
		}
		fc, err := e.awaitFlowControl(ctx, transport)
		if err != nil {
			return err
		}
		switch fc.Status {
		case FlowOverflow:
			return &Error{Kind: FlowControlOverflow}
		case FlowWait:
			waits++
			if waits > e.cfg.MaxConsecutiveWaits {
				return &Error{Kind: TooManyWaits}
			}
			continue
		case FlowContinue:
			waits = 0
		}

		block := int(fc.BlockSize)
		if block == 0 {
			block = 1<<31 - 1 // unlimited: send every remaining frame
		}
		for block > 0 && len(remaining) > 0 {
			n := 7
			if len(remaining) < n {
				n = len(remaining)
			}
			chunk := remaining[:n]
			remaining = remaining[n:]
			if err := e.sendRaw(transport, addr.RequestID, encodeConsecutive(seq, chunk)); err != nil {
				return err
			}
			seq = (seq + 1) % 16
			block--
			if len(remaining) > 0 && fc.StMin > 0 {
				if err := sleepCtx(ctx, fc.StMin); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (e *Encoder) sendRaw(transport can.FrameTransport, id uint32, data []byte) error {
	frame := padFrame(id, data, e.cfg.Padding)
	return transport.Send(frame)
}

func (e *Encoder) awaitFlowControl(ctx context.Context, transport can.FrameTransport) (Frame, error) {
	deadline := time.Now().Add(e.cfg.FlowControlTimeout)
	for {
		if err := ctxErr(ctx); err != nil {
			return Frame{}, err
		}
		if !time.Now().Before(deadline) {
			return Frame{}, &Error{Kind: FlowControlTimeout}
		}
		raw, err := transport.Recv(deadline)
		if err != nil {
			return Frame{}, err
		}
		if raw == nil {
			return Frame{}, &Error{Kind: FlowControlTimeout}
		}
		frame, perr := ParseFrame(raw.Payload())
		if perr != nil {
			e.log.WithError(perr).Debug("discarding unparsable frame while awaiting flow control")
			continue
		}
		if frame.Kind != KindFlowControl {
			continue
		}
		return frame, nil
	}
}

// padFrame applies the configured padding policy to raw ISO-TP bytes
// before wrapping them in a CAN frame.
func padFrame(id uint32, raw []byte, padding can.PaddingConfig) can.CanFrame {
	if !padding.Enabled || len(raw) >= 8 {
		return can.NewCanFrame(id, raw)
	}
	padded := make([]byte, 8)
	copy(padded, raw)
	for i := len(raw); i < 8; i++ {
		padded[i] = padding.Byte
	}
	return can.NewCanFrame(id, padded)
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if ctx == nil {
		time.Sleep(d)
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

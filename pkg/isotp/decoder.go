package isotp

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dsmasal14/FcaDiag/internal/fifo"
	"github.com/Dsmasal14/FcaDiag/pkg/can"
)

// DecoderConfig controls the flow-control frames a Decoder emits back
// to the peer while assembling a multi-frame payload.
type DecoderConfig struct {
	ReassemblyTimeout time.Duration
	BlockSize         uint8
	StMin             time.Duration
}

func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		ReassemblyTimeout: time.Second,
		BlockSize:         0,
		StMin:             0,
	}
}

type decoderState int

const (
	stateIdle decoderState = iota
	stateAssembling
)

type pendingPayload struct {
	total    int
	buf      *fifo.Fifo
	nextSeq  uint8
	deadline time.Time
}

// Decoder reassembles inbound ISO-TP frames into complete UDS
// payloads. It is a pure state machine: it never touches a
// transport itself, returning an outbound flow-control frame for the
// caller to send instead. One Decoder serves one in-flight
// reassembly at a time.
type Decoder struct {
	cfg     DecoderConfig
	log     *logrus.Entry
	state   decoderState
	pending *pendingPayload
}

func NewDecoder(cfg DecoderConfig, log *logrus.Entry) *Decoder {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Decoder{cfg: cfg, log: log.WithField("component", "isotp.decoder"), state: stateIdle}
}

// PendingDeadline reports the reassembly deadline for the transfer
// currently in progress, if any.
func (d *Decoder) PendingDeadline() (time.Time, bool) {
	if d.state != stateAssembling {
		return time.Time{}, false
	}
	return d.pending.deadline, true
}

// CheckTimeout reports whether the in-progress reassembly has missed
// its deadline as of now, resetting the decoder to Idle if so.
func (d *Decoder) CheckTimeout(now time.Time) error {
	if d.state != stateAssembling {
		return nil
	}
	if now.After(d.pending.deadline) {
		d.reset()
		return &Error{Kind: ReassemblyTimeout}
	}
	return nil
}

// HandleFrame processes one already-addressed-to-us CAN payload. It
// returns exactly one of: a completed payload, an outbound
// flow-control frame to transmit (addressed to requestID), or an
// error. A nil, nil, nil return means the frame advanced an
// in-progress reassembly without completing it.
func (d *Decoder) HandleFrame(now time.Time, requestID uint32, raw []byte) (payload []byte, fc *can.CanFrame, err error) {
	if err := d.CheckTimeout(now); err != nil {
		return nil, nil, err
	}

	frame, perr := ParseFrame(raw)
	if perr != nil {
		return nil, nil, perr
	}

	switch d.state {
	case stateIdle:
		return d.handleIdle(now, requestID, frame)
	default:
		return d.handleAssembling(now, requestID, frame)
	}
}

func (d *Decoder) handleIdle(now time.Time, requestID uint32, frame Frame) ([]byte, *can.CanFrame, error) {
	switch frame.Kind {
	case KindSingle:
		return frame.Data, nil, nil

	case KindFirst:
		// NewFifo reserves one slot to disambiguate full from empty, so
		// ask for one more byte than the payload actually needs.
		buf := fifo.NewFifo(frame.TotalLength + 1)
		buf.Write(frame.Data, nil)
		d.pending = &pendingPayload{
			total:    frame.TotalLength,
			buf:      buf,
			nextSeq:  1,
			deadline: now.Add(d.cfg.ReassemblyTimeout),
		}
		d.state = stateAssembling
		out := encodeFlowControlFrame(requestID, FlowContinue, d.cfg.BlockSize, d.cfg.StMin)
		return nil, &out, nil

	case KindConsecutive:
		return nil, nil, &Error{Kind: UnexpectedConsecutive}

	default:
		// A FlowControl frame observed by the decoder (not the encoder
		// awaiting one) has no meaning here; ignore it.
		return nil, nil, nil
	}
}

func (d *Decoder) handleAssembling(now time.Time, requestID uint32, frame Frame) ([]byte, *can.CanFrame, error) {
	switch frame.Kind {
	case KindConsecutive:
		if frame.Sequence != d.pending.nextSeq {
			d.reset()
			return nil, nil, &Error{Kind: SequenceError}
		}
		remaining := d.pending.total - d.pending.buf.GetOccupied()
		chunk := frame.Data
		if len(chunk) > remaining {
			chunk = chunk[:remaining]
		}
		d.pending.buf.Write(chunk, nil)

		if d.pending.buf.GetOccupied() >= d.pending.total {
			out := make([]byte, d.pending.total)
			d.pending.buf.Read(out)
			d.reset()
			return out, nil, nil
		}

		d.pending.nextSeq = (d.pending.nextSeq + 1) % 16
		d.pending.deadline = now.Add(d.cfg.ReassemblyTimeout)
		return nil, nil, nil

	case KindFirst, KindSingle:
		d.log.Warn("first/single frame interleaved mid-reassembly, dropping in-flight transfer")
		d.reset()
		return d.handleIdle(now, requestID, frame)

	default:
		return nil, nil, nil
	}
}

func (d *Decoder) reset() {
	d.state = stateIdle
	d.pending = nil
}

func encodeFlowControlFrame(id uint32, status FlowStatus, blockSize uint8, stMin time.Duration) can.CanFrame {
	return can.NewCanFrame(id, encodeFlowControl(status, blockSize, stMin))
}

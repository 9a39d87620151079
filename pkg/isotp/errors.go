package isotp

// ErrorKind enumerates the ways a segmentation or reassembly attempt
// can fail. None of these are retried internally: the caller drops
// the transaction (see the diagnostic client's DiagError mapping).
type ErrorKind int

const (
	// SequenceError: a consecutive frame arrived with the wrong
	// sequence number.
	SequenceError ErrorKind = iota
	// UnexpectedConsecutive: a consecutive frame arrived while the
	// decoder was Idle (no first-frame opened a transfer).
	UnexpectedConsecutive
	// InterleavedMessage: a first-frame or single-frame arrived while
	// a reassembly was already in progress.
	InterleavedMessage
	// ReassemblyTimeout: the next consecutive frame did not arrive
	// before the per-CF deadline elapsed.
	ReassemblyTimeout
	// InvalidFirstFrameLength: a frame's declared or implied length
	// doesn't fit the frame kind that carries it.
	InvalidFirstFrameLength
	// InvalidStMin: a flow-control frame carried an ST_min byte
	// outside the defined ranges.
	InvalidStMin
	// FlowControlAbort: the peer answered with an unrecognised or
	// abort flow-control status.
	FlowControlAbort
	// FlowControlOverflow: the peer's flow-control said it cannot
	// accept the message (buffer overflow).
	FlowControlOverflow
	// FlowControlTimeout: no flow-control frame arrived in time.
	FlowControlTimeout
	// TooManyWaits: the peer sent more consecutive Wait flow-controls
	// than the configured ceiling.
	TooManyWaits
)

func (k ErrorKind) String() string {
	switch k {
	case SequenceError:
		return "sequence-error"
	case UnexpectedConsecutive:
		return "unexpected-consecutive-frame"
	case InterleavedMessage:
		return "interleaved-message"
	case ReassemblyTimeout:
		return "reassembly-timeout"
	case InvalidFirstFrameLength:
		return "invalid-first-frame-length"
	case InvalidStMin:
		return "invalid-st-min"
	case FlowControlAbort:
		return "flow-control-abort"
	case FlowControlOverflow:
		return "flow-control-overflow"
	case FlowControlTimeout:
		return "flow-control-timeout"
	case TooManyWaits:
		return "too-many-waits"
	default:
		return "unknown-isotp-error"
	}
}

// Error is the ISO-TP layer's sum-type error.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Kind.String() + ": " + e.Detail
	}
	return e.Kind.String()
}

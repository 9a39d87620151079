package uds

import (
	"errors"
	"fmt"

	"github.com/Dsmasal14/FcaDiag/pkg/can"
	"github.com/Dsmasal14/FcaDiag/pkg/isotp"
)

var (
	ErrPendingAbuseSentinel = errors.New("uds: ECU exceeded the consecutive response-pending cap")
	ErrMalformedResponse    = errors.New("uds: response did not match the requested service")
)

// ErrorKind discriminates DiagError, the single sum type carrying
// every transaction failure mode a caller can observe.
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindTimeout
	KindIsoTp
	KindUdsNegative
	KindPendingAbuse
	KindMalformedResponse
)

// TimeoutPhase identifies which deadline elapsed without a response.
type TimeoutPhase int

const (
	PhaseP2 TimeoutPhase = iota
	PhaseP2Star
)

func (p TimeoutPhase) String() string {
	if p == PhaseP2Star {
		return "p2*"
	}
	return "p2"
}

// DiagError is the sum-type carrier from the error-handling design:
// exactly one of its kind-specific fields is meaningful, selected by
// Kind.
type DiagError struct {
	Kind ErrorKind

	Transport *can.TransportError
	Phase     TimeoutPhase
	IsoTp     *isotp.Error
	Service   byte
	Code      NegativeResponseCode
}

func (e *DiagError) Error() string {
	switch e.Kind {
	case KindTransport:
		return fmt.Sprintf("transport: %s", e.Transport)
	case KindTimeout:
		return fmt.Sprintf("timeout waiting on %s", e.Phase)
	case KindIsoTp:
		return fmt.Sprintf("isotp: %s", e.IsoTp)
	case KindUdsNegative:
		return fmt.Sprintf("negative response to service %#02x: %s", e.Service, e.Code)
	case KindPendingAbuse:
		return ErrPendingAbuseSentinel.Error()
	case KindMalformedResponse:
		return ErrMalformedResponse.Error()
	default:
		return "uds: unknown error"
	}
}

func (e *DiagError) Unwrap() error {
	switch e.Kind {
	case KindTransport:
		return e.Transport
	case KindIsoTp:
		return e.IsoTp
	default:
		return nil
	}
}

func transportErr(err error) *DiagError {
	var te *can.TransportError
	if !errors.As(err, &te) {
		te = can.NewTransportError(can.Disconnected, err)
	}
	return &DiagError{Kind: KindTransport, Transport: te}
}

func isoTpErr(err error) *DiagError {
	var ie *isotp.Error
	if errors.As(err, &ie) {
		return &DiagError{Kind: KindIsoTp, IsoTp: ie}
	}
	return &DiagError{Kind: KindIsoTp, IsoTp: &isotp.Error{Detail: err.Error()}}
}

func timeoutErr(phase TimeoutPhase) *DiagError {
	return &DiagError{Kind: KindTimeout, Phase: phase}
}

// NewNegativeError wraps a service's negative response code as the
// DiagError callers outside this package (pkg/security) surface from
// their own negative-response paths.
func NewNegativeError(service byte, code NegativeResponseCode) *DiagError {
	return &DiagError{Kind: KindUdsNegative, Service: service, Code: code}
}

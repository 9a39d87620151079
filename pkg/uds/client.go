package uds

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dsmasal14/FcaDiag/pkg/can"
	"github.com/Dsmasal14/FcaDiag/pkg/isotp"
)

// Timing holds the per-transaction deadlines and retry ceilings a
// Client enforces. Defaults match the documented wire profile.
type Timing struct {
	P2                  time.Duration
	P2Star              time.Duration
	FlowControlTimeout  time.Duration
	ReassemblyTimeout   time.Duration
	MaxConsecutiveWaits int
	MaxPendingResponses int
}

func DefaultTiming() Timing {
	return Timing{
		P2:                  1000 * time.Millisecond,
		P2Star:              5000 * time.Millisecond,
		FlowControlTimeout:  1000 * time.Millisecond,
		ReassemblyTimeout:   1000 * time.Millisecond,
		MaxConsecutiveWaits: 10,
		MaxPendingResponses: 10,
	}
}

// Client sequences one UDS request/response transaction at a time
// over a FrameTransport, for one ModuleAddress. It is not safe for
// concurrent use by multiple goroutines; a host that needs to talk to
// several ECUs on the same channel must serialise its Clients itself.
type Client struct {
	transport can.FrameTransport
	addr      can.ModuleAddress
	timing    Timing
	padding   can.PaddingConfig
	log       *logrus.Entry
}

// NewClient binds a Client to a transport, a module address, and the
// default timing profile.
func NewClient(transport can.FrameTransport, addr can.ModuleAddress) *Client {
	return &Client{
		transport: transport,
		addr:      addr,
		timing:    DefaultTiming(),
		padding:   can.DefaultPadding(),
		log:       logrus.NewEntry(logrus.StandardLogger()).WithField("component", "uds.client"),
	}
}

// Timing reports the client's current P2/P2* timing, which may have
// been adopted from a prior DiagnosticSessionControl response.
func (c *Client) Timing() Timing { return c.timing }

// SetTiming overrides the client's timing profile outright.
func (c *Client) SetTiming(t Timing) { c.timing = t }

// SetPadding overrides the channel's padding policy.
func (c *Client) SetPadding(p can.PaddingConfig) { c.padding = p }

// SetLogger replaces the client's logrus entry, e.g. to attach
// request-scoped fields.
func (c *Client) SetLogger(log *logrus.Entry) { c.log = log }

// Transact runs one full request/response cycle: send req, await and
// internally absorb any RequestCorrectlyReceivedResponsePending
// replies, and return the terminal Response or a *DiagError. It is
// the primitive every typed service method and pkg/security build on.
func (c *Client) Transact(ctx context.Context, req Request) (Response, error) {
	enc := isotp.NewEncoder(isotp.EncoderConfig{
		Padding:             c.padding,
		FlowControlTimeout:  c.timing.FlowControlTimeout,
		MaxConsecutiveWaits: c.timing.MaxConsecutiveWaits,
	}, c.log)

	if err := enc.Send(ctx, c.transport, c.addr, req.Bytes()); err != nil {
		return Response{}, mapTransactionErr(err)
	}

	c.transport.SetFilter(c.addr.ResponseID)
	dec := isotp.NewDecoder(isotp.DecoderConfig{ReassemblyTimeout: c.timing.ReassemblyTimeout}, c.log)

	phase := PhaseP2
	deadline := time.Now().Add(c.timing.P2)
	pendingCount := 0

	for {
		payload, err := c.receiveOne(ctx, dec, deadline, phase)
		if err != nil {
			return Response{}, err
		}
		resp := ParseResponse(req.ServiceID, payload)
		if !resp.IsPending() {
			return resp, nil
		}

		pendingCount++
		if pendingCount > c.timing.MaxPendingResponses {
			return Response{}, &DiagError{Kind: KindPendingAbuse}
		}
		c.log.WithField("count", pendingCount).Debug("ECU requested more time, extending deadline to p2*")
		phase = PhaseP2Star
		deadline = time.Now().Add(c.timing.P2Star)
	}
}

func (c *Client) receiveOne(ctx context.Context, dec *isotp.Decoder, deadline time.Time, phase TimeoutPhase) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, mapTransactionErr(ctx.Err())
		default:
		}

		recvDeadline := deadline
		if pd, ok := dec.PendingDeadline(); ok && pd.Before(recvDeadline) {
			recvDeadline = pd
		}

		frame, err := c.transport.Recv(recvDeadline)
		if err != nil {
			return nil, mapTransactionErr(err)
		}

		now := time.Now()
		if frame == nil {
			if terr := dec.CheckTimeout(now); terr != nil {
				return nil, mapTransactionErr(terr)
			}
			if !now.Before(deadline) {
				return nil, timeoutErr(phase)
			}
			continue
		}

		payload, fc, err := dec.HandleFrame(now, c.addr.RequestID, frame.Payload())
		if err != nil {
			return nil, mapTransactionErr(err)
		}
		if fc != nil {
			if err := c.transport.Send(*fc); err != nil {
				return nil, mapTransactionErr(err)
			}
			continue
		}
		if payload != nil {
			return payload, nil
		}
	}
}

func mapTransactionErr(err error) error {
	if isoErr, ok := err.(*isotp.Error); ok {
		return isoTpErr(isoErr)
	}
	if _, ok := err.(*can.TransportError); ok {
		return transportErr(err)
	}
	return transportErr(err)
}

// StartSession issues DiagnosticSessionControl. Per this client's
// adoption policy, a positive response body of at least 5 bytes
// (p2_server and p2_star_server, 2 bytes each after the session echo)
// updates c.Timing() with the ECU's own timing.
func (c *Client) StartSession(ctx context.Context, session byte) (Response, error) {
	resp, err := c.Transact(ctx, DiagnosticSessionControl(session))
	if err != nil {
		return resp, err
	}
	if resp.Kind == Positive && len(resp.Body) >= 5 {
		t := c.timing
		t.P2 = time.Duration(uint16(resp.Body[1])<<8|uint16(resp.Body[2])) * time.Millisecond
		t.P2Star = time.Duration(uint16(resp.Body[3])<<8|uint16(resp.Body[4])) * time.Millisecond
		c.timing = t
		c.log.WithField("p2", t.P2).WithField("p2_star", t.P2Star).Info("adopted ECU-reported timing")
	}
	return resp, nil
}

// ReadDataByIdentifier issues ReadDataByIdentifier for one DID. On a
// positive response the caller gets both the echoed did and its
// value bytes.
func (c *Client) ReadDataByIdentifier(ctx context.Context, did uint16) (echoedDID uint16, value []byte, resp Response, err error) {
	req, berr := ReadDataByIdentifier(did)
	if berr != nil {
		return 0, nil, Response{}, berr
	}
	resp, err = c.Transact(ctx, req)
	if err != nil {
		return 0, nil, resp, err
	}
	if resp.Kind != Positive {
		return 0, nil, resp, nil
	}
	if len(resp.Body) < 2 {
		return 0, nil, resp, &DiagError{Kind: KindMalformedResponse}
	}
	echoedDID = uint16(resp.Body[0])<<8 | uint16(resp.Body[1])
	value = resp.Body[2:]
	return echoedDID, value, resp, nil
}

// ReadDTCs issues ReadDtcInformation(reportDTCByStatusMask, all
// statuses) and decodes the result.
func (c *Client) ReadDTCs(ctx context.Context) ([]DiagnosticTroubleCode, Response, error) {
	const reportDTCByStatusMask = 0x02
	resp, err := c.Transact(ctx, ReadDtcInformation(reportDTCByStatusMask, 0xFF))
	if err != nil {
		return nil, resp, err
	}
	if resp.Kind != Positive {
		return nil, resp, nil
	}
	return ParseDTCs(resp.Body), resp, nil
}

// ClearDTCs issues ClearDiagnosticInformation for every DTC group.
func (c *Client) ClearDTCs(ctx context.Context) (Response, error) {
	return c.Transact(ctx, ClearDiagnosticInformation(0xFFFFFF))
}

// EcuReset issues EcuReset(kind). The caller is responsible for
// waiting out the reset; no automatic retransmit follows.
func (c *Client) EcuReset(ctx context.Context, kind byte) (Response, error) {
	return c.Transact(ctx, EcuReset(kind))
}

// TesterPresent issues TesterPresent with the positive response not
// suppressed, so the caller can observe success.
func (c *Client) TesterPresent(ctx context.Context) (Response, error) {
	return c.Transact(ctx, TesterPresent(false))
}

package can

import (
	"log/slog"
	"sync"
	"time"

	sockcan "github.com/brutella/can"
	"golang.org/x/sys/unix"
)

// SocketCANTransport is the production FrameTransport, backed by
// Linux SocketCAN via brutella/can. brutella/can is push-based
// (frames arrive through a Handle callback on its own goroutine); this
// wraps that into the pull-with-deadline shape FrameTransport needs,
// the same way pkg/lss's master turns an async Handle callback into a
// blocking WaitForResponse.
type SocketCANTransport struct {
	logger *slog.Logger
	bus    *sockcan.Bus
	rx     chan CanFrame

	mu        sync.Mutex
	filter    uint32
	filterSet bool
}

// NewSocketCANTransport opens a SocketCAN interface (e.g. "can0",
// "vcan0") and starts receiving frames in the background.
func NewSocketCANTransport(iface string, logger *slog.Logger) (*SocketCANTransport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	bus, err := sockcan.NewBusForInterfaceWithName(iface)
	if err != nil {
		return nil, NewTransportError(Disconnected, err)
	}
	t := &SocketCANTransport{
		logger: logger.With("component", "socketcan", "iface", iface),
		bus:    bus,
		rx:     make(chan CanFrame, 64),
	}
	bus.Subscribe(t)
	go func() {
		if err := bus.ConnectAndPublish(); err != nil {
			t.logger.Error("socketcan connection closed", "err", err)
		}
	}()
	return t, nil
}

// Handle implements brutella/can's frame listener interface.
func (t *SocketCANTransport) Handle(frame sockcan.Frame) {
	id := frame.ID & unix.CAN_EFF_MASK

	t.mu.Lock()
	filter, filterSet := t.filter, t.filterSet
	t.mu.Unlock()

	if filterSet && id != filter {
		return
	}

	cf := NewCanFrame(id, frame.Data[:frame.Length])
	select {
	case t.rx <- cf:
	default:
		t.logger.Warn("dropped incoming frame, receive buffer full", "arbitration_id", id)
	}
}

func (t *SocketCANTransport) Send(frame CanFrame) error {
	raw := sockcan.Frame{ID: frame.ArbitrationID, Length: frame.Length, Data: frame.Data}
	if err := t.bus.Publish(raw); err != nil {
		t.logger.Warn("send failed", "arbitration_id", frame.ArbitrationID, "err", err)
		return NewTransportError(TxBufferFull, err)
	}
	return nil
}

func (t *SocketCANTransport) Recv(deadline time.Time) (*CanFrame, error) {
	timeout := time.Until(deadline)
	if timeout <= 0 {
		select {
		case f := <-t.rx:
			return &f, nil
		default:
			return nil, nil
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case f := <-t.rx:
		return &f, nil
	case <-timer.C:
		return nil, nil
	}
}

func (t *SocketCANTransport) SetFilter(accept uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filter = accept
	t.filterSet = true
}

// Close disconnects the underlying bus.
func (t *SocketCANTransport) Close() error {
	return t.bus.Disconnect()
}

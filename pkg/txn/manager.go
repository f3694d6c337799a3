package txn

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nom-protocol/nom-go/pkg/wire"
)

// Defaults for the retry schedule.
const (
	// DefaultRetries is the number of retransmissions after the first send.
	DefaultRetries = 3

	// DefaultRetryInterval is the wait before the first retransmission;
	// it doubles after every attempt.
	DefaultRetryInterval = 250 * time.Millisecond
)

// Sender transmits one datagram. Implemented by *net.UDPConn.
type Sender interface {
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
}

// Config tunes the transaction layer.
type Config struct {
	// Retries is the number of retransmissions after the first send.
	Retries int

	// RetryInterval is the initial retransmission interval; doubles per attempt.
	RetryInterval time.Duration

	// MaxDatagram bounds one encoded frame; 0 means wire.DefaultMaxDatagram.
	MaxDatagram int
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.Retries == 0 {
		c.Retries = DefaultRetries
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = DefaultRetryInterval
	}
	return c
}

// MaxRetryWindow returns the longest a transaction can stay in flight.
// The reply cache TTL must exceed this.
func (c Config) MaxRetryWindow() time.Duration {
	c = c.withDefaults()
	window := time.Duration(0)
	interval := c.RetryInterval
	for i := 0; i <= c.Retries; i++ {
		window += interval
		interval *= 2
	}
	return window
}

// waiterKey identifies one outstanding transaction.
type waiterKey struct {
	peer string
	tid  uint32
}

// Manager multiplexes transactions over one datagram socket.
type Manager struct {
	cfg    Config
	sender Sender

	nextTID atomic.Uint32

	mu      sync.Mutex
	waiters map[waiterKey]chan *wire.Frame
	stopped bool

	unknownDropped atomic.Uint64
}

// NewManager creates a transaction manager sending through sender.
func NewManager(sender Sender, cfg Config) *Manager {
	return &Manager{
		cfg:     cfg.withDefaults(),
		sender:  sender,
		waiters: make(map[waiterKey]chan *wire.Frame),
	}
}

// NextTID allocates a fresh transaction id. Tids are unique per manager
// lifetime modulo 2^32; the reply cache TTL is orders of magnitude below any
// realistic wrap time, so a wrapped tid can never collide with a live waiter.
func (m *Manager) NextTID() uint32 {
	return m.nextTID.Add(1)
}

// Call sends one request to peer and blocks until the reply arrives, the
// retry schedule is exhausted (ErrTimeout), the context is cancelled, or the
// manager stops (ErrServiceStopped).
func (m *Manager) Call(ctx context.Context, peer *net.UDPAddr, op wire.Opcode, payload []byte) (*wire.Frame, error) {
	tid := m.NextTID()
	frame := &wire.Frame{TID: tid, Op: op, Payload: payload}
	data, err := frame.Encode(m.cfg.MaxDatagram)
	if err != nil {
		return nil, err
	}

	key := waiterKey{peer: peer.String(), tid: tid}
	ch := make(chan *wire.Frame, 1)

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil, ErrServiceStopped
	}
	m.waiters[key] = ch
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.waiters, key)
		m.mu.Unlock()
	}()

	if _, err := m.sender.WriteToUDP(data, peer); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPeerUnreachable, err)
	}

	interval := m.cfg.RetryInterval
	timer := time.NewTimer(interval)
	defer timer.Stop()

	attempt := 0
	for {
		select {
		case reply, ok := <-ch:
			if !ok {
				return nil, ErrServiceStopped
			}
			return reply, nil

		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timer.C:
			attempt++
			if attempt > m.cfg.Retries {
				return nil, fmt.Errorf("%w: no reply from %s after %d attempts", ErrTimeout, peer, attempt)
			}
			// Re-send the identical datagram; the receiver's reply cache
			// makes the duplicate harmless. Send errors here are ignored:
			// an earlier copy may still be answered.
			_, _ = m.sender.WriteToUDP(data, peer)
			interval *= 2
			timer.Reset(interval)
		}
	}
}

// Notify sends one request with no waiter. Used for RELEASE.
func (m *Manager) Notify(peer *net.UDPAddr, op wire.Opcode, payload []byte) error {
	frame := &wire.Frame{TID: m.NextTID(), Op: op, Payload: payload}
	data, err := frame.Encode(m.cfg.MaxDatagram)
	if err != nil {
		return err
	}
	if _, err := m.sender.WriteToUDP(data, peer); err != nil {
		return fmt.Errorf("%w: %v", ErrPeerUnreachable, err)
	}
	return nil
}

// Deliver hands an inbound reply to its waiter. Returns false when no waiter
// matches (late reply after timeout or cancel); such replies are dropped.
func (m *Manager) Deliver(peer *net.UDPAddr, reply *wire.Frame) bool {
	key := waiterKey{peer: peer.String(), tid: reply.TID}

	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.waiters[key]
	if !ok {
		m.unknownDropped.Add(1)
		return false
	}
	select {
	case ch <- reply:
		return true
	default:
		// Duplicate reply for a waiter that already has one buffered.
		return false
	}
}

// Stop fails every outstanding waiter with ErrServiceStopped and rejects
// future calls.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return
	}
	m.stopped = true
	for _, ch := range m.waiters {
		close(ch)
	}
	m.waiters = make(map[waiterKey]chan *wire.Frame)
}

// UnknownDropped returns how many replies arrived with no matching waiter.
func (m *Manager) UnknownDropped() uint64 {
	return m.unknownDropped.Load()
}

// Outstanding returns the number of in-flight transactions.
func (m *Manager) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}

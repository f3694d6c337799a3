package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nom-protocol/nom-go/pkg/log"
	"github.com/nom-protocol/nom-go/pkg/proxy"
	"github.com/nom-protocol/nom-go/pkg/refs"
	"github.com/nom-protocol/nom-go/pkg/txn"
	"github.com/nom-protocol/nom-go/pkg/wire"
)

// Service defaults.
const (
	// DefaultQueueDepth bounds the receiver-to-worker job queue.
	DefaultQueueDepth = 128

	// DefaultCallTimeout is the outer deadline for one proxy operation when
	// the caller's context has none. It sits above the full retry window.
	DefaultCallTimeout = 10 * time.Second

	// recvBufSize is the receive buffer; any legal frame fits well under it.
	recvBufSize = 65536
)

// Config configures a Service.
type Config struct {
	// Addr is the UDP listen address, e.g. "127.0.0.1:12074".
	// Use port 0 to let the kernel pick.
	Addr string

	// Authenticator guards admission and dispatch. Nil means
	// DefaultAuthenticator.
	Authenticator Authenticator

	// Logger receives protocol events. Nil means no logging.
	Logger log.Logger

	// Workers is the dispatch pool size. 0 means max(2, 2 x NumCPU).
	Workers int

	// CallTimeout is the outer deadline for proxy operations when the
	// caller provides no context deadline. 0 means DefaultCallTimeout.
	CallTimeout time.Duration

	// Retries and RetryInterval tune the transaction layer.
	Retries       int
	RetryInterval time.Duration

	// ReplyCacheSize and ReplyCacheTTL tune duplicate suppression.
	// The TTL must exceed the retry window; zero values pick safe defaults.
	ReplyCacheSize int
	ReplyCacheTTL  time.Duration

	// MaxDatagram bounds one encoded frame. 0 means wire.DefaultMaxDatagram.
	MaxDatagram int

	// QueueDepth bounds the job queue between receiver and workers.
	QueueDepth int
}

// job is one inbound request handed from the receiver to a worker.
type job struct {
	peer  *Peer
	frame *wire.Frame
}

// Service is one NOM peer: symmetric caller and callee over a single socket.
type Service struct {
	cfg    Config
	id     string
	auth   Authenticator
	logger log.Logger

	exports *refs.Exports

	mu    sync.Mutex
	state State
	conn  *net.UDPConn
	peers map[string]*Peer

	mgr     *txn.Manager
	replies *txn.ReplyCache
	jobs    chan job

	receiverWG sync.WaitGroup
	workerWG   sync.WaitGroup

	malformedDropped atomic.Uint64
	requestsServed   atomic.Uint64
	duplicateHits    atomic.Uint64
	admissionRefused atomic.Uint64
	queueDropped     atomic.Uint64
}

// Stats is a snapshot of service counters.
type Stats struct {
	MalformedDropped  uint64
	UnknownTIDDropped uint64
	RequestsServed    uint64
	DuplicateHits     uint64
	AdmissionRefused  uint64
	QueueDropped      uint64
	Peers             int
	Exports           int
}

// New creates a Service. The socket is not bound until Start.
func New(cfg Config) *Service {
	if cfg.Authenticator == nil {
		cfg.Authenticator = DefaultAuthenticator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NoopLogger{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = max(2, 2*runtime.NumCPU())
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = DefaultQueueDepth
	}
	return &Service{
		cfg:     cfg,
		id:      uuid.NewString(),
		auth:    cfg.Authenticator,
		logger:  cfg.Logger,
		exports: refs.NewExports(),
		peers:   make(map[string]*Peer),
	}
}

// ID returns the service instance UUID (stamped into log events).
func (s *Service) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LocalAddr returns the bound address, or nil before Start.
func (s *Service) LocalAddr() *net.UDPAddr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Start binds the socket and launches the receiver and worker pool.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnstarted {
		return ErrAlreadyStarted
	}

	addr, err := net.ResolveUDPAddr("udp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", s.cfg.Addr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("bind %q: %w", s.cfg.Addr, err)
	}

	s.conn = conn
	s.mgr = txn.NewManager(conn, txn.Config{
		Retries:       s.cfg.Retries,
		RetryInterval: s.cfg.RetryInterval,
		MaxDatagram:   s.cfg.MaxDatagram,
	})
	s.replies = txn.NewReplyCache(s.cfg.ReplyCacheSize, s.cfg.ReplyCacheTTL)
	s.jobs = make(chan job, s.cfg.QueueDepth)

	for i := 0; i < s.cfg.Workers; i++ {
		s.workerWG.Add(1)
		go s.worker()
	}
	s.receiverWG.Add(1)
	go s.receiver(conn)

	s.state = StateRunning
	s.logState(StateUnstarted, StateRunning, "")
	return nil
}

// Stop closes the socket, fails all outstanding transactions with
// ErrServiceStopped, drains the workers and releases the export table.
// Safe to call more than once.
func (s *Service) Stop() error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopping
	conn := s.conn
	s.mu.Unlock()

	s.logState(StateRunning, StateStopping, "")

	_ = conn.Close()
	s.mgr.Stop()
	s.receiverWG.Wait()
	close(s.jobs)
	s.workerWG.Wait()
	s.exports.Clear()

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
	s.logState(StateStopping, StateStopped, "")
	return nil
}

// Register publishes obj under name. Legal before Start and while running.
func (s *Service) Register(name string, obj any) error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state == StateStopping || state == StateStopped {
		return ErrStopped
	}
	s.exports.Register(name, obj)
	return nil
}

// Unregister removes a public name. Outstanding references stay valid.
func (s *Service) Unregister(name string) {
	s.exports.Unregister(name)
}

// ListNames returns the local public directory, sorted.
func (s *Service) ListNames() []string {
	return s.exports.Names()
}

// Exports returns the export table (for tests and tooling).
func (s *Service) Exports() *refs.Exports {
	return s.exports
}

// Stats returns a counter snapshot.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	peers := len(s.peers)
	mgr := s.mgr
	s.mu.Unlock()

	st := Stats{
		MalformedDropped: s.malformedDropped.Load(),
		RequestsServed:   s.requestsServed.Load(),
		DuplicateHits:    s.duplicateHits.Load(),
		AdmissionRefused: s.admissionRefused.Load(),
		QueueDropped:     s.queueDropped.Load(),
		Peers:            peers,
		Exports:          s.exports.Len(),
	}
	if mgr != nil {
		st.UnknownTIDDropped = mgr.UnknownDropped()
	}
	return st
}

// Connect performs first contact with a peer: HELLO and version negotiation.
func (s *Service) Connect(addr string) (*PeerHandle, error) {
	return s.ConnectCtx(context.Background(), addr)
}

// ConnectCtx performs first contact with a peer.
func (s *Service) ConnectCtx(ctx context.Context, addr string) (*PeerHandle, error) {
	if s.State() != StateRunning {
		return nil, ErrNotRunning
	}
	uaddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", addr, err)
	}

	peer := s.peerFor(uaddr)
	reply, err := s.Invoke(ctx, uaddr, wire.OpHello, wire.Int(int64(wire.Version)))
	if err != nil {
		var re *wire.RemoteError
		if errors.As(err, &re) && re.Kind == wire.ErrKindUnsupportedVersion {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, re.Message)
		}
		if errors.As(err, &re) && re.Kind == wire.ErrKindAccessDenied {
			return nil, fmt.Errorf("%w: %s", ErrPeerRefused, re.Message)
		}
		return nil, err
	}
	if reply.Kind != wire.KindInt || reply.Int < int64(wire.MinVersion) || reply.Int > int64(wire.Version) {
		return nil, fmt.Errorf("%w: negotiated %s", ErrUnsupportedVersion, reply)
	}
	return &PeerHandle{s: s, peer: peer}, nil
}

// Peers returns the endpoints of all known peers.
func (s *Service) Peers() []*net.UDPAddr {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*net.UDPAddr, 0, len(s.peers))
	for _, p := range s.peers {
		out = append(out, p.addr)
	}
	return out
}

// peerFor returns the record for addr, creating one for outbound contact.
func (s *Service) peerFor(addr *net.UDPAddr) *Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.peers[addr.String()]; ok {
		return p
	}
	p := newPeer(addr)
	s.peers[addr.String()] = p
	return p
}

// admitInbound returns the peer record for an inbound datagram, consulting
// the authenticator on first contact. Returns nil when refused.
func (s *Service) admitInbound(addr *net.UDPAddr) *Peer {
	s.mu.Lock()
	p, known := s.peers[addr.String()]
	s.mu.Unlock()
	if known {
		return p
	}

	// Admission runs outside the service lock.
	if !safeAdmit(s.auth, addr) {
		s.admissionRefused.Add(1)
		return nil
	}
	return s.peerFor(addr)
}

// receiver reads datagrams and routes them: replies to waiters, requests to
// the worker pool. It never blocks on user code.
func (s *Service) receiver(conn *net.UDPConn) {
	defer s.receiverWG.Done()

	buf := make([]byte, recvBufSize)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			// Socket closed on Stop, or unrecoverable; either way the
			// receiver's work is done.
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])

		frame, err := wire.DecodeFrame(data)
		if err != nil {
			s.malformedDropped.Add(1)
			s.logError(log.LayerTransport, addr, err, "drop malformed datagram")
			continue
		}

		s.logFrame(log.DirectionIn, addr, data)

		if frame.IsReply() {
			s.mgr.Deliver(addr, frame)
			continue
		}

		peer := s.admitInbound(addr)
		if peer == nil {
			continue
		}
		peer.touch()

		select {
		case s.jobs <- job{peer: peer, frame: frame}:
		default:
			// Queue full: shed load rather than block the receiver.
			s.queueDropped.Add(1)
		}
	}
}

// worker serves dispatch jobs until the queue closes.
func (s *Service) worker() {
	defer s.workerWG.Done()
	for j := range s.jobs {
		s.handleRequest(j.peer, j.frame)
	}
}

// Invoke implements proxy.Invoker: one blocking transaction to peer.
func (s *Service) Invoke(ctx context.Context, peer *net.UDPAddr, op wire.Opcode, payload wire.Value) (wire.Value, error) {
	s.mu.Lock()
	mgr := s.mgr
	state := s.state
	s.mu.Unlock()
	if mgr == nil || state != StateRunning {
		return wire.Value{}, ErrNotRunning
	}

	data, err := wire.EncodeValue(nil, payload)
	if err != nil {
		return wire.Value{}, err
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}

	reply, err := mgr.Call(ctx, peer, op, data)
	if err != nil {
		return wire.Value{}, err
	}

	val, err := wire.DecodeValue(reply.Payload)
	if err != nil {
		return wire.Value{}, err
	}
	if reply.Op == wire.OpReplyErr {
		re, ok := wire.ParseErrorPayload(val)
		if !ok {
			return wire.Value{}, fmt.Errorf("unparseable error reply %s", val)
		}
		return wire.Value{}, re
	}
	return val, nil
}

// NativeToValue implements proxy.Invoker: outbound conversion with the
// reference fallback into the export table.
func (s *Service) NativeToValue(v any) (wire.Value, error) {
	return wire.FromNative(v, func(obj any) (uint64, error) {
		return s.exports.ExportRef(obj), nil
	})
}

// ValueToNative implements proxy.Invoker: inbound conversion materializing
// references from peer as Proxies through the peer's import table.
func (s *Service) ValueToNative(peer *net.UDPAddr, v wire.Value) (any, error) {
	p := s.peerFor(peer)
	return wire.ToNative(v, func(id uint64) (any, error) {
		return p.imports.GetOrCreate(id, func() *proxy.Proxy {
			return proxy.New(p.addr, id, s)
		}), nil
	})
}

// ReleaseImport implements proxy.Invoker: drop the import entry and tell
// the owner. Fire-and-forget.
func (s *Service) ReleaseImport(peer *net.UDPAddr, remoteID uint64) {
	p := s.peerFor(peer)
	if !p.imports.Drop(remoteID) {
		return
	}
	s.mu.Lock()
	mgr := s.mgr
	s.mu.Unlock()
	if mgr == nil {
		return
	}
	payload, err := wire.EncodeValue(nil, wire.Ref(remoteID))
	if err != nil {
		return
	}
	_ = mgr.Notify(peer, wire.OpRelease, payload)
}

// resolveLocalRef looks an inbound target reference up in the export table.
func (s *Service) resolveLocalRef(id uint64) (any, error) {
	return s.exports.ResolveLocal(id)
}

// sendReply transmits and caches one reply datagram.
func (s *Service) sendReply(peer *Peer, key txn.ReplyKey, data []byte) {
	s.replies.Put(key, data)
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	if _, err := conn.WriteToUDP(data, peer.addr); err != nil {
		s.logError(log.LayerTransport, peer.addr, err, "send reply")
		return
	}
	s.logFrame(log.DirectionOut, peer.addr, data)
}

// Event helpers.

func (s *Service) emit(ev log.Event) {
	ev.Timestamp = time.Now()
	ev.ServiceID = s.id
	s.logger.Log(ev)
}

func (s *Service) logFrame(dir log.Direction, addr *net.UDPAddr, data []byte) {
	if _, noop := s.logger.(log.NoopLogger); noop {
		return
	}
	s.emit(log.Event{
		Direction: dir,
		Layer:     log.LayerTransport,
		Category:  log.CategoryMessage,
		PeerAddr:  addr.String(),
		Frame:     log.NewFrameEvent(data),
	})
}

func (s *Service) logMessage(dir log.Direction, addr *net.UDPAddr, f *wire.Frame, target uint64, errKind *uint8) {
	s.emit(log.Event{
		Direction: dir,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		PeerAddr:  addr.String(),
		Message: &log.MessageEvent{
			TID:         f.TID,
			Opcode:      uint8(f.Op),
			Reply:       f.IsReply(),
			ErrKind:     errKind,
			PayloadSize: len(f.Payload),
			TargetID:    target,
		},
	})
}

func (s *Service) logState(from, to State, reason string) {
	s.emit(log.Event{
		Direction: log.DirectionOut,
		Layer:     log.LayerService,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityService,
			OldState: from.String(),
			NewState: to.String(),
			Reason:   reason,
		},
	})
}

func (s *Service) logError(layer log.Layer, addr *net.UDPAddr, err error, context string) {
	ev := log.Event{
		Direction: log.DirectionIn,
		Layer:     layer,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			Context: context,
		},
	}
	if addr != nil {
		ev.PeerAddr = addr.String()
	}
	s.emit(ev)
}

package service

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/nom-protocol/nom-go/pkg/proxy"
	"github.com/nom-protocol/nom-go/pkg/refs"
	"github.com/nom-protocol/nom-go/pkg/wire"
)

// Peer is the record for one remote endpoint: its import table and
// liveness bookkeeping. Created on Connect or on first admitted inbound
// datagram.
type Peer struct {
	addr    *net.UDPAddr
	imports *refs.Imports

	mu       sync.Mutex
	lastSeen time.Time
}

func newPeer(addr *net.UDPAddr) *Peer {
	return &Peer{
		addr:    addr,
		imports: refs.NewImports(),
	}
}

// Addr returns the peer's endpoint.
func (p *Peer) Addr() *net.UDPAddr {
	return p.addr
}

// LastSeen returns when the peer last sent a valid datagram.
func (p *Peer) LastSeen() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSeen
}

func (p *Peer) touch() {
	p.mu.Lock()
	p.lastSeen = time.Now()
	p.mu.Unlock()
}

// PeerHandle is the host API surface for one connected peer.
type PeerHandle struct {
	s    *Service
	peer *Peer
}

// Addr returns the remote endpoint.
func (h *PeerHandle) Addr() *net.UDPAddr {
	return h.peer.addr
}

// List returns the peer's public export names.
func (h *PeerHandle) List() ([]string, error) {
	return h.ListCtx(context.Background())
}

// ListCtx returns the peer's public export names.
func (h *PeerHandle) ListCtx(ctx context.Context) ([]string, error) {
	reply, err := h.s.Invoke(ctx, h.peer.addr, wire.OpList, wire.Nil())
	if err != nil {
		return nil, err
	}
	if reply.Kind != wire.KindSeq {
		return nil, fmt.Errorf("list reply is %s, not a sequence", reply.Kind)
	}
	names := make([]string, 0, len(reply.Seq))
	for _, e := range reply.Seq {
		if e.Kind != wire.KindText {
			return nil, fmt.Errorf("list element is %s, not text", e.Kind)
		}
		names = append(names, e.Text)
	}
	return names, nil
}

// Resolve obtains a Proxy for the peer's export registered under name.
func (h *PeerHandle) Resolve(name string) (*proxy.Proxy, error) {
	return h.ResolveCtx(context.Background(), name)
}

// ResolveCtx obtains a Proxy for the peer's export registered under name.
func (h *PeerHandle) ResolveCtx(ctx context.Context, name string) (*proxy.Proxy, error) {
	reply, err := h.s.Invoke(ctx, h.peer.addr, wire.OpResolve, wire.Text(name))
	if err != nil {
		return nil, err
	}
	native, err := h.s.ValueToNative(h.peer.addr, reply)
	if err != nil {
		return nil, err
	}
	p, ok := native.(*proxy.Proxy)
	if !ok {
		return nil, fmt.Errorf("resolve reply is %T, not a reference", native)
	}
	return p, nil
}

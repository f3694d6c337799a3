package proxy

import (
	"context"
	"fmt"
	"net"

	"github.com/nom-protocol/nom-go/pkg/wire"
)

// Invoker is the narrow surface a Proxy needs from the peer runtime.
// Implemented by the Service.
type Invoker interface {
	// Invoke sends one request to peer and blocks for the matching reply.
	// A REPLY_ERR surfaces as *wire.RemoteError.
	Invoke(ctx context.Context, peer *net.UDPAddr, op wire.Opcode, payload wire.Value) (wire.Value, error)

	// NativeToValue converts an outbound Go value, exporting unserializable
	// values through the reference fallback.
	NativeToValue(v any) (wire.Value, error)

	// ValueToNative converts an inbound value, materializing references
	// from peer as Proxies.
	ValueToNative(peer *net.UDPAddr, v wire.Value) (any, error)

	// ReleaseImport drops the import entry for (peer, remoteID) and
	// notifies the peer with a RELEASE. Fire-and-forget.
	ReleaseImport(peer *net.UDPAddr, remoteID uint64)
}

// Key identifies a Proxy and is usable as a Go map key.
type Key struct {
	Peer string
	ID   uint64
}

// Proxy is a local handle on an object owned by a remote peer.
type Proxy struct {
	peer     *net.UDPAddr
	remoteID uint64
	inv      Invoker
}

// New creates a Proxy bound to (peer, remoteID).
func New(peer *net.UDPAddr, remoteID uint64, inv Invoker) *Proxy {
	return &Proxy{peer: peer, remoteID: remoteID, inv: inv}
}

// Peer returns the owning peer's endpoint.
func (p *Proxy) Peer() *net.UDPAddr {
	return p.peer
}

// RemoteID returns the object's id in the owning peer's export table.
func (p *Proxy) RemoteID() uint64 {
	return p.remoteID
}

// Key returns the identity key. Hashing a Proxy means hashing its Key.
func (p *Proxy) Key() Key {
	return Key{Peer: p.peer.String(), ID: p.remoteID}
}

// Equal reports whether both proxies name the same remote object.
func (p *Proxy) Equal(o *Proxy) bool {
	return o != nil && p.Key() == o.Key()
}

// GoString renders the proxy's identity without touching the network.
// The remote diagnostic conversion is Repr.
func (p *Proxy) GoString() string {
	return fmt.Sprintf("nomproxy(%s/%d)", p.peer, p.remoteID)
}

func (p *Proxy) target() wire.Value {
	return wire.Ref(p.remoteID)
}

func (p *Proxy) invoke(ctx context.Context, op wire.Opcode, payload wire.Value) (any, error) {
	reply, err := p.inv.Invoke(ctx, p.peer, op, payload)
	if err != nil {
		return nil, err
	}
	return p.inv.ValueToNative(p.peer, reply)
}

// GetAttrCtx reads the named attribute.
func (p *Proxy) GetAttrCtx(ctx context.Context, name string) (any, error) {
	return p.invoke(ctx, wire.OpGetAttr, wire.Seq(p.target(), wire.Text(name)))
}

// GetAttr reads the named attribute with the default deadline.
func (p *Proxy) GetAttr(name string) (any, error) {
	return p.GetAttrCtx(context.Background(), name)
}

// SetAttrCtx writes the named attribute.
func (p *Proxy) SetAttrCtx(ctx context.Context, name string, val any) error {
	wv, err := p.inv.NativeToValue(val)
	if err != nil {
		return err
	}
	_, err = p.invoke(ctx, wire.OpSetAttr, wire.Seq(p.target(), wire.Text(name), wv))
	return err
}

// SetAttr writes the named attribute with the default deadline.
func (p *Proxy) SetAttr(name string, val any) error {
	return p.SetAttrCtx(context.Background(), name, val)
}

// DelAttrCtx deletes the named attribute.
func (p *Proxy) DelAttrCtx(ctx context.Context, name string) error {
	_, err := p.invoke(ctx, wire.OpDelAttr, wire.Seq(p.target(), wire.Text(name)))
	return err
}

// DelAttr deletes the named attribute with the default deadline.
func (p *Proxy) DelAttr(name string) error {
	return p.DelAttrCtx(context.Background(), name)
}

// GetItemCtx reads the element at key.
func (p *Proxy) GetItemCtx(ctx context.Context, key any) (any, error) {
	kv, err := p.inv.NativeToValue(key)
	if err != nil {
		return nil, err
	}
	return p.invoke(ctx, wire.OpGetItem, wire.Seq(p.target(), kv))
}

// GetItem reads the element at key with the default deadline.
func (p *Proxy) GetItem(key any) (any, error) {
	return p.GetItemCtx(context.Background(), key)
}

// SetItemCtx writes the element at key.
func (p *Proxy) SetItemCtx(ctx context.Context, key, val any) error {
	kv, err := p.inv.NativeToValue(key)
	if err != nil {
		return err
	}
	vv, err := p.inv.NativeToValue(val)
	if err != nil {
		return err
	}
	_, err = p.invoke(ctx, wire.OpSetItem, wire.Seq(p.target(), kv, vv))
	return err
}

// SetItem writes the element at key with the default deadline.
func (p *Proxy) SetItem(key, val any) error {
	return p.SetItemCtx(context.Background(), key, val)
}

// DelItemCtx deletes the element at key.
func (p *Proxy) DelItemCtx(ctx context.Context, key any) error {
	kv, err := p.inv.NativeToValue(key)
	if err != nil {
		return err
	}
	_, err = p.invoke(ctx, wire.OpDelItem, wire.Seq(p.target(), kv))
	return err
}

// DelItem deletes the element at key with the default deadline.
func (p *Proxy) DelItem(key any) error {
	return p.DelItemCtx(context.Background(), key)
}

// LenCtx queries the remote length.
func (p *Proxy) LenCtx(ctx context.Context) (int, error) {
	res, err := p.invoke(ctx, wire.OpLen, p.target())
	if err != nil {
		return 0, err
	}
	n, ok := res.(int64)
	if !ok {
		return 0, fmt.Errorf("length reply is %T, not integer", res)
	}
	return int(n), nil
}

// Len queries the remote length with the default deadline.
func (p *Proxy) Len() (int, error) {
	return p.LenCtx(context.Background())
}

// StrCtx requests the remote short textual conversion.
func (p *Proxy) StrCtx(ctx context.Context) (string, error) {
	return p.textOp(ctx, wire.OpStr)
}

// Str requests the remote short textual conversion with the default deadline.
func (p *Proxy) Str() (string, error) {
	return p.StrCtx(context.Background())
}

// ReprCtx requests the remote diagnostic textual conversion.
func (p *Proxy) ReprCtx(ctx context.Context) (string, error) {
	return p.textOp(ctx, wire.OpRepr)
}

// Repr requests the remote diagnostic textual conversion with the default deadline.
func (p *Proxy) Repr() (string, error) {
	return p.ReprCtx(context.Background())
}

func (p *Proxy) textOp(ctx context.Context, op wire.Opcode) (string, error) {
	res, err := p.invoke(ctx, op, p.target())
	if err != nil {
		return "", err
	}
	s, ok := res.(string)
	if !ok {
		return "", fmt.Errorf("text reply is %T, not string", res)
	}
	return s, nil
}

// CallKwCtx invokes the remote object with positional and keyword arguments.
func (p *Proxy) CallKwCtx(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	av := make([]wire.Value, 0, len(args))
	for _, a := range args {
		wv, err := p.inv.NativeToValue(a)
		if err != nil {
			return nil, err
		}
		av = append(av, wv)
	}
	kv := make([]wire.Pair, 0, len(kwargs))
	for k, v := range kwargs {
		wv, err := p.inv.NativeToValue(v)
		if err != nil {
			return nil, err
		}
		kv = append(kv, wire.Pair{Key: wire.Text(k), Val: wv})
	}
	payload := wire.Seq(p.target(), wire.Seq(av...), wire.Map(kv...))
	return p.invoke(ctx, wire.OpCall, payload)
}

// CallKw invokes the remote object with the default deadline.
func (p *Proxy) CallKw(args []any, kwargs map[string]any) (any, error) {
	return p.CallKwCtx(context.Background(), args, kwargs)
}

// CallCtx invokes the remote object with positional arguments only.
func (p *Proxy) CallCtx(ctx context.Context, args ...any) (any, error) {
	return p.CallKwCtx(ctx, args, nil)
}

// Call invokes the remote object with the default deadline.
func (p *Proxy) Call(args ...any) (any, error) {
	return p.CallKwCtx(context.Background(), args, nil)
}

// CallMethodCtx reads the named attribute (expected to resolve to a callable,
// which arrives as another Proxy) and invokes it. Two transactions.
func (p *Proxy) CallMethodCtx(ctx context.Context, name string, args ...any) (any, error) {
	attr, err := p.GetAttrCtx(ctx, name)
	if err != nil {
		return nil, err
	}
	m, ok := attr.(*Proxy)
	if !ok {
		return nil, fmt.Errorf("attribute %q is %T, not callable", name, attr)
	}
	defer m.Release()
	return m.CallKwCtx(ctx, args, nil)
}

// CallMethod invokes a named method with the default deadline.
func (p *Proxy) CallMethod(name string, args ...any) (any, error) {
	return p.CallMethodCtx(context.Background(), name, args...)
}

// Release drops the local import entry and notifies the owning peer.
// Using the Proxy after Release creates a fresh import on next decode.
func (p *Proxy) Release() {
	p.inv.ReleaseImport(p.peer, p.remoteID)
}

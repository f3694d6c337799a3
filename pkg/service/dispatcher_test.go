package service

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nom-protocol/nom-go/pkg/mirror"
	"github.com/nom-protocol/nom-go/pkg/refs"
	"github.com/nom-protocol/nom-go/pkg/wire"
)

// dispatchRaw runs one request through the dispatcher without a socket.
func dispatchRaw(t *testing.T, s *Service, op wire.Opcode, payload wire.Value) (wire.Value, *wire.RemoteError) {
	t.Helper()
	peer := newPeer(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 65000})
	data, err := wire.EncodeValue(nil, payload)
	require.NoError(t, err)
	return s.dispatch(peer, &wire.Frame{TID: 1, Op: op, Payload: data})
}

func TestDispatchListAndResolve(t *testing.T) {
	s := New(Config{})
	require.NoError(t, s.Register("b", map[string]any{}))
	require.NoError(t, s.Register("a", map[string]any{"x": int64(1)}))

	res, derr := dispatchRaw(t, s, wire.OpList, wire.Nil())
	require.Nil(t, derr)
	assert.True(t, res.Equal(wire.Seq(wire.Text("a"), wire.Text("b"))), "sorted names, got %s", res)

	res, derr = dispatchRaw(t, s, wire.OpResolve, wire.Text("a"))
	require.Nil(t, derr)
	assert.Equal(t, wire.KindRef, res.Kind)

	_, derr = dispatchRaw(t, s, wire.OpResolve, wire.Text("zzz"))
	require.NotNil(t, derr)
	assert.Equal(t, wire.ErrKindNotFound, derr.Kind)
}

func TestDispatchShapeErrors(t *testing.T) {
	s := New(Config{})
	require.NoError(t, s.Register("m", map[string]any{}))

	tests := []struct {
		name    string
		op      wire.Opcode
		payload wire.Value
	}{
		{"resolve wants text", wire.OpResolve, wire.Int(1)},
		{"getattr wants seq", wire.OpGetAttr, wire.Text("x")},
		{"getattr wants text name", wire.OpGetAttr, wire.Seq(wire.Ref(1), wire.Int(2))},
		{"setattr wants three", wire.OpSetAttr, wire.Seq(wire.Ref(1), wire.Text("x"))},
		{"call wants arg seq", wire.OpCall, wire.Seq(wire.Ref(1), wire.Int(1), wire.Map())},
		{"hello wants int", wire.OpHello, wire.Text("v1")},
		{"len wants ref", wire.OpLen, wire.Int(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, derr := dispatchRaw(t, s, tt.op, tt.payload)
			require.NotNil(t, derr)
			assert.Equal(t, wire.ErrKindMalformedValue, derr.Kind)
		})
	}
}

func TestDispatchUnknownTarget(t *testing.T) {
	s := New(Config{})

	_, derr := dispatchRaw(t, s, wire.OpLen, wire.Ref(424242))
	require.NotNil(t, derr)
	assert.Equal(t, wire.ErrKindNotFound, derr.Kind)
}

func TestDispatchUnsupportedCapability(t *testing.T) {
	s := New(Config{})
	id := s.Exports().Register("n", 42)

	_, derr := dispatchRaw(t, s, wire.OpLen, wire.Ref(id))
	require.NotNil(t, derr)
	assert.Equal(t, wire.ErrKindUnsupportedOperation, derr.Kind)
}

func TestDispatchPanicBecomesRemoteError(t *testing.T) {
	s := New(Config{})
	id := s.Exports().Register("boom", func() { panic("kaboom") })

	_, derr := dispatchRaw(t, s, wire.OpCall, wire.Seq(wire.Ref(id), wire.Seq(), wire.Map()))
	require.NotNil(t, derr)
	assert.Equal(t, wire.ErrKindRemote, derr.Kind)
	assert.Contains(t, derr.Message, "kaboom")
}

func TestDispatchUserErrorBecomesRemoteError(t *testing.T) {
	s := New(Config{})
	id := s.Exports().Register("f", func() error { return errors.New("user failure") })

	_, derr := dispatchRaw(t, s, wire.OpCall, wire.Seq(wire.Ref(id), wire.Seq(), wire.Map()))
	require.NotNil(t, derr)
	assert.Equal(t, wire.ErrKindRemote, derr.Kind)
	assert.Equal(t, "user failure", derr.Message)
}

func TestClassifyErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want wire.ErrKind
	}{
		{"unsupported", mirror.ErrUnsupported, wire.ErrKindUnsupportedOperation},
		{"mirror not found", mirror.ErrNotFound, wire.ErrKindNotFound},
		{"refs not found", refs.ErrNotFound, wire.ErrKindNotFound},
		{"unserializable", wire.ErrUnserializable, wire.ErrKindUnserializable},
		{"malformed", &wire.MalformedValueError{Offset: 3, Reason: "x"}, wire.ErrKindMalformedValue},
		{"plain", errors.New("boom"), wire.ErrKindRemote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyErr(tt.err).Kind)
		})
	}

	// Nested remote errors keep their kind.
	nested := &wire.RemoteError{Kind: wire.ErrKindNotFound, Message: "inner"}
	assert.Same(t, nested, classifyErr(nested))
}

func TestExtractTarget(t *testing.T) {
	assert.Equal(t, Target{Name: "n"}, extractTarget(wire.OpResolve, wire.Text("n")))
	assert.Equal(t, Target{ID: 9}, extractTarget(wire.OpLen, wire.Ref(9)))
	assert.Equal(t,
		Target{ID: 9, Key: "attr"},
		extractTarget(wire.OpGetAttr, wire.Seq(wire.Ref(9), wire.Text("attr"))))
	assert.Equal(t,
		Target{ID: 9},
		extractTarget(wire.OpGetItem, wire.Seq(wire.Ref(9), wire.Int(3))))
	// Shape defects yield a zero target; validation happens later.
	assert.Equal(t, Target{}, extractTarget(wire.OpGetAttr, wire.Int(1)))
}

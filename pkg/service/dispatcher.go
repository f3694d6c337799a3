package service

import (
	"errors"
	"fmt"

	"github.com/nom-protocol/nom-go/pkg/log"
	"github.com/nom-protocol/nom-go/pkg/mirror"
	"github.com/nom-protocol/nom-go/pkg/refs"
	"github.com/nom-protocol/nom-go/pkg/txn"
	"github.com/nom-protocol/nom-go/pkg/wire"
)

// handleRequest serves one inbound request on a worker: duplicate check,
// dispatch, reply. RELEASE never gets a reply.
func (s *Service) handleRequest(peer *Peer, f *wire.Frame) {
	key := txn.KeyFor(peer.addr, f.TID)

	if cached, ok := s.replies.Get(key); ok {
		// Retransmitted request: re-emit the cached reply, execute nothing.
		s.duplicateHits.Add(1)
		s.sendReply(peer, key, cached)
		return
	}
	s.requestsServed.Add(1)

	result, derr := s.dispatch(peer, f)
	if f.Op == wire.OpRelease {
		return
	}

	reply := &wire.Frame{Flags: wire.FlagReply, TID: f.TID}
	if derr != nil {
		reply.Op = wire.OpReplyErr
		reply.Payload = mustEncode(wire.ErrorPayload(derr.Kind, derr.Message))
		kind := uint8(derr.Kind)
		s.logMessage(log.DirectionOut, peer.addr, reply, 0, &kind)
	} else {
		reply.Op = wire.OpReplyOK
		payload, err := wire.EncodeValue(nil, result)
		if err != nil {
			reply.Op = wire.OpReplyErr
			payload = mustEncode(wire.ErrorPayload(wire.ErrKindUnserializable, err.Error()))
		}
		reply.Payload = payload
		s.logMessage(log.DirectionOut, peer.addr, reply, 0, nil)
	}

	data, err := reply.Encode(s.cfg.MaxDatagram)
	if errors.Is(err, wire.ErrPayloadTooLarge) {
		// The result does not fit one datagram; tell the caller instead of
		// letting it time out.
		reply.Op = wire.OpReplyErr
		reply.Payload = mustEncode(wire.ErrorPayload(wire.ErrKindUnserializable, "reply exceeds datagram limit"))
		data, err = reply.Encode(s.cfg.MaxDatagram)
	}
	if err != nil {
		s.logError(log.LayerWire, peer.addr, err, "encode reply")
		return
	}
	s.sendReply(peer, key, data)
}

// mustEncode encodes a value the service built itself; those never fail.
func mustEncode(v wire.Value) []byte {
	data, err := wire.EncodeValue(nil, v)
	if err != nil {
		panic(fmt.Sprintf("encoding service-built value: %v", err))
	}
	return data
}

// dispatch decodes, authorizes and executes one request.
func (s *Service) dispatch(peer *Peer, f *wire.Frame) (wire.Value, *wire.RemoteError) {
	payload, err := wire.DecodeValue(f.Payload)
	if err != nil {
		return wire.Value{}, &wire.RemoteError{Kind: wire.ErrKindMalformedValue, Message: err.Error()}
	}

	target := extractTarget(f.Op, payload)
	s.logMessage(log.DirectionIn, peer.addr, f, target.ID, nil)

	if !safePermit(s.auth, f.Op, peer.addr, target, argDigest(f.Payload)) {
		return wire.Value{}, &wire.RemoteError{Kind: wire.ErrKindAccessDenied, Message: "access denied"}
	}

	switch f.Op {
	case wire.OpList:
		return s.opList(), nil
	case wire.OpResolve:
		return s.opResolve(payload)
	case wire.OpHello:
		return s.opHello(payload)
	case wire.OpGetAttr:
		return s.opGetAttr(peer, payload)
	case wire.OpSetAttr:
		return s.opSetAttr(peer, payload)
	case wire.OpDelAttr:
		return s.opDelAttr(payload)
	case wire.OpGetItem:
		return s.opGetItem(peer, payload)
	case wire.OpSetItem:
		return s.opSetItem(peer, payload)
	case wire.OpDelItem:
		return s.opDelItem(peer, payload)
	case wire.OpLen:
		return s.opLen(payload)
	case wire.OpStr:
		return s.opText(payload, false)
	case wire.OpRepr:
		return s.opText(payload, true)
	case wire.OpCall:
		return s.opCall(peer, payload)
	case wire.OpRelease:
		s.opRelease(payload)
		return wire.Nil(), nil
	default:
		return wire.Value{}, &wire.RemoteError{
			Kind:    wire.ErrKindUnsupportedOperation,
			Message: fmt.Sprintf("opcode %s is not dispatchable", f.Op),
		}
	}
}

// extractTarget pulls the authorization target out of a request payload.
// Shape defects yield a zero target; the handlers do the real validation.
func extractTarget(op wire.Opcode, payload wire.Value) Target {
	var t Target
	switch op {
	case wire.OpResolve:
		if payload.Kind == wire.KindText {
			t.Name = payload.Text
		}
	case wire.OpLen, wire.OpStr, wire.OpRepr, wire.OpRelease:
		if payload.Kind == wire.KindRef {
			t.ID = payload.Ref
		}
	case wire.OpGetAttr, wire.OpSetAttr, wire.OpDelAttr,
		wire.OpGetItem, wire.OpSetItem, wire.OpDelItem, wire.OpCall:
		if payload.Kind == wire.KindSeq && len(payload.Seq) > 0 && payload.Seq[0].Kind == wire.KindRef {
			t.ID = payload.Seq[0].Ref
		}
		if payload.Kind == wire.KindSeq && len(payload.Seq) > 1 && payload.Seq[1].Kind == wire.KindText {
			t.Key = payload.Seq[1].Text
		}
	}
	return t
}

// classifyErr maps a dispatch failure onto a wire error kind.
func classifyErr(err error) *wire.RemoteError {
	var re *wire.RemoteError
	if errors.As(err, &re) {
		// A nested remote failure (e.g. a callback that failed on another
		// peer) propagates with its kind intact.
		return re
	}
	var mv *wire.MalformedValueError
	kind := wire.ErrKindRemote
	switch {
	case errors.As(err, &mv):
		kind = wire.ErrKindMalformedValue
	case errors.Is(err, mirror.ErrUnsupported):
		kind = wire.ErrKindUnsupportedOperation
	case errors.Is(err, mirror.ErrNotFound), errors.Is(err, refs.ErrNotFound):
		kind = wire.ErrKindNotFound
	case errors.Is(err, wire.ErrUnserializable):
		kind = wire.ErrKindUnserializable
	}
	return &wire.RemoteError{Kind: kind, Message: err.Error()}
}

// badShape is the error for payloads that do not match the opcode's shape.
func badShape(op wire.Opcode) *wire.RemoteError {
	return &wire.RemoteError{
		Kind:    wire.ErrKindMalformedValue,
		Message: fmt.Sprintf("payload shape does not match %s", op),
	}
}

// capture runs user code, converting panics into errors so one hostile or
// buggy object cannot take the worker down.
func capture(fn func() (any, error)) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in remote operation: %v", r)
		}
	}()
	return fn()
}

// targetObject resolves a Ref payload element to a wrapped local object.
func (s *Service) targetObject(v wire.Value) (*mirror.Object, *wire.RemoteError) {
	if v.Kind != wire.KindRef {
		return nil, &wire.RemoteError{Kind: wire.ErrKindMalformedValue, Message: "target is not a reference"}
	}
	obj, err := s.resolveLocalRef(v.Ref)
	if err != nil {
		return nil, classifyErr(err)
	}
	return mirror.Wrap(obj), nil
}

// encodeResult converts a handler result, exporting unserializable values.
func (s *Service) encodeResult(res any) (wire.Value, *wire.RemoteError) {
	v, err := s.NativeToValue(res)
	if err != nil {
		return wire.Value{}, classifyErr(err)
	}
	return v, nil
}

func (s *Service) opList() wire.Value {
	names := s.exports.Names()
	elems := make([]wire.Value, 0, len(names))
	for _, n := range names {
		elems = append(elems, wire.Text(n))
	}
	return wire.Seq(elems...)
}

func (s *Service) opResolve(payload wire.Value) (wire.Value, *wire.RemoteError) {
	if payload.Kind != wire.KindText {
		return wire.Value{}, badShape(wire.OpResolve)
	}
	id, err := s.exports.ResolveName(payload.Text)
	if err != nil {
		return wire.Value{}, classifyErr(err)
	}
	// The reference shipped below is one more outstanding import.
	s.exports.AddRef(id)
	return wire.Ref(id), nil
}

func (s *Service) opHello(payload wire.Value) (wire.Value, *wire.RemoteError) {
	if payload.Kind != wire.KindInt {
		return wire.Value{}, badShape(wire.OpHello)
	}
	negotiated := payload.Int
	if negotiated > int64(wire.Version) {
		negotiated = int64(wire.Version)
	}
	if negotiated < int64(wire.MinVersion) {
		return wire.Value{}, &wire.RemoteError{
			Kind:    wire.ErrKindUnsupportedVersion,
			Message: fmt.Sprintf("peer version %d below minimum %d", payload.Int, wire.MinVersion),
		}
	}
	return wire.Int(negotiated), nil
}

func (s *Service) opGetAttr(peer *Peer, payload wire.Value) (wire.Value, *wire.RemoteError) {
	if payload.Kind != wire.KindSeq || len(payload.Seq) != 2 || payload.Seq[1].Kind != wire.KindText {
		return wire.Value{}, badShape(wire.OpGetAttr)
	}
	obj, derr := s.targetObject(payload.Seq[0])
	if derr != nil {
		return wire.Value{}, derr
	}
	name := payload.Seq[1].Text
	res, err := capture(func() (any, error) { return obj.GetAttr(name) })
	if err != nil {
		return wire.Value{}, classifyErr(err)
	}
	return s.encodeResult(res)
}

func (s *Service) opSetAttr(peer *Peer, payload wire.Value) (wire.Value, *wire.RemoteError) {
	if payload.Kind != wire.KindSeq || len(payload.Seq) != 3 || payload.Seq[1].Kind != wire.KindText {
		return wire.Value{}, badShape(wire.OpSetAttr)
	}
	obj, derr := s.targetObject(payload.Seq[0])
	if derr != nil {
		return wire.Value{}, derr
	}
	val, err := s.ValueToNative(peer.addr, payload.Seq[2])
	if err != nil {
		return wire.Value{}, classifyErr(err)
	}
	name := payload.Seq[1].Text
	if _, err := capture(func() (any, error) { return nil, obj.SetAttr(name, val) }); err != nil {
		return wire.Value{}, classifyErr(err)
	}
	return wire.Nil(), nil
}

func (s *Service) opDelAttr(payload wire.Value) (wire.Value, *wire.RemoteError) {
	if payload.Kind != wire.KindSeq || len(payload.Seq) != 2 || payload.Seq[1].Kind != wire.KindText {
		return wire.Value{}, badShape(wire.OpDelAttr)
	}
	obj, derr := s.targetObject(payload.Seq[0])
	if derr != nil {
		return wire.Value{}, derr
	}
	name := payload.Seq[1].Text
	if _, err := capture(func() (any, error) { return nil, obj.DelAttr(name) }); err != nil {
		return wire.Value{}, classifyErr(err)
	}
	return wire.Nil(), nil
}

func (s *Service) opGetItem(peer *Peer, payload wire.Value) (wire.Value, *wire.RemoteError) {
	if payload.Kind != wire.KindSeq || len(payload.Seq) != 2 {
		return wire.Value{}, badShape(wire.OpGetItem)
	}
	obj, derr := s.targetObject(payload.Seq[0])
	if derr != nil {
		return wire.Value{}, derr
	}
	key, err := s.ValueToNative(peer.addr, payload.Seq[1])
	if err != nil {
		return wire.Value{}, classifyErr(err)
	}
	res, err := capture(func() (any, error) { return obj.GetItem(key) })
	if err != nil {
		return wire.Value{}, classifyErr(err)
	}
	return s.encodeResult(res)
}

func (s *Service) opSetItem(peer *Peer, payload wire.Value) (wire.Value, *wire.RemoteError) {
	if payload.Kind != wire.KindSeq || len(payload.Seq) != 3 {
		return wire.Value{}, badShape(wire.OpSetItem)
	}
	obj, derr := s.targetObject(payload.Seq[0])
	if derr != nil {
		return wire.Value{}, derr
	}
	key, err := s.ValueToNative(peer.addr, payload.Seq[1])
	if err != nil {
		return wire.Value{}, classifyErr(err)
	}
	val, err := s.ValueToNative(peer.addr, payload.Seq[2])
	if err != nil {
		return wire.Value{}, classifyErr(err)
	}
	if _, err := capture(func() (any, error) { return nil, obj.SetItem(key, val) }); err != nil {
		return wire.Value{}, classifyErr(err)
	}
	return wire.Nil(), nil
}

func (s *Service) opDelItem(peer *Peer, payload wire.Value) (wire.Value, *wire.RemoteError) {
	if payload.Kind != wire.KindSeq || len(payload.Seq) != 2 {
		return wire.Value{}, badShape(wire.OpDelItem)
	}
	obj, derr := s.targetObject(payload.Seq[0])
	if derr != nil {
		return wire.Value{}, derr
	}
	key, err := s.ValueToNative(peer.addr, payload.Seq[1])
	if err != nil {
		return wire.Value{}, classifyErr(err)
	}
	if _, err := capture(func() (any, error) { return nil, obj.DelItem(key) }); err != nil {
		return wire.Value{}, classifyErr(err)
	}
	return wire.Nil(), nil
}

func (s *Service) opLen(payload wire.Value) (wire.Value, *wire.RemoteError) {
	obj, derr := s.targetObject(payload)
	if derr != nil {
		return wire.Value{}, derr
	}
	res, err := capture(func() (any, error) { return obj.Len() })
	if err != nil {
		return wire.Value{}, classifyErr(err)
	}
	return wire.Int(int64(res.(int))), nil
}

func (s *Service) opText(payload wire.Value, diagnostic bool) (wire.Value, *wire.RemoteError) {
	obj, derr := s.targetObject(payload)
	if derr != nil {
		return wire.Value{}, derr
	}
	res, err := capture(func() (any, error) {
		if diagnostic {
			return obj.Repr(), nil
		}
		return obj.Str(), nil
	})
	if err != nil {
		return wire.Value{}, classifyErr(err)
	}
	return wire.Text(res.(string)), nil
}

func (s *Service) opCall(peer *Peer, payload wire.Value) (wire.Value, *wire.RemoteError) {
	if payload.Kind != wire.KindSeq || len(payload.Seq) != 3 ||
		payload.Seq[1].Kind != wire.KindSeq || payload.Seq[2].Kind != wire.KindMap {
		return wire.Value{}, badShape(wire.OpCall)
	}
	obj, derr := s.targetObject(payload.Seq[0])
	if derr != nil {
		return wire.Value{}, derr
	}

	args := make([]any, 0, len(payload.Seq[1].Seq))
	for _, av := range payload.Seq[1].Seq {
		a, err := s.ValueToNative(peer.addr, av)
		if err != nil {
			return wire.Value{}, classifyErr(err)
		}
		args = append(args, a)
	}

	var kwargs map[string]any
	if len(payload.Seq[2].Map) > 0 {
		kwargs = make(map[string]any, len(payload.Seq[2].Map))
		for _, p := range payload.Seq[2].Map {
			if p.Key.Kind != wire.KindText {
				return wire.Value{}, badShape(wire.OpCall)
			}
			v, err := s.ValueToNative(peer.addr, p.Val)
			if err != nil {
				return wire.Value{}, classifyErr(err)
			}
			kwargs[p.Key.Text] = v
		}
	}

	res, err := capture(func() (any, error) { return obj.Call(args, kwargs) })
	if err != nil {
		return wire.Value{}, classifyErr(err)
	}
	return s.encodeResult(res)
}

func (s *Service) opRelease(payload wire.Value) {
	if payload.Kind != wire.KindRef {
		return
	}
	s.exports.Release(payload.Ref)
}

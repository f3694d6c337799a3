package wire

import (
	"errors"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	payload := mustEncode(t, Seq(Ref(5), Text("attr")))
	f := &Frame{TID: 42, Op: OpGetAttr, Payload: payload}

	data, err := f.Encode(0)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(data) != HeaderSize+len(payload) {
		t.Errorf("frame size %d, want %d", len(data), HeaderSize+len(payload))
	}

	got, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if got.TID != 42 || got.Op != OpGetAttr || got.IsReply() {
		t.Errorf("header mismatch: %+v", got)
	}
	if string(got.Payload) != string(payload) {
		t.Errorf("payload mismatch")
	}
}

func TestFrameReplyFlag(t *testing.T) {
	f := &Frame{Flags: FlagReply, TID: 7, Op: OpReplyOK}
	data, err := f.Encode(0)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if !got.IsReply() {
		t.Error("reply flag lost")
	}
}

func TestFramePayloadTooLarge(t *testing.T) {
	f := &Frame{TID: 1, Op: OpCall, Payload: make([]byte, DefaultMaxDatagram)}
	_, err := f.Encode(0)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}

	// A custom limit applies too.
	small := &Frame{TID: 1, Op: OpCall, Payload: make([]byte, 100)}
	if _, err := small.Encode(50); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge with custom limit, got %v", err)
	}
}

func TestDecodeFrameRejects(t *testing.T) {
	good, _ := (&Frame{TID: 1, Op: OpHello}).Encode(0)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short", good[:HeaderSize-1], ErrShortFrame},
		{"bad magic", append([]byte("XXXX"), good[4:]...), ErrBadMagic},
		{"bad version", append(append([]byte{}, good[:4]...), append([]byte{99}, good[5:]...)...), ErrBadVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeFrame(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	// Invalid opcode byte.
	bad := append([]byte{}, good...)
	bad[10] = 0xEE
	if _, err := DecodeFrame(bad); err == nil {
		t.Error("invalid opcode accepted")
	}
}

func TestErrorPayloadRoundTrip(t *testing.T) {
	p := ErrorPayload(ErrKindNotFound, "no such name")
	re, ok := ParseErrorPayload(p)
	if !ok {
		t.Fatal("ParseErrorPayload rejected its own shape")
	}
	if re.Kind != ErrKindNotFound || re.Message != "no such name" {
		t.Errorf("unexpected remote error: %+v", re)
	}

	if _, ok := ParseErrorPayload(Int(3)); ok {
		t.Error("non-seq payload accepted")
	}
	if _, ok := ParseErrorPayload(Seq(Text("x"), Text("y"))); ok {
		t.Error("wrong element kinds accepted")
	}
}

package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Framing constants.
const (
	// Version is the protocol version this implementation speaks.
	Version byte = 1

	// MinVersion is the lowest version HELLO negotiation accepts.
	MinVersion byte = 1

	// FlagReply marks a frame as a reply; replies are matched to waiters
	// by tid and never dispatched.
	FlagReply byte = 0x01

	// HeaderSize is the fixed frame header length in bytes.
	HeaderSize = 11

	// DefaultMaxDatagram bounds one encoded frame. It sits under the common
	// 1500-byte path MTU; oversize frames fail locally with
	// ErrPayloadTooLarge instead of fragmenting.
	DefaultMaxDatagram = 1400
)

// magic identifies a NOM datagram.
var magic = [4]byte{'N', 'O', 'M', '1'}

// Framing errors.
var (
	// ErrPayloadTooLarge indicates an encoded frame exceeds the datagram limit.
	ErrPayloadTooLarge = errors.New("payload too large for one datagram")

	// ErrBadMagic indicates a datagram that is not NOM traffic.
	ErrBadMagic = errors.New("bad frame magic")

	// ErrBadVersion indicates a frame from an unsupported protocol version.
	ErrBadVersion = errors.New("unsupported frame version")

	// ErrShortFrame indicates a datagram shorter than the frame header.
	ErrShortFrame = errors.New("frame shorter than header")
)

// Frame is one request or reply message. Payload is the encoded Value.
type Frame struct {
	Flags   byte
	TID     uint32
	Op      Opcode
	Payload []byte
}

// IsReply reports whether the reply flag is set.
func (f *Frame) IsReply() bool {
	return f.Flags&FlagReply != 0
}

// Encode serializes the frame into one datagram, enforcing maxDatagram.
// Pass 0 to use DefaultMaxDatagram.
func (f *Frame) Encode(maxDatagram int) ([]byte, error) {
	if maxDatagram <= 0 {
		maxDatagram = DefaultMaxDatagram
	}
	total := HeaderSize + len(f.Payload)
	if total > maxDatagram {
		return nil, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, total, maxDatagram)
	}
	buf := make([]byte, 0, total)
	buf = append(buf, magic[:]...)
	buf = append(buf, Version, f.Flags)
	buf = binary.BigEndian.AppendUint32(buf, f.TID)
	buf = append(buf, byte(f.Op))
	buf = append(buf, f.Payload...)
	return buf, nil
}

// DecodeFrame parses one datagram into a frame. The payload is not decoded;
// the receiver only needs the header to route the frame.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < HeaderSize {
		return nil, ErrShortFrame
	}
	if !bytes.Equal(data[:4], magic[:]) {
		return nil, ErrBadMagic
	}
	if data[4] != Version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, data[4])
	}
	f := &Frame{
		Flags: data[5],
		TID:   binary.BigEndian.Uint32(data[6:10]),
		Op:    Opcode(data[10]),
	}
	if !f.Op.IsValid() {
		return nil, fmt.Errorf("invalid opcode 0x%02x", data[10])
	}
	f.Payload = data[HeaderSize:]
	return f, nil
}

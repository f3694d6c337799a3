package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// ErrUnserializable indicates a value that cannot be expressed on the wire,
// either because its runtime type has no variant and no reference fallback
// was available, or because the value graph contains a cycle.
var ErrUnserializable = errors.New("value is not serializable")

// MalformedValueError reports a byte sequence the decoder rejected,
// with the offset of the defect.
type MalformedValueError struct {
	Offset int
	Reason string
}

// Error implements the error interface.
func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("malformed value at offset %d: %s", e.Offset, e.Reason)
}

func malformed(off int, format string, args ...any) error {
	return &MalformedValueError{Offset: off, Reason: fmt.Sprintf(format, args...)}
}

// EncodeValue appends the wire form of v to dst and returns the result.
// Value trees are acyclic by construction, so encoding always terminates;
// cycle detection happens in FromNative where aliasing is possible.
func EncodeValue(dst []byte, v Value) ([]byte, error) {
	if !v.Kind.IsValid() {
		return nil, fmt.Errorf("%w: invalid kind 0x%02x", ErrUnserializable, uint8(v.Kind))
	}
	dst = append(dst, byte(v.Kind))
	switch v.Kind {
	case KindNil:
	case KindBool:
		if v.Bool {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	case KindInt:
		dst = appendZigZag(dst, v.Int)
	case KindFloat:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v.Float))
		dst = append(dst, buf[:]...)
	case KindBytes:
		dst = appendUvarint(dst, uint64(len(v.Bytes)))
		dst = append(dst, v.Bytes...)
	case KindText:
		dst = appendUvarint(dst, uint64(len(v.Text)))
		dst = append(dst, v.Text...)
	case KindSeq:
		dst = appendUvarint(dst, uint64(len(v.Seq)))
		var err error
		for _, e := range v.Seq {
			if dst, err = EncodeValue(dst, e); err != nil {
				return nil, err
			}
		}
	case KindMap:
		dst = appendUvarint(dst, uint64(len(v.Map)))
		var err error
		for _, p := range v.Map {
			if dst, err = EncodeValue(dst, p.Key); err != nil {
				return nil, err
			}
			if dst, err = EncodeValue(dst, p.Val); err != nil {
				return nil, err
			}
		}
	case KindRef:
		dst = appendUvarint(dst, v.Ref)
	}
	return dst, nil
}

// DecodeValue decodes exactly one value from data. Trailing bytes are a
// defect: a frame payload carries exactly one value.
func DecodeValue(data []byte) (Value, error) {
	v, n, err := decodeAt(data, 0)
	if err != nil {
		return Value{}, err
	}
	if n != len(data) {
		return Value{}, malformed(n, "%d trailing bytes after value", len(data)-n)
	}
	return v, nil
}

// decodeAt decodes one value starting at off and returns the offset past it.
func decodeAt(data []byte, off int) (Value, int, error) {
	if off >= len(data) {
		return Value{}, 0, malformed(off, "truncated: missing tag")
	}
	k := Kind(data[off])
	off++
	switch k {
	case KindNil:
		return Nil(), off, nil

	case KindBool:
		if off >= len(data) {
			return Value{}, 0, malformed(off, "truncated bool")
		}
		switch data[off] {
		case 0:
			return Bool(false), off + 1, nil
		case 1:
			return Bool(true), off + 1, nil
		default:
			return Value{}, 0, malformed(off, "bool byte 0x%02x", data[off])
		}

	case KindInt:
		i, n, err := readZigZag(data, off)
		if err != nil {
			return Value{}, 0, err
		}
		return Int(i), n, nil

	case KindFloat:
		if off+8 > len(data) {
			return Value{}, 0, malformed(off, "truncated float")
		}
		f := math.Float64frombits(binary.BigEndian.Uint64(data[off : off+8]))
		return Float(f), off + 8, nil

	case KindBytes:
		l, n, err := readLength(data, off)
		if err != nil {
			return Value{}, 0, err
		}
		if n+l > len(data) {
			return Value{}, 0, malformed(n, "bytes length %d exceeds input", l)
		}
		b := make([]byte, l)
		copy(b, data[n:n+l])
		return Bytes(b), n + l, nil

	case KindText:
		l, n, err := readLength(data, off)
		if err != nil {
			return Value{}, 0, err
		}
		if n+l > len(data) {
			return Value{}, 0, malformed(n, "text length %d exceeds input", l)
		}
		s := data[n : n+l]
		if !utf8.Valid(s) {
			return Value{}, 0, malformed(n, "text is not valid UTF-8")
		}
		return Text(string(s)), n + l, nil

	case KindSeq:
		count, n, err := readLength(data, off)
		if err != nil {
			return Value{}, 0, err
		}
		// Every element occupies at least one byte, so a count beyond the
		// remaining input is hostile and must not drive preallocation.
		if count > len(data)-n {
			return Value{}, 0, malformed(n, "sequence count %d exceeds input", count)
		}
		elems := make([]Value, 0, count)
		for i := 0; i < count; i++ {
			var e Value
			e, n, err = decodeAt(data, n)
			if err != nil {
				return Value{}, 0, err
			}
			elems = append(elems, e)
		}
		return Value{Kind: KindSeq, Seq: elems}, n, nil

	case KindMap:
		count, n, err := readLength(data, off)
		if err != nil {
			return Value{}, 0, err
		}
		if count > (len(data)-n)/2 {
			return Value{}, 0, malformed(n, "mapping count %d exceeds input", count)
		}
		pairs := make([]Pair, 0, count)
		for i := 0; i < count; i++ {
			keyOff := n
			var key, val Value
			key, n, err = decodeAt(data, n)
			if err != nil {
				return Value{}, 0, err
			}
			val, n, err = decodeAt(data, n)
			if err != nil {
				return Value{}, 0, err
			}
			for _, p := range pairs {
				if p.Key.Equal(key) {
					return Value{}, 0, malformed(keyOff, "duplicate mapping key %s", key)
				}
			}
			pairs = append(pairs, Pair{Key: key, Val: val})
		}
		return Value{Kind: KindMap, Map: pairs}, n, nil

	case KindRef:
		id, n, err := readUvarint(data, off)
		if err != nil {
			return Value{}, 0, err
		}
		return Ref(id), n, nil

	default:
		return Value{}, 0, malformed(off-1, "unknown tag 0x%02x", uint8(k))
	}
}

// maxVarintLen is the longest legal varint (10 bytes for a full uint64).
const maxVarintLen = 10

func appendUvarint(dst []byte, u uint64) []byte {
	return binary.AppendUvarint(dst, u)
}

func appendZigZag(dst []byte, i int64) []byte {
	return binary.AppendUvarint(dst, uint64(i<<1)^uint64(i>>63))
}

func readUvarint(data []byte, off int) (uint64, int, error) {
	var u uint64
	var shift uint
	for n := 0; ; n++ {
		if n >= maxVarintLen {
			return 0, 0, malformed(off, "varint too long")
		}
		if off+n >= len(data) {
			return 0, 0, malformed(off+n, "truncated varint")
		}
		b := data[off+n]
		if n == maxVarintLen-1 && b > 1 {
			return 0, 0, malformed(off, "varint overflows 64 bits")
		}
		u |= uint64(b&0x7f) << shift
		if b < 0x80 {
			// Reject non-minimal encodings so every value has exactly one
			// wire form.
			if b == 0 && n > 0 {
				return 0, 0, malformed(off, "non-minimal varint")
			}
			return u, off + n + 1, nil
		}
		shift += 7
	}
}

func readZigZag(data []byte, off int) (int64, int, error) {
	u, n, err := readUvarint(data, off)
	if err != nil {
		return 0, 0, err
	}
	return int64(u>>1) ^ -int64(u&1), n, nil
}

// readLength reads a container or string length and bounds it to int.
func readLength(data []byte, off int) (int, int, error) {
	u, n, err := readUvarint(data, off)
	if err != nil {
		return 0, 0, err
	}
	if u > math.MaxInt32 {
		return 0, 0, malformed(off, "length %d out of range", u)
	}
	return int(u), n, nil
}

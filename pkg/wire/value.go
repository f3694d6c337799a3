package wire

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies a value variant. The numeric value is the one-byte wire tag.
type Kind uint8

const (
	// KindNil is the absence of a value.
	KindNil Kind = 0x00

	// KindBool is a boolean.
	KindBool Kind = 0x01

	// KindInt is a signed 64-bit integer (zig-zag varint on the wire).
	KindInt Kind = 0x02

	// KindFloat is an IEEE-754 double.
	KindFloat Kind = 0x03

	// KindBytes is a length-prefixed octet string.
	KindBytes Kind = 0x04

	// KindText is a length-prefixed UTF-8 string.
	KindText Kind = 0x05

	// KindSeq is a count-prefixed ordered list of values.
	KindSeq Kind = 0x06

	// KindMap is a count-prefixed list of key/value pairs with unique keys.
	KindMap Kind = 0x07

	// KindRef is a peer-relative 64-bit object reference.
	KindRef Kind = 0x08
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBytes:
		return "bytes"
	case KindText:
		return "text"
	case KindSeq:
		return "seq"
	case KindMap:
		return "map"
	case KindRef:
		return "ref"
	default:
		return "unknown"
	}
}

// IsValid reports whether the kind is wire-legal.
func (k Kind) IsValid() bool {
	return k <= KindRef
}

// Pair is one map entry. Keys may be any value kind, which is why mappings
// are pair lists rather than Go maps.
type Pair struct {
	Key Value
	Val Value
}

// Value is the tagged union carried by the codec. Exactly one variant field
// is meaningful, selected by Kind.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Bytes []byte
	Text  string
	Seq   []Value
	Map   []Pair
	Ref   uint64
}

// Nil returns the nil value.
func Nil() Value {
	return Value{Kind: KindNil}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// Int returns an integer value.
func Int(i int64) Value {
	return Value{Kind: KindInt, Int: i}
}

// Float returns a float value.
func Float(f float64) Value {
	return Value{Kind: KindFloat, Float: f}
}

// Bytes returns an octet-string value. The slice is not copied.
func Bytes(b []byte) Value {
	return Value{Kind: KindBytes, Bytes: b}
}

// Text returns a UTF-8 text value.
func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// Seq returns a sequence value over the given elements.
func Seq(elems ...Value) Value {
	return Value{Kind: KindSeq, Seq: elems}
}

// Map returns a mapping value over the given pairs.
func Map(pairs ...Pair) Value {
	return Value{Kind: KindMap, Map: pairs}
}

// Ref returns an object reference value.
func Ref(id uint64) Value {
	return Value{Kind: KindRef, Ref: id}
}

// IsNil reports whether the value is the nil value.
func (v Value) IsNil() bool {
	return v.Kind == KindNil
}

// Equal reports deep equality. Sequences compare element-wise in order;
// mappings compare as unordered key/value sets, since native Go map
// iteration order is unspecified. Floats compare with == (NaN != NaN, -0 == +0).
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNil:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindInt:
		return v.Int == o.Int
	case KindFloat:
		return v.Float == o.Float
	case KindBytes:
		return string(v.Bytes) == string(o.Bytes)
	case KindText:
		return v.Text == o.Text
	case KindRef:
		return v.Ref == o.Ref
	case KindSeq:
		if len(v.Seq) != len(o.Seq) {
			return false
		}
		for i := range v.Seq {
			if !v.Seq[i].Equal(o.Seq[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.Map) != len(o.Map) {
			return false
		}
		for _, p := range v.Map {
			found := false
			for _, q := range o.Map {
				if p.Key.Equal(q.Key) {
					found = p.Val.Equal(q.Val)
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String returns a diagnostic rendering. It is not the remote STR/REPR of a
// referenced object; references render as ref(id).
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		if math.IsInf(v.Float, 0) || math.IsNaN(v.Float) {
			return fmt.Sprintf("%v", v.Float)
		}
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindBytes:
		return fmt.Sprintf("b%q", v.Bytes)
	case KindText:
		return strconv.Quote(v.Text)
	case KindRef:
		return fmt.Sprintf("ref(%d)", v.Ref)
	case KindSeq:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, e := range v.Seq {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.String())
		}
		sb.WriteByte(']')
		return sb.String()
	case KindMap:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, p := range v.Map {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.Key.String())
			sb.WriteString(": ")
			sb.WriteString(p.Val.String())
		}
		sb.WriteByte('}')
		return sb.String()
	default:
		return fmt.Sprintf("invalid(0x%02x)", uint8(v.Kind))
	}
}

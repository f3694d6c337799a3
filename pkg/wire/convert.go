package wire

import (
	"fmt"
	"math"
	"reflect"
)

// Fallback registers an unserializable object on the sending side and
// returns the export id to ship as a Ref. A nil Fallback makes every
// unserializable value an error.
type Fallback func(obj any) (uint64, error)

// RefResolver turns a received Ref id into a local stand-in for the sender's
// object, normally a Proxy bound to (peer, id).
type RefResolver func(id uint64) (any, error)

// visitKey identifies a container for cycle detection. Two slices sharing a
// backing array but with different types are distinct nodes.
type visitKey struct {
	ptr uintptr
	typ reflect.Type
}

// FromNative converts a Go value into a wire Value. Primitives, strings,
// byte slices, sequences and maps convert by value; everything else goes
// through fb and becomes a Ref. Cyclic container graphs yield
// ErrUnserializable rather than nontermination.
func FromNative(v any, fb Fallback) (Value, error) {
	return fromNative(v, fb, nil)
}

func fromNative(v any, fb Fallback, visiting map[visitKey]bool) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Nil(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return uintValue(uint64(x))
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return uintValue(x)
	case uintptr:
		return uintValue(uint64(x))
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		return Text(x), nil
	case []byte:
		return Bytes(x), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		var key visitKey
		if rv.Kind() == reflect.Slice {
			if rv.IsNil() {
				return Nil(), nil
			}
			key = visitKey{ptr: rv.Pointer(), typ: rv.Type()}
			if visiting[key] {
				return Value{}, fmt.Errorf("%w: sequence reaches itself", ErrUnserializable)
			}
			if visiting == nil {
				visiting = make(map[visitKey]bool)
			}
			visiting[key] = true
			defer delete(visiting, key)
		}
		elems := make([]Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			e, err := fromNative(rv.Index(i).Interface(), fb, visiting)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, e)
		}
		return Value{Kind: KindSeq, Seq: elems}, nil

	case reflect.Map:
		if rv.IsNil() {
			return Nil(), nil
		}
		key := visitKey{ptr: rv.Pointer(), typ: rv.Type()}
		if visiting[key] {
			return Value{}, fmt.Errorf("%w: mapping reaches itself", ErrUnserializable)
		}
		if visiting == nil {
			visiting = make(map[visitKey]bool)
		}
		visiting[key] = true
		defer delete(visiting, key)

		pairs := make([]Pair, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k, err := fromNative(iter.Key().Interface(), fb, visiting)
			if err != nil {
				return Value{}, err
			}
			val, err := fromNative(iter.Value().Interface(), fb, visiting)
			if err != nil {
				return Value{}, err
			}
			pairs = append(pairs, Pair{Key: k, Val: val})
		}
		return Value{Kind: KindMap, Map: pairs}, nil
	}

	// No direct wire variant: reference fallback.
	if fb == nil {
		return Value{}, fmt.Errorf("%w: %T has no wire variant", ErrUnserializable, v)
	}
	id, err := fb(v)
	if err != nil {
		return Value{}, err
	}
	return Ref(id), nil
}

func uintValue(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: unsigned value %d overflows wire integer", ErrUnserializable, u)
	}
	return Int(int64(u)), nil
}

// ToNative converts a wire Value back into a Go value. Refs resolve through
// rs; a nil rs makes any Ref an error. Sequences become []any, mappings
// become map[any]any. A mapping whose decoded key is not usable as a Go map
// key (sequences, mappings, byte strings) is rejected.
func ToNative(v Value, rs RefResolver) (any, error) {
	switch v.Kind {
	case KindNil:
		return nil, nil
	case KindBool:
		return v.Bool, nil
	case KindInt:
		return v.Int, nil
	case KindFloat:
		return v.Float, nil
	case KindBytes:
		return v.Bytes, nil
	case KindText:
		return v.Text, nil
	case KindSeq:
		out := make([]any, 0, len(v.Seq))
		for _, e := range v.Seq {
			n, err := ToNative(e, rs)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case KindMap:
		out := make(map[any]any, len(v.Map))
		for _, p := range v.Map {
			k, err := ToNative(p.Key, rs)
			if err != nil {
				return nil, err
			}
			if k != nil && !reflect.TypeOf(k).Comparable() {
				return nil, fmt.Errorf("%w: mapping key %s is not usable as a map key", ErrUnserializable, p.Key)
			}
			val, err := ToNative(p.Val, rs)
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil
	case KindRef:
		if rs == nil {
			return nil, fmt.Errorf("reference %d with no resolver", v.Ref)
		}
		return rs(v.Ref)
	default:
		return nil, fmt.Errorf("invalid value kind 0x%02x", uint8(v.Kind))
	}
}

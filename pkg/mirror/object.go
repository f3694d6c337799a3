package mirror

import (
	"errors"
	"fmt"
	"reflect"
)

// Capability errors.
var (
	// ErrUnsupported indicates the object cannot serve the capability at all.
	ErrUnsupported = errors.New("operation not supported by target")

	// ErrNotFound indicates a missing attribute, key or index on an object
	// that does serve the capability.
	ErrNotFound = errors.New("no such attribute or item")
)

// Object is the dispatcher's view of one local value.
type Object struct {
	v  any
	rv reflect.Value
}

// Wrap adapts v. The zero-cost path is values implementing the capability
// interfaces; everything else is served through reflection.
func Wrap(v any) *Object {
	return &Object{v: v, rv: reflect.ValueOf(v)}
}

// Value returns the wrapped value.
func (o *Object) Value() any {
	return o.v
}

// elem dereferences a non-nil pointer one level for container access.
func (o *Object) elem() (reflect.Value, bool) {
	rv := o.rv
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

// GetAttr reads an attribute: a method value or an exported struct field.
func (o *Object) GetAttr(name string) (any, error) {
	if g, ok := o.v.(AttrGetter); ok {
		return g.GetAttr(name)
	}
	if !o.rv.IsValid() {
		return nil, fmt.Errorf("attribute %q on nil: %w", name, ErrNotFound)
	}
	if m := o.rv.MethodByName(name); m.IsValid() {
		return m.Interface(), nil
	}
	s, ok := o.elem()
	if ok && s.Kind() == reflect.Struct {
		if f, found := s.Type().FieldByName(name); found && f.IsExported() {
			return s.FieldByName(name).Interface(), nil
		}
	}
	return nil, fmt.Errorf("attribute %q: %w", name, ErrNotFound)
}

// SetAttr writes an exported struct field. The object must be a pointer to
// struct for the write to be visible to its owner.
func (o *Object) SetAttr(name string, val any) error {
	if s, ok := o.v.(AttrSetter); ok {
		return s.SetAttr(name, val)
	}
	if !o.rv.IsValid() || o.rv.Kind() != reflect.Pointer {
		return fmt.Errorf("attribute write on %T: %w", o.v, ErrUnsupported)
	}
	s, ok := o.elem()
	if !ok || s.Kind() != reflect.Struct {
		return fmt.Errorf("attribute write on %T: %w", o.v, ErrUnsupported)
	}
	f, found := s.Type().FieldByName(name)
	if !found || !f.IsExported() {
		return fmt.Errorf("attribute %q: %w", name, ErrNotFound)
	}
	fv := s.FieldByName(name)
	converted, err := convertArg(val, fv.Type())
	if err != nil {
		return fmt.Errorf("attribute %q: %v", name, err)
	}
	fv.Set(converted)
	return nil
}

// DelAttr deletes an attribute. Only objects implementing AttrDeleter can;
// Go structs have no removable fields.
func (o *Object) DelAttr(name string) error {
	if d, ok := o.v.(AttrDeleter); ok {
		return d.DelAttr(name)
	}
	return fmt.Errorf("attribute delete on %T: %w", o.v, ErrUnsupported)
}

// GetItem reads an indexed element of a map, slice or array.
func (o *Object) GetItem(key any) (any, error) {
	if g, ok := o.v.(ItemGetter); ok {
		return g.GetItem(key)
	}
	s, ok := o.elem()
	if !ok {
		return nil, fmt.Errorf("index on nil: %w", ErrUnsupported)
	}
	switch s.Kind() {
	case reflect.Map:
		kv, err := convertArg(key, s.Type().Key())
		if err != nil {
			return nil, fmt.Errorf("key %v: %v", key, err)
		}
		out := s.MapIndex(kv)
		if !out.IsValid() {
			return nil, fmt.Errorf("key %v: %w", key, ErrNotFound)
		}
		return out.Interface(), nil

	case reflect.Slice, reflect.Array, reflect.String:
		i, err := intKey(key)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= s.Len() {
			return nil, fmt.Errorf("index %d out of range [0, %d): %w", i, s.Len(), ErrNotFound)
		}
		if s.Kind() == reflect.String {
			return s.String()[i : i+1], nil
		}
		return s.Index(i).Interface(), nil

	default:
		return nil, fmt.Errorf("index on %T: %w", o.v, ErrUnsupported)
	}
}

// SetItem writes an indexed element of a map or slice.
func (o *Object) SetItem(key, val any) error {
	if st, ok := o.v.(ItemSetter); ok {
		return st.SetItem(key, val)
	}
	s, ok := o.elem()
	if !ok {
		return fmt.Errorf("index write on nil: %w", ErrUnsupported)
	}
	switch s.Kind() {
	case reflect.Map:
		kv, err := convertArg(key, s.Type().Key())
		if err != nil {
			return fmt.Errorf("key %v: %v", key, err)
		}
		vv, err := convertArg(val, s.Type().Elem())
		if err != nil {
			return fmt.Errorf("value for key %v: %v", key, err)
		}
		s.SetMapIndex(kv, vv)
		return nil

	case reflect.Slice:
		i, err := intKey(key)
		if err != nil {
			return err
		}
		if i < 0 || i >= s.Len() {
			return fmt.Errorf("index %d out of range [0, %d): %w", i, s.Len(), ErrNotFound)
		}
		vv, err := convertArg(val, s.Type().Elem())
		if err != nil {
			return fmt.Errorf("value at index %d: %v", i, err)
		}
		s.Index(i).Set(vv)
		return nil

	default:
		return fmt.Errorf("index write on %T: %w", o.v, ErrUnsupported)
	}
}

// DelItem deletes a map entry.
func (o *Object) DelItem(key any) error {
	if d, ok := o.v.(ItemDeleter); ok {
		return d.DelItem(key)
	}
	s, ok := o.elem()
	if !ok || s.Kind() != reflect.Map {
		return fmt.Errorf("index delete on %T: %w", o.v, ErrUnsupported)
	}
	kv, err := convertArg(key, s.Type().Key())
	if err != nil {
		return fmt.Errorf("key %v: %v", key, err)
	}
	if !s.MapIndex(kv).IsValid() {
		return fmt.Errorf("key %v: %w", key, ErrNotFound)
	}
	s.SetMapIndex(kv, reflect.Value{})
	return nil
}

// Len reports the element count of a map, slice, array or string.
func (o *Object) Len() (int, error) {
	if l, ok := o.v.(Lengther); ok {
		return l.NumItems()
	}
	s, ok := o.elem()
	if !ok {
		return 0, fmt.Errorf("length of nil: %w", ErrUnsupported)
	}
	switch s.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String, reflect.Chan:
		return s.Len(), nil
	default:
		return 0, fmt.Errorf("length of %T: %w", o.v, ErrUnsupported)
	}
}

// Str is the short textual conversion.
func (o *Object) Str() string {
	if s, ok := o.v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", o.v)
}

// Repr is the diagnostic textual conversion.
func (o *Object) Repr() string {
	if g, ok := o.v.(fmt.GoStringer); ok {
		return g.GoString()
	}
	return fmt.Sprintf("%#v", o.v)
}

// Call invokes the object. Funcs take positional arguments; keyword
// arguments require the object to implement Caller.
func (o *Object) Call(args []any, kwargs map[string]any) (any, error) {
	if c, ok := o.v.(Caller); ok {
		return c.Call(args, kwargs)
	}
	if !o.rv.IsValid() || o.rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("call of %T: %w", o.v, ErrUnsupported)
	}
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("keyword arguments on plain func: %w", ErrUnsupported)
	}

	t := o.rv.Type()
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("call needs at least %d args, got %d: %w", fixed, len(args), ErrUnsupported)
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("call needs %d args, got %d: %w", fixed, len(args), ErrUnsupported)
	}

	in := make([]reflect.Value, 0, len(args))
	for i, a := range args {
		var pt reflect.Type
		if i < fixed {
			pt = t.In(i)
		} else {
			pt = t.In(t.NumIn() - 1).Elem()
		}
		av, err := convertArg(a, pt)
		if err != nil {
			return nil, fmt.Errorf("arg %d: %v", i, err)
		}
		in = append(in, av)
	}

	out := o.rv.Call(in)
	return splitResults(out)
}

// splitResults maps reflect call results onto (any, error): a trailing error
// is separated, one value returns bare, several return as a slice.
func splitResults(out []reflect.Value) (any, error) {
	errType := reflect.TypeOf((*error)(nil)).Elem()
	var callErr error
	if n := len(out); n > 0 && out[n-1].Type().Implements(errType) {
		if e := out[n-1].Interface(); e != nil {
			callErr = e.(error)
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return nil, callErr
	case 1:
		return out[0].Interface(), callErr
	default:
		vals := make([]any, len(out))
		for i, v := range out {
			vals[i] = v.Interface()
		}
		return vals, callErr
	}
}

// intKey coerces an index key to int.
func intKey(key any) (int, error) {
	switch k := key.(type) {
	case int:
		return k, nil
	case int64:
		return int(k), nil
	case uint64:
		return int(k), nil
	default:
		return 0, fmt.Errorf("index key %T is not an integer: %w", key, ErrUnsupported)
	}
}

// convertArg adapts a decoded wire value to the target Go type. Wire
// integers arrive as int64 and containers as []any / map[any]any, so the
// usual assignability rules need numeric and container widening on top.
func convertArg(val any, target reflect.Type) (reflect.Value, error) {
	if val == nil {
		switch target.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(target), nil
		default:
			return reflect.Value{}, fmt.Errorf("nil is not a %s", target)
		}
	}

	rv := reflect.ValueOf(val)
	if rv.Type().AssignableTo(target) {
		return rv, nil
	}
	if target.Kind() == reflect.Interface && rv.Type().Implements(target) {
		return rv, nil
	}

	// Numeric widening and narrowing.
	if isNumeric(rv.Kind()) && isNumeric(target.Kind()) {
		return rv.Convert(target), nil
	}

	// String/bytes interchange.
	if rv.Kind() == reflect.String && target == reflect.TypeOf([]byte(nil)) {
		return reflect.ValueOf([]byte(rv.String())), nil
	}
	if rv.Type() == reflect.TypeOf([]byte(nil)) && target.Kind() == reflect.String {
		return rv.Convert(target), nil
	}

	// []any -> []T, element-wise.
	if rv.Kind() == reflect.Slice && target.Kind() == reflect.Slice {
		out := reflect.MakeSlice(target, rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := convertArg(rv.Index(i).Interface(), target.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %v", i, err)
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	}

	// map[any]any -> map[K]V, entry-wise.
	if rv.Kind() == reflect.Map && target.Kind() == reflect.Map {
		out := reflect.MakeMapWithSize(target, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			kv, err := convertArg(iter.Key().Interface(), target.Key())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("map key: %v", err)
			}
			vv, err := convertArg(iter.Value().Interface(), target.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("map value: %v", err)
			}
			out.SetMapIndex(kv, vv)
		}
		return out, nil
	}

	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", val, target)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

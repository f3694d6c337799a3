package refs

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"sync"
)

// ErrNotFound indicates an unknown export id or public name.
var ErrNotFound = errors.New("not found")

// entry is one exported object.
type entry struct {
	obj      any
	refcount int
	names    int // number of directory names pointing at this id
}

// identKey is the identity of a pointer-shaped object, used to make Export
// idempotent.
type identKey struct {
	ptr uintptr
	typ reflect.Type
}

// Exports is the table of locally owned objects addressable by id.
// Safe for concurrent use.
type Exports struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]*entry
	byObj  map[any]uint64
	names  map[string]uint64
}

// NewExports creates an empty export table. Ids count up from a random
// per-table base in the upper 32 bits, so a restarted service does not hand
// out the ids of its predecessor; 0 is never a valid export id.
func NewExports() *Exports {
	return &Exports{
		nextID: uint64(rand.Uint32()) << 32,
		byID:   make(map[uint64]*entry),
		byObj:  make(map[any]uint64),
		names:  make(map[string]uint64),
	}
}

// identity returns a map key identifying obj, or ok=false when the object
// has no usable identity. Funcs are excluded: reflect's code pointers are
// shared between method values of different receivers, so treating them as
// identity would alias exports. Identity-less objects get a fresh id per
// export, which the data model permits: an object may appear under
// multiple ids.
func identity(obj any) (any, bool) {
	rv := reflect.ValueOf(obj)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.UnsafePointer:
		return identKey{ptr: rv.Pointer(), typ: rv.Type()}, true
	case reflect.Func:
		return nil, false
	default:
		if rv.IsValid() && rv.Type().Comparable() {
			return obj, true
		}
		return nil, false
	}
}

// Export assigns an id to obj, idempotently for objects with identity.
func (e *Exports) Export(obj any) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exportLocked(obj)
}

func (e *Exports) exportLocked(obj any) uint64 {
	key, ok := identity(obj)
	if ok {
		if id, exists := e.byObj[key]; exists {
			return id
		}
	}
	e.nextID++
	id := e.nextID
	e.byID[id] = &entry{obj: obj}
	if ok {
		e.byObj[key] = id
	}
	return id
}

// ExportRef exports obj and bumps its advisory refcount in one step. This is
// the entry point the codec's reference fallback uses: every Ref shipped to
// a peer accounts for one outstanding import.
func (e *Exports) ExportRef(obj any) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.exportLocked(obj)
	e.byID[id].refcount++
	return id
}

// Register exports obj and records name -> id in the public directory.
// Re-registering a name replaces the mapping; the prior id stays valid until
// its refcount drains.
func (e *Exports) Register(name string, obj any) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.exportLocked(obj)
	if prev, ok := e.names[name]; ok && prev != id {
		if pe := e.byID[prev]; pe != nil {
			pe.names--
			e.reapLocked(prev, pe)
		}
	}
	if prev, ok := e.names[name]; !ok || prev != id {
		e.byID[id].names++
	}
	e.names[name] = id
	return id
}

// Unregister removes a public name. The export stays resolvable by id while
// peers still hold references to it.
func (e *Exports) Unregister(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.names[name]
	if !ok {
		return
	}
	delete(e.names, name)
	if en := e.byID[id]; en != nil {
		en.names--
		e.reapLocked(id, en)
	}
}

// ResolveLocal returns the object exported under id.
func (e *Exports) ResolveLocal(id uint64) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	en, ok := e.byID[id]
	if !ok {
		return nil, fmt.Errorf("export id %d: %w", id, ErrNotFound)
	}
	return en.obj, nil
}

// ResolveName returns the id registered under name.
func (e *Exports) ResolveName(name string) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.names[name]
	if !ok {
		return 0, fmt.Errorf("name %q: %w", name, ErrNotFound)
	}
	return id, nil
}

// Names returns the public directory names, sorted.
func (e *Exports) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(e.names))
	for n := range e.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// AddRef bumps the advisory refcount of an existing export.
func (e *Exports) AddRef(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if en, ok := e.byID[id]; ok {
		en.refcount++
	}
}

// Release drops one advisory reference. An entry with no references and no
// directory name is removed; its id is retired forever (the counter is
// monotonic), so a late reference from a peer misses instead of aliasing.
func (e *Exports) Release(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	en, ok := e.byID[id]
	if !ok {
		return
	}
	if en.refcount > 0 {
		en.refcount--
	}
	e.reapLocked(id, en)
}

func (e *Exports) reapLocked(id uint64, en *entry) {
	if en.refcount > 0 || en.names > 0 {
		return
	}
	delete(e.byID, id)
	if key, ok := identity(en.obj); ok {
		if e.byObj[key] == id {
			delete(e.byObj, key)
		}
	}
}

// Refcount returns the advisory refcount of id, or -1 for unknown ids.
func (e *Exports) Refcount(id uint64) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	en, ok := e.byID[id]
	if !ok {
		return -1
	}
	return en.refcount
}

// Len returns the number of live export entries.
func (e *Exports) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.byID)
}

// Clear drops every entry. Used on service stop; ids are still not reused
// because the counter survives.
func (e *Exports) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byID = make(map[uint64]*entry)
	e.byObj = make(map[any]uint64)
	e.names = make(map[string]uint64)
}

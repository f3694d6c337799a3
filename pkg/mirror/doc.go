// Package mirror adapts arbitrary Go values to the NOM capability set.
//
// The dispatcher operates on Objects: attribute read/write/delete, indexed
// read/write/delete, length, textual conversions, and invocation. Wrap turns
// any Go value into an Object. Values that implement the capability
// interfaces in this package are used directly; everything else is served
// through reflection:
//
//   - maps get items, lengths and item deletion;
//   - slices and arrays get indexed items and lengths;
//   - structs (and pointers to structs) expose exported fields and methods
//     as attributes, with methods surfacing as callable values;
//   - funcs are callable with positional arguments.
//
// A capability the underlying value cannot support fails with
// ErrUnsupported; a missing attribute, key or index fails with ErrNotFound.
// The dispatcher maps those onto the wire error kinds.
package mirror

// Package wire defines the NOM value model, binary codec, and datagram frame.
//
// NOM ships a fixed set of value kinds in a self-delimiting tagged binary
// form. Integers use zig-zag varint encoding so small magnitudes occupy one
// byte; containers are count-prefixed so decoders can preallocate.
//
// # Value Kinds
//
// Nil, Bool, Int, Float, Bytes, Text, Seq, Map and Ref are the only
// wire-legal kinds. Anything else crossing the codec goes through the
// reference fallback: the value is exported on the sending side and a Ref
// carrying its export id is shipped instead.
//
// # Frame
//
// One datagram carries exactly one frame:
//
//	[ magic:4 | version:1 | flags:1 | tid:4 | opcode:1 | payload ]
//
// Flag bit 0 marks a reply. Frames that would exceed the datagram limit
// (DefaultMaxDatagram unless configured) are rejected at the sender with ErrPayloadTooLarge; there is no fragmentation.
//
// # Error Surface
//
// Decoding is total: every byte sequence either yields a Value or a
// *MalformedValueError carrying the byte offset of the defect. The codec
// never panics on hostile input.
package wire

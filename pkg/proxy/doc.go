// Package proxy implements the client-side stand-in for a remote object.
//
// A Proxy is bound to (peer, remote id). Every capability access — attribute
// reads, writes and deletes, indexed access, length, textual conversion,
// invocation — builds the matching opcode payload and forwards it through an
// Invoker, blocking until the reply arrives or the transaction times out.
// Proxies never cache attribute values: every access is a round trip, so
// remote mutation is always observable.
//
// Proxy equality and hashing are by (peer, remote id); decoding the same
// reference from the same peer twice yields the same Proxy instance (the
// import table guarantees it).
package proxy

// Package refs implements the symmetric remote-reference tables.
//
// Exports is the per-service table of locally owned objects addressable by a
// 64-bit id, with an optional public name directory. Ids are monotonic and
// never reused for the lifetime of the service, so a stale reference from a
// peer can only miss, never alias a different object.
//
// Imports is the per-peer table mapping remote ids to local Proxies. It
// guarantees at most one live Proxy per remote id, which is what makes Proxy
// equality by (peer, id) meaningful.
//
// Refcounts on exports are advisory: they count outstanding imports across
// peers so that well-behaved peers sending RELEASE let entries be reclaimed.
// Distributed garbage collection is explicitly not attempted.
package refs

// Package txn implements the request/reply transaction layer over an
// unreliable datagram transport.
//
// Every outbound request gets a fresh tid and a waiter; the initiator blocks
// on the waiter until the matching reply arrives, the retry schedule is
// exhausted, or the context is cancelled. Retransmission re-sends the
// identical datagram with a doubling interval, so the callee may see
// duplicates; the reply cache on the receiving side makes duplicate delivery
// idempotent by re-emitting the cached reply instead of re-executing.
//
// Replies are matched strictly by (peer, tid). Ordering across transactions
// is deliberately not guaranteed: the substrate is unordered and the
// dispatcher is parallel.
package txn

package txn

import (
	"net"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Reply cache defaults.
const (
	// DefaultReplyCacheSize bounds the number of cached replies.
	DefaultReplyCacheSize = 4096

	// DefaultReplyCacheTTL keeps a reply long enough to answer every
	// retransmission of its request (the default retry window is under
	// four seconds).
	DefaultReplyCacheTTL = 30 * time.Second
)

// ReplyKey identifies one request for duplicate detection.
type ReplyKey struct {
	Peer string
	TID  uint32
}

// KeyFor builds the reply-cache key for a request from peer.
func KeyFor(peer *net.UDPAddr, tid uint32) ReplyKey {
	return ReplyKey{Peer: peer.String(), TID: tid}
}

// ReplyCache is the short-lived (peer, tid) -> encoded-reply map that makes
// duplicate delivery idempotent: a retransmitted request is answered from
// the cache instead of being executed again.
type ReplyCache struct {
	lru *expirable.LRU[ReplyKey, []byte]
}

// NewReplyCache creates a reply cache. Zero size or TTL select the defaults.
// The TTL must exceed the transaction layer's maximum retry window.
func NewReplyCache(size int, ttl time.Duration) *ReplyCache {
	if size <= 0 {
		size = DefaultReplyCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultReplyCacheTTL
	}
	return &ReplyCache{lru: expirable.NewLRU[ReplyKey, []byte](size, nil, ttl)}
}

// Get returns the cached reply datagram for key, if still live.
func (c *ReplyCache) Get(key ReplyKey) ([]byte, bool) {
	return c.lru.Get(key)
}

// Put records the reply datagram sent for key.
func (c *ReplyCache) Put(key ReplyKey, reply []byte) {
	c.lru.Add(key, reply)
}

// Len returns the number of live cached replies.
func (c *ReplyCache) Len() int {
	return c.lru.Len()
}

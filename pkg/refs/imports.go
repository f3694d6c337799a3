package refs

import (
	"sync"

	"github.com/nom-protocol/nom-go/pkg/proxy"
)

// Imports is the per-peer table of remote ids observed from that peer.
// It guarantees at most one live Proxy per remote id. Safe for concurrent use.
//
// Entries are held strongly; user code releases a Proxy deterministically
// with Proxy.Release (or Service.ReleaseImport), which removes the entry and
// sends RELEASE to the owning peer.
type Imports struct {
	mu   sync.Mutex
	byID map[uint64]*proxy.Proxy
}

// NewImports creates an empty import table.
func NewImports() *Imports {
	return &Imports{byID: make(map[uint64]*proxy.Proxy)}
}

// Lookup returns the Proxy for remoteID, if present.
func (im *Imports) Lookup(remoteID uint64) (*proxy.Proxy, bool) {
	im.mu.Lock()
	defer im.mu.Unlock()
	p, ok := im.byID[remoteID]
	return p, ok
}

// GetOrCreate returns the existing Proxy for remoteID or inserts the one
// produced by construct. The constructor runs under the table lock; it
// must not touch the network.
func (im *Imports) GetOrCreate(remoteID uint64, construct func() *proxy.Proxy) *proxy.Proxy {
	im.mu.Lock()
	defer im.mu.Unlock()

	if p, ok := im.byID[remoteID]; ok {
		return p
	}
	p := construct()
	im.byID[remoteID] = p
	return p
}

// Drop removes the entry for remoteID. Returns true if it was present.
// The caller is responsible for sending RELEASE to the peer.
func (im *Imports) Drop(remoteID uint64) bool {
	im.mu.Lock()
	defer im.mu.Unlock()

	if _, ok := im.byID[remoteID]; !ok {
		return false
	}
	delete(im.byID, remoteID)
	return true
}

// Len returns the number of live imports.
func (im *Imports) Len() int {
	im.mu.Lock()
	defer im.mu.Unlock()
	return len(im.byID)
}

package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/nom-protocol/nom-go/pkg/wire"
)

// mDNS constants.
const (
	// ServiceType is the DNS-SD service type for NOM peers.
	ServiceType = "_nom._udp"

	// Domain is the DNS-SD domain.
	Domain = "local."

	// DefaultBrowseTimeout bounds one Browse call.
	DefaultBrowseTimeout = 5 * time.Second

	// TXT record keys.
	txtKeyVersion   = "v"
	txtKeyServiceID = "sid"
)

// PeerInfo describes one advertised NOM peer.
type PeerInfo struct {
	// Instance is the mDNS instance name.
	Instance string

	// ServiceID is the peer's service UUID, if advertised.
	ServiceID string

	// Version is the peer's protocol version.
	Version int

	// Addrs are the candidate endpoints, one per advertised address.
	Addrs []*net.UDPAddr
}

// Advertiser announces one NOM peer over mDNS until Shutdown.
type Advertiser struct {
	mu     sync.Mutex
	server *zeroconf.Server
}

// Advertise registers instance as a NOM peer on port. The TXT records carry
// the protocol version and the service UUID.
func Advertise(instance string, port int, serviceID string) (*Advertiser, error) {
	txt := []string{
		fmt.Sprintf("%s=%d", txtKeyVersion, wire.Version),
		fmt.Sprintf("%s=%s", txtKeyServiceID, serviceID),
	}
	server, err := zeroconf.Register(instance, ServiceType, Domain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return &Advertiser{server: server}, nil
}

// Shutdown stops advertising. Safe to call more than once.
func (a *Advertiser) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// Browse collects the NOM peers visible on the local network, waiting at
// most timeout (0 means DefaultBrowseTimeout).
func Browse(ctx context.Context, timeout time.Duration) ([]PeerInfo, error) {
	if timeout <= 0 {
		timeout = DefaultBrowseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	var mu sync.Mutex
	found := make(map[string]PeerInfo)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				info := entryToPeerInfo(entry)
				mu.Lock()
				found[info.Instance] = info
				mu.Unlock()
			case entry, ok := <-removed:
				if !ok {
					return
				}
				mu.Lock()
				delete(found, entry.Instance)
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	err := zeroconf.Browse(ctx, ServiceType, Domain, entries, removed)
	<-done
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("mDNS browse failed: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	out := make([]PeerInfo, 0, len(found))
	for _, info := range found {
		out = append(out, info)
	}
	return out, nil
}

// entryToPeerInfo converts one mDNS entry.
func entryToPeerInfo(entry *zeroconf.ServiceEntry) PeerInfo {
	info := PeerInfo{Instance: entry.Instance}

	for _, txt := range entry.Text {
		key, val, ok := strings.Cut(txt, "=")
		if !ok {
			continue
		}
		switch key {
		case txtKeyVersion:
			if v, err := strconv.Atoi(val); err == nil {
				info.Version = v
			}
		case txtKeyServiceID:
			info.ServiceID = val
		}
	}

	for _, ip := range entry.AddrIPv4 {
		info.Addrs = append(info.Addrs, &net.UDPAddr{IP: ip, Port: entry.Port})
	}
	for _, ip := range entry.AddrIPv6 {
		info.Addrs = append(info.Addrs, &net.UDPAddr{IP: ip, Port: entry.Port})
	}
	return info
}

package service

import (
	"net"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/nom-protocol/nom-go/pkg/wire"
)

// Target describes what a request addresses, for authorization.
type Target struct {
	// ID is the export id the request targets, 0 when it targets the
	// service itself (LIST, HELLO).
	ID uint64

	// Name is the public name a RESOLVE asks for.
	Name string

	// Key is the textual attribute or item key, when the operation has one.
	Key string
}

// Authenticator is the capability seam consulted on peer admission and on
// every dispatched operation. Hooks run outside any runtime lock; a hook
// that panics or misbehaves denies.
type Authenticator interface {
	// AdmitPeer is invoked on first contact from an unknown endpoint.
	// Returning false drops the datagram and records no peer.
	AdmitPeer(endpoint *net.UDPAddr) bool

	// Permit is invoked before dispatch. argDigest is a BLAKE2b-256 digest
	// of the encoded request payload, usable for audit trails without
	// exposing argument contents. Returning false yields AccessDenied.
	Permit(op wire.Opcode, peer *net.UDPAddr, target Target, argDigest []byte) bool
}

// DefaultAuthenticator admits every peer and denies attribute or item
// access to textual keys starting with an underscore.
type DefaultAuthenticator struct{}

// AdmitPeer admits everyone.
func (DefaultAuthenticator) AdmitPeer(*net.UDPAddr) bool {
	return true
}

// Permit denies underscore-prefixed attribute and item keys.
func (DefaultAuthenticator) Permit(op wire.Opcode, _ *net.UDPAddr, target Target, _ []byte) bool {
	switch op {
	case wire.OpGetAttr, wire.OpSetAttr, wire.OpDelAttr,
		wire.OpGetItem, wire.OpSetItem, wire.OpDelItem:
		return !strings.HasPrefix(target.Key, "_")
	default:
		return true
	}
}

// Compile-time interface satisfaction check.
var _ Authenticator = DefaultAuthenticator{}

// argDigest hashes the encoded payload for the Permit hook.
func argDigest(payload []byte) []byte {
	sum := blake2b.Sum256(payload)
	return sum[:]
}

// safeAdmit runs AdmitPeer, treating a panic as refusal.
func safeAdmit(auth Authenticator, endpoint *net.UDPAddr) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return auth.AdmitPeer(endpoint)
}

// safePermit runs Permit, treating a panic as denial.
func safePermit(auth Authenticator, op wire.Opcode, peer *net.UDPAddr, target Target, digest []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return auth.Permit(op, peer, target, digest)
}

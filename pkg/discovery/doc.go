// Package discovery advertises and finds NOM peers over mDNS.
//
// A peer advertises one instance of the _nom._udp service with TXT records
// carrying its protocol version and service UUID. Browse collects the
// instances visible on the local network so tooling can connect without
// preconfigured endpoints. The core runtime does not depend on discovery;
// it is wiring for daemons and shells.
package discovery

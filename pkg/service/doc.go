// Package service implements the NOM peer container.
//
// A Service owns one UDP socket, the export table, a peer registry with
// per-peer import tables, the transaction manager, a reply cache and a pool
// of dispatch workers. Every peer is symmetrically caller and callee: the
// receiver goroutine routes inbound replies to their waiters and inbound
// requests to the worker pool, so a peer can serve requests while its own
// calls are in flight — which is what lets callbacks travel back.
//
// # Lifecycle
//
// UNSTARTED -> RUNNING -> STOPPING -> STOPPED. Register is legal before and
// during RUNNING; Connect and the Proxy capability set require RUNNING.
// Stop cancels all outstanding transactions with ErrServiceStopped and
// releases the export table; ids never survive a restart.
//
// # Trust
//
// Every inbound first contact passes through Authenticator.AdmitPeer and
// every dispatched operation through Authenticator.Permit. The default
// policy admits all peers and denies attribute or item access to textual
// keys starting with an underscore.
package service

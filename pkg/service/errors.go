package service

import "errors"

// Service lifecycle errors.
var (
	// ErrNotRunning indicates an operation that requires a running service.
	ErrNotRunning = errors.New("service is not running")

	// ErrAlreadyStarted indicates Start on a service past UNSTARTED.
	ErrAlreadyStarted = errors.New("service already started")

	// ErrStopped indicates an operation on a stopped service.
	ErrStopped = errors.New("service is stopped")

	// ErrUnsupportedVersion indicates HELLO negotiation failed.
	ErrUnsupportedVersion = errors.New("peer speaks no supported protocol version")

	// ErrPeerRefused indicates the remote authenticator refused admission.
	ErrPeerRefused = errors.New("peer refused connection")
)

package txn

import "errors"

// Transaction errors.
var (
	// ErrTimeout indicates the transaction exceeded its deadline after all
	// retransmissions.
	ErrTimeout = errors.New("transaction timed out")

	// ErrPeerUnreachable indicates a socket error while sending.
	ErrPeerUnreachable = errors.New("peer unreachable")

	// ErrServiceStopped indicates the local service is shutting down; all
	// outstanding waiters fail with this error.
	ErrServiceStopped = errors.New("service stopped")
)

// Package log captures structured protocol events from every NOM layer.
//
// The core emits events through the Logger interface; applications decide
// where they go. SlogAdapter forwards to log/slog for development,
// FileLogger persists a CBOR event stream for offline analysis, MultiLogger
// fans out to several sinks, and Reader iterates a persisted stream with
// filtering.
//
// Events use CBOR integer keys so captured streams stay compact even under
// datagram-per-event volume.
package log

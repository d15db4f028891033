// Package log implements protocol event logging for Firmata connections.
//
// Events are captured at three layers: raw frames at the transport layer,
// decoded messages at the protocol layer, and lifecycle/state changes at
// the device layer. Applications receive events through the Logger
// interface; the package ships a CBOR file logger for capture, a Reader
// for replaying captured files, an slog adapter for development consoles,
// and a MultiLogger for fan-out.
//
// Logging is optional everywhere it is accepted: pass nil or NoopLogger to
// disable it. Implementations must tolerate being called from the client's
// read loop, so they should queue or return quickly.
package log

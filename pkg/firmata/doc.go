// Package firmata implements the Firmata protocol endpoint: encoding of
// outbound command frames, incremental decoding of the inbound byte stream,
// and callback-based delivery of decoded messages.
//
// # Protocol
//
// Firmata is a MIDI-derived byte protocol. Commands occupy the high range
// (0x80-0xFF); data bytes carry 7 bits each, so 8-bit and 14-bit values are
// split across two data bytes. Messages larger than the base command set are
// wrapped in sysex frames (0xF0 ... 0xF7).
//
// # Client
//
// A Client attaches to a transport.Stream and runs a read loop that decodes
// inbound bytes as they arrive. Decoded messages are dispatched to
// subscribers registered with the On* methods; Subscribe calls return a
// Handle used to unsubscribe. Outbound frames are written atomically: each
// WriteFrame (and each Send* convenience call) holds the client's write lock
// for the whole write+flush sequence, so concurrent writers never interleave
// bytes within a frame.
//
// The Client carries no pin state. The wiring package layers the pin cache,
// capability negotiation and the synchronous pin API on top of it.
package firmata

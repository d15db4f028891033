// Package transport provides the byte streams a Firmata client speaks over.
//
// A Stream is the raw, unframed connection to the board: a serial port for
// USB-attached boards, a TCP socket for WiFi-flashed boards, or an in-memory
// pipe for tests. Streams carry no protocol knowledge; framing and message
// decoding live in the firmata package.
//
// # Lifecycle
//
// A Stream starts closed. Open establishes the underlying connection; Read
// and Write return ErrNotOpen before Open succeeds and after Close. Streams
// are not reusable after Close.
//
// # Flushing
//
// Firmata commands are multi-byte and must appear on the wire as a unit.
// Callers write a complete frame and then call Flush. For TCP and pipe
// streams Flush is a no-op (writes are unbuffered); for serial ports it
// drains the OS transmit buffer.
package transport

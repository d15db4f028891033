package transport

import (
	"context"
	"errors"
	"io"
)

// Transport errors.
var (
	// ErrNotOpen indicates the stream has not been opened.
	ErrNotOpen = errors.New("stream not open")

	// ErrAlreadyOpen indicates Open was called on an open stream.
	ErrAlreadyOpen = errors.New("stream already open")

	// ErrClosed indicates the stream has been closed.
	ErrClosed = errors.New("stream closed")
)

// Stream is a raw byte stream to a Firmata board.
// Implemented by SerialStream, TCPStream and PipeStream.
type Stream interface {
	// Open establishes the underlying connection.
	Open(ctx context.Context) error

	// Read reads available bytes, blocking until at least one byte arrives
	// or the stream is closed.
	Read(p []byte) (int, error)

	// Write writes bytes to the board.
	Write(p []byte) (int, error)

	// Flush pushes buffered bytes onto the wire.
	Flush() error

	// Close tears down the connection. Close unblocks pending reads.
	Close() error

	// Description returns a human-readable description of the endpoint,
	// e.g. "/dev/ttyACM0@57600" or "tcp://192.168.4.1:3030".
	Description() string
}

// Compile-time interface satisfaction checks.
var (
	_ Stream        = (*SerialStream)(nil)
	_ Stream        = (*TCPStream)(nil)
	_ Stream        = (*PipeStream)(nil)
	_ io.ReadWriter = (Stream)(nil)
)

package transport

import (
	"context"
	"net"
	"sync"
)

// PipeStream is an in-memory Stream backed by one end of a net.Pipe.
// The other end plays the board in tests.
type PipeStream struct {
	mu   sync.Mutex
	conn net.Conn
	open bool
}

// Pipe returns a connected stream/board pair. The returned net.Conn is the
// board side: bytes written to it arrive at the stream's Read, and frames
// the client sends can be read back from it.
func Pipe() (*PipeStream, net.Conn) {
	client, board := net.Pipe()
	return &PipeStream{conn: client}, board
}

// Open marks the pipe ready. The pipe is connected at construction time.
func (s *PipeStream) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return ErrAlreadyOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.open = true
	return nil
}

// Read reads from the pipe.
func (s *PipeStream) Read(p []byte) (int, error) {
	if !s.isOpen() {
		return 0, ErrNotOpen
	}
	return s.conn.Read(p)
}

// Write writes to the pipe.
func (s *PipeStream) Write(p []byte) (int, error) {
	if !s.isOpen() {
		return 0, ErrNotOpen
	}
	return s.conn.Write(p)
}

// Flush is a no-op.
func (s *PipeStream) Flush() error {
	if !s.isOpen() {
		return ErrNotOpen
	}
	return nil
}

// Close closes the pipe, unblocking both ends.
func (s *PipeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return s.conn.Close()
}

// Description returns "pipe".
func (s *PipeStream) Description() string {
	return "pipe"
}

func (s *PipeStream) isOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

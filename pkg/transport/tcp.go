package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// DefaultDialTimeout bounds TCP connection attempts.
const DefaultDialTimeout = 10 * time.Second

// TCPStream is a Stream over a TCP socket, for WiFi-flashed boards
// (StandardFirmataWiFi and friends).
type TCPStream struct {
	mu      sync.Mutex
	addr    string
	timeout time.Duration
	conn    net.Conn
}

// NewTCPStream creates a TCP stream for the given "host:port" address.
func NewTCPStream(addr string) *TCPStream {
	return &TCPStream{addr: addr, timeout: DefaultDialTimeout}
}

// SetDialTimeout overrides the dial timeout. Must be called before Open.
func (s *TCPStream) SetDialTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
}

// Open dials the board.
func (s *TCPStream) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return ErrAlreadyOpen
	}

	dialer := net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", s.addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		// Firmata frames are tiny; coalescing them adds latency.
		_ = tc.SetNoDelay(true)
	}

	s.conn = conn
	return nil
}

// Read reads from the socket.
func (s *TCPStream) Read(p []byte) (int, error) {
	conn := s.currentConn()
	if conn == nil {
		return 0, ErrNotOpen
	}
	return conn.Read(p)
}

// Write writes to the socket.
func (s *TCPStream) Write(p []byte) (int, error) {
	conn := s.currentConn()
	if conn == nil {
		return 0, ErrNotOpen
	}
	return conn.Write(p)
}

// Flush is a no-op; TCP writes are not buffered by this stream.
func (s *TCPStream) Flush() error {
	if s.currentConn() == nil {
		return ErrNotOpen
	}
	return nil
}

// Close closes the socket. Pending reads are unblocked.
func (s *TCPStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Description returns "tcp://addr".
func (s *TCPStream) Description() string {
	return "tcp://" + s.addr
}

func (s *TCPStream) currentConn() net.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

package transport

import (
	"context"
	"fmt"
	"sync"

	"go.bug.st/serial"
)

// DefaultBaudRate is the baud rate StandardFirmata is compiled with.
const DefaultBaudRate = 57600

// SerialStream is a Stream over a local serial port (USB CDC or UART).
type SerialStream struct {
	mu   sync.Mutex
	path string
	baud int
	port serial.Port
}

// NewSerialStream creates a serial stream for the given port path.
// A baud of 0 selects DefaultBaudRate.
func NewSerialStream(path string, baud int) *SerialStream {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	return &SerialStream{path: path, baud: baud}
}

// Open opens the serial port in 8N1 mode.
func (s *SerialStream) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		return ErrAlreadyOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	mode := &serial.Mode{
		BaudRate: s.baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(s.path, mode)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.path, err)
	}

	// Discard whatever the board emitted before we attached; the firmata
	// parser resynchronizes on command bytes but a clean start is cheaper.
	_ = port.ResetInputBuffer()

	s.port = port
	return nil
}

// Read reads from the serial port.
func (s *SerialStream) Read(p []byte) (int, error) {
	port := s.currentPort()
	if port == nil {
		return 0, ErrNotOpen
	}
	return port.Read(p)
}

// Write writes to the serial port.
func (s *SerialStream) Write(p []byte) (int, error) {
	port := s.currentPort()
	if port == nil {
		return 0, ErrNotOpen
	}
	return port.Write(p)
}

// Flush drains the OS transmit buffer.
func (s *SerialStream) Flush() error {
	port := s.currentPort()
	if port == nil {
		return ErrNotOpen
	}
	return port.Drain()
}

// Close closes the serial port. Pending reads are unblocked.
func (s *SerialStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// Description returns "path@baud".
func (s *SerialStream) Description() string {
	return fmt.Sprintf("%s@%d", s.path, s.baud)
}

func (s *SerialStream) currentPort() serial.Port {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

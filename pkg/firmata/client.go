package firmata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/remote-wiring/wiring-go/pkg/log"
	"github.com/remote-wiring/wiring-go/pkg/transport"
)

// Client errors.
var (
	ErrAlreadyConnected = errors.New("client already connected")
	ErrClosed           = errors.New("client closed")
)

// Handle identifies a registered callback. Zero is never a valid handle.
type Handle uint32

// handleGenerator generates unique callback handles.
var handleGenerator atomic.Uint32

func nextHandle() Handle {
	return Handle(handleGenerator.Add(1))
}

// Client is a Firmata protocol endpoint attached to a transport.Stream.
//
// Locking: the write lock serializes outbound frames and is the INNER lock —
// callers that hold their own state lock (such as wiring.Device) acquire it
// first and let WriteFrame/WriteFrames take the write lock inside. Nothing in
// this package calls back out while holding the write lock.
type Client struct {
	stream transport.Stream
	connID string

	// writeMu guards atomic multi-byte frame writes (write + flush).
	writeMu sync.Mutex

	// mu guards connection state and the callback registries.
	mu     sync.Mutex
	ready  bool
	closed bool
	wg     sync.WaitGroup

	digitalFns    map[Handle]func(port uint8, value uint8)
	analogFns     map[Handle]func(channel uint8, value uint16)
	versionFns    map[Handle]func(major, minor uint8)
	capabilityFns map[Handle]func(payload []byte)
	sysexFns      map[Handle]func(command byte, payload []byte)
	stringFns     map[Handle]func(text string)
	readyFns      map[Handle]func()
	failedFns     map[Handle]func(message string)
	lostFns       map[Handle]func(message string)

	logger log.Logger
}

// NewClient creates a client for the given stream. The stream is not opened
// until Connect.
func NewClient(stream transport.Stream) *Client {
	return &Client{
		stream:        stream,
		connID:        uuid.New().String(),
		digitalFns:    make(map[Handle]func(uint8, uint8)),
		analogFns:     make(map[Handle]func(uint8, uint16)),
		versionFns:    make(map[Handle]func(uint8, uint8)),
		capabilityFns: make(map[Handle]func([]byte)),
		sysexFns:      make(map[Handle]func(byte, []byte)),
		stringFns:     make(map[Handle]func(string)),
		readyFns:      make(map[Handle]func()),
		failedFns:     make(map[Handle]func(string)),
		lostFns:       make(map[Handle]func(string)),
	}
}

// SetLogger configures protocol event logging. Pass nil to disable.
// Must be called before Connect.
func (c *Client) SetLogger(logger log.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger
}

// ConnectionID returns the client's connection UUID, used to correlate
// protocol log events.
func (c *Client) ConnectionID() string {
	return c.connID
}

// ConnectionReady reports whether the stream is open and the read loop is
// running. The check runs under the client's state lock.
func (c *Client) ConnectionReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Connect opens the stream and starts the read loop. On success the
// connection-ready callbacks fire before Connect returns; on failure the
// connection-failed callbacks fire and the error is returned.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.ready {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()

	if err := c.stream.Open(ctx); err != nil {
		err = fmt.Errorf("failed to open %s: %w", c.stream.Description(), err)
		c.logState("CONNECTING", "FAILED", err.Error())
		c.dispatchFailed(err.Error())
		return err
	}

	c.mu.Lock()
	c.ready = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.readLoop()

	c.logState("CONNECTING", "READY", "")
	c.dispatchReady()
	return nil
}

// Close stops the read loop and closes the stream. It is safe to call Close
// multiple times; no lost callbacks fire for a deliberate close.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.ready = false
	c.mu.Unlock()

	err := c.stream.Close()
	c.wg.Wait()
	c.logState("READY", "CLOSED", "")
	return err
}

// WriteFrame writes one complete frame and flushes, holding the write lock
// for the whole sequence so concurrent frames never interleave.
func (c *Client) WriteFrame(frame []byte) error {
	return c.WriteFrames(frame)
}

/// WriteFrames writes several frames as one atomic wire sequence: the write
// lock is held across all frames and the single trailing flush. Used for
// command sequences that must appear contiguously (a mode change plus its
// report-mask update).
func (c *Client) WriteFrames(frames ...[]byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	for _, frame := range frames {
		if _, err := c.stream.Write(frame); err != nil {
			c.logError(log.LayerTransport, err)
			return fmt.Errorf("frame write failed: %w", err)
		}
		c.logFrame(log.DirectionOut, frame)
	}
	if err := c.stream.Flush(); err != nil {
		c.logError(log.LayerTransport, err)
		return fmt.Errorf("flush failed: %w", err)
	}
	return nil
}

// Convenience senders. Each writes one atomic frame.

// SendPinMode sends a set-pin-mode frame.
func (c *Client) SendPinMode(pin, mode byte) error {
	return c.WriteFrame(MessagePinMode(pin, mode))
}

// SendDigitalPort sends the value byte of one digital port.
func (c *Client) SendDigitalPort(port, value byte) error {
	return c.WriteFrame(MessageDigitalPort(port, value))
}

// SendAnalog sends an analog value write for one pin.
func (c *Client) SendAnalog(pin byte, value uint16) error {
	return c.WriteFrame(MessageAnalog(pin, value))
}

// SendReportDigital sends the reporting mask for one digital port.
func (c *Client) SendReportDigital(port, mask byte) error {
	return c.WriteFrame(MessageReportDigital(port, mask))
}

// SendReportAnalog enables or disables reporting for one analog channel.
func (c *Client) SendReportAnalog(channel byte, enable bool) error {
	return c.WriteFrame(MessageReportAnalog(channel, enable))
}

// SendCapabilityQuery asks the firmware to enumerate its pins.
func (c *Client) SendCapabilityQuery() error {
	return c.WriteFrame(MessageCapabilityQuery())
}

// SendAnalogMappingQuery asks for the pin-to-analog-channel mapping.
func (c *Client) SendAnalogMappingQuery() error {
	return c.WriteFrame(MessageAnalogMappingQuery())
}

// SendString sends a string-data sysex frame.
func (c *Client) SendString(s string) error {
	return c.WriteFrame(MessageString(s))
}

// SendSysex sends an arbitrary sysex frame.
func (c *Client) SendSysex(command byte, payload []byte) error {
	return c.WriteFrame(MessageSysex(command, payload))
}

// SendSamplingInterval sets the firmware poll rate in milliseconds.
func (c *Client) SendSamplingInterval(ms uint16) error {
	return c.WriteFrame(MessageSamplingInterval(ms))
}

// SendProtocolVersionQuery asks for the firmware's protocol version.
func (c *Client) SendProtocolVersionQuery() error {
	return c.WriteFrame(MessageProtocolVersionQuery())
}

// SendSystemReset asks the firmware to reset to its power-up state.
func (c *Client) SendSystemReset() error {
	return c.WriteFrame(MessageSystemReset())
}

// readLoop reads the stream until it fails or the client is closed.
func (c *Client) readLoop() {
	defer c.wg.Done()

	var dec decoder
	buf := make([]byte, 256)
	for {
		n, err := c.stream.Read(buf)
		for i := 0; i < n; i++ {
			if msg, ok := dec.feed(buf[i]); ok {
				c.dispatch(msg)
			}
		}
		if err != nil {
			c.mu.Lock()
			deliberate := c.closed
			c.ready = false
			c.mu.Unlock()

			if !deliberate {
				c.logError(log.LayerTransport, err)
				c.logState("READY", "LOST", err.Error())
				c.dispatchLost(err.Error())
			}
			return
		}
	}
}

func (c *Client) dispatch(msg inboundMessage) {
	c.logMessage(msg)

	switch msg.kind {
	case kindDigital:
		for _, fn := range c.snapshotDigital() {
			fn(msg.channel, uint8(msg.value))
		}
	case kindAnalog:
		for _, fn := range c.snapshotAnalog() {
			fn(msg.channel, msg.value)
		}
	case kindVersion:
		for _, fn := range c.snapshotVersion() {
			fn(uint8(msg.value>>8), uint8(msg.value))
		}
	case kindSysex:
		c.dispatchSysex(msg.sysex, msg.payload)
	}
}

func (c *Client) dispatchSysex(command byte, payload []byte) {
	switch command {
	case SysexCapabilityResponse:
		for _, fn := range c.snapshotCapability() {
			fn(payload)
		}
	case SysexStringData:
		text := DecodeSysexString(payload)
		for _, fn := range c.snapshotString() {
			fn(text)
		}
	default:
		for _, fn := range c.snapshotSysex() {
			fn(command, payload)
		}
	}
}

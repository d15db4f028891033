package wiring

import (
	"context"
	"sync"

	"github.com/remote-wiring/wiring-go/pkg/firmata"
	"github.com/remote-wiring/wiring-go/pkg/transport"
)

// InvalidReading is returned by AnalogRead for pins that cannot be read:
// unknown pins, pins in a non-analog mode, or a device that has not
// finished capability negotiation.
const InvalidReading uint16 = 0xFFFF

// Device is a remote Firmata board exposed through a synchronous,
// Wiring-style pin API. All methods are safe for concurrent use.
//
// Locking: the device mutex guards the pin cache and the lifecycle state.
// Wire writes happen while it is held; the firmata client's write lock
// nests inside it, never the other way around. Listener callbacks are
// emitted with the device mutex released.
type Device struct {
	client     *firmata.Client
	ownsClient bool

	mu              sync.Mutex
	state           ConnectionState
	totalPins       int
	numAnalogPins   int
	analogOffset    int
	modes           []PinMode
	digitalPorts    []uint8
	subscribedPorts []uint8
	analogValues    []uint16

	listeners     *listenerSet
	clientHandles []firmata.Handle
}

// NewDevice creates a device over its own firmata client on the given
// stream. Connect must be called to open it.
func NewDevice(stream transport.Stream) *Device {
	return newDevice(firmata.NewClient(stream), true)
}

// NewDeviceWithClient creates a device over a caller-owned client. The
// caller keeps responsibility for connecting and closing the client; if the
// client is already connected, capability negotiation starts immediately.
func NewDeviceWithClient(client *firmata.Client) *Device {
	d := newDevice(client, false)
	if client.ConnectionReady() {
		d.onConnectionReady()
	}
	return d
}

func newDevice(client *firmata.Client, owns bool) *Device {
	d := &Device{
		client:     client,
		ownsClient: owns,
		state:      StateConnecting,
		listeners:  newListenerSet(),
	}
	d.clientHandles = []firmata.Handle{
		client.OnConnectionReady(d.onConnectionReady),
		client.OnConnectionFailed(d.onConnectionFailed),
		client.OnConnectionLost(d.onConnectionLost),
		client.OnDigitalReport(d.onDigitalReport),
		client.OnAnalogReport(d.onAnalogReport),
		client.OnCapabilityResponse(d.onCapabilityResponse),
		client.OnString(d.listeners.emitString),
		client.OnSysex(d.listeners.emitSysex),
	}
	return d
}

// Client returns the underlying protocol client, for protocol-level access
// (sysex, sampling interval, logging) the pin API does not cover.
func (d *Device) Client() *firmata.Client {
	return d.client
}

// Connect opens the connection and starts capability negotiation. It
// returns once the transport is open; wait for OnDeviceReady before using
// the pin API.
func (d *Device) Connect(ctx context.Context) error {
	return d.client.Connect(ctx)
}

// Close detaches the device from its client and, when the device owns the
// client, closes the connection.
func (d *Device) Close() error {
	for _, h := range d.clientHandles {
		d.client.Unsubscribe(h)
	}
	if d.ownsClient {
		return d.client.Close()
	}
	return nil
}

// State returns the current lifecycle state.
func (d *Device) State() ConnectionState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// TotalPins returns the pin count reported by the board, or zero before
// negotiation completes.
func (d *Device) TotalPins() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.totalPins
}

// NumAnalogPins returns the number of analog-capable pins.
func (d *Device) NumAnalogPins() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.numAnalogPins
}

// AnalogOffset returns the pin index of the first analog-capable pin.
func (d *Device) AnalogOffset() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.analogOffset
}

// validPinLocked reports whether pin is inside the negotiated pin range.
// Before negotiation totalPins is zero, so every pin is refused.
func (d *Device) validPinLocked(pin int) bool {
	return pin >= 0 && pin < d.totalPins
}

// resolveNameLocked maps an "A<n>" pin name to its absolute pin index.
func (d *Device) resolveNameLocked(name string) (int, bool) {
	channel, err := ParseAnalogPinName(name)
	if err != nil || channel >= d.numAnalogPins {
		return 0, false
	}
	return d.analogOffset + channel, true
}

// PinMode configures a pin's mode, updating the board's digital report
// subscription as the pin enters or leaves input mode. Unknown pins are
// ignored.
func (d *Device) PinMode(pin int, mode PinMode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.validPinLocked(pin) {
		return
	}
	d.pinModeLocked(pin, mode)
}

// PinModeNamed is PinMode addressed by analog pin name ("A0", "a3").
func (d *Device) PinModeNamed(name string, mode PinMode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pin, ok := d.resolveNameLocked(name)
	if !ok {
		return
	}
	d.pinModeLocked(pin, mode)
}

// pinModeLocked performs the mode change. The mode frame and the report
// subscription frame go out as one atomic wire sequence; the cached mode is
// updated only after both are on the wire, so a concurrent inbound report
// is merged against the mode the board still had.
func (d *Device) pinModeLocked(pin int, mode PinMode) {
	prev := d.modes[pin]
	port, mask := portForPin(pin)

	frames := [][]byte{firmata.MessagePinMode(byte(pin), byte(mode))}

	switch {
	case mode == PinModeInput && prev != PinModeInput:
		d.subscribedPorts[port] |= mask
		frames = append(frames, firmata.MessageReportDigital(byte(port), d.subscribedPorts[port]))
	case mode != PinModeInput && prev == PinModeInput:
		d.subscribedPorts[port] &^= mask
		frames = append(frames, firmata.MessageReportDigital(byte(port), d.subscribedPorts[port]))
	}

	if mode == PinModeOutput && prev != PinModeOutput {
		// The pin starts low as an output; a stale input reading must not
		// linger as its level.
		d.digitalPorts[port] &^= mask
	}

	_ = d.client.WriteFrames(frames...)
	d.modes[pin] = mode
}

// GetPinMode returns the cached mode of a pin, or PinModeIgnored for
// unknown pins.
func (d *Device) GetPinMode(pin int) PinMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.validPinLocked(pin) {
		return PinModeIgnored
	}
	return d.modes[pin]
}

// GetPinModeNamed is GetPinMode addressed by analog pin name.
func (d *Device) GetPinModeNamed(name string) PinMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	pin, ok := d.resolveNameLocked(name)
	if !ok {
		return PinModeIgnored
	}
	return d.modes[pin]
}

// DigitalWrite drives an output pin high or low. A pin in PWM mode is
// corrected to output first; any other mode makes the call a no-op. The
// whole port byte is sent, so sibling output pins keep their levels.
func (d *Device) DigitalWrite(pin int, state PinState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.validPinLocked(pin) {
		return
	}
	d.digitalWriteLocked(pin, state)
}

// DigitalWriteNamed is DigitalWrite addressed by analog pin name.
func (d *Device) DigitalWriteNamed(name string, state PinState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pin, ok := d.resolveNameLocked(name)
	if !ok {
		return
	}
	d.digitalWriteLocked(pin, state)
}

func (d *Device) digitalWriteLocked(pin int, state PinState) {
	if d.modes[pin] == PinModePWM {
		d.pinModeLocked(pin, PinModeOutput)
	}
	if d.modes[pin] != PinModeOutput {
		return
	}

	port, mask := portForPin(pin)
	if state == Low {
		d.digitalPorts[port] &^= mask
	} else {
		d.digitalPorts[port] |= mask
	}
	_ = d.client.SendDigitalPort(byte(port), d.digitalPorts[port])
}

// DigitalRead returns a pin's cached digital level. A pin in analog mode
// is corrected to input first. Unknown pins read Low.
func (d *Device) DigitalRead(pin int) PinState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.validPinLocked(pin) {
		return Low
	}
	return d.digitalReadLocked(pin)
}

// DigitalReadNamed is DigitalRead addressed by analog pin name.
func (d *Device) DigitalReadNamed(name string) PinState {
	d.mu.Lock()
	defer d.mu.Unlock()
	pin, ok := d.resolveNameLocked(name)
	if !ok {
		return Low
	}
	return d.digitalReadLocked(pin)
}

func (d *Device) digitalReadLocked(pin int) PinState {
	if d.modes[pin] == PinModeAnalog {
		d.pinModeLocked(pin, PinModeInput)
	}

	port, mask := portForPin(pin)
	if d.digitalPorts[port]&mask != 0 {
		return High
	}
	return Low
}

// AnalogWrite sets a PWM pin's duty value. A pin in output mode is
// corrected to PWM first; any other mode makes the call a no-op.
func (d *Device) AnalogWrite(pin int, value uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.validPinLocked(pin) {
		return
	}
	d.analogWriteLocked(pin, value)
}

// AnalogWriteNamed is AnalogWrite addressed by analog pin name.
func (d *Device) AnalogWriteNamed(name string, value uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pin, ok := d.resolveNameLocked(name)
	if !ok {
		return
	}
	d.analogWriteLocked(pin, value)
}

func (d *Device) analogWriteLocked(pin int, value uint16) {
	if d.modes[pin] == PinModeOutput {
		d.pinModeLocked(pin, PinModePWM)
	}
	if d.modes[pin] != PinModePWM {
		return
	}
	_ = d.client.SendAnalog(byte(pin), value)
}

// AnalogRead returns the latest reported value of an analog pin, addressed
// by absolute pin index. A pin in input mode is corrected to analog first;
// a pin that is not analog-capable, or not in analog mode, reads
// InvalidReading.
func (d *Device) AnalogRead(pin int) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.validPinLocked(pin) {
		return InvalidReading
	}
	return d.analogReadLocked(pin)
}

// AnalogReadNamed is AnalogRead addressed by analog pin name, so
// AnalogReadNamed("A0") reads the first analog channel regardless of the
// board's pin numbering.
func (d *Device) AnalogReadNamed(name string) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	pin, ok := d.resolveNameLocked(name)
	if !ok {
		return InvalidReading
	}
	return d.analogReadLocked(pin)
}

func (d *Device) analogReadLocked(pin int) uint16 {
	if d.modes[pin] == PinModeInput {
		d.pinModeLocked(pin, PinModeAnalog)
	}
	if d.modes[pin] != PinModeAnalog {
		return InvalidReading
	}

	channel := pin - d.analogOffset
	if channel < 0 || channel >= d.numAnalogPins {
		return InvalidReading
	}
	return d.analogValues[channel]
}

// SendString sends a string-data message to the board.
func (d *Device) SendString(text string) error {
	return d.client.SendString(text)
}

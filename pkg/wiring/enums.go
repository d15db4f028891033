package wiring

// PinMode is a pin's configured mode. The byte values are the Firmata wire
// encoding; the authoritative mode lives on the board, this is the cached
// view.
type PinMode uint8

const (
	// PinModeInput configures a pin as a digital input reported by the board.
	PinModeInput PinMode = 0x00

	// PinModeOutput configures a pin as a digital output.
	PinModeOutput PinMode = 0x01

	// PinModeAnalog configures a pin as an analog input.
	PinModeAnalog PinMode = 0x02

	// PinModePWM configures a pin as a PWM output.
	PinModePWM PinMode = 0x03

	// PinModeServo configures a pin as a servo output.
	PinModeServo PinMode = 0x04

	// PinModeI2C hands a pin to the two-wire bus.
	PinModeI2C PinMode = 0x06

	// PinModeIgnored marks a pin this library does not manage. Also the
	// sentinel returned for unparseable pin names.
	PinModeIgnored PinMode = 0x7F
)

// String returns the pin mode name.
func (m PinMode) String() string {
	switch m {
	case PinModeInput:
		return "INPUT"
	case PinModeOutput:
		return "OUTPUT"
	case PinModeAnalog:
		return "ANALOG"
	case PinModePWM:
		return "PWM"
	case PinModeServo:
		return "SERVO"
	case PinModeI2C:
		return "I2C"
	case PinModeIgnored:
		return "IGNORED"
	default:
		return "UNKNOWN"
	}
}

// PinState is a digital pin level.
type PinState uint8

const (
	// Low is a logic-low pin level.
	Low PinState = 0

	// High is a logic-high pin level.
	High PinState = 1
)

// String returns the pin state name.
func (s PinState) String() string {
	switch s {
	case Low:
		return "LOW"
	case High:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// ConnectionState is the device lifecycle state. Owned by the device;
// pin operations are refused until StateInitialized.
type ConnectionState uint8

const (
	// StateConnecting indicates the transport has not reported ready yet.
	StateConnecting ConnectionState = iota

	// StateReady indicates the transport is up but capabilities are unknown.
	StateReady

	// StateNegotiating indicates the capability query is in flight.
	StateNegotiating

	// StateInitialized indicates the pin cache is sized and the device is
	// usable.
	StateInitialized

	// StateFailed indicates the connection attempt failed. Terminal.
	StateFailed

	// StateLost indicates an established connection dropped. Terminal.
	StateLost
)

// String returns the connection state name.
func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateReady:
		return "READY"
	case StateNegotiating:
		return "NEGOTIATING"
	case StateInitialized:
		return "INITIALIZED"
	case StateFailed:
		return "FAILED"
	case StateLost:
		return "LOST"
	default:
		return "UNKNOWN"
	}
}

// portForPin maps a pin to its digital port and bit mask: 8 consecutive
// pins share a port, addressed as one byte on the wire.
func portForPin(pin int) (port int, mask uint8) {
	return pin / 8, 1 << (pin % 8)
}

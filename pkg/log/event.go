package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Transport describes the endpoint, e.g. "/dev/ttyACM0@57600".
	Transport string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Protocol layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Connection/device lifecycle
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the raw byte-stream layer.
	LayerTransport Layer = 0
	// LayerProtocol is the Firmata message layer (decoded frames).
	LayerProtocol Layer = 1
	// LayerDevice is the device/pin layer.
	LayerDevice Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerProtocol:
		return "PROTOCOL"
	case LayerDevice:
		return "DEVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame indicates a raw frame.
	CategoryFrame Category = 0
	// CategoryMessage indicates a decoded protocol message.
	CategoryMessage Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame bytes at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large sysex frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded Firmata message at the protocol layer.
type MessageEvent struct {
	// Command is the command byte (port/channel bits masked off).
	Command uint8 `cbor:"1,keyasint"`

	// Channel is the port number (digital messages) or analog channel
	// (analog messages), when the command carries one.
	Channel *uint8 `cbor:"2,keyasint,omitempty"`

	// Value is the decoded message value, when the command carries one.
	Value *uint16 `cbor:"3,keyasint,omitempty"`

	// SysexCommand is the sysex sub-command for sysex messages.
	SysexCommand *uint8 `cbor:"4,keyasint,omitempty"`

	// PayloadSize is the sysex payload size for sysex messages.
	PayloadSize *int `cbor:"5,keyasint,omitempty"`
}

// StateChangeEvent captures connection and device lifecycle events.
type StateChangeEvent struct {
	// From is the previous state name.
	From string `cbor:"1,keyasint"`

	// To is the new state name.
	To string `cbor:"2,keyasint"`

	// Reason describes why the change happened, if known.
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures an error at any layer.
type ErrorEventData struct {
	// Message is the error text.
	Message string `cbor:"1,keyasint"`
}

// NewFrameEvent creates a transport-layer frame event.
func NewFrameEvent(connID string, dir Direction, data []byte, truncateAt int) Event {
	frame := &FrameEvent{Size: len(data)}
	if truncateAt > 0 && len(data) > truncateAt {
		frame.Data = append([]byte(nil), data[:truncateAt]...)
		frame.Truncated = true
	} else {
		frame.Data = append([]byte(nil), data...)
	}
	return Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    dir,
		Layer:        LayerTransport,
		Category:     CategoryFrame,
		Frame:        frame,
	}
}

// NewStateChangeEvent creates a lifecycle state-change event.
func NewStateChangeEvent(connID, from, to, reason string) Event {
	return Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    DirectionIn,
		Layer:        LayerDevice,
		Category:     CategoryState,
		StateChange:  &StateChangeEvent{From: from, To: to, Reason: reason},
	}
}

// NewErrorEvent creates an error event at the given layer.
func NewErrorEvent(connID string, layer Layer, err error) Event {
	return Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    DirectionIn,
		Layer:        layer,
		Category:     CategoryError,
		Error:        &ErrorEventData{Message: err.Error()},
	}
}

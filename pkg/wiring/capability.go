package wiring

// descriptorEnd terminates one pin's capability descriptor.
const descriptorEnd = 0x7F

// Capabilities summarizes a parsed capability response.
type Capabilities struct {
	// TotalPins is the number of complete pin descriptors in the response.
	TotalPins int

	// NumAnalogPins is the number of pins advertising an analog capability.
	NumAnalogPins int

	// AnalogOffset is the pin index of the first analog-capable pin. Pin
	// name "A0" maps to this index, "A1" to the next analog pin, and so on.
	AnalogOffset int
}

// ParseCapabilityResponse walks a capability-response payload: one
// variable-length descriptor per pin, each a list of (mode, resolution)
// byte pairs terminated by 0x7F.
//
// The scan is bounded by the payload length, so a malformed response (a
// descriptor that never reaches its terminator) cannot loop; the trailing
// partial descriptor is simply not counted.
func ParseCapabilityResponse(payload []byte) Capabilities {
	var caps Capabilities
	seenAnalog := false

	for i := 0; i < len(payload); {
		if payload[i] == descriptorEnd {
			caps.TotalPins++
			i++
			continue
		}

		switch PinMode(payload[i]) {
		case PinModeInput:
			// Firmware historically lists the input capability as two
			// consecutive pairs (input then output); when the doubled form
			// is present the whole 4-byte descriptor is consumed at once.
			if i+2 < len(payload) &&
				(payload[i+2] == byte(PinModeInput) || payload[i+2] == byte(PinModeOutput)) {
				i += 4
			} else {
				i += 2
			}

		case PinModeAnalog:
			// The first analog-capable pin anchors the analog offset,
			// mapping names like "A0" onto absolute pin indices.
			if !seenAnalog {
				caps.AnalogOffset = caps.TotalPins
				seenAnalog = true
			}
			caps.NumAnalogPins++

			// Analog shares the pair-skip below.
			fallthrough

		case PinModePWM, PinModeServo, PinModeI2C:
			i += 2

		default:
			// Unrecognized capability byte: skip one byte so the scan
			// keeps progressing.
			i++
		}
	}

	return caps
}

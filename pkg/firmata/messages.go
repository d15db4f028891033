package firmata

// Outbound frame encoders. These are pure functions; the Client writes the
// returned frames atomically under its write lock.

// MessagePinMode encodes a set-pin-mode frame.
func MessagePinMode(pin, mode byte) []byte {
	return []byte{SetPinMode, pin & 0x7F, mode}
}

// MessageDigitalPort encodes a digital message carrying a full port byte.
// Firmata splits the 8-bit port value across two 7-bit data bytes.
func MessageDigitalPort(port, value byte) []byte {
	return []byte{
		DigitalMessage | (port & MaxChannel),
		value & 0x7F,
		(value >> 7) & 0x7F,
	}
}

// MessageReportDigital encodes a digital subscription frame for one port.
// mask has bit i set when pin port*8+i should be reported by the firmware.
func MessageReportDigital(port, mask byte) []byte {
	return []byte{ReportDigital | (port & MaxChannel), mask}
}

// MessageReportAnalog encodes an analog subscription frame for one channel.
func MessageReportAnalog(channel byte, enable bool) []byte {
	var e byte
	if enable {
		e = 1
	}
	return []byte{ReportAnalog | (channel & MaxChannel), e}
}

// MessageAnalog encodes an analog value write. Pins or values beyond the
// reach of the standard three-byte message fall back to an extended analog
// sysex frame.
func MessageAnalog(pin byte, value uint16) []byte {
	if pin <= MaxChannel && value <= MaxDataValue {
		return []byte{
			AnalogMessage | (pin & MaxChannel),
			byte(value & 0x7F),
			byte((value >> 7) & 0x7F),
		}
	}
	return []byte{
		StartSysex,
		SysexExtendedAnalog,
		pin & 0x7F,
		byte(value & 0x7F),
		byte((value >> 7) & 0x7F),
		byte((value >> 14) & 0x7F),
		EndSysex,
	}
}

// MessageCapabilityQuery encodes a capability query frame.
func MessageCapabilityQuery() []byte {
	return []byte{StartSysex, SysexCapabilityQuery, EndSysex}
}

// MessageAnalogMappingQuery encodes an analog mapping query frame.
func MessageAnalogMappingQuery() []byte {
	return []byte{StartSysex, SysexAnalogMappingQuery, EndSysex}
}

// MessageProtocolVersionQuery encodes a protocol version request.
func MessageProtocolVersionQuery() []byte {
	return []byte{ProtocolVersion}
}

// MessageSystemReset encodes a system reset request.
func MessageSystemReset() []byte {
	return []byte{SystemReset}
}

// MessageSamplingInterval encodes a sampling interval frame (milliseconds).
func MessageSamplingInterval(ms uint16) []byte {
	return []byte{
		StartSysex,
		SysexSamplingInterval,
		byte(ms & 0x7F),
		byte((ms >> 7) & 0x7F),
		EndSysex,
	}
}

// MessageString encodes a string-data sysex frame, two 7-bit bytes per
// character.
func MessageString(s string) []byte {
	frame := make([]byte, 0, 3+2*len(s))
	frame = append(frame, StartSysex, SysexStringData)
	for i := 0; i < len(s); i++ {
		frame = append(frame, s[i]&0x7F, (s[i]>>7)&0x7F)
	}
	return append(frame, EndSysex)
}

// MessageSysex wraps an arbitrary sysex payload. The payload must already
// be 7-bit clean; this function masks defensively.
func MessageSysex(command byte, payload []byte) []byte {
	frame := make([]byte, 0, 3+len(payload))
	frame = append(frame, StartSysex, command&0x7F)
	for _, b := range payload {
		frame = append(frame, b&0x7F)
	}
	return append(frame, EndSysex)
}

// DecodeSysexString decodes a string-data payload (two 7-bit bytes per
// character). A trailing odd byte is taken as a bare character.
func DecodeSysexString(payload []byte) string {
	buf := make([]byte, 0, len(payload)/2+1)
	for i := 0; i < len(payload); i += 2 {
		c := payload[i] & 0x7F
		if i+1 < len(payload) {
			c |= (payload[i+1] & 0x7F) << 7
		}
		buf = append(buf, c)
	}
	return string(buf)
}

package firmata

// messageKind distinguishes decoded inbound messages.
type messageKind uint8

const (
	kindDigital messageKind = iota
	kindAnalog
	kindVersion
	kindSysex
)

// inboundMessage is one fully decoded inbound message.
type inboundMessage struct {
	kind    messageKind
	channel byte   // port (digital) or analog channel (analog)
	value   uint16 // port byte or 14-bit analog value; major<<8|minor for version
	sysex   byte   // sysex sub-command
	payload []byte // sysex payload (without sub-command byte)
}

// decoder incrementally decodes the inbound Firmata byte stream. One decoder
// instance belongs to one read loop; it is not safe for concurrent use.
//
// The decoder resynchronizes on command bytes: data bytes arriving with no
// message in progress are discarded, and a command byte arriving mid-message
// aborts the unfinished message and starts the new one.
type decoder struct {
	command byte
	channel byte
	data    [2]byte
	have    int
	needed  int

	inSysex bool
	sysex   []byte
}

// feed consumes one byte. It returns the completed message and true when the
// byte finishes a message.
func (d *decoder) feed(b byte) (inboundMessage, bool) {
	if b >= 0x80 && b != EndSysex {
		return d.feedCommand(b)
	}

	if d.inSysex {
		if b == EndSysex {
			return d.finishSysex()
		}
		if len(d.sysex) >= MaxSysexPayload {
			d.reset()
			return inboundMessage{}, false
		}
		d.sysex = append(d.sysex, b)
		return inboundMessage{}, false
	}

	if d.needed == 0 {
		// Data byte with no message in progress: discard and resync.
		return inboundMessage{}, false
	}

	d.data[d.have] = b
	d.have++
	if d.have < d.needed {
		return inboundMessage{}, false
	}
	return d.finishMessage()
}

func (d *decoder) feedCommand(b byte) (inboundMessage, bool) {
	// A new command aborts any unfinished message.
	d.reset()

	switch b & 0xF0 {
	case DigitalMessage:
		d.command = DigitalMessage
		d.channel = b & MaxChannel
		d.needed = 2
	case AnalogMessage:
		d.command = AnalogMessage
		d.channel = b & MaxChannel
		d.needed = 2
	default:
		switch b {
		case StartSysex:
			d.inSysex = true
			d.sysex = d.sysex[:0]
		case ProtocolVersion:
			d.command = ProtocolVersion
			d.needed = 2
		default:
			// Command we do not consume inbound (SetPinMode echoes,
			// SystemReset, ...): skip.
		}
	}
	return inboundMessage{}, false
}

func (d *decoder) finishMessage() (inboundMessage, bool) {
	msg := inboundMessage{channel: d.channel}
	switch d.command {
	case DigitalMessage:
		msg.kind = kindDigital
		msg.value = uint16(d.data[0]&0x7F) | uint16(d.data[1]&0x7F)<<7
	case AnalogMessage:
		msg.kind = kindAnalog
		msg.value = uint16(d.data[0]&0x7F) | uint16(d.data[1]&0x7F)<<7
	case ProtocolVersion:
		msg.kind = kindVersion
		msg.value = uint16(d.data[0])<<8 | uint16(d.data[1])
	}
	d.reset()
	return msg, true
}

func (d *decoder) finishSysex() (inboundMessage, bool) {
	payload := d.sysex
	d.inSysex = false
	d.sysex = nil
	if len(payload) == 0 {
		return inboundMessage{}, false
	}
	return inboundMessage{
		kind:    kindSysex,
		sysex:   payload[0],
		payload: payload[1:],
	}, true
}

func (d *decoder) reset() {
	d.command = 0
	d.channel = 0
	d.have = 0
	d.needed = 0
	d.inSysex = false
	d.sysex = nil
}

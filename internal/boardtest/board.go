// Package boardtest emulates enough of a Firmata firmware for tests: a
// Board sits on the far end of a transport pipe, answers the capability
// query, records every command it receives, and can push reports.
package boardtest

import (
	"net"
	"sync"

	"github.com/remote-wiring/wiring-go/pkg/firmata"
	"github.com/remote-wiring/wiring-go/pkg/version"
)

// Board is a scripted Firmata firmware endpoint.
type Board struct {
	conn net.Conn

	mu           sync.Mutex
	capability   []byte
	pinModes     map[byte]byte
	portValues   map[byte]byte
	reportMasks  map[byte]byte
	analogWrites map[byte]uint16
	sysex        [][]byte

	done chan struct{}
}

// DefaultCapability builds a capability-response payload for a board with
// totalPins pins, of which the last analogCount are analog-capable.
// Digital pins advertise input, output and PWM; analog pins advertise
// analog input only.
func DefaultCapability(totalPins, analogCount int) []byte {
	var payload []byte
	analogStart := totalPins - analogCount
	for pin := 0; pin < totalPins; pin++ {
		if pin >= analogStart {
			payload = append(payload, 0x02, 0x0A)
		} else {
			payload = append(payload, 0x00, 0x01, 0x01, 0x01, 0x03, 0x08)
		}
		payload = append(payload, 0x7F)
	}
	return payload
}

// New starts a board on the given connection, usually the peer half of a
// transport pipe. The capability payload is returned verbatim when the
// capability query arrives.
func New(conn net.Conn, capability []byte) *Board {
	b := &Board{
		conn:         conn,
		capability:   capability,
		pinModes:     make(map[byte]byte),
		portValues:   make(map[byte]byte),
		reportMasks:  make(map[byte]byte),
		analogWrites: make(map[byte]uint16),
		done:         make(chan struct{}),
	}
	go b.readLoop()
	return b
}

// Close shuts the board's connection and waits for its read loop.
func (b *Board) Close() {
	_ = b.conn.Close()
	<-b.done
}

// PushDigital sends a digital report for one port.
func (b *Board) PushDigital(port, value byte) {
	_, _ = b.conn.Write([]byte{firmata.DigitalMessage | (port & 0x0F), value & 0x7F, (value >> 7) & 0x7F})
}

// PushAnalog sends an analog report for one channel.
func (b *Board) PushAnalog(channel byte, value uint16) {
	_, _ = b.conn.Write([]byte{firmata.AnalogMessage | (channel & 0x0F), byte(value & 0x7F), byte((value >> 7) & 0x7F)})
}

// PushString sends a string-data sysex message.
func (b *Board) PushString(text string) {
	frame := []byte{firmata.StartSysex, firmata.SysexStringData}
	for _, c := range []byte(text) {
		frame = append(frame, c&0x7F, (c>>7)&0x7F)
	}
	frame = append(frame, firmata.EndSysex)
	_, _ = b.conn.Write(frame)
}

// PushProtocolVersion sends a protocol-version report.
func (b *Board) PushProtocolVersion(major, minor byte) {
	_, _ = b.conn.Write([]byte{firmata.ProtocolVersion, major, minor})
}

// PinMode returns the last mode set for a pin.
func (b *Board) PinMode(pin byte) (byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	mode, ok := b.pinModes[pin]
	return mode, ok
}

// PortValue returns the last digital value written to a port.
func (b *Board) PortValue(port byte) (byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.portValues[port]
	return v, ok
}

// ReportMask returns the last digital report mask set for a port.
func (b *Board) ReportMask(port byte) (byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.reportMasks[port]
	return m, ok
}

// AnalogWrite returns the last analog value written to a pin.
func (b *Board) AnalogWrite(pin byte) (uint16, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.analogWrites[pin]
	return v, ok
}

// SysexFrames returns copies of every non-capability sysex payload
// received, command byte first.
func (b *Board) SysexFrames() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	frames := make([][]byte, len(b.sysex))
	for i, f := range b.sysex {
		frames[i] = append([]byte(nil), f...)
	}
	return frames
}

// readLoop parses inbound commands with a minimal state machine.
func (b *Board) readLoop() {
	defer close(b.done)

	var (
		command byte
		channel byte
		data    [2]byte
		have    int
		needed  int
		inSysex bool
		sysex   []byte
	)

	buf := make([]byte, 256)
	for {
		n, err := b.conn.Read(buf)
		for i := 0; i < n; i++ {
			c := buf[i]

			if inSysex {
				if c == firmata.EndSysex {
					inSysex = false
					b.handleSysex(sysex)
					sysex = nil
				} else {
					sysex = append(sysex, c)
				}
				continue
			}

			if c >= 0x80 {
				switch c & 0xF0 {
				case firmata.DigitalMessage, firmata.AnalogMessage:
					command, channel, have, needed = c&0xF0, c&0x0F, 0, 2
				default:
					switch c {
					case firmata.StartSysex:
						inSysex = true
					case firmata.SetPinMode:
						command, have, needed = c, 0, 2
					case firmata.ProtocolVersion:
						// Version query carries no data; answer in kind.
						v := version.MustParse(version.Current)
						b.PushProtocolVersion(v.Major, v.Minor)
					default:
						if c&0xF0 == firmata.ReportDigital {
							command, channel, have, needed = firmata.ReportDigital, c&0x0F, 0, 1
						} else if c&0xF0 == firmata.ReportAnalog {
							command, channel, have, needed = firmata.ReportAnalog, c&0x0F, 0, 1
						}
					}
				}
				continue
			}

			if needed == 0 {
				continue
			}
			data[have] = c
			have++
			if have < needed {
				continue
			}
			needed = 0
			b.handleCommand(command, channel, data)
		}
		if err != nil {
			return
		}
	}
}

func (b *Board) handleCommand(command, channel byte, data [2]byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch command {
	case firmata.SetPinMode:
		b.pinModes[data[0]] = data[1]
	case firmata.DigitalMessage:
		b.portValues[channel] = (data[0] & 0x7F) | (data[1] << 7)
	case firmata.AnalogMessage:
		b.analogWrites[channel] = uint16(data[0]) | uint16(data[1])<<7
	case firmata.ReportDigital:
		b.reportMasks[channel] = data[0]
	}
}

func (b *Board) handleSysex(payload []byte) {
	if len(payload) == 0 {
		return
	}
	command, rest := payload[0], payload[1:]

	if command == firmata.SysexCapabilityQuery {
		b.mu.Lock()
		capability := b.capability
		b.mu.Unlock()

		frame := []byte{firmata.StartSysex, firmata.SysexCapabilityResponse}
		frame = append(frame, capability...)
		frame = append(frame, firmata.EndSysex)
		_, _ = b.conn.Write(frame)
		return
	}

	b.mu.Lock()
	b.sysex = append(b.sysex, append([]byte{command}, rest...))
	b.mu.Unlock()
}

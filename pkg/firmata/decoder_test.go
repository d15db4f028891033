package firmata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedAll feeds a byte sequence and returns every completed message.
func feedAll(d *decoder, bytes []byte) []inboundMessage {
	var msgs []inboundMessage
	for _, b := range bytes {
		if msg, ok := d.feed(b); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func TestDecodeDigitalMessage(t *testing.T) {
	var d decoder
	msgs := feedAll(&d, []byte{DigitalMessage | 0x02, 0x05, 0x01})

	require.Len(t, msgs, 1)
	assert.Equal(t, kindDigital, msgs[0].kind)
	assert.Equal(t, byte(2), msgs[0].channel)
	assert.Equal(t, uint16(0x85), msgs[0].value)
}

func TestDecodeAnalogMessage(t *testing.T) {
	var d decoder
	msgs := feedAll(&d, []byte{AnalogMessage | 0x03, 0x00, 0x04})

	require.Len(t, msgs, 1)
	assert.Equal(t, kindAnalog, msgs[0].kind)
	assert.Equal(t, byte(3), msgs[0].channel)
	assert.Equal(t, uint16(512), msgs[0].value)
}

func TestDecodeProtocolVersion(t *testing.T) {
	var d decoder
	msgs := feedAll(&d, []byte{ProtocolVersion, 2, 6})

	require.Len(t, msgs, 1)
	assert.Equal(t, kindVersion, msgs[0].kind)
	assert.Equal(t, uint16(2<<8|6), msgs[0].value)
}

func TestDecodeSysex(t *testing.T) {
	var d decoder
	msgs := feedAll(&d, []byte{StartSysex, SysexCapabilityResponse, 0x00, 0x01, 0x7F, EndSysex})

	require.Len(t, msgs, 1)
	assert.Equal(t, kindSysex, msgs[0].kind)
	assert.Equal(t, SysexCapabilityResponse, msgs[0].sysex)
	assert.Equal(t, []byte{0x00, 0x01, 0x7F}, msgs[0].payload)
}

func TestDecodeEmptySysexDropped(t *testing.T) {
	var d decoder
	msgs := feedAll(&d, []byte{StartSysex, EndSysex})
	assert.Empty(t, msgs)
}

func TestDecoderSurvivesFragmentation(t *testing.T) {
	// The same stream split one byte at a time must decode identically.
	var d decoder
	stream := []byte{
		DigitalMessage, 0x7F, 0x01,
		AnalogMessage | 0x01, 0x10, 0x00,
		StartSysex, SysexStringData, 'h', 0x00, 'i', 0x00, EndSysex,
	}
	msgs := feedAll(&d, stream)

	require.Len(t, msgs, 3)
	assert.Equal(t, kindDigital, msgs[0].kind)
	assert.Equal(t, kindAnalog, msgs[1].kind)
	assert.Equal(t, kindSysex, msgs[2].kind)
	assert.Equal(t, "hi", DecodeSysexString(msgs[2].payload))
}

func TestDecoderResyncsOnStrayDataBytes(t *testing.T) {
	var d decoder
	// Garbage data bytes with no command in progress are discarded.
	msgs := feedAll(&d, []byte{0x12, 0x34, DigitalMessage, 0x01, 0x00})

	require.Len(t, msgs, 1)
	assert.Equal(t, kindDigital, msgs[0].kind)
	assert.Equal(t, uint16(1), msgs[0].value)
}

func TestDecoderCommandAbortsUnfinishedMessage(t *testing.T) {
	var d decoder
	// A digital message is cut short by a new analog command; only the
	// analog message completes.
	msgs := feedAll(&d, []byte{DigitalMessage, 0x01, AnalogMessage, 0x02, 0x00})

	require.Len(t, msgs, 1)
	assert.Equal(t, kindAnalog, msgs[0].kind)
	assert.Equal(t, uint16(2), msgs[0].value)
}

func TestDecoderCapsSysexPayload(t *testing.T) {
	var d decoder
	d.feed(StartSysex)
	d.feed(SysexStringData)
	for i := 0; i < MaxSysexPayload+10; i++ {
		_, ok := d.feed(0x01)
		assert.False(t, ok)
	}
	// The oversized message was dropped; the stream recovers on the next
	// complete message.
	msgs := feedAll(&d, []byte{EndSysex, ProtocolVersion, 2, 6})
	require.Len(t, msgs, 1)
	assert.Equal(t, kindVersion, msgs[0].kind)
}

func TestDecoderIgnoresUnknownCommands(t *testing.T) {
	var d decoder
	msgs := feedAll(&d, []byte{SystemReset, 0xF5, DigitalMessage, 0x03, 0x00})
	require.Len(t, msgs, 1)
	assert.Equal(t, kindDigital, msgs[0].kind)
}

package log_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remote-wiring/wiring-go/pkg/log"
)

func TestEventEncodeDecode(t *testing.T) {
	channel := uint8(3)
	value := uint16(512)
	event := log.Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "conn-1",
		Direction:    log.DirectionIn,
		Layer:        log.LayerProtocol,
		Category:     log.CategoryMessage,
		Transport:    "/dev/ttyACM0@57600",
		Message: &log.MessageEvent{
			Command: 0xE0,
			Channel: &channel,
			Value:   &value,
		},
	}

	data, err := log.EncodeEvent(event)
	require.NoError(t, err)

	decoded, err := log.DecodeEvent(data)
	require.NoError(t, err)

	assert.Equal(t, event.ConnectionID, decoded.ConnectionID)
	assert.Equal(t, event.Direction, decoded.Direction)
	assert.Equal(t, event.Layer, decoded.Layer)
	assert.Equal(t, event.Transport, decoded.Transport)
	require.NotNil(t, decoded.Message)
	assert.Equal(t, uint8(0xE0), decoded.Message.Command)
	require.NotNil(t, decoded.Message.Value)
	assert.Equal(t, uint16(512), *decoded.Message.Value)
	assert.WithinDuration(t, event.Timestamp, decoded.Timestamp, time.Millisecond)
}

func TestNewFrameEventTruncates(t *testing.T) {
	data := make([]byte, 600)
	event := log.NewFrameEvent("conn-1", log.DirectionOut, data, 512)

	require.NotNil(t, event.Frame)
	assert.Equal(t, 600, event.Frame.Size)
	assert.Len(t, event.Frame.Data, 512)
	assert.True(t, event.Frame.Truncated)

	event = log.NewFrameEvent("conn-1", log.DirectionOut, []byte{1, 2, 3}, 512)
	assert.Equal(t, []byte{1, 2, 3}, event.Frame.Data)
	assert.False(t, event.Frame.Truncated)
}

func TestFileLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protocol.cborlog")

	logger, err := log.NewFileLogger(path)
	require.NoError(t, err)

	logger.Log(log.NewFrameEvent("conn-a", log.DirectionOut, []byte{0xF0, 0x6B, 0xF7}, 0))
	logger.Log(log.NewStateChangeEvent("conn-a", "CONNECTING", "READY", ""))
	logger.Log(log.NewErrorEvent("conn-b", log.LayerTransport, errors.New("read: broken pipe")))
	require.NoError(t, logger.Close())

	reader, err := log.NewReader(path)
	require.NoError(t, err)
	defer reader.Close()

	events, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, log.CategoryFrame, events[0].Category)
	assert.Equal(t, []byte{0xF0, 0x6B, 0xF7}, events[0].Frame.Data)
	assert.Equal(t, "READY", events[1].StateChange.To)
	assert.Equal(t, "read: broken pipe", events[2].Error.Message)
}

func TestFilteredReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "protocol.cborlog")

	logger, err := log.NewFileLogger(path)
	require.NoError(t, err)
	logger.Log(log.NewFrameEvent("conn-a", log.DirectionOut, []byte{0x01}, 0))
	logger.Log(log.NewFrameEvent("conn-b", log.DirectionIn, []byte{0x02}, 0))
	logger.Log(log.NewFrameEvent("conn-a", log.DirectionIn, []byte{0x03}, 0))
	require.NoError(t, logger.Close())

	dir := log.DirectionIn
	reader, err := log.NewFilteredReader(path, log.Filter{
		ConnectionID: "conn-a",
		Direction:    &dir,
	})
	require.NoError(t, err)
	defer reader.Close()

	events, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, []byte{0x03}, events[0].Frame.Data)
}

// countingLogger records how many events it saw.
type countingLogger struct{ count int }

func (c *countingLogger) Log(log.Event) { c.count++ }

func TestMultiLoggerFansOut(t *testing.T) {
	a := &countingLogger{}
	b := &countingLogger{}
	multi := log.NewMultiLogger(a, b, log.NoopLogger{})

	multi.Log(log.NewStateChangeEvent("conn", "A", "B", ""))
	multi.Log(log.NewStateChangeEvent("conn", "B", "C", ""))

	assert.Equal(t, 2, a.count)
	assert.Equal(t, 2, b.count)
}

package commands

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remote-wiring/wiring-go/pkg/log"
)

// writeSampleLog builds a small log file with one event of each category.
func writeSampleLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.cborlog")

	logger, err := log.NewFileLogger(path)
	require.NoError(t, err)

	frame := log.NewFrameEvent("11112222-aaaa-bbbb-cccc-333344445555", log.DirectionOut, []byte{0xF0, 0x6B, 0xF7}, 0)
	frame.Transport = "/dev/ttyACM0@57600"
	logger.Log(frame)

	channel := uint8(0)
	value := uint16(512)
	logger.Log(log.Event{
		Timestamp:    frame.Timestamp,
		ConnectionID: frame.ConnectionID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerProtocol,
		Category:     log.CategoryMessage,
		Message:      &log.MessageEvent{Command: 0xE0, Channel: &channel, Value: &value},
	})
	logger.Log(log.NewStateChangeEvent(frame.ConnectionID, "CONNECTING", "READY", ""))
	logger.Log(log.NewErrorEvent(frame.ConnectionID, log.LayerTransport, errors.New("read: broken pipe")))
	require.NoError(t, logger.Close())

	return path
}

func TestRunView(t *testing.T) {
	path := writeSampleLog(t)

	var out bytes.Buffer
	require.NoError(t, RunView([]string{path}, &out))

	text := out.String()
	assert.Contains(t, text, "Frame")
	assert.Contains(t, text, "f06bf7")
	assert.Contains(t, text, "AnalogReport")
	assert.Contains(t, text, "Value: 512")
	assert.Contains(t, text, "CONNECTING -> READY")
	assert.Contains(t, text, "read: broken pipe")
	assert.Contains(t, text, "11112222")
}

func TestRunViewFiltered(t *testing.T) {
	path := writeSampleLog(t)

	var out bytes.Buffer
	require.NoError(t, RunView([]string{"-category", "message", path}, &out))

	text := out.String()
	assert.Contains(t, text, "AnalogReport")
	assert.NotContains(t, text, "Frame")
	assert.NotContains(t, text, "broken pipe")
}

func TestRunViewRejectsBadFlag(t *testing.T) {
	path := writeSampleLog(t)
	var out bytes.Buffer
	assert.Error(t, RunView([]string{"-direction", "sideways", path}, &out))
}

func TestRunExport(t *testing.T) {
	path := writeSampleLog(t)

	var out bytes.Buffer
	require.NoError(t, RunExport([]string{path}, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"category":"FRAME"`)
	assert.Contains(t, lines[1], `"command":"AnalogReport"`)
	assert.Contains(t, lines[3], `"error"`)
}

func TestRunStats(t *testing.T) {
	path := writeSampleLog(t)

	var out bytes.Buffer
	require.NoError(t, RunStats([]string{path}, &out))

	text := out.String()
	assert.Contains(t, text, "Events: 4")
	assert.Contains(t, text, "Errors: 1")
	assert.Contains(t, text, "TRANSPORT")
	assert.Contains(t, text, "/dev/ttyACM0@57600")
}

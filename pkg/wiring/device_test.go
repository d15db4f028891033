package wiring_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remote-wiring/wiring-go/internal/boardtest"
	"github.com/remote-wiring/wiring-go/pkg/transport"
	"github.com/remote-wiring/wiring-go/pkg/wiring"
)

const (
	waitFor = 2 * time.Second
	tick    = 2 * time.Millisecond
)

// newTestDevice connects a device to an emulated board with totalPins pins,
// the last analogCount of them analog-capable, and waits for negotiation.
func newTestDevice(t *testing.T, totalPins, analogCount int) (*wiring.Device, *boardtest.Board) {
	t.Helper()

	stream, peer := transport.Pipe()
	board := boardtest.New(peer, boardtest.DefaultCapability(totalPins, analogCount))
	dev := wiring.NewDevice(stream)

	ready := make(chan struct{})
	dev.OnDeviceReady(func() { close(ready) })

	require.NoError(t, dev.Connect(context.Background()))
	select {
	case <-ready:
	case <-time.After(waitFor):
		t.Fatal("device never finished capability negotiation")
	}

	t.Cleanup(func() {
		_ = dev.Close()
		board.Close()
	})
	return dev, board
}

func TestCapabilityNegotiation(t *testing.T) {
	dev, _ := newTestDevice(t, 16, 6)

	assert.Equal(t, wiring.StateInitialized, dev.State())
	assert.Equal(t, 16, dev.TotalPins())
	assert.Equal(t, 6, dev.NumAnalogPins())
	assert.Equal(t, 10, dev.AnalogOffset())

	// Every pin defaults to output.
	for pin := 0; pin < dev.TotalPins(); pin++ {
		assert.Equal(t, wiring.PinModeOutput, dev.GetPinMode(pin))
	}
	assert.Equal(t, wiring.PinModeIgnored, dev.GetPinMode(16))
	assert.Equal(t, wiring.PinModeIgnored, dev.GetPinMode(-1))
}

func TestPinModeInputSubscription(t *testing.T) {
	dev, board := newTestDevice(t, 16, 0)

	dev.PinMode(2, wiring.PinModeInput)
	assert.Equal(t, wiring.PinModeInput, dev.GetPinMode(2))

	require.Eventually(t, func() bool {
		mode, ok := board.PinMode(2)
		return ok && mode == byte(wiring.PinModeInput)
	}, waitFor, tick)
	require.Eventually(t, func() bool {
		mask, ok := board.ReportMask(0)
		return ok && mask == 0x04
	}, waitFor, tick)

	// A second input pin on the same port extends the mask.
	dev.PinMode(5, wiring.PinModeInput)
	require.Eventually(t, func() bool {
		mask, _ := board.ReportMask(0)
		return mask == 0x24
	}, waitFor, tick)

	// Leaving input mode unsubscribes the pin.
	dev.PinMode(2, wiring.PinModeOutput)
	require.Eventually(t, func() bool {
		mask, _ := board.ReportMask(0)
		return mask == 0x20
	}, waitFor, tick)
}

func TestDigitalWriteSendsWholePort(t *testing.T) {
	dev, board := newTestDevice(t, 16, 0)

	dev.DigitalWrite(3, wiring.High)
	require.Eventually(t, func() bool {
		v, ok := board.PortValue(0)
		return ok && v == 0x08
	}, waitFor, tick)

	// A second write on the same port carries both bits.
	dev.DigitalWrite(0, wiring.High)
	require.Eventually(t, func() bool {
		v, _ := board.PortValue(0)
		return v == 0x09
	}, waitFor, tick)

	// Reading an output pin returns what was written.
	assert.Equal(t, wiring.High, dev.DigitalRead(3))

	dev.DigitalWrite(3, wiring.Low)
	require.Eventually(t, func() bool {
		v, _ := board.PortValue(0)
		return v == 0x01
	}, waitFor, tick)
	assert.Equal(t, wiring.Low, dev.DigitalRead(3))

	// Unknown pins are ignored.
	dev.DigitalWrite(99, wiring.High)
	assert.Equal(t, wiring.Low, dev.DigitalRead(99))
}

func TestDigitalWriteCorrectsPWMMode(t *testing.T) {
	dev, board := newTestDevice(t, 8, 0)

	dev.PinMode(5, wiring.PinModePWM)
	dev.DigitalWrite(5, wiring.High)

	assert.Equal(t, wiring.PinModeOutput, dev.GetPinMode(5))
	require.Eventually(t, func() bool {
		mode, ok := board.PinMode(5)
		return ok && mode == byte(wiring.PinModeOutput)
	}, waitFor, tick)
	require.Eventually(t, func() bool {
		v, ok := board.PortValue(0)
		return ok && v == 0x20
	}, waitFor, tick)
}

func TestDigitalWriteWrongModeIsNoop(t *testing.T) {
	dev, board := newTestDevice(t, 8, 0)

	dev.PinMode(1, wiring.PinModeInput)
	dev.DigitalWrite(1, wiring.High)
	assert.Equal(t, wiring.PinModeInput, dev.GetPinMode(1))

	// Marker write on another pin proves the no-op write never reached the
	// board: only the marker's port byte shows up.
	dev.DigitalWrite(0, wiring.High)
	require.Eventually(t, func() bool {
		v, ok := board.PortValue(0)
		return ok && v == 0x01
	}, waitFor, tick)
}

func TestOutputEntryClearsCachedBit(t *testing.T) {
	dev, board := newTestDevice(t, 8, 0)

	// Pin 1 reads high while an input.
	dev.PinMode(1, wiring.PinModeInput)
	board.PushDigital(0, 0x02)
	require.Eventually(t, func() bool {
		return dev.DigitalRead(1) == wiring.High
	}, waitFor, tick)

	// Flipping to output defines the level as low.
	dev.PinMode(1, wiring.PinModeOutput)
	assert.Equal(t, wiring.Low, dev.DigitalRead(1))
}

func TestAnalogWriteCorrectsOutputMode(t *testing.T) {
	dev, board := newTestDevice(t, 8, 0)

	dev.AnalogWrite(6, 200)

	assert.Equal(t, wiring.PinModePWM, dev.GetPinMode(6))
	require.Eventually(t, func() bool {
		v, ok := board.AnalogWrite(6)
		return ok && v == 200
	}, waitFor, tick)
}

func TestAnalogWriteWrongModeIsNoop(t *testing.T) {
	dev, board := newTestDevice(t, 8, 0)

	dev.PinMode(2, wiring.PinModeInput)
	dev.AnalogWrite(2, 100)
	assert.Equal(t, wiring.PinModeInput, dev.GetPinMode(2))

	dev.AnalogWrite(3, 50)
	require.Eventually(t, func() bool {
		_, ok := board.AnalogWrite(3)
		return ok
	}, waitFor, tick)
	_, wrote := board.AnalogWrite(2)
	assert.False(t, wrote)
}

func TestAnalogReadAndNamedOverloads(t *testing.T) {
	dev, board := newTestDevice(t, 16, 6)
	a0 := dev.AnalogOffset()

	dev.PinMode(a0, wiring.PinModeAnalog)
	board.PushAnalog(0, 512)

	require.Eventually(t, func() bool {
		return dev.AnalogRead(a0) == 512
	}, waitFor, tick)
	assert.Equal(t, uint16(512), dev.AnalogReadNamed("A0"))
	assert.Equal(t, uint16(512), dev.AnalogReadNamed("a0"))
	assert.Equal(t, wiring.PinModeAnalog, dev.GetPinModeNamed("A0"))

	// Input mode auto-corrects to analog on read.
	dev.PinMode(a0+1, wiring.PinModeInput)
	_ = dev.AnalogReadNamed("A1")
	assert.Equal(t, wiring.PinModeAnalog, dev.GetPinMode(a0+1))
	require.Eventually(t, func() bool {
		mode, ok := board.PinMode(byte(a0 + 1))
		return ok && mode == byte(wiring.PinModeAnalog)
	}, waitFor, tick)
}

func TestAnalogReadSentinels(t *testing.T) {
	dev, _ := newTestDevice(t, 16, 6)

	// Output mode has no analog correction path.
	assert.Equal(t, wiring.InvalidReading, dev.AnalogRead(dev.AnalogOffset()))

	assert.Equal(t, wiring.InvalidReading, dev.AnalogRead(-1))
	assert.Equal(t, wiring.InvalidReading, dev.AnalogRead(99))
	assert.Equal(t, wiring.InvalidReading, dev.AnalogReadNamed("B0"))
	assert.Equal(t, wiring.InvalidReading, dev.AnalogReadNamed("A9"))
	assert.Equal(t, wiring.PinModeIgnored, dev.GetPinModeNamed("zzz"))
}

func TestNamedOverloadsResolveThroughOffset(t *testing.T) {
	dev, board := newTestDevice(t, 16, 6)
	a2 := dev.AnalogOffset() + 2

	dev.PinModeNamed("A2", wiring.PinModeInput)
	assert.Equal(t, wiring.PinModeInput, dev.GetPinMode(a2))
	require.Eventually(t, func() bool {
		mode, ok := board.PinMode(byte(a2))
		return ok && mode == byte(wiring.PinModeInput)
	}, waitFor, tick)

	dev.PinModeNamed("A2", wiring.PinModeOutput)
	dev.DigitalWriteNamed("A2", wiring.High)
	assert.Equal(t, wiring.High, dev.DigitalReadNamed("A2"))

	// Malformed names never touch device state.
	dev.PinModeNamed("Q1", wiring.PinModeInput)
	dev.DigitalWriteNamed("", wiring.High)
	assert.Equal(t, wiring.Low, dev.DigitalReadNamed("nope"))
}

func TestOutputBitsSurviveInboundReports(t *testing.T) {
	dev, board := newTestDevice(t, 8, 0)

	dev.PinMode(0, wiring.PinModeInput)
	dev.DigitalWrite(1, wiring.High)

	var mu sync.Mutex
	var changes []int
	dev.OnDigitalPinChanged(func(pin int, state wiring.PinState) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, pin)
	})

	// The board reports bit 0 high and bit 1 low; bit 1 is a local output
	// and must keep its written level.
	board.PushDigital(0, 0x01)

	require.Eventually(t, func() bool {
		return dev.DigitalRead(0) == wiring.High
	}, waitFor, tick)
	assert.Equal(t, wiring.High, dev.DigitalRead(1))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0}, changes)
}

func TestDigitalReportMultipleBitChanges(t *testing.T) {
	dev, board := newTestDevice(t, 8, 0)

	dev.PinMode(2, wiring.PinModeInput)
	dev.PinMode(4, wiring.PinModeInput)

	var mu sync.Mutex
	states := make(map[int]wiring.PinState)
	dev.OnDigitalPinChanged(func(pin int, state wiring.PinState) {
		mu.Lock()
		defer mu.Unlock()
		states[pin] = state
	})

	board.PushDigital(0, 0x14)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) == 2
	}, waitFor, tick)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, wiring.High, states[2])
	assert.Equal(t, wiring.High, states[4])
}

func TestAnalogReportsNotifyWithoutDedup(t *testing.T) {
	dev, board := newTestDevice(t, 16, 6)

	var mu sync.Mutex
	var count int
	dev.OnAnalogValueChanged(func(channel int, value uint16) {
		mu.Lock()
		defer mu.Unlock()
		if channel == 0 && value == 300 {
			count++
		}
	})

	board.PushAnalog(0, 300)
	board.PushAnalog(0, 300)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 2
	}, waitFor, tick)
}

func TestStringMessages(t *testing.T) {
	dev, board := newTestDevice(t, 8, 0)

	received := make(chan string, 1)
	dev.OnStringReceived(func(text string) {
		select {
		case received <- text:
		default:
		}
	})
	board.PushString("hello from board")

	select {
	case text := <-received:
		assert.Equal(t, "hello from board", text)
	case <-time.After(waitFor):
		t.Fatal("string never arrived")
	}

	require.NoError(t, dev.SendString("hi board"))
	require.Eventually(t, func() bool {
		return len(board.SysexFrames()) > 0
	}, waitFor, tick)
}

func TestConnectionLost(t *testing.T) {
	stream, peer := transport.Pipe()
	board := boardtest.New(peer, boardtest.DefaultCapability(8, 0))
	dev := wiring.NewDevice(stream)

	ready := make(chan struct{})
	lost := make(chan string, 1)
	dev.OnDeviceReady(func() { close(ready) })
	dev.OnConnectionLost(func(message string) {
		select {
		case lost <- message:
		default:
		}
	})

	require.NoError(t, dev.Connect(context.Background()))
	<-ready

	board.Close()

	select {
	case <-lost:
	case <-time.After(waitFor):
		t.Fatal("loss never reported")
	}
	assert.Equal(t, wiring.StateLost, dev.State())

	// A dead device refuses pin operations.
	assert.Equal(t, wiring.InvalidReading, dev.AnalogRead(999))
	_ = dev.Close()
}

// failingStream refuses to open.
type failingStream struct{}

func (failingStream) Open(ctx context.Context) error { return errors.New("no such port") }
func (failingStream) Read(p []byte) (int, error)     { return 0, errors.New("not open") }
func (failingStream) Write(p []byte) (int, error)    { return 0, errors.New("not open") }
func (failingStream) Flush() error                   { return errors.New("not open") }
func (failingStream) Close() error                   { return nil }
func (failingStream) Description() string            { return "broken" }

func TestConnectionFailed(t *testing.T) {
	dev := wiring.NewDevice(failingStream{})

	failed := make(chan string, 1)
	dev.OnConnectionFailed(func(message string) {
		select {
		case failed <- message:
		default:
		}
	})

	err := dev.Connect(context.Background())
	require.Error(t, err)

	select {
	case msg := <-failed:
		assert.Contains(t, msg, "no such port")
	case <-time.After(waitFor):
		t.Fatal("failure never reported")
	}
	assert.Equal(t, wiring.StateFailed, dev.State())

	// Pre-negotiation pin operations refuse with sentinels.
	assert.Equal(t, 0, dev.TotalPins())
	assert.Equal(t, wiring.PinModeIgnored, dev.GetPinMode(0))
	assert.Equal(t, wiring.InvalidReading, dev.AnalogRead(0))
	assert.Equal(t, wiring.Low, dev.DigitalRead(0))
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	dev, board := newTestDevice(t, 16, 6)

	var mu sync.Mutex
	var count int
	h := dev.OnAnalogValueChanged(func(channel int, value uint16) {
		mu.Lock()
		defer mu.Unlock()
		count++
	})

	board.PushAnalog(0, 1)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, waitFor, tick)

	dev.Unsubscribe(h)
	board.PushAnalog(0, 2)
	board.PushAnalog(1, 3)

	// The second channel's report proves delivery continued past the
	// unsubscribed handler.
	var seen bool
	h2 := dev.OnAnalogValueChanged(func(channel int, value uint16) {
		mu.Lock()
		defer mu.Unlock()
		if channel == 1 {
			seen = true
		}
	})
	defer dev.Unsubscribe(h2)
	board.PushAnalog(1, 3)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen
	}, waitFor, tick)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

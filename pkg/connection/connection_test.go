package connection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffGrowsAndCaps(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{
		Initial:    100 * time.Millisecond,
		Max:        400 * time.Millisecond,
		Multiplier: 2,
		Jitter:     0,
	})

	assert.Equal(t, 100*time.Millisecond, b.Next())
	assert.Equal(t, 200*time.Millisecond, b.Next())
	assert.Equal(t, 400*time.Millisecond, b.Next())
	assert.Equal(t, 400*time.Millisecond, b.Next())
	assert.Equal(t, 4, b.Attempts())

	b.Reset()
	assert.Equal(t, 0, b.Attempts())
	assert.Equal(t, 100*time.Millisecond, b.Next())
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{
		Initial: 100 * time.Millisecond,
		Jitter:  0.25,
	})
	d := b.Next()
	assert.GreaterOrEqual(t, d, 100*time.Millisecond)
	assert.Less(t, d, 125*time.Millisecond)
}

func TestManagerConnectAndLoss(t *testing.T) {
	var mu sync.Mutex
	var dials int
	failFirstRedial := true

	m := NewManager(func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		dials++
		if dials == 2 && failFirstRedial {
			return errors.New("board still rebooting")
		}
		return nil
	})
	m.backoff = NewBackoffWithConfig(BackoffConfig{
		Initial: time.Millisecond,
		Max:     2 * time.Millisecond,
		Jitter:  0,
	})
	defer m.Close()

	connected := make(chan struct{}, 2)
	m.OnConnected(func() { connected <- struct{}{} })

	m.StartReconnectLoop()

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, StateConnected, m.State())
	<-connected

	assert.ErrorIs(t, m.Connect(context.Background()), ErrAlreadyConnected)

	m.NotifyLost()
	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("manager never reconnected")
	}
	assert.Equal(t, StateConnected, m.State())

	mu.Lock()
	defer mu.Unlock()
	// Initial dial, one failed redial, one successful redial.
	assert.Equal(t, 3, dials)
}

func TestManagerInitialFailureDoesNotRetry(t *testing.T) {
	m := NewManager(func(ctx context.Context) error {
		return errors.New("no board")
	})
	defer m.Close()

	require.Error(t, m.Connect(context.Background()))
	assert.Equal(t, StateDisconnected, m.State())
}

func TestManagerAutoReconnectDisabled(t *testing.T) {
	m := NewManager(func(ctx context.Context) error { return nil })
	defer m.Close()
	m.SetAutoReconnect(false)
	m.StartReconnectLoop()

	require.NoError(t, m.Connect(context.Background()))
	m.NotifyLost()
	assert.Equal(t, StateDisconnected, m.State())
}

func TestManagerClosedRefusesConnect(t *testing.T) {
	m := NewManager(func(ctx context.Context) error { return nil })
	m.Close()
	assert.ErrorIs(t, m.Connect(context.Background()), ErrManagerClosed)
	assert.Equal(t, StateClosed, m.State())

	// Close is idempotent.
	m.Close()
}

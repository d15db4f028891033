// Package connection supervises a board connection across failures. The
// device layer reports connection loss but never retries; a Manager sits
// above it, redialing with exponential backoff until the board answers
// again or the manager is closed.
package connection

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Manager errors.
var (
	ErrManagerClosed    = errors.New("connection manager closed")
	ErrAlreadyConnected = errors.New("already connected")
)

// attemptTimeout bounds one dial during reconnection.
const attemptTimeout = 30 * time.Second

// State is the manager's view of the connection.
type State uint8

const (
	// StateDisconnected indicates no connection and no attempt running.
	StateDisconnected State = iota

	// StateConnecting indicates an explicit Connect call in progress.
	StateConnecting

	// StateConnected indicates an established connection.
	StateConnected

	// StateReconnecting indicates the backoff loop is redialing.
	StateReconnecting

	// StateClosed indicates the manager is shut down. Terminal.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ConnectFunc dials the board. Each invocation must stand alone: for a
// device that cannot be reconnected in place, the func builds a fresh
// device over a fresh stream and wires its loss callback to
// Manager.NotifyLost.
type ConnectFunc func(ctx context.Context) error

// Manager drives a ConnectFunc through connect, loss and reconnect.
type Manager struct {
	mu sync.RWMutex

	state     State
	connectFn ConnectFunc
	backoff   *Backoff
	reconnect bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	kick   chan struct{}

	onStateChange func(from, to State)
	onConnected   func()
	onReconnect   func(attempt int, delay time.Duration)
}

// NewManager creates a manager around a dial function. Automatic
// reconnection starts enabled; call StartReconnectLoop to activate it.
func NewManager(connectFn ConnectFunc) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		state:     StateDisconnected,
		connectFn: connectFn,
		backoff:   NewBackoff(),
		reconnect: true,
		ctx:       ctx,
		cancel:    cancel,
		kick:      make(chan struct{}, 1),
	}
}

// SetAutoReconnect enables or disables redialing after a loss.
func (m *Manager) SetAutoReconnect(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconnect = enabled
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// OnStateChange sets a callback for every state transition.
func (m *Manager) OnStateChange(fn func(from, to State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// OnConnected sets a callback fired after each successful dial, initial or
// reconnect.
func (m *Manager) OnConnected(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnected = fn
}

// OnReconnect sets a callback fired before each reconnection delay.
func (m *Manager) OnReconnect(fn func(attempt int, delay time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReconnect = fn
}

// Connect performs the initial dial. A failure leaves the manager
// disconnected; it does not start the backoff loop.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateClosed:
		m.mu.Unlock()
		return ErrManagerClosed
	case StateConnected:
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	if err := m.connectFn(ctx); err != nil {
		m.mu.Lock()
		m.setStateLocked(StateDisconnected)
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.backoff.Reset()
	m.setStateLocked(StateConnected)
	onConnected := m.onConnected
	m.mu.Unlock()

	if onConnected != nil {
		onConnected()
	}
	return nil
}

// NotifyLost reports a lost connection, typically from the device's
// connection-lost callback. With auto-reconnect enabled the backoff loop
// takes over.
func (m *Manager) NotifyLost() {
	m.mu.Lock()
	if m.state != StateConnected {
		m.mu.Unlock()
		return
	}
	if m.reconnect {
		m.setStateLocked(StateReconnecting)
	} else {
		m.setStateLocked(StateDisconnected)
	}
	redial := m.reconnect
	m.mu.Unlock()

	if redial {
		select {
		case m.kick <- struct{}{}:
		default:
		}
	}
}

// StartReconnectLoop starts the background redial goroutine. Call once.
func (m *Manager) StartReconnectLoop() {
	m.wg.Add(1)
	go m.loop()
}

// Close stops the manager and its redial goroutine.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.setStateLocked(StateClosed)
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

// setStateLocked transitions state and fires the change callback. The
// callback runs under the lock, so it must not call back into the manager.
func (m *Manager) setStateLocked(to State) {
	from := m.state
	m.state = to
	if m.onStateChange != nil && from != to {
		m.onStateChange(from, to)
	}
}

func (m *Manager) loop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.kick:
			m.redial()
		}
	}
}

// redial retries the dial until it succeeds or the manager closes.
func (m *Manager) redial() {
	for {
		m.mu.RLock()
		state := m.state
		onReconnect := m.onReconnect
		m.mu.RUnlock()
		if state != StateReconnecting {
			return
		}

		delay := m.backoff.Next()
		if onReconnect != nil {
			onReconnect(m.backoff.Attempts(), delay)
		}

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(m.ctx, attemptTimeout)
		err := m.connectFn(ctx)
		cancel()
		if err != nil {
			continue
		}

		m.mu.Lock()
		if m.state != StateReconnecting {
			m.mu.Unlock()
			return
		}
		m.backoff.Reset()
		m.setStateLocked(StateConnected)
		onConnected := m.onConnected
		m.mu.Unlock()

		if onConnected != nil {
			onConnected()
		}
		return
	}
}

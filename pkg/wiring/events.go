package wiring

import (
	"sync"
	"sync/atomic"
)

// Handle identifies a registered device listener. Zero is never a valid
// handle.
type Handle uint32

var handleGenerator atomic.Uint32

func nextHandle() Handle {
	return Handle(handleGenerator.Add(1))
}

// listenerSet holds the device-level callback registries. It has its own
// lock so listeners can be added and removed from inside a callback without
// touching the device mutex.
type listenerSet struct {
	mu sync.RWMutex

	readyFns   map[Handle]func()
	failedFns  map[Handle]func(message string)
	lostFns    map[Handle]func(message string)
	digitalFns map[Handle]func(pin int, state PinState)
	analogFns  map[Handle]func(channel int, value uint16)
	stringFns  map[Handle]func(text string)
	sysexFns   map[Handle]func(command byte, payload []byte)
}

func newListenerSet() *listenerSet {
	return &listenerSet{
		readyFns:   make(map[Handle]func()),
		failedFns:  make(map[Handle]func(string)),
		lostFns:    make(map[Handle]func(string)),
		digitalFns: make(map[Handle]func(int, PinState)),
		analogFns:  make(map[Handle]func(int, uint16)),
		stringFns:  make(map[Handle]func(string)),
		sysexFns:   make(map[Handle]func(byte, []byte)),
	}
}

func (l *listenerSet) emitReady() {
	l.mu.RLock()
	fns := make([]func(), 0, len(l.readyFns))
	for _, fn := range l.readyFns {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

func (l *listenerSet) emitFailed(message string) {
	l.mu.RLock()
	fns := make([]func(string), 0, len(l.failedFns))
	for _, fn := range l.failedFns {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(message)
	}
}

func (l *listenerSet) emitLost(message string) {
	l.mu.RLock()
	fns := make([]func(string), 0, len(l.lostFns))
	for _, fn := range l.lostFns {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(message)
	}
}

func (l *listenerSet) emitDigital(pin int, state PinState) {
	l.mu.RLock()
	fns := make([]func(int, PinState), 0, len(l.digitalFns))
	for _, fn := range l.digitalFns {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(pin, state)
	}
}

func (l *listenerSet) emitAnalog(channel int, value uint16) {
	l.mu.RLock()
	fns := make([]func(int, uint16), 0, len(l.analogFns))
	for _, fn := range l.analogFns {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(channel, value)
	}
}

func (l *listenerSet) emitString(text string) {
	l.mu.RLock()
	fns := make([]func(string), 0, len(l.stringFns))
	for _, fn := range l.stringFns {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(text)
	}
}

func (l *listenerSet) emitSysex(command byte, payload []byte) {
	l.mu.RLock()
	fns := make([]func(byte, []byte), 0, len(l.sysexFns))
	for _, fn := range l.sysexFns {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(command, payload)
	}
}

func (l *listenerSet) unsubscribe(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.readyFns, h)
	delete(l.failedFns, h)
	delete(l.lostFns, h)
	delete(l.digitalFns, h)
	delete(l.analogFns, h)
	delete(l.stringFns, h)
	delete(l.sysexFns, h)
}

// Device listener registration. Callbacks run on the connection's read loop
// goroutine without the device mutex held, so they may call back into the
// pin API; they must not block.

// OnDeviceReady registers a callback fired once capability negotiation
// completes and the pin API is usable.
func (d *Device) OnDeviceReady(fn func()) Handle {
	h := nextHandle()
	d.listeners.mu.Lock()
	defer d.listeners.mu.Unlock()
	d.listeners.readyFns[h] = fn
	return h
}

// OnConnectionFailed registers a callback fired when the connection attempt
// fails before the device becomes usable.
func (d *Device) OnConnectionFailed(fn func(message string)) Handle {
	h := nextHandle()
	d.listeners.mu.Lock()
	defer d.listeners.mu.Unlock()
	d.listeners.failedFns[h] = fn
	return h
}

// OnConnectionLost registers a callback fired when an established
// connection drops.
func (d *Device) OnConnectionLost(fn func(message string)) Handle {
	h := nextHandle()
	d.listeners.mu.Lock()
	defer d.listeners.mu.Unlock()
	d.listeners.lostFns[h] = fn
	return h
}

// OnDigitalPinChanged registers a callback fired once per pin whose level
// changed in an inbound digital report. Output pins never trigger it;
// their levels are owned locally.
func (d *Device) OnDigitalPinChanged(fn func(pin int, state PinState)) Handle {
	h := nextHandle()
	d.listeners.mu.Lock()
	defer d.listeners.mu.Unlock()
	d.listeners.digitalFns[h] = fn
	return h
}

// OnAnalogValueChanged registers a callback fired for every inbound analog
// report. The channel is the analog channel number, not the absolute pin
// index; add AnalogOffset to convert.
func (d *Device) OnAnalogValueChanged(fn func(channel int, value uint16)) Handle {
	h := nextHandle()
	d.listeners.mu.Lock()
	defer d.listeners.mu.Unlock()
	d.listeners.analogFns[h] = fn
	return h
}

// OnStringReceived registers a callback for decoded string-data messages
// sent by the board.
func (d *Device) OnStringReceived(fn func(text string)) Handle {
	h := nextHandle()
	d.listeners.mu.Lock()
	defer d.listeners.mu.Unlock()
	d.listeners.stringFns[h] = fn
	return h
}

// OnSysexReceived registers a callback for sysex messages the device does
// not consume itself (everything but capability responses and string data).
func (d *Device) OnSysexReceived(fn func(command byte, payload []byte)) Handle {
	h := nextHandle()
	d.listeners.mu.Lock()
	defer d.listeners.mu.Unlock()
	d.listeners.sysexFns[h] = fn
	return h
}

// Unsubscribe removes a previously registered listener.
func (d *Device) Unsubscribe(h Handle) {
	d.listeners.unsubscribe(h)
}

package firmata

// Callback registration. Each On* method returns a Handle; Unsubscribe
// removes the callback, after which it is never invoked again. Callbacks run
// on the client's read loop goroutine (reports, sysex, strings, lost) or on
// the Connect caller's goroutine (ready, failed) and must not block.

// OnDigitalReport registers a callback for inbound digital port reports.
func (c *Client) OnDigitalReport(fn func(port uint8, value uint8)) Handle {
	h := nextHandle()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.digitalFns[h] = fn
	return h
}

// OnAnalogReport registers a callback for inbound analog value reports.
func (c *Client) OnAnalogReport(fn func(channel uint8, value uint16)) Handle {
	h := nextHandle()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.analogFns[h] = fn
	return h
}

// OnProtocolVersion registers a callback for protocol version reports.
func (c *Client) OnProtocolVersion(fn func(major, minor uint8)) Handle {
	h := nextHandle()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versionFns[h] = fn
	return h
}

// OnCapabilityResponse registers a callback for capability responses.
func (c *Client) OnCapabilityResponse(fn func(payload []byte)) Handle {
	h := nextHandle()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capabilityFns[h] = fn
	return h
}

// OnSysex registers a callback for sysex messages that have no dedicated
// callback (everything but capability responses and string data).
func (c *Client) OnSysex(fn func(command byte, payload []byte)) Handle {
	h := nextHandle()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sysexFns[h] = fn
	return h
}

// OnString registers a callback for decoded string-data messages.
func (c *Client) OnString(fn func(text string)) Handle {
	h := nextHandle()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stringFns[h] = fn
	return h
}

// OnConnectionReady registers a callback invoked when Connect succeeds.
func (c *Client) OnConnectionReady(fn func()) Handle {
	h := nextHandle()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readyFns[h] = fn
	return h
}

// OnConnectionFailed registers a callback invoked when Connect fails.
func (c *Client) OnConnectionFailed(fn func(message string)) Handle {
	h := nextHandle()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedFns[h] = fn
	return h
}

// OnConnectionLost registers a callback invoked when an established
// connection drops. A deliberate Close does not count as a loss.
func (c *Client) OnConnectionLost(fn func(message string)) Handle {
	h := nextHandle()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lostFns[h] = fn
	return h
}

// Unsubscribe removes a previously registered callback.
func (c *Client) Unsubscribe(h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.digitalFns, h)
	delete(c.analogFns, h)
	delete(c.versionFns, h)
	delete(c.capabilityFns, h)
	delete(c.sysexFns, h)
	delete(c.stringFns, h)
	delete(c.readyFns, h)
	delete(c.failedFns, h)
	delete(c.lostFns, h)
}

// snapshot helpers: copy the registry under the state lock so dispatch runs
// without holding it (callbacks may re-enter the client).

func (c *Client) snapshotDigital() []func(uint8, uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fns := make([]func(uint8, uint8), 0, len(c.digitalFns))
	for _, fn := range c.digitalFns {
		fns = append(fns, fn)
	}
	return fns
}

func (c *Client) snapshotAnalog() []func(uint8, uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fns := make([]func(uint8, uint16), 0, len(c.analogFns))
	for _, fn := range c.analogFns {
		fns = append(fns, fn)
	}
	return fns
}

func (c *Client) snapshotVersion() []func(uint8, uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fns := make([]func(uint8, uint8), 0, len(c.versionFns))
	for _, fn := range c.versionFns {
		fns = append(fns, fn)
	}
	return fns
}

func (c *Client) snapshotCapability() []func([]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fns := make([]func([]byte), 0, len(c.capabilityFns))
	for _, fn := range c.capabilityFns {
		fns = append(fns, fn)
	}
	return fns
}

func (c *Client) snapshotSysex() []func(byte, []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fns := make([]func(byte, []byte), 0, len(c.sysexFns))
	for _, fn := range c.sysexFns {
		fns = append(fns, fn)
	}
	return fns
}

func (c *Client) snapshotString() []func(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fns := make([]func(string), 0, len(c.stringFns))
	for _, fn := range c.stringFns {
		fns = append(fns, fn)
	}
	return fns
}

func (c *Client) dispatchReady() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.readyFns))
	for _, fn := range c.readyFns {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *Client) dispatchFailed(message string) {
	c.mu.Lock()
	fns := make([]func(string), 0, len(c.failedFns))
	for _, fn := range c.failedFns {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(message)
	}
}

func (c *Client) dispatchLost(message string) {
	c.mu.Lock()
	fns := make([]func(string), 0, len(c.lostFns))
	for _, fn := range c.lostFns {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(message)
	}
}

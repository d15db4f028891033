package wiring

// Inbound report and lifecycle handlers. All of them run on the firmata
// client's read loop goroutine (or the Connect caller's goroutine for the
// ready/failed pair); they take the device mutex for cache updates and
// release it before emitting listener notifications.

// onConnectionReady fires when the transport comes up. It sends the
// capability query and moves the lifecycle to negotiating; the device stays
// unusable until the response arrives.
func (d *Device) onConnectionReady() {
	d.mu.Lock()
	if d.state != StateConnecting {
		d.mu.Unlock()
		return
	}
	d.state = StateReady
	d.mu.Unlock()

	err := d.client.SendCapabilityQuery()

	d.mu.Lock()
	if err != nil {
		d.state = StateFailed
	} else if d.state == StateReady {
		d.state = StateNegotiating
	}
	d.mu.Unlock()

	if err != nil {
		d.listeners.emitFailed(err.Error())
	}
}

// onCapabilityResponse sizes the pin cache from the board's capability
// report and makes the pin API usable.
func (d *Device) onCapabilityResponse(payload []byte) {
	caps := ParseCapabilityResponse(payload)

	d.mu.Lock()
	if d.state != StateNegotiating {
		d.mu.Unlock()
		return
	}

	d.totalPins = caps.TotalPins
	d.numAnalogPins = caps.NumAnalogPins
	d.analogOffset = caps.AnalogOffset

	d.modes = make([]PinMode, caps.TotalPins)
	for i := range d.modes {
		d.modes[i] = PinModeOutput
	}
	portCount := (caps.TotalPins + 7) / 8
	d.digitalPorts = make([]uint8, portCount)
	d.subscribedPorts = make([]uint8, portCount)
	d.analogValues = make([]uint16, caps.NumAnalogPins)

	d.state = StateInitialized
	d.mu.Unlock()

	d.listeners.emitReady()
}

// onDigitalReport merges one inbound port byte into the cache. Bits the
// board reports for pins driven locally as outputs are masked off: the
// local writes own those levels. One notification fires per changed pin,
// after the mutex is released.
func (d *Device) onDigitalReport(port uint8, raw uint8) {
	d.mu.Lock()
	p := int(port)
	if p >= len(d.digitalPorts) {
		d.mu.Unlock()
		return
	}

	outputState := ^d.subscribedPorts[p] & d.digitalPorts[p]
	merged := raw | outputState
	changed := merged ^ d.digitalPorts[p]
	d.digitalPorts[p] = merged
	total := d.totalPins
	d.mu.Unlock()

	if changed == 0 {
		return
	}
	for bit := 0; bit < 8; bit++ {
		mask := uint8(1) << bit
		if changed&mask == 0 {
			continue
		}
		pin := p*8 + bit
		if pin >= total {
			break
		}
		state := Low
		if merged&mask != 0 {
			state = High
		}
		d.listeners.emitDigital(pin, state)
	}
}

// onAnalogReport stores one inbound analog value and notifies. Every
// report notifies, even when the value did not change; a channel beyond the
// negotiated count is not cached but still reported to listeners.
func (d *Device) onAnalogReport(channel uint8, value uint16) {
	d.mu.Lock()
	ch := int(channel)
	if ch < len(d.analogValues) {
		d.analogValues[ch] = value
	}
	d.mu.Unlock()

	d.listeners.emitAnalog(ch, value)
}

// onConnectionFailed marks a pre-initialization failure. Terminal.
func (d *Device) onConnectionFailed(message string) {
	d.mu.Lock()
	switch d.state {
	case StateConnecting, StateReady, StateNegotiating:
		d.state = StateFailed
	default:
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	d.listeners.emitFailed(message)
}

// onConnectionLost marks the loss of an established connection. Terminal
// for this device instance.
func (d *Device) onConnectionLost(message string) {
	d.mu.Lock()
	if d.state == StateFailed || d.state == StateLost {
		d.mu.Unlock()
		return
	}
	d.state = StateLost
	d.mu.Unlock()

	d.listeners.emitLost(message)
}

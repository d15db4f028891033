// Package wiring exposes a synchronous, pin-oriented API for a remote
// Firmata board: pin-mode configuration plus digital and analog reads and
// writes, in the style of the Arduino Wiring API.
//
// # Device state
//
// A Device keeps a local cache of every pin's mode, every digital port's
// value byte and subscription mask, and the latest analog readings. Reads
// answer from the cache; writes update the cache and send the matching
// Firmata frame. The cache is sized during capability negotiation, which
// runs automatically when the connection becomes ready: the device queries
// the board for its pin capabilities, derives the total pin count, the
// analog pin count and the analog offset, and only then accepts pin
// operations.
//
// # Mode corrections
//
// Operations on a pin in a near-miss mode correct the mode instead of
// failing: DigitalWrite promotes a PWM pin to output, AnalogWrite promotes
// an output pin to PWM, DigitalRead demotes an analog pin to input and
// AnalogRead promotes an input pin to analog. Any other mismatch is a
// silent no-op (writes) or a sentinel return (reads). Nothing in this
// package panics or returns errors across the pin API; failures surface as
// InvalidReading, PinModeIgnored, or as connection events.
//
// # Concurrency
//
// The pin API may be called from any goroutine. All cache access runs under
// the device mutex; wire frames are written under the firmata client's
// write lock, always acquired inside the device mutex, never the other way
// around. Change notifications are emitted without holding the device
// mutex.
package wiring

package wiring

import (
	"errors"
)

// ErrInvalidPinName indicates a pin name that is not of the form "A<digits>".
var ErrInvalidPinName = errors.New("invalid analog pin name")

// ParseAnalogPinName parses an analog pin name like "A0" or "a13" into its
// analog channel number. The prefix is case-insensitive; the suffix must be
// one or more decimal digits. The result is relative — add the device's
// analog offset to get the absolute pin index.
func ParseAnalogPinName(name string) (int, error) {
	if len(name) < 2 {
		return 0, ErrInvalidPinName
	}
	if name[0] != 'A' && name[0] != 'a' {
		return 0, ErrInvalidPinName
	}

	channel := 0
	for i := 1; i < len(name); i++ {
		c := name[i]
		if c < '0' || c > '9' {
			return 0, ErrInvalidPinName
		}
		channel = channel*10 + int(c-'0')
		if channel > 0xFF {
			return 0, ErrInvalidPinName
		}
	}
	return channel, nil
}

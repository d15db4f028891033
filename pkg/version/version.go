// Package version carries the Firmata protocol version this library
// speaks and helpers for comparing it against what a board reports.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Current is the protocol version implemented by this library.
const Current = "2.6"

// ErrInvalidVersion indicates a version string not of the form
// "<major>.<minor>".
var ErrInvalidVersion = errors.New("invalid protocol version")

// ProtocolVersion is a Firmata protocol version as reported in a
// protocol-version message.
type ProtocolVersion struct {
	Major uint8
	Minor uint8
}

// Parse parses a "<major>.<minor>" version string.
func Parse(s string) (ProtocolVersion, error) {
	major, minor, found := strings.Cut(s, ".")
	if !found {
		return ProtocolVersion{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	maj, err := strconv.ParseUint(major, 10, 8)
	if err != nil {
		return ProtocolVersion{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	min, err := strconv.ParseUint(minor, 10, 8)
	if err != nil {
		return ProtocolVersion{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	return ProtocolVersion{Major: uint8(maj), Minor: uint8(min)}, nil
}

// MustParse is Parse for compile-time constants; it panics on error.
func MustParse(s string) ProtocolVersion {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FromBytes builds a version from the two payload bytes of a
// protocol-version message.
func FromBytes(major, minor uint8) ProtocolVersion {
	return ProtocolVersion{Major: major, Minor: minor}
}

// String returns the "<major>.<minor>" form.
func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible reports whether a board speaking the given version can talk to
// this library: the major versions must match, the board's minor version
// may lag or lead.
func (v ProtocolVersion) Compatible(other ProtocolVersion) bool {
	return v.Major == other.Major
}

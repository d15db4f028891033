package firmata

// Command bytes (0x80-0xFF), per the Firmata protocol.
const (
	// DigitalMessage carries the value byte of one digital port (0x90-0x9F,
	// low nibble = port number).
	DigitalMessage byte = 0x90

	// AnalogMessage carries a 14-bit analog value (0xE0-0xEF, low nibble =
	// analog channel).
	AnalogMessage byte = 0xE0

	// ReportAnalog enables or disables reporting for one analog channel
	// (0xC0-0xCF).
	ReportAnalog byte = 0xC0

	// ReportDigital sets the reporting mask for one digital port (0xD0-0xDF).
	ReportDigital byte = 0xD0

	// SetPinMode configures a pin's mode: SetPinMode, pin, mode.
	SetPinMode byte = 0xF4

	// ProtocolVersion reports the protocol version: ProtocolVersion, major, minor.
	ProtocolVersion byte = 0xF9

	// SystemReset asks the firmware to reset to its power-up state.
	SystemReset byte = 0xFF

	// StartSysex opens an extended message.
	StartSysex byte = 0xF0

	// EndSysex closes an extended message.
	EndSysex byte = 0xF7
)

// Sysex sub-commands (0x00-0x7F).
const (
	// SysexExtendedAnalog writes an analog value to any pin, any resolution.
	SysexExtendedAnalog byte = 0x6F

	// SysexAnalogMappingQuery asks for the analog channel of every pin.
	SysexAnalogMappingQuery byte = 0x69

	// SysexAnalogMappingResponse answers an analog mapping query.
	SysexAnalogMappingResponse byte = 0x6A

	// SysexCapabilityQuery asks for the supported modes of every pin.
	SysexCapabilityQuery byte = 0x6B

	// SysexCapabilityResponse answers a capability query.
	SysexCapabilityResponse byte = 0x6C

	// SysexPinStateQuery asks for a pin's current mode and value.
	SysexPinStateQuery byte = 0x6D

	// SysexPinStateResponse answers a pin state query.
	SysexPinStateResponse byte = 0x6E

	// SysexServoConfig configures servo min/max pulse.
	SysexServoConfig byte = 0x70

	// SysexStringData carries a text message, two 7-bit bytes per character.
	SysexStringData byte = 0x71

	// SysexI2CRequest sends an I2C read/write request.
	SysexI2CRequest byte = 0x76

	// SysexI2CReply answers an I2C read request.
	SysexI2CReply byte = 0x77

	// SysexI2CConfig configures I2C transfers.
	SysexI2CConfig byte = 0x78

	// SysexReportFirmware reports the firmware name and version.
	SysexReportFirmware byte = 0x79

	// SysexSamplingInterval sets the firmware's main-loop poll rate.
	SysexSamplingInterval byte = 0x7A
)

// Wire limits.
const (
	// MaxDataValue is the largest value a standard two-data-byte message
	// can carry (14 bits).
	MaxDataValue = 0x3FFF

	// MaxChannel is the largest port/channel a command's low nibble can
	// address. Larger pins need extended (sysex) messages.
	MaxChannel = 0x0F

	// MaxSysexPayload bounds inbound sysex accumulation. Anything larger
	// is not a frame this library produces or expects; the decoder drops
	// the message and resynchronizes.
	MaxSysexPayload = 4096
)

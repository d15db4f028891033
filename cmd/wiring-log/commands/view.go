// Package commands implements the wiring-log CLI commands.
package commands

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/remote-wiring/wiring-go/pkg/firmata"
	"github.com/remote-wiring/wiring-go/pkg/log"
)

// parseFilterFlags registers the shared filter flags on fs and returns a
// builder that assembles the log.Filter after parsing.
func parseFilterFlags(fs *flag.FlagSet) func() (log.Filter, error) {
	connID := fs.String("conn-id", "", "Filter by connection ID")
	direction := fs.String("direction", "", "Filter by direction: in, out")
	layer := fs.String("layer", "", "Filter by layer: transport, protocol, device")
	category := fs.String("category", "", "Filter by category: frame, message, state, error")

	return func() (log.Filter, error) {
		filter := log.Filter{ConnectionID: *connID}

		switch strings.ToLower(*direction) {
		case "":
		case "in":
			d := log.DirectionIn
			filter.Direction = &d
		case "out":
			d := log.DirectionOut
			filter.Direction = &d
		default:
			return filter, fmt.Errorf("unknown direction %q", *direction)
		}

		switch strings.ToLower(*layer) {
		case "":
		case "transport":
			l := log.LayerTransport
			filter.Layer = &l
		case "protocol":
			l := log.LayerProtocol
			filter.Layer = &l
		case "device":
			l := log.LayerDevice
			filter.Layer = &l
		default:
			return filter, fmt.Errorf("unknown layer %q", *layer)
		}

		switch strings.ToLower(*category) {
		case "":
		case "frame":
			c := log.CategoryFrame
			filter.Category = &c
		case "message":
			c := log.CategoryMessage
			filter.Category = &c
		case "state":
			c := log.CategoryState
			filter.Category = &c
		case "error":
			c := log.CategoryError
			filter.Category = &c
		default:
			return filter, fmt.Errorf("unknown category %q", *category)
		}

		return filter, nil
	}
}

// RunView prints matching events in human-readable form.
func RunView(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	buildFilter := parseFilterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: wiring-log view [flags] <file.cborlog>")
	}
	filter, err := buildFilter()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(fs.Arg(0), filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
}

// formatEvent writes one event: a header line plus type-specific details.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")

	var typeLabel string
	switch {
	case event.Frame != nil:
		typeLabel = "Frame"
	case event.Message != nil:
		typeLabel = messageLabel(event.Message)
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n",
		ts, shortenConnID(event.ConnectionID), event.Direction, event.Layer, typeLabel)

	switch {
	case event.Frame != nil:
		fmt.Fprintf(w, "  Size: %d bytes\n", event.Frame.Size)
		if len(event.Frame.Data) > 0 {
			fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(event.Frame.Data))
			if event.Frame.Truncated {
				fmt.Fprint(w, " (truncated)")
			}
			fmt.Fprintln(w)
		}
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.StateChange != nil:
		fmt.Fprintf(w, "  %s -> %s", event.StateChange.From, event.StateChange.To)
		if event.StateChange.Reason != "" {
			fmt.Fprintf(w, " (%s)", event.StateChange.Reason)
		}
		fmt.Fprintln(w)
	case event.Error != nil:
		fmt.Fprintf(w, "  Error: %s\n", event.Error.Message)
	}

	fmt.Fprintln(w)
}

func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	if msg.Channel != nil {
		fmt.Fprintf(w, "  Channel: %d\n", *msg.Channel)
	}
	if msg.Value != nil {
		fmt.Fprintf(w, "  Value: %d\n", *msg.Value)
	}
	if msg.SysexCommand != nil {
		fmt.Fprintf(w, "  Sysex: %s", sysexName(*msg.SysexCommand))
		if msg.PayloadSize != nil {
			fmt.Fprintf(w, " (%d bytes)", *msg.PayloadSize)
		}
		fmt.Fprintln(w)
	}
}

// messageLabel names a decoded protocol message by its command byte.
func messageLabel(msg *log.MessageEvent) string {
	switch msg.Command {
	case firmata.DigitalMessage:
		return "DigitalReport"
	case firmata.AnalogMessage:
		return "AnalogReport"
	case firmata.ProtocolVersion:
		return "ProtocolVersion"
	case firmata.StartSysex:
		return "Sysex"
	default:
		return fmt.Sprintf("Command(0x%02X)", msg.Command)
	}
}

func sysexName(command uint8) string {
	switch command {
	case firmata.SysexCapabilityQuery:
		return "CapabilityQuery"
	case firmata.SysexCapabilityResponse:
		return "CapabilityResponse"
	case firmata.SysexAnalogMappingQuery:
		return "AnalogMappingQuery"
	case firmata.SysexAnalogMappingResponse:
		return "AnalogMappingResponse"
	case firmata.SysexStringData:
		return "StringData"
	case firmata.SysexReportFirmware:
		return "ReportFirmware"
	case firmata.SysexSamplingInterval:
		return "SamplingInterval"
	case firmata.SysexExtendedAnalog:
		return "ExtendedAnalog"
	default:
		return fmt.Sprintf("0x%02X", command)
	}
}

func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

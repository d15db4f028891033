package commands

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/remote-wiring/wiring-go/pkg/log"
)

// exportedEvent is the JSONL shape of one event. The CBOR structure is
// flattened into readable field names.
type exportedEvent struct {
	Timestamp    string              `json:"timestamp"`
	ConnectionID string              `json:"connection_id"`
	Direction    string              `json:"direction"`
	Layer        string              `json:"layer"`
	Category     string              `json:"category"`
	Transport    string              `json:"transport,omitempty"`
	Frame        *log.FrameEvent     `json:"frame,omitempty"`
	Message      *exportedMessage    `json:"message,omitempty"`
	StateChange  *log.StateChangeEvent `json:"state_change,omitempty"`
	Error        *log.ErrorEventData `json:"error,omitempty"`
}

type exportedMessage struct {
	Command      string  `json:"command"`
	Channel      *uint8  `json:"channel,omitempty"`
	Value        *uint16 `json:"value,omitempty"`
	SysexCommand *string `json:"sysex_command,omitempty"`
	PayloadSize  *int    `json:"payload_size,omitempty"`
}

// RunExport writes matching events as JSON lines.
func RunExport(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	buildFilter := parseFilterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: wiring-log export [flags] <file.cborlog>")
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

	enc := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := enc.Encode(exportEvent(event)); err != nil {
			return err
		}
	}
}

func exportEvent(event log.Event) exportedEvent {
	out := exportedEvent{
		Timestamp:    event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z"),
		ConnectionID: event.ConnectionID,
		Direction:    event.Direction.String(),
		Layer:        event.Layer.String(),
		Category:     event.Category.String(),
		Transport:    event.Transport,
		Frame:        event.Frame,
		StateChange:  event.StateChange,
		Error:        event.Error,
	}
	if event.Message != nil {
		msg := &exportedMessage{
			Command:     messageLabel(event.Message),
			Channel:     event.Message.Channel,
			Value:       event.Message.Value,
			PayloadSize: event.Message.PayloadSize,
		}
		if event.Message.SysexCommand != nil {
			name := sysexName(*event.Message.SysexCommand)
			msg.SysexCommand = &name
		}
		out.Message = msg
	}
	return out
}

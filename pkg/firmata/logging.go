package firmata

import (
	"time"

	"github.com/remote-wiring/wiring-go/pkg/log"
)

// maxLoggedFrame caps frame bytes copied into log events; capability
// responses can be long on high-pin-count boards.
const maxLoggedFrame = 512

func (c *Client) currentLogger() log.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logger
}

func (c *Client) logFrame(dir log.Direction, frame []byte) {
	logger := c.currentLogger()
	if logger == nil {
		return
	}
	event := log.NewFrameEvent(c.connID, dir, frame, maxLoggedFrame)
	event.Transport = c.stream.Description()
	logger.Log(event)
}

func (c *Client) logMessage(msg inboundMessage) {
	logger := c.currentLogger()
	if logger == nil {
		return
	}

	event := log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerProtocol,
		Category:     log.CategoryMessage,
		Transport:    c.stream.Description(),
	}
	me := &log.MessageEvent{}
	switch msg.kind {
	case kindDigital:
		me.Command = DigitalMessage
		channel := msg.channel
		value := msg.value
		me.Channel = &channel
		me.Value = &value
	case kindAnalog:
		me.Command = AnalogMessage
		channel := msg.channel
		value := msg.value
		me.Channel = &channel
		me.Value = &value
	case kindVersion:
		me.Command = ProtocolVersion
		value := msg.value
		me.Value = &value
	case kindSysex:
		me.Command = StartSysex
		sysex := msg.sysex
		size := len(msg.payload)
		me.SysexCommand = &sysex
		me.PayloadSize = &size
	}
	event.Message = me
	logger.Log(event)
}

func (c *Client) logState(from, to, reason string) {
	logger := c.currentLogger()
	if logger == nil {
		return
	}
	event := log.NewStateChangeEvent(c.connID, from, to, reason)
	event.Transport = c.stream.Description()
	logger.Log(event)
}

func (c *Client) logError(layer log.Layer, err error) {
	logger := c.currentLogger()
	if logger == nil {
		return
	}
	event := log.NewErrorEvent(c.connID, layer, err)
	event.Transport = c.stream.Description()
	logger.Log(event)
}

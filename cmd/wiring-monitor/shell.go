package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/remote-wiring/wiring-go/pkg/discovery"
	"github.com/remote-wiring/wiring-go/pkg/wiring"
)

// shell is the interactive command loop around a connected device.
type shell struct {
	dev    *wiring.Device
	logger *slog.Logger
	rl     *readline.Instance

	watchHandles []wiring.Handle
}

func newShell(dev *wiring.Device, logger *slog.Logger) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "wiring> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &shell{dev: dev, logger: logger, rl: rl}, nil
}

func (s *shell) run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "status":
			s.cmdStatus()

		case "mode", "m":
			s.cmdMode(args)

		case "dw":
			s.cmdDigitalWrite(args)

		case "dr":
			s.cmdDigitalRead(args)

		case "aw":
			s.cmdAnalogWrite(args)

		case "ar":
			s.cmdAnalogRead(args)

		case "watch":
			s.cmdWatch()

		case "unwatch":
			s.cmdUnwatch()

		case "string":
			s.cmdString(args)

		case "sampling":
			s.cmdSampling(args)

		case "discover":
			s.cmdDiscover(ctx)

		case "exit", "quit", "q":
			cancel()
			return

		default:
			fmt.Fprintf(s.rl.Stdout(), "unknown command %q, try 'help'\n", cmd)
		}
	}
}

func (s *shell) printHelp() {
	out := s.rl.Stdout()
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  status               show device state and pin summary")
	fmt.Fprintln(out, "  mode <pin> <mode>    set pin mode (input|output|analog|pwm|servo)")
	fmt.Fprintln(out, "  dw <pin> <0|1>       digital write")
	fmt.Fprintln(out, "  dr <pin>             digital read")
	fmt.Fprintln(out, "  aw <pin> <value>     analog (PWM) write")
	fmt.Fprintln(out, "  ar <pin>             analog read (pin index or A0..An)")
	fmt.Fprintln(out, "  watch                print pin change notifications")
	fmt.Fprintln(out, "  unwatch              stop printing notifications")
	fmt.Fprintln(out, "  string <text>        send a string message to the board")
	fmt.Fprintln(out, "  sampling <ms>        set the board's sampling interval")
	fmt.Fprintln(out, "  discover             browse for network boards (5s)")
	fmt.Fprintln(out, "  exit                 quit")
}

func (s *shell) cmdStatus() {
	out := s.rl.Stdout()
	fmt.Fprintf(out, "state: %s\n", s.dev.State())
	fmt.Fprintf(out, "pins: %d total, %d analog (offset %d)\n",
		s.dev.TotalPins(), s.dev.NumAnalogPins(), s.dev.AnalogOffset())
	for pin := 0; pin < s.dev.TotalPins(); pin++ {
		fmt.Fprintf(out, "  pin %2d: %s\n", pin, s.dev.GetPinMode(pin))
	}
}

// parseMode maps a mode word to a PinMode.
func parseMode(word string) (wiring.PinMode, bool) {
	switch strings.ToLower(word) {
	case "input", "in":
		return wiring.PinModeInput, true
	case "output", "out":
		return wiring.PinModeOutput, true
	case "analog":
		return wiring.PinModeAnalog, true
	case "pwm":
		return wiring.PinModePWM, true
	case "servo":
		return wiring.PinModeServo, true
	default:
		return wiring.PinModeIgnored, false
	}
}

// isPinName reports whether the argument looks like an analog pin name.
func isPinName(arg string) bool {
	_, err := wiring.ParseAnalogPinName(arg)
	return err == nil
}

func (s *shell) cmdMode(args []string) {
	out := s.rl.Stdout()
	if len(args) != 2 {
		fmt.Fprintln(out, "usage: mode <pin> <mode>")
		return
	}
	mode, ok := parseMode(args[1])
	if !ok {
		fmt.Fprintf(out, "unknown mode %q\n", args[1])
		return
	}
	if isPinName(args[0]) {
		s.dev.PinModeNamed(args[0], mode)
		fmt.Fprintf(out, "%s -> %s\n", args[0], s.dev.GetPinModeNamed(args[0]))
		return
	}
	pin, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(out, "bad pin %q\n", args[0])
		return
	}
	s.dev.PinMode(pin, mode)
	fmt.Fprintf(out, "pin %d -> %s\n", pin, s.dev.GetPinMode(pin))
}

func (s *shell) cmdDigitalWrite(args []string) {
	out := s.rl.Stdout()
	if len(args) != 2 {
		fmt.Fprintln(out, "usage: dw <pin> <0|1>")
		return
	}
	state := wiring.Low
	if args[1] == "1" || strings.EqualFold(args[1], "high") {
		state = wiring.High
	}
	if isPinName(args[0]) {
		s.dev.DigitalWriteNamed(args[0], state)
		return
	}
	pin, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(out, "bad pin %q\n", args[0])
		return
	}
	s.dev.DigitalWrite(pin, state)
}

func (s *shell) cmdDigitalRead(args []string) {
	out := s.rl.Stdout()
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: dr <pin>")
		return
	}
	if isPinName(args[0]) {
		fmt.Fprintf(out, "%s = %s\n", args[0], s.dev.DigitalReadNamed(args[0]))
		return
	}
	pin, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(out, "bad pin %q\n", args[0])
		return
	}
	fmt.Fprintf(out, "pin %d = %s\n", pin, s.dev.DigitalRead(pin))
}

func (s *shell) cmdAnalogWrite(args []string) {
	out := s.rl.Stdout()
	if len(args) != 2 {
		fmt.Fprintln(out, "usage: aw <pin> <value>")
		return
	}
	value, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		fmt.Fprintf(out, "bad value %q\n", args[1])
		return
	}
	if isPinName(args[0]) {
		s.dev.AnalogWriteNamed(args[0], uint16(value))
		return
	}
	pin, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(out, "bad pin %q\n", args[0])
		return
	}
	s.dev.AnalogWrite(pin, uint16(value))
}

func (s *shell) cmdAnalogRead(args []string) {
	out := s.rl.Stdout()
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: ar <pin>")
		return
	}

	var value uint16
	if isPinName(args[0]) {
		value = s.dev.AnalogReadNamed(args[0])
	} else {
		pin, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(out, "bad pin %q\n", args[0])
			return
		}
		value = s.dev.AnalogRead(pin)
	}

	if value == wiring.InvalidReading {
		fmt.Fprintf(out, "%s = invalid (wrong mode or unknown pin)\n", args[0])
		return
	}
	fmt.Fprintf(out, "%s = %d\n", args[0], value)
}

func (s *shell) cmdWatch() {
	if len(s.watchHandles) > 0 {
		fmt.Fprintln(s.rl.Stdout(), "already watching")
		return
	}
	out := s.rl.Stdout()
	s.watchHandles = append(s.watchHandles,
		s.dev.OnDigitalPinChanged(func(pin int, state wiring.PinState) {
			fmt.Fprintf(out, "pin %d -> %s\n", pin, state)
		}),
		s.dev.OnAnalogValueChanged(func(channel int, value uint16) {
			fmt.Fprintf(out, "A%d -> %d\n", channel, value)
		}),
		s.dev.OnStringReceived(func(text string) {
			fmt.Fprintf(out, "board: %s\n", text)
		}),
	)
	fmt.Fprintln(out, "watching (use 'unwatch' to stop)")
}

func (s *shell) cmdUnwatch() {
	for _, h := range s.watchHandles {
		s.dev.Unsubscribe(h)
	}
	s.watchHandles = nil
	fmt.Fprintln(s.rl.Stdout(), "stopped watching")
}

func (s *shell) cmdString(args []string) {
	out := s.rl.Stdout()
	if len(args) == 0 {
		fmt.Fprintln(out, "usage: string <text>")
		return
	}
	if err := s.dev.SendString(strings.Join(args, " ")); err != nil {
		fmt.Fprintf(out, "send failed: %v\n", err)
	}
}

func (s *shell) cmdSampling(args []string) {
	out := s.rl.Stdout()
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: sampling <ms>")
		return
	}
	ms, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		fmt.Fprintf(out, "bad interval %q\n", args[0])
		return
	}
	if err := s.dev.Client().SendSamplingInterval(uint16(ms)); err != nil {
		fmt.Fprintf(out, "send failed: %v\n", err)
	}
}

func (s *shell) cmdDiscover(ctx context.Context) {
	out := s.rl.Stdout()
	browseCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	browser := discovery.NewBrowser(discovery.Config{})
	services, err := browser.Browse(browseCtx)
	if err != nil {
		fmt.Fprintf(out, "browse failed: %v\n", err)
		return
	}

	found := 0
	for svc := range services {
		found++
		fmt.Fprintf(out, "  %s  %s\n", svc.InstanceName, svc.Address())
	}
	if found == 0 {
		fmt.Fprintln(out, "no boards found")
	}
}
